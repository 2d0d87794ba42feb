package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/config"
)

var flagDefaults bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration",
	Long: `Print the configuration the server would run with, as YAML.

Search order: --config -> ~/.tetris-battle/configs/server.yaml ->
./configs/server.yaml -> built-in defaults.

Examples:
  tetris config
  tetris config --defaults > ~/.tetris-battle/configs/server.yaml`,
	RunE: runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&flagDefaults, "defaults", false, "Print the built-in default file instead")
}

func runConfig(_ *cobra.Command, _ []string) error {
	if flagDefaults {
		_, err := os.Stdout.Write(config.DefaultYAML())
		return err
	}

	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	if path == "" {
		path = "built-in defaults"
	}
	fmt.Printf("# source: %s\n", path)
	_, err = os.Stdout.Write(data)
	return err
}
