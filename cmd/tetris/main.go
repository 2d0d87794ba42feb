// tetris is a head-to-head falling-block game server with scripted players.
//
// Usage:
//
//	tetris serve              - Start the game server (websocket, optional SSH)
//	tetris bot                - Connect a scripted player to a server
//	tetris duel               - Run an in-process match between two bots
//	tetris list               - List available bot strategies
//	tetris matches            - Show match history
//	tetris config             - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Server config YAML (default search: ~/.tetris-battle/configs, ./configs)
//	--db <path>         - Match history database (default from config)
//	--log-level <level> - debug, info, warn, error
//
// Every flag can also be set through a TETRIS_<FLAG> environment variable,
// e.g. TETRIS_LOG_LEVEL=debug.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const releaseVersion = "0.1.0"

var (
	// Global flags
	flagConfig   string
	flagDBPath   string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tetris",
	Short: "Tetris Battle - head-to-head falling blocks",
	Long: `Tetris Battle pairs players in rooms, counts them down and relays their
boards to each other until everyone tops out. The highest score wins.

Available commands:
  serve    - Start the game server
  bot      - Connect a scripted player to a server
  duel     - Run a local match between two bots
  list     - Show all bot strategies
  matches  - View match history
  config   - Print the effective configuration

Examples:
  tetris serve
  tetris serve --addr :9000 --ssh :23234
  tetris bot --url ws://localhost:8080/ws --strategy greedy
  tetris duel --left greedy --right random
  tetris matches --player alice`,
	Version:           releaseVersion,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: bindEnv,
}

func init() {
	fs := rootCmd.PersistentFlags()
	fs.StringVar(&flagConfig, "config", "", "Path to server config YAML (env: TETRIS_CONFIG)")
	fs.StringVar(&flagDBPath, "db", "", "Path to match history database (env: TETRIS_DB)")
	fs.StringVar(&flagLogLevel, "log-level", "info", "Log level: debug, info, warn, error (env: TETRIS_LOG_LEVEL)")

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetVersionTemplate("tetris-battle v{{.Version}}\n")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(botCmd)
	rootCmd.AddCommand(duelCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(matchesCmd)
	rootCmd.AddCommand(configCmd)
}

// bindEnv fills every flag the user did not pass from its TETRIS_*
// environment variable.
func bindEnv(cmd *cobra.Command, _ []string) error {
	v := viper.New()
	v.SetEnvPrefix("TETRIS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := cmd.Flags()
	var errs []error
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			if err := fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name))); err != nil {
				errs = append(errs, fmt.Errorf("env for --%s: %w", f.Name, err))
			}
		}
	})
	return errors.Join(errs...)
}
