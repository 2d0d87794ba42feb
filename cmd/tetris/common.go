package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/vovakirdan/tetris-battle/internal/config"
)

// newLogger builds the root logger. Output is JSON when stderr is not a terminal.
func newLogger(prefix string) (*log.Logger, error) {
	level, err := log.ParseLevel(flagLogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", flagLogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	})
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger, nil
}

// loadConfig loads the server configuration and applies --db.
func loadConfig() (config.ServerConfig, string, error) {
	cfg, path, err := config.Load(flagConfig)
	if err != nil {
		return config.ServerConfig{}, "", err
	}
	if flagDBPath != "" {
		cfg.Storage.Path = flagDBPath
		cfg.Storage.Enabled = true
	}
	return cfg, path, nil
}
