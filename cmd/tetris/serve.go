package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tetris-battle/internal/config"
	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/server"
	"github.com/vovakirdan/tetris-battle/internal/storage"
)

var (
	flagAddr        string
	flagPublicURL   string
	flagSSHAddr     string
	flagHostKey     string
	flagNoStorage   bool
	flagIdleTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the game server. Clients connect over websocket at /ws and speak
JSON envelopes, or MessagePack with /ws?codec=msgpack. With --ssh the same
protocol is also served to SSH sessions as one JSON envelope per line.

HTTP endpoints:
  /ws              - websocket game protocol
  /healthz         - liveness probe
  /version         - server version
  /api/status      - online users, rooms and matches in progress
  /api/rooms       - current rooms
  /rooms/:id/qr    - PNG QR code with the room's invite link

Finished and forfeited matches are saved to the match history database
unless --no-storage is given.

Examples:
  tetris serve                           # Listen on :8080
  tetris serve --addr :9000              # Listen on port 9000
  tetris serve --ssh :23234              # Also accept SSH sessions
  tetris serve --config ./server.yaml    # Use specific config
  tetris serve --db ./matches.db         # Use specific database

SSH clients can connect with:
  ssh localhost -p 23234`,
	RunE: runServe,
}

func init() {
	fs := serveCmd.Flags()
	fs.StringVar(&flagAddr, "addr", "", "HTTP listen address, overrides http.address (env: TETRIS_ADDR)")
	fs.StringVar(&flagPublicURL, "public-url", "", "Base URL for room invite links (env: TETRIS_PUBLIC_URL)")
	fs.StringVar(&flagSSHAddr, "ssh", "", "Also serve SSH on this address (env: TETRIS_SSH)")
	fs.StringVar(&flagHostKey, "host-key", "", "Path to SSH host key file (auto-generated if missing)")
	fs.BoolVar(&flagNoStorage, "no-storage", false, "Do not record match history (env: TETRIS_NO_STORAGE)")
	fs.DurationVar(&flagIdleTimeout, "idle-timeout", 0, "SSH idle timeout, overrides ssh.idle_timeout")
}

// applyServeFlags overlays command-line values on the file configuration.
func applyServeFlags(cmd *cobra.Command, cfg *config.ServerConfig) error {
	fs := cmd.Flags()
	if fs.Changed("addr") {
		cfg.HTTP.Address = flagAddr
	}
	if fs.Changed("public-url") {
		cfg.HTTP.PublicURL = flagPublicURL
	}
	if fs.Changed("ssh") {
		cfg.SSH.Enabled = flagSSHAddr != ""
		cfg.SSH.Address = flagSSHAddr
	}
	if fs.Changed("host-key") {
		cfg.SSH.HostKeyPath = flagHostKey
	}
	if fs.Changed("idle-timeout") {
		cfg.SSH.IdleTimeout = flagIdleTimeout
	}
	if flagNoStorage {
		cfg.Storage.Enabled = false
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, &cfg); err != nil {
		return err
	}

	logger, err := newLogger("tetris")
	if err != nil {
		return err
	}
	if path != "" {
		logger.Info("loaded config", "path", path)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coord := multiplayer.NewCoordinator(cfg.Coordinator(), multiplayer.NewSessionRegistry())
	coord.SetLogger(logger.With("component", "coordinator"))

	if cfg.Storage.Enabled {
		store, err := storage.Open(cfg.Storage.Path)
		if err != nil {
			// Continue without storage
			logger.Warn("could not open match database", "error", err)
		} else {
			defer store.Close()
			coord.SetResultSaver(store)
			logger.Info("recording match history", "path", cfg.Storage.Path)
		}
	}

	coord.Start()
	defer coord.Stop()

	httpSrv := server.New(coord, server.Options{
		Address:     cfg.HTTP.Address,
		PublicURL:   cfg.HTTP.PublicURL,
		Version:     releaseVersion,
		EventBuffer: cfg.Sessions.EventBuffer,
		Logger:      logger.With("component", "http"),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	running := 1
	go func() { errCh <- httpSrv.ListenAndServe(ctx) }()

	if cfg.SSH.Enabled {
		sshSrv, err := server.NewSSHServer(coord, server.SSHOptions{
			Address:     cfg.SSH.Address,
			HostKeyPath: config.ExpandHome(cfg.SSH.HostKeyPath),
			IdleTimeout: cfg.SSH.IdleTimeout,
			EventBuffer: cfg.Sessions.EventBuffer,
			Logger:      logger.With("component", "ssh"),
		})
		if err != nil {
			cancel()
			<-errCh
			return fmt.Errorf("cannot create SSH server: %w", err)
		}
		running++
		go func() { errCh <- sshSrv.ListenAndServe(ctx) }()
		fmt.Printf("SSH clients can connect with: ssh localhost -p %s\n", portOf(cfg.SSH.Address))
	}

	fmt.Printf("Tetris Battle server listening on %s\n", cfg.HTTP.Address)
	fmt.Println("Press Ctrl+C to stop")

	// The first listener to stop takes the others down with it.
	var errs []error
	for ; running > 0; running-- {
		if err := <-errCh; err != nil {
			errs = append(errs, err)
		}
		cancel()
	}
	logger.Info("server stopped")
	return errors.Join(errs...)
}

// portOf returns the port part of a host:port address.
func portOf(addr string) string {
	if _, port, err := net.SplitHostPort(addr); err == nil {
		return port
	}
	return addr
}
