package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/server.yaml
var defaultServerYAML []byte

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTP: HTTPConfig{
			Address: ":8080",
		},
		SSH: SSHConfig{
			Address:     ":23234",
			HostKeyPath: "~/.tetris-battle/host_key",
			IdleTimeout: 10 * time.Minute,
		},
		Rooms: RoomsConfig{
			DefaultMaxPlayers: 2,
			MaxPlayersLimit:   8,
			CountdownFrom:     3,
			CountdownInterval: time.Second,
			TimeLimit:         3 * time.Minute,
			IdleTimeout:       30 * time.Minute,
			CleanupPeriod:     30 * time.Second,
		},
		Sessions: SessionsConfig{
			OfflineTTL:  5 * time.Minute,
			EventBuffer: 256,
		},
		Engine: EngineConfig{
			Width:       10,
			Height:      20,
			QueueLength: 5,
		},
		Gravity: GravityConfig{
			Base:    time.Second,
			Step:    100 * time.Millisecond,
			Minimum: 100 * time.Millisecond,
		},
		Storage: StorageConfig{
			Enabled: true,
			Path:    "~/.tetris-battle/matches.db",
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultServerYAML
}
