// Package config provides YAML-based server configuration loading and the
// gravity schedule for the tetris-battle server.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/tetris-battle/internal/core"
	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
	"github.com/vovakirdan/tetris-battle/internal/tetris"
)

// ServerConfig contains all configuration for the server.
type ServerConfig struct {
	HTTP     HTTPConfig     `yaml:"http"`
	SSH      SSHConfig      `yaml:"ssh"`
	Rooms    RoomsConfig    `yaml:"rooms"`
	Sessions SessionsConfig `yaml:"sessions"`
	Engine   EngineConfig   `yaml:"engine"`
	Gravity  GravityConfig  `yaml:"gravity"`
	Storage  StorageConfig  `yaml:"storage"`
}

// HTTPConfig defines the websocket/HTTP listener.
type HTTPConfig struct {
	Address   string `yaml:"address"`
	PublicURL string `yaml:"public_url"` // Base of invite links; derived from the request if empty
}

// SSHConfig defines the optional SSH transport.
type SSHConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Address     string        `yaml:"address"`
	HostKeyPath string        `yaml:"host_key_path"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RoomsConfig defines room capacity and match timing.
type RoomsConfig struct {
	DefaultMaxPlayers int           `yaml:"default_max_players"`
	MaxPlayersLimit   int           `yaml:"max_players_limit"`
	CountdownFrom     int           `yaml:"countdown_from"`
	CountdownInterval time.Duration `yaml:"countdown_interval"`
	TimeLimit         time.Duration `yaml:"time_limit"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	CleanupPeriod     time.Duration `yaml:"cleanup_period"`
}

// SessionsConfig defines presence and per-connection buffering.
type SessionsConfig struct {
	OfflineTTL  time.Duration `yaml:"offline_ttl"`
	EventBuffer int           `yaml:"event_buffer"`
}

// EngineConfig defines the board every participant plays on.
type EngineConfig struct {
	Width       int `yaml:"width"`
	Height      int `yaml:"height"`
	QueueLength int `yaml:"queue_length"`
}

// GravityConfig defines the automatic drop interval per level.
type GravityConfig struct {
	Base    time.Duration `yaml:"base"`    // Interval at level 1
	Step    time.Duration `yaml:"step"`    // Reduction per level
	Minimum time.Duration `yaml:"minimum"` // Fastest interval
}

// StorageConfig defines the match history database.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Validate reports every invalid value.
func (c ServerConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.HTTP.Address != "", "http.address is required")
	if c.SSH.Enabled {
		check(c.SSH.Address != "", "ssh.address is required when ssh is enabled")
	}
	check(c.SSH.IdleTimeout >= 0, "ssh.idle_timeout must not be negative")

	r := c.Rooms
	check(r.MaxPlayersLimit >= 2, "rooms.max_players_limit must be at least 2, got %d", r.MaxPlayersLimit)
	check(r.DefaultMaxPlayers >= 2 && r.DefaultMaxPlayers <= r.MaxPlayersLimit,
		"rooms.default_max_players must be within [2, %d], got %d", r.MaxPlayersLimit, r.DefaultMaxPlayers)
	check(r.CountdownFrom >= 0, "rooms.countdown_from must not be negative")
	check(r.CountdownInterval > 0, "rooms.countdown_interval must be positive")
	check(r.TimeLimit > 0, "rooms.time_limit must be positive")
	check(r.IdleTimeout > 0, "rooms.idle_timeout must be positive")
	check(r.CleanupPeriod > 0, "rooms.cleanup_period must be positive")

	check(c.Sessions.OfflineTTL > 0, "sessions.offline_ttl must be positive")
	check(c.Sessions.EventBuffer > 0, "sessions.event_buffer must be positive")

	check(c.Engine.Width >= 4, "engine.width must be at least 4, got %d", c.Engine.Width)
	check(c.Engine.Height >= 4, "engine.height must be at least 4, got %d", c.Engine.Height)
	check(c.Engine.QueueLength > 0, "engine.queue_length must be positive")

	check(c.Gravity.Base > 0, "gravity.base must be positive")
	check(c.Gravity.Step >= 0, "gravity.step must not be negative")
	check(c.Gravity.Minimum > 0 && c.Gravity.Minimum <= c.Gravity.Base,
		"gravity.minimum must be positive and not above gravity.base")

	if c.Storage.Enabled {
		check(c.Storage.Path != "", "storage.path is required when storage is enabled")
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Coordinator converts the room and session sections.
func (c ServerConfig) Coordinator() multiplayer.CoordinatorConfig {
	return multiplayer.CoordinatorConfig{
		DefaultMaxPlayers: c.Rooms.DefaultMaxPlayers,
		MaxPlayersLimit:   c.Rooms.MaxPlayersLimit,
		CountdownFrom:     c.Rooms.CountdownFrom,
		CountdownInterval: c.Rooms.CountdownInterval,
		TimeLimit:         c.Rooms.TimeLimit,
		RoomIdleTimeout:   c.Rooms.IdleTimeout,
		OfflineTTL:        c.Sessions.OfflineTTL,
		CleanupPeriod:     c.Rooms.CleanupPeriod,
	}
}

// Runtime converts the engine section for one participant.
func (c ServerConfig) Runtime(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{
		BoardW:      c.Engine.Width,
		BoardH:      c.Engine.Height,
		QueueLength: c.Engine.QueueLength,
		Seed:        seed,
	}
}

// GravityFunc returns the drop schedule described by the gravity section.
func (c ServerConfig) GravityFunc() tetris.GravityFunc {
	return c.Gravity.schedule()
}
