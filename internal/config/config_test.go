package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestEmbeddedMatchesDefaults(t *testing.T) {
	cfg, err := Parse(DefaultYAML())
	if err != nil {
		t.Fatalf("Parse(embedded) failed: %v", err)
	}
	if cfg != DefaultServerConfig() {
		t.Errorf("embedded yaml differs from DefaultServerConfig():\n got %+v\nwant %+v", cfg, DefaultServerConfig())
	}
}

func TestDefaultsValidate(t *testing.T) {
	if err := DefaultServerConfig().Validate(); err != nil {
		t.Errorf("Validate() on defaults failed: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ServerConfig)
		want   string
	}{
		{"no http address", func(c *ServerConfig) { c.HTTP.Address = "" }, "http.address"},
		{"ssh without address", func(c *ServerConfig) { c.SSH.Enabled = true; c.SSH.Address = "" }, "ssh.address"},
		{"limit below two", func(c *ServerConfig) { c.Rooms.MaxPlayersLimit = 1 }, "max_players_limit"},
		{"default above limit", func(c *ServerConfig) { c.Rooms.DefaultMaxPlayers = 9 }, "default_max_players"},
		{"zero countdown interval", func(c *ServerConfig) { c.Rooms.CountdownInterval = 0 }, "countdown_interval"},
		{"zero time limit", func(c *ServerConfig) { c.Rooms.TimeLimit = 0 }, "time_limit"},
		{"zero event buffer", func(c *ServerConfig) { c.Sessions.EventBuffer = 0 }, "event_buffer"},
		{"narrow board", func(c *ServerConfig) { c.Engine.Width = 3 }, "engine.width"},
		{"no queue", func(c *ServerConfig) { c.Engine.QueueLength = 0 }, "queue_length"},
		{"minimum above base", func(c *ServerConfig) { c.Gravity.Minimum = 2 * time.Second }, "gravity.minimum"},
		{"storage without path", func(c *ServerConfig) { c.Storage.Path = "" }, "storage.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultServerConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestStorageDisabledNeedsNoPath(t *testing.T) {
	cfg := DefaultServerConfig()
	cfg.Storage.Enabled = false
	cfg.Storage.Path = ""
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
}

func TestGravityInterval(t *testing.T) {
	g := DefaultServerConfig().Gravity
	tests := []struct {
		level int
		want  time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 900 * time.Millisecond},
		{5, 600 * time.Millisecond},
		{10, 100 * time.Millisecond},
		{15, 100 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := g.Interval(tt.level); got != tt.want {
			t.Errorf("Interval(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestParsePartialOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("rooms:\n  countdown_from: 5\n  time_limit: 90s\nengine:\n  width: 12\n"))
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if cfg.Rooms.CountdownFrom != 5 || cfg.Rooms.TimeLimit != 90*time.Second || cfg.Engine.Width != 12 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.Engine.Height != 20 || cfg.HTTP.Address != ":8080" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	if _, err := Parse([]byte("rooms: [")); err == nil {
		t.Error("Parse(malformed) succeeded")
	}
	if _, err := Parse([]byte("engine:\n  width: 2\n")); err == nil {
		t.Error("Parse(invalid) succeeded")
	}
}

func TestLoadSearchOrder(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if path != "" || cfg != DefaultServerConfig() {
		t.Errorf("Load() without files = %q, %+v", path, cfg)
	}

	writeFile(t, filepath.Join("configs", "server.yaml"), "http:\n  address: \":9000\"\n")
	cfg, path, err = Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.HTTP.Address != ":9000" || path != filepath.Join("configs", "server.yaml") {
		t.Errorf("local config not used: %q %q", path, cfg.HTTP.Address)
	}

	userPath := filepath.Join(home, ".tetris-battle", "configs", "server.yaml")
	writeFile(t, userPath, "http:\n  address: \":9100\"\n")
	cfg, path, err = Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.HTTP.Address != ":9100" || path != userPath {
		t.Errorf("user config not preferred: %q %q", path, cfg.HTTP.Address)
	}

	custom := filepath.Join(t.TempDir(), "custom.yaml")
	writeFile(t, custom, "http:\n  address: \":9200\"\n")
	cfg, path, err = Load(custom)
	if err != nil {
		t.Fatalf("Load(custom) failed: %v", err)
	}
	if cfg.HTTP.Address != ":9200" || path != custom {
		t.Errorf("custom config not used: %q %q", path, cfg.HTTP.Address)
	}
}

func TestLoadCustomErrors(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load(missing) succeeded")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	writeFile(t, bad, "engine:\n  height: 1\n")
	if _, _, err := Load(bad); err == nil {
		t.Error("Load(invalid) succeeded")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Marshal(DefaultServerConfig())
	if err != nil {
		t.Fatalf("Marshal() failed: %v", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()) failed: %v", err)
	}
	if cfg != DefaultServerConfig() {
		t.Errorf("round trip changed config: %+v", cfg)
	}
}

func TestConversions(t *testing.T) {
	cfg := DefaultServerConfig()

	cc := cfg.Coordinator()
	if cc.DefaultMaxPlayers != 2 || cc.MaxPlayersLimit != 8 || cc.CountdownFrom != 3 ||
		cc.CountdownInterval != time.Second || cc.TimeLimit != 3*time.Minute ||
		cc.OfflineTTL != 5*time.Minute || cc.CleanupPeriod != 30*time.Second {
		t.Errorf("Coordinator() = %+v", cc)
	}

	rc := cfg.Runtime(42)
	if rc.BoardW != 10 || rc.BoardH != 20 || rc.QueueLength != 5 || rc.Seed != 42 {
		t.Errorf("Runtime() = %+v", rc)
	}

	if got := cfg.GravityFunc()(3); got != 800*time.Millisecond {
		t.Errorf("GravityFunc()(3) = %v, want 800ms", got)
	}
}

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		in, want string
	}{
		{"~/x.db", filepath.Join(home, "x.db")},
		{"~", home},
		{"/abs/x.db", "/abs/x.db"},
		{"rel/x.db", "rel/x.db"},
		{"~user/x", "~user/x"},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
