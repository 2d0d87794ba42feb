package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load loads the server configuration.
// Search order: customPath -> ~/.tetris-battle/configs/server.yaml -> ./configs/server.yaml -> embedded default
// Files are decoded over the defaults, so a partial file only overrides what it names.
// The returned path is the file that was used, or empty for the built-in defaults.
func Load(customPath string) (ServerConfig, string, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return ServerConfig{}, "", fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return ServerConfig{}, "", fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, customPath, nil
	}

	// Try user config directory, then the local configs directory
	for _, path := range []string{userConfigPath("server.yaml"), filepath.Join("configs", "server.yaml")} {
		if path == "" {
			continue
		}
		if data, err := os.ReadFile(path); err == nil {
			if cfg, err := Parse(data); err == nil {
				return cfg, path, nil
			}
		}
	}

	// Use embedded default YAML
	cfg, err := Parse(defaultServerYAML)
	if err != nil {
		return DefaultServerConfig(), "", nil // Fallback to hardcoded if embed fails
	}
	return cfg, "", nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func Marshal(cfg ServerConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || (len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tetris-battle", "configs", filename)
}
