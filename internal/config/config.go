// Package config loads the language server's configuration: the
// database path, the logging level, and the workspace watch settings.
// TOML is the primary format; a YAML alternative is accepted for users
// migrating configuration from other editors' tooling.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config is the language server's resolved configuration.
type Config struct {
	// DatabasePath is the .mm file the worksheet subsystem validates
	// citations against.
	DatabasePath string `toml:"database_path" yaml:"database_path"`

	// LogLevel is one of "debug", "info", "warn", "error".
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// WatchDebounce is how long the workspace watcher waits after the
	// last filesystem event before reloading the database.
	WatchDebounce time.Duration `toml:"watch_debounce" yaml:"watch_debounce"`

	// MaxReloadRetries bounds how many times a failed database load is
	// retried with backoff before Load gives up and returns the error
	// (the watcher then logs it as a warning).
	MaxReloadRetries int `toml:"max_reload_retries" yaml:"max_reload_retries"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LogLevel:         "info",
		WatchDebounce:    250 * time.Millisecond,
		MaxReloadRetries: 5,
	}
}

// Load reads configuration from path, detecting TOML vs YAML by
// extension. A missing file is not an error: Default() is returned
// instead, since the database path can also be supplied via a flag.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse yaml config %s: %w", path, err)
		}
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse toml config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate reports whether the configuration is usable as-is.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("config: database_path is required")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unrecognized log_level %q", c.LogLevel)
	}
	if c.MaxReloadRetries < 0 {
		return fmt.Errorf("config: max_reload_retries must be non-negative")
	}
	return nil
}
