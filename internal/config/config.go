// Package config loads daemon configuration from a TOML file with
// sensible defaults for everything.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Storage  Storage  `toml:"storage"`
	Dispatch Dispatch `toml:"dispatch"`
	Log      Log      `toml:"log"`
}

type Storage struct {
	// Path to the SQLite database file. Empty means the per-user
	// default under the state directory.
	Path string `toml:"path"`

	// Tombstones older than this are purged; shorter retention risks
	// resurrecting deletes from devices that sync rarely.
	TombstoneRetentionDays int `toml:"tombstone-retention-days"`

	CompletedRetentionDays int `toml:"completed-retention-days"`
	KeepCompleted          int `toml:"keep-completed"`
}

type Dispatch struct {
	TickSeconds int `toml:"tick-seconds"`
}

type Log struct {
	Level string `toml:"level"`
}

func Default() Config {
	return Config{
		Storage: Storage{
			TombstoneRetentionDays: 7,
			CompletedRetentionDays: 30,
			KeepCompleted:          100,
		},
		Dispatch: Dispatch{TickSeconds: 30},
		Log:      Log{Level: "info"},
	}
}

// Load reads the config at path, or the default location when path is
// empty. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, nil
		}
		path = filepath.Join(dir, "remindd", "config.toml")
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// DatabasePath resolves the SQLite file location, creating the parent
// directory when the default location is used.
func (c Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home: %w", err)
	}
	dir := filepath.Join(home, ".local", "share", "remindd")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("config: create data dir: %w", err)
	}
	return filepath.Join(dir, "remindd.db"), nil
}

func (c Config) TickInterval() time.Duration {
	if c.Dispatch.TickSeconds < 1 || c.Dispatch.TickSeconds > 60 {
		return 30 * time.Second
	}
	return time.Duration(c.Dispatch.TickSeconds) * time.Second
}

func (c Config) TombstoneRetention() time.Duration {
	days := c.Storage.TombstoneRetentionDays
	if days < 1 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c Config) CompletedRetention() time.Duration {
	days := c.Storage.CompletedRetentionDays
	if days < 1 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func (c Config) LogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
