// Package config reads host configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the host configuration. CLI flags override it.
type Config struct {
	// Root is the content tree holding contexts/<context>/packs/...
	Root string `env:"ADVERSITY_ROOT" envDefault:"."`

	// DB is the SQLite file for slots, co-saves and the decision log.
	DB string `env:"ADVERSITY_DB" envDefault:"adversity.db"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"ADVERSITY_LOG_LEVEL" envDefault:"warn"`

	// DefaultCooldown is the cooldown in game days for events without a
	// cooldown of their own.
	DefaultCooldown float64 `env:"ADVERSITY_DEFAULT_COOLDOWN" envDefault:"1"`

	// SaveName selects the save slot in the store.
	SaveName string `env:"ADVERSITY_SAVE_NAME" envDefault:"default"`

	// MaxActive caps running events per context. 0 means no cap.
	MaxActive int `env:"ADVERSITY_MAX_ACTIVE" envDefault:"0"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads an optional dotenv file, then the environment. Variables
// already set in the environment win over the file. An empty path means
// ".env"; a missing file is not an error.
func Load(dotenv string) (Config, error) {
	if dotenv == "" {
		dotenv = ".env"
	}
	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if _, err := ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, err
	}
	if cfg.MaxActive < 0 {
		return Config{}, fmt.Errorf("ADVERSITY_MAX_ACTIVE must not be negative, got %d", cfg.MaxActive)
	}
	return cfg, nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", name)
}
