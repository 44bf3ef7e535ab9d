// Package config loads runtime settings from FRACTAL_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the CLI and HTTP shell need to assemble a game.
type Config struct {
	DBPath             string `env:"FRACTAL_DB"`
	StateFile          string `env:"FRACTAL_STATE_FILE" envDefault:".fractal/state.json"`
	Fusion             bool   `env:"FRACTAL_FUSION" envDefault:"true"`
	NotificationWindow int    `env:"FRACTAL_NOTIFICATION_WINDOW" envDefault:"5"`
	MaxAttempt         int    `env:"FRACTAL_MAX_ATTEMPT" envDefault:"3"`
	HistorySize        int    `env:"FRACTAL_HISTORY_SIZE" envDefault:"10"`
	ProfileID          int64  `env:"FRACTAL_PROFILE_ID" envDefault:"1"`
	HTTPAddr           string `env:"FRACTAL_HTTP_ADDR" envDefault:":8080"`
	LogLevel           string `env:"FRACTAL_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the game cannot run with.
func (c Config) Validate() error {
	switch {
	case c.NotificationWindow < 1:
		return fmt.Errorf("FRACTAL_NOTIFICATION_WINDOW must be >= 1, got %d", c.NotificationWindow)
	case c.MaxAttempt < 1:
		return fmt.Errorf("FRACTAL_MAX_ATTEMPT must be >= 1, got %d", c.MaxAttempt)
	case c.HistorySize < 1:
		return fmt.Errorf("FRACTAL_HISTORY_SIZE must be >= 1, got %d", c.HistorySize)
	case c.ProfileID < 1:
		return fmt.Errorf("FRACTAL_PROFILE_ID must be >= 1, got %d", c.ProfileID)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
