package config

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "", cfg.DBPath)
	assert.Equal(t, ".fractal/state.json", cfg.StateFile)
	assert.True(t, cfg.Fusion)
	assert.Equal(t, 5, cfg.NotificationWindow)
	assert.Equal(t, 3, cfg.MaxAttempt)
	assert.Equal(t, 10, cfg.HistorySize)
	assert.Equal(t, int64(1), cfg.ProfileID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("FRACTAL_DB", "/tmp/fractal.db")
	t.Setenv("FRACTAL_FUSION", "false")
	t.Setenv("FRACTAL_NOTIFICATION_WINDOW", "8")
	t.Setenv("FRACTAL_PROFILE_ID", "42")
	t.Setenv("FRACTAL_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fractal.db", cfg.DBPath)
	assert.False(t, cfg.Fusion)
	assert.Equal(t, 8, cfg.NotificationWindow)
	assert.Equal(t, int64(42), cfg.ProfileID)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestParseEnvError(t *testing.T) {
	t.Setenv("FRACTAL_MAX_ATTEMPT", "not-an-int")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	base, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"window", func(c *Config) { c.NotificationWindow = 0 }, "FRACTAL_NOTIFICATION_WINDOW"},
		{"attempt", func(c *Config) { c.MaxAttempt = 0 }, "FRACTAL_MAX_ATTEMPT"},
		{"history", func(c *Config) { c.HistorySize = -1 }, "FRACTAL_HISTORY_SIZE"},
		{"profile", func(c *Config) { c.ProfileID = 0 }, "FRACTAL_PROFILE_ID"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log level"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
