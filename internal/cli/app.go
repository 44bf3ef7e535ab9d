package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/catalog"
	"github.com/roach88/fractalflow/internal/config"
	"github.com/roach88/fractalflow/internal/game"
	"github.com/roach88/fractalflow/internal/localstate"
	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/store"
)

// app is everything a game command needs, opened from the environment and
// the global flags.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	cat    *catalog.Catalog
	repo   store.Repository
	local  *localstate.File
}

// openApp loads configuration, applies flag overrides and opens storage.
// Errors are ExitErrors with ExitCommandError.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(opts, cmd)
	if err != nil {
		return nil, err
	}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
	}

	repo, err := openRepository(cfg.DBPath, logger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		cat:    cat,
		repo:   repo,
		local:  localstate.Open(cfg.StateFile, localstate.WithLogger(logger)),
	}, nil
}

// loadConfig reads the FRACTAL_* environment, applies flag overrides and
// builds the logger.
func loadConfig(opts *RootOptions, cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}
	if opts.StateFile != "" {
		cfg.StateFile = opts.StateFile
	}
	if opts.NoFusion {
		cfg.Fusion = false
	}

	logger, err := newLogger(cfg, opts.Verbose, cmd.ErrOrStderr())
	if err != nil {
		return config.Config{}, nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, logger, nil
}

// newLogger writes text logs to w. Below warn needs --verbose, which
// forces debug.
func newLogger(cfg config.Config, verbose bool, w io.Writer) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = slog.LevelDebug
	} else if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("catalog not found: %s", path)
	}
	return catalog.LoadFile(path)
}

// openRepository opens the SQLite store at path, creating its directory.
// An empty path keeps everything in memory.
func openRepository(path string, logger *slog.Logger) (store.Repository, error) {
	if path == "" {
		logger.Debug("no database configured, progress is kept in memory")
		return store.NewMemStore(), nil
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	logger.Debug("opening database", "path", path)
	return store.Open(path)
}

func (a *app) settings() game.Settings {
	return game.Settings{
		Fusion:             a.cfg.Fusion,
		ProfileID:          a.cfg.ProfileID,
		MaxAttempt:         a.cfg.MaxAttempt,
		NotificationWindow: a.cfg.NotificationWindow,
		HistorySize:        a.cfg.HistorySize,
	}
}

// build assembles a controller over the app's storage.
func (a *app) build(opts ...game.Option) (*session.Controller, *game.Engines, error) {
	opts = append([]game.Option{game.WithLogger(a.logger)}, opts...)
	return game.Build(a.cat, a.repo, a.local, a.settings(), opts...)
}

// engines compiles the catalog without a controller.
func (a *app) engines() (*game.Engines, error) {
	return game.NewEngines(a.cat, a.local, a.settings(), game.WithLogger(a.logger))
}

func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}
