// Package game assembles a playable session from a catalog, a repository and
// local state. The CLI, the HTTP shell and the scenario harness all build
// their controllers here.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/fractalflow/internal/catalog"
	"github.com/roach88/fractalflow/internal/flavor"
	"github.com/roach88/fractalflow/internal/localstate"
	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/store"
	"github.com/roach88/fractalflow/internal/symbol"
)

// Engines are the immutable pieces compiled from a catalog.
type Engines struct {
	Catalog   *catalog.Catalog
	Registry  *symbol.Registry
	Resolver  *rules.Resolver
	Progress  *progress.Engine
	Mysteries *mystery.Engine
	Flavor    *flavor.Selector
}

// Settings tune how a game is assembled.
type Settings struct {
	Fusion             bool
	ProfileID          int64
	MaxAttempt         int
	NotificationWindow int
	HistorySize        int

	// Seed fixes the flavor text sequence. Zero seeds from the wall clock.
	Seed int64
}

// Option configures Build.
type Option func(*buildOptions)

type buildOptions struct {
	logger *slog.Logger
	now    func() time.Time
	ids    session.IDGenerator
}

// WithLogger sets the logger handed to every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *buildOptions) {
		o.logger = l
	}
}

// WithNow sets the wall clock of the controller.
func WithNow(now func() time.Time) Option {
	return func(o *buildOptions) {
		o.now = now
	}
}

// WithIDGenerator sets the notification id source.
func WithIDGenerator(g session.IDGenerator) Option {
	return func(o *buildOptions) {
		o.ids = g
	}
}

// NewEngines compiles the rule engines of cat. Mystery progress is kept in
// progressStore.
func NewEngines(cat *catalog.Catalog, progressStore mystery.ProgressStore, s Settings, opts ...Option) (*Engines, error) {
	if cat == nil {
		return nil, errors.New("game: catalog is required")
	}
	o := collect(opts)

	table := cat.Table()
	prog, err := cat.ProgressEngine()
	if err != nil {
		return nil, fmt.Errorf("build progress engine: %w", err)
	}
	mysteries, err := mystery.NewEngine(cat.Mysteries, progressStore, mystery.WithLogger(o.logger))
	if err != nil {
		return nil, fmt.Errorf("build mystery engine: %w", err)
	}

	seed := s.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Engines{
		Catalog:   cat,
		Registry:  cat.Registry(),
		Resolver:  rules.NewResolver(table, rules.WithFusion(s.Fusion)),
		Progress:  prog,
		Mysteries: mysteries,
		Flavor:    flavor.NewSeeded(cat.Flavor, table, prog, seed),
	}, nil
}

// Build assembles a session controller. The controller is not started.
func Build(cat *catalog.Catalog, repo store.Repository, local *localstate.File, s Settings, opts ...Option) (*session.Controller, *Engines, error) {
	if local == nil {
		return nil, nil, errors.New("game: local state is required")
	}
	eng, err := NewEngines(cat, local, s, opts...)
	if err != nil {
		return nil, nil, err
	}
	o := collect(opts)

	sopts := []session.Option{session.WithLogger(o.logger), session.WithNow(o.now)}
	if o.ids != nil {
		sopts = append(sopts, session.WithIDGenerator(o.ids))
	}

	ctrl, err := session.New(session.Deps{
		Resolver:  eng.Resolver,
		Progress:  eng.Progress,
		Mysteries: eng.Mysteries,
		Repo:      repo,
		Local:     local,
		Registry:  eng.Registry,
		Flavor:    eng.Flavor,
	}, session.Config{
		ProfileID:               s.ProfileID,
		MaxAttempt:              s.MaxAttempt,
		NotificationWindow:      s.NotificationWindow,
		HistorySize:             s.HistorySize,
		FourElementsBonus:       cat.FourElementsBonus,
		MysteryBonusPoints:      cat.MysteryBonus.Points,
		MysteryBonusCombination: cat.MysteryBonus.Combination,
	}, sopts...)
	if err != nil {
		return nil, nil, err
	}
	return ctrl, eng, nil
}

func collect(opts []Option) buildOptions {
	o := buildOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
