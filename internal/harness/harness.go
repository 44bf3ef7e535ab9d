package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/fractalflow/internal/catalog"
	"github.com/roach88/fractalflow/internal/game"
	"github.com/roach88/fractalflow/internal/localstate"
	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/store"
	"github.com/roach88/fractalflow/internal/symbol"
	"github.com/roach88/fractalflow/internal/testutil"
)

// FlavorSeed fixes the flavor text sequence of every scenario.
const FlavorSeed = 1

// Harness executes one scenario against a freshly assembled controller.
type Harness struct {
	ctrl    *session.Controller
	engines *game.Engines
	repo    *store.MemStore
	clock   *testutil.StepClock
	ids     *testutil.SequenceIDs
	logger  *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs with its own in-memory repository and local state.
// Execution errors (an unreadable catalog, a failed reset) are returned;
// failed expectations are recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	if scenario.Setup != nil {
		if err := h.executeSetup(ctx, scenario.Setup); err != nil {
			return nil, fmt.Errorf("failed to execute setup: %w", err)
		}
	}
	if err := h.ctrl.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}
	if err := h.ctrl.End(ctx); err != nil {
		return nil, fmt.Errorf("failed to end session: %w", err)
	}
	if err := h.collectState(ctx, result); err != nil {
		return nil, err
	}

	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}
	return result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	start, err := scenario.Start()
	if err != nil {
		return nil, err
	}

	var cat *catalog.Catalog
	if scenario.Catalog != "" {
		cat, err = catalog.LoadFile(scenario.Catalog)
	} else {
		cat, err = catalog.Default()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := testutil.NewStepClock(start, 0)
	ids := testutil.NewSequenceIDs("n")
	repo := store.NewMemStore(store.WithClock(clock.Now))

	ctrl, eng, err := game.Build(cat, repo, localstate.Open("", localstate.WithLogger(logger)),
		game.Settings{Fusion: scenario.Fusion, Seed: FlavorSeed},
		game.WithLogger(logger),
		game.WithNow(clock.Now),
		game.WithIDGenerator(ids),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build game: %w", err)
	}

	return &Harness{
		ctrl:    ctrl,
		engines: eng,
		repo:    repo,
		clock:   clock,
		ids:     ids,
		logger:  logger,
	}, nil
}

// executeSetup writes the seeded discoveries straight to the profile, as if
// an earlier session had made them.
func (h *Harness) executeSetup(ctx context.Context, setup *Setup) error {
	if _, err := h.repo.GetProfile(ctx, session.DefaultProfileID); err != nil {
		return err
	}

	discovered := symbol.NewSet()
	for _, g := range setup.Discovered {
		discovered.Add(symbol.MustParse(g))
	}
	total := discovered.Len()
	level := h.engines.Progress.Level(total)
	score := setup.Score

	_, err := h.repo.UpdateProfile(ctx, session.DefaultProfileID, store.ProfilePatch{
		Level:             &level,
		TotalScore:        &score,
		TotalDiscoveries:  &total,
		DiscoveredSymbols: discovered.Strings(),
	})
	return err
}

func (h *Harness) executeFlow(ctx context.Context, flow []FlowStep, result *Result) error {
	for i, step := range flow {
		ev := TraceEvent{
			Seq:           i + 1,
			Action:        step.Action,
			Attempt:       []string{},
			Notifications: []string{},
		}

		switch step.Action {
		case ActionCombine, ActionTap:
			var res session.Result
			if step.Action == ActionTap {
				res = h.ctrl.Tap(ctx)
			} else {
				h.queue(step.Symbols)
				res = h.ctrl.Combine(ctx)
			}
			ev.Attempt = res.Attempt
			ev.Outcome = string(res.Outcome)
			ev.Output = res.Output
			ev.Points = res.Points
			ev.Level = res.Level
			for _, n := range res.Notifications {
				ev.Notifications = append(ev.Notifications, n.Title)
			}
			if res.Outcome == session.OutcomeIgnored {
				ev.Level = h.ctrl.Snapshot().Level
			}
			for _, msg := range checkExpect(i, step.Expect, res) {
				result.AddError(msg)
			}

		case ActionClear:
			h.queue(step.Symbols)
			h.ctrl.Clear()
			ev.Level = h.ctrl.Snapshot().Level

		case ActionReset:
			if err := h.ctrl.Reset(ctx); err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			ev.Level = h.ctrl.Snapshot().Level

		case ActionNextDay:
			h.clock.Advance(24 * time.Hour)
			ev.Level = h.ctrl.Snapshot().Level

		default:
			return fmt.Errorf("flow step %d: unknown action %q", i, step.Action)
		}

		result.AddEvent(ev)
		h.logger.Info("flow step completed",
			"step", i,
			"action", step.Action,
			"outcome", ev.Outcome,
		)
	}
	return nil
}

func (h *Harness) queue(glyphs []string) {
	for _, g := range glyphs {
		h.ctrl.AddSymbol(symbol.MustParse(g))
	}
}

// collectState reads the persisted profile and discoveries into result.
func (h *Harness) collectState(ctx context.Context, result *Result) error {
	p, err := h.repo.GetProfile(ctx, session.DefaultProfileID)
	if err != nil {
		return fmt.Errorf("failed to read profile: %w", err)
	}
	result.Profile = FinalProfile{
		Level:            p.Level,
		TotalScore:       p.TotalScore,
		TotalDiscoveries: p.TotalDiscoveries,
		FlowStreak:       p.FlowStreak,
		Discovered:       p.DiscoveredSymbols,
	}
	if result.Profile.Discovered == nil {
		result.Profile.Discovered = []string{}
	}

	ds, err := h.repo.ListDiscoveries(ctx, session.DefaultProfileID, 0)
	if err != nil {
		return fmt.Errorf("failed to read discoveries: %w", err)
	}
	for _, d := range ds {
		result.Discoveries = append(result.Discoveries, d.SymbolResult)
	}
	return nil
}
