package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fractalflow/internal/testutil"
)

var testStart = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// repositories runs fn against every Repository implementation.
func repositories(t *testing.T, fn func(t *testing.T, r Repository, clock *testutil.StepClock)) {
	t.Run("memory", func(t *testing.T) {
		clock := testutil.NewStepClock(testStart, time.Second)
		fn(t, NewMemStore(WithClock(clock.Now)), clock)
	})
	t.Run("sqlite", func(t *testing.T) {
		clock := testutil.NewStepClock(testStart, time.Second)
		fn(t, createTestStore(t, WithClock(clock.Now)), clock)
	})
}

func intPtr(v int) *int { return &v }

func TestRepository_GetProfileCreatesDefault(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()

		p, err := r.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), p.ID)
		assert.Equal(t, 1, p.Level)
		assert.Equal(t, 0, p.TotalScore)
		assert.Equal(t, 0, p.TotalDiscoveries)
		assert.Equal(t, 0, p.FlowStreak)
		assert.Equal(t, []string{}, p.DiscoveredSymbols)
		assert.Equal(t, map[string]any{}, p.SessionData)
		assert.True(t, p.CreatedAt.Equal(testStart))

		again, err := r.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.True(t, again.CreatedAt.Equal(p.CreatedAt), "second read must not recreate")
	})
}

func TestRepository_GetProfileRejectsBadID(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		_, err := r.GetProfile(context.Background(), 0)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "id", verr.Field)
	})
}

func TestRepository_UpdateProfile(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()
		createTestProfile(t, r, 1)

		updated, err := r.UpdateProfile(ctx, 1, ProfilePatch{
			Level:             intPtr(2),
			TotalScore:        intPtr(35),
			TotalDiscoveries:  intPtr(3),
			FlowStreak:        intPtr(3),
			DiscoveredSymbols: []string{"⚫", "·", "∶", "∴"},
			SessionData:       map[string]any{"tutorial": true},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, updated.Level)
		assert.Equal(t, 35, updated.TotalScore)
		assert.True(t, updated.UpdatedAt.After(updated.CreatedAt))

		got, err := r.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, updated.DiscoveredSymbols, got.DiscoveredSymbols)
		assert.Equal(t, 3, got.FlowStreak)
		assert.Equal(t, true, got.SessionData["tutorial"])
	})
}

func TestRepository_UpdateProfilePartial(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()
		createTestProfile(t, r, 1)

		_, err := r.UpdateProfile(ctx, 1, ProfilePatch{DiscoveredSymbols: []string{"⚫"}})
		require.NoError(t, err)
		got, err := r.UpdateProfile(ctx, 1, ProfilePatch{TotalScore: intPtr(5)})
		require.NoError(t, err)

		assert.Equal(t, []string{"⚫"}, got.DiscoveredSymbols, "nil slice leaves symbols unchanged")
		assert.Equal(t, 1, got.Level)
		assert.Equal(t, 5, got.TotalScore)
	})
}

func TestRepository_UpdateProfileErrors(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()

		_, err := r.UpdateProfile(ctx, 7, ProfilePatch{TotalScore: intPtr(1)})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

		createTestProfile(t, r, 7)
		tests := []struct {
			name  string
			patch ProfilePatch
			field string
		}{
			{"level zero", ProfilePatch{Level: intPtr(0)}, "level"},
			{"negative score", ProfilePatch{TotalScore: intPtr(-1)}, "totalScore"},
			{"negative streak", ProfilePatch{FlowStreak: intPtr(-2)}, "flowStreak"},
			{"empty symbol", ProfilePatch{DiscoveredSymbols: []string{"·", " "}}, "discoveredSymbols[1]"},
			{"duplicate symbol", ProfilePatch{DiscoveredSymbols: []string{"·", "∶", "·"}}, "discoveredSymbols[2]"},
		}
		for _, tt := range tests {
			_, err := r.UpdateProfile(ctx, 7, tt.patch)
			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr, tt.name) {
				assert.Equal(t, tt.field, verr.Field, tt.name)
			}
		}

		p, err := r.GetProfile(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, 1, p.Level, "rejected patches leave the row alone")
	})
}

func TestRepository_Discoveries(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()
		createTestProfile(t, r, 1)
		createTestProfile(t, r, 2)

		inputs := []NewDiscovery{
			{ProfileID: 1, SymbolResult: "·", Combination: []string{}, Points: 10},
			{ProfileID: 1, SymbolResult: "∶", Combination: []string{"·", "·"}, Points: 20},
			{ProfileID: 2, SymbolResult: "·", Combination: []string{}, Points: 10},
			{ProfileID: 1, SymbolResult: "∴", Combination: []string{"·", "∶"}, Points: 30},
		}
		for _, in := range inputs {
			d, err := r.CreateDiscovery(ctx, in)
			require.NoError(t, err)
			assert.Positive(t, d.ID)
			assert.Equal(t, in.SymbolResult, d.SymbolResult)
		}

		all, err := r.ListDiscoveries(ctx, 1, 0)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "∴", all[0].SymbolResult, "newest first")
		assert.Equal(t, "·", all[2].SymbolResult)
		assert.Equal(t, []string{"·", "∶"}, all[0].Combination)
		assert.Equal(t, []string{}, all[2].Combination)

		limited, err := r.ListDiscoveries(ctx, 1, 2)
		require.NoError(t, err)
		require.Len(t, limited, 2)
		assert.Equal(t, "∶", limited[1].SymbolResult)

		none, err := r.ListDiscoveries(ctx, 3, 10)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})
}

func TestRepository_DiscoveriesSameTimestampOrderByID(t *testing.T) {
	ctx := context.Background()
	fixed := func() time.Time { return testStart }

	for name, r := range map[string]Repository{
		"memory": NewMemStore(WithClock(fixed)),
		"sqlite": createTestStore(t, WithClock(fixed)),
	} {
		createTestProfile(t, r, 1)
		for _, sym := range []string{"a", "b", "c"} {
			_, err := r.CreateDiscovery(ctx, NewDiscovery{ProfileID: 1, SymbolResult: sym, Points: 1})
			require.NoError(t, err, name)
		}
		got, err := r.ListDiscoveries(ctx, 1, 0)
		require.NoError(t, err, name)
		require.Len(t, got, 3, name)
		assert.Equal(t, "c", got[0].SymbolResult, name)
		assert.Equal(t, "a", got[2].SymbolResult, name)
	}
}

func TestRepository_CreateDiscoveryErrors(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()

		_, err := r.CreateDiscovery(ctx, NewDiscovery{ProfileID: 9, SymbolResult: "·", Points: 1})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

		createTestProfile(t, r, 9)
		tests := []struct {
			in    NewDiscovery
			field string
		}{
			{NewDiscovery{ProfileID: 0, SymbolResult: "·"}, "profileId"},
			{NewDiscovery{ProfileID: 9, SymbolResult: ""}, "symbolResult"},
			{NewDiscovery{ProfileID: 9, SymbolResult: "·", Points: -5}, "points"},
			{NewDiscovery{ProfileID: 9, SymbolResult: "·", Combination: []string{""}}, "combination[0]"},
		}
		for _, tt := range tests {
			_, err := r.CreateDiscovery(ctx, tt.in)
			var verr *ValidationError
			if assert.ErrorAs(t, err, &verr) {
				assert.Equal(t, tt.field, verr.Field)
			}
		}
	})
}

func TestRepository_Sessions(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()
		createTestProfile(t, r, 1)

		first, err := r.CreateSession(ctx, NewSession{ProfileID: 1})
		require.NoError(t, err)
		assert.Nil(t, first.EndTime)
		assert.Nil(t, first.Duration)

		second, err := r.CreateSession(ctx, NewSession{ProfileID: 1})
		require.NoError(t, err)

		end := first.StartTime.Add(90 * time.Second)
		closed, err := r.UpdateSession(ctx, first.ID, SessionPatch{
			EndTime:        &end,
			Duration:       intPtr(90),
			DiscoveryCount: intPtr(4),
			FinalScore:     intPtr(120),
		})
		require.NoError(t, err)
		require.NotNil(t, closed.EndTime)
		assert.True(t, closed.EndTime.Equal(end))
		assert.Equal(t, 90, *closed.Duration)
		assert.Equal(t, 4, closed.DiscoveryCount)

		list, err := r.ListSessions(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID, list[0].ID, "newest first")
		assert.Equal(t, 120, list[1].FinalScore)
		require.NotNil(t, list[1].EndTime)
		assert.True(t, list[1].EndTime.Equal(end))

		empty, err := r.ListSessions(ctx, 2)
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)
	})
}

func TestRepository_SessionErrors(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()

		_, err := r.CreateSession(ctx, NewSession{ProfileID: 0})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)

		_, err = r.CreateSession(ctx, NewSession{ProfileID: 4})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

		_, err = r.UpdateSession(ctx, 42, SessionPatch{FinalScore: intPtr(1)})
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

		_, err = r.UpdateSession(ctx, 42, SessionPatch{Duration: intPtr(-1)})
		assert.ErrorAs(t, err, &verr)
		assert.Equal(t, "duration", verr.Field)
	})
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repositories(t, func(t *testing.T, r Repository, _ *testutil.StepClock) {
		ctx := context.Background()
		createTestProfile(t, r, 1)
		_, err := r.UpdateProfile(ctx, 1, ProfilePatch{DiscoveredSymbols: []string{"⚫"}})
		require.NoError(t, err)

		p, err := r.GetProfile(ctx, 1)
		require.NoError(t, err)
		p.DiscoveredSymbols[0] = "mutated"
		p.SessionData["x"] = 1

		again, err := r.GetProfile(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, []string{"⚫"}, again.DiscoveredSymbols)
		assert.NotContains(t, again.SessionData, "x")
	})
}
