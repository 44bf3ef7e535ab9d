package mystery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fractalflow/internal/symbol"
)

func testList() []Mystery {
	return []Mystery{
		{Hint: "zero", Solution: symbol.List([]string{"A", "B"}), Reward: symbol.Static("R0")},
		{Hint: "one", Solution: symbol.List([]string{"C"}), Reward: symbol.Static("R1")},
		{Hint: "two", Solution: symbol.List([]string{"D", "E"}), Reward: symbol.Static("R2")},
	}
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return d
}

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newEngine(t *testing.T, store ProgressStore) *Engine {
	t.Helper()
	e, err := NewEngine(testList(), store, quiet())
	require.NoError(t, err)
	return e
}

type brokenStore struct {
	loadErr error
	saveErr error
	saved   []Record
}

func (b *brokenStore) LoadMystery(ctx context.Context) (Record, error) {
	return Record{}, b.loadErr
}

func (b *brokenStore) SaveMystery(ctx context.Context, rec Record) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.saved = append(b.saved, rec)
	return nil
}

func TestNewEngine_Validates(t *testing.T) {
	_, err := NewEngine(nil, NewMemoryStore())
	assert.Error(t, err)

	_, err = NewEngine(testList(), nil)
	assert.Error(t, err)
}

func TestDaily_IndexFromEpochDays(t *testing.T) {
	e := newEngine(t, NewMemoryStore())

	epoch := e.Daily(date(t, "1970-01-01T12:00:00Z"))
	assert.Equal(t, "1970-01-01", epoch.Date)
	assert.Equal(t, "zero", epoch.Hint)

	// 2024-01-01 is day 19723; 19723 mod 3 == 1
	d := e.Daily(date(t, "2024-01-01T08:00:00Z"))
	assert.Equal(t, "2024-01-01", d.Date)
	assert.Equal(t, "one", d.Hint)
}

func TestDaily_UsesUTCDate(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	tz := time.FixedZone("UTC+10", 10*60*60)

	// 2024-01-02 05:00 at +10 is still 2024-01-01 in UTC.
	local := time.Date(2024, 1, 2, 5, 0, 0, 0, tz)

	assert.Equal(t, "2024-01-01", e.Daily(local).Date)
	assert.Equal(t, "one", e.Daily(local).Hint)
}

func TestDaily_BeforeEpoch(t *testing.T) {
	e := newEngine(t, NewMemoryStore())

	d := e.Daily(date(t, "1969-12-31T23:00:00Z"))

	assert.Equal(t, "two", d.Hint)
}

func TestDaily_Deterministic(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	morning := date(t, "2024-03-05T00:00:01Z")
	night := date(t, "2024-03-05T23:59:59Z")

	assert.Equal(t, e.Daily(morning), e.Daily(morning))
	assert.Equal(t, e.Daily(morning), e.Daily(night))
}

func TestDaily_RotatesDaily(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	start := date(t, "2024-01-01T10:00:00Z")

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		seen[e.Daily(start.AddDate(0, 0, i)).Hint] = true
	}

	assert.Len(t, seen, 3)
	assert.Equal(t, e.Daily(start).Mystery, e.Daily(start.AddDate(0, 0, 3)).Mystery)
}

func TestDaily_ReturnsCopies(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	now := date(t, "1970-01-01T00:00:00Z")

	d := e.Daily(now)
	d.Solution[0] = symbol.Static("Z")

	assert.Equal(t, symbol.Static("A"), e.Daily(now).Solution[0])
}

func TestIsSolved_FullSolutionSubset(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	now := date(t, "1970-01-01T00:00:00Z")

	assert.False(t, e.IsSolved(now, nil))
	assert.False(t, e.IsSolved(now, symbol.SetOf([]string{"A", "R0"})))
	assert.True(t, e.IsSolved(now, symbol.SetOf([]string{"B", "X", "A"})))
}

func TestMarkCompleted_StreakArithmetic(t *testing.T) {
	store := NewMemoryStore()
	e := newEngine(t, store)
	ctx := context.Background()
	d1 := date(t, "2024-05-01T09:00:00Z")

	p, err := e.MarkCompleted(ctx, d1)
	require.NoError(t, err)
	assert.Equal(t, Progress{Completed: true, LastCompleted: "2024-05-01", Streak: 1}, p)

	p, err = e.MarkCompleted(ctx, d1.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Streak, "same-day completion is idempotent")

	p, err = e.MarkCompleted(ctx, d1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Streak)

	p, err = e.MarkCompleted(ctx, d1.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Streak)

	p, err = e.MarkCompleted(ctx, d1.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Streak, "a gap resets the streak")

	rec, err := store.LoadMystery(ctx)
	require.NoError(t, err)
	assert.Equal(t, Record{LastCompleted: "2024-05-05", Streak: 1}, rec)
}

func TestMarkCompleted_AcrossMidnight(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	ctx := context.Background()

	_, err := e.MarkCompleted(ctx, date(t, "2024-05-01T23:59:00Z"))
	require.NoError(t, err)

	p, err := e.MarkCompleted(ctx, date(t, "2024-05-02T00:01:00Z"))
	require.NoError(t, err)
	assert.Equal(t, 2, p.Streak)
}

func TestProgress_DisplayedStreak(t *testing.T) {
	e := newEngine(t, NewMemoryStore())
	ctx := context.Background()
	d1 := date(t, "2024-05-01T09:00:00Z")

	assert.Equal(t, Progress{}, e.Progress(ctx, d1))

	_, err := e.MarkCompleted(ctx, d1)
	require.NoError(t, err)
	_, err = e.MarkCompleted(ctx, d1.AddDate(0, 0, 1))
	require.NoError(t, err)

	assert.Equal(t, Progress{Completed: true, LastCompleted: "2024-05-02", Streak: 2}, e.Progress(ctx, d1.AddDate(0, 0, 1)))
	assert.Equal(t, Progress{Completed: false, LastCompleted: "2024-05-02", Streak: 2}, e.Progress(ctx, d1.AddDate(0, 0, 2)))
	assert.Equal(t, Progress{Completed: false, LastCompleted: "2024-05-02", Streak: 0}, e.Progress(ctx, d1.AddDate(0, 0, 3)))
}

func TestProgress_CorruptDegradesToZero(t *testing.T) {
	ctx := context.Background()
	now := date(t, "2024-05-01T09:00:00Z")

	e := newEngine(t, &brokenStore{loadErr: errors.New("unexpected end of JSON input")})
	assert.Equal(t, Progress{}, e.Progress(ctx, now))

	store := NewMemoryStore()
	require.NoError(t, store.SaveMystery(ctx, Record{LastCompleted: "yesterday-ish", Streak: 9}))
	e = newEngine(t, store)
	assert.Equal(t, Progress{}, e.Progress(ctx, now))
}

func TestMarkCompleted_CorruptStartsFresh(t *testing.T) {
	store := &brokenStore{loadErr: errors.New("bad json")}
	e := newEngine(t, store)

	p, err := e.MarkCompleted(context.Background(), date(t, "2024-05-01T09:00:00Z"))

	require.NoError(t, err)
	assert.Equal(t, 1, p.Streak)
	require.Len(t, store.saved, 1)
	assert.Equal(t, Record{LastCompleted: "2024-05-01", Streak: 1}, store.saved[0])
}

func TestMarkCompleted_SaveError(t *testing.T) {
	e := newEngine(t, &brokenStore{saveErr: errors.New("disk full")})

	_, err := e.MarkCompleted(context.Background(), date(t, "2024-05-01T09:00:00Z"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "save mystery progress")
	assert.Contains(t, err.Error(), "disk full")
}

func TestTimeUntilNext(t *testing.T) {
	cases := []struct {
		now  string
		want string
	}{
		{"2024-01-01T22:30:00Z", "1h 30m"},
		{"2024-01-01T23:15:30Z", "44m"},
		{"2024-01-01T00:00:00Z", "24h 0m"},
		{"2024-01-01T12:00:00+02:00", "14h 0m"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TimeUntilNext(date(t, tc.now)), tc.now)
	}
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 90*time.Minute, Remaining(date(t, "2024-01-01T22:30:00Z")))
}
