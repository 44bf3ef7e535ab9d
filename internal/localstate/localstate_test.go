package localstate

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fractalflow/internal/mystery"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func tempFile(t *testing.T) *File {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "state", "state.json"), quiet())
}

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)

	assert.Equal(t, []string{}, f.History(ctx))
	assert.True(t, f.SoundEnabled(ctx))
	assert.False(t, f.TutorialSeen(ctx))

	rec, err := f.LoadMystery(ctx)
	require.NoError(t, err)
	assert.Equal(t, mystery.Record{}, rec)
}

func TestRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)

	require.NoError(t, f.SaveHistory(ctx, []string{"●○", "⚫⚫"}))
	require.NoError(t, f.SetSoundEnabled(ctx, false))
	require.NoError(t, f.SetTutorialSeen(ctx, true))
	require.NoError(t, f.SaveMystery(ctx, mystery.Record{LastCompleted: "2024-05-01", Streak: 3}))

	reopened := Open(f.Path(), quiet())
	assert.Equal(t, []string{"●○", "⚫⚫"}, reopened.History(ctx))
	assert.False(t, reopened.SoundEnabled(ctx))
	assert.True(t, reopened.TutorialSeen(ctx))

	rec, err := reopened.LoadMystery(ctx)
	require.NoError(t, err)
	assert.Equal(t, mystery.Record{LastCompleted: "2024-05-01", Streak: 3}, rec)
}

func TestFileUsesDocumentedKeys(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)

	require.NoError(t, f.SaveHistory(ctx, []string{"x"}))
	require.NoError(t, f.SaveMystery(ctx, mystery.Record{LastCompleted: "2024-05-01", Streak: 1}))

	data, err := os.ReadFile(f.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"history"`)
	assert.Contains(t, string(data), `"daily-mystery"`)
	assert.Contains(t, string(data), `"lastCompleted": "2024-05-01"`)
}

func TestCorruptFileReadsAsDefaults(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte("{not json"), 0o644))

	assert.Equal(t, []string{}, f.History(ctx))
	assert.True(t, f.SoundEnabled(ctx))

	rec, err := f.LoadMystery(ctx)
	require.NoError(t, err)
	assert.Equal(t, mystery.Record{}, rec)

	// Writing replaces the corrupt file.
	require.NoError(t, f.SaveHistory(ctx, []string{"y"}))
	assert.Equal(t, []string{"y"}, f.History(ctx))
}

func TestCorruptKeyIsIsolated(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte(`{"history": ["a"], "daily-mystery": "garbage"}`), 0o644))

	_, err := f.LoadMystery(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode daily-mystery")

	assert.Equal(t, []string{"a"}, f.History(ctx))
}

func TestCorruptMysteryDegradesInEngine(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.Path()), 0o755))
	require.NoError(t, os.WriteFile(f.Path(), []byte(`{"daily-mystery": 12}`), 0o644))

	e, err := mystery.NewEngine([]mystery.Mystery{{Hint: "h"}}, f, mystery.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)

	assert.Equal(t, mystery.Progress{}, e.Progress(ctx, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)))
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	f := tempFile(t)
	require.NoError(t, f.SaveHistory(ctx, []string{"a"}))

	require.NoError(t, f.Clear(ctx))

	assert.Equal(t, []string{}, f.History(ctx))
	_, err := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(err))

	// Clearing twice is fine.
	require.NoError(t, f.Clear(ctx))
}

func TestMemoryOnly(t *testing.T) {
	ctx := context.Background()
	f := Open("", quiet())

	require.NoError(t, f.SaveHistory(ctx, []string{"a"}))
	require.NoError(t, f.SetTutorialSeen(ctx, true))

	assert.Equal(t, []string{"a"}, f.History(ctx))
	assert.True(t, f.TutorialSeen(ctx))

	require.NoError(t, f.Clear(ctx))
	assert.Equal(t, []string{}, f.History(ctx))
}
