// Package localstate is the player's small key-value file: pattern history,
// sound and tutorial flags, and daily mystery progress.
//
// Each key is decoded on its own, so one unreadable value never hides the
// others. An unreadable file reads as empty. Writes are last-write-wins.
package localstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/roach88/fractalflow/internal/mystery"
)

// Keys of the state file.
const (
	KeyHistory      = "history"
	KeySoundEnabled = "sound-enabled"
	KeyTutorialSeen = "tutorial-seen"
	KeyDailyMystery = "daily-mystery"
)

// File is a JSON state file. An empty path keeps state in memory only.
// File is safe for concurrent use.
type File struct {
	path   string
	logger *slog.Logger

	mu  sync.Mutex
	mem map[string]json.RawMessage
}

// Option configures a File.
type Option func(*File)

// WithLogger sets the logger used to report unreadable state.
func WithLogger(l *slog.Logger) Option {
	return func(f *File) {
		f.logger = l
	}
}

// Open returns a File at path. The file is created on first write.
func Open(path string, opts ...Option) *File {
	f := &File{
		path:   path,
		logger: slog.Default(),
		mem:    map[string]json.RawMessage{},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the backing path, or "" for memory-only state.
func (f *File) Path() string {
	return f.path
}

// History returns the stored pattern history, newest first.
func (f *File) History(ctx context.Context) []string {
	var h []string
	if err := f.get(KeyHistory, &h); err != nil {
		f.logger.Warn("history unreadable, starting empty", "error", err)
		return []string{}
	}
	if h == nil {
		return []string{}
	}
	return h
}

// SaveHistory replaces the pattern history.
func (f *File) SaveHistory(ctx context.Context, history []string) error {
	return f.set(KeyHistory, history)
}

// SoundEnabled returns the sound flag. It defaults to true.
func (f *File) SoundEnabled(ctx context.Context) bool {
	enabled := true
	if err := f.get(KeySoundEnabled, &enabled); err != nil {
		f.logger.Warn("sound flag unreadable", "error", err)
		return true
	}
	return enabled
}

// SetSoundEnabled stores the sound flag.
func (f *File) SetSoundEnabled(ctx context.Context, enabled bool) error {
	return f.set(KeySoundEnabled, enabled)
}

// TutorialSeen reports whether the tutorial was dismissed.
func (f *File) TutorialSeen(ctx context.Context) bool {
	var seen bool
	if err := f.get(KeyTutorialSeen, &seen); err != nil {
		f.logger.Warn("tutorial flag unreadable", "error", err)
		return false
	}
	return seen
}

// SetTutorialSeen stores the tutorial flag.
func (f *File) SetTutorialSeen(ctx context.Context, seen bool) error {
	return f.set(KeyTutorialSeen, seen)
}

// LoadMystery implements mystery.ProgressStore.
func (f *File) LoadMystery(ctx context.Context) (mystery.Record, error) {
	var rec mystery.Record
	if err := f.get(KeyDailyMystery, &rec); err != nil {
		return mystery.Record{}, err
	}
	return rec, nil
}

// SaveMystery implements mystery.ProgressStore.
func (f *File) SaveMystery(ctx context.Context, rec mystery.Record) error {
	return f.set(KeyDailyMystery, rec)
}

// Clear removes every key.
func (f *File) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.mem = map[string]json.RawMessage{}
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// get decodes key into dst. A missing key leaves dst untouched.
func (f *File) get(key string, dst any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.readLocked()
	raw, ok := values[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (f *File) set(key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	values := f.readLocked()
	values[key] = raw
	return f.writeLocked(values)
}

// readLocked returns the current key set. Unreadable files read as empty.
func (f *File) readLocked() map[string]json.RawMessage {
	if f.path == "" {
		return f.mem
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			f.logger.Warn("state file unreadable", "path", f.path, "error", err)
		}
		return map[string]json.RawMessage{}
	}

	values := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &values); err != nil {
		f.logger.Warn("state file corrupt, using defaults", "path", f.path, "error", err)
		return map[string]json.RawMessage{}
	}
	return values
}

func (f *File) writeLocked(values map[string]json.RawMessage) error {
	if f.path == "" {
		f.mem = values
		return nil
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}
