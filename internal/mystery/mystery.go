// Package mystery selects the daily mystery and tracks completion streaks.
//
// Selection is a pure function of the UTC calendar date. Completion means
// every symbol of the day's solution has been discovered; the reward symbol
// is a bonus granted on that transition, never a precondition. Streak state
// lives behind ProgressStore so the engine itself holds no mutable state.
package mystery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/fractalflow/internal/symbol"
)

// DateLayout is the calendar date format used for mystery dates and
// persisted progress.
const DateLayout = "2006-01-02"

const day = 24 * time.Hour

// Mystery is one entry of the rotating list.
type Mystery struct {
	Hint        string
	Solution    []symbol.Symbol
	Reward      symbol.Symbol
	Description string
}

// Daily is the mystery selected for a calendar date.
type Daily struct {
	Date string
	Mystery
}

// Record is the persisted completion state.
type Record struct {
	LastCompleted string `json:"lastCompleted"`
	Streak        int    `json:"streak"`
}

// Progress is the derived, displayable completion state for a date.
type Progress struct {
	Completed     bool   `json:"isCompleted"`
	LastCompleted string `json:"lastCompleted"`
	Streak        int    `json:"streak"`
}

// ProgressStore persists the completion record. Load returns a zero Record
// when nothing has been saved yet and an error when the stored data is
// unreadable.
type ProgressStore interface {
	LoadMystery(ctx context.Context) (Record, error)
	SaveMystery(ctx context.Context, rec Record) error
}

// Engine answers mystery questions for a fixed rotating list.
type Engine struct {
	list   []Mystery
	store  ProgressStore
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used to report unreadable progress.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// NewEngine creates an engine over list. The list is copied.
func NewEngine(list []Mystery, store ProgressStore, opts ...Option) (*Engine, error) {
	if len(list) == 0 {
		return nil, errors.New("mystery: list must not be empty")
	}
	if store == nil {
		return nil, errors.New("mystery: progress store is required")
	}

	e := &Engine{
		list:   make([]Mystery, len(list)),
		store:  store,
		logger: slog.Default(),
	}
	for i, m := range list {
		m.Solution = append([]symbol.Symbol(nil), m.Solution...)
		e.list[i] = m
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Len returns the size of the rotating list.
func (e *Engine) Len() int {
	return len(e.list)
}

// Daily returns the mystery for now's UTC date.
func (e *Engine) Daily(now time.Time) Daily {
	days := epochDays(now)
	idx := days % int64(len(e.list))
	if idx < 0 {
		idx += int64(len(e.list))
	}

	m := e.list[idx]
	m.Solution = append([]symbol.Symbol(nil), m.Solution...)
	return Daily{Date: DateString(now), Mystery: m}
}

// IsSolved reports whether discovered contains every solution symbol of
// now's mystery.
func (e *Engine) IsSolved(now time.Time, discovered *symbol.Set) bool {
	return discovered.HasAll(e.Daily(now).Solution)
}

// Progress returns the displayable completion state for now. Unreadable
// progress degrades to the zero state.
func (e *Engine) Progress(ctx context.Context, now time.Time) Progress {
	rec, err := e.store.LoadMystery(ctx)
	if err != nil {
		e.logger.Warn("mystery progress unreadable", "error", err)
		return Progress{}
	}
	return progressFor(rec, now)
}

// MarkCompleted records completion for now's date and returns the new
// progress. Completing twice on the same date changes nothing.
func (e *Engine) MarkCompleted(ctx context.Context, now time.Time) (Progress, error) {
	rec, err := e.store.LoadMystery(ctx)
	if err != nil {
		e.logger.Warn("mystery progress unreadable, starting fresh", "error", err)
		rec = Record{}
	}

	today := DateString(now)
	if rec.LastCompleted == today {
		return progressFor(rec, now), nil
	}

	next := Record{LastCompleted: today, Streak: 1}
	if last, ok := parseDate(rec.LastCompleted); ok && daysBetween(last, now) == 1 {
		next.Streak = rec.Streak + 1
	}

	if err := e.store.SaveMystery(ctx, next); err != nil {
		return Progress{}, fmt.Errorf("save mystery progress: %w", err)
	}
	return progressFor(next, now), nil
}

// Remaining returns the time until the next UTC midnight.
func Remaining(now time.Time) time.Duration {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(day)
	return midnight.Sub(now)
}

// TimeUntilNext formats Remaining as "{h}h {m}m", or "{m}m" under an hour.
func TimeUntilNext(now time.Time) string {
	d := Remaining(now)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// DateString formats now's UTC calendar date.
func DateString(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

func progressFor(rec Record, now time.Time) Progress {
	last, ok := parseDate(rec.LastCompleted)
	if !ok {
		return Progress{}
	}

	p := Progress{LastCompleted: rec.LastCompleted}
	switch daysBetween(last, now) {
	case 0:
		p.Completed = true
		p.Streak = max(rec.Streak, 1)
	case 1:
		p.Streak = rec.Streak
	default:
		p.Streak = 0
	}
	return p
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// daysBetween counts whole calendar days from last to now's UTC date.
func daysBetween(last, now time.Time) int64 {
	return epochDays(now) - epochDays(last)
}

func epochDays(t time.Time) int64 {
	secs := t.UTC().Unix()
	days := secs / 86400
	if secs%86400 < 0 {
		days--
	}
	return days
}
