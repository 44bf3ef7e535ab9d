package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned, wrapped, when a record does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a malformed write.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Profile is a player's aggregate progress.
type Profile struct {
	ID                int64          `json:"id"`
	Level             int            `json:"level"`
	TotalScore        int            `json:"totalScore"`
	TotalDiscoveries  int            `json:"totalDiscoveries"`
	FlowStreak        int            `json:"flowStreak"`
	DiscoveredSymbols []string       `json:"discoveredSymbols"`
	SessionData       map[string]any `json:"sessionData"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

// ProfilePatch changes the non-nil fields of a profile.
type ProfilePatch struct {
	Level             *int           `json:"level,omitempty"`
	TotalScore        *int           `json:"totalScore,omitempty"`
	TotalDiscoveries  *int           `json:"totalDiscoveries,omitempty"`
	FlowStreak        *int           `json:"flowStreak,omitempty"`
	DiscoveredSymbols []string       `json:"discoveredSymbols,omitempty"`
	SessionData       map[string]any `json:"sessionData,omitempty"`
}

// Discovery is a first-time resolution of an output by a profile.
type Discovery struct {
	ID           int64     `json:"id"`
	ProfileID    int64     `json:"profileId"`
	SymbolResult string    `json:"symbolResult"`
	Combination  []string  `json:"combination"`
	Points       int       `json:"points"`
	DiscoveredAt time.Time `json:"discoveredAt"`
}

// NewDiscovery is the input to CreateDiscovery.
type NewDiscovery struct {
	ProfileID    int64    `json:"profileId"`
	SymbolResult string   `json:"symbolResult"`
	Combination  []string `json:"combination"`
	Points       int      `json:"points"`
}

// Session is one sitting of play.
type Session struct {
	ID             int64      `json:"id"`
	ProfileID      int64      `json:"profileId"`
	StartTime      time.Time  `json:"startTime"`
	EndTime        *time.Time `json:"endTime"`
	Duration       *int       `json:"duration"`
	DiscoveryCount int        `json:"discoveryCount"`
	FinalScore     int        `json:"finalScore"`
}

// NewSession is the input to CreateSession.
type NewSession struct {
	ProfileID int64 `json:"profileId"`
}

// SessionPatch changes the non-nil fields of a session.
type SessionPatch struct {
	EndTime        *time.Time `json:"endTime,omitempty"`
	Duration       *int       `json:"duration,omitempty"`
	DiscoveryCount *int       `json:"discoveryCount,omitempty"`
	FinalScore     *int       `json:"finalScore,omitempty"`
}

// ProfileStore reads and patches profiles.
type ProfileStore interface {
	// GetProfile returns the profile, creating a default one if absent.
	GetProfile(ctx context.Context, id int64) (Profile, error)
	UpdateProfile(ctx context.Context, id int64, patch ProfilePatch) (Profile, error)
}

// DiscoveryStore appends and lists discovery records.
type DiscoveryStore interface {
	CreateDiscovery(ctx context.Context, d NewDiscovery) (Discovery, error)
	// ListDiscoveries returns newest first. limit <= 0 means no limit.
	ListDiscoveries(ctx context.Context, profileID int64, limit int) ([]Discovery, error)
}

// SessionStore opens, closes and lists sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, s NewSession) (Session, error)
	UpdateSession(ctx context.Context, id int64, patch SessionPatch) (Session, error)
	ListSessions(ctx context.Context, profileID int64) ([]Session, error)
}

// Repository is everything the game persists.
type Repository interface {
	ProfileStore
	DiscoveryStore
	SessionStore
	Close() error
}

// Option configures a store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock sets the time source for created and updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// newProfile returns the default profile for id.
func newProfile(id int64, now time.Time) Profile {
	return Profile{
		ID:                id,
		Level:             1,
		DiscoveredSymbols: []string{},
		SessionData:       map[string]any{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (p ProfilePatch) validate() error {
	checks := []struct {
		field string
		value *int
		min   int
	}{
		{"level", p.Level, 1},
		{"totalScore", p.TotalScore, 0},
		{"totalDiscoveries", p.TotalDiscoveries, 0},
		{"flowStreak", p.FlowStreak, 0},
	}
	for _, c := range checks {
		if c.value != nil && *c.value < c.min {
			return &ValidationError{Field: c.field, Message: fmt.Sprintf("must be >= %d", c.min)}
		}
	}
	seen := make(map[string]int, len(p.DiscoveredSymbols))
	for i, s := range p.DiscoveredSymbols {
		field := fmt.Sprintf("discoveredSymbols[%d]", i)
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: field, Message: "must be non-empty"}
		}
		if j, dup := seen[s]; dup {
			return &ValidationError{Field: field, Message: fmt.Sprintf("duplicates discoveredSymbols[%d]", j)}
		}
		seen[s] = i
	}
	return nil
}

// apply writes the patch onto p. Slices and maps are copied.
func (p ProfilePatch) apply(prof *Profile, now time.Time) {
	if p.Level != nil {
		prof.Level = *p.Level
	}
	if p.TotalScore != nil {
		prof.TotalScore = *p.TotalScore
	}
	if p.TotalDiscoveries != nil {
		prof.TotalDiscoveries = *p.TotalDiscoveries
	}
	if p.FlowStreak != nil {
		prof.FlowStreak = *p.FlowStreak
	}
	if p.DiscoveredSymbols != nil {
		prof.DiscoveredSymbols = append([]string{}, p.DiscoveredSymbols...)
	}
	if p.SessionData != nil {
		prof.SessionData = copyData(p.SessionData)
	}
	prof.UpdatedAt = now
}

func (d NewDiscovery) validate() error {
	if d.ProfileID <= 0 {
		return &ValidationError{Field: "profileId", Message: "must be positive"}
	}
	if strings.TrimSpace(d.SymbolResult) == "" {
		return &ValidationError{Field: "symbolResult", Message: "must be non-empty"}
	}
	if d.Points < 0 {
		return &ValidationError{Field: "points", Message: "must be >= 0"}
	}
	for i, s := range d.Combination {
		if strings.TrimSpace(s) == "" {
			return &ValidationError{Field: fmt.Sprintf("combination[%d]", i), Message: "must be non-empty"}
		}
	}
	return nil
}

func (s NewSession) validate() error {
	if s.ProfileID <= 0 {
		return &ValidationError{Field: "profileId", Message: "must be positive"}
	}
	return nil
}

func (p SessionPatch) validate() error {
	if p.Duration != nil && *p.Duration < 0 {
		return &ValidationError{Field: "duration", Message: "must be >= 0"}
	}
	if p.DiscoveryCount != nil && *p.DiscoveryCount < 0 {
		return &ValidationError{Field: "discoveryCount", Message: "must be >= 0"}
	}
	if p.FinalScore != nil && *p.FinalScore < 0 {
		return &ValidationError{Field: "finalScore", Message: "must be >= 0"}
	}
	return nil
}

func (p SessionPatch) apply(s *Session) {
	if p.EndTime != nil {
		t := *p.EndTime
		s.EndTime = &t
	}
	if p.Duration != nil {
		d := *p.Duration
		s.Duration = &d
	}
	if p.DiscoveryCount != nil {
		s.DiscoveryCount = *p.DiscoveryCount
	}
	if p.FinalScore != nil {
		s.FinalScore = *p.FinalScore
	}
}

func copyData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (p Profile) clone() Profile {
	c := p
	c.DiscoveredSymbols = append([]string{}, p.DiscoveredSymbols...)
	c.SessionData = copyData(p.SessionData)
	return c
}

func (s Session) clone() Session {
	c := s
	if s.EndTime != nil {
		t := *s.EndTime
		c.EndTime = &t
	}
	if s.Duration != nil {
		d := *s.Duration
		c.Duration = &d
	}
	return c
}

func (d Discovery) clone() Discovery {
	c := d
	c.Combination = append([]string{}, d.Combination...)
	return c
}
