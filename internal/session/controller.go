package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/fractalflow/internal/flavor"
	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/store"
	"github.com/roach88/fractalflow/internal/symbol"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxAttempt         = 3
	DefaultNotificationWindow = 5
	DefaultHistorySize        = 10
	DefaultProfileID          = 1
)

// NoMatchResponse is the last response after a combine that matched nothing.
const NoMatchResponse = "😔"

// ErrNotStarted is returned by operations that need a loaded profile.
var ErrNotStarted = errors.New("session not started")

// State is the controller's position in the combine cycle.
type State string

const (
	StateIdle      State = "idle"
	StateQueued    State = "queued"
	StateResolving State = "resolving"
)

// LocalState is the player's local key-value state.
type LocalState interface {
	History(ctx context.Context) []string
	SaveHistory(ctx context.Context, history []string) error
	Clear(ctx context.Context) error
}

// Config tunes a Controller.
type Config struct {
	ProfileID          int64
	MaxAttempt         int
	NotificationWindow int
	HistorySize        int

	// FourElementsBonus is added once when the four elements are complete.
	FourElementsBonus int

	// MysteryBonusPoints and MysteryBonusCombination describe the discovery
	// record granted with a daily mystery reward.
	MysteryBonusPoints      int
	MysteryBonusCombination []symbol.Symbol
}

func (c Config) withDefaults() Config {
	if c.ProfileID <= 0 {
		c.ProfileID = DefaultProfileID
	}
	if c.MaxAttempt <= 0 {
		c.MaxAttempt = DefaultMaxAttempt
	}
	if c.NotificationWindow <= 0 {
		c.NotificationWindow = DefaultNotificationWindow
	}
	if c.HistorySize <= 0 {
		c.HistorySize = DefaultHistorySize
	}
	return c
}

// Deps are the collaborators a Controller needs.
type Deps struct {
	Resolver  *rules.Resolver
	Progress  *progress.Engine
	Mysteries *mystery.Engine
	Repo      store.Repository
	Local     LocalState

	// Registry supplies basic symbols and display names. Optional.
	Registry *symbol.Registry
	// Flavor supplies stories and idle responses. Optional.
	Flavor *flavor.Selector
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger for persistence failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = l
	}
}

// WithNow sets the wall clock used for dates and timestamps.
func WithNow(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithIDGenerator sets the notification id source.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Controller) {
		c.ids = g
	}
}

// Controller runs one player session.
type Controller struct {
	cfg       Config
	resolver  *rules.Resolver
	progress  *progress.Engine
	mysteries *mystery.Engine
	repo      store.Repository
	local     LocalState
	registry  *symbol.Registry
	flavor    *flavor.Selector
	logger    *slog.Logger
	now       func() time.Time
	ids       IDGenerator
	clock     *Clock

	mu                 sync.Mutex
	started            bool
	inFlight           bool
	profile            store.Profile
	discovered         *symbol.Set
	attempt            []symbol.Symbol
	lastResponse       string
	story              string
	notifications      []Notification
	history            []string
	sessionID          int64
	sessionDiscoveries int
	mysteryCompletedOn string
}

// New creates a Controller. Start must be called before Combine.
func New(deps Deps, cfg Config, opts ...Option) (*Controller, error) {
	switch {
	case deps.Resolver == nil:
		return nil, errors.New("session: resolver is required")
	case deps.Progress == nil:
		return nil, errors.New("session: progress engine is required")
	case deps.Mysteries == nil:
		return nil, errors.New("session: mystery engine is required")
	case deps.Repo == nil:
		return nil, errors.New("session: repository is required")
	case deps.Local == nil:
		return nil, errors.New("session: local state is required")
	}

	c := &Controller{
		cfg:        cfg.withDefaults(),
		resolver:   deps.Resolver,
		progress:   deps.Progress,
		mysteries:  deps.Mysteries,
		repo:       deps.Repo,
		local:      deps.Local,
		registry:   deps.Registry,
		flavor:     deps.Flavor,
		logger:     slog.Default(),
		now:        time.Now,
		ids:        UUIDv7Generator{},
		clock:      NewClock(),
		discovered: symbol.NewSet(),
		attempt:    []symbol.Symbol{},
		history:    []string{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Start loads the profile, opens a session record and loads local history.
// A failed session insert is logged; the game still runs without one.
func (c *Controller) Start(ctx context.Context) error {
	profile, err := c.repo.GetProfile(ctx, c.cfg.ProfileID)
	if err != nil {
		return fmt.Errorf("load profile: %w", err)
	}

	var sessionID int64
	sess, err := c.repo.CreateSession(ctx, store.NewSession{ProfileID: profile.ID})
	if err != nil {
		c.persistFailed("create_session", err, "profile_id", profile.ID)
	} else {
		sessionID = sess.ID
	}

	history := c.local.History(ctx)
	if c.cfg.HistorySize > 0 && len(history) > c.cfg.HistorySize {
		history = history[:c.cfg.HistorySize]
	}
	mp := c.mysteries.Progress(ctx, c.now())

	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = profile
	c.discovered = symbol.SetOf(profile.DiscoveredSymbols)
	c.history = append([]string{}, history...)
	c.sessionID = sessionID
	c.sessionDiscoveries = 0
	c.mysteryCompletedOn = ""
	if mp.Completed {
		c.mysteryCompletedOn = mp.LastCompleted
	}
	c.attempt = []symbol.Symbol{}
	c.lastResponse = ""
	c.story = ""
	c.notifications = nil
	c.started = true
	c.clock.Reset()

	c.logger.Info("session started",
		"profile_id", profile.ID,
		"session_id", sessionID,
		"discovered", c.discovered.Len(),
	)
	return nil
}

// AddSymbol appends sym to the attempt, dropping the oldest symbol when the
// attempt is full.
func (c *Controller) AddSymbol(sym symbol.Symbol) {
	if sym.IsZero() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempt = append(c.attempt, sym)
	if over := len(c.attempt) - c.cfg.MaxAttempt; over > 0 {
		c.attempt = append([]symbol.Symbol{}, c.attempt[over:]...)
	}
}

// Clear resets the attempt and the last response.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attempt = []symbol.Symbol{}
	c.lastResponse = ""
	c.story = ""
}

// Attempt returns a copy of the queued attempt.
func (c *Controller) Attempt() []symbol.Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]symbol.Symbol{}, c.attempt...)
}

// State reports where the controller is in the combine cycle.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Controller) stateLocked() State {
	switch {
	case c.inFlight:
		return StateResolving
	case len(c.attempt) > 0:
		return StateQueued
	default:
		return StateIdle
	}
}

// Dismiss removes the notification with id and reports whether it existed.
func (c *Controller) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.notifications {
		if n.ID == id {
			c.notifications = append(c.notifications[:i:i], c.notifications[i+1:]...)
			return true
		}
	}
	return false
}

// Hint returns contextual help for the queued attempt. Empty without a
// flavor selector.
func (c *Controller) Hint() string {
	if c.flavor == nil {
		return ""
	}
	c.mu.Lock()
	attempt := append([]symbol.Symbol{}, c.attempt...)
	available := c.availableLocked()
	c.mu.Unlock()
	return c.flavor.Hint(attempt, available)
}

// Tick advances the session clock by one second.
func (c *Controller) Tick() int64 {
	return c.clock.Tick()
}

// Run ticks the session clock once a second until ctx is done.
func (c *Controller) Run(ctx context.Context) {
	c.clock.Run(ctx, time.Second)
}

// FormattedTime renders the session clock as MM:SS.
func (c *Controller) FormattedTime() string {
	return c.clock.Formatted()
}

// End closes the session record with its duration, discovery count and
// final score.
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return ErrNotStarted
	}
	id := c.sessionID
	count := c.sessionDiscoveries
	score := c.profile.TotalScore
	c.mu.Unlock()

	if id == 0 {
		return nil
	}

	end := c.now().UTC()
	duration := int(c.clock.Elapsed())
	_, err := c.repo.UpdateSession(ctx, id, store.SessionPatch{
		EndTime:        &end,
		Duration:       &duration,
		DiscoveryCount: &count,
		FinalScore:     &score,
	})
	if err != nil {
		c.persistFailed("update_session", err, "session_id", id)
		return fmt.Errorf("end session %d: %w", id, err)
	}

	c.logger.Info("session ended",
		"session_id", id,
		"duration", duration,
		"discoveries", count,
		"final_score", score,
	)
	return nil
}

// Reset returns the profile to its defaults and clears local state. The
// in-memory session is reset even when persistence fails.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return ErrNotStarted
	}
	id := c.profile.ID
	c.mu.Unlock()

	level := 1
	zero := 0
	var errs []error

	profile, updateErr := c.repo.UpdateProfile(ctx, id, store.ProfilePatch{
		Level:             &level,
		TotalScore:        &zero,
		TotalDiscoveries:  &zero,
		FlowStreak:        &zero,
		DiscoveredSymbols: []string{},
		SessionData:       map[string]any{},
	})
	if updateErr != nil {
		c.persistFailed("reset_profile", updateErr, "profile_id", id)
		errs = append(errs, fmt.Errorf("reset profile: %w", updateErr))
	}
	if err := c.local.Clear(ctx); err != nil {
		c.persistFailed("clear_local_state", err)
		errs = append(errs, fmt.Errorf("clear local state: %w", err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if updateErr != nil {
		profile = c.profile
		profile.Level = level
		profile.TotalScore = 0
		profile.TotalDiscoveries = 0
		profile.FlowStreak = 0
		profile.DiscoveredSymbols = []string{}
		profile.SessionData = map[string]any{}
	}
	c.profile = profile
	c.discovered = symbol.NewSet()
	c.attempt = []symbol.Symbol{}
	c.history = []string{}
	c.notifications = nil
	c.lastResponse = ""
	c.story = ""
	c.mysteryCompletedOn = ""
	c.sessionDiscoveries = 0

	return errors.Join(errs...)
}

// availableLocked is every symbol the player can use: basics plus
// discoveries.
func (c *Controller) availableLocked() *symbol.Set {
	available := c.discovered.Clone()
	if c.registry != nil {
		for _, b := range c.registry.Basic() {
			available.Add(b)
		}
	}
	return available
}

func (c *Controller) notify(typ NotificationType, title, message string, points *int) Notification {
	return Notification{
		ID:        c.ids.Generate(),
		Type:      typ,
		Title:     title,
		Message:   message,
		Points:    points,
		Timestamp: c.now().UTC(),
	}
}

func (c *Controller) displayName(rule rules.Rule) string {
	if rule.Name != "" {
		return rule.Name
	}
	if c.registry != nil {
		return c.registry.Name(rule.Output)
	}
	return rule.Output.Display()
}
