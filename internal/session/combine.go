package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/fractalflow/internal/metrics"
	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/store"
	"github.com/roach88/fractalflow/internal/symbol"
)

// Outcome is the terminal result of a combine.
type Outcome string

const (
	OutcomeIgnored     Outcome = "ignored"
	OutcomeNoMatch     Outcome = "no_match"
	OutcomeRediscovery Outcome = "rediscovery"
	OutcomeDiscovery   Outcome = "discovery"
)

// Result describes what a combine did.
type Result struct {
	Outcome Outcome         `json:"outcome"`
	Attempt []string        `json:"attempt"`
	Kind    rules.MatchKind `json:"kind,omitempty"`
	Output  string          `json:"output,omitempty"`
	Name    string          `json:"name,omitempty"`
	Points  int             `json:"points"`

	// Level is the level after the combine; LevelUp is set when it rose.
	Level   int  `json:"level"`
	LevelUp bool `json:"levelUp"`

	MysterySolved    bool     `json:"mysterySolved"`
	UniverseUnlocked bool     `json:"universeUnlocked"`
	Unlocks          []string `json:"unlocks,omitempty"`

	Story         string         `json:"story,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	State         State                  `json:"state"`
	Profile       store.Profile          `json:"profile"`
	SessionID     int64                  `json:"sessionId"`
	Attempt       []string               `json:"attempt"`
	LastResponse  string                 `json:"lastResponse"`
	Story         string                 `json:"story"`
	Notifications []Notification         `json:"notifications"`
	History       []string               `json:"history"`
	Level         int                    `json:"level"`
	LevelProgress progress.LevelProgress `json:"levelProgress"`
	Chapter       string                 `json:"chapter"`
	ElapsedTime   string                 `json:"elapsedTime"`
}

// plan is the persistence work a first discovery produces.
type plan struct {
	profileID   int64
	discoveries []store.NewDiscovery
	patch       store.ProfilePatch
	history     []string
	markMystery bool
	now         time.Time
}

// Combine resolves the queued attempt. It is a no-op, returning
// OutcomeIgnored, when the attempt is empty, a combine is already in flight
// or the session has not started.
func (c *Controller) Combine(ctx context.Context) Result {
	return c.resolve(ctx, false)
}

// Tap resolves the empty attempt, the "click empty space" action.
func (c *Controller) Tap(ctx context.Context) Result {
	return c.resolve(ctx, true)
}

func (c *Controller) resolve(ctx context.Context, tap bool) Result {
	c.mu.Lock()
	if !c.started || c.inFlight || (!tap && len(c.attempt) == 0) {
		c.mu.Unlock()
		return Result{Outcome: OutcomeIgnored, Attempt: []string{}, Notifications: []Notification{}}
	}

	var attempt []symbol.Symbol
	if !tap {
		attempt = c.attempt
		c.attempt = []symbol.Symbol{}
	}
	now := c.now()
	match, ok := c.resolver.Resolve(attempt, c.discovered)

	var (
		res Result
		p   *plan
	)
	switch {
	case !ok && tap:
		c.mu.Unlock()
		return Result{Outcome: OutcomeIgnored, Attempt: []string{}, Notifications: []Notification{}}
	case !ok:
		res, p = c.noMatchLocked(attempt)
	case !progress.IsFirstDiscovery(match.Rule, c.discovered):
		res = c.rediscoveryLocked(attempt, match)
	default:
		res, p = c.discoveryLocked(attempt, match, now)
	}
	res.Attempt = symbol.Strings(attempt)
	if res.Attempt == nil {
		res.Attempt = []string{}
	}
	res.Level = c.profile.Level
	c.inFlight = p != nil
	c.mu.Unlock()

	metrics.Combination(string(res.Outcome))
	if p != nil {
		c.persist(ctx, p)
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}
	return res
}

func (c *Controller) noMatchLocked(attempt []symbol.Symbol) (Result, *plan) {
	pattern := symbol.Join(attempt, "")
	c.history = append([]string{pattern}, c.history...)
	if len(c.history) > c.cfg.HistorySize {
		c.history = c.history[:c.cfg.HistorySize]
	}
	c.lastResponse = NoMatchResponse
	c.story = ""
	if c.flavor != nil {
		c.story = c.flavor.Idle()
	}

	n := c.notify(NotificationDiscovery, TitleNoMatch,
		"These symbols don't combine... yet. Try different patterns!", nil)
	c.notifications = pushNotifications(c.notifications, c.cfg.NotificationWindow, n)

	res := Result{
		Outcome:       OutcomeNoMatch,
		Story:         c.story,
		Notifications: []Notification{n},
	}
	return res, &plan{history: append([]string{}, c.history...)}
}

func (c *Controller) rediscoveryLocked(attempt []symbol.Symbol, match rules.Match) Result {
	name := c.displayName(match.Rule)
	c.lastResponse = match.Rule.Output.Display()
	c.story = ""

	n := c.notify(NotificationDiscovery, TitleRecognized,
		fmt.Sprintf("You rediscovered %s - no points awarded", name), nil)
	c.notifications = pushNotifications(c.notifications, c.cfg.NotificationWindow, n)

	return Result{
		Outcome:       OutcomeRediscovery,
		Kind:          match.Kind,
		Output:        match.Rule.Output.String(),
		Name:          name,
		Notifications: []Notification{n},
	}
}

func (c *Controller) discoveryLocked(attempt []symbol.Symbol, match rules.Match, now time.Time) (Result, *plan) {
	rule := match.Rule
	before := c.discovered
	after := before.With(rule.Output)
	name := c.displayName(rule)

	points := progress.Points(rule, true)
	score := c.profile.TotalScore + points
	discoveries := c.profile.TotalDiscoveries + 1

	p := &plan{
		profileID: c.profile.ID,
		now:       now,
		discoveries: []store.NewDiscovery{{
			ProfileID:    c.profile.ID,
			SymbolResult: rule.Output.String(),
			Combination:  symbol.Strings(attempt),
			Points:       points,
		}},
	}
	if p.discoveries[0].Combination == nil {
		p.discoveries[0].Combination = []string{}
	}

	var emitted []Notification
	metrics.Discovery(string(match.Kind))
	res := Result{
		Outcome: OutcomeDiscovery,
		Kind:    match.Kind,
		Output:  rule.Output.String(),
		Name:    name,
		Points:  points,
	}

	today := mystery.DateString(now)
	if c.mysteryCompletedOn != today && c.mysteries.IsSolved(now, after) {
		daily := c.mysteries.Daily(now)
		res.MysterySolved = true
		p.markMystery = true
		c.mysteryCompletedOn = today

		var bonus *int
		if !after.Has(daily.Reward) {
			after.Add(daily.Reward)
			score += c.cfg.MysteryBonusPoints
			discoveries++
			bonus = pointsPtr(c.cfg.MysteryBonusPoints)
			comb := symbol.Strings(c.cfg.MysteryBonusCombination)
			if comb == nil {
				comb = []string{}
			}
			p.discoveries = append(p.discoveries, store.NewDiscovery{
				ProfileID:    c.profile.ID,
				SymbolResult: daily.Reward.String(),
				Combination:  comb,
				Points:       c.cfg.MysteryBonusPoints,
			})
			metrics.Discovery("mystery")
		}
		emitted = append(emitted, c.notify(NotificationSpecial, TitleMysterySolve,
			fmt.Sprintf("You unlocked %s: %s", daily.Reward.Display(), daily.Description), bonus))
	}

	if c.progress.FourElementsUnlocked(before, after) {
		res.UniverseUnlocked = true
		score += c.cfg.FourElementsBonus
		emitted = append(emitted, c.notify(NotificationSpecial, TitleUniverse,
			"You have discovered the four elements! The infinite game begins - everything can now be combined with everything.",
			pointsPtr(c.cfg.FourElementsBonus)))
	}

	emitted = append(emitted, c.notify(NotificationDiscovery, TitleDiscovery,
		fmt.Sprintf("You unlocked %s", name), pointsPtr(points)))

	level, up := c.progress.LeveledUp(c.profile.TotalDiscoveries, discoveries)
	res.Level = level
	if up {
		res.LevelUp = true
		msg := fmt.Sprintf("You reached level %d", level)
		if chapter := c.progress.Chapter(level); chapter != "" {
			msg += ": " + chapter
		}
		emitted = append(emitted, c.notify(NotificationLevelUp, TitleLevelUp, msg, nil))
	}

	for _, tag := range c.progress.SpecialUnlocks(rule.Output) {
		res.Unlocks = append(res.Unlocks, tag)
		emitted = append(emitted, c.notify(NotificationSpecial, TitleUnlock,
			fmt.Sprintf("You unlocked %s", tag), nil))
	}

	if c.flavor != nil {
		res.Story = c.flavor.Story(rule, before)
	}

	c.profile.Level = level
	c.profile.TotalScore = score
	c.profile.TotalDiscoveries = discoveries
	c.profile.FlowStreak++
	c.profile.DiscoveredSymbols = after.Strings()
	c.profile.UpdatedAt = now.UTC()
	c.discovered = after
	c.sessionDiscoveries += len(p.discoveries)
	c.lastResponse = rule.Output.Display()
	c.story = res.Story
	c.notifications = pushNotifications(c.notifications, c.cfg.NotificationWindow, emitted...)

	streak := c.profile.FlowStreak
	p.patch = store.ProfilePatch{
		Level:             &level,
		TotalScore:        &score,
		TotalDiscoveries:  &discoveries,
		FlowStreak:        &streak,
		DiscoveredSymbols: after.Strings(),
	}

	res.Notifications = emitted
	return res, p
}

// persist runs the store calls of p. Failures are logged and counted.
func (c *Controller) persist(ctx context.Context, p *plan) {
	if p.history != nil {
		if err := c.local.SaveHistory(ctx, p.history); err != nil {
			c.persistFailed("save_history", err)
		}
	}

	for _, d := range p.discoveries {
		rec, err := c.repo.CreateDiscovery(ctx, d)
		if err != nil {
			c.persistFailed("create_discovery", err, "symbol", d.SymbolResult)
			continue
		}
		c.logger.Debug("discovery recorded", "id", rec.ID, "symbol", rec.SymbolResult, "points", rec.Points)
	}

	if p.profileID != 0 {
		if _, err := c.repo.UpdateProfile(ctx, p.profileID, p.patch); err != nil {
			c.persistFailed("update_profile", err, "profile_id", p.profileID)
		}
	}

	if p.markMystery {
		metrics.MysterySolved()
		if _, err := c.mysteries.MarkCompleted(ctx, p.now); err != nil {
			c.persistFailed("mark_mystery", err)
		}
	}
}

func (c *Controller) persistFailed(op string, err error, args ...any) {
	metrics.PersistenceFailure(op)
	kind := "error"
	var verr *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		kind = "not_found"
	case errors.As(err, &verr):
		kind = "invalid"
	}
	attrs := append([]any{"op", op, "kind", kind, "error", err}, args...)
	c.logger.Warn("persistence failed", attrs...)
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	profile := c.profile
	profile.DiscoveredSymbols = append([]string{}, c.profile.DiscoveredSymbols...)
	data := make(map[string]any, len(c.profile.SessionData))
	for k, v := range c.profile.SessionData {
		data[k] = v
	}
	profile.SessionData = data

	attempt := symbol.Strings(c.attempt)
	if attempt == nil {
		attempt = []string{}
	}

	return Snapshot{
		State:         c.stateLocked(),
		Profile:       profile,
		SessionID:     c.sessionID,
		Attempt:       attempt,
		LastResponse:  c.lastResponse,
		Story:         c.story,
		Notifications: append([]Notification{}, c.notifications...),
		History:       append([]string{}, c.history...),
		Level:         c.progress.Level(c.profile.TotalDiscoveries),
		LevelProgress: c.progress.LevelProgress(c.profile.TotalDiscoveries),
		Chapter:       c.progress.Chapter(c.progress.Level(c.profile.TotalDiscoveries)),
		ElapsedTime:   c.clock.Formatted(),
	}
}

// Discovered returns the player's discovered symbols in discovery order.
func (c *Controller) Discovered() []symbol.Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.discovered.Symbols()
}

// Available returns basic plus discovered symbols.
func (c *Controller) Available() []symbol.Symbol {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.availableLocked().Symbols()
}
