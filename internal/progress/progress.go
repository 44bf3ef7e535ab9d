// Package progress derives levels, level progress, achievement unlocks and
// scores from a player's cumulative discoveries.
//
// Everything here is a pure function of its inputs. The catalog supplies the
// thresholds and symbol groups; the session controller decides when to ask.
package progress

import (
	"errors"
	"fmt"

	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/symbol"
)

// FirstDiscoveryMultiplier scales a rule's points the first time its output
// is discovered.
const FirstDiscoveryMultiplier = 2

// UnlockGroup tags a fixed set of symbols with an achievement name.
type UnlockGroup struct {
	Tag     string
	Symbols []symbol.Symbol
}

// Config is the static progression data.
type Config struct {
	// Thresholds are ascending discovery counts, starting at 0. Level n is
	// reached at Thresholds[n-1]; the last entry only bounds the progress
	// bar of the highest level.
	Thresholds []int

	// FourElements is the achievement subset whose completion unlocks the
	// universe.
	FourElements []symbol.Symbol

	Unlocks []UnlockGroup

	// Chapters are level titles, indexed by level-1.
	Chapters []string
}

// LevelProgress is the position inside the current level.
type LevelProgress struct {
	Current    int `json:"current"`
	Max        int `json:"max"`
	Percentage int `json:"percentage"`
}

// Engine evaluates progression rules.
type Engine struct {
	cfg Config
}

// New validates cfg and returns an Engine.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Thresholds) < 2 {
		return nil, errors.New("progress: at least two thresholds are required")
	}
	if cfg.Thresholds[0] != 0 {
		return nil, fmt.Errorf("progress: first threshold must be 0, got %d", cfg.Thresholds[0])
	}
	for i := 1; i < len(cfg.Thresholds); i++ {
		if cfg.Thresholds[i] <= cfg.Thresholds[i-1] {
			return nil, fmt.Errorf("progress: thresholds must be strictly ascending at index %d", i)
		}
	}

	c := Config{
		Thresholds:   append([]int(nil), cfg.Thresholds...),
		FourElements: append([]symbol.Symbol(nil), cfg.FourElements...),
		Chapters:     append([]string(nil), cfg.Chapters...),
	}
	for _, g := range cfg.Unlocks {
		c.Unlocks = append(c.Unlocks, UnlockGroup{Tag: g.Tag, Symbols: append([]symbol.Symbol(nil), g.Symbols...)})
	}
	return &Engine{cfg: c}, nil
}

// MaxLevel is the highest reachable level.
func (e *Engine) MaxLevel() int {
	return len(e.cfg.Thresholds) - 1
}

// Level returns the level for a discovery count. It is non-decreasing in
// total.
func (e *Engine) Level(total int) int {
	level := 1
	for i := 1; i < len(e.cfg.Thresholds)-1; i++ {
		if total >= e.cfg.Thresholds[i] {
			level = i + 1
		}
	}
	return level
}

// LeveledUp reports the new level if moving from before to after
// discoveries crosses a level boundary.
func (e *Engine) LeveledUp(before, after int) (int, bool) {
	next := e.Level(after)
	return next, next > e.Level(before)
}

// LevelProgress returns how far total is into its level.
// Percentage is floored and clamped to [0, 100].
func (e *Engine) LevelProgress(total int) LevelProgress {
	level := e.Level(total)
	lo := e.cfg.Thresholds[level-1]
	hi := e.cfg.Thresholds[level]

	p := LevelProgress{
		Current: total - lo,
		Max:     hi - lo,
	}
	switch {
	case p.Current <= 0:
		p.Percentage = 0
	case p.Current >= p.Max:
		p.Percentage = 100
	default:
		p.Percentage = p.Current * 100 / p.Max
	}
	return p
}

// Chapter returns the title of level, or "" when none is configured.
func (e *Engine) Chapter(level int) string {
	if level < 1 || level > len(e.cfg.Chapters) {
		return ""
	}
	return e.cfg.Chapters[level-1]
}

// FourElements returns the achievement subset.
func (e *Engine) FourElements() []symbol.Symbol {
	return append([]symbol.Symbol(nil), e.cfg.FourElements...)
}

// HasFourElements reports whether every achievement symbol is discovered.
func (e *Engine) HasFourElements(discovered *symbol.Set) bool {
	if len(e.cfg.FourElements) == 0 {
		return false
	}
	return discovered.HasAll(e.cfg.FourElements)
}

// FourElementsUnlocked reports the transition from "not all present" to
// "all present". It is true for exactly one step of a growing set.
func (e *Engine) FourElementsUnlocked(before, after *symbol.Set) bool {
	return !e.HasFourElements(before) && e.HasFourElements(after)
}

// SpecialUnlocks returns the tags of every group containing sym, in
// configuration order.
func (e *Engine) SpecialUnlocks(sym symbol.Symbol) []string {
	var tags []string
	for _, g := range e.cfg.Unlocks {
		for _, s := range g.Symbols {
			if s == sym {
				tags = append(tags, g.Tag)
				break
			}
		}
	}
	return tags
}

// Points returns the score a rule awards. First discoveries are doubled.
func Points(rule rules.Rule, firstDiscovery bool) int {
	if firstDiscovery {
		return rule.Points * FirstDiscoveryMultiplier
	}
	return rule.Points
}

// IsFirstDiscovery reports whether rule's output is new to discovered.
func IsFirstDiscovery(rule rules.Rule, discovered *symbol.Set) bool {
	return !discovered.Has(rule.Output)
}
