// Package flavor selects the narrative text shown around a combination.
//
// This is the only package that draws random numbers. Nothing it returns
// feeds back into scores, unlocks or the discovered set.
package flavor

import (
	"math/rand"
	"sync"

	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/symbol"
)

// ChapterText is shown while the discovered count is below Below.
type ChapterText struct {
	Below int
	Text  string
}

// Hint nudges the player toward Target.
type Hint struct {
	Target symbol.Symbol
	Text   string
}

// Texts is the authored flavor text.
type Texts struct {
	// Awakening is shown when the four elements come together.
	Awakening string

	// Chapters are ordered by ascending Below.
	Chapters []ChapterText

	// Beyond is shown once every chapter bound has been passed.
	Beyond string

	Idle         []string
	Hints        []Hint
	FallbackHint string
}

// Selector picks flavor text.
type Selector struct {
	texts    Texts
	table    *rules.Table
	progress *progress.Engine

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector returns a Selector drawing from rng.
func NewSelector(texts Texts, table *rules.Table, prog *progress.Engine, rng *rand.Rand) *Selector {
	return &Selector{
		texts:    texts,
		table:    table,
		progress: prog,
		rng:      rng,
	}
}

// NewSeeded returns a Selector with its own source seeded by seed.
func NewSeeded(texts Texts, table *rules.Table, prog *progress.Engine, seed int64) *Selector {
	return NewSelector(texts, table, prog, rand.New(rand.NewSource(seed)))
}

// Story returns the narrative for a resolved rule. discovered is the set
// before the rule's output was added.
func (s *Selector) Story(rule rules.Rule, discovered *symbol.Set) string {
	if rule.Story != "" {
		return rule.Story
	}
	if producer, ok := s.table.ProducerOf(rule.Output); ok && producer.Story != "" {
		return producer.Story
	}
	if s.progress != nil && s.progress.HasFourElements(discovered.With(rule.Output)) && s.texts.Awakening != "" {
		return s.texts.Awakening
	}
	return s.Chapter(discovered.Len())
}

// Chapter returns the chapter text for a discovered count.
func (s *Selector) Chapter(count int) string {
	for _, c := range s.texts.Chapters {
		if count < c.Below {
			return c.Text
		}
	}
	return s.texts.Beyond
}

// Idle returns a random idle response.
func (s *Selector) Idle() string {
	return s.pick(s.texts.Idle)
}

// Hint suggests what to try next. Hints whose target can be produced from
// the current attempt come first, then hints whose target is reachable from
// discovered symbols. Discovered targets are never hinted.
func (s *Selector) Hint(attempt []symbol.Symbol, discovered *symbol.Set) string {
	var forAttempt, reachable []string
	for _, h := range s.texts.Hints {
		if discovered.Has(h.Target) {
			continue
		}
		producer, ok := s.table.ProducerOf(h.Target)
		if !ok {
			continue
		}
		if len(attempt) > 0 && usesAll(producer.Input, attempt) {
			forAttempt = append(forAttempt, h.Text)
		}
		if discovered.HasAll(producer.Input) {
			reachable = append(reachable, h.Text)
		}
	}

	switch {
	case len(forAttempt) > 0:
		return s.pick(forAttempt)
	case len(reachable) > 0:
		return s.pick(reachable)
	default:
		return s.texts.FallbackHint
	}
}

func (s *Selector) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return options[s.rng.Intn(len(options))]
}

// usesAll reports whether every symbol of attempt appears in input.
func usesAll(input, attempt []symbol.Symbol) bool {
	for _, a := range attempt {
		found := false
		for _, in := range input {
			if in == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
