package catalog

import (
	"fmt"

	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/symbol"
)

// MaxRuleInput is the longest input a rule may declare.
const MaxRuleInput = 5

// Validation error codes (E201-E299)
const (
	ErrNoBasicSymbols     = "E201" // at least one basic symbol required
	ErrRuleOutputEmpty    = "E202" // rule output is empty
	ErrRuleInputTooLong   = "E203" // rule input exceeds MaxRuleInput
	ErrReservedRune       = "E204" // static symbol uses a fused-form rune
	ErrNegativePoints     = "E205" // points must be >= 0
	ErrInvalidProgression = "E206" // thresholds or chapters inconsistent
	ErrInvalidMystery     = "E207" // mystery unsolvable or incomplete
	ErrUnreachableSymbol  = "E208" // achievement symbol no rule produces
)

// ValidationError is a semantic catalog error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks c and returns every problem found.
func Validate(c *Catalog) []ValidationError {
	var errs []ValidationError

	// E201
	if len(c.Basic) == 0 {
		errs = append(errs, ValidationError{
			Field:   "basic",
			Message: "at least one basic symbol is required",
			Code:    ErrNoBasicSymbols,
		})
	}
	for i, s := range c.Basic {
		errs = append(errs, checkGlyph(s, fmt.Sprintf("basic[%d]", i))...)
	}
	for i, e := range c.Symbols {
		errs = append(errs, checkGlyph(e.Symbol, fmt.Sprintf("symbols[%d].symbol", i))...)
	}

	for i, r := range c.Rules {
		field := fmt.Sprintf("rules[%d]", i)

		// E202
		if r.Output.IsZero() {
			errs = append(errs, ValidationError{
				Field:   field + ".output",
				Message: "output must be non-empty",
				Code:    ErrRuleOutputEmpty,
			})
		}

		// E203
		if len(r.Input) > MaxRuleInput {
			errs = append(errs, ValidationError{
				Field:   field + ".input",
				Message: fmt.Sprintf("input has %d symbols, at most %d allowed", len(r.Input), MaxRuleInput),
				Code:    ErrRuleInputTooLong,
			})
		}

		// E205
		if r.Points < 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".points",
				Message: fmt.Sprintf("points must be >= 0, got %d", r.Points),
				Code:    ErrNegativePoints,
			})
		}

		for j, in := range r.Input {
			errs = append(errs, checkGlyph(in, fmt.Sprintf("%s.input[%d]", field, j))...)
		}
		errs = append(errs, checkGlyph(r.Output, field+".output")...)
	}

	errs = append(errs, validateProgression(c)...)
	errs = append(errs, validateMysteries(c)...)

	return errs
}

// checkGlyph reports E204 for static glyphs containing reserved runes.
func checkGlyph(s symbol.Symbol, field string) []ValidationError {
	if s.IsFused() || !symbol.ContainsReserved(s.String()) {
		return nil
	}
	return []ValidationError{{
		Field:   field,
		Message: fmt.Sprintf("symbol %q uses a reserved rune (⟨ ⟩ |)", s.String()),
		Code:    ErrReservedRune,
	}}
}

func validateProgression(c *Catalog) []ValidationError {
	var errs []ValidationError

	// E206
	if _, err := progress.New(c.Progress); err != nil {
		errs = append(errs, ValidationError{
			Field:   "progression.thresholds",
			Message: err.Error(),
			Code:    ErrInvalidProgression,
		})
	} else if n := len(c.Progress.Chapters); n > 0 && n != len(c.Progress.Thresholds)-1 {
		errs = append(errs, ValidationError{
			Field:   "progression.chapters",
			Message: fmt.Sprintf("%d chapters for %d levels", n, len(c.Progress.Thresholds)-1),
			Code:    ErrInvalidProgression,
		})
	}
	if c.FourElementsBonus < 0 {
		errs = append(errs, ValidationError{
			Field:   "progression.fourElementsBonus",
			Message: "bonus must be >= 0",
			Code:    ErrNegativePoints,
		})
	}

	// E208
	produced := c.Producible()
	for i, s := range c.Progress.FourElements {
		if !produced.Has(s) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("progression.fourElements[%d]", i),
				Message: fmt.Sprintf("no rule chain produces %q", s.String()),
				Code:    ErrUnreachableSymbol,
			})
		}
	}
	for i, g := range c.Progress.Unlocks {
		for j, s := range g.Symbols {
			if !produced.Has(s) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("progression.unlocks[%d].symbols[%d]", i, j),
					Message: fmt.Sprintf("no rule chain produces %q", s.String()),
					Code:    ErrUnreachableSymbol,
				})
			}
		}
	}

	return errs
}

func validateMysteries(c *Catalog) []ValidationError {
	var errs []ValidationError

	// E207
	if len(c.Mysteries) == 0 {
		errs = append(errs, ValidationError{
			Field:   "mysteries",
			Message: "at least one mystery is required",
			Code:    ErrInvalidMystery,
		})
	}

	produced := c.Producible()
	for i, m := range c.Mysteries {
		field := fmt.Sprintf("mysteries[%d]", i)

		if len(m.Solution) == 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".solution",
				Message: "solution must name at least one symbol",
				Code:    ErrInvalidMystery,
			})
		}
		for j, s := range m.Solution {
			if !produced.Has(s) {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s.solution[%d]", field, j),
					Message: fmt.Sprintf("no rule chain produces %q", s.String()),
					Code:    ErrInvalidMystery,
				})
			}
			errs = append(errs, checkGlyph(s, fmt.Sprintf("%s.solution[%d]", field, j))...)
		}
		if m.Reward.IsZero() {
			errs = append(errs, ValidationError{
				Field:   field + ".reward",
				Message: "reward must be non-empty",
				Code:    ErrInvalidMystery,
			})
		}
		errs = append(errs, checkGlyph(m.Reward, field+".reward")...)
	}

	if c.MysteryBonus.Points < 0 {
		errs = append(errs, ValidationError{
			Field:   "mysteryBonus.points",
			Message: "points must be >= 0",
			Code:    ErrNegativePoints,
		})
	}

	return errs
}
