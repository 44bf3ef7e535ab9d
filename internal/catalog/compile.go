package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fractalflow/internal/flavor"
	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/symbol"
)

// Compile converts a CUE value into a Catalog.
//
// The value must be the root of a catalog document:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`basic: ["⚫"], rules: [...]`)
//	c, err := Compile(v)
//
// Compile checks structure only. Call Validate for semantic checks.
func Compile(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{}
	var err error

	if c.Basic, err = symbolList(v, "basic", true); err != nil {
		return nil, err
	}
	if c.Symbols, err = parseEntries(v); err != nil {
		return nil, err
	}
	if c.Rules, err = parseRules(v); err != nil {
		return nil, err
	}
	if err = parseProgression(v, c); err != nil {
		return nil, err
	}
	if c.Mysteries, err = parseMysteries(v); err != nil {
		return nil, err
	}
	if c.MysteryBonus, err = parseMysteryBonus(v); err != nil {
		return nil, err
	}
	if c.Flavor, err = parseFlavor(v); err != nil {
		return nil, err
	}

	return c, nil
}

func parseEntries(v cue.Value) ([]symbol.Entry, error) {
	var entries []symbol.Entry

	iter, ok, err := listAt(v, "symbols")
	if err != nil || !ok {
		return entries, err
	}
	for iter.Next() {
		item := iter.Value()
		glyph, err := stringField(item, "symbol", true)
		if err != nil {
			return nil, err
		}
		name, err := stringField(item, "name", true)
		if err != nil {
			return nil, err
		}
		desc, err := stringField(item, "description", false)
		if err != nil {
			return nil, err
		}
		entries = append(entries, symbol.Entry{
			Symbol:      symbol.Static(glyph),
			Name:        name,
			Description: desc,
		})
	}
	return entries, nil
}

func parseRules(v cue.Value) ([]rules.Rule, error) {
	iter, ok, err := listAt(v, "rules")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &CompileError{
			Field:   "rules",
			Message: "rules are required",
			Pos:     v.Pos(),
		}
	}

	var out []rules.Rule
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("rules[%d]", i)

		input, err := symbolList(item, "input", true)
		if err != nil {
			return nil, prefixField(err, field)
		}
		output, err := stringField(item, "output", true)
		if err != nil {
			return nil, prefixField(err, field)
		}
		points, err := intField(item, "points", true)
		if err != nil {
			return nil, prefixField(err, field)
		}
		name, err := stringField(item, "name", false)
		if err != nil {
			return nil, prefixField(err, field)
		}
		story, err := stringField(item, "story", false)
		if err != nil {
			return nil, prefixField(err, field)
		}

		out = append(out, rules.Rule{
			Input:  input,
			Output: symbol.Static(output),
			Points: points,
			Name:   name,
			Story:  story,
		})
	}
	return out, nil
}

func parseProgression(v cue.Value, c *Catalog) error {
	pv := v.LookupPath(cue.ParsePath("progression"))
	if !pv.Exists() {
		return &CompileError{
			Field:   "progression",
			Message: "progression is required",
			Pos:     v.Pos(),
		}
	}

	iter, _, err := listAt(pv, "thresholds")
	if err != nil {
		return prefixField(err, "progression")
	}
	for iter != nil && iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return formatCUEError(err)
		}
		c.Progress.Thresholds = append(c.Progress.Thresholds, int(n))
	}

	if c.Progress.FourElements, err = symbolList(pv, "fourElements", false); err != nil {
		return prefixField(err, "progression")
	}
	if c.FourElementsBonus, err = intField(pv, "fourElementsBonus", false); err != nil {
		return prefixField(err, "progression")
	}
	if c.Progress.Chapters, err = stringList(pv, "chapters"); err != nil {
		return prefixField(err, "progression")
	}

	iter, _, err = listAt(pv, "unlocks")
	if err != nil {
		return prefixField(err, "progression")
	}
	for iter != nil && iter.Next() {
		item := iter.Value()
		tag, err := stringField(item, "tag", true)
		if err != nil {
			return prefixField(err, "progression.unlocks")
		}
		syms, err := symbolList(item, "symbols", true)
		if err != nil {
			return prefixField(err, "progression.unlocks")
		}
		c.Progress.Unlocks = append(c.Progress.Unlocks, progress.UnlockGroup{Tag: tag, Symbols: syms})
	}
	return nil
}

func parseMysteries(v cue.Value) ([]mystery.Mystery, error) {
	var out []mystery.Mystery

	iter, ok, err := listAt(v, "mysteries")
	if err != nil || !ok {
		return out, err
	}
	for i := 0; iter.Next(); i++ {
		item := iter.Value()
		field := fmt.Sprintf("mysteries[%d]", i)

		var m mystery.Mystery
		if m.Hint, err = stringField(item, "hint", true); err != nil {
			return nil, prefixField(err, field)
		}
		if m.Solution, err = symbolList(item, "solution", true); err != nil {
			return nil, prefixField(err, field)
		}
		reward, err := stringField(item, "reward", true)
		if err != nil {
			return nil, prefixField(err, field)
		}
		m.Reward = symbol.Static(reward)
		if m.Description, err = stringField(item, "description", false); err != nil {
			return nil, prefixField(err, field)
		}
		out = append(out, m)
	}
	return out, nil
}

func parseMysteryBonus(v cue.Value) (MysteryBonus, error) {
	var b MysteryBonus

	bv := v.LookupPath(cue.ParsePath("mysteryBonus"))
	if !bv.Exists() {
		return b, nil
	}
	var err error
	if b.Points, err = intField(bv, "points", true); err != nil {
		return b, prefixField(err, "mysteryBonus")
	}
	if b.Combination, err = symbolList(bv, "combination", false); err != nil {
		return b, prefixField(err, "mysteryBonus")
	}
	return b, nil
}

func parseFlavor(v cue.Value) (flavor.Texts, error) {
	var t flavor.Texts

	fv := v.LookupPath(cue.ParsePath("flavor"))
	if !fv.Exists() {
		return t, nil
	}

	var err error
	if t.Awakening, err = stringField(fv, "awakening", false); err != nil {
		return t, prefixField(err, "flavor")
	}
	if t.Beyond, err = stringField(fv, "beyond", false); err != nil {
		return t, prefixField(err, "flavor")
	}
	if t.FallbackHint, err = stringField(fv, "fallbackHint", false); err != nil {
		return t, prefixField(err, "flavor")
	}
	if t.Idle, err = stringList(fv, "idle"); err != nil {
		return t, prefixField(err, "flavor")
	}

	iter, _, err := listAt(fv, "chapters")
	if err != nil {
		return t, prefixField(err, "flavor")
	}
	for iter != nil && iter.Next() {
		item := iter.Value()
		below, err := intField(item, "below", true)
		if err != nil {
			return t, prefixField(err, "flavor.chapters")
		}
		text, err := stringField(item, "text", true)
		if err != nil {
			return t, prefixField(err, "flavor.chapters")
		}
		t.Chapters = append(t.Chapters, flavor.ChapterText{Below: below, Text: text})
	}

	iter, _, err = listAt(fv, "hints")
	if err != nil {
		return t, prefixField(err, "flavor")
	}
	for iter != nil && iter.Next() {
		item := iter.Value()
		target, err := stringField(item, "target", true)
		if err != nil {
			return t, prefixField(err, "flavor.hints")
		}
		text, err := stringField(item, "text", true)
		if err != nil {
			return t, prefixField(err, "flavor.hints")
		}
		t.Hints = append(t.Hints, flavor.Hint{Target: symbol.Static(target), Text: text})
	}

	return t, nil
}

// listAt returns an iterator over the list at path. ok is false when the
// path does not exist.
func listAt(v cue.Value, path string) (*cue.Iterator, bool, error) {
	lv := v.LookupPath(cue.ParsePath(path))
	if !lv.Exists() {
		return nil, false, nil
	}
	iter, err := lv.List()
	if err != nil {
		return nil, false, formatCUEError(err)
	}
	return &iter, true, nil
}

func symbolList(v cue.Value, path string, required bool) ([]symbol.Symbol, error) {
	items, err := stringListAt(v, path, required)
	if err != nil {
		return nil, err
	}
	out := make([]symbol.Symbol, len(items))
	for i, s := range items {
		out[i] = symbol.Static(s)
	}
	return out, nil
}

func stringList(v cue.Value, path string) ([]string, error) {
	return stringListAt(v, path, false)
}

func stringListAt(v cue.Value, path string, required bool) ([]string, error) {
	iter, ok, err := listAt(v, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		if required {
			return nil, &CompileError{
				Field:   path,
				Message: path + " is required",
				Pos:     v.Pos(),
			}
		}
		return nil, nil
	}

	out := []string{}
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

func stringField(v cue.Value, path string, required bool) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		if required {
			return "", &CompileError{
				Field:   path,
				Message: path + " is required",
				Pos:     v.Pos(),
			}
		}
		return "", nil
	}
	fv, _ = fv.Default()
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func intField(v cue.Value, path string, required bool) (int, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		if required {
			return 0, &CompileError{
				Field:   path,
				Message: path + " is required",
				Pos:     v.Pos(),
			}
		}
		return 0, nil
	}
	fv, _ = fv.Default()
	n, err := fv.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	return int(n), nil
}

// prefixField qualifies a CompileError's field with its parent path.
func prefixField(err error, parent string) error {
	if ce, ok := err.(*CompileError); ok && ce.Field != "cue" {
		return &CompileError{
			Field:   parent + "." + ce.Field,
			Message: ce.Message,
			Pos:     ce.Pos,
		}
	}
	return err
}

// CompileError is a structural error with its source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
