package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/symbol"
)

const minimal = `
basic: ["a"]
rules: [
	{input: ["a"], output: "b", points: 1, name: "B"},
	{input: ["a", "b"], output: "c", points: 3},
]
progression: {thresholds: [0, 2]}
mysteries: [{hint: "h", solution: ["b"], reward: "r", description: "d"}]
`

func TestDefault_Loads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []symbol.Symbol{symbol.Static("⚫")}, c.Basic)
	assert.Len(t, c.Rules, 39)
	assert.Len(t, c.Mysteries, 7)
	assert.Equal(t, []int{0, 5, 15, 30, 60, 100, 200}, c.Progress.Thresholds)
	assert.Equal(t, symbol.List([]string{"🌀", "✨", "🌊", "⚖️"}), c.Progress.FourElements)
	assert.Len(t, c.Progress.Unlocks, 3)
	assert.Len(t, c.Progress.Chapters, 6)
	assert.Equal(t, 500, c.FourElementsBonus)
	assert.Equal(t, 100, c.MysteryBonus.Points)
	assert.Equal(t, symbol.List([]string{"🎁", "✨"}), c.MysteryBonus.Combination)
	assert.Len(t, c.Flavor.Idle, 4)
	assert.Len(t, c.Flavor.Chapters, 5)
	assert.NotEmpty(t, c.Flavor.Awakening)
	assert.NotEmpty(t, c.Flavor.Hints)
}

func TestDefault_FirstRules(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	empty := c.Rules[0]
	assert.Empty(t, empty.Input)
	assert.Equal(t, symbol.Static("·"), empty.Output)
	assert.Equal(t, 5, empty.Points)
	assert.Equal(t, "Point", empty.Name)

	observer := c.Rules[3]
	assert.Equal(t, []symbol.Symbol{symbol.Static("⚫")}, observer.Input)
	assert.Equal(t, symbol.Static("👁️"), observer.Output)
	assert.Equal(t, 20, observer.Points)
}

func TestDefault_EveryOutputIsNamed(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	reg := c.Registry()

	for _, r := range c.Rules {
		assert.NotEqual(t, symbol.UnknownName, reg.Name(r.Output), "output %s", r.Output)
	}
	for _, m := range c.Mysteries {
		assert.NotEqual(t, symbol.UnknownName, reg.Name(m.Reward), "reward %s", m.Reward)
	}
}

func TestDefault_EverythingReachable(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	reachable := c.Reachable()

	for _, r := range c.Rules {
		assert.True(t, reachable.Has(r.Output), "unreachable %s", r.Output)
	}
	for _, m := range c.Mysteries {
		assert.True(t, reachable.HasAll(m.Solution), "mystery %q", m.Hint)
		assert.False(t, reachable.Has(m.Reward), "reward %s must only come from the mystery", m.Reward)
	}
}

func TestDefault_ResolvesThroughTable(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	r := rules.NewResolver(c.Table())

	m, ok := r.Resolve(symbol.List([]string{"⚫"}), nil)
	require.True(t, ok)
	assert.Equal(t, "Observer", m.Rule.Name)

	m, ok = r.Resolve(symbol.List([]string{"🌀", "🌬️"}), nil)
	require.True(t, ok)
	assert.Equal(t, rules.MatchReversed, m.Kind)
	assert.Equal(t, symbol.Static("🌊"), m.Rule.Output)
}

func TestDefault_BuildsEngines(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	prog, err := c.ProgressEngine()
	require.NoError(t, err)
	assert.Equal(t, "The Awakening", prog.Chapter(1))
	assert.Equal(t, "Infinite Manifestation", prog.Chapter(6))

	_, err = mystery.NewEngine(c.Mysteries, mystery.NewMemoryStore())
	require.NoError(t, err)
}

func TestLoad_Minimal(t *testing.T) {
	c, err := Load([]byte(minimal), "minimal.cue")
	require.NoError(t, err)

	require.Len(t, c.Rules, 2)
	assert.Equal(t, "B", c.Rules[0].Name)
	assert.Equal(t, "", c.Rules[1].Name)
	assert.Empty(t, c.Symbols)
	assert.Empty(t, c.Flavor.Idle)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(minimal), 0o644))

	c, err := LoadFile(path)

	require.NoError(t, err)
	assert.Len(t, c.Rules, 2)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "read catalog")
}

func TestLoad_SyntaxErrorHasPosition(t *testing.T) {
	_, err := Load([]byte("basic: [\"a\"\nrules: {"), "broken.cue")

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "cue", ce.Field)
	assert.True(t, ce.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoad_ValidationErrorsJoined(t *testing.T) {
	src := `
basic: ["a"]
rules: [
	{input: ["a"], output: "x|y", points: 1},
	{input: ["a"], output: "z", points: -1},
]
progression: {thresholds: [0, 2]}
mysteries: [{hint: "h", solution: ["q"], reward: "r"}]
`
	_, err := Load([]byte(src), "bad.cue")

	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrReservedRune)
	assert.Contains(t, err.Error(), ErrNegativePoints)
	assert.Contains(t, err.Error(), ErrInvalidMystery)

	var ve ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestCompile_MissingRules(t *testing.T) {
	v := cuecontext.New().CompileString(`basic: ["a"]`)

	_, err := Compile(v)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rules", ce.Field)
}

func TestCompile_MissingRuleOutput(t *testing.T) {
	v := cuecontext.New().CompileString(`
basic: ["a"]
rules: [{input: ["a"], points: 1}]
progression: {thresholds: [0, 2]}
`)

	_, err := Compile(v)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "rules[0].output", ce.Field)
}

func TestCompile_MissingProgression(t *testing.T) {
	v := cuecontext.New().CompileString(`
basic: ["a"]
rules: []
`)

	_, err := Compile(v)

	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "progression", ce.Field)
}

func validCatalog() *Catalog {
	a, b := symbol.Static("a"), symbol.Static("b")
	return &Catalog{
		Basic: []symbol.Symbol{a},
		Rules: []rules.Rule{{Input: []symbol.Symbol{a}, Output: b, Points: 1}},
		Progress: progress.Config{
			Thresholds:   []int{0, 2, 4},
			FourElements: []symbol.Symbol{b},
		},
		Mysteries: []mystery.Mystery{{Hint: "h", Solution: []symbol.Symbol{b}, Reward: symbol.Static("r")}},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_Valid(t *testing.T) {
	assert.Empty(t, Validate(validCatalog()))
}

func TestValidate_Codes(t *testing.T) {
	long := make([]symbol.Symbol, MaxRuleInput+1)
	for i := range long {
		long[i] = symbol.Static("a")
	}

	cases := []struct {
		name   string
		mutate func(c *Catalog)
		code   string
	}{
		{"no basic", func(c *Catalog) { c.Basic = nil; c.Rules = nil; c.Progress.FourElements = nil; c.Mysteries[0].Solution = nil }, ErrNoBasicSymbols},
		{"empty output", func(c *Catalog) { c.Rules = append(c.Rules, rules.Rule{Input: c.Basic}) }, ErrRuleOutputEmpty},
		{"long input", func(c *Catalog) { c.Rules = append(c.Rules, rules.Rule{Input: long, Output: symbol.Static("l")}) }, ErrRuleInputTooLong},
		{"reserved basic", func(c *Catalog) { c.Basic = append(c.Basic, symbol.Static("⟨")) }, ErrReservedRune},
		{"negative points", func(c *Catalog) { c.Rules[0].Points = -5 }, ErrNegativePoints},
		{"bad thresholds", func(c *Catalog) { c.Progress.Thresholds = []int{0, 4, 2} }, ErrInvalidProgression},
		{"chapter count", func(c *Catalog) { c.Progress.Chapters = []string{"one"} }, ErrInvalidProgression},
		{"no mysteries", func(c *Catalog) { c.Mysteries = nil }, ErrInvalidMystery},
		{"unreachable solution", func(c *Catalog) { c.Mysteries[0].Solution = []symbol.Symbol{symbol.Static("zz")} }, ErrInvalidMystery},
		{"basic-only solution", func(c *Catalog) { c.Mysteries[0].Solution = c.Basic }, ErrInvalidMystery},
		{"missing reward", func(c *Catalog) { c.Mysteries[0].Reward = symbol.Symbol{} }, ErrInvalidMystery},
		{"unreachable element", func(c *Catalog) { c.Progress.FourElements = []symbol.Symbol{symbol.Static("zz")} }, ErrUnreachableSymbol},
		{"basic-only element", func(c *Catalog) { c.Progress.FourElements = c.Basic }, ErrUnreachableSymbol},
		{"unreachable unlock", func(c *Catalog) {
			c.Progress.Unlocks = []progress.UnlockGroup{{Tag: "t", Symbols: []symbol.Symbol{symbol.Static("zz")}}}
		}, ErrUnreachableSymbol},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validCatalog()
			tc.mutate(c)

			assert.Contains(t, codes(Validate(c)), tc.code)
		})
	}
}

func TestValidate_CollectsAll(t *testing.T) {
	c := validCatalog()
	c.Rules[0].Points = -1
	c.Mysteries = nil

	errs := Validate(c)

	assert.ElementsMatch(t, []string{ErrNegativePoints, ErrInvalidMystery}, codes(errs))
}

func TestValidate_FusedSymbolsAreNotReserved(t *testing.T) {
	c := validCatalog()
	c.Mysteries[0].Reward = symbol.Fuse(symbol.Static("a"), symbol.Static("b"))

	assert.Empty(t, Validate(c))
}

func TestReachable(t *testing.T) {
	c := validCatalog()
	c.Rules = append(c.Rules,
		rules.Rule{Input: symbol.List([]string{"b", "c"}), Output: symbol.Static("d")},
		rules.Rule{Input: nil, Output: symbol.Static("c")},
	)

	got := c.Reachable()

	assert.Equal(t, []string{"a", "b", "c", "d"}, got.Strings())
}

func TestProducible(t *testing.T) {
	c := validCatalog()
	c.Rules = append(c.Rules,
		rules.Rule{Input: symbol.List([]string{"b"}), Output: symbol.Static("c")},
		rules.Rule{Input: symbol.List([]string{"zz"}), Output: symbol.Static("d")},
	)

	assert.Equal(t, []string{"b", "c"}, c.Producible().Strings())

	c.Rules = append(c.Rules, rules.Rule{Input: symbol.List([]string{"c"}), Output: symbol.Static("a")})
	assert.Equal(t, []string{"b", "c", "a"}, c.Producible().Strings(), "a basic counts once a rule outputs it")
}

func TestValidationError_Format(t *testing.T) {
	err := ValidationError{Field: "rules[0].points", Message: "points must be >= 0, got -1", Code: ErrNegativePoints}

	assert.Equal(t, "[E205] rules[0].points: points must be >= 0, got -1", err.Error())
}
