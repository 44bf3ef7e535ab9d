// Package catalog loads the static game data: basic symbols, names, the
// combination rule table, progression settings, daily mysteries and flavor
// text.
//
// Catalogs are authored in CUE. The default catalog is embedded in the
// binary; alternative catalogs can be loaded from disk with LoadFile.
// Everything returned is compiled once at start and treated as immutable.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/fractalflow/internal/flavor"
	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/rules"
	"github.com/roach88/fractalflow/internal/symbol"
)

//go:embed cosmology.cue
var cosmology []byte

// DefaultFilename names the embedded catalog in error positions.
const DefaultFilename = "cosmology.cue"

// MysteryBonus is the discovery granted with a mystery's reward symbol.
type MysteryBonus struct {
	Points      int
	Combination []symbol.Symbol
}

// Catalog is the compiled static data.
type Catalog struct {
	Basic     []symbol.Symbol
	Symbols   []symbol.Entry
	Rules     []rules.Rule
	Progress  progress.Config
	Mysteries []mystery.Mystery
	Flavor    flavor.Texts

	// FourElementsBonus is added to the score when the four elements are
	// first completed.
	FourElementsBonus int
	MysteryBonus      MysteryBonus
}

// Default compiles and validates the embedded catalog.
func Default() (*Catalog, error) {
	return Load(cosmology, DefaultFilename)
}

// LoadFile compiles and validates the catalog at path.
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(src, path)
}

// Load compiles src and validates the result. Validation failures are
// returned joined; each is a ValidationError.
func Load(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))

	c, err := Compile(v)
	if err != nil {
		return nil, err
	}

	if verrs := Validate(c); len(verrs) > 0 {
		errs := make([]error, len(verrs))
		for i, ve := range verrs {
			errs[i] = ve
		}
		return nil, errors.Join(errs...)
	}
	return c, nil
}

// Registry builds the symbol registry.
func (c *Catalog) Registry() *symbol.Registry {
	return symbol.NewRegistry(c.Basic, c.Symbols)
}

// Table builds the rule table.
func (c *Catalog) Table() *rules.Table {
	return rules.NewTable(c.Rules)
}

// ProgressEngine builds the progress engine.
func (c *Catalog) ProgressEngine() (*progress.Engine, error) {
	return progress.New(c.Progress)
}

// Reachable returns every symbol obtainable from the basic symbols through
// authored rules, in discovery order. Fusions are not included.
func (c *Catalog) Reachable() *symbol.Set {
	found, _ := c.closure()
	return found
}

// Producible returns the outputs of every reachable rule, in discovery
// order. A basic symbol is only included when some rule outputs it.
func (c *Catalog) Producible() *symbol.Set {
	_, produced := c.closure()
	return produced
}

func (c *Catalog) closure() (found, produced *symbol.Set) {
	found = symbol.NewSet(c.Basic...)
	produced = symbol.NewSet()
	for changed := true; changed; {
		changed = false
		for _, r := range c.Rules {
			if !found.HasAll(r.Input) {
				continue
			}
			if produced.Add(r.Output) {
				changed = true
			}
			found.Add(r.Output)
		}
	}
	return found, produced
}
