package rules

import (
	"github.com/roach88/fractalflow/internal/symbol"
)

// Rule maps an ordered input sequence to an output symbol.
// Name and Story are display metadata and never take part in matching.
type Rule struct {
	Input  []symbol.Symbol
	Output symbol.Symbol
	Points int
	Name   string
	Story  string

	// Fused marks a pseudo-rule synthesized by the resolver.
	Fused bool
}

// InputKey renders the input for logs and history, e.g. "○●".
func (r Rule) InputKey() string {
	return symbol.Join(r.Input, "")
}

func (r Rule) clone() Rule {
	c := r
	c.Input = make([]symbol.Symbol, len(r.Input))
	copy(c.Input, r.Input)
	return c
}

// Table is an immutable, ordered list of rules.
type Table struct {
	rules []Rule
}

// NewTable copies rules into a new table. Declaration order is preserved
// and is the tie-break for ambiguous lookups.
func NewTable(rules []Rule) *Table {
	t := &Table{rules: make([]Rule, len(rules))}
	for i, r := range rules {
		t.rules[i] = r.clone()
	}
	return t
}

// Len returns the number of rules.
func (t *Table) Len() int {
	return len(t.rules)
}

// Rules returns a copy of the rules in declaration order.
func (t *Table) Rules() []Rule {
	out := make([]Rule, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.clone()
	}
	return out
}

// ProducerOf returns the first rule whose output is sym.
func (t *Table) ProducerOf(sym symbol.Symbol) (Rule, bool) {
	for _, r := range t.rules {
		if r.Output == sym {
			return r.clone(), true
		}
	}
	return Rule{}, false
}

// Outputs returns every distinct output in declaration order.
func (t *Table) Outputs() []symbol.Symbol {
	seen := symbol.NewSet()
	for _, r := range t.rules {
		seen.Add(r.Output)
	}
	return seen.Symbols()
}

// find returns the first rule whose input equals seq element-wise.
func (t *Table) find(seq []symbol.Symbol) (Rule, bool) {
	for _, r := range t.rules {
		if equalSeq(r.Input, seq) {
			return r.clone(), true
		}
	}
	return Rule{}, false
}

func equalSeq(a, b []symbol.Symbol) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
