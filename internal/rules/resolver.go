package rules

import (
	"github.com/roach88/fractalflow/internal/symbol"
)

// MatchKind records which step of the resolver produced a match.
type MatchKind string

const (
	MatchEmpty    MatchKind = "empty"
	MatchExact    MatchKind = "exact"
	MatchReversed MatchKind = "reversed"
	MatchFusion   MatchKind = "fusion"
)

// Match is the result of a successful resolution.
type Match struct {
	Rule Rule
	Kind MatchKind
}

// Default fusion scoring: 10 per attempted symbol plus 15 per static leaf
// of the output. Two static symbols fuse for 50 points.
const (
	DefaultFusionLengthPoints = 10
	DefaultFusionLeafPoints   = 15
)

// Resolver matches attempts against a rule table.
// A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	table        *Table
	fusion       bool
	lengthPoints int
	leafPoints   int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithFusion toggles the dynamic fusion fallback. Disabled by default.
func WithFusion(enabled bool) Option {
	return func(r *Resolver) {
		r.fusion = enabled
	}
}

// WithFusionPoints overrides the fusion scoring weights.
func WithFusionPoints(perSymbol, perLeaf int) Option {
	return func(r *Resolver) {
		r.lengthPoints = perSymbol
		r.leafPoints = perLeaf
	}
}

// NewResolver creates a resolver over table.
func NewResolver(table *Table, opts ...Option) *Resolver {
	r := &Resolver{
		table:        table,
		lengthPoints: DefaultFusionLengthPoints,
		leafPoints:   DefaultFusionLeafPoints,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Table returns the underlying rule table.
func (r *Resolver) Table() *Table {
	return r.table
}

// FusionEnabled reports whether the fusion fallback is active.
func (r *Resolver) FusionEnabled() bool {
	return r.fusion
}

// Resolve determines the rule an attempt produces, if any.
//
// discovered may be nil. It is consulted only by the fusion fallback.
func (r *Resolver) Resolve(attempt []symbol.Symbol, discovered *symbol.Set) (Match, bool) {
	if len(attempt) == 0 {
		rule, ok := r.table.find(nil)
		if !ok {
			return Match{}, false
		}
		return Match{Rule: rule, Kind: MatchEmpty}, true
	}

	if rule, ok := r.table.find(attempt); ok {
		return Match{Rule: rule, Kind: MatchExact}, true
	}

	if len(attempt) != 2 {
		return Match{}, false
	}

	a, b := attempt[0], attempt[1]
	if rule, ok := r.table.find([]symbol.Symbol{b, a}); ok {
		return Match{Rule: rule, Kind: MatchReversed}, true
	}

	if r.fusion && discovered.Has(a) && discovered.Has(b) {
		return Match{Rule: r.fusionRule(a, b), Kind: MatchFusion}, true
	}

	return Match{}, false
}
