package rules

import (
	"fmt"

	"github.com/roach88/fractalflow/internal/symbol"
)

// Display names of synthesized rules.
const (
	FusionName    = "Consciousness Fusion"
	EvolutionName = "Evolution"
)

// fusionRule synthesizes the pseudo-rule for two discovered symbols with no
// authored rule. The output depends on order; identical inputs evolve.
func (r *Resolver) fusionRule(a, b symbol.Symbol) Rule {
	out := symbol.Fuse(a, b)
	input := []symbol.Symbol{a, b}

	rule := Rule{
		Input:  input,
		Output: out,
		Points: r.lengthPoints*len(input) + r.leafPoints*out.Leaves(),
		Fused:  true,
	}
	if out.IsEvolution() {
		rule.Name = EvolutionName
		rule.Story = fmt.Sprintf("%s folds back into itself and evolves into something greater.", a.Display())
	} else {
		rule.Name = FusionName
		rule.Story = fmt.Sprintf("%s and %s merge in the dance of cosmic evolution, creating new possibilities.", a.Display(), b.Display())
	}
	return rule
}
