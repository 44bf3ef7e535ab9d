package harness

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSnapshot_UnescapedAndIndented(t *testing.T) {
	data, err := MarshalSnapshot(TraceSnapshot{
		ScenarioName: "s",
		Trace: []TraceEvent{{
			Seq:           1,
			Action:        ActionCombine,
			Attempt:       []string{"<●>"},
			Outcome:       "no_match",
			Notifications: []string{},
		}},
		Profile:     FinalProfile{Discovered: []string{}},
		Discoveries: []string{},
	})
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"<●>"`)
	assert.Contains(t, out, "\n  \"trace\": [\n")
	assert.NotContains(t, out, `"output"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestMarshalSnapshot_Deterministic(t *testing.T) {
	result, err := Run(loadTestScenario(t, "four_elements"))
	require.NoError(t, err)

	snap := TraceSnapshot{ScenarioName: "four_elements", Trace: result.Trace, Profile: result.Profile}
	a, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	b, err := MarshalSnapshot(snap)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
