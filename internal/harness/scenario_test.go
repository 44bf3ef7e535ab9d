package harness

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "Tap once"
flow:
  - action: tap
assertions:
  - type: trace_count
    outcome: discovery
    count: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	assert.Len(t, s.Flow, 1)
	assert.Equal(t, ActionTap, s.Flow[0].Action)
	assert.False(t, s.Fusion)
	assert.Nil(t, s.Setup)
}

func TestParseScenario_UnknownFieldRejected(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestParseScenario_Validation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nflow: [{action: tap}]\nassertions: [{type: discoveries}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nflow: [{action: tap}]\nassertions: [{type: discoveries}]\n",
			want: "description is required",
		},
		{
			name: "empty flow",
			yaml: "name: n\ndescription: d\nflow: []\nassertions: [{type: discoveries}]\n",
			want: "flow list is required",
		},
		{
			name: "empty assertions",
			yaml: "name: n\ndescription: d\nflow: [{action: tap}]\nassertions: []\n",
			want: "assertions list is required",
		},
		{
			name: "bad date",
			yaml: "name: n\ndescription: d\ndate: May 1\nflow: [{action: tap}]\nassertions: [{type: discoveries}]\n",
			want: "invalid date",
		},
		{
			name: "unknown action",
			yaml: "name: n\ndescription: d\nflow: [{action: dance}]\nassertions: [{type: discoveries}]\n",
			want: `unknown action "dance"`,
		},
		{
			name: "combine without symbols",
			yaml: "name: n\ndescription: d\nflow: [{action: combine}]\nassertions: [{type: discoveries}]\n",
			want: "symbols are required",
		},
		{
			name: "tap with symbols",
			yaml: "name: n\ndescription: d\nflow: [{action: tap, symbols: [a]}]\nassertions: [{type: discoveries}]\n",
			want: "tap takes no symbols",
		},
		{
			name: "reserved glyph",
			yaml: "name: n\ndescription: d\nflow: [{action: combine, symbols: [\"a|b\"]}]\nassertions: [{type: discoveries}]\n",
			want: "flow[0].symbols[0]",
		},
		{
			name: "expect on next_day",
			yaml: "name: n\ndescription: d\nflow: [{action: next_day, expect: {outcome: discovery}}]\nassertions: [{type: discoveries}]\n",
			want: "only combine and tap have results",
		},
		{
			name: "expect without outcome",
			yaml: "name: n\ndescription: d\nflow: [{action: tap, expect: {points: 1}}]\nassertions: [{type: discoveries}]\n",
			want: "outcome is required",
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nflow: [{action: tap}]\nassertions: [{type: final_state}]\n",
			want: `unknown assertion type "final_state"`,
		},
		{
			name: "trace_order without outputs",
			yaml: "name: n\ndescription: d\nflow: [{action: tap}]\nassertions: [{type: trace_order}]\n",
			want: "outputs list is required",
		},
		{
			name: "unknown profile field",
			yaml: "name: n\ndescription: d\nflow: [{action: tap}]\nassertions: [{type: final_profile, expect: {karma: 1}}]\n",
			want: `unknown profile field "karma"`,
		},
		{
			name: "negative setup score",
			yaml: "name: n\ndescription: d\nsetup: {score: -1}\nflow: [{action: tap}]\nassertions: [{type: discoveries}]\n",
			want: "score must be non-negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScenario_Start(t *testing.T) {
	s := &Scenario{}
	start, err := s.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), start)

	s.Date = "2030-12-31"
	start, err = s.Start()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, 12, 31, 9, 0, 0, 0, time.UTC), start)
}

func TestLoadScenario_ResolvesCatalogPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.cue"), []byte("basic: []\n"), 0o644))
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"catalog: tiny.cue\n"), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tiny.cue"), s.Catalog)
}

func TestLoadScenario_MissingCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario+"catalog: nowhere.cue\n"), 0o644))

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "catalog not found")
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
