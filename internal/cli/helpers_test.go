package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

const minimalCatalog = `
basic: ["a"]
rules: [
	{input: ["a"], output: "b", points: 1, name: "B"},
	{input: ["a", "b"], output: "c", points: 3},
]
progression: {thresholds: [0, 2]}
mysteries: [{hint: "h", solution: ["c"], reward: "r", description: "d"}]
`

// testGame is a throwaway database and state file for one test.
type testGame struct {
	db    string
	state string
}

func newGame(t *testing.T) testGame {
	t.Helper()
	dir := t.TempDir()
	return testGame{
		db:    filepath.Join(dir, "data", "fractal.db"),
		state: filepath.Join(dir, "state.json"),
	}
}

// run executes the root command with the game's storage flags and returns
// stdout.
func (g testGame) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", g.db, "--state", g.state}, args...))
	err := cmd.Execute()
	return out.String(), err
}

// play runs the play command over input and returns stdout.
func (g testGame) play(t *testing.T, input string) string {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(input))
	cmd.SetArgs([]string{"--db", g.db, "--state", g.state, "play"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("play failed: %v", err)
	}
	return out.String()
}
