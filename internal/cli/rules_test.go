package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fractalflow/internal/catalog"
)

func runRules(t *testing.T, opts *RootOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRulesCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func writeCatalog(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRulesList(t *testing.T) {
	out, err := runRules(t, &RootOptions{Format: "text"}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(tap)")
	assert.Contains(t, out, "→ 👁️")
	assert.Contains(t, out, "Observer")
}

func TestRulesList_JSON(t *testing.T) {
	def, err := catalog.Default()
	require.NoError(t, err)

	out, err := runRules(t, &RootOptions{Format: "json"}, "list")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   []RuleView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, len(def.Rules))
	assert.Equal(t, RuleView{Input: []string{}, Output: "·", Points: 5, Name: "Point"}, resp.Data[0])
}

func TestRulesList_CustomCatalog(t *testing.T) {
	path := writeCatalog(t, minimalCatalog)

	out, err := runRules(t, &RootOptions{Format: "text", Catalog: path}, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "2 rules")
}

func TestValidate_Embedded(t *testing.T) {
	out, err := runRules(t, &RootOptions{Format: "text"}, "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Catalog valid")
}

func TestValidate_File(t *testing.T) {
	path := writeCatalog(t, minimalCatalog)

	out, err := runRules(t, &RootOptions{Format: "json"}, "validate", path)
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"valid": true, "rules": float64(2)}, resp.Data)
}

func TestValidate_SemanticErrors(t *testing.T) {
	path := writeCatalog(t, `
basic: ["a"]
rules: [
	{input: ["a"], output: "x|y", points: 1},
	{input: ["a"], output: "z", points: -1},
]
progression: {thresholds: [0, 2]}
mysteries: [{hint: "h", solution: ["q"], reward: "r"}]
`)

	out, err := runRules(t, &RootOptions{Format: "text"}, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, catalog.ErrReservedRune)
	assert.Contains(t, out, catalog.ErrNegativePoints)
	assert.Contains(t, out, catalog.ErrInvalidMystery)
}

func TestValidate_SyntaxErrorHasLine(t *testing.T) {
	path := writeCatalog(t, "basic: [\"a\"\nrules: {")

	out, err := runRules(t, &RootOptions{Format: "json"}, "validate", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.Len(t, resp.Data.Errors, 1)
	assert.Greater(t, resp.Data.Errors[0].Line, 0)
	assert.Equal(t, "cue", resp.Data.Errors[0].Field)
}

func TestValidate_MissingFile(t *testing.T) {
	out, err := runRules(t, &RootOptions{Format: "text"}, "validate", "/nonexistent/catalog.cue")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "not found")
}
