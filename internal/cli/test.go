package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios-dir>",
		Short: "Run scenario conformance tests",
		Long: `Run YAML play scenarios against a fresh in-memory game.

Each scenario seeds a profile, plays a flow of combines and taps on a
frozen clock, and checks expectations and assertions. When
golden/<name>.golden exists next to a scenario, the trace snapshot must
match it byte for byte.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  fractal test ./scenarios
  fractal test ./scenarios --filter "mystery*"
  fractal test ./scenarios --update
  fractal test ./scenarios --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, scenariosDir string, cmd *cobra.Command) error {
	if _, err := os.Stat(scenariosDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios directory not found: %s", scenariosDir))
	}

	files, err := findScenarioFiles(scenariosDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	r := &scenarioRunner{update: opts.Update}
	if opts.Format != "json" {
		r.progress = cmd.OutOrStdout()
	}
	result := TestResult{Scenarios: []ScenarioResult{}, Total: len(files)}
	for _, file := range files {
		sr := r.run(file)
		result.Scenarios = append(result.Scenarios, sr)
		if sr.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}
	return outputTestText(cmd, result)
}

// findScenarioFiles lists YAML files under dir whose base name matches
// filter, sorted by path. Golden directories are skipped.
func findScenarioFiles(dir, filter string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "golden" {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(d.Name(), ext))
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !ok {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	sort.Strings(files)
	return files, err
}

// scenarioRunner plays scenario files and compares their traces against
// golden snapshots. Progress lines go to progress when it is set.
type scenarioRunner struct {
	update   bool
	progress io.Writer
}

func (r *scenarioRunner) run(file string) ScenarioResult {
	res := ScenarioResult{Name: filepath.Base(file)}
	var note string
	res.Errors, note = r.check(file, &res.Name)
	res.Pass = len(res.Errors) == 0
	r.report(res, note)
	return res
}

// check returns the scenario's failures and a note for the progress line.
// It replaces *name with the scenario's declared name once the file parses.
func (r *scenarioRunner) check(file string, name *string) ([]string, string) {
	scenario, err := harness.LoadScenario(file)
	if err != nil {
		return []string{fmt.Sprintf("failed to load scenario: %v", err)}, ""
	}
	*name = scenario.Name

	result, err := harness.Run(scenario)
	if err != nil {
		return []string{fmt.Sprintf("execution failed: %v", err)}, ""
	}
	current, err := harness.MarshalSnapshot(harness.NewSnapshot(scenario.Name, result))
	if err != nil {
		return []string{fmt.Sprintf("failed to marshal trace: %v", err)}, ""
	}

	goldenPath := goldenFilePath(file)
	if r.update {
		if err := updateGoldenFile(goldenPath, current); err != nil {
			return []string{fmt.Sprintf("failed to update golden file: %v", err)}, ""
		}
		return result.Errors, " (golden updated)"
	}

	golden, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// assertions only
	case err != nil:
		return []string{fmt.Sprintf("golden comparison failed: %v", err)}, ""
	case !bytes.Equal(golden, current):
		return []string{"trace does not match golden file (run with --update to regenerate)"}, ""
	}
	return result.Errors, ""
}

func (r *scenarioRunner) report(res ScenarioResult, note string) {
	if r.progress == nil {
		return
	}
	if res.Pass {
		fmt.Fprintf(r.progress, "✓ %s%s\n", res.Name, note)
		return
	}
	fmt.Fprintf(r.progress, "✗ %s\n", res.Name)
	for _, e := range res.Errors {
		fmt.Fprintf(r.progress, "  %s\n", e)
	}
}

// goldenFilePath maps dir/name.yaml to dir/golden/name.golden.
func goldenFilePath(scenarioFile string) string {
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(scenarioFile), "golden", name+".golden")
}

func updateGoldenFile(goldenPath string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0o755); err != nil {
		return fmt.Errorf("create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, data, 0o644); err != nil {
		return fmt.Errorf("write golden file: %w", err)
	}
	return nil
}

func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
	if result.Failed == 0 {
		return formatter.Render(result, "", nil)
	}
	msg := fmt.Sprintf("%d scenario(s) failed", result.Failed)
	if err := formatter.encode(CLIResponse{
		Status: "error",
		Data:   result,
		Error:  &CLIError{Code: ErrCodeTestFailed, Message: msg},
	}); err != nil {
		return err
	}
	return NewExitError(ExitFailure, msg)
}

func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()
	if result.Total == 0 {
		fmt.Fprintln(w, "No scenarios found.")
		return nil
	}

	fmt.Fprintf(w, "\nTest Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
