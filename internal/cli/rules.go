package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/catalog"
	"github.com/roach88/fractalflow/internal/symbol"
)

// RuleView is one rule as listed by "rules list".
type RuleView struct {
	Input  []string `json:"input"`
	Output string   `json:"output"`
	Points int      `json:"points"`
	Name   string   `json:"name"`
}

// CatalogIssue is a catalog problem with its source line, when known.
type CatalogIssue struct {
	catalog.ValidationError
	Line int `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Rules  int            `json:"rules,omitempty"`
	Errors []CatalogIssue `json:"errors,omitempty"`
}

// NewRulesCommand creates the rules command group.
func NewRulesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect and validate the rule catalog",
	}
	cmd.AddCommand(newRulesListCommand(rootOpts))
	cmd.AddCommand(newRulesValidateCommand(rootOpts))
	return cmd
}

func newRulesListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List every combination rule",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesList(rootOpts, cmd)
		},
	}
}

func runRulesList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to load catalog", err)
	}
	registry := cat.Registry()

	views := make([]RuleView, 0, len(cat.Rules))
	for _, r := range cat.Rules {
		name := r.Name
		if name == "" {
			name = registry.Name(r.Output)
		}
		input := symbol.Strings(r.Input)
		if input == nil {
			input = []string{}
		}
		views = append(views, RuleView{Input: input, Output: r.Output.String(), Points: r.Points, Name: name})
	}

	return formatter.Render(views, "", func(w io.Writer) {
		for _, v := range views {
			in := symbol.Join(symbol.List(v.Input), " ")
			if in == "" {
				in = "(tap)"
			}
			fmt.Fprintf(w, "%-12s → %s  %-24s %3d\n", in, v.Output, v.Name, v.Points)
		}
		fmt.Fprintf(w, "%d rules\n", len(views))
	})
}

func newRulesValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [catalog.cue]",
		Short: "Validate a catalog without playing",
		Long: `Compile a CUE catalog and run the semantic checks: basic symbols,
rule shapes, reserved runes, progression thresholds, mystery solvability
and achievement reachability.

Without an argument the embedded cosmology (or --catalog) is checked.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Catalog
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	if path == "" {
		cat, err := catalog.Default()
		if err != nil {
			return outputValidateError(formatter, ErrCodeCatalog, err.Error())
		}
		return outputValidateSuccess(formatter, len(cat.Rules))
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return outputValidateError(formatter, ErrCodeNotFound, fmt.Sprintf("catalog not found: %s", path))
	}
	formatter.VerboseLog("Validating %s (%d bytes)", path, len(src))

	v := cuecontext.New().CompileBytes(src, cue.Filename(path))
	cat, err := catalog.Compile(v)
	if err != nil {
		var ce *catalog.CompileError
		if errors.As(err, &ce) {
			issue := CatalogIssue{ValidationError: catalog.ValidationError{
				Field: ce.Field, Message: ce.Message, Code: ErrCodeCatalog,
			}}
			if ce.Pos.IsValid() {
				issue.Line = ce.Pos.Line()
			}
			return outputValidationErrors(formatter, []CatalogIssue{issue})
		}
		return outputValidateError(formatter, ErrCodeCatalog, err.Error())
	}

	if verrs := catalog.Validate(cat); len(verrs) > 0 {
		issues := make([]CatalogIssue, len(verrs))
		for i, ve := range verrs {
			issues[i] = CatalogIssue{ValidationError: ve}
		}
		return outputValidationErrors(formatter, issues)
	}

	return outputValidateSuccess(formatter, len(cat.Rules))
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, rules int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Rules: rules})
	}

	fmt.Fprintf(formatter.Writer, "✓ Catalog valid (%d rules)\n", rules)
	return nil
}

// outputValidateError outputs a single command-level error (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs catalog problems (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []CatalogIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
