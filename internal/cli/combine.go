package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/symbol"
)

// NewCombineCommand creates the combine command.
func NewCombineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "combine <symbol>...",
		Short: "Combine symbols once",
		Long: `Queue the given symbols and resolve them as a single attempt.

Each argument is one symbol. Only basic and discovered symbols can be
used. Fused symbols are written in canonical form, e.g. "⟨·|∶⟩".

Example:
  fractal combine ⚫
  fractal combine ⚫ 👁️`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, args, false)
		},
	}
}

// NewTapCommand creates the tap command.
func NewTapCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tap",
		Short: "Resolve the empty attempt",
		Long: `Tap the empty canvas. With the default cosmology this brings forth
a single point.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(rootOpts, cmd, nil, true)
		},
	}
}

// runOnce starts a session, resolves one attempt and closes the session.
func runOnce(opts *RootOptions, cmd *cobra.Command, args []string, tap bool) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
	defer a.Close()

	ctrl, _, err := a.build()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to assemble game", err)
	}

	ctx := commandContext(cmd)
	if err := ctrl.Start(ctx); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to start session", err)
	}
	defer func() {
		if err := ctrl.End(ctx); err != nil {
			a.logger.Warn("session not closed", "error", err)
		}
	}()

	var res session.Result
	if tap {
		res = ctrl.Tap(ctx)
	} else {
		if err := queue(ctrl, args); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
		}
		res = ctrl.Combine(ctx)
	}

	formatter.VerboseLog("outcome=%s kind=%s", res.Outcome, res.Kind)
	return formatter.Render(res, sessionTraceID(ctrl.Snapshot().SessionID), func(w io.Writer) {
		writeResult(w, res)
	})
}

// queue parses glyphs and adds them to the attempt. Every glyph must be
// available to the player.
func queue(ctrl *session.Controller, glyphs []string) error {
	available := symbol.NewSet(ctrl.Available()...)
	syms := make([]symbol.Symbol, 0, len(glyphs))
	for _, g := range glyphs {
		sym, err := symbol.Parse(g)
		if err != nil {
			return fmt.Errorf("invalid symbol %q: %w", g, err)
		}
		if !available.Has(sym) {
			return fmt.Errorf("symbol %s is not available yet", sym)
		}
		syms = append(syms, sym)
	}
	for _, sym := range syms {
		ctrl.AddSymbol(sym)
	}
	return nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
