package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	*RootOptions
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all progress",
		Long: `Reset the profile to level 1 with no discoveries and clear the local
state file (combination history, mystery streak, preferences).

Discovery and session records are kept.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReset(opts, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm the reset")

	return cmd
}

func runReset(opts *ResetOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if !opts.Yes {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "reset erases all progress; pass --yes to confirm", nil)
	}

	a, err := openApp(opts.RootOptions, cmd)
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
	resetErr := ctrl.Reset(ctx)
	if err := ctrl.End(ctx); err != nil {
		a.logger.Warn("session not closed", "error", err)
	}
	if resetErr != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "reset incomplete", resetErr)
	}

	snap := ctrl.Snapshot()
	return formatter.Render(snap.Profile, sessionTraceID(snap.SessionID), func(w io.Writer) {
		fmt.Fprintf(w, "Profile %d reset.\n", snap.Profile.ID)
	})
}
