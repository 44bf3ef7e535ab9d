package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/localstate"
)

// SettingsView is the player's local preferences.
type SettingsView struct {
	SoundEnabled bool   `json:"soundEnabled"`
	TutorialSeen bool   `json:"tutorialSeen"`
	StateFile    string `json:"stateFile"`
}

// NewSettingsCommand creates the settings command group.
func NewSettingsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change local preferences",
		Long: `Show the preferences kept in the local state file.

Example:
  fractal settings
  fractal settings sound off
  fractal settings tutorial reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettings(rootOpts, cmd, nil)
		},
	}
	cmd.AddCommand(newSoundCommand(rootOpts))
	cmd.AddCommand(newTutorialCommand(rootOpts))
	return cmd
}

func newSoundCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "sound <on|off>",
		Short:         "Ring the terminal bell on new discoveries",
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"on", "off"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			on, err := parseSwitch(args[0])
			if err != nil {
				return newFormatter(rootOpts, cmd).Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
			}
			return runSettings(rootOpts, cmd, func(ctx context.Context, local *localstate.File) error {
				return local.SetSoundEnabled(ctx, on)
			})
		},
	}
}

func newTutorialCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "tutorial reset",
		Short:         "Show the play tutorial again on next launch",
		Args:          cobra.ExactArgs(1),
		ValidArgs:     []string{"reset"},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "reset" {
				return newFormatter(rootOpts, cmd).Fail(ExitCommandError, ErrCodeInvalidInput,
					fmt.Sprintf("unknown tutorial action %q (want reset)", args[0]), nil)
			}
			return runSettings(rootOpts, cmd, func(ctx context.Context, local *localstate.File) error {
				return local.SetTutorialSeen(ctx, false)
			})
		},
	}
}

// runSettings applies change, if any, and prints the resulting settings.
// Only the state file is opened.
func runSettings(opts *RootOptions, cmd *cobra.Command, change func(context.Context, *localstate.File) error) error {
	formatter := newFormatter(opts, cmd)

	cfg, logger, err := loadConfig(opts, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
	local := localstate.Open(cfg.StateFile, localstate.WithLogger(logger))

	ctx := commandContext(cmd)
	if change != nil {
		if err := change(ctx, local); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to save settings", err)
		}
	}

	view := SettingsView{
		SoundEnabled: local.SoundEnabled(ctx),
		TutorialSeen: local.TutorialSeen(ctx),
		StateFile:    local.Path(),
	}
	return formatter.Render(view, "", func(w io.Writer) {
		fmt.Fprintf(w, "sound:     %s\n", onOff(view.SoundEnabled))
		fmt.Fprintf(w, "tutorial:  %s\n", seenLabel(view.TutorialSeen))
		if view.StateFile != "" {
			fmt.Fprintf(w, "state:     %s\n", view.StateFile)
		}
	})
}

func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid value %q: want on or off", s)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func seenLabel(seen bool) string {
	if seen {
		return "seen"
	}
	return "shown on next play"
}
