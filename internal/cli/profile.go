package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/progress"
	"github.com/roach88/fractalflow/internal/store"
)

// ProfileView is a profile with its derived progression.
type ProfileView struct {
	store.Profile
	DerivedLevel  int                    `json:"derivedLevel"`
	LevelProgress progress.LevelProgress `json:"levelProgress"`
	Chapter       string                 `json:"chapter"`
	SoundEnabled  bool                   `json:"soundEnabled"`
}

// DiscoveriesOptions holds flags for the discoveries command.
type DiscoveriesOptions struct {
	*RootOptions
	Limit int
}

// NewProfileCommand creates the profile command.
func NewProfileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "profile",
		Short:         "Show the player's profile",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfile(rootOpts, cmd)
		},
	}
}

func runProfile(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
	defer a.Close()

	engines, err := a.engines()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeCatalog, "failed to compile catalog", err)
	}
	p, err := a.repo.GetProfile(commandContext(cmd), a.cfg.ProfileID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to load profile", err)
	}

	level := engines.Progress.Level(p.TotalDiscoveries)
	view := ProfileView{
		Profile:       p,
		DerivedLevel:  level,
		LevelProgress: engines.Progress.LevelProgress(p.TotalDiscoveries),
		Chapter:       engines.Progress.Chapter(level),
		SoundEnabled:  a.local.SoundEnabled(commandContext(cmd)),
	}
	return formatter.Render(view, "", func(w io.Writer) {
		writeProfile(w, view)
	})
}

func writeProfile(w io.Writer, v ProfileView) {
	fmt.Fprintf(w, "Profile %d\n", v.ID)
	fmt.Fprintf(w, "  level:       %d", v.DerivedLevel)
	if v.Chapter != "" {
		fmt.Fprintf(w, " (%s)", v.Chapter)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  progress:    %d/%d (%d%%)\n", v.LevelProgress.Current, v.LevelProgress.Max, v.LevelProgress.Percentage)
	fmt.Fprintf(w, "  score:       %d\n", v.TotalScore)
	fmt.Fprintf(w, "  discoveries: %d\n", v.TotalDiscoveries)
	fmt.Fprintf(w, "  flow streak: %d\n", v.FlowStreak)
	if len(v.DiscoveredSymbols) > 0 {
		fmt.Fprintf(w, "  discovered:  %s\n", strings.Join(v.DiscoveredSymbols, " "))
	}
	fmt.Fprintf(w, "  sound:       %s\n", onOff(v.SoundEnabled))
	fmt.Fprintf(w, "  since:       %s\n", v.CreatedAt.Format(time.DateOnly))
}

// NewDiscoveriesCommand creates the discoveries command.
func NewDiscoveriesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoveriesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "discoveries",
		Short:         "List recent discoveries, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscoveries(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "maximum number of discoveries (0 for all)")

	return cmd
}

func runDiscoveries(opts *DiscoveriesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if opts.Limit < 0 {
		return formatter.Fail(ExitCommandError, ErrCodeInvalidInput, "limit must be >= 0", nil)
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
	defer a.Close()

	list, err := a.repo.ListDiscoveries(commandContext(cmd), a.cfg.ProfileID, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to list discoveries", err)
	}

	return formatter.Render(list, "", func(w io.Writer) {
		if len(list) == 0 {
			fmt.Fprintln(w, "No discoveries yet.")
			return
		}
		for _, d := range list {
			combo := strings.Join(d.Combination, " ")
			if combo == "" {
				combo = "(tap)"
			}
			fmt.Fprintf(w, "%s  %s ← %s  +%d\n", d.DiscoveredAt.Format(time.DateTime), d.SymbolResult, combo, d.Points)
		}
	})
}
