package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/symbol"
)

// MysteryView is today's mystery with the player's standing.
type MysteryView struct {
	Date          string           `json:"date"`
	Hint          string           `json:"hint"`
	Reward        string           `json:"reward"`
	Description   string           `json:"description"`
	Solved        bool             `json:"solved"`
	Progress      mystery.Progress `json:"progress"`
	TimeUntilNext string           `json:"timeUntilNext"`
}

// NewMysteryCommand creates the mystery command.
func NewMysteryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mystery",
		Short: "Show today's mystery",
		Long: `Show the daily mystery, whether it is solved and the completion streak.
The mystery changes at midnight UTC.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMystery(rootOpts, cmd)
		},
	}
}

func runMystery(opts *RootOptions, cmd *cobra.Command) error {
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
	ctx := commandContext(cmd)
	p, err := a.repo.GetProfile(ctx, a.cfg.ProfileID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to load profile", err)
	}

	view := mysteryView(ctx, engines.Mysteries, symbol.SetOf(p.DiscoveredSymbols), time.Now())
	return formatter.Render(view, "", func(w io.Writer) {
		writeMysteryView(w, view)
	})
}

func mysteryView(ctx context.Context, m *mystery.Engine, discovered *symbol.Set, now time.Time) MysteryView {
	daily := m.Daily(now)
	return MysteryView{
		Date:          daily.Date,
		Hint:          daily.Hint,
		Reward:        daily.Reward.String(),
		Description:   daily.Description,
		Solved:        m.IsSolved(now, discovered),
		Progress:      m.Progress(ctx, now),
		TimeUntilNext: mystery.TimeUntilNext(now),
	}
}

func writeMystery(ctx context.Context, w io.Writer, m *mystery.Engine, discovered *symbol.Set) {
	writeMysteryView(w, mysteryView(ctx, m, discovered, time.Now()))
}

func writeMysteryView(w io.Writer, v MysteryView) {
	fmt.Fprintf(w, "Mystery of %s: %s\n", v.Date, v.Hint)
	if v.Solved {
		fmt.Fprintf(w, "  solved, reward %s: %s\n", v.Reward, v.Description)
	} else {
		fmt.Fprintln(w, "  unsolved")
	}
	if v.Progress.Streak > 0 {
		fmt.Fprintf(w, "  streak: %d day(s)\n", v.Progress.Streak)
	}
	fmt.Fprintf(w, "  next mystery in %s\n", v.TimeUntilNext)
}
