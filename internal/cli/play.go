package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/symbol"
)

const playHelp = `Enter symbols separated by spaces to combine them.
Commands:
  add <symbol>.. queue symbols without combining
  combine [sym]. resolve the queued attempt
  tap            resolve the empty attempt
  hint           ask for a hint about the queued attempt
  clear          empty the attempt
  available      list the symbols you can use
  status         show level, score and discoveries
  mystery        show today's mystery
  reset          erase all progress
  help           show this help
  quit           end the session`

const bell = "\a"

// NewPlayCommand creates the interactive play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively",
		Long: `Start an interactive session. Each line of input is either a command
or a list of symbols to combine. The session is closed, with its duration
and score, when input ends or on "quit". The command list is shown on the
first launch; "fractal settings tutorial reset" shows it again.

` + playHelp,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(rootOpts, cmd)
		},
	}
}

func runPlay(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
	defer a.Close()

	ctrl, engines, err := a.build()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, "failed to assemble game", err)
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if err := ctrl.Start(ctx); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStorage, "failed to start session", err)
	}
	go ctrl.Run(ctx)

	p := &player{
		ctrl:      ctrl,
		mysteries: engines.Mysteries,
		out:       cmd.OutOrStdout(),
		sound:     a.local.SoundEnabled(ctx),
	}
	fmt.Fprintln(p.out, "Fractal Flow. Type \"help\" for commands.")
	if !a.local.TutorialSeen(ctx) {
		fmt.Fprintln(p.out, playHelp)
		if err := a.local.SetTutorialSeen(ctx, true); err != nil {
			a.logger.Warn("tutorial flag not saved", "error", err)
		}
	}
	writeSnapshot(p.out, ctrl.Snapshot())

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(p.out, "> ")
		if !scanner.Scan() {
			break
		}
		if !p.handle(ctx, scanner.Text()) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		a.logger.Warn("reading input failed", "error", err)
	}

	if err := ctrl.End(ctx); err != nil {
		a.logger.Warn("session not closed", "error", err)
	}
	snap := ctrl.Snapshot()
	fmt.Fprintf(p.out, "\nSession over after %s. Score %d, %d discoveries.\n",
		snap.ElapsedTime, snap.Profile.TotalScore, snap.Profile.TotalDiscoveries)
	return nil
}

// player interprets lines of interactive input. With sound on, new
// discoveries ring the terminal bell.
type player struct {
	ctrl      *session.Controller
	mysteries *mystery.Engine
	out       io.Writer
	sound     bool
}

func (p *player) show(res session.Result) {
	if p.sound && res.Outcome == session.OutcomeDiscovery {
		fmt.Fprint(p.out, bell)
	}
	writeResult(p.out, res)
}

// handle processes one line and reports whether play continues.
func (p *player) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return false
	case "help", "?":
		fmt.Fprintln(p.out, playHelp)
	case "add":
		if err := queue(p.ctrl, fields[1:]); err != nil {
			fmt.Fprintln(p.out, err)
			return true
		}
		fmt.Fprintln(p.out, symbol.Join(p.ctrl.Attempt(), " "))
	case "combine":
		if err := queue(p.ctrl, fields[1:]); err != nil {
			fmt.Fprintln(p.out, err)
			return true
		}
		p.show(p.ctrl.Combine(ctx))
	case "tap":
		p.show(p.ctrl.Tap(ctx))
	case "clear":
		p.ctrl.Clear()
	case "hint":
		if hint := p.ctrl.Hint(); hint != "" {
			fmt.Fprintln(p.out, hint)
		}
	case "available":
		fmt.Fprintln(p.out, symbol.Join(p.ctrl.Available(), " "))
	case "status":
		writeSnapshot(p.out, p.ctrl.Snapshot())
	case "mystery":
		writeMystery(ctx, p.out, p.mysteries, symbol.NewSet(p.ctrl.Discovered()...))
	case "reset":
		if err := p.ctrl.Reset(ctx); err != nil {
			fmt.Fprintf(p.out, "reset incomplete: %v\n", err)
			return true
		}
		fmt.Fprintln(p.out, "Progress erased.")
	default:
		if err := queue(p.ctrl, fields); err != nil {
			fmt.Fprintln(p.out, err)
			return true
		}
		p.show(p.ctrl.Combine(ctx))
	}
	return true
}
