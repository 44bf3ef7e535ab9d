package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/roach88/fractalflow/internal/session"
)

func writeResult(w io.Writer, res session.Result) {
	attempt := strings.Join(res.Attempt, " ")
	if attempt == "" {
		attempt = "(tap)"
	}

	switch res.Outcome {
	case session.OutcomeIgnored:
		fmt.Fprintln(w, "Nothing to combine.")
		return
	case session.OutcomeNoMatch:
		fmt.Fprintf(w, "%s → %s nothing happens\n", attempt, session.NoMatchResponse)
	case session.OutcomeRediscovery:
		fmt.Fprintf(w, "%s → %s %s (known)\n", attempt, res.Output, res.Name)
	case session.OutcomeDiscovery:
		fmt.Fprintf(w, "%s → %s %s (+%d) NEW\n", attempt, res.Output, res.Name, res.Points)
	}

	if res.Story != "" {
		fmt.Fprintf(w, "  %s\n", res.Story)
	}
	for _, n := range res.Notifications {
		if n.Title == session.TitleDiscovery || n.Title == session.TitleRecognized || n.Title == session.TitleNoMatch {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", n.Title, n.Message)
	}
}

func writeSnapshot(w io.Writer, snap session.Snapshot) {
	p := snap.Profile
	fmt.Fprintf(w, "Level %d", snap.Level)
	if snap.Chapter != "" {
		fmt.Fprintf(w, " - %s", snap.Chapter)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  progress:    %d/%d (%d%%)\n", snap.LevelProgress.Current, snap.LevelProgress.Max, snap.LevelProgress.Percentage)
	fmt.Fprintf(w, "  score:       %d\n", p.TotalScore)
	fmt.Fprintf(w, "  discoveries: %d\n", p.TotalDiscoveries)
	fmt.Fprintf(w, "  flow streak: %d\n", p.FlowStreak)
	if len(p.DiscoveredSymbols) > 0 {
		fmt.Fprintf(w, "  discovered:  %s\n", strings.Join(p.DiscoveredSymbols, " "))
	}
	if len(snap.Attempt) > 0 {
		fmt.Fprintf(w, "  attempt:     %s\n", strings.Join(snap.Attempt, " "))
	}
	fmt.Fprintf(w, "  time:        %s\n", snap.ElapsedTime)
}

func sessionTraceID(id int64) string {
	if id == 0 {
		return ""
	}
	return "session-" + strconv.FormatInt(id, 10)
}
