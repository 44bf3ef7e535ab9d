package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/fractalflow/internal/session"
	"github.com/roach88/fractalflow/internal/symbol"
)

// profileFields are the keys final_profile assertions may check.
var profileFields = map[string]bool{
	"level":             true,
	"total_score":       true,
	"total_discoveries": true,
	"flow_streak":       true,
	"discovered":        true,
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %v -> %s %s\n",
				event.Seq, event.Action, event.Attempt, event.Outcome, event.Output)
		}
	}
	return buf.String()
}

// assertTraceContains checks for a step with the outcome, and the output
// when one is given.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if matchEvent(event, assertion.Outcome, assertion.Output) {
			return nil
		}
	}

	want := assertion.Outcome
	if assertion.Output != "" {
		want += " of " + assertion.Output
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the outputs were first discovered in order.
// Other steps may come between them.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for _, event := range trace {
		if event.Outcome != string(session.OutcomeDiscovery) {
			continue
		}
		if _, ok := positions[event.Output]; !ok {
			positions[event.Output] = event.Seq
		}
	}

	for _, out := range assertion.Outputs {
		if positions[canonical(out)] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all outputs discovered: %v", assertion.Outputs),
				Actual:   fmt.Sprintf("missing discovery: %s", out),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Outputs); i++ {
		prev := assertion.Outputs[i-1]
		curr := assertion.Outputs[i]
		if positions[canonical(prev)] >= positions[canonical(curr)] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("outputs in order: %v", assertion.Outputs),
				Actual: fmt.Sprintf("%s (step %d) should be before %s (step %d)",
					prev, positions[canonical(prev)], curr, positions[canonical(curr)]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the outcome occurs exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if matchEvent(event, assertion.Outcome, assertion.Output) {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Outcome),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalProfile checks the persisted profile with subset semantics.
// Keys are checked in sorted order so the first failure is stable.
func assertFinalProfile(p FinalProfile, assertion Assertion) error {
	actual := map[string]interface{}{
		"level":             p.Level,
		"total_score":       p.TotalScore,
		"total_discoveries": p.TotalDiscoveries,
		"flow_streak":       p.FlowStreak,
		"discovered":        p.Discovered,
	}

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		got, ok := actual[key]
		if !ok {
			return fmt.Errorf("final_profile: unknown field %q", key)
		}
		want := assertion.Expect[key]
		if !valuesEqual(got, want) {
			return &AssertionError{
				Type:     AssertFinalProfile,
				Expected: fmt.Sprintf("%s = %v", key, want),
				Actual:   fmt.Sprintf("%s = %v", key, got),
			}
		}
	}
	return nil
}

// assertDiscoveries checks the number of persisted discovery records.
func assertDiscoveries(discoveries []string, assertion Assertion) error {
	if len(discoveries) != assertion.Count {
		return &AssertionError{
			Type:     AssertDiscoveries,
			Expected: fmt.Sprintf("%d discovery records", assertion.Count),
			Actual:   fmt.Sprintf("%d records: %v", len(discoveries), discoveries),
		}
	}
	return nil
}

func matchEvent(event TraceEvent, outcome, output string) bool {
	if event.Outcome != outcome {
		return false
	}
	return output == "" || event.Output == canonical(output)
}

// canonical normalizes a glyph written in a scenario file. Unparseable text
// is compared as written.
func canonical(glyph string) string {
	sym, err := symbol.Parse(glyph)
	if err != nil {
		return glyph
	}
	return sym.String()
}

// valuesEqual compares a profile value with a YAML-decoded expectation.
// YAML integers decode as int and lists as []interface{}.
func valuesEqual(actual, expected interface{}) bool {
	return reflect.DeepEqual(normalize(actual), normalize(expected))
}

func normalize(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int64:
		return x
	case uint64:
		return int64(x)
	case string:
		return canonical(x)
	case []string:
		out := make([]interface{}, len(x))
		for i, s := range x {
			out[i] = canonical(s)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = normalize(e)
		}
		return out
	default:
		return v
	}
}

// EvaluateAssertions evaluates all assertions against the result and
// returns a message for each failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertFinalProfile:
			err = assertFinalProfile(result.Profile, assertion)
		case AssertDiscoveries:
			err = assertDiscoveries(result.Discoveries, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// checkExpect compares a step's result with its expect clause.
func checkExpect(index int, exp *ExpectClause, res session.Result) []string {
	if exp == nil {
		return nil
	}

	var errs []string
	fail := func(field string, want, got interface{}) {
		errs = append(errs, fmt.Sprintf("flow[%d]: expected %s %v, got %v", index, field, want, got))
	}

	if string(res.Outcome) != exp.Outcome {
		fail("outcome", exp.Outcome, res.Outcome)
	}
	if exp.Output != "" && res.Output != canonical(exp.Output) {
		fail("output", exp.Output, res.Output)
	}
	if exp.Points != nil && res.Points != *exp.Points {
		fail("points", *exp.Points, res.Points)
	}
	if exp.Level != nil && res.Level != *exp.Level {
		fail("level", *exp.Level, res.Level)
	}
	if exp.LevelUp != nil && res.LevelUp != *exp.LevelUp {
		fail("level_up", *exp.LevelUp, res.LevelUp)
	}
	if exp.MysterySolved != nil && res.MysterySolved != *exp.MysterySolved {
		fail("mystery_solved", *exp.MysterySolved, res.MysterySolved)
	}
	if exp.UniverseUnlocked != nil && res.UniverseUnlocked != *exp.UniverseUnlocked {
		fail("universe_unlocked", *exp.UniverseUnlocked, res.UniverseUnlocked)
	}
	if exp.Notifications != nil {
		titles := make([]string, len(res.Notifications))
		for i, n := range res.Notifications {
			titles[i] = n.Title
		}
		if !reflect.DeepEqual(titles, exp.Notifications) {
			fail("notifications", exp.Notifications, titles)
		}
	}
	return errs
}
