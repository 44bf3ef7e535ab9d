package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/fractalflow/internal/mystery"
	"github.com/roach88/fractalflow/internal/symbol"
)

// DefaultDate is the wall-clock date of scenarios that do not set one.
const DefaultDate = "2024-05-01"

// Scenario is a scripted play-through.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is a CUE catalog path, relative to the scenario file. Empty
	// uses the embedded catalog.
	Catalog string `yaml:"catalog,omitempty"`

	// Date fixes the wall clock (YYYY-MM-DD, 09:00 UTC).
	Date string `yaml:"date,omitempty"`

	// Fusion enables dynamic fusion of unmatched pairs.
	Fusion bool `yaml:"fusion,omitempty"`

	Setup      *Setup      `yaml:"setup,omitempty"`
	Flow       []FlowStep  `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// Setup seeds the profile before the session starts.
type Setup struct {
	Discovered []string `yaml:"discovered,omitempty"`
	Score      int      `yaml:"score,omitempty"`
}

// FlowStep is one player action.
type FlowStep struct {
	Action  string        `yaml:"action"`
	Symbols []string      `yaml:"symbols,omitempty"`
	Expect  *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause checks the result of a combine or tap. Unset fields are not
// checked.
type ExpectClause struct {
	Outcome          string   `yaml:"outcome"`
	Output           string   `yaml:"output,omitempty"`
	Points           *int     `yaml:"points,omitempty"`
	Level            *int     `yaml:"level,omitempty"`
	LevelUp          *bool    `yaml:"level_up,omitempty"`
	MysterySolved    *bool    `yaml:"mystery_solved,omitempty"`
	UniverseUnlocked *bool    `yaml:"universe_unlocked,omitempty"`
	Notifications    []string `yaml:"notifications,omitempty"`
}

// Assertion validates the trace or the persisted state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Outcome and Output select steps (trace_contains, trace_count).
	Outcome string `yaml:"outcome,omitempty"`
	Output  string `yaml:"output,omitempty"`

	// Outputs is the expected discovery order (trace_order).
	Outputs []string `yaml:"outputs,omitempty"`

	// Count is the expected number of matches (trace_count, discoveries).
	Count int `yaml:"count,omitempty"`

	// Expect holds profile fields (final_profile). Subset match.
	Expect map[string]interface{} `yaml:"expect,omitempty"`
}

// Flow actions.
const (
	ActionCombine = "combine"
	ActionTap     = "tap"
	ActionClear   = "clear"
	ActionReset   = "reset"
	ActionNextDay = "next_day"
)

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalProfile  = "final_profile"
	AssertDiscoveries   = "discoveries"
)

// Start returns the scenario's wall clock start.
func (s *Scenario) Start() (time.Time, error) {
	date := s.Date
	if date == "" {
		date = DefaultDate
	}
	day, err := time.Parse(mystery.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return day.Add(9 * time.Hour), nil
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected. A relative catalog path is resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	if s.Catalog != "" && !filepath.IsAbs(s.Catalog) {
		s.Catalog = filepath.Join(filepath.Dir(path), s.Catalog)
	}
	if s.Catalog != "" {
		if _, err := os.Stat(s.Catalog); err != nil {
			return nil, fmt.Errorf("invalid scenario: catalog not found: %s", s.Catalog)
		}
	}
	return s, nil
}

// ParseScenario decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if _, err := s.Start(); err != nil {
		return err
	}

	if s.Setup != nil {
		if s.Setup.Score < 0 {
			return fmt.Errorf("setup: score must be non-negative")
		}
		for i, g := range s.Setup.Discovered {
			if _, err := symbol.Parse(g); err != nil {
				return fmt.Errorf("setup.discovered[%d]: %w", i, err)
			}
		}
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step *FlowStep) error {
	switch step.Action {
	case ActionCombine:
		if len(step.Symbols) == 0 {
			return fmt.Errorf("flow[%d]: symbols are required for combine", index)
		}
	case ActionClear:
	case ActionTap, ActionReset, ActionNextDay:
		if len(step.Symbols) > 0 {
			return fmt.Errorf("flow[%d]: %s takes no symbols", index, step.Action)
		}
	case "":
		return fmt.Errorf("flow[%d]: action is required", index)
	default:
		return fmt.Errorf("flow[%d]: unknown action %q", index, step.Action)
	}

	for j, g := range step.Symbols {
		if _, err := symbol.Parse(g); err != nil {
			return fmt.Errorf("flow[%d].symbols[%d]: %w", index, j, err)
		}
	}

	if step.Expect != nil {
		if step.Action != ActionCombine && step.Action != ActionTap {
			return fmt.Errorf("flow[%d].expect: only combine and tap have results", index)
		}
		if step.Expect.Outcome == "" {
			return fmt.Errorf("flow[%d].expect: outcome is required", index)
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Outputs) == 0 {
			return fmt.Errorf("assertions[%d]: outputs list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Outcome == "" {
			return fmt.Errorf("assertions[%d]: outcome is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalProfile:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_profile", index)
		}
		for key := range a.Expect {
			if !profileFields[key] {
				return fmt.Errorf("assertions[%d]: unknown profile field %q", index, key)
			}
		}
	case AssertDiscoveries:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for discoveries", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
