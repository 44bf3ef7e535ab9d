package harness

// TraceEvent is one executed flow step.
type TraceEvent struct {
	Seq           int      `json:"seq"`
	Action        string   `json:"action"`
	Attempt       []string `json:"attempt"`
	Outcome       string   `json:"outcome,omitempty"`
	Output        string   `json:"output,omitempty"`
	Points        int      `json:"points"`
	Level         int      `json:"level"`
	Notifications []string `json:"notifications"`
}

// FinalProfile is the persisted profile after the flow.
type FinalProfile struct {
	Level            int      `json:"level"`
	TotalScore       int      `json:"total_score"`
	TotalDiscoveries int      `json:"total_discoveries"`
	FlowStreak       int      `json:"flow_streak"`
	Discovered       []string `json:"discovered"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	Profile FinalProfile `json:"profile"`

	// Discoveries are the persisted discovery symbols, newest first.
	Discoveries []string `json:"discoveries"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:        true,
		Trace:       []TraceEvent{},
		Errors:      []string{},
		Discoveries: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEvent appends ev to the trace.
func (r *Result) AddEvent(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
