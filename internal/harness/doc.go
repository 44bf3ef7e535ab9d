// Package harness runs scripted play-throughs of Fractal Flow.
//
// A scenario drives a real session controller, assembled from a catalog with
// an in-memory repository, memory-only local state, a frozen wall clock and
// sequential notification ids. Every step is recorded in a trace that can be
// asserted on and compared against a golden file.
//
// # Scenario Format
//
//	name: empty_points
//	description: "Tap the void and build the triangle"
//	date: "2024-05-01"
//	fusion: false
//	setup:
//	  discovered: ["·"]
//	flow:
//	  - action: combine
//	    symbols: ["·", "·"]
//	    expect:
//	      outcome: discovery
//	      output: "∶"
//	      points: 20
//	  - action: next_day
//	assertions:
//	  - type: trace_contains
//	    outcome: discovery
//	    output: "∶"
//	  - type: final_profile
//	    expect: { total_score: 20, discovered: ["·", "∶"] }
//
// # Actions
//
//   - combine: queue symbols, then resolve the attempt
//   - tap: resolve the empty attempt
//   - clear: queue symbols, then clear the attempt
//   - reset: reset the profile and local state
//   - next_day: move the wall clock forward one day
//
// # Assertion Types
//
//   - trace_contains: a resolved step with the outcome (and output) exists
//   - trace_order: discovery outputs appear in the given order
//   - trace_count: the outcome occurs exactly N times
//   - final_profile: the persisted profile matches the expected fields
//   - discoveries: the repository holds exactly N discovery records
//
// # Determinism
//
// The clock only moves on next_day and flavor text is seeded, so the same
// scenario always produces a byte-identical trace.
package harness
