// Package session drives a single player's game: the queued attempt, the
// combine action and everything a first discovery triggers.
//
// State machine:
//
//	Idle ──AddSymbol──▶ Queued ──Combine──▶ Resolving ──▶ Idle
//
// A combine resolves the attempt, updates the in-memory profile and then
// persists discoveries, the profile patch, local history and mystery
// progress. Persistence failures are logged and counted; in-memory state is
// never rolled back.
//
// Thread-safety model:
//   - All methods are safe from any goroutine
//   - The controller mutex is released while the store is called
//   - Combine while another combine is in flight returns OutcomeIgnored
package session
