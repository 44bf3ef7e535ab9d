// Package store persists player profiles, discovery records and play
// sessions.
//
// Two implementations satisfy Repository:
//
//   - MemStore: process-local maps, the default when no database is configured
//   - Store: SQLite via mattn/go-sqlite3, a single-player best-effort file
//
// # Records
//
//   - Profiles: created on first read, patched after every first discovery
//   - Discoveries: append-only, one per first-time output
//   - Sessions: opened at game start, patched once when the game ends
//
// # Ordering
//
// List queries return newest first: ORDER BY time DESC, id DESC. The id
// tie-break keeps results deterministic when two records share a timestamp.
//
// # SQLite
//
// Open runs the pragmas in store.go (WAL journal, NORMAL sync, a five second
// busy timeout, foreign keys), applies schema.sql and upgrades older files
// by PRAGMA user_version. The pool holds a single connection.
package store
