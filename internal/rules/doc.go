// Package rules holds the combination rule table and the resolver that
// matches a player's attempt against it.
//
// Resolution is a pure function of (attempt, discovered, table). Rules are
// scanned in declaration order, so when two rules could answer the same
// attempt the one declared first wins. The table is copied on construction
// and never mutated afterwards; the only "new" rules are the fusion
// pseudo-rules the resolver synthesizes on the fly, and those are never
// written back into the table.
//
// Matching order:
//
//  1. empty attempt: the first rule with an empty input
//  2. exact ordered match
//  3. reversed match, two-symbol attempts only
//  4. fusion of two discovered symbols, when enabled
//  5. no match
package rules
