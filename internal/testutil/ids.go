package testutil

import (
	"fmt"
	"sync"
)

// SequenceIDs generates prefix-1, prefix-2, ... for notification ids.
//
// Two generators with the same prefix produce identical sequences, which
// keeps golden traces byte-identical between runs.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceIDs creates a generator. An empty prefix uses "n".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "n"
	}
	return &SequenceIDs{prefix: prefix}
}

// Generate returns the next id.
func (g *SequenceIDs) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}

// Count returns how many ids have been generated.
func (g *SequenceIDs) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n
}
