package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new SQLite store in a temp directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestProfile ensures profile id exists.
func createTestProfile(t *testing.T, r Repository, id int64) Profile {
	t.Helper()
	p, err := r.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProfile(%d) failed: %v", id, err)
	}
	return p
}
