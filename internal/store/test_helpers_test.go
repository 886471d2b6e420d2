package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temp dir for testing.
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

// createTestCoordinator creates a coordinator record with minimal required fields.
func createTestCoordinator(id string) CoordinatorRecord {
	return CoordinatorRecord{
		ID:            id,
		JoinName:      "pairs",
		SpecHash:      "test-hash",
		IRVersion:     "1",
		EngineVersion: "0.1.0",
	}
}
