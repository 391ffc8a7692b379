package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/dqlmap/internal/querydql"
)

// createTestStore opens a fresh store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func strPtr(s string) *string { return &s }
func intPtr(n int64) *int64   { return &n }

// createTestRecord creates a precompilable record with a filter and order.
func createTestRecord(id, key, schemaHash string) Record {
	return Record{
		ID:         id,
		Key:        key,
		SchemaHash: schemaHash,
		Candidate:  "Person",
		Compilation: querydql.Compilation{
			Filter:         strPtr("this.age>30"),
			Order:          strPtr("this.last_name"),
			RangeTo:        intPtr(10),
			FilterComplete: true,
			ResultComplete: true,
			OrderComplete:  true,
			RangeComplete:  true,
			Precompilable:  true,
			DQL:            "SELECT this.r_object_id FROM dm_person this WHERE this.age>30 ORDER BY this.last_name ENABLE (RETURN_TOP 10)",
		},
		CompilerVersion: "0.1.0",
		IRVersion:       "1",
	}
}
