package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	if err := s.verifyPragma("journal_mode", "wal"); err != nil {
		t.Error(err)
	}
	if err := s.verifyPragma("user_version", "1"); err != nil {
		t.Error(err)
	}
}

func TestOpen_SchemaIndex(t *testing.T) {
	s := createTestStore(t)

	var name string
	err := s.db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = 'idx_compilations_schema'`).Scan(&name)
	if err != nil {
		t.Fatalf("schema index missing: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on empty store = %v", err)
	}
}

func TestWriteReadCompilation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("0190a000-0000-7000-8000-000000000001", "key-1", "schema-a")
	if err := s.WriteCompilation(ctx, rec); err != nil {
		t.Fatalf("WriteCompilation() failed: %v", err)
	}

	got, ok, err := s.ReadCompilation(ctx, "key-1")
	if err != nil {
		t.Fatalf("ReadCompilation() failed: %v", err)
	}
	if !ok {
		t.Fatal("ReadCompilation() found nothing")
	}

	if got.ID != rec.ID || got.SchemaHash != "schema-a" || got.Candidate != "Person" {
		t.Errorf("record identity = %+v", got)
	}
	c := got.Compilation
	if c.DQL != rec.Compilation.DQL {
		t.Errorf("DQL = %q, want %q", c.DQL, rec.Compilation.DQL)
	}
	if c.Filter == nil || *c.Filter != "this.age>30" {
		t.Errorf("Filter = %v", c.Filter)
	}
	if c.Result != nil {
		t.Errorf("Result = %q, want nil", *c.Result)
	}
	if c.RangeFrom != nil {
		t.Errorf("RangeFrom = %d, want nil", *c.RangeFrom)
	}
	if c.RangeTo == nil || *c.RangeTo != 10 {
		t.Errorf("RangeTo = %v, want 10", c.RangeTo)
	}
	if !c.FilterComplete || !c.ResultComplete || !c.OrderComplete || !c.RangeComplete || !c.Precompilable {
		t.Errorf("flags = %+v", c)
	}
}

func TestReadCompilation_Missing(t *testing.T) {
	s := createTestStore(t)

	_, ok, err := s.ReadCompilation(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ReadCompilation() failed: %v", err)
	}
	if ok {
		t.Error("ReadCompilation() reported a record for a missing key")
	}
}

func TestWriteCompilation_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := createTestRecord("0190a000-0000-7000-8000-000000000001", "key-1", "schema-a")
	second := createTestRecord("0190a000-0000-7000-8000-000000000002", "key-1", "schema-a")
	second.Compilation.DQL = "SELECT 1"

	if err := s.WriteCompilation(ctx, first); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := s.WriteCompilation(ctx, second); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, _, err := s.ReadCompilation(ctx, "key-1")
	if err != nil {
		t.Fatalf("ReadCompilation() failed: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("ID = %s, want first record %s", got.ID, first.ID)
	}
}

func TestWriteCompilation_RejectsNotPrecompilable(t *testing.T) {
	s := createTestStore(t)

	rec := createTestRecord("0190a000-0000-7000-8000-000000000001", "key-1", "schema-a")
	rec.Compilation.Precompilable = false

	err := s.WriteCompilation(context.Background(), rec)
	if !errors.Is(err, ErrNotPrecompilable) {
		t.Fatalf("WriteCompilation() = %v, want ErrNotPrecompilable", err)
	}
}

func TestTouchCompilation(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteCompilation(ctx, createTestRecord("0190a000-0000-7000-8000-000000000001", "key-1", "schema-a")); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := s.TouchCompilation(ctx, "key-1"); err != nil {
			t.Fatal(err)
		}
	}

	got, _, err := s.ReadCompilation(ctx, "key-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Hits != 3 {
		t.Errorf("Hits = %d, want 3", got.Hits)
	}
}

func TestListAndPurge(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	records := []Record{
		createTestRecord("0190a000-0000-7000-8000-000000000001", "key-1", "schema-a"),
		createTestRecord("0190a000-0000-7000-8000-000000000002", "key-2", "schema-b"),
		createTestRecord("0190a000-0000-7000-8000-000000000003", "key-3", "schema-a"),
	}
	for _, rec := range records {
		if err := s.WriteCompilation(ctx, rec); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.ListCompilations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Key != "key-1" || all[2].Key != "key-3" {
		t.Fatalf("ListCompilations() = %+v", all)
	}

	n, err := s.PurgeOtherSchemas(ctx, "schema-a")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("purged %d, want 1", n)
	}

	all, err = s.ListCompilations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("remaining %d, want 2", len(all))
	}
}

func TestListCompilations_Empty(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ListCompilations(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("ListCompilations() = %v, want empty slice", all)
	}
}
