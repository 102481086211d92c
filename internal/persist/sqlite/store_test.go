package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"rostercore/internal/persist"
	"rostercore/internal/store"
	"rostercore/pkg/domain"
)

func TestNewValidatesArguments(t *testing.T) {
	if _, err := New(nil, "roster.db"); err == nil {
		t.Fatalf("expected nil store to be rejected")
	}
	if _, err := New(store.New(), ""); err == nil {
		t.Fatalf("expected empty path to be rejected")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "roster.db")

	src := store.New()
	alice := domain.NewRecord("Alice", 30)
	bob := domain.NewRecord("Bob", 41)
	if err := src.Add(alice, bob); err != nil {
		t.Fatalf("add: %v", err)
	}

	backend, err := New(src, path)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer backend.Close()
	if backend.Driver() != persist.DriverSQLite {
		t.Fatalf("unexpected driver %q", backend.Driver())
	}
	if err := backend.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}

	dst := store.New()
	loader, err := New(dst, path)
	if err != nil {
		t.Fatalf("open loader: %v", err)
	}
	defer loader.Close()
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	if dst.Len() != 2 {
		t.Fatalf("expected 2 records after load, got %d", dst.Len())
	}
	for _, want := range []*domain.Record{alice, bob} {
		got, ok := dst.GetByID(want.ID)
		if !ok {
			t.Fatalf("record %s missing after round trip", want.ID)
		}
		if got.Name != want.Name || got.Age != want.Age || !got.CreatedAt.Equal(want.CreatedAt) {
			t.Fatalf("record %s mutated in round trip", want.ID)
		}
	}
}

func TestSaveRewritesPriorSnapshot(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	st := store.New()
	first := domain.NewRecord("first", 1)
	if err := st.Add(first); err != nil {
		t.Fatalf("add: %v", err)
	}
	backend, err := New(st, path)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer backend.Close()
	if err := backend.Save(ctx); err != nil {
		t.Fatalf("first save: %v", err)
	}

	st.RemoveByID(first.ID)
	second := domain.NewRecord("second", 2)
	if err := st.Add(second); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := backend.Save(ctx); err != nil {
		t.Fatalf("second save: %v", err)
	}

	dst := store.New()
	loader, err := New(dst, path)
	if err != nil {
		t.Fatalf("open loader: %v", err)
	}
	defer loader.Close()
	if err := loader.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if dst.Len() != 1 {
		t.Fatalf("expected prior snapshot to be rewritten, got %d records", dst.Len())
	}
	if _, ok := dst.GetByID(first.ID); ok {
		t.Fatalf("expected first record to be gone after rewrite")
	}
}

func TestLoadEmptyDatabaseClearsStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "roster.db")

	st := store.New()
	if err := st.Add(domain.NewRecord("stale", 9)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	backend, err := New(st, path)
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer backend.Close()
	if err := backend.Load(ctx); err != nil {
		t.Fatalf("load empty database: %v", err)
	}
	if st.Len() != 0 {
		t.Fatalf("expected empty store after loading empty database, got %d", st.Len())
	}
}
