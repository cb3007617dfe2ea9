package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSQLiteStorage(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "test_lembretes.db")

	storage, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	defer storage.Close()

	runBackendTests(t, storage)
}

func TestSQLiteStorage_KeepsOrderAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbFile := filepath.Join(t.TempDir(), "test_order.db")

	storage, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to create SQLite storage: %v", err)
	}
	want := testReminders()
	// Reverse the natural id order so ordering by id would fail.
	want[0], want[1] = want[1], want[0]
	if err := storage.ReplaceAll(ctx, want); err != nil {
		t.Fatalf("ReplaceAll failed: %v", err)
	}
	storage.Close()

	reopened, err := NewSQLiteStorage(dbFile)
	if err != nil {
		t.Fatalf("Failed to reopen SQLite storage: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if diff := cmp.Diff(want, got, equalTimes); diff != "" {
		t.Errorf("reopened store mismatch (-want +got):\n%s", diff)
	}
}
