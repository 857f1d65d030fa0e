package core

import (
	"context"
	"path/filepath"
	"testing"

	"plantcore/internal/infra/persistence/memory"
	"plantcore/internal/infra/persistence/sqlite"
)

func TestOpenPersistentStoreDefaultsToSQLite(t *testing.T) {
	t.Setenv("PLANTCORE_STORAGE_DRIVER", "")
	t.Setenv("PLANTCORE_SQLITE_PATH", filepath.Join(t.TempDir(), "plants.db"))

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	sqliteStore, ok := store.(*sqlite.Store)
	if !ok {
		t.Fatalf("expected *sqlite.Store, got %T", store)
	}
	defer func() { _ = sqliteStore.Close() }()
	if _, err := sqliteStore.RunInTransaction(context.Background(), func(tx Transaction) error { return nil }); err != nil {
		t.Fatalf("empty transaction: %v", err)
	}
}

func TestOpenPersistentStoreMemoryDriver(t *testing.T) {
	t.Setenv("PLANTCORE_STORAGE_DRIVER", "memory")

	store, err := OpenPersistentStore(NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Fatalf("expected *memory.Store, got %T", store)
	}
}

func TestOpenPersistentStoreUnknownDriver(t *testing.T) {
	t.Setenv("PLANTCORE_STORAGE_DRIVER", "papyrus")

	if _, err := OpenPersistentStore(nil); err == nil {
		t.Fatalf("expected unknown driver error")
	}
}
