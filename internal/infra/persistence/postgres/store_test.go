package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"plantcore/internal/infra/persistence/postgres/testutil"
	"plantcore/pkg/domain"
)

func openStubStore(t *testing.T) (*Store, *testutil.StubConn) {
	t.Helper()
	db, conn := testutil.NewStubDB()
	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("postgres://stub", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store, conn
}

func TestSnapshotWrittenAfterCommit(t *testing.T) {
	store, conn := openStubStore(t)
	ctx := context.Background()

	var roomID string
	if _, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		room, err := tx.CreateRoom(domain.Room{Name: "Greenhouse"})
		roomID = room.ID
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	payload, ok := conn.State["rooms"]
	if !ok {
		t.Fatalf("rooms bucket not persisted; state: %v", conn.State)
	}
	var rooms map[string]domain.Room
	if err := json.Unmarshal(payload, &rooms); err != nil {
		t.Fatalf("decode rooms payload: %v", err)
	}
	if _, ok := rooms[roomID]; !ok {
		t.Fatalf("created room missing from snapshot payload")
	}
}

func TestHydratesFromExistingSnapshot(t *testing.T) {
	db, conn := testutil.NewStubDB()
	seed := map[string]domain.Plant{
		"p1": {Base: domain.Base{ID: "p1"}, Name: "Ivy"},
	}
	payload, err := json.Marshal(seed)
	if err != nil {
		t.Fatalf("encode seed: %v", err)
	}
	conn.State["plants"] = payload

	restore := OverrideSQLOpen(func(string, string) (*sql.DB, error) { return db, nil })
	t.Cleanup(restore)
	store, err := NewStore("postgres://stub", nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	plant, ok := store.GetPlant("p1")
	if !ok || plant.Name != "Ivy" {
		t.Fatalf("seeded plant not hydrated: %+v ok=%v", plant, ok)
	}
}

func TestCommitFailureSurfaces(t *testing.T) {
	store, conn := openStubStore(t)
	conn.FailCommit = true

	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateRoom(domain.Room{Name: "Patio"})
		return err
	})
	if err == nil {
		t.Fatalf("expected snapshot commit failure")
	}
}
