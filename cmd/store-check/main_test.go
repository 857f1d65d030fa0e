package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"plantcore/internal/infra/persistence/sqlite"
	"plantcore/pkg/domain"
)

func writeSnapshot(t *testing.T, path string, fn func(tx domain.Transaction) error) {
	t.Helper()
	store, err := sqlite.NewStore(path, domain.NewRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()
	if _, err := store.RunInTransaction(context.Background(), fn); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}
}

func TestCleanSnapshotPasses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.db")
	writeSnapshot(t, path, func(tx domain.Transaction) error {
		room, err := tx.CreateRoom(domain.Room{Base: domain.Base{ID: "r1"}, Name: "Hall"})
		if err != nil {
			return err
		}
		if _, err := tx.CreatePlant(domain.Plant{Base: domain.Base{ID: "p1"}, Name: "Fern", RoomID: &room.ID}); err != nil {
			return err
		}
		_, err = tx.UpdateRoom(room.ID, func(r *domain.Room) error {
			r.PlantIDs = append(r.PlantIDs, "p1")
			return nil
		})
		return err
	})

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-db", path}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("expected exit 0, got %d (stderr: %s)", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "passed") {
		t.Fatalf("unexpected output: %s", stdout.String())
	}
}

func TestBrokenMembershipIsReported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.db")
	// No rules engine guards this transaction, so the dangling member link
	// commits and must be caught at rest.
	writeSnapshot(t, path, func(tx domain.Transaction) error {
		room, err := tx.CreateRoom(domain.Room{Base: domain.Base{ID: "r1"}, Name: "Hall"})
		if err != nil {
			return err
		}
		_, err = tx.UpdateRoom(room.ID, func(r *domain.Room) error {
			r.PlantIDs = append(r.PlantIDs, "ghost")
			return nil
		})
		return err
	})

	var stdout, stderr bytes.Buffer
	code := cli([]string{"-db", path}, &stdout, &stderr)
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(stdout.String(), "ghost") {
		t.Fatalf("issue should name the dangling plant: %s", stdout.String())
	}
}

func TestMissingSnapshotFails(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := cli([]string{"-db", filepath.Join(t.TempDir(), "absent.db")}, &stdout, &stderr)
	if code != 2 {
		t.Fatalf("expected exit 2, got %d", code)
	}
}

func TestBadFlagsExitTwo(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if code := cli([]string{"-nope"}, &stdout, &stderr); code != 2 {
		t.Fatalf("expected exit 2 for unknown flag")
	}
}
