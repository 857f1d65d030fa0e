// Command store-check validates the referential invariants of a sqlite
// snapshot at rest: room/plant membership links, preview references, task
// recurrence data and notification slot assignments.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"plantcore/internal/infra/persistence/sqlite"
	"plantcore/pkg/domain"
)

var exitFunc = os.Exit

func main() {
	exitFunc(cli(os.Args[1:], os.Stdout, os.Stderr))
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("store-check", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var dbPath string
	fs.StringVar(&dbPath, "db", "plantcore.db", "path to sqlite snapshot")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	issues, err := run(dbPath)
	if err != nil {
		fmt.Fprintf(stderr, "store check failed: %v\n", err)
		return 2
	}
	if len(issues) > 0 {
		for _, issue := range issues {
			fmt.Fprintf(stdout, "ISSUE: %s\n", issue)
		}
		fmt.Fprintf(stdout, "%d issue(s) found in %s.\n", len(issues), dbPath)
		return 1
	}
	fmt.Fprintf(stdout, "Store check passed for %s.\n", dbPath)
	return 0
}

func run(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	// An empty rules engine: the point is to report what is already
	// persisted, not to block loading it.
	store, err := sqlite.NewStore(path, domain.NewRulesEngine())
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return inspect(store), nil
}

func inspect(store domain.PersistentStore) []string {
	var issues []string
	report := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	rooms := store.ListRooms()
	plants := store.ListPlants()
	plantByID := make(map[string]domain.Plant, len(plants))
	for _, p := range plants {
		plantByID[p.ID] = p
	}
	roomByID := make(map[string]domain.Room, len(rooms))
	memberOf := make(map[string]string)

	for _, room := range rooms {
		roomByID[room.ID] = room
		seen := make(map[string]struct{}, len(room.PlantIDs))
		members := make(map[string]struct{}, len(room.PlantIDs))
		for _, plantID := range room.PlantIDs {
			if _, dup := seen[plantID]; dup {
				report("room %s lists plant %s more than once", room.ID, plantID)
				continue
			}
			seen[plantID] = struct{}{}
			members[plantID] = struct{}{}
			if prior, taken := memberOf[plantID]; taken {
				report("plant %s is listed by rooms %s and %s", plantID, prior, room.ID)
				continue
			}
			memberOf[plantID] = room.ID
			plant, ok := plantByID[plantID]
			if !ok {
				report("room %s lists unknown plant %s", room.ID, plantID)
				continue
			}
			if plant.RoomID == nil || *plant.RoomID != room.ID {
				report("room %s lists plant %s but the plant is not assigned to it", room.ID, plantID)
			}
		}
		for _, entry := range room.Preview {
			if _, ok := members[entry.PlantID]; !ok {
				report("room %s preview references non-member plant %s", room.ID, entry.PlantID)
				continue
			}
			if plant, ok := plantByID[entry.PlantID]; ok && !hasImage(plant, entry.ImageID) {
				report("room %s preview references missing image %s of plant %s", room.ID, entry.ImageID, entry.PlantID)
			}
		}
	}

	slotOwner := make(map[int]string)
	for _, plant := range plants {
		if plant.RoomID != nil {
			room, ok := roomByID[*plant.RoomID]
			if !ok {
				report("plant %s is assigned to unknown room %s", plant.ID, *plant.RoomID)
			} else if !listsMember(room, plant.ID) {
				report("plant %s is assigned to room %s but not listed by it", plant.ID, room.ID)
			}
		}
		for taskType, task := range plant.Tasks {
			if task.PlantID != plant.ID {
				report("task %s of plant %s claims plant %s", task.ID, plant.ID, task.PlantID)
			}
			if task.Type != taskType {
				report("task %s is stored under type %s but claims %s", task.ID, taskType, task.Type)
			}
			if !task.Period.Completed && task.Period.Due.IsZero() {
				report("active task %s of plant %s has no due date", task.ID, plant.ID)
			}
			if task.Interval <= 0 {
				report("task %s of plant %s has non-positive interval", task.ID, plant.ID)
			}
			if task.NotificationSlot == nil {
				continue
			}
			slot := *task.NotificationSlot
			if slot < 0 || slot >= domain.SlotCeiling {
				report("task %s holds out-of-range slot %d", task.ID, slot)
				continue
			}
			if owner, taken := slotOwner[slot]; taken {
				report("slot %d is held by tasks %s and %s", slot, owner, task.ID)
				continue
			}
			slotOwner[slot] = task.ID
		}
	}

	sort.Strings(issues)
	return issues
}

func hasImage(plant domain.Plant, imageID string) bool {
	for _, img := range plant.Images {
		if img.ID == imageID {
			return true
		}
	}
	return false
}

func listsMember(room domain.Room, plantID string) bool {
	for _, id := range room.PlantIDs {
		if id == plantID {
			return true
		}
	}
	return false
}
