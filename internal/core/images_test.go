package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"plantcore/pkg/domain"
)

func day(n int) time.Time {
	return time.Date(2026, time.March, n, 12, 0, 0, 0, time.UTC)
}

func addImage(t *testing.T, svc *Service, plantID string, img PlantImage) {
	t.Helper()
	if _, _, err := svc.UpdatePlant(context.Background(), plantID, func(p *Plant) error {
		p.Images = append(p.Images, img)
		return nil
	}); err != nil {
		t.Fatalf("add image to %s: %v", plantID, err)
	}
}

func TestRefreshPreviewEmptyRoom(t *testing.T) {
	svc, _, _ := newTestService(t)
	room := mustCreateRoom(t, svc, "Empty")

	got, _, err := svc.RefreshPreview(context.Background(), room.ID, 0)
	if err != nil {
		t.Fatalf("refresh preview: %v", err)
	}
	if len(got.Preview) != 0 {
		t.Fatalf("expected empty preview, got %+v", got.Preview)
	}
}

func TestFailedPreviewRefreshSurfacesAsWarning(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()

	room := mustCreateRoom(t, svc, "Studio")
	plant := mustCreatePlant(t, svc, Plant{Name: "Hoya"})
	addImage(t, svc, plant.ID, PlantImage{ID: "img-1", URL: "u1", TakenAt: day(1)})

	// Block the preview write only; the membership mutation itself commits.
	store.RulesEngine().Register(blockChangeRule{
		name: "fail_preview_write",
		match: func(c Change) bool {
			after, ok := c.After.(domain.Room)
			return ok && len(after.Preview) > 0
		},
	})

	res, err := svc.AddPlantToRoom(ctx, plant.ID, room.ID)
	if err != nil {
		t.Fatalf("add plant to room: %v", err)
	}
	warned := false
	for _, v := range res.Violations {
		if v.Rule == "room_preview" && v.Severity == domain.SeverityWarn && v.EntityID == room.ID {
			warned = true
		}
	}
	if !warned {
		t.Fatalf("expected warn violation for failed preview refresh, got %+v", res.Violations)
	}
	got, _ := svc.GetRoom(room.ID)
	if len(got.PlantIDs) != 1 {
		t.Fatalf("membership must still commit, got %v", got.PlantIDs)
	}
	if len(got.Preview) != 0 {
		t.Fatalf("blocked refresh must leave the cached preview alone, got %+v", got.Preview)
	}
}

func TestRefreshPreviewOrdersMostRecentFirst(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	room := mustCreateRoom(t, svc, "Gallery")
	plantA := mustCreatePlant(t, svc, Plant{Name: "A", RoomID: &room.ID})
	plantB := mustCreatePlant(t, svc, Plant{Name: "B", RoomID: &room.ID})

	addImage(t, svc, plantA.ID, PlantImage{ID: "img-a1", URL: "u/a1", TakenAt: day(1)})
	addImage(t, svc, plantA.ID, PlantImage{ID: "img-a2", URL: "u/a2", TakenAt: day(3)})
	addImage(t, svc, plantB.ID, PlantImage{ID: "img-b1", URL: "u/b1", TakenAt: day(2)})

	got, _, err := svc.RefreshPreview(ctx, room.ID, 2)
	if err != nil {
		t.Fatalf("refresh preview: %v", err)
	}
	if len(got.Preview) != 2 {
		t.Fatalf("expected preview of 2, got %d", len(got.Preview))
	}
	if got.Preview[0].ImageID != "img-a2" || got.Preview[1].ImageID != "img-b1" {
		t.Fatalf("unexpected preview order: %+v", got.Preview)
	}
	if got.Preview[0].PlantID != plantA.ID || got.Preview[1].PlantID != plantB.ID {
		t.Fatalf("preview entries point at wrong plants: %+v", got.Preview)
	}
}

func TestRefreshPreviewTieBreaksByMemberOrderThenImageID(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	room := mustCreateRoom(t, svc, "Ties")
	first := mustCreatePlant(t, svc, Plant{Name: "First", RoomID: &room.ID})
	second := mustCreatePlant(t, svc, Plant{Name: "Second", RoomID: &room.ID})

	same := day(5)
	addImage(t, svc, second.ID, PlantImage{ID: "img-s", URL: "u/s", TakenAt: same})
	addImage(t, svc, first.ID, PlantImage{ID: "img-f2", URL: "u/f2", TakenAt: same})
	addImage(t, svc, first.ID, PlantImage{ID: "img-f1", URL: "u/f1", TakenAt: same})

	got, _, err := svc.RefreshPreview(ctx, room.ID, 10)
	if err != nil {
		t.Fatalf("refresh preview: %v", err)
	}
	want := []string{"img-f1", "img-f2", "img-s"}
	if len(got.Preview) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got.Preview))
	}
	for i, id := range want {
		if got.Preview[i].ImageID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, got.Preview[i].ImageID)
		}
	}
}

func TestAttachPlantImageUpdatesRoomPreview(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	room := mustCreateRoom(t, svc, "Studio")
	plant := mustCreatePlant(t, svc, Plant{Name: "Begonia", RoomID: &room.ID})

	image, _, err := svc.AttachPlantImage(ctx, plant.ID, strings.NewReader("pixels"), "image/jpeg", day(4))
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}
	if image.ID == "" || image.URL == "" {
		t.Fatalf("incomplete image record: %+v", image)
	}

	stored, _ := svc.GetPlant(plant.ID)
	if len(stored.Images) != 1 || stored.Images[0].ID != image.ID {
		t.Fatalf("image not recorded on plant: %+v", stored.Images)
	}
	got, _ := svc.GetRoom(room.ID)
	if len(got.Preview) != 1 || got.Preview[0].ImageID != image.ID {
		t.Fatalf("preview not refreshed: %+v", got.Preview)
	}

	info, rc, err := svc.OpenPlantImage(ctx, plant.ID, image.ID)
	if err != nil {
		t.Fatalf("open image: %v", err)
	}
	_ = rc.Close()
	if info.Size != int64(len("pixels")) {
		t.Fatalf("unexpected blob size %d", info.Size)
	}

	_, _, err = svc.AttachPlantImage(ctx, "no-such-plant", strings.NewReader("x"), "image/jpeg", day(4))
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not-found for unknown plant, got %v", err)
	}
}

func TestRemovePlantImageDeletesBlobAndPreviewEntry(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	room := mustCreateRoom(t, svc, "Shelf")
	plant := mustCreatePlant(t, svc, Plant{Name: "Hoya", RoomID: &room.ID})
	image, _, err := svc.AttachPlantImage(ctx, plant.ID, strings.NewReader("pixels"), "image/jpeg", day(7))
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}

	if _, err := svc.RemovePlantImage(ctx, plant.ID, image.ID); err != nil {
		t.Fatalf("remove image: %v", err)
	}
	stored, _ := svc.GetPlant(plant.ID)
	if len(stored.Images) != 0 {
		t.Fatalf("image record should be gone, got %+v", stored.Images)
	}
	got, _ := svc.GetRoom(room.ID)
	if len(got.Preview) != 0 {
		t.Fatalf("preview should be empty, got %+v", got.Preview)
	}
	if _, _, err := svc.OpenPlantImage(ctx, plant.ID, image.ID); err == nil {
		t.Fatalf("expected blob to be deleted")
	}

	var nf domain.ErrNotFound
	if _, err := svc.RemovePlantImage(ctx, plant.ID, "missing"); !errors.As(err, &nf) {
		t.Fatalf("expected not-found for unknown image, got %v", err)
	}
}

func TestMovePlantCarriesPreviewAcrossRooms(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	roomA := mustCreateRoom(t, svc, "A")
	roomB := mustCreateRoom(t, svc, "B")
	plant := mustCreatePlant(t, svc, Plant{Name: "Jade", RoomID: &roomA.ID})
	image, _, err := svc.AttachPlantImage(ctx, plant.ID, strings.NewReader("pixels"), "image/jpeg", day(9))
	if err != nil {
		t.Fatalf("attach image: %v", err)
	}

	if _, err := svc.MovePlant(ctx, plant.ID, roomA.ID, roomB.ID); err != nil {
		t.Fatalf("move plant: %v", err)
	}
	a, _ := svc.GetRoom(roomA.ID)
	b, _ := svc.GetRoom(roomB.ID)
	if len(a.Preview) != 0 {
		t.Fatalf("source preview should be empty, got %+v", a.Preview)
	}
	if len(b.Preview) != 1 || b.Preview[0].ImageID != image.ID {
		t.Fatalf("destination preview missing image: %+v", b.Preview)
	}
}
