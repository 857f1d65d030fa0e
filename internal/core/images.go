package core

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"plantcore/internal/blob"
	"plantcore/pkg/domain"
)

// DefaultPreviewLimit bounds a room preview when the caller passes no limit.
const DefaultPreviewLimit = 5

// AttachPlantImage uploads a photo to the blob backend and records it on the
// plant. The blob write happens first; if the metadata commit fails the blob
// is deleted again so storage never holds orphaned photos.
func (s *Service) AttachPlantImage(ctx context.Context, plantID string, r io.Reader, contentType string, takenAt time.Time) (image PlantImage, res Result, err error) {
	defer s.instrument(ctx, "attach_plant_image", &err)()
	var roomID *string
	if err = s.store.View(ctx, func(view domain.TransactionView) error {
		plant, ok := view.FindPlant(plantID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
		}
		roomID = plant.RoomID
		return nil
	}); err != nil {
		return PlantImage{}, Result{}, err
	}

	if takenAt.IsZero() {
		takenAt = s.clock.Now()
	}
	imageID := newID()
	key := imageKey(plantID, imageID)
	info, err := s.images.Put(ctx, key, r, blob.PutOptions{
		ContentType: contentType,
		Metadata:    map[string]string{"plant_id": plantID},
	})
	if err != nil {
		return PlantImage{}, Result{}, fmt.Errorf("store image blob: %w", err)
	}
	url := info.URL
	if url == "" {
		url = key
	}
	image = PlantImage{ID: imageID, URL: url, TakenAt: takenAt}

	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, txErr := tx.UpdatePlant(plantID, func(p *Plant) error {
			p.Images = append(p.Images, image)
			return nil
		})
		return txErr
	})
	if err != nil {
		if _, delErr := s.images.Delete(ctx, key); delErr != nil {
			s.logger.Warn("orphaned image blob", "key", key, "error", delErr)
		}
		return PlantImage{}, res, err
	}
	if roomID != nil {
		s.refreshPreviewBestEffort(ctx, *roomID, &res)
	}
	return image, res, nil
}

// RemovePlantImage drops the image record and deletes the backing blob.
func (s *Service) RemovePlantImage(ctx context.Context, plantID, imageID string) (res Result, err error) {
	defer s.instrument(ctx, "remove_plant_image", &err)()
	var roomID *string
	found := false
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, txErr := tx.UpdatePlant(plantID, func(p *Plant) error {
			kept := p.Images[:0]
			for _, img := range p.Images {
				if img.ID == imageID {
					found = true
					continue
				}
				kept = append(kept, img)
			}
			if !found {
				return domain.ErrNotFound{Entity: EntityImage, ID: imageID}
			}
			p.Images = kept
			roomID = p.RoomID
			return nil
		})
		return txErr
	})
	if err != nil {
		return res, err
	}
	if _, delErr := s.images.Delete(ctx, imageKey(plantID, imageID)); delErr != nil {
		s.logger.Warn("image blob delete failed", "plant_id", plantID, "image_id", imageID, "error", delErr)
	}
	if roomID != nil {
		s.refreshPreviewBestEffort(ctx, *roomID, &res)
	}
	return res, nil
}

// OpenPlantImage streams a stored photo back from the blob backend.
func (s *Service) OpenPlantImage(ctx context.Context, plantID, imageID string) (blob.Info, io.ReadCloser, error) {
	return s.images.Get(ctx, imageKey(plantID, imageID))
}

func imageKey(plantID, imageID string) string {
	return fmt.Sprintf("plants/%s/%s", plantID, imageID)
}

// RefreshPreview recomputes the room's derived preview from its members'
// images and persists it. A non-positive limit falls back to
// DefaultPreviewLimit.
func (s *Service) RefreshPreview(ctx context.Context, roomID string, limit int) (room Room, res Result, err error) {
	defer s.instrument(ctx, "refresh_preview", &err)()
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		current, ok := tx.FindRoom(roomID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityRoom, ID: roomID}
		}
		preview := derivePreview(current, func(id string) (Plant, bool) { return tx.FindPlant(id) }, limit)
		var txErr error
		room, txErr = tx.UpdateRoom(roomID, func(r *Room) error {
			r.Preview = preview
			return nil
		})
		return txErr
	})
	return room, res, err
}

// derivePreview selects the room's preview entries: most recent photos first,
// ties broken by the owning plant's position in the member list, then by
// image ID. A room whose members have no photos gets an empty preview.
func derivePreview(room Room, findPlant func(string) (Plant, bool), limit int) []PreviewImage {
	type candidate struct {
		entry    PreviewImage
		memberAt int
	}
	var candidates []candidate
	for at, plantID := range room.PlantIDs {
		plant, ok := findPlant(plantID)
		if !ok {
			continue
		}
		for _, img := range plant.Images {
			candidates = append(candidates, candidate{
				entry:    PreviewImage{PlantID: plantID, ImageID: img.ID, URL: img.URL, TakenAt: img.TakenAt},
				memberAt: at,
			})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if !a.entry.TakenAt.Equal(b.entry.TakenAt) {
			return a.entry.TakenAt.After(b.entry.TakenAt)
		}
		if a.memberAt != b.memberAt {
			return a.memberAt < b.memberAt
		}
		return a.entry.ImageID < b.entry.ImageID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	preview := make([]PreviewImage, 0, len(candidates))
	for _, c := range candidates {
		preview = append(preview, c.entry)
	}
	return preview
}

// refreshPreviewBestEffort recomputes a room preview after a successful
// mutation. A failed refresh is logged and recorded as a warn violation on
// the caller's result instead of failing the mutation; RefreshPreview
// retries it explicitly.
func (s *Service) refreshPreviewBestEffort(ctx context.Context, roomID string, res *Result) {
	if _, _, err := s.RefreshPreview(ctx, roomID, 0); err != nil {
		s.logger.Warn("preview refresh failed", "room_id", roomID, "error", err)
		res.Merge(Result{Violations: []domain.Violation{{
			Rule:     "room_preview",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("preview refresh failed: %v", err),
			Entity:   EntityRoom,
			EntityID: roomID,
		}}})
	}
}
