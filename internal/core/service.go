package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"plantcore/internal/blob"
	blobcore "plantcore/internal/blob/core"
	"plantcore/internal/kv"
	"plantcore/internal/notify"
	"plantcore/pkg/domain"
)

// Service coordinates every multi-entity mutation so the room/plant
// membership graph, task reminders and derived previews stay consistent. All
// writes funnel through here; callers never mutate the store directly.
type Service struct {
	store      domain.PersistentStore
	slots      *SlotAllocator
	dispatcher notify.Dispatcher
	images     blobcore.Store
	profiles   *kv.ProfileCache
	logger     Logger
	metrics    MetricsRecorder
	clock      Clock
}

// Option customises service construction.
type Option func(*Service)

// WithLogger installs a structured logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics installs a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithClock overrides the wall clock, used by scheduling tests.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithDispatcher installs the reminder dispatcher.
func WithDispatcher(d notify.Dispatcher) Option {
	return func(s *Service) {
		if d != nil {
			s.dispatcher = d
		}
	}
}

// WithSlotAllocator overrides the notification slot allocator.
func WithSlotAllocator(a *SlotAllocator) Option {
	return func(s *Service) {
		if a != nil {
			s.slots = a
		}
	}
}

// WithImageStore installs the blob backend holding plant photos.
func WithImageStore(store blob.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.images = store
		}
	}
}

// WithProfileCache installs the local profile cache the service writes
// through on profile mutations.
func WithProfileCache(cache *kv.ProfileCache) Option {
	return func(s *Service) { s.profiles = cache }
}

// NewService constructs a service over the given store. Notification slots
// referenced by persisted tasks are re-reserved so restarts never double-issue
// a live slot.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:      store,
		slots:      NewSlotAllocator(domain.SlotCeiling),
		dispatcher: notify.NewNoop(),
		images:     blob.NewMemory(),
		logger:     NewNoopLogger(),
		metrics:    NewNoopMetricsRecorder(),
		clock:      SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, plant := range store.ListPlants() {
		for _, task := range plant.Tasks {
			if task.NotificationSlot != nil {
				s.slots.Reserve(*task.NotificationSlot)
			}
		}
	}
	return s
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore { return s.store }

func (s *Service) instrument(ctx context.Context, operation string, err *error) func() {
	started := time.Now()
	return func() {
		s.metrics.RecordDuration(ctx, operation, time.Since(started))
		status := "ok"
		if *err != nil {
			status = "error"
		}
		s.metrics.RecordResult(ctx, operation, status)
	}
}

func newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(fmt.Sprintf("id generation failed: %v", err))
	}
	return hex.EncodeToString(b[:])
}

// --- rooms ---

// CreateRoom persists a new room.
func (s *Service) CreateRoom(ctx context.Context, room Room) (created Room, res Result, err error) {
	defer s.instrument(ctx, "create_room", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var txErr error
		created, txErr = tx.CreateRoom(room)
		return txErr
	})
	return created, res, err
}

// UpdateRoom mutates a room using the provided mutator.
func (s *Service) UpdateRoom(ctx context.Context, id string, mutator func(*Room) error) (updated Room, res Result, err error) {
	defer s.instrument(ctx, "update_room", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var txErr error
		updated, txErr = tx.UpdateRoom(id, mutator)
		return txErr
	})
	return updated, res, err
}

// GetRoom returns a room by ID.
func (s *Service) GetRoom(id string) (Room, bool) { return s.store.GetRoom(id) }

// Rooms returns all rooms in stable order.
func (s *Service) Rooms() []Room { return s.store.ListRooms() }

// --- plants ---

// CreatePlant persists a new plant. When room is set the plant is created and
// added to the room's member list in the same transaction, so the membership
// graph never observes a half-linked plant.
func (s *Service) CreatePlant(ctx context.Context, plant Plant) (created Plant, res Result, err error) {
	defer s.instrument(ctx, "create_plant", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if plant.RoomID != nil {
			if _, ok := tx.FindRoom(*plant.RoomID); !ok {
				return domain.ErrNotFound{Entity: EntityRoom, ID: *plant.RoomID}
			}
		}
		var txErr error
		created, txErr = tx.CreatePlant(plant)
		if txErr != nil {
			return txErr
		}
		if created.RoomID == nil {
			return nil
		}
		_, txErr = tx.UpdateRoom(*created.RoomID, func(r *Room) error {
			r.PlantIDs = append(r.PlantIDs, created.ID)
			return nil
		})
		return txErr
	})
	return created, res, err
}

// UpdatePlant mutates a plant using the provided mutator. Room assignment
// must go through AddPlantToRoom / MovePlant: the membership rule blocks
// reassigning a housed plant's RoomID at commit, but it checks the listed
// direction only, so assigning an unhoused plant here commits and leaves it
// off the destination's member list.
func (s *Service) UpdatePlant(ctx context.Context, id string, mutator func(*Plant) error) (updated Plant, res Result, err error) {
	defer s.instrument(ctx, "update_plant", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		var txErr error
		updated, txErr = tx.UpdatePlant(id, mutator)
		return txErr
	})
	return updated, res, err
}

// GetPlant returns a plant by ID.
func (s *Service) GetPlant(id string) (Plant, bool) { return s.store.GetPlant(id) }

// Plants returns all plants in stable order.
func (s *Service) Plants() []Plant { return s.store.ListPlants() }

// DeletePlant removes a plant, detaching it from its room, cancelling its
// reminders and releasing their notification slots.
func (s *Service) DeletePlant(ctx context.Context, id string) (res Result, err error) {
	defer s.instrument(ctx, "delete_plant", &err)()
	var removed Plant
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		plant, ok := tx.FindPlant(id)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: id}
		}
		removed = plant
		if plant.RoomID != nil {
			if _, txErr := tx.UpdateRoom(*plant.RoomID, removeMember(id)); txErr != nil {
				return txErr
			}
		}
		return tx.DeletePlant(id)
	})
	if err != nil {
		return res, err
	}
	s.releaseTaskSlots(ctx, removed)
	if removed.RoomID != nil {
		s.refreshPreviewBestEffort(ctx, *removed.RoomID, &res)
	}
	return res, nil
}

// AddPlantToRoom assigns an unhoused plant to a room. Adding a plant to the
// room it already belongs to is a no-op; a plant housed elsewhere must be
// moved with MovePlant.
func (s *Service) AddPlantToRoom(ctx context.Context, plantID, roomID string) (res Result, err error) {
	defer s.instrument(ctx, "add_plant_to_room", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		plant, ok := tx.FindPlant(plantID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
		}
		if _, ok := tx.FindRoom(roomID); !ok {
			return domain.ErrNotFound{Entity: EntityRoom, ID: roomID}
		}
		if plant.RoomID != nil {
			if *plant.RoomID == roomID {
				return nil
			}
			return domain.ErrInvalidMembership{PlantID: plantID, RoomID: roomID}
		}
		if _, txErr := tx.UpdatePlant(plantID, assignRoom(&roomID)); txErr != nil {
			return txErr
		}
		_, txErr := tx.UpdateRoom(roomID, addMember(plantID))
		return txErr
	})
	if err != nil {
		return res, err
	}
	s.refreshPreviewBestEffort(ctx, roomID, &res)
	return res, nil
}

// RemovePlantFromRoom detaches a plant from the given room, leaving it
// unhoused. Removing a plant that is not a member is a no-op.
func (s *Service) RemovePlantFromRoom(ctx context.Context, plantID, roomID string) (res Result, err error) {
	defer s.instrument(ctx, "remove_plant_from_room", &err)()
	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, ok := tx.FindRoom(roomID); !ok {
			return domain.ErrNotFound{Entity: EntityRoom, ID: roomID}
		}
		plant, ok := tx.FindPlant(plantID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
		}
		if _, txErr := tx.UpdateRoom(roomID, removeMember(plantID)); txErr != nil {
			return txErr
		}
		if plant.RoomID == nil || *plant.RoomID != roomID {
			return nil
		}
		_, txErr := tx.UpdatePlant(plantID, assignRoom(nil))
		return txErr
	})
	if err != nil {
		return res, err
	}
	s.refreshPreviewBestEffort(ctx, roomID, &res)
	return res, nil
}

// MovePlant relocates a plant between rooms. The removal from the source and
// the insertion into the destination are separate writes; if the insertion
// fails the removal is compensated by re-adding the plant to the source room,
// so the graph never ends in a state where the plant belongs to no room's
// member list while still assigned.
func (s *Service) MovePlant(ctx context.Context, plantID, fromRoomID, toRoomID string) (res Result, err error) {
	defer s.instrument(ctx, "move_plant", &err)()
	if err = s.store.View(ctx, func(view domain.TransactionView) error {
		plant, ok := view.FindPlant(plantID)
		if !ok {
			return domain.ErrNotFound{Entity: EntityPlant, ID: plantID}
		}
		if _, ok := view.FindRoom(fromRoomID); !ok {
			return domain.ErrNotFound{Entity: EntityRoom, ID: fromRoomID}
		}
		if _, ok := view.FindRoom(toRoomID); !ok {
			return domain.ErrNotFound{Entity: EntityRoom, ID: toRoomID}
		}
		if plant.RoomID == nil || *plant.RoomID != fromRoomID {
			return domain.ErrInvalidMembership{PlantID: plantID, RoomID: fromRoomID}
		}
		return nil
	}); err != nil {
		return Result{}, err
	}
	if fromRoomID == toRoomID {
		return Result{}, nil
	}

	res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, txErr := tx.UpdateRoom(fromRoomID, removeMember(plantID))
		return txErr
	})
	if err != nil {
		return res, err
	}

	insertRes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, txErr := tx.UpdatePlant(plantID, assignRoom(&toRoomID)); txErr != nil {
			return txErr
		}
		_, txErr := tx.UpdateRoom(toRoomID, addMember(plantID))
		return txErr
	})
	res.Merge(insertRes)
	if err != nil {
		// Put the plant back where it was so the half-finished move does not
		// strand it outside every member list.
		if _, compErr := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			_, txErr := tx.UpdateRoom(fromRoomID, addMember(plantID))
			return txErr
		}); compErr != nil {
			s.logger.Error("move compensation failed", "plant_id", plantID, "room_id", fromRoomID, "error", compErr)
			return res, errors.Join(err, fmt.Errorf("restore membership in room %s: %w", fromRoomID, compErr))
		}
		s.logger.Warn("move rolled back", "plant_id", plantID, "from", fromRoomID, "to", toRoomID, "error", err)
		return res, err
	}

	s.refreshPreviewBestEffort(ctx, fromRoomID, &res)
	s.refreshPreviewBestEffort(ctx, toRoomID, &res)
	return res, nil
}

// DeleteRoom removes a room after handling its member plants according to
// policy. Member handling is best-effort: each plant is processed in its own
// transaction, every failure is collected, and the room itself is only
// removed once no members remain. On partial failure the room survives with
// the plants that could not be processed, and the aggregated error names each
// one.
func (s *Service) DeleteRoom(ctx context.Context, roomID string, policy CascadePolicy) (res Result, err error) {
	defer s.instrument(ctx, "delete_room", &err)()
	room, ok := s.store.GetRoom(roomID)
	if !ok {
		err = domain.ErrNotFound{Entity: EntityRoom, ID: roomID}
		return Result{}, err
	}

	var memberErrs []error
	for _, plantID := range room.PlantIDs {
		var opErr error
		switch policy {
		case CascadeDetachPlants:
			_, opErr = s.RemovePlantFromRoom(ctx, plantID, roomID)
		default:
			var partial Result
			partial, opErr = s.DeletePlant(ctx, plantID)
			res.Merge(partial)
		}
		if opErr != nil {
			memberErrs = append(memberErrs, fmt.Errorf("plant %s: %w", plantID, opErr))
		}
	}
	if len(memberErrs) > 0 {
		err = fmt.Errorf("delete room %s: %w", roomID, errors.Join(memberErrs...))
		s.logger.Warn("room deletion incomplete", "room_id", roomID, "failed_members", len(memberErrs))
		return res, err
	}

	deleteRes, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		return tx.DeleteRoom(roomID)
	})
	res.Merge(deleteRes)
	return res, err
}

// assignRoom moves only the plant's room pointer; membership lists are
// maintained separately so the coordinator controls both sides of the graph.
func assignRoom(roomID *string) func(*Plant) error {
	return func(p *Plant) error {
		p.RoomID = roomID
		return nil
	}
}

func addMember(plantID string) func(*Room) error {
	return func(r *Room) error {
		for _, id := range r.PlantIDs {
			if id == plantID {
				return nil
			}
		}
		r.PlantIDs = append(r.PlantIDs, plantID)
		return nil
	}
}

func removeMember(plantID string) func(*Room) error {
	return func(r *Room) error {
		kept := r.PlantIDs[:0]
		for _, id := range r.PlantIDs {
			if id != plantID {
				kept = append(kept, id)
			}
		}
		r.PlantIDs = kept
		return nil
	}
}

func (s *Service) releaseTaskSlots(ctx context.Context, plant Plant) {
	for _, task := range plant.Tasks {
		if task.NotificationSlot == nil {
			continue
		}
		slot := *task.NotificationSlot
		if cancelErr := s.dispatcher.Cancel(ctx, slot); cancelErr != nil {
			s.logger.Warn("reminder cancel failed", "plant_id", plant.ID, "slot", slot, "error", cancelErr)
		}
		s.slots.Release(slot)
	}
}
