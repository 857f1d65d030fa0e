// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"plantcore/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interfaces.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Room aliases domain.Room for in-memory persistence operations.
	Room = domain.Room
	// Plant aliases domain.Plant.
	Plant = domain.Plant
	// Task aliases domain.Task nested under plants.
	Task = domain.Task
	// UserProfile aliases domain.UserProfile.
	UserProfile = domain.UserProfile
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	rooms    map[string]Room
	plants   map[string]Plant
	profiles map[string]UserProfile
}

// Snapshot captures a point-in-time clone of the store state. Bucket names
// stay compatible with the document layout used by earlier clients.
type Snapshot struct {
	Rooms    map[string]Room        `json:"rooms"`
	Plants   map[string]Plant       `json:"plants"`
	Profiles map[string]UserProfile `json:"users"`
}

func newMemoryState() memoryState {
	return memoryState{
		rooms:    make(map[string]Room),
		plants:   make(map[string]Plant),
		profiles: make(map[string]UserProfile),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	snap := Snapshot{
		Rooms:    make(map[string]Room, len(state.rooms)),
		Plants:   make(map[string]Plant, len(state.plants)),
		Profiles: make(map[string]UserProfile, len(state.profiles)),
	}
	for k, v := range state.rooms {
		snap.Rooms[k] = cloneRoom(v)
	}
	for k, v := range state.plants {
		snap.Plants[k] = clonePlant(v)
	}
	for k, v := range state.profiles {
		snap.Profiles[k] = v
	}
	return snap
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Rooms {
		state.rooms[k] = cloneRoom(v)
	}
	for k, v := range s.Plants {
		state.plants[k] = clonePlant(v)
	}
	for k, v := range s.Profiles {
		state.profiles[k] = v
	}
	return state
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.rooms {
		cloned.rooms[k] = cloneRoom(v)
	}
	for k, v := range s.plants {
		cloned.plants[k] = clonePlant(v)
	}
	for k, v := range s.profiles {
		cloned.profiles[k] = v
	}
	return cloned
}

func cloneRoom(r Room) Room {
	cp := r
	cp.PlantIDs = append([]string(nil), r.PlantIDs...)
	cp.Preview = append([]domain.PreviewImage(nil), r.Preview...)
	return cp
}

func clonePlant(p Plant) Plant {
	cp := p
	if p.RoomID != nil {
		roomID := *p.RoomID
		cp.RoomID = &roomID
	}
	if p.Settings.Intervals != nil {
		cp.Settings.Intervals = make(map[domain.TaskType]time.Duration, len(p.Settings.Intervals))
		for k, v := range p.Settings.Intervals {
			cp.Settings.Intervals[k] = v
		}
	}
	if p.Tasks != nil {
		cp.Tasks = make(map[domain.TaskType]Task, len(p.Tasks))
		for k, v := range p.Tasks {
			cp.Tasks[k] = cloneTask(v)
		}
	}
	cp.Images = append([]domain.PlantImage(nil), p.Images...)
	return cp
}

func cloneTask(t Task) Task {
	cp := t
	if t.NotificationSlot != nil {
		slot := *t.NotificationSlot
		cp.NotificationSlot = &slot
	}
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine for integration points.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// SetNowFunc overrides the time provider; intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListRooms returns all rooms within the transaction snapshot sorted by creation time.
func (v transactionView) ListRooms() []Room {
	out := make([]Room, 0, len(v.state.rooms))
	for _, r := range v.state.rooms {
		out = append(out, cloneRoom(r))
	}
	sortRooms(out)
	return out
}

// ListPlants returns all plants within the transaction snapshot sorted by creation time.
func (v transactionView) ListPlants() []Plant {
	out := make([]Plant, 0, len(v.state.plants))
	for _, p := range v.state.plants {
		out = append(out, clonePlant(p))
	}
	sortPlants(out)
	return out
}

// FindRoom retrieves a room by ID from the snapshot.
func (v transactionView) FindRoom(id string) (Room, bool) {
	r, ok := v.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// FindPlant retrieves a plant by ID from the snapshot.
func (v transactionView) FindPlant(id string) (Plant, bool) {
	p, ok := v.state.plants[id]
	if !ok {
		return Plant{}, false
	}
	return clonePlant(p), true
}

func sortRooms(rooms []Room) {
	sort.Slice(rooms, func(i, j int) bool {
		if rooms[i].CreatedAt.Equal(rooms[j].CreatedAt) {
			return rooms[i].ID < rooms[j].ID
		}
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
}

func sortPlants(plants []Plant) {
	sort.Slice(plants, func(i, j int) bool {
		if plants[i].CreatedAt.Equal(plants[j].CreatedAt) {
			return plants[i].ID < plants[j].ID
		}
		return plants[i].CreatedAt.Before(plants[j].CreatedAt)
	})
}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindRoom exposes room lookup within the transaction scope.
func (tx *transaction) FindRoom(id string) (Room, bool) {
	r, ok := tx.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// FindPlant exposes plant lookup within the transaction scope.
func (tx *transaction) FindPlant(id string) (Plant, bool) {
	p, ok := tx.state.plants[id]
	if !ok {
		return Plant{}, false
	}
	return clonePlant(p), true
}

// CreateRoom stores a new room within the transaction.
func (tx *transaction) CreateRoom(r Room) (Room, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.rooms[r.ID]; exists {
		return Room{}, fmt.Errorf("room %q already exists", r.ID)
	}
	if r.Name == "" {
		return Room{}, fmt.Errorf("room name must not be empty")
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.rooms[r.ID] = cloneRoom(r)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionCreate, After: cloneRoom(r)})
	return cloneRoom(r), nil
}

// UpdateRoom mutates a room using the provided mutator function.
func (tx *transaction) UpdateRoom(id string, mutator func(*Room) error) (Room, error) {
	current, ok := tx.state.rooms[id]
	if !ok {
		return Room{}, domain.ErrNotFound{Entity: domain.EntityRoom, ID: id}
	}
	before := cloneRoom(current)
	if err := mutator(&current); err != nil {
		return Room{}, err
	}
	if current.Name == "" {
		return Room{}, fmt.Errorf("room name must not be empty")
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.rooms[id] = cloneRoom(current)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionUpdate, Before: before, After: cloneRoom(current)})
	return cloneRoom(current), nil
}

// DeleteRoom removes a room from the transaction state. Rooms with remaining
// member plants cannot be deleted.
func (tx *transaction) DeleteRoom(id string) error {
	current, ok := tx.state.rooms[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityRoom, ID: id}
	}
	if len(current.PlantIDs) > 0 {
		return domain.ErrRoomNotEmpty{RoomID: id, Members: len(current.PlantIDs)}
	}
	delete(tx.state.rooms, id)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionDelete, Before: cloneRoom(current)})
	return nil
}

// CreatePlant stores a new plant within the transaction.
func (tx *transaction) CreatePlant(p Plant) (Plant, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.plants[p.ID]; exists {
		return Plant{}, fmt.Errorf("plant %q already exists", p.ID)
	}
	if p.Name == "" {
		return Plant{}, fmt.Errorf("plant name must not be empty")
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	if p.Tasks == nil {
		p.Tasks = map[domain.TaskType]Task{}
	}
	tx.state.plants[p.ID] = clonePlant(p)
	tx.recordChange(Change{Entity: domain.EntityPlant, Action: domain.ActionCreate, After: clonePlant(p)})
	return clonePlant(p), nil
}

// UpdatePlant mutates a plant using the provided mutator function.
func (tx *transaction) UpdatePlant(id string, mutator func(*Plant) error) (Plant, error) {
	current, ok := tx.state.plants[id]
	if !ok {
		return Plant{}, domain.ErrNotFound{Entity: domain.EntityPlant, ID: id}
	}
	before := clonePlant(current)
	if err := mutator(&current); err != nil {
		return Plant{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.plants[id] = clonePlant(current)
	tx.recordChange(Change{Entity: domain.EntityPlant, Action: domain.ActionUpdate, Before: before, After: clonePlant(current)})
	return clonePlant(current), nil
}

// DeletePlant removes a plant from the transaction state.
func (tx *transaction) DeletePlant(id string) error {
	current, ok := tx.state.plants[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityPlant, ID: id}
	}
	delete(tx.state.plants, id)
	tx.recordChange(Change{Entity: domain.EntityPlant, Action: domain.ActionDelete, Before: clonePlant(current)})
	return nil
}

// PutProfile stores or replaces the cached user profile record.
func (tx *transaction) PutProfile(p UserProfile) error {
	if p.ID == "" {
		return fmt.Errorf("profile id must not be empty")
	}
	tx.state.profiles[p.ID] = p
	tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionUpdate, After: p})
	return nil
}

// DeleteProfile removes a cached profile; absent profiles are a no-op.
func (tx *transaction) DeleteProfile(id string) error {
	if current, ok := tx.state.profiles[id]; ok {
		delete(tx.state.profiles, id)
		tx.recordChange(Change{Entity: domain.EntityUser, Action: domain.ActionDelete, Before: current})
	}
	return nil
}

// Read helpers ---------------------------------------------------------------

// GetRoom retrieves a room by ID from committed state.
func (s *Store) GetRoom(id string) (Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

// ListRooms returns all rooms from committed state.
func (s *Store) ListRooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Room, 0, len(s.state.rooms))
	for _, r := range s.state.rooms {
		out = append(out, cloneRoom(r))
	}
	sortRooms(out)
	return out
}

// GetPlant retrieves a plant by ID from committed state.
func (s *Store) GetPlant(id string) (Plant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.plants[id]
	if !ok {
		return Plant{}, false
	}
	return clonePlant(p), true
}

// ListPlants returns all plants from committed state.
func (s *Store) ListPlants() []Plant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Plant, 0, len(s.state.plants))
	for _, p := range s.state.plants {
		out = append(out, clonePlant(p))
	}
	sortPlants(out)
	return out
}

// GetProfile retrieves a cached user profile from committed state.
func (s *Store) GetProfile(id string) (UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.profiles[id]
	return p, ok
}
