package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateRoom(Room) (Room, error)
	UpdateRoom(id string, mutator func(*Room) error) (Room, error)
	DeleteRoom(id string) error
	CreatePlant(Plant) (Plant, error)
	UpdatePlant(id string, mutator func(*Plant) error) (Plant, error)
	DeletePlant(id string) error
	PutProfile(UserProfile) error
	DeleteProfile(id string) error
	FindRoom(id string) (Room, bool)
	FindPlant(id string) (Plant, bool)
}

// TransactionView provides read-only access to snapshot data for rules.
type TransactionView interface {
	ListRooms() []Room
	ListPlants() []Plant
	FindRoom(id string) (Room, bool)
	FindPlant(id string) (Plant, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetRoom(id string) (Room, bool)
	ListRooms() []Room
	GetPlant(id string) (Plant, bool)
	ListPlants() []Plant
	GetProfile(id string) (UserProfile, bool)
}
