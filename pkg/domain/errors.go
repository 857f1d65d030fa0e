package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references an absent entity.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ErrInvalidMembership is returned when an operation assumes a room/plant
// relationship that does not hold (e.g. moving a plant out of a room it is
// not a member of).
type ErrInvalidMembership struct {
	PlantID string
	RoomID  string
}

func (e ErrInvalidMembership) Error() string {
	return fmt.Sprintf("plant %s is not a member of room %s", e.PlantID, e.RoomID)
}

// ErrRecurrenceConfigMissing is returned when a task is requested for a task
// type the plant's care settings define no recurrence rule for.
type ErrRecurrenceConfigMissing struct {
	PlantID string
	Type    TaskType
}

func (e ErrRecurrenceConfigMissing) Error() string {
	return fmt.Sprintf("plant %s has no recurrence rule for task type %s", e.PlantID, e.Type)
}

// ErrMissingDueDate guards data integrity: an active (non-completed) task must
// always carry a due date.
type ErrMissingDueDate struct {
	TaskID string
}

func (e ErrMissingDueDate) Error() string {
	return fmt.Sprintf("active task %s has no due date", e.TaskID)
}

// ErrRoomNotEmpty is returned when a room deletion is attempted while member
// plants are still attached.
type ErrRoomNotEmpty struct {
	RoomID  string
	Members int
}

func (e ErrRoomNotEmpty) Error() string {
	return fmt.Sprintf("room %s still has %d member plants", e.RoomID, e.Members)
}

// ErrSlotsExhausted is returned when the notification slot ceiling is reached.
var ErrSlotsExhausted = errors.New("notification slots exhausted")
