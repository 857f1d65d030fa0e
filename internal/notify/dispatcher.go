// Package notify abstracts the host's local notification subsystem. The core
// schedules due-date reminders into numbered slots; concrete dispatch (APNs,
// system notification center) lives behind the Dispatcher interface.
package notify

import (
	"context"
	"errors"
	"time"

	"plantcore/pkg/domain"
)

// Payload carries the reminder content shown when a care task comes due.
type Payload struct {
	PlantID   string          `json:"plant_id"`
	PlantName string          `json:"plant_name"`
	TaskType  domain.TaskType `json:"task_type"`
}

// Dispatcher schedules and cancels slot-addressed reminders. Scheduling into
// an occupied slot replaces the previous reminder; cancelling an empty slot
// is a no-op.
type Dispatcher interface {
	Schedule(ctx context.Context, slot int, fireAt time.Time, payload Payload) error
	Cancel(ctx context.Context, slot int) error
}

// ErrInvalidSlot is returned for slot identifiers outside the platform range.
var ErrInvalidSlot = errors.New("notify: slot outside platform range")
