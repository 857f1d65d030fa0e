// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by plantcore.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityRoom identifies a room record.
	EntityRoom EntityType = "room"
	// EntityPlant identifies a plant record.
	EntityPlant EntityType = "plant"
	// EntityTask identifies a care task record nested under a plant.
	EntityTask EntityType = "task"
	// EntityImage identifies a plant image record.
	EntityImage EntityType = "image"
	// EntityUser identifies a cached user profile record.
	EntityUser EntityType = "user"
)

// TaskType enumerates the recurring care task kinds tracked per plant.
type TaskType string

// Canonical care task types recognised by the scheduling engine.
const (
	TaskWatering    TaskType = "watering"
	TaskFertilizing TaskType = "fertilizing"
	TaskRepotting   TaskType = "repotting"
	TaskMisting     TaskType = "misting"
	TaskCustom      TaskType = "custom"
)

// CascadePolicy selects how member plants are handled when their room is deleted.
type CascadePolicy string

// Room deletion cascade policies.
const (
	// CascadeDeletePlants deletes every member plant before removing the room.
	CascadeDeletePlants CascadePolicy = "delete_plants"
	// CascadeDetachPlants unassigns every member plant, leaving it roomless.
	CascadeDetachPlants CascadePolicy = "detach_plants"
)

// SlotCeiling is the maximum number of concurrently scheduled reminders the
// host notification subsystem accepts. Slot identifiers are always < SlotCeiling.
const SlotCeiling = 64

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Room groups plants and carries a bounded preview derived from member images.
type Room struct {
	Base
	Name string `json:"name"`
	// PlantIDs holds member plant identifiers in insertion order. Every entry
	// must reference an existing plant whose RoomID equals this room's ID.
	PlantIDs []string       `json:"plant_ids"`
	Preview  []PreviewImage `json:"preview"`
}

// PreviewImage is one entry of a room's derived preview list.
type PreviewImage struct {
	PlantID string    `json:"plant_id"`
	ImageID string    `json:"image_id"`
	URL     string    `json:"url"`
	TakenAt time.Time `json:"taken_at"`
}

// CareSettings bundles the recurrence rules configured per task type.
type CareSettings struct {
	Intervals map[TaskType]time.Duration `json:"intervals"`
}

// Interval returns the configured recurrence interval for the given task type.
func (c CareSettings) Interval(t TaskType) (time.Duration, bool) {
	d, ok := c.Intervals[t]
	return d, ok
}

// Plant represents a tracked houseplant. RoomID is nil while unassigned; at
// most one room lists a given plant.
type Plant struct {
	Base
	Name     string            `json:"name"`
	Settings CareSettings      `json:"settings"`
	RoomID   *string           `json:"room_id"`
	Tasks    map[TaskType]Task `json:"tasks"`
	Images   []PlantImage      `json:"images"`
}

// PlantImage records an uploaded photo of a plant.
type PlantImage struct {
	ID      string    `json:"id"`
	URL     string    `json:"url"`
	TakenAt time.Time `json:"taken_at"`
}

// TaskPeriod is one active {start, due} interval of a recurring task. Periods
// are immutable values: advancing a task replaces the period, never mutates it.
type TaskPeriod struct {
	Start     time.Time `json:"start"`
	Due       time.Time `json:"due"`
	Completed bool      `json:"completed"`
}

// Task is a recurring care task owned by a plant. NotificationSlot is present
// only while a due-date reminder is scheduled.
type Task struct {
	ID               string        `json:"id"`
	PlantID          string        `json:"plant_id"`
	Type             TaskType      `json:"type"`
	Period           TaskPeriod    `json:"period"`
	Interval         time.Duration `json:"interval"`
	NotificationSlot *int          `json:"notification_slot"`
}

// UserProfile is the signed-in user's cached profile stored in the local
// key-value store.
type UserProfile struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
