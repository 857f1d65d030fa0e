package notify

import (
	"context"
	"sync"
	"time"

	"plantcore/pkg/domain"
)

// Reminder is one scheduled entry held by the in-memory dispatcher.
type Reminder struct {
	Slot    int
	FireAt  time.Time
	Payload Payload
}

// Memory implements Dispatcher in process memory. Intended for tests and
// ephemeral environments.
type Memory struct {
	mu        sync.RWMutex
	scheduled map[int]Reminder
}

// NewMemory returns an empty in-memory dispatcher.
func NewMemory() *Memory {
	return &Memory{scheduled: make(map[int]Reminder)}
}

// Schedule records the reminder, replacing any prior entry in the slot.
func (m *Memory) Schedule(_ context.Context, slot int, fireAt time.Time, payload Payload) error {
	if slot < 0 || slot >= domain.SlotCeiling {
		return ErrInvalidSlot
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scheduled[slot] = Reminder{Slot: slot, FireAt: fireAt, Payload: payload}
	return nil
}

// Cancel drops the reminder held in slot, if any.
func (m *Memory) Cancel(_ context.Context, slot int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scheduled, slot)
	return nil
}

// Scheduled returns the reminder currently held in slot.
func (m *Memory) Scheduled(slot int) (Reminder, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.scheduled[slot]
	return r, ok
}

// Len reports the number of live reminders.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scheduled)
}

type noop struct{}

// NewNoop returns a dispatcher that accepts and discards everything.
func NewNoop() Dispatcher { return noop{} }

func (noop) Schedule(context.Context, int, time.Time, Payload) error { return nil }
func (noop) Cancel(context.Context, int) error                       { return nil }
