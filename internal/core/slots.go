package core

import (
	"sync"

	"plantcore/pkg/domain"
)

// SlotAllocator issues reusable small integer identifiers for scheduled
// reminders, bounded by the host notification subsystem's ceiling. Allocate
// always returns the smallest unused identifier, which keeps behaviour
// deterministic and testable.
type SlotAllocator struct {
	mu      sync.Mutex
	ceiling int
	held    map[int]struct{}
}

// NewSlotAllocator constructs an allocator with the given ceiling. A
// non-positive ceiling falls back to domain.SlotCeiling.
func NewSlotAllocator(ceiling int) *SlotAllocator {
	if ceiling <= 0 {
		ceiling = domain.SlotCeiling
	}
	return &SlotAllocator{
		ceiling: ceiling,
		held:    make(map[int]struct{}),
	}
}

// Allocate reserves the smallest unused slot below the ceiling.
func (a *SlotAllocator) Allocate() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id := 0; id < a.ceiling; id++ {
		if _, taken := a.held[id]; !taken {
			a.held[id] = struct{}{}
			return id, nil
		}
	}
	return 0, domain.ErrSlotsExhausted
}

// Release returns a slot to the pool, making it immediately reusable.
// Releasing an identifier that is not held is a no-op.
func (a *SlotAllocator) Release(id int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.held, id)
}

// Reserve marks a specific slot as held, used when rehydrating tasks from a
// persisted snapshot. Out-of-range identifiers are ignored.
func (a *SlotAllocator) Reserve(id int) {
	if id < 0 || id >= a.ceiling {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.held[id] = struct{}{}
}

// Held reports the number of currently reserved slots.
func (a *SlotAllocator) Held() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}
