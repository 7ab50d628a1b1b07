package config

import (
	"fmt"
	"sync"
)

// ThreadSlots is a bounded resource pool of integer slot ids in
// [0, MAXNUMTHREADS), modeled directly on first-stage/PARSE/ThreadManager.C:
// a thread parsing a sentence acquires a slot, uses it to index all
// per-thread state (OOV vocabulary extension, deferred-free list, merit
// bucket caches — spec.md §5), and releases it when done. The table itself
// is the only piece of global mutable state in the whole system and is
// guarded by a single mutex held only for the duration of acquire/release.
type ThreadSlots struct {
	mu   sync.Mutex
	free []int
	used map[int]bool
}

// NewThreadSlots creates a pool of n slot ids.
func NewThreadSlots(n int) *ThreadSlots {
	free := make([]int, n)
	for i := range free {
		free[i] = n - 1 - i // pop from the end; order is irrelevant
	}
	return &ThreadSlots{free: free, used: make(map[int]bool, n)}
}

// ErrNoFreeSlot is returned by Acquire when every slot is in use.
var ErrNoFreeSlot = fmt.Errorf("config: no free thread slot")

// Acquire reserves a slot id, blocking callers would instead get
// ErrNoFreeSlot; the spec's concurrency model (§5) has each parsing
// goroutine fail fast rather than queue for a slot.
func (t *ThreadSlots) Acquire() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.free) == 0 {
		return 0, ErrNoFreeSlot
	}
	id := t.free[len(t.free)-1]
	t.free = t.free[:len(t.free)-1]
	t.used[id] = true
	return id, nil
}

// Release returns a slot id to the pool.
func (t *ThreadSlots) Release(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.used[id] {
		return
	}
	delete(t.used, id)
	t.free = append(t.free, id)
}

// Guard acquires a slot and returns a release function, for scoped use:
//
//	slot, release, err := slots.Guard()
//	if err != nil { return err }
//	defer release()
func (t *ThreadSlots) Guard() (slot int, release func(), err error) {
	slot, err = t.Acquire()
	if err != nil {
		return 0, func() {}, err
	}
	return slot, func() { t.Release(slot) }, nil
}

// InUse reports how many slots are currently checked out.
func (t *ThreadSlots) InUse() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.used)
}
