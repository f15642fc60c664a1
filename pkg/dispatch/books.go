package dispatch

import "sync"

// books is the coordinator's per-zone assignment ledger: how many units each
// burning zone needs, how many are currently committed, and a memoised
// fully-assigned mark. Every method is a short critical section with no I/O.
type books struct {
	mu            sync.Mutex
	required      map[int]int
	assigned      map[int]int
	fullyAssigned map[int]struct{}
}

func newBooks() *books {
	return &books{
		required:      make(map[int]int),
		assigned:      make(map[int]int),
		fullyAssigned: make(map[int]struct{}),
	}
}

// raiseRequired grows a zone's requirement monotonically while its fire is
// active, and returns the effective requirement.
func (b *books) raiseRequired(zoneID, required int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if required > b.required[zoneID] {
		b.required[zoneID] = required
	}
	return b.required[zoneID]
}

// clampRequired lowers a zone's requirement to at most max.
func (b *books) clampRequired(zoneID, max int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.required[zoneID] > max {
		b.required[zoneID] = max
	}
	return b.required[zoneID]
}

func (b *books) requiredFor(zoneID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.required[zoneID]
}

func (b *books) assignedFor(zoneID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.assigned[zoneID]
}

// setAssigned rewrites a zone's assigned count from a live recount and
// refreshes the fully-assigned mark against the current requirement.
func (b *books) setAssigned(zoneID, count int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assigned[zoneID] = count
	b.refreshMarkLocked(zoneID)
}

// incAssigned pre-commits one more unit to a zone and returns the new count.
func (b *books) incAssigned(zoneID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assigned[zoneID]++
	b.refreshMarkLocked(zoneID)
	return b.assigned[zoneID]
}

// decAssigned releases one unit from a zone, floored at zero.
func (b *books) decAssigned(zoneID int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.assigned[zoneID] > 0 {
		b.assigned[zoneID]--
	}
	b.refreshMarkLocked(zoneID)
	return b.assigned[zoneID]
}

// markFully memoises that a zone needs no further dispatch.
func (b *books) markFully(zoneID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fullyAssigned[zoneID] = struct{}{}
}

func (b *books) isFully(zoneID int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.fullyAssigned[zoneID]
	return ok
}

// refreshMarkLocked keeps the invariant: marked iff assigned >= required > 0.
func (b *books) refreshMarkLocked(zoneID int) {
	req := b.required[zoneID]
	if req > 0 && b.assigned[zoneID] >= req {
		b.fullyAssigned[zoneID] = struct{}{}
	} else {
		delete(b.fullyAssigned, zoneID)
	}
}

// forget erases every record for a zone; used on fire-out and cleanup.
func (b *books) forget(zoneID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.required, zoneID)
	delete(b.assigned, zoneID)
	delete(b.fullyAssigned, zoneID)
}

// snapshot returns copies of the ledger maps for display.
func (b *books) snapshot() (required, assigned map[int]int, fully map[int]bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	required = make(map[int]int, len(b.required))
	assigned = make(map[int]int, len(b.assigned))
	fully = make(map[int]bool, len(b.fullyAssigned))
	for k, v := range b.required {
		required[k] = v
	}
	for k, v := range b.assigned {
		assigned[k] = v
	}
	for k := range b.fullyAssigned {
		fully[k] = true
	}
	return required, assigned, fully
}
