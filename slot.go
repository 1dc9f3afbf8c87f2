package procpool

import (
	"sync"
	"time"

	"github.com/flywheel-systems/procpool/internal/fingerprint"
	"github.com/flywheel-systems/procpool/internal/metrics"
	"github.com/flywheel-systems/procpool/internal/plog"
)

// lruAgeCeiling bounds how far in the future find_lru_idle's initial
// "oldest so far" sentinel sits: spec.md §4.4 notes 24 hours of clock
// skew would be surprising.
const lruAgeCeiling = 24 * time.Hour

// slot is one pool cell: a fingerprint, the last time it was inspected
// for reuse, and an independently lockable worker (spec.md §3). The
// slot's own mutex IS the per-worker exclusive-use lock: holding it
// means the slot is in use, and a held lock can be carried by value
// (handed to a Borrow) past the scope of the pool-wide lock.
type slot struct {
	fingerprint fingerprint.Fingerprint
	lastUsed    time.Time
	mu          sync.Mutex
	worker      *worker
}

type tryUseResult int

const (
	tryUseBusy tryUseResult = iota
	tryUseDead
	tryUseUsable
)

// tryUse makes a non-blocking attempt to lock slot's worker. Callers
// must already hold the pool-wide lock (spec.md §4.4).
//
// On Usable, the slot's lock is left held for the caller (eventually
// handed to a Borrow). On Dead, the lock is released before returning
// so the slot is eligible for pruning.
func tryUse(s *slot) tryUseResult {
	if !s.mu.TryLock() {
		return tryUseBusy
	}

	s.lastUsed = time.Now()

	if s.worker.isAlive() {
		return tryUseUsable
	}

	if !s.worker.exitedBySignal9() {
		plog.WithComponent("pool").Warn().
			Str("name", s.worker.name).
			Msg("worker process exited unexpectedly")
	}

	metrics.WorkersDiedTotal.Inc()
	s.mu.Unlock()
	return tryUseDead
}

// findUsable walks slots looking for the first idle, live worker
// matching fp. Dead matching slots encountered along the way are pruned
// only when no usable match is found; on a match they are left in place
// (spec.md §4.4). Callers must hold the pool-wide lock.
func findUsable(slots []*slot, fp fingerprint.Fingerprint) ([]*slot, *slot, bool) {
	var dead []int
	for i, s := range slots {
		if !s.fingerprint.Equal(fp) {
			continue
		}
		switch tryUse(s) {
		case tryUseUsable:
			// NB: dead slots seen earlier in this scan are left for a
			// future call to prune — we only prune here when the scan
			// runs to completion without finding a live match.
			return slots, s, true
		case tryUseDead:
			dead = append(dead, i)
		case tryUseBusy:
			continue
		}
	}
	return pruneDead(slots, dead), nil, false
}

// pruneDead swap-removes the given indices, killing each one's worker.
// Indices must be in ascending order; they are processed in reverse so
// earlier indices stay valid.
func pruneDead(slots []*slot, indices []int) []*slot {
	for i := len(indices) - 1; i >= 0; i-- {
		slots = swapRemove(slots, indices[i])
	}
	return slots
}

// swapRemove removes slots[idx], killing its worker, by moving the last
// element into idx's place and truncating.
func swapRemove(slots []*slot, idx int) []*slot {
	slots[idx].worker.kill()
	last := len(slots) - 1
	slots[idx] = slots[last]
	slots[last] = nil
	return slots[:last]
}

// findLRUIdle returns the index of the idle slot with the smallest
// last_used, or false if no slot is currently idle. Absence of any idle
// slot when the table is full is a programming error by the caller: it
// means the admission-gate contract (spec.md §5) was violated.
func findLRUIdle(slots []*slot) (int, bool) {
	lruAge := time.Now().Add(lruAgeCeiling)
	idx := -1
	for i, s := range slots {
		if !s.mu.TryLock() {
			continue
		}
		idle := s.lastUsed
		s.mu.Unlock()

		if idx == -1 || idle.Before(lruAge) {
			idx = i
			lruAge = idle
		}
	}
	return idx, idx != -1
}
