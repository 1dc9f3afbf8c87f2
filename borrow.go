package procpool

import (
	"context"
	"fmt"
	"sync"

	"github.com/flywheel-systems/procpool/internal/plog"
	"github.com/flywheel-systems/procpool/internal/workdir"
)

// Borrow is a scoped, exclusive loan of a worker to a caller (spec.md
// §3, §4.6). It ends one of two ways: Release, returning the worker to
// the idle population after clearing its workdir, or Cancel (or the
// owning context being cancelled), which kills the worker and leaves
// the pool to notice and prune it on the next reuse attempt.
type Borrow struct {
	pool *Pool
	slot *slot

	mu        sync.Mutex
	released  bool
	cancelled bool
	done      chan struct{}
}

// newBorrow wraps an already-locked slot. ctx is watched for the
// duration of the borrow: if it's cancelled before Release is called,
// the borrow is cancelled on the caller's behalf, same as an awaiting
// caller being dropped mid-use (spec.md §5 "Cancellation").
func (p *Pool) newBorrow(ctx context.Context, s *slot) *Borrow {
	b := &Borrow{pool: p, slot: s, done: make(chan struct{})}
	go func() {
		select {
		case <-ctx.Done():
			b.Cancel()
		case <-b.done:
		}
	}()
	return b
}

// Name returns the worker's name.
func (b *Borrow) Name() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || b.cancelled {
		return "", ErrAlreadyReleased
	}
	return b.slot.worker.name, nil
}

// Port returns the TCP port the worker advertised on startup.
func (b *Borrow) Port() (uint16, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || b.cancelled {
		return 0, ErrAlreadyReleased
	}
	return b.slot.worker.port, nil
}

// Address returns the loopback address clients should speak to:
// 127.0.0.1:port (spec.md §6; no IPv6, no remote binding).
func (b *Borrow) Address() (string, error) {
	port, err := b.Port()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("127.0.0.1:%d", port), nil
}

// WorkdirPath returns the worker's workdir.
func (b *Borrow) WorkdirPath() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released || b.cancelled {
		return "", ErrAlreadyReleased
	}
	return b.slot.worker.dir, nil
}

// Release clears the worker's workdir and returns it to the pool's idle
// population. Calling Release a second time, or after Cancel, is a
// contract violation and reports ErrAlreadyReleased.
//
// If clearing the workdir fails, the borrow remains held and the slot
// stays occupied — it is the caller's choice whether to retry Release
// or abandon the borrow via Cancel (spec.md §7 WorkdirCleanupFailed).
func (b *Borrow) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.released || b.cancelled {
		return ErrAlreadyReleased
	}

	w := b.slot.worker
	if err := workdir.Clear(w.dir, b.pool.executor, b.pool.gcTracker); err != nil {
		return fmt.Errorf("procpool: release: %w", err)
	}

	b.released = true
	close(b.done)
	b.slot.mu.Unlock()
	b.pool.reportSlotMetrics()
	return nil
}

// Cancel abandons the borrow without releasing: the worker's child is
// killed immediately. The pool will notice it is dead the next time it
// is scanned for reuse and prune the slot (spec.md §4.6). Calling
// Cancel after Release, or twice, is a no-op.
func (b *Borrow) Cancel() {
	b.mu.Lock()
	if b.released || b.cancelled {
		b.mu.Unlock()
		return
	}
	b.cancelled = true
	close(b.done)
	b.mu.Unlock()

	plog.WithComponent("pool").Debug().Str("name", b.slot.worker.name).
		Msg("killing worker due to cancellation")
	b.slot.worker.kill()
	b.slot.mu.Unlock()
	b.pool.reportSlotMetrics()
}
