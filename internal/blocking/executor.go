// Package blocking is the background blocking-task pool that spec.md's
// pool assumes exists for filesystem and process I/O that must not run
// on whatever reactor the caller is using. It is adapted directly from
// the teacher's BaseWorkerPool: the same fixed-size, lazily-grown pool
// of goroutines draining a channel of work, collapsed down to a single
// Submit/SpawnBlocking/Close surface since an Executor here is owned by
// exactly one procpool.Pool for its whole lifetime (no per-key caching,
// no TTL eviction — that discipline lives in internal/gc instead).
package blocking

import (
	"errors"
	"sync"
)

// ErrClosed is returned by SpawnBlocking once the executor has been
// closed; Submit silently drops work in the same case.
var ErrClosed = errors.New("blocking: executor is closed")

// Task is a unit of blocking work.
type Task func()

// Executor runs blocking tasks on a bounded set of goroutines so
// callers never block their own reactor on filesystem or process I/O.
type Executor struct {
	maxSize int
	tasks   chan Task

	mu        sync.Mutex
	spawned   int
	closed    bool
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

// NewExecutor builds an Executor that grows up to maxSize worker
// goroutines as work arrives, mirroring the teacher's spawnWorkers
// lazy-growth policy.
func NewExecutor(maxSize int) *Executor {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Executor{
		maxSize: maxSize,
		tasks:   make(chan Task, maxSize),
		done:    make(chan struct{}),
	}
}

// Submit enqueues a task, spawning an additional worker goroutine on
// each call until maxSize goroutines exist, whether or not one is idle.
// It never blocks the caller beyond the channel send, which waits while
// the queue is full.
func (e *Executor) Submit(t Task) {
	e.maybeSpawn()
	select {
	case e.tasks <- t:
	case <-e.done:
	}
}

// maybeSpawn starts one more worker goroutine unless the executor is
// closed or already at maxSize; it holds mu for the check and increment.
func (e *Executor) maybeSpawn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.spawned >= e.maxSize {
		return
	}
	e.spawned++
	e.wg.Add(1)
	go e.loop()
}

func (e *Executor) loop() {
	defer e.wg.Done()
	for {
		select {
		case task := <-e.tasks:
			task()
		case <-e.done:
			return
		}
	}
}

// SpawnBlocking runs fn on the executor and blocks the caller until it
// completes, returning fn's error. This is the hot path for workdir
// materialization: work that is logically synchronous from the caller's
// perspective but should not run inline on an async reactor.
func (e *Executor) SpawnBlocking(fn func() error) error {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	errCh := make(chan error, 1)
	e.Submit(func() { errCh <- fn() })
	select {
	case err := <-errCh:
		return err
	case <-e.done:
		return ErrClosed
	}
}

// Close stops accepting new work and waits for in-flight tasks to
// finish. Queued-but-not-yet-started tasks are abandoned.
func (e *Executor) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()
		close(e.done)
	})
	e.wg.Wait()
}
