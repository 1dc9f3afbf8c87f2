// Package procpool is a persistent-worker pool: it keeps a bounded set
// of long-lived child processes running locally and hands them out to
// callers on demand, reusing an idle worker that already matches a
// requested configuration or spawning a fresh one, evicting the
// least-recently-used idle worker when at capacity. See SPEC_FULL.md
// for the full design this package implements.
package procpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flywheel-systems/procpool/internal/blobstore"
	"github.com/flywheel-systems/procpool/internal/blocking"
	"github.com/flywheel-systems/procpool/internal/fingerprint"
	"github.com/flywheel-systems/procpool/internal/gc"
	"github.com/flywheel-systems/procpool/internal/metrics"
	"github.com/flywheel-systems/procpool/internal/namedcache"
	"github.com/flywheel-systems/procpool/internal/plog"
)

// Config configures a Pool. The pool's collaborators (blob store,
// named-cache manager, background executor) are not configurable here:
// New builds its own under WorkdirBase; only the executor's size is set,
// through BlockingPoolSize.
type Config struct {
	// WorkdirBase is the directory under which every worker's own
	// workdir, and every clear() garbage directory, is created.
	WorkdirBase string

	// Capacity is the maximum number of slots the pool's table holds at
	// once. Must be >= 1.
	Capacity int

	// BlockingPoolSize bounds the goroutines backing the pool's
	// background executor for filesystem work (internal/blocking).
	BlockingPoolSize int

	// GarbageGracePeriod is how long internal/gc waits before sweeping
	// a garbage directory whose background deletion never reported
	// back.
	GarbageGracePeriod time.Duration

	// PortReadTimeout bounds how long startNew waits for a spawned
	// child to advertise its port, 0 meaning no timeout.
	PortReadTimeout time.Duration
}

// Pool is a bounded, fingerprint-indexed table of worker slots
// (spec.md §3, §4.5). The zero value is not usable; construct with New.
type Pool struct {
	workdirBase     string
	capacity        int
	portReadTimeout time.Duration

	store     *blobstore.Store
	cacheMgr  *namedcache.Manager
	executor  *blocking.Executor
	gcTracker *gc.Tracker

	mu    sync.Mutex
	slots []*slot
}

// New builds a Pool rooted at cfg.WorkdirBase, creating its CAS,
// named-cache, and workdir directories as needed.
func New(cfg Config) (*Pool, error) {
	if cfg.Capacity < 1 {
		return nil, fmt.Errorf("procpool: capacity must be >= 1, got %d", cfg.Capacity)
	}
	if cfg.WorkdirBase == "" {
		return nil, fmt.Errorf("procpool: workdir base must not be empty")
	}
	if cfg.BlockingPoolSize < 1 {
		cfg.BlockingPoolSize = cfg.Capacity
	}
	if cfg.GarbageGracePeriod <= 0 {
		cfg.GarbageGracePeriod = 5 * time.Minute
	}

	store, err := blobstore.New(cfg.WorkdirBase)
	if err != nil {
		return nil, fmt.Errorf("procpool: %w", err)
	}
	cacheMgr, err := namedcache.New(cfg.WorkdirBase)
	if err != nil {
		return nil, fmt.Errorf("procpool: %w", err)
	}

	return &Pool{
		workdirBase:     cfg.WorkdirBase,
		capacity:        cfg.Capacity,
		portReadTimeout: cfg.PortReadTimeout,
		store:           store,
		cacheMgr:        cacheMgr,
		executor:        blocking.NewExecutor(cfg.BlockingPoolSize),
		gcTracker:       gc.NewTracker(cfg.GarbageGracePeriod),
		slots:           make([]*slot, 0, cfg.Capacity),
	}, nil
}

// Acquire returns a worker matching spec, reusing an idle worker with a
// matching fingerprint if one is alive, or spawning a fresh one
// otherwise — evicting the least-recently-used idle worker first if the
// table is already at capacity (spec.md §4.5).
//
// Acquire assumes it runs behind an external admission gate of size
// Capacity (spec.md §5): it never queues, and fails with ErrPoolFull if
// asked to spawn while the table is full and no slot is idle.
func (p *Pool) Acquire(ctx context.Context, spec ProcessSpec) (*Borrow, error) {
	start := time.Now()
	defer func() { metrics.AcquireDuration.Observe(time.Since(start).Seconds()) }()

	fp, err := fingerprint.New(spec.Name, fingerprint.Inputs{
		Executable:     spec.Executable,
		Argv:           spec.Args,
		Env:            spec.Env,
		InputTreeHash:  spec.InputFiles.Digest.Hash,
		StartupOptions: spec.StartupOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("procpool: computing fingerprint: %w", err)
	}

	log := plog.WithComponent("pool")

	p.mu.Lock()

	slots, found, ok := findUsable(p.slots, fp)
	p.slots = slots
	if ok {
		p.mu.Unlock()
		p.reportSlotMetrics()
		return p.newBorrow(ctx, found), nil
	}

	if len(p.slots) >= p.capacity {
		idx, ok := findLRUIdle(p.slots)
		if !ok {
			p.mu.Unlock()
			log.Warn().Str("fingerprint", fp.Name).Msg("no idle slot to evict; admission gate was violated")
			return nil, fmt.Errorf("procpool: %w", ErrPoolFull)
		}
		log.Debug().Str("evicted", p.slots[idx].worker.name).Msg("evicting least-recently-used idle worker")
		p.slots = swapRemove(p.slots, idx)
		metrics.WorkersEvictedTotal.Inc()
	}

	w, err := startNew(
		ctx,
		spec.Name,
		spec,
		fp,
		p.workdirBase,
		p.store,
		p.cacheMgr,
		p.executor,
		p.gcTracker,
		p.portReadTimeout,
	)
	if err != nil {
		p.mu.Unlock()
		p.reportSlotMetrics()
		return nil, fmt.Errorf("procpool: %w", err)
	}
	metrics.WorkersSpawnedTotal.Inc()

	newSlot := &slot{fingerprint: fp, lastUsed: time.Now(), worker: w}
	newSlot.mu.Lock() // uncontended: nobody else has seen this slot yet
	p.slots = append(p.slots, newSlot)

	p.mu.Unlock()
	p.reportSlotMetrics()

	return p.newBorrow(ctx, newSlot), nil
}

// Len returns the current slot-table size.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots)
}

// Close evicts every slot (killing its worker) and shuts down the
// pool's background collaborators. Calling Close with outstanding
// borrows is a contract violation: their workers will be killed out
// from under them.
func (p *Pool) Close() {
	plog.WithComponent("pool").Info().Int("slots", p.Len()).Msg("closing pool")

	p.mu.Lock()
	for _, s := range p.slots {
		s.worker.kill()
	}
	p.slots = nil
	p.mu.Unlock()

	p.executor.Close()
	p.gcTracker.Stop()
}

func (p *Pool) reportSlotMetrics() {
	p.mu.Lock()
	n := len(p.slots)
	inUse := 0
	for _, s := range p.slots {
		if !s.mu.TryLock() {
			inUse++
			continue
		}
		s.mu.Unlock()
	}
	p.mu.Unlock()

	metrics.SlotsTotal.Set(float64(n))
	metrics.SlotsInUse.Set(float64(inUse))
}
