// Package gc is a safety net for the garbage directories that
// workdir.Clear renames content into: a TTL-backed tracker, built the
// same way the teacher's WorkerPoolManager tracks worker pools, that
// guarantees a garbage directory is eventually removed even if the
// primary background deletion submitted to internal/blocking never
// runs (executor shutdown mid-flight, a dropped task). spec.md only
// specifies "deletion errors in the background are swallowed (best
// effort)"; this tracker is the supplementary mechanism that makes
// "best effort" actually bounded.
package gc

import (
	"context"
	"os"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/flywheel-systems/procpool/internal/plog"
)

// Tracker remembers garbage directories pending deletion and sweeps any
// still present once their grace period elapses.
type Tracker struct {
	cache *ttlcache.Cache[string, struct{}]
}

// NewTracker builds a Tracker whose entries are swept after grace.
func NewTracker(grace time.Duration) *Tracker {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, struct{}](grace),
	)
	cache.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, item *ttlcache.Item[string, struct{}]) {
		path := item.Key()
		if _, err := os.Stat(path); err == nil {
			if err := os.RemoveAll(path); err != nil {
				plog.WithComponent("gc").Warn().Err(err).Str("path", path).
					Msg("safety-net sweep failed to remove garbage directory")
			}
		}
	})
	go cache.Start()

	return &Tracker{cache: cache}
}

// Track registers a garbage directory for sweeping after the grace
// period, in case its primary background deletion never completes.
func (t *Tracker) Track(path string) {
	t.cache.Set(path, struct{}{}, ttlcache.DefaultTTL)
}

// Forget removes a garbage directory from tracking because it was
// already deleted by its primary background deletion.
func (t *Tracker) Forget(path string) {
	t.cache.Delete(path)
}

// Stop halts the sweep loop. Any directories still tracked are left on
// disk; callers that want a final sweep should call Track's deletions
// through their own shutdown path first.
func (t *Tracker) Stop() {
	t.cache.Stop()
}
