// Package workdir implements the per-worker directory lifecycle:
// allocation, input materialization, and the rename-then-background-
// delete "clear" operation spec.md §4.2 describes. The rename is kept
// on the hot path (so the caller sees an empty directory immediately);
// the actual recursive delete is hustled off onto the background
// executor, with internal/gc tracking it as a safety net.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flywheel-systems/procpool/internal/blobstore"
	"github.com/flywheel-systems/procpool/internal/blocking"
	"github.com/flywheel-systems/procpool/internal/gc"
	"github.com/flywheel-systems/procpool/internal/namedcache"
	"github.com/flywheel-systems/procpool/internal/plog"
)

// dirPrefix is the exact prefix the original nailgun pool used for both
// a worker's own workdir and clear()'s sibling garbage directory.
const dirPrefix = "process-execution"

// Allocate creates a fresh directory under base with the stable
// process-execution prefix. Used exactly once per worker, before
// materialization.
func Allocate(base string) (string, error) {
	dir, err := os.MkdirTemp(base, dirPrefix)
	if err != nil {
		return "", fmt.Errorf("workdir: allocating under %s: %w", base, err)
	}
	return dir, nil
}

// PrepareAndMaterialize populates dir with tree's input files via store,
// then mounts the named caches, running both on the blocking executor
// since they are filesystem-bound.
func PrepareAndMaterialize(
	dir string,
	tree blobstore.Tree,
	caches []namedcache.Mount,
	store *blobstore.Store,
	cacheMgr *namedcache.Manager,
	exec *blocking.Executor,
) error {
	return exec.SpawnBlocking(func() error {
		if err := store.MaterializeDirectory(dir, tree); err != nil {
			return fmt.Errorf("workdir: materializing inputs into %s: %w", dir, err)
		}
		if err := cacheMgr.Mount(dir, caches); err != nil {
			return fmt.Errorf("workdir: mounting named caches into %s: %w", dir, err)
		}
		return nil
	})
}

// Clear produces an empty dir, observable as such the moment Clear
// returns, without making the caller pay for the recursive unlink: every
// top-level entry of dir is renamed into a sibling garbage directory,
// and the garbage directory's actual deletion is hustled onto exec in
// the background. Deletion errors there are swallowed (best effort) —
// tracker is the backstop that guarantees the directory is eventually
// removed even if that background deletion is itself lost.
func Clear(dir string, exec *blocking.Executor, tracker *gc.Tracker) error {
	parent := filepath.Dir(dir)
	garbage, err := os.MkdirTemp(parent, dirPrefix)
	if err != nil {
		return fmt.Errorf("workdir: creating garbage dir for %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("workdir: reading %s: %w", dir, err)
	}
	for _, entry := range entries {
		src := filepath.Join(dir, entry.Name())
		dst := filepath.Join(garbage, entry.Name())
		if err := os.Rename(src, dst); err != nil {
			return fmt.Errorf("workdir: moving %s to garbage: %w", src, err)
		}
	}

	tracker.Track(garbage)
	exec.Submit(func() {
		if err := os.RemoveAll(garbage); err != nil {
			plog.WithComponent("workdir").Warn().Err(err).
				Str("path", garbage).
				Msg("best-effort garbage directory deletion failed; leaving for safety-net sweep")
			return
		}
		tracker.Forget(garbage)
	})

	return nil
}
