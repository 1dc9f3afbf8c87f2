// Package namedcache mounts persistent, shared cache directories into a
// worker's workdir: the concrete stand-in for the named-cache-manager
// collaborator that spec.md marks out of scope. Mounting here means
// symlinking a long-lived host directory into the workdir so repeated
// worker generations of the same fingerprint share downloaded
// artifacts (e.g. a JVM or pip cache) instead of re-fetching them.
package namedcache

import (
	"fmt"
	"os"
	"path/filepath"
)

// Mount names a persistent cache directory and where a worker expects
// to find it relative to its workdir.
type Mount struct {
	Name string
	Dest string
}

// Manager owns the base directory under which named caches live.
type Manager struct {
	base string
}

// New returns a Manager rooted at base, creating it if necessary.
func New(base string) (*Manager, error) {
	dir := filepath.Join(base, ".named-caches")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("namedcache: creating base dir: %w", err)
	}
	return &Manager{base: dir}, nil
}

// Mount symlinks each named cache directory into workdir at its Dest,
// creating the backing directory on first use.
func (m *Manager) Mount(workdir string, mounts []Mount) error {
	for _, mt := range mounts {
		backing := filepath.Join(m.base, mt.Name)
		if err := os.MkdirAll(backing, 0o755); err != nil {
			return fmt.Errorf("namedcache: creating cache %q: %w", mt.Name, err)
		}

		link := filepath.Join(workdir, mt.Dest)
		if err := os.MkdirAll(filepath.Dir(link), 0o755); err != nil {
			return fmt.Errorf("namedcache: preparing mount point for %q: %w", mt.Name, err)
		}
		if err := os.Symlink(backing, link); err != nil {
			return fmt.Errorf("namedcache: mounting %q at %s: %w", mt.Name, mt.Dest, err)
		}
	}
	return nil
}
