// Package blobstore is a minimal content-addressed store: the concrete
// stand-in for the store collaborator that spec.md marks out of scope.
// It materializes a flat tree of named blobs into a worker's workdir by
// digest, the same job store.Store.materialize_directory does in the
// original Pants nailgun pool.
package blobstore

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Digest identifies the content of an input tree. Two trees with equal
// Digest are assumed to have identical content.
type Digest struct {
	Hash [sha256.Size]byte
	Size int64
}

func (d Digest) String() string {
	return fmt.Sprintf("%x", d.Hash)
}

// Tree is a flat description of the files that make up a worker's
// input tree: relative path within the workdir to file content.
type Tree struct {
	Digest Digest
	Files  map[string][]byte
}

// DigestTree computes the Digest for a Tree's contents, in path order,
// so that two Trees with identical file contents hash identically.
func DigestTree(files map[string][]byte) Digest {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	h := sha256.New()
	var size int64
	for _, p := range paths {
		content := files[p]
		fmt.Fprintf(h, "%s\x00", p)
		h.Write(content)
		size += int64(len(content))
	}

	var d Digest
	copy(d.Hash[:], h.Sum(nil))
	d.Size = size
	return d
}

// Store is a local, disk-backed content-addressed blob store. Blobs are
// kept under base/.cas/<sha256-hex>.
type Store struct {
	base string
}

// New returns a Store rooted at base, creating its CAS directory.
func New(base string) (*Store, error) {
	casDir := filepath.Join(base, ".cas")
	if err := os.MkdirAll(casDir, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: creating cas dir: %w", err)
	}
	return &Store{base: base}, nil
}

// Put writes content into the CAS, keyed by its own digest.
func (s *Store) Put(content []byte) (Digest, error) {
	sum := sha256.Sum256(content)
	d := Digest{Hash: sum, Size: int64(len(content))}
	path := s.blobPath(d)
	if _, err := os.Stat(path); err == nil {
		return d, nil // already present
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return Digest{}, fmt.Errorf("blobstore: writing blob %s: %w", d, err)
	}
	return d, nil
}

func (s *Store) blobPath(d Digest) string {
	return filepath.Join(s.base, ".cas", d.String())
}

// MaterializeDirectory writes every file in tree into workdir, hardlinking
// from the CAS where possible and falling back to a copy (e.g. across
// filesystems) otherwise. Used exactly once per worker, before spawn.
func (s *Store) MaterializeDirectory(workdir string, tree Tree) error {
	paths := make([]string, 0, len(tree.Files))
	for p := range tree.Files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, relPath := range paths {
		content := tree.Files[relPath]
		sum := sha256.Sum256(content)
		d := Digest{Hash: sum, Size: int64(len(content))}
		if _, err := s.Put(content); err != nil {
			return err
		}

		dst := filepath.Join(workdir, relPath)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("blobstore: creating parent of %s: %w", relPath, err)
		}

		src := s.blobPath(d)
		if err := os.Link(src, dst); err != nil {
			if copyErr := copyFile(src, dst); copyErr != nil {
				return fmt.Errorf("blobstore: materializing %s: link failed (%v), copy failed (%w)", relPath, err, copyErr)
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
