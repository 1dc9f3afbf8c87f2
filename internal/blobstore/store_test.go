package blobstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestTreeIsOrderIndependent(t *testing.T) {
	files := map[string][]byte{
		"a.txt": []byte("hello"),
		"b.txt": []byte("world"),
	}
	d1 := DigestTree(files)
	d2 := DigestTree(files)
	assert.Equal(t, d1, d2)
}

func TestDigestTreeChangesWithContent(t *testing.T) {
	d1 := DigestTree(map[string][]byte{"a.txt": []byte("hello")})
	d2 := DigestTree(map[string][]byte{"a.txt": []byte("goodbye")})
	assert.NotEqual(t, d1, d2)
}

func TestPutIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	d1, err := s.Put([]byte("content"))
	require.NoError(t, err)
	d2, err := s.Put([]byte("content"))
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
}

func TestMaterializeDirectoryWritesFiles(t *testing.T) {
	base := t.TempDir()
	s, err := New(base)
	require.NoError(t, err)

	workdir := filepath.Join(base, "work")
	require.NoError(t, os.MkdirAll(workdir, 0o755))

	tree := Tree{Files: map[string][]byte{
		"nested/foo.txt": []byte("bar"),
	}}

	require.NoError(t, s.MaterializeDirectory(workdir, tree))

	got, err := os.ReadFile(filepath.Join(workdir, "nested/foo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bar", string(got))
}
