package namedcache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMountSymlinksBackingDir(t *testing.T) {
	base := t.TempDir()
	m, err := New(base)
	require.NoError(t, err)

	workdir := t.TempDir()
	require.NoError(t, m.Mount(workdir, []Mount{{Name: "jdk", Dest: ".cache/jdk"}}))

	link := filepath.Join(workdir, ".cache/jdk")
	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, ".named-caches", "jdk"), target)
}

func TestMountSharesBackingDirAcrossWorkdirs(t *testing.T) {
	base := t.TempDir()
	m, err := New(base)
	require.NoError(t, err)

	workdirA, workdirB := t.TempDir(), t.TempDir()
	require.NoError(t, m.Mount(workdirA, []Mount{{Name: "pip", Dest: "cache"}}))
	require.NoError(t, m.Mount(workdirB, []Mount{{Name: "pip", Dest: "cache"}}))

	require.NoError(t, os.WriteFile(filepath.Join(workdirA, "cache", "pkg.whl"), []byte("x"), 0o644))

	got, err := os.ReadFile(filepath.Join(workdirB, "cache", "pkg.whl"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}
