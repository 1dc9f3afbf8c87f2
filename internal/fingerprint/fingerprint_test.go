package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsDeterministic(t *testing.T) {
	in := Inputs{
		Executable:     "/usr/bin/java",
		Argv:           []string{"-cp", "foo.jar"},
		Env:            map[string]string{"B": "2", "A": "1"},
		StartupOptions: []string{"jdk11"},
	}

	a, err := New("jvm", in)
	require.NoError(t, err)
	b, err := New("jvm", in)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestEnvOrderDoesNotAffectDigest(t *testing.T) {
	a, err := New("jvm", Inputs{Env: map[string]string{"A": "1", "B": "2"}})
	require.NoError(t, err)
	b, err := New("jvm", Inputs{Env: map[string]string{"B": "2", "A": "1"}})
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
}

func TestChangingArgvChangesDigest(t *testing.T) {
	a, err := New("jvm", Inputs{Argv: []string{"-cp", "foo.jar"}})
	require.NoError(t, err)
	b, err := New("jvm", Inputs{Argv: []string{"-cp", "bar.jar"}})
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
}

func TestDifferentNamesNeverEqual(t *testing.T) {
	in := Inputs{Executable: "/usr/bin/java"}
	a, err := New("jvm-a", in)
	require.NoError(t, err)
	b, err := New("jvm-b", in)
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
}

func TestChangingInputTreeHashChangesDigest(t *testing.T) {
	a, err := New("jvm", Inputs{InputTreeHash: [32]byte{1}})
	require.NoError(t, err)
	b, err := New("jvm", Inputs{InputTreeHash: [32]byte{2}})
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
}
