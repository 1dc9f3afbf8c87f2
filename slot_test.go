package procpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flywheel-systems/procpool/internal/fingerprint"
)

func newTestWorker(t *testing.T, port int) *worker {
	t.Helper()
	base, store, cacheMgr, exec, tracker := newTestCollaborators(t)
	spec := portScript(port)
	fp, err := fingerprint.New(spec.Name, fingerprint.Inputs{})
	require.NoError(t, err)

	w, err := startNew(context.Background(), spec.Name, spec, fp, base, store, cacheMgr, exec, tracker, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(w.kill)
	return w
}

func TestTryUseBusyWhenLocked(t *testing.T) {
	w := newTestWorker(t, 4201)
	s := &slot{worker: w}
	s.mu.Lock()
	defer s.mu.Unlock()

	assert.Equal(t, tryUseBusy, tryUse(s))
}

func TestTryUseUsableLeavesLockHeld(t *testing.T) {
	w := newTestWorker(t, 4202)
	s := &slot{worker: w}

	assert.Equal(t, tryUseUsable, tryUse(s))
	assert.False(t, s.mu.TryLock())
	s.mu.Unlock()
}

func TestTryUseDeadUnlocksAndReports(t *testing.T) {
	w := newTestWorker(t, 4203)
	w.kill()
	s := &slot{worker: w}

	assert.Equal(t, tryUseDead, tryUse(s))
	assert.True(t, s.mu.TryLock())
}

func TestFindUsableReturnsLiveMatchWithoutPruningEarlierDead(t *testing.T) {
	dead := newTestWorker(t, 4204)
	dead.kill()
	live := newTestWorker(t, 4205)

	fp, err := fingerprint.New("shared", fingerprint.Inputs{})
	require.NoError(t, err)

	slots := []*slot{
		{fingerprint: fp, worker: dead},
		{fingerprint: fp, worker: live},
	}

	remaining, found, ok := findUsable(slots, fp)
	assert.True(t, ok)
	assert.Same(t, live, found.worker)
	// Dead entries seen before the live match are left for a future scan.
	assert.Len(t, remaining, 2)
	found.mu.Unlock()
}

func TestFindUsablePrunesDeadWhenNoMatch(t *testing.T) {
	dead := newTestWorker(t, 4206)
	dead.kill()

	fp, err := fingerprint.New("a", fingerprint.Inputs{})
	require.NoError(t, err)

	slots := []*slot{{fingerprint: fp, worker: dead}}
	remaining, _, ok := findUsable(slots, fp)
	assert.False(t, ok)
	assert.Empty(t, remaining)
}

func TestFindLRUIdlePicksOldest(t *testing.T) {
	w1 := newTestWorker(t, 4207)
	w2 := newTestWorker(t, 4208)

	older := &slot{worker: w1, lastUsed: time.Now().Add(-time.Hour)}
	newer := &slot{worker: w2, lastUsed: time.Now()}

	idx, ok := findLRUIdle([]*slot{newer, older})
	require.True(t, ok)
	assert.Same(t, older, []*slot{newer, older}[idx])
}

func TestFindLRUIdleSkipsBusySlots(t *testing.T) {
	w := newTestWorker(t, 4209)
	s := &slot{worker: w}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := findLRUIdle([]*slot{s})
	assert.False(t, ok)
}
