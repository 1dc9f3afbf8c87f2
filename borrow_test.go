package procpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestReleaseReturnsWorkerToIdlePopulation(t *testing.T) {
	p := newTestPool(t, 1)
	b, err := p.Acquire(context.Background(), portScript(4301))
	require.NoError(t, err)

	require.NoError(t, b.Release())

	_, err = b.Port()
	assert.ErrorIs(t, err, ErrAlreadyReleased)
}

func TestDoubleReleaseFails(t *testing.T) {
	p := newTestPool(t, 1)
	b, err := p.Acquire(context.Background(), portScript(4302))
	require.NoError(t, err)

	require.NoError(t, b.Release())
	assert.ErrorIs(t, b.Release(), ErrAlreadyReleased)
}

func TestCancelKillsWorker(t *testing.T) {
	defer goleak.VerifyNone(t)
	p := newTestPoolDirect(t, 1)
	defer p.Close()
	b, err := p.Acquire(context.Background(), portScript(4303))
	require.NoError(t, err)
	w := b.slot.worker

	b.Cancel()

	assert.False(t, w.isAlive())
	_, err = b.Port()
	assert.ErrorIs(t, err, ErrAlreadyReleased)
}

func TestContextCancellationCancelsBorrow(t *testing.T) {
	defer goleak.VerifyNone(t)
	p := newTestPoolDirect(t, 1)
	defer p.Close()
	ctx, cancel := context.WithCancel(context.Background())

	b, err := p.Acquire(ctx, portScript(4304))
	require.NoError(t, err)
	w := b.slot.worker

	cancel()

	assert.Eventually(t, func() bool { return !w.isAlive() }, time.Second, 10*time.Millisecond)
}

func TestCancelAfterReleaseIsNoop(t *testing.T) {
	p := newTestPool(t, 1)
	b, err := p.Acquire(context.Background(), portScript(4305))
	require.NoError(t, err)

	require.NoError(t, b.Release())
	assert.NotPanics(t, func() { b.Cancel() })
}
