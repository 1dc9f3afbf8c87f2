package blocking

import (
	"errors"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnBlockingReturnsResult(t *testing.T) {
	defer leaktest.Check(t)()
	e := NewExecutor(2)
	defer e.Close()

	err := e.SpawnBlocking(func() error { return nil })
	assert.NoError(t, err)

	sentinel := errors.New("boom")
	err = e.SpawnBlocking(func() error { return sentinel })
	assert.Equal(t, sentinel, err)
}

func TestExecutorDoesNotExceedMaxSize(t *testing.T) {
	defer leaktest.Check(t)()
	e := NewExecutor(3)
	defer e.Close()

	release := make(chan struct{})
	for i := 0; i < 10; i++ {
		// Submit blocks once the queue is full, so submit from goroutines.
		go e.Submit(func() {
			<-release
		})
	}
	time.Sleep(50 * time.Millisecond)

	e.mu.Lock()
	spawned := e.spawned
	e.mu.Unlock()
	assert.LessOrEqual(t, spawned, 3)

	close(release)
}

func TestSpawnBlockingAfterCloseFails(t *testing.T) {
	defer leaktest.Check(t)()
	e := NewExecutor(1)
	e.Close()

	err := e.SpawnBlocking(func() error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}
