package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpin(t *testing.T) {
	var l Spin
	assert.False(t, l.Holding())

	l.Lock()
	assert.True(t, l.Holding())
	l.Unlock()
	assert.False(t, l.Holding())

	// Unlocking a lock that is not held is fatal.
	assert.Panics(t, func() { l.Unlock() })
}

func TestSpinMutualExclusion(t *testing.T) {
	var l Spin
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 8000, counter)
}

func TestSleep(t *testing.T) {
	l := NewSleep()
	ctx := context.Background()

	require.NoError(t, l.Lock(ctx))
	assert.True(t, l.Holding())

	// A second locker blocks until the holder releases.
	acquired := make(chan struct{})
	go func() {
		_ = l.Lock(ctx)
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("lock acquired while held")
	case <-time.After(20 * time.Millisecond):
	}

	l.Unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock never handed over")
	}
	l.Unlock()
}

func TestSleepContextCancel(t *testing.T) {
	l := NewSleep()
	require.NoError(t, l.Lock(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := l.Lock(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	l.Unlock()
	assert.Panics(t, func() { l.Unlock() })
}
