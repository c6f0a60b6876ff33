package stats

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateAndSnapshot(t *testing.T) {
	tracker := &Stats{KernelID: "run-1"}

	tracker.Update(Delta{Scheduled: 2, CacheHits: 1})
	tracker.Update(Delta{Scheduled: 1, Demoted: 1, DirtyFlushed: 3})

	snapshot := tracker.Snapshot()
	assert.Equal(t, "run-1", snapshot.KernelID)
	assert.Equal(t, 3, snapshot.Scheduled)
	assert.Equal(t, 1, snapshot.CacheHits)
	assert.Equal(t, 1, snapshot.Demoted)
	assert.Equal(t, 3, snapshot.DirtyFlushed)
}

func TestNilTrackerIsNoop(t *testing.T) {
	var tracker *Stats
	assert.NotPanics(t, func() { tracker.Update(Delta{Scheduled: 1}) })
}

func TestConcurrentUpdates(t *testing.T) {
	tracker := &Stats{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				tracker.Update(Delta{CacheMisses: 1})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 4000, tracker.Snapshot().CacheMisses)
}

func TestOnChangeCallback(t *testing.T) {
	tracker := &Stats{}
	var seen []int
	tracker.OnChange(func(s Stats) { seen = append(seen, s.Evictions) })

	tracker.Update(Delta{Evictions: 1})
	tracker.Update(Delta{Evictions: 1})
	assert.Equal(t, []int{1, 2}, seen)
}

func TestContextHelpers(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	ctx, tracker := WithNewTracker(context.Background(), "run-2", nil)
	assert.Same(t, tracker, FromContext(ctx))
	assert.Equal(t, "run-2", tracker.KernelID)

	other := &Stats{}
	ctx = WithTracker(ctx, other)
	assert.Same(t, other, FromContext(ctx))
}
