package bcache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dmemory "github.com/viant/gokern/service/disk/memory"
)

func TestMountRejectsDuplicates(t *testing.T) {
	s, _, _ := newTestCache(t, 3, 1)
	device := dmemory.New(dmemory.Config{BlockSize: 64})

	assert.Error(t, s.Mount(0, device), "device 0 mounted by the test harness")
	assert.NoError(t, s.Mount(1, device))
	assert.Error(t, s.Mount(1, device))
	assert.Error(t, s.Mount(2, nil))
}

func TestUnmountSyncsAndInvalidates(t *testing.T) {
	s, _, log := newTestCache(t, 3, 1)
	ctx := context.Background()

	dirtyBlock(t, s, 5, "bye")
	require.NoError(t, s.Unmount(ctx, 0))

	assert.Equal(t, 0, s.DirtyCount(), "unmount flushes dirty blocks first")
	assert.Len(t, log.Committed(), 1)

	_, err := s.Read(ctx, 0, 5)
	assert.Error(t, err, "reads fail once the device is gone")

	assert.Error(t, s.Unmount(ctx, 0), "double unmount")
}

func TestUnmountFailsWhileReferenced(t *testing.T) {
	s, _, _ := newTestCache(t, 3, 1)
	ctx := context.Background()

	b, err := s.Acquire(ctx, 0, 5)
	require.NoError(t, err)
	assert.Error(t, s.Unmount(ctx, 0))
	s.Release(b)

	assert.NoError(t, s.Unmount(ctx, 0))
}

func TestInvalidateSkipsReferencedAndDirty(t *testing.T) {
	s, _, _ := newTestCache(t, 3, 1)
	ctx := context.Background()

	held, err := s.Read(ctx, 0, 1)
	require.NoError(t, err)

	dirtyBlock(t, s, 2, "keep")

	clean, err := s.Read(ctx, 0, 3)
	require.NoError(t, err)
	s.Release(clean)

	s.Invalidate(0)

	assert.True(t, held.Valid, "referenced buffer untouched")
	s.Release(held)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.bufs {
		b := s.bufs[i]
		switch {
		case b.Key(0, 2):
			assert.True(t, b.Dirty, "dirty buffer kept its identity")
		case b.Key(0, 3):
			t.Error("clean unreferenced buffer should have been invalidated")
		}
	}
}
