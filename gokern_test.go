package gokern

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/service/scheduler"
)

func TestNewWithDefaults(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)
	assert.NotEmpty(t, srv.ID())

	rt := srv.Runtime()
	require.NotNil(t, rt)
	assert.NotNil(t, rt.Scheduler())
	assert.NotNil(t, rt.Cache())
	assert.Equal(t, 64, rt.Table().Cap())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	config := DefaultConfig()
	config.TableSize = 0
	_, err := New(WithConfig(config))
	assert.Error(t, err)

	config = DefaultConfig()
	config.Cache.ReservedMargin = config.Cache.Capacity
	_, err = New(WithConfig(config))
	assert.Error(t, err)

	config = DefaultConfig()
	config.Scheduler.TickPeriod = 0
	_, err = New(WithConfig(config))
	assert.Error(t, err)
}

func TestKernelReadWriteSync(t *testing.T) {
	srv, err := New(WithID("test-run"))
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()

	b, err := rt.Read(ctx, 0, 12)
	require.NoError(t, err)
	copy(b.Data, "kernel payload")
	require.NoError(t, rt.Write(ctx, b))
	rt.Release(b)

	assert.Equal(t, 1, rt.Cache().DirtyCount())
	require.NoError(t, rt.Sync(ctx))
	assert.Equal(t, 0, rt.Cache().DirtyCount())

	b, err = rt.Read(ctx, 0, 12)
	require.NoError(t, err)
	assert.Equal(t, "kernel payload", string(b.Data[:14]))
	rt.Release(b)
}

func TestKernelStartShutdown(t *testing.T) {
	config := DefaultConfig()
	config.Scheduler.TickPeriod = time.Millisecond

	ran := make(chan int, 16)
	switcher := scheduler.SwitcherFunc(func(ctx context.Context, p *proc.Proc, preempt <-chan struct{}) error {
		select {
		case ran <- p.Pid:
		default:
		}
		select {
		case <-preempt:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	srv, err := New(WithConfig(config), WithSwitcher(switcher))
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()

	require.NoError(t, rt.Start(ctx))
	defer func() { _ = rt.Shutdown(ctx) }()

	p, err := rt.Spawn(ctx, "init")
	require.NoError(t, err)

	select {
	case pid := <-ran:
		assert.Equal(t, p.Pid, pid)
	case <-time.After(time.Second):
		t.Fatal("process never scheduled")
	}

	require.NoError(t, rt.Shutdown(ctx))
}

func TestShutdownSyncsDirtyBuffers(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()

	b, err := rt.Read(ctx, 0, 3)
	require.NoError(t, err)
	require.NoError(t, rt.Write(ctx, b))
	rt.Release(b)
	require.Equal(t, 1, rt.Cache().DirtyCount())

	require.NoError(t, rt.Shutdown(ctx))
	assert.Equal(t, 0, rt.Cache().DirtyCount())
}

func TestSpawnLifecycleThroughFacade(t *testing.T) {
	srv, err := New()
	require.NoError(t, err)
	rt := srv.Runtime()
	ctx := context.Background()

	parent, err := rt.Spawn(ctx, "init")
	require.NoError(t, err)
	child, err := rt.SpawnChild(ctx, "worker", parent)
	require.NoError(t, err)

	require.NoError(t, rt.Kill(ctx, child.Pid))
	assert.True(t, child.Killed)
}

func TestLoadConfig(t *testing.T) {
	ctx := context.Background()
	URL := fmt.Sprintf("mem://localhost/gokern/%v/config.yaml", t.Name())
	data := []byte(`
tableSize: 8
scheduler:
  quantum: [2, 4, 8]
  allotment: [4, 8, 12]
  boostPeriod: 50
  priorityMax: 5
  agingInterval: 5
  cores: 2
cache:
  capacity: 10
  reservedMargin: 2
  blockSize: 128
`)
	require.NoError(t, afs.New().Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)))

	config, err := LoadConfig(ctx, URL)
	require.NoError(t, err)
	assert.Equal(t, 8, config.TableSize)
	assert.Equal(t, [3]int{2, 4, 8}, config.Scheduler.Quantum)
	assert.Equal(t, 50, config.Scheduler.BoostPeriod)
	assert.Equal(t, 2, config.Scheduler.Cores)
	assert.Equal(t, 10, config.Cache.Capacity)
	assert.Equal(t, 128, config.Cache.BlockSize)

	_, err = LoadConfig(ctx, "mem://localhost/gokern/missing.yaml")
	assert.Error(t, err)
}
