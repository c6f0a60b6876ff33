package gokern

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/gokern/internal/clock"
	"github.com/viant/gokern/internal/lock"
	"github.com/viant/gokern/model/buf"
	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/service/bcache"
	"github.com/viant/gokern/service/disk"
	"github.com/viant/gokern/service/scheduler"
	"github.com/viant/gokern/stats"
)

// Runtime represents an assembled kernel runtime
type Runtime struct {
	id     string
	config *Config

	table     *proc.Table
	scheduler *scheduler.Service
	cache     *bcache.Service
	stats     *stats.Stats

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
	wg      sync.WaitGroup
}

// Scheduler returns the MLFQ scheduler.
func (r *Runtime) Scheduler() *scheduler.Service {
	return r.scheduler
}

// Cache returns the buffer cache.
func (r *Runtime) Cache() *bcache.Service {
	return r.cache
}

// Table returns the process table.
func (r *Runtime) Table() *proc.Table {
	return r.table
}

// Start launches the timer goroutine and one scheduling loop per
// configured core. It is idempotent once running.
func (r *Runtime) Start(ctx context.Context) error {
	if r == nil || r.scheduler == nil {
		return fmt.Errorf("runtime not fully initialised – scheduler missing")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	ctx = stats.WithTracker(ctx, r.stats)
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})

	ticks, stopTicker := clock.Ticker(r.config.Scheduler.TickPeriod)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer stopTicker()
		for {
			select {
			case <-ticks:
				r.scheduler.Tick()
			case <-ctx.Done():
				return
			}
		}
	}()

	for core := 0; core < r.config.Scheduler.Cores; core++ {
		r.wg.Add(1)
		go func(core int) {
			defer r.wg.Done()
			_ = r.scheduler.RunCore(ctx, core)
		}(core)
	}

	go func() {
		r.wg.Wait()
		close(r.stopped)
	}()
	return nil
}

// Shutdown stops the timer and the scheduling loops and syncs the buffer
// cache so no dirty block outlives the run.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	cancel, stopped := r.cancel, r.stopped
	r.cancel = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-stopped:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.cache != nil {
		return r.cache.Sync(ctx)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Process operations
// ---------------------------------------------------------------------------

// Spawn creates a process with the initial process as its parent and
// admits it to the top-level queue.
func (r *Runtime) Spawn(ctx context.Context, name string) (*proc.Proc, error) {
	return r.scheduler.Spawn(ctx, name, proc.None)
}

// SpawnChild creates a process with the given parent.
func (r *Runtime) SpawnChild(ctx context.Context, name string, parent *proc.Proc) (*proc.Proc, error) {
	return r.scheduler.Spawn(ctx, name, parent.Index)
}

// Kill marks the process with the given pid for termination.
func (r *Runtime) Kill(ctx context.Context, pid int) error {
	return r.scheduler.Kill(ctx, pid)
}

// Wait blocks until a child of parent exits and returns its pid.
func (r *Runtime) Wait(ctx context.Context, parent *proc.Proc) (int, error) {
	return r.scheduler.Wait(ctx, parent)
}

// SetPriority adjusts the bottom-level priority of the given pid.
func (r *Runtime) SetPriority(pid, priority int) error {
	return r.scheduler.SetPriority(pid, priority)
}

// Pin grants the running process a preemption-suppressing tick budget.
func (r *Runtime) Pin(ctx context.Context, p *proc.Proc, ticks int) error {
	return r.scheduler.Pin(ctx, p, ticks)
}

// Unpin releases the self-pin token early.
func (r *Runtime) Unpin(p *proc.Proc) {
	r.scheduler.Unpin(p)
}

// Sleep parks p on the given wait channel, releasing lk while parked.
func (r *Runtime) Sleep(ctx context.Context, p *proc.Proc, channel any, lk *lock.Spin) {
	r.scheduler.Sleep(ctx, p, channel, lk)
}

// Wakeup makes every process sleeping on the given channel runnable.
func (r *Runtime) Wakeup(ctx context.Context, channel any) int {
	return r.scheduler.Wakeup(ctx, channel)
}

// ---------------------------------------------------------------------------
// Buffer cache operations
// ---------------------------------------------------------------------------

// Read returns a referenced, payload-locked buffer holding the block's
// current content.
func (r *Runtime) Read(ctx context.Context, device, blockno int) (*buf.Buf, error) {
	return r.cache.Read(ctx, device, blockno)
}

// Write marks the held buffer dirty and writes it through to its device.
func (r *Runtime) Write(ctx context.Context, b *buf.Buf) error {
	return r.cache.Write(ctx, b)
}

// Release drops the caller's reference and payload lock.
func (r *Runtime) Release(b *buf.Buf) {
	r.cache.Release(b)
}

// Sync flushes every dirty buffer to the write-ahead log and commits.
func (r *Runtime) Sync(ctx context.Context) error {
	return r.cache.Sync(ctx)
}

// Mount registers a block device under the given number.
func (r *Runtime) Mount(number int, device disk.Device) error {
	return r.cache.Mount(number, device)
}

// Unmount syncs and detaches the device with the given number.
func (r *Runtime) Unmount(ctx context.Context, number int) error {
	return r.cache.Unmount(ctx, number)
}
