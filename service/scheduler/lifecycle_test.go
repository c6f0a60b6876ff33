package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/gokern/internal/lock"
	"github.com/viant/gokern/model/proc"
)

func TestSleepWakeup(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := spawn(t, s, "reader")
	require.Same(t, p, s.Next(0))

	var guard lock.Spin
	guard.Lock()
	s.Sleep(ctx, p, "disk:17", &guard)
	assert.True(t, guard.Holding(), "sleep reacquires the caller's lock")
	guard.Unlock()

	assert.Equal(t, proc.StateSleeping, p.State)
	assert.False(t, p.Enqueued)
	assert.Nil(t, s.Next(0))

	// A wakeup on a different channel is a no-op.
	assert.Equal(t, 0, s.Wakeup(ctx, "disk:18"))
	assert.Equal(t, proc.StateSleeping, p.State)

	assert.Equal(t, 1, s.Wakeup(ctx, "disk:17"))
	assert.Equal(t, proc.StateRunnable, p.State)
	assert.Same(t, p, s.Next(0))
}

func TestWakeupWakesAllSleepersOnChannel(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	var guard lock.Spin

	var sleepers []*proc.Proc
	for _, name := range []string{"a", "b", "c"} {
		p := spawn(t, s, name)
		require.Same(t, p, s.Next(0))
		guard.Lock()
		s.Sleep(ctx, p, "barrier", &guard)
		guard.Unlock()
		sleepers = append(sleepers, p)
	}

	assert.Equal(t, 3, s.Wakeup(ctx, "barrier"))
	for _, p := range sleepers {
		assert.Equal(t, proc.StateRunnable, p.State)
		assert.True(t, p.Enqueued)
	}
}

func TestKillWakesSleepingVictim(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	p := spawn(t, s, "victim")
	require.Same(t, p, s.Next(0))

	var guard lock.Spin
	guard.Lock()
	s.Sleep(ctx, p, "pipe", &guard)
	guard.Unlock()

	require.NoError(t, s.Kill(ctx, p.Pid))
	assert.True(t, p.Killed)
	assert.Equal(t, proc.StateRunnable, p.State, "killed sleeper becomes runnable to reach its unwind point")

	assert.Error(t, s.Kill(ctx, 999))
}

func TestExitAndWait(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	parent := spawn(t, s, "init")
	child, err := s.Spawn(ctx, "worker", parent.Index)
	require.NoError(t, err)

	require.Same(t, parent, s.Next(0))

	// Child runs and exits on a second core's behalf.
	s.table.Lock()
	s.remove(child)
	child.State = proc.StateRunning
	s.table.Unlock()
	childPid := child.Pid
	s.Exit(ctx, child)
	assert.Equal(t, proc.StateZombie, child.State)

	pid, err := s.Wait(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, childPid, pid)
	assert.Equal(t, proc.StateUnused, child.State, "wait reaps the zombie slot")

	// No children left.
	_, err = s.Wait(ctx, parent)
	assert.Error(t, err)
}

func TestWaitBlocksUntilChildExits(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	parent := spawn(t, s, "init")
	child, err := s.Spawn(ctx, "worker", parent.Index)
	require.NoError(t, err)

	done := make(chan int, 1)
	go func() {
		pid, err := s.Wait(ctx, parent)
		if err == nil {
			done <- pid
		}
	}()

	select {
	case <-done:
		t.Fatal("wait returned before the child exited")
	case <-time.After(20 * time.Millisecond):
	}

	s.table.Lock()
	s.remove(child)
	child.State = proc.StateRunning
	s.table.Unlock()
	childPid := child.Pid
	s.Exit(ctx, child)

	select {
	case pid := <-done:
		assert.Equal(t, childPid, pid)
	case <-time.After(time.Second):
		t.Fatal("wait never observed the exit")
	}
}

func TestExitReparentsChildrenToInit(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	init := spawn(t, s, "init")
	require.Equal(t, 0, init.Index)
	parent, err := s.Spawn(ctx, "parent", init.Index)
	require.NoError(t, err)
	orphan, err := s.Spawn(ctx, "orphan", parent.Index)
	require.NoError(t, err)

	s.table.Lock()
	s.remove(parent)
	parent.State = proc.StateRunning
	s.table.Unlock()
	s.Exit(ctx, parent)

	assert.Equal(t, init.Index, orphan.Parent)
}

func TestRunCoreDrivesProcesses(t *testing.T) {
	s := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ran := make(chan int, 8)
	s.switcher = SwitcherFunc(func(ctx context.Context, p *proc.Proc, preempt <-chan struct{}) error {
		ran <- p.Pid
		select {
		case <-preempt:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	go func() { _ = s.RunCore(ctx, 0) }()

	p := spawn(t, s, "looper")
	select {
	case pid := <-ran:
		assert.Equal(t, p.Pid, pid)
	case <-time.After(time.Second):
		t.Fatal("process never scheduled")
	}

	// Quantum 1 at level 0: one tick preempts and the process is
	// rescheduled.
	s.Tick()
	select {
	case pid := <-ran:
		assert.Equal(t, p.Pid, pid)
	case <-time.After(time.Second):
		t.Fatal("process not rescheduled after preemption")
	}
}
