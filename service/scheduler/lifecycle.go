package scheduler

import (
	"context"
	"fmt"

	"github.com/viant/gokern/internal/lock"
	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/service/event"
)

// Spawn allocates a process and admits it to the top-level queue as
// Runnable. parent is the table index of the parent process, proc.None
// for the initial process.
func (s *Service) Spawn(ctx context.Context, name string, parent int) (*proc.Proc, error) {
	s.table.Lock()
	p, err := s.table.Alloc(name, parent)
	if err != nil {
		s.table.Unlock()
		return nil, err
	}
	from := p.State
	p.State = proc.StateRunnable
	p.Level = proc.MinLevel
	p.Priority = 0
	p.TimeAllotment = 0
	s.enqueue(p)
	s.signalRunnable()
	s.table.Unlock()

	s.publishTransition(ctx, p, from, proc.StateRunnable)
	return p, nil
}

// Sleep atomically releases lk and parks p on the given wait channel.
// The caller must be running p and must hold lk; on return lk is held
// again. The process is Runnable (requeued by a Wakeup on the same
// channel) or killed by the time Sleep returns; callers check Killed
// and unwind.
func (s *Service) Sleep(ctx context.Context, p *proc.Proc, channel any, lk *lock.Spin) {
	if channel == nil {
		panic("scheduler: sleep without a wait channel")
	}
	s.table.Lock()
	lk.Unlock()

	from := p.State
	p.Chan = channel
	p.State = proc.StateSleeping
	for core, idx := range s.running {
		if idx == p.Index {
			s.running[core] = proc.None
		}
	}
	s.table.Unlock()
	s.publishTransition(ctx, p, from, proc.StateSleeping)

	lk.Lock()
}

// Wakeup moves every process sleeping on the given channel back to the
// top of its queue and returns how many were woken.
func (s *Service) Wakeup(ctx context.Context, channel any) int {
	s.table.Lock()
	var woken []*proc.Proc
	s.table.Each(func(p *proc.Proc) {
		if p.State == proc.StateSleeping && p.Chan == channel {
			p.Chan = nil
			p.State = proc.StateRunnable
			s.enqueue(p)
			woken = append(woken, p)
		}
	})
	if len(woken) > 0 {
		s.signalRunnable()
	}
	s.table.Unlock()

	for _, p := range woken {
		s.publishTransition(ctx, p, proc.StateSleeping, proc.StateRunnable)
	}
	return len(woken)
}

// Kill marks the process with the given pid for termination. A sleeping
// victim is made Runnable so it reaches its next unwind point; the kill
// itself takes effect there, not here.
func (s *Service) Kill(ctx context.Context, pid int) error {
	s.table.Lock()
	p := s.table.Lookup(pid)
	if p == nil {
		s.table.Unlock()
		return fmt.Errorf("scheduler: no process with pid %d", pid)
	}
	p.Killed = true
	woken := false
	if p.State == proc.StateSleeping {
		p.Chan = nil
		p.State = proc.StateRunnable
		s.enqueue(p)
		s.signalRunnable()
		woken = true
	}
	s.table.Unlock()

	if woken {
		s.publishTransition(ctx, p, proc.StateSleeping, proc.StateRunnable)
	}
	return nil
}

// Exit turns the running process into a zombie, reparents its children
// to the initial process (table slot 0) and broadcasts the exit to any
// parent blocked in Wait. The slot is reclaimed by the parent's Wait.
func (s *Service) Exit(ctx context.Context, p *proc.Proc) {
	s.table.Lock()
	from := p.State
	for core, idx := range s.running {
		if idx == p.Index {
			s.running[core] = proc.None
		}
	}
	s.remove(p)
	s.table.Each(func(child *proc.Proc) {
		if child.Parent == p.Index {
			child.Parent = 0
		}
	})
	p.State = proc.StateZombie
	s.table.Unlock()

	s.publishTransition(ctx, p, from, proc.StateZombie)
	s.notifyExit()
}

// Wait blocks until a child of parent exits, reclaims its slot and
// returns its pid. It returns an error when parent has no children or
// when ctx is cancelled first.
func (s *Service) Wait(ctx context.Context, parent *proc.Proc) (int, error) {
	for {
		s.table.Lock()
		haveChildren := false
		var zombie *proc.Proc
		s.table.Each(func(p *proc.Proc) {
			if p.Parent != parent.Index || p.State == proc.StateUnused {
				return
			}
			haveChildren = true
			if zombie == nil && p.State == proc.StateZombie {
				zombie = p
			}
		})
		if zombie != nil {
			pid := zombie.Pid
			err := s.table.Free(zombie)
			s.table.Unlock()
			if err != nil {
				return proc.None, err
			}
			return pid, nil
		}
		if !haveChildren || parent.Killed {
			s.table.Unlock()
			return proc.None, fmt.Errorf("scheduler: pid %d has no children to wait for", parent.Pid)
		}
		exited := s.exitSignal()
		s.table.Unlock()

		select {
		case <-exited:
		case <-ctx.Done():
			return proc.None, ctx.Err()
		}
	}
}

// SetPriority sets the level-2 priority of the process with the given
// pid, re-ordering it within the queue when it is waiting there.
func (s *Service) SetPriority(pid, priority int) error {
	if priority < 0 || priority > s.config.PriorityMax {
		return fmt.Errorf("scheduler: priority %d out of range [0, %d]", priority, s.config.PriorityMax)
	}
	s.table.Lock()
	defer s.table.Unlock()
	p := s.table.Lookup(pid)
	if p == nil {
		return fmt.Errorf("scheduler: no process with pid %d", pid)
	}
	if p.Enqueued && p.Level == proc.MaxLevel {
		s.remove(p)
		p.Priority = priority
		s.enqueue(p)
		return nil
	}
	p.Priority = priority
	return nil
}

func (s *Service) publishTransition(ctx context.Context, p *proc.Proc, from, to proc.State) {
	if s.events == nil {
		return
	}
	publisher, err := event.PublisherOf[event.ProcessTransition](s.events)
	if err != nil {
		return
	}
	evCtx := &event.Context{
		KernelID:  s.kernelID,
		Pid:       p.Pid,
		EventType: "process_transition",
		Component: "scheduler",
	}
	_ = publisher.Publish(ctx, event.NewEvent(evCtx, event.ProcessTransition{
		Pid:   p.Pid,
		From:  from.String(),
		To:    to.String(),
		Level: p.Level,
	}))
}
