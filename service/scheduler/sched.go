package scheduler

import (
	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/stats"
)

// Next picks the highest-priority runnable process for the given core
// and marks it Running. It returns nil when every level queue is empty.
func (s *Service) Next(core int) *proc.Proc {
	s.table.Lock()
	defer s.table.Unlock()
	for level := proc.MinLevel; level <= proc.MaxLevel; level++ {
		p := s.dequeue(level)
		if p == nil {
			continue
		}
		p.State = proc.StateRunning
		p.TimeQuantum = s.config.Quantum[level]
		s.running[core] = p.Index
		if t := s.tracker(); t != nil {
			t.Update(stats.Delta{Scheduled: 1})
		}
		return p
	}
	return nil
}

// Yield returns the CPU. The process is charged the portion of its slice
// it consumed, demoted when its allotment at the current level is spent,
// and requeued when still runnable. Called by the run loop after the
// Switcher returns and by processes that give up the CPU voluntarily.
func (s *Service) Yield(core int, p *proc.Proc) {
	s.table.Lock()
	defer s.table.Unlock()
	s.requeue(core, p)
}

// requeue performs the end-of-slice bookkeeping. Caller holds the table
// lock.
func (s *Service) requeue(core int, p *proc.Proc) {
	if s.running[core] == p.Index {
		s.running[core] = proc.None
	}
	used := s.config.Quantum[p.Level] - p.TimeQuantum
	if used < 0 {
		used = 0
	}
	p.TimeAllotment += used

	if p.State == proc.StateRunning {
		p.State = proc.StateRunnable
	}

	if p.TimeAllotment >= s.config.Allotment[p.Level] {
		s.demote(p)
	} else if p.Level == proc.MaxLevel && p.TimeQuantum <= 0 && p.Priority > 0 {
		// A full slice burned at the bottom level decays priority so
		// CPU-bound processes drift below interactive ones.
		p.Priority--
	}

	if p.Runnable() {
		s.enqueue(p)
		s.signalRunnable()
	}
}

// demote moves p one level down, clamped at the lowest level, and resets
// its allotment counter. At the bottom level the counter reset keeps the
// allotment rule from re-firing every slice.
func (s *Service) demote(p *proc.Proc) {
	if p.Level < proc.MaxLevel {
		p.Level++
		if t := s.tracker(); t != nil {
			t.Update(stats.Delta{Demoted: 1})
		}
	}
	p.TimeAllotment = 0
}

// Tick is the timer interrupt. It advances the global tick counter, ages
// level-2 waiters, runs the periodic boost, spends pin budgets and
// charges the running slice of every core, requesting preemption where a
// slice expired and the process is not pinned.
func (s *Service) Tick() {
	s.table.Lock()
	s.ticks++
	if s.config.BoostPeriod > 0 && s.ticks%int64(s.config.BoostPeriod) == 0 {
		s.boost()
	}
	if s.config.AgingInterval > 0 {
		s.age()
	}
	var preempt []int
	for core, idx := range s.running {
		if idx == proc.None {
			continue
		}
		p := s.table.At(idx)
		if p.PinTicks > 0 {
			p.PinTicks--
			if p.PinTicks > 0 {
				continue
			}
			// Budget spent: the process loses pin protection and is
			// preempted like any other expired slice.
		}
		// The quantum floors at zero: a process still on core past its
		// slice (awaiting the preemption handoff) must not accrue debt
		// that requeue would charge against its allotment.
		if p.TimeQuantum > 0 {
			p.TimeQuantum--
		}
		if p.TimeQuantum <= 0 {
			preempt = append(preempt, core)
			if t := s.tracker(); t != nil {
				t.Update(stats.Delta{Preempted: 1})
			}
		}
	}
	s.table.Unlock()

	for _, core := range preempt {
		select {
		case s.resched[core] <- struct{}{}:
		default:
		}
	}
}

// Boost lifts every process back to the top level immediately,
// regardless of the periodic schedule.
func (s *Service) Boost() {
	s.table.Lock()
	defer s.table.Unlock()
	s.boost()
}

// boost resets every non-running process to level 0 with fresh counters.
// Queued processes are re-linked into the level-0 queue in their current
// order; running processes pick up the reset at their next requeue.
// Caller holds the table lock.
func (s *Service) boost() {
	var queued []*proc.Proc
	for level := proc.MinLevel; level <= proc.MaxLevel; level++ {
		for {
			p := s.dequeue(level)
			if p == nil {
				break
			}
			queued = append(queued, p)
		}
	}
	s.table.Each(func(p *proc.Proc) {
		if p.State == proc.StateRunning || p.State == proc.StateUnused {
			return
		}
		p.Level = proc.MinLevel
		p.TimeAllotment = 0
		p.Priority = 0
	})
	for _, p := range queued {
		s.enqueue(p)
	}
	if t := s.tracker(); t != nil {
		t.Update(stats.Delta{Boosted: 1})
	}
}

// age credits level-2 waiters with one priority point per AgingInterval
// queued ticks, re-inserting any promoted process so the queue order
// tracks its new priority. Caller holds the table lock.
func (s *Service) age() {
	var promoted []*proc.Proc
	for i := s.queues[proc.MaxLevel].head; i != proc.None; {
		p := s.table.At(i)
		i = p.Next
		p.WaitTicks++
		if p.WaitTicks >= s.config.AgingInterval && p.Priority < s.config.PriorityMax {
			promoted = append(promoted, p)
		}
	}
	for _, p := range promoted {
		s.remove(p)
		p.Priority++
		s.enqueue(p)
	}
	// WaitTicks also accrues on levels 0 and 1 so a boost-landed process
	// does not lose its aging credit, but only level 2 consumes it.
	for level := proc.MinLevel; level < proc.MaxLevel; level++ {
		for i := s.queues[level].head; i != proc.None; i = s.table.At(i).Next {
			s.table.At(i).WaitTicks++
		}
	}
}
