package proc

import (
	"fmt"

	"github.com/viant/gokern/internal/clock"
	"github.com/viant/gokern/internal/lock"
)

// Table is the fixed-capacity process table. Slots are statically
// allocated; process "creation" claims an Unused slot and reaping returns
// it. The embedded Spin lock serialises every mutation of lifecycle state
// and of the scheduler's level queues – queue links are indexes into this
// arena, so one lock covers both.
type Table struct {
	lock.Spin

	procs   []Proc
	nextPid int
}

// NewTable returns a table with the given number of slots.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		panic("proc: table capacity must be positive")
	}
	t := &Table{
		procs:   make([]Proc, capacity),
		nextPid: 1,
	}
	for i := range t.procs {
		t.procs[i].Index = i
		t.procs[i].Parent = None
		t.procs[i].Next = None
	}
	return t
}

// Cap returns the number of slots.
func (t *Table) Cap() int { return len(t.procs) }

// At returns the process at the given arena index.
func (t *Table) At(index int) *Proc {
	return &t.procs[index]
}

// Alloc claims an Unused slot, moving it to Embryo with a fresh pid.
// The caller must hold the table lock. It returns an error when every
// slot is occupied.
func (t *Table) Alloc(name string, parent int) (*Proc, error) {
	for i := range t.procs {
		p := &t.procs[i]
		if p.State != StateUnused {
			continue
		}
		*p = Proc{
			Index:     i,
			Pid:       t.nextPid,
			State:     StateEmbryo,
			Parent:    parent,
			Name:      name,
			Next:      None,
			CreatedAt: clock.Now(),
		}
		t.nextPid++
		return p, nil
	}
	return nil, fmt.Errorf("proc: table full, no unused slot for %q", name)
}

// Free reaps a Zombie slot back to Unused. The caller must hold the table
// lock. Reaping a non-zombie is an error.
func (t *Table) Free(p *Proc) error {
	if p.State != StateZombie {
		return fmt.Errorf("proc: cannot free pid %d in state %s", p.Pid, p.State)
	}
	*p = Proc{Index: p.Index, Parent: None, Next: None}
	return nil
}

// Lookup returns the process with the given pid, or nil. The caller must
// hold the table lock.
func (t *Table) Lookup(pid int) *Proc {
	for i := range t.procs {
		if t.procs[i].State != StateUnused && t.procs[i].Pid == pid {
			return &t.procs[i]
		}
	}
	return nil
}

// Each invokes fn for every occupied slot. The caller must hold the table
// lock.
func (t *Table) Each(fn func(p *Proc)) {
	for i := range t.procs {
		if t.procs[i].State != StateUnused {
			fn(&t.procs[i])
		}
	}
}
