package proc

import "time"

// None is the sentinel index for "not linked" – queue links and parent
// references are arena indexes, never pointers, so that process identity
// stays anchored in the fixed-capacity table.
const None = -1

// Level bounds of the multilevel feedback queue.
const (
	MinLevel = 0
	MaxLevel = 2
	Levels   = MaxLevel + 1
)

// Proc is a process control block. All scheduling fields (Level, Priority,
// TimeQuantum, TimeAllotment, Enqueued, Next, PinTicks, WaitTicks) are
// mutated only by the scheduler while it holds its table lock; the struct
// itself carries no lock.
type Proc struct {
	// Index is the slot's fixed position in the table arena; queue links
	// refer to it.
	Index int

	Pid    int
	State  State
	Parent int // table index of the parent, None for the initial process
	Name   string
	Killed bool

	// Chan is the wait-channel tag a sleeping process is parked on. It is
	// an opaque comparison key, meaningful only to Sleep/Wakeup pairs.
	Chan any

	// Memory image and file state are owned by collaborating subsystems;
	// this core only carries them across context switches.
	MemSize   int
	PageTable any
	OpenFiles []any
	Cwd       any

	// Multilevel feedback queue bookkeeping.
	Level         int // current queue level, MinLevel..MaxLevel
	Priority      int // used only at MaxLevel
	TimeQuantum   int // ticks remaining in the current slice
	TimeAllotment int // ticks consumed since entering the current level
	WaitTicks     int // ticks spent queued since last scheduled, drives aging

	// PinTicks is the remaining budget of the self-pin token. While
	// positive, timer preemption of this process is suppressed.
	PinTicks int

	// Enqueued mirrors queue membership: a process sits in at most one
	// level queue, and only when this flag is set.
	Enqueued bool
	Next     int // arena index of the next queued process, None at the tail

	CreatedAt time.Time
}

// Runnable reports whether the process can be picked by the scheduler.
func (p *Proc) Runnable() bool {
	return p.State == StateRunnable
}

// Pinned reports whether the self-pin token is active.
func (p *Proc) Pinned() bool {
	return p.PinTicks > 0
}
