package scheduler

import (
	"fmt"
	"time"

	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/policy"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/stats"
)

// Config represents scheduler configuration. The per-level quanta and
// allotment thresholds, the boost period and the aging rule are supplied
// here rather than hard-coded; DefaultConfig provides the reference
// values.
type Config struct {
	// Quantum is the time slice, in ticks, granted at each level. Level 0
	// is the shortest.
	Quantum [proc.Levels]int `json:"quantum" yaml:"quantum"`

	// Allotment is the per-level tick budget; a process that exceeds it
	// is demoted one level, clamped at the lowest.
	Allotment [proc.Levels]int `json:"allotment" yaml:"allotment"`

	// BoostPeriod is the global-boost interval in ticks; 0 disables the
	// boost.
	BoostPeriod int `json:"boostPeriod" yaml:"boostPeriod"`

	// PriorityMax bounds the level-2 priority range [0, PriorityMax].
	PriorityMax int `json:"priorityMax" yaml:"priorityMax"`

	// AgingInterval is the number of queued ticks after which a level-2
	// waiter gains one priority point; 0 disables aging.
	AgingInterval int `json:"agingInterval" yaml:"agingInterval"`

	// Cores is the number of scheduling loops the runtime drives.
	Cores int `json:"cores" yaml:"cores"`

	// TickPeriod is the wall-clock period of the timer interrupt driven
	// by the runtime.
	TickPeriod time.Duration `json:"tickPeriod" yaml:"tickPeriod"`
}

// DefaultConfig returns the reference scheduler configuration.
func DefaultConfig() Config {
	return Config{
		Quantum:       [proc.Levels]int{1, 2, 4},
		Allotment:     [proc.Levels]int{3, 6, 8},
		BoostPeriod:   100,
		PriorityMax:   10,
		AgingInterval: 10,
		Cores:         1,
		TickPeriod:    10 * time.Millisecond,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	for level := proc.MinLevel; level <= proc.MaxLevel; level++ {
		if c.Quantum[level] <= 0 {
			return fmt.Errorf("scheduler.quantum[%d] must be > 0", level)
		}
		if c.Allotment[level] <= 0 {
			return fmt.Errorf("scheduler.allotment[%d] must be > 0", level)
		}
	}
	if c.BoostPeriod < 0 {
		return fmt.Errorf("scheduler.boostPeriod must be >= 0")
	}
	if c.PriorityMax <= 0 {
		return fmt.Errorf("scheduler.priorityMax must be > 0")
	}
	if c.AgingInterval < 0 {
		return fmt.Errorf("scheduler.agingInterval must be >= 0")
	}
	if c.Cores <= 0 {
		return fmt.Errorf("scheduler.cores must be > 0")
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("scheduler.tickPeriod must be > 0")
	}
	return nil
}

// levelQueue is one per-level queue of runnable processes; head/tail are
// arena indexes into the process table.
type levelQueue struct {
	head int
	tail int
}

// Service is the MLFQ scheduler. Every mutation of queues, ticks and
// process scheduling fields happens under the process table's lock.
type Service struct {
	config Config
	table  *proc.Table

	// guarded by the table lock
	queues  [proc.Levels]levelQueue
	ticks   int64
	running []int // per-core arena index of the running process, proc.None when idle

	switcher  Switcher
	pinPolicy *policy.Policy

	// resched carries per-core preemption signals from the timer to the
	// scheduling loops.
	resched []chan struct{}

	// runnable is pulsed whenever a process becomes runnable so idle
	// loops can retry Next.
	runnable chan struct{}

	// exited is closed and replaced on every Exit so blocked Wait calls
	// rescan for zombie children. Swapped under the table lock.
	exited chan struct{}

	stats    *stats.Stats
	events   *event.Service
	kernelID string
}

// New creates an MLFQ scheduler over the given process table.
func New(config Config, table *proc.Table, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("scheduler: process table is required")
	}
	s := &Service{
		config:   config,
		table:    table,
		running:  make([]int, config.Cores),
		resched:  make([]chan struct{}, config.Cores),
		runnable: make(chan struct{}, 1),
		exited:   make(chan struct{}),
	}
	for level := range s.queues {
		s.queues[level] = levelQueue{head: proc.None, tail: proc.None}
	}
	for core := 0; core < config.Cores; core++ {
		s.running[core] = proc.None
		s.resched[core] = make(chan struct{}, 1)
	}
	for _, opt := range options {
		opt(s)
	}
	if s.switcher == nil {
		s.switcher = &idleSwitcher{}
	}
	return s, nil
}

// Configuration returns a copy of the scheduler configuration.
func (s *Service) Configuration() Config {
	return s.config
}

// Ticks returns the global tick counter.
func (s *Service) Ticks() int64 {
	s.table.Lock()
	defer s.table.Unlock()
	return s.ticks
}

// Table returns the process table the scheduler operates on.
func (s *Service) Table() *proc.Table {
	return s.table
}

func (s *Service) tracker() *stats.Stats {
	return s.stats
}

// signalRunnable pulses the runnable channel without blocking.
func (s *Service) signalRunnable() {
	select {
	case s.runnable <- struct{}{}:
	default:
	}
}

// exitSignal returns the channel closed on the next process exit.
// Caller holds the table lock.
func (s *Service) exitSignal() <-chan struct{} {
	return s.exited
}

// notifyExit broadcasts a process exit to blocked Wait calls.
func (s *Service) notifyExit() {
	s.table.Lock()
	close(s.exited)
	s.exited = make(chan struct{})
	s.table.Unlock()
}
