package lock

import (
	"sync"
	"sync/atomic"
)

// Spin guards short, bounded critical sections over shared metadata
// (queue links, reference counts, flags). Holders must not block while
// holding it. Unlike a bare sync.Mutex it can report whether it is held,
// which the services use to assert their locking discipline.
type Spin struct {
	mu   sync.Mutex
	held atomic.Bool
}

// Lock acquires the lock.
func (s *Spin) Lock() {
	s.mu.Lock()
	s.held.Store(true)
}

// Unlock releases the lock. Releasing a lock that is not held is an
// invariant violation and panics.
func (s *Spin) Unlock() {
	if !s.held.Load() {
		panic("lock: spin unlock of unlocked lock")
	}
	s.held.Store(false)
	s.mu.Unlock()
}

// Holding reports whether the lock is currently held.
func (s *Spin) Holding() bool {
	return s.held.Load()
}
