package lock

import (
	"context"
	"sync"
)

// Sleep is a blocking lock for long-held payload sections. Acquisition
// suspends the caller until the lock becomes available or the context is
// cancelled; it is safe to hold across blocking I/O. The zero value is
// unusable – construct with NewSleep.
type Sleep struct {
	sem chan struct{}

	mu   sync.Mutex
	held bool
}

// NewSleep returns an unlocked Sleep lock.
func NewSleep() *Sleep {
	return &Sleep{sem: make(chan struct{}, 1)}
}

// Lock acquires the lock, suspending the caller until it is available.
// It returns the context error when ctx is cancelled first.
func (s *Sleep) Lock(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
	default:
		select {
		case s.sem <- struct{}{}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	s.mu.Lock()
	s.held = true
	s.mu.Unlock()
	return nil
}

// Unlock releases the lock. Releasing a lock that is not held is an
// invariant violation and panics.
func (s *Sleep) Unlock() {
	s.mu.Lock()
	if !s.held {
		s.mu.Unlock()
		panic("lock: sleep unlock of unlocked lock")
	}
	s.held = false
	s.mu.Unlock()
	<-s.sem
}

// Holding reports whether the lock is currently held.
func (s *Sleep) Holding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held
}
