// Package stats provides a lightweight tracker that keeps aggregated
// kernel counters (scheduling decisions, cache traffic, …) for a single
// kernel run. The tracker instance lives in the run context – every
// component that receives the context can atomically update the counters
// via the Delta helper without requiring a global registry.
package stats

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the scheduler
// or the buffer cache. The fields are signed and therefore can be either
// positive (increment) or negative (decrement).
type Delta struct {
	Scheduled    int
	Preempted    int
	Demoted      int
	Boosted      int
	CacheHits    int
	CacheMisses  int
	Evictions    int
	DirtyFlushed int
}

// Stats keeps aggregated counters for one kernel run. It is safe for
// concurrent use.
type Stats struct {
	// Identification – informative only, filled when the kernel starts.
	KernelID  string
	StartedAt time.Time

	// Counters – modified via Update().
	Scheduled    int
	Preempted    int
	Demoted      int
	Boosted      int
	CacheHits    int
	CacheMisses  int
	Evictions    int
	DirtyFlushed int

	mu       sync.Mutex
	onChange func(Stats)
}

// Update applies the supplied delta to the tracker. It is safe to call
// from multiple goroutines. If an onChange callback has been registered
// it will be invoked with a copy of the updated tracker outside the
// critical section so that the callback can perform slow operations
// (e.g. JSON encoding, I/O) without blocking kernel internals.
func (s *Stats) Update(d Delta) {
	if s == nil {
		return
	}

	s.mu.Lock()

	s.Scheduled += d.Scheduled
	s.Preempted += d.Preempted
	s.Demoted += d.Demoted
	s.Boosted += d.Boosted
	s.CacheHits += d.CacheHits
	s.CacheMisses += d.CacheMisses
	s.Evictions += d.Evictions
	s.DirtyFlushed += d.DirtyFlushed

	// Make a value-copy for the callback while we still hold the lock to
	// avoid seeing partially updated counters.
	snapshot := s.copyLocked()
	cb := s.onChange

	s.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns a copy of the tracker suitable for read-only inspection.
func (s *Stats) Snapshot() Stats {
	if s == nil {
		return Stats{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// copyLocked duplicates the counter fields; the caller holds the mutex.
func (s *Stats) copyLocked() Stats {
	return Stats{
		KernelID:     s.KernelID,
		StartedAt:    s.StartedAt,
		Scheduled:    s.Scheduled,
		Preempted:    s.Preempted,
		Demoted:      s.Demoted,
		Boosted:      s.Boosted,
		CacheHits:    s.CacheHits,
		CacheMisses:  s.CacheMisses,
		Evictions:    s.Evictions,
		DirtyFlushed: s.DirtyFlushed,
	}
}

// OnChange registers a callback that is invoked after every successful
// Update. Passing nil disables the callback. Only one callback can be
// active; subsequent calls overwrite the previous value.
func (s *Stats) OnChange(cb func(Stats)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onChange = cb
	s.mu.Unlock()
}

// ----------------------------------------------------------------------------
// Context helpers
// ----------------------------------------------------------------------------

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Stats tracker, embeds it in a derived
// context and returns both. The caller may optionally pass an onChange
// callback that will be invoked after every counter update.
func WithNewTracker(ctx context.Context, kernelID string, onChange func(Stats)) (context.Context, *Stats) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Stats{
		KernelID:  kernelID,
		StartedAt: time.Now(),
		onChange:  onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// WithTracker embeds an existing tracker in ctx.
func WithTracker(ctx context.Context, tr *Stats) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, trackerKey, tr)
}

// FromContext returns the tracker stored in ctx, or nil.
func FromContext(ctx context.Context) *Stats {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(trackerKey).(*Stats); ok {
		return v
	}
	return nil
}
