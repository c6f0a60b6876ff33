package bcache

import (
	"context"
	"fmt"

	"github.com/viant/gokern/model/buf"
	"github.com/viant/gokern/service/wal"
	"github.com/viant/gokern/stats"
	"github.com/viant/gokern/tracing"
)

// FlushDirty hands every dirty buffer to the log writer and returns the
// number handed off. Durability is the log subsystem's responsibility;
// the dirty flags stay set until a commit clears them.
func (s *Service) FlushDirty(ctx context.Context) (int, error) {
	flushed, err := s.flush(ctx)
	return len(flushed), err
}

// flush captures every dirty buffer into the log and returns their arena
// indexes.
func (s *Service) flush(ctx context.Context) ([]int, error) {
	if s.log == nil {
		return nil, fmt.Errorf("bcache: no log writer configured")
	}

	s.mu.Lock()
	var flushed []int
	for i := s.head; i != buf.None; i = s.bufs[i].Next {
		b := s.bufs[i]
		if !b.Dirty {
			continue
		}
		payload := make([]byte, len(b.Data))
		copy(payload, b.Data)
		record := wal.Record{Device: b.Device, Blockno: b.Blockno, Payload: payload}
		if err := s.log.Log(ctx, record); err != nil {
			s.mu.Unlock()
			return flushed, fmt.Errorf("failed to log block %d of device %d: %w", b.Blockno, b.Device, err)
		}
		flushed = append(flushed, i)
	}
	s.mu.Unlock()

	if len(flushed) > 0 {
		s.tracker(ctx).Update(stats.Delta{DirtyFlushed: len(flushed)})
	}
	return flushed, nil
}

// Sync is the default flush-everything collaborator: capture every dirty
// buffer into the log, commit, then clear the dirty flags of the
// committed buffers.
func (s *Service) Sync(ctx context.Context) (err error) {
	ctx, span := tracing.StartSpan(ctx, "bcache.sync", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	flushed, err := s.flush(ctx)
	if err != nil {
		return err
	}
	if len(flushed) == 0 {
		return nil
	}
	if err := s.log.Commit(ctx); err != nil {
		return fmt.Errorf("log commit failed: %w", err)
	}

	s.mu.Lock()
	for _, i := range flushed {
		s.bufs[i].Dirty = false
	}
	s.mu.Unlock()
	return nil
}

// DirtyCount returns the number of dirty buffers.
func (s *Service) DirtyCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for i := range s.bufs {
		if s.bufs[i].Dirty {
			count++
		}
	}
	return count
}

// IsFull reports whether dirty occupancy has reached the high-water mark
// (capacity minus the reserved margin).
func (s *Service) IsFull() bool {
	return s.DirtyCount() >= s.config.Capacity-s.config.ReservedMargin
}
