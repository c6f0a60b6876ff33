package bcache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/viant/gokern/model/buf"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/stats"
	"github.com/viant/gokern/tracing"
)

// Acquire returns a locked buffer for (device, blockno), reserving it
// against concurrent eviction before the payload lock is taken. A miss
// repurposes the least recently used slot with no holders and no dirty
// payload. Pool exhaustion is a fatal invariant violation.
func (s *Service) Acquire(ctx context.Context, device, blockno int) (*buf.Buf, error) {
	// When dirty occupancy has reached the high-water mark, run the
	// flush-everything collaborator first. The syncing guard keeps the
	// collaborator's own buffer touches from re-entering this path.
	if !s.syncing.Load() && s.IsFull() {
		s.syncing.Store(true)
		dirty := s.DirtyCount()
		s.publishSync(ctx, dirty)
		err := s.syncFn(ctx)
		s.syncing.Store(false)
		if err != nil {
			return nil, fmt.Errorf("flush-everything failed: %w", err)
		}
	}

	s.mu.Lock()

	// Is the block already cached? Scan most-recent-first: a block in use
	// is likely to be requested again.
	for i := s.head; i != buf.None; i = s.bufs[i].Next {
		b := s.bufs[i]
		if b.Key(device, blockno) {
			b.Refcnt++
			s.mu.Unlock()
			s.tracker(ctx).Update(stats.Delta{CacheHits: 1})
			if err := b.Lk().Lock(ctx); err != nil {
				s.undoAcquire(b)
				return nil, err
			}
			return b, nil
		}
	}

	// Not cached; repurpose the least recently used evictable slot. Even
	// with no holders, a dirty buffer stays: the log subsystem has not
	// committed it yet.
	for i := s.tail; i != buf.None; i = s.bufs[i].Prev {
		b := s.bufs[i]
		if b.Refcnt == 0 && !b.Dirty {
			evicted := b.Valid
			oldDevice, oldBlockno := b.Device, b.Blockno
			b.Device = device
			b.Blockno = blockno
			b.Valid = false
			b.Refcnt = 1
			s.mu.Unlock()

			s.tracker(ctx).Update(stats.Delta{CacheMisses: 1})
			if evicted {
				s.tracker(ctx).Update(stats.Delta{Evictions: 1})
				slog.Debug("bcache evict", "device", oldDevice, "blockno", oldBlockno)
				s.publish(ctx, "buffer_evicted", event.BufferEvicted{Device: oldDevice, Blockno: oldBlockno})
			}
			if err := b.Lk().Lock(ctx); err != nil {
				s.undoAcquire(b)
				return nil, err
			}
			return b, nil
		}
	}

	s.mu.Unlock()
	panic("bcache: no buffers")
}

// undoAcquire rolls a reservation back when the payload lock could not be
// taken (context cancelled).
func (s *Service) undoAcquire(b *buf.Buf) {
	s.mu.Lock()
	b.Refcnt--
	s.mu.Unlock()
}

// Read returns a locked buffer with the content of the indicated block,
// fetching it from the device on first use.
func (s *Service) Read(ctx context.Context, device, blockno int) (b *buf.Buf, err error) {
	ctx, span := tracing.StartSpan(ctx, "bcache.read", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	b, err = s.Acquire(ctx, device, blockno)
	if err != nil {
		return nil, err
	}
	if !b.Valid {
		dev, err := s.device(device)
		if err != nil {
			s.Release(b)
			return nil, err
		}
		if err := dev.ReadBlock(ctx, blockno, b.Data); err != nil {
			s.Release(b)
			return nil, fmt.Errorf("failed to read block %d from device %d: %w", blockno, device, err)
		}
		s.mu.Lock()
		b.Valid = true
		s.mu.Unlock()
	}
	return b, nil
}

// Write persists b's content through the disk driver and marks it dirty.
// Dirty additionally means "not evictable" until the log subsystem has
// captured and committed the block. The caller must hold the payload
// lock.
func (s *Service) Write(ctx context.Context, b *buf.Buf) (err error) {
	if !b.Lk().Holding() {
		panic("bcache: write without payload lock")
	}
	ctx, span := tracing.StartSpan(ctx, "bcache.write", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	s.mu.Lock()
	b.Dirty = true
	b.Valid = true
	s.mu.Unlock()

	dev, err := s.device(b.Device)
	if err != nil {
		return err
	}
	if err := dev.WriteBlock(ctx, b.Blockno, b.Data); err != nil {
		return fmt.Errorf("failed to write block %d to device %d: %w", b.Blockno, b.Device, err)
	}
	return nil
}

// Release unlocks the payload and drops the caller's reference; the last
// holder moves the buffer to the most-recently-used end of the list.
// Eviction decisions happen only inside Acquire, never here. The caller
// must hold the payload lock.
func (s *Service) Release(b *buf.Buf) {
	if !b.Lk().Holding() {
		panic("bcache: release without payload lock")
	}
	b.Lk().Unlock()

	s.mu.Lock()
	if b.Refcnt <= 0 {
		s.mu.Unlock()
		panic("bcache: release of unreferenced buffer")
	}
	b.Refcnt--
	if b.Refcnt == 0 {
		s.toFront(b.Index)
	}
	s.mu.Unlock()
}

func (s *Service) publish(ctx context.Context, eventType string, data any) {
	if s.events == nil {
		return
	}
	evCtx := &event.Context{KernelID: s.kernelID, EventType: eventType, Component: "bcache"}
	switch payload := data.(type) {
	case event.BufferEvicted:
		if publisher, err := event.PublisherOf[event.BufferEvicted](s.events); err == nil {
			_ = publisher.Publish(ctx, event.NewEvent(evCtx, payload))
		}
	case event.SyncTriggered:
		if publisher, err := event.PublisherOf[event.SyncTriggered](s.events); err == nil {
			_ = publisher.Publish(ctx, event.NewEvent(evCtx, payload))
		}
	}
}

func (s *Service) publishSync(ctx context.Context, dirty int) {
	slog.Debug("bcache sync triggered", "dirty", dirty)
	s.publish(ctx, "sync_triggered", event.SyncTriggered{Dirty: dirty})
}
