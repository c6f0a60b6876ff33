package bcache

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/viant/gokern/internal/lock"
	"github.com/viant/gokern/model/buf"
	"github.com/viant/gokern/service/disk"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/service/wal"
	"github.com/viant/gokern/stats"
)

// Config represents buffer cache configuration.
type Config struct {
	// Capacity is the number of statically allocated buffer slots.
	Capacity int `json:"capacity" yaml:"capacity"`

	// ReservedMargin is subtracted from Capacity to obtain the dirty
	// high-water mark; the margin leaves headroom for buffers the
	// log/commit path itself needs.
	ReservedMargin int `json:"reservedMargin" yaml:"reservedMargin"`

	// BlockSize is the payload size of every buffer.
	BlockSize int `json:"blockSize" yaml:"blockSize"`
}

// DefaultConfig returns the default buffer cache configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:       30,
		ReservedMargin: 3,
		BlockSize:      512,
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("bcache.capacity must be > 0")
	}
	if c.ReservedMargin < 0 || c.ReservedMargin >= c.Capacity {
		return fmt.Errorf("bcache.reservedMargin must be in [0, capacity)")
	}
	if c.BlockSize <= 0 {
		return fmt.Errorf("bcache.blockSize must be > 0")
	}
	return nil
}

// SyncFunc is the flush-everything collaborator: conceptually "persist
// and quiesce". The cache invokes it when dirty occupancy reaches the
// high-water mark.
type SyncFunc func(ctx context.Context) error

// Service is the buffer cache. One Spin lock guards all pool metadata
// (list links, reference counts, flags, the device registry); each
// buffer's payload is guarded by its own sleep lock. The pool lock is
// always released before blocking on a payload lock.
type Service struct {
	config Config

	mu   lock.Spin
	bufs []*buf.Buf
	head int // most recently used
	tail int // least recently used

	devices map[int]disk.Device

	log    wal.Writer
	syncFn SyncFunc

	// syncing guards against the flush-everything operation re-triggering
	// itself through its own buffer touches.
	syncing atomic.Bool

	stats    *stats.Stats
	events   *event.Service
	kernelID string
}

// New creates a buffer cache with statically allocated slots.
func New(config Config, options ...Option) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	s := &Service{
		config:  config,
		bufs:    make([]*buf.Buf, config.Capacity),
		devices: make(map[int]disk.Device),
	}
	for i := range s.bufs {
		s.bufs[i] = buf.New(config.BlockSize)
		s.bufs[i].Index = i
	}
	// Chain every slot into the shared list; order is irrelevant until
	// first use.
	for i := range s.bufs {
		if i > 0 {
			s.bufs[i].Prev = i - 1
		}
		if i < len(s.bufs)-1 {
			s.bufs[i].Next = i + 1
		}
	}
	s.head = 0
	s.tail = len(s.bufs) - 1

	for _, opt := range options {
		opt(s)
	}
	if s.syncFn == nil {
		s.syncFn = s.Sync
	}
	return s, nil
}

// Config returns a copy of the service configuration.
func (s *Service) Configuration() Config {
	return s.config
}

// tracker picks the stats tracker from the context when present, falling
// back to the configured one.
func (s *Service) tracker(ctx context.Context) *stats.Stats {
	if tr := stats.FromContext(ctx); tr != nil {
		return tr
	}
	return s.stats
}

// unlink removes slot i from the shared list. Caller holds the pool lock.
func (s *Service) unlink(i int) {
	b := s.bufs[i]
	if b.Prev != buf.None {
		s.bufs[b.Prev].Next = b.Next
	} else {
		s.head = b.Next
	}
	if b.Next != buf.None {
		s.bufs[b.Next].Prev = b.Prev
	} else {
		s.tail = b.Prev
	}
	b.Prev, b.Next = buf.None, buf.None
}

// toFront moves slot i to the most-recently-used end. Caller holds the
// pool lock.
func (s *Service) toFront(i int) {
	if s.head == i {
		return
	}
	s.unlink(i)
	b := s.bufs[i]
	b.Next = s.head
	if s.head != buf.None {
		s.bufs[s.head].Prev = i
	}
	s.head = i
	if s.tail == buf.None {
		s.tail = i
	}
}
