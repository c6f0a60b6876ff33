package bcache

import (
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/service/wal"
	"github.com/viant/gokern/stats"
)

// Option customises the buffer cache service.
type Option func(s *Service)

// WithLogWriter sets the log-writer collaborator dirty buffers are handed
// to.
func WithLogWriter(w wal.Writer) Option {
	return func(s *Service) { s.log = w }
}

// WithSyncFunc overrides the flush-everything collaborator invoked when
// dirty occupancy reaches the high-water mark. The default is the
// service's own Sync.
func WithSyncFunc(fn SyncFunc) Option {
	return func(s *Service) { s.syncFn = fn }
}

// WithStats sets the fallback stats tracker used when the request context
// carries none.
func WithStats(tr *stats.Stats) Option {
	return func(s *Service) { s.stats = tr }
}

// WithEvents sets the kernel event bus evictions and sync triggers are
// published to.
func WithEvents(kernelID string, svc *event.Service) Option {
	return func(s *Service) {
		s.kernelID = kernelID
		s.events = svc
	}
}
