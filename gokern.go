package gokern

import (
	"fmt"

	"github.com/viant/gokern/internal/idgen"
	"github.com/viant/gokern/model/proc"
	"github.com/viant/gokern/policy"
	"github.com/viant/gokern/service/bcache"
	"github.com/viant/gokern/service/disk"
	dmemory "github.com/viant/gokern/service/disk/memory"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/service/scheduler"
	"github.com/viant/gokern/service/wal"
	wmemory "github.com/viant/gokern/service/wal/memory"
	"github.com/viant/gokern/stats"
)

// Service represents the kernel service
type Service struct {
	id      string
	config  *Config
	runtime *Runtime

	eventService *event.Service
	statsTracker *stats.Stats
	pinPolicy    *policy.Policy
	switcher     scheduler.Switcher
	walWriter    wal.Writer
	devices      map[int]disk.Device
}

// New assembles a kernel from the supplied options. Collaborators that
// were not provided get reference implementations: a memory block device
// mounted as device 0 and a memory write-ahead log.
func New(options ...Option) (*Service, error) {
	ret := &Service{
		runtime: &Runtime{},
		devices: map[int]disk.Device{},
	}
	for _, option := range options {
		option(ret)
	}
	if err := ret.init(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (s *Service) init() error {
	s.ensureBaseSetup()
	if err := s.config.Validate(); err != nil {
		return err
	}

	table := proc.NewTable(s.config.TableSize)

	sched, err := scheduler.New(s.config.Scheduler, table,
		scheduler.WithSwitcher(s.switcher),
		scheduler.WithPinPolicy(s.pinPolicy),
		scheduler.WithStats(s.statsTracker),
		scheduler.WithEvents(s.id, s.eventService))
	if err != nil {
		return err
	}

	cache, err := bcache.New(s.config.Cache,
		bcache.WithLogWriter(s.walWriter),
		bcache.WithStats(s.statsTracker),
		bcache.WithEvents(s.id, s.eventService))
	if err != nil {
		return err
	}
	for number, device := range s.devices {
		if err := cache.Mount(number, device); err != nil {
			return fmt.Errorf("failed to mount device %d: %w", number, err)
		}
	}

	s.runtime.id = s.id
	s.runtime.config = s.config
	s.runtime.table = table
	s.runtime.scheduler = sched
	s.runtime.cache = cache
	s.runtime.stats = s.statsTracker
	return nil
}

func (s *Service) ensureBaseSetup() {
	if s.id == "" {
		s.id = idgen.New()
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.statsTracker == nil {
		s.statsTracker = &stats.Stats{KernelID: s.id}
	}
	if s.walWriter == nil {
		s.walWriter = wmemory.New()
	}
	if len(s.devices) == 0 {
		config := dmemory.DefaultConfig()
		config.BlockSize = s.config.Cache.BlockSize
		s.devices[0] = dmemory.New(config)
	}
}

// ID returns the kernel run identifier.
func (s *Service) ID() string {
	return s.id
}

// Runtime returns the assembled kernel runtime.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}

// Stats returns the kernel stats tracker.
func (s *Service) Stats() *stats.Stats {
	return s.statsTracker
}
