package scheduler

import (
	"github.com/viant/gokern/policy"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/stats"
)

// Option customises the scheduler service.
type Option func(s *Service)

// WithSwitcher sets the context-switch collaborator.
func WithSwitcher(sw Switcher) Option {
	return func(s *Service) { s.switcher = sw }
}

// WithPinPolicy sets the fallback pin policy used when the request
// context carries none.
func WithPinPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.pinPolicy = p }
}

// WithStats sets the stats tracker scheduling counters are reported to.
func WithStats(tr *stats.Stats) Option {
	return func(s *Service) { s.stats = tr }
}

// WithEvents sets the kernel event bus process transitions are published
// to.
func WithEvents(kernelID string, svc *event.Service) Option {
	return func(s *Service) {
		s.kernelID = kernelID
		s.events = svc
	}
}
