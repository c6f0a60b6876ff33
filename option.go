package gokern

import (
	"github.com/viant/gokern/policy"
	"github.com/viant/gokern/service/disk"
	"github.com/viant/gokern/service/event"
	"github.com/viant/gokern/service/scheduler"
	"github.com/viant/gokern/service/wal"
	"github.com/viant/gokern/stats"
	"github.com/viant/gokern/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the kernel service
type Option func(s *Service)

// WithID sets the kernel run identifier.
func WithID(id string) Option {
	return func(s *Service) { s.id = id }
}

// WithConfig sets the kernel configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithEventService sets the kernel event bus.
func WithEventService(service *event.Service) Option {
	return func(s *Service) { s.eventService = service }
}

// WithStats sets the stats tracker shared by the scheduler and the
// buffer cache.
func WithStats(tracker *stats.Stats) Option {
	return func(s *Service) { s.statsTracker = tracker }
}

// WithPinPolicy sets the self-pin approval policy.
func WithPinPolicy(p *policy.Policy) Option {
	return func(s *Service) { s.pinPolicy = p }
}

// WithSwitcher sets the scheduler's context-switch collaborator.
func WithSwitcher(sw scheduler.Switcher) Option {
	return func(s *Service) { s.switcher = sw }
}

// WithWALWriter sets the write-ahead log the cache flushes dirty blocks
// to.
func WithWALWriter(w wal.Writer) Option {
	return func(s *Service) { s.walWriter = w }
}

// WithDevice mounts a block device under the given device number.
func WithDevice(number int, device disk.Device) Option {
	return func(s *Service) { s.devices[number] = device }
}

// WithTracing configures OpenTelemetry tracing for the service. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file path. The function is
// safe to call multiple times – the first successful initialisation wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing using a custom SpanExporter. This enables
// integrations with exporters other than the built-in stdout exporter, for example OTLP, Jaeger or
// Zipkin. The function is safe to call multiple times – the first successful initialisation wins.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
