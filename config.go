package gokern

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/viant/gokern/policy"
	"github.com/viant/gokern/service/bcache"
	"github.com/viant/gokern/service/scheduler"
)

// Config is a serialisable representation of the kernel configuration.
// It can be populated from JSON or YAML. The zero-value is useful – all
// nested fields inherit their package defaults.
type Config struct {
	// TableSize is the process table capacity.
	TableSize int `json:"tableSize" yaml:"tableSize"`

	Scheduler scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Cache     bcache.Config    `json:"cache" yaml:"cache"`

	// Pin is the declarative part of the self-pin policy; nil keeps the
	// default allow-with-capped-budget behaviour.
	Pin *policy.Config `json:"pin,omitempty" yaml:"pin,omitempty"`
}

// DefaultConfig returns a Config populated with the reference values of
// every subsystem. Callers may modify the returned struct before passing
// it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		TableSize: 64,
		Scheduler: scheduler.DefaultConfig(),
		Cache:     bcache.DefaultConfig(),
	}
}

// Validate returns aggregated error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.TableSize <= 0 {
		return fmt.Errorf("tableSize must be > 0")
	}
	if err := c.Scheduler.Validate(); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// LoadConfig reads a YAML kernel configuration from the given URL
// (file://, mem://, s3:// – any scheme the afs service understands).
// Absent fields keep their defaults.
func LoadConfig(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %v: %w", URL, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %v: %w", URL, err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
