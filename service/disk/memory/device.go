package memory

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Config for the in-memory device implementation.
type Config struct {
	BlockSize int
	// Latency, when positive, delays every request to model a spinning
	// disk in tests.
	Latency time.Duration
}

// DefaultConfig returns a standard configuration for the memory device.
func DefaultConfig() Config {
	return Config{BlockSize: 512}
}

// Device is a map-backed block device. Reading a never-written block
// returns zero bytes, mirroring a freshly formatted disk.
type Device struct {
	config Config
	mu     sync.RWMutex
	blocks map[int][]byte
	reads  int
	writes int
}

// New creates an in-memory device.
func New(config Config) *Device {
	if config.BlockSize <= 0 {
		config.BlockSize = DefaultConfig().BlockSize
	}
	return &Device{
		config: config,
		blocks: make(map[int][]byte),
	}
}

// ReadBlock copies the stored block content into payload.
func (d *Device) ReadBlock(ctx context.Context, blockno int, payload []byte) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if len(payload) != d.config.BlockSize {
		return fmt.Errorf("memory device: payload size %d does not match block size %d", len(payload), d.config.BlockSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reads++
	stored, ok := d.blocks[blockno]
	if !ok {
		for i := range payload {
			payload[i] = 0
		}
		return nil
	}
	copy(payload, stored)
	return nil
}

// WriteBlock stores a copy of payload as the block content.
func (d *Device) WriteBlock(ctx context.Context, blockno int, payload []byte) error {
	if err := d.wait(ctx); err != nil {
		return err
	}
	if len(payload) != d.config.BlockSize {
		return fmt.Errorf("memory device: payload size %d does not match block size %d", len(payload), d.config.BlockSize)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	stored := make([]byte, len(payload))
	copy(stored, payload)
	d.blocks[blockno] = stored
	return nil
}

// Reads returns the number of read requests served.
func (d *Device) Reads() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.reads
}

// Writes returns the number of write requests served.
func (d *Device) Writes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.writes
}

func (d *Device) wait(ctx context.Context) error {
	if d.config.Latency <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	select {
	case <-time.After(d.config.Latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
