package fs

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// Device implements a block device on top of the abstract file storage,
// one object per block under a base URL. Any scheme afs understands works
// (file://, mem://, …), which keeps integration tests hermetic.
type Device struct {
	baseURL   string
	blockSize int
	fs        afs.Service
	mu        sync.RWMutex
}

// New creates a storage-backed device rooted at baseURL.
func New(baseURL string, blockSize int) (*Device, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", blockSize)
	}
	return &Device{
		baseURL:   baseURL,
		blockSize: blockSize,
		fs:        afs.New(),
	}, nil
}

// ReadBlock fills payload with the stored block content; a block that was
// never written reads as zero bytes.
func (d *Device) ReadBlock(ctx context.Context, blockno int, payload []byte) error {
	if len(payload) != d.blockSize {
		return fmt.Errorf("fs device: payload size %d does not match block size %d", len(payload), d.blockSize)
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	blockURL := d.blockURL(blockno)
	exists, err := d.fs.Exists(ctx, blockURL)
	if err != nil {
		return fmt.Errorf("failed to check block %d: %w", blockno, err)
	}
	if !exists {
		for i := range payload {
			payload[i] = 0
		}
		return nil
	}

	data, err := d.fs.DownloadWithURL(ctx, blockURL)
	if err != nil {
		return fmt.Errorf("failed to read block %d: %w", blockno, err)
	}
	if len(data) != d.blockSize {
		return fmt.Errorf("fs device: block %d has size %d, want %d", blockno, len(data), d.blockSize)
	}
	copy(payload, data)
	return nil
}

// WriteBlock persists payload as the block content.
func (d *Device) WriteBlock(ctx context.Context, blockno int, payload []byte) error {
	if len(payload) != d.blockSize {
		return fmt.Errorf("fs device: payload size %d does not match block size %d", len(payload), d.blockSize)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	blockURL := d.blockURL(blockno)
	if err := d.fs.Upload(ctx, blockURL, file.DefaultFileOsMode, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to write block %d: %w", blockno, err)
	}
	return nil
}

func (d *Device) blockURL(blockno int) string {
	return url.Join(d.baseURL, fmt.Sprintf("block_%08d.blk", blockno))
}
