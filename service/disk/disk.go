// Package disk defines the block-device collaborator consumed by the
// buffer cache. The cache only issues synchronous requests and waits;
// request queuing, completion interrupts and retry policy belong to the
// device implementation.
package disk

import "context"

// Device performs the actual block I/O. Implementations must be safe for
// concurrent use; the cache serialises access per block through payload
// locks but distinct blocks are read and written concurrently.
type Device interface {
	// ReadBlock fills payload with the content of the given block.
	ReadBlock(ctx context.Context, blockno int, payload []byte) error

	// WriteBlock persists payload as the content of the given block.
	WriteBlock(ctx context.Context, blockno int, payload []byte) error
}
