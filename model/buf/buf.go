// Package buf defines the disk-block buffer used by the buffer cache.
// A buffer's metadata (flags, reference count, list links) is guarded by
// the cache's pool lock; the payload bytes are guarded by the buffer's own
// sleep lock, which the holder may keep across blocking disk I/O.
package buf

import (
	"github.com/viant/gokern/internal/lock"
)

// None is the sentinel index for "not linked" in the cache's LRU list.
const None = -1

// Buf is one slot of the fixed buffer pool. Buffers are statically
// allocated – a cache miss repurposes an evictable slot, it never
// allocates.
type Buf struct {
	// Index is the slot's fixed position in the pool arena; list links
	// refer to it.
	Index int

	Device  int
	Blockno int

	// Valid means the payload holds the block's content; Dirty means the
	// payload was modified and the log subsystem has not committed it yet.
	// A dirty buffer is never evictable, whatever its reference count.
	Valid bool
	Dirty bool

	// Refcnt counts outstanding Acquire calls not yet matched by Release.
	// While positive the buffer is reserved against repurposing even
	// before its payload lock is taken.
	Refcnt int

	Data []byte

	// Prev/Next are arena indexes into the cache's buffer list, most
	// recently used at the head.
	Prev int
	Next int

	lk *lock.Sleep
}

// New returns an unlinked, invalid buffer with the given payload size.
func New(blockSize int) *Buf {
	return &Buf{
		Device:  None,
		Blockno: None,
		Data:    make([]byte, blockSize),
		Prev:    None,
		Next:    None,
		lk:      lock.NewSleep(),
	}
}

// Lk exposes the payload lock. Acquisition order is fixed: the cache's
// pool lock is always released before blocking here.
func (b *Buf) Lk() *lock.Sleep { return b.lk }

// Key reports whether the buffer currently caches (device, blockno).
func (b *Buf) Key(device, blockno int) bool {
	return b.Device == device && b.Blockno == blockno
}
