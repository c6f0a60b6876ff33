// Package bcache implements the synchronized, write-back buffer cache for
// disk blocks. It hands each requester a locked, reference-counted handle
// to the unique in-memory copy of a block, serialises per-block access
// through payload locks, and bounds dirty growth by invoking the
// flush-everything collaborator when dirty occupancy nears capacity.
//
// Interface:
//   - To get a buffer for a particular block, call Read.
//   - After changing buffer data, call Write.
//   - When done with the buffer, call Release.
//   - Do not use the buffer after calling Release.
//
// The pool is fixed: buffers are statically allocated and a miss
// repurposes the least recently used evictable slot. A dirty buffer is
// never evictable, whatever its reference count, until the log subsystem
// has captured and committed it.
package bcache
