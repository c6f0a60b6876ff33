// Package wal defines the log-writer collaborator the buffer cache hands
// dirty buffers to. Transaction and commit semantics are owned by the log
// subsystem; the cache only captures and waits.
package wal

import "context"

// Record is a captured dirty block. Payload is a copy taken at capture
// time so the log subsystem never aliases cache memory.
type Record struct {
	Device  int
	Blockno int
	Payload []byte
}

// Writer receives dirty buffers from the cache's flush operation.
type Writer interface {
	// Log captures a dirty block into the current transaction.
	Log(ctx context.Context, record Record) error

	// Commit makes every captured block durable. Once Commit returns nil
	// the cache may clear the Dirty flag on the captured buffers.
	Commit(ctx context.Context) error
}
