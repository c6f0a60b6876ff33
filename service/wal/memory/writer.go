package memory

import (
	"context"
	"sync"

	"github.com/viant/gokern/service/wal"
)

// Writer is an in-memory log writer. It records captured blocks and, on
// Commit, moves them to the committed set and invokes the onCommit
// callback. It stands in for a real write-ahead log in tests and in
// single-node embeddings.
type Writer struct {
	mu        sync.Mutex
	pending   []wal.Record
	committed []wal.Record
	onCommit  func(records []wal.Record)
}

// New creates an in-memory log writer.
func New() *Writer {
	return &Writer{}
}

// OnCommit registers a callback invoked with the records of every
// successful Commit. Passing nil disables the callback.
func (w *Writer) OnCommit(fn func(records []wal.Record)) {
	w.mu.Lock()
	w.onCommit = fn
	w.mu.Unlock()
}

// Log captures a record into the pending transaction.
func (w *Writer) Log(ctx context.Context, record wal.Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	w.mu.Lock()
	w.pending = append(w.pending, record)
	w.mu.Unlock()
	return nil
}

// Commit moves pending records to the committed set.
func (w *Writer) Commit(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	w.mu.Lock()
	records := w.pending
	w.pending = nil
	w.committed = append(w.committed, records...)
	cb := w.onCommit
	w.mu.Unlock()

	if cb != nil && len(records) > 0 {
		cb(records)
	}
	return nil
}

// Pending returns the number of captured, uncommitted records.
func (w *Writer) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Committed returns a copy of every committed record.
func (w *Writer) Committed() []wal.Record {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]wal.Record, len(w.committed))
	copy(out, w.committed)
	return out
}

var _ wal.Writer = (*Writer)(nil)
