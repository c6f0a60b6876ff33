// Package fs provides a filesystem-backed messaging queue. Each message is
// a JSON file that moves between stage directories as delivery progresses,
// so queued events survive a kernel restart.
package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"

	"github.com/viant/gokern/service/messaging"
)

// Stage identifies where a message sits in its delivery lifecycle. The
// stage name doubles as the directory the message file lives in.
type Stage string

const (
	// StageInbox holds published messages awaiting delivery.
	StageInbox Stage = "inbox"

	// StageInflight holds messages claimed by a consumer.
	StageInflight Stage = "inflight"

	// StageDone holds acknowledged messages.
	StageDone Stage = "done"

	// StageRetry parks failed messages until their next attempt.
	StageRetry Stage = "retry"

	// StageDead holds messages that exhausted their attempts or could
	// not be decoded.
	StageDead Stage = "dead"
)

// Message is a single durable queue entry.
type Message[T any] struct {
	ID        string    `json:"id"`
	Data      T         `json:"data"`
	Stage     Stage     `json:"stage"`
	Error     string    `json:"error,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	queue   *Queue[T]
	settled bool
	mu      sync.Mutex
}

// T returns the message payload.
func (m *Message[T]) T() *T {
	return &m.Data
}

// Ack marks the message delivered and files it under done/.
func (m *Message[T]) Ack() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settled {
		return fmt.Errorf("message %s already settled", m.ID)
	}
	m.settled = true
	m.Stage = StageDone
	m.UpdatedAt = time.Now()
	return m.queue.settle(context.Background(), m, m.queue.doneDir)
}

// Nack records a delivery failure. The message is parked under retry/
// until it exhausts MaxAttempts, then it moves to dead/.
func (m *Message[T]) Nack(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.settled {
		return fmt.Errorf("message %s already settled", m.ID)
	}
	m.settled = true
	if err != nil {
		m.Error = err.Error()
	}
	m.Attempts++
	m.UpdatedAt = time.Now()

	m.Stage = StageRetry
	dest := m.queue.retryDir
	if m.Attempts > m.queue.config.MaxAttempts {
		m.Stage = StageDead
		dest = m.queue.deadDir
	}
	return m.queue.settle(context.Background(), m, dest)
}

// Config holds filesystem queue settings.
type Config struct {
	BasePath    string        // Root directory of the stage layout
	MaxAttempts int           // Delivery attempts before a message is declared dead
	RetryDelay  time.Duration // Minimum wait before a parked message is retried
}

// DefaultConfig returns the reference filesystem queue configuration.
func DefaultConfig() Config {
	return Config{
		BasePath:    "/var/lib/gokern/events",
		MaxAttempts: 3,
		RetryDelay:  time.Second,
	}
}

// Queue is a filesystem-backed messaging.Queue. Every stage transition is
// upload-then-delete, so a crash mid-transition leaves at most a duplicate
// file, never a lost message.
type Queue[T any] struct {
	fs     afs.Service
	config Config

	inboxDir    string
	inflightDir string
	doneDir     string
	retryDir    string
	deadDir     string

	mu sync.Mutex
}

// NewQueue creates a filesystem queue rooted at config.BasePath and
// ensures the stage directories exist.
func NewQueue[T any](fs afs.Service, config Config) (*Queue[T], error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("fs queue: base path is empty")
	}

	q := &Queue[T]{
		fs:          fs,
		config:      config,
		inboxDir:    path.Join(config.BasePath, string(StageInbox)),
		inflightDir: path.Join(config.BasePath, string(StageInflight)),
		doneDir:     path.Join(config.BasePath, string(StageDone)),
		retryDir:    path.Join(config.BasePath, string(StageRetry)),
		deadDir:     path.Join(config.BasePath, string(StageDead)),
	}

	ctx := context.Background()
	for _, dir := range []string{q.inboxDir, q.inflightDir, q.doneDir, q.retryDir, q.deadDir} {
		if exists, _ := fs.Exists(ctx, dir); exists {
			continue
		}
		if err := fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("fs queue: create %s: %w", dir, err)
		}
	}
	return q, nil
}

// Publish files a new message under inbox/.
func (q *Queue[T]) Publish(ctx context.Context, t *T) error {
	now := time.Now()
	message := &Message[T]{
		ID:        uuid.New().String(),
		Data:      *t,
		Stage:     StageInbox,
		CreatedAt: now,
		UpdatedAt: now,
		queue:     q,
	}
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("fs queue: marshal message: %w", err)
	}
	return q.upload(ctx, path.Join(q.inboxDir, q.filename(message)), data)
}

// Consume claims the oldest message and moves it to inflight/. Parked
// retries take precedence over new arrivals. Returns a nil message when
// the queue is empty.
func (q *Queue[T]) Consume(ctx context.Context) (messaging.Message[T], error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	message, err := q.claimRetry(ctx)
	if err != nil {
		return nil, err
	}
	if message != nil {
		return message, nil
	}

	obj, err := q.oldest(ctx, q.inboxDir)
	if err != nil || obj == nil {
		return nil, err
	}
	message, err = q.decode(ctx, obj)
	if err != nil || message == nil {
		return nil, err
	}
	message, err = q.toInflight(ctx, obj, message)
	if err != nil || message == nil {
		return nil, err
	}
	return message, nil
}

// claimRetry redelivers the oldest parked message once its retry delay
// has elapsed. Messages past MaxAttempts go to dead/ instead. Caller
// holds q.mu.
func (q *Queue[T]) claimRetry(ctx context.Context) (*Message[T], error) {
	obj, err := q.oldest(ctx, q.retryDir)
	if err != nil || obj == nil {
		return nil, err
	}
	message, err := q.decode(ctx, obj)
	if err != nil || message == nil {
		return nil, err
	}
	if message.Attempts > q.config.MaxAttempts {
		if err := q.fs.Move(ctx, obj.URL(), path.Join(q.deadDir, obj.Name())); err != nil {
			return nil, fmt.Errorf("fs queue: move %s to dead: %w", obj.Name(), err)
		}
		return nil, nil
	}
	if time.Since(message.UpdatedAt) < q.config.RetryDelay {
		return nil, nil
	}
	return q.toInflight(ctx, obj, message)
}

// toInflight re-stages a claimed message under inflight/ and removes the
// source file. Caller holds q.mu.
func (q *Queue[T]) toInflight(ctx context.Context, obj storage.Object, message *Message[T]) (*Message[T], error) {
	message.Stage = StageInflight
	message.UpdatedAt = time.Now()
	message.queue = q

	data, err := json.Marshal(message)
	if err != nil {
		return nil, fmt.Errorf("fs queue: marshal message: %w", err)
	}
	if err := q.upload(ctx, path.Join(q.inflightDir, obj.Name()), data); err != nil {
		return nil, fmt.Errorf("fs queue: stage message: %w", err)
	}
	if err := q.fs.Delete(ctx, obj.URL()); err != nil {
		return nil, fmt.Errorf("fs queue: remove %s: %w", obj.URL(), err)
	}
	return message, nil
}

// settle files a claimed message under dest and clears its inflight copy.
func (q *Queue[T]) settle(ctx context.Context, m *Message[T], dest string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("fs queue: marshal message: %w", err)
	}
	name := q.filename(m)
	if err := q.upload(ctx, path.Join(dest, name), data); err != nil {
		return fmt.Errorf("fs queue: file message under %s: %w", dest, err)
	}
	inflight := path.Join(q.inflightDir, name)
	if exists, _ := q.fs.Exists(ctx, inflight); exists {
		if err := q.fs.Delete(ctx, inflight); err != nil {
			return fmt.Errorf("fs queue: remove inflight copy: %w", err)
		}
	}
	return nil
}

// oldest returns the lexically first message file in dir, nil when the
// stage is empty. Filenames carry a zero-padded publish timestamp, so
// lexical order is publish order.
func (q *Queue[T]) oldest(ctx context.Context, dir string) (storage.Object, error) {
	objects, err := q.fs.List(ctx, dir, option.NewRecursive(false))
	if err != nil {
		return nil, fmt.Errorf("fs queue: list %s: %w", dir, err)
	}
	var oldest storage.Object
	for _, obj := range objects {
		if obj.IsDir() || !strings.HasSuffix(obj.Name(), ".json") {
			continue
		}
		if oldest == nil || obj.Name() < oldest.Name() {
			oldest = obj
		}
	}
	return oldest, nil
}

// decode reads a message file. An undecodable file is moved to dead/
// rather than wedging the queue head.
func (q *Queue[T]) decode(ctx context.Context, obj storage.Object) (*Message[T], error) {
	data, err := q.fs.DownloadWithURL(ctx, obj.URL())
	if err != nil {
		return nil, fmt.Errorf("fs queue: read %s: %w", obj.URL(), err)
	}
	var message Message[T]
	if err := json.Unmarshal(data, &message); err != nil {
		_ = q.fs.Move(ctx, obj.URL(), path.Join(q.deadDir, "invalid-"+obj.Name()))
		return nil, fmt.Errorf("fs queue: decode %s: %w", obj.URL(), err)
	}
	message.queue = q
	return &message, nil
}

func (q *Queue[T]) filename(m *Message[T]) string {
	return fmt.Sprintf("%020d-%s.json", m.CreatedAt.UnixNano(), m.ID)
}

func (q *Queue[T]) upload(ctx context.Context, dest string, data []byte) error {
	return q.fs.Upload(ctx, dest, file.DefaultFileOsMode, bytes.NewReader(data))
}

// ensure Queue implements messaging.Queue interface
var _ messaging.Queue[any] = (*Queue[any])(nil)
