package event

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/gokern/service/messaging/fs"
	"github.com/viant/gokern/service/messaging/memory"
)

func newMemoryService(t *testing.T) *Service {
	t.Helper()
	svc, err := New("memory", WithNewMemoryQueueConfig(func(name string) memory.Config {
		return memory.DefaultConfig()
	}))
	require.NoError(t, err)
	return svc
}

func TestTypedPublishConsume(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	publisher, err := PublisherOf[ProcessTransition](svc)
	require.NoError(t, err)

	evCtx := &Context{KernelID: "run-1", Pid: 4, EventType: "process_transition", Component: "scheduler"}
	err = publisher.Publish(ctx, NewEvent(evCtx, ProcessTransition{Pid: 4, From: "runnable", To: "running", Level: 0}))
	require.NoError(t, err)

	got, err := publisher.Consume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Data.Pid)
	assert.Equal(t, "running", got.Data.To)
	assert.Equal(t, "run-1", got.Context.KernelID)
}

func TestPublisherOfIsSingletonPerType(t *testing.T) {
	svc := newMemoryService(t)

	first, err := PublisherOf[BufferEvicted](svc)
	require.NoError(t, err)
	second, err := PublisherOf[BufferEvicted](svc)
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestTypedListener(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	received := make(chan *Event[SyncTriggered], 1)
	require.NoError(t, SetListenerOf[SyncTriggered](svc, func(ev *Event[SyncTriggered]) {
		received <- ev
	}))

	publisher, err := PublisherOf[SyncTriggered](svc)
	require.NoError(t, err)
	evCtx := &Context{KernelID: "run-1", EventType: "sync_triggered", Component: "bcache"}
	require.NoError(t, publisher.Publish(ctx, NewEvent(evCtx, SyncTriggered{Dirty: 27})))

	select {
	case ev := <-received:
		assert.Equal(t, 27, ev.Data.Dirty)
	case <-time.After(time.Second):
		t.Fatal("listener never received the event")
	}
}

func TestReplacedListenerStopsConsuming(t *testing.T) {
	svc := newMemoryService(t)
	ctx := context.Background()

	stale := make(chan *Event[BufferEvicted], 1)
	require.NoError(t, SetListenerOf[BufferEvicted](svc, func(ev *Event[BufferEvicted]) {
		stale <- ev
	}))

	fresh := make(chan *Event[BufferEvicted], 1)
	require.NoError(t, SetListenerOf[BufferEvicted](svc, func(ev *Event[BufferEvicted]) {
		fresh <- ev
	}))
	// Let the replaced listener observe its cancellation.
	time.Sleep(20 * time.Millisecond)

	publisher, err := PublisherOf[BufferEvicted](svc)
	require.NoError(t, err)
	evCtx := &Context{KernelID: "run-1", EventType: "buffer_evicted", Component: "bcache"}
	require.NoError(t, publisher.Publish(ctx, NewEvent(evCtx, BufferEvicted{Device: 0, Blockno: 5})))

	select {
	case ev := <-fresh:
		assert.Equal(t, 5, ev.Data.Blockno)
	case <-stale:
		t.Fatal("replaced listener consumed the event")
	case <-time.After(time.Second):
		t.Fatal("active listener never received the event")
	}
}

func TestFsVendorPublishConsume(t *testing.T) {
	base := t.TempDir()
	svc, err := New("fs", WithNewFsQueueConfig(func(name string) fs.Config {
		return fs.Config{
			BasePath:    filepath.Join(base, name),
			MaxAttempts: 3,
			RetryDelay:  time.Second,
		}
	}))
	require.NoError(t, err)

	publisher, err := PublisherOf[ProcessTransition](svc)
	require.NoError(t, err)

	ctx := context.Background()
	evCtx := &Context{KernelID: "run-1", Pid: 2, EventType: "process_transition", Component: "scheduler"}
	require.NoError(t, publisher.Publish(ctx, NewEvent(evCtx, ProcessTransition{Pid: 2, From: "running", To: "zombie", Level: 1})))

	got, err := publisher.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Data.Pid)
	assert.Equal(t, "zombie", got.Data.To)
}

func TestFsVendorRequiresQueueConfig(t *testing.T) {
	_, err := New("fs")
	assert.Error(t, err)
}

func TestUnsupportedVendor(t *testing.T) {
	_, err := New("kafka")
	assert.Error(t, err)
}
