package fs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
)

type journalEntry struct {
	Kind    string `json:"kind"`
	Blockno int    `json:"blockno"`
}

func newTestQueue(t *testing.T) *Queue[journalEntry] {
	t.Helper()
	queue, err := NewQueue[journalEntry](afs.New(), Config{
		BasePath:    t.TempDir(),
		MaxAttempts: 1,
		RetryDelay:  0,
	})
	require.NoError(t, err)
	return queue
}

func TestNewQueueCreatesStageLayout(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()
	for _, dir := range []string{queue.inboxDir, queue.inflightDir, queue.doneDir, queue.retryDir, queue.deadDir} {
		exists, err := queue.fs.Exists(ctx, dir)
		require.NoError(t, err)
		assert.True(t, exists, dir)
	}
}

func TestNewQueueRequiresBasePath(t *testing.T) {
	_, err := NewQueue[journalEntry](afs.New(), Config{})
	assert.Error(t, err)
}

func TestQueueDeliversInPublishOrder(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		entry := journalEntry{Kind: "write", Blockno: i}
		require.NoError(t, queue.Publish(ctx, &entry))
		time.Sleep(time.Millisecond)
	}

	for i := 0; i < 3; i++ {
		message, err := queue.Consume(ctx)
		require.NoError(t, err)
		require.NotNil(t, message)
		assert.Equal(t, i, message.T().Blockno)
		require.NoError(t, message.Ack())
	}

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	assert.Nil(t, message)
}

func TestQueueAckFilesUnderDone(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	entry := journalEntry{Kind: "write", Blockno: 7}
	require.NoError(t, queue.Publish(ctx, &entry))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	require.NoError(t, message.Ack())
	assert.Error(t, message.Ack())

	assert.Equal(t, 1, stageCount(t, queue, queue.doneDir))
	assert.Equal(t, 0, stageCount(t, queue, queue.inflightDir))
}

func TestQueueRetriesThenParksDead(t *testing.T) {
	queue := newTestQueue(t)
	ctx := context.Background()

	entry := journalEntry{Kind: "evict", Blockno: 9}
	require.NoError(t, queue.Publish(ctx, &entry))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	require.NoError(t, message.Nack(errors.New("device busy")))

	// A parked message is redelivered ahead of new arrivals.
	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	assert.Equal(t, 9, message.T().Blockno)
	require.NoError(t, message.Nack(errors.New("device busy")))

	// Second failure exceeds MaxAttempts.
	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Nil(t, message)
	assert.Equal(t, 1, stageCount(t, queue, queue.deadDir))
}

func TestQueueHonorsRetryDelay(t *testing.T) {
	queue, err := NewQueue[journalEntry](afs.New(), Config{
		BasePath:    t.TempDir(),
		MaxAttempts: 3,
		RetryDelay:  time.Hour,
	})
	require.NoError(t, err)
	ctx := context.Background()

	entry := journalEntry{Kind: "evict", Blockno: 3}
	require.NoError(t, queue.Publish(ctx, &entry))

	message, err := queue.Consume(ctx)
	require.NoError(t, err)
	require.NotNil(t, message)
	require.NoError(t, message.Nack(errors.New("device busy")))

	// Parked until the delay elapses.
	message, err = queue.Consume(ctx)
	require.NoError(t, err)
	assert.Nil(t, message)
	assert.Equal(t, 1, stageCount(t, queue, queue.retryDir))
}

func stageCount(t *testing.T, queue *Queue[journalEntry], dir string) int {
	t.Helper()
	objects, err := queue.fs.List(context.Background(), dir)
	require.NoError(t, err)
	count := 0
	for _, obj := range objects {
		if !obj.IsDir() {
			count++
		}
	}
	return count
}
