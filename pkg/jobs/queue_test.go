package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRetriesUntilSuccess(t *testing.T) {
	var calls int32
	done := make(chan string, 1)
	q := NewQueue[string]("test", func(ctx context.Context, item string) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("redis down")
		}
		done <- item
		return nil
	}, Config{RetryDelay: time.Millisecond, MaxRetries: 5})

	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue("roster:*"))
	select {
	case got := <-done:
		assert.Equal(t, "roster:*", got)
	case <-time.After(2 * time.Second):
		t.Fatal("item was not processed")
	}
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestQueueGivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	q := NewQueue[int]("test", func(ctx context.Context, item int) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("always")
	}, Config{RetryDelay: time.Millisecond, MaxRetries: 2})

	q.Start(context.Background())
	require.NoError(t, q.Enqueue(1))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	q.Stop()
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestEnqueueRequiresRunningQueue(t *testing.T) {
	q := NewQueue[int]("test", func(context.Context, int) error { return nil }, Config{})
	assert.ErrorIs(t, q.Enqueue(1), ErrNotRunning)

	q.Start(context.Background())
	q.Stop()
	assert.ErrorIs(t, q.Enqueue(1), ErrNotRunning)
}

func TestEnqueueDoesNotBlockWhenFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue[int]("test", func(ctx context.Context, item int) error {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	var full bool
	for i := 0; i < 5; i++ {
		if errors.Is(q.Enqueue(i), ErrFull) {
			full = true
			break
		}
	}
	assert.True(t, full)
}
