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

func TestQueueDispatchesByType(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1})
	done := make(chan Job, 1)
	q.Register("registration", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "registration", Payload: "u1"}))

	select {
	case job := <-done:
		assert.Equal(t, "u1", job.Payload)
		assert.NotEmpty(t, job.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesFailedJob(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: 5 * time.Millisecond})
	var calls int32
	done := make(chan struct{})
	q.Register("flaky", func(ctx context.Context, job Job) error {
		if atomic.AddInt32(&calls, 1) < 2 {
			return errors.New("transient")
		}
		close(done)
		return nil
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{Type: "flaky"}))

	select {
	case <-done:
		assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	case <-time.After(2 * time.Second):
		t.Fatal("job not retried")
	}
}

func TestQueueRejectsUnknownTypeAndUnstarted(t *testing.T) {
	q := NewQueue("test", QueueConfig{})
	q.Register("known", func(ctx context.Context, job Job) error { return nil })

	assert.Error(t, q.Enqueue(Job{Type: "known"}))

	q.Start(context.Background())
	defer q.Stop()
	assert.Error(t, q.Enqueue(Job{Type: "unknown"}))
}

func TestQueueFull(t *testing.T) {
	q := NewQueue("test", QueueConfig{Workers: 1, BufferSize: 1})
	block := make(chan struct{})
	started := make(chan struct{}, 1)
	q.Register("slow", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-block
		return nil
	})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{Type: "slow"}))
	<-started
	require.NoError(t, q.Enqueue(Job{Type: "slow"}))
	assert.ErrorIs(t, q.Enqueue(Job{Type: "slow"}), ErrQueueFull)
}
