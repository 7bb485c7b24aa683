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

func TestQueueProcessesPayload(t *testing.T) {
	done := make(chan string, 1)
	q := NewQueue("runs", func(_ context.Context, job Job[string]) error {
		done <- job.Payload
		return nil
	}, QueueConfig{})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "run-1", Payload: "operator"}))
	select {
	case got := <-done:
		assert.Equal(t, "operator", got)
	case <-time.After(2 * time.Second):
		t.Fatal("job not processed")
	}
}

func TestQueueRetriesThenReportsExhaustion(t *testing.T) {
	var attempts int32
	exhausted := make(chan Job[int], 1)
	q := NewQueue("runs", func(_ context.Context, job Job[int]) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("snapshot unavailable")
	}, QueueConfig{MaxRetries: 2, RetryDelay: 10 * time.Millisecond})
	q.OnExhausted(func(job Job[int], _ error) { exhausted <- job })
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[int]{ID: "run-2", Payload: 7}))
	select {
	case job := <-exhausted:
		assert.Equal(t, 3, job.Attempt)
		assert.Equal(t, 7, job.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("exhaustion callback not invoked")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("runs", func(context.Context, Job[int]) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job[int]{ID: "x"}))
}
