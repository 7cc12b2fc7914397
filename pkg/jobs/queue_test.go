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

func TestQueueRunsTypedJobs(t *testing.T) {
	done := make(chan string, 1)
	q := New("test", func(ctx context.Context, job Job[string]) error {
		done <- job.ID + ":" + job.Payload
		return nil
	}, Config{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[string]{ID: "job-1", Payload: "science"}))
	select {
	case got := <-done:
		assert.Equal(t, "job-1:science", got)
	case <-time.After(time.Second):
		t.Fatal("job was not processed")
	}
}

func TestQueueEnqueueRequiresStart(t *testing.T) {
	q := New("idle", func(ctx context.Context, job Job[int]) error { return nil }, Config{})
	err := q.Enqueue(Job[int]{ID: "job-1"})
	assert.True(t, errors.Is(err, ErrQueueClosed))
}

func TestQueueRejectsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	q := New("busy", func(ctx context.Context, job Job[int]) error {
		started <- struct{}{}
		<-release
		return nil
	}, Config{Workers: 1, BufferSize: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job[int]{ID: "running"}))
	<-started
	assert.Equal(t, 1, q.InFlight())
	require.NoError(t, q.Enqueue(Job[int]{ID: "waiting"}))
	assert.Equal(t, 1, q.Depth())

	err := q.Enqueue(Job[int]{ID: "overflow"})
	assert.True(t, errors.Is(err, ErrQueueFull))

	close(release)
	<-started
	q.Stop()
}

func TestQueueDoesNotRedeliverFailures(t *testing.T) {
	var attempts int32
	done := make(chan struct{}, 2)
	q := New("failing", func(ctx context.Context, job Job[int]) error {
		atomic.AddInt32(&attempts, 1)
		done <- struct{}{}
		return errors.New("boom")
	}, Config{Workers: 1})
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job[int]{ID: "job-1"}))
	<-done
	q.Stop()
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueSurvivesPanickingHandler(t *testing.T) {
	done := make(chan string, 1)
	q := New("panicky", func(ctx context.Context, job Job[int]) error {
		if job.Payload == 0 {
			panic("nil grid")
		}
		done <- job.ID
		return nil
	}, Config{Workers: 1})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job[int]{ID: "bad"}))
	require.NoError(t, q.Enqueue(Job[int]{ID: "good", Payload: 1}))
	select {
	case id := <-done:
		assert.Equal(t, "good", id)
	case <-time.After(time.Second):
		t.Fatal("worker did not survive the panic")
	}
	assert.Eventually(t, func() bool { return q.InFlight() == 0 }, time.Second, 5*time.Millisecond)
}

func TestQueueStopDiscardsBufferedJobs(t *testing.T) {
	started := make(chan struct{})
	q := New("draining", func(ctx context.Context, job Job[int]) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, Config{Workers: 1, BufferSize: 2})

	var discarded []string
	q.OnDiscard(func(job Job[int]) { discarded = append(discarded, job.ID) })
	q.Start(context.Background())

	require.NoError(t, q.Enqueue(Job[int]{ID: "running"}))
	<-started
	require.NoError(t, q.Enqueue(Job[int]{ID: "pending-1"}))
	require.NoError(t, q.Enqueue(Job[int]{ID: "pending-2"}))

	q.Stop()
	assert.Equal(t, []string{"pending-1", "pending-2"}, discarded)
	assert.True(t, errors.Is(q.Enqueue(Job[int]{ID: "late"}), ErrQueueClosed))
}
