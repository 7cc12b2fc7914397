package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned when the buffer has no room for another job.
	ErrQueueFull = errors.New("queue is full")
	// ErrQueueClosed is returned when the queue was never started or has stopped.
	ErrQueueClosed = errors.New("queue is not running")
)

// Job is one unit of work with a typed payload.
type Job[T any] struct {
	ID       string
	Payload  T
	Enqueued time.Time
}

// Handler processes a job. Errors are logged and the job is not redelivered.
type Handler[T any] func(context.Context, Job[T]) error

// Config sizes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	Logger     *zap.Logger
}

// Queue is a bounded in-memory worker pool. Enqueue never blocks.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	discard func(Job[T])
	workers int
	logger  *zap.Logger

	jobs     chan Job[T]
	inFlight atomic.Int32

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// New builds a queue. Workers defaults to 1 and BufferSize to four slots per worker.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		workers: cfg.Workers,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan Job[T], cfg.BufferSize),
	}
}

// OnDiscard registers fn to receive jobs still buffered when Stop runs.
func (q *Queue[T]) OnDiscard(fn func(Job[T])) {
	q.mu.Lock()
	q.discard = fn
	q.mu.Unlock()
}

// Start launches the workers. Calling it on a running queue is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 1; i <= q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.workers), zap.Int("buffer", cap(q.jobs)))
}

// Stop cancels running handlers, waits for the workers and hands any job
// left in the buffer to the discard hook.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	discard := q.discard
	q.mu.Unlock()

	q.wg.Wait()

	dropped := 0
	for {
		select {
		case job := <-q.jobs:
			dropped++
			if discard != nil {
				discard(job)
			}
		default:
			q.logger.Info("queue stopped", zap.Int("discarded", dropped))
			return
		}
	}
}

func (q *Queue[T]) drop(job Job[T]) {
	q.mu.Lock()
	discard := q.discard
	q.mu.Unlock()
	if discard != nil {
		discard(job)
	}
}

// Enqueue hands a job to the pool. It fails with ErrQueueFull when every
// buffer slot is taken and with ErrQueueClosed outside Start/Stop.
func (q *Queue[T]) Enqueue(job Job[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueClosed)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
	}
}

// Depth reports how many jobs are waiting for a worker.
func (q *Queue[T]) Depth() int {
	return len(q.jobs)
}

// InFlight reports how many handlers are currently running.
func (q *Queue[T]) InFlight() int {
	return int(q.inFlight.Load())
}

func (q *Queue[T]) worker(id int) {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			if q.ctx.Err() != nil {
				q.drop(job)
				return
			}
			q.run(id, job)
		}
	}
}

func (q *Queue[T]) run(workerID int, job Job[T]) {
	q.inFlight.Add(1)
	defer q.inFlight.Add(-1)

	start := time.Now()
	fields := []zap.Field{zap.Int("worker", workerID), zap.String("job_id", job.ID), zap.Duration("waited", start.Sub(job.Enqueued))}
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("job panicked", append(fields, zap.Any("panic", r))...)
		}
	}()

	if err := q.handler(q.ctx, job); err != nil {
		q.logger.Warn("job failed", append(fields, zap.Duration("took", time.Since(start)), zap.Error(err))...)
		return
	}
	q.logger.Debug("job done", append(fields, zap.Duration("took", time.Since(start)))...)
}
