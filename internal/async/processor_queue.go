package async

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/common"
)

type ProcessorQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.Mutex
	closed bool

	processed atomic.Int64
	failed    atomic.Int64
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(handler Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handler: handler,
		logger:  logger,
		workers: 4,
		timeout: time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	ctx = common.WithTraceID(ctx, job.TraceID)

	q.logger.Debug("processing job", "status", constants.JobStatusRunning,
		"worker_id", workerID, "kind", job.Kind, "ref", job.Ref, "trace_id", job.TraceID)
	err := q.handler.Process(ctx, job)
	if err != nil {
		q.failed.Add(1)
		q.logger.Error("processing failed", "status", constants.JobStatusFailed,
			"worker_id", workerID, "kind", job.Kind, "ref", job.Ref, "trace_id", job.TraceID, "error", err)
		return
	}
	q.processed.Add(1)
	q.logger.Info("processed job successfully",
		"worker_id", workerID, "kind", job.Kind, "ref", job.Ref, "trace_id", job.TraceID,
		"queued_ms", time.Since(job.SubmittedAt).Milliseconds())
}

// Enqueue hands job to the workers, blocking while the buffer is full. Missing trace ids
// and submit times are filled in.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.TraceID == "" {
		job.TraceID = uuid.NewString()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "ref", job.Ref)
		return ErrQueueClosed
	}
	select {
	case q.ch <- job:
		q.logger.Debug("queued job for processing", "status", constants.JobStatusQueued, "kind", job.Kind, "ref", job.Ref)
		return nil
	default:
	}
	q.logger.Warn("queue full, applying backpressure", "ref", job.Ref)
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete",
			"processed", q.processed.Load(), "failed", q.failed.Load())
	}
}

// Processed is the number of jobs that completed without error.
func (q *ProcessorQueue) Processed() int64 { return q.processed.Load() }

// Failed is the number of jobs whose handler returned an error.
func (q *ProcessorQueue) Failed() int64 { return q.failed.Load() }
