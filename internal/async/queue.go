package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/order-extractor/constants"
)

// ErrQueueClosed is returned by Enqueue once Shutdown has started.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one document to process. Ref is a mailbox message id or a file path, per Kind.
type Job struct {
	Kind        constants.JobKind
	Ref         string
	SubmittedAt time.Time
	TraceID     string
	// TimestampMillis overrides the purchase time for file jobs.
	TimestampMillis *int64
}

// Handler processes a single job.
type Handler interface {
	Process(ctx context.Context, job Job) error
}

type HandlerFunc func(ctx context.Context, job Job) error

func (f HandlerFunc) Process(ctx context.Context, job Job) error { return f(ctx, job) }

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
