package async

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/common"
)

type recorder struct {
	mu     sync.Mutex
	jobs   []Job
	traces []string
}

func (r *recorder) Process(ctx context.Context, job Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	r.traces = append(r.traces, common.TraceIDFromContext(ctx))
	if job.Ref == "bad" {
		return errors.New("boom")
	}
	return nil
}

func TestQueueProcessesAndCounts(t *testing.T) {
	rec := &recorder{}
	q := NewProcessorQueue(rec, nil, WithWorkers(2), WithQueueSize(4))
	ctx := context.Background()

	for _, ref := range []string{"a", "b", "bad", "c"} {
		require.NoError(t, q.Enqueue(ctx, Job{Kind: constants.JobKindMessage, Ref: ref}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, int64(3), q.Processed())
	assert.Equal(t, int64(1), q.Failed())

	rec.mu.Lock()
	defer rec.mu.Unlock()
	require.Len(t, rec.jobs, 4)
	for i, job := range rec.jobs {
		assert.NotEmpty(t, job.TraceID)
		assert.False(t, job.SubmittedAt.IsZero())
		assert.Equal(t, job.TraceID, rec.traces[i])
	}
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&recorder{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{Ref: "late"})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestProcessTimeoutReachesHandler(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := HandlerFunc(func(ctx context.Context, _ Job) error {
		deadline, ok = ctx.Deadline()
		return nil
	})
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithProcessTimeout(5*time.Second))
	require.NoError(t, q.Enqueue(context.Background(), Job{Ref: "x", TraceID: "trace-1"}))
	q.Shutdown(context.Background())

	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, 2*time.Second)
}

func TestEnqueueHonorsContextWhenFull(t *testing.T) {
	release := make(chan struct{})
	h := HandlerFunc(func(context.Context, Job) error {
		<-release
		return nil
	})
	q := NewProcessorQueue(h, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(release)
		q.Shutdown(context.Background())
	}()

	require.NoError(t, q.Enqueue(context.Background(), Job{Ref: "running"}))
	// Wait until the worker holds the first job so the buffer slot is free.
	require.Eventually(t, func() bool { return len(q.ch) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, q.Enqueue(context.Background(), Job{Ref: "buffered"}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, Job{Ref: "blocked"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueueLogsJobStatus(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	q := NewProcessorQueue(&recorder{}, logger, WithWorkers(1))
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, Job{Kind: constants.JobKindFile, Ref: "ok"}))
	require.NoError(t, q.Enqueue(ctx, Job{Kind: constants.JobKindFile, Ref: "bad"}))
	q.Shutdown(ctx)

	out := logs.String()
	assert.Contains(t, out, "status="+string(constants.JobStatusQueued))
	assert.Contains(t, out, "status="+string(constants.JobStatusRunning))
	assert.Contains(t, out, "status="+string(constants.JobStatusFailed))
}
