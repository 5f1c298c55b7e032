package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/async"
)

type captureQueue struct {
	mu   sync.Mutex
	jobs []async.Job
}

func (c *captureQueue) Enqueue(_ context.Context, job async.Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs = append(c.jobs, job)
	return nil
}

func (c *captureQueue) Shutdown(context.Context) {}

func (c *captureQueue) refs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.jobs))
	for _, j := range c.jobs {
		out = append(out, filepath.Base(j.Ref))
	}
	return out
}

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.html"), "<p>a</p>")
	write(t, filepath.Join(root, "nested", "b.HTM"), "<p>b</p>")
	write(t, filepath.Join(root, "copy.html"), "<p>a</p>")
	write(t, filepath.Join(root, "notes.txt"), "ignore")
	write(t, filepath.Join(root, ".cache", "c.html"), "<p>c</p>")

	q := &captureQueue{}
	ts := int64(42)
	ing := NewFSIngestor(q, nil)
	ing.TimestampMillis = &ts

	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(2), stats.Queued)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(0), stats.Failed)
	assert.Len(t, q.refs(), 2)
	for _, j := range q.jobs {
		assert.Equal(t, constants.JobKindFile, j.Kind)
		assert.Equal(t, &ts, j.TimestampMillis)
	}
}

func TestIngestDirectoryIncludesHidden(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, ".cache", "c.html"), "<p>c</p>")
	q := &captureQueue{}

	_, stats, err := NewFSIngestor(q, nil).IngestDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Queued)
}

func TestIngestPathRejectsExtension(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.pdf")
	write(t, path, "%PDF")

	_, err := NewFSIngestor(&captureQueue{}, nil).IngestPath(context.Background(), path)
	assert.Error(t, err)
}

func TestIngestDirectoryRequiresRoot(t *testing.T) {
	_, _, err := NewFSIngestor(&captureQueue{}, nil).IngestDirectory(context.Background(), " ", false)
	assert.Error(t, err)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/x/order.html"))
}

func TestWatcherInitialScanAndNewFiles(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "existing.html"), "<p>old</p>")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	select {
	case p := <-events:
		assert.Equal(t, "existing.html", filepath.Base(p))
	case <-time.After(2 * time.Second):
		t.Fatal("initial scan did not emit")
	}

	write(t, filepath.Join(root, "new.html"), "<p>new</p>")
	write(t, filepath.Join(root, "skip.txt"), "x")
	select {
	case p := <-events:
		assert.Equal(t, "new.html", filepath.Base(p))
	case <-time.After(2 * time.Second):
		t.Fatal("new file was not emitted")
	}

	cancel()
	require.Eventually(t, func() bool {
		_, open := <-events
		return !open
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWatchFeedsIngestor(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.html"), "<p>a</p>")
	q := &captureQueue{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, NewFSIngestor(q, nil), WatchConfig{Roots: []string{root}, InitialScan: true}) }()

	require.Eventually(t, func() bool { return len(q.refs()) == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestStartWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
