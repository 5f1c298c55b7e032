package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/async"
)

// FSIngestor reads from the local filesystem and enqueues file jobs.
type FSIngestor struct {
	queue  async.Queue
	logger *slog.Logger
	// TimestampMillis is attached to every queued job as the purchase time.
	TimestampMillis *int64

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewFSIngestor(queue async.Queue, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{queue: queue, logger: logger, seen: map[string]struct{}{}}
}

// IngestPath hashes the file and queues it unless identical content was already queued.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}
	out.SourcePath = abs

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !AllowedExt(ext) {
		i.logger.Warn("unsupported or missing extension", "path", abs, "ext", ext)
		return out, fmt.Errorf("unsupported or missing extension: %q", ext)
	}

	sum, err := hashFile(abs)
	if err != nil {
		return out, err
	}
	out.HashHex = sum

	i.mu.Lock()
	_, dup := i.seen[sum]
	i.seen[sum] = struct{}{}
	i.mu.Unlock()
	if dup {
		out.Deduplicated = true
		i.logger.Debug("skipping duplicate document", "path", abs, "hash", sum)
		return out, nil
	}

	job := async.Job{Kind: constants.JobKindFile, Ref: abs, TimestampMillis: i.TimestampMillis}
	if err := i.queue.Enqueue(ctx, job); err != nil {
		i.mu.Lock()
		delete(i.seen, sum)
		i.mu.Unlock()
		return out, fmt.Errorf("enqueue %s: %w", abs, err)
	}
	return out, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IngestDirectory walks root, skips hidden entries if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{SourcePath: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		if r.Deduplicated {
			stats.Deduplicated++
		} else {
			stats.Queued++
		}
		return nil
	})

	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	i.logger.Info("directory ingested", "root", root,
		"scanned", stats.Scanned, "matched", stats.Matched, "queued", stats.Queued,
		"deduplicated", stats.Deduplicated, "failed", stats.Failed)
	return results, stats, nil
}

var _ Ingestor = (*FSIngestor)(nil)
