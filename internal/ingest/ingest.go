// Package ingest discovers decoded receipt documents on disk and queues them for extraction.
package ingest

import "context"

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	SourcePath   string
	HashHex      string
	Deduplicated bool // same content already queued by this ingestor
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Queued       uint32
	Deduplicated uint32
	Failed       uint32
}

// Ingestor is the behavior the commands depend on.
type Ingestor interface {
	// IngestPath queues a single file.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory queues all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
