// Package pipeline runs documents through decode, extraction, persistence and the JSON dump.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/async"
	"github.com/joseph-ayodele/order-extractor/internal/common"
	"github.com/joseph-ayodele/order-extractor/internal/entity"
	"github.com/joseph-ayodele/order-extractor/internal/export"
	"github.com/joseph-ayodele/order-extractor/internal/extract"
	"github.com/joseph-ayodele/order-extractor/internal/mail"
	"github.com/joseph-ayodele/order-extractor/internal/repository"
)

// Result is the outcome of one processed document.
type Result struct {
	Ref      string
	Status   constants.JobStatus
	Data     *entity.ExtractorData
	DumpPath string
}

// Processor coordinates extraction and its side effects. Source, Store and Dump are
// optional: without a Store results are only extracted, without a Dump nothing is written
// to disk.
type Processor struct {
	logger    *slog.Logger
	extractor *extract.Extractor
	source    mail.Source
	store     repository.OrderStore
	dump      *export.JSONWriter
}

type Option func(*Processor)

func WithSource(s mail.Source) Option { return func(p *Processor) { p.source = s } }
func WithStore(s repository.OrderStore) Option { return func(p *Processor) { p.store = s } }
func WithJSONWriter(w *export.JSONWriter) Option { return func(p *Processor) { p.dump = w } }

func NewProcessor(logger *slog.Logger, extractor *extract.Extractor, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = extract.New(extract.WithLogger(logger))
	}
	p := &Processor{logger: logger, extractor: extractor}
	for _, o := range opts {
		o(p)
	}
	return p
}

// FetchAll lists the mailbox messages matching query.
func (p *Processor) FetchAll(ctx context.Context, query string) ([]string, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no mail source configured", common.ErrInvalidInput)
	}
	return p.source.ListMessageIDs(ctx, query)
}

// ProcessMessage fetches, decodes and processes one mailbox message. The message's
// receive time becomes the purchase date.
func (p *Processor) ProcessMessage(ctx context.Context, id string) (*Result, error) {
	if p.source == nil {
		return nil, fmt.Errorf("%w: no mail source configured", common.ErrInvalidInput)
	}
	msg, err := p.source.GetMessage(ctx, id)
	if err != nil {
		p.logger.Error("pipeline.message.failed", "message_id", id, "stage", "fetch", "err", err)
		return nil, err
	}
	html, err := mail.Decode(msg.Body)
	if err != nil {
		p.logger.Error("pipeline.message.failed", "message_id", id, "stage", "decode", "err", err)
		return nil, err
	}
	return p.ProcessHTML(ctx, msg.ID, html, msg.InternalDate)
}

// ProcessFile processes an already decoded HTML document from disk. timestampMillis may
// be nil, leaving the purchase date unknown.
func (p *Processor) ProcessFile(ctx context.Context, path string, timestampMillis *int64) (*Result, error) {
	if !constants.IsAllowedExt(filepath.Ext(path)) {
		return nil, fmt.Errorf("%w: unsupported file extension %q", common.ErrInvalidInput, filepath.Ext(path))
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	ref := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return p.ProcessHTML(ctx, ref, string(b), timestampMillis)
}

// ProcessHTML extracts html and, when configured, persists and dumps the result. ref
// names the document in logs and in the dump file name.
func (p *Processor) ProcessHTML(ctx context.Context, ref, html string, timestampMillis *int64) (*Result, error) {
	start := time.Now()
	log := p.logger.With("ref", ref)
	if traceID := common.TraceIDFromContext(ctx); traceID != "" {
		log = log.With("trace_id", traceID)
	}

	data, err := p.extractor.Extract(html, timestampMillis)
	if err != nil {
		log.Error("pipeline.extract.failed", "status", constants.JobStatusFailed, "err", err)
		return nil, fmt.Errorf("extract %s: %w", ref, err)
	}
	res := &Result{Ref: ref, Status: constants.JobStatusExtracted, Data: data}

	if p.store != nil {
		if err := p.store.SaveExtraction(ctx, data); err != nil {
			log.Error("pipeline.save.failed", "status", constants.JobStatusFailed, "order_id", data.Order.ID, "err", err)
			return nil, fmt.Errorf("save %s: %w", ref, err)
		}
		res.Status = constants.JobStatusSaved
	}

	if p.dump != nil {
		path, err := p.dump.Write(ref, data)
		if err != nil {
			log.Error("pipeline.dump.failed", "order_id", data.Order.ID, "err", err)
			return nil, fmt.Errorf("dump %s: %w", ref, err)
		}
		res.DumpPath = path
	}

	log.Info("pipeline.ok",
		"status", res.Status,
		"order_id", data.Order.ID,
		"restaurant", data.Restaurant.Name,
		"items", len(data.OrderItems),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Process runs a queued job; it satisfies async.Handler.
func (p *Processor) Process(ctx context.Context, job async.Job) error {
	var err error
	switch job.Kind {
	case constants.JobKindMessage:
		_, err = p.ProcessMessage(ctx, job.Ref)
	case constants.JobKindFile:
		_, err = p.ProcessFile(ctx, job.Ref, job.TimestampMillis)
	default:
		err = fmt.Errorf("%w: unknown job kind %q", common.ErrInvalidInput, job.Kind)
	}
	return err
}

var _ async.Handler = (*Processor)(nil)
