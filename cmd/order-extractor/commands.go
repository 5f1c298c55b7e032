package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/order-extractor/constants"
	"github.com/joseph-ayodele/order-extractor/internal/async"
	"github.com/joseph-ayodele/order-extractor/internal/export"
	"github.com/joseph-ayodele/order-extractor/internal/ingest"
	"github.com/joseph-ayodele/order-extractor/internal/mail"
	"github.com/joseph-ayodele/order-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/order-extractor/internal/repository"
	svc "github.com/joseph-ayodele/order-extractor/internal/server"
	"github.com/joseph-ayodele/order-extractor/internal/utils"
)

func timestampFlag(cmd *cobra.Command) (*int64, error) {
	if !cmd.Flags().Changed("timestamp") {
		return nil, nil
	}
	ts, err := cmd.Flags().GetInt64("timestamp")
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (a *app) queue(h async.Handler) *async.ProcessorQueue {
	return async.NewProcessorQueue(h, a.logger,
		async.WithWorkers(a.cfg.Queue.Workers),
		async.WithQueueSize(a.cfg.Queue.Size),
		async.WithProcessTimeout(a.cfg.Queue.ProcessTimeout),
	)
}

func (a *app) extractCmd() *cobra.Command {
	var (
		save        bool
		jsonDir     string
		skipBadRows bool
	)
	cmd := &cobra.Command{
		Use:   "extract FILE",
		Short: "Extract one decoded HTML receipt and print the entities as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ts, err := timestampFlag(cmd)
			if err != nil {
				return err
			}
			var store repo.OrderStore
			if save {
				db, err := a.database(ctx)
				if err != nil {
					return err
				}
				store = repo.NewOrderStore(db, a.logger)
			}
			p := a.processor(a.extractor(skipBadRows), store, a.jsonWriter(jsonDir))

			res, err := p.ProcessFile(ctx, args[0], ts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res.Data)
		},
	}
	cmd.Flags().Int64("timestamp", 0, "purchase time in epoch milliseconds")
	cmd.Flags().BoolVar(&save, "save", false, "persist the extraction to the database")
	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory for the message-<id>.json dump")
	cmd.Flags().BoolVar(&skipBadRows, "skip-bad-rows", false, "drop unparseable item rows instead of failing")
	return cmd
}

func (a *app) fetchCmd() *cobra.Command {
	var (
		query   string
		jsonDir string
		noSave  bool
	)
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch order confirmations from Gmail, extract and store them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.cfg.ValidateGmail(); err != nil {
				return err
			}
			src, err := mail.NewGmailSource(ctx, a.cfg.Gmail, a.logger)
			if err != nil {
				return err
			}
			var store repo.OrderStore
			if !noSave {
				db, err := a.database(ctx)
				if err != nil {
					return err
				}
				store = repo.NewOrderStore(db, a.logger)
			}
			p := a.processor(a.extractor(false), store, a.jsonWriter(jsonDir), pipeline.WithSource(src))

			if query == "" {
				query = a.cfg.Gmail.Query
			}
			ids, err := p.FetchAll(ctx, query)
			if errors.Is(err, mail.ErrNoMessages) {
				a.logger.Warn("no DoorDash orders found", "query", query)
				return nil
			}
			if err != nil {
				return err
			}

			q := a.queue(p)
			for _, id := range ids {
				if err := q.Enqueue(ctx, async.Job{Kind: constants.JobKindMessage, Ref: id}); err != nil {
					a.logger.Warn("failed to enqueue message", "message_id", id, "error", err)
				}
			}
			q.Shutdown(context.WithoutCancel(ctx))
			a.logger.Info("fetch complete", "messages", len(ids), "processed", q.Processed(), "failed", q.Failed())
			if q.Failed() > 0 {
				return fmt.Errorf("%d of %d messages failed", q.Failed(), len(ids))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "Gmail search query (defaults to GMAIL_QUERY or DoorDash confirmations)")
	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory for the message-<id>.json dumps")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "extract without persisting")
	return cmd
}

func (a *app) watchCmd() *cobra.Command {
	var (
		jsonDir    string
		skipHidden bool
		debounce   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch DIR...",
		Short: "Watch directories for decoded HTML receipts and store each new one",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ts, err := timestampFlag(cmd)
			if err != nil {
				return err
			}
			db, err := a.database(ctx)
			if err != nil {
				return err
			}
			p := a.processor(a.extractor(false), repo.NewOrderStore(db, a.logger), a.jsonWriter(jsonDir))
			q := a.queue(p)
			defer q.Shutdown(context.WithoutCancel(ctx))

			ing := ingest.NewFSIngestor(q, a.logger)
			ing.TimestampMillis = ts
			for _, root := range args {
				if _, _, err := ing.IngestDirectory(ctx, root, skipHidden); err != nil {
					return err
				}
			}

			a.logger.Info("watching for receipts", "roots", args)
			err = ingest.Watch(ctx, ing, ingest.WatchConfig{Roots: args, Debounce: debounce, Logger: a.logger})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Int64("timestamp", 0, "purchase time in epoch milliseconds for every file")
	cmd.Flags().StringVar(&jsonDir, "json-dir", "", "directory for the per-document JSON dumps")
	cmd.Flags().BoolVar(&skipHidden, "skip-hidden", true, "ignore dot files and directories in the initial scan")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "coalesce bursts of file events")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var noStore bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the extraction gRPC API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.cfg.ValidateServer(); err != nil {
				return err
			}
			ext := a.extractor(false)
			opts := []svc.ServiceOption{svc.WithMaxDocumentBytes(a.cfg.Server.MaxDocumentBytes)}
			if !noStore {
				db, err := a.database(ctx)
				if err != nil {
					return err
				}
				store := repo.NewOrderStore(db, a.logger)
				opts = append(opts,
					svc.WithStore(store),
					svc.WithProcessor(a.processor(ext, store, a.jsonWriter(""))),
					svc.WithExporter(export.NewService(store, a.logger)),
				)
			}

			lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
			if err != nil {
				a.logger.Error("failed to listen on address", "addr", a.cfg.Server.GRPCAddr, "error", err)
				return err
			}
			grpcServer, hs := svc.NewGRPCServer(svc.NewExtractionService(ext, a.logger, opts...), a.logger)

			errCh := make(chan error, 1)
			go func() { errCh <- grpcServer.Serve(lis) }()
			a.logger.Info("order-extractor listening", "addr", lis.Addr().String())

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return err
			}
			a.logger.Info("shutting down...")
			hs.Shutdown()
			grpcServer.GracefulStop()
			return nil
		},
	}
	cmd.Flags().BoolVar(&noStore, "no-store", false, "serve extraction only, without a database")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var out, fromStr, toStr string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write stored orders to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var from, to *time.Time
			if fromStr != "" {
				t, err := utils.ParseYMD(fromStr)
				if err != nil {
					return fmt.Errorf("invalid --from date format, use YYYY-MM-DD: %w", err)
				}
				from = &t
			}
			if toStr != "" {
				t, err := utils.ParseYMD(toStr)
				if err != nil {
					return fmt.Errorf("invalid --to date format, use YYYY-MM-DD: %w", err)
				}
				to = &t
			}
			db, err := a.database(ctx)
			if err != nil {
				return err
			}
			b, err := export.NewService(repo.NewOrderStore(db, a.logger), a.logger).ExportOrdersXLSX(ctx, from, to)
			if err != nil {
				return err
			}
			if dir := filepath.Dir(out); dir != "" {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(out, b, 0o644); err != nil {
				return err
			}
			a.logger.Info("export written", "path", out, "bytes", len(b))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "orders.xlsx", "output XLSX file path")
	cmd.Flags().StringVar(&fromStr, "from", "", "from date YYYY-MM-DD")
	cmd.Flags().StringVar(&toStr, "to", "", "to date YYYY-MM-DD")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// database() migrates on open.
			if _, err := a.database(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("database schema is up to date", "driver", a.cfg.Database.Driver)
			return nil
		},
	}
}
