package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/order-extractor/internal/common"
	"github.com/joseph-ayodele/order-extractor/internal/export"
	"github.com/joseph-ayodele/order-extractor/internal/extract"
	"github.com/joseph-ayodele/order-extractor/internal/pipeline"
	repo "github.com/joseph-ayodele/order-extractor/internal/repository"
	svc "github.com/joseph-ayodele/order-extractor/internal/server"
)

// app carries what every command shares. The database is opened on first use.
type app struct {
	envFiles []string
	cfg      *common.Config
	logger   *slog.Logger
	logClose io.Closer
	db       *repo.DB
}

func main() {
	a := &app{}
	root := &cobra.Command{
		Use:           "order-extractor",
		Short:         "Extract DoorDash order confirmations into structured orders",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}
	root.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "dotenv files to load when APP_ENV=development")

	root.AddCommand(
		a.extractCmd(),
		a.fetchCmd(),
		a.watchCmd(),
		a.serveCmd(),
		a.exportCmd(),
		a.migrateCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("command failed", "error", err)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		a.close()
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := common.LoadConfig(a.envFiles...)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger, a.logClose = common.NewLogger(cfg.Log)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close(a.logger)
		a.db = nil
	}
	if a.logClose != nil {
		_ = a.logClose.Close()
		a.logClose = nil
	}
}

func (a *app) database(ctx context.Context) (*repo.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	if err := a.cfg.ValidateDatabase(); err != nil {
		return nil, err
	}
	db, err := svc.ConnectDB(ctx, a.cfg.Database, a.logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.db = db
	return db, nil
}

func (a *app) extractor(skipBadRows bool) *extract.Extractor {
	policy := extract.RowPolicyFail
	if skipBadRows || a.cfg.Extract.SkipBadRows {
		policy = extract.RowPolicySkip
	}
	return extract.New(
		extract.WithHasher(extract.NewHasher(a.cfg.Extract.IDKey)),
		extract.WithRowPolicy(policy),
		extract.WithLogger(a.logger),
	)
}

// jsonWriter returns the dump writer for dir, falling back to JSON_OUT_DIR and, in
// development, the working directory.
func (a *app) jsonWriter(dir string) *export.JSONWriter {
	if dir == "" {
		dir = a.cfg.Output.JSONDir
	}
	if dir == "" && a.cfg.IsDevelopment() {
		dir = "."
	}
	if dir == "" {
		return nil
	}
	return export.NewJSONWriter(dir, a.logger)
}

func (a *app) processor(ext *extract.Extractor, store repo.OrderStore, dump *export.JSONWriter, opts ...pipeline.Option) *pipeline.Processor {
	if store != nil {
		opts = append(opts, pipeline.WithStore(store))
	}
	if dump != nil {
		opts = append(opts, pipeline.WithJSONWriter(dump))
	}
	return pipeline.NewProcessor(a.logger, ext, opts...)
}
