package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/order-extractor/internal/common"
	repo "github.com/joseph-ayodele/order-extractor/internal/repository"
)

// ConnectDB opens the configured database and creates the schema when missing.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := repo.Open(ctx, repo.Config{
		Driver:           cfg.Driver,
		DSN:              cfg.DSN,
		MaxConns:         cfg.MaxConns,
		MinConns:         cfg.MinConns,
		MaxConnLifetime:  cfg.MaxConnLifetime,
		MaxConnIdleTime:  cfg.MaxConnIdleTime,
		DialTimeout:      cfg.DialTimeout,
		StatementTimeout: cfg.StatementTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}
	if err := PingDB(ctx, db, logger, cfg.DialTimeout); err != nil {
		db.Close(logger)
		return nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Error("failed to migrate database", "error", err)
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	if logger == nil {
		logger = slog.Default()
	}
	if err := db.HealthCheck(ctx, timeout, logger); err != nil {
		logger.Error("database ping failed", "error", err)
		return err
	}
	return nil
}
