package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultSQLiteDSN is a private in-memory database shared by the connections of one pool.
const DefaultSQLiteDSN = "file:order-extractor?mode=memory&cache=shared"

type Config struct {
	Driver           string
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// DB is an open database handle plus the SQL dialect used to build its queries.
type DB struct {
	SQL     *sql.DB
	Dialect string
	pool    *pgxpool.Pool
}

// Open connects to the configured database. Postgres goes through a pgx pool wrapped as a
// *sql.DB; SQLite uses the pure-Go modernc driver.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Driver {
	case DriverSQLite:
		return openSQLite(cfg, logger)
	case DriverPostgres, "":
		return openPostgres(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}
}

func openPostgres(ctx context.Context, cfg Config, logger *slog.Logger) (*DB, error) {
	logger.Info("connecting to database", "driver", DriverPostgres)
	pc, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		logger.Error("failed to parse database dsn", "error", err)
		return nil, err
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = cfg.MinConns
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.ConnConfig.RuntimeParams["application_name"] = "order-extractor"
	if cfg.StatementTimeout > 0 {
		pc.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeout.Milliseconds())
	}

	if cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
		defer cancel()
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}

	logger.Info("successfully connected to database")
	return &DB{SQL: stdlib.OpenDBFromPool(pool), Dialect: dialect.Postgres, pool: pool}, nil
}

func openSQLite(cfg Config, logger *slog.Logger) (*DB, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = DefaultSQLiteDSN
	}
	dsn = withPragma(dsn, "foreign_keys(1)")
	dsn = withPragma(dsn, "busy_timeout(5000)")

	logger.Info("opening sqlite database", "in_memory", strings.Contains(dsn, "mode=memory"))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, err
	}
	if strings.Contains(dsn, "mode=memory") {
		// The in-memory database lives as long as one connection does.
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
	}
	return &DB{SQL: db, Dialect: dialect.SQLite}, nil
}

func withPragma(dsn, pragma string) string {
	if strings.Contains(dsn, "_pragma="+pragma) {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=" + pragma
}

// Close closes the database connections gracefully
func (db *DB) Close(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("closing database connections")
	if db.SQL != nil {
		if err := db.SQL.Close(); err != nil {
			logger.Error("failed to close sql db", "error", err)
		}
	}
	if db.pool != nil {
		db.pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the database to catch DSN issues early.
func (db *DB) HealthCheck(ctx context.Context, timeout time.Duration, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	logger.Debug("pinging database")
	if db.pool != nil {
		if err := db.pool.Ping(ctx); err != nil {
			return err
		}
	} else if err := db.SQL.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
