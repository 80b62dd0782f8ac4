package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/taskquery"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const pingTimeout = 5 * time.Second

// driverName maps a configured dialect to its database/sql driver.
func driverName(d taskquery.Dialect) string {
	if d == taskquery.SQLite {
		return "sqlite"
	}
	return "pgx"
}

// Open connects to the configured database, applies pool settings and
// verifies the connection. It returns the dialect to build statements with.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*sql.DB, taskquery.Dialect, error) {
	dialect, ok := taskquery.DialectFor(cfg.Driver)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(driverName(dialect), cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if dialect == taskquery.SQLite {
		// SQLite allows one writer; an in-memory database also exists only
		// within a single connection.
		db.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			db.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			db.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if logger != nil {
		logger.Info("database connection established", slog.String("dialect", dialect.Name()))
	}
	return db, dialect, nil
}
