package sqldb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/phrazzld/tasks-api/internal/taskquery"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

func migrationSource(d taskquery.Dialect) (goose.Dialect, fs.FS, error) {
	var (
		gd  goose.Dialect
		dir string
	)
	switch d {
	case taskquery.Postgres:
		gd, dir = goose.DialectPostgres, "migrations/postgres"
	case taskquery.SQLite:
		gd, dir = goose.DialectSQLite3, "migrations/sqlite"
	default:
		return "", nil, fmt.Errorf("no migrations for dialect %q", d.Name())
	}

	sub, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return "", nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	return gd, sub, nil
}

// Migrate applies every pending migration for the dialect and returns the
// resulting schema version.
func Migrate(ctx context.Context, db *sql.DB, d taskquery.Dialect, logger *slog.Logger) (int64, error) {
	if logger == nil {
		logger = slog.Default()
	}

	gd, fsys, err := migrationSource(d)
	if err != nil {
		return 0, err
	}

	provider, err := goose.NewProvider(gd, db, fsys)
	if err != nil {
		return 0, fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		logger.Info("applied migration",
			slog.String("file", r.Source.Path),
			slog.Int64("version", r.Source.Version),
			slog.Duration("duration", r.Duration))
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}
