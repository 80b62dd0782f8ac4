package testdb

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	"github.com/phrazzld/tasks-api/internal/config"
	"github.com/phrazzld/tasks-api/internal/platform/sqldb"
	"github.com/phrazzld/tasks-api/internal/redact"
	"github.com/phrazzld/tasks-api/internal/taskquery"
	"github.com/stretchr/testify/require"
)

// Environment variables consulted for the PostgreSQL test database, in order.
const (
	EnvTestDatabaseURL = "TASKS_TEST_DATABASE_URL"
	EnvDatabaseURL     = "DATABASE_URL"
)

// DatabaseURL returns the PostgreSQL URL for integration tests, or "" when
// none is configured.
func DatabaseURL() string {
	for _, key := range []string{EnvTestDatabaseURL, EnvDatabaseURL} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// ShouldSkipDatabaseTest reports whether PostgreSQL integration tests should
// be skipped.
func ShouldSkipDatabaseTest() bool {
	return DatabaseURL() == ""
}

// OpenSQLite returns a migrated in-memory SQLite database closed on cleanup.
func OpenSQLite(t *testing.T) (*sql.DB, taskquery.Dialect) {
	t.Helper()
	return open(t, config.DatabaseConfig{Driver: "sqlite", URL: ":memory:"})
}

// OpenPostgres returns a migrated PostgreSQL database closed on cleanup, or
// skips the test when no database URL is configured.
func OpenPostgres(t *testing.T) (*sql.DB, taskquery.Dialect) {
	t.Helper()

	url := DatabaseURL()
	if url == "" {
		t.Skipf("%s not set - skipping integration test", EnvTestDatabaseURL)
	}

	return open(t, config.DatabaseConfig{Driver: "postgres", URL: url, MaxOpenConns: 5})
}

func open(t *testing.T, cfg config.DatabaseConfig) (*sql.DB, taskquery.Dialect) {
	t.Helper()
	ctx := context.Background()

	db, dialect, err := sqldb.Open(ctx, cfg, nil)
	require.NoError(t, err, "failed to open %s test database at %s", cfg.Driver, redact.String(cfg.URL))
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			slog.Default().Warn("failed to close test database", "error", err)
		}
	})

	_, err = sqldb.Migrate(ctx, db, dialect, nil)
	require.NoError(t, err, "failed to migrate %s test database", cfg.Driver)

	return db, dialect
}
