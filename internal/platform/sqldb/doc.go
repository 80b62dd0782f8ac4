// Package sqldb implements store.TaskStore on database/sql for PostgreSQL
// (through pgx) and SQLite (through modernc.org/sqlite), and owns the
// embedded schema migrations for both.
//
// SQL text comes from internal/taskquery; this package executes it, maps rows
// back to domain.Task and translates driver errors into store errors.
package sqldb
