package taskquery

import (
	"strconv"
	"time"
)

// Dialect adapts generated SQL to a particular database engine.
type Dialect interface {
	// Name identifies the dialect ("postgres", "sqlite").
	Name() string

	// Placeholder returns the bind marker for the n-th (1-based) argument.
	Placeholder(n int) string

	// Bool converts a completion flag into its stored representation.
	Bool(b bool) any

	// Time converts a timestamp into its stored representation.
	Time(t time.Time) any
}

// SQLiteTimeLayout is the text layout used for timestamps stored in SQLite.
// It sorts lexically in chronological order.
const SQLiteTimeLayout = "2006-01-02 15:04:05"

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }
func (postgresDialect) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (postgresDialect) Bool(b bool) any { return b }
func (postgresDialect) Time(t time.Time) any { return t.UTC() }

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) Placeholder(int) string { return "?" }
func (sqliteDialect) Time(t time.Time) any { return t.UTC().Format(SQLiteTimeLayout) }
func (sqliteDialect) Bool(b bool) any {
	if b {
		return 1
	}
	return 0
}

// Supported dialects.
var (
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor returns the dialect matching a configured driver name.
func DialectFor(driver string) (Dialect, bool) {
	switch driver {
	case "postgres", "pgx":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	default:
		return nil, false
	}
}
