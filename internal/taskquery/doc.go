// Package taskquery turns list filters and task mutations into
// parameterized SQL for the tasks table.
//
// Every statement is scoped to the owning user and every value travels as a
// bind argument. The same filter always produces the same SQL, which lets the
// data and count statements of a page share one WHERE clause and lets
// Filter.CacheKey identify a result set.
//
// Two dialects are supported: PostgreSQL ($n placeholders, native booleans
// and timestamps) and SQLite (? placeholders, 0/1 flags and UTC text
// timestamps).
package taskquery
