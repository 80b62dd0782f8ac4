// Package testdb provides database helpers for tests.
//
// Unit tests use OpenSQLite, which returns a migrated in-memory database that
// is closed when the test ends. Integration tests against PostgreSQL use
// OpenPostgres, which skips the test unless TASKS_TEST_DATABASE_URL (or
// DATABASE_URL) is set, and WithTx, which runs the test body in a transaction
// that is always rolled back so parallel tests do not see each other's rows.
//
//	func TestSomething(t *testing.T) {
//	    db, dialect := testdb.OpenPostgres(t)
//	    testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
//	        s := sqldb.NewTaskStore(tx, dialect, nil)
//	        // ...
//	    })
//	}
package testdb
