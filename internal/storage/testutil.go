package storage

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates an in-memory SQLite database for testing and runs ddl
// against it.
//
// The database includes:
//   - Foreign key constraints enabled
//   - A single pooled connection, so every statement sees the same database
//   - Automatic cleanup registered with t.Cleanup()
//
// Example:
//
//	func TestSomething(t *testing.T) {
//	    db := storage.NewTestDB(t, `CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`)
//	    // No need to close - t.Cleanup() handles it
//	}
func NewTestDB(t testing.TB, ddl ...string) *sql.DB {
	t.Helper()

	db, err := Open(DriverSQLite3, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	execAll(t, db, ddl)
	return db
}

// NewTestDBFile creates a file-based SQLite database in t.TempDir().
//
// Use this when the test needs several connections at once, such as
// concurrent compilation or reopening the database.
func NewTestDBFile(t testing.TB, ddl ...string) *sql.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(DriverSQLite3, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	execAll(t, db, ddl)
	return db
}

func execAll(t testing.TB, db *sql.DB, ddl []string) {
	t.Helper()
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "ddl: %s", stmt)
	}
}
