// Package storage opens database connections for the supported drivers and
// translates their integrity-constraint failures into application errors.
package storage

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Driver names registered with database/sql.
const (
	DriverSQLite3  = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"  // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// DriverName normalizes a configured driver name to a registered one.
func DriverName(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "postgresql", "pg", "pgx":
		return DriverPostgres
	case "", "sqlite3":
		return DriverSQLite3
	default:
		return d
	}
}

// IsSQLite reports whether driver names one of the SQLite drivers.
func IsSQLite(driver string) bool {
	d := DriverName(driver)
	return d == DriverSQLite3 || d == DriverSQLite
}

// Open opens a connection pool. SQLite connections enforce foreign keys,
// and in-memory SQLite databases are pinned to a single connection so every
// statement sees the same database.
func Open(driver, dsn string) (*sql.DB, error) {
	name := DriverName(driver)
	if IsSQLite(name) {
		dsn = sqliteDSN(name, dsn)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", name, err)
	}
	if IsSQLite(name) && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

// sqliteDSN appends the driver-specific parameter enabling foreign keys on
// every new connection.
func sqliteDSN(driver, dsn string) string {
	if dsn == "" {
		dsn = ":memory:"
	}
	param := "_foreign_keys=1"
	if driver == DriverSQLite {
		param = "_pragma=foreign_keys(1)"
	}
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}
