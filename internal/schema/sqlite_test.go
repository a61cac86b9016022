package schema

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for SQLite introspection:
// - columns come back in declaration order with parsed type, precision and nullability
// - composite primary keys are ordered by key sequence, not column order
// - primary-key columns are reported non-nullable
// - foreign keys carry the referenced table and column
// - implicit references (REFERENCES parent without a column) leave RefColumn empty
// - unknown tables fail with ErrTableNotFound

func openSQLite(t *testing.T, ddl ...string) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}

func TestSQLiteIntrospector_Columns(t *testing.T) {
	t.Parallel()

	db := openSQLite(t, `CREATE TABLE accounts (
		id INTEGER PRIMARY KEY,
		email VARCHAR(64) NOT NULL,
		balance DECIMAL(10, 2),
		note TEXT
	)`)

	table, err := NewSQLiteIntrospector(db).InspectTable(context.Background(), "accounts")
	require.NoError(t, err)

	require.Len(t, table.Columns, 4)
	assert.Equal(t, []string{"id"}, table.PrimaryKey)

	id := table.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "INTEGER", id.Type)
	assert.Equal(t, KindInteger, id.Kind)
	assert.False(t, id.Nullable)
	assert.Equal(t, 1, id.Position)

	email := table.Columns[1]
	assert.Equal(t, "VARCHAR", email.Type)
	assert.Equal(t, KindString, email.Kind)
	assert.Equal(t, 64, email.Precision)
	assert.False(t, email.Nullable)

	balance := table.Columns[2]
	assert.Equal(t, KindDecimal, balance.Kind)
	assert.Equal(t, 10, balance.Precision)
	assert.Equal(t, 2, balance.Scale)
	assert.True(t, balance.Nullable)

	note, ok := table.Column("note")
	require.True(t, ok)
	assert.Equal(t, KindString, note.Kind)
	assert.Zero(t, note.Precision)
}

func TestSQLiteIntrospector_CompositeKeyOrder(t *testing.T) {
	t.Parallel()

	db := openSQLite(t, `CREATE TABLE memberships (
		member_id INTEGER NOT NULL,
		group_id INTEGER NOT NULL,
		role TEXT,
		PRIMARY KEY (group_id, member_id)
	)`)

	table, err := NewSQLiteIntrospector(db).InspectTable(context.Background(), "memberships")
	require.NoError(t, err)

	assert.Equal(t, []string{"group_id", "member_id"}, table.PrimaryKey)
	assert.True(t, table.IsKey("member_id"))
	assert.False(t, table.IsKey("role"))
}

func TestSQLiteIntrospector_ForeignKeys(t *testing.T) {
	t.Parallel()

	db := openSQLite(t,
		`CREATE TABLE parent (id INTEGER PRIMARY KEY, name TEXT)`,
		`CREATE TABLE child (id INTEGER PRIMARY KEY REFERENCES parent(id), extra TEXT)`,
		`CREATE TABLE loose (id INTEGER PRIMARY KEY REFERENCES parent, extra TEXT)`,
	)
	inspector := NewSQLiteIntrospector(db)

	child, err := inspector.InspectTable(context.Background(), "child")
	require.NoError(t, err)
	require.Len(t, child.ForeignKeys, 1)
	assert.Equal(t, "id", child.ForeignKeys[0].Column)
	assert.Equal(t, "parent", child.ForeignKeys[0].RefTable)
	assert.Equal(t, "id", child.ForeignKeys[0].RefColumn)

	loose, err := inspector.InspectTable(context.Background(), "loose")
	require.NoError(t, err)
	require.Len(t, loose.ForeignKeys, 1)
	assert.Equal(t, "parent", loose.ForeignKeys[0].RefTable)
	assert.Empty(t, loose.ForeignKeys[0].RefColumn)
}

func TestSQLiteIntrospector_UnknownTable(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	_, err := NewSQLiteIntrospector(db).InspectTable(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTableNotFound)
	assert.Contains(t, err.Error(), "missing")
}

func TestProbeIntrospector(t *testing.T) {
	t.Parallel()

	db := openSQLite(t, `CREATE TABLE events (id INTEGER PRIMARY KEY, title VARCHAR(20), at TIMESTAMP)`)

	table, err := NewProbeIntrospector(db).InspectTable(context.Background(), "events")
	require.NoError(t, err)

	names := make([]string, 0, len(table.Columns))
	for _, c := range table.Columns {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"id", "title", "at"}, names)
	assert.Empty(t, table.PrimaryKey, "probing cannot see keys")

	_, err = NewProbeIntrospector(db).InspectTable(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestForDriver(t *testing.T) {
	t.Parallel()

	db := openSQLite(t)

	assert.IsType(t, &sqliteIntrospector{}, ForDriver("sqlite3", db, ""))
	assert.IsType(t, &sqliteIntrospector{}, ForDriver("sqlite", db, ""))
	assert.IsType(t, &infoSchemaIntrospector{}, ForDriver("postgres", db, ""))
	assert.IsType(t, &infoSchemaIntrospector{}, ForDriver("mysql", db, "app"))
	assert.IsType(t, &probeIntrospector{}, ForDriver("oracle", db, ""))
}
