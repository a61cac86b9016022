package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for storage:
// - driver names are normalized (postgresql -> postgres, empty -> sqlite3)
// - SQLite DSNs gain the foreign key parameter exactly once
// - foreign keys are enforced on opened SQLite databases
// - named CHECK, UNIQUE and FOREIGN KEY failures from go-sqlite3 are translated
// - pq errors carry their constraint name, mysql errors are matched by message
// - unrelated errors and nil pass through unchanged
// - wrapped driver errors are still recognized (sqlmock returns them verbatim)

func TestDriverName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", DriverSQLite3},
		{"sqlite3", DriverSQLite3},
		{"sqlite", DriverSQLite},
		{"PostgreSQL", DriverPostgres},
		{"pgx", DriverPostgres},
		{"mysql", DriverMySQL},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DriverName(tt.in), tt.in)
	}
	assert.True(t, IsSQLite("sqlite"))
	assert.False(t, IsSQLite("mysql"))
}

func TestSQLiteDSN(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ":memory:?_foreign_keys=1", sqliteDSN(DriverSQLite3, ""))
	assert.Equal(t, "app.db?mode=rw&_foreign_keys=1", sqliteDSN(DriverSQLite3, "app.db?mode=rw"))
	assert.Equal(t, "file:app.db?_pragma=foreign_keys(1)", sqliteDSN(DriverSQLite, "file:app.db"))
	assert.Equal(t, "app.db?_foreign_keys=0", sqliteDSN(DriverSQLite3, "app.db?_foreign_keys=0"))
}

func TestOpen_EnforcesForeignKeys(t *testing.T) {
	t.Parallel()

	db := NewTestDB(t,
		`CREATE TABLE parent (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE child (id INTEGER PRIMARY KEY REFERENCES parent(id))`,
	)

	_, err := db.Exec(`INSERT INTO child (id) VALUES (1)`)
	require.Error(t, err)

	translated := NewConstraintTranslator(nil).Translate(err)
	var ce *ConstraintError
	require.True(t, errors.As(translated, &ce))
	assert.Equal(t, ConstraintForeignKey, ce.Kind)
	assert.Empty(t, ce.Constraint)
}

func TestTranslate_SQLiteNamedConstraints(t *testing.T) {
	t.Parallel()

	db := NewTestDBFile(t, `CREATE TABLE people (
		id INTEGER PRIMARY KEY,
		email TEXT UNIQUE,
		age INTEGER CONSTRAINT chk_age CHECK (age >= 0)
	)`)
	translator := NewConstraintTranslator(map[string]string{
		"chk_age":      "age must not be negative",
		"people.email": "email already registered",
	})

	_, err := db.Exec(`INSERT INTO people (id, email, age) VALUES (1, 'a@x', -1)`)
	require.Error(t, err)
	translated := translator.Translate(err)
	var ce *ConstraintError
	require.True(t, errors.As(translated, &ce))
	assert.Equal(t, ConstraintCheck, ce.Kind)
	assert.Equal(t, "chk_age", ce.Constraint)
	assert.Equal(t, "age must not be negative", translated.Error())

	_, err = db.Exec(`INSERT INTO people (id, email, age) VALUES (1, 'a@x', 30)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people (id, email, age) VALUES (2, 'a@x', 31)`)
	require.Error(t, err)
	translated = translator.Translate(err)
	require.True(t, errors.As(translated, &ce))
	assert.Equal(t, ConstraintUnique, ce.Kind)
	assert.Equal(t, "email already registered", ce.Message)
}

func TestTranslate_Postgres(t *testing.T) {
	t.Parallel()

	translator := NewConstraintTranslator(map[string]string{"users_email_key": "email taken"})

	err := fmt.Errorf("insert user: %w", &pq.Error{Code: "23505", Constraint: "users_email_key", Message: "duplicate key value"})
	var ce *ConstraintError
	require.True(t, errors.As(translator.Translate(err), &ce))
	assert.Equal(t, ConstraintUnique, ce.Kind)
	assert.Equal(t, "users_email_key", ce.Constraint)
	assert.Equal(t, "email taken", ce.Message)

	syntax := &pq.Error{Code: "42601", Message: "syntax error"}
	assert.Same(t, syntax, translator.Translate(syntax))
}

func TestTranslate_MySQL(t *testing.T) {
	t.Parallel()

	translator := NewConstraintTranslator(map[string]string{
		"email":          "generic",
		"users.email_uq": "email taken",
	})
	err := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@x' for key 'users.email_uq'"}

	var ce *ConstraintError
	require.True(t, errors.As(translator.Translate(err), &ce))
	assert.Equal(t, ConstraintUnique, ce.Kind)
	assert.Equal(t, "users.email_uq", ce.Constraint, "longest configured name wins")
	assert.Equal(t, "email taken", ce.Error())
}

func TestTranslate_PassThrough(t *testing.T) {
	t.Parallel()

	translator := NewConstraintTranslator(nil)
	assert.NoError(t, translator.Translate(nil))

	plain := errors.New("connection refused")
	assert.Same(t, plain, translator.Translate(plain))
}

func TestTranslate_DriverErrorThroughDatabaseSQL(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO orders`).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "orders_customer_fk"})

	_, err = db.ExecContext(context.Background(), `INSERT INTO orders (id) VALUES (1)`)
	require.Error(t, err)

	translated := NewConstraintTranslator(nil).Translate(err)
	var ce *ConstraintError
	require.True(t, errors.As(translated, &ce))
	assert.Equal(t, ConstraintForeignKey, ce.Kind)
	assert.Contains(t, ce.Error(), "orders_customer_fk")
	require.NoError(t, mock.ExpectationsWereMet())
}
