package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ProbeColumns discovers the columns of a table by preparing an empty
// projection and reading the driver's result column types. No row is read.
func ProbeColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+table+" WHERE 1 = 0")
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "no such table") {
			return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
		}
		return nil, fmt.Errorf("probe columns for %s: %w", table, err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("read column types for %s: %w", table, err)
	}

	columns := make([]Column, 0, len(types))
	for i, ct := range types {
		typeName, precision, scale := ParseDeclaredType(ct.DatabaseTypeName())
		c := Column{
			Name:      ct.Name(),
			Type:      typeName,
			Kind:      KindOf(typeName),
			Precision: precision,
			Scale:     scale,
			Nullable:  true,
			Position:  i + 1,
		}
		if length, ok := ct.Length(); ok && length > 0 && length < 1<<31 {
			c.Precision = int(length)
		}
		if p, s, ok := ct.DecimalSize(); ok {
			c.Precision, c.Scale = int(p), int(s)
		}
		if nullable, ok := ct.Nullable(); ok {
			c.Nullable = nullable
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

// probeIntrospector knows column types only; it reports no keys, so it can
// serve CREATE and SEARCH actions but not RETRIEVE, UPDATE or DELETE.
type probeIntrospector struct {
	db *sql.DB
}

// NewProbeIntrospector returns an Introspector that works with any driver.
func NewProbeIntrospector(db *sql.DB) Introspector {
	return &probeIntrospector{db: db}
}

// InspectTable implements Introspector.
func (p *probeIntrospector) InspectTable(ctx context.Context, name string) (*Table, error) {
	columns, err := ProbeColumns(ctx, p.db, name)
	if err != nil {
		return nil, err
	}
	return &Table{Name: name, Columns: columns}, nil
}

// ForDriver returns the introspector suited to a database/sql driver name.
// The schema argument is ignored by SQLite.
func ForDriver(driver string, db *sql.DB, schemaName string) Introspector {
	switch strings.ToLower(driver) {
	case "sqlite3", "sqlite":
		return NewSQLiteIntrospector(db)
	case "postgres", "postgresql", "pgx":
		return NewPostgresIntrospector(db, schemaName)
	case "mysql":
		return NewMySQLIntrospector(db, schemaName)
	default:
		return NewProbeIntrospector(db)
	}
}
