package schema

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// infoSchemaIntrospector reads metadata from the standard information_schema
// views. PostgreSQL and MySQL differ only in placeholders and in how a
// foreign key exposes its referenced column.
type infoSchemaIntrospector struct {
	db          *sql.DB
	schema      string
	placeholder sq.PlaceholderFormat
	foreignKeys func(schema, table string) sq.SelectBuilder
}

// NewPostgresIntrospector returns an Introspector for PostgreSQL. An empty
// schema means "public".
func NewPostgresIntrospector(db *sql.DB, schema string) Introspector {
	if schema == "" {
		schema = "public"
	}
	return &infoSchemaIntrospector{
		db:          db,
		schema:      schema,
		placeholder: sq.Dollar,
		foreignKeys: postgresForeignKeys,
	}
}

// NewMySQLIntrospector returns an Introspector for MySQL/MariaDB. The schema
// is the database name; empty means the connection's current database.
func NewMySQLIntrospector(db *sql.DB, schema string) Introspector {
	return &infoSchemaIntrospector{
		db:          db,
		schema:      schema,
		placeholder: sq.Question,
		foreignKeys: mysqlForeignKeys,
	}
}

// schemaPredicate restricts a metadata query to the configured schema, or to
// the current MySQL database when none is configured.
func schemaPredicate(column, schema string) sq.Sqlizer {
	if schema == "" {
		return sq.Expr(column + " = DATABASE()")
	}
	return sq.Eq{column: schema}
}

// InspectTable implements Introspector.
func (s *infoSchemaIntrospector) InspectTable(ctx context.Context, name string) (*Table, error) {
	table := &Table{Name: name}

	columns, err := s.columns(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	table.Columns = columns

	if table.PrimaryKey, err = s.primaryKey(ctx, name); err != nil {
		return nil, err
	}
	for i, c := range table.Columns {
		if table.IsKey(c.Name) {
			table.Columns[i].Nullable = false
		}
	}

	if table.ForeignKeys, err = s.foreignKeyList(ctx, name); err != nil {
		return nil, err
	}
	return table, nil
}

func (s *infoSchemaIntrospector) columns(ctx context.Context, name string) ([]Column, error) {
	query := sq.Select(
		"column_name",
		"data_type",
		"character_maximum_length",
		"numeric_precision",
		"numeric_scale",
		"is_nullable",
		"ordinal_position",
	).
		From("information_schema.columns").
		Where(schemaPredicate("table_schema", s.schema)).
		Where(sq.Eq{"table_name": name}).
		OrderBy("ordinal_position").
		PlaceholderFormat(s.placeholder)

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", name, err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var (
			col       string
			dataType  string
			length    sql.NullInt64
			precision sql.NullInt64
			scale     sql.NullInt64
			nullable  string
			position  int
		)
		if err := rows.Scan(&col, &dataType, &length, &precision, &scale, &nullable, &position); err != nil {
			return nil, fmt.Errorf("scan columns for %s: %w", name, err)
		}
		typeName := strings.ToUpper(dataType)
		c := Column{
			Name:     col,
			Type:     typeName,
			Kind:     KindOf(typeName),
			Nullable: strings.EqualFold(nullable, "YES"),
			Position: position,
		}
		switch {
		case length.Valid:
			c.Precision = int(length.Int64)
		case precision.Valid:
			c.Precision = int(precision.Int64)
			c.Scale = int(scale.Int64)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns for %s: %w", name, err)
	}
	return columns, nil
}

func (s *infoSchemaIntrospector) primaryKey(ctx context.Context, name string) ([]string, error) {
	query := sq.Select("kcu.column_name").
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name" +
			" AND tc.table_schema = kcu.table_schema AND tc.table_name = kcu.table_name").
		Where(sq.Eq{"tc.constraint_type": "PRIMARY KEY"}).
		Where(schemaPredicate("tc.table_schema", s.schema)).
		Where(sq.Eq{"tc.table_name": name}).
		OrderBy("kcu.ordinal_position").
		PlaceholderFormat(s.placeholder)

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query primary key for %s: %w", name, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, fmt.Errorf("scan primary key for %s: %w", name, err)
		}
		keys = append(keys, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate primary key for %s: %w", name, err)
	}
	return keys, nil
}

func (s *infoSchemaIntrospector) foreignKeyList(ctx context.Context, name string) ([]ForeignKey, error) {
	query := s.foreignKeys(s.schema, name).PlaceholderFormat(s.placeholder)

	rows, err := query.RunWith(s.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", name, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var fk ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, fmt.Errorf("scan foreign keys for %s: %w", name, err)
		}
		fks = append(fks, fk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys for %s: %w", name, err)
	}
	return fks, nil
}

func postgresForeignKeys(schema, table string) sq.SelectBuilder {
	return sq.Select("tc.constraint_name", "kcu.column_name", "ccu.table_name", "ccu.column_name").
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name" +
			" AND tc.table_schema = kcu.table_schema").
		Join("information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name" +
			" AND ccu.table_schema = tc.table_schema").
		Where(sq.Eq{"tc.constraint_type": "FOREIGN KEY"}).
		Where(sq.Eq{"tc.table_schema": schema}).
		Where(sq.Eq{"tc.table_name": table}).
		OrderBy("tc.constraint_name", "kcu.ordinal_position")
}

func mysqlForeignKeys(schema, table string) sq.SelectBuilder {
	return sq.Select("constraint_name", "column_name", "referenced_table_name", "referenced_column_name").
		From("information_schema.key_column_usage").
		Where(schemaPredicate("table_schema", schema)).
		Where(sq.Eq{"table_name": table}).
		Where(sq.NotEq{"referenced_table_name": nil}).
		OrderBy("constraint_name", "ordinal_position")
}
