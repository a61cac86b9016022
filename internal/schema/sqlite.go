package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// sqliteIntrospector reads metadata through SQLite's table-valued pragma functions.
type sqliteIntrospector struct {
	db *sql.DB
}

// NewSQLiteIntrospector returns an Introspector for SQLite databases opened with
// either the mattn/go-sqlite3 ("sqlite3") or modernc ("sqlite") driver.
func NewSQLiteIntrospector(db *sql.DB) Introspector {
	return &sqliteIntrospector{db: db}
}

// InspectTable implements Introspector.
func (s *sqliteIntrospector) InspectTable(ctx context.Context, name string) (*Table, error) {
	table := &Table{Name: name}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cid, name, type, "notnull", pk FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return nil, fmt.Errorf("query table info for %s: %w", name, err)
	}
	defer rows.Close()

	type keyPart struct {
		seq  int
		name string
	}
	var keys []keyPart
	for rows.Next() {
		var (
			cid      int
			col      string
			declared string
			notNull  bool
			pk       int
		)
		if err := rows.Scan(&cid, &col, &declared, &notNull, &pk); err != nil {
			return nil, fmt.Errorf("scan table info for %s: %w", name, err)
		}
		typeName, precision, scale := ParseDeclaredType(declared)
		table.Columns = append(table.Columns, Column{
			Name:      col,
			Type:      typeName,
			Kind:      KindOf(typeName),
			Precision: precision,
			Scale:     scale,
			// SQLite tolerates NULL in non-integer keys; callers treat keys as mandatory.
			Nullable: !notNull && pk == 0,
			Position: cid + 1,
		})
		if pk > 0 {
			keys = append(keys, keyPart{seq: pk, name: col})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info for %s: %w", name, err)
	}
	if len(table.Columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].seq < keys[j].seq })
	for _, k := range keys {
		table.PrimaryKey = append(table.PrimaryKey, k.name)
	}

	fks, err := s.foreignKeys(ctx, name)
	if err != nil {
		return nil, err
	}
	table.ForeignKeys = fks

	return table, nil
}

func (s *sqliteIntrospector) foreignKeys(ctx context.Context, name string) ([]ForeignKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, "table", "from", "to" FROM pragma_foreign_key_list(?) ORDER BY id, seq`, name)
	if err != nil {
		return nil, fmt.Errorf("query foreign keys for %s: %w", name, err)
	}
	defer rows.Close()

	var fks []ForeignKey
	for rows.Next() {
		var (
			id       int
			refTable string
			from     string
			to       sql.NullString
		)
		if err := rows.Scan(&id, &refTable, &from, &to); err != nil {
			return nil, fmt.Errorf("scan foreign keys for %s: %w", name, err)
		}
		fks = append(fks, ForeignKey{
			Name:      fmt.Sprintf("%s_fk_%d", name, id),
			Column:    from,
			RefTable:  refTable,
			RefColumn: to.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate foreign keys for %s: %w", name, err)
	}
	return fks, nil
}
