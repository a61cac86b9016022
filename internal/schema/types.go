// Package schema reads relational metadata (columns, primary keys and
// foreign keys) from a live database connection.
//
// Introspectors only issue metadata queries; they never read or write
// application rows. The statement compiler in internal/crud consumes the
// Table values returned here.
package schema

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// ErrTableNotFound is returned when the database has no table of the requested name.
var ErrTableNotFound = errors.New("table not found")

// Kind is a coarse category of a SQL column type.
type Kind string

const (
	KindString  Kind = "string"
	KindInteger Kind = "integer"
	KindFloat   Kind = "float"
	KindDecimal Kind = "decimal"
	KindBool    Kind = "bool"
	KindTime    Kind = "time"
	KindBytes   Kind = "bytes"
	KindOther   Kind = "other"
)

// Bounded reports whether a precision on this kind limits value length.
func (k Kind) Bounded() bool {
	return k == KindString || k == KindBytes
}

// Column describes one table column.
type Column struct {
	Name      string `json:"name" msgpack:"name"`
	Type      string `json:"type" msgpack:"type"` // SQL type name without size, upper case
	Kind      Kind   `json:"kind" msgpack:"kind"`
	Precision int    `json:"precision,omitempty" msgpack:"precision"`
	Scale     int    `json:"scale,omitempty" msgpack:"scale"`
	Nullable  bool   `json:"nullable" msgpack:"nullable"`
	Position  int    `json:"position" msgpack:"position"`
}

// ForeignKey is a single-column reference from a table to another table.
type ForeignKey struct {
	Name      string `json:"name,omitempty"`
	Column    string `json:"column"`
	RefTable  string `json:"ref_table"`
	RefColumn string `json:"ref_column"` // empty when the driver reports an implicit primary-key reference
}

// Table is the introspected metadata of a table.
type Table struct {
	Name        string       `json:"name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// HasColumn reports whether the table has the named column.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.Column(name)
	return ok
}

// IsKey reports whether the named column is part of the primary key.
func (t *Table) IsKey(name string) bool {
	for _, k := range t.PrimaryKey {
		if k == name {
			return true
		}
	}
	return false
}

// Introspector reads table metadata from a database.
type Introspector interface {
	InspectTable(ctx context.Context, name string) (*Table, error)
}

// ParseDeclaredType splits a declared type such as "VARCHAR(32)" or
// "DECIMAL(10, 2)" into its upper-cased name, precision and scale.
func ParseDeclaredType(declared string) (name string, precision, scale int) {
	declared = strings.TrimSpace(declared)
	open := strings.IndexByte(declared, '(')
	if open < 0 {
		return strings.ToUpper(declared), 0, 0
	}
	name = strings.ToUpper(strings.TrimSpace(declared[:open]))
	end := strings.IndexByte(declared[open:], ')')
	if end < 0 {
		return name, 0, 0
	}
	args := strings.Split(declared[open+1:open+end], ",")
	if len(args) > 0 {
		precision, _ = strconv.Atoi(strings.TrimSpace(args[0]))
	}
	if len(args) > 1 {
		scale, _ = strconv.Atoi(strings.TrimSpace(args[1]))
	}
	return name, precision, scale
}

// KindOf classifies a SQL type name. Unknown names map to KindOther.
func KindOf(typeName string) Kind {
	t := strings.ToUpper(typeName)
	switch {
	case t == "" || t == "POINT" || t == "INTERVAL":
		return KindOther
	case strings.Contains(t, "BOOL") || t == "BIT":
		return KindBool
	case strings.Contains(t, "INT") || t == "SERIAL" || t == "BIGSERIAL" || t == "SMALLSERIAL":
		return KindInteger
	case strings.Contains(t, "CHAR") || strings.Contains(t, "TEXT") || strings.Contains(t, "CLOB") ||
		t == "UUID" || t == "ENUM" || t == "JSON" || t == "JSONB" || t == "STRING":
		return KindString
	case strings.Contains(t, "BLOB") || strings.Contains(t, "BINARY") || t == "BYTEA":
		return KindBytes
	case t == "DECIMAL" || t == "NUMERIC" || t == "MONEY":
		return KindDecimal
	case strings.Contains(t, "REAL") || strings.Contains(t, "FLOA") || strings.Contains(t, "DOUB"):
		return KindFloat
	case strings.Contains(t, "DATE") || strings.Contains(t, "TIME"):
		return KindTime
	default:
		return KindOther
	}
}
