package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDeclaredType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		declared  string
		name      string
		precision int
		scale     int
	}{
		{"INTEGER", "INTEGER", 0, 0},
		{"varchar(32)", "VARCHAR", 32, 0},
		{"DECIMAL(10, 2)", "DECIMAL", 10, 2},
		{" numeric(8,3) ", "NUMERIC", 8, 3},
		{"CHAR(", "CHAR", 0, 0},
		{"", "", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			name, precision, scale := ParseDeclaredType(tt.declared)
			assert.Equal(t, tt.name, name)
			assert.Equal(t, tt.precision, precision)
			assert.Equal(t, tt.scale, scale)
		})
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := map[string]Kind{
		"INTEGER":                  KindInteger,
		"BIGINT":                   KindInteger,
		"bigserial":                KindInteger,
		"VARCHAR":                  KindString,
		"CHARACTER VARYING":        KindString,
		"TEXT":                     KindString,
		"UUID":                     KindString,
		"BOOLEAN":                  KindBool,
		"BLOB":                     KindBytes,
		"BYTEA":                    KindBytes,
		"NUMERIC":                  KindDecimal,
		"DOUBLE PRECISION":         KindFloat,
		"REAL":                     KindFloat,
		"TIMESTAMP WITH TIME ZONE": KindTime,
		"DATE":                     KindTime,
		"POINT":                    KindOther,
		"":                         KindOther,
	}

	for typeName, want := range tests {
		assert.Equal(t, want, KindOf(typeName), typeName)
	}

	assert.True(t, KindString.Bounded())
	assert.True(t, KindBytes.Bounded())
	assert.False(t, KindInteger.Bounded())
}

func TestTableLookups(t *testing.T) {
	t.Parallel()

	table := &Table{
		Name:       "users",
		Columns:    []Column{{Name: "id"}, {Name: "email"}},
		PrimaryKey: []string{"id"},
	}

	assert.True(t, table.HasColumn("email"))
	assert.False(t, table.HasColumn("name"))
	assert.True(t, table.IsKey("id"))
	assert.False(t, table.IsKey("email"))

	_, ok := table.Column("missing")
	assert.False(t, ok)
}
