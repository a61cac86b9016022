package crud

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for actions:
// - operation names parse case-insensitively and reject unknown names
// - '+' markers are stripped into Required, duplicates merge
// - SEARCH columns gain restriction keys after the explicit ones, sorted
// - Name is independent of column, restriction and dominant order but not of table order
// - invalid identifiers, duplicate tables and foreign dominant tables are rejected together
// - Fixed/Negated split restriction values on the '!' marker
// - Optional excludes required and restricted SEARCH columns

func TestParseOperation(t *testing.T) {
	t.Parallel()

	for _, op := range []Operation{Create, Retrieve, Update, Delete, Search} {
		parsed, err := ParseOperation(op.String())
		require.NoError(t, err)
		assert.Equal(t, op, parsed)
	}

	op, err := ParseOperation(" search ")
	require.NoError(t, err)
	assert.Equal(t, Search, op)
	assert.True(t, op.IsQuery())
	assert.False(t, Update.IsQuery())

	_, err = ParseOperation("UPSERT")
	assert.ErrorIs(t, err, ErrUnknownOperation)
	assert.Equal(t, "Operation(9)", Operation(9).String())

	var decoded Operation
	require.NoError(t, decoded.UnmarshalText([]byte("delete")))
	assert.Equal(t, Delete, decoded)
	_, err = Operation(-1).MarshalText()
	assert.Error(t, err)
}

func TestNewAction_Normalization(t *testing.T) {
	t.Parallel()

	a, err := NewAction(Search, []string{"users"}, []string{"name", "+email", "email"}, map[string]string{
		"status": "!DELETED",
		"kind":   "member",
		"name":   "x",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "email", "kind", "status"}, a.Columns)
	assert.Equal(t, []bool{false, true, false, false}, a.Required)
	assert.True(t, a.IsRequired("email"))
	assert.False(t, a.IsRequired("name"))
	assert.True(t, a.HasColumn("status"))

	v, ok := a.Fixed("kind")
	assert.True(t, ok)
	assert.Equal(t, "member", v)
	_, ok = a.Fixed("status")
	assert.False(t, ok)
	v, ok = a.Negated("status")
	assert.True(t, ok)
	assert.Equal(t, "DELETED", v)

	assert.Empty(t, a.Optional(), "name is restricted, email required")
}

func TestNewAction_RestrictionKeysOnlyExtendSearch(t *testing.T) {
	t.Parallel()

	a := MustAction(Create, []string{"users"}, []string{"+name"}, map[string]string{"status": "ACTIVE"})
	assert.Equal(t, []string{"name"}, a.Columns)
	assert.Nil(t, a.Optional())
}

func TestAction_Name(t *testing.T) {
	t.Parallel()

	a := MustAction(Search, []string{"users"}, []string{"name", "+email"}, map[string]string{"status": "!X"})
	assert.Equal(t, `SEARCH:users:+email,name,status:status="!X":`, a.Name())
	assert.Equal(t, a.Name(), a.String())

	b := MustAction(Search, []string{"users"}, []string{"+email", "name"}, map[string]string{"status": "!X"})
	assert.Equal(t, a.Name(), b.Name())

	c := MustAction(Retrieve, []string{"parent", "child"}, nil, nil, "child", "parent")
	d := MustAction(Retrieve, []string{"parent", "child"}, nil, nil, "parent", "child")
	assert.Equal(t, "RETRIEVE:parent,child:::child,parent", c.Name())
	assert.Equal(t, c.Name(), d.Name())

	e := MustAction(Retrieve, []string{"child", "parent"}, nil, nil, "child", "parent")
	assert.NotEqual(t, c.Name(), e.Name(), "table order is significant")

	required := MustAction(Search, []string{"users"}, []string{"+name"}, nil)
	optional := MustAction(Search, []string{"users"}, []string{"name"}, nil)
	assert.NotEqual(t, required.Name(), optional.Name())
}

func TestAction_NameSeparatorsInValues(t *testing.T) {
	t.Parallel()

	spliced := MustAction(Create, []string{"users"}, nil, map[string]string{"name": "x,status=y"})
	split := MustAction(Create, []string{"users"}, nil, map[string]string{"name": "x", "status": "y"})
	assert.NotEqual(t, spliced.Name(), split.Name())

	colon := MustAction(Create, []string{"users"}, nil, map[string]string{"name": `a":b`})
	plain := MustAction(Create, []string{"users"}, nil, map[string]string{"name": "a"})
	assert.NotEqual(t, colon.Name(), plain.Name())
}

func TestNewAction_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewAction(Operation(42), []string{"users", "users", "bad name"}, []string{"ok", "+no;pe"},
		map[string]string{"x-y": "1"}, "orders")
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, len(verrs))
	for i, ve := range verrs {
		fields[i] = ve.Field
	}
	assert.ElementsMatch(t, []string{"op", "tables[1]", "tables[2]", "columns[1]", "restriction", "dominant"}, fields)
	assert.Contains(t, err.Error(), "6 validation errors")

	_, err = NewAction(Create, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one table")

	assert.Panics(t, func() { MustAction(Create, nil, nil, nil) })
}

func TestIsValidIdentifier(t *testing.T) {
	t.Parallel()

	for _, ok := range []string{"users", "_tmp", "order_items2", "X"} {
		assert.True(t, IsValidIdentifier(ok), ok)
	}
	for _, bad := range []string{"", "2users", "a-b", "a b", "users;--", "a.b", "naïve"} {
		assert.False(t, IsValidIdentifier(bad), bad)
	}
}

func TestParseColumnsAndRestriction(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "+b", "c"}, ParseColumns(" a, +b ,,c "))
	assert.Nil(t, ParseColumns(""))

	r, err := ParseRestriction("status=ACTIVE, kind = !guest")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"status": "ACTIVE", "kind": "!guest"}, r)

	_, err = ParseRestriction("status")
	assert.Error(t, err)
	_, err = ParseRestriction("=x")
	assert.Error(t, err)
}
