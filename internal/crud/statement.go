package crud

import (
	"database/sql/driver"
	"encoding/json"
	"reflect"
)

// StatementKind tells callers how to run a statement.
type StatementKind string

const (
	// Exec statements modify rows and return no result set.
	Exec StatementKind = "exec"

	// Query statements return rows.
	Query StatementKind = "query"
)

// Statement is one parametrized SQL statement. Fields[i] binds the i-th
// placeholder.
type Statement struct {
	Kind   StatementKind `json:"kind" msgpack:"kind"`
	SQL    string        `json:"sql" msgpack:"sql"`
	Fields []Field       `json:"fields" msgpack:"fields"`

	// Tag names the table the statement addresses; query statements are
	// tagged with the model table.
	Tag string `json:"tag" msgpack:"tag"`
}

// Args returns the values of the statement's fields in placeholder order.
// Missing values are passed as nil.
func (s *Statement) Args(values map[string]any) []any {
	args := make([]any, len(s.Fields))
	for i, f := range s.Fields {
		args[i] = values[f.Name]
	}
	return args
}

// Command is the compiled form of an Action. Commands are immutable and safe
// for concurrent use.
type Command struct {
	Name       string
	Action     *Action
	Descriptor *Descriptor

	// statements holds the exec/query statements to run in order, or for
	// SEARCH the variants indexed by optional-presence mask.
	statements []*Statement
	optional   []string
}

// Statements returns the statements to execute in order. For SEARCH it
// returns the single variant with every optional predicate present.
func (c *Command) Statements() []*Statement {
	if c.Action.Op == Search {
		return []*Statement{c.statements[len(c.statements)-1]}
	}
	return append([]*Statement(nil), c.statements...)
}

// Variants returns every SEARCH variant; variant i includes optional
// predicate k iff bit k of i is set. Other operations have no variants.
func (c *Command) Variants() []*Statement {
	if c.Action.Op != Search {
		return nil
	}
	return append([]*Statement(nil), c.statements...)
}

// Optional returns the request names of the optional SEARCH fields in
// predicate order. Bit k of a variant mask refers to Optional()[k].
func (c *Command) Optional() []string {
	return append([]string(nil), c.optional...)
}

// Mask computes the variant mask for a set of request values.
func (c *Command) Mask(values map[string]any) int {
	mask := 0
	for k, name := range c.optional {
		if present(values[name]) {
			mask |= 1 << k
		}
	}
	return mask
}

// Choose returns the statement matching the values at hand. For SEARCH that
// is the variant whose optional predicates are exactly the present values;
// for other operations it is the first statement.
func (c *Command) Choose(values map[string]any) *Statement {
	if c.Action.Op != Search {
		return c.statements[0]
	}
	return c.statements[c.Mask(values)]
}

// present reports whether an optional value takes part in a search. Nil
// values, nil pointers, empty strings, slices and maps are absent, as are
// pointers to them and NULL driver.Valuers such as an invalid sql.NullString.
func present(v any) bool {
	if valuer, ok := v.(driver.Valuer); ok {
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return false
		}
		value, err := valuer.Value()
		if err != nil {
			// Let the executor report the error.
			return true
		}
		v = value
	}
	if v == nil {
		return false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map:
		return rv.Len() > 0
	default:
		return true
	}
}

type commandJSON struct {
	Name       string       `json:"name"`
	Op         Operation    `json:"op"`
	Tables     []string     `json:"tables"`
	Descriptor *Descriptor  `json:"descriptor"`
	Statements []*Statement `json:"statements"`
	Optional   []string     `json:"optional,omitempty"`
}

// MarshalJSON renders the command with every statement; SEARCH commands list
// all variants in mask order.
func (c *Command) MarshalJSON() ([]byte, error) {
	statements := c.Statements()
	if c.Action.Op == Search {
		statements = c.Variants()
	}
	return json.Marshal(commandJSON{
		Name:       c.Name,
		Op:         c.Action.Op,
		Tables:     c.Action.Tables,
		Descriptor: c.Descriptor,
		Statements: statements,
		Optional:   c.optional,
	})
}
