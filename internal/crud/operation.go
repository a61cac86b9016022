// Package crud compiles declarative CRUD actions into parametrized SQL.
//
// An Action names an operation, an ordered list of tables and optional
// column/restriction rules. The Compiler introspects the tables through a
// schema.Introspector and produces a Command: the SQL statements to run, the
// ordered fields bound to their placeholders and a Descriptor of the request
// object the caller must supply. SEARCH actions with optional columns compile
// into one statement per combination of present optional values, and
// Command.Choose picks the variant matching the values at hand.
//
// Commands are cached by a deterministic name derived from the Action, so a
// given Action touches the database metadata once per process.
package crud

import (
	"fmt"
	"strings"
)

// Operation is the kind of statement an Action compiles to.
type Operation int

const (
	Create Operation = iota
	Retrieve
	Update
	Delete
	Search
)

var operationNames = [...]string{
	Create:   "CREATE",
	Retrieve: "RETRIEVE",
	Update:   "UPDATE",
	Delete:   "DELETE",
	Search:   "SEARCH",
}

// String returns the upper-case operation name.
func (op Operation) String() string {
	if op < 0 || int(op) >= len(operationNames) {
		return fmt.Sprintf("Operation(%d)", int(op))
	}
	return operationNames[op]
}

// IsValid reports whether op is one of the defined operations.
func (op Operation) IsValid() bool {
	return op >= Create && op <= Search
}

// IsQuery reports whether the operation reads rows rather than modifying them.
func (op Operation) IsQuery() bool {
	return op == Retrieve || op == Search
}

// needsKey reports whether the operation addresses rows by primary key.
func (op Operation) needsKey() bool {
	return op == Retrieve || op == Update || op == Delete
}

// ParseOperation parses an operation name, case-insensitively.
func ParseOperation(s string) (Operation, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	for op, n := range operationNames {
		if n == name {
			return Operation(op), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, s)
}

// MarshalText implements encoding.TextMarshaler.
func (op Operation) MarshalText() ([]byte, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOperation, int(op))
	}
	return []byte(op.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *Operation) UnmarshalText(text []byte) error {
	parsed, err := ParseOperation(string(text))
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}
