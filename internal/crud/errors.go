package crud

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownOperation indicates an operation name outside CREATE/RETRIEVE/UPDATE/DELETE/SEARCH.
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrNoPrimaryKey indicates a key-addressed action on a table without a primary key.
	ErrNoPrimaryKey = errors.New("table has no primary key")

	// ErrUnknownColumn indicates an action column that no table of the action defines.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrNoISARelation indicates a joined table whose key does not reference an earlier table.
	ErrNoISARelation = errors.New("table has no ISA relation to an earlier table")

	// ErrEmptyUpdate indicates an UPDATE that would set no column in any table.
	ErrEmptyUpdate = errors.New("update sets no columns")

	// ErrTooManyOptional indicates a SEARCH whose optional columns exceed the variant limit.
	ErrTooManyOptional = errors.New("too many optional search columns")

	// ErrUnknownAction indicates a lookup of an action name missing from a catalog.
	ErrUnknownAction = errors.New("unknown action")
)

// SchemaError reports a schema precondition that prevents compiling an action.
type SchemaError struct {
	Table  string
	Column string
	Err    error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %v", e.Table, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Table, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *SchemaError) Unwrap() error {
	return e.Err
}
