package crud

import (
	"fmt"
	"strings"
)

// ValidationError describes one malformed part of an action definition.
type ValidationError struct {
	Field   string // Action attribute that failed validation
	Value   string // Offending value
	Message string
	Hint    string
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if ve.Hint != "" {
		return fmt.Sprintf("%s: %s (value: %q). %s", ve.Field, ve.Message, ve.Value, ve.Hint)
	}
	return fmt.Sprintf("%s: %s (value: %q)", ve.Field, ve.Message, ve.Value)
}

// ValidationErrors collects every problem found in an action definition.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(ve))
	for i, err := range ve {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Add appends a validation error.
func (ve *ValidationErrors) Add(field, value, message, hint string) {
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
		Hint:    hint,
	})
}

// HasErrors returns true if there are validation errors.
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// IsValidIdentifier reports whether s can be spliced into SQL as a table or
// column name: a letter or underscore followed by letters, digits or
// underscores.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
