package storage

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// ConstraintKind classifies integrity-constraint violations.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintOther      ConstraintKind = "other"
)

// PostgreSQL SQLSTATE codes for constraint violations (class 23).
const (
	pgNotNullViolation    = "23502"
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
)

// MySQL error numbers for constraint violations.
const (
	mysqlNotNull          = 1048
	mysqlDuplicateEntry   = 1062
	mysqlForeignKeyParent = 1451
	mysqlForeignKeyChild  = 1452
	mysqlCheckConstraint  = 3819
)

// sqliteConstraint is the primary SQLite result code for constraint failures.
const sqliteConstraint = 19

// ConstraintError is a constraint violation translated into an application
// message.
type ConstraintError struct {
	Kind       ConstraintKind
	Constraint string // constraint name, empty when the driver does not report one
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *ConstraintError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Constraint != "" {
		return fmt.Sprintf("%s constraint %s violated: %v", e.Kind, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s constraint violated: %v", e.Kind, e.Err)
}

// Unwrap returns the driver error.
func (e *ConstraintError) Unwrap() error {
	return e.Err
}

// ConstraintTranslator maps constraint names to application messages.
type ConstraintTranslator struct {
	messages map[string]string
	names    []string // longest first, so specific names win substring matches
}

// NewConstraintTranslator creates a translator from constraint name to message.
func NewConstraintTranslator(messages map[string]string) *ConstraintTranslator {
	t := &ConstraintTranslator{messages: make(map[string]string, len(messages))}
	for name, msg := range messages {
		t.messages[name] = msg
		t.names = append(t.names, name)
	}
	sort.Slice(t.names, func(i, j int) bool {
		if len(t.names[i]) != len(t.names[j]) {
			return len(t.names[i]) > len(t.names[j])
		}
		return t.names[i] < t.names[j]
	})
	return t
}

// Translate returns a *ConstraintError for integrity-constraint violations
// and err unchanged otherwise. Drivers that report the constraint name are
// matched by name; the others by the configured names found in the message.
func (t *ConstraintTranslator) Translate(err error) error {
	if err == nil {
		return nil
	}

	kind, name, ok := classify(err)
	if !ok {
		return err
	}
	if name == "" {
		name = t.match(err.Error())
	}
	return &ConstraintError{
		Kind:       kind,
		Constraint: name,
		Message:    t.messages[name],
		Err:        err,
	}
}

func (t *ConstraintTranslator) match(text string) string {
	for _, name := range t.names {
		if strings.Contains(text, name) {
			return name
		}
	}
	return ""
}

// classify recognizes constraint violations of the supported drivers.
func classify(err error) (ConstraintKind, string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if pqErr.Code.Class() != "23" {
			return "", "", false
		}
		return pgKind(string(pqErr.Code)), pqErr.Constraint, true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDuplicateEntry:
			return ConstraintUnique, "", true
		case mysqlForeignKeyParent, mysqlForeignKeyChild:
			return ConstraintForeignKey, "", true
		case mysqlCheckConstraint:
			return ConstraintCheck, "", true
		case mysqlNotNull:
			return ConstraintNotNull, "", true
		}
		return "", "", false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		if liteErr.Code != sqlite3.ErrConstraint {
			return "", "", false
		}
		return sqliteKind(liteErr.Error()), "", true
	}

	// modernc.org/sqlite errors expose Code() int with extended result codes.
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteConstraint {
		return sqliteKind(err.Error()), "", true
	}
	return "", "", false
}

func pgKind(code string) ConstraintKind {
	switch code {
	case pgUniqueViolation:
		return ConstraintUnique
	case pgForeignKeyViolation:
		return ConstraintForeignKey
	case pgCheckViolation:
		return ConstraintCheck
	case pgNotNullViolation:
		return ConstraintNotNull
	default:
		return ConstraintOther
	}
}

func sqliteKind(message string) ConstraintKind {
	switch {
	case strings.Contains(message, "UNIQUE constraint failed"),
		strings.Contains(message, "PRIMARY KEY constraint failed"):
		return ConstraintUnique
	case strings.Contains(message, "FOREIGN KEY constraint failed"):
		return ConstraintForeignKey
	case strings.Contains(message, "CHECK constraint failed"):
		return ConstraintCheck
	case strings.Contains(message, "NOT NULL constraint failed"):
		return ConstraintNotNull
	default:
		return ConstraintOther
	}
}
