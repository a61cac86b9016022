package crud

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/brianwhu/xillium-sub000/internal/cache"
)

// RequiredMarker prefixes a column name to mark its field required.
const RequiredMarker = "+"

// NegationMarker prefixes a restriction value to exclude it instead of fixing it.
const NegationMarker = "!"

// Action is a declarative request for one CRUD operation over an ordered
// list of tables. Actions are built by NewAction and must not be modified
// afterwards: Name is computed once and used as the cache key.
type Action struct {
	Op     Operation
	Tables []string

	// Columns lists the explicitly named columns, markers stripped. For SEARCH
	// it also holds every restriction key not listed explicitly.
	Columns []string

	// Required runs parallel to Columns.
	Required []bool

	// Restriction fixes a column to a literal value, or excludes the value
	// when it starts with NegationMarker.
	Restriction map[string]string

	// Dominant holds the tables whose columns alone are projected by a query.
	Dominant map[string]bool

	name string
}

// NewAction validates and normalizes an action. Column names may carry the
// RequiredMarker prefix. Duplicate columns are merged, keeping the first
// position and marking the column required if any occurrence is.
func NewAction(op Operation, tables, columns []string, restriction map[string]string, dominant ...string) (*Action, error) {
	var errs ValidationErrors

	if !op.IsValid() {
		errs.Add("op", op.String(), "unknown operation", "Use one of CREATE, RETRIEVE, UPDATE, DELETE, SEARCH")
	}

	if len(tables) == 0 {
		errs.Add("tables", "", "at least one table is required", "List the model table first, then its ISA children")
	}
	seenTables := make(map[string]bool, len(tables))
	for i, t := range tables {
		switch {
		case !IsValidIdentifier(t):
			errs.Add(fmt.Sprintf("tables[%d]", i), t, "invalid table name", "Table names must be plain SQL identifiers")
		case seenTables[t]:
			errs.Add(fmt.Sprintf("tables[%d]", i), t, "duplicate table", "List each table once")
		}
		seenTables[t] = true
	}

	a := &Action{
		Op:          op,
		Tables:      append([]string(nil), tables...),
		Restriction: make(map[string]string, len(restriction)),
		Dominant:    make(map[string]bool, len(dominant)),
	}

	index := make(map[string]int, len(columns))
	for i, raw := range columns {
		name, required := stripMarker(raw)
		if !IsValidIdentifier(name) {
			errs.Add(fmt.Sprintf("columns[%d]", i), raw, "invalid column name", "Column names must be plain SQL identifiers, optionally prefixed with '+'")
			continue
		}
		if at, ok := index[name]; ok {
			a.Required[at] = a.Required[at] || required
			continue
		}
		index[name] = len(a.Columns)
		a.Columns = append(a.Columns, name)
		a.Required = append(a.Required, required)
	}

	for col, value := range restriction {
		if !IsValidIdentifier(col) {
			errs.Add("restriction", col, "invalid column name", "Restriction keys must be plain SQL identifiers")
			continue
		}
		a.Restriction[col] = value
	}

	for _, d := range dominant {
		if !seenTables[d] {
			errs.Add("dominant", d, "dominant table is not part of the action", "Dominant tables must appear in tables")
			continue
		}
		a.Dominant[d] = true
	}

	if errs.HasErrors() {
		return nil, errs
	}

	if op == Search {
		for _, col := range sortedKeys(a.Restriction) {
			if _, ok := index[col]; ok {
				continue
			}
			a.Columns = append(a.Columns, col)
			a.Required = append(a.Required, false)
		}
	}

	a.name = a.computeName()
	return a, nil
}

// MustAction is NewAction for statically known definitions; it panics on error.
func MustAction(op Operation, tables, columns []string, restriction map[string]string, dominant ...string) *Action {
	a, err := NewAction(op, tables, columns, restriction, dominant...)
	if err != nil {
		panic(err)
	}
	return a
}

// Name returns the deterministic cache name of the action. Actions with the
// same operation, table order, column set, restrictions and dominant set
// share a name.
func (a *Action) Name() string {
	return a.name
}

func (a *Action) computeName() string {
	cols := make([]string, len(a.Columns))
	for i, c := range a.Columns {
		if a.Required[i] {
			c = RequiredMarker + c
		}
		cols[i] = c
	}

	// Identifiers are validated; values are free text and quoted so that
	// separators inside them cannot alias another restriction set.
	restrictions := make([]string, 0, len(a.Restriction))
	for k, v := range a.Restriction {
		restrictions = append(restrictions, k+"="+strconv.Quote(v))
	}

	return cache.Key(
		a.Op.String(),
		strings.Join(a.Tables, ","),
		cache.SortedList(cols),
		cache.SortedList(restrictions),
		cache.SortedList(sortedKeys(a.Dominant)),
	)
}

// IsRequired reports whether column was marked required.
func (a *Action) IsRequired(column string) bool {
	for i, c := range a.Columns {
		if c == column {
			return a.Required[i]
		}
	}
	return false
}

// HasColumn reports whether column was named explicitly (or, for SEARCH,
// through a restriction).
func (a *Action) HasColumn(column string) bool {
	for _, c := range a.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Fixed returns the literal a column is restricted to, unless the
// restriction is negated.
func (a *Action) Fixed(column string) (string, bool) {
	v, ok := a.Restriction[column]
	if !ok || strings.HasPrefix(v, NegationMarker) {
		return "", false
	}
	return v, true
}

// Negated returns the excluded value of a negated restriction.
func (a *Action) Negated(column string) (string, bool) {
	v, ok := a.Restriction[column]
	if !ok || !strings.HasPrefix(v, NegationMarker) {
		return "", false
	}
	return strings.TrimPrefix(v, NegationMarker), true
}

// IsRestricted reports whether column has a restriction of either kind.
func (a *Action) IsRestricted(column string) bool {
	_, ok := a.Restriction[column]
	return ok
}

// Optional returns the SEARCH columns that are neither required nor
// restricted, in action order. This is not the variant mask order: bit k of
// a mask refers to Command.Optional()[k], which follows table discovery.
func (a *Action) Optional() []string {
	if a.Op != Search {
		return nil
	}
	var opts []string
	for i, c := range a.Columns {
		if a.Required[i] || a.IsRestricted(c) {
			continue
		}
		opts = append(opts, c)
	}
	return opts
}

// String implements fmt.Stringer.
func (a *Action) String() string {
	return a.name
}

// ParseColumns splits a comma separated column list, trimming blanks.
func ParseColumns(s string) []string {
	var cols []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			cols = append(cols, part)
		}
	}
	return cols
}

// ParseRestriction parses "col=value,col2=!value" into a restriction map.
func ParseRestriction(s string) (map[string]string, error) {
	restriction := make(map[string]string)
	for _, part := range ParseColumns(s) {
		col, value, ok := strings.Cut(part, "=")
		col = strings.TrimSpace(col)
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid restriction %q: expected column=value", part)
		}
		restriction[col] = strings.TrimSpace(value)
	}
	return restriction, nil
}

func stripMarker(column string) (string, bool) {
	column = strings.TrimSpace(column)
	if strings.HasPrefix(column, RequiredMarker) {
		return strings.TrimSpace(strings.TrimPrefix(column, RequiredMarker)), true
	}
	return column, false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
