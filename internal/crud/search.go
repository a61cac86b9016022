package crud

import (
	"fmt"

	sq "github.com/Masterminds/squirrel"
)

// predicate is one WHERE term of a query. Bound predicates carry the field
// of their single placeholder; optional ones carry their bit in the variant
// mask, or -1 when always present.
type predicate struct {
	sql      string
	field    *Field
	optional int
}

func fixed(sql string) predicate {
	return predicate{sql: sql, optional: -1}
}

func bound(ref string, f *Field) predicate {
	return predicate{sql: ref + " = ?", field: f, optional: -1}
}

func (p predicate) sqlizer() sq.Sqlizer {
	if p.field == nil {
		return sq.Expr(p.sql)
	}
	return sq.Expr(p.sql, p.field)
}

// includedIn reports whether the predicate takes part in variant mask.
func (p predicate) includedIn(mask int) bool {
	return p.optional < 0 || mask&(1<<p.optional) != 0
}

// search emits 2^n SELECT variants for n optional columns, indexed by mask.
func (s *compilation) search() ([]*Statement, error) {
	preds := s.predicates()

	n := len(s.optional)
	if n > s.compiler.maxOptional {
		return nil, fmt.Errorf("%w: %d optional columns, limit is %d", ErrTooManyOptional, n, s.compiler.maxOptional)
	}
	if n > fanOutWarning {
		s.compiler.logger.Warn("large search fan-out",
			"action", s.action.Name(), "optional", n, "variants", 1<<n)
	}

	base := s.selectAll()
	variants := make([]*Statement, 1<<n)
	for mask := range variants {
		b := base
		for _, p := range preds {
			if p.includedIn(mask) {
				b = b.Where(p.sqlizer())
			}
		}
		st, err := s.render(Query, s.tables[0].Name, b)
		if err != nil {
			return nil, err
		}
		variants[mask] = st
	}
	return variants, nil
}
