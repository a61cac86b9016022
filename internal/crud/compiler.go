package crud

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/brianwhu/xillium-sub000/internal/cache"
	"github.com/brianwhu/xillium-sub000/internal/schema"
	"github.com/brianwhu/xillium-sub000/internal/storage"
)

// DefaultMaxOptional bounds the optional columns of a SEARCH; n optional
// columns compile into 2^n statements.
const DefaultMaxOptional = 10

// fanOutWarning is the optional column count above which compilation logs a warning.
const fanOutWarning = 6

// Compiler turns Actions into Commands using live schema metadata.
// A Compiler is safe for concurrent use.
type Compiler struct {
	introspector schema.Introspector
	aliases      map[string]map[string]string
	placeholder  sq.PlaceholderFormat
	maxOptional  int
	logger       *slog.Logger
	cache        *cache.Cache[*Command]
	cacheSet     bool
	constraints  *storage.ConstraintTranslator
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithAliases renames request fields: aliases[table][column] replaces the
// column name as field name.
func WithAliases(aliases map[string]map[string]string) Option {
	return func(c *Compiler) {
		c.aliases = aliases
	}
}

// WithPlaceholder sets the bind parameter syntax (sq.Question, sq.Dollar, ...).
func WithPlaceholder(format sq.PlaceholderFormat) Option {
	return func(c *Compiler) {
		if format != nil {
			c.placeholder = format
		}
	}
}

// WithMaxOptional overrides DefaultMaxOptional.
func WithMaxOptional(n int) Option {
	return func(c *Compiler) {
		if n > 0 {
			c.maxOptional = n
		}
	}
}

// WithLogger sets the logger for compilation events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCache replaces the command cache. A nil cache disables caching.
func WithCache(commands *cache.Cache[*Command]) Option {
	return func(c *Compiler) {
		c.cache = commands
		c.cacheSet = true
	}
}

// WithConstraintMessages sets the constraint name to message map used by
// TranslateError.
func WithConstraintMessages(messages map[string]string) Option {
	return func(c *Compiler) {
		c.constraints = storage.NewConstraintTranslator(messages)
	}
}

// NewCompiler creates a compiler reading metadata through introspector.
func NewCompiler(introspector schema.Introspector, opts ...Option) *Compiler {
	c := &Compiler{
		introspector: introspector,
		placeholder:  sq.Question,
		maxOptional:  DefaultMaxOptional,
		logger:       slog.Default(),
		constraints:  storage.NewConstraintTranslator(nil),
	}
	for _, opt := range opts {
		opt(c)
	}
	if !c.cacheSet {
		c.cache = cache.New[*Command](cache.DefaultCapacity)
	}
	return c
}

// Close releases the background resources of the command cache. The
// compiler must not be used afterwards.
func (c *Compiler) Close() {
	if c.cache != nil {
		c.cache.Close()
	}
}

// Cache returns the command cache, or nil when caching is disabled.
func (c *Compiler) Cache() *cache.Cache[*Command] {
	return c.cache
}

// FieldName returns the request name of a table column.
func (c *Compiler) FieldName(table, column string) string {
	if alias := c.aliases[table][column]; alias != "" {
		return alias
	}
	return column
}

// TranslateError maps an integrity-constraint violation raised while running
// a compiled statement to a *storage.ConstraintError carrying the configured
// message. Other errors are returned unchanged.
func (c *Compiler) TranslateError(err error) error {
	return c.constraints.Translate(err)
}

// Compile returns the Command for an action, compiling it on first use.
// Later calls with an equally named action return the same *Command.
func (c *Compiler) Compile(ctx context.Context, a *Action) (*Command, error) {
	if c.cache == nil {
		return c.compile(ctx, a)
	}
	return c.cache.GetOrCompute(a.Name(), func() (*Command, error) {
		return c.compile(ctx, a)
	})
}

func (c *Compiler) compile(ctx context.Context, a *Action) (*Command, error) {
	s, err := c.analyze(ctx, a)
	if err != nil {
		return nil, err
	}

	var statements []*Statement
	switch a.Op {
	case Create:
		statements, err = s.create()
	case Retrieve:
		statements, err = s.retrieve()
	case Update:
		statements, err = s.update()
	case Delete:
		statements, err = s.delete()
	case Search:
		statements, err = s.search()
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownOperation, a.Op)
	}
	if err != nil {
		return nil, s.wrap(err)
	}

	described := statements
	if a.Op == Search {
		described = statements[len(statements)-1:]
	}

	cmd := &Command{
		Name:       a.Name(),
		Action:     a,
		Descriptor: newDescriptor(a, described),
		statements: statements,
		optional:   s.optional,
	}

	c.logger.Debug("compiled action",
		"name", cmd.Name,
		"type", cmd.Descriptor.TypeName,
		"statements", len(statements),
		"fields", len(cmd.Descriptor.Fields))
	return cmd, nil
}

// tableInfo is a table of the action with its ISA links resolved.
type tableInfo struct {
	*schema.Table
	index int

	// isa maps each ISA key column to the earlier table column it references.
	isa map[string]columnRef
}

type columnRef struct {
	table  *tableInfo
	column string
}

// compilation holds the state of compiling one action.
type compilation struct {
	compiler *Compiler
	action   *Action
	builder  sq.StatementBuilderType

	tables []*tableInfo
	byName map[string]*tableInfo

	// owner maps a column name to the first table defining it outside an ISA key.
	owner map[string]*tableInfo

	// fields memoizes one field per canonical (non-ISA) table column.
	fields map[string]*Field

	optional []string
}

func (c *Compiler) analyze(ctx context.Context, a *Action) (*compilation, error) {
	s := &compilation{
		compiler: c,
		action:   a,
		builder:  sq.StatementBuilder.PlaceholderFormat(c.placeholder),
		byName:   make(map[string]*tableInfo, len(a.Tables)),
		owner:    make(map[string]*tableInfo),
		fields:   make(map[string]*Field),
	}

	for i, name := range a.Tables {
		meta, err := c.introspector.InspectTable(ctx, name)
		if err != nil {
			return nil, s.wrap(err)
		}
		if a.Op.needsKey() && len(meta.PrimaryKey) == 0 {
			return nil, s.wrap(&SchemaError{Table: name, Err: ErrNoPrimaryKey})
		}

		t := &tableInfo{Table: meta, index: i, isa: make(map[string]columnRef)}
		if i > 0 {
			s.linkISA(t)
			if a.Op.IsQuery() && len(t.isa) == 0 {
				return nil, s.wrap(&SchemaError{Table: name, Err: ErrNoISARelation})
			}
		}

		for _, col := range meta.Columns {
			if _, ok := t.isa[col.Name]; ok {
				continue
			}
			if first, ok := s.owner[col.Name]; ok {
				c.logger.Debug("duplicate column, keeping first occurrence",
					"column", col.Name, "table", name, "first", first.Name)
				continue
			}
			s.owner[col.Name] = t
		}

		s.tables = append(s.tables, t)
		s.byName[name] = t
	}

	for _, col := range a.Columns {
		if s.owner[col] == nil {
			return nil, s.wrap(&SchemaError{Table: strings.Join(a.Tables, ","), Column: col, Err: ErrUnknownColumn})
		}
	}
	for _, col := range sortedKeys(a.Restriction) {
		if s.owner[col] == nil {
			return nil, s.wrap(&SchemaError{Table: strings.Join(a.Tables, ","), Column: col, Err: ErrUnknownColumn})
		}
	}

	return s, nil
}

// linkISA records the primary-key columns of t that reference a table listed
// before it. A reference without an explicit column targets the same-named
// column of the parent, or its single-column primary key.
func (s *compilation) linkISA(t *tableInfo) {
	for _, fk := range t.ForeignKeys {
		if !t.IsKey(fk.Column) {
			continue
		}
		parent, ok := s.byName[fk.RefTable]
		if !ok {
			continue
		}
		ref := fk.RefColumn
		if ref == "" {
			switch {
			case parent.HasColumn(fk.Column):
				ref = fk.Column
			case len(parent.PrimaryKey) == 1:
				ref = parent.PrimaryKey[0]
			default:
				continue
			}
		}
		if !parent.HasColumn(ref) {
			continue
		}
		t.isa[fk.Column] = columnRef{table: parent, column: ref}
	}
}

func (s *compilation) wrap(err error) error {
	return fmt.Errorf("compile %s on [%s]: %w", s.action.Op, strings.Join(s.action.Tables, ","), err)
}

// resolve follows ISA keys back to the column that owns the value.
func (s *compilation) resolve(t *tableInfo, column string) (*tableInfo, string) {
	for {
		ref, ok := t.isa[column]
		if !ok {
			return t, column
		}
		t, column = ref.table, ref.column
	}
}

// field returns the request field bound for a table column, creating it on
// first use. ISA keys share the field of the column they reference.
func (s *compilation) field(t *tableInfo, column string) *Field {
	t, column = s.resolve(t, column)
	key := t.Name + "." + column
	if f, ok := s.fields[key]; ok {
		return f
	}

	col, _ := t.Column(column)
	f := &Field{
		Name:     s.compiler.FieldName(t.Name, column),
		Table:    t.Name,
		Column:   column,
		Type:     col.Type,
		Kind:     col.Kind,
		Required: s.required(t, col),
	}
	if col.Kind.Bounded() && col.Precision > 0 {
		f.MaxSize = col.Precision
	}
	if s.action.Op == Create || s.action.Op == Update {
		if v, ok := s.action.Negated(column); ok {
			f.Forbidden = v
		}
	}
	s.fields[key] = f
	return f
}

func (s *compilation) required(t *tableInfo, col schema.Column) bool {
	if s.action.IsRequired(col.Name) {
		return true
	}
	switch s.action.Op {
	case Search:
		return false
	case Update:
		return t.IsKey(col.Name)
	default:
		return !col.Nullable
	}
}

// literal renders a restriction value as a quoted SQL string. Question marks
// are doubled for numbered placeholder formats, which treat "??" as an
// escaped '?'.
func (s *compilation) literal(value string) string {
	quoted := "'" + strings.ReplaceAll(value, "'", "''") + "'"
	if s.compiler.placeholder != sq.Question {
		quoted = strings.ReplaceAll(quoted, "?", "??")
	}
	return quoted
}

// fixedLiteral returns the quoted literal a restriction fixes a column of t
// to. ISA keys follow their reference, so a restricted parent key reaches
// every child row; a restriction only fixes the column in its owner table.
func (s *compilation) fixedLiteral(t *tableInfo, column string) (string, bool) {
	t, column = s.resolve(t, column)
	if s.owner[column] != t {
		return "", false
	}
	v, ok := s.action.Fixed(column)
	if !ok {
		return "", false
	}
	return s.literal(v), true
}

// value is what a CREATE or UPDATE statement assigns to a column of t: the
// fixed literal, or the bound request field.
func (s *compilation) value(t *tableInfo, column string) any {
	if lit, ok := s.fixedLiteral(t, column); ok {
		return sq.Expr(lit)
	}
	return s.field(t, column)
}

// restriction returns the literal predicate for a restricted column owned by t.
func (s *compilation) restriction(t *tableInfo, ref, column string) (predicate, bool) {
	if s.owner[column] != t {
		return predicate{}, false
	}
	if v, ok := s.action.Fixed(column); ok {
		return fixed(ref + " = " + s.literal(v)), true
	}
	if v, ok := s.action.Negated(column); ok {
		return fixed(ref + " <> " + s.literal(v)), true
	}
	return predicate{}, false
}

func (s *compilation) render(kind StatementKind, tag string, b sq.Sqlizer) (*Statement, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("render %s statement: %w", tag, err)
	}
	fields := make([]Field, len(args))
	for i, arg := range args {
		f, ok := arg.(*Field)
		if !ok {
			return nil, fmt.Errorf("render %s statement: unexpected argument %T", tag, arg)
		}
		fields[i] = *f
	}
	return &Statement{Kind: kind, SQL: query, Fields: fields, Tag: tag}, nil
}

// create emits one INSERT per table. Restricted columns receive their
// literal and ISA keys the parent's value.
func (s *compilation) create() ([]*Statement, error) {
	statements := make([]*Statement, 0, len(s.tables))
	for _, t := range s.tables {
		columns := make([]string, 0, len(t.Columns))
		values := make([]any, 0, len(t.Columns))
		for _, col := range t.Columns {
			columns = append(columns, col.Name)
			values = append(values, s.value(t, col.Name))
		}

		st, err := s.render(Exec, t.Name, s.builder.Insert(t.Name).Columns(columns...).Values(values...))
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	return statements, nil
}

// update emits one UPDATE per table that has something to set. Required
// columns are assigned directly, the others keep their value when the
// request leaves them null.
func (s *compilation) update() ([]*Statement, error) {
	explicit := len(s.action.Columns) > 0
	var statements []*Statement
	for _, t := range s.tables {
		b := s.builder.Update(t.Name)
		assigned := 0
		for _, col := range t.Columns {
			name := col.Name
			if t.IsKey(name) {
				continue
			}
			lit, fixedValue := s.fixedLiteral(t, name)
			if explicit && !s.action.HasColumn(name) && !fixedValue {
				continue
			}
			switch {
			case fixedValue:
				b = b.Set(name, sq.Expr(lit))
			case s.action.IsRequired(name):
				b = b.Set(name, s.field(t, name))
			default:
				b = b.Set(name, sq.Expr("COALESCE(?, "+name+")", s.field(t, name)))
			}
			assigned++
		}
		if assigned == 0 {
			s.compiler.logger.Debug("nothing to update, skipping table", "table", t.Name, "action", s.action.Name())
			continue
		}
		for _, key := range t.PrimaryKey {
			if lit, ok := s.fixedLiteral(t, key); ok {
				b = b.Where(sq.Expr(key + " = " + lit))
				continue
			}
			b = b.Where(sq.Expr(key+" = ?", s.field(t, key)))
		}

		st, err := s.render(Exec, t.Name, b)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	if len(statements) == 0 {
		return nil, ErrEmptyUpdate
	}
	return statements, nil
}

// delete emits one DELETE per table, children first.
func (s *compilation) delete() ([]*Statement, error) {
	statements := make([]*Statement, 0, len(s.tables))
	for i := len(s.tables) - 1; i >= 0; i-- {
		t := s.tables[i]
		b := s.builder.Delete(t.Name)
		for _, key := range t.PrimaryKey {
			b = b.Where(sq.Expr(key+" = ?", s.field(t, key)))
		}
		for _, col := range t.Columns {
			if p, ok := s.restriction(t, col.Name, col.Name); ok {
				b = b.Where(p.sqlizer())
			}
		}

		st, err := s.render(Exec, t.Name, b)
		if err != nil {
			return nil, err
		}
		statements = append(statements, st)
	}
	return statements, nil
}

// retrieve emits a single SELECT addressing the first table by key.
func (s *compilation) retrieve() ([]*Statement, error) {
	b := s.selectAll()
	for _, p := range s.predicates() {
		b = b.Where(p.sqlizer())
	}
	st, err := s.render(Query, s.tables[0].Name, b)
	if err != nil {
		return nil, err
	}
	return []*Statement{st}, nil
}

func (s *compilation) selectAll() sq.SelectBuilder {
	var projection []string
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
		if s.action.Dominant[t.Name] {
			projection = append(projection, t.Name+".*")
		}
	}
	if len(projection) == 0 {
		projection = []string{"*"}
	}
	return s.builder.Select(projection...).From(strings.Join(names, ", "))
}

// predicates walks the tables in order and their columns in schema order,
// producing the WHERE predicates of a query. Optional SEARCH predicates are
// numbered in discovery order.
func (s *compilation) predicates() []predicate {
	var preds []predicate
	for _, t := range s.tables {
		for _, col := range t.Columns {
			name := col.Name
			ref := qualify(t.Name, name)

			if parent, ok := t.isa[name]; ok {
				preds = append(preds, fixed(ref+" = "+qualify(parent.table.Name, parent.column)))
				continue
			}
			if p, ok := s.restriction(t, ref, name); ok {
				preds = append(preds, p)
				continue
			}
			if s.owner[name] != t {
				continue
			}

			switch s.action.Op {
			case Retrieve:
				if t.index == 0 && t.IsKey(name) {
					preds = append(preds, bound(ref, s.field(t, name)))
				}
			case Search:
				if !s.action.HasColumn(name) {
					continue
				}
				f := s.field(t, name)
				if s.action.IsRequired(name) {
					preds = append(preds, bound(ref, f))
					continue
				}
				p := bound(ref, f)
				p.optional = len(s.optional)
				preds = append(preds, p)
				s.optional = append(s.optional, f.Name)
			}
		}
	}
	return preds
}

func qualify(table, column string) string {
	return table + "." + column
}
