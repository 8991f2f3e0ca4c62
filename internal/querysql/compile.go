package querysql

import (
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Dialect names a SQL flavour the compiler can render.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// ValidDialects lists the supported dialects.
var ValidDialects = []Dialect{DialectSQLite, DialectPostgres}

// Option customizes a Compiler.
type Option func(*Compiler)

// WithTieBreaker appends "<table>.<column> ASC" to every ORDER BY that does
// not already order by column, so paginated results are deterministic.
// It is a no-op for queries without ordering or pagination.
func WithTieBreaker(column string) Option {
	return func(c *Compiler) {
		c.tieBreaker = column
	}
}

// Compiler compiles QueryIR to parameterized SQL.
//
// All values are parameterized (never interpolated). Field names and
// table names come from builder definitions, never from caller input.
type Compiler struct {
	dialect    Dialect
	tieBreaker string
	statement  sq.StatementBuilderType
}

// NewCompiler creates a Compiler for the given dialect.
func NewCompiler(dialect Dialect, opts ...Option) (*Compiler, error) {
	c := &Compiler{dialect: dialect}

	switch dialect {
	case DialectSQLite:
		c.statement = sq.StatementBuilder.PlaceholderFormat(sq.Question)
	case DialectPostgres:
		c.statement = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	default:
		return nil, fmt.Errorf("unsupported dialect %q: must be one of %v", dialect, ValidDialects)
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Dialect returns the compiler's dialect.
func (c *Compiler) Dialect() Dialect {
	return c.dialect
}

// Compile converts a Select to parameterized SQL.
// Returns (sql, params, error).
func (c *Compiler) Compile(q queryir.Select) (string, []any, error) {
	if strings.TrimSpace(q.From) == "" {
		return "", nil, fmt.Errorf("cannot compile query without source table")
	}

	columns := "*"
	if len(q.Joins) > 0 {
		columns = q.From + ".*"
	}
	sb := c.statement.Select(columns).From(q.From)

	r := &renderer{c: c, base: q.From, qualify: len(q.Joins) > 0}

	for _, j := range q.Joins {
		clause, args, err := r.joinClause(j)
		if err != nil {
			return "", nil, fmt.Errorf("compile join %q: %w", j.Alias, err)
		}
		sb = sb.JoinClause(clause, args...)
	}

	if q.Filter != nil && q.Filter != queryir.Predicate(queryir.True) {
		where, err := r.predicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		sb = sb.Where(where)
	}

	if order := r.orderBy(q); len(order) > 0 {
		sb = sb.OrderBy(order...)
	}

	if w := q.Window; w != nil {
		if w.Limit < 0 || w.Offset < 0 {
			return "", nil, fmt.Errorf("negative limit/offset (%d, %d)", w.Limit, w.Offset)
		}
		sb = sb.Limit(uint64(w.Limit)).Offset(uint64(w.Offset))
	}

	return sb.ToSql()
}

// CompilePredicate renders a single predicate against base as a WHERE
// fragment.
func (c *Compiler) CompilePredicate(base string, p queryir.Predicate) (string, []any, error) {
	r := &renderer{c: c, base: base}
	s, err := r.predicate(p)
	if err != nil {
		return "", nil, err
	}
	return s.ToSql()
}

// renderer carries per-query state while compiling one Select.
type renderer struct {
	c       *Compiler
	base    string
	qualify bool // qualify bare fields with the base table (set when joins exist)
	depth   int  // json_each alias counter
}

func (r *renderer) field(name string) string {
	if r.qualify && !strings.Contains(name, ".") {
		return r.base + "." + name
	}
	return name
}

func (r *renderer) joinClause(j queryir.Join) (string, []any, error) {
	if j.Alias == "" || j.Table == "" {
		return "", nil, fmt.Errorf("join requires alias and table")
	}
	if j.On == nil {
		return "", nil, fmt.Errorf("join requires an ON condition")
	}

	kind := "INNER JOIN"
	switch j.Kind {
	case "", queryir.JoinInner:
	case queryir.JoinLeft:
		kind = "LEFT JOIN"
	default:
		return "", nil, fmt.Errorf("unsupported join kind %q", j.Kind)
	}

	on, err := r.predicate(j.On)
	if err != nil {
		return "", nil, err
	}
	onSQL, args, err := on.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s %s AS %s ON %s", kind, j.Table, j.Alias, onSQL), args, nil
}

func (r *renderer) orderBy(q queryir.Select) []string {
	terms := make([]string, 0, len(q.Order)+1)
	seenTie := false
	for _, o := range q.Order {
		field := r.field(o.Field)
		if r.c.tieBreaker != "" && (o.Field == r.c.tieBreaker || field == q.From+"."+r.c.tieBreaker) {
			seenTie = true
		}
		terms = append(terms, field+" "+directionSQL(o.Direction))
	}

	if r.c.tieBreaker != "" && !seenTie && (len(q.Order) > 0 || q.Window != nil) {
		terms = append(terms, q.From+"."+r.c.tieBreaker+" ASC")
	}
	return terms
}

func directionSQL(d queryir.Direction) string {
	switch d {
	case queryir.Desc:
		return "DESC"
	case queryir.AscNullsFirst:
		return "ASC NULLS FIRST"
	case queryir.AscNullsLast:
		return "ASC NULLS LAST"
	case queryir.DescNullsFirst:
		return "DESC NULLS FIRST"
	case queryir.DescNullsLast:
		return "DESC NULLS LAST"
	default:
		return "ASC"
	}
}

// predicate compiles a queryir.Predicate to a squirrel Sqlizer.
func (r *renderer) predicate(p queryir.Predicate) (sq.Sqlizer, error) {
	switch pred := p.(type) {
	case nil:
		return sq.Expr("1 = 1"), nil
	case queryir.Const:
		if pred.Value {
			return sq.Expr("1 = 1"), nil
		}
		return sq.Expr("1 = 0"), nil
	case queryir.Compare:
		return r.compare(pred)
	case queryir.In:
		return r.in(pred)
	case queryir.IsNull:
		if pred.Negate {
			return sq.NotEq{r.field(pred.Field): nil}, nil
		}
		return sq.Eq{r.field(pred.Field): nil}, nil
	case queryir.Like:
		return sq.Expr(r.field(pred.Field)+` LIKE ? ESCAPE '\'`, pred.Pattern), nil
	case queryir.Contains:
		return r.contains(pred)
	case queryir.FieldEquals:
		return sq.Expr(r.field(pred.Left) + " = " + r.field(pred.Right)), nil
	case queryir.And:
		if len(pred.Predicates) == 0 {
			return sq.Expr("1 = 1"), nil
		}
		out := make(sq.And, 0, len(pred.Predicates))
		for _, child := range pred.Predicates {
			s, err := r.predicate(child)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case queryir.Or:
		if len(pred.Predicates) == 0 {
			return sq.Expr("1 = 1"), nil
		}
		out := make(sq.Or, 0, len(pred.Predicates))
		for _, child := range pred.Predicates {
			s, err := r.predicate(child)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (r *renderer) compare(cmp queryir.Compare) (sq.Sqlizer, error) {
	field := r.field(cmp.Field)

	if ir.IsNull(cmp.Value) {
		switch cmp.Op {
		case queryir.OpEq:
			return sq.Eq{field: nil}, nil
		case queryir.OpNeq:
			return sq.NotEq{field: nil}, nil
		default:
			return nil, fmt.Errorf("operator %s cannot compare %q with null", cmp.Op, cmp.Field)
		}
	}

	param, err := r.param(cmp.Value)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", cmp.Field, err)
	}

	switch cmp.Op {
	case queryir.OpEq:
		return sq.Eq{field: param}, nil
	case queryir.OpNeq:
		return sq.NotEq{field: param}, nil
	case queryir.OpGt:
		return sq.Gt{field: param}, nil
	case queryir.OpGte:
		return sq.GtOrEq{field: param}, nil
	case queryir.OpLt:
		return sq.Lt{field: param}, nil
	case queryir.OpLte:
		return sq.LtOrEq{field: param}, nil
	default:
		return nil, fmt.Errorf("unsupported comparison operator %q", cmp.Op)
	}
}

func (r *renderer) in(in queryir.In) (sq.Sqlizer, error) {
	field := r.field(in.Field)
	params := make([]any, 0, len(in.Values))
	for i, v := range in.Values {
		param, err := r.param(v)
		if err != nil {
			return nil, fmt.Errorf("field %q value[%d]: %w", in.Field, i, err)
		}
		params = append(params, param)
	}
	if in.Negate {
		return sq.NotEq{field: params}, nil
	}
	return sq.Eq{field: params}, nil
}

// param converts a scalar IRValue to a driver parameter. SQLite stores
// times as RFC 3339 text, so times are bound in that form there.
func (r *renderer) param(v ir.IRValue) (any, error) {
	native, err := ir.Native(v)
	if err != nil {
		return nil, err
	}
	if t, ok := native.(time.Time); ok && r.c.dialect == DialectSQLite {
		return t.UTC().Format(time.RFC3339Nano), nil
	}
	return native, nil
}

// Bind converts v to the value written to a column of this dialect.
// Scalars bind as they do in compiled queries; arrays and objects bind as
// canonical JSON text.
func (c *Compiler) Bind(v ir.IRValue) (any, error) {
	switch v.(type) {
	case ir.IRArray, ir.IRObject:
		data, err := ir.MarshalCanonical(v)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	}
	r := &renderer{c: c}
	return r.param(v)
}
