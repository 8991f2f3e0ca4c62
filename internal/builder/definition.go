package builder

import (
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
)

// FilterFunc resolves one filter value. It returns the query (extended
// when the handler attached a join) and the predicate for the value.
type FilterFunc func(q queryir.Select, v ir.IRValue) (queryir.Select, queryir.Predicate, error)

// SortFunc applies one ordering instruction to q.
type SortFunc func(q queryir.Select, dir queryir.Direction, extra ir.IRValue) (queryir.Select, error)

// KeySource records how a handler key was written where it was declared.
type KeySource string

const (
	// KeyLiteral is a key written out as a plain literal. The zero value
	// is treated as literal.
	KeyLiteral KeySource = "literal"

	// KeyComputed is a key produced by interpolation, a reference, or any
	// other expression. Computed keys are rejected at registration.
	KeyComputed KeySource = "computed"
)

// UnsupportedPolicy decides what happens when automatic generation meets a
// field whose type has no operators.
type UnsupportedPolicy string

const (
	PolicySkip   UnsupportedPolicy = "skip"
	PolicyWarn   UnsupportedPolicy = "warn"
	PolicyReject UnsupportedPolicy = "reject"
)

// ValidPolicies lists the accepted UnsupportedPolicy values.
var ValidPolicies = []UnsupportedPolicy{PolicySkip, PolicyWarn, PolicyReject}

// Definition is the data-only description of a query builder. Define
// validates it and freezes it into a Builder.
type Definition struct {
	// Name identifies the builder (e.g. "posts").
	Name string

	// Table is the source table every query starts from.
	Table string

	// Fields declares the table's columns and their storage types.
	Fields []FieldDef

	// Filters are user-declared filter handlers. They take precedence over
	// handlers contributed by plugins.
	Filters []FilterDecl

	// Sorts are user-declared sort handlers.
	Sorts []SortDecl

	// Plugins run in order: contributions at Define, transforms at build.
	Plugins []Plugin

	// Types resolves declared storage types. The zero value uses
	// ir.DefaultIdentifierTypes.
	Types ir.TypeTable

	// Unsupported is the policy for fields with no operators. Empty means
	// PolicySkip.
	Unsupported UnsupportedPolicy

	// Origin locates the definition (file path, or file:line:col).
	Origin string
}

// FieldDef declares one column.
type FieldDef struct {
	Name string
	Type string
}

// JoinSpec describes a joined resource.
type JoinSpec struct {
	// Alias tags the join; a query carries at most one join per alias.
	Alias string

	// Table is the joined table.
	Table string

	// Local is the column on the base table (or "alias.column" on another
	// join) matched against Foreign on the joined table.
	Local   string
	Foreign string

	Kind queryir.JoinKind
}

// Join renders the JoinSpec as a queryir.Join.
func (j JoinSpec) Join() queryir.Join {
	kind := j.Kind
	if kind == "" {
		kind = queryir.JoinInner
	}
	return queryir.Join{
		Alias: j.Alias,
		Table: j.Table,
		Kind:  kind,
		On:    queryir.FieldEquals{Left: j.Alias + "." + j.Foreign, Right: j.Local},
	}
}

// FilterDecl declares a filter handler.
//
// A declaration is either programmatic (Func set) or declarative: Field
// names a declared field and Operator selects one of its operators, or
// Join plus Column targets a column of a joined resource whose storage
// type is ColumnType.
type FilterDecl struct {
	Key       string
	KeySource KeySource
	Origin    string

	Field      string
	Operator   operators.Op
	Join       *JoinSpec
	Column     string
	ColumnType string

	Func FilterFunc
}

// SortDecl declares a sort handler. Like FilterDecl it is either
// programmatic (Func) or declarative (Field, or Join plus Column).
type SortDecl struct {
	Key       string
	KeySource KeySource
	Origin    string

	Field  string
	Join   *JoinSpec
	Column string

	Func SortFunc
}
