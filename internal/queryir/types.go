package queryir

import (
	"strings"

	"github.com/roach88/sieve/internal/ir"
)

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Const: literal true/false
//   - Compare: field <op> literal
//   - In: field [NOT] IN (literals)
//   - IsNull: field IS [NOT] NULL
//   - Like: field LIKE pattern
//   - Contains: JSON document containment
//   - FieldEquals: column = column (join conditions)
//   - And / Or: n-ary composition
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Const is a literal boolean predicate.
type Const struct {
	Value bool
}

func (Const) predicateNode() {}

var (
	// True matches every row. It is the identity for And.
	True = Const{Value: true}

	// False matches no row.
	False = Const{Value: false}
)

// CompareOp enumerates the binary comparison operators.
type CompareOp string

const (
	OpEq  CompareOp = "="
	OpNeq CompareOp = "<>"
	OpGt  CompareOp = ">"
	OpGte CompareOp = ">="
	OpLt  CompareOp = "<"
	OpLte CompareOp = "<="
)

// Compare represents a field-versus-literal comparison.
//
// Semantics:
//
//	<field> <op> <value>
//
// Field may be qualified with a table or join alias ("author.name").
type Compare struct {
	Field string
	Op    CompareOp
	Value ir.IRValue
}

func (Compare) predicateNode() {}

// Eq is shorthand for Compare{Field: field, Op: OpEq, Value: v}.
func Eq(field string, v ir.IRValue) Compare {
	return Compare{Field: field, Op: OpEq, Value: v}
}

// In represents list membership.
//
// Semantics:
//
//	<field> [NOT] IN (<values>)
//
// An empty Values list matches nothing (or everything when Negate is set).
type In struct {
	Field  string
	Values ir.IRArray
	Negate bool
}

func (In) predicateNode() {}

// IsNull represents a null test.
//
// Semantics:
//
//	<field> IS [NOT] NULL
type IsNull struct {
	Field  string
	Negate bool
}

func (IsNull) predicateNode() {}

// Like represents a pattern match using percent-style wildcards. A
// backslash in Pattern escapes the character after it.
//
// Semantics:
//
//	<field> LIKE <pattern> ESCAPE '\'
type Like struct {
	Field   string
	Pattern string
}

func (Like) predicateNode() {}

// LikeEscaper escapes the wildcard characters of a literal so it can be
// embedded in a Like pattern.
var LikeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Contains represents JSON containment of a condition document.
//
// Semantics (Postgres notation):
//
//	<field> @> <doc>
//
// Doc is an IRObject for map fields (every key/value of Doc must be present,
// recursively) or an IRArray for array fields (every element of Doc must
// be contained in some element of the stored array).
type Contains struct {
	Field string
	Doc   ir.IRValue
}

func (Contains) predicateNode() {}

// FieldEquals compares two columns.
//
// Semantics:
//
//	<left> = <right>
type FieldEquals struct {
	Left  string
	Right string
}

func (FieldEquals) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
// An empty Predicates slice is vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (at least one must be true).
// Use OrOf rather than constructing Or directly: OrOf applies the
// empty-is-true identity.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// AndOf combines predicates with AND, left to right.
//
// nil and True operands contribute nothing. With no remaining operands the
// result is True; with exactly one, that operand is returned unwrapped.
func AndOf(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	for _, p := range preds {
		if p == nil || p == Predicate(True) {
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		return True
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// OrOf combines predicates with OR, left to right.
//
// An empty list composes to True (the composition contributes nothing).
// A True operand makes the whole disjunction True; False operands are
// dropped unless nothing else remains.
func OrOf(preds ...Predicate) Predicate {
	kept := make([]Predicate, 0, len(preds))
	sawFalse := false
	for _, p := range preds {
		switch {
		case p == nil:
			continue
		case p == Predicate(True):
			return True
		case p == Predicate(False):
			sawFalse = true
			continue
		}
		kept = append(kept, p)
	}
	switch len(kept) {
	case 0:
		if sawFalse {
			return False
		}
		return True
	case 1:
		return kept[0]
	default:
		return Or{Predicates: kept}
	}
}
