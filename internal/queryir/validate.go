package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// Valid is true when no problems were found.
	Valid bool

	// Problems lists every structural issue found. Empty when Valid is true.
	Problems []string
}

// Validate checks a Select for structural problems a backend compiler
// would otherwise trip over:
//  1. Missing source table
//  2. Joins with an empty alias or table, a nil ON, or a duplicate alias
//  3. Predicates with empty field names or nil children
//  4. Qualified fields whose qualifier is neither the source table nor an
//     attached join alias
//  5. Negative limit or offset
//
// Validate is a pure function with no side effects.
func Validate(q Select) ValidationResult {
	v := &validator{
		problems: []string{},
		aliases:  map[string]bool{q.From: true},
	}
	v.validateSelect(q)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
	aliases  map[string]bool
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(q Select) {
	if strings.TrimSpace(q.From) == "" {
		v.addProblem("missing source table")
	}

	for i, j := range q.Joins {
		switch {
		case j.Alias == "":
			v.addProblem("join[%d]: empty alias", i)
		case v.aliases[j.Alias]:
			v.addProblem("join[%d]: alias %q attached more than once", i, j.Alias)
		}
		if j.Table == "" {
			v.addProblem("join[%d]: empty table", i)
		}
		v.aliases[j.Alias] = true
	}

	for i, j := range q.Joins {
		if j.On == nil {
			v.addProblem("join[%d] %q: missing ON condition", i, j.Alias)
			continue
		}
		v.validatePredicate(j.On)
	}

	if q.Filter != nil {
		v.validatePredicate(q.Filter)
	}

	for i, o := range q.Order {
		v.validateField(fmt.Sprintf("order[%d]", i), o.Field)
		if _, ok := ParseDirection(string(o.Direction)); !ok {
			v.addProblem("order[%d]: unknown direction %q", i, o.Direction)
		}
	}

	if w := q.Window; w != nil {
		if w.Limit < 0 {
			v.addProblem("negative limit %d", w.Limit)
		}
		if w.Offset < 0 {
			v.addProblem("negative offset %d", w.Offset)
		}
	}
}

// validateField checks that a field is non-empty and, when qualified,
// refers to a known table or alias.
func (v *validator) validateField(where, field string) {
	if strings.TrimSpace(field) == "" {
		v.addProblem("%s: empty field name", where)
		return
	}
	if qualifier, _, ok := strings.Cut(field, "."); ok && !v.aliases[qualifier] {
		v.addProblem("%s: field %q references unknown alias %q", where, field, qualifier)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addProblem("nil predicate")
	case Const:
	case Compare:
		v.validateField("compare", pred.Field)
		if pred.Value == nil {
			v.addProblem("compare %q: nil value", pred.Field)
		}
	case In:
		v.validateField("in", pred.Field)
	case IsNull:
		v.validateField("is_null", pred.Field)
	case Like:
		v.validateField("like", pred.Field)
	case Contains:
		v.validateField("contains", pred.Field)
		if pred.Doc == nil {
			v.addProblem("contains %q: nil document", pred.Field)
		}
	case FieldEquals:
		v.validateField("field_equals", pred.Left)
		v.validateField("field_equals", pred.Right)
	case And:
		for _, child := range pred.Predicates {
			v.validatePredicate(child)
		}
	case Or:
		for _, child := range pred.Predicates {
			v.validatePredicate(child)
		}
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}
