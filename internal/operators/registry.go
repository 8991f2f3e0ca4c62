package operators

import (
	"fmt"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Constructor builds the predicate for one filter value. column is the
// (possibly alias-qualified) column the predicate targets; field carries
// the semantic and declared type used to check and normalize the value.
type Constructor func(column string, field ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error)

// Operator pairs a suffix with its constructor.
type Operator struct {
	Op    Op
	Build Constructor
}

var (
	eq    = Operator{OpEq, buildEq}
	neq   = Operator{OpNeq, buildNeq}
	in    = Operator{OpIn, buildIn(false)}
	notIn = Operator{OpNotIn, buildIn(true)}
)

// registry is the static semantic type -> operator table. Slice order is
// the order operators are generated and listed in metadata.
var registry = map[ir.SemanticType][]Operator{
	ir.TypeIdentifier: {eq, neq, in, notIn},
	ir.TypeBoolean:    {{OpEq, buildBool}},
	ir.TypeNumeric: {
		eq, neq, in, notIn,
		{OpGt, buildCompare(queryir.OpGt)},
		{OpLt, buildCompare(queryir.OpLt)},
		{OpGte, buildCompare(queryir.OpGte)},
		{OpLte, buildCompare(queryir.OpLte)},
	},
	ir.TypeString: {
		eq, neq, in, notIn,
		{OpContains, buildLike("%", "%")},
		{OpStartsWith, buildLike("", "%")},
		{OpEndsWith, buildLike("%", "")},
	},
	ir.TypeTemporal: {
		eq, neq, in, notIn,
		{OpAfter, buildCompare(queryir.OpGt)},
		{OpBefore, buildCompare(queryir.OpLt)},
	},
	ir.TypeMap:         {{OpEq, buildMapContains}},
	ir.TypeArray:       {{OpContains, buildArrayContains}},
	ir.TypeArrayOfMaps: {{OpEq, buildArrayOfMapsContains}},
}

// For returns the operators generated for t, in canonical order.
// TypeOther and unknown types have none.
func For(t ir.SemanticType) []Operator {
	ops := registry[t]
	out := make([]Operator, len(ops))
	copy(out, ops)
	return out
}

// Supported reports whether t has any generated operators.
func Supported(t ir.SemanticType) bool {
	return len(registry[t]) > 0
}

// Lookup returns the constructor for op on t.
func Lookup(t ir.SemanticType, op Op) (Constructor, bool) {
	for _, o := range registry[t] {
		if o.Op == op {
			return o.Build, true
		}
	}
	return nil, false
}

// Sortable reports whether fields of type t can be ordered by.
func Sortable(t ir.SemanticType) bool {
	switch t {
	case ir.TypeIdentifier, ir.TypeBoolean, ir.TypeNumeric, ir.TypeString, ir.TypeTemporal:
		return true
	default:
		return false
	}
}

// listShorthand lists the types whose equality on a list value means "in".
func listShorthand(t ir.SemanticType) bool {
	switch t {
	case ir.TypeIdentifier, ir.TypeNumeric, ir.TypeString, ir.TypeTemporal:
		return true
	default:
		return false
	}
}

func buildEq(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	if list, ok := v.(ir.IRArray); ok && listShorthand(f.Type) {
		return buildIn(false)(column, f, list)
	}
	if ir.IsNull(v) {
		return queryir.IsNull{Field: column}, nil
	}
	val, err := Coerce(f, v)
	if err != nil {
		return nil, err
	}
	return queryir.Eq(column, val), nil
}

func buildNeq(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	if ir.IsNull(v) {
		return queryir.IsNull{Field: column, Negate: true}, nil
	}
	val, err := Coerce(f, v)
	if err != nil {
		return nil, err
	}
	return queryir.Compare{Field: column, Op: queryir.OpNeq, Value: val}, nil
}

func buildIn(negate bool) Constructor {
	return func(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
		list, ok := v.(ir.IRArray)
		if !ok {
			return nil, invalidValue(f, v, "expected a list")
		}
		vals := make(ir.IRArray, 0, len(list))
		for _, elem := range list {
			val, err := Coerce(f, elem)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return queryir.In{Field: column, Values: vals, Negate: negate}, nil
	}
}

func buildBool(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	switch val := v.(type) {
	case ir.IRBool:
		return queryir.Eq(column, val), nil
	case ir.IRNull, nil:
		return queryir.IsNull{Field: column}, nil
	default:
		return nil, invalidValue(f, v, "expected a boolean")
	}
}

func buildCompare(op queryir.CompareOp) Constructor {
	return func(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
		if ir.IsNull(v) {
			return nil, invalidValue(f, v, "cannot order-compare with null")
		}
		val, err := Coerce(f, v)
		if err != nil {
			return nil, err
		}
		return queryir.Compare{Field: column, Op: op, Value: val}, nil
	}
}

func buildLike(prefix, suffix string) Constructor {
	return func(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
		s, ok := v.(ir.IRString)
		if !ok {
			return nil, invalidValue(f, v, "expected a string")
		}
		return queryir.Like{Field: column, Pattern: prefix + queryir.LikeEscaper.Replace(string(s)) + suffix}, nil
	}
}

func buildMapContains(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	doc, err := Condition(v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", f.Name, err)
	}
	return queryir.Contains{Field: column, Doc: doc}, nil
}

func buildArrayContains(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	switch val := v.(type) {
	case ir.IRArray:
		for _, elem := range val {
			if !ir.IsScalar(elem) {
				return nil, invalidValue(f, v, "expected scalar elements")
			}
		}
		return queryir.Contains{Field: column, Doc: val}, nil
	case ir.IRObject:
		return nil, invalidValue(f, v, "expected a scalar or a list of scalars")
	default:
		return queryir.Contains{Field: column, Doc: ir.IRArray{val}}, nil
	}
}

func buildArrayOfMapsContains(column string, f ir.FieldDescriptor, v ir.IRValue) (queryir.Predicate, error) {
	var conds ir.IRArray
	switch val := v.(type) {
	case ir.IRArray:
		conds = val
	case ir.IRObject:
		conds = ir.IRArray{val}
	default:
		return nil, fmt.Errorf("field %q: %w: expected a list of conditions, got %T", f.Name, ErrMalformedCondition, v)
	}

	doc := make(ir.IRArray, 0, len(conds))
	for i, c := range conds {
		obj, err := Condition(c)
		if err != nil {
			return nil, fmt.Errorf("field %q condition[%d]: %w", f.Name, i, err)
		}
		doc = append(doc, obj)
	}
	return queryir.Contains{Field: column, Doc: doc}, nil
}
