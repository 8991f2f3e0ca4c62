package operators

import (
	"regexp"
	"strings"
)

// Op is an operator suffix. The empty Op is equality.
type Op string

const (
	OpEq         Op = ""
	OpNeq        Op = "neq"
	OpIn         Op = "in"
	OpNotIn      Op = "not_in"
	OpGt         Op = "gt"
	OpLt         Op = "lt"
	OpGte        Op = "gte"
	OpLte        Op = "lte"
	OpContains   Op = "contains"
	OpStartsWith Op = "starts_with"
	OpEndsWith   Op = "ends_with"
	OpAfter      Op = "after"
	OpBefore     Op = "before"
)

// Separator joins a field name and an operator suffix in a filter key.
const Separator = "__"

// knownOps is every suffix any type can register.
var knownOps = map[Op]bool{
	OpNeq: true, OpIn: true, OpNotIn: true,
	OpGt: true, OpLt: true, OpGte: true, OpLte: true,
	OpContains: true, OpStartsWith: true, OpEndsWith: true,
	OpAfter: true, OpBefore: true,
}

// String renders the operator for display; equality renders as "eq".
func (o Op) String() string {
	if o == OpEq {
		return "eq"
	}
	return string(o)
}

// IsKnown reports whether o is equality or a registered suffix.
func (o Op) IsKnown() bool {
	return o == OpEq || knownOps[o]
}

// Key builds the filter key for field and op.
func Key(field string, op Op) string {
	if op == OpEq {
		return field
	}
	return field + Separator + string(op)
}

// ParseKey splits a filter key into its field and operator. The split
// happens at the last separator, and only when the text after it is a
// known suffix; otherwise the whole key is the field and the operator is
// equality.
func ParseKey(key string) (field string, op Op) {
	i := strings.LastIndex(key, Separator)
	if i <= 0 {
		return key, OpEq
	}
	suffix := Op(key[i+len(Separator):])
	if !knownOps[suffix] {
		return key, OpEq
	}
	return key[:i], suffix
}

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidKey reports whether key is a well-formed identifier usable as a
// filter or sort key. Reserved composition keys are not valid handler keys.
func ValidKey(key string) bool {
	if key == KeyAnd || key == KeyOr {
		return false
	}
	return keyPattern.MatchString(key)
}

// Reserved composition keys.
const (
	KeyAnd = "_and"
	KeyOr  = "_or"
)
