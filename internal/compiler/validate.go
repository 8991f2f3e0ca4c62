package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/plugins"
	"github.com/roach88/sieve/internal/queryir"
)

// Validation error codes (E100-E199)
const (
	ErrMissingTable     = "E101" // table is required
	ErrNoFields         = "E102" // at least one field required
	ErrInvalidFieldType = "E103" // empty or malformed storage type
	ErrUnknownOperator  = "E104" // operator is not a known suffix
	ErrDuplicateName    = "E105" // duplicate builder, field or key
	ErrInvalidPolicy    = "E106" // unsupported_types is not skip|warn|reject
	ErrInvalidJoin      = "E107" // join missing alias/table or on pair
	ErrUnknownPlugin    = "E108" // plugin name not registered
	ErrAmbiguousHandler = "E109" // handler names both a field and a join
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string   `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Pos     Position `json:"pos,omitzero"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateAll validates every spec and reports builders defined twice.
// Returns all errors found (does not fail-fast).
func ValidateAll(specs []Spec) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, s := range specs {
		if seen[s.Name] {
			errs = append(errs, ValidationError{
				Field:   RootKey + "." + s.Name,
				Message: fmt.Sprintf("builder %q defined more than once", s.Name),
				Code:    ErrDuplicateName,
				Pos:     s.Pos,
			})
		}
		seen[s.Name] = true
		errs = append(errs, Validate(s)...)
	}
	return errs
}

// Validate checks one spec against the definition rules that do not need
// a type table. Registration performs the remaining checks.
func Validate(s Spec) []ValidationError {
	var errs []ValidationError
	prefix := RootKey + "." + s.Name

	// E101: table is required
	if strings.TrimSpace(s.Table) == "" {
		errs = append(errs, ValidationError{
			Field:   prefix + ".table",
			Message: "table is required and must be non-empty",
			Code:    ErrMissingTable,
			Pos:     s.Pos,
		})
	}

	// E102: at least one field
	if len(s.Fields) == 0 {
		errs = append(errs, ValidationError{
			Field:   prefix + ".fields",
			Message: "at least one field is required",
			Code:    ErrNoFields,
			Pos:     s.Pos,
		})
	}

	if s.Unsupported != "" && !slices.Contains(builder.ValidPolicies, builder.UnsupportedPolicy(s.Unsupported)) {
		errs = append(errs, ValidationError{
			Field:   prefix + ".unsupported_types",
			Message: fmt.Sprintf("%q is not one of %v", s.Unsupported, builder.ValidPolicies),
			Code:    ErrInvalidPolicy,
			Pos:     s.Pos,
		})
	}

	fieldNames := make(map[string]bool)
	for _, f := range s.Fields {
		if fieldNames[f.Name] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".fields." + f.Name,
				Message: fmt.Sprintf("duplicate field: %q", f.Name),
				Code:    ErrDuplicateName,
				Pos:     f.Pos,
			})
		}
		fieldNames[f.Name] = true

		if strings.TrimSpace(f.Type) == "" {
			errs = append(errs, ValidationError{
				Field:   prefix + ".fields." + f.Name,
				Message: "storage type must be non-empty",
				Code:    ErrInvalidFieldType,
				Pos:     f.Pos,
			})
		}
	}

	errs = append(errs, validateKeys(prefix+"."+sectionFilters, s.Filters, true)...)
	errs = append(errs, validateKeys(prefix+"."+sectionSorts, s.Sorts, false)...)

	known := plugins.Names()
	for i, p := range s.Plugins {
		if !slices.Contains(known, p.Name) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("%s.plugins[%d]", prefix, i),
				Message: fmt.Sprintf("unknown plugin %q (known: %v)", p.Name, known),
				Code:    ErrUnknownPlugin,
				Pos:     p.Pos,
			})
		}
	}

	return errs
}

func validateKeys(prefix string, keys []KeySpec, filters bool) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, k := range keys {
		field := prefix + "." + k.Key

		// E105: duplicate key
		if seen[k.Key] {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicate key: %q", k.Key),
				Code:    ErrDuplicateName,
				Pos:     k.Pos,
			})
		}
		seen[k.Key] = true

		if filters && k.Operator != "" && !parseOp(k.Operator).IsKnown() {
			errs = append(errs, ValidationError{
				Field:   field + ".operator",
				Message: fmt.Sprintf("unknown operator %q", k.Operator),
				Code:    ErrUnknownOperator,
				Pos:     k.Pos,
			})
		}

		if k.Join == nil {
			continue
		}
		if k.Field != "" {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: "a handler targets either a field or a joined column, not both",
				Code:    ErrAmbiguousHandler,
				Pos:     k.Pos,
			})
		}
		if k.Join.Alias == "" || k.Join.Table == "" || len(k.Join.On) != 2 || k.Column == "" {
			errs = append(errs, ValidationError{
				Field:   field + ".join",
				Message: "join needs alias, table, an on pair and a column",
				Code:    ErrInvalidJoin,
				Pos:     k.Pos,
			})
		}
		if kind := queryir.JoinKind(k.Join.Kind); kind != "" && kind != queryir.JoinInner && kind != queryir.JoinLeft {
			errs = append(errs, ValidationError{
				Field:   field + ".join.kind",
				Message: fmt.Sprintf("join kind %q is not inner or left", k.Join.Kind),
				Code:    ErrInvalidJoin,
				Pos:     k.Pos,
			})
		}
	}
	return errs
}

// parseOp maps a written operator to its suffix; "eq" and "" are equality.
func parseOp(s string) operators.Op {
	if s == "eq" {
		return operators.OpEq
	}
	return operators.Op(s)
}
