package builder

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
)

// filterHandler is a resolved filter entry of a frozen Builder.
type filterHandler struct {
	key      string
	field    string
	operator string
	join     string
	source   string
	fn       FilterFunc
}

// sortHandler is a resolved sort entry of a frozen Builder.
type sortHandler struct {
	key    string
	field  string
	join   string
	source string
	fn     SortFunc
}

// sourceDefinition marks handlers declared by the definition itself.
const sourceDefinition = "definition"

// registration is the single-pass accumulator behind Define.
type registration struct {
	def     Definition
	schema  Schema
	types   ir.TypeTable
	filters map[string]filterHandler
	sorts   map[string]sortHandler
}

// Define validates def and freezes it into a Builder.
//
// Registration runs in one pass: fields are described, user declarations
// are resolved, then each plugin contributes in order. User declarations
// win over plugin contributions with the same key; among plugins the
// first contribution wins. Any error aborts the whole definition.
func Define(def Definition) (*Builder, error) {
	r := &registration{
		def:     def,
		filters: make(map[string]filterHandler),
		sorts:   make(map[string]sortHandler),
	}

	if strings.TrimSpace(def.Table) == "" {
		return nil, r.fail(ErrCodeMissingTable, "", def.Origin, "definition has no source table")
	}

	policy := def.Unsupported
	if policy == "" {
		policy = PolicySkip
	}
	if !validPolicy(policy) {
		return nil, fmt.Errorf("builder %q: unknown unsupported-type policy %q", def.Name, policy)
	}

	r.types = def.Types
	if r.types.IsZero() {
		r.types = ir.NewTypeTable(nil)
	}

	fields := make(map[string]ir.FieldDescriptor, len(def.Fields))
	for _, fd := range def.Fields {
		if !operators.ValidKey(fd.Name) {
			return nil, r.fail(ErrCodeMalformedKey, fd.Name, def.Origin, "field name is not a valid identifier")
		}
		if _, dup := fields[fd.Name]; dup {
			return nil, r.fail(ErrCodeDuplicateKey, fd.Name, def.Origin, "field declared more than once")
		}
		fields[fd.Name] = r.types.Describe(fd.Name, fd.Type)
	}

	r.schema = Schema{
		definition: def.Name,
		table:      def.Table,
		fields:     fields,
		policy:     policy,
	}

	for _, decl := range def.Filters {
		h, err := r.resolveFilter(decl, sourceDefinition)
		if err != nil {
			return nil, err
		}
		if _, dup := r.filters[h.key]; dup {
			return nil, r.fail(ErrCodeDuplicateKey, h.key, decl.Origin, "filter declared more than once")
		}
		r.filters[h.key] = h
	}

	for _, decl := range def.Sorts {
		h, err := r.resolveSort(decl, sourceDefinition)
		if err != nil {
			return nil, err
		}
		if _, dup := r.sorts[h.key]; dup {
			return nil, r.fail(ErrCodeDuplicateKey, h.key, decl.Origin, "sorter declared more than once")
		}
		r.sorts[h.key] = h
	}

	for i, p := range def.Plugins {
		if p == nil || strings.TrimSpace(p.Name()) == "" {
			return nil, r.fail(ErrCodeInvalidPlugin, "", def.Origin, fmt.Sprintf("plugin[%d] is nil or unnamed", i))
		}
		if err := r.contribute(p); err != nil {
			return nil, err
		}
	}

	b := r.freeze()
	slog.Debug("builder defined",
		"builder", b.name,
		"table", b.table,
		"filters", len(b.filters),
		"sorts", len(b.sorts),
		"plugins", len(b.plugins))
	return b, nil
}

func validPolicy(p UnsupportedPolicy) bool {
	for _, v := range ValidPolicies {
		if v == p {
			return true
		}
	}
	return false
}

func (r *registration) fail(code RegistrationErrorCode, key, origin, msg string) *RegistrationError {
	return &RegistrationError{
		Code:       code,
		Definition: r.def.Name,
		Key:        key,
		Origin:     origin,
		Message:    msg,
	}
}

// checkKey enforces the literal-key rule shared by filters and sorters.
func (r *registration) checkKey(key string, src KeySource, origin string) error {
	if src == KeyComputed {
		return r.fail(ErrCodeNonLiteralKey, key, origin,
			"handler keys must be literal so they can be listed in metadata")
	}
	if src != "" && src != KeyLiteral {
		return r.fail(ErrCodeNonLiteralKey, key, origin, fmt.Sprintf("unknown key source %q", src))
	}
	if !operators.ValidKey(key) {
		return r.fail(ErrCodeMalformedKey, key, origin, "key is not a valid identifier")
	}
	return nil
}

func (r *registration) resolveFilter(decl FilterDecl, source string) (filterHandler, error) {
	if err := r.checkKey(decl.Key, decl.KeySource, decl.Origin); err != nil {
		return filterHandler{}, err
	}

	h := filterHandler{
		key:      decl.Key,
		field:    decl.Field,
		operator: decl.Operator.String(),
		source:   source,
	}

	if decl.Func != nil {
		h.fn = decl.Func
		if decl.Join != nil {
			h.join = decl.Join.Alias
		}
		return h, nil
	}

	if !decl.Operator.IsKnown() {
		return filterHandler{}, r.fail(ErrCodeUnsupportedOperator, decl.Key, decl.Origin,
			fmt.Sprintf("unknown operator %q", decl.Operator))
	}

	if decl.Join != nil {
		if err := r.checkJoin(decl.Key, decl.Origin, decl.Join, decl.Column); err != nil {
			return filterHandler{}, err
		}
		declared := decl.ColumnType
		if declared == "" {
			declared = "string"
		}
		fd := r.types.Describe(decl.Column, declared)
		build, ok := operators.Lookup(fd.Type, decl.Operator)
		if !ok {
			return filterHandler{}, r.fail(ErrCodeUnsupportedOperator, decl.Key, decl.Origin,
				fmt.Sprintf("operator %s is not supported for %s column %q", decl.Operator, fd.Type, decl.Column))
		}
		join := decl.Join.Join()
		column := join.Alias + "." + decl.Column
		h.field = column
		h.join = join.Alias
		h.fn = func(q queryir.Select, v ir.IRValue) (queryir.Select, queryir.Predicate, error) {
			q, err := ApplyJoin(q, join)
			if err != nil {
				return q, nil, err
			}
			p, err := build(column, fd, v)
			return q, p, err
		}
		return h, nil
	}

	field, op := decl.Field, decl.Operator
	if field == "" {
		field, op = operators.ParseKey(decl.Key)
		if decl.Operator != operators.OpEq {
			op = decl.Operator
		}
	}
	fd, ok := r.schema.Field(field)
	if !ok {
		return filterHandler{}, r.fail(ErrCodeUnknownField, decl.Key, decl.Origin,
			fmt.Sprintf("field %q is not declared", field))
	}
	build, ok := operators.Lookup(fd.Type, op)
	if !ok {
		return filterHandler{}, r.fail(ErrCodeUnsupportedOperator, decl.Key, decl.Origin,
			fmt.Sprintf("operator %s is not supported for %s field %q", op, fd.Type, field))
	}
	h.field = field
	h.operator = op.String()
	h.fn = func(q queryir.Select, v ir.IRValue) (queryir.Select, queryir.Predicate, error) {
		p, err := build(field, fd, v)
		return q, p, err
	}
	return h, nil
}

func (r *registration) resolveSort(decl SortDecl, source string) (sortHandler, error) {
	if err := r.checkKey(decl.Key, decl.KeySource, decl.Origin); err != nil {
		return sortHandler{}, err
	}

	h := sortHandler{key: decl.Key, field: decl.Field, source: source}

	switch {
	case decl.Func != nil:
		h.fn = decl.Func
		if decl.Join != nil {
			h.join = decl.Join.Alias
		}

	case decl.Join != nil:
		if err := r.checkJoin(decl.Key, decl.Origin, decl.Join, decl.Column); err != nil {
			return sortHandler{}, err
		}
		join := decl.Join.Join()
		column := join.Alias + "." + decl.Column
		h.field = column
		h.join = join.Alias
		h.fn = func(q queryir.Select, dir queryir.Direction, _ ir.IRValue) (queryir.Select, error) {
			q, err := ApplyJoin(q, join)
			if err != nil {
				return q, err
			}
			return q.OrderBy(column, dir), nil
		}

	default:
		field := decl.Field
		if field == "" {
			field = decl.Key
		}
		if _, ok := r.schema.Field(field); !ok {
			return sortHandler{}, r.fail(ErrCodeUnknownField, decl.Key, decl.Origin,
				fmt.Sprintf("field %q is not declared", field))
		}
		h.field = field
		h.fn = func(q queryir.Select, dir queryir.Direction, _ ir.IRValue) (queryir.Select, error) {
			return q.OrderBy(field, dir), nil
		}
	}
	return h, nil
}

func (r *registration) checkJoin(key, origin string, j *JoinSpec, column string) error {
	switch {
	case j.Alias == "":
		return r.fail(ErrCodeMalformedKey, key, origin, "join has no alias")
	case j.Alias == r.def.Table:
		return r.fail(ErrCodeMalformedKey, key, origin, "join alias shadows the source table")
	case j.Table == "" || j.Local == "" || j.Foreign == "":
		return r.fail(ErrCodeMalformedKey, key, origin, "join needs table, local and foreign columns")
	case column == "":
		return r.fail(ErrCodeUnknownField, key, origin, "joined handler has no column")
	}
	switch j.Kind {
	case "", queryir.JoinInner, queryir.JoinLeft:
		return nil
	default:
		return r.fail(ErrCodeMalformedKey, key, origin, fmt.Sprintf("unknown join kind %q", j.Kind))
	}
}

func (r *registration) contribute(p Plugin) error {
	c, ok := p.(Contributor)
	if !ok {
		return nil
	}

	name := p.Name()
	origin := "plugin " + name
	schema := r.schema
	schema.plugin = name

	contribution, err := c.Contribute(schema)
	if err != nil {
		if IsRegistrationError(err) {
			return err
		}
		return r.fail(ErrCodeInvalidPlugin, "", origin, err.Error())
	}

	for _, decl := range contribution.Filters {
		if decl.Origin == "" {
			decl.Origin = origin
		}
		if decl.Func == nil {
			return r.fail(ErrCodeInvalidPlugin, decl.Key, decl.Origin, "contributed filter has no function")
		}
		h, err := r.resolveFilter(decl, origin)
		if err != nil {
			return err
		}
		if existing, dup := r.filters[h.key]; dup {
			slog.Debug("contributed filter overridden",
				"builder", r.def.Name, "key", h.key, "plugin", name, "kept", existing.source)
			continue
		}
		r.filters[h.key] = h
	}

	for _, decl := range contribution.Sorts {
		if decl.Origin == "" {
			decl.Origin = origin
		}
		if decl.Func == nil {
			return r.fail(ErrCodeInvalidPlugin, decl.Key, decl.Origin, "contributed sorter has no function")
		}
		h, err := r.resolveSort(decl, origin)
		if err != nil {
			return err
		}
		if existing, dup := r.sorts[h.key]; dup {
			slog.Debug("contributed sorter overridden",
				"builder", r.def.Name, "key", h.key, "plugin", name, "kept", existing.source)
			continue
		}
		r.sorts[h.key] = h
	}

	return nil
}
