package builder

import (
	"fmt"
	"sort"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

// Builder is a frozen query builder. It is never mutated after Define
// returns, so any number of goroutines may call its Build methods
// concurrently.
type Builder struct {
	name    string
	table   string
	fields  []ir.FieldDescriptor
	filters map[string]filterHandler
	sorts   map[string]sortHandler
	plugins []Plugin
	meta    Metadata
}

func (r *registration) freeze() *Builder {
	b := &Builder{
		name:    r.def.Name,
		table:   r.def.Table,
		fields:  r.schema.Fields(),
		filters: r.filters,
		sorts:   r.sorts,
		plugins: append([]Plugin(nil), r.def.Plugins...),
	}
	b.meta = b.buildMetadata()
	return b
}

// Name returns the builder's name.
func (b *Builder) Name() string { return b.name }

// Table returns the builder's source table.
func (b *Builder) Table() string { return b.table }

// Build composes filter into a query over the builder's table.
func (b *Builder) Build(filter any) (queryir.Select, error) {
	return b.BuildFrom(queryir.From(b.table), filter, Options{})
}

// BuildWithOptions composes filter and applies opts.
func (b *Builder) BuildWithOptions(filter any, opts Options) (queryir.Select, error) {
	return b.BuildFrom(queryir.From(b.table), filter, opts)
}

// BuildFrom composes filter onto an existing query. A base without a
// source table starts from the builder's table.
//
// The stages run strictly in sequence: filters, then ordering, then each
// plugin transform in registration order.
func (b *Builder) BuildFrom(base queryir.Select, filter any, opts Options) (queryir.Select, error) {
	if base.From == "" {
		base.From = b.table
	}

	spec, err := filterSpec(filter)
	if err != nil {
		return queryir.Select{}, err
	}
	if err := opts.validate(); err != nil {
		return queryir.Select{}, err
	}

	q, pred, err := b.compose(base, spec)
	if err != nil {
		return queryir.Select{}, err
	}
	if pred != queryir.Predicate(queryir.True) {
		q = q.Where(pred)
	}

	q, err = b.order(q, opts.Order)
	if err != nil {
		return queryir.Select{}, err
	}

	ctx := BuildContext{Builder: b.name, Table: b.table, Options: opts}
	for _, p := range b.plugins {
		t, ok := p.(Transformer)
		if !ok {
			continue
		}
		q, err = t.Transform(q, ctx)
		if err != nil {
			return queryir.Select{}, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
	}
	return q, nil
}

// EmptyQuery returns a query over the builder's table that matches nothing.
func (b *Builder) EmptyQuery() queryir.Select {
	return queryir.From(b.table).Where(queryir.False)
}

// HasFilter reports whether key resolves to a filter handler.
func (b *Builder) HasFilter(key string) bool {
	_, ok := b.filters[key]
	return ok
}

// HasSort reports whether key resolves to a sort handler.
func (b *Builder) HasSort(key string) bool {
	_, ok := b.sorts[key]
	return ok
}

// FilterKeys returns every filter key, sorted.
func (b *Builder) FilterKeys() []string {
	return sortedKeys(b.filters)
}

// SortKeys returns every sort key, sorted.
func (b *Builder) SortKeys() []string {
	return sortedKeys(b.sorts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// filterSpec converts caller input into the top-level filter mapping.
// nil and empty inputs are the empty spec.
func filterSpec(filter any) (ir.IRObject, error) {
	if filter == nil {
		return ir.IRObject{}, nil
	}
	v, err := ir.FromGo(filter)
	if err != nil {
		return nil, &BuildError{Code: ErrCodeInvalidValue, Message: "filter is not data", Err: err}
	}
	switch spec := v.(type) {
	case ir.IRObject:
		return spec, nil
	case ir.IRNull:
		return ir.IRObject{}, nil
	case ir.IRArray:
		return nil, &BuildError{Code: ErrCodeInvalidValue,
			Message: "top-level filter must be a mapping; wrap lists in _and"}
	default:
		return nil, &BuildError{Code: ErrCodeInvalidValue,
			Message: fmt.Sprintf("top-level filter must be a mapping, got %T", v)}
	}
}
