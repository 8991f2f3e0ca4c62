package plugins

import (
	"fmt"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/operators"
	"github.com/roach88/sieve/internal/queryir"
)

// AllFields selects every declared field in an auto_filter or auto_sort
// field list.
const AllFields = "*"

// AutoFilterOptions configures AutoFilter.
type AutoFilterOptions struct {
	Fields []string `mapstructure:"fields"`
}

// AutoFilter contributes the full operator set of each listed field.
type AutoFilter struct {
	opts AutoFilterOptions
}

// NewAutoFilter creates an auto_filter plugin.
func NewAutoFilter(opts AutoFilterOptions) *AutoFilter {
	return &AutoFilter{opts: opts}
}

func (p *AutoFilter) Name() string { return NameAutoFilter }

// Contribute generates field and field__op keys for every operator of each
// listed field. Fields whose type has no operators go through the
// definition's unsupported-type policy.
func (p *AutoFilter) Contribute(s builder.Schema) (builder.Contribution, error) {
	fields, err := selectFields(s, p.opts.Fields)
	if err != nil {
		return builder.Contribution{}, err
	}

	var c builder.Contribution
	for _, f := range fields {
		ops := operators.For(f.Type)
		if len(ops) == 0 {
			if err := s.Unsupported(f, "filter"); err != nil {
				return builder.Contribution{}, err
			}
			continue
		}
		for _, op := range ops {
			c.Filters = append(c.Filters, builder.FilterDecl{
				Key:       operators.Key(f.Name, op.Op),
				KeySource: builder.KeyLiteral,
				Field:     f.Name,
				Operator:  op.Op,
				Func:      fieldFilter(f, op.Build),
			})
		}
	}
	return c, nil
}

func fieldFilter(f ir.FieldDescriptor, build operators.Constructor) builder.FilterFunc {
	return func(q queryir.Select, v ir.IRValue) (queryir.Select, queryir.Predicate, error) {
		p, err := build(f.Name, f, v)
		return q, p, err
	}
}

// AutoSortOptions configures AutoSort.
type AutoSortOptions struct {
	Fields []string `mapstructure:"fields"`
}

// AutoSort contributes a sorter keyed by each listed field's name.
type AutoSort struct {
	opts AutoSortOptions
}

// NewAutoSort creates an auto_sort plugin.
func NewAutoSort(opts AutoSortOptions) *AutoSort {
	return &AutoSort{opts: opts}
}

func (p *AutoSort) Name() string { return NameAutoSort }

func (p *AutoSort) Contribute(s builder.Schema) (builder.Contribution, error) {
	fields, err := selectFields(s, p.opts.Fields)
	if err != nil {
		return builder.Contribution{}, err
	}

	var c builder.Contribution
	for _, f := range fields {
		if !operators.Sortable(f.Type) {
			if err := s.Unsupported(f, "sort"); err != nil {
				return builder.Contribution{}, err
			}
			continue
		}
		name := f.Name
		c.Sorts = append(c.Sorts, builder.SortDecl{
			Key:       name,
			KeySource: builder.KeyLiteral,
			Field:     name,
			Func: func(q queryir.Select, dir queryir.Direction, _ ir.IRValue) (queryir.Select, error) {
				return q.OrderBy(name, dir), nil
			},
		})
	}
	return c, nil
}

// selectFields resolves a field list against the schema. "*" expands to
// every declared field.
func selectFields(s builder.Schema, names []string) ([]ir.FieldDescriptor, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("fields: at least one field is required")
	}

	var out []ir.FieldDescriptor
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == AllFields {
			for _, f := range s.Fields() {
				if !seen[f.Name] {
					seen[f.Name] = true
					out = append(out, f)
				}
			}
			continue
		}
		f, ok := s.Field(name)
		if !ok {
			return nil, fmt.Errorf("fields: %q is not declared on table %s", name, s.Table())
		}
		if !seen[name] {
			seen[name] = true
			out = append(out, f)
		}
	}
	return out, nil
}
