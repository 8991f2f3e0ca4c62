package plugins

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/builder"
	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

func itemsDefinition(plugins ...builder.Plugin) builder.Definition {
	return builder.Definition{
		Name:  "items",
		Table: "items",
		Fields: []builder.FieldDef{
			{Name: "id", Type: "id"},
			{Name: "active", Type: "boolean"},
			{Name: "price", Type: "decimal"},
			{Name: "name", Type: "text"},
			{Name: "created_at", Type: "utc_datetime"},
			{Name: "attrs", Type: "jsonb"},
			{Name: "tags", Type: "[]string"},
			{Name: "variants", Type: "array<map>"},
			{Name: "payload", Type: "bytea"},
		},
		Plugins: plugins,
	}
}

func define(t *testing.T, def builder.Definition) *builder.Builder {
	t.Helper()
	b, err := builder.Define(def)
	require.NoError(t, err)
	return b
}

func TestAutoFilter_GeneratesOperatorSets(t *testing.T) {
	b := define(t, itemsDefinition(NewAutoFilter(AutoFilterOptions{Fields: []string{AllFields}})))

	assert.Equal(t, []string{
		"active",
		"attrs",
		"created_at", "created_at__after", "created_at__before", "created_at__in", "created_at__neq", "created_at__not_in",
		"id", "id__in", "id__neq", "id__not_in",
		"name", "name__contains", "name__ends_with", "name__in", "name__neq", "name__not_in", "name__starts_with",
		"price", "price__gt", "price__gte", "price__in", "price__lt", "price__lte", "price__neq", "price__not_in",
		"tags__contains",
		"variants",
	}, b.FilterKeys())

	for _, f := range b.Metadata().Filters {
		assert.Equal(t, "plugin auto_filter", f.Source, f.Key)
	}
}

func TestAutoFilter_SelectedFields(t *testing.T) {
	b := define(t, itemsDefinition(NewAutoFilter(AutoFilterOptions{Fields: []string{"active", "id", "active"}})))

	assert.Equal(t, []string{"active", "id", "id__in", "id__neq", "id__not_in"}, b.FilterKeys())
}

func TestAutoFilter_UnknownField(t *testing.T) {
	_, err := builder.Define(itemsDefinition(NewAutoFilter(AutoFilterOptions{Fields: []string{"ghost"}})))
	require.Error(t, err)
	assert.True(t, builder.IsRegistrationError(err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestAutoFilter_RejectPolicy(t *testing.T) {
	def := itemsDefinition(NewAutoFilter(AutoFilterOptions{Fields: []string{"payload"}}))
	def.Unsupported = builder.PolicyReject

	_, err := builder.Define(def)
	var re *builder.RegistrationError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, builder.ErrCodeUnsupportedType, re.Code)
}

func TestAutoFilter_Build(t *testing.T) {
	b := define(t, itemsDefinition(NewAutoFilter(AutoFilterOptions{Fields: []string{AllFields}})))

	q, err := b.Build(map[string]any{
		"price__gte":        10,
		"name__starts_with": "Wid",
		"created_at__after": "2024-01-01",
		"attrs":             map[string]any{"color": "red"},
		"variants":          []any{map[string]any{"size": "L"}},
	})
	require.NoError(t, err)

	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.Contains{Field: "attrs", Doc: ir.IRObject{"color": ir.IRString("red")}},
		queryir.Compare{Field: "created_at", Op: queryir.OpGt, Value: ir.IRTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		queryir.Like{Field: "name", Pattern: "Wid%"},
		queryir.Compare{Field: "price", Op: queryir.OpGte, Value: ir.IRInt(10)},
		queryir.Contains{Field: "variants", Doc: ir.IRArray{ir.IRObject{"size": ir.IRString("L")}}},
	}}, q.Filter)
}

func TestAutoSort(t *testing.T) {
	b := define(t, itemsDefinition(NewAutoSort(AutoSortOptions{Fields: []string{AllFields}})))

	assert.Equal(t, []string{"active", "created_at", "id", "name", "price"}, b.SortKeys())

	q, err := b.BuildWithOptions(nil, builder.Options{Order: []any{
		map[string]any{"desc": "price"},
		map[string]any{"asc_nulls_last": "name"},
	}})
	require.NoError(t, err)
	assert.Equal(t, []queryir.OrderTerm{
		{Field: "price", Direction: queryir.Desc},
		{Field: "name", Direction: queryir.AscNullsLast},
	}, q.Order)
}

func TestPagination(t *testing.T) {
	p, err := NewPagination(PaginationOptions{DefaultPerPage: 25})
	require.NoError(t, err)
	b := define(t, itemsDefinition(p))

	tests := []struct {
		name string
		opts builder.Options
		want *queryir.Window
	}{
		{"page 3 of 10", builder.Options{Page: 3, PerPage: 10}, &queryir.Window{Limit: 10, Offset: 20}},
		{"first page uses default", builder.Options{Page: 1}, &queryir.Window{Limit: 25, Offset: 0}},
		{"no page is a no-op", builder.Options{PerPage: 10}, nil},
		{"nothing requested", builder.Options{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := b.BuildWithOptions(nil, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Window)
		})
	}
}

func TestPagination_MaxPerPage(t *testing.T) {
	p, err := NewPagination(PaginationOptions{DefaultPerPage: 10, MaxPerPage: 50})
	require.NoError(t, err)
	b := define(t, itemsDefinition(p))

	q, err := b.BuildWithOptions(nil, builder.Options{Page: 2, PerPage: 500})
	require.NoError(t, err)
	assert.Equal(t, &queryir.Window{Limit: 50, Offset: 50}, q.Window)
}

func TestPagination_InvalidOptions(t *testing.T) {
	_, err := NewPagination(PaginationOptions{DefaultPerPage: -1})
	assert.Error(t, err)

	_, err = NewPagination(PaginationOptions{DefaultPerPage: 100, MaxPerPage: 10})
	assert.Error(t, err)

	p, err := NewPagination(PaginationOptions{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPerPage, p.opts.DefaultPerPage)
}

func TestSoftDelete(t *testing.T) {
	b := define(t, itemsDefinition(
		NewAutoFilter(AutoFilterOptions{Fields: []string{"active"}}),
		NewSoftDelete(SoftDeleteOptions{}),
	))

	q, err := b.Build(map[string]any{"active": true})
	require.NoError(t, err)
	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.Eq("active", ir.IRBool(true)),
		queryir.IsNull{Field: "deleted_at"},
	}}, q.Filter)

	opts, err := builder.ParseOptions(map[string]any{OptionWithDeleted: true})
	require.NoError(t, err)
	q, err = b.BuildWithOptions(map[string]any{"active": true}, opts)
	require.NoError(t, err)
	assert.Equal(t, queryir.Eq("active", ir.IRBool(true)), q.Filter)
}

func TestPipelineOrder(t *testing.T) {
	p, err := NewPagination(PaginationOptions{})
	require.NoError(t, err)
	b := define(t, itemsDefinition(
		NewAutoSort(AutoSortOptions{Fields: []string{"name"}}),
		NewSoftDelete(SoftDeleteOptions{Column: "archived_at"}),
		p,
	))

	q, err := b.BuildWithOptions(nil, builder.Options{Page: 2, Order: []any{map[string]any{"asc": "name"}}})
	require.NoError(t, err)

	assert.Equal(t, queryir.IsNull{Field: "archived_at"}, q.Filter)
	assert.Equal(t, []queryir.OrderTerm{{Field: "name", Direction: queryir.Asc}}, q.Order)
	assert.Equal(t, &queryir.Window{Limit: DefaultPerPage, Offset: DefaultPerPage}, q.Window)
	assert.Equal(t, []string{NameAutoSort, NameSoftDelete, NamePagination}, b.Metadata().Plugins)
}
