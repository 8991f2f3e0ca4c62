package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
)

func TestSelectWhereAccumulates(t *testing.T) {
	a := Eq("a", ir.IRInt(1))
	b := Eq("b", ir.IRInt(2))
	c := Eq("c", ir.IRInt(3))

	q := From("posts").Where(a)
	assert.Equal(t, a, q.Filter)

	q = q.Where(b).Where(c)
	assert.Equal(t, And{Predicates: []Predicate{a, b, c}}, q.Filter)
}

func TestSelectIsImmutable(t *testing.T) {
	base := From("posts").OrderBy("id", Asc)

	withJoin := base.WithJoin(Join{Alias: "author", Table: "users", Kind: JoinInner,
		On: FieldEquals{Left: "author.id", Right: "posts.author_id"}})
	ordered := base.OrderBy("title", Desc)
	paged := base.Paginate(10, 20)
	filtered := base.Where(Eq("a", ir.IRInt(1)))

	// The base is untouched by every derived query.
	assert.Empty(t, base.Joins)
	assert.Len(t, base.Order, 1)
	assert.Nil(t, base.Window)
	assert.Nil(t, base.Filter)

	assert.True(t, withJoin.HasJoin("author"))
	assert.False(t, base.HasJoin("author"))
	assert.Equal(t, []OrderTerm{{"id", Asc}, {"title", Desc}}, ordered.Order)
	assert.Equal(t, &Window{Limit: 10, Offset: 20}, paged.Window)
	assert.NotNil(t, filtered.Filter)
}

func TestSelectOrderStacks(t *testing.T) {
	q := From("posts").OrderBy("a", Asc).OrderBy("b", Desc).OrderBy("a", Desc)
	assert.Equal(t, []OrderTerm{{"a", Asc}, {"b", Desc}, {"a", Desc}}, q.Order)
}

func TestSelectJoinByAlias(t *testing.T) {
	j := Join{Alias: "c", Table: "comments", Kind: JoinLeft, On: FieldEquals{Left: "c.post_id", Right: "posts.id"}}
	q := From("posts").WithJoin(j)

	got, ok := q.JoinByAlias("c")
	require.True(t, ok)
	assert.Equal(t, j, got)

	_, ok = q.JoinByAlias("missing")
	assert.False(t, ok)
}

func TestParseDirection(t *testing.T) {
	for _, d := range ValidDirections {
		got, ok := ParseDirection(string(d))
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}
	_, ok := ParseDirection("sideways")
	assert.False(t, ok)
}
