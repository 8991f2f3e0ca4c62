package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
)

func TestValidate_ValidQuery(t *testing.T) {
	q := From("posts").
		WithJoin(Join{Alias: "author", Table: "users", Kind: JoinInner,
			On: FieldEquals{Left: "author.id", Right: "posts.author_id"}}).
		Where(Eq("author.name", ir.IRString("ada"))).
		Where(OrOf(Eq("posts.flag", ir.IRBool(false)), Eq("views", ir.IRInt(3)))).
		OrderBy("author.name", Asc).
		Paginate(10, 0)

	result := Validate(q)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_MissingFrom(t *testing.T) {
	result := Validate(Select{})

	assert.False(t, result.Valid)
	require.Len(t, result.Problems, 1)
	assert.Contains(t, result.Problems[0], "missing source table")
}

func TestValidate_DuplicateJoinAlias(t *testing.T) {
	j := Join{Alias: "a", Table: "users", Kind: JoinInner, On: FieldEquals{Left: "a.id", Right: "posts.user_id"}}
	q := From("posts").WithJoin(j).WithJoin(j)

	result := Validate(q)

	assert.False(t, result.Valid)
	require.Len(t, result.Problems, 1)
	assert.Contains(t, result.Problems[0], "attached more than once")
}

func TestValidate_JoinWithoutOn(t *testing.T) {
	q := From("posts").WithJoin(Join{Alias: "a", Table: "users"})

	result := Validate(q)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "missing ON condition")
}

func TestValidate_UnknownAlias(t *testing.T) {
	q := From("posts").Where(Eq("ghost.name", ir.IRString("x")))

	result := Validate(q)

	assert.False(t, result.Valid)
	require.Len(t, result.Problems, 1)
	assert.Contains(t, result.Problems[0], `unknown alias "ghost"`)
}

func TestValidate_NestedProblems(t *testing.T) {
	q := From("posts").Where(And{Predicates: []Predicate{
		Eq("", ir.IRInt(1)),
		Or{Predicates: []Predicate{nil}},
		Compare{Field: "x", Op: OpGt},
	}})

	result := Validate(q)

	assert.False(t, result.Valid)
	assert.Len(t, result.Problems, 3)
}

func TestValidate_NegativeWindow(t *testing.T) {
	q := From("posts").Paginate(-1, -5)

	result := Validate(q)

	assert.False(t, result.Valid)
	assert.Len(t, result.Problems, 2)
}

func TestValidate_UnknownDirection(t *testing.T) {
	q := From("posts").OrderBy("id", Direction("up"))

	result := Validate(q)

	assert.False(t, result.Valid)
	assert.Contains(t, result.Problems[0], "unknown direction")
}

func TestValidate_IsPure(t *testing.T) {
	q := From("posts").Where(Eq("a", ir.IRInt(1)))

	first := Validate(q)
	second := Validate(q)

	assert.Equal(t, first, second)
}
