package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/sieve/internal/ir"
)

func TestPredicatesAreSealed(t *testing.T) {
	preds := []Predicate{
		True,
		Eq("status", ir.IRString("active")),
		In{Field: "id", Values: ir.IRArray{ir.IRInt(1)}},
		IsNull{Field: "deleted_at"},
		Like{Field: "title", Pattern: "%go%"},
		Contains{Field: "meta", Doc: ir.IRObject{"a": ir.IRInt(1)}},
		FieldEquals{Left: "author.id", Right: "posts.author_id"},
		And{},
		Or{},
	}
	for _, p := range preds {
		assert.Implements(t, (*Predicate)(nil), p)
	}
}

func TestAndOf(t *testing.T) {
	a := Eq("a", ir.IRInt(1))
	b := Eq("b", ir.IRInt(2))

	t.Run("empty is true", func(t *testing.T) {
		assert.Equal(t, True, AndOf())
	})

	t.Run("true and nil contribute nothing", func(t *testing.T) {
		assert.Equal(t, a, AndOf(True, nil, a, True))
	})

	t.Run("keeps order", func(t *testing.T) {
		assert.Equal(t, And{Predicates: []Predicate{a, b}}, AndOf(a, b))
	})

	t.Run("nested and is not flattened", func(t *testing.T) {
		inner := And{Predicates: []Predicate{a, b}}
		assert.Equal(t, And{Predicates: []Predicate{inner, a}}, AndOf(inner, a))
	})
}

func TestOrOf(t *testing.T) {
	a := Eq("a", ir.IRInt(1))
	b := Eq("b", ir.IRInt(2))

	t.Run("empty is true", func(t *testing.T) {
		assert.Equal(t, True, OrOf())
	})

	t.Run("true absorbs", func(t *testing.T) {
		assert.Equal(t, True, OrOf(a, True, b))
	})

	t.Run("false is dropped", func(t *testing.T) {
		assert.Equal(t, a, OrOf(False, a))
	})

	t.Run("all false stays false", func(t *testing.T) {
		assert.Equal(t, False, OrOf(False, False))
	})

	t.Run("keeps order", func(t *testing.T) {
		assert.Equal(t, Or{Predicates: []Predicate{a, b}}, OrOf(a, b))
	})
}
