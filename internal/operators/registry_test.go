package operators

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sieve/internal/ir"
	"github.com/roach88/sieve/internal/queryir"
)

func ops(t ir.SemanticType) []Op {
	var out []Op
	for _, o := range For(t) {
		out = append(out, o.Op)
	}
	return out
}

func TestRegistrySuffixSets(t *testing.T) {
	assert.Equal(t, []Op{OpEq, OpNeq, OpIn, OpNotIn}, ops(ir.TypeIdentifier))
	assert.Equal(t, []Op{OpEq}, ops(ir.TypeBoolean))
	assert.Equal(t, []Op{OpEq, OpNeq, OpIn, OpNotIn, OpGt, OpLt, OpGte, OpLte}, ops(ir.TypeNumeric))
	assert.Equal(t, []Op{OpEq, OpNeq, OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith}, ops(ir.TypeString))
	assert.Equal(t, []Op{OpEq, OpNeq, OpIn, OpNotIn, OpAfter, OpBefore}, ops(ir.TypeTemporal))
	assert.Equal(t, []Op{OpEq}, ops(ir.TypeMap))
	assert.Equal(t, []Op{OpContains}, ops(ir.TypeArray))
	assert.Equal(t, []Op{OpEq}, ops(ir.TypeArrayOfMaps))
	assert.Empty(t, ops(ir.TypeOther))

	assert.False(t, Supported(ir.TypeOther))
	assert.True(t, Supported(ir.TypeMap))
}

func TestForReturnsCopy(t *testing.T) {
	got := For(ir.TypeNumeric)
	got[0] = Operator{Op: "mutated"}
	assert.Equal(t, OpEq, For(ir.TypeNumeric)[0].Op)
}

func TestSortable(t *testing.T) {
	assert.True(t, Sortable(ir.TypeString))
	assert.True(t, Sortable(ir.TypeTemporal))
	assert.False(t, Sortable(ir.TypeMap))
	assert.False(t, Sortable(ir.TypeOther))
}

func build(t *testing.T, st ir.SemanticType, op Op, v ir.IRValue) queryir.Predicate {
	t.Helper()
	fn, ok := Lookup(st, op)
	require.True(t, ok, "no %s operator for %s", op, st)
	p, err := fn("f", ir.FieldDescriptor{Name: "f", Type: st}, v)
	require.NoError(t, err)
	return p
}

func TestEquality(t *testing.T) {
	assert.Equal(t, queryir.Eq("f", ir.IRInt(3)), build(t, ir.TypeNumeric, OpEq, ir.IRInt(3)))
	assert.Equal(t, queryir.IsNull{Field: "f"}, build(t, ir.TypeString, OpEq, ir.IRNull{}))
	assert.Equal(t, queryir.IsNull{Field: "f", Negate: true}, build(t, ir.TypeString, OpNeq, ir.IRNull{}))
	assert.Equal(t, queryir.Eq("f", ir.IRBool(false)), build(t, ir.TypeBoolean, OpEq, ir.IRBool(false)))
}

func TestEqualityListShorthand(t *testing.T) {
	list := ir.IRArray{ir.IRInt(1), ir.IRInt(2)}
	for _, st := range []ir.SemanticType{ir.TypeIdentifier, ir.TypeNumeric} {
		t.Run(string(st), func(t *testing.T) {
			assert.Equal(t, build(t, st, OpIn, list), build(t, st, OpEq, list))
		})
	}

	strs := ir.IRArray{ir.IRString("a"), ir.IRString("b")}
	assert.Equal(t, build(t, ir.TypeString, OpIn, strs), build(t, ir.TypeString, OpEq, strs))

	dates := ir.IRArray{ir.IRString("2024-01-01")}
	assert.Equal(t, build(t, ir.TypeTemporal, OpIn, dates), build(t, ir.TypeTemporal, OpEq, dates))
}

func TestNotIn(t *testing.T) {
	p := build(t, ir.TypeIdentifier, OpNotIn, ir.IRArray{ir.IRString("x")})
	assert.Equal(t, queryir.In{Field: "f", Values: ir.IRArray{ir.IRString("x")}, Negate: true}, p)
}

func TestInRequiresList(t *testing.T) {
	fn, _ := Lookup(ir.TypeNumeric, OpIn)
	_, err := fn("f", ir.FieldDescriptor{Name: "f", Type: ir.TypeNumeric}, ir.IRInt(1))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestNumericComparisons(t *testing.T) {
	assert.Equal(t, queryir.Compare{Field: "f", Op: queryir.OpGt, Value: ir.IRInt(5)}, build(t, ir.TypeNumeric, OpGt, ir.IRInt(5)))
	assert.Equal(t, queryir.Compare{Field: "f", Op: queryir.OpLte, Value: ir.IRFloat(1.5)}, build(t, ir.TypeNumeric, OpLte, ir.IRFloat(1.5)))

	fn, _ := Lookup(ir.TypeNumeric, OpGt)
	_, err := fn("f", ir.FieldDescriptor{Name: "f", Type: ir.TypeNumeric}, ir.IRString("5"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestStringPatterns(t *testing.T) {
	assert.Equal(t, queryir.Like{Field: "f", Pattern: "%go%"}, build(t, ir.TypeString, OpContains, ir.IRString("go")))
	assert.Equal(t, queryir.Like{Field: "f", Pattern: "go%"}, build(t, ir.TypeString, OpStartsWith, ir.IRString("go")))
	assert.Equal(t, queryir.Like{Field: "f", Pattern: "%go"}, build(t, ir.TypeString, OpEndsWith, ir.IRString("go")))

	assert.Equal(t, queryir.Like{Field: "f", Pattern: `%a\_b%`}, build(t, ir.TypeString, OpContains, ir.IRString("a_b")))
	assert.Equal(t, queryir.Like{Field: "f", Pattern: `50\%%`}, build(t, ir.TypeString, OpStartsWith, ir.IRString("50%")))
	assert.Equal(t, queryir.Like{Field: "f", Pattern: `%C:\\tmp`}, build(t, ir.TypeString, OpEndsWith, ir.IRString(`C:\tmp`)))
}

func TestTemporal(t *testing.T) {
	want := ir.IRTime(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, queryir.Compare{Field: "f", Op: queryir.OpGt, Value: want},
		build(t, ir.TypeTemporal, OpAfter, ir.IRString("2024-05-01")))
	assert.Equal(t, queryir.Compare{Field: "f", Op: queryir.OpLt, Value: want},
		build(t, ir.TypeTemporal, OpBefore, ir.IRString("2024-05-01T00:00:00Z")))

	fn, _ := Lookup(ir.TypeTemporal, OpAfter)
	_, err := fn("f", ir.FieldDescriptor{Name: "f", Type: ir.TypeTemporal}, ir.IRString("yesterday"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestUUIDIdentifier(t *testing.T) {
	fn, _ := Lookup(ir.TypeIdentifier, OpEq)
	field := ir.FieldDescriptor{Name: "id", Type: ir.TypeIdentifier, Declared: "uuid"}

	p, err := fn("id", field, ir.IRString("6BA7B810-9DAD-11D1-80B4-00C04FD430C8"))
	require.NoError(t, err)
	assert.Equal(t, queryir.Eq("id", ir.IRString("6ba7b810-9dad-11d1-80b4-00c04fd430c8")), p)

	_, err = fn("id", field, ir.IRString("not-a-uuid"))
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestMapContains(t *testing.T) {
	doc := ir.IRObject{"a": ir.IRInt(1)}
	assert.Equal(t, queryir.Contains{Field: "f", Doc: doc}, build(t, ir.TypeMap, OpEq, doc))

	tupled := build(t, ir.TypeMap, OpEq, ir.IRArray{ir.IRString("a"), ir.IRString(":equals"), ir.IRInt(1)})
	assert.Equal(t, queryir.Contains{Field: "f", Doc: doc}, tupled)

	fn, _ := Lookup(ir.TypeMap, OpEq)
	_, err := fn("f", ir.FieldDescriptor{Name: "f", Type: ir.TypeMap}, ir.IRString("x"))
	assert.ErrorIs(t, err, ErrMalformedCondition)
}

func TestArrayContains(t *testing.T) {
	assert.Equal(t, queryir.Contains{Field: "f", Doc: ir.IRArray{ir.IRString("go")}},
		build(t, ir.TypeArray, OpContains, ir.IRString("go")))
	assert.Equal(t, queryir.Contains{Field: "f", Doc: ir.IRArray{ir.IRString("a"), ir.IRString("b")}},
		build(t, ir.TypeArray, OpContains, ir.IRArray{ir.IRString("a"), ir.IRString("b")}))
}

func TestArrayOfMapsContains(t *testing.T) {
	v := ir.IRArray{
		ir.IRObject{"rel": ir.IRString("self")},
		ir.IRArray{ir.IRString("rel"), ir.IRString("equals"), ir.IRString("next")},
	}
	want := queryir.Contains{Field: "f", Doc: ir.IRArray{
		ir.IRObject{"rel": ir.IRString("self")},
		ir.IRObject{"rel": ir.IRString("next")},
	}}
	assert.Equal(t, want, build(t, ir.TypeArrayOfMaps, OpEq, v))

	fn, _ := Lookup(ir.TypeArrayOfMaps, OpEq)
	_, err := fn("f", ir.FieldDescriptor{Name: "f", Type: ir.TypeArrayOfMaps}, ir.IRArray{ir.IRInt(1)})
	assert.ErrorIs(t, err, ErrMalformedCondition)
}
