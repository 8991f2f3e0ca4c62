package ir

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromGoScalars(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	id := uuid.MustParse("0b5a3f7e-2f44-4a4b-9c0e-6b0f3e6a9d11")

	tests := []struct {
		name string
		in   any
		want IRValue
	}{
		{"nil", nil, IRNull{}},
		{"bool", true, IRBool(true)},
		{"string", "widget", IRString("widget")},
		{"int", 42, IRInt(42)},
		{"int32", int32(-7), IRInt(-7)},
		{"uint16", uint16(9), IRInt(9)},
		{"integral float", float64(3), IRInt(3)},
		{"float", 9.5, IRFloat(9.5)},
		{"json int", json.Number("12"), IRInt(12)},
		{"json float", json.Number("1.25"), IRFloat(1.25)},
		{"time normalized to utc", ts, IRTime(ts.UTC())},
		{"uuid", id, IRString("0b5a3f7e-2f44-4a4b-9c0e-6b0f3e6a9d11")},
		{"already ir", IRString("x"), IRString("x")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromGo(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromGoCollections(t *testing.T) {
	got, err := FromGo(map[string]any{
		"tags":   []string{"a", "b"},
		"counts": []int64{1, 2},
		"nested": map[string]any{"ok": true},
		"rows":   []map[string]any{{"k": "v"}},
	})
	require.NoError(t, err)

	want := IRObject{
		"tags":   IRArray{IRString("a"), IRString("b")},
		"counts": IRArray{IRInt(1), IRInt(2)},
		"nested": IRObject{"ok": IRBool(true)},
		"rows":   IRArray{IRObject{"k": IRString("v")}},
	}
	assert.Equal(t, want, got)
}

func TestFromGoYAMLMap(t *testing.T) {
	got, err := FromGo(map[any]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, IRObject{"a": IRInt(1)}, got)

	_, err = FromGo(map[any]any{1: "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "keys must be strings")
}

func TestFromGoUnsupported(t *testing.T) {
	_, err := FromGo(make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestUnmarshalIRValue(t *testing.T) {
	got, err := UnmarshalIRValue([]byte(`{"n": 1, "f": 1.5, "s": "x", "z": null, "l": [true]}`))
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"n": IRInt(1),
		"f": IRFloat(1.5),
		"s": IRString("x"),
		"z": IRNull{},
		"l": IRArray{IRBool(true)},
	}, got)
}

func TestNative(t *testing.T) {
	v, err := Native(IRInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = Native(IRNull{})
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = Native(IRArray{IRInt(1)})
	require.Error(t, err)
}

func TestToGoRoundTrip(t *testing.T) {
	in := map[string]any{"a": []any{int64(1), "b"}, "c": nil}
	v, err := FromGo(in)
	require.NoError(t, err)
	assert.Equal(t, in, ToGo(v))
}

func TestSortedKeysUTF16Order(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before U+FB01.
	obj := IRObject{"\uFB01": IRInt(1), "\U0001F600": IRInt(2), "a": IRInt(3)}
	assert.Equal(t, []string{"a", "\U0001F600", "\uFB01"}, obj.SortedKeys())
}

func TestIRObjectMarshalJSONSorted(t *testing.T) {
	data, err := json.Marshal(IRObject{"b": IRInt(1), "a": IRString("x")})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"x","b":1}`, string(data))
}
