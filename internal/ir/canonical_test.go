package ir

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   IRValue
		want string
	}{
		{"null", IRNull{}, `null`},
		{"int", IRInt(-12), `-12`},
		{"integral float", IRFloat(2), `2`},
		{"float", IRFloat(0.5), `0.5`},
		{"bool", IRBool(false), `false`},
		{"html not escaped", IRString("<a&b>"), `"<a&b>"`},
		{"time", IRTime(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)), `"2024-01-02T03:04:05Z"`},
		{
			"object keys sorted",
			IRObject{"z": IRInt(1), "a": IRArray{IRString("x"), IRBool(true)}},
			`{"a":["x",true],"z":1}`,
		},
		{
			"nested",
			IRObject{"meta": IRObject{"b": IRNull{}, "a": IRFloat(1.5)}},
			`{"meta":{"a":1.5,"b":null}}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MarshalCanonical(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" + combining acute accent normalizes to the precomposed U+00E9.
	got, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonicalLineSeparators(t *testing.T) {
	got, err := MarshalCanonical(IRString("a\u2028b"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(got))

	// A literal backslash followed by the text u2028 stays escaped.
	got, err = MarshalCanonical(IRString(`a\u2028b`))
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(got))
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := IRObject{"c": IRInt(3), "a": IRInt(1), "b": IRInt(2)}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
