package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"int", IRInt(-12), `-12`},
		{"bool", IRBool(false), `false`},
		{"plain string", "abc", `"abc"`},
		{"no html escaping", IRString("<a&b>"), `"<a&b>"`},
		{"line separator literal", IRString("a\u2028b"), "\"a\u2028b\""},
		{"control characters", IRString("tab\tnl\nbell\x07"), `"tab\tnl\nbell\u0007"`},
		{"quote and backslash", IRString(`"\`), `"\"\\"`},
		{"nested", IRObject{"z": IRArray{IRInt(1)}, "a": IRObject{"y": IRString("x")}}, `{"a":{"y":"x"},"z":[1]}`},
		{"go values", map[string]any{"b": 1, "a": []any{"x", true}}, `{"a":["x",true],"b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" followed by a combining acute accent composes to U+00E9.
	decomposed, err := MarshalCanonical(IRString("e\u0301"))
	require.NoError(t, err)
	composed, err := MarshalCanonical(IRString("\u00e9"))
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonicalRejects(t *testing.T) {
	for name, in := range map[string]any{
		"nil":          nil,
		"float":        3.14,
		"nested float": []any{1, 2.5},
		"unsupported":  struct{}{},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := MarshalCanonical(in)
			assert.Error(t, err)
		})
	}
}

func TestMarshalCanonicalDeterministic(t *testing.T) {
	obj := IRObject{"c": IRInt(3), "a": IRInt(1), "b": IRInt(2)}
	first, err := MarshalCanonical(obj)
	require.NoError(t, err)
	for range 20 {
		again, err := MarshalCanonical(obj)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
