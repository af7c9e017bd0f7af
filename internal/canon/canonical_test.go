package canon

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal_Primitives(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", `"hello"`},
		{"int", 42, `42`},
		{"negative int64", int64(-7), `-7`},
		{"true", true, `true`},
		{"false", Bool(false), `false`},
		{"empty array", []any{}, `[]`},
		{"empty object", map[string]any{}, `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Marshal(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestMarshal_SortsKeys(t *testing.T) {
	got, err := Marshal(map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": true, "y": false}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":{"y":false,"z":true}}`, string(got))
}

func TestMarshal_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D 0xDE00, which sort before U+FFFD
	// in UTF-16 but after it in UTF-8.
	obj := Object{"\uFFFD": Int(1), "\U0001F600": Int(2)}
	keys := obj.SortedKeys()
	assert.Equal(t, []string{"\U0001F600", "\uFFFD"}, keys)
}

func TestMarshal_NoHTMLEscaping(t *testing.T) {
	got, err := Marshal("<a&b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a&b>"`, string(got))
}

func TestMarshal_LineSeparatorsLiteral(t *testing.T) {
	got, err := Marshal("a\u2028b\u2029c")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(got))

	// A literal backslash followed by the text u2028 must stay escaped.
	got, err = Marshal(`x\u2028`)
	require.NoError(t, err)
	assert.Equal(t, `"x\\u2028"`, string(got))
}

func TestMarshal_NFCNormalizes(t *testing.T) {
	decomposed := "e\u0301"
	composed := "\u00e9"

	a, err := Marshal(decomposed)
	require.NoError(t, err)
	b, err := Marshal(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshal_RejectsFloatsAndNull(t *testing.T) {
	_, err := Marshal(1.5)
	assert.Error(t, err)

	_, err = Marshal(nil)
	assert.Error(t, err)

	_, err = Marshal(map[string]any{"k": []any{1, 2.5}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object["k"]`)
}

func TestMarshal_UnsupportedType(t *testing.T) {
	_, err := Marshal(struct{}{})
	assert.ErrorContains(t, err, "unsupported type")
}

func TestMarshal_LevelInputsGolden(t *testing.T) {
	inputs := Object{
		"level": Int(1),
		"videos": Array{
			Object{"url": String("https://cdn.example/a.mp4"), "type": String("target")},
			Object{"url": String("https://cdn.example/b.mp4?x=1&y=<2>"), "type": String("filler")},
		},
	}
	got, err := Marshal(inputs)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "level_inputs", got)
}
