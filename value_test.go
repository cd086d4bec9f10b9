package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValuePrimitives(t *testing.T) {
	v, err := ParseValue([]byte(`null`))
	require.NoError(t, err)
	assert.True(t, v.IsNull())

	v, err = ParseValue([]byte(`true`))
	require.NoError(t, err)
	assert.True(t, v.IsTrue())

	v, err = ParseValue([]byte(`false`))
	require.NoError(t, err)
	assert.True(t, v.IsFalse())

	v, err = ParseValue([]byte(`42`))
	require.NoError(t, err)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 42, i)

	v, err = ParseValue([]byte(`-3.5e2`))
	require.NoError(t, err)
	f, ok := v.AsFloat()
	require.True(t, ok)
	assert.Equal(t, -350.0, f)
}

// TestParseValueSingleQuoteRelaxation exercises spec.md §6's relaxation
// allowing single-quoted strings alongside standard double-quoted ones.
func TestParseValueSingleQuoteRelaxation(t *testing.T) {
	v, err := ParseValue([]byte(`'hello world'`))
	require.NoError(t, err)
	s, ok := v.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello world", s)

	v, err = ParseValue([]byte(`"hello world"`))
	require.NoError(t, err)
	s, ok = v.AsString()
	require.True(t, ok)
	assert.Equal(t, "hello world", s)
}

func TestParseValueArrayAndObject(t *testing.T) {
	v, err := ParseValue([]byte(`[1, 2, 'three']`))
	require.NoError(t, err)
	arr, ok := v.AsArray()
	require.True(t, ok)
	require.Len(t, arr, 3)
	s, _ := arr[2].AsString()
	assert.Equal(t, "three", s)

	v, err = ParseValue([]byte(`{"a": 1, 'b': [true, false]}`))
	require.NoError(t, err)
	dict, ok := v.AsDict()
	require.True(t, ok)
	require.Equal(t, 2, dict.Len())

	a, ok := v.Get("a").AsInt()
	require.True(t, ok)
	assert.EqualValues(t, 1, a)

	bArr, ok := v.Get("b").AsArray()
	require.True(t, ok)
	require.Len(t, bArr, 2)
	assert.True(t, bArr[0].IsTrue())
	assert.True(t, bArr[1].IsFalse())
}

func TestParseValueEscapes(t *testing.T) {
	v, err := ParseValue([]byte(`"line1\nline2\ttabbed"`))
	require.NoError(t, err)
	s, _ := v.AsString()
	assert.Equal(t, "line1\nline2\ttabbed", s)
}

func TestParseValueTrailingDataRejected(t *testing.T) {
	_, err := ParseValue([]byte(`1 2`))
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrParseError)
}

func TestValueStringifyRoundTrip(t *testing.T) {
	src := []byte(`{"name": "Ada", "age": 36, "active": true, "tags": ["x", "y"]}`)
	v, err := ParseValue(src)
	require.NoError(t, err)

	out := v.Stringify()
	reparsed, err := ParseValue([]byte(out))
	require.NoError(t, err, "Stringify output must itself be valid JSON")

	name, _ := reparsed.Get("name").AsString()
	assert.Equal(t, "Ada", name)
	age, _ := reparsed.Get("age").AsInt()
	assert.EqualValues(t, 36, age)
	assert.True(t, reparsed.Get("active").IsTrue())
}
