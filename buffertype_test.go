package noproto

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertGenerateStringRoundTrip fails with a unified diff between the
// original expression and what came back out of the parse/print round
// trip, rather than testify's default side-by-side dump — useful here
// since the mismatch, when one occurs, is almost always a single
// misplaced token deep in a nested expression.
func assertGenerateStringRoundTrip(t *testing.T, want string, bt *BufferType, schema *CompiledSchema) {
	t.Helper()
	got := bt.GenerateString(schema)
	if want == got {
		return
	}
	diff, _ := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  1,
	})
	t.Fatalf("GenerateString round trip mismatch:\n%s\nparsed BufferType: %s", diff, spew.Sdump(bt))
}

// TestParseTypeGenericCustom exercises spec.md §8 example 3: a generic
// struct instantiated with a concrete type argument.
func TestParseTypeGenericCustom(t *testing.T) {
	cs, err := Compile([]byte(`struct myType<X> [id:10]{username:string, password:string}`))
	require.NoError(t, err)

	bt, err := ParseType("myType<u32>", cs)
	require.NoError(t, err)
	require.NotNil(t, bt)

	assert.Equal(t, KindSmallCustom, bt.Kind, "id 10 fits in a byte, so Custom normalizes to SmallCustom")
	require.Len(t, bt.Generics, 1)
	assert.Equal(t, KindUint32, bt.Generics[0].Kind)

	n, bytes, err := bt.GetBytes()
	require.NoError(t, err)

	consumed, decoded, err := FromBytes(bytes[:n], cs)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, *bt, decoded)

	assertGenerateStringRoundTrip(t, "myType<u32>", bt, cs)
}

// TestParseTypeDeepNesting exercises spec.md §8 example 4: a deeply nested
// Vec<Vec<Vec<Vec<u32>>>> round-trips through bytes and back to the exact
// same expression text.
func TestParseTypeDeepNesting(t *testing.T) {
	expr := "Vec<Vec<Vec<Vec<u32>>>>"
	bt, err := ParseType(expr, nil)
	require.NoError(t, err)
	require.NotNil(t, bt)

	n, bytes, err := bt.GetBytes()
	require.NoError(t, err)

	consumed, decoded, err := FromBytes(bytes[:n], nil)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, *bt, decoded)
	assertGenerateStringRoundTrip(t, expr, &decoded, nil)
}

// TestParseTypeArraySizeBoundary exercises spec.md §8 example 5: array
// length crosses the byte boundary between SmallArray and Array encodings.
func TestParseTypeArraySizeBoundary(t *testing.T) {
	small, err := ParseType("[bool; 20]", nil)
	require.NoError(t, err)
	assert.Equal(t, KindSmallArray, small.Kind)
	assertGenerateStringRoundTrip(t, "[bool; 20]", small, nil)

	big, err := ParseType("[bool; 500]", nil)
	require.NoError(t, err)
	assert.Equal(t, KindArray, big.Kind, "500 exceeds a byte, so it stays the full Array encoding")
	assertGenerateStringRoundTrip(t, "[bool; 500]", big, nil)

	n, bytes, err := big.GetBytes()
	require.NoError(t, err)
	consumed, decoded, err := FromBytes(bytes[:n], nil)
	require.NoError(t, err)
	assert.Equal(t, n, consumed)
	assert.Equal(t, KindArray, decoded.Kind)
}

// TestParseTypeRPC exercises spec.md §8 example 6: resolving a method
// reference on a type with an impl block into an RpcRequest BufferType.
func TestParseTypeRPC(t *testing.T) {
	cs, err := Compile([]byte(`
struct bigType [id:500]{name:string}
impl bigType {
	get(id:uuid) -> Option<self>,
	set(self) -> Result<(), string>
}`))
	require.NoError(t, err)

	bt, err := ParseTypeRPC(false, "bigType.set", cs)
	require.NoError(t, err)
	require.NotNil(t, bt)
	assert.Equal(t, KindRpcRequest, bt.Kind)

	idx, fn := bt.rpcAddrs()
	assert.EqualValues(t, 500, idx)
	assert.EqualValues(t, 1, fn, "set is the second declared method, so its func_idx is 1")

	assert.Equal(t, "bigType.set", bt.GenerateString(cs))
}

func TestParseTypeEmptyAndUnit(t *testing.T) {
	bt, err := ParseType("", nil)
	require.NoError(t, err)
	assert.Nil(t, bt)

	unit, err := ParseType("()", nil)
	require.NoError(t, err)
	require.NotNil(t, unit)
	assert.Equal(t, KindTuple, unit.Kind)
	assert.Empty(t, unit.Generics)
}

func TestParseTypeUnknownCustom(t *testing.T) {
	_, err := ParseType("Nope", nil)
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrUnknownType)
}
