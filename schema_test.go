package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompilePrimitiveRoundTrip exercises spec.md §8 example 1: a single
// String record with no args beyond its id gets the documented defaults.
func TestCompilePrimitiveRoundTrip(t *testing.T) {
	cs, err := Compile([]byte(`string myType [id: 0]`))
	require.NoError(t, err, "compiling a single primitive record")
	require.Len(t, cs.Schemas, 1)

	s := cs.Schemas[0]
	assert.Equal(t, KindString, s.Kind)
	assert.Equal(t, "myType", cs.Name(0))
	assert.True(t, s.HasID)
	assert.EqualValues(t, 0, s.ID)
	assert.False(t, s.HasDefaultStr)
	assert.Equal(t, CasingNone, s.Casing)
	assert.False(t, s.HasMaxLen)
}

// TestCompileIntegerConstraints exercises spec.md §8 example 2.
func TestCompileIntegerConstraints(t *testing.T) {
	cs, err := Compile([]byte(`i8 myType [id:2, default:20, max:10, min:-50]`))
	require.NoError(t, err)
	require.Len(t, cs.Schemas, 1)

	s := cs.Schemas[0]
	assert.Equal(t, KindInt8, s.Kind)
	assert.True(t, s.HasDefaultInt)
	assert.EqualValues(t, 20, s.DefaultInt)
	assert.True(t, s.HasMin)
	assert.EqualValues(t, -50, s.Min)
	assert.True(t, s.HasMax)
	assert.EqualValues(t, 10, s.Max)
}

func TestCompileMissingNameOrID(t *testing.T) {
	_, err := Compile([]byte(`string [id: 1]`))
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrMissingName)

	_, err = Compile([]byte(`string myType`))
	require.Error(t, err)
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrMissingID)
}

func TestCompileStructFieldsAndOffsets(t *testing.T) {
	cs, err := Compile([]byte(`struct account [id:1]{balance:i64, nickname:string}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("account")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	require.Len(t, s.Children, 2)
	assert.Equal(t, []string{"balance", "nickname"}, s.ChildrenName)

	balance := cs.Schemas[s.Children[0]]
	nickname := cs.Schemas[s.Children[1]]
	assert.EqualValues(t, 0, balance.Offset)
	assert.EqualValues(t, 8, nickname.Offset, "i64 is 8 bytes, so nickname starts right after it")
	assert.EqualValues(t, 12, s.Size, "8-byte i64 + 4-byte string reference")
}

func TestCompileEnumDefaultInference(t *testing.T) {
	cs, err := Compile([]byte(`enum status [id:1]{pending, active(i32), closed}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("status")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	assert.Equal(t, KindEnum, s.Kind, "has a payload-carrying variant, so it cannot simplify to SimpleEnum")
	require.True(t, s.HasDefaultIdx)
	assert.Equal(t, "pending", s.ChildrenName[s.DefaultIdx], "first payload-free variant becomes the implicit default")
}

func TestCompileEnumAllEmptySimplifies(t *testing.T) {
	cs, err := Compile([]byte(`enum color [id:1]{red, green, blue}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("color")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	assert.Equal(t, KindSimpleEnum, s.Kind)
	require.True(t, s.HasDefaultIdx)
	assert.Equal(t, 0, s.DefaultIdx)
}

func TestCompileEnumRequiresDefaultWhenAllVariantsHavePayload(t *testing.T) {
	_, err := Compile([]byte(`enum shape [id:1]{circle(f32), square(f32)}`))
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrInvalidDefault)
}

func TestCompileUnknownTypeReference(t *testing.T) {
	_, err := Compile([]byte(`struct thing [id:1]{field: Nope}`))
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrUnknownType)
	assert.Contains(t, cerr.Path, "Nope")
}

func TestResolveIDAndName(t *testing.T) {
	cs, err := Compile([]byte("string a [id: 0]\nstring b [id: 5]"))
	require.NoError(t, err)

	idx, ok := cs.ResolveID(5)
	require.True(t, ok)
	assert.Equal(t, "b", cs.Name(idx.DataAddr))

	_, ok = cs.ResolveID(3)
	assert.False(t, ok, "id 3 was never declared")
}

func TestInfoBlockProducesUniqueID(t *testing.T) {
	withInfo, err := Compile([]byte(`__info[id:"my-schema", version:"1.0.0"]` + "\n" + `string a [id:0]`))
	require.NoError(t, err)
	assert.NotZero(t, withInfo.UniqueID)

	withoutInfo, err := Compile([]byte(`string a [id:0]`))
	require.NoError(t, err)
	assert.Zero(t, withoutInfo.UniqueID)

	again, err := Compile([]byte(`__info[id:"my-schema", version:"1.0.0"]` + "\n" + `string a [id:0]`))
	require.NoError(t, err)
	assert.Equal(t, withInfo.UniqueID, again.UniqueID, "same id/version must hash identically")
}

func TestCompileJSONFormMirrorsIDL(t *testing.T) {
	idlCS, err := Compile([]byte(`string myType [id: 0]`))
	require.NoError(t, err)

	jsonCS, err := CompileJSON([]byte(`{"type":"string","name":"myType","id":0}`))
	require.NoError(t, err)

	assert.Equal(t, idlCS.Schemas[0].Kind, jsonCS.Schemas[0].Kind)
	assert.Equal(t, idlCS.Name(0), jsonCS.Name(0))
	assert.Equal(t, idlCS.Schemas[0].ID, jsonCS.Schemas[0].ID)
}
