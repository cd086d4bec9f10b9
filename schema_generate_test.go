package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIDLRoundTripsStruct(t *testing.T) {
	cs, err := Compile([]byte(`struct account [id:1]{balance:i64, nickname:string}`))
	require.NoError(t, err)

	idl, err := cs.GenerateIDL()
	require.NoError(t, err)

	reparsed, err := Compile([]byte(idl))
	require.NoError(t, err, "GenerateIDL output must itself be valid IDL: %s", idl)

	idx, ok := reparsed.ResolveName("account")
	require.True(t, ok)
	s := reparsed.Schemas[idx.DataAddr]
	assert.Equal(t, KindStruct, s.Kind)
	assert.Equal(t, []string{"balance", "nickname"}, s.ChildrenName)
}

func TestGenerateIDLRoundTripsGenericAndImpl(t *testing.T) {
	cs, err := Compile([]byte(`
struct bigType [id:500]{name:string}
impl bigType {
	get(id:uuid) -> Option<self>,
	set(self) -> Result<(), string>
}`))
	require.NoError(t, err)

	idl, err := cs.GenerateIDL()
	require.NoError(t, err)

	reparsed, err := Compile([]byte(idl))
	require.NoError(t, err, "GenerateIDL output must itself be valid IDL: %s", idl)

	bt, err := ParseTypeRPC(false, "bigType.set", reparsed)
	require.NoError(t, err)
	idx, fn := bt.rpcAddrs()
	assert.EqualValues(t, 500, idx)
	assert.EqualValues(t, 1, fn)
}

func TestGenerateIDLRoundTripsArray(t *testing.T) {
	cs, err := Compile([]byte(`[bool; 20] flags [id:3]`))
	require.NoError(t, err)

	idl, err := cs.GenerateIDL()
	require.NoError(t, err)

	reparsed, err := Compile([]byte(idl))
	require.NoError(t, err, "GenerateIDL output must itself be valid IDL: %s", idl)

	idx, ok := reparsed.ResolveName("flags")
	require.True(t, ok)
	assert.Equal(t, KindArray, reparsed.Schemas[idx.DataAddr].Kind)
}

func TestGenerateIDLPreservesUniqueID(t *testing.T) {
	cs, err := Compile([]byte(`
__info[id:"acct-schema", version:"2.0.0"]
string a [id:0]`))
	require.NoError(t, err)

	idl, err := cs.GenerateIDL()
	require.NoError(t, err)

	reparsed, err := Compile([]byte(idl))
	require.NoError(t, err)
	assert.Equal(t, cs.UniqueID, reparsed.UniqueID)
}

func TestToJSONRoundTripsStruct(t *testing.T) {
	cs, err := Compile([]byte(`struct account [id:1]{balance:i64, nickname:string}`))
	require.NoError(t, err)

	val, err := cs.ToJSON()
	require.NoError(t, err)

	reparsed, err := CompileValue(val)
	require.NoError(t, err)

	idx, ok := reparsed.ResolveName("account")
	require.True(t, ok)
	s := reparsed.Schemas[idx.DataAddr]
	assert.Equal(t, KindStruct, s.Kind)
	assert.Equal(t, []string{"balance", "nickname"}, s.ChildrenName)
}

func TestToJSONRoundTripsImpl(t *testing.T) {
	cs, err := Compile([]byte(`
struct bigType [id:500]{name:string}
impl bigType {
	get(id:uuid) -> Option<self>,
	set(self) -> Result<(), string>
}`))
	require.NoError(t, err)

	val, err := cs.ToJSON()
	require.NoError(t, err)

	reparsed, err := CompileValue(val)
	require.NoError(t, err)

	bt, err := ParseTypeRPC(false, "bigType.set", reparsed)
	require.NoError(t, err)
	idx, fn := bt.rpcAddrs()
	assert.EqualValues(t, 500, idx)
	assert.EqualValues(t, 1, fn)
}

func TestToJSONMultipleTopLevelTypesProducesArray(t *testing.T) {
	cs, err := Compile([]byte("string a [id: 0]\nstring b [id: 5]"))
	require.NoError(t, err)

	val, err := cs.ToJSON()
	require.NoError(t, err)

	arr, ok := val.AsArray()
	require.True(t, ok, "more than one top-level type must produce a JSON array")
	assert.Len(t, arr, 2)
}
