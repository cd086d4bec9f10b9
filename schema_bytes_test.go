package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaBytesRoundTripStruct(t *testing.T) {
	cs, err := Compile([]byte(`struct account [id:1]{balance:i64, nickname:string}`))
	require.NoError(t, err)

	data, err := cs.ToBytes()
	require.NoError(t, err)

	decoded, err := SchemaFromBytes(data)
	require.NoError(t, err)

	require.Len(t, decoded.Schemas, len(cs.Schemas))
	idx, ok := decoded.ResolveName("account")
	require.True(t, ok)
	s := decoded.Schemas[idx.DataAddr]
	assert.Equal(t, KindStruct, s.Kind)
	require.Len(t, s.Children, 2)
	assert.Equal(t, []string{"balance", "nickname"}, s.ChildrenName)
}

func TestSchemaBytesRoundTripWithInfoAndImpl(t *testing.T) {
	cs, err := Compile([]byte(`
__info[id:"acct-schema", version:"2.0.0"]
struct bigType [id:500]{name:string}
impl bigType {
	get(id:uuid) -> Option<self>,
	set(self) -> Result<(), string>
}`))
	require.NoError(t, err)

	data, err := cs.ToBytes()
	require.NoError(t, err)

	decoded, err := SchemaFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, cs.UniqueID, decoded.UniqueID)

	idx, ok := decoded.ResolveName("bigType")
	require.True(t, ok)
	assert.True(t, idx.HasMethods, "round-tripped impl block must still be wired to its target")

	impl := decoded.Schemas[idx.MethodsAddr]
	assert.Equal(t, []string{"get", "set"}, impl.ChildrenName)
}

func TestSchemaBytesRoundTripPreservesBufferTypeParsing(t *testing.T) {
	cs, err := Compile([]byte(`struct myType<X> [id:10]{username:string, password:string}`))
	require.NoError(t, err)

	data, err := cs.ToBytes()
	require.NoError(t, err)
	decoded, err := SchemaFromBytes(data)
	require.NoError(t, err)

	bt, err := ParseType("myType<u32>", decoded)
	require.NoError(t, err)
	require.NotNil(t, bt)
	assert.Equal(t, "myType<u32>", bt.GenerateString(decoded))
}
