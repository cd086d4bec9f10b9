package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileJSONStructAndContainers(t *testing.T) {
	cs, err := CompileJSON([]byte(`{
		"type": "struct",
		"name": "account",
		"id": 1,
		"fields": {
			"balance": {"type": "i64"},
			"tags": {"type": "vec", "of": {"type": "string"}}
		}
	}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("account")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	require.Len(t, s.Children, 2)

	tags := cs.Schemas[s.Children[1]]
	assert.Equal(t, KindVec, tags.Kind)
	assert.True(t, tags.HasOf)
	assert.Equal(t, KindString, cs.Schemas[tags.Of].Kind)
}

// TestCompileJSONImpl exercises the JSON-form "impl" case added to
// compileJSONType, previously only reachable from IDL source.
func TestCompileJSONImpl(t *testing.T) {
	cs, err := CompileJSON([]byte(`[
		{"type": "struct", "name": "bigType", "id": 500, "fields": {"name": {"type": "string"}}},
		{"type": "impl", "target": "bigType", "methods": [
			{"name": "get", "args": [{"type": "uuid"}], "returns": {"type": "option", "of": {"type": "self"}}},
			{"name": "set", "args": [{"type": "self"}], "returns": {"type": "result", "ok": {"type": "tuple", "values": []}, "err": {"type": "string"}}}
		]}
	]`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("bigType")
	require.True(t, ok)
	require.True(t, idx.HasMethods)

	impl := cs.Schemas[idx.MethodsAddr]
	assert.Equal(t, []string{"get", "set"}, impl.ChildrenName)

	bt, err := ParseTypeRPC(false, "bigType.set", cs)
	require.NoError(t, err)
	rpcIdx, fn := bt.rpcAddrs()
	assert.EqualValues(t, 500, rpcIdx)
	assert.EqualValues(t, 1, fn)
}

func TestCompileJSONEnumWithDefault(t *testing.T) {
	cs, err := CompileJSON([]byte(`{
		"type": "enum",
		"name": "status",
		"id": 1,
		"choices": [
			{"name": "pending"},
			{"name": "active", "of": {"type": "i32"}},
			{"name": "closed"}
		],
		"default": "closed"
	}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("status")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	require.True(t, s.HasDefaultIdx)
	assert.Equal(t, "closed", s.ChildrenName[s.DefaultIdx])
}

func TestCompileJSONUnknownTypeErrors(t *testing.T) {
	_, err := CompileJSON([]byte(`{"type": "nope", "name": "x", "id": 0}`))
	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, cerr, ErrUnknownType)
}
