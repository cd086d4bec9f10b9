package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompileYAMLPreservesFieldOrder guards against the YAML surface
// silently reordering a struct's fields: earlier, CompileYAML decoded
// through a native map[string]any before building Value.Dict, which made
// ChildrenName (and therefore the compiled byte offsets) depend on Go's
// randomized map iteration order. Several fields here, all with names that
// would sort differently than declared, so an order regression would show
// up as a reordered ChildrenName rather than coincidentally matching.
func TestCompileYAMLPreservesFieldOrder(t *testing.T) {
	yamlSrc := []byte(`
type: struct
name: account
id: 1
fields:
  zebra:
    type: string
  balance:
    type: i64
  apple:
    type: string
  nickname:
    type: string
`)

	c := NewCompiler()
	cs, err := c.CompileYAML(yamlSrc)
	require.NoError(t, err)

	idx, ok := cs.ResolveName("account")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]

	assert.Equal(t, []string{"zebra", "balance", "apple", "nickname"}, s.ChildrenName)
	require.Len(t, s.Children, 4)

	zebra := cs.Schemas[s.Children[0]]
	balance := cs.Schemas[s.Children[1]]
	apple := cs.Schemas[s.Children[2]]
	nickname := cs.Schemas[s.Children[3]]

	assert.EqualValues(t, 0, zebra.Offset)
	assert.EqualValues(t, 4, balance.Offset, "zebra is a 4-byte string reference")
	assert.EqualValues(t, 12, apple.Offset, "balance is an 8-byte i64")
	assert.EqualValues(t, 16, nickname.Offset, "apple is a 4-byte string reference")
}

// TestCompileYAMLEnumVariantOrder exercises the same ordering invariant for
// an enum's choices, which schema_json.go also threads through
// ChildrenName/Children in declaration order.
func TestCompileYAMLEnumVariantOrder(t *testing.T) {
	yamlSrc := []byte(`
type: enum
name: status
id: 2
choices:
  - name: zeta
  - name: alpha
  - name: middle
`)

	c := NewCompiler()
	cs, err := c.CompileYAML(yamlSrc)
	require.NoError(t, err)

	idx, ok := cs.ResolveName("status")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	assert.Equal(t, []string{"zeta", "alpha", "middle"}, s.ChildrenName)
}

// TestCompileYAMLNamedCaching exercises the Compiler's named-schema cache
// through the YAML entry point.
func TestCompileYAMLNamedCaching(t *testing.T) {
	c := NewCompiler()
	_, err := c.CompileYAML([]byte("type: struct\nname: account\nid: 1\nfields:\n  balance:\n    type: i64\n"), "account")
	require.NoError(t, err)

	cs, ok := c.GetSchema("account")
	require.True(t, ok)
	_, ok = cs.ResolveName("account")
	assert.True(t, ok)
}

func TestCompileYAMLRejectsMissingType(t *testing.T) {
	c := NewCompiler()
	_, err := c.CompileYAML([]byte("name: account\nid: 1\n"))
	require.Error(t, err)
}
