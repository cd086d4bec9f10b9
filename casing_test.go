package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCompileStringCasingEnforced guards against a regression of the
// quote-inclusive Span bug: without unquoteSpan, "upper" never matched
// CasingUpper's ArgTree text, so casing enforcement was silently inert.
func TestCompileStringCasingEnforced(t *testing.T) {
	cs, err := Compile([]byte(`string name [id:0, default:"hello", casing:"upper"]`))
	require.NoError(t, err)

	s := cs.Schemas[0]
	assert.Equal(t, CasingUpper, s.Casing)
	require.True(t, s.HasDefaultStr)
	assert.Equal(t, "HELLO", s.DefaultStr.Text(cs.Source))
}

func TestCompileStringCasingLower(t *testing.T) {
	cs, err := Compile([]byte(`string name [id:0, default:"HELLO", casing:"lower"]`))
	require.NoError(t, err)

	s := cs.Schemas[0]
	assert.Equal(t, CasingLower, s.Casing)
	assert.Equal(t, "hello", s.DefaultStr.Text(cs.Source))
}

// TestCompileEnumQuotedDefaultMatches guards the other half of the same
// bug: an explicit quoted default variant name must match its bare
// ChildrenName entry.
func TestCompileEnumQuotedDefaultMatches(t *testing.T) {
	cs, err := Compile([]byte(`enum status [id:1, default:"closed"]{pending, active(i32), closed}`))
	require.NoError(t, err)

	idx, ok := cs.ResolveName("status")
	require.True(t, ok)
	s := cs.Schemas[idx.DataAddr]
	require.True(t, s.HasDefaultIdx)
	assert.Equal(t, "closed", s.ChildrenName[s.DefaultIdx])
}
