package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArgTreeQueryNestedPath(t *testing.T) {
	colors := ArgTree{Kind: ArgList, List: []ArgTree{
		{Kind: ArgString, Span: Span{0, 3}},
		{Kind: ArgString, Span: Span{3, 6}},
	}}
	meta := NewOMap[ArgTree]()
	meta.Set("colors", colors)
	root := ArgTree{Kind: ArgMap, Map: NewOMap[ArgTree]()}
	root.Map.Set("meta", ArgTree{Kind: ArgMap, Map: meta})

	src := []byte("redblu")
	got, ok := root.Query("meta.colors.0")
	assert.True(t, ok)
	assert.Equal(t, "red", got.Text(src))

	got, ok = root.Query("meta.colors.1")
	assert.True(t, ok)
	assert.Equal(t, "blu", got.Text(src))
}

func TestArgTreeQueryMissingSegmentFails(t *testing.T) {
	root := ArgTree{Kind: ArgMap, Map: NewOMap[ArgTree]()}
	root.Map.Set("a", ArgTreeNull())

	_, ok := root.Query("a.b")
	assert.False(t, ok, "indexing into a non-container leaf must fail")

	_, ok = root.Query("missing")
	assert.False(t, ok)
}

func TestArgTreeQueryListOutOfBounds(t *testing.T) {
	root := ArgTree{Kind: ArgList, List: []ArgTree{ArgTreeBool(true)}}

	_, ok := root.Query("5")
	assert.False(t, ok)

	_, ok = root.Query("-1")
	assert.False(t, ok)
}

func TestArgTreeQueryEmptyPathReturnsSelf(t *testing.T) {
	leaf := ArgTreeBool(true)
	got, ok := leaf.Query("")
	assert.True(t, ok)
	assert.Equal(t, leaf, got)
}
