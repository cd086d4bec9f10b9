package noproto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOMapPreservesInsertionOrder(t *testing.T) {
	m := NewOMap[int]()
	m.Set("z", 1)
	m.Set("a", 2)
	m.Set("m", 3)

	assert.Equal(t, []string{"z", "a", "m"}, m.IterKeys())
	assert.Equal(t, 3, m.Len())

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = m.Get("missing")
	assert.False(t, ok)
}

func TestOMapSetOverwritesWithoutReordering(t *testing.T) {
	m := NewOMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("a", 99)

	assert.Equal(t, []string{"a", "b"}, m.IterKeys())
	v, _ := m.Get("a")
	assert.Equal(t, 99, v)
}

func TestOMapDelete(t *testing.T) {
	m := NewOMap[int]()
	m.Set("a", 1)
	m.Set("b", 2)

	require.True(t, m.Delete("a"))
	assert.False(t, m.Has("a"))
	assert.Equal(t, 1, m.Len())
	assert.False(t, m.Delete("a"), "deleting an already-absent key reports false")
}
