package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/ir"
)

func TestOrderedMapPreservesInsertionOrder(t *testing.T) {
	m := ir.NewOrderedMap[string, int]()
	require.True(t, m.Add("c", 3))
	require.True(t, m.Add("a", 1))
	require.True(t, m.Add("b", 2))

	assert.Equal(t, []string{"c", "a", "b"}, m.Keys())
	assert.Equal(t, []int{3, 1, 2}, m.Items())
	assert.Equal(t, 1, m.At(1))
}

func TestOrderedMapRejectsDuplicateKeys(t *testing.T) {
	m := ir.NewOrderedMap[string, int]()
	require.True(t, m.Add("x", 1))
	assert.False(t, m.Add("x", 2), "re-adding an existing key must be rejected, not overwrite")

	v, ok := m.Get("x")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestOrderedMapIndexOf(t *testing.T) {
	m := ir.NewOrderedMap[string, int]()
	m.Add("a", 10)
	m.Add("b", 20)

	idx, ok := m.IndexOf("b")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = m.IndexOf("missing")
	assert.False(t, ok)
}
