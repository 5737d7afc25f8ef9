package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cygnic/src/ir"
)

func TestScopeLookupWalksOuterScopes(t *testing.T) {
	global := ir.NewScope[ir.Type](nil)
	global.Declare("g", ir.Int32)

	inner := ir.NewScope[ir.Type](global)
	inner.Declare("x", ir.Boolean)

	v, ok := inner.Get("x")
	assert.True(t, ok)
	assert.Same(t, ir.Boolean, v)

	v, ok = inner.Get("g")
	assert.True(t, ok)
	assert.Same(t, ir.Int32, v)

	_, ok = global.Get("x")
	assert.False(t, ok, "outer scopes must not see inner declarations")
}

func TestScopeShadowing(t *testing.T) {
	outer := ir.NewScope[ir.Type](nil)
	outer.Declare("x", ir.Int32)

	inner := ir.NewScope[ir.Type](outer)
	inner.Declare("x", ir.Float64)

	v, _ := inner.Get("x")
	assert.Same(t, ir.Float64, v)

	v, _ = outer.Get("x")
	assert.Same(t, ir.Int32, v)
}
