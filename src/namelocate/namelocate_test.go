package namelocate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/diag"
	"cygnic/src/frontend"
	"cygnic/src/ir"
	"cygnic/src/namelocate"
	"cygnic/src/typecheck"
)

func checked(t *testing.T, src string) *ir.Namespace {
	t.Helper()
	root, err := frontend.Parse("t.cyg", src)
	require.NoError(t, err)
	_, err = typecheck.Check(root)
	require.NoError(t, err)
	return root
}

func TestLocateAssignsGlobalSlotsInDeclarationOrder(t *testing.T) {
	root := checked(t, `module M {
		var a: Int = 1;
		var b: Int = 2;
		func Main(): Int { 0; }
	}`)
	names, counts, err := namelocate.Locate(root)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.GlobalVariables)

	m, _ := root.Children.Get("M")
	a, _ := m.Globals.Get("a")
	b, _ := m.Globals.Get("b")

	infoA, ok := names.Get(a, namelocate.GlobalVariable)
	require.True(t, ok)
	assert.Equal(t, 0, infoA.Number)

	infoB, ok := names.Get(b, namelocate.GlobalVariable)
	require.True(t, ok)
	assert.Equal(t, 1, infoB.Number)
}

func TestLocateAssignsFunctionSlotsAndSeparatesNative(t *testing.T) {
	root := checked(t, `module M {
		@External(Library="libm", EntryPoint="sin")
		func sin(x: Double): Double;
		func helper(): Int { 0; }
		func Main(): Int { helper(); }
	}`)
	names, counts, err := namelocate.Locate(root)
	require.NoError(t, err)
	assert.Equal(t, 1, counts.NativeFunctions)
	assert.Equal(t, 2, counts.Functions)

	m, _ := root.Children.Get("M")
	sin, _ := m.Funcs.Get("sin")
	info, ok := names.Get(sin, namelocate.NativeFunction)
	require.True(t, ok)
	assert.Equal(t, 0, info.Number)
}

func TestLocateCountsFunctionVariablesIncludingParams(t *testing.T) {
	root := checked(t, `module M {
		func f(x: Int): Int {
			var y: Int = x;
			var z: Int = y;
			z;
		}
		func Main(): Int { 0; }
	}`)
	names, _, err := namelocate.Locate(root)
	require.NoError(t, err)

	m, _ := root.Children.Get("M")
	f, _ := m.Funcs.Get("f")
	assert.Equal(t, 3, names.FunctionVariableCount(f))
}

func TestLocateNamespacedParameterCopiesTargetDescriptor(t *testing.T) {
	root := checked(t, `module A {
		module B {
			var x: Int = 1;
		}
		func Main(): Int { A::B::x; }
	}`)
	names, _, err := namelocate.Locate(root)
	require.NoError(t, err)

	a, _ := root.Children.Get("A")
	b, _ := a.Children.Get("B")
	x, _ := b.Globals.Get("x")
	xInfo, ok := names.Get(x, namelocate.GlobalVariable)
	require.True(t, ok)

	main, _ := a.Funcs.Get("Main")
	block := main.Body.(*ir.Block)
	ref := block.Exprs[0].(*ir.Parameter)
	refInfo, ok := names.Get(ref, namelocate.GlobalVariable)
	require.True(t, ok)
	assert.Equal(t, xInfo.Number, refInfo.Number)
}

func TestLocateCountsSynthesizedInitializerFunctions(t *testing.T) {
	root := checked(t, `module M {
		var a: Int = 1;
		func Main(): Int { a; }
	}`)
	_, counts, err := namelocate.Locate(root)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Functions, "Main plus the synthesized a#Initializer")
}

func TestLocateUndefinedIdentifierIsScopeError(t *testing.T) {
	root, err := frontend.Parse("t.cyg", `module M { func Main(): Int { undefined_name; } }`)
	require.NoError(t, err)
	_, _, err = namelocate.Locate(root)
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindScope, d.Kind)
}
