package typecheck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/diag"
	"cygnic/src/frontend"
	"cygnic/src/ir"
	"cygnic/src/typecheck"
)

func parse(t *testing.T, src string) *ir.Namespace {
	t.Helper()
	root, err := frontend.Parse("t.cyg", src)
	require.NoError(t, err)
	return root
}

func TestCheckSimpleMain(t *testing.T) {
	root := parse(t, `module M { func Main(): Int { 0; } }`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)

	m, _ := root.Children.Get("M")
	main, _ := m.Funcs.Get("Main")
	assert.Same(t, ir.Int32, types.Get(main.Body))
}

func TestCheckDivisionOfInts(t *testing.T) {
	root := parse(t, `module M { func Main(): Int { 36 / 9; } }`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)
	m, _ := root.Children.Get("M")
	main, _ := m.Funcs.Get("Main")
	assert.Same(t, ir.Int32, types.Get(main.Body))
}

func TestCheckConditionalUnionType(t *testing.T) {
	root := parse(t, `module M { func Main(): Int { if (1 < 2) { 10.3; } else { false; } 0; } }`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)

	m, _ := root.Children.Get("M")
	main, _ := m.Funcs.Get("Main")
	block := main.Body.(*ir.Block)
	cond := block.Exprs[0].(*ir.Conditional)
	u, ok := types.Get(cond).(*ir.UnionType)
	require.True(t, ok)
	assert.Len(t, u.Members, 2)
}

func TestCheckFunctionSignature(t *testing.T) {
	root := parse(t, `module M { func f(x: Double, y: Double): Double { x + y; } func Main(): Int { 0; } }`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)

	m, _ := root.Children.Get("M")
	f, _ := m.Funcs.Get("f")
	callable, ok := types.Get(f).(*ir.CallableType)
	require.True(t, ok)
	require.Len(t, callable.Args, 2)
	assert.Same(t, ir.Float64, callable.Args[0])
	assert.Same(t, ir.Float64, callable.Args[1])
	assert.Same(t, ir.Float64, callable.Ret)
}

func TestCheckExternalFunctionYieldsCallableType(t *testing.T) {
	root := parse(t, `module M {
		@External(Library="libm", EntryPoint="sin")
		func sin(x: Double): Double;
		func Main(): Int { 0; }
	}`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)
	m, _ := root.Children.Get("M")
	sin, _ := m.Funcs.Get("sin")
	_, ok := types.Get(sin).(*ir.CallableType)
	assert.True(t, ok)
}

func TestCheckOperandTypeMismatchIsTypeError(t *testing.T) {
	root := parse(t, `module M { func Main(): Int { 3 / 3.0; 0; } }`)
	_, err := typecheck.Check(root)
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindType, d.Kind)
}

func TestCheckNestedNamespaceLookup(t *testing.T) {
	root := parse(t, `module A {
		module B {
			var x: Int = 1;
		}
		func Main(): Int { A::B::x; }
	}`)
	_, err := typecheck.Check(root)
	assert.NoError(t, err)
}

func TestCheckNestedNamespaceLookupMissingRaisesScopeError(t *testing.T) {
	root := parse(t, `module A {
		module B {
			var x: Int = 1;
		}
		func Main(): Int { A::C::x; }
	}`)
	_, err := typecheck.Check(root)
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindScope, d.Kind)
}

func TestCheckGlobalInitializerSynthesizesInitializerFunction(t *testing.T) {
	root := parse(t, `module M {
		var g: Int = 41;
		func Main(): Int { g; }
	}`)
	_, err := typecheck.Check(root)
	require.NoError(t, err)

	m, _ := root.Children.Get("M")
	_, ok := m.Funcs.Get(ir.InitializerName("g"))
	assert.True(t, ok, "type-check must append a synthesized <name>#Initializer function")
}

func TestCheckVariableDeclarationInfersType(t *testing.T) {
	root := parse(t, `module M { func Main(): Int { var x = 5; x; } }`)
	types, err := typecheck.Check(root)
	require.NoError(t, err)
	m, _ := root.Children.Get("M")
	main, _ := m.Funcs.Get("Main")
	block := main.Body.(*ir.Block)
	decl := block.Exprs[0].(*ir.VariableDeclaration)
	// The declaration itself types as Empty; the inferred binding type is
	// written back onto the node's Declared field.
	assert.Same(t, ir.Empty, types.Get(decl))
	assert.Same(t, ir.Int32, decl.Declared)
}
