package emit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/bytecode"
	"cygnic/src/diag"
	"cygnic/src/emit"
	"cygnic/src/frontend"
	"cygnic/src/namelocate"
	"cygnic/src/typecheck"
)

func compile(t *testing.T, src string) (*bytecode.Program, error) {
	t.Helper()
	root, err := frontend.Parse("t.cyg", src)
	require.NoError(t, err)
	types, err := typecheck.Check(root)
	require.NoError(t, err)
	names, _, err := namelocate.Locate(root)
	require.NoError(t, err)
	return emit.Emit(root, types, names)
}

func TestEmitMainBodyReturningZero(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { 0; } }`)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 1)

	main := prog.Functions[0]
	assert.Equal(t, []byte{byte(bytecode.PushI32_0), byte(bytecode.Halt)}, main.Code)
	assert.Equal(t, 0, prog.EntryPoint)
}

func TestEmitSmallIntLiteralEncodings(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { 1; } }`)
	require.NoError(t, err)
	assert.Equal(t, []byte{byte(bytecode.PushI32_1), byte(bytecode.Halt)}, prog.Functions[0].Code)
}

func TestEmitSignedByteIntLiteral(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { 42; } }`)
	require.NoError(t, err)
	code := prog.Functions[0].Code
	assert.Equal(t, byte(bytecode.PushI32_1Byte), code[0])
	assert.Equal(t, byte(42), code[1])
}

func TestEmitLargeIntLiteralGoesThroughConstantPool(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { 100000; } }`)
	require.NoError(t, err)
	code := prog.Functions[0].Code
	assert.Equal(t, byte(bytecode.PushI32), code[0])
	idx := code[1]
	require.Equal(t, 1, prog.Functions[0].Pool.Len())
	assert.Equal(t, int32(100000), prog.Functions[0].Pool.Entries()[idx].I32)
}

func TestEmitArithmeticUsesOperandWidth(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { 1 + 2; } }`)
	require.NoError(t, err)
	code := prog.Functions[0].Code
	assert.Contains(t, code, byte(bytecode.AddI32))
}

func findOp(code []byte, op bytecode.Op, from int) int {
	for i := from; i < len(code); i++ {
		if code[i] == byte(op) {
			return i
		}
	}
	return -1
}

func TestEmitConditionalBackpatchesBothJumps(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { if (1 < 2) { 10; } else { 20; } 0; } }`)
	require.NoError(t, err)
	code := prog.Functions[0].Code

	jif := findOp(code, bytecode.JumpIfFalse, 0)
	require.NotEqual(t, -1, jif)
	ph1 := jif + 1
	off1 := int16(code[ph1])<<8 | int16(code[ph1+1])
	elseStart := ph1 + 2 + int(off1)

	// elseStart lands right after the unconditional Jump that skips the else
	// branch, so the byte 3 positions back from it is that Jump's opcode.
	assert.Equal(t, byte(bytecode.Jump), code[elseStart-3])

	ph2 := elseStart - 2
	off2 := int16(code[ph2])<<8 | int16(code[ph2+1])
	join := ph2 + 2 + int(off2)
	// The else branch is PUSH_I32_1BYTE 20 (two bytes); the Jump at the end
	// of the then branch must land immediately past it.
	assert.Equal(t, elseStart+2, join)
	// Past the join point: the trailing `0;` then Main's HALT.
	assert.Equal(t, []byte{byte(bytecode.PushI32_0), byte(bytecode.Halt)}, code[join:])
}

func TestEmitWhileBackEdgeSatisfiesJumpRelationship(t *testing.T) {
	prog, err := compile(t, `module M { func Main(): Int { while (1 < 2) { 0; } 0; } }`)
	require.NoError(t, err)
	code := prog.Functions[0].Code

	l1 := 0
	backSite := findOp(code, bytecode.Jump, 0)
	require.NotEqual(t, -1, backSite)
	ph := backSite + 1
	off := int16(code[ph])<<8 | int16(code[ph+1])
	target := ph + 2 + int(off)
	assert.Equal(t, l1, target)
}

func TestEmitAssignIsRejected(t *testing.T) {
	_, err := compile(t, `module M { func Main(): Int { var i: Int = 0; while (i < 10) { i = i + 1; } 0; } }`)
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindEmit, d.Kind)
}

func TestEmitFunctionTerminators(t *testing.T) {
	prog, err := compile(t, `module M {
		func Square(x: Int): Int { x * x; }
		func Main(): Int { Square(3); }
	}`)
	require.NoError(t, err)
	require.Len(t, prog.Functions, 2)

	square, main := prog.Functions[0], prog.Functions[1]
	assert.Equal(t, byte(bytecode.ReturnI32), square.Code[len(square.Code)-1])
	assert.Equal(t, byte(bytecode.Halt), main.Code[len(main.Code)-1])
	assert.Equal(t, 1, prog.EntryPoint)
}

func TestEmitNativeFunctionRegistersLibrary(t *testing.T) {
	prog, err := compile(t, `module M {
		@External(Library="libm", EntryPoint="sin")
		func sin(x: Double): Double;
		func Main(): Int { 0; }
	}`)
	require.NoError(t, err)
	require.Len(t, prog.NativeFunctions, 1)
	nf := prog.NativeFunctions[0]
	assert.Equal(t, "sin", nf.Name)
	assert.Equal(t, "sin", nf.EntryPoint)
	assert.Equal(t, []string{"libm"}, prog.Libraries)
	assert.Equal(t, 0, nf.LibraryIndex)
}

func TestEmitCallInvokesFunctionByPoolIndex(t *testing.T) {
	prog, err := compile(t, `module M {
		func Square(x: Int): Int { x * x; }
		func Main(): Int { Square(3); }
	}`)
	require.NoError(t, err)
	mainFn := prog.Functions[len(prog.Functions)-1]
	assert.Contains(t, mainFn.Code, byte(bytecode.InvokeFunction))
}

func TestEmitNativeFunctionsShareLibraryIndex(t *testing.T) {
	prog, err := compile(t, `module M {
		@External(Library="libm", EntryPoint="sin")
		func sin(x: Double): Double;
		@External(Library="libm", EntryPoint="cos")
		func cos(x: Double): Double;
		func Main(): Int { 0; }
	}`)
	require.NoError(t, err)
	require.Len(t, prog.NativeFunctions, 2)
	assert.Equal(t, []string{"libm"}, prog.Libraries, "a library named twice must appear once in the table")
	assert.Equal(t, 0, prog.NativeFunctions[0].LibraryIndex)
	assert.Equal(t, 0, prog.NativeFunctions[1].LibraryIndex)
}

func TestEmitExternalMissingEntryPointIsAnnotationError(t *testing.T) {
	_, err := compile(t, `module M {
		@External(Library="libm")
		func sin(x: Double): Double;
		func Main(): Int { 0; }
	}`)
	require.Error(t, err)
	d, ok := err.(*diag.Diagnostic)
	require.True(t, ok)
	assert.Equal(t, diag.KindAnnotation, d.Kind)
}

func TestEmitIsDeterministicOverSameInputs(t *testing.T) {
	src := `module M {
		func Square(x: Int): Int { x * x; }
		func Main(): Int { Square(100000); }
	}`
	root, err := frontend.Parse("t.cyg", src)
	require.NoError(t, err)
	types, err := typecheck.Check(root)
	require.NoError(t, err)
	names, _, err := namelocate.Locate(root)
	require.NoError(t, err)

	first, err := emit.Emit(root, types, names)
	require.NoError(t, err)
	second, err := emit.Emit(root, types, names)
	require.NoError(t, err)

	require.Len(t, second.Functions, len(first.Functions))
	for i := range first.Functions {
		assert.Equal(t, first.Functions[i].Code, second.Functions[i].Code)
		assert.Equal(t, first.Functions[i].Pool.Entries(), second.Functions[i].Pool.Entries())
	}
	assert.Equal(t, first.EntryPoint, second.EntryPoint)
}
