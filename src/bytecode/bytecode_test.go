package bytecode_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/bytecode"
)

func TestArithOpcodeDispatchesByWidth(t *testing.T) {
	assert.Equal(t, bytecode.AddI32, bytecode.ArithOpcode(bytecode.OpAdd, bytecode.WidthI32))
	assert.Equal(t, bytecode.AddI64, bytecode.ArithOpcode(bytecode.OpAdd, bytecode.WidthI64))
	assert.Equal(t, bytecode.DivF64, bytecode.ArithOpcode(bytecode.OpDiv, bytecode.WidthF64))
}

func TestCastOpcodeIdentityIsNoOp(t *testing.T) {
	_, ok := bytecode.CastOpcode(bytecode.WidthI32, bytecode.WidthI32)
	assert.False(t, ok, "identity conversions must emit nothing")
}

func TestCastOpcodeCoversAllTwelvePairs(t *testing.T) {
	widths := []bytecode.Width{bytecode.WidthI32, bytecode.WidthI64, bytecode.WidthF32, bytecode.WidthF64}
	n := 0
	for _, from := range widths {
		for _, to := range widths {
			if from == to {
				continue
			}
			_, ok := bytecode.CastOpcode(from, to)
			assert.Truef(t, ok, "missing cast from %v to %v", from, to)
			n++
		}
	}
	assert.Equal(t, 12, n)
}

func TestBufferPatchI16RewritesReservedOperand(t *testing.T) {
	buf := &bytecode.Buffer{}
	buf.WriteOp(bytecode.JumpIfFalse)
	ph := buf.Len()
	buf.WriteI16(0)
	buf.WriteOp(bytecode.Halt)

	target := buf.Len()
	buf.PatchI16(ph, int16(target-(ph+2)))

	got := int16(buf.Bytes()[ph])<<8 | int16(buf.Bytes()[ph+1])
	assert.Equal(t, int16(target-(ph+2)), got)
}

func TestConstantPoolNeverDeduplicates(t *testing.T) {
	var pool bytecode.ConstantPool
	a := pool.Add(bytecode.Constant{Kind: bytecode.ConstantString, Str: "hi"})
	b := pool.Add(bytecode.Constant{Kind: bytecode.ConstantString, Str: "hi"})
	assert.NotEqual(t, a, b, "identical string constants must still get distinct pool entries")
	assert.Equal(t, 2, pool.Len())
}

func TestProgramFinalizeRequiresMain(t *testing.T) {
	p := bytecode.NewProgram()
	p.AddFunction(&bytecode.Function{Name: "helper"})
	assert.Error(t, p.Finalize())

	_, err := p.AddFunction(&bytecode.Function{Name: "Main"})
	require.NoError(t, err)
	assert.NoError(t, p.Finalize())
}

func TestProgramRejectsDuplicateMain(t *testing.T) {
	p := bytecode.NewProgram()
	_, err := p.AddFunction(&bytecode.Function{Name: "Main"})
	require.NoError(t, err)
	_, err = p.AddFunction(&bytecode.Function{Name: "Main"})
	assert.Error(t, err)
}

func TestProgramLibraryIndexDeduplicatesByName(t *testing.T) {
	p := bytecode.NewProgram()
	a := p.LibraryIndex("libm")
	b := p.LibraryIndex("libc")
	c := p.LibraryIndex("libm")
	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, 0, c)
	assert.Equal(t, []string{"libm", "libc"}, p.Libraries)
}
