package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cygnic/src/compiler"
)

func TestCompileEndToEndSucceeds(t *testing.T) {
	src := `module M {
		var counter: Int = 0;
		func Square(x: Int): Int { x * x; }
		func Main(): Int { Square(counter); }
	}`
	res, err := compiler.Compile(compiler.Options{InputPath: "t.cyg", Source: src})
	require.NoError(t, err)
	assert.Equal(t, 1, res.GlobalCount)
	assert.GreaterOrEqual(t, res.FunctionCount, 2)
	// Square is emitted first, so Main lands at index 1.
	assert.Equal(t, 1, res.Program.EntryPoint)
	assert.Equal(t, "Main", res.Program.Functions[res.Program.EntryPoint].Name)
}

func TestCompileStopsAtFirstStageFailure(t *testing.T) {
	_, err := compiler.Compile(compiler.Options{InputPath: "t.cyg", Source: `module M { func Main(): Int { 1 + }`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse:")
}

func TestCompileReportsTypeErrorsBeforeEmission(t *testing.T) {
	_, err := compiler.Compile(compiler.Options{InputPath: "t.cyg", Source: `module M { func Main(): Int { 3 / 3.0; } }`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "type-check:")
}

func TestCompileRequiresMainFunction(t *testing.T) {
	_, err := compiler.Compile(compiler.Options{InputPath: "t.cyg", Source: `module M { func helper(): Int { 0; } }`})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "emit:")
}

func TestWriteArtifactProducesNonEmptyBytes(t *testing.T) {
	res, err := compiler.Compile(compiler.Options{InputPath: "t.cyg", Source: `module M { func Main(): Int { 0; } }`})
	require.NoError(t, err)
	out := compiler.WriteArtifact(res)
	assert.NotEmpty(t, out)
}
