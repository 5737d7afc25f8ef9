// serialize.go is a concrete container writer, giving cygnic something
// runnable end to end behind its CLI. It writes a fixed concatenation
// order: global count, functions, native libraries, native functions,
// entry point.
package bytecode

import (
	"encoding/binary"
	"math"
)

// Write serializes p into a single byte artifact in a fixed concatenation
// order. Global-variable and string tables are owned by Program's caller
// (the compiler package tracks global count and per-function string
// constants live in each Function's own pool), so this writer only
// concatenates what Program itself carries: functions, libraries, native
// functions, and the entry-point index.
func Write(p *Program, globalCount int) []byte {
	var out []byte
	out = appendU32(out, uint32(globalCount))

	out = appendU32(out, uint32(len(p.Functions)))
	for _, fn := range p.Functions {
		out = appendString(out, fn.Name)
		out = appendU32(out, uint32(fn.ArgCount))
		out = appendU32(out, uint32(fn.NumLocals))
		out = appendU32(out, uint32(fn.Pool.Len()))
		for _, c := range fn.Pool.Entries() {
			out = append(out, byte(c.Kind))
			switch c.Kind {
			case ConstantI32:
				out = appendU32(out, uint32(c.I32))
			case ConstantI64:
				out = appendU64(out, uint64(c.I64))
			case ConstantF32:
				out = appendU32(out, math.Float32bits(c.F32))
			case ConstantF64:
				out = appendU64(out, math.Float64bits(c.F64))
			case ConstantString:
				out = appendString(out, c.Str)
			case ConstantFunction, ConstantNativeFunction:
				out = appendU32(out, uint32(c.Idx))
			}
		}
		out = appendU32(out, uint32(len(fn.Code)))
		out = append(out, fn.Code...)
	}

	out = appendU32(out, uint32(len(p.Libraries)))
	for _, lib := range p.Libraries {
		out = appendString(out, lib)
	}

	out = appendU32(out, uint32(len(p.NativeFunctions)))
	for _, nf := range p.NativeFunctions {
		out = appendString(out, nf.Name)
		out = appendString(out, nf.EntryPoint)
		out = appendU32(out, uint32(nf.ArgCount))
		out = appendU32(out, uint32(nf.LibraryIndex))
	}

	out = appendU32(out, uint32(p.EntryPoint))
	return out
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendString(b []byte, s string) []byte {
	b = appendU32(b, uint32(len(s)))
	return append(b, s...)
}
