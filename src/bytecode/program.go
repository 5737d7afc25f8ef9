// program.go models the logical output of the emit pass: functions, native
// functions, a constant pool per function, a program-wide native-library
// table, and the entry-point index. Container serialization (the concrete
// concatenation order of these tables into a final artifact) is kept
// separate from this bookkeeping. AddFunction rejects a duplicate Main as
// functions arrive, and Finalize below only checks that a Main exists;
// every serializer needs both regardless of on-disk layout.
package bytecode

import "fmt"

// ConstantKind tags a ConstantPool entry's payload.
type ConstantKind int

const (
	ConstantI32 ConstantKind = iota
	ConstantI64
	ConstantF32
	ConstantF64
	ConstantString
	ConstantFunction
	ConstantNativeFunction
)

// Constant is one entry of a function's private constant pool.
type Constant struct {
	Kind ConstantKind

	I32 int32
	I64 int64
	F32 float32
	F64 float64
	Str string
	Idx int // function or native-function index, for ConstantFunction/ConstantNativeFunction.
}

// ConstantPool is a per-function, append-ordered table of constants
// referenced by 1-byte indices in that function's byte stream. String
// constants are never deduplicated; this core takes the simpler,
// always-append behavior explicitly (see DESIGN.md).
type ConstantPool struct {
	entries []Constant
}

// Add appends c and returns its pool index. A pool cannot exceed 256
// entries (a 1-byte index cannot address more); this is an emit-time
// limitation and is checked by callers before relying on the returned index
// fitting a byte operand.
func (p *ConstantPool) Add(c Constant) int {
	p.entries = append(p.entries, c)
	return len(p.entries) - 1
}

// Len returns the number of entries in the pool.
func (p *ConstantPool) Len() int { return len(p.entries) }

// Entries returns the pool's entries in insertion order.
func (p *ConstantPool) Entries() []Constant { return p.entries }

// Function is the emitted record for one non-native lambda.
type Function struct {
	Name      string
	ArgCount  int
	NumLocals int // total locals minus parameters.
	Pool      ConstantPool
	Code      []byte
}

// NativeFunction is the emitted record for one @External lambda.
type NativeFunction struct {
	Name         string
	EntryPoint   string
	ArgCount     int
	LibraryIndex int
}

// Program is the emit pass's logical output: the function table, the
// native-function table, the program-wide native library table, and the
// entry-point index.
type Program struct {
	Functions       []*Function
	NativeFunctions []*NativeFunction
	Libraries       []string // order-preserving native-library table.
	libraryIndex    map[string]int
	EntryPoint      int
	mainSeen        bool
}

// NewProgram returns an empty Program ready to accumulate functions.
func NewProgram() *Program {
	return &Program{EntryPoint: -1, libraryIndex: make(map[string]int)}
}

// AddFunction appends fn to the function table and, if its name is "Main",
// records it as the entry point. A second "Main" is a fatal error.
func (p *Program) AddFunction(fn *Function) (int, error) {
	idx := len(p.Functions)
	p.Functions = append(p.Functions, fn)
	if fn.Name == "Main" {
		if p.mainSeen {
			return 0, fmt.Errorf("duplicate function named Main")
		}
		p.mainSeen = true
		p.EntryPoint = idx
	}
	return idx, nil
}

// AddNativeFunction appends fn to the native-function table.
func (p *Program) AddNativeFunction(fn *NativeFunction) int {
	idx := len(p.NativeFunctions)
	p.NativeFunctions = append(p.NativeFunctions, fn)
	return idx
}

// LibraryIndex returns the index of name in the program-wide library table,
// appending a new entry if name has not been seen before.
func (p *Program) LibraryIndex(name string) int {
	if i, ok := p.libraryIndex[name]; ok {
		return i
	}
	i := len(p.Libraries)
	p.Libraries = append(p.Libraries, name)
	p.libraryIndex[name] = i
	return i
}

// Finalize checks the one whole-program invariant the emitter cannot verify
// incrementally: that some function is named Main.
func (p *Program) Finalize() error {
	if p.EntryPoint < 0 {
		return fmt.Errorf("program has no Main function")
	}
	return nil
}
