// opcode.go is the opcode table for a register-less stack VM: one byte per
// instruction, multi-byte operands big-endian, jump offsets signed 16-bit.
package bytecode

// Op is a single bytecode instruction opcode.
type Op byte

const (
	PushI32_0 Op = iota
	PushI32_1
	PushI32_1Byte
	PushI32
	PushI64_0
	PushI64_1
	PushI64
	PushF32_0
	PushF32_1
	PushF32
	PushF64_0
	PushF64_1
	PushF64
	PushString

	PushLocalI32
	PushLocalI64
	PushLocalF32
	PushLocalF64
	PushLocalObject

	PopLocalI32
	PopLocalI64
	PopLocalF32
	PopLocalF64

	PushGlobalI32
	PushGlobalI64
	PushGlobalF32
	PushGlobalF64
	PushGlobalObject

	AddI32
	AddI64
	AddF32
	AddF64
	SubI32
	SubI64
	SubF32
	SubF64
	MulI32
	MulI64
	MulF32
	MulF64
	DivI32
	DivI64
	DivF32
	DivF64
	ModI32
	ModI64
	ModF32
	ModF64
	EqI32
	EqI64
	EqF32
	EqF64
	NeI32
	NeI64
	NeF32
	NeF64
	LtI32
	LtI64
	LtF32
	LtF64
	LeI32
	LeI64
	LeF32
	LeF64
	GtI32
	GtI64
	GtF32
	GtF64
	GeI32
	GeI64
	GeF32
	GeF64

	CastI32ToI64
	CastI32ToF32
	CastI32ToF64
	CastI64ToI32
	CastI64ToF32
	CastI64ToF64
	CastF32ToI32
	CastF32ToI64
	CastF32ToF64
	CastF64ToI32
	CastF64ToI64
	CastF64ToF32

	Jump
	JumpIfFalse

	InvokeFunction
	InvokeNativeFunction

	Return
	ReturnI32
	ReturnI64
	ReturnF32
	ReturnF64
	ReturnObject
	Halt
)

// Width tags the opcode family selected by type-width dispatch.
type Width int

const (
	WidthI32 Width = iota
	WidthI64
	WidthF32
	WidthF64
	WidthObject
)

// ArithOp enumerates the Binary operators that lower to width-dispatched
// opcodes (everything except Assign, And and Or).
type ArithOp int

const (
	OpAdd ArithOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

var arithTable = map[ArithOp][4]Op{
	OpAdd: {AddI32, AddI64, AddF32, AddF64},
	OpSub: {SubI32, SubI64, SubF32, SubF64},
	OpMul: {MulI32, MulI64, MulF32, MulF64},
	OpDiv: {DivI32, DivI64, DivF32, DivF64},
	OpMod: {ModI32, ModI64, ModF32, ModF64},
	OpEq:  {EqI32, EqI64, EqF32, EqF64},
	OpNe:  {NeI32, NeI64, NeF32, NeF64},
	OpLt:  {LtI32, LtI64, LtF32, LtF64},
	OpLe:  {LeI32, LeI64, LeF32, LeF64},
	OpGt:  {GtI32, GtI64, GtF32, GtF64},
	OpGe:  {GeI32, GeI64, GeF32, GeF64},
}

// ArithOpcode returns the width-dispatched opcode for op at width w. w must
// be WidthI32, WidthI64, WidthF32 or WidthF64 (Boolean/Char use WidthI32).
func ArithOpcode(op ArithOp, w Width) Op {
	return arithTable[op][w]
}

// castTable maps (from, to) width pairs to the CAST_<from>_TO_<to> opcode
// (the 12 width-pair conversions).
var castTable = map[[2]Width]Op{
	{WidthI32, WidthI64}: CastI32ToI64,
	{WidthI32, WidthF32}: CastI32ToF32,
	{WidthI32, WidthF64}: CastI32ToF64,
	{WidthI64, WidthI32}: CastI64ToI32,
	{WidthI64, WidthF32}: CastI64ToF32,
	{WidthI64, WidthF64}: CastI64ToF64,
	{WidthF32, WidthI32}: CastF32ToI32,
	{WidthF32, WidthI64}: CastF32ToI64,
	{WidthF32, WidthF64}: CastF32ToF64,
	{WidthF64, WidthI32}: CastF64ToI32,
	{WidthF64, WidthI64}: CastF64ToI64,
	{WidthF64, WidthF32}: CastF64ToF32,
}

// CastOpcode returns the CAST_<from>_TO_<to> opcode, or false if from == to
// (identity conversions emit nothing).
func CastOpcode(from, to Width) (Op, bool) {
	if from == to {
		return 0, false
	}
	op, ok := castTable[[2]Width{from, to}]
	return op, ok
}

// ReturnOpcode returns the RETURN_<width> opcode for a lambda's declared
// return width.
func ReturnOpcode(w Width) Op {
	switch w {
	case WidthI32:
		return ReturnI32
	case WidthI64:
		return ReturnI64
	case WidthF32:
		return ReturnF32
	case WidthF64:
		return ReturnF64
	default:
		return ReturnObject
	}
}

// PushLocalOpcode returns the PUSH_LOCAL_<width> opcode.
func PushLocalOpcode(w Width) Op {
	switch w {
	case WidthI32:
		return PushLocalI32
	case WidthI64:
		return PushLocalI64
	case WidthF32:
		return PushLocalF32
	case WidthF64:
		return PushLocalF64
	default:
		return PushLocalObject
	}
}

// PopLocalOpcode returns the POP_LOCAL_<width> opcode. Object-width locals
// (String) are not supported by POP_LOCAL; callers must not request
// WidthObject here.
func PopLocalOpcode(w Width) Op {
	switch w {
	case WidthI32:
		return PopLocalI32
	case WidthI64:
		return PopLocalI64
	case WidthF32:
		return PopLocalF32
	default:
		return PopLocalF64
	}
}

// PushGlobalOpcode returns the PUSH_GLOBAL_<width> opcode.
func PushGlobalOpcode(w Width) Op {
	switch w {
	case WidthI32:
		return PushGlobalI32
	case WidthI64:
		return PushGlobalI64
	case WidthF32:
		return PushGlobalF32
	case WidthF64:
		return PushGlobalF64
	default:
		return PushGlobalObject
	}
}
