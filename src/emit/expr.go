// expr.go emits each expression variant: constant encoding, variable
// access, Binary, Unary, Conditional, WhileLoop, Call, Default. It is the
// largest single file in the package because every expression kind lands
// here.
package emit

import (
	"cygnic/src/bytecode"
	"cygnic/src/ir"
	"cygnic/src/namelocate"
)

func (e *Emitter) emitExpr(fc *funcCtx, expr ir.Expr) error {
	switch n := expr.(type) {
	case *ir.Constant:
		return e.emitConstant(fc, n)
	case *ir.Default:
		return e.emitDefault(fc, n)
	case *ir.Parameter:
		return e.emitParameter(fc, n)
	case *ir.VariableDeclaration:
		return e.emitVariableDeclaration(fc, n)
	case *ir.Block:
		return e.emitBlock(fc, n)
	case *ir.Conditional:
		return e.emitConditional(fc, n)
	case *ir.WhileLoop:
		return e.emitWhile(fc, n)
	case *ir.Unary:
		return e.emitUnary(fc, n)
	case *ir.Binary:
		return e.emitBinary(fc, n)
	case *ir.Call:
		return e.emitCall(fc, n)
	case *ir.Lambda:
		return emitErr(n.Pos(), "emitExpr", "nested lambda emission is not supported")
	default:
		return emitErr(expr.Pos(), "emitExpr", "unknown expression node %T", expr)
	}
}

// emitConstant encodes integer/float/string literals: 0 and 1 of every
// numeric width get dedicated opcodes, other Int32-width values (including
// Boolean and Char) in (-128, 128) use PUSH_I32_1BYTE; everything else, and
// all strings, go through the function's constant pool.
func (e *Emitter) emitConstant(fc *funcCtx, n *ir.Constant) error {
	switch n.Value.Code {
	case ir.TypeCodeInt32:
		return emitIntLiteral(fc, int64(n.Value.Int32()), bytecode.PushI32_0, bytecode.PushI32_1, bytecode.PushI32_1Byte, bytecode.PushI32, bytecode.ConstantI32, func(v int64) bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantI32, I32: int32(v)}
		})
	case ir.TypeCodeInt64:
		return emitIntLiteral(fc, n.Value.Int64(), bytecode.PushI64_0, bytecode.PushI64_1, 0, bytecode.PushI64, bytecode.ConstantI64, func(v int64) bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantI64, I64: v}
		})
	case ir.TypeCodeFloat32:
		return emitFloatLiteral(fc, float64(n.Value.Float32()), bytecode.PushF32_0, bytecode.PushF32_1, bytecode.PushF32, func() bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantF32, F32: n.Value.Float32()}
		})
	case ir.TypeCodeFloat64:
		return emitFloatLiteral(fc, n.Value.Float64(), bytecode.PushF64_0, bytecode.PushF64_1, bytecode.PushF64, func() bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantF64, F64: n.Value.Float64()}
		})
	case ir.TypeCodeBoolean:
		v := int64(0)
		if n.Value.Bool() {
			v = 1
		}
		return emitIntLiteral(fc, v, bytecode.PushI32_0, bytecode.PushI32_1, bytecode.PushI32_1Byte, bytecode.PushI32, bytecode.ConstantI32, func(v int64) bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantI32, I32: int32(v)}
		})
	case ir.TypeCodeChar:
		return emitIntLiteral(fc, int64(n.Value.Char()), bytecode.PushI32_0, bytecode.PushI32_1, bytecode.PushI32_1Byte, bytecode.PushI32, bytecode.ConstantI32, func(v int64) bytecode.Constant {
			return bytecode.Constant{Kind: bytecode.ConstantI32, I32: int32(v)}
		})
	case ir.TypeCodeString:
		// Strings are never deduplicated in the per-function pool (see
		// DESIGN.md for the chosen default).
		idx := fc.pool.Add(bytecode.Constant{Kind: bytecode.ConstantString, Str: n.Value.String()})
		if err := requireByteIndex(n.Pos(), idx); err != nil {
			return err
		}
		fc.buf.WriteOp(bytecode.PushString)
		fc.buf.WriteU8(uint8(idx))
		return nil
	default:
		return emitErr(n.Pos(), "emitConstant", "constant has unsupported type code %v", n.Value.Code)
	}
}

func emitIntLiteral(fc *funcCtx, v int64, op0, op1, op1Byte, opPool bytecode.Op, kind bytecode.ConstantKind, build func(int64) bytecode.Constant) error {
	switch {
	case v == 0:
		fc.buf.WriteOp(op0)
	case v == 1:
		fc.buf.WriteOp(op1)
	case op1Byte != 0 && v > -128 && v < 128:
		fc.buf.WriteOp(op1Byte)
		fc.buf.WriteU8(byte(int8(v)))
	default:
		idx := fc.pool.Add(build(v))
		if err := requireByteIndex(ir.Position{}, idx); err != nil {
			return err
		}
		fc.buf.WriteOp(opPool)
		fc.buf.WriteU8(uint8(idx))
	}
	return nil
}

func emitFloatLiteral(fc *funcCtx, v float64, op0, op1, opPool bytecode.Op, build func() bytecode.Constant) error {
	switch v {
	case 0:
		fc.buf.WriteOp(op0)
	case 1:
		fc.buf.WriteOp(op1)
	default:
		idx := fc.pool.Add(build())
		if err := requireByteIndex(ir.Position{}, idx); err != nil {
			return err
		}
		fc.buf.WriteOp(opPool)
		fc.buf.WriteU8(uint8(idx))
	}
	return nil
}

func requireByteIndex(pos ir.Position, idx int) error {
	if idx > 255 {
		return emitErr(pos, "requireByteIndex", "constant pool index %d exceeds 1-byte operand range", idx)
	}
	return nil
}

// emitDefault emits PUSH_*_0 of the carried type (Empty/Boolean/Char/Int32
// share PUSH_I32_0).
func (e *Emitter) emitDefault(fc *funcCtx, n *ir.Default) error {
	switch widthOf(n.T) {
	case bytecode.WidthI64:
		fc.buf.WriteOp(bytecode.PushI64_0)
	case bytecode.WidthF32:
		fc.buf.WriteOp(bytecode.PushF32_0)
	case bytecode.WidthF64:
		fc.buf.WriteOp(bytecode.PushF64_0)
	case bytecode.WidthObject:
		idx := fc.pool.Add(bytecode.Constant{Kind: bytecode.ConstantString, Str: ""})
		if err := requireByteIndex(n.Pos(), idx); err != nil {
			return err
		}
		fc.buf.WriteOp(bytecode.PushString)
		fc.buf.WriteU8(uint8(idx))
	default:
		fc.buf.WriteOp(bytecode.PushI32_0)
	}
	return nil
}

// emitParameter emits a variable-access use site:
// PUSH_LOCAL_<width>/PUSH_GLOBAL_<width> by the occurrence's recorded
// NameInfo kind, String using the _OBJECT variant. Function/NativeFunction
// references are emitted only as a Call's callee (handled in emitCall); the
// type checker accepts a bare function name as a Callable-typed expression,
// and such a reference is rejected here with an EmitError.
func (e *Emitter) emitParameter(fc *funcCtx, n *ir.Parameter) error {
	w := widthOf(e.typeOf(n))
	info, kind, ok := e.lookupParam(n)
	if !ok {
		return emitErr(n.Pos(), "emitParameter", "identifier %q has no recorded location", n.Name)
	}
	switch kind {
	case namelocate.FunctionVariable:
		fc.buf.WriteOp(bytecode.PushLocalOpcode(w))
		fc.buf.WriteU8(uint8(info.Number))
		return nil
	case namelocate.GlobalVariable:
		fc.buf.WriteOp(bytecode.PushGlobalOpcode(w))
		fc.buf.WriteU8(uint8(info.Number))
		return nil
	default:
		return emitErr(n.Pos(), "emitParameter", "identifier %q does not name a variable", n.Name)
	}
}

func (e *Emitter) lookupParam(n *ir.Parameter) (namelocate.NameInfo, namelocate.Kind, bool) {
	for _, k := range []namelocate.Kind{namelocate.FunctionVariable, namelocate.GlobalVariable, namelocate.Function, namelocate.NativeFunction} {
		if info, ok := e.Names.Get(n, k); ok {
			return info, k, true
		}
	}
	return namelocate.NameInfo{}, 0, false
}

// emitVariableDeclaration emits the initializer, then POP_LOCAL_<width>
// into the declared slot.
func (e *Emitter) emitVariableDeclaration(fc *funcCtx, n *ir.VariableDeclaration) error {
	if err := e.emitExpr(fc, n.Init); err != nil {
		return err
	}
	info, ok := e.Names.Get(n, namelocate.FunctionVariable)
	if !ok {
		return emitErr(n.Pos(), "emitVariableDeclaration", "variable %q has no recorded slot", n.Name)
	}
	w := widthOf(n.Declared)
	if w == bytecode.WidthObject {
		return emitErr(n.Pos(), "emitVariableDeclaration", "local variable %q has unsupported type %s for POP_LOCAL", n.Name, n.Declared)
	}
	fc.buf.WriteOp(bytecode.PopLocalOpcode(w))
	fc.buf.WriteU8(uint8(info.Number))
	return nil
}

func (e *Emitter) emitBlock(fc *funcCtx, n *ir.Block) error {
	for _, sub := range n.Exprs {
		if err := e.emitExpr(fc, sub); err != nil {
			return err
		}
	}
	return nil
}

// emitConditional emits the back-patched if/else layout.
func (e *Emitter) emitConditional(fc *funcCtx, n *ir.Conditional) error {
	if err := e.emitExpr(fc, n.Test); err != nil {
		return err
	}
	fc.buf.WriteOp(bytecode.JumpIfFalse)
	ph1 := fc.buf.Len()
	fc.buf.WriteI16(0)

	if err := e.emitExpr(fc, n.Then); err != nil {
		return err
	}
	fc.buf.WriteOp(bytecode.Jump)
	ph2 := fc.buf.Len()
	fc.buf.WriteI16(0)

	p1 := fc.buf.Len()
	fc.buf.PatchI16(ph1, int16(p1-(ph1+2)))

	if err := e.emitExpr(fc, n.Else); err != nil {
		return err
	}
	p2 := fc.buf.Len()
	fc.buf.PatchI16(ph2, int16(p2-(ph2+2)))
	return nil
}

// emitWhile emits the back-patched loop layout: condition, conditional
// exit, body, back-edge jump, then patch the exit.
//
// The exit patch uses ph (JUMP_IF_FALSE's own operand position), not l1, so
// that every back-patched jump in this package satisfies the same
// jump_site_pc+2+off16==target_pc relationship (see DESIGN.md).
func (e *Emitter) emitWhile(fc *funcCtx, n *ir.WhileLoop) error {
	l1 := fc.buf.Len()
	if err := e.emitExpr(fc, n.Cond); err != nil {
		return err
	}
	fc.buf.WriteOp(bytecode.JumpIfFalse)
	ph := fc.buf.Len()
	fc.buf.WriteI16(0)

	if err := e.emitExpr(fc, n.Body); err != nil {
		return err
	}
	fc.buf.WriteOp(bytecode.Jump)
	backSite := fc.buf.Len()
	fc.buf.WriteI16(int16(l1 - (backSite + 2)))

	exit := fc.buf.Len()
	fc.buf.PatchI16(ph, int16(exit-(ph+2)))
	return nil
}

// emitUnary emits Halt as operand then HALT; Convert as operand then a
// width-pair CAST opcode (identity conversions emit nothing). Not and
// unary +/- are not yet supported by this emitter even though the parser
// and type checker both accept them, a known limitation (see DESIGN.md,
// alongside the analogous Assign case below).
func (e *Emitter) emitUnary(fc *funcCtx, n *ir.Unary) error {
	switch n.Op {
	case ir.Halt:
		if err := e.emitExpr(fc, n.Operand); err != nil {
			return err
		}
		fc.buf.WriteOp(bytecode.Halt)
		return nil
	case ir.Convert:
		if err := e.emitExpr(fc, n.Operand); err != nil {
			return err
		}
		from := widthOf(e.typeOf(n.Operand))
		to := widthOf(n.Target)
		if op, ok := bytecode.CastOpcode(from, to); ok {
			fc.buf.WriteOp(op)
		}
		return nil
	case ir.Not:
		return emitErr(n.Pos(), "emitUnary", "operator 'not' is not supported by the emitter")
	case ir.UnaryPlus, ir.UnaryMinus:
		return emitErr(n.Pos(), "emitUnary", "unary %s is not supported by the emitter", n.Op)
	default:
		return emitErr(n.Pos(), "emitUnary", "unknown unary operator %v", n.Op)
	}
}

// emitBinary emits left, emits right, then emits the operator opcode chosen
// by the common operand type (read from the type map on the left operand).
// Assign is currently unsupported in emission and raises a fatal error.
func (e *Emitter) emitBinary(fc *funcCtx, n *ir.Binary) error {
	if n.Op == ir.Assign {
		return emitErr(n.Pos(), "emitBinary", "assignment is not supported by the emitter")
	}

	if err := e.emitExpr(fc, n.Left); err != nil {
		return err
	}
	if err := e.emitExpr(fc, n.Right); err != nil {
		return err
	}

	w := widthOf(e.typeOf(n.Left))
	switch n.Op {
	case ir.Add:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpAdd, w))
	case ir.Sub:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpSub, w))
	case ir.Mul:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpMul, w))
	case ir.Div:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpDiv, w))
	case ir.Mod:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpMod, w))
	case ir.Eq:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpEq, w))
	case ir.Ne:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpNe, w))
	case ir.Lt:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpLt, w))
	case ir.Le:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpLe, w))
	case ir.Gt:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpGt, w))
	case ir.Ge:
		fc.buf.WriteOp(bytecode.ArithOpcode(bytecode.OpGe, w))
	case ir.And, ir.Or:
		return emitErr(n.Pos(), "emitBinary", "operator %s is not supported by the emitter", n.Op)
	default:
		return emitErr(n.Pos(), "emitBinary", "unknown binary operator %v", n.Op)
	}
	return nil
}

// emitCall emits each argument, then INVOKE_FUNCTION/INVOKE_NATIVE_FUNCTION
// with a constant-pool entry recording the callee's index. The callee must
// currently be a *Parameter (a fatal error otherwise).
func (e *Emitter) emitCall(fc *funcCtx, n *ir.Call) error {
	callee, ok := n.Fn.(*ir.Parameter)
	if !ok {
		return emitErr(n.Pos(), "emitCall", "call target must be a plain identifier")
	}
	for _, a := range n.Args {
		if err := e.emitExpr(fc, a); err != nil {
			return err
		}
	}

	if info, ok := e.Names.Get(callee, namelocate.Function); ok {
		idx := fc.pool.Add(bytecode.Constant{Kind: bytecode.ConstantFunction, Idx: info.Number})
		if err := requireByteIndex(n.Pos(), idx); err != nil {
			return err
		}
		fc.buf.WriteOp(bytecode.InvokeFunction)
		fc.buf.WriteU8(uint8(idx))
		return nil
	}
	if info, ok := e.Names.Get(callee, namelocate.NativeFunction); ok {
		idx := fc.pool.Add(bytecode.Constant{Kind: bytecode.ConstantNativeFunction, Idx: info.Number})
		if err := requireByteIndex(n.Pos(), idx); err != nil {
			return err
		}
		fc.buf.WriteOp(bytecode.InvokeNativeFunction)
		fc.buf.WriteU8(uint8(idx))
		return nil
	}
	return emitErr(n.Pos(), "emitCall", "callee %q does not name a function", callee.Name)
}
