// Package emit implements the bytecode emitter: it walks each function body
// using the type map and name-info map built by the two prior passes, emits
// opcodes into a per-function bytecode.Buffer, builds a per-function
// constant pool, accumulates a program-wide native-library table, and
// identifies the Main entry point.
//
// Both emitConditional and emitWhile walk an already-annotated tree picking
// width-specific instructions from a symbol table's recorded type, and both
// use the "emit jump with a placeholder offset, remember the byte position,
// backpatch once the target is known" technique for JUMP_IF_FALSE/JUMP (see
// DESIGN.md for the back-patch offset convention).
package emit

import (
	"cygnic/src/bytecode"
	"cygnic/src/diag"
	"cygnic/src/ir"
	"cygnic/src/namelocate"
	"cygnic/src/typecheck"
)

// Emitter walks a program's namespace tree producing a bytecode.Program.
type Emitter struct {
	Types typecheck.TypeMap
	Names namelocate.NameMap
	Prog  *bytecode.Program
}

// NewEmitter returns an Emitter over the given annotation maps, with a
// fresh, empty Program.
func NewEmitter(types typecheck.TypeMap, names namelocate.NameMap) *Emitter {
	return &Emitter{Types: types, Names: names, Prog: bytecode.NewProgram()}
}

// Emit runs the emit pass over root and returns the finished Program.
// Finalize (Main-presence check) is run as the last step.
func Emit(root *ir.Namespace, types typecheck.TypeMap, names namelocate.NameMap) (*bytecode.Program, error) {
	e := NewEmitter(types, names)
	if err := e.emitNamespace(root); err != nil {
		return nil, err
	}
	if err := e.Prog.Finalize(); err != nil {
		return nil, emitErr(ir.Position{}, "Emit", "%s", err)
	}
	return e.Prog, nil
}

func (e *Emitter) emitNamespace(ns *ir.Namespace) error {
	for _, f := range ns.Funcs.Items() {
		if f.IsExternal() {
			nf, err := e.emitNativeFunction(f)
			if err != nil {
				return err
			}
			e.Prog.AddNativeFunction(nf)
			continue
		}
		fn, err := e.emitFunction(f)
		if err != nil {
			return err
		}
		if _, err := e.Prog.AddFunction(fn); err != nil {
			return emitErr(f.Pos(), "emitNamespace", "%s", err)
		}
	}
	for _, child := range ns.Children.Items() {
		if err := e.emitNamespace(child); err != nil {
			return err
		}
	}
	return nil
}

// emitNativeFunction reads @External(Library, EntryPoint); both keys are
// required exactly once, and either order is accepted since Annotation.Arg
// looks keys up by name rather than position.
func (e *Emitter) emitNativeFunction(f *ir.Lambda) (*bytecode.NativeFunction, error) {
	ann, ok := ir.FindAnnotation(f.Annotations, ir.ExternalAnnotationName)
	if !ok {
		return nil, annotationErr(f.Pos(), "emitNativeFunction", "function %q is native but carries no @External annotation", f.Name)
	}
	library, ok := ann.Arg("Library")
	if !ok {
		return nil, annotationErr(f.Pos(), "emitNativeFunction", "@External on %q missing required Library argument", f.Name)
	}
	entryPoint, ok := ann.Arg("EntryPoint")
	if !ok {
		return nil, annotationErr(f.Pos(), "emitNativeFunction", "@External on %q missing required EntryPoint argument", f.Name)
	}
	if countArg(ann, "Library") > 1 {
		return nil, annotationErr(f.Pos(), "emitNativeFunction", "@External on %q duplicates Library", f.Name)
	}
	if countArg(ann, "EntryPoint") > 1 {
		return nil, annotationErr(f.Pos(), "emitNativeFunction", "@External on %q duplicates EntryPoint", f.Name)
	}

	return &bytecode.NativeFunction{
		Name:         f.Name,
		EntryPoint:   entryPoint,
		ArgCount:     len(f.Params),
		LibraryIndex: e.Prog.LibraryIndex(library),
	}, nil
}

func countArg(a ir.Annotation, name string) int {
	n := 0
	for _, arg := range a.Args {
		if arg.Name == name {
			n++
		}
	}
	return n
}

// emitFunction emits a non-native Lambda's body, then a HALT (if the
// function is Main) or a RETURN_<width> matching the declared return type.
func (e *Emitter) emitFunction(f *ir.Lambda) (*bytecode.Function, error) {
	fc := &funcCtx{buf: &bytecode.Buffer{}}
	if err := e.emitExpr(fc, f.Body); err != nil {
		return nil, err
	}

	if f.Name == "Main" {
		fc.buf.WriteOp(bytecode.Halt)
	} else {
		w := widthOf(f.ReturnType)
		if f.ReturnType.Kind() == ir.KindEmpty {
			fc.buf.WriteOp(bytecode.Return)
		} else {
			fc.buf.WriteOp(bytecode.ReturnOpcode(w))
		}
	}

	total := e.Names.FunctionVariableCount(f)
	return &bytecode.Function{
		Name:      f.Name,
		ArgCount:  len(f.Params),
		NumLocals: total - len(f.Params),
		Pool:      fc.pool,
		Code:      fc.buf.Bytes(),
	}, nil
}

// funcCtx is the per-function emission state: the growing byte buffer and
// the function's own constant pool.
type funcCtx struct {
	buf  *bytecode.Buffer
	pool bytecode.ConstantPool
}

func widthOf(t ir.Type) bytecode.Width {
	switch t.Kind() {
	case ir.KindInt64:
		return bytecode.WidthI64
	case ir.KindFloat32:
		return bytecode.WidthF32
	case ir.KindFloat64:
		return bytecode.WidthF64
	case ir.KindString:
		return bytecode.WidthObject
	default: // Int32, Boolean, Char, Empty, Unknown all use I32 opcodes.
		return bytecode.WidthI32
	}
}

func (e *Emitter) typeOf(expr ir.Expr) ir.Type { return e.Types.Get(expr) }

func emitErr(pos ir.Position, origin, format string, args ...any) error {
	return diag.New(diag.StageEmit, diag.KindEmit, pos, "emit."+origin, format, args...)
}

func annotationErr(pos ir.Position, origin, format string, args ...any) error {
	return diag.New(diag.StageEmit, diag.KindAnnotation, pos, "emit."+origin, format, args...)
}
