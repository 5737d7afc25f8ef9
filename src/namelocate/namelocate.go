// Package namelocate implements the name-location pass: it assigns every
// declared name a location descriptor (global-variable slot, function
// index, native-function index, or per-function local slot) and records
// each use-occurrence's target, plus per-function/per-program counts the
// emit pass needs to size constant pools and local-slot arrays.
//
// Grounded the same way as typecheck: a symbol table is built in one walk
// before validation, keeping a "declare slots top-down, then walk bodies"
// shape, but threading an explicit Counts struct rather than stashing
// mutable counters as fake symbol-table entries (see DESIGN.md).
package namelocate

import (
	"cygnic/src/diag"
	"cygnic/src/ir"
)

// Kind tags which location descriptor a NameInfo carries.
type Kind int

const (
	GlobalVariable Kind = iota
	Function
	NativeFunction
	FunctionVariable
	FunctionConstant
)

func (k Kind) String() string {
	switch k {
	case GlobalVariable:
		return "GlobalVariable"
	case Function:
		return "Function"
	case NativeFunction:
		return "NativeFunction"
	case FunctionVariable:
		return "FunctionVariable"
	case FunctionConstant:
		return "FunctionConstant"
	default:
		return "?"
	}
}

// NameInfo is the tagged (kind, number) location descriptor.
type NameInfo struct {
	Kind   Kind
	Number int
}

// key pairs an expression with a Kind, because one Lambda carries several
// descriptors at once (its own Function/NativeFunction slot, plus the
// variable-count/constant-count entries recorded under FunctionVariable and
// FunctionConstant when walkLambda finishes its body).
type key struct {
	e ir.Expr
	k Kind
}

// NameMap is the (expression, kind) -> NameInfo map.
type NameMap map[key]NameInfo

func (m NameMap) get(e ir.Expr, k Kind) (NameInfo, bool) {
	v, ok := m[key{e, k}]
	return v, ok
}

func (m NameMap) set(e ir.Expr, k Kind, info NameInfo) {
	m[key{e, k}] = info
}

// Get returns the NameInfo recorded for (e, k).
func (m NameMap) Get(e ir.Expr, k Kind) (NameInfo, bool) { return m.get(e, k) }

// FunctionVariableCount returns the total local-variable slot count recorded
// for lambda l (parameters plus VariableDeclaration descendants).
func (m NameMap) FunctionVariableCount(l *ir.Lambda) int {
	info, _ := m.get(l, FunctionVariable)
	return info.Number
}

// FunctionConstantCount returns the number of FunctionConstant slots
// allocated within lambda l's body.
func (m NameMap) FunctionConstantCount(l *ir.Lambda) int {
	info, _ := m.get(l, FunctionConstant)
	return info.Number
}

// Counts accumulates the running global/function/native-function
// counters: rather than storing mutable counters as fake scope entries,
// they are plain fields on a context object threaded through the walk.
type Counts struct {
	GlobalVariables int
	Functions       int
	NativeFunctions int
}

// locator runs one name-location pass over a program.
type locator struct {
	Names NameMap
	Counts
	root *ir.Namespace
}

// Locate runs the namespace walk starting at root.
func Locate(root *ir.Namespace) (NameMap, *Counts, error) {
	l := &locator{Names: make(NameMap), root: root}
	l.assignSlots(root)
	scope := ir.NewScope[NameInfo](nil)
	if err := l.walkNamespace(root, scope); err != nil {
		return nil, nil, err
	}
	return l.Names, &l.Counts, nil
}

// assignSlots numbers every global variable and function in the whole tree
// (declaration order, parents before children) before any body is walked.
// Slot numbers therefore never depend on where a reference occurs, so a
// prefixed reference like A::B::x resolves even from a namespace walked
// before the target's own (see DESIGN.md).
func (l *locator) assignSlots(ns *ir.Namespace) {
	for _, v := range ns.Globals.Items() {
		l.Names.set(v, GlobalVariable, NameInfo{Kind: GlobalVariable, Number: l.GlobalVariables})
		l.GlobalVariables++
	}
	for _, f := range ns.Funcs.Items() {
		if f.IsExternal() {
			l.Names.set(f, NativeFunction, NameInfo{Kind: NativeFunction, Number: l.NativeFunctions})
			l.NativeFunctions++
		} else {
			l.Names.set(f, Function, NameInfo{Kind: Function, Number: l.Functions})
			l.Functions++
		}
	}
	for _, child := range ns.Children.Items() {
		l.assignSlots(child)
	}
}

func (l *locator) walkNamespace(ns *ir.Namespace, scope *ir.Scope[NameInfo]) error {
	for _, v := range ns.Globals.Items() {
		info, _ := l.Names.get(v, GlobalVariable)
		scope.Declare(v.Name, info)
	}

	for _, f := range ns.Funcs.Items() {
		kind := Function
		if f.IsExternal() {
			kind = NativeFunction
		}
		info, _ := l.Names.get(f, kind)
		scope.Declare(f.Name, info)
	}

	for _, v := range ns.Globals.Items() {
		// Global initializers are re-walked for local numbering purposes;
		// they can declare no locals at this top level.
		fnScope := &funcScope{vars: 0, consts: 0}
		if err := l.walkExpr(v.Init, ns, scope, fnScope); err != nil {
			return err
		}
	}

	for _, f := range ns.Funcs.Items() {
		if f.IsExternal() || f.Body == nil {
			continue
		}
		if err := l.walkLambda(f, ns, scope); err != nil {
			return err
		}
	}

	for _, child := range ns.Children.Items() {
		if err := l.walkNamespace(child, scope); err != nil {
			return err
		}
	}
	return nil
}

// funcScope carries the per-lambda local-variable and local-constant
// counters down through one lambda's walk.
type funcScope struct {
	vars   int
	consts int
}

func (l *locator) walkLambda(lam *ir.Lambda, ns *ir.Namespace, outer *ir.Scope[NameInfo]) error {
	child := ir.NewScope[NameInfo](outer)
	fnScope := &funcScope{}
	for _, p := range lam.Params {
		info := NameInfo{Kind: FunctionVariable, Number: fnScope.vars}
		fnScope.vars++
		child.Declare(p.Name, info)
		l.Names.set(p, FunctionVariable, info)
	}
	if err := l.walkExpr(lam.Body, ns, child, fnScope); err != nil {
		return err
	}
	l.Names.set(lam, FunctionVariable, NameInfo{Kind: FunctionVariable, Number: fnScope.vars})
	l.Names.set(lam, FunctionConstant, NameInfo{Kind: FunctionConstant, Number: fnScope.consts})
	return nil
}

func (l *locator) walkExpr(e ir.Expr, ns *ir.Namespace, scope *ir.Scope[NameInfo], fn *funcScope) error {
	switch n := e.(type) {
	case *ir.Constant:
		info := NameInfo{Kind: FunctionConstant, Number: fn.consts}
		fn.consts++
		l.Names.set(n, FunctionConstant, info)
		return nil

	case *ir.Default:
		return nil

	case *ir.Parameter:
		return l.walkParameter(n, ns, scope)

	case *ir.VariableDeclaration:
		info := NameInfo{Kind: FunctionVariable, Number: fn.vars}
		fn.vars++
		scope.Declare(n.Name, info)
		l.Names.set(n, FunctionVariable, info)
		return l.walkExpr(n.Init, ns, scope, fn)

	case *ir.Block:
		child := ir.NewScope[NameInfo](scope)
		for _, sub := range n.Exprs {
			if err := l.walkExpr(sub, ns, child, fn); err != nil {
				return err
			}
		}
		return nil

	case *ir.Conditional:
		if err := l.walkExpr(n.Test, ns, scope, fn); err != nil {
			return err
		}
		if err := l.walkExpr(n.Then, ns, scope, fn); err != nil {
			return err
		}
		return l.walkExpr(n.Else, ns, scope, fn)

	case *ir.WhileLoop:
		if err := l.walkExpr(n.Cond, ns, scope, fn); err != nil {
			return err
		}
		return l.walkExpr(n.Body, ns, scope, fn)

	case *ir.Unary:
		return l.walkExpr(n.Operand, ns, scope, fn)

	case *ir.Binary:
		if err := l.walkExpr(n.Left, ns, scope, fn); err != nil {
			return err
		}
		return l.walkExpr(n.Right, ns, scope, fn)

	case *ir.Call:
		if err := l.walkExpr(n.Fn, ns, scope, fn); err != nil {
			return err
		}
		for _, a := range n.Args {
			if err := l.walkExpr(a, ns, scope, fn); err != nil {
				return err
			}
		}
		return nil

	case *ir.Lambda:
		return l.walkLambda(n, ns, scope)

	default:
		return diag.New(diag.StageNameLocate, diag.KindScope, e.Pos(), "namelocate.walkExpr", "unknown expression node %T", e)
	}
}

func (l *locator) walkParameter(n *ir.Parameter, ns *ir.Namespace, scope *ir.Scope[NameInfo]) error {
	if len(n.Prefix) == 0 {
		info, ok := scope.Get(n.Name)
		if !ok {
			return diag.New(diag.StageNameLocate, diag.KindScope, n.Pos(), "namelocate.walkParameter", "undefined identifier %q", n.Name)
		}
		l.Names.set(n, info.Kind, info)
		return nil
	}

	target, ok := l.root.Resolve(n.Prefix)
	if !ok {
		return diag.New(diag.StageNameLocate, diag.KindScope, n.Pos(), "namelocate.walkParameter", "unresolved namespace path %v", n.Prefix)
	}
	if v, ok := target.Globals.Get(n.Name); ok {
		info, _ := l.Names.get(v, GlobalVariable)
		l.Names.set(n, GlobalVariable, info)
		return nil
	}
	if f, ok := target.Funcs.Get(n.Name); ok {
		kind := Function
		if f.IsExternal() {
			kind = NativeFunction
		}
		info, _ := l.Names.get(f, kind)
		l.Names.set(n, kind, info)
		return nil
	}
	return diag.New(diag.StageNameLocate, diag.KindScope, n.Pos(), "namelocate.walkParameter", "undefined identifier %q in namespace %v", n.Name, n.Prefix)
}
