// Package typecheck implements the type-check pass: it walks the namespace
// tree and the IR reachable from it, assigning a Type to every expression
// node, validating static constraints, and recording the (node -> type)
// map the emit pass later queries.
//
// This pass uses a "declare signatures, then check bodies" two-phase
// shape, dispatching by a Go type switch over ir.Expr rather than a
// NodeType-tagged node (see DESIGN.md).
package typecheck

import (
	"strings"

	"cygnic/src/diag"
	"cygnic/src/ir"
	"cygnic/src/util"
)

// TypeMap is the (expression -> type) map the emit pass queries.
type TypeMap map[ir.Expr]ir.Type

// Get returns the recorded type for e, or ir.Unknown if absent.
func (m TypeMap) Get(e ir.Expr) ir.Type {
	if t, ok := m[e]; ok {
		return t
	}
	return ir.Unknown
}

// Checker runs the type-check pass over one program. path tracks the
// namespace currently being walked so diagnostics can report which module a
// failure occurred in, as a util.Stack of namespace-name segments.
type Checker struct {
	Types TypeMap
	path  util.Stack[string]
	root  *ir.Namespace
}

// NewChecker returns a Checker with a fresh, empty type map.
func NewChecker() *Checker {
	return &Checker{Types: make(TypeMap)}
}

// currentPath renders the namespace path currently being checked, innermost
// last, e.g. "A::B".
func (c *Checker) currentPath() string {
	segs := make([]string, 0, c.path.Size())
	for i := c.path.Size(); i >= 1; i-- {
		s, _ := c.path.Get(i)
		segs = append(segs, s)
	}
	return strings.Join(segs, "::")
}

// Check runs checkNamespace starting at root with a fresh global scope.
func Check(root *ir.Namespace) (TypeMap, error) {
	c := NewChecker()
	c.root = root
	outer := ir.NewScope[ir.Type](nil)
	if err := c.checkNamespace(root, outer); err != nil {
		return nil, err
	}
	return c.Types, nil
}

func (c *Checker) record(e ir.Expr, t ir.Type) ir.Type {
	c.Types[e] = t
	return t
}

func funcType(l *ir.Lambda) *ir.CallableType {
	args := make([]ir.Type, len(l.Params))
	for i, p := range l.Params {
		args[i] = p.Declared
	}
	return ir.NewCallableType(args, l.ReturnType)
}

// checkNamespace is the type-check pass's entry point.
func (c *Checker) checkNamespace(ns *ir.Namespace, scope *ir.Scope[ir.Type]) error {
	if ns.Name() != "" {
		c.path.Push(ns.Name())
		defer c.path.Pop()
	}

	for _, v := range ns.Globals.Items() {
		scope.Declare(v.Name, v.Declared)
	}
	for _, f := range ns.Funcs.Items() {
		scope.Declare(f.Name, funcType(f))
	}

	for _, v := range ns.Globals.Items() {
		initType, err := c.checkExpr(v.Init, ns, scope)
		if err != nil {
			return err
		}
		declared := v.Declared
		if declared == ir.Unknown {
			declared = initType
			v.Declared = initType
		} else if !ir.Equal(declared, initType) {
			return typeErr(v.Pos(), "checkNamespace", "global %q declared %s but initializer is %s", v.Name, declared, initType)
		}

		init := &ir.Lambda{
			Position:   v.Position,
			Name:       ir.InitializerName(v.Name),
			ReturnType: declared,
			Body:       v.Init,
		}
		c.record(init, ir.NewCallableType(nil, declared))
		ns.AddInitializer(init)
	}

	for _, f := range ns.Funcs.Items() {
		if f.IsExternal() {
			c.record(f, funcType(f))
			continue
		}
		if f.Body == nil {
			return typeErr(f.Pos(), "checkNamespace", "function %q has no body and no @External annotation", f.Name)
		}
		child := ir.NewScope[ir.Type](scope)
		for _, p := range f.Params {
			child.Declare(p.Name, p.Declared)
		}
		bodyType, err := c.checkExpr(f.Body, ns, child)
		if err != nil {
			return err
		}
		actual := ir.NewCallableType(paramTypes(f.Params), bodyType)
		declared := funcType(f)
		if err := checkFunctionType(f.Pos(), declared, actual); err != nil {
			return err
		}
		c.record(f, declared)
	}

	for _, child := range ns.Children.Items() {
		if err := c.checkNamespace(child, scope); err != nil {
			return err
		}
	}
	return nil
}

func paramTypes(params []*ir.Parameter) []ir.Type {
	ts := make([]ir.Type, len(params))
	for i, p := range params {
		ts[i] = p.Declared
	}
	return ts
}

// checkFunctionType checks equal arity, equal argument types pairwise, and
// equal return types, except that a declared Empty return accepts any
// actual return (the wildcard is asymmetric; see DESIGN.md).
func checkFunctionType(pos ir.Position, declared, actual *ir.CallableType) error {
	if len(declared.Args) != len(actual.Args) {
		return typeErr(pos, "checkFunctionType", "arity mismatch: declared %d, actual %d", len(declared.Args), len(actual.Args))
	}
	for i := range declared.Args {
		if !ir.Equal(declared.Args[i], actual.Args[i]) {
			return typeErr(pos, "checkFunctionType", "argument %d: declared %s, actual %s", i, declared.Args[i], actual.Args[i])
		}
	}
	if declared.Ret.Kind() == ir.KindEmpty {
		return nil
	}
	if !ir.Equal(declared.Ret, actual.Ret) {
		return typeErr(pos, "checkFunctionType", "return type: declared %s, actual %s", declared.Ret, actual.Ret)
	}
	return nil
}

// checkExpr dispatches by node kind.
func (c *Checker) checkExpr(e ir.Expr, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	switch n := e.(type) {
	case *ir.Constant:
		return c.record(n, ir.BasicTypeFor(n.Value.Code)), nil

	case *ir.Default:
		return c.record(n, n.T), nil

	case *ir.Parameter:
		return c.checkParameter(n, ns, scope)

	case *ir.VariableDeclaration:
		initType, err := c.checkExpr(n.Init, ns, scope)
		if err != nil {
			return nil, err
		}
		if n.Declared == nil || n.Declared == ir.Unknown {
			n.Declared = initType
		} else if !ir.Equal(n.Declared, initType) {
			return nil, typeErr(n.Pos(), "checkVariableDeclaration", "%q declared %s but initializer is %s", n.Name, n.Declared, initType)
		}
		scope.Declare(n.Name, n.Declared)
		return c.record(n, ir.Empty), nil

	case *ir.Block:
		return c.checkBlock(n, ns, scope)

	case *ir.Conditional:
		return c.checkConditional(n, ns, scope)

	case *ir.WhileLoop:
		return c.checkWhile(n, ns, scope)

	case *ir.Unary:
		return c.checkUnary(n, ns, scope)

	case *ir.Binary:
		return c.checkBinary(n, ns, scope)

	case *ir.Call:
		return c.checkCall(n, ns, scope)

	case *ir.Lambda:
		return c.checkLambda(n, ns, scope)

	default:
		return nil, typeErr(e.Pos(), "checkExpr", "unknown expression node %T", e)
	}
}

func (c *Checker) checkParameter(n *ir.Parameter, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	if len(n.Prefix) == 0 {
		t, ok := scope.Get(n.Name)
		if !ok {
			where := c.currentPath()
			if where == "" {
				return nil, scopeErr(n.Pos(), "checkParameter", "undefined identifier %q", n.Name)
			}
			return nil, scopeErr(n.Pos(), "checkParameter", "undefined identifier %q in namespace %s", n.Name, where)
		}
		return c.record(n, t), nil
	}

	target, ok := c.root.Resolve(n.Prefix)
	if !ok {
		return nil, scopeErr(n.Pos(), "checkParameter", "unresolved namespace path %v", n.Prefix)
	}
	if v, ok := target.Globals.Get(n.Name); ok {
		return c.record(n, v.Declared), nil
	}
	if f, ok := target.Funcs.Get(n.Name); ok {
		return c.record(n, funcType(f)), nil
	}
	return nil, scopeErr(n.Pos(), "checkParameter", "undefined identifier %q in namespace %v", n.Name, n.Prefix)
}

func (c *Checker) checkBlock(n *ir.Block, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	child := ir.NewScope[ir.Type](scope)
	var last ir.Type = ir.Empty
	for _, e := range n.Exprs {
		t, err := c.checkExpr(e, ns, child)
		if err != nil {
			return nil, err
		}
		last = t
	}
	return c.record(n, last), nil
}

func (c *Checker) checkConditional(n *ir.Conditional, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	testType, err := c.checkExpr(n.Test, ns, scope)
	if err != nil {
		return nil, err
	}
	if testType.Kind() != ir.KindBoolean {
		return nil, typeErr(n.Test.Pos(), "checkConditional", "test must be Boolean, got %s", testType)
	}
	thenType, err := c.checkExpr(n.Then, ns, scope)
	if err != nil {
		return nil, err
	}
	elseType, err := c.checkExpr(n.Else, ns, scope)
	if err != nil {
		return nil, err
	}
	return c.record(n, ir.Union(thenType, elseType)), nil
}

func (c *Checker) checkWhile(n *ir.WhileLoop, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	condType, err := c.checkExpr(n.Cond, ns, scope)
	if err != nil {
		return nil, err
	}
	if condType.Kind() != ir.KindBoolean {
		return nil, typeErr(n.Cond.Pos(), "checkWhile", "condition must be Boolean, got %s", condType)
	}
	bodyType, err := c.checkExpr(n.Body, ns, scope)
	if err != nil {
		return nil, err
	}
	return c.record(n, bodyType), nil
}

func (c *Checker) checkUnary(n *ir.Unary, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	operandType, err := c.checkExpr(n.Operand, ns, scope)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case ir.Not:
		if operandType.Kind() != ir.KindBoolean {
			return nil, typeErr(n.Pos(), "checkUnary", "'not' operand must be Boolean, got %s", operandType)
		}
		return c.record(n, ir.Boolean), nil
	case ir.Halt:
		if operandType.Kind() != ir.KindInt32 {
			return nil, typeErr(n.Pos(), "checkUnary", "'halt' operand must be Int32, got %s", operandType)
		}
		return c.record(n, ir.Empty), nil
	case ir.Convert:
		if !isConvertible(operandType) || !isConvertible(n.Target) {
			return nil, typeErr(n.Pos(), "checkUnary", "cannot convert %s to %s", operandType, n.Target)
		}
		if ir.Equal(operandType, n.Target) {
			return c.record(n, operandType), nil
		}
		return c.record(n, n.Target), nil
	case ir.UnaryPlus, ir.UnaryMinus:
		if !ir.IsNumeric(operandType) {
			return nil, typeErr(n.Pos(), "checkUnary", "unary %s requires a numeric operand, got %s", n.Op, operandType)
		}
		return c.record(n, operandType), nil
	default:
		return nil, typeErr(n.Pos(), "checkUnary", "unknown unary operator %v", n.Op)
	}
}

func isConvertible(t ir.Type) bool {
	switch t.Kind() {
	case ir.KindInt32, ir.KindInt64, ir.KindFloat32, ir.KindFloat64, ir.KindBoolean, ir.KindChar:
		return true
	default:
		return false
	}
}

func (c *Checker) checkBinary(n *ir.Binary, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	leftType, err := c.checkExpr(n.Left, ns, scope)
	if err != nil {
		return nil, err
	}
	rightType, err := c.checkExpr(n.Right, ns, scope)
	if err != nil {
		return nil, err
	}

	switch n.Op {
	case ir.Assign:
		if _, ok := n.Left.(*ir.Parameter); !ok {
			return nil, typeErr(n.Pos(), "checkBinary", "assignment target must be an identifier")
		}
		if !ir.Equal(leftType, rightType) {
			return nil, typeErr(n.Pos(), "checkBinary", "cannot assign %s to %s", rightType, leftType)
		}
		return c.record(n, ir.Empty), nil

	case ir.Add, ir.Sub, ir.Mul, ir.Div, ir.Mod:
		if !ir.IsNumeric(leftType) || !ir.Equal(leftType, rightType) {
			return nil, typeErr(n.Pos(), "checkBinary", "arithmetic %s requires matching numeric operands, got %s and %s", n.Op, leftType, rightType)
		}
		return c.record(n, leftType), nil

	case ir.Lt, ir.Le, ir.Gt, ir.Ge:
		if !ir.Equal(leftType, rightType) || !isOrderable(leftType) {
			return nil, typeErr(n.Pos(), "checkBinary", "%s requires matching orderable operands, got %s and %s", n.Op, leftType, rightType)
		}
		return c.record(n, ir.Boolean), nil

	case ir.Eq, ir.Ne:
		if !ir.Equal(leftType, rightType) || !isEquatable(leftType) {
			return nil, typeErr(n.Pos(), "checkBinary", "%s requires matching equatable operands, got %s and %s", n.Op, leftType, rightType)
		}
		return c.record(n, ir.Boolean), nil

	case ir.And, ir.Or:
		if leftType.Kind() != ir.KindBoolean || rightType.Kind() != ir.KindBoolean {
			return nil, typeErr(n.Pos(), "checkBinary", "%s requires Boolean operands, got %s and %s", n.Op, leftType, rightType)
		}
		return c.record(n, ir.Boolean), nil

	default:
		return nil, typeErr(n.Pos(), "checkBinary", "unknown binary operator %v", n.Op)
	}
}

func isOrderable(t ir.Type) bool {
	return ir.IsNumeric(t) || t.Kind() == ir.KindChar || t.Kind() == ir.KindString
}

func isEquatable(t ir.Type) bool {
	return ir.IsNumeric(t) || t.Kind() == ir.KindBoolean || t.Kind() == ir.KindChar || t.Kind() == ir.KindString
}

func (c *Checker) checkCall(n *ir.Call, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	fnType, err := c.checkExpr(n.Fn, ns, scope)
	if err != nil {
		return nil, err
	}
	callable, ok := fnType.(*ir.CallableType)
	if !ok {
		return nil, typeErr(n.Pos(), "checkCall", "callee is not callable (got %s)", fnType)
	}
	if len(n.Args) != len(callable.Args) {
		return nil, typeErr(n.Pos(), "checkCall", "arity mismatch: expected %d arguments, got %d", len(callable.Args), len(n.Args))
	}
	for i, a := range n.Args {
		at, err := c.checkExpr(a, ns, scope)
		if err != nil {
			return nil, err
		}
		if !ir.Equal(at, callable.Args[i]) {
			return nil, typeErr(a.Pos(), "checkCall", "argument %d: expected %s, got %s", i, callable.Args[i], at)
		}
	}
	return c.record(n, callable.Ret), nil
}

func (c *Checker) checkLambda(n *ir.Lambda, ns *ir.Namespace, scope *ir.Scope[ir.Type]) (ir.Type, error) {
	child := ir.NewScope[ir.Type](scope)
	for _, p := range n.Params {
		child.Declare(p.Name, p.Declared)
	}
	bodyType, err := c.checkExpr(n.Body, ns, child)
	if err != nil {
		return nil, err
	}
	return c.record(n, ir.NewCallableType(paramTypes(n.Params), bodyType)), nil
}

func typeErr(pos ir.Position, origin, format string, args ...any) error {
	return diag.New(diag.StageTypeCheck, diag.KindType, pos, "typecheck."+origin, format, args...)
}

func scopeErr(pos ir.Position, origin, format string, args ...any) error {
	return diag.New(diag.StageTypeCheck, diag.KindScope, pos, "typecheck."+origin, format, args...)
}
