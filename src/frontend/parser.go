// parser.go is a hand-rolled recursive-descent parser producing the two
// structures the later passes need: an IR tree (ir.Expr nodes) and a
// namespace tree (ir.Namespace) of declared globals and functions, nested
// by `module` blocks. The grammar implemented here is deliberately minimal,
// and node shapes are chosen so the three analysis passes never see a
// parser-specific wrinkle.
//
// cygnic's parser is a plain table-free descent over the Lexer in lexer.go
// rather than a generated table from a declarative grammar file (see
// DESIGN.md): smaller, and easier to audit against the node-shape
// requirements than a generated table would be.
package frontend

import (
	"fmt"

	"cygnic/src/diag"
	"cygnic/src/ir"
)

// Parser turns a token stream into the IR + namespace tree pair.
type Parser struct {
	lex  *Lexer
	file string
	tok  Token
}

// NewParser returns a Parser reading file's src.
func NewParser(file, src string) *Parser {
	p := &Parser{lex: NewLexer(file, src), file: file}
	p.advance()
	return p
}

func (p *Parser) advance() { p.tok = p.lex.Next() }

func (p *Parser) pos() ir.Position {
	return ir.Position{File: p.file, StartLine: p.tok.Line, StartCol: p.tok.Col, EndLine: p.tok.Line, EndCol: p.tok.Col}
}

// fail raises a SyntaxError at the current token, or a LexicalError carrying
// the scanner's own message when the current token is an Error token.
func (p *Parser) fail(format string, args ...any) error {
	if p.tok.Kind == Error {
		return diag.New(diag.StageLex, diag.KindLexical, p.pos(), "frontend.Lexer", "%s", p.tok.Val)
	}
	return diag.New(diag.StageParse, diag.KindSyntax, p.pos(), "frontend.Parser", format, args...)
}

func (p *Parser) expect(k Kind, what string) (Token, error) {
	if p.tok.Kind != k {
		return Token{}, p.fail("expected %s, got %v", what, p.tok.Kind)
	}
	t := p.tok
	p.advance()
	return t, nil
}

// Parse reads a full program: a sequence of top-level module blocks, rooted
// under an anonymous root namespace.
func Parse(file, src string) (*ir.Namespace, error) {
	p := NewParser(file, src)
	root := ir.NewNamespace(nil, "")
	for p.tok.Kind != EOF {
		if err := p.parseModule(root); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func (p *Parser) parseModule(parent *ir.Namespace) error {
	if _, err := p.expect(KwModule, "'module'"); err != nil {
		return err
	}
	name, err := p.expect(Ident, "module name")
	if err != nil {
		return err
	}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return err
	}
	ns := parent.Child(name.Val)

	for p.tok.Kind != RBrace {
		if p.tok.Kind == EOF {
			return p.fail("unexpected EOF inside module %q", name.Val)
		}
		switch p.tok.Kind {
		case KwModule:
			if err := p.parseModule(ns); err != nil {
				return err
			}
		case KwVar:
			v, err := p.parseVarDecl()
			if err != nil {
				return err
			}
			if !ns.Globals.Add(v.Name, v) {
				return p.fail("duplicate global variable %q", v.Name)
			}
		case At, KwFunc:
			anns, err := p.parseAnnotations()
			if err != nil {
				return err
			}
			f, err := p.parseFuncDecl(anns)
			if err != nil {
				return err
			}
			if !ns.Funcs.Add(f.Name, f) {
				return p.fail("duplicate function %q", f.Name)
			}
		default:
			return p.fail("expected 'module', 'var', 'func' or an annotation, got %v", p.tok.Kind)
		}
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return err
	}
	return nil
}

func (p *Parser) parseAnnotations() ([]ir.Annotation, error) {
	var anns []ir.Annotation
	for p.tok.Kind == At {
		p.advance()
		name, err := p.expect(Ident, "annotation name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(LParen, "'('"); err != nil {
			return nil, err
		}
		var args []ir.AnnotationArg
		for p.tok.Kind != RParen {
			if len(args) > 0 {
				if _, err := p.expect(Comma, "','"); err != nil {
					return nil, err
				}
			}
			key, err := p.expect(Ident, "annotation argument name")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(Assign, "'='"); err != nil {
				return nil, err
			}
			val, err := p.expect(StringLit, "string literal")
			if err != nil {
				return nil, err
			}
			args = append(args, ir.AnnotationArg{Name: key.Val, Value: val.Val})
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		anns = append(anns, ir.Annotation{Name: name.Val, Args: args})
	}
	return anns, nil
}

func (p *Parser) parseVarDecl() (*ir.VariableDeclaration, error) {
	pos := p.pos()
	if _, err := p.expect(KwVar, "'var'"); err != nil {
		return nil, err
	}
	name, err := p.expect(Ident, "variable name")
	if err != nil {
		return nil, err
	}
	declared := ir.Type(ir.Unknown)
	if p.tok.Kind == Colon {
		p.advance()
		declared, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(Assign, "'='"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi, "';'"); err != nil {
		return nil, err
	}
	return &ir.VariableDeclaration{Position: pos, Name: name.Val, Declared: declared, Init: init}, nil
}

func (p *Parser) parseType() (ir.Type, error) {
	name, err := p.expect(Ident, "type name")
	if err != nil {
		return nil, err
	}
	switch name.Val {
	case "Int":
		return ir.Int32, nil
	case "Long":
		return ir.Int64, nil
	case "Float":
		return ir.Float32, nil
	case "Double":
		return ir.Float64, nil
	case "Bool":
		return ir.Boolean, nil
	case "Char":
		return ir.Char, nil
	case "String":
		return ir.String, nil
	case "Void":
		return ir.Empty, nil
	default:
		return nil, p.fail("unknown type name %q", name.Val)
	}
}

func (p *Parser) parseFuncDecl(anns []ir.Annotation) (*ir.Lambda, error) {
	pos := p.pos()
	if _, err := p.expect(KwFunc, "'func'"); err != nil {
		return nil, err
	}
	name, err := p.expect(Ident, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	var params []*ir.Parameter
	for p.tok.Kind != RParen {
		if len(params) > 0 {
			if _, err := p.expect(Comma, "','"); err != nil {
				return nil, err
			}
		}
		ppos := p.pos()
		pname, err := p.expect(Ident, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Colon, "':'"); err != nil {
			return nil, err
		}
		ptyp, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, &ir.Parameter{Position: ppos, Name: pname.Val, Declared: ptyp})
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return nil, err
	}
	if _, err := p.expect(Colon, "':'"); err != nil {
		return nil, err
	}
	ret, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var body ir.Expr
	if p.tok.Kind == Semi {
		p.advance() // native declaration: no body.
	} else {
		body, err = p.parseBlock()
		if err != nil {
			return nil, err
		}
	}
	return &ir.Lambda{Position: pos, Name: name.Val, Params: params, ReturnType: ret, Body: body, Annotations: anns}, nil
}

func (p *Parser) parseBlock() (*ir.Block, error) {
	pos := p.pos()
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	var exprs []ir.Expr
	for p.tok.Kind != RBrace {
		if p.tok.Kind == EOF {
			return nil, p.fail("unexpected EOF inside block")
		}
		e, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, e)
	}
	if _, err := p.expect(RBrace, "'}'"); err != nil {
		return nil, err
	}
	return &ir.Block{Position: pos, Exprs: exprs}, nil
}

func (p *Parser) parseStmt() (ir.Expr, error) {
	switch p.tok.Kind {
	case KwVar:
		return p.parseVarDecl()
	case LBrace:
		return p.parseBlock()
	case KwIf:
		return p.parseIf()
	case KwWhile:
		return p.parseWhile()
	default:
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semi, "';'"); err != nil {
			return nil, err
		}
		return e, nil
	}
}

func (p *Parser) parseIf() (ir.Expr, error) {
	pos := p.pos()
	p.advance() // 'if'
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	test, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	var els ir.Expr = &ir.Block{Position: pos}
	if p.tok.Kind == KwElse {
		p.advance()
		if p.tok.Kind == KwIf {
			els, err = p.parseIf()
		} else {
			els, err = p.parseBlock()
		}
		if err != nil {
			return nil, err
		}
	}
	return &ir.Conditional{Position: pos, Test: test, Then: then, Else: els}, nil
}

func (p *Parser) parseWhile() (ir.Expr, error) {
	pos := p.pos()
	p.advance() // 'while'
	if _, err := p.expect(LParen, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(RParen, "')'"); err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ir.WhileLoop{Position: pos, Cond: cond, Body: body}, nil
}

// parseExpr is the precedence chain: assignment binds loosest
// (modeled as a Binary Assign node whose left must later be a Parameter),
// then or < and < equality < relational < additive < multiplicative < unary
// < postfix < primary.
func (p *Parser) parseExpr() (ir.Expr, error) { return p.parseAssign() }

func (p *Parser) parseAssign() (ir.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == Assign {
		pos := p.pos()
		p.advance()
		right, err := p.parseAssign()
		if err != nil {
			return nil, err
		}
		return &ir.Binary{Position: pos, Op: ir.Assign, Left: left, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseOr() (ir.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == KwOr {
		pos := p.pos()
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: ir.Or, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ir.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == KwAnd {
		pos := p.pos()
		p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: ir.And, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ir.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Eq || p.tok.Kind == Ne {
		op, pos := ir.Eq, p.pos()
		if p.tok.Kind == Ne {
			op = ir.Ne
		}
		p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ir.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Lt || p.tok.Kind == Le || p.tok.Kind == Gt || p.tok.Kind == Ge {
		var op ir.BinaryOp
		switch p.tok.Kind {
		case Lt:
			op = ir.Lt
		case Le:
			op = ir.Le
		case Gt:
			op = ir.Gt
		default:
			op = ir.Ge
		}
		pos := p.pos()
		p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ir.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Plus || p.tok.Kind == Minus {
		op := ir.Add
		if p.tok.Kind == Minus {
			op = ir.Sub
		}
		pos := p.pos()
		p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ir.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == Star || p.tok.Kind == Slash || p.tok.Kind == Percent {
		var op ir.BinaryOp
		switch p.tok.Kind {
		case Star:
			op = ir.Mul
		case Slash:
			op = ir.Div
		default:
			op = ir.Mod
		}
		pos := p.pos()
		p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ir.Binary{Position: pos, Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ir.Expr, error) {
	switch p.tok.Kind {
	case Bang:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Position: pos, Op: ir.Not, Operand: operand}, nil
	case Minus:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Position: pos, Op: ir.UnaryMinus, Operand: operand}, nil
	case Plus:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Position: pos, Op: ir.UnaryPlus, Operand: operand}, nil
	case KwHalt:
		pos := p.pos()
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ir.Unary{Position: pos, Op: ir.Halt, Operand: operand}, nil
	default:
		return p.parseCast()
	}
}

func (p *Parser) parseCast() (ir.Expr, error) {
	operand, err := p.parsePostfix()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == KwAs {
		pos := p.pos()
		p.advance()
		target, err := p.parseType()
		if err != nil {
			return nil, err
		}
		operand = &ir.Unary{Position: pos, Op: ir.Convert, Operand: operand, Target: target}
	}
	return operand, nil
}

func (p *Parser) parsePostfix() (ir.Expr, error) {
	prim, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind == LParen {
		if _, ok := prim.(*ir.Parameter); !ok {
			return nil, p.fail("call target must be an identifier")
		}
		pos := p.pos()
		p.advance()
		var args []ir.Expr
		for p.tok.Kind != RParen {
			if len(args) > 0 {
				if _, err := p.expect(Comma, "','"); err != nil {
					return nil, err
				}
			}
			a, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		return &ir.Call{Position: pos, Fn: prim, Args: args}, nil
	}
	return prim, nil
}

func (p *Parser) parsePrimary() (ir.Expr, error) {
	pos := p.pos()
	switch p.tok.Kind {
	case Int:
		v := p.tok.Val
		p.advance()
		return parseIntLiteral(pos, v)
	case Float:
		v := p.tok.Val
		p.advance()
		var f float64
		fmt.Sscanf(v, "%g", &f)
		return &ir.Constant{Position: pos, Value: ir.Float64Value(f)}, nil
	case StringLit:
		v := p.tok.Val
		p.advance()
		return &ir.Constant{Position: pos, Value: ir.StringValue(v)}, nil
	case CharLit:
		v := p.tok.Val
		p.advance()
		r := []rune(v)[0]
		return &ir.Constant{Position: pos, Value: ir.CharValue(r)}, nil
	case KwTrue:
		p.advance()
		return &ir.Constant{Position: pos, Value: ir.BoolValue(true)}, nil
	case KwFalse:
		p.advance()
		return &ir.Constant{Position: pos, Value: ir.BoolValue(false)}, nil
	case LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		return e, nil
	case Ident:
		var segs []string
		for {
			seg, err := p.expect(Ident, "identifier")
			if err != nil {
				return nil, err
			}
			segs = append(segs, seg.Val)
			if p.tok.Kind != ColonColon {
				break
			}
			p.advance()
		}
		name := segs[len(segs)-1]
		prefix := segs[:len(segs)-1]
		return &ir.Parameter{Position: pos, Prefix: prefix, Name: name, Declared: ir.Unknown}, nil
	default:
		return nil, p.fail("unexpected token %v in expression", p.tok.Kind)
	}
}

// parseIntLiteral defaults bare integer literals to Int32, matching the
// surface language's `Int`-typed default. A literal outside the Int32 range
// becomes an Int64 constant; there is no literal suffix for Long.
func parseIntLiteral(pos ir.Position, s string) (ir.Expr, error) {
	var v int64
	if _, err := fmt.Sscanf(s, "%d", &v); err != nil {
		return nil, diag.New(diag.StageParse, diag.KindSyntax, pos, "frontend.parseIntLiteral", "invalid integer literal %q", s)
	}
	if v >= -2147483648 && v <= 2147483647 {
		return &ir.Constant{Position: pos, Value: ir.Int32Value(int32(v))}, nil
	}
	return &ir.Constant{Position: pos, Value: ir.Int64Value(v)}, nil
}
