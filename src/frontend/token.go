// token.go enumerates the token kinds the lexer emits: the keywords,
// operators and punctuation the grammar needs, enough to drive the
// recursive-descent parser in parser.go. A deliberately small hand-rolled
// scanner rather than a generated goyacc grammar (see DESIGN.md).

package frontend

import "fmt"

// Kind tags a scanned lexeme.
type Kind int

const (
	EOF Kind = iota
	Error

	Ident
	Int
	Float
	CharLit
	StringLit

	KwModule
	KwFunc
	KwVar
	KwIf
	KwElse
	KwWhile
	KwTrue
	KwFalse
	KwAnd
	KwOr
	KwHalt
	KwAs

	LParen
	RParen
	LBrace
	RBrace
	Colon
	ColonColon
	Comma
	Semi
	At
	Assign

	Plus
	Minus
	Star
	Slash
	Percent
	Bang
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
)

var keywords = map[string]Kind{
	"module": KwModule,
	"func":   KwFunc,
	"var":    KwVar,
	"if":     KwIf,
	"else":   KwElse,
	"while":  KwWhile,
	"true":   KwTrue,
	"false":  KwFalse,
	"and":    KwAnd,
	"or":     KwOr,
	"halt":   KwHalt,
	"as":     KwAs,
}

// Token is a single lexeme plus its source position.
type Token struct {
	Kind Kind
	Val  string
	Line int
	Col  int
}

func (t Token) String() string {
	return fmt.Sprintf("%v(%q) @%d:%d", t.Kind, t.Val, t.Line, t.Col)
}
