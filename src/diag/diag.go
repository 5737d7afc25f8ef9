// Package diag implements the fatal-diagnostic model: every failure in the
// pipeline carries a stage, an error-taxonomy kind, a source position (when
// available) and a human-readable message. There is no recovery: the
// first Diagnostic returned by any pass stops the pipeline.
//
// Diagnostic is typed per error kind rather than a bare fmt.Errorf string,
// so tests and callers can assert on Kind rather than parsing message
// text, and additionally records Origin, the name of the checker function
// that raised it, to make failures easy to trace back to their source
// (see DESIGN.md).
package diag

import (
	"errors"
	"fmt"

	"cygnic/src/ir"
)

// Stage identifies which pipeline stage raised a Diagnostic.
type Stage int

const (
	StageLex Stage = iota
	StageParse
	StageTypeCheck
	StageNameLocate
	StageEmit
)

func (s Stage) String() string {
	switch s {
	case StageLex:
		return "lex"
	case StageParse:
		return "parse"
	case StageTypeCheck:
		return "type-check"
	case StageNameLocate:
		return "name-locate"
	case StageEmit:
		return "emit"
	default:
		return "?"
	}
}

// Kind is the compiler's error taxonomy.
type Kind int

const (
	KindLexical Kind = iota
	KindSyntax
	KindScope
	KindType
	KindAnnotation
	KindEmit
)

func (k Kind) String() string {
	switch k {
	case KindLexical:
		return "LexicalError"
	case KindSyntax:
		return "SyntaxError"
	case KindScope:
		return "ScopeError"
	case KindType:
		return "TypeError"
	case KindAnnotation:
		return "AnnotationError"
	case KindEmit:
		return "EmitError"
	default:
		return "?"
	}
}

// Diagnostic is a fatal compiler error.
type Diagnostic struct {
	Stage   Stage
	Kind    Kind
	Pos     ir.Position // zero value if unavailable (e.g. lexical errors before any node exists).
	Origin  string      // name of the checker/emitter function that raised it.
	Message string
}

func (d *Diagnostic) Error() string {
	if d.Pos.File == "" && d.Pos.StartLine == 0 {
		return fmt.Sprintf("%s: %s: %s", d.Stage, d.Kind, d.Message)
	}
	return fmt.Sprintf("%s: %s at %s: %s", d.Stage, d.Kind, d.Pos, d.Message)
}

// New builds a Diagnostic. origin should name the raising function, e.g.
// "typecheck.checkBinary".
func New(stage Stage, kind Kind, pos ir.Position, origin, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Stage:   stage,
		Kind:    kind,
		Pos:     pos,
		Origin:  origin,
		Message: fmt.Sprintf(format, args...),
	}
}

// Fields flattens err into key/value pairs for a zap.SugaredLogger's
// structured (*w) methods. When err is or wraps a *Diagnostic, its stage,
// kind and origin become separate fields; any other error is logged as the
// single "error" field.
func Fields(err error) []any {
	var d *Diagnostic
	if errors.As(err, &d) {
		return []any{
			"stage", d.Stage.String(),
			"kind", d.Kind.String(),
			"origin", d.Origin,
			"error", err,
		}
	}
	return []any{"error", err}
}
