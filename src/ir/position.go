// position.go carries source positions through the tree. Positions are
// informational only: they flow into diagnostics and never affect codegen.

package ir

import "fmt"

// Position is the source range spanned by one expression node.
type Position struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// String renders the position the way diagnostics quote it.
func (p Position) String() string {
	if p.StartLine == p.EndLine {
		return fmt.Sprintf("%s:%d:%d", p.File, p.StartLine, p.StartCol)
	}
	return fmt.Sprintf("%s:%d:%d-%d:%d", p.File, p.StartLine, p.StartCol, p.EndLine, p.EndCol)
}
