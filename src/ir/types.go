// types.go implements the Type sum: nine interned basic types plus Array,
// Callable and Union composites, with structural equality and a union()
// combinator.
//
// Type is a Go interface with one implementation per variant and a Kind tag
// used for type-switch dispatch, the same "tagged sum, matched rather than
// vtable-dispatched" shape used for Expr in expr.go.

package ir

// Kind tags which Type variant a value holds.
type Kind int

const (
	KindUnknown Kind = iota
	KindEmpty
	KindBoolean
	KindChar
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindArray
	KindCallable
	KindUnion
)

func (k Kind) String() string {
	switch k {
	case KindUnknown:
		return "Unknown"
	case KindEmpty:
		return "Empty"
	case KindBoolean:
		return "Boolean"
	case KindChar:
		return "Char"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindFloat32:
		return "Float32"
	case KindFloat64:
		return "Float64"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindCallable:
		return "Callable"
	case KindUnion:
		return "Union"
	default:
		return "?"
	}
}

// Type is a node in the type sum. Every variant below implements it.
type Type interface {
	Kind() Kind
	String() string
	isType()
}

// BasicType is one of the nine interned scalar/void types.
type BasicType struct {
	kind Kind
}

func (b *BasicType) Kind() Kind     { return b.kind }
func (b *BasicType) String() string { return b.kind.String() }
func (*BasicType) isType()          {}

// The nine basic types are interned to a single instance per kind, so that
// pointer equality alone decides basic-type equality.
var (
	Unknown = &BasicType{KindUnknown}
	Empty   = &BasicType{KindEmpty}
	Boolean = &BasicType{KindBoolean}
	Char    = &BasicType{KindChar}
	Int32   = &BasicType{KindInt32}
	Int64   = &BasicType{KindInt64}
	Float32 = &BasicType{KindFloat32}
	Float64 = &BasicType{KindFloat64}
	String  = &BasicType{KindString}
)

// BasicTypeFor maps a TypeCode (as carried by a Constant/Default expression)
// to its interned basic Type.
func BasicTypeFor(code TypeCode) Type {
	switch code {
	case TypeCodeUnknown:
		return Unknown
	case TypeCodeEmpty:
		return Empty
	case TypeCodeBoolean:
		return Boolean
	case TypeCodeChar:
		return Char
	case TypeCodeInt32:
		return Int32
	case TypeCodeInt64:
		return Int64
	case TypeCodeFloat32:
		return Float32
	case TypeCodeFloat64:
		return Float64
	case TypeCodeString:
		return String
	default:
		return Unknown
	}
}

// ArrayType is Array(element).
type ArrayType struct {
	Element Type
}

func (a *ArrayType) Kind() Kind     { return KindArray }
func (a *ArrayType) String() string { return "Array(" + a.Element.String() + ")" }
func (*ArrayType) isType()          {}

// NewArrayType returns an Array type over element.
func NewArrayType(element Type) *ArrayType { return &ArrayType{Element: element} }

// CallableType is Callable(args, ret).
type CallableType struct {
	Args []Type
	Ret  Type
}

func (c *CallableType) Kind() Kind { return KindCallable }
func (c *CallableType) String() string {
	s := "Callable("
	for i, a := range c.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ") -> " + c.Ret.String()
}
func (*CallableType) isType() {}

// NewCallableType returns a Callable type with the given argument types and
// return type.
func NewCallableType(args []Type, ret Type) *CallableType {
	return &CallableType{Args: args, Ret: ret}
}

// UnionType is Union(members): unordered, deduplicated by structural
// equality.
type UnionType struct {
	Members []Type
}

func (u *UnionType) Kind() Kind { return KindUnion }
func (u *UnionType) String() string {
	s := "Union("
	for i, m := range u.Members {
		if i > 0 {
			s += " | "
		}
		s += m.String()
	}
	return s + ")"
}
func (*UnionType) isType() {}

// Equal reports whether a and b are structurally equal types: basic types
// compare by kind, Array compares elements, Callable compares argument
// lists in order plus return type, and Union compares members as an
// unordered, size-equal set.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch at := a.(type) {
	case *BasicType:
		return true // same Kind already established.
	case *ArrayType:
		bt := b.(*ArrayType)
		return Equal(at.Element, bt.Element)
	case *CallableType:
		bt := b.(*CallableType)
		if len(at.Args) != len(bt.Args) {
			return false
		}
		for i := range at.Args {
			if !Equal(at.Args[i], bt.Args[i]) {
				return false
			}
		}
		return Equal(at.Ret, bt.Ret)
	case *UnionType:
		bt := b.(*UnionType)
		return unorderedEqual(at.Members, bt.Members)
	default:
		return false
	}
}

func unorderedEqual(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	used := make([]bool, len(b))
	for _, ta := range a {
		found := false
		for i, tb := range b {
			if used[i] {
				continue
			}
			if Equal(ta, tb) {
				used[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Union implements Union(a, b): returns a if a == b, otherwise
// flattens any Union operand and deduplicates the resulting member set by
// structural equality. Member order in the result is the order in which
// distinct members are first encountered (a's members, then b's).
func Union(a, b Type) Type {
	if Equal(a, b) {
		return a
	}

	var members []Type
	add := func(t Type) {
		if u, ok := t.(*UnionType); ok {
			for _, m := range u.Members {
				members = appendUnique(members, m)
			}
			return
		}
		members = appendUnique(members, t)
	}
	add(a)
	add(b)

	if len(members) == 1 {
		return members[0]
	}
	return &UnionType{Members: members}
}

func appendUnique(members []Type, t Type) []Type {
	for _, m := range members {
		if Equal(m, t) {
			return members
		}
	}
	return append(members, t)
}

// IsNumeric reports whether t is one of the four numeric basic types.
func IsNumeric(t Type) bool {
	switch t.Kind() {
	case KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}
