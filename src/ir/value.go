// value.go models the literal values a Constant expression can carry. Value
// is a tagged sum: exactly one of its accessors is meaningful for a given
// Kind, selected the same way TypeCode selects a Type variant.

package ir

// TypeCode tags which basic type a Constant or Default expression carries.
type TypeCode int

const (
	TypeCodeUnknown TypeCode = iota
	TypeCodeEmpty
	TypeCodeBoolean
	TypeCodeChar
	TypeCodeInt32
	TypeCodeInt64
	TypeCodeFloat32
	TypeCodeFloat64
	TypeCodeString
)

// Value is the literal payload of a Constant expression.
type Value struct {
	Code TypeCode

	boolean bool
	char    rune
	i32     int32
	i64     int64
	f32     float32
	f64     float64
	str     string
}

// BoolValue builds a Boolean literal value.
func BoolValue(b bool) Value { return Value{Code: TypeCodeBoolean, boolean: b} }

// CharValue builds a Char literal value.
func CharValue(r rune) Value { return Value{Code: TypeCodeChar, char: r} }

// Int32Value builds an Int32 literal value.
func Int32Value(v int32) Value { return Value{Code: TypeCodeInt32, i32: v} }

// Int64Value builds an Int64 literal value.
func Int64Value(v int64) Value { return Value{Code: TypeCodeInt64, i64: v} }

// Float32Value builds a Float32 literal value.
func Float32Value(v float32) Value { return Value{Code: TypeCodeFloat32, f32: v} }

// Float64Value builds a Float64 literal value.
func Float64Value(v float64) Value { return Value{Code: TypeCodeFloat64, f64: v} }

// StringValue builds a String literal value.
func StringValue(s string) Value { return Value{Code: TypeCodeString, str: s} }

// Bool returns the payload of a Boolean value. Undefined for other kinds.
func (v Value) Bool() bool { return v.boolean }

// Char returns the payload of a Char value. Undefined for other kinds.
func (v Value) Char() rune { return v.char }

// Int32 returns the payload of an Int32 value. Undefined for other kinds.
func (v Value) Int32() int32 { return v.i32 }

// Int64 returns the payload of an Int64 value. Undefined for other kinds.
func (v Value) Int64() int64 { return v.i64 }

// Float32 returns the payload of a Float32 value. Undefined for other kinds.
func (v Value) Float32() float32 { return v.f32 }

// Float64 returns the payload of a Float64 value. Undefined for other kinds.
func (v Value) Float64() float64 { return v.f64 }

// String returns the payload of a String value. Undefined for other kinds.
func (v Value) String() string { return v.str }
