package model

import (
	"fmt"
	"strings"
)

// Kind identifies the OSC argument type held by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindFloat32
	KindString
	KindBlob
	KindInt64
	KindTimeTag
	KindDouble
	KindChar
	KindColor
	KindMIDI
	KindBool
	KindNil
	KindInfinitum
)

// String returns the kind name.
func (k Kind) String() string {
	names := []string{
		"invalid", "int32", "float32", "string", "blob", "int64",
		"timetag", "double", "char", "color", "midi", "bool", "nil",
		"infinitum",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "invalid"
}

// IsNumeric reports whether values of this kind participate in range
// clipping.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindInt32, KindFloat32, KindInt64, KindDouble:
		return true
	default:
		return false
	}
}

// Value is one typed OSC argument. The zero Value is invalid; construct
// values with the typed constructors below.
type Value struct {
	kind Kind
	i    int64   // int32, int64, char, timetag, bool (0/1)
	f    float64 // float32, double
	s    string  // string
	b    []byte  // blob, color (4 bytes RGBA), midi (4 bytes)
}

// Typed constructors.

func Int32(v int32) Value     { return Value{kind: KindInt32, i: int64(v)} }
func Float32(v float32) Value { return Value{kind: KindFloat32, f: float64(v)} }
func String(v string) Value   { return Value{kind: KindString, s: v} }
func Blob(v []byte) Value     { return Value{kind: KindBlob, b: v} }
func Int64(v int64) Value     { return Value{kind: KindInt64, i: v} }
func TimeTag(v uint64) Value  { return Value{kind: KindTimeTag, i: int64(v)} }
func Double(v float64) Value  { return Value{kind: KindDouble, f: v} }
func Char(v rune) Value       { return Value{kind: KindChar, i: int64(v)} }
func Nil() Value              { return Value{kind: KindNil} }
func Infinitum() Value        { return Value{kind: KindInfinitum} }

// Bool returns a boolean value. Its type tag is T or F depending on the
// current truth value, per OSC 1.0.
func Bool(v bool) Value {
	val := Value{kind: KindBool}
	if v {
		val.i = 1
	}
	return val
}

// Color returns an RGBA color value.
func Color(r, g, b, a uint8) Value {
	return Value{kind: KindColor, b: []byte{r, g, b, a}}
}

// MIDI returns a 4-byte MIDI message value (port, status, data1, data2).
func MIDI(port, status, data1, data2 uint8) Value {
	return Value{kind: KindMIDI, b: []byte{port, status, data1, data2}}
}

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// Accessors. Each returns the zero value if the kind does not match.

func (v Value) Int32() int32     { return int32(v.i) }
func (v Value) Int64() int64     { return v.i }
func (v Value) Float32() float32 { return float32(v.f) }
func (v Value) Double() float64  { return v.f }
func (v Value) Str() string      { return v.s }
func (v Value) Bytes() []byte    { return v.b }
func (v Value) CharRune() rune   { return rune(v.i) }
func (v Value) Time() uint64     { return uint64(v.i) }
func (v Value) BoolVal() bool    { return v.i != 0 }

// Tag returns the OSC type tag character for the value.
func (v Value) Tag() byte {
	switch v.kind {
	case KindInt32:
		return 'i'
	case KindFloat32:
		return 'f'
	case KindString:
		return 's'
	case KindBlob:
		return 'b'
	case KindInt64:
		return 'h'
	case KindTimeTag:
		return 't'
	case KindDouble:
		return 'd'
	case KindChar:
		return 'c'
	case KindColor:
		return 'r'
	case KindMIDI:
		return 'm'
	case KindBool:
		if v.i != 0 {
			return 'T'
		}
		return 'F'
	case KindNil:
		return 'N'
	case KindInfinitum:
		return 'I'
	default:
		return 0
	}
}

// Float returns the value as float64 for range comparison.
// The second return is false for non-numeric kinds.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt32, KindInt64:
		return float64(v.i), true
	case KindFloat32, KindDouble:
		return v.f, true
	default:
		return 0, false
	}
}

// WithFloat returns a copy of the value with its numeric payload
// replaced, preserving the kind. Non-numeric values are returned
// unchanged.
func (v Value) WithFloat(f float64) Value {
	switch v.kind {
	case KindInt32, KindInt64:
		v.i = int64(f)
	case KindFloat32, KindDouble:
		v.f = f
	}
	return v
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindBlob, KindColor, KindMIDI:
		if len(v.b) != len(o.b) {
			return false
		}
		for i := range v.b {
			if v.b[i] != o.b[i] {
				return false
			}
		}
		return true
	case KindFloat32, KindDouble:
		return v.f == o.f
	default:
		return v.i == o.i
	}
}

// JSON returns the value in its OSCQuery JSON representation.
// Blob, MIDI, nil and infinitum render as null; color renders as
// "#RRGGBBAA"; timetag renders as its packed 64-bit integer.
func (v Value) JSON() any {
	switch v.kind {
	case KindInt32:
		return int32(v.i)
	case KindFloat32:
		return float32(v.f)
	case KindString:
		return v.s
	case KindInt64:
		return v.i
	case KindTimeTag:
		return uint64(v.i)
	case KindDouble:
		return v.f
	case KindChar:
		return string(rune(v.i))
	case KindColor:
		return fmt.Sprintf("#%02X%02X%02X%02X", v.b[0], v.b[1], v.b[2], v.b[3])
	case KindBool:
		return v.i != 0
	default:
		return nil
	}
}

// String returns a human-readable form for logs and the control shell.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return fmt.Sprintf("%q", v.s)
	case KindBlob:
		return fmt.Sprintf("blob(%d)", len(v.b))
	case KindBool:
		return fmt.Sprintf("%t", v.i != 0)
	case KindNil:
		return "nil"
	case KindInfinitum:
		return "inf"
	default:
		j := v.JSON()
		return fmt.Sprintf("%v", j)
	}
}

// TagsOf returns the OSC type tag string of a value sequence.
func TagsOf(values []Value) string {
	var sb strings.Builder
	for _, v := range values {
		sb.WriteByte(v.Tag())
	}
	return sb.String()
}

// Compatible reports whether a replacement value sequence matches the
// shape of an existing one: same length and, slot by slot, the same
// kind (T and F share KindBool, so toggling a boolean is compatible).
func Compatible(current, incoming []Value) bool {
	if len(current) != len(incoming) {
		return false
	}
	for i := range current {
		if current[i].kind != incoming[i].kind {
			return false
		}
	}
	return true
}
