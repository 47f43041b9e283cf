package format

import (
	"fmt"
	"strings"
)

// Format describes the shape of a value. It is a sealed sum type: only the
// types in this file implement it.
type Format interface {
	isFormat()
	String() string
}

// Primitive is a leaf Format.
type Primitive uint8

const (
	Unit Primitive = iota + 1
	Bool
	I8
	I16
	I32
	I64
	I128
	U8
	U16
	U32
	U64
	U128
	F32
	F64
	Str
	Bytes
)

var primitiveTags = []struct {
	p   Primitive
	tag string
}{
	{Unit, "UNIT"},
	{Bool, "BOOL"},
	{I8, "I8"},
	{I16, "I16"},
	{I32, "I32"},
	{I64, "I64"},
	{I128, "I128"},
	{U8, "U8"},
	{U16, "U16"},
	{U32, "U32"},
	{U64, "U64"},
	{U128, "U128"},
	{F32, "F32"},
	{F64, "F64"},
	{Str, "STR"},
	{Bytes, "BYTES"},
}

func (Primitive) isFormat() {}

// Tag returns the interchange tag, e.g. "U32".
func (p Primitive) Tag() string {
	for _, pt := range primitiveTags {
		if pt.p == p {
			return pt.tag
		}
	}
	return fmt.Sprintf("PRIMITIVE(%d)", uint8(p))
}

func (p Primitive) String() string { return p.Tag() }

// IsFloat reports whether p is F32 or F64.
func (p Primitive) IsFloat() bool { return p == F32 || p == F64 }

// Width returns the fixed encoded size in bytes, or 0 for variable-size
// primitives (Str, Bytes) and Unit.
func (p Primitive) Width() int {
	switch p {
	case Bool, I8, U8:
		return 1
	case I16, U16:
		return 2
	case I32, U32, F32:
		return 4
	case I64, U64, F64:
		return 8
	case I128, U128:
		return 16
	}
	return 0
}

// PrimitiveFromTag is the inverse of Primitive.Tag.
func PrimitiveFromTag(tag string) (Primitive, bool) {
	for _, pt := range primitiveTags {
		if pt.tag == tag {
			return pt.p, true
		}
	}
	return 0, false
}

// Option is an optional value.
type Option struct {
	Elem Format
}

// Seq is a variable-length homogeneous sequence.
type Seq struct {
	Elem Format
}

// Map is an ordered-by-key-bytes map.
type Map struct {
	Key   Format
	Value Format
}

// Tuple is a heterogeneous fixed-arity sequence.
type Tuple struct {
	Elems []Format
}

// TupleArray is a homogeneous fixed-size array.
type TupleArray struct {
	Content Format
	Size    int
}

// TypeName references a container defined in the same registry.
type TypeName struct {
	Name string
}

func (Option) isFormat()     {}
func (Seq) isFormat()        {}
func (Map) isFormat()        {}
func (Tuple) isFormat()      {}
func (TupleArray) isFormat() {}
func (TypeName) isFormat()   {}

func (f Option) String() string { return "Option<" + f.Elem.String() + ">" }
func (f Seq) String() string    { return "Seq<" + f.Elem.String() + ">" }
func (f Map) String() string    { return "Map<" + f.Key.String() + ", " + f.Value.String() + ">" }
func (f Tuple) String() string  { return "(" + joinFormats(f.Elems) + ")" }
func (f TupleArray) String() string {
	return fmt.Sprintf("[%s; %d]", f.Content.String(), f.Size)
}
func (f TypeName) String() string { return f.Name }

func joinFormats(fs []Format) string {
	parts := make([]string, len(fs))
	for i, f := range fs {
		parts[i] = f.String()
	}
	return strings.Join(parts, ", ")
}

// Equal reports structural equality of two formats.
func Equal(a, b Format) bool {
	switch x := a.(type) {
	case Primitive:
		y, ok := b.(Primitive)
		return ok && x == y
	case Option:
		y, ok := b.(Option)
		return ok && Equal(x.Elem, y.Elem)
	case Seq:
		y, ok := b.(Seq)
		return ok && Equal(x.Elem, y.Elem)
	case Map:
		y, ok := b.(Map)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case Tuple:
		y, ok := b.(Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case TupleArray:
		y, ok := b.(TupleArray)
		return ok && x.Size == y.Size && Equal(x.Content, y.Content)
	case TypeName:
		y, ok := b.(TypeName)
		return ok && x.Name == y.Name
	}
	return false
}

// Walk calls fn on f and every nested format, parents first. The indirect
// argument reports whether the format sits below a Seq or Map.
func Walk(f Format, fn func(f Format, indirect bool)) {
	walk(f, false, fn)
}

func walk(f Format, indirect bool, fn func(Format, bool)) {
	fn(f, indirect)
	switch x := f.(type) {
	case Option:
		walk(x.Elem, indirect, fn)
	case Seq:
		walk(x.Elem, true, fn)
	case Map:
		walk(x.Key, true, fn)
		walk(x.Value, true, fn)
	case Tuple:
		for _, e := range x.Elems {
			walk(e, indirect, fn)
		}
	case TupleArray:
		walk(x.Content, indirect, fn)
	}
}
