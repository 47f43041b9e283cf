// Package value is a registry-directed codec for dynamic values. It is the
// reference implementation of both encodings that generated code is
// checked against, and backs the encode/decode commands.
//
// Values mirror formats one to one:
//
//	Unit, UnitStruct        Unit{}
//	BOOL                    Bool
//	I8..I128, U8..U128      Int
//	F32                     Float32
//	F64                     Float
//	STR                     String
//	BYTES                   Bytes
//	OPTION                  Option
//	SEQ                     Seq
//	MAP                     Map
//	TUPLE, TUPLEARRAY,
//	TUPLESTRUCT             Tuple
//	STRUCT                  Struct
//	NEWTYPESTRUCT           the wrapped value
//	ENUM                    Variant
package value

import (
	"bytes"
	"math"
	"math/big"
)

// Value is a sealed interface over the types below.
type Value interface {
	isValue()
}

type Unit struct{}

type Bool bool

// Int holds any integer kind. The format decides the width.
type Int struct {
	V *big.Int
}

// Float holds F64 values.
type Float float64

// Float32 holds F32 values. It is kept separate from Float so that every
// bit pattern, NaN payloads included, survives a round trip.
type Float32 float32

type String string

type Bytes []byte

// Option is absent when Some is nil.
type Option struct {
	Some Value
}

type Seq []Value

// Map keeps its entries in the order given. The canonical encoding sorts
// them; the non-canonical one writes them as given.
type Map []Entry

type Entry struct {
	Key   Value
	Value Value
}

type Tuple []Value

// Struct holds field values in declared order.
type Struct []Field

type Field struct {
	Name  string
	Value Value
}

// Variant is an enum value. Payload is Unit{} for unit variants, the inner
// value for newtype variants, Tuple or Struct otherwise.
type Variant struct {
	Index   uint32
	Name    string
	Payload Value
}

func (Unit) isValue()    {}
func (Bool) isValue()    {}
func (Int) isValue()     {}
func (Float) isValue()   {}
func (Float32) isValue() {}
func (String) isValue()  {}
func (Bytes) isValue()   {}
func (Option) isValue()  {}
func (Seq) isValue()     {}
func (Map) isValue()     {}
func (Tuple) isValue()   {}
func (Struct) isValue()  {}
func (Variant) isValue() {}

// I64 builds an Int from a signed value.
func I64(v int64) Int { return Int{V: big.NewInt(v)} }

// U64 builds an Int from an unsigned value.
func U64(v uint64) Int { return Int{V: new(big.Int).SetUint64(v)} }

// Some wraps v in a present Option.
func Some(v Value) Option { return Option{Some: v} }

// None is the absent Option.
var None = Option{}

// Equal reports logical equality. Map entries compare as sets, floats
// compare by bit pattern so NaN equals itself.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Unit:
		_, ok := b.(Unit)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x.V != nil && y.V != nil && x.V.Cmp(y.V) == 0
	case Float:
		y, ok := b.(Float)
		return ok && math.Float64bits(float64(x)) == math.Float64bits(float64(y))
	case Float32:
		y, ok := b.(Float32)
		return ok && math.Float32bits(float32(x)) == math.Float32bits(float32(y))
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case Option:
		y, ok := b.(Option)
		if !ok || (x.Some == nil) != (y.Some == nil) {
			return false
		}
		return x.Some == nil || Equal(x.Some, y.Some)
	case Seq:
		y, ok := b.(Seq)
		return ok && equalList(x, y)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalList(x, y)
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		used := make([]bool, len(y))
		for _, e := range x {
			found := false
			for j, f := range y {
				if !used[j] && Equal(e.Key, f.Key) && Equal(e.Value, f.Value) {
					used[j] = true
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case Struct:
		y, ok := b.(Struct)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i].Name != y[i].Name || !Equal(x[i].Value, y[i].Value) {
				return false
			}
		}
		return true
	case Variant:
		y, ok := b.(Variant)
		return ok && sameVariant(x, y) && Equal(x.Payload, y.Payload)
	}
	return false
}

// sameVariant compares names when both sides carry one. Encode resolves a
// named variant by name and ignores its Index.
func sameVariant(x, y Variant) bool {
	if x.Name != "" && y.Name != "" {
		return x.Name == y.Name
	}
	return x.Index == y.Index
}

func equalList(x, y []Value) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if !Equal(x[i], y[i]) {
			return false
		}
	}
	return true
}
