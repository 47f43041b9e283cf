package golang

import (
	"strconv"
	"strings"

	"github.com/roach88/serdegen/internal/format"
)

type kind int

const (
	kindPrimitive kind = iota
	kindOption
	kindSeq
	kindMap
	kindTuple
	kindArray
	kindNamed
)

// gtype is a format as rendered in Go, with indirection decided.
type gtype struct {
	kind  kind
	prim  format.Primitive
	elems []*gtype
	size  int

	// named types
	ident string // "Point" or "geo.Point"
	deser string // "DeserializePoint" or "geo.DeserializePoint"
	ptr   bool
}

var primitives = map[format.Primitive]struct {
	typ    string
	method string
}{
	format.Unit:  {"struct{}", "Unit"},
	format.Bool:  {"bool", "Bool"},
	format.I8:    {"int8", "I8"},
	format.I16:   {"int16", "I16"},
	format.I32:   {"int32", "I32"},
	format.I64:   {"int64", "I64"},
	format.I128:  {"serde.Int128", "I128"},
	format.U8:    {"uint8", "U8"},
	format.U16:   {"uint16", "U16"},
	format.U32:   {"uint32", "U32"},
	format.U64:   {"uint64", "U64"},
	format.U128:  {"serde.Uint128", "U128"},
	format.F32:   {"float32", "F32"},
	format.F64:   {"float64", "F64"},
	format.Str:   {"string", "Str"},
	format.Bytes: {"[]byte", "Bytes"},
}

// expr is the Go type expression.
func (t *gtype) expr() string {
	switch t.kind {
	case kindPrimitive:
		return primitives[t.prim].typ
	case kindOption:
		return "*" + t.elems[0].expr()
	case kindSeq:
		return "[]" + t.elems[0].expr()
	case kindMap:
		return "map[" + t.elems[0].expr() + "]" + t.elems[1].expr()
	case kindTuple:
		if len(t.elems) == 0 {
			return "struct{}"
		}
		fields := make([]string, len(t.elems))
		for i, e := range t.elems {
			fields[i] = "Field" + strconv.Itoa(i) + " " + e.expr()
		}
		return "struct {" + strings.Join(fields, "; ") + "}"
	case kindArray:
		return "[" + strconv.Itoa(t.size) + "]" + t.elems[0].expr()
	case kindNamed:
		if t.ptr {
			return "*" + t.ident
		}
		return t.ident
	}
	return "any"
}

// mangle names the helper pair serializing t.
func (t *gtype) mangle() string {
	switch t.kind {
	case kindPrimitive:
		return strings.ToLower(primitives[t.prim].method)
	case kindOption:
		return "option_" + t.elems[0].mangle()
	case kindSeq:
		return "vector_" + t.elems[0].mangle()
	case kindMap:
		return "map_" + t.elems[0].mangle() + "_to_" + t.elems[1].mangle()
	case kindTuple:
		parts := make([]string, len(t.elems))
		for i, e := range t.elems {
			parts[i] = e.mangle()
		}
		return "tuple" + strconv.Itoa(len(t.elems)) + "_" + strings.Join(parts, "_")
	case kindArray:
		return "array" + strconv.Itoa(t.size) + "_" + t.elems[0].mangle() + "_array"
	case kindNamed:
		name := strings.ReplaceAll(t.ident, ".", "_")
		if t.ptr {
			return "ptr_" + name
		}
		return name
	}
	return "unknown"
}

func (t *gtype) composite() bool {
	return t.kind != kindPrimitive && t.kind != kindNamed
}

// serializeCall returns an expression of type error writing expr.
func (t *gtype) serializeCall(expr string) string {
	switch t.kind {
	case kindPrimitive:
		return "serializer.Serialize" + primitives[t.prim].method + "(" + expr + ")"
	case kindNamed:
		return expr + ".Serialize(serializer)"
	}
	return "serialize_" + t.mangle() + "(" + expr + ", serializer)"
}

// deserializeCall returns an expression of type (T, error), where T is
// expr() without the pointer of a boxed named type.
func (t *gtype) deserializeCall() string {
	switch t.kind {
	case kindPrimitive:
		return "deserializer.Deserialize" + primitives[t.prim].method + "()"
	case kindNamed:
		return t.deser + "(deserializer)"
	}
	return "deserialize_" + t.mangle() + "(deserializer)"
}

// assign returns the statement storing the decoded val into target.
func (t *gtype) assign(target string) string {
	if t.kind == kindNamed && t.ptr {
		return target + " = &val"
	}
	return target + " = val"
}
