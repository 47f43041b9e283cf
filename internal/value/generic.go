package value

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/format"
)

// JSON mapping, directed by the registry:
//
//	UNIT, UNITSTRUCT, None     null
//	integers                   number (or decimal string)
//	floats                     number, or "NaN", "Infinity", "-Infinity"
//	BYTES                      hex string
//	SEQ, TUPLE, TUPLEARRAY,
//	TUPLESTRUCT                array
//	MAP                        array of [key, value] pairs
//	STRUCT                     object keyed by field name
//	NEWTYPESTRUCT              the wrapped value
//	ENUM                       {"Variant": payload}, or "Variant" for unit variants

// FromJSON parses a JSON document as a value of the named container.
func FromJSON(reg *format.Registry, typeName string, data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var x any
	if err := dec.Decode(&x); err != nil {
		return nil, errors.Wrap(err, "parse value")
	}
	return FromGeneric(reg, typeName, x)
}

// FromGeneric converts a decoded JSON or YAML tree (maps, slices,
// scalars) into a value of the named container.
func FromGeneric(reg *format.Registry, typeName string, x any) (Value, error) {
	g := &generic{reg: reg}
	return g.named(typeName, x)
}

type generic struct {
	reg *format.Registry
}

func (g *generic) named(name string, x any) (Value, error) {
	cf, ok := g.reg.Lookup(name)
	if !ok {
		return nil, errors.Newf("unknown container %q", name)
	}
	switch c := cf.(type) {
	case format.UnitStruct:
		if x != nil {
			return nil, errors.Newf("%s: expected null", name)
		}
		return Unit{}, nil
	case format.NewTypeStruct:
		v, err := g.format(c.Inner, x)
		return v, errors.Wrap(err, name)
	case format.TupleStruct:
		v, err := g.tuple(c.Elems, x)
		return v, errors.Wrap(err, name)
	case format.Struct:
		v, err := g.fields(c.Fields, x)
		return v, errors.Wrap(err, name)
	case format.Enum:
		vname, payload, err := variantOf(x)
		if err != nil {
			return nil, errors.Wrap(err, name)
		}
		variant, ok := c.VariantByName(vname)
		if !ok {
			return nil, errors.Newf("%s: no variant %q", name, vname)
		}
		var p Value
		switch vf := variant.Payload.(type) {
		case format.UnitVariant:
			if payload != nil {
				return nil, errors.Newf("%s::%s: unit variant takes no payload", name, vname)
			}
			p = Unit{}
		case format.NewTypeVariant:
			p, err = g.format(vf.Inner, payload)
		case format.TupleVariant:
			p, err = g.tuple(vf.Elems, payload)
		case format.StructVariant:
			p, err = g.fields(vf.Fields, payload)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s::%s", name, vname)
		}
		return Variant{Index: variant.Index, Name: variant.Name, Payload: p}, nil
	}
	return nil, errors.Newf("%s: unsupported container %T", name, cf)
}

func variantOf(x any) (string, any, error) {
	switch t := x.(type) {
	case string:
		return t, nil, nil
	case map[string]any:
		if len(t) != 1 {
			return "", nil, errors.New("enum value must have exactly one key")
		}
		for k, v := range t {
			return k, v, nil
		}
	}
	return "", nil, errors.Newf("enum value must be an object or string, got %T", x)
}

func (g *generic) tuple(elems []format.Format, x any) (Value, error) {
	items, ok := x.([]any)
	if !ok || len(items) != len(elems) {
		return nil, errors.Newf("expected an array of %d elements", len(elems))
	}
	out := make(Tuple, len(elems))
	for i, f := range elems {
		v, err := g.format(f, items[i])
		if err != nil {
			return nil, errors.Wrapf(err, "%d", i)
		}
		out[i] = v
	}
	return out, nil
}

func (g *generic) fields(fields []format.Named, x any) (Value, error) {
	obj, ok := x.(map[string]any)
	if !ok {
		return nil, errors.Newf("expected an object, got %T", x)
	}
	out := make(Struct, len(fields))
	for i, f := range fields {
		raw, present := obj[f.Name]
		if !present && !acceptsNull(f.Format) {
			return nil, errors.Newf("missing field %q", f.Name)
		}
		v, err := g.format(f.Format, raw)
		if err != nil {
			return nil, errors.Wrap(err, f.Name)
		}
		out[i] = Field{Name: f.Name, Value: v}
	}
	if len(obj) > len(fields) {
		known := make(map[string]bool, len(fields))
		for _, f := range fields {
			known[f.Name] = true
		}
		var extra []string
		for k := range obj {
			if !known[k] {
				extra = append(extra, k)
			}
		}
		sort.Strings(extra)
		return nil, errors.Newf("unknown fields %s", strings.Join(extra, ", "))
	}
	return out, nil
}

// acceptsNull reports whether an absent field can default to null.
func acceptsNull(f format.Format) bool {
	if _, ok := f.(format.Option); ok {
		return true
	}
	return f == format.Unit
}

func (g *generic) format(f format.Format, x any) (Value, error) {
	switch t := f.(type) {
	case format.Primitive:
		return primitiveFromGeneric(t, x)
	case format.TypeName:
		return g.named(t.Name, x)
	case format.Option:
		if x == nil {
			return None, nil
		}
		v, err := g.format(t.Elem, x)
		if err != nil {
			return nil, err
		}
		return Some(v), nil
	case format.Seq:
		items, ok := x.([]any)
		if !ok {
			return nil, errors.Newf("expected an array, got %T", x)
		}
		out := make(Seq, len(items))
		for i, item := range items {
			v, err := g.format(t.Elem, item)
			if err != nil {
				return nil, errors.Wrapf(err, "%d", i)
			}
			out[i] = v
		}
		return out, nil
	case format.Map:
		items, ok := x.([]any)
		if !ok {
			return nil, errors.Newf("expected an array of [key, value] pairs, got %T", x)
		}
		out := make(Map, len(items))
		for i, item := range items {
			pair, ok := item.([]any)
			if !ok || len(pair) != 2 {
				return nil, errors.Newf("entry %d is not a [key, value] pair", i)
			}
			k, err := g.format(t.Key, pair[0])
			if err != nil {
				return nil, errors.Wrapf(err, "key %d", i)
			}
			v, err := g.format(t.Value, pair[1])
			if err != nil {
				return nil, errors.Wrapf(err, "value %d", i)
			}
			out[i] = Entry{Key: k, Value: v}
		}
		return out, nil
	case format.Tuple:
		return g.tuple(t.Elems, x)
	case format.TupleArray:
		elems := make([]format.Format, t.Size)
		for i := range elems {
			elems[i] = t.Content
		}
		return g.tuple(elems, x)
	}
	return nil, errors.Newf("unsupported format %T", f)
}

func primitiveFromGeneric(p format.Primitive, x any) (Value, error) {
	switch p {
	case format.Unit:
		if x != nil {
			return nil, errors.Newf("expected null, got %T", x)
		}
		return Unit{}, nil
	case format.Bool:
		b, ok := x.(bool)
		if !ok {
			return nil, errors.Newf("expected a boolean, got %T", x)
		}
		return Bool(b), nil
	case format.F32:
		f, err := floatFromGeneric(x)
		if err != nil {
			return nil, err
		}
		return Float32(f), nil
	case format.F64:
		f, err := floatFromGeneric(x)
		if err != nil {
			return nil, err
		}
		return Float(f), nil
	case format.Str:
		s, ok := x.(string)
		if !ok {
			return nil, errors.Newf("expected a string, got %T", x)
		}
		return String(s), nil
	case format.Bytes:
		s, ok := x.(string)
		if !ok {
			return nil, errors.Newf("expected a hex string, got %T", x)
		}
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrap(err, "bytes")
		}
		return Bytes(b), nil
	}
	n, err := intFromGeneric(x)
	if err != nil {
		return nil, err
	}
	if !fitsInt(p, n) {
		return nil, errors.Newf("%s does not fit in %s", n, p.Tag())
	}
	return Int{V: n}, nil
}

func intFromGeneric(x any) (*big.Int, error) {
	switch t := x.(type) {
	case json.Number:
		return parseBigInt(t.String())
	case string:
		return parseBigInt(t)
	case int:
		return big.NewInt(int64(t)), nil
	case int64:
		return big.NewInt(t), nil
	case uint64:
		return new(big.Int).SetUint64(t), nil
	case float64:
		if t != math.Trunc(t) || math.IsInf(t, 0) {
			return nil, errors.Newf("%v is not an integer", t)
		}
		n, _ := big.NewFloat(t).Int(nil)
		return n, nil
	}
	return nil, errors.Newf("expected an integer, got %T", x)
}

func parseBigInt(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Newf("%q is not an integer", s)
	}
	return n, nil
}

func floatFromGeneric(x any) (float64, error) {
	switch t := x.(type) {
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		return f, errors.Wrap(err, "float")
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		switch t {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		f, err := strconv.ParseFloat(t, 64)
		return f, errors.Wrap(err, "float")
	}
	return 0, errors.Newf("expected a number, got %T", x)
}

// ToJSON renders v, a value of the named container, as JSON. Struct
// fields keep their declared order.
func ToJSON(reg *format.Registry, typeName string, v Value) ([]byte, error) {
	var buf bytes.Buffer
	w := &jsonWriter{reg: reg, buf: &buf}
	if err := w.named(typeName, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonWriter struct {
	reg *format.Registry
	buf *bytes.Buffer
}

func (w *jsonWriter) str(s string) {
	b, _ := json.Marshal(s)
	w.buf.Write(b)
}

func (w *jsonWriter) named(name string, v Value) error {
	cf, ok := w.reg.Lookup(name)
	if !ok {
		return errors.Newf("unknown container %q", name)
	}
	switch c := cf.(type) {
	case format.UnitStruct:
		w.buf.WriteString("null")
		return nil
	case format.NewTypeStruct:
		return w.format(c.Inner, v)
	case format.TupleStruct:
		return w.tuple(c.Elems, v)
	case format.Struct:
		return w.fields(c.Fields, v)
	case format.Enum:
		vv, ok := v.(Variant)
		if !ok {
			return mismatch("ENUM", v)
		}
		variant, ok := resolveVariant(c, vv)
		if !ok {
			return errors.Newf("%s: no variant %d", name, vv.Index)
		}
		if _, unit := variant.Payload.(format.UnitVariant); unit {
			w.str(variant.Name)
			return nil
		}
		w.buf.WriteByte('{')
		w.str(variant.Name)
		w.buf.WriteByte(':')
		var err error
		switch vf := variant.Payload.(type) {
		case format.NewTypeVariant:
			err = w.format(vf.Inner, vv.Payload)
		case format.TupleVariant:
			err = w.tuple(vf.Elems, vv.Payload)
		case format.StructVariant:
			err = w.fields(vf.Fields, vv.Payload)
		}
		w.buf.WriteByte('}')
		return err
	}
	return errors.Newf("%s: unsupported container %T", name, cf)
}

func (w *jsonWriter) tuple(elems []format.Format, v Value) error {
	t, ok := v.(Tuple)
	if !ok || len(t) != len(elems) {
		return mismatch(format.Tuple{Elems: elems}.String(), v)
	}
	w.buf.WriteByte('[')
	for i, f := range elems {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		if err := w.format(f, t[i]); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (w *jsonWriter) fields(fields []format.Named, v Value) error {
	st, ok := v.(Struct)
	if !ok || len(st) != len(fields) {
		return mismatch("STRUCT", v)
	}
	w.buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			w.buf.WriteByte(',')
		}
		w.str(f.Name)
		w.buf.WriteByte(':')
		if err := w.format(f.Format, st[i].Value); err != nil {
			return err
		}
	}
	w.buf.WriteByte('}')
	return nil
}

func (w *jsonWriter) format(f format.Format, v Value) error {
	switch t := f.(type) {
	case format.Primitive:
		return w.primitive(t, v)
	case format.TypeName:
		return w.named(t.Name, v)
	case format.Option:
		o, ok := v.(Option)
		if !ok {
			return mismatch(t.String(), v)
		}
		if o.Some == nil {
			w.buf.WriteString("null")
			return nil
		}
		return w.format(t.Elem, o.Some)
	case format.Seq:
		items, ok := v.(Seq)
		if !ok {
			return mismatch(t.String(), v)
		}
		w.buf.WriteByte('[')
		for i, item := range items {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			if err := w.format(t.Elem, item); err != nil {
				return err
			}
		}
		w.buf.WriteByte(']')
		return nil
	case format.Map:
		m, ok := v.(Map)
		if !ok {
			return mismatch(t.String(), v)
		}
		w.buf.WriteByte('[')
		for i, e := range m {
			if i > 0 {
				w.buf.WriteByte(',')
			}
			w.buf.WriteByte('[')
			if err := w.format(t.Key, e.Key); err != nil {
				return err
			}
			w.buf.WriteByte(',')
			if err := w.format(t.Value, e.Value); err != nil {
				return err
			}
			w.buf.WriteByte(']')
		}
		w.buf.WriteByte(']')
		return nil
	case format.Tuple:
		return w.tuple(t.Elems, v)
	case format.TupleArray:
		elems := make([]format.Format, t.Size)
		for i := range elems {
			elems[i] = t.Content
		}
		return w.tuple(elems, v)
	}
	return errors.Newf("unsupported format %T", f)
}

func (w *jsonWriter) primitive(p format.Primitive, v Value) error {
	switch x := v.(type) {
	case Unit:
		w.buf.WriteString("null")
	case Bool:
		w.buf.WriteString(strconv.FormatBool(bool(x)))
	case Int:
		if x.V == nil {
			return mismatch(p.Tag(), v)
		}
		w.buf.WriteString(x.V.String())
	case Float32:
		w.float(float64(x), 32)
	case Float:
		w.float(float64(x), 64)
	case String:
		w.str(string(x))
	case Bytes:
		w.str(hex.EncodeToString(x))
	default:
		return mismatch(p.Tag(), v)
	}
	return nil
}

func (w *jsonWriter) float(f float64, bits int) {
	switch {
	case math.IsNaN(f):
		w.str("NaN")
	case math.IsInf(f, 1):
		w.str("Infinity")
	case math.IsInf(f, -1):
		w.str("-Infinity")
	default:
		w.buf.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	}
}
