package value

import (
	"fmt"
	"math/big"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/encoding"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/runtime/golang/serde"
)

// Codec encodes and decodes values of a registry's containers.
type Codec struct {
	reg *format.Registry
	enc encoding.Encoding
}

// NewCodec returns a codec for reg. The registry must be valid.
func NewCodec(reg *format.Registry, enc encoding.Encoding) *Codec {
	return &Codec{reg: reg, enc: enc}
}

// Registry returns the registry the codec was built for.
func (c *Codec) Registry() *format.Registry { return c.reg }

// Encoding returns the codec's wire format.
func (c *Codec) Encoding() encoding.Encoding { return c.enc }

// Encode serializes v as the named container.
func (c *Codec) Encode(typeName string, v Value) ([]byte, error) {
	s := c.enc.NewSerializer()
	if err := c.encodeNamed(s, typeName, v); err != nil {
		return nil, err
	}
	return append([]byte(nil), s.GetBytes()...), nil
}

// Decode deserializes data as the named container. The whole input must
// be consumed. On failure no value is returned.
func (c *Codec) Decode(typeName string, data []byte) (Value, error) {
	d := c.enc.NewDeserializer(data)
	v, err := c.decodeNamed(d, typeName)
	if err != nil {
		return nil, err
	}
	if err := d.CheckEnd(); err != nil {
		return nil, err
	}
	return v, nil
}

// MismatchError reports a value that does not fit its format.
type MismatchError struct {
	Want string
	Got  Value
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("value %T does not match format %s", e.Got, e.Want)
}

func mismatch(want string, got Value) error {
	return &MismatchError{Want: want, Got: got}
}

func (c *Codec) lookup(name string) (format.ContainerFormat, error) {
	cf, ok := c.reg.Lookup(name)
	if !ok {
		return nil, errors.Newf("unknown container %q", name)
	}
	return cf, nil
}

func (c *Codec) encodeNamed(s serde.Serializer, name string, v Value) error {
	cf, err := c.lookup(name)
	if err != nil {
		return err
	}
	if err := s.IncreaseContainerDepth(); err != nil {
		return err
	}
	defer s.DecreaseContainerDepth()

	switch x := cf.(type) {
	case format.UnitStruct:
		if _, ok := v.(Unit); !ok {
			return errors.Wrap(mismatch("UNITSTRUCT", v), name)
		}
		return nil
	case format.NewTypeStruct:
		return errors.Wrap(c.encodeFormat(s, x.Inner, v), name)
	case format.TupleStruct:
		return errors.Wrap(c.encodeTuple(s, x.Elems, v), name)
	case format.Struct:
		return errors.Wrap(c.encodeFields(s, x.Fields, v), name)
	case format.Enum:
		vv, ok := v.(Variant)
		if !ok {
			return errors.Wrap(mismatch("ENUM", v), name)
		}
		variant, ok := resolveVariant(x, vv)
		if !ok {
			return errors.Newf("%s: no variant %q (index %d)", name, vv.Name, vv.Index)
		}
		if err := s.SerializeVariantIndex(variant.Index); err != nil {
			return err
		}
		return errors.Wrapf(c.encodePayload(s, variant.Payload, vv.Payload), "%s::%s", name, variant.Name)
	}
	return errors.Newf("%s: unsupported container %T", name, cf)
}

// resolveVariant prefers the variant name when one is given.
func resolveVariant(e format.Enum, v Variant) (format.Variant, bool) {
	if v.Name != "" {
		return e.VariantByName(v.Name)
	}
	return e.Variant(v.Index)
}

func (c *Codec) encodePayload(s serde.Serializer, p format.VariantFormat, v Value) error {
	switch x := p.(type) {
	case format.UnitVariant:
		if _, ok := v.(Unit); !ok && v != nil {
			return mismatch("UNIT", v)
		}
		return nil
	case format.NewTypeVariant:
		return c.encodeFormat(s, x.Inner, v)
	case format.TupleVariant:
		return c.encodeTuple(s, x.Elems, v)
	case format.StructVariant:
		return c.encodeFields(s, x.Fields, v)
	}
	return errors.Newf("unsupported variant payload %T", p)
}

func (c *Codec) encodeTuple(s serde.Serializer, elems []format.Format, v Value) error {
	t, ok := v.(Tuple)
	if !ok || len(t) != len(elems) {
		return mismatch(format.Tuple{Elems: elems}.String(), v)
	}
	for i, f := range elems {
		if err := c.encodeFormat(s, f, t[i]); err != nil {
			return errors.Wrapf(err, "%d", i)
		}
	}
	return nil
}

func (c *Codec) encodeFields(s serde.Serializer, fields []format.Named, v Value) error {
	st, ok := v.(Struct)
	if !ok || len(st) != len(fields) {
		return mismatch("STRUCT", v)
	}
	for i, f := range fields {
		if st[i].Name != f.Name {
			return errors.Newf("field %d is %q, want %q", i, st[i].Name, f.Name)
		}
		if err := c.encodeFormat(s, f.Format, st[i].Value); err != nil {
			return errors.Wrap(err, f.Name)
		}
	}
	return nil
}

func (c *Codec) encodeFormat(s serde.Serializer, f format.Format, v Value) error {
	switch x := f.(type) {
	case format.Primitive:
		return encodePrimitive(s, x, v)
	case format.TypeName:
		return c.encodeNamed(s, x.Name, v)
	case format.Option:
		o, ok := v.(Option)
		if !ok {
			return mismatch(x.String(), v)
		}
		if err := s.SerializeOptionTag(o.Some != nil); err != nil {
			return err
		}
		if o.Some == nil {
			return nil
		}
		return c.encodeFormat(s, x.Elem, o.Some)
	case format.Seq:
		items, ok := v.(Seq)
		if !ok {
			return mismatch(x.String(), v)
		}
		if err := s.SerializeLen(uint64(len(items))); err != nil {
			return err
		}
		for i, item := range items {
			if err := c.encodeFormat(s, x.Elem, item); err != nil {
				return errors.Wrapf(err, "%d", i)
			}
		}
		return nil
	case format.Map:
		m, ok := v.(Map)
		if !ok {
			return mismatch(x.String(), v)
		}
		if err := s.SerializeLen(uint64(len(m))); err != nil {
			return err
		}
		offsets := make([]uint64, len(m))
		seen := make(map[string]int, len(m))
		for i, e := range m {
			offsets[i] = s.GetBufferOffset()
			if err := c.encodeFormat(s, x.Key, e.Key); err != nil {
				return errors.Wrapf(err, "key %d", i)
			}
			key := string(s.GetBytes()[offsets[i]:s.GetBufferOffset()])
			if j, dup := seen[key]; dup {
				return serde.NewError(serde.DuplicateKey, "keys %d and %d encode to the same bytes", j, i)
			}
			seen[key] = i
			if err := c.encodeFormat(s, x.Value, e.Value); err != nil {
				return errors.Wrapf(err, "value %d", i)
			}
		}
		// A Map value carries its own order; only the canonical encoding
		// reorders it.
		if c.enc == encoding.Canonical {
			s.SortMapEntries(offsets)
		}
		return nil
	case format.Tuple:
		return c.encodeTuple(s, x.Elems, v)
	case format.TupleArray:
		t, ok := v.(Tuple)
		if !ok || len(t) != x.Size {
			return mismatch(x.String(), v)
		}
		for i, item := range t {
			if err := c.encodeFormat(s, x.Content, item); err != nil {
				return errors.Wrapf(err, "%d", i)
			}
		}
		return nil
	}
	return errors.Newf("unsupported format %T", f)
}

func encodePrimitive(s serde.Serializer, p format.Primitive, v Value) error {
	switch p {
	case format.Unit:
		if _, ok := v.(Unit); !ok {
			return mismatch(p.Tag(), v)
		}
		return s.SerializeUnit(struct{}{})
	case format.Bool:
		b, ok := v.(Bool)
		if !ok {
			return mismatch(p.Tag(), v)
		}
		return s.SerializeBool(bool(b))
	case format.F32:
		fl, ok := v.(Float32)
		if !ok {
			return mismatch(p.Tag(), v)
		}
		return s.SerializeF32(float32(fl))
	case format.F64:
		fl, ok := v.(Float)
		if !ok {
			return mismatch(p.Tag(), v)
		}
		return s.SerializeF64(float64(fl))
	case format.Str:
		str, ok := v.(String)
		if !ok {
			return mismatch(p.Tag(), v)
		}
		if !utf8.ValidString(string(str)) {
			return errors.New("string is not valid UTF-8")
		}
		return s.SerializeStr(string(str))
	case format.Bytes:
		b, ok := v.(Bytes)
		if !ok {
			return mismatch(p.Tag(), v)
		}
		return s.SerializeBytes(b)
	}

	n, ok := v.(Int)
	if !ok || n.V == nil {
		return mismatch(p.Tag(), v)
	}
	if !fitsInt(p, n.V) {
		return errors.Newf("%s does not fit in %s", n.V, p.Tag())
	}
	switch p {
	case format.I8:
		return s.SerializeI8(int8(n.V.Int64()))
	case format.I16:
		return s.SerializeI16(int16(n.V.Int64()))
	case format.I32:
		return s.SerializeI32(int32(n.V.Int64()))
	case format.I64:
		return s.SerializeI64(n.V.Int64())
	case format.U8:
		return s.SerializeU8(uint8(n.V.Uint64()))
	case format.U16:
		return s.SerializeU16(uint16(n.V.Uint64()))
	case format.U32:
		return s.SerializeU32(uint32(n.V.Uint64()))
	case format.U64:
		return s.SerializeU64(n.V.Uint64())
	case format.I128:
		i, _ := serde.Int128FromBig(n.V)
		return s.SerializeI128(i)
	case format.U128:
		u, _ := serde.Uint128FromBig(n.V)
		return s.SerializeU128(u)
	}
	return errors.Newf("unsupported primitive %s", p)
}

// fitsInt reports whether n is representable in the integer kind p.
func fitsInt(p format.Primitive, n *big.Int) bool {
	bits := p.Width() * 8
	if bits == 0 {
		return false
	}
	switch p {
	case format.I8, format.I16, format.I32, format.I64, format.I128:
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
		return n.Cmp(limit) < 0 && n.Cmp(new(big.Int).Neg(limit)) >= 0
	case format.U8, format.U16, format.U32, format.U64, format.U128:
		limit := new(big.Int).Lsh(big.NewInt(1), uint(bits))
		return n.Sign() >= 0 && n.Cmp(limit) < 0
	}
	return false
}

func (c *Codec) decodeNamed(d serde.Deserializer, name string) (Value, error) {
	cf, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	if err := d.IncreaseContainerDepth(); err != nil {
		return nil, err
	}
	defer d.DecreaseContainerDepth()

	switch x := cf.(type) {
	case format.UnitStruct:
		return Unit{}, nil
	case format.NewTypeStruct:
		return c.decodeFormat(d, x.Inner)
	case format.TupleStruct:
		return c.decodeTuple(d, x.Elems)
	case format.Struct:
		return c.decodeFields(d, x.Fields)
	case format.Enum:
		index, err := d.DeserializeVariantIndex()
		if err != nil {
			return nil, err
		}
		variant, ok := x.Variant(index)
		if !ok {
			return nil, serde.NewError(serde.UnknownVariant, "%s has no variant %d", name, index)
		}
		payload, err := c.decodePayload(d, variant.Payload)
		if err != nil {
			return nil, err
		}
		return Variant{Index: index, Name: variant.Name, Payload: payload}, nil
	}
	return nil, errors.Newf("%s: unsupported container %T", name, cf)
}

func (c *Codec) decodePayload(d serde.Deserializer, p format.VariantFormat) (Value, error) {
	switch x := p.(type) {
	case format.UnitVariant:
		return Unit{}, nil
	case format.NewTypeVariant:
		return c.decodeFormat(d, x.Inner)
	case format.TupleVariant:
		return c.decodeTuple(d, x.Elems)
	case format.StructVariant:
		return c.decodeFields(d, x.Fields)
	}
	return nil, errors.Newf("unsupported variant payload %T", p)
}

func (c *Codec) decodeTuple(d serde.Deserializer, elems []format.Format) (Value, error) {
	out := make(Tuple, len(elems))
	for i, f := range elems {
		v, err := c.decodeFormat(d, f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (c *Codec) decodeFields(d serde.Deserializer, fields []format.Named) (Value, error) {
	out := make(Struct, len(fields))
	for i, f := range fields {
		v, err := c.decodeFormat(d, f.Format)
		if err != nil {
			return nil, err
		}
		out[i] = Field{Name: f.Name, Value: v}
	}
	return out, nil
}

// preallocLimit caps slice preallocation driven by untrusted lengths.
const preallocLimit = 1024

func (c *Codec) decodeFormat(d serde.Deserializer, f format.Format) (Value, error) {
	switch x := f.(type) {
	case format.Primitive:
		return decodePrimitive(d, x)
	case format.TypeName:
		return c.decodeNamed(d, x.Name)
	case format.Option:
		present, err := d.DeserializeOptionTag()
		if err != nil {
			return nil, err
		}
		if !present {
			return None, nil
		}
		inner, err := c.decodeFormat(d, x.Elem)
		if err != nil {
			return nil, err
		}
		return Some(inner), nil
	case format.Seq:
		n, err := d.DeserializeLen()
		if err != nil {
			return nil, err
		}
		out := make(Seq, 0, min(n, preallocLimit))
		for i := uint64(0); i < n; i++ {
			item, err := c.decodeFormat(d, x.Elem)
			if err != nil {
				return nil, err
			}
			out = append(out, item)
		}
		return out, nil
	case format.Map:
		n, err := d.DeserializeLen()
		if err != nil {
			return nil, err
		}
		out := make(Map, 0, min(n, preallocLimit))
		var previous serde.Slice
		for i := uint64(0); i < n; i++ {
			var key serde.Slice
			key.Start = d.GetBufferOffset()
			k, err := c.decodeFormat(d, x.Key)
			if err != nil {
				return nil, err
			}
			key.End = d.GetBufferOffset()
			if i > 0 {
				if err := d.CheckThatKeySlicesAreIncreasing(previous, key); err != nil {
					return nil, err
				}
			}
			previous = key
			v, err := c.decodeFormat(d, x.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, Entry{Key: k, Value: v})
		}
		return out, nil
	case format.Tuple:
		return c.decodeTuple(d, x.Elems)
	case format.TupleArray:
		out := make(Tuple, x.Size)
		for i := range out {
			v, err := c.decodeFormat(d, x.Content)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, errors.Newf("unsupported format %T", f)
}

func decodePrimitive(d serde.Deserializer, p format.Primitive) (Value, error) {
	switch p {
	case format.Unit:
		_, err := d.DeserializeUnit()
		return Unit{}, err
	case format.Bool:
		b, err := d.DeserializeBool()
		if err != nil {
			return nil, err
		}
		return Bool(b), nil
	case format.I8:
		v, err := d.DeserializeI8()
		return intOrErr(big.NewInt(int64(v)), err)
	case format.I16:
		v, err := d.DeserializeI16()
		return intOrErr(big.NewInt(int64(v)), err)
	case format.I32:
		v, err := d.DeserializeI32()
		return intOrErr(big.NewInt(int64(v)), err)
	case format.I64:
		v, err := d.DeserializeI64()
		return intOrErr(big.NewInt(v), err)
	case format.I128:
		v, err := d.DeserializeI128()
		return intOrErr(v.BigInt(), err)
	case format.U8:
		v, err := d.DeserializeU8()
		return intOrErr(new(big.Int).SetUint64(uint64(v)), err)
	case format.U16:
		v, err := d.DeserializeU16()
		return intOrErr(new(big.Int).SetUint64(uint64(v)), err)
	case format.U32:
		v, err := d.DeserializeU32()
		return intOrErr(new(big.Int).SetUint64(uint64(v)), err)
	case format.U64:
		v, err := d.DeserializeU64()
		return intOrErr(new(big.Int).SetUint64(v), err)
	case format.U128:
		v, err := d.DeserializeU128()
		return intOrErr(v.BigInt(), err)
	case format.F32:
		v, err := d.DeserializeF32()
		if err != nil {
			return nil, err
		}
		return Float32(v), nil
	case format.F64:
		v, err := d.DeserializeF64()
		if err != nil {
			return nil, err
		}
		return Float(v), nil
	case format.Str:
		v, err := d.DeserializeStr()
		if err != nil {
			return nil, err
		}
		return String(v), nil
	case format.Bytes:
		v, err := d.DeserializeBytes()
		if err != nil {
			return nil, err
		}
		return Bytes(v), nil
	}
	return nil, errors.Newf("unsupported primitive %s", p)
}

func intOrErr(n *big.Int, err error) (Value, error) {
	if err != nil {
		return nil, err
	}
	return Int{V: n}, nil
}
