package golang

import (
	"sort"
	"strconv"
)

// preallocLimit caps the capacity reserved from an untrusted length.
const preallocLimit = 1024

func (e *emitter) emitHelpers() error {
	names := make([]string, 0, len(e.helpers))
	for name := range e.helpers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := e.helpers[name]
		if err := e.namer.Claim("helpers", t.expr(), name); err != nil {
			return err
		}
		e.emitHelperSerialize(t)
		e.emitHelperDeserialize(t)
	}
	return nil
}

func (e *emitter) emitHelperSerialize(t *gtype) {
	e.w.Line("func serialize_%s(value %s, serializer serde.Serializer) error {", t.mangle(), t.expr())
	e.w.Indent()
	switch t.kind {
	case kindOption:
		e.w.Line("if value != nil {")
		e.w.Indent()
		e.returnOnError("serializer.SerializeOptionTag(true)", "err")
		e.returnOnError(t.elems[0].serializeCall("(*value)"), "err")
		e.w.Dedent()
		e.w.Line("} else {")
		e.w.Indent()
		e.returnOnError("serializer.SerializeOptionTag(false)", "err")
		e.w.Dedent()
		e.w.Line("}")

	case kindSeq:
		e.returnOnError("serializer.SerializeLen(uint64(len(value)))", "err")
		e.w.Line("for _, item := range value {")
		e.w.Indent()
		e.returnOnError(t.elems[0].serializeCall("item"), "err")
		e.w.Dedent()
		e.w.Line("}")

	case kindMap:
		e.returnOnError("serializer.SerializeLen(uint64(len(value)))", "err")
		e.w.Line("offsets := make([]uint64, len(value))")
		e.w.Line("count := 0")
		e.w.Line("for k, v := range value {")
		e.w.Indent()
		e.w.Line("offsets[count] = serializer.GetBufferOffset()")
		e.w.Line("count += 1")
		e.returnOnError(t.elems[0].serializeCall("k"), "err")
		e.returnOnError(t.elems[1].serializeCall("v"), "err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("serializer.SortMapEntries(offsets)")

	case kindTuple:
		for i, el := range t.elems {
			e.returnOnError(el.serializeCall("value.Field"+strconv.Itoa(i)), "err")
		}

	case kindArray:
		e.w.Line("for _, item := range value {")
		e.w.Indent()
		e.returnOnError(t.elems[0].serializeCall("item"), "err")
		e.w.Dedent()
		e.w.Line("}")
	}
	e.w.Line("return nil")
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
}

func (e *emitter) emitHelperDeserialize(t *gtype) {
	typ := t.expr()
	e.w.Line("func deserialize_%s(deserializer serde.Deserializer) (%s, error) {", t.mangle(), typ)
	e.w.Indent()
	switch t.kind {
	case kindOption:
		e.w.Line("tag, err := deserializer.DeserializeOptionTag()")
		e.w.Line("if err != nil {")
		e.w.Indent()
		e.w.Line("return nil, err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("if !tag {")
		e.w.Indent()
		e.w.Line("return nil, nil")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("value := new(%s)", t.elems[0].expr())
		e.decodeInto(t.elems[0], "*value", "nil")
		e.w.Line("return value, nil")

	case kindSeq:
		e.w.Line("length, err := deserializer.DeserializeLen()")
		e.w.Line("if err != nil {")
		e.w.Indent()
		e.w.Line("return nil, err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("obj := make(%s, 0, min(length, %d))", typ, preallocLimit)
		e.w.Line("for i := uint64(0); i < length; i++ {")
		e.w.Indent()
		e.decodeWith(t.elems[0], "obj = append(obj, val)", "nil")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("return obj, nil")

	case kindMap:
		key, value := t.elems[0], t.elems[1]
		e.w.Line("length, err := deserializer.DeserializeLen()")
		e.w.Line("if err != nil {")
		e.w.Indent()
		e.w.Line("return nil, err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("obj := make(%s)", typ)
		e.w.Line("previousKeyStart := uint64(0)")
		e.w.Line("previousKeyEnd := uint64(0)")
		e.w.Line("for i := uint64(0); i < length; i++ {")
		e.w.Indent()
		e.w.Line("keyStart := deserializer.GetBufferOffset()")
		e.w.Line("var key %s", key.expr())
		e.decodeInto(key, "key", "nil")
		e.w.Line("keyEnd := deserializer.GetBufferOffset()")
		e.w.Line("if i > 0 {")
		e.w.Indent()
		e.returnOnError("deserializer.CheckThatKeySlicesAreIncreasing(serde.Slice{Start: previousKeyStart, End: previousKeyEnd}, serde.Slice{Start: keyStart, End: keyEnd})", "nil, err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("previousKeyStart = keyStart")
		e.w.Line("previousKeyEnd = keyEnd")
		e.w.Line("var value %s", value.expr())
		e.decodeInto(value, "value", "nil")
		e.w.Line("obj[key] = value")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("return obj, nil")

	case kindTuple:
		e.w.Line("var obj %s", typ)
		for i, el := range t.elems {
			e.decodeInto(el, "obj.Field"+strconv.Itoa(i), "obj")
		}
		e.w.Line("return obj, nil")

	case kindArray:
		e.w.Line("var obj %s", typ)
		e.w.Line("for i := range obj {")
		e.w.Indent()
		e.decodeInto(t.elems[0], "obj[i]", "obj")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("return obj, nil")
	}
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
}
