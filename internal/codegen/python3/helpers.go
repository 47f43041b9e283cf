package python3

import (
	"strconv"

	"github.com/roach88/serdegen/internal/format"
)

// emitHelpers writes a serialize/deserialize pair for every composite
// format, in mangled-name order.
func (e *emitter) emitHelpers() {
	for _, h := range e.helpers {
		typ := e.typeOf(h.f)
		e.w.Line("def _serialize_%s(value: %s, serializer: sb.BinarySerializer) -> None:", h.suffix, typ)
		e.w.Indent()
		e.helperSerialize(h.f)
		e.w.Dedent()
		e.w.Blank()
		e.w.Blank()
		e.w.Line("def _deserialize_%s(deserializer: sb.BinaryDeserializer) -> %s:", h.suffix, typ)
		e.w.Indent()
		e.helperDeserialize(h.f)
		e.w.Dedent()
		e.w.Blank()
		e.w.Blank()
	}
}

func (e *emitter) helperSerialize(f format.Format) {
	switch x := f.(type) {
	case format.Option:
		e.w.Line("if value is None:")
		e.w.Indent()
		e.w.Line("serializer.serialize_option_tag(False)")
		e.w.Dedent()
		e.w.Line("else:")
		e.w.Indent()
		e.w.Line("serializer.serialize_option_tag(True)")
		e.w.Line(e.serializeCall(x.Elem, "value"))
		e.w.Dedent()
	case format.Seq:
		e.w.Line("serializer.serialize_len(len(value))")
		e.w.Line("for item in value:")
		e.w.Indent()
		e.w.Line(e.serializeCall(x.Elem, "item"))
		e.w.Dedent()
	case format.Map:
		e.w.Line("serializer.serialize_len(len(value))")
		e.w.Line("offsets = []")
		e.w.Line("for k, v in value.items():")
		e.w.Indent()
		e.w.Line("offsets.append(serializer.get_buffer_offset())")
		e.w.Line(e.serializeCall(x.Key, "k"))
		e.w.Line(e.serializeCall(x.Value, "v"))
		e.w.Dedent()
		e.w.Line("serializer.sort_map_entries(offsets)")
	case format.Tuple:
		if len(x.Elems) == 0 {
			e.w.Line("pass")
		}
		for i, el := range x.Elems {
			e.w.Line(e.serializeCall(el, "value["+strconv.Itoa(i)+"]"))
		}
	case format.TupleArray:
		e.w.Line("st.check_length(value, %d)", x.Size)
		e.w.Line("for item in value:")
		e.w.Indent()
		e.w.Line(e.serializeCall(x.Content, "item"))
		e.w.Dedent()
	}
}

func (e *emitter) helperDeserialize(f format.Format) {
	switch x := f.(type) {
	case format.Option:
		e.w.Line("if not deserializer.deserialize_option_tag():")
		e.w.Indent()
		e.w.Line("return None")
		e.w.Dedent()
		e.w.Line("return " + e.deserializeCall(x.Elem))
	case format.Seq:
		e.w.Line("length = deserializer.deserialize_len()")
		e.w.Line("return [%s for _ in range(length)]", e.deserializeCall(x.Elem))
	case format.Map:
		e.w.Line("length = deserializer.deserialize_len()")
		e.w.Line("obj = {}")
		e.w.Line("previous_key_slice = None")
		e.w.Line("for _ in range(length):")
		e.w.Indent()
		e.w.Line("key_start = deserializer.get_buffer_offset()")
		e.w.Line("key = " + e.deserializeCall(x.Key))
		e.w.Line("key_end = deserializer.get_buffer_offset()")
		e.w.Line("if previous_key_slice is not None:")
		e.w.Indent()
		e.w.Line("deserializer.check_that_key_slices_are_increasing(previous_key_slice, (key_start, key_end))")
		e.w.Dedent()
		e.w.Line("previous_key_slice = (key_start, key_end)")
		e.w.Line("obj[key] = " + e.deserializeCall(x.Value))
		e.w.Dedent()
		e.w.Line("return obj")
	case format.Tuple:
		elems := ""
		for _, el := range x.Elems {
			elems += e.deserializeCall(el) + ", "
		}
		if elems == "" {
			e.w.Line("return ()")
			return
		}
		e.w.Line("return (" + elems[:len(elems)-2] + ",)")
	case format.TupleArray:
		e.w.Line("return tuple(%s for _ in range(%d))", e.deserializeCall(x.Content), x.Size)
	}
}
