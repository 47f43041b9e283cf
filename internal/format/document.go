package format

import (
	"fmt"
	"strconv"
)

// node is the ordered document tree shared by the JSON and YAML
// interchange forms. Mapping keys keep their document order.
type node struct {
	kind   nodeKind
	value  string
	number bool
	items  []*node
	keys   []string
	values []*node
	line   int

	// intKeys marks ENUM bodies, whose keys render as YAML integers.
	intKeys bool
}

type nodeKind int

const (
	scalarNode nodeKind = iota
	seqNode
	mapNode
)

func scalar(v string) *node { return &node{kind: scalarNode, value: v} }

func number(n int) *node { return &node{kind: scalarNode, value: strconv.Itoa(n), number: true} }

func seq(items ...*node) *node { return &node{kind: seqNode, items: items} }

func single(key string, value *node) *node {
	return &node{kind: mapNode, keys: []string{key}, values: []*node{value}}
}

func (n *node) set(key string, value *node) {
	n.keys = append(n.keys, key)
	n.values = append(n.values, value)
}

func (n *node) describe() string {
	switch n.kind {
	case scalarNode:
		return fmt.Sprintf("scalar %q", n.value)
	case seqNode:
		return "sequence"
	}
	return "mapping"
}

func (n *node) get(key string) (*node, bool) {
	for i, k := range n.keys {
		if k == key {
			return n.values[i], true
		}
	}
	return nil, false
}

type decoder struct {
	path []string
}

func (d *decoder) errorf(n *node, code, format string, args ...any) error {
	field := "<document>"
	if len(d.path) > 0 {
		field = joinPath(d.path)
	}
	msg := fmt.Sprintf(format, args...)
	if n != nil && n.line > 0 {
		msg = fmt.Sprintf("line %d: %s", n.line, msg)
	}
	return ValidationError{Field: field, Message: msg, Code: code}
}

func joinPath(parts []string) string {
	s := parts[0]
	for _, p := range parts[1:] {
		s += "." + p
	}
	return s
}

func (d *decoder) push(p string) { d.path = append(d.path, p) }
func (d *decoder) pop()          { d.path = d.path[:len(d.path)-1] }

// tagged splits a single-key mapping into its tag and payload.
func (d *decoder) tagged(n *node, what string) (string, *node, error) {
	if n.kind != mapNode || len(n.keys) != 1 {
		return "", nil, d.errorf(n, ErrMalformedDocument, "%s must be a tag or a single-key mapping, got %s", what, n.describe())
	}
	return n.keys[0], n.values[0], nil
}

func (d *decoder) registry(doc *node) (*Registry, error) {
	reg := NewRegistry()
	if doc == nil {
		return reg, nil
	}
	if doc.kind != mapNode {
		return nil, d.errorf(doc, ErrMalformedDocument, "registry must be a mapping, got %s", doc.describe())
	}
	for i, name := range doc.keys {
		d.push(name)
		c, err := d.container(doc.values[i])
		d.pop()
		if err != nil {
			return nil, err
		}
		if err := reg.Register(name, c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (d *decoder) container(n *node) (ContainerFormat, error) {
	if n.kind == scalarNode {
		if n.value == "UNITSTRUCT" {
			return UnitStruct{}, nil
		}
		return nil, d.errorf(n, ErrUnknownTag, "unknown container tag %q", n.value)
	}
	tag, body, err := d.tagged(n, "container")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "NEWTYPESTRUCT":
		f, err := d.format(body)
		if err != nil {
			return nil, err
		}
		return NewTypeStruct{Inner: f}, nil
	case "TUPLESTRUCT":
		elems, err := d.formats(body)
		if err != nil {
			return nil, err
		}
		return TupleStruct{Elems: elems}, nil
	case "STRUCT":
		fields, err := d.fields(body)
		if err != nil {
			return nil, err
		}
		return Struct{Fields: fields}, nil
	case "ENUM":
		return d.enum(body)
	}
	return nil, d.errorf(n, ErrUnknownTag, "unknown container tag %q", tag)
}

func (d *decoder) enum(n *node) (Enum, error) {
	if n.kind != mapNode {
		return Enum{}, d.errorf(n, ErrMalformedDocument, "ENUM must map indices to variants, got %s", n.describe())
	}
	variants := make([]Variant, 0, len(n.keys))
	for i, key := range n.keys {
		index, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return Enum{}, d.errorf(n.values[i], ErrMalformedDocument, "variant index %q is not a u32", key)
		}
		name, body, err := d.tagged(n.values[i], "variant")
		if err != nil {
			return Enum{}, err
		}
		d.push(name)
		payload, err := d.variant(body)
		d.pop()
		if err != nil {
			return Enum{}, err
		}
		variants = append(variants, Variant{Index: uint32(index), Name: name, Payload: payload})
	}
	return NewEnum(variants...), nil
}

func (d *decoder) variant(n *node) (VariantFormat, error) {
	if n.kind == scalarNode {
		if n.value == "UNIT" {
			return UnitVariant{}, nil
		}
		return nil, d.errorf(n, ErrUnknownTag, "unknown variant tag %q", n.value)
	}
	tag, body, err := d.tagged(n, "variant payload")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "NEWTYPE":
		f, err := d.format(body)
		if err != nil {
			return nil, err
		}
		return NewTypeVariant{Inner: f}, nil
	case "TUPLE":
		elems, err := d.formats(body)
		if err != nil {
			return nil, err
		}
		return TupleVariant{Elems: elems}, nil
	case "STRUCT":
		fields, err := d.fields(body)
		if err != nil {
			return nil, err
		}
		return StructVariant{Fields: fields}, nil
	}
	return nil, d.errorf(n, ErrUnknownTag, "unknown variant tag %q", tag)
}

func (d *decoder) fields(n *node) ([]Named, error) {
	if n.kind != seqNode {
		return nil, d.errorf(n, ErrMalformedDocument, "STRUCT must be a sequence of fields, got %s", n.describe())
	}
	fields := make([]Named, 0, len(n.items))
	for _, item := range n.items {
		name, body, err := d.tagged(item, "field")
		if err != nil {
			return nil, err
		}
		d.push(name)
		f, err := d.format(body)
		d.pop()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Named{Name: name, Format: f})
	}
	return fields, nil
}

func (d *decoder) formats(n *node) ([]Format, error) {
	if n.kind != seqNode {
		return nil, d.errorf(n, ErrMalformedDocument, "expected a sequence of formats, got %s", n.describe())
	}
	out := make([]Format, 0, len(n.items))
	for i, item := range n.items {
		d.push(strconv.Itoa(i))
		f, err := d.format(item)
		d.pop()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func (d *decoder) format(n *node) (Format, error) {
	if n.kind == scalarNode {
		if p, ok := PrimitiveFromTag(n.value); ok {
			return p, nil
		}
		return nil, d.errorf(n, ErrUnknownTag, "unknown format tag %q", n.value)
	}
	tag, body, err := d.tagged(n, "format")
	if err != nil {
		return nil, err
	}
	switch tag {
	case "OPTION":
		elem, err := d.format(body)
		if err != nil {
			return nil, err
		}
		return Option{Elem: elem}, nil
	case "SEQ":
		elem, err := d.format(body)
		if err != nil {
			return nil, err
		}
		return Seq{Elem: elem}, nil
	case "MAP":
		if body.kind != mapNode {
			return nil, d.errorf(body, ErrMalformedDocument, "MAP needs KEY and VALUE, got %s", body.describe())
		}
		kn, okK := body.get("KEY")
		vn, okV := body.get("VALUE")
		if !okK || !okV || len(body.keys) != 2 {
			return nil, d.errorf(body, ErrMalformedDocument, "MAP needs exactly KEY and VALUE")
		}
		key, err := d.format(kn)
		if err != nil {
			return nil, err
		}
		value, err := d.format(vn)
		if err != nil {
			return nil, err
		}
		return Map{Key: key, Value: value}, nil
	case "TUPLE":
		elems, err := d.formats(body)
		if err != nil {
			return nil, err
		}
		return Tuple{Elems: elems}, nil
	case "TUPLEARRAY":
		if body.kind != mapNode {
			return nil, d.errorf(body, ErrMalformedDocument, "TUPLEARRAY needs CONTENT and SIZE, got %s", body.describe())
		}
		cn, okC := body.get("CONTENT")
		sn, okS := body.get("SIZE")
		if !okC || !okS || len(body.keys) != 2 {
			return nil, d.errorf(body, ErrMalformedDocument, "TUPLEARRAY needs exactly CONTENT and SIZE")
		}
		content, err := d.format(cn)
		if err != nil {
			return nil, err
		}
		if sn.kind != scalarNode {
			return nil, d.errorf(sn, ErrMalformedDocument, "SIZE must be an integer")
		}
		size, err := strconv.Atoi(sn.value)
		if err != nil {
			return nil, d.errorf(sn, ErrMalformedDocument, "SIZE %q is not an integer", sn.value)
		}
		return TupleArray{Content: content, Size: size}, nil
	case "TYPENAME":
		if body.kind != scalarNode {
			return nil, d.errorf(body, ErrMalformedDocument, "TYPENAME must be a name, got %s", body.describe())
		}
		return TypeName{Name: body.value}, nil
	}
	return nil, d.errorf(n, ErrUnknownTag, "unknown format tag %q", tag)
}

// encodeRegistry renders the registry as a document tree.
func encodeRegistry(reg *Registry) *node {
	doc := &node{kind: mapNode}
	reg.Each(func(name string, c ContainerFormat) {
		doc.set(name, encodeContainer(c))
	})
	return doc
}

func encodeContainer(c ContainerFormat) *node {
	switch x := c.(type) {
	case UnitStruct:
		return scalar("UNITSTRUCT")
	case NewTypeStruct:
		return single("NEWTYPESTRUCT", encodeFormat(x.Inner))
	case TupleStruct:
		return single("TUPLESTRUCT", encodeFormats(x.Elems))
	case Struct:
		return single("STRUCT", encodeFields(x.Fields))
	case Enum:
		body := &node{kind: mapNode, intKeys: true}
		for _, v := range x.Variants {
			key := strconv.FormatUint(uint64(v.Index), 10)
			body.set(key, single(v.Name, encodeVariant(v.Payload)))
		}
		return single("ENUM", body)
	}
	panic(fmt.Sprintf("format: unknown container %T", c))
}

func encodeVariant(v VariantFormat) *node {
	switch x := v.(type) {
	case UnitVariant:
		return scalar("UNIT")
	case NewTypeVariant:
		return single("NEWTYPE", encodeFormat(x.Inner))
	case TupleVariant:
		return single("TUPLE", encodeFormats(x.Elems))
	case StructVariant:
		return single("STRUCT", encodeFields(x.Fields))
	}
	panic(fmt.Sprintf("format: unknown variant payload %T", v))
}

func encodeFields(fields []Named) *node {
	out := seq()
	for _, f := range fields {
		out.items = append(out.items, single(f.Name, encodeFormat(f.Format)))
	}
	return out
}

func encodeFormats(fs []Format) *node {
	out := seq()
	for _, f := range fs {
		out.items = append(out.items, encodeFormat(f))
	}
	return out
}

func encodeFormat(f Format) *node {
	switch x := f.(type) {
	case Primitive:
		return scalar(x.Tag())
	case Option:
		return single("OPTION", encodeFormat(x.Elem))
	case Seq:
		return single("SEQ", encodeFormat(x.Elem))
	case Map:
		body := &node{kind: mapNode}
		body.set("KEY", encodeFormat(x.Key))
		body.set("VALUE", encodeFormat(x.Value))
		return single("MAP", body)
	case Tuple:
		return single("TUPLE", encodeFormats(x.Elems))
	case TupleArray:
		body := &node{kind: mapNode}
		body.set("CONTENT", encodeFormat(x.Content))
		body.set("SIZE", number(x.Size))
		return single("TUPLEARRAY", body)
	case TypeName:
		return single("TYPENAME", scalar(x.Name))
	}
	panic(fmt.Sprintf("format: unknown format %T", f))
}
