package golang

import (
	"fmt"
	"go/format"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/codegen"
	ir "github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
)

var keywords = []string{
	"break", "case", "chan", "const", "continue", "default", "defer", "else",
	"fallthrough", "for", "func", "go", "goto", "if", "import", "interface",
	"map", "package", "range", "return", "select", "struct", "switch", "type", "var",
}

// Generator implements codegen.Generator for Go.
type Generator struct{}

// New creates a Go generator.
func New() *Generator {
	return &Generator{}
}

// Target returns codegen.Go.
func (g *Generator) Target() codegen.Target { return codegen.Go }

// NewNamer returns a Namer escaping Go keywords.
func (g *Generator) NewNamer() *codegen.Namer {
	return codegen.NewNamer(codegen.Go, keywords, nil)
}

// Generate emits <module>.go.
func (g *Generator) Generate(reg *ir.Registry, plan *resolver.Plan, cfg codegen.Config, namer *codegen.Namer) (codegen.Source, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return codegen.Source{}, err
	}
	if err := ir.Validate(reg); err != nil {
		return codegen.Source{}, err
	}
	notComparable := func(f ir.Format) bool {
		switch x := f.(type) {
		case ir.Seq, ir.Map, ir.Option:
			return true
		case ir.Primitive:
			return x == ir.Bytes
		case ir.TypeName:
			c, ok := reg.Lookup(x.Name)
			if !ok {
				return false
			}
			_, isEnum := c.(ir.Enum)
			return isEnum
		}
		return false
	}
	if err := codegen.CheckMapKeys(reg, codegen.Go, notComparable, "is not comparable in Go"); err != nil {
		return codegen.Source{}, err
	}
	if err := codegen.CheckMapKeys(reg, codegen.Go, codegen.IsFloat, "reaches a float; 0.0 and -0.0 are one Go map key"); err != nil {
		return codegen.Source{}, err
	}

	e := &emitter{
		reg:     reg,
		plan:    plan,
		cfg:     cfg,
		namer:   namer,
		named:   make(map[string]*gtype),
		imports: make(map[string]string),
		helpers: make(map[string]*gtype),
		w:       codegen.NewWriter("\t"),
	}
	pkg := packageName(namer, cfg.ModuleName)
	if err := e.declare(); err != nil {
		return codegen.Source{}, err
	}
	if err := e.emitContainers(); err != nil {
		return codegen.Source{}, err
	}
	if err := e.emitHelpers(); err != nil {
		return codegen.Source{}, err
	}

	var out strings.Builder
	out.WriteString("// Code generated by serdegen. DO NOT EDIT.\n\n")
	out.WriteString("package " + pkg + "\n")
	std, other := e.importPaths()
	if len(std)+len(other) > 0 {
		out.WriteString("\nimport (\n")
		for _, p := range std {
			out.WriteString("\t" + strconv.Quote(p) + "\n")
		}
		if len(std) > 0 && len(other) > 0 {
			out.WriteString("\n")
		}
		for _, p := range other {
			if q := e.imports[p]; q != "" && q != path.Base(p) {
				out.WriteString("\t" + q + " " + strconv.Quote(p) + "\n")
			} else {
				out.WriteString("\t" + strconv.Quote(p) + "\n")
			}
		}
		out.WriteString(")\n")
	}
	out.WriteString("\n")
	out.WriteString(e.w.String())

	src, err := format.Source([]byte(out.String()))
	if err != nil {
		return codegen.Source{}, errors.Wrapf(err, "formatting generated Go for %s", cfg.ModuleName)
	}
	return codegen.Source{
		Target: codegen.Go,
		Module: cfg.ModuleName,
		Files:  []codegen.File{{Path: pkg + ".go", Content: src, Kind: codegen.SourceFile}},
	}, nil
}

func packageName(namer *codegen.Namer, module string) string {
	return strings.ToLower(namer.Sanitize(path.Base(module), codegen.AsIs))
}

type emitter struct {
	reg   *ir.Registry
	plan  *resolver.Plan
	cfg   codegen.Config
	namer *codegen.Namer

	named   map[string]*gtype // container name -> unboxed named type
	imports map[string]string // import path -> qualifier ("" for runtime)
	helpers map[string]*gtype // mangled name -> composite
	w       *codegen.Writer
}

func (e *emitter) use(importPath, qualifier string) {
	e.imports[importPath] = qualifier
}

// importPaths splits imports into standard library and other paths,
// each sorted.
func (e *emitter) importPaths() (std, other []string) {
	for p := range e.imports {
		if strings.Contains(p, ".") {
			other = append(other, p)
		} else {
			std = append(std, p)
		}
	}
	sort.Strings(std)
	sort.Strings(other)
	return std, other
}

func (e *emitter) runtime(pkg string) {
	e.use(e.cfg.RuntimeImport+"/"+pkg, "")
}

// declare assigns an identifier to every container before any code is
// written, so references resolve regardless of emission order.
func (e *emitter) declare() error {
	for _, name := range e.plan.Order {
		if module, ok := e.cfg.External(name); ok {
			q := packageName(e.namer, module)
			ident := e.namer.Sanitize(name, codegen.Pascal)
			e.named[name] = &gtype{kind: kindNamed, ident: q + "." + ident, deser: q + ".Deserialize" + ident}
			continue
		}
		ident, err := e.namer.Name("types", name, codegen.Pascal)
		if err != nil {
			return err
		}
		e.named[name] = &gtype{kind: kindNamed, ident: ident, deser: "Deserialize" + ident}
		for _, fn := range e.functionNames(ident) {
			if err := e.namer.Claim("types", name+" ("+fn+")", fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *emitter) functionNames(ident string) []string {
	names := []string{"Deserialize" + ident}
	for _, enc := range e.cfg.Encodings {
		names = append(names, enc.Title()+"Deserialize"+ident)
	}
	return names
}

// typeOf renders f as referenced from container from. pointer reports
// that an enclosing Option, Seq or Map already provides indirection.
func (e *emitter) typeOf(from string, f ir.Format, pointer bool) *gtype {
	var t *gtype
	switch x := f.(type) {
	case ir.Primitive:
		if x == ir.I128 || x == ir.U128 {
			e.runtime("serde")
		}
		return &gtype{kind: kindPrimitive, prim: x}
	case ir.Option:
		t = &gtype{kind: kindOption, elems: []*gtype{e.typeOf(from, x.Elem, true)}}
	case ir.Seq:
		t = &gtype{kind: kindSeq, elems: []*gtype{e.typeOf(from, x.Elem, true)}}
	case ir.Map:
		t = &gtype{kind: kindMap, elems: []*gtype{e.typeOf(from, x.Key, true), e.typeOf(from, x.Value, true)}}
	case ir.Tuple:
		elems := make([]*gtype, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = e.typeOf(from, el, pointer)
		}
		t = &gtype{kind: kindTuple, elems: elems}
	case ir.TupleArray:
		t = &gtype{kind: kindArray, size: x.Size, elems: []*gtype{e.typeOf(from, x.Content, pointer)}}
	case ir.TypeName:
		base := *e.named[x.Name]
		if module, ok := e.cfg.External(x.Name); ok {
			e.use(module, packageName(e.namer, module))
		}
		c, _ := e.reg.Lookup(x.Name)
		_, isEnum := c.(ir.Enum)
		base.ptr = !pointer && !isEnum && e.plan.NeedsIndirection(from, x.Name)
		return &base
	}
	e.helpers[t.mangle()] = t
	return t
}

// member is one serialized slot of a struct-like declaration.
type member struct {
	ident string
	tag   string
	doc   string
	typ   *gtype
}

// members lists the slots of wire. loc is the comment location prefix:
// "Point" or "Shape::Circle".
func (e *emitter) members(from, loc string, wire ir.ContainerFormat) ([]member, error) {
	scope := "fields:" + loc
	var out []member
	add := func(ident, tag, at string, f ir.Format) {
		doc, _ := e.cfg.Comment(at)
		out = append(out, member{ident: ident, tag: tag, doc: doc, typ: e.typeOf(from, f, false)})
	}
	positional := func(elems []ir.Format) {
		for i, f := range elems {
			add("Field"+strconv.Itoa(i), "", "", f)
		}
	}
	switch x := wire.(type) {
	case ir.NewTypeStruct:
		add("Value", "", "", x.Inner)
	case ir.TupleStruct:
		positional(x.Elems)
	case ir.Struct:
		for _, field := range x.Fields {
			ident := e.namer.Sanitize(field.Name, codegen.Pascal)
			if e.isMethod(ident) {
				ident += "_"
			}
			if err := e.namer.Claim(scope, field.Name, ident); err != nil {
				return nil, err
			}
			add(ident, field.Name, loc+"."+field.Name, field.Format)
		}
	}
	return out, nil
}

// isMethod reports whether ident is a method every generated type has.
func (e *emitter) isMethod(ident string) bool {
	if ident == "Serialize" {
		return true
	}
	for _, enc := range e.cfg.Encodings {
		if ident == enc.Title()+"Serialize" {
			return true
		}
	}
	return false
}

// variantShape maps a variant payload onto the container shape with the
// same member layout.
func variantShape(p ir.VariantFormat) ir.ContainerFormat {
	switch x := p.(type) {
	case ir.NewTypeVariant:
		return ir.NewTypeStruct{Inner: x.Inner}
	case ir.TupleVariant:
		return ir.TupleStruct{Elems: x.Elems}
	case ir.StructVariant:
		return ir.Struct{Fields: x.Fields}
	}
	return ir.UnitStruct{}
}

func (e *emitter) emitContainers() error {
	for _, name := range e.plan.Order {
		if _, ok := e.cfg.External(name); ok {
			continue
		}
		c, _ := e.reg.Lookup(name)
		ident := e.named[name].ident
		e.runtime("serde")
		for _, enc := range e.cfg.Encodings {
			e.runtime(enc.Runtime())
			e.use("fmt", "")
		}

		if enum, ok := c.(ir.Enum); ok {
			if err := e.emitEnum(name, ident, enum); err != nil {
				return err
			}
			continue
		}
		members, err := e.members(name, name, c)
		if err != nil {
			return err
		}
		e.emitDoc(name)
		e.emitStructType(ident, members)
		e.emitSerialize(ident, nil, members)
		e.emitEncodingSerializers(ident)
		e.emitDeserialize(ident, "Deserialize"+ident, ident+"{}", members, true)
		e.emitEncodingDeserializers(ident, ident+"{}")
	}
	return nil
}

func (e *emitter) emitDoc(location string) {
	if doc, ok := e.cfg.Comment(location); ok {
		e.w.Comment("// ", doc)
	}
}

func (e *emitter) emitStructType(ident string, members []member) {
	if len(members) == 0 {
		e.w.Line("type %s struct{}", ident)
		e.w.Blank()
		return
	}
	e.w.Line("type %s struct {", ident)
	e.w.Indent()
	for _, m := range members {
		if m.doc != "" {
			e.w.Comment("// ", m.doc)
		}
		if e.cfg.Annotations && m.tag != "" {
			e.w.Line("%s %s `json:%s`", m.ident, m.typ.expr(), strconv.Quote(m.tag))
		} else {
			e.w.Line("%s %s", m.ident, m.typ.expr())
		}
	}
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
}

func (e *emitter) returnOnError(call, ret string) {
	e.w.Line("if err := %s; err != nil {", call)
	e.w.Indent()
	e.w.Line("return %s", ret)
	e.w.Dedent()
	e.w.Line("}")
}

func (e *emitter) emitSerialize(ident string, index *uint32, members []member) {
	e.w.Line("func (obj *%s) Serialize(serializer serde.Serializer) error {", ident)
	e.w.Indent()
	e.returnOnError("serializer.IncreaseContainerDepth()", "err")
	if index != nil {
		e.returnOnError(fmt.Sprintf("serializer.SerializeVariantIndex(%d)", *index), "err")
	}
	for _, m := range members {
		e.returnOnError(m.typ.serializeCall("obj."+m.ident), "err")
	}
	e.w.Line("serializer.DecreaseContainerDepth()")
	e.w.Line("return nil")
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
}

func (e *emitter) emitEncodingSerializers(ident string) {
	for _, enc := range e.cfg.Encodings {
		e.w.Line("func (obj *%s) %sSerialize() ([]byte, error) {", ident, enc.Title())
		e.w.Indent()
		e.w.Line("if obj == nil {")
		e.w.Indent()
		e.w.Line(`return nil, fmt.Errorf("cannot serialize null object")`)
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("serializer := %s.NewSerializer()", enc.Runtime())
		e.returnOnError("obj.Serialize(serializer)", "nil, err")
		e.w.Line("return serializer.GetBytes(), nil")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Blank()
	}
}

// emitDeserialize writes fn decoding ident's members. Named containers
// track depth; enum variant payloads are decoded inside their enum's
// depth frame.
func (e *emitter) emitDeserialize(ident, fn, zero string, members []member, depth bool) {
	e.w.Line("func %s(deserializer serde.Deserializer) (%s, error) {", fn, ident)
	e.w.Indent()
	e.w.Line("var obj %s", ident)
	if depth {
		e.returnOnError("deserializer.IncreaseContainerDepth()", zero+", err")
	}
	for _, m := range members {
		e.decodeInto(m.typ, "obj."+m.ident, zero)
	}
	if depth {
		e.w.Line("deserializer.DecreaseContainerDepth()")
	}
	e.w.Line("return obj, nil")
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
}

func (e *emitter) decodeInto(t *gtype, target, zero string) {
	e.decodeWith(t, t.assign(target), zero)
}

// decodeWith decodes t into val and runs stmt, returning zero on error.
func (e *emitter) decodeWith(t *gtype, stmt, zero string) {
	e.w.Line("if val, err := %s; err == nil {", t.deserializeCall())
	e.w.Indent()
	e.w.Line(stmt)
	e.w.Dedent()
	e.w.Line("} else {")
	e.w.Indent()
	e.w.Line("return %s, err", zero)
	e.w.Dedent()
	e.w.Line("}")
}

func (e *emitter) emitEncodingDeserializers(ident, zero string) {
	for _, enc := range e.cfg.Encodings {
		e.w.Line("func %sDeserialize%s(input []byte) (%s, error) {", enc.Title(), ident, ident)
		e.w.Indent()
		e.w.Line("if input == nil {")
		e.w.Indent()
		e.w.Line(`return %s, fmt.Errorf("cannot deserialize null array")`, zero)
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("deserializer := %s.NewDeserializer(input)", enc.Runtime())
		e.w.Line("obj, err := Deserialize%s(deserializer)", ident)
		e.w.Line("if err == nil {")
		e.w.Indent()
		e.w.Line("err = deserializer.CheckEnd()")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("if err != nil {")
		e.w.Indent()
		e.w.Line("return %s, err", zero)
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("return obj, nil")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Blank()
	}
}

func (e *emitter) emitEnum(name, ident string, enum ir.Enum) error {
	type variant struct {
		ident   string
		index   uint32
		members []member
	}
	variants := make([]variant, 0, len(enum.Variants))
	for _, v := range enum.Variants {
		vident := ident + "__" + e.namer.Sanitize(v.Name, codegen.Pascal)
		if err := e.namer.Claim("types", name+"::"+v.Name, vident); err != nil {
			return err
		}
		members, err := e.members(name, name+"::"+v.Name, variantShape(v.Payload))
		if err != nil {
			return err
		}
		variants = append(variants, variant{ident: vident, index: v.Index, members: members})
	}

	e.emitDoc(name)
	e.w.Line("type %s interface {", ident)
	e.w.Indent()
	e.w.Line("is%s()", ident)
	e.w.Line("Serialize(serializer serde.Serializer) error")
	for _, enc := range e.cfg.Encodings {
		e.w.Line("%sSerialize() ([]byte, error)", enc.Title())
	}
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()

	e.w.Line("func Deserialize%s(deserializer serde.Deserializer) (%s, error) {", ident, ident)
	e.w.Indent()
	e.returnOnError("deserializer.IncreaseContainerDepth()", "nil, err")
	e.w.Line("index, err := deserializer.DeserializeVariantIndex()")
	e.w.Line("if err != nil {")
	e.w.Indent()
	e.w.Line("return nil, err")
	e.w.Dedent()
	e.w.Line("}")
	e.w.Line("var obj %s", ident)
	e.w.Line("switch index {")
	for _, v := range variants {
		e.w.Line("case %d:", v.index)
		e.w.Indent()
		e.w.Line("val, err := load_%s(deserializer)", v.ident)
		e.w.Line("if err != nil {")
		e.w.Indent()
		e.w.Line("return nil, err")
		e.w.Dedent()
		e.w.Line("}")
		e.w.Line("obj = &val")
		e.w.Dedent()
	}
	e.w.Line("default:")
	e.w.Indent()
	e.w.Line(`return nil, serde.NewError(serde.UnknownVariant, "unknown variant index for %s: %%d", index)`, ident)
	e.w.Dedent()
	e.w.Line("}")
	e.w.Line("deserializer.DecreaseContainerDepth()")
	e.w.Line("return obj, nil")
	e.w.Dedent()
	e.w.Line("}")
	e.w.Blank()
	e.emitEncodingDeserializers(ident, "nil")

	for i, v := range variants {
		e.emitDoc(name + "::" + enum.Variants[i].Name)
		e.emitStructType(v.ident, v.members)
		e.w.Line("func (*%s) is%s() {}", v.ident, ident)
		e.w.Blank()
		index := v.index
		e.emitSerialize(v.ident, &index, v.members)
		e.emitEncodingSerializers(v.ident)
		e.emitDeserialize(v.ident, "load_"+v.ident, v.ident+"{}", v.members, false)
	}
	return nil
}

// Runtime returns the Go runtime packages with imports rewritten to
// cfg.RuntimeImport.
func (g *Generator) Runtime(cfg codegen.Config) ([]codegen.File, error) {
	cfg = cfg.WithDefaults()
	return runtimeFiles(cfg.RuntimeImport)
}

var _ codegen.Generator = (*Generator)(nil)
