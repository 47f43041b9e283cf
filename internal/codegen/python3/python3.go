package python3

import (
	"bytes"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/serdegen/internal/codegen"
	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/resolver"
	"github.com/roach88/serdegen/runtime"
)

var keywords = []string{
	"False", "None", "True", "and", "as", "assert", "async", "await", "break",
	"class", "continue", "def", "del", "elif", "else", "except", "finally",
	"for", "from", "global", "if", "import", "in", "is", "lambda", "nonlocal",
	"not", "or", "pass", "raise", "return", "try", "while", "with", "yield",
}

// members are attributes every generated class defines.
var members = map[string]bool{
	"INDEX": true, "bincode_deserialize": true, "bincode_serialize": true,
	"deserialize": true, "lcs_deserialize": true, "lcs_serialize": true,
	"load": true, "self": true, "serialize": true,
}

// Generator implements codegen.Generator for Python 3.
type Generator struct{}

// New creates a Python generator.
func New() *Generator {
	return &Generator{}
}

func (g *Generator) Target() codegen.Target { return codegen.Python3 }

func (g *Generator) NewNamer() *codegen.Namer {
	return codegen.NewNamer(codegen.Python3, keywords, nil)
}

// Generate emits __init__.py for the package.
func (g *Generator) Generate(reg *format.Registry, plan *resolver.Plan, cfg codegen.Config, namer *codegen.Namer) (codegen.Source, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return codegen.Source{}, err
	}
	if err := format.Validate(reg); err != nil {
		return codegen.Source{}, err
	}
	unhashable := func(f format.Format) bool {
		switch f.(type) {
		case format.Seq, format.Map:
			return true
		}
		return false
	}
	if err := codegen.CheckMapKeys(reg, codegen.Python3, unhashable, "reaches a list or dict and is not hashable"); err != nil {
		return codegen.Source{}, err
	}
	if err := codegen.CheckMapKeys(reg, codegen.Python3, codegen.IsFloat, "reaches a float; 0.0 and -0.0 are one dict key"); err != nil {
		return codegen.Source{}, err
	}
	if err := checkOptions(reg); err != nil {
		return codegen.Source{}, err
	}

	e := &emitter{reg: reg, plan: plan, cfg: cfg, namer: namer, idents: make(map[string]string), w: codegen.NewWriter("    ")}
	if err := e.declare(); err != nil {
		return codegen.Source{}, err
	}
	for _, name := range plan.Order {
		if _, ok := cfg.External(name); ok {
			continue
		}
		if err := e.emitContainer(name); err != nil {
			return codegen.Source{}, err
		}
	}
	e.emitHelpers()

	var out bytes.Buffer
	out.Write(e.header())
	out.Write(bytes.TrimRight(e.w.Bytes(), "\n"))
	out.WriteByte('\n')
	return codegen.Source{
		Target: codegen.Python3,
		Module: cfg.ModuleName,
		Files:  []codegen.File{{Path: "__init__.py", Content: out.Bytes(), Kind: codegen.SourceFile}},
	}, nil
}

// checkOptions rejects Option<Unit> and Option<Option<T>>: both collapse
// Some(None) into None.
func checkOptions(reg *format.Registry) error {
	var err error
	reg.Each(func(name string, c format.ContainerFormat) {
		format.Members(name, c, func(loc format.Location, f format.Format) {
			format.Walk(f, func(g format.Format, _ bool) {
				o, ok := g.(format.Option)
				if err != nil || !ok {
					return
				}
				switch inner := o.Elem.(type) {
				case format.Option:
					err = codegen.UnsupportedShape(codegen.Python3, loc.String(), "%s cannot be told apart from None", o)
				case format.Primitive:
					if inner == format.Unit {
						err = codegen.UnsupportedShape(codegen.Python3, loc.String(), "%s cannot be told apart from None", o)
					}
				}
			})
		})
	})
	return err
}

// Runtime returns the serde_types, serde_binary, lcs and bincode packages.
func (g *Generator) Runtime(cfg codegen.Config) ([]codegen.File, error) {
	var files []codegen.File
	err := fs.WalkDir(runtime.Python, "python", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(runtime.Python, p)
		if err != nil {
			return err
		}
		files = append(files, codegen.File{Path: strings.TrimPrefix(p, "python/"), Content: data, Kind: codegen.RuntimeFile})
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading embedded Python runtime")
	}
	return files, nil
}

var _ codegen.Generator = (*Generator)(nil)

type emitter struct {
	reg   *format.Registry
	plan  *resolver.Plan
	cfg   codegen.Config
	namer *codegen.Namer

	idents  map[string]string
	helpers []helper
	w       *codegen.Writer
}

type helper struct {
	f      format.Format
	suffix string
}

func (e *emitter) declare() error {
	for _, name := range e.plan.Order {
		ident, err := e.namer.Name("types", name, codegen.Pascal)
		if err != nil {
			return err
		}
		e.idents[name] = ident
	}
	external := func(name string) bool {
		_, ok := e.cfg.External(name)
		return ok
	}
	for _, f := range codegen.Composites(e.reg, external) {
		suffix := e.namer.Sanitize(codegen.Mangle(f), codegen.AsIs)
		if err := e.namer.Claim("helpers", codegen.Mangle(f), suffix); err != nil {
			return err
		}
		e.helpers = append(e.helpers, helper{f: f, suffix: suffix})
	}
	return nil
}

func (e *emitter) header() []byte {
	w := codegen.NewWriter("    ")
	w.Line("# Code generated by serdegen. DO NOT EDIT.")
	w.Line("from __future__ import annotations")
	w.Blank()
	w.Line("import dataclasses")
	w.Line("import typing")
	w.Blank()
	runtimes := make([]string, 0, len(e.cfg.Encodings)+2)
	for _, enc := range e.cfg.Encodings {
		runtimes = append(runtimes, enc.Runtime())
	}
	runtimes = append(runtimes, "serde_binary as sb", "serde_types as st")
	sort.Strings(runtimes)
	for _, r := range runtimes {
		w.Line("import " + r)
	}
	for _, module := range e.cfg.ExternalModules() {
		var names []string
		for _, name := range e.cfg.ExternalDefinitions[module] {
			if ident, ok := e.idents[name]; ok {
				names = append(names, ident)
			}
		}
		if len(names) > 0 {
			w.Line("from %s import %s", module, strings.Join(names, ", "))
		}
	}
	w.Blank()
	w.Blank()
	return w.Bytes()
}

func (e *emitter) typeOf(f format.Format) string {
	switch x := f.(type) {
	case format.Primitive:
		switch x {
		case format.Bool:
			return "bool"
		case format.Str:
			return "str"
		case format.Bytes:
			return "bytes"
		}
		return "st." + primitiveName(x)
	case format.Option:
		return "typing.Optional[" + e.typeOf(x.Elem) + "]"
	case format.Seq:
		return "typing.List[" + e.typeOf(x.Elem) + "]"
	case format.Map:
		return "typing.Dict[" + e.typeOf(x.Key) + ", " + e.typeOf(x.Value) + "]"
	case format.Tuple:
		elems := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = e.typeOf(el)
		}
		if len(elems) == 0 {
			return "typing.Tuple[()]"
		}
		return "typing.Tuple[" + strings.Join(elems, ", ") + "]"
	case format.TupleArray:
		return "typing.Tuple[" + e.typeOf(x.Content) + ", ...]"
	case format.TypeName:
		return e.idents[x.Name]
	}
	return "typing.Any"
}

// primitiveName is the runtime suffix: "u32", "str", "unit".
func primitiveName(p format.Primitive) string {
	switch p {
	case format.I8, format.I16, format.I32, format.I64, format.I128:
		return "int" + strings.TrimPrefix(strings.ToLower(p.Tag()), "i")
	case format.U8, format.U16, format.U32, format.U64, format.U128:
		return "uint" + strings.TrimPrefix(strings.ToLower(p.Tag()), "u")
	case format.F32:
		return "float32"
	case format.F64:
		return "float64"
	}
	return strings.ToLower(p.Tag())
}

func (e *emitter) serializeCall(f format.Format, expr string) string {
	switch x := f.(type) {
	case format.Primitive:
		return "serializer.serialize_" + strings.ToLower(x.Tag()) + "(" + expr + ")"
	case format.TypeName:
		return expr + ".serialize(serializer)"
	}
	return "_serialize_" + e.helperSuffix(f) + "(" + expr + ", serializer)"
}

func (e *emitter) deserializeCall(f format.Format) string {
	switch x := f.(type) {
	case format.Primitive:
		return "deserializer.deserialize_" + strings.ToLower(x.Tag()) + "()"
	case format.TypeName:
		return e.idents[x.Name] + ".deserialize(deserializer)"
	}
	return "_deserialize_" + e.helperSuffix(f) + "(deserializer)"
}

func (e *emitter) helperSuffix(f format.Format) string {
	return e.namer.Sanitize(codegen.Mangle(f), codegen.AsIs)
}

type field struct {
	ident  string
	format format.Format
	doc    string
}

func (e *emitter) name(scope, source string) (string, error) {
	ident := e.namer.Sanitize(source, codegen.AsIs)
	if members[ident] {
		ident += "_"
	}
	return ident, e.namer.Claim(scope, source, ident)
}

func (e *emitter) positional(loc string, elems []format.Format, single bool) ([]field, error) {
	out := make([]field, len(elems))
	for i, f := range elems {
		source := strconv.Itoa(i)
		ident := "field" + source
		if single {
			ident = "value"
		}
		if err := e.namer.Claim("fields:"+loc, source, ident); err != nil {
			return nil, err
		}
		doc, _ := e.cfg.Comment(loc + "." + source)
		out[i] = field{ident: ident, format: f, doc: doc}
	}
	return out, nil
}

func (e *emitter) named(loc string, fs []format.Named) ([]field, error) {
	out := make([]field, len(fs))
	for i, f := range fs {
		ident, err := e.name("fields:"+loc, f.Name)
		if err != nil {
			return nil, err
		}
		doc, _ := e.cfg.Comment(loc + "." + f.Name)
		out[i] = field{ident: ident, format: f.Format, doc: doc}
	}
	return out, nil
}

func (e *emitter) members(loc string, c any) ([]field, error) {
	switch x := c.(type) {
	case format.NewTypeStruct:
		return e.positional(loc, []format.Format{x.Inner}, true)
	case format.TupleStruct:
		return e.positional(loc, x.Elems, false)
	case format.Struct:
		return e.named(loc, x.Fields)
	case format.NewTypeVariant:
		return e.positional(loc, []format.Format{x.Inner}, true)
	case format.TupleVariant:
		return e.positional(loc, x.Elems, false)
	case format.StructVariant:
		return e.named(loc, x.Fields)
	}
	return nil, nil
}

func (e *emitter) docstring(location string) {
	text, ok := e.cfg.Comment(location)
	if !ok {
		return
	}
	text = strings.ReplaceAll(strings.TrimRight(text, "\n"), `"""`, `\"\"\"`)
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		e.w.Line(`"""` + lines[0] + `"""`)
		e.w.Blank()
		return
	}
	e.w.Line(`"""` + lines[0])
	for _, l := range lines[1:] {
		e.w.Line(l)
	}
	e.w.Line(`"""`)
	e.w.Blank()
}

func (e *emitter) emitFields(fields []field) {
	for _, f := range fields {
		if f.doc != "" {
			e.w.Comment("# ", f.doc)
		}
		e.w.Line("%s: %s", f.ident, e.typeOf(f.format))
	}
	if len(fields) > 0 {
		e.w.Blank()
	}
}

func (e *emitter) constructor(ident string, fields []field) string {
	args := make([]string, len(fields))
	for i, f := range fields {
		args[i] = f.ident + "=" + e.deserializeCall(f.format)
	}
	return ident + "(" + strings.Join(args, ", ") + ")"
}

func (e *emitter) emitContainer(name string) error {
	c, _ := e.reg.Lookup(name)
	ident := e.idents[name]
	if enum, ok := c.(format.Enum); ok {
		return e.emitEnum(name, ident, enum)
	}
	fields, err := e.members(name, c)
	if err != nil {
		return err
	}

	e.w.Line("@dataclasses.dataclass(frozen=True)")
	e.w.Line("class %s:", ident)
	e.w.Indent()
	e.docstring(name)
	e.emitFields(fields)

	e.w.Line("def serialize(self, serializer: sb.BinarySerializer) -> None:")
	e.w.Indent()
	e.w.Line("serializer.increase_container_depth()")
	for _, f := range fields {
		e.w.Line(e.serializeCall(f.format, "self."+f.ident))
	}
	e.w.Line("serializer.decrease_container_depth()")
	e.w.Dedent()
	e.w.Blank()

	e.w.Line("@staticmethod")
	e.w.Line("def deserialize(deserializer: sb.BinaryDeserializer) -> %s:", ident)
	e.w.Indent()
	e.w.Line("deserializer.increase_container_depth()")
	e.w.Line("value = " + e.constructor(ident, fields))
	e.w.Line("deserializer.decrease_container_depth()")
	e.w.Line("return value")
	e.w.Dedent()

	e.emitEncodingMethods(ident)
	e.w.Dedent()
	e.w.Blank()
	e.w.Blank()
	return nil
}

func (e *emitter) emitEncodingMethods(ident string) {
	for _, enc := range e.cfg.Encodings {
		mod := enc.Runtime()
		e.w.Blank()
		e.w.Line("def %s_serialize(self) -> bytes:", mod)
		e.w.Indent()
		e.w.Line("return %s.to_bytes(self)", mod)
		e.w.Dedent()
		e.w.Blank()
		e.w.Line("@staticmethod")
		e.w.Line("def %s_deserialize(content: bytes) -> %s:", mod, ident)
		e.w.Indent()
		e.w.Line("return %s.from_bytes(content, %s)", mod, ident)
		e.w.Dedent()
	}
}

func (e *emitter) emitEnum(name, ident string, enum format.Enum) error {
	type variant struct {
		v      format.Variant
		ident  string
		fields []field
	}
	variants := make([]variant, 0, len(enum.Variants))
	for _, v := range enum.Variants {
		vident := ident + "__" + e.namer.Sanitize(v.Name, codegen.Pascal)
		if err := e.namer.Claim("types", name+"::"+v.Name, vident); err != nil {
			return err
		}
		fields, err := e.members(name+"::"+v.Name, v.Payload)
		if err != nil {
			return err
		}
		variants = append(variants, variant{v: v, ident: vident, fields: fields})
	}

	e.w.Line("class %s:", ident)
	e.w.Indent()
	e.docstring(name)
	e.w.Line("def serialize(self, serializer: sb.BinarySerializer) -> None:")
	e.w.Indent()
	e.w.Line("raise NotImplementedError")
	e.w.Dedent()
	e.w.Blank()
	e.w.Line("@staticmethod")
	e.w.Line("def deserialize(deserializer: sb.BinaryDeserializer) -> %s:", ident)
	e.w.Indent()
	e.w.Line("deserializer.increase_container_depth()")
	e.w.Line("index = deserializer.deserialize_variant_index()")
	for i, vr := range variants {
		kw := "elif"
		if i == 0 {
			kw = "if"
		}
		e.w.Line("%s index == %d:", kw, vr.v.Index)
		e.w.Indent()
		e.w.Line("value: %s = %s.load(deserializer)", ident, vr.ident)
		e.w.Dedent()
	}
	if len(variants) > 0 {
		e.w.Line("else:")
		e.w.Indent()
	}
	e.w.Line(`raise st.SerdeError(st.ErrorKind.UNKNOWN_VARIANT, "%s: %%d" %% index)`, ident)
	if len(variants) > 0 {
		e.w.Dedent()
	}
	e.w.Line("deserializer.decrease_container_depth()")
	e.w.Line("return value")
	e.w.Dedent()
	e.emitEncodingMethods(ident)
	e.w.Dedent()
	e.w.Blank()
	e.w.Blank()

	for _, vr := range variants {
		e.w.Line("@dataclasses.dataclass(frozen=True)")
		e.w.Line("class %s(%s):", vr.ident, ident)
		e.w.Indent()
		e.docstring(name + "::" + vr.v.Name)
		e.w.Line("INDEX = %d", vr.v.Index)
		e.w.Blank()
		e.emitFields(vr.fields)

		e.w.Line("def serialize(self, serializer: sb.BinarySerializer) -> None:")
		e.w.Indent()
		e.w.Line("serializer.increase_container_depth()")
		e.w.Line("serializer.serialize_variant_index(%d)", vr.v.Index)
		for _, f := range vr.fields {
			e.w.Line(e.serializeCall(f.format, "self."+f.ident))
		}
		e.w.Line("serializer.decrease_container_depth()")
		e.w.Dedent()
		e.w.Blank()

		e.w.Line("@staticmethod")
		e.w.Line("def load(deserializer: sb.BinaryDeserializer) -> %s:", vr.ident)
		e.w.Indent()
		e.w.Line("return " + e.constructor(vr.ident, vr.fields))
		e.w.Dedent()
		e.w.Dedent()
		e.w.Blank()
		e.w.Blank()
	}
	return nil
}
