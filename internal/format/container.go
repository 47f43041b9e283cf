package format

import (
	"sort"
	"strconv"
)

// ContainerFormat is the definition of a named container.
type ContainerFormat interface {
	isContainer()
}

// VariantFormat is the payload shape of one enum variant.
type VariantFormat interface {
	isVariant()
}

// Named is a struct field or struct-variant field.
type Named struct {
	Name   string
	Format Format
}

type UnitStruct struct{}

type NewTypeStruct struct {
	Inner Format
}

type TupleStruct struct {
	Elems []Format
}

type Struct struct {
	Fields []Named
}

// Enum holds its variants sorted by Index.
type Enum struct {
	Variants []Variant
}

// Variant is one enum alternative.
type Variant struct {
	Index   uint32
	Name    string
	Payload VariantFormat
}

func (UnitStruct) isContainer()    {}
func (NewTypeStruct) isContainer() {}
func (TupleStruct) isContainer()   {}
func (Struct) isContainer()        {}
func (Enum) isContainer()          {}

type UnitVariant struct{}

type NewTypeVariant struct {
	Inner Format
}

type TupleVariant struct {
	Elems []Format
}

type StructVariant struct {
	Fields []Named
}

func (UnitVariant) isVariant()    {}
func (NewTypeVariant) isVariant() {}
func (TupleVariant) isVariant()   {}
func (StructVariant) isVariant()  {}

// NewEnum builds an Enum with variants sorted by index. Duplicate indices
// are kept so Validate can report them.
func NewEnum(variants ...Variant) Enum {
	vs := append([]Variant(nil), variants...)
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Index < vs[j].Index })
	return Enum{Variants: vs}
}

// Variant looks up a variant by wire index.
func (e Enum) Variant(index uint32) (Variant, bool) {
	i := sort.Search(len(e.Variants), func(i int) bool { return e.Variants[i].Index >= index })
	if i < len(e.Variants) && e.Variants[i].Index == index {
		return e.Variants[i], true
	}
	return Variant{}, false
}

// VariantByName looks up a variant by name.
func (e Enum) VariantByName(name string) (Variant, bool) {
	for _, v := range e.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return Variant{}, false
}

// Contiguous reports whether indices are exactly 0..n-1.
func (e Enum) Contiguous() bool {
	for i, v := range e.Variants {
		if v.Index != uint32(i) {
			return false
		}
	}
	return true
}

// Location names a format's position inside a container, used in
// diagnostics: "Shape", "Shape.radius", "Shape::Circle.0".
type Location struct {
	Container string
	Variant   string
	Member    string
}

func (l Location) String() string {
	s := l.Container
	if l.Variant != "" {
		s += "::" + l.Variant
	}
	if l.Member != "" {
		s += "." + l.Member
	}
	return s
}

// Members calls fn for every top-level format of a container in wire
// order, with its location.
func Members(name string, c ContainerFormat, fn func(loc Location, f Format)) {
	switch x := c.(type) {
	case NewTypeStruct:
		fn(Location{Container: name, Member: "0"}, x.Inner)
	case TupleStruct:
		for i, f := range x.Elems {
			fn(Location{Container: name, Member: strconv.Itoa(i)}, f)
		}
	case Struct:
		for _, field := range x.Fields {
			fn(Location{Container: name, Member: field.Name}, field.Format)
		}
	case Enum:
		for _, v := range x.Variants {
			switch p := v.Payload.(type) {
			case NewTypeVariant:
				fn(Location{Container: name, Variant: v.Name, Member: "0"}, p.Inner)
			case TupleVariant:
				for i, f := range p.Elems {
					fn(Location{Container: name, Variant: v.Name, Member: strconv.Itoa(i)}, f)
				}
			case StructVariant:
				for _, field := range p.Fields {
					fn(Location{Container: name, Variant: v.Name, Member: field.Name}, field.Format)
				}
			}
		}
	}
}
