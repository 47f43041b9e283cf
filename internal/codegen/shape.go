package codegen

import (
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/serdegen/internal/format"
)

// Reaches reports whether pred holds for f or for any format reachable
// from it, following TypeName references into their containers. pred
// sees each TypeName before its container is entered.
func Reaches(reg *format.Registry, f format.Format, pred func(format.Format) bool) bool {
	return reaches(reg, f, pred, make(map[string]bool))
}

// ContainerReaches is Reaches for every member of a named container.
func ContainerReaches(reg *format.Registry, name string, pred func(format.Format) bool) bool {
	return containerReaches(reg, name, pred, make(map[string]bool))
}

func reaches(reg *format.Registry, f format.Format, pred func(format.Format) bool, seen map[string]bool) bool {
	found := false
	format.Walk(f, func(g format.Format, _ bool) {
		if found {
			return
		}
		if pred(g) {
			found = true
			return
		}
		if t, ok := g.(format.TypeName); ok && containerReaches(reg, t.Name, pred, seen) {
			found = true
		}
	})
	return found
}

func containerReaches(reg *format.Registry, name string, pred func(format.Format) bool, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	c, ok := reg.Lookup(name)
	if !ok {
		return false
	}
	found := false
	format.Members(name, c, func(_ format.Location, f format.Format) {
		if !found && reaches(reg, f, pred, seen) {
			found = true
		}
	})
	return found
}

// IsFloat matches F32 and F64.
func IsFloat(f format.Format) bool {
	p, ok := f.(format.Primitive)
	return ok && p.IsFloat()
}

// CheckMapKeys fails on the first Map, in registry order, whose key
// reaches a format matched by bad. why completes the message
// "map key ... ".
func CheckMapKeys(reg *format.Registry, target Target, bad func(format.Format) bool, why string) error {
	var err error
	reg.Each(func(name string, c format.ContainerFormat) {
		format.Members(name, c, func(loc format.Location, f format.Format) {
			format.Walk(f, func(g format.Format, _ bool) {
				if err != nil {
					return
				}
				m, ok := g.(format.Map)
				if ok && Reaches(reg, m.Key, bad) {
					err = UnsupportedShape(target, loc.String(), "map key %s %s", m.Key, why)
				}
			})
		})
	})
	return err
}

// Mangle names a composite format for use in helper function names:
// Seq<U32> -> "vector_u32", Map<Str, U8> -> "map_str_to_u8".
func Mangle(f format.Format) string {
	switch x := f.(type) {
	case format.Primitive:
		return strings.ToLower(x.Tag())
	case format.Option:
		return "option_" + Mangle(x.Elem)
	case format.Seq:
		return "vector_" + Mangle(x.Elem)
	case format.Map:
		return "map_" + Mangle(x.Key) + "_to_" + Mangle(x.Value)
	case format.Tuple:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			parts[i] = Mangle(e)
		}
		return "tuple" + strconv.Itoa(len(x.Elems)) + "_" + strings.Join(parts, "_")
	case format.TupleArray:
		return "array" + strconv.Itoa(x.Size) + "_" + Mangle(x.Content) + "_array"
	case format.TypeName:
		return x.Name
	}
	return "unknown"
}

// Composites returns every distinct Option, Seq, Map, Tuple and
// TupleArray format used by emitted containers, sorted by mangled name.
func Composites(reg *format.Registry, skip func(name string) bool) []format.Format {
	byName := make(map[string]format.Format)
	reg.Each(func(name string, c format.ContainerFormat) {
		if skip != nil && skip(name) {
			return
		}
		format.Members(name, c, func(_ format.Location, f format.Format) {
			format.Walk(f, func(g format.Format, _ bool) {
				switch g.(type) {
				case format.Option, format.Seq, format.Map, format.Tuple, format.TupleArray:
					byName[Mangle(g)] = g
				}
			})
		})
	})
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]format.Format, 0, len(names))
	for _, n := range names {
		out = append(out, byName[n])
	}
	return out
}
