package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/serdegen/internal/format"
	"github.com/roach88/serdegen/internal/testutil"
)

func TestResolve_NoReferences(t *testing.T) {
	plan := Resolve(testutil.PointRegistry())
	assert.Equal(t, []string{"Point"}, plan.Order)
	assert.Empty(t, plan.Components)
	assert.Empty(t, plan.Edges())
}

func TestResolve_DependenciesFirst(t *testing.T) {
	reg := format.NewRegistry()
	reg.MustRegister("Outer", format.Struct{Fields: []format.Named{
		{Name: "inner", Format: format.TypeName{Name: "Inner"}},
		{Name: "list", Format: format.Seq{Elem: format.TypeName{Name: "Leaf"}}},
	}})
	reg.MustRegister("Inner", format.NewTypeStruct{Inner: format.TypeName{Name: "Leaf"}})
	reg.MustRegister("Leaf", format.UnitStruct{})

	plan := Resolve(reg)
	assert.Equal(t, []string{"Leaf", "Inner", "Outer"}, plan.Order)
	assert.Empty(t, plan.Edges())
}

func TestResolve_SelfReference(t *testing.T) {
	plan := Resolve(testutil.TreeRegistry())
	assert.Equal(t, []string{"Tree"}, plan.Order)
	assert.Equal(t, [][]string{{"Tree"}}, plan.Components)
	assert.Equal(t, []Edge{{From: "Tree", To: "Tree"}}, plan.Edges())
	assert.True(t, plan.NeedsIndirection("Tree", "Tree"))
}

func TestResolve_SeqRecursionNeedsNoIndirection(t *testing.T) {
	reg := format.NewRegistry().MustRegister("Dir", format.Struct{Fields: []format.Named{
		{Name: "children", Format: format.Seq{Elem: format.TypeName{Name: "Dir"}}},
		{Name: "index", Format: format.Map{Key: format.Str, Value: format.TypeName{Name: "Dir"}}},
	}})
	plan := Resolve(reg)
	assert.Empty(t, plan.Components)
	assert.False(t, plan.NeedsIndirection("Dir", "Dir"))
	assert.Equal(t, []string{"Dir"}, plan.Order)
}

func TestResolve_MutualRecursion(t *testing.T) {
	plan := Resolve(testutil.ExprRegistry())

	assert.Equal(t, [][]string{{"Expr", "Stmt"}}, plan.Components)
	assert.Equal(t, []Edge{
		{From: "Expr", To: "Expr"},
		{From: "Stmt", To: "Expr"},
		{From: "Stmt", To: "Stmt"},
	}, plan.Edges())
	assert.False(t, plan.NeedsIndirection("Expr", "Stmt"))
	assert.Equal(t, []string{"Stmt", "Expr"}, plan.Order)
}

func TestResolve_SeededByInsertionOrder(t *testing.T) {
	build := func(first, second string) *format.Registry {
		reg := format.NewRegistry()
		for _, name := range []string{first, second} {
			other := "A"
			if name == "A" {
				other = "B"
			}
			reg.MustRegister(name, format.NewTypeStruct{Inner: format.Option{Elem: format.TypeName{Name: other}}})
		}
		return reg
	}

	ab := Resolve(build("A", "B"))
	assert.Equal(t, []Edge{{From: "B", To: "A"}}, ab.Edges())

	ba := Resolve(build("B", "A"))
	assert.Equal(t, []Edge{{From: "A", To: "B"}}, ba.Edges())
}

func TestResolve_Deterministic(t *testing.T) {
	first := Resolve(testutil.ExprRegistry())
	for i := 0; i < 20; i++ {
		again := Resolve(testutil.ExprRegistry())
		require.Equal(t, first.Order, again.Order)
		require.Equal(t, first.Edges(), again.Edges())
	}
}

func TestResolve_BreaksEveryCycle(t *testing.T) {
	reg := format.NewRegistry()
	ref := func(n string) format.Format { return format.TypeName{Name: n} }
	reg.MustRegister("A", format.TupleStruct{Elems: []format.Format{ref("B"), format.Option{Elem: ref("C")}}})
	reg.MustRegister("B", format.NewTypeStruct{Inner: format.Option{Elem: ref("C")}})
	reg.MustRegister("C", format.NewEnum(
		format.Variant{Index: 0, Name: "ToA", Payload: format.NewTypeVariant{Inner: ref("A")}},
		format.Variant{Index: 1, Name: "Done", Payload: format.UnitVariant{}},
	))
	reg.MustRegister("D", format.NewTypeStruct{Inner: ref("A")})

	for _, r := range []*format.Registry{reg, testutil.TreeRegistry(), testutil.ExprRegistry(), testutil.KitchenSinkRegistry()} {
		plan := Resolve(r)
		byValue, _ := buildGraphs(r)
		assert.False(t, hasCycle(byValue, plan), "cycle left in %v", r.Names())
		assert.ElementsMatch(t, r.Names(), plan.Order)
	}
}

func TestTarjanSCC(t *testing.T) {
	g := graph{
		nodes: []string{"a", "b", "c", "d"},
		succ: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
			"d": {"d"},
		},
	}
	sccs := tarjanSCC(g)
	require.Len(t, sccs, 2)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, sccs[0])
	assert.Equal(t, []string{"d"}, sccs[1])
	assert.True(t, g.hasSelfLoop("d"))
	assert.False(t, g.hasSelfLoop("a"))
}

func hasCycle(g graph, plan *Plan) bool {
	color := map[string]int{}
	var visit func(string) bool
	visit = func(v string) bool {
		color[v] = 1
		for _, w := range g.succ[v] {
			if plan.NeedsIndirection(v, w) {
				continue
			}
			if color[w] == 1 || (color[w] == 0 && visit(w)) {
				return true
			}
		}
		color[v] = 2
		return false
	}
	for _, n := range g.nodes {
		if color[n] == 0 && visit(n) {
			return true
		}
	}
	return false
}
