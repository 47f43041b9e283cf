package resolver

import (
	"sort"

	"github.com/roach88/serdegen/internal/format"
)

// Edge is a by-value reference from one container to another.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Plan is the resolver's annotation of a registry.
type Plan struct {
	// Order lists every container, dependencies before dependents
	// wherever the reference graph allows it.
	Order []string `json:"order"`

	// Components lists the by-value cycles: strongly connected components
	// with more than one member or a self-reference, members in
	// registry order.
	Components [][]string `json:"components"`

	edges    []Edge
	indirect map[Edge]bool
}

// NeedsIndirection reports whether by-value references from one container
// to another must go through a target-specific indirection (Box, pointer).
// It applies to every such reference inside from, at any position.
func (p *Plan) NeedsIndirection(from, to string) bool {
	return p.indirect[Edge{From: from, To: to}]
}

// Edges returns the flagged edges in discovery order.
func (p *Plan) Edges() []Edge {
	return append([]Edge(nil), p.edges...)
}

// Resolve computes the plan for a validated registry. Dangling references
// are ignored. The result depends only on the registry contents and
// insertion order.
func Resolve(reg *format.Registry) *Plan {
	byValue, full := buildGraphs(reg)
	p := &Plan{indirect: make(map[Edge]bool)}

	position := make(map[string]int, len(byValue.nodes))
	for i, name := range byValue.nodes {
		position[name] = i
	}

	component := make(map[string]int)
	for i, scc := range tarjanSCC(byValue) {
		if len(scc) == 1 && !byValue.hasSelfLoop(scc[0]) {
			continue
		}
		sort.Slice(scc, func(a, b int) bool { return position[scc[a]] < position[scc[b]] })
		for _, name := range scc {
			component[name] = i + 1
		}
		p.Components = append(p.Components, scc)
	}
	sort.SliceStable(p.Components, func(a, b int) bool {
		return position[p.Components[a][0]] < position[p.Components[b][0]]
	})

	p.flagBackEdges(byValue, component)
	p.Order = p.emissionOrder(full)
	return p
}

// flagBackEdges runs a DFS inside each cyclic component, seeded in
// registry order, and flags every edge that reaches a node still on the
// DFS stack. Removing those edges leaves the by-value graph acyclic.
func (p *Plan) flagBackEdges(g graph, component map[string]int) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int)

	var visit func(string)
	visit = func(v string) {
		color[v] = gray
		for _, w := range g.succ[v] {
			if component[w] == 0 || component[w] != component[v] {
				continue
			}
			switch color[w] {
			case white:
				visit(w)
			case gray:
				e := Edge{From: v, To: w}
				if !p.indirect[e] {
					p.indirect[e] = true
					p.edges = append(p.edges, e)
				}
			}
		}
		color[v] = black
	}

	for _, name := range g.nodes {
		if component[name] != 0 && color[name] == white {
			visit(name)
		}
	}
}

// emissionOrder is a DFS post-order over every reference, seeded in
// registry order. Flagged edges and edges closing a cycle are skipped.
func (p *Plan) emissionOrder(g graph) []string {
	visited := make(map[string]bool)
	order := make([]string, 0, len(g.nodes))

	var visit func(string)
	visit = func(v string) {
		visited[v] = true
		for _, w := range g.succ[v] {
			if visited[w] || p.NeedsIndirection(v, w) {
				continue
			}
			visit(w)
		}
		order = append(order, v)
	}

	for _, name := range g.nodes {
		if !visited[name] {
			visit(name)
		}
	}
	return order
}
