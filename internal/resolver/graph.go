package resolver

import "github.com/roach88/serdegen/internal/format"

// graph is an adjacency list with deterministic successor order.
type graph struct {
	nodes []string
	succ  map[string][]string
}

// buildGraphs derives the by-value reference graph and the full reference
// graph. References below Seq or Map only appear in the full graph: those
// are already heap-allocated in every target.
func buildGraphs(reg *format.Registry) (byValue, full graph) {
	byValue = graph{nodes: reg.Names(), succ: make(map[string][]string)}
	full = graph{nodes: reg.Names(), succ: make(map[string][]string)}
	reg.Each(func(name string, c format.ContainerFormat) {
		seenValue := map[string]bool{}
		seenFull := map[string]bool{}
		format.Members(name, c, func(_ format.Location, f format.Format) {
			format.Walk(f, func(sub format.Format, indirect bool) {
				tn, ok := sub.(format.TypeName)
				if !ok {
					return
				}
				if _, known := reg.Lookup(tn.Name); !known {
					return
				}
				if !seenFull[tn.Name] {
					seenFull[tn.Name] = true
					full.succ[name] = append(full.succ[name], tn.Name)
				}
				if !indirect && !seenValue[tn.Name] {
					seenValue[tn.Name] = true
					byValue.succ[name] = append(byValue.succ[name], tn.Name)
				}
			})
		})
	})
	return byValue, full
}

func (g graph) hasSelfLoop(node string) bool {
	for _, w := range g.succ[node] {
		if w == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm.
// Roots are tried in node order, so the result is deterministic.
func tarjanSCC(g graph) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.succ[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// v is a root: pop its component
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range g.nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}
