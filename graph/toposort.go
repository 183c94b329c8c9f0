package graph

import (
	"golang.org/x/exp/slices"
)

// Sort returns every node of g, keys and edge targets alike, each after the
// nodes it depends on. Edges that close a cycle are treated as already
// satisfied. Ties follow key insertion order.
func Sort(g *Graph) []string {
	var sorted []string
	visited := make(map[string]bool)
	emitted := make(map[string]bool)

	var visit func(name string, ancestors []string)
	visit = func(name string, ancestors []string) {
		ancestors = append(ancestors, name)
		visited[name] = true

		for _, dep := range g.Successors(name) {
			if slices.Contains(ancestors, dep) || visited[dep] {
				continue
			}
			// each branch gets its own copy of the path
			visit(dep, slices.Clone(ancestors))
		}

		if !emitted[name] {
			emitted[name] = true
			sorted = append(sorted, name)
		}
	}

	for _, name := range g.Nodes() {
		if visited[name] {
			continue
		}
		visit(name, nil)
	}
	return sorted
}
