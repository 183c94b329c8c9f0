package graph

import (
	"sort"

	"github.com/zodgen/openapi-zod-gen/openapi"
	gonumgraph "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Dependencies is the `$ref` dependency graph of a set of root schemas.
type Dependencies struct {
	// Direct maps a ref to the refs found directly inside its schema.
	Direct *Graph
	// Deep maps a root ref to the transitive closure of Direct.
	Deep *Graph

	// strongly connected components of Direct that form a cycle
	cycles   [][]string
	circular map[string]bool
}

// Resolve returns the schema a ref points at, or nil when it does not resolve.
type Resolve func(ref string) *openapi.Schema

// Build walks every root schema and records the refs it depends on. Unresolved
// refs are leaves; Build never fails.
func Build(rootRefs []string, resolve Resolve) *Dependencies {
	direct := New()
	visited := make(map[string]bool, len(rootRefs))
	for _, ref := range rootRefs {
		visited[ref] = true
	}

	var visit func(schema *openapi.Schema, from string)
	visit = func(schema *openapi.Schema, from string) {
		if schema == nil {
			return
		}
		if schema.IsRef() {
			direct.AddEdge(from, schema.Ref)
			if visited[schema.Ref] {
				return
			}
			visited[schema.Ref] = true
			visit(resolve(schema.Ref), schema.Ref)
			return
		}

		for _, members := range [][]*openapi.Schema{schema.AllOf, schema.OneOf, schema.AnyOf} {
			for _, member := range members {
				visit(member, from)
			}
		}
		if schema.Items != nil {
			visit(schema.Items, from)
		}
		for _, prop := range schema.Properties.All() {
			visit(prop, from)
		}
		if schema.AdditionalProperties != nil && schema.AdditionalProperties.Schema != nil {
			visit(schema.AdditionalProperties.Schema, from)
		}
	}

	for _, ref := range rootRefs {
		visit(resolve(ref), ref)
	}

	d := &Dependencies{Direct: direct, Deep: closure(rootRefs, direct)}
	d.cycles = stronglyConnected(direct)
	d.circular = make(map[string]bool)
	for _, cycle := range d.cycles {
		for _, ref := range cycle {
			d.circular[ref] = true
		}
	}
	return d
}

// closure computes, for every root that has dependencies, the set of refs it
// reaches. A ref's own dependencies are not expanded once the walk loops back
// to it.
func closure(rootRefs []string, direct *Graph) *Graph {
	deep := New()
	for _, root := range rootRefs {
		if !direct.HasNode(root) {
			continue
		}
		deep.AddNode(root)

		queue := append([]string(nil), direct.Successors(root)...)
		seen := make(map[string]bool, len(queue))
		for _, dep := range queue {
			seen[dep] = true
		}
		for len(queue) > 0 {
			dep := queue[0]
			queue = queue[1:]
			deep.AddEdge(root, dep)
			if dep == root {
				continue
			}
			for _, transitive := range direct.Successors(dep) {
				if seen[transitive] {
					continue
				}
				seen[transitive] = true
				queue = append(queue, transitive)
			}
		}
	}
	return deep
}

// IsCircular reports whether ref reaches itself, that is whether it belongs
// to one of the Cycles.
func (d *Dependencies) IsCircular(ref string) bool {
	return d.circular[ref]
}

// Cycles returns the groups of refs that depend on each other, including
// self-referencing refs. Groups and their members follow insertion order.
func (d *Dependencies) Cycles() [][]string {
	return d.cycles
}

// stronglyConnected runs Tarjan's algorithm over direct and keeps the
// components that contain a cycle.
func stronglyConnected(direct *Graph) [][]string {
	ids := make(map[string]int64)
	names := make(map[int64]string)
	g := simple.NewDirectedGraph()
	nodeID := func(n string) int64 {
		if id, ok := ids[n]; ok {
			return id
		}
		id := int64(len(ids))
		ids[n] = id
		names[id] = n
		g.AddNode(simple.Node(id))
		return id
	}

	for _, from := range direct.Nodes() {
		f := nodeID(from)
		for _, to := range direct.Successors(from) {
			t := nodeID(to)
			// simple graphs reject self loops; those are checked on direct
			if f != t {
				g.SetEdge(simple.Edge{F: simple.Node(f), T: simple.Node(t)})
			}
		}
	}

	var cycles [][]string
	for _, component := range topo.TarjanSCC(g) {
		if len(component) == 1 && !direct.Has(names[component[0].ID()], names[component[0].ID()]) {
			continue
		}
		cycles = append(cycles, componentNames(component, names, ids))
	}
	sort.Slice(cycles, func(i, j int) bool {
		return ids[cycles[i][0]] < ids[cycles[j][0]]
	})
	return cycles
}

func componentNames(component []gonumgraph.Node, names map[int64]string, ids map[string]int64) []string {
	members := make([]string, 0, len(component))
	for _, n := range component {
		members = append(members, names[n.ID()])
	}
	sort.Slice(members, func(i, j int) bool {
		return ids[members[i]] < ids[members[j]]
	})
	return members
}
