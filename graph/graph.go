// Package graph builds the `$ref` dependency graph of an OpenAPI document and
// orders declarations so that every name is declared before it is used.
package graph

import (
	"github.com/zodgen/openapi-zod-gen/omap"
)

// Graph is a directed graph of string nodes. Nodes and edges keep the order in
// which they were added.
type Graph struct {
	adj   *omap.Map[[]string]
	edges map[string]map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		adj:   omap.New[[]string](),
		edges: make(map[string]map[string]struct{}),
	}
}

// AddNode adds n with no outgoing edges if it is not present yet.
func (g *Graph) AddNode(n string) {
	if g.adj.Has(n) {
		return
	}
	g.adj.Set(n, nil)
	g.edges[n] = make(map[string]struct{})
}

// AddEdge adds from -> to. Only from becomes a key of the graph.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	if _, ok := g.edges[from][to]; ok {
		return
	}
	g.edges[from][to] = struct{}{}
	g.adj.Set(from, append(g.adj.Value(from), to))
}

// Has reports whether the edge from -> to exists.
func (g *Graph) Has(from, to string) bool {
	_, ok := g.edges[from][to]
	return ok
}

// HasNode reports whether n is a key of the graph.
func (g *Graph) HasNode(n string) bool {
	return g.adj.Has(n)
}

// Successors returns the targets of n's edges in insertion order.
func (g *Graph) Successors(n string) []string {
	return g.adj.Value(n)
}

// Nodes returns the keys of the graph in insertion order.
func (g *Graph) Nodes() []string {
	return g.adj.Keys()
}

// Len returns the number of keys.
func (g *Graph) Len() int {
	return g.adj.Len()
}

// MarshalJSON encodes the graph as an ordered object of adjacency lists.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return g.adj.MarshalJSON()
}
