package parser

import (
	"fmt"

	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/omap"
)

// Result is the template context of a generated client.
type Result struct {
	BaseURL string `json:"baseUrl,omitempty"`
	// Schemas maps variable names to validator expressions, each after the
	// variables it uses.
	Schemas   *omap.Map[string] `json:"schemas"`
	Endpoints []*Endpoint       `json:"endpoints"`
	// Types maps the names of recursive schemas to their static types.
	Types           *omap.Map[string] `json:"types"`
	CircularSchemas []string          `json:"circularSchemas,omitempty"`

	GroupStrategy GroupStrategy `json:"groupStrategy"`
	Groups        []*Group      `json:"groups,omitempty"`
	// CommonSchemaNames are the schemas shared by several file groups.
	CommonSchemaNames []string `json:"commonSchemaNames,omitempty"`
}

// IsCircular reports whether the schema variable name is recursive.
func (r *Result) IsCircular(name string) bool {
	for _, n := range r.CircularSchemas {
		if n == name {
			return true
		}
	}
	return false
}

func (r *run) assemble(endpoints []*Endpoint, exported []string) (*Result, error) {
	result := &Result{
		Schemas:   omap.New[string](),
		Endpoints: endpoints,
		Types:     omap.New[string](),

		GroupStrategy: r.opts.GroupStrategy,
	}
	if len(r.doc.Servers) > 0 {
		result.BaseURL = r.doc.Servers[0].URL
	}

	// Graph of variables and the variables they use
	vars := graph.New()
	exprs := make(map[string]string)
	circularRefs := make(map[string]string)
	for _, decl := range r.schemas.Declarations() {
		vars.AddNode(decl.Name)
		for _, dep := range r.schemas.DeclarationDependencies(decl) {
			vars.AddEdge(decl.Name, dep)
		}
		exprs[decl.Name] = r.schemas.Render(decl.Expr)
		if decl.Ref != "" && r.deps.IsCircular(decl.Ref) {
			circularRefs[decl.Name] = decl.Ref
		}
	}

	roots := append([]string(nil), exported...)
	for _, endpoint := range endpoints {
		roots = append(roots, endpoint.uses...)
	}
	used := reachable(vars, roots)

	// Declarations in dependency order
	for _, name := range graph.Sort(vars) {
		if !used[name] {
			continue
		}
		result.Schemas.Set(name, exprs[name])
		if ref, ok := circularRefs[name]; ok {
			result.CircularSchemas = append(result.CircularSchemas, name)
			if err := r.types.Name(ref); err != nil {
				return nil, fmt.Errorf("failed to declare type %s: %w", name, err)
			}
		}
	}
	for _, decl := range r.types.Declarations() {
		result.Types.Set(decl.Name, decl.Type)
	}

	if err := r.group(result, vars); err != nil {
		return nil, err
	}
	return result, nil
}

// reachable returns roots and every node reachable from them.
func reachable(g *graph.Graph, roots []string) map[string]bool {
	seen := make(map[string]bool)
	queue := append([]string(nil), roots...)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		queue = append(queue, g.Successors(name)...)
	}
	return seen
}
