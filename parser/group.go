package parser

import (
	"fmt"

	"github.com/gobuffalo/flect"

	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/util"
)

// GroupStrategy splits endpoints into groups.
type GroupStrategy string

const (
	GroupNone       GroupStrategy = "none"
	GroupTag        GroupStrategy = "tag"
	GroupMethod     GroupStrategy = "method"
	GroupTagFile    GroupStrategy = "tag-file"
	GroupMethodFile GroupStrategy = "method-file"
)

// defaultGroup holds endpoints without a tag.
const defaultGroup = "Default"

// ParseGroupStrategy validates a strategy name.
func ParseGroupStrategy(s string) (GroupStrategy, error) {
	switch strategy := GroupStrategy(s); strategy {
	case GroupNone, GroupTag, GroupMethod, GroupTagFile, GroupMethodFile:
		return strategy, nil
	case "":
		return GroupNone, nil
	}
	return "", fmt.Errorf("unknown group strategy %q", s)
}

// IsFile reports whether every group is written to its own file.
func (s GroupStrategy) IsFile() bool {
	return s == GroupTagFile || s == GroupMethodFile
}

func (s GroupStrategy) byTag() bool {
	return s == GroupTag || s == GroupTagFile
}

// Group is a self-contained subset of the client.
type Group struct {
	Name      string            `json:"name"`
	FileName  string            `json:"fileName"`
	Endpoints []*Endpoint       `json:"endpoints"`
	Schemas   *omap.Map[string] `json:"schemas"`
	Types     *omap.Map[string] `json:"types"`
	// Imports are the common schemas the group uses, for file strategies.
	Imports []string `json:"imports,omitempty"`
}

func (r *run) groupName(endpoint *Endpoint) string {
	if r.opts.GroupStrategy.byTag() {
		if len(endpoint.Tags) == 0 || endpoint.Tags[0] == "" {
			return defaultGroup
		}
		return util.NormalizeString(endpoint.Tags[0])
	}
	return endpoint.Method
}

// group fills result.Groups. Schemas keep the global declaration order.
func (r *run) group(result *Result, vars *graph.Graph) error {
	if r.opts.GroupStrategy == GroupNone {
		return nil
	}

	groups := omap.New[*Group]()
	for _, endpoint := range result.Endpoints {
		name := r.groupName(endpoint)
		g, ok := groups.Get(name)
		if !ok {
			g = &Group{
				Name:     name,
				FileName: flect.Dasherize(name),
				Schemas:  omap.New[string](),
				Types:    omap.New[string](),
			}
			groups.Set(name, g)
		}
		g.Endpoints = append(g.Endpoints, endpoint)
	}

	usedBy := make(map[string]int)
	for _, g := range groups.All() {
		var roots []string
		for _, endpoint := range g.Endpoints {
			roots = append(roots, endpoint.uses...)
		}
		used := reachable(vars, roots)
		for name, expr := range result.Schemas.All() {
			if used[name] {
				g.Schemas.Set(name, expr)
				usedBy[name]++
			}
		}
	}

	if r.opts.GroupStrategy.IsFile() {
		for name := range result.Schemas.All() {
			if usedBy[name] > 1 {
				result.CommonSchemaNames = append(result.CommonSchemaNames, name)
			}
		}
		for _, g := range groups.All() {
			for _, name := range result.CommonSchemaNames {
				if g.Schemas.Has(name) {
					g.Schemas.Delete(name)
					g.Imports = append(g.Imports, name)
				}
			}
		}
	}

	for _, g := range groups.All() {
		for name, typ := range result.Types.All() {
			if g.Schemas.Has(name) {
				g.Types.Set(name, typ)
			}
		}
		result.Groups = append(result.Groups, g)
		r.logger.Debug().Str("group", g.Name).Int("endpoints", len(g.Endpoints)).Int("schemas", g.Schemas.Len()).Msg("grouped endpoints")
	}
	return nil
}
