package zod

import (
	"golang.org/x/exp/slices"

	"github.com/zodgen/openapi-zod-gen/ast"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/openapi"
)

func (c *Context) oneOf(schema *openapi.Schema, meta Meta) (ast.Node, error) {
	if len(schema.OneOf) == 1 {
		return c.single(schema.OneOf[0], meta)
	}

	if c.canDiscriminate(schema, meta) {
		members := make([]ast.Node, 0, len(schema.OneOf))
		for _, member := range schema.OneOf {
			cm, err := c.Convert(member, meta.child(meta.Name, true))
			if err != nil {
				return nil, err
			}
			members = append(members, cm.Expr)
		}
		return ast.Seq(
			ast.Code("z.discriminatedUnion("+Quote(schema.Discriminator.PropertyName)+", ["),
			ast.Join(members, ", "),
			ast.Code("])"),
		), nil
	}
	return c.union(schema.OneOf, meta)
}

func (c *Context) anyOf(schema *openapi.Schema, meta Meta) (ast.Node, error) {
	var (
		expr ast.Node
		err  error
	)
	if len(schema.AnyOf) == 1 {
		expr, err = c.single(schema.AnyOf[0], meta)
	} else {
		expr, err = c.union(schema.AnyOf, meta)
	}
	if err != nil {
		return nil, err
	}

	if c.opts.AnyOfPolicy == AnyOfUnionOrArray {
		return ast.Seq(ast.Code("z.union(["), expr, ast.Code(", z.array("), expr, ast.Code(")])")), nil
	}
	return expr, nil
}

func (c *Context) allOf(schema *openapi.Schema, meta Meta) (ast.Node, error) {
	if len(schema.AllOf) == 1 {
		return c.single(schema.AllOf[0], meta)
	}

	var (
		fragments    []*openapi.Schema
		requiredOnly []string
	)
	for _, member := range schema.AllOf {
		if isRequiredOnly(member) {
			requiredOnly = appendUnique(requiredOnly, member.Required...)
			continue
		}
		fragments = append(fragments, member)
	}
	if len(requiredOnly) > 0 {
		fragments = append(fragments, c.composeRequired(requiredOnly, fragments))
	}

	var expr ast.Node
	for i, fragment := range fragments {
		cm, err := c.Expression(fragment, meta.child(meta.Name, true))
		if err != nil {
			return nil, err
		}
		if i == 0 {
			expr = cm.Expr
			continue
		}
		expr = ast.Seq(expr, ast.Code(".and("), cm.Expr, ast.Code(")"))
	}
	return expr, nil
}

// single converts the only member of a composition, with its own chain.
func (c *Context) single(member *openapi.Schema, meta Meta) (ast.Node, error) {
	cm, err := c.Expression(member, meta.child(meta.Name, true))
	if err != nil {
		return nil, err
	}
	return cm.Expr, nil
}

func (c *Context) union(members []*openapi.Schema, meta Meta) (ast.Node, error) {
	nodes := make([]ast.Node, 0, len(members))
	for _, member := range members {
		cm, err := c.Expression(member, meta.child(meta.Name, true))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, cm.Expr)
	}
	return ast.Seq(ast.Code("z.union(["), ast.Join(nodes, ", "), ast.Code("])")), nil
}

// canDiscriminate reports whether every oneOf member is an object carrying the
// discriminator property. Intersections of several schemas are not objects
// the target library can discriminate.
func (c *Context) canDiscriminate(schema *openapi.Schema, meta Meta) bool {
	d := schema.Discriminator
	if d == nil || d.PropertyName == "" {
		return false
	}
	for _, member := range schema.OneOf {
		if member == nil {
			return false
		}
		resolved, err := c.resolveDeep(member)
		if err != nil || resolved == nil {
			return false
		}
		if len(member.AllOf) > 1 || len(resolved.AllOf) > 1 {
			c.logger.Debug().Str("name", meta.Name).Msg("discriminator ignored: a member is an intersection")
			return false
		}
		if !resolved.IsObjectLike() || !resolved.Properties.Has(d.PropertyName) {
			c.logger.Debug().
				Str("name", meta.Name).
				Str("property", d.PropertyName).
				Msg("discriminator ignored: a member does not declare the property")
			return false
		}
	}
	return true
}

// isRequiredOnly matches allOf members such as `{required: [name]}` that only
// add required property names to their siblings.
func isRequiredOnly(s *openapi.Schema) bool {
	return s != nil && !s.IsRef() && len(s.Required) > 0 &&
		len(s.Type) == 0 && s.Properties.Len() == 0 && s.AdditionalProperties == nil && s.Items == nil &&
		len(s.OneOf) == 0 && len(s.AnyOf) == 0 && len(s.AllOf) == 0
}

// composeRequired builds an object requiring names, with property schemas
// taken from the first sibling declaring them and unknown otherwise.
func (c *Context) composeRequired(names []string, siblings []*openapi.Schema) *openapi.Schema {
	props := omap.New[*openapi.Schema]()
	for _, name := range names {
		props.Set(name, &openapi.Schema{})
		for _, sibling := range siblings {
			resolved, err := c.resolveDeep(sibling)
			if err != nil {
				continue
			}
			if prop, ok := resolved.Properties.Get(name); ok {
				props.Set(name, prop)
				break
			}
		}
	}
	return &openapi.Schema{
		Type:       openapi.SchemaType{openapi.TypeObject},
		Properties: props,
		Required:   names,
	}
}

func appendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if !slices.Contains(list, v) {
			list = append(list, v)
		}
	}
	return list
}
