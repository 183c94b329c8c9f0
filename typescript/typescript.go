// Package typescript converts OpenAPI schemas into static type expressions.
//
// It walks schemas the same way the zod converter does but a `$ref` only
// becomes a named type when the ref is recursive or was requested with Name.
// Every other ref is expanded in place.
package typescript

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zodgen/openapi-zod-gen/ast"
	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/util"
	"github.com/zodgen/openapi-zod-gen/zod"
)

// Declaration is a named type alias.
type Declaration struct {
	Name string
	Ref  string
	Type string
}

// String renders the declaration as a type alias statement.
func (d Declaration) String() string {
	return "type " + d.Name + " = " + d.Type + ";"
}

// Namer returns the type name of a ref.
type Namer func(ref string) string

// Context converts schemas of one document. It is not safe for concurrent use.
type Context struct {
	resolver zod.SchemaResolver
	deps     *graph.Dependencies
	opts     zod.Options
	namer    Namer
	logger   zerolog.Logger

	named     map[string]bool
	declaring map[string]bool
	decls     *omap.Map[ast.Node]
}

// NewContext creates a type conversion context. namer may be nil, in which
// case type names are derived from the component names.
func NewContext(resolver zod.SchemaResolver, deps *graph.Dependencies, opts zod.Options, namer Namer) *Context {
	if namer == nil {
		namer = func(ref string) string {
			return util.NormalizeString(openapi.SchemaName(ref))
		}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Context{
		resolver:  resolver,
		deps:      deps,
		opts:      opts,
		namer:     namer,
		logger:    logger,
		named:     make(map[string]bool),
		declaring: make(map[string]bool),
		decls:     omap.New[ast.Node](),
	}
}

// Name requests named types for refs and declares them.
func (c *Context) Name(refs ...string) error {
	for _, ref := range refs {
		c.named[ref] = true
		if err := c.declare(ref); err != nil {
			return err
		}
	}
	return nil
}

// RefName implements ast.Resolver.
func (c *Context) RefName(ref string) string {
	return c.namer(ref)
}

// HashName implements ast.Resolver. Type expressions never hold hashes.
func (c *Context) HashName(hash string) string {
	return "@ref/" + hash
}

// Render renders a type expression.
func (c *Context) Render(n ast.Node) string {
	return ast.Render(n, c)
}

// Convert returns the type of schema. ancestors are the refs being expanded
// above it.
func (c *Context) Convert(schema *openapi.Schema, ancestors []string) (ast.Node, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: missing schema", zod.ErrUnsupportedType)
	}
	if schema.IsRef() {
		return c.ref(schema.Ref, ancestors)
	}

	node, err := c.inline(schema, ancestors)
	if err != nil {
		return nil, err
	}
	if schema.Nullable {
		node = ast.Seq(group(node), ast.Code(" | null"))
	}
	return node, nil
}

func (c *Context) ref(ref string, ancestors []string) (ast.Node, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("%w: %s", zod.ErrContextRequired, ref)
	}

	recursive := c.named[ref] || (c.deps != nil && c.deps.IsCircular(ref))
	for _, a := range ancestors {
		if a == ref {
			recursive = true
			break
		}
	}
	if recursive {
		c.named[ref] = true
		if err := c.declare(ref); err != nil {
			return nil, err
		}
		return ast.TypeRef{Ref: ref}, nil
	}

	target, err := c.resolver.SchemaByRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", zod.ErrSchemaNotFound, err)
	}
	return c.Convert(target, append(append([]string(nil), ancestors...), ref))
}

func (c *Context) declare(ref string) error {
	if c.declaring[ref] || c.decls.Has(ref) {
		return nil
	}
	c.declaring[ref] = true
	defer delete(c.declaring, ref)

	target, err := c.resolver.SchemaByRef(ref)
	if err != nil {
		return fmt.Errorf("%w: %w", zod.ErrSchemaNotFound, err)
	}
	node, err := c.Convert(target, []string{ref})
	if err != nil {
		return err
	}
	c.decls.Set(ref, node)
	c.logger.Debug().Str("ref", ref).Str("name", c.namer(ref)).Msg("declared type")
	return nil
}

func (c *Context) inline(schema *openapi.Schema, ancestors []string) (ast.Node, error) {
	if len(schema.Type) > 1 {
		members := make([]*openapi.Schema, 0, len(schema.Type))
		for _, t := range schema.Type {
			members = append(members, schema.WithType(t))
		}
		return c.join(members, ancestors, " | ")
	}
	if schema.Type.Is(openapi.TypeNull) {
		return ast.Code("null"), nil
	}

	switch {
	case len(schema.OneOf) > 0:
		return c.join(schema.OneOf, ancestors, " | ")
	case len(schema.AnyOf) > 0:
		node, err := c.join(schema.AnyOf, ancestors, " | ")
		if err != nil || c.opts.AnyOfPolicy != zod.AnyOfUnionOrArray {
			return node, err
		}
		return ast.Seq(group(node), ast.Code(" | Array<"), node, ast.Code(">")), nil
	case len(schema.AllOf) > 0:
		return c.join(schema.AllOf, ancestors, " & ")
	}

	typeName := schema.Type.Name()
	if openapi.IsPrimitiveType(typeName) {
		return primitive(schema), nil
	}

	if typeName == openapi.TypeArray {
		item := ast.Node(ast.Code("any"))
		if schema.Items != nil {
			var err error
			if item, err = c.Convert(schema.Items, ancestors); err != nil {
				return nil, err
			}
		}
		return ast.Seq(ast.Code(util.Choose(c.opts.AllReadonly, "ReadonlyArray<", "Array<")), item, ast.Code(">")), nil
	}

	if typeName == openapi.TypeObject || schema.IsObjectLike() {
		return c.object(schema, ancestors)
	}
	if typeName == "" {
		return ast.Code("unknown"), nil
	}
	return nil, fmt.Errorf("%w: %q", zod.ErrUnsupportedType, typeName)
}

// join converts members and joins them with sep. Required-only allOf
// fragments carry no shape and are skipped.
func (c *Context) join(members []*openapi.Schema, ancestors []string, sep string) (ast.Node, error) {
	nodes := make([]ast.Node, 0, len(members))
	for _, member := range members {
		if sep == " & " && isRequiredOnly(member) {
			continue
		}
		node, err := c.Convert(member, ancestors)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	switch len(nodes) {
	case 0:
		return ast.Code("unknown"), nil
	case 1:
		return nodes[0], nil
	}
	for i, node := range nodes {
		nodes[i] = group(node)
	}
	return ast.Join(nodes, sep), nil
}

func primitive(schema *openapi.Schema) ast.Node {
	if len(schema.Enum) > 0 {
		literals := make([]string, 0, len(schema.Enum))
		for _, v := range schema.Enum {
			literals = append(literals, zod.Literal(v))
		}
		return ast.Code(strings.Join(literals, " | "))
	}
	switch schema.Type.Name() {
	case openapi.TypeString:
		return ast.Code(util.Choose(schema.Format == "binary", "File", "string"))
	case openapi.TypeNumber, openapi.TypeInteger:
		return ast.Code("number")
	case openapi.TypeBoolean:
		return ast.Code("boolean")
	}
	return ast.Code("null")
}

func (c *Context) object(schema *openapi.Schema, ancestors []string) (ast.Node, error) {
	if schema.AdditionalProperties.IsSchema() {
		value, err := c.Convert(schema.AdditionalProperties.Schema, ancestors)
		if err != nil {
			return nil, err
		}
		record := ast.Seq(ast.Code("Record<string, "), value, ast.Code(">"))
		if c.opts.AllReadonly {
			return ast.Seq(ast.Code("Readonly<"), record, ast.Code(">")), nil
		}
		return record, nil
	}

	hasRequired := len(schema.Required) > 0
	isPartial := !c.opts.WithImplicitRequiredProps && !hasRequired
	modifier := util.Choose(c.opts.AllReadonly, "readonly ", "")

	props := make([]ast.Node, 0, schema.Properties.Len())
	for name, prop := range schema.Properties.All() {
		node, err := c.Convert(prop, ancestors)
		if err != nil {
			return nil, err
		}
		optional := hasRequired && !schema.IsRequired(name)
		key := modifier + zod.PropertyKey(name) + util.Choose(optional, "?: ", ": ")
		props = append(props, ast.Seq(ast.Code(key), node))
	}

	body := ast.Node(ast.Code("{}"))
	if len(props) > 0 {
		body = ast.Seq(ast.Code("{ "), ast.Join(props, "; "), ast.Code(" }"))
	}
	if isPartial && len(props) > 0 {
		return ast.Seq(ast.Code("Partial<"), body, ast.Code(">")), nil
	}
	return body, nil
}

// Declarations returns the named types, each after the types it uses.
func (c *Context) Declarations() []Declaration {
	g := graph.New()
	for ref, node := range c.decls.All() {
		g.AddNode(ref)
		for _, dep := range ast.TypeRefs(node) {
			g.AddEdge(ref, dep)
		}
	}

	decls := make([]Declaration, 0, c.decls.Len())
	for _, ref := range graph.Sort(g) {
		node, ok := c.decls.Get(ref)
		if !ok {
			continue
		}
		decls = append(decls, Declaration{Name: c.namer(ref), Ref: ref, Type: c.Render(node)})
	}
	return decls
}

// group parenthesizes top-level unions and intersections so they can be
// nested.
func group(n ast.Node) ast.Node {
	depth := 0
	text := ast.Canonical(n)
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '"':
			for i++; i < len(text) && text[i] != '"'; i++ {
				if text[i] == '\\' {
					i++
				}
			}
		case '(', '<', '{', '[':
			depth++
		case ')', '>', '}', ']':
			depth--
		case '|', '&':
			if depth == 0 {
				return ast.Seq(ast.Code("("), n, ast.Code(")"))
			}
		}
	}
	return n
}

func isRequiredOnly(s *openapi.Schema) bool {
	return s != nil && !s.IsRef() && len(s.Required) > 0 && len(s.Type) == 0 &&
		s.Properties.Len() == 0 && s.Items == nil && s.AdditionalProperties == nil &&
		len(s.OneOf) == 0 && len(s.AnyOf) == 0 && len(s.AllOf) == 0
}
