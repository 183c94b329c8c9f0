package zod

import (
	"fmt"
	"regexp"

	"golang.org/x/exp/slices"

	"github.com/zodgen/openapi-zod-gen/ast"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/util"
)

// bound on `$ref` -> `$ref` alias chains
const maxRefHops = 32

var bareKey = regexp.MustCompile(`^[a-zA-Z]\w*$`)

func (m Meta) child(name string, required bool) Meta {
	return Meta{
		IsRequired:   required,
		Name:         name,
		NestingLevel: m.NestingLevel + 1,
		Ancestors:    m.Ancestors,
	}
}

// Expression converts schema and appends the chain of the schema it resolves
// to. This is the form used wherever a schema is embedded in another one.
func (c *Context) Expression(schema *openapi.Schema, meta Meta) (*CodeMeta, error) {
	cm, err := c.Convert(schema, meta)
	if err != nil {
		return nil, err
	}
	cm.Expr = ast.Seq(cm.Expr, ast.Code(c.Chain(cm.Schema, meta)))
	return cm, nil
}

// Convert converts schema into an expression without its own chain. A `$ref`
// becomes a symbolic reference to the declaration of its target; the target
// is converted and registered the first time it is seen.
func (c *Context) Convert(schema *openapi.Schema, meta Meta) (*CodeMeta, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: missing schema for %q", ErrUnsupportedType, meta.Name)
	}
	if schema.IsRef() {
		return c.convertRef(schema.Ref, meta)
	}

	if c.opts.SchemaRefiner != nil {
		if refined := c.opts.SchemaRefiner(schema, meta); refined != nil {
			schema = refined
		}
		if schema.IsRef() {
			return c.convertRef(schema.Ref, meta)
		}
	}

	expr, err := c.convertInline(schema, meta)
	if err != nil {
		return nil, err
	}
	return &CodeMeta{Expr: expr, Schema: schema, Meta: meta}, nil
}

func (c *Context) convertRef(ref string, meta Meta) (*CodeMeta, error) {
	if c.resolver == nil {
		return nil, fmt.Errorf("%w: %s", ErrContextRequired, ref)
	}

	if slices.Contains(meta.Ancestors, ref) {
		resolved, err := c.resolveRef(ref)
		if err != nil {
			return nil, err
		}
		return &CodeMeta{Expr: ast.Circular{Ref: ref}, Ref: ref, Schema: resolved, Meta: meta}, nil
	}

	if hash, ok := c.hashByRef[ref]; ok {
		resolved, err := c.resolveRef(ref)
		if err != nil {
			return nil, err
		}
		return &CodeMeta{Expr: ast.Ref{Hash: hash}, Ref: ref, Schema: resolved, Meta: meta}, nil
	}

	target, err := c.resolver.SchemaByRef(ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaNotFound, err)
	}

	c.Reserve(ref)
	inner, err := c.Convert(target, Meta{
		IsRequired:   true,
		Name:         openapi.SchemaName(ref),
		NestingLevel: meta.NestingLevel + 1,
		Ancestors:    append(slices.Clone(meta.Ancestors), ref),
	})
	if err != nil {
		return nil, err
	}

	expr := inner.Expr
	lazy := c.isCircular(ref, expr)
	if lazy {
		expr = ast.Lazy{Inner: expr}
	}

	hash := Hash(expr)
	c.hashByRef[ref] = hash
	c.store(hash, expr, c.nameByRef[ref], ref)
	if lazy {
		c.lazy[hash] = true
		if !c.circularIndex[ref] {
			c.circularIndex[ref] = true
			c.circularRefs = append(c.circularRefs, ref)
		}
	}
	c.logger.Debug().
		Str("ref", ref).
		Str("name", c.nameByRef[ref]).
		Str("hash", hash).
		Bool("lazy", lazy).
		Msg("registered schema")

	return &CodeMeta{Expr: ast.Ref{Hash: hash}, Ref: ref, Schema: inner.Schema, Meta: meta}, nil
}

// isCircular uses the dependency graph when it knows ref and otherwise
// falls back to looking for back references in the converted expression.
func (c *Context) isCircular(ref string, expr ast.Node) bool {
	if c.deps != nil && c.deps.Direct.HasNode(ref) {
		return c.deps.IsCircular(ref)
	}
	return len(ast.CircularRefs(expr)) > 0
}

func (c *Context) resolveRef(ref string) (*openapi.Schema, error) {
	return c.resolveDeep(&openapi.Schema{Ref: ref})
}

// resolveDeep follows refs until it reaches an inline schema.
func (c *Context) resolveDeep(schema *openapi.Schema) (*openapi.Schema, error) {
	for hops := 0; schema.IsRef(); hops++ {
		if c.resolver == nil {
			return nil, fmt.Errorf("%w: %s", ErrContextRequired, schema.Ref)
		}
		if hops >= maxRefHops {
			return nil, fmt.Errorf("%w: %s only refers to other refs", ErrSchemaNotFound, schema.Ref)
		}
		next, err := c.resolver.SchemaByRef(schema.Ref)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSchemaNotFound, err)
		}
		schema = next
	}
	return schema, nil
}

func (c *Context) convertInline(schema *openapi.Schema, meta Meta) (ast.Node, error) {
	if len(schema.Type) > 1 {
		members := make([]ast.Node, 0, len(schema.Type))
		for _, t := range schema.Type {
			cm, err := c.Convert(schema.WithType(t), meta.child(meta.Name, meta.IsRequired))
			if err != nil {
				return nil, err
			}
			members = append(members, cm.Expr)
		}
		return ast.Seq(ast.Code("z.union(["), ast.Join(members, ", "), ast.Code("])")), nil
	}

	if schema.Type.Is(openapi.TypeNull) {
		return ast.Code("z.null()"), nil
	}

	c.warnEmptyComposition(schema, meta)
	switch {
	case len(schema.OneOf) > 0:
		return c.oneOf(schema, meta)
	case len(schema.AnyOf) > 0:
		return c.anyOf(schema, meta)
	case len(schema.AllOf) > 0:
		return c.allOf(schema, meta)
	}

	typeName := schema.Type.Name()
	if openapi.IsPrimitiveType(typeName) {
		return primitive(schema), nil
	}

	readonly := util.Choose(c.opts.AllReadonly, ".readonly()", "")
	if typeName == openapi.TypeArray {
		if schema.Items == nil {
			return ast.Code("z.array(z.any())" + readonly), nil
		}
		item, err := c.Expression(schema.Items, meta.child(meta.Name, true))
		if err != nil {
			return nil, err
		}
		return ast.Seq(ast.Code("z.array("), item.Expr, ast.Code(")"+readonly)), nil
	}

	if typeName == openapi.TypeObject || schema.IsObjectLike() {
		return c.object(schema, meta, readonly)
	}

	if typeName == "" {
		return ast.Code("z.unknown()"), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, typeName)
}

func (c *Context) warnEmptyComposition(schema *openapi.Schema, meta Meta) {
	compositions := []struct {
		keyword string
		members []*openapi.Schema
	}{
		{"oneOf", schema.OneOf},
		{"anyOf", schema.AnyOf},
		{"allOf", schema.AllOf},
	}
	for _, comp := range compositions {
		if comp.members != nil && len(comp.members) == 0 {
			c.logger.Warn().Str("keyword", comp.keyword).Str("name", meta.Name).Msg("ignoring empty composition")
		}
	}
}

func primitive(schema *openapi.Schema) ast.Node {
	if len(schema.Enum) > 0 {
		return enum(schema.Enum)
	}
	switch schema.Type.Name() {
	case openapi.TypeString:
		if schema.Format == "binary" {
			return ast.Code("z.instanceof(File)")
		}
		return ast.Code("z.string()")
	case openapi.TypeNumber, openapi.TypeInteger:
		return ast.Code("z.number()")
	case openapi.TypeBoolean:
		return ast.Code("z.boolean()")
	}
	return ast.Code("z.null()")
}

// enum collapses enum values: one value is a literal, several strings an
// enum, anything else a union of literals.
func enum(values []any) ast.Node {
	if len(values) == 1 {
		return ast.Code("z.literal(" + Literal(values[0]) + ")")
	}

	literals := make([]ast.Node, 0, len(values))
	allStrings := true
	for _, v := range values {
		if _, ok := v.(string); !ok {
			allStrings = false
		}
		literals = append(literals, ast.Code(Literal(v)))
	}
	if allStrings {
		return ast.Seq(ast.Code("z.enum(["), ast.Join(literals, ", "), ast.Code("])"))
	}

	for i, literal := range literals {
		literals[i] = ast.Seq(ast.Code("z.literal("), literal, ast.Code(")"))
	}
	return ast.Seq(ast.Code("z.union(["), ast.Join(literals, ", "), ast.Code("])"))
}

func (c *Context) object(schema *openapi.Schema, meta Meta, readonly string) (ast.Node, error) {
	if schema.AdditionalProperties.IsSchema() {
		value, err := c.Expression(schema.AdditionalProperties.Schema, meta.child(meta.Name, true))
		if err != nil {
			return nil, err
		}
		return ast.Seq(ast.Code("z.record("), value.Expr, ast.Code(")"+readonly)), nil
	}

	hasRequired := len(schema.Required) > 0
	isPartial := !c.opts.WithImplicitRequiredProps && !hasRequired

	props := make([]ast.Node, 0, schema.Properties.Len())
	for name, prop := range schema.Properties.All() {
		required := isPartial || !hasRequired || schema.IsRequired(name)
		cm, err := c.Expression(prop, meta.child(name, required))
		if err != nil {
			return nil, err
		}
		props = append(props, ast.Seq(ast.Code(PropertyKey(name)+": "), cm.Expr))
	}

	body := ast.Node(ast.Code("{}"))
	if len(props) > 0 {
		body = ast.Seq(ast.Code("{ "), ast.Join(props, ", "), ast.Code(" }"))
	}

	suffix := util.Choose(isPartial, ".partial()", "")
	suffix += util.Choose(c.opts.StrictObjects, ".strict()", "")
	suffix += util.Choose(c.passthrough(schema), ".passthrough()", "")
	suffix += readonly
	return ast.Seq(ast.Code("z.object("), body, ast.Code(")"+suffix)), nil
}

// passthrough decides whether unknown keys are kept. Strict objects only
// stay open when the schema says so itself.
func (c *Context) passthrough(schema *openapi.Schema) bool {
	ap := schema.AdditionalProperties
	explicitlyOpen := ap != nil && ((ap.Allowed != nil && *ap.Allowed) || ap.Schema != nil)
	switch {
	case c.opts.StrictObjects:
		return explicitlyOpen
	case ap == nil:
		return c.opts.additionalPropertiesDefault()
	case ap.Allowed != nil:
		return *ap.Allowed
	}
	return true
}

// PropertyKey returns name as an object key, quoted unless it is a plain
// identifier.
func PropertyKey(name string) string {
	if bareKey.MatchString(name) {
		return name
	}
	return Quote(name)
}
