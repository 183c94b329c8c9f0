// Package zod converts OpenAPI schemas into zod validator expressions.
//
// Conversion happens in two phases. Convert builds an ast.Node tree in which
// every `$ref` is a symbolic node keyed by the content hash of the referenced
// schema. Once the whole document has been walked and every schema has a
// variable name, the tree is rendered with the Context acting as name
// resolver.
package zod

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zodgen/openapi-zod-gen/ast"
	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/util"
)

// SchemaResolver resolves `$ref` pointers.
type SchemaResolver interface {
	SchemaByRef(ref string) (*openapi.Schema, error)
}

// Meta describes the position of a schema in the conversion.
type Meta struct {
	IsRequired   bool
	Name         string
	NestingLevel int
	// Ancestors are the refs being resolved above this node, outermost first.
	Ancestors []string
}

// CodeMeta is the result of converting one schema.
type CodeMeta struct {
	Expr ast.Node
	// Ref is set when the schema was a reference.
	Ref string
	// Schema is the resolved schema the expression was built from.
	Schema *openapi.Schema
	Meta   Meta
}

// Declaration is a named schema expression ready to be emitted.
type Declaration struct {
	Name string
	Hash string
	// Ref is the component ref the declaration was created for, if any.
	Ref  string
	Expr ast.Node
	Lazy bool
	// AliasOf names the declaration this one duplicates.
	AliasOf string
}

// Context holds the memo tables of one conversion run. It is not safe for
// concurrent use.
type Context struct {
	resolver SchemaResolver
	deps     *graph.Dependencies
	opts     Options
	logger   zerolog.Logger

	hashByRef          map[string]string
	exprByHash         map[string]ast.Node
	hashByName         *omap.Map[string]
	nameByHash         map[string]string
	refByName          map[string]string
	dependenciesByHash map[string][]string
	lazy               map[string]bool

	nameByRef     map[string]string
	reserved      map[string]string
	circularRefs  []string
	circularIndex map[string]bool
}

// NewContext creates a conversion context. resolver may be nil when no
// schema contains a `$ref`; deps may be nil, in which case recursion is
// detected from the converted expressions alone.
func NewContext(resolver SchemaResolver, deps *graph.Dependencies, opts Options) *Context {
	return &Context{
		resolver:           resolver,
		deps:               deps,
		opts:               opts,
		logger:             opts.logger(),
		hashByRef:          make(map[string]string),
		exprByHash:         make(map[string]ast.Node),
		hashByName:         omap.New[string](),
		nameByHash:         make(map[string]string),
		refByName:          make(map[string]string),
		dependenciesByHash: make(map[string][]string),
		lazy:               make(map[string]bool),
		nameByRef:          make(map[string]string),
		reserved:           make(map[string]string),
		circularIndex:      make(map[string]bool),
	}
}

// Options returns the options the context was created with.
func (c *Context) Options() Options {
	return c.opts
}

// Reserve assigns variable names to refs up front, in order, so that names
// picked later for inline schemas never take them.
func (c *Context) Reserve(refs ...string) {
	for _, ref := range refs {
		if _, ok := c.nameByRef[ref]; ok {
			continue
		}
		base := util.NormalizeString(openapi.SchemaName(ref))
		name := base
		for i := 2; c.reserved[name] != "" || c.hashByName.Has(name); i++ {
			name = fmt.Sprintf("%s__%d", base, i)
		}
		c.reserved[name] = ref
		c.nameByRef[ref] = name
	}
}

// RefName returns the variable name of a ref. It implements ast.Resolver.
func (c *Context) RefName(ref string) string {
	if name, ok := c.nameByRef[ref]; ok {
		return name
	}
	return util.NormalizeString(openapi.SchemaName(ref))
}

// HashName returns the variable name bound to a hash. It implements
// ast.Resolver.
func (c *Context) HashName(hash string) string {
	if name, ok := c.nameByHash[hash]; ok {
		return name
	}
	return "@ref/" + hash
}

// Render renders an expression with the names known to the context.
func (c *Context) Render(expr ast.Node) string {
	return ast.Render(expr, c)
}

// HashOfRef returns the hash a ref was converted to.
func (c *Context) HashOfRef(ref string) (string, bool) {
	hash, ok := c.hashByRef[ref]
	return hash, ok
}

// Lookup returns the expression stored for a hash.
func (c *Context) Lookup(hash string) (ast.Node, bool) {
	expr, ok := c.exprByHash[hash]
	return expr, ok
}

// NameOf returns the variable name bound to a hash.
func (c *Context) NameOf(hash string) (string, bool) {
	name, ok := c.nameByHash[hash]
	return name, ok
}

// HashOfName returns the hash bound to a variable name.
func (c *Context) HashOfName(name string) (string, bool) {
	return c.hashByName.Get(name)
}

// Dependencies returns the hashes the expression stored under hash refers to.
func (c *Context) Dependencies(hash string) []string {
	return c.dependenciesByHash[hash]
}

// IsLazy reports whether the declaration for hash is wrapped in z.lazy.
func (c *Context) IsLazy(hash string) bool {
	return c.lazy[hash]
}

// CircularRefs returns the refs that were found to be recursive, in the order
// they were declared.
func (c *Context) CircularRefs() []string {
	return c.circularRefs
}

// Intern binds an inline expression to a variable name derived from
// fallback and returns that name. An identical expression that already has a
// name keeps it; colliding names get a `__2`, `__3`, ... suffix.
func (c *Context) Intern(expr ast.Node, fallback string) string {
	hash := Hash(expr)
	if name, ok := c.nameByHash[hash]; ok {
		return name
	}
	name := c.uniqueName(util.NormalizeString(fallback), hash, "")
	c.store(hash, expr, name, "")
	c.logger.Debug().Str("name", name).Str("hash", hash).Msg("named inline schema")
	return name
}

// uniqueName returns base, or base with the first free numeric suffix. A
// name is free when it is unbound, or bound to hash, and not reserved for a
// different ref.
func (c *Context) uniqueName(base, hash, ref string) string {
	name := base
	for i := 2; c.nameTaken(name, hash, ref); i++ {
		name = fmt.Sprintf("%s__%d", base, i)
	}
	return name
}

func (c *Context) nameTaken(name, hash, ref string) bool {
	if owner, ok := c.reserved[name]; ok && owner != ref {
		return true
	}
	bound, ok := c.hashByName.Get(name)
	return ok && bound != hash
}

// store records expr under hash and binds name to it. The first name bound
// to a hash is its primary name; later names become aliases.
func (c *Context) store(hash string, expr ast.Node, name, ref string) {
	if _, ok := c.exprByHash[hash]; !ok {
		c.exprByHash[hash] = expr
		c.dependenciesByHash[hash] = ast.Hashes(expr)
	}
	if _, ok := c.hashByName.Get(name); !ok {
		c.hashByName.Set(name, hash)
	}
	if _, ok := c.nameByHash[hash]; !ok {
		c.nameByHash[hash] = name
	}
	if ref != "" {
		c.refByName[name] = ref
	}
}

// Declarations returns every named expression in the order it was
// registered: referenced schemas before the schemas using them.
func (c *Context) Declarations() []Declaration {
	decls := make([]Declaration, 0, c.hashByName.Len())
	for name, hash := range c.hashByName.All() {
		decl := Declaration{
			Name: name,
			Hash: hash,
			Ref:  c.refByName[name],
			Expr: c.exprByHash[hash],
			Lazy: c.lazy[hash],
		}
		if primary := c.nameByHash[hash]; primary != name {
			decl.AliasOf = primary
			decl.Expr = ast.Ref{Hash: hash}
			decl.Lazy = false
		}
		decls = append(decls, decl)
	}
	return decls
}

// DeclarationDependencies returns the names a declaration refers to.
func (c *Context) DeclarationDependencies(decl Declaration) []string {
	return c.Uses(decl.Expr)
}

// Uses returns the variable names expr refers to, in order of appearance.
func (c *Context) Uses(expr ast.Node) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for _, hash := range ast.Hashes(expr) {
		add(c.nameByHash[hash])
	}
	for _, ref := range ast.CircularRefs(expr) {
		add(c.RefName(ref))
	}
	return names
}
