package typescript

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/zod"
)

const document = `
openapi: 3.1.0
info: {title: test, version: "1"}
paths: {}
components:
  schemas:
    User:
      type: object
      properties:
        name:
          type: string
        parent:
          $ref: '#/components/schemas/User'
    Author:
      type: object
      required: [posts]
      properties:
        posts:
          type: array
          items:
            $ref: '#/components/schemas/Post'
    Post:
      allOf:
        - $ref: '#/components/schemas/Author'
        - type: object
          properties:
            title:
              type: string
    Name:
      type: string
    Person:
      type: object
      required: [name]
      properties:
        name:
          $ref: '#/components/schemas/Name'
        nickname:
          $ref: '#/components/schemas/Name'
    Cat:
      type: object
      required: [kind]
      properties:
        kind:
          type: string
          enum: [cat]
    Dog:
      type: object
      required: [kind]
      properties:
        kind:
          type: string
          enum: [dog]
        bark:
          type: boolean
    Pet:
      oneOf:
        - $ref: '#/components/schemas/Cat'
        - $ref: '#/components/schemas/Dog'
`

func newContext(t *testing.T, opts zod.Options, namer Namer) *Context {
	t.Helper()
	doc, err := openapi.Load(context.Background(), []byte(document))
	require.NoError(t, err)
	resolver := openapi.NewResolver(doc)
	return NewContext(resolver, graph.Build(resolver.ComponentSchemaRefs(), resolver.LookupSchema), opts, namer)
}

func typeOf(t *testing.T, ctx *Context, src string) string {
	t.Helper()
	var schema openapi.Schema
	require.NoError(t, yaml.Unmarshal([]byte(src), &schema))
	node, err := ctx.Convert(&schema, nil)
	require.NoError(t, err)
	return ctx.Render(node)
}

func TestConvert_Inline(t *testing.T) {
	tests := []struct {
		name   string
		opts   zod.Options
		schema string
		want   string
	}{
		{"string", zod.Options{}, `{type: string}`, "string"},
		{"binary", zod.Options{}, `{type: string, format: binary}`, "File"},
		{"integer", zod.Options{}, `{type: integer}`, "number"},
		{"boolean", zod.Options{}, `{type: boolean}`, "boolean"},
		{"null", zod.Options{}, `{type: "null"}`, "null"},
		{"nullable", zod.Options{}, `{type: string, nullable: true}`, "string | null"},
		{"enum", zod.Options{}, `{type: string, enum: [a, b]}`, `"a" | "b"`},
		{"nullable enum", zod.Options{}, `{type: string, enum: [a, b], nullable: true}`, `("a" | "b") | null`},
		{"type list", zod.Options{}, `{type: [string, "null"]}`, "string | null"},
		{"no type", zod.Options{}, `{}`, "unknown"},
		{"array", zod.Options{}, `{type: array, items: {type: string}}`, "Array<string>"},
		{"array without items", zod.Options{}, `{type: array}`, "Array<any>"},
		{"readonly array", zod.Options{AllReadonly: true}, `{type: array, items: {type: string}}`, "ReadonlyArray<string>"},
		{"record", zod.Options{}, `{type: object, additionalProperties: {type: number}}`, "Record<string, number>"},
		{"readonly record", zod.Options{AllReadonly: true}, `{type: object, additionalProperties: {type: number}}`, "Readonly<Record<string, number>>"},
		{"empty object", zod.Options{}, `{type: object}`, "{}"},
		{"partial object", zod.Options{}, `{type: object, properties: {a: {type: string}}}`, "Partial<{ a: string }>"},
		{"implicit required", zod.Options{WithImplicitRequiredProps: true}, `{type: object, properties: {a: {type: string}}}`, "{ a: string }"},
		{
			"required subset", zod.Options{},
			`{type: object, required: [str], properties: {str: {type: string}, nb: {type: number}}}`,
			"{ str: string; nb?: number }",
		},
		{"quoted key", zod.Options{}, `{type: object, required: [a-b], properties: {a-b: {type: string}}}`, `{ "a-b": string }`},
		{"readonly props", zod.Options{AllReadonly: true}, `{type: object, required: [a], properties: {a: {type: string}}}`, "{ readonly a: string }"},
		{"oneOf", zod.Options{}, `{oneOf: [{type: string}, {type: number}]}`, "string | number"},
		{"single oneOf", zod.Options{}, `{oneOf: [{type: string}]}`, "string"},
		{"nested union", zod.Options{}, `{allOf: [{oneOf: [{type: string}, {type: number}]}, {type: object}]}`, "(string | number) & {}"},
		{"anyOf", zod.Options{}, `{anyOf: [{type: string}, {type: number}]}`, "string | number"},
		{
			"anyOf union or array", zod.Options{AnyOfPolicy: zod.AnyOfUnionOrArray},
			`{anyOf: [{type: string}, {type: number}]}`,
			"(string | number) | Array<string | number>",
		},
		{
			"allOf skips required-only fragments", zod.Options{},
			`{allOf: [{required: [name]}, {type: object, properties: {name: {type: string}}}]}`,
			"Partial<{ name: string }>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := NewContext(nil, nil, tt.opts, nil)
			assert.Equal(t, tt.want, typeOf(t, ctx, tt.schema))
		})
	}
}

func TestConvert_RefsExpandInPlace(t *testing.T) {
	ctx := newContext(t, zod.Options{}, nil)

	assert.Equal(t, "{ name: string; nickname?: string }", typeOf(t, ctx, `{$ref: '#/components/schemas/Person'}`))
	assert.Equal(t,
		`{ kind: "cat" } | { kind: "dog"; bark?: boolean }`,
		typeOf(t, ctx, `{$ref: '#/components/schemas/Pet'}`))
	assert.Empty(t, ctx.Declarations())
}

func TestConvert_SelfReference(t *testing.T) {
	ctx := newContext(t, zod.Options{}, nil)

	assert.Equal(t, "User", typeOf(t, ctx, `{$ref: '#/components/schemas/User'}`))
	decls := ctx.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, "User", decls[0].Name)
	assert.Equal(t, "type User = Partial<{ name: string; parent: User }>;", decls[0].String())
}

func TestConvert_MutualReference(t *testing.T) {
	ctx := newContext(t, zod.Options{}, nil)

	assert.Equal(t, "Array<Post>", typeOf(t, ctx, `{type: array, items: {$ref: '#/components/schemas/Post'}}`))
	decls := ctx.Declarations()
	require.Len(t, decls, 2)
	assert.Equal(t, "Post", decls[0].Name)
	assert.Equal(t, "Author & Partial<{ title: string }>", decls[0].Type)
	assert.Equal(t, "Author", decls[1].Name)
	assert.Equal(t, "{ posts: Array<Post> }", decls[1].Type)
}

func TestName(t *testing.T) {
	ctx := newContext(t, zod.Options{}, func(ref string) string {
		return "T" + openapi.SchemaName(ref)
	})

	require.NoError(t, ctx.Name(openapi.ComponentSchemaRef("Name")))
	assert.Equal(t, "{ name: TName; nickname?: TName }", typeOf(t, ctx, `{$ref: '#/components/schemas/Person'}`))

	decls := ctx.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, Declaration{Name: "TName", Ref: openapi.ComponentSchemaRef("Name"), Type: "string"}, decls[0])
}

func TestConvert_Errors(t *testing.T) {
	ctx := newContext(t, zod.Options{}, nil)

	_, err := ctx.Convert(&openapi.Schema{Ref: openapi.ComponentSchemaRef("Missing")}, nil)
	assert.ErrorIs(t, err, zod.ErrSchemaNotFound)

	_, err = ctx.Convert(&openapi.Schema{Type: openapi.SchemaType{"file"}}, nil)
	assert.ErrorIs(t, err, zod.ErrUnsupportedType)

	_, err = NewContext(nil, nil, zod.Options{}, nil).Convert(&openapi.Schema{Ref: openapi.ComponentSchemaRef("User")}, nil)
	assert.ErrorIs(t, err, zod.ErrContextRequired)

	assert.ErrorIs(t, ctx.Name(openapi.ComponentSchemaRef("Missing")), zod.ErrSchemaNotFound)
}
