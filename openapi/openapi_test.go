package openapi

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const petstore = `
openapi: 3.1.0
info:
  title: Petstore
  version: 1.0.0
paths:
  /pets/{pet-id}:
    parameters:
      - $ref: '#/components/parameters/PetId'
    post:
      operationId: updatePet
      requestBody:
        $ref: '#/components/requestBodies/PetBody'
      responses:
        "200":
          $ref: '#/components/responses/PetResponse'
    get:
      operationId: getPet
      responses:
        "200":
          description: ok
components:
  parameters:
    PetId:
      name: pet-id
      in: path
      schema:
        type: string
  requestBodies:
    PetBody:
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
  responses:
    PetResponse:
      description: the pet
      content:
        application/json:
          schema:
            $ref: '#/components/schemas/Pet'
  schemas:
    Pet:
      type: object
      required: [name]
      properties:
        name:
          type: string
        tags:
          type: array
          items:
            $ref: '#/components/schemas/Tag'
        nickname:
          type: [string, "null"]
        extra:
          additionalProperties:
            type: integer
        age:
          type: integer
          exclusiveMinimum: 0
          default: null
    Tag:
      oneOf:
        - type: string
        - type: number
    a/b:
      type: "null"
`

func loadPetstore(t *testing.T) *Document {
	t.Helper()
	doc, err := Load(context.Background(), []byte(petstore))
	require.NoError(t, err)
	return doc
}

func TestLoad_PreservesOrder(t *testing.T) {
	doc := loadPetstore(t)

	assert.Equal(t, "3.1.0", doc.OpenAPI)
	assert.Equal(t, []string{"/pets/{pet-id}"}, doc.Paths.Keys())
	assert.Equal(t, []string{"Pet", "Tag", "a/b"}, doc.Components.Schemas.Keys())

	item := doc.Paths.Value("/pets/{pet-id}")
	ops := item.Operations()
	require.Len(t, ops, 2)
	assert.Equal(t, "post", ops[0].Method)
	assert.Equal(t, "get", ops[1].Method)
	assert.Equal(t, "getPet", item.Operation("get").OperationID)
	assert.Nil(t, item.Operation("delete"))

	pet := doc.Components.Schemas.Value("Pet")
	assert.Equal(t, []string{"name", "tags", "nickname", "extra", "age"}, pet.Properties.Keys())
}

func TestLoad_SchemaKeywords(t *testing.T) {
	doc := loadPetstore(t)
	pet := doc.Components.Schemas.Value("Pet")

	nickname := pet.Properties.Value("nickname")
	assert.True(t, nickname.Type.IsList())
	assert.Equal(t, SchemaType{"string", "null"}, nickname.Type)

	extra := pet.Properties.Value("extra")
	assert.True(t, extra.AdditionalProperties.IsSchema())
	assert.True(t, extra.IsObjectLike())

	age := pet.Properties.Value("age")
	assert.True(t, age.HasDefault)
	assert.Nil(t, age.Default)
	n, ok := age.ExclusiveMinimum.Number()
	assert.True(t, ok)
	assert.Zero(t, n)
	assert.False(t, age.ExclusiveMinimum.IsSet())

	null := doc.Components.Schemas.Value("a/b")
	assert.True(t, null.Type.Is(TypeNull))

	assert.True(t, pet.IsRequired("name"))
	assert.False(t, pet.IsRequired("tags"))
}

func TestLoad_RejectsOtherVersions(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
	}{
		{name: "swagger", input: "swagger: '2.0'\ninfo: {title: x, version: '1'}\n", message: "only OpenAPI 3.x"},
		{name: "missing", input: "info: {title: x, version: '1'}\n", message: "missing openapi version"},
		{name: "four", input: "openapi: 4.0.0\n", message: "unsupported OpenAPI version"},
		{name: "not yaml", input: "openapi: [\n", message: "failed to parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(context.Background(), []byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestResolver_SchemaByRef(t *testing.T) {
	r := NewResolver(loadPetstore(t))

	tests := []struct {
		ref    string
		wantOK bool
		check  func(t *testing.T, s *Schema)
	}{
		{ref: "#/components/schemas/Pet", wantOK: true, check: func(t *testing.T, s *Schema) {
			assert.True(t, s.Type.Is(TypeObject))
		}},
		{ref: "#/components/schemas/Pet/properties/tags/items", wantOK: true, check: func(t *testing.T, s *Schema) {
			assert.Equal(t, "#/components/schemas/Tag", s.Ref)
		}},
		{ref: "#/components/schemas/Pet/properties/extra/additionalProperties", wantOK: true, check: func(t *testing.T, s *Schema) {
			assert.True(t, s.Type.Is(TypeInteger))
		}},
		{ref: "#/components/schemas/Tag/oneOf/1", wantOK: true, check: func(t *testing.T, s *Schema) {
			assert.True(t, s.Type.Is(TypeNumber))
		}},
		{ref: "#/components/schemas/a~1b", wantOK: true, check: func(t *testing.T, s *Schema) {
			assert.True(t, s.Type.Is(TypeNull))
		}},
		{ref: "#/components/schemas/Missing"},
		{ref: "#/components/schemas/Tag/oneOf/7"},
		{ref: "#/components/parameters/PetId"},
		{ref: "other.yaml#/components/schemas/Pet"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			s, err := r.SchemaByRef(tt.ref)
			if !tt.wantOK {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrRefNotFound))
				assert.Contains(t, err.Error(), tt.ref)
				assert.Nil(t, r.LookupSchema(tt.ref))
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestResolver_Components(t *testing.T) {
	doc := loadPetstore(t)
	r := NewResolver(doc)

	item := doc.Paths.Value("/pets/{pet-id}")
	param, err := r.Parameter(item.Parameters[0])
	require.NoError(t, err)
	assert.Equal(t, "pet-id", param.Name)
	assert.Equal(t, InPath, param.In)

	op := item.Operation("post")
	body, err := r.RequestBody(op.RequestBody)
	require.NoError(t, err)
	assert.Nil(t, body.Required)
	assert.Equal(t, "#/components/schemas/Pet", body.Content.Value("application/json").Schema.Ref)

	resp, err := r.Response(op.Responses.Value("200"))
	require.NoError(t, err)
	assert.Equal(t, "the pet", resp.Description)

	_, err = r.Response(&Response{Ref: "#/components/responses/Nope"})
	assert.ErrorIs(t, err, ErrRefNotFound)

	assert.Equal(t, []string{
		"#/components/schemas/Pet",
		"#/components/schemas/Tag",
		"#/components/schemas/a~1b",
	}, r.ComponentSchemaRefs())
}

func TestSchemaName(t *testing.T) {
	assert.Equal(t, "Pet", SchemaName("#/components/schemas/Pet"))
	assert.Equal(t, "a/b", SchemaName("#/components/schemas/a~1b"))
	assert.Equal(t, "a b", SchemaName("#/components/schemas/a%20b"))
	assert.True(t, IsComponentSchemaRef("#/components/schemas/Pet"))
	assert.False(t, IsComponentSchemaRef("#/components/schemas/Pet/properties/name"))
	assert.Equal(t, "#/components/schemas/a~1b", ComponentSchemaRef("a/b"))
}
