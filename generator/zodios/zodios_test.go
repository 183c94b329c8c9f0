package zodios

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/parser"
)

const petExpr = "z.lazy(() => z.object({ name: z.string(), parent: Pet.optional() }).passthrough())"

func mapOf(kv ...string) *omap.Map[string] {
	m := omap.New[string]()
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

func petEndpoint() *parser.Endpoint {
	return &parser.Endpoint{
		Method:        "get",
		Path:          "/pets/:id",
		Alias:         "getPet",
		Description:   "Get a `pet`",
		RequestFormat: parser.RequestFormatJSON,
		Parameters: []parser.Parameter{
			{Name: "id", Type: parser.ParameterPath, Schema: "z.string()"},
		},
		Response: "Pet",
		Errors: []parser.ErrorResponse{
			{Status: parser.StatusDefault, Schema: "Error"},
		},
		Tags: []string{"pets"},
	}
}

func ownerEndpoint() *parser.Endpoint {
	return &parser.Endpoint{
		Method:        "post",
		Path:          "/owners",
		Alias:         "createOwner",
		RequestFormat: parser.RequestFormatJSON,
		Parameters: []parser.Parameter{
			{Name: "body", Type: parser.ParameterBody, Description: "The owner", Schema: "Owner"},
		},
		Response: "z.void()",
		Errors: []parser.ErrorResponse{
			{Status: "400", Description: "Bad request", Schema: "Error"},
		},
		Tags: []string{"owners"},
	}
}

func generate(t *testing.T, opts Options, result *parser.Result) map[string]string {
	t.Helper()
	g, err := NewGenerator(opts)
	require.NoError(t, err)
	files, err := g.Generate(context.Background(), result)
	require.NoError(t, err)
	return files
}

func TestGenerator_SingleFile(t *testing.T) {
	result := &parser.Result{
		BaseURL:         "https://api.example.com",
		Schemas:         mapOf("Pet", petExpr, "Error", "z.object({ code: z.number() }).passthrough()"),
		Types:           mapOf("Pet", "{ name: string; parent?: Pet }"),
		CircularSchemas: []string{"Pet"},
		Endpoints:       []*parser.Endpoint{petEndpoint()},
	}

	files := generate(t, Options{WithAlias: true}, result)
	require.Len(t, files, 1)

	want := strings.Join([]string{
		`import { makeApi, Zodios, type ZodiosOptions } from "@zodios/core";`,
		`import { z } from "zod";`,
		``,
		`type Pet = { name: string; parent?: Pet };`,
		``,
		`const Pet: z.ZodType<Pet> = ` + petExpr + `;`,
		`const Error = z.object({ code: z.number() }).passthrough();`,
		``,
		`const endpoints = makeApi([`,
		`  {`,
		`    method: "get",`,
		`    path: "/pets/:id",`,
		`    alias: "getPet",`,
		"    description: `Get a \\`pet\\``,",
		`    requestFormat: "json",`,
		`    parameters: [`,
		`      {`,
		`        name: "id",`,
		`        type: "Path",`,
		`        schema: z.string(),`,
		`      },`,
		`    ],`,
		`    response: Pet,`,
		`    errors: [`,
		`      {`,
		`        status: "default",`,
		`        schema: Error,`,
		`      },`,
		`    ],`,
		`  },`,
		`]);`,
		``,
		`export const api = new Zodios("https://api.example.com", endpoints);`,
		``,
		`export function createApiClient(baseUrl: string, options?: ZodiosOptions) {`,
		`  return new Zodios(baseUrl, endpoints, options);`,
		`}`,
		``,
	}, "\n")
	assert.Equal(t, want, files["client.ts"])
}

func TestGenerator_Options(t *testing.T) {
	result := &parser.Result{
		BaseURL:   "https://api.example.com",
		Schemas:   mapOf("Owner", "z.object({}).passthrough()", "Error", "z.object({}).passthrough()"),
		Types:     omap.New[string](),
		Endpoints: []*parser.Endpoint{ownerEndpoint()},
	}

	content := generate(t, Options{BaseURL: "http://localhost:8080", ExportSchemas: true}, result)["client.ts"]
	assert.Contains(t, content, "export const schemas = {\n  Owner,\n  Error,\n};")
	assert.Contains(t, content, `export const api = new Zodios("http://localhost:8080", endpoints);`)
	assert.NotContains(t, content, "alias:")
	assert.NotContains(t, content, "type Owner")
	assert.Contains(t, content, "        description: `The owner`,\n        type: \"Body\",\n        schema: Owner,")
	assert.Contains(t, content, "        status: 400,\n        description: `Bad request`,")
	assert.Contains(t, content, "    response: z.void(),")
}

func TestGenerator_NoBaseURL(t *testing.T) {
	result := &parser.Result{Endpoints: []*parser.Endpoint{ownerEndpoint()}}

	content := generate(t, Options{}, result)["client.ts"]
	assert.Contains(t, content, "export const api = new Zodios(endpoints);")
	assert.NotContains(t, content, "const Owner")
}

func TestGenerator_Groups(t *testing.T) {
	pets, owners := petEndpoint(), ownerEndpoint()
	schemas := mapOf("Pet", petExpr, "Owner", "z.object({}).passthrough()", "Error", "z.object({}).passthrough()")
	types := mapOf("Pet", "{ name: string; parent?: Pet }")

	t.Run("single file", func(t *testing.T) {
		result := &parser.Result{
			Schemas:       schemas,
			Types:         types,
			Endpoints:     []*parser.Endpoint{pets, owners},
			GroupStrategy: parser.GroupTag,
			Groups: []*parser.Group{
				{Name: "pets", FileName: "pets", Endpoints: []*parser.Endpoint{pets}},
				{Name: "owners", FileName: "owners", Endpoints: []*parser.Endpoint{owners}},
			},
		}

		files := generate(t, Options{}, result)
		require.Len(t, files, 1)
		content := files["client.ts"]
		assert.Contains(t, content, "const petsEndpoints = makeApi([")
		assert.Contains(t, content, "export const petsApi = new Zodios(petsEndpoints);")
		assert.Contains(t, content, "export function createPetsApiClient(baseUrl: string, options?: ZodiosOptions) {")
		assert.Contains(t, content, "const ownersEndpoints = makeApi([")
		assert.Contains(t, content, "return new Zodios(baseUrl, ownersEndpoints, options);")
		assert.Equal(t, 1, strings.Count(content, "const Pet: z.ZodType<Pet> = "))
	})

	t.Run("file per group", func(t *testing.T) {
		result := &parser.Result{
			Schemas:       schemas,
			Types:         types,
			Endpoints:     []*parser.Endpoint{pets, owners},
			GroupStrategy: parser.GroupTagFile,
			Groups: []*parser.Group{
				{
					Name: "pets", FileName: "pets", Endpoints: []*parser.Endpoint{pets},
					Schemas: omap.New[string](), Types: omap.New[string](),
					Imports: []string{"Pet", "Error"},
				},
				{
					Name: "owners", FileName: "owners", Endpoints: []*parser.Endpoint{owners},
					Schemas: mapOf("Owner", "z.object({}).passthrough()"), Types: omap.New[string](),
					Imports: []string{"Error"},
				},
			},
			CommonSchemaNames: []string{"Pet", "Error"},
		}

		files := generate(t, Options{}, result)
		require.Len(t, files, 3)

		assert.Equal(t, strings.Join([]string{
			`import { z } from "zod";`,
			``,
			`export type Pet = { name: string; parent?: Pet };`,
			``,
			`export const Pet: z.ZodType<Pet> = ` + petExpr + `;`,
			`export const Error = z.object({}).passthrough();`,
			``,
		}, "\n"), files["common.ts"])

		assert.Contains(t, files["pets.ts"], `import { Pet, Error } from "./common";`)
		assert.NotContains(t, files["pets.ts"], "const Pet")
		assert.Contains(t, files["pets.ts"], "const endpoints = makeApi([")
		assert.Contains(t, files["owners.ts"], `import { Error } from "./common";`)
		assert.Contains(t, files["owners.ts"], "\nconst Owner = z.object({}).passthrough();")
	})
}
