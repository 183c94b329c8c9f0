// Package zodios renders a parser.Result as a zodios API client written in
// TypeScript.
package zodios

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/stoewer/go-strcase"

	"github.com/zodgen/openapi-zod-gen/consts"
	"github.com/zodgen/openapi-zod-gen/omap"
	"github.com/zodgen/openapi-zod-gen/parser"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Options tune the rendered client.
type Options struct {
	// WithAlias adds the operation alias to every endpoint.
	WithAlias bool
	// BaseURL replaces the first server URL of the document.
	BaseURL string
	// ExportSchemas exports a `schemas` object holding every schema variable.
	ExportSchemas bool
}

// Generator renders clients from the embedded templates.
type Generator struct {
	opts   Options
	client *template.Template
	common *template.Template
}

type declaration struct {
	Name  string
	Value string
	// Typed declarations carry an explicit z.ZodType annotation.
	Typed bool
}

type api struct {
	EndpointsVar string
	APIVar       string
	FactoryName  string
	Endpoints    []*parser.Endpoint
}

type clientFile struct {
	Imports       []string
	Types         []declaration
	Schemas       []declaration
	ExportSchemas bool
	Apis          []api
	WithAlias     bool
	BaseURL       string
}

var descriptionEscaper = strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${")

var funcs = template.FuncMap{
	"join":   strings.Join,
	"escape": descriptionEscaper.Replace,
	"status": func(status string) string {
		if status == parser.StatusDefault {
			return `"default"`
		}
		return status
	},
}

// NewGenerator parses the embedded templates.
func NewGenerator(opts Options) (*Generator, error) {
	client, err := template.New("client.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/client.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse template failed: %w", err)
	}
	common, err := template.New("common.tmpl").Funcs(funcs).ParseFS(templateFS, "templates/common.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse template failed: %w", err)
	}
	return &Generator{opts: opts, client: client, common: common}, nil
}

// Generate returns the client files keyed by file name.
func (g *Generator) Generate(ctx context.Context, result *parser.Result) (map[string]string, error) {
	baseURL := g.opts.BaseURL
	if baseURL == "" {
		baseURL = result.BaseURL
	}
	files := make(map[string]string)

	// One file holding every group
	if len(result.Groups) == 0 || !result.GroupStrategy.IsFile() {
		file := clientFile{
			Types:         declarations(result.Types, nil),
			Schemas:       declarations(result.Schemas, result.Types),
			ExportSchemas: g.opts.ExportSchemas,
			WithAlias:     g.opts.WithAlias,
			BaseURL:       baseURL,
		}
		if len(result.Groups) == 0 {
			file.Apis = []api{newAPI("", result.Endpoints)}
		}
		for _, group := range result.Groups {
			file.Apis = append(file.Apis, newAPI(group.Name, group.Endpoints))
		}
		content, err := g.render(g.client, file)
		if err != nil {
			return nil, err
		}
		files[consts.DefaultFileName] = content
		return files, nil
	}

	// One file per group, plus the shared schemas
	if len(result.CommonSchemaNames) > 0 {
		types, schemas := omap.New[string](), omap.New[string]()
		for _, name := range result.CommonSchemaNames {
			schemas.Set(name, result.Schemas.Value(name))
			if typ, ok := result.Types.Get(name); ok {
				types.Set(name, typ)
			}
		}
		content, err := g.render(g.common, clientFile{
			Types:   declarations(types, nil),
			Schemas: declarations(schemas, types),
		})
		if err != nil {
			return nil, err
		}
		files[consts.CommonFileName] = content
	}
	for _, group := range result.Groups {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		content, err := g.render(g.client, clientFile{
			Imports:       group.Imports,
			Types:         declarations(group.Types, nil),
			Schemas:       declarations(group.Schemas, group.Types),
			ExportSchemas: g.opts.ExportSchemas,
			Apis:          []api{newAPI("", group.Endpoints)},
			WithAlias:     g.opts.WithAlias,
			BaseURL:       baseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to render group %s: %w", group.Name, err)
		}
		files[group.FileName+".ts"] = content
	}
	return files, nil
}

func (g *Generator) render(tmpl *template.Template, data clientFile) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template failed: %w", err)
	}
	return buf.String(), nil
}

func declarations(values *omap.Map[string], types *omap.Map[string]) []declaration {
	var decls []declaration
	for name, value := range values.All() {
		decls = append(decls, declaration{Name: name, Value: value, Typed: types.Has(name)})
	}
	return decls
}

// newAPI names the variables of one makeApi block. An empty group gets the
// plain `endpoints`, `api` and `createApiClient` names.
func newAPI(group string, endpoints []*parser.Endpoint) api {
	if group == "" {
		return api{EndpointsVar: "endpoints", APIVar: "api", FactoryName: "createApiClient", Endpoints: endpoints}
	}
	lower := strcase.LowerCamelCase(group)
	return api{
		EndpointsVar: lower + "Endpoints",
		APIVar:       lower + "Api",
		FactoryName:  "create" + strcase.UpperCamelCase(group) + "ApiClient",
		Endpoints:    endpoints,
	}
}
