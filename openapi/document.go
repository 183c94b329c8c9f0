// Package openapi holds the in-memory OpenAPI document consumed by the
// conversion engine, decoded with source order preserved, and the resolver
// used to follow in-document `$ref` pointers.
package openapi

import (
	"gopkg.in/yaml.v3"

	"github.com/zodgen/openapi-zod-gen/omap"
)

// HTTP methods allowed as path item keys, in OpenAPI document order.
var HTTPMethods = []string{"get", "put", "post", "delete", "options", "head", "patch", "trace"}

func isHTTPMethod(key string) bool {
	for _, m := range HTTPMethods {
		if m == key {
			return true
		}
	}
	return false
}

// Document is an OpenAPI 3.0/3.1 document.
type Document struct {
	OpenAPI    string              `yaml:"openapi"`
	Swagger    string              `yaml:"swagger,omitempty"`
	Info       Info                `yaml:"info"`
	Servers    []Server            `yaml:"servers,omitempty"`
	Tags       []Tag               `yaml:"tags,omitempty"`
	Paths      *omap.Map[*PathItem] `yaml:"paths,omitempty"`
	Components *Components         `yaml:"components,omitempty"`
}

// Info is the document metadata.
type Info struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Version     string `yaml:"version"`
}

// Server is a server entry.
type Server struct {
	URL         string `yaml:"url"`
	Description string `yaml:"description,omitempty"`
}

// Tag is a tag declaration.
type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Components holds the reusable objects addressed by `#/components/...` refs.
type Components struct {
	Schemas       *omap.Map[*Schema]      `yaml:"schemas,omitempty"`
	Parameters    *omap.Map[*Parameter]   `yaml:"parameters,omitempty"`
	RequestBodies *omap.Map[*RequestBody] `yaml:"requestBodies,omitempty"`
	Responses     *omap.Map[*Response]    `yaml:"responses,omitempty"`
}

// MethodOperation pairs an operation with its lower-case HTTP method.
type MethodOperation struct {
	Method    string
	Operation *Operation
}

// PathItem describes the operations available on a single path.
type PathItem struct {
	Ref         string       `yaml:"$ref,omitempty"`
	Summary     string       `yaml:"summary,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Parameters  []*Parameter `yaml:"parameters,omitempty"`

	operations []MethodOperation
}

// UnmarshalYAML decodes the path item and keeps its operations in source order.
func (p *PathItem) UnmarshalYAML(node *yaml.Node) error {
	type plain PathItem
	if err := node.Decode((*plain)(p)); err != nil {
		return err
	}
	p.operations = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		if !isHTTPMethod(key) {
			continue
		}
		var op Operation
		if err := node.Content[i+1].Decode(&op); err != nil {
			return err
		}
		p.operations = append(p.operations, MethodOperation{Method: key, Operation: &op})
	}
	return nil
}

// Operations returns the operations in the order they were written.
func (p *PathItem) Operations() []MethodOperation {
	if p == nil {
		return nil
	}
	return p.operations
}

// Operation returns the operation for a lower-case method, or nil.
func (p *PathItem) Operation(method string) *Operation {
	for _, mo := range p.Operations() {
		if mo.Method == method {
			return mo.Operation
		}
	}
	return nil
}

// SetOperation adds or replaces the operation for method.
func (p *PathItem) SetOperation(method string, op *Operation) {
	for i := range p.operations {
		if p.operations[i].Method == method {
			p.operations[i].Operation = op
			return
		}
	}
	p.operations = append(p.operations, MethodOperation{Method: method, Operation: op})
}

// Operation is a single API operation on a path.
type Operation struct {
	OperationID string               `yaml:"operationId,omitempty"`
	Summary     string               `yaml:"summary,omitempty"`
	Description string               `yaml:"description,omitempty"`
	Tags        []string             `yaml:"tags,omitempty"`
	Deprecated  bool                 `yaml:"deprecated,omitempty"`
	Parameters  []*Parameter         `yaml:"parameters,omitempty"`
	RequestBody *RequestBody         `yaml:"requestBody,omitempty"`
	Responses   *omap.Map[*Response] `yaml:"responses,omitempty"`
}

// Parameter locations
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InCookie = "cookie"
)

// Parameter is an operation parameter. Either Schema or Content is set.
type Parameter struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Name        string                `yaml:"name,omitempty"`
	In          string                `yaml:"in,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Required    bool                  `yaml:"required,omitempty"`
	Deprecated  bool                  `yaml:"deprecated,omitempty"`
	Schema      *Schema               `yaml:"schema,omitempty"`
	Content     *omap.Map[*MediaType] `yaml:"content,omitempty"`
}

// RequestBody is an operation request body. Required is nil when not written.
type RequestBody struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Required    *bool                 `yaml:"required,omitempty"`
	Content     *omap.Map[*MediaType] `yaml:"content,omitempty"`
}

// Response is a single response declaration.
type Response struct {
	Ref         string                `yaml:"$ref,omitempty"`
	Description string                `yaml:"description,omitempty"`
	Content     *omap.Map[*MediaType] `yaml:"content,omitempty"`
}

// MediaType carries the schema of one content type.
type MediaType struct {
	Schema *Schema `yaml:"schema,omitempty"`
}
