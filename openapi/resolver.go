package openapi

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrRefNotFound is returned when a `$ref` does not point at anything in the document.
var ErrRefNotFound = errors.New("ref not found")

const (
	schemaRefPrefix = "#/components/schemas/"

	// bound on `$ref` -> `$ref` hops for parameters, bodies and responses
	maxRefHops = 32
)

// Resolver follows in-document `#/...` references.
type Resolver struct {
	doc *Document
}

// NewResolver creates a resolver for doc.
func NewResolver(doc *Document) *Resolver {
	return &Resolver{doc: doc}
}

// ComponentSchemaRef returns the ref pointing at the named component schema.
func ComponentSchemaRef(name string) string {
	return schemaRefPrefix + escapePointer(name)
}

// SchemaName returns the last segment of a ref, unescaped.
func SchemaName(ref string) string {
	idx := strings.LastIndex(ref, "/")
	return unescapePointer(ref[idx+1:])
}

// IsComponentSchemaRef reports whether ref points directly at a component schema.
func IsComponentSchemaRef(ref string) bool {
	rest, ok := strings.CutPrefix(ref, schemaRefPrefix)
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// ComponentSchemaRefs returns the refs of all component schemas in source order.
func (r *Resolver) ComponentSchemaRefs() []string {
	if r.doc.Components == nil {
		return nil
	}
	refs := make([]string, 0, r.doc.Components.Schemas.Len())
	for name := range r.doc.Components.Schemas.All() {
		refs = append(refs, ComponentSchemaRef(name))
	}
	return refs
}

// LookupSchema returns the schema at ref or nil when it does not resolve.
func (r *Resolver) LookupSchema(ref string) *Schema {
	s, err := r.SchemaByRef(ref)
	if err != nil {
		return nil
	}
	return s
}

// SchemaByRef resolves ref to a schema. The returned schema may itself be a ref.
func (r *Resolver) SchemaByRef(ref string) (*Schema, error) {
	segments, err := splitPointer(ref)
	if err != nil {
		return nil, err
	}
	if len(segments) < 3 || segments[0] != "components" || segments[1] != "schemas" || r.doc.Components == nil {
		return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}

	schema, ok := r.doc.Components.Schemas.Get(segments[2])
	if !ok || schema == nil {
		return nil, fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	schema, err = walkSchema(schema, segments[3:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, ref)
	}
	return schema, nil
}

func walkSchema(schema *Schema, segments []string) (*Schema, error) {
	for i := 0; i < len(segments); i++ {
		if schema == nil {
			return nil, ErrRefNotFound
		}
		seg := segments[i]
		switch seg {
		case "items":
			schema = schema.Items
			continue
		case "additionalProperties":
			if schema.AdditionalProperties == nil {
				return nil, ErrRefNotFound
			}
			schema = schema.AdditionalProperties.Schema
			continue
		}

		if i+1 >= len(segments) {
			return nil, ErrRefNotFound
		}
		next := segments[i+1]
		i++
		switch seg {
		case "properties":
			schema = schema.Properties.Value(next)
		case "allOf", "anyOf", "oneOf":
			members := map[string][]*Schema{"allOf": schema.AllOf, "anyOf": schema.AnyOf, "oneOf": schema.OneOf}[seg]
			idx, err := strconv.Atoi(next)
			if err != nil || idx < 0 || idx >= len(members) {
				return nil, ErrRefNotFound
			}
			schema = members[idx]
		default:
			return nil, ErrRefNotFound
		}
	}
	if schema == nil {
		return nil, ErrRefNotFound
	}
	return schema, nil
}

// Parameter follows a parameter `$ref` to its declaration.
func (r *Resolver) Parameter(p *Parameter) (*Parameter, error) {
	for hops := 0; p != nil && p.Ref != ""; hops++ {
		if hops >= maxRefHops {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, p.Ref)
		}
		name, err := r.componentName(p.Ref, "parameters")
		if err != nil {
			return nil, err
		}
		next, ok := r.doc.Components.Parameters.Get(name)
		if !ok || next == nil {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, p.Ref)
		}
		p = next
	}
	return p, nil
}

// RequestBody follows a request body `$ref` to its declaration.
func (r *Resolver) RequestBody(b *RequestBody) (*RequestBody, error) {
	for hops := 0; b != nil && b.Ref != ""; hops++ {
		if hops >= maxRefHops {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, b.Ref)
		}
		name, err := r.componentName(b.Ref, "requestBodies")
		if err != nil {
			return nil, err
		}
		next, ok := r.doc.Components.RequestBodies.Get(name)
		if !ok || next == nil {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, b.Ref)
		}
		b = next
	}
	return b, nil
}

// Response follows a response `$ref` to its declaration.
func (r *Resolver) Response(resp *Response) (*Response, error) {
	for hops := 0; resp != nil && resp.Ref != ""; hops++ {
		if hops >= maxRefHops {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, resp.Ref)
		}
		name, err := r.componentName(resp.Ref, "responses")
		if err != nil {
			return nil, err
		}
		next, ok := r.doc.Components.Responses.Get(name)
		if !ok || next == nil {
			return nil, fmt.Errorf("%w: %s", ErrRefNotFound, resp.Ref)
		}
		resp = next
	}
	return resp, nil
}

func (r *Resolver) componentName(ref, kind string) (string, error) {
	segments, err := splitPointer(ref)
	if err != nil {
		return "", err
	}
	if len(segments) != 3 || segments[0] != "components" || segments[1] != kind || r.doc.Components == nil {
		return "", fmt.Errorf("%w: %s", ErrRefNotFound, ref)
	}
	return segments[2], nil
}

func splitPointer(ref string) ([]string, error) {
	rest, ok := strings.CutPrefix(ref, "#/")
	if !ok {
		return nil, fmt.Errorf("%w: only in-document refs are supported: %s", ErrRefNotFound, ref)
	}
	segments := strings.Split(rest, "/")
	for i, seg := range segments {
		segments[i] = unescapePointer(seg)
	}
	return segments, nil
}

func unescapePointer(seg string) string {
	if unescaped, err := url.PathUnescape(seg); err == nil {
		seg = unescaped
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

func escapePointer(name string) string {
	name = strings.ReplaceAll(name, "~", "~0")
	return strings.ReplaceAll(name, "/", "~1")
}
