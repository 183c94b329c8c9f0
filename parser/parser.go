// Package parser extracts the endpoints of an OpenAPI document, converts
// every schema they use and assembles the ordered template context of the
// generated API client.
package parser

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zodgen/openapi-zod-gen/graph"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/predicate"
	"github.com/zodgen/openapi-zod-gen/typescript"
	"github.com/zodgen/openapi-zod-gen/zod"
)

// DefaultComplexityThreshold is the complexity from which inline schemas get
// their own variable.
const DefaultComplexityThreshold = 4

// Options configure a Parser.
type Options struct {
	zod.Options

	WithDeprecatedEndpoints bool
	// ComplexityThreshold decides between inlining a schema and naming it.
	// -1 inlines everything, refs included.
	ComplexityThreshold int

	IsMainResponseStatus predicate.Predicate[int]
	IsErrorStatus        predicate.Predicate[int]
	IsMediaTypeAllowed   predicate.Predicate[string]

	GroupStrategy GroupStrategy
	// ShouldExportAllSchemas converts every component schema, used or not.
	ShouldExportAllSchemas bool
	// ShouldExportAllTypes declares a static type for every component schema.
	ShouldExportAllTypes bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		ComplexityThreshold:  DefaultComplexityThreshold,
		IsMainResponseStatus: predicate.DefaultMainResponseStatus,
		IsErrorStatus:        predicate.DefaultErrorStatus,
		IsMediaTypeAllowed:   predicate.DefaultMediaType,
		GroupStrategy:        GroupNone,
	}
}

// Parser turns documents into template contexts. A Parser holds no state
// between Parse calls.
type Parser struct {
	opts   Options
	logger zerolog.Logger
}

// NewParser creates a new Parser instance
func NewParser(opts Options) (*Parser, error) {
	if opts.ComplexityThreshold < -1 {
		return nil, fmt.Errorf("invalid complexity threshold %d: must be -1 or more", opts.ComplexityThreshold)
	}
	if opts.GroupStrategy == "" {
		opts.GroupStrategy = GroupNone
	}
	if _, err := ParseGroupStrategy(string(opts.GroupStrategy)); err != nil {
		return nil, err
	}

	// Unset predicates fall back to the defaults
	if opts.IsMainResponseStatus.IsZero() {
		opts.IsMainResponseStatus = predicate.DefaultMainResponseStatus
	}
	if opts.IsErrorStatus.IsZero() {
		opts.IsErrorStatus = predicate.DefaultErrorStatus
	}
	if opts.IsMediaTypeAllowed.IsZero() {
		opts.IsMediaTypeAllowed = predicate.DefaultMediaType
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Parser{opts: opts, logger: logger}, nil
}

// run is the state of one Parse call.
type run struct {
	opts     Options
	logger   zerolog.Logger
	doc      *openapi.Document
	resolver *openapi.Resolver
	deps     *graph.Dependencies
	schemas  *zod.Context
	types    *typescript.Context
}

// Parse converts doc into the template context of its API client.
func (p *Parser) Parse(ctx context.Context, doc *openapi.Document) (*Result, error) {
	resolver := openapi.NewResolver(doc)
	componentRefs := resolver.ComponentSchemaRefs()

	// Build the dependency graph of the component schemas
	deps := graph.Build(componentRefs, resolver.LookupSchema)
	for _, cycle := range deps.Cycles() {
		p.logger.Debug().Strs("refs", cycle).Msg("found reference cycle")
	}

	r := &run{
		opts:     p.opts,
		logger:   p.logger,
		doc:      doc,
		resolver: resolver,
		deps:     deps,
		schemas:  zod.NewContext(resolver, deps, p.opts.Options),
	}
	r.types = typescript.NewContext(resolver, deps, p.opts.Options, r.schemas.RefName)

	// Reserve the variable names of all component schemas
	r.schemas.Reserve(componentRefs...)

	// Convert every component schema if requested
	var exported []string
	if p.opts.ShouldExportAllSchemas {
		for _, ref := range componentRefs {
			if _, err := r.schemas.Convert(&openapi.Schema{Ref: ref}, zod.Meta{IsRequired: true}); err != nil {
				return nil, fmt.Errorf("failed to convert schema %s: %w", openapi.SchemaName(ref), err)
			}
			exported = append(exported, r.schemas.RefName(ref))
		}
	}
	if p.opts.ShouldExportAllTypes {
		if err := r.types.Name(componentRefs...); err != nil {
			return nil, fmt.Errorf("failed to declare types: %w", err)
		}
	}

	// Extract endpoints
	endpoints, err := r.extractEndpoints(ctx)
	if err != nil {
		return nil, err
	}

	// Assemble the ordered output
	result, err := r.assemble(endpoints, exported)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Int("endpoints", len(result.Endpoints)).
		Int("schemas", result.Schemas.Len()).
		Int("types", result.Types.Len()).
		Msg("parsed document")
	return result, nil
}

// Parse is a shortcut for NewParser followed by Parser.Parse.
func Parse(ctx context.Context, doc *openapi.Document, opts Options) (*Result, error) {
	p, err := NewParser(opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, doc)
}

func (r *run) extractEndpoints(ctx context.Context) ([]*Endpoint, error) {
	var endpoints []*Endpoint
	for path, item := range r.doc.Paths.All() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if item == nil {
			continue
		}
		if item.Ref != "" {
			r.logger.Warn().Str("path", path).Str("ref", item.Ref).Msg("skipping path item reference")
			continue
		}

		for _, mo := range item.Operations() {
			if mo.Operation.Deprecated && !r.opts.WithDeprecatedEndpoints {
				r.logger.Debug().Str("path", path).Str("method", mo.Method).Msg("skipping deprecated endpoint")
				continue
			}
			endpoint, err := r.extractEndpoint(path, mo.Method, item, mo.Operation)
			if err != nil {
				return nil, fmt.Errorf("failed to convert operation %s %s: %w", mo.Method, path, err)
			}
			endpoints = append(endpoints, endpoint)
		}
	}
	return endpoints, nil
}
