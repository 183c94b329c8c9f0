package openapi

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type loadOptions struct {
	validate bool
	logger   zerolog.Logger
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithValidation runs the kin-openapi structural validator before decoding.
func WithValidation(validate bool) LoadOption {
	return func(o *loadOptions) {
		o.validate = validate
	}
}

// WithLogger sets the logger used while loading.
func WithLogger(logger zerolog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// LoadFile reads and decodes the document at path.
func LoadFile(ctx context.Context, path string, opts ...LoadOption) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAPI document: %w", err)
	}
	return Load(ctx, data, opts...)
}

// Load decodes a YAML or JSON OpenAPI 3.x document keeping the source order of
// every mapping.
func Load(ctx context.Context, data []byte, opts ...LoadOption) (*Document, error) {
	o := &loadOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(o)
	}

	if o.validate {
		if err := Validate(ctx, data); err != nil {
			return nil, err
		}
		o.logger.Debug().Msg("document passed structural validation")
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}

	if doc.Swagger != "" {
		return nil, fmt.Errorf("unsupported document version swagger %s: only OpenAPI 3.x is supported", doc.Swagger)
	}
	if doc.OpenAPI == "" {
		return nil, fmt.Errorf("failed to parse OpenAPI document: missing openapi version")
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		return nil, fmt.Errorf("unsupported OpenAPI version %q", doc.OpenAPI)
	}

	o.logger.Info().
		Str("title", doc.Info.Title).
		Str("openapi", doc.OpenAPI).
		Int("paths", doc.Paths.Len()).
		Msg("loaded OpenAPI document")
	return &doc, nil
}

// Validate checks the document with the kin-openapi validator.
func Validate(ctx context.Context, data []byte) error {
	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return fmt.Errorf("failed to load OpenAPI document for validation: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return nil
}
