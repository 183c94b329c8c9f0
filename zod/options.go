package zod

import (
	"github.com/rs/zerolog"

	"github.com/zodgen/openapi-zod-gen/openapi"
)

// AnyOfPolicy selects how a multi-member anyOf is rendered.
type AnyOfPolicy string

const (
	// AnyOfUnion renders `z.union([A, B])`.
	AnyOfUnion AnyOfPolicy = "union"
	// AnyOfUnionOrArray renders `z.union([X, z.array(X)])` where X is the
	// union of the members, capturing "one or many".
	AnyOfUnionOrArray AnyOfPolicy = "union-or-array"
)

// SlashEscaping selects how forward slashes in patterns are escaped.
type SlashEscaping string

const (
	// SlashEscapeAll escapes every slash, so an already escaped `\/`
	// becomes `\\/`.
	SlashEscapeAll SlashEscaping = "all"
	// SlashEscapeUnescaped only escapes slashes that are not escaped yet.
	SlashEscapeUnescaped SlashEscaping = "unescaped"
)

// Refiner may replace a schema node right before it is converted.
type Refiner func(schema *openapi.Schema, meta Meta) *openapi.Schema

// Options tune the generated expressions.
type Options struct {
	// WithImplicitRequiredProps makes objects without a required array fully
	// required instead of partial.
	WithImplicitRequiredProps bool
	// AdditionalPropertiesDefaultValue applies when additionalProperties is
	// absent. nil means true.
	AdditionalPropertiesDefaultValue *bool
	StrictObjects                    bool
	WithDescription                  bool
	// WithDefaultValues emits `.default(...)`. nil means true.
	WithDefaultValues *bool
	AllReadonly       bool
	AnyOfPolicy       AnyOfPolicy
	SlashEscaping     SlashEscaping
	SchemaRefiner     Refiner

	Logger *zerolog.Logger
}

func (o Options) additionalPropertiesDefault() bool {
	return o.AdditionalPropertiesDefaultValue == nil || *o.AdditionalPropertiesDefaultValue
}

func (o Options) withDefaultValues() bool {
	return o.WithDefaultValues == nil || *o.WithDefaultValues
}

func (o Options) logger() zerolog.Logger {
	if o.Logger == nil {
		return zerolog.Nop()
	}
	return *o.Logger
}
