package zod

import "errors"

var (
	// ErrSchemaNotFound is returned when a `$ref` cannot be resolved.
	ErrSchemaNotFound = errors.New("schema not found")
	// ErrUnsupportedType is returned for a `type` outside the JSON Schema set.
	ErrUnsupportedType = errors.New("unsupported schema type")
	// ErrContextRequired is returned when a `$ref` is converted without a resolver.
	ErrContextRequired = errors.New("a resolver is required to convert refs")
)
