package zod

import (
	"github.com/zodgen/openapi-zod-gen/openapi"
)

// complexity weights per construct
const (
	complexityRef         = 2
	complexityOneOf       = 2
	complexityAnyOf       = 3
	complexityAllOf       = 2
	complexityEnum        = 1
	complexityArray       = 1
	complexityRecord      = 1
	complexityObject      = 2
	complexityEmptyObject = 1
	complexityPrimitive   = 1
)

// Complexity scores how much structure a schema carries. Schemas scoring
// below the configured threshold are inlined instead of getting their own
// variable.
func Complexity(schema *openapi.Schema) int {
	return complexity(0, schema)
}

func complexity(current int, schema *openapi.Schema) int {
	if schema == nil {
		return current
	}
	if schema.IsRef() {
		return current + complexityRef
	}

	if len(schema.Type) > 1 {
		return current + complexityOneOf + sumComplexity(typeVariants(schema))
	}
	if n, weight, members := compositionOf(schema); n > 0 {
		if n == 1 {
			return weight + complexity(current, members[0])
		}
		return current + weight + sumComplexity(members)
	}

	typeName := schema.Type.Name()
	if typeName == "" && !schema.IsObjectLike() {
		return current
	}
	if openapi.IsPrimitiveType(typeName) {
		if len(schema.Enum) > 0 {
			return current + complexityPrimitive + complexityEnum
		}
		return current + complexityPrimitive
	}
	if typeName == openapi.TypeArray {
		return complexityArray + complexity(current, schema.Items)
	}

	if ap := schema.AdditionalProperties; ap != nil && (ap.Schema != nil || (ap.Allowed != nil && *ap.Allowed)) {
		return complexityRecord + complexity(current, ap.Schema)
	}
	if schema.Properties.Len() > 0 {
		total := current + complexityObject
		for _, prop := range schema.Properties.All() {
			total += complexity(0, prop)
		}
		return total
	}
	return current + complexityEmptyObject
}

func compositionOf(schema *openapi.Schema) (int, int, []*openapi.Schema) {
	switch {
	case len(schema.OneOf) > 0:
		return len(schema.OneOf), complexityOneOf, schema.OneOf
	case len(schema.AnyOf) > 0:
		return len(schema.AnyOf), complexityAnyOf, schema.AnyOf
	case len(schema.AllOf) > 0:
		return len(schema.AllOf), complexityAllOf, schema.AllOf
	}
	return 0, 0, nil
}

func typeVariants(schema *openapi.Schema) []*openapi.Schema {
	variants := make([]*openapi.Schema, 0, len(schema.Type))
	for _, t := range schema.Type {
		variants = append(variants, schema.WithType(t))
	}
	return variants
}

func sumComplexity(schemas []*openapi.Schema) int {
	total := 0
	for _, s := range schemas {
		total += complexity(0, s)
	}
	return total
}
