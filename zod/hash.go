package zod

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/zodgen/openapi-zod-gen/ast"
)

// Hash returns the content hash of an expression: 16 hex characters of the
// xxhash64 of its canonical rendering. Structurally identical expressions
// share a hash.
func Hash(expr ast.Node) string {
	return HashString(ast.Canonical(expr))
}

// HashString hashes already rendered text.
func HashString(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}
