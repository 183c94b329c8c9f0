package formater

import (
	"context"
	"fmt"

	"github.com/zodgen/openapi-zod-gen/consts"
	"github.com/zodgen/openapi-zod-gen/formater/prettier"
)

// Format formats the generated files of a client flavor. Formatting failures
// are not errors: the affected files are returned unformatted.
func Format(ctx context.Context, client string, files map[string]string, command ...string) (map[string]string, error) {
	switch client {
	case consts.Zodios:
		return prettier.New(command...).Format(ctx, files), nil
	default:
		return nil, fmt.Errorf("unsupported client %q", client)
	}
}
