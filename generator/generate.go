package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/zodgen/openapi-zod-gen/consts"
	"github.com/zodgen/openapi-zod-gen/generator/zodios"
	"github.com/zodgen/openapi-zod-gen/parser"
)

// Generate renders result as a client of the given flavor. A non-empty group
// keeps only the file of that group and the common schemas.
func Generate(ctx context.Context, client string, result *parser.Result, opts zodios.Options, group string) (map[string]string, error) {
	var files map[string]string

	switch client {
	case consts.Zodios:
		g, err := zodios.NewGenerator(opts)
		if err != nil {
			return nil, err
		}
		files, err = g.Generate(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to generate zodios client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported client %q", client)
	}

	// Filter files by group if specified
	if group != "" {
		filteredFiles := make(map[string]string)
		found := false
		for name, content := range files {
			if strings.TrimSuffix(name, ".ts") == group {
				filteredFiles[name] = content
				found = true
			}
			if name == consts.CommonFileName {
				filteredFiles[name] = content
			}
		}
		if !found {
			return nil, fmt.Errorf("no file generated for group %q", group)
		}
		files = filteredFiles
	}

	zerolog.Ctx(ctx).Info().Str("client", client).Int("files", len(files)).Msg("generated client")
	return files, nil
}
