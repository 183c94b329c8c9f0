package writer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/exp/slices"
)

// WriteOutput writes files, keyed by path relative to outputPath.
func WriteOutput(ctx context.Context, files map[string]string, outputPath string) error {
	logger := zerolog.Ctx(ctx)

	// Create base directory
	err := os.MkdirAll(outputPath, 0o755)
	if err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	slices.Sort(names)

	// Write each generated file
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !filepath.IsLocal(name) {
			return fmt.Errorf("refusing to write %s outside the output directory", name)
		}
		outputFilePath := filepath.Join(outputPath, name)

		// Create subdirectory if needed
		err = os.MkdirAll(filepath.Dir(outputFilePath), 0o755)
		if err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", name, err)
		}

		err = os.WriteFile(outputFilePath, []byte(files[name]), 0o644)
		if err != nil {
			return fmt.Errorf("failed to write file %s: %w", name, err)
		}
		logger.Info().Str("path", outputFilePath).Msg("wrote file")
	}
	return nil
}
