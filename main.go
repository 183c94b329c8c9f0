package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/zodgen/openapi-zod-gen/config"
	"github.com/zodgen/openapi-zod-gen/formater"
	"github.com/zodgen/openapi-zod-gen/generator"
	"github.com/zodgen/openapi-zod-gen/openapi"
	"github.com/zodgen/openapi-zod-gen/parser"
	"github.com/zodgen/openapi-zod-gen/writer"
)

var configPath string

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	config.RegisterFlags(rootCmd.Flags())
}

var rootCmd = &cobra.Command{
	Use:   "openapi-zod-gen <openapi.yaml>",
	Short: "Generate a zod validated API client from an OpenAPI document",
	Long: `A generator that converts the schemas of an OpenAPI 3 document into zod
validators and writes a zodios API client describing its endpoints.

Every flag can also be set in the configuration file or through an
OPENAPI_ZOD_<FLAG> environment variable.`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, cmd.Flags())
		if err != nil {
			return err
		}
		level, err := cfg.Level()
		if err != nil {
			return err
		}
		logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		ctx := logger.WithContext(cmd.Context())

		opts, err := cfg.ParserOptions(&logger)
		if err != nil {
			return err
		}

		// Load the document
		doc, err := openapi.LoadFile(ctx, args[0], openapi.WithValidation(cfg.Validate), openapi.WithLogger(logger))
		if err != nil {
			return err
		}

		// Build the template context
		result, err := parser.Parse(ctx, doc, opts)
		if err != nil {
			return err
		}

		// Render the client
		files, err := generator.Generate(ctx, cfg.Client, result, cfg.GeneratorOptions(), cfg.Group)
		if err != nil {
			return err
		}

		// Run format on the generated files
		if cfg.Format {
			if files, err = formater.Format(ctx, cfg.Client, files); err != nil {
				return err
			}
		}

		// Create directory and files
		return writer.WriteOutput(ctx, files, cfg.Output)
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
