// Package config loads the generator configuration from defaults, a YAML
// file, OPENAPI_ZOD_* environment variables and command-line flags, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/zodgen/openapi-zod-gen/consts"
	"github.com/zodgen/openapi-zod-gen/generator/zodios"
	"github.com/zodgen/openapi-zod-gen/parser"
	"github.com/zodgen/openapi-zod-gen/predicate"
	"github.com/zodgen/openapi-zod-gen/zod"
)

// Config holds every option of a generation run. Keys double as flag names.
type Config struct {
	Output   string `koanf:"output"`
	Client   string `koanf:"client"`
	Group    string `koanf:"group"`
	LogLevel string `koanf:"log-level"`
	Validate bool   `koanf:"validate"`
	Format   bool   `koanf:"format"`

	WithAlias     bool   `koanf:"with-alias"`
	BaseURL       string `koanf:"base-url"`
	ExportSchemas bool   `koanf:"export-schemas"`

	WithImplicitRequiredProps        bool   `koanf:"implicit-required-props"`
	WithDeprecatedEndpoints          bool   `koanf:"with-deprecated"`
	AdditionalPropertiesDefaultValue bool   `koanf:"additional-props-default-value"`
	StrictObjects                    bool   `koanf:"strict-objects"`
	WithDescription                  bool   `koanf:"with-description"`
	WithDefaultValues                bool   `koanf:"with-default-values"`
	AllReadonly                      bool   `koanf:"all-readonly"`
	ComplexityThreshold              int    `koanf:"complexity-threshold"`
	MainResponseStatus               string `koanf:"main-response-status"`
	ErrorStatus                      string `koanf:"error-status"`
	MediaType                        string `koanf:"media-type"`
	GroupStrategy                    string `koanf:"group-strategy"`
	ExportAllSchemas                 bool   `koanf:"export-all-schemas"`
	ExportAllTypes                   bool   `koanf:"export-all-types"`
	AnyOfPolicy                      string `koanf:"anyof-policy"`
	SlashEscaping                    string `koanf:"slash-escaping"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Output:   ".",
		Client:   consts.Zodios,
		LogLevel: zerolog.LevelInfoValue,
		Format:   true,

		AdditionalPropertiesDefaultValue: true,
		WithDefaultValues:                true,
		ComplexityThreshold:              parser.DefaultComplexityThreshold,
		MainResponseStatus:               predicate.DefaultMainResponseStatus.String(),
		ErrorStatus:                      predicate.DefaultErrorStatus.String(),
		MediaType:                        predicate.DefaultMediaType.String(),
		GroupStrategy:                    string(parser.GroupNone),
		AnyOfPolicy:                      string(zod.AnyOfUnion),
		SlashEscaping:                    string(zod.SlashEscapeAll),
	}
}

// RegisterFlags adds one flag per configuration key to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("output", "o", d.Output, "Output directory of the generated client")
	fs.String("client", d.Client, "Client flavor to generate")
	fs.String("group", d.Group, "Only write the file of this group")
	fs.String("log-level", d.LogLevel, "Log level: trace, debug, info, warn, error")
	fs.Bool("validate", d.Validate, "Validate the document before generating")
	fs.Bool("format", d.Format, "Format the generated files with prettier")

	fs.Bool("with-alias", d.WithAlias, "Add the operation alias to every endpoint")
	fs.String("base-url", d.BaseURL, "Base URL of the client, defaults to the first server")
	fs.Bool("export-schemas", d.ExportSchemas, "Export a schemas object holding every schema")

	fs.Bool("implicit-required-props", d.WithImplicitRequiredProps, "Treat properties of objects without a required list as required")
	fs.Bool("with-deprecated", d.WithDeprecatedEndpoints, "Keep deprecated endpoints")
	fs.Bool("additional-props-default-value", d.AdditionalPropertiesDefaultValue, "Value assumed for an absent additionalProperties")
	fs.Bool("strict-objects", d.StrictObjects, "Reject unknown keys unless additionalProperties allows them")
	fs.Bool("with-description", d.WithDescription, "Add schema descriptions with .describe()")
	fs.Bool("with-default-values", d.WithDefaultValues, "Add schema defaults with .default()")
	fs.Bool("all-readonly", d.AllReadonly, "Make every object, array and record readonly")
	fs.Int("complexity-threshold", d.ComplexityThreshold, "Complexity from which inline schemas get a variable, -1 inlines everything")
	fs.String("main-response-status", d.MainResponseStatus, "Expression over status selecting the main response")
	fs.String("error-status", d.ErrorStatus, "Expression over status selecting error responses")
	fs.String("media-type", d.MediaType, "Expression over mediaType selecting accepted media types")
	fs.String("group-strategy", d.GroupStrategy, "Endpoint grouping: none, tag, method, tag-file, method-file")
	fs.Bool("export-all-schemas", d.ExportAllSchemas, "Convert every component schema, used or not")
	fs.Bool("export-all-types", d.ExportAllTypes, "Declare a static type for every component schema")
	fs.String("anyof-policy", d.AnyOfPolicy, "anyOf rendering: union, union-or-array")
	fs.String("slash-escaping", d.SlashEscaping, "Pattern slash escaping: all, unescaped")
}

// envKey maps OPENAPI_ZOD_COMPLEXITY_THRESHOLD to complexity-threshold.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, consts.EnvPrefix)), "_", "-")
}

// Load layers the configuration sources. path and flags are optional; only
// changed flags override the other sources.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(consts.EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log-level: %w", err)
	}
	return level, nil
}

// ParserOptions compiles the predicate expressions and validates the enums.
func (c *Config) ParserOptions(logger *zerolog.Logger) (parser.Options, error) {
	mainStatus, err := predicate.Status(c.MainResponseStatus)
	if err != nil {
		return parser.Options{}, fmt.Errorf("invalid main-response-status: %w", err)
	}
	errorStatus, err := predicate.Status(c.ErrorStatus)
	if err != nil {
		return parser.Options{}, fmt.Errorf("invalid error-status: %w", err)
	}
	mediaType, err := predicate.MediaType(c.MediaType)
	if err != nil {
		return parser.Options{}, fmt.Errorf("invalid media-type: %w", err)
	}
	strategy, err := parser.ParseGroupStrategy(c.GroupStrategy)
	if err != nil {
		return parser.Options{}, err
	}

	anyOf := zod.AnyOfPolicy(c.AnyOfPolicy)
	switch anyOf {
	case zod.AnyOfUnion, zod.AnyOfUnionOrArray:
	default:
		return parser.Options{}, fmt.Errorf("unknown anyof policy %q", c.AnyOfPolicy)
	}
	slash := zod.SlashEscaping(c.SlashEscaping)
	switch slash {
	case zod.SlashEscapeAll, zod.SlashEscapeUnescaped:
	default:
		return parser.Options{}, fmt.Errorf("unknown slash escaping %q", c.SlashEscaping)
	}

	additionalProps, defaults := c.AdditionalPropertiesDefaultValue, c.WithDefaultValues
	return parser.Options{
		Options: zod.Options{
			WithImplicitRequiredProps:        c.WithImplicitRequiredProps,
			AdditionalPropertiesDefaultValue: &additionalProps,
			StrictObjects:                    c.StrictObjects,
			WithDescription:                  c.WithDescription,
			WithDefaultValues:                &defaults,
			AllReadonly:                      c.AllReadonly,
			AnyOfPolicy:                      anyOf,
			SlashEscaping:                    slash,
			Logger:                           logger,
		},
		WithDeprecatedEndpoints: c.WithDeprecatedEndpoints,
		ComplexityThreshold:     c.ComplexityThreshold,
		IsMainResponseStatus:    mainStatus,
		IsErrorStatus:           errorStatus,
		IsMediaTypeAllowed:      mediaType,
		GroupStrategy:           strategy,
		ShouldExportAllSchemas:  c.ExportAllSchemas,
		ShouldExportAllTypes:    c.ExportAllTypes,
	}, nil
}

// GeneratorOptions returns the rendering options.
func (c *Config) GeneratorOptions() zodios.Options {
	return zodios.Options{
		WithAlias:     c.WithAlias,
		BaseURL:       c.BaseURL,
		ExportSchemas: c.ExportSchemas,
	}
}
