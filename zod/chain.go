package zod

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/zodgen/openapi-zod-gen/openapi"
)

// Chain returns the validation suffix of a resolved schema, including the
// leading dot, or "" when nothing applies. Order: type validations,
// description, presence, default.
func (c *Context) Chain(schema *openapi.Schema, meta Meta) string {
	var chains []string

	switch schema.Type.Name() {
	case openapi.TypeString:
		chains = append(chains, c.stringValidations(schema)...)
	case openapi.TypeNumber, openapi.TypeInteger:
		chains = append(chains, numberValidations(schema)...)
	case openapi.TypeArray:
		chains = append(chains, arrayValidations(schema)...)
	}

	if c.opts.WithDescription && schema.Description != "" {
		chains = append(chains, describe(schema.Description))
	}
	if presence := presence(schema, meta); presence != "" {
		chains = append(chains, presence)
	}
	if c.opts.withDefaultValues() && schema.HasDefault {
		chains = append(chains, defaultValue(schema))
	}

	if len(chains) == 0 {
		return ""
	}
	return "." + strings.Join(chains, ".")
}

func (c *Context) stringValidations(schema *openapi.Schema) []string {
	if len(schema.Enum) > 0 {
		return nil
	}

	var validations []string
	if schema.MinLength != nil {
		validations = append(validations, "min("+strconv.Itoa(*schema.MinLength)+")")
	}
	if schema.MaxLength != nil {
		validations = append(validations, "max("+strconv.Itoa(*schema.MaxLength)+")")
	}
	if schema.Pattern != "" {
		if hasMalformedDelimiters(schema.Pattern) {
			c.logger.Debug().Str("pattern", schema.Pattern).Msg("pattern delimiters are unbalanced, keeping them as written")
		}
		validations = append(validations, "regex("+Pattern(schema.Pattern, c.opts.SlashEscaping)+")")
	}
	switch schema.Format {
	case "email":
		validations = append(validations, "email()")
	case "hostname", "uri":
		validations = append(validations, "url()")
	case "uuid":
		validations = append(validations, "uuid()")
	case "date-time":
		validations = append(validations, "datetime({ offset: true })")
	}
	return validations
}

func numberValidations(schema *openapi.Schema) []string {
	if len(schema.Enum) > 0 {
		return nil
	}

	var validations []string
	if schema.Type.Is(openapi.TypeInteger) {
		validations = append(validations, "int()")
	}

	// A numeric exclusive bound (3.1) applies on its own, next to any inclusive one
	if schema.Minimum != nil {
		if schema.ExclusiveMinimum.IsSet() {
			validations = append(validations, "gt("+formatNumber(*schema.Minimum)+")")
		} else {
			validations = append(validations, "gte("+formatNumber(*schema.Minimum)+")")
		}
	}
	if v, ok := schema.ExclusiveMinimum.Number(); ok {
		validations = append(validations, "gt("+formatNumber(v)+")")
	}

	if schema.Maximum != nil {
		if schema.ExclusiveMaximum.IsSet() {
			validations = append(validations, "lt("+formatNumber(*schema.Maximum)+")")
		} else {
			validations = append(validations, "lte("+formatNumber(*schema.Maximum)+")")
		}
	}
	if v, ok := schema.ExclusiveMaximum.Number(); ok {
		validations = append(validations, "lt("+formatNumber(v)+")")
	}

	if schema.MultipleOf != nil && *schema.MultipleOf != 0 {
		validations = append(validations, "multipleOf("+formatNumber(*schema.MultipleOf)+")")
	}
	return validations
}

func arrayValidations(schema *openapi.Schema) []string {
	var validations []string
	if schema.MinItems != nil && *schema.MinItems != 0 {
		validations = append(validations, "min("+strconv.Itoa(*schema.MinItems)+")")
	}
	if schema.MaxItems != nil && *schema.MaxItems != 0 {
		validations = append(validations, "max("+strconv.Itoa(*schema.MaxItems)+")")
	}
	return validations
}

func describe(description string) string {
	if strings.ContainsAny(description, "\r\n") {
		escaped := strings.NewReplacer("\\", "\\\\", "`", "\\`", "${", "\\${").Replace(description)
		return "describe(`" + escaped + "`)"
	}
	return "describe(" + Quote(description) + ")"
}

func presence(schema *openapi.Schema, meta Meta) string {
	switch {
	case schema.Nullable && !meta.IsRequired:
		return "nullish()"
	case schema.Nullable:
		return "nullable()"
	case !meta.IsRequired:
		return "optional()"
	}
	return ""
}

func defaultValue(schema *openapi.Schema) string {
	if schema.Type.Is(openapi.TypeNumber) || schema.Type.Is(openapi.TypeInteger) {
		switch v := schema.Default.(type) {
		case string:
			return "default(" + strings.TrimSuffix(strings.TrimPrefix(v, `"`), `"`) + ")"
		case float64:
			return "default(" + formatNumber(v) + ")"
		}
	}
	return "default(" + Literal(schema.Default) + ")"
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Quote renders s as a double-quoted string literal.
func Quote(s string) string {
	return Literal(s)
}

// Literal renders a decoded YAML/JSON value as a JavaScript literal.
func Literal(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalizeValue(v)); err != nil {
		return "null"
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// normalizeValue converts the map[any]any values yaml may produce into
// something encoding/json accepts.
func normalizeValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			key, ok := k.(string)
			if !ok {
				key = fmt.Sprint(k)
			}
			out[key] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalizeValue(item)
		}
		return out
	}
	return v
}
