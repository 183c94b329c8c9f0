package openapi

import (
	"fmt"

	"github.com/zodgen/openapi-zod-gen/omap"
	"gopkg.in/yaml.v3"
)

// Primitive type names
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
	TypeNull    = "null"
	TypeArray   = "array"
	TypeObject  = "object"
)

// IsPrimitiveType reports whether name is one of the JSON Schema scalar types.
func IsPrimitiveType(name string) bool {
	switch name {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull:
		return true
	}
	return false
}

// SchemaType holds the "type" keyword, which OpenAPI 3.1 allows to be a list.
type SchemaType []string

// UnmarshalYAML accepts both `type: string` and `type: [string, "null"]`.
func (t *SchemaType) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = SchemaType{node.Value}
	case yaml.SequenceNode:
		types := make(SchemaType, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: type list entries must be strings", item.Line)
			}
			types = append(types, item.Value)
		}
		*t = types
	default:
		return fmt.Errorf("line %d: type must be a string or a list of strings", node.Line)
	}
	return nil
}

// IsList reports whether the type keyword was written as a list.
func (t SchemaType) IsList() bool {
	return len(t) != 1
}

// Name returns the single type name, or "" when absent or a list.
func (t SchemaType) Name() string {
	if len(t) != 1 {
		return ""
	}
	return t[0]
}

// Is reports whether the schema has exactly the given single type.
func (t SchemaType) Is(name string) bool {
	return t.Name() == name
}

// AdditionalProperties is either a boolean or a schema.
type AdditionalProperties struct {
	Allowed *bool
	Schema  *Schema
}

// UnmarshalYAML decodes `additionalProperties: false` as well as a schema mapping.
func (a *AdditionalProperties) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var allowed bool
		if err := node.Decode(&allowed); err != nil {
			return fmt.Errorf("line %d: additionalProperties must be a boolean or a schema", node.Line)
		}
		a.Allowed = &allowed
		return nil
	}
	var schema Schema
	if err := node.Decode(&schema); err != nil {
		return err
	}
	a.Schema = &schema
	return nil
}

// IsSchema reports whether additionalProperties is a schema with at least one keyword.
func (a *AdditionalProperties) IsSchema() bool {
	return a != nil && a.Schema != nil && !a.Schema.IsEmpty()
}

// Bound is exclusiveMinimum/exclusiveMaximum: a boolean flag in 3.0, a number in 3.1.
type Bound struct {
	Flag  *bool
	Value *float64
}

// UnmarshalYAML decodes either form.
func (b *Bound) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		b.Flag = &v
	case int:
		f := float64(v)
		b.Value = &f
	case float64:
		b.Value = &v
	default:
		return fmt.Errorf("line %d: exclusive bound must be a boolean or a number", node.Line)
	}
	return nil
}

// IsSet reports whether the boolean form is present and true.
func (b *Bound) IsSet() bool {
	return b != nil && b.Flag != nil && *b.Flag
}

// Number returns the numeric form when present.
func (b *Bound) Number() (float64, bool) {
	if b == nil || b.Value == nil {
		return 0, false
	}
	return *b.Value, true
}

// Discriminator selects a oneOf member by a shared property.
type Discriminator struct {
	PropertyName string           `yaml:"propertyName" json:"propertyName"`
	Mapping      *omap.Map[string] `yaml:"mapping,omitempty" json:"mapping,omitempty"`
}

// Schema is an OpenAPI Schema Object. A schema with Ref set is a reference and
// its other fields are ignored.
type Schema struct {
	Ref string `yaml:"$ref,omitempty"`

	Type        SchemaType `yaml:"type,omitempty"`
	Format      string     `yaml:"format,omitempty"`
	Title       string     `yaml:"title,omitempty"`
	Description string     `yaml:"description,omitempty"`

	Properties           *omap.Map[*Schema]    `yaml:"properties,omitempty"`
	Required             []string              `yaml:"required,omitempty"`
	AdditionalProperties *AdditionalProperties `yaml:"additionalProperties,omitempty"`
	Items                *Schema               `yaml:"items,omitempty"`

	Enum  []any     `yaml:"enum,omitempty"`
	OneOf []*Schema `yaml:"oneOf,omitempty"`
	AnyOf []*Schema `yaml:"anyOf,omitempty"`
	AllOf []*Schema `yaml:"allOf,omitempty"`

	Discriminator *Discriminator `yaml:"discriminator,omitempty"`

	Nullable   bool `yaml:"nullable,omitempty"`
	ReadOnly   bool `yaml:"readOnly,omitempty"`
	WriteOnly  bool `yaml:"writeOnly,omitempty"`
	Deprecated bool `yaml:"deprecated,omitempty"`

	Default    any  `yaml:"default,omitempty"`
	HasDefault bool `yaml:"-"`

	Minimum          *float64 `yaml:"minimum,omitempty"`
	Maximum          *float64 `yaml:"maximum,omitempty"`
	ExclusiveMinimum *Bound   `yaml:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *Bound   `yaml:"exclusiveMaximum,omitempty"`
	MultipleOf       *float64 `yaml:"multipleOf,omitempty"`

	MinLength *int   `yaml:"minLength,omitempty"`
	MaxLength *int   `yaml:"maxLength,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`

	MinItems *int `yaml:"minItems,omitempty"`
	MaxItems *int `yaml:"maxItems,omitempty"`
}

// UnmarshalYAML decodes the schema and records whether `default` was written,
// so that `default: null` survives.
func (s *Schema) UnmarshalYAML(node *yaml.Node) error {
	type plain Schema
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			switch key.Value {
			case "default":
				s.HasDefault = true
			case "type":
				// a bare `type: null` never reaches SchemaType.UnmarshalYAML
				if value.Kind == yaml.ScalarNode && value.ShortTag() == "!!null" {
					s.Type = SchemaType{TypeNull}
				}
			}
		}
	}
	return nil
}

// IsRef reports whether the schema is a reference.
func (s *Schema) IsRef() bool {
	return s != nil && s.Ref != ""
}

// IsEmpty reports whether the schema has no keyword at all (`{}`).
func (s *Schema) IsEmpty() bool {
	if s == nil {
		return true
	}
	return s.Ref == "" && len(s.Type) == 0 && s.Properties.Len() == 0 && len(s.Required) == 0 &&
		s.AdditionalProperties == nil && s.Items == nil && len(s.Enum) == 0 &&
		len(s.OneOf) == 0 && len(s.AnyOf) == 0 && len(s.AllOf) == 0 && s.Format == ""
}

// IsObjectLike reports whether the schema describes an object, explicitly or
// through properties/additionalProperties.
func (s *Schema) IsObjectLike() bool {
	return s.Type.Is(TypeObject) || s.Properties.Len() > 0 || s.AdditionalProperties != nil
}

// IsRequired reports whether name is listed in required.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// WithType returns a shallow copy of the schema with a single type.
func (s *Schema) WithType(name string) *Schema {
	clone := *s
	clone.Type = SchemaType{name}
	return &clone
}
