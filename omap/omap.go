// Package omap provides a string-keyed map that remembers insertion order.
//
// OpenAPI documents are order sensitive for code generation: properties, enum
// members and paths must come out in the order the author wrote them. Map
// decodes YAML/JSON mappings in source order and marshals back to JSON in the
// same order.
package omap

import (
	"encoding/json"
	"fmt"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Map is an insertion-ordered map keyed by string. The zero value and a nil
// *Map are both usable as empty maps for reads.
type Map[V any] struct {
	om *orderedmap.OrderedMap[string, V]
}

// New creates an empty map.
func New[V any]() *Map[V] {
	return &Map[V]{om: orderedmap.New[string, V]()}
}

func (m *Map[V]) init() {
	if m.om == nil {
		m.om = orderedmap.New[string, V]()
	}
}

// Len returns the number of entries. nil safe.
func (m *Map[V]) Len() int {
	if m == nil || m.om == nil {
		return 0
	}
	return m.om.Len()
}

// Get returns the value stored for key.
func (m *Map[V]) Get(key string) (V, bool) {
	if m == nil || m.om == nil {
		var zero V
		return zero, false
	}
	return m.om.Get(key)
}

// Value returns the value stored for key or the zero value.
func (m *Map[V]) Value(key string) V {
	v, _ := m.Get(key)
	return v
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores value under key. An existing key keeps its position.
func (m *Map[V]) Set(key string, value V) {
	m.init()
	m.om.Set(key, value)
}

// Delete removes key.
func (m *Map[V]) Delete(key string) {
	if m == nil || m.om == nil {
		return
	}
	m.om.Delete(key)
}

// Keys returns the keys in insertion order.
func (m *Map[V]) Keys() []string {
	if m.Len() == 0 {
		return nil
	}
	keys := make([]string, 0, m.om.Len())
	for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// All iterates over the entries in insertion order.
func (m *Map[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		if m.Len() == 0 {
			return
		}
		for pair := m.om.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// UnmarshalYAML decodes a YAML mapping keeping the key order of the source.
func (m *Map[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping, got %s", node.Line, kindName(node.Kind))
	}

	m.om = orderedmap.New[string, V]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valueNode := node.Content[i], node.Content[i+1]
		var value V
		if err := valueNode.Decode(&value); err != nil {
			return fmt.Errorf("failed to decode %q: %w", keyNode.Value, err)
		}
		m.om.Set(keyNode.Value, value)
	}
	return nil
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	if m == nil || m.om == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m.om)
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
