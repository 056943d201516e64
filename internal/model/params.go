package model

import (
	"fmt"

	yamlv3 "gopkg.in/yaml.v3"
)

// ParameterSet is an insertion-ordered mapping from input variable name to
// value. The order is the line order of the generated input file.
type ParameterSet struct {
	keys   []string
	values map[string]any
}

func NewParameterSet() *ParameterSet {
	return &ParameterSet{values: make(map[string]any)}
}

// ParametersOf builds a ParameterSet from alternating key/value pairs.
func ParametersOf(kv ...any) (*ParameterSet, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("odd number of key/value arguments: %d", len(kv))
	}
	p := NewParameterSet()
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			return nil, fmt.Errorf("argument %d: key must be a string, got %T", i, kv[i])
		}
		p.Set(key, kv[i+1])
	}
	return p, nil
}

// Set stores value under key. An existing key keeps its position.
func (p *ParameterSet) Set(key string, value any) {
	if p.values == nil {
		p.values = make(map[string]any)
	}
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

func (p *ParameterSet) Get(key string) (any, bool) {
	if p == nil || p.values == nil {
		return nil, false
	}
	v, ok := p.values[key]
	return v, ok
}

func (p *ParameterSet) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p *ParameterSet) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Keys returns a copy of the keys in insertion order.
func (p *ParameterSet) Keys() []string {
	if p == nil {
		return nil
	}
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Clone returns a shallow copy; values are shared.
func (p *ParameterSet) Clone() *ParameterSet {
	out := NewParameterSet()
	if p == nil {
		return out
	}
	for _, k := range p.keys {
		out.Set(k, p.values[k])
	}
	return out
}

// Update copies every entry of other into p. Keys already present keep their
// position and take other's value; new keys are appended in other's order.
func (p *ParameterSet) Update(other *ParameterSet) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		p.Set(k, other.values[k])
	}
}

// Each calls fn for every entry in order and stops at the first error.
func (p *ParameterSet) Each(fn func(key string, value any) error) error {
	if p == nil {
		return nil
	}
	for _, k := range p.keys {
		if err := fn(k, p.values[k]); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalYAML decodes a mapping node keeping the document order of keys.
func (p *ParameterSet) UnmarshalYAML(node *yamlv3.Node) error {
	if node.Kind == yamlv3.ScalarNode && node.Tag == "!!null" {
		*p = ParameterSet{values: make(map[string]any)}
		return nil
	}
	if node.Kind != yamlv3.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", node.Line)
	}
	out := ParameterSet{values: make(map[string]any)}
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode, valNode := node.Content[i], node.Content[i+1]
		if keyNode.Kind != yamlv3.ScalarNode {
			return fmt.Errorf("line %d: parameter name must be a scalar", keyNode.Line)
		}
		if _, dup := out.values[keyNode.Value]; dup {
			return fmt.Errorf("line %d: duplicate parameter %q", keyNode.Line, keyNode.Value)
		}
		var v any
		if err := valNode.Decode(&v); err != nil {
			return fmt.Errorf("line %d: parameter %q: %w", valNode.Line, keyNode.Value, err)
		}
		out.Set(keyNode.Value, v)
	}
	*p = out
	return nil
}

// MarshalYAML emits a mapping node in insertion order.
func (p ParameterSet) MarshalYAML() (any, error) {
	node := &yamlv3.Node{Kind: yamlv3.MappingNode, Tag: "!!map"}
	for _, k := range p.keys {
		var val yamlv3.Node
		if err := val.Encode(p.values[k]); err != nil {
			return nil, fmt.Errorf("encode parameter %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yamlv3.Node{Kind: yamlv3.ScalarNode, Tag: "!!str", Value: k},
			&val,
		)
	}
	return node, nil
}
