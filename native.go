package queryfold

import (
	"bytes"
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// ToNative converts a composite into the plain Go representation that
// encoding/json, gojq and friends expect: records become map[string]any
// (insertion order lost), Null becomes nil, sequences and leaves recurse.
func ToNative(v any) any {
	switch t := v.(type) {
	case nullValue:
		return nil
	case *Record:
		m := make(map[string]any, t.Len())
		for k, val := range t.All() {
			m[k] = ToNative(val)
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = ToNative(t[i])
		}
		return out
	default:
		return v
	}
}

// jsonReady rewrites Null to nil and recurses through sequences so the
// stdlib encoder renders them correctly; records keep their own
// order-preserving marshaler.
func jsonReady(v any) any {
	switch t := v.(type) {
	case nullValue:
		return nil
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = jsonReady(t[i])
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the record as a JSON object in insertion order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	for k, v := range r.All() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(jsonReady(v))
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the record as a YAML mapping in insertion order.
func (r *Record) MarshalYAML() (any, error) {
	return yamlNode(r)
}

func yamlNode(v any) (*yaml.Node, error) {
	switch t := v.(type) {
	case nil, nullValue:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case *Record:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for k, val := range t.All() {
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
			valNode, err := yamlNode(val)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, keyNode, valNode)
		}
		return node, nil
	case []any:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			child, err := yamlNode(e)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, child)
		}
		return node, nil
	default:
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return nil, err
		}
		return &n, nil
	}
}
