package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Generate converts a Schema IR node into the JSON Schema document
// advertised to clients in tools/list and prompts/list. The IR is first
// lowered to a plain map (giving us exact control over keywords like
// additionalProperties that the IR's "strict object" rule depends on),
// then round-tripped through invopop/jsonschema's own Schema type so the
// document that ships is the one that library would itself produce and
// marshal (mirroring the teacher pack's reflector.Reflect → MarshalJSON
// pattern, just fed from hand-built IR instead of Go struct reflection).
func Generate(node *Node) (json.RawMessage, error) {
	raw := toMap(node)

	buf, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal intermediate schema document: %w", err)
	}

	var doc jsonschema.Schema
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("parse schema document with invopop/jsonschema: %w", err)
	}

	out, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal schema document: %w", err)
	}
	return out, nil
}

// toMap lowers a Node to the plain JSON Schema keyword map it represents.
func toMap(n *Node) map[string]any {
	if n == nil {
		return map[string]any{}
	}

	m := map[string]any{}
	if n.Description != "" {
		m["description"] = n.Description
	}

	switch n.Kind {
	case KindAny:
		// no "type" restricts nothing, per the IR's "any" variant.

	case KindScalar:
		m["type"] = string(n.Scalar)
		switch n.Scalar {
		case ScalarString:
			if n.MinLength != nil {
				m["minLength"] = *n.MinLength
			}
			if n.MaxLength != nil {
				m["maxLength"] = *n.MaxLength
			}
			if n.Pattern != "" {
				m["pattern"] = n.Pattern
			}
			if n.Format != "" {
				m["format"] = n.Format
			}
		case ScalarNumber:
			if n.Integer {
				m["type"] = "integer"
			}
			if n.Min != nil {
				m["minimum"] = *n.Min
			}
			if n.Max != nil {
				m["maximum"] = *n.Max
			}
		}

	case KindEnum:
		m["type"] = "string"
		values := make([]any, len(n.EnumValues))
		for i, v := range n.EnumValues {
			values[i] = v
		}
		m["enum"] = values

	case KindArray:
		m["type"] = "array"
		m["items"] = toMap(n.Items)
		if n.MinItems != nil {
			m["minItems"] = *n.MinItems
		}
		if n.MaxItems != nil {
			m["maxItems"] = *n.MaxItems
		}

	case KindObject:
		m["type"] = "object"
		props := map[string]any{}
		var required []string
		for _, f := range n.Fields {
			props[f.Name] = toMap(f.Node)
			if !f.Optional {
				required = append(required, f.Name)
			}
		}
		m["properties"] = props
		if len(required) > 0 {
			m["required"] = required
		}
		// Strict per spec.md §4.1: "object -> rejects unknown fields".
		m["additionalProperties"] = false

	case KindUnion:
		variants := make([]any, len(n.Variants))
		for i, v := range n.Variants {
			variants[i] = toMap(v)
		}
		m["anyOf"] = variants
	}

	return m
}
