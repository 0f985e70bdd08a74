// Package asl implements the Agent State Language interpreter: a declarative
// JSON state machine for composing AI-agent pipelines.
package asl

import "encoding/json"

// Document is the JSON-compatible record that flows between states. Objects
// decode as Document, arrays as []interface{}, and scalars as string, float64,
// bool, or nil, mirroring encoding/json's default unmarshal shape.
type Document map[string]interface{}

// deepCopyValue returns a structurally independent copy of v so that no state
// ever observes a mutation made by a later state. Documents are never mutated
// in place; every state produces a new value.
func deepCopyValue(v interface{}) interface{} {
	switch x := v.(type) {
	case Document:
		out := make(Document, len(x))
		for k, val := range x {
			out[k] = deepCopyValue(val)
		}
		return out
	case map[string]interface{}:
		out := make(Document, len(x))
		for k, val := range x {
			out[k] = deepCopyValue(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = deepCopyValue(val)
		}
		return out
	default:
		return x
	}
}

func deepCopyDocument(d Document) Document {
	if d == nil {
		return Document{}
	}
	cp := deepCopyValue(d)
	if doc, ok := cp.(Document); ok {
		return doc
	}
	return Document{}
}

// toJSONBytes marshals a document or any value into canonical JSON.
func toJSONBytes(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func asDocument(v interface{}) (Document, bool) {
	switch x := v.(type) {
	case Document:
		return x, true
	case map[string]interface{}:
		return Document(x), true
	default:
		return nil, false
	}
}

func asSequence(v interface{}) ([]interface{}, bool) {
	seq, ok := v.([]interface{})
	return seq, ok
}

// deepEqual reports structural equality between two decoded JSON values,
// used by the ArrayContains/ArrayUnique intrinsics.
func deepEqual(a, b interface{}) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	var na, nb interface{}
	if err := json.Unmarshal(ab, &na); err != nil {
		return false
	}
	if err := json.Unmarshal(bb, &nb); err != nil {
		return false
	}
	return jsonEqual(na, nb)
}

func jsonEqual(a, b interface{}) bool {
	switch av := a.(type) {
	case map[string]interface{}:
		bv, ok := b.(map[string]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			bvv, ok := bv[k]
			if !ok || !jsonEqual(v, bvv) {
				return false
			}
		}
		return true
	case []interface{}:
		bv, ok := b.([]interface{})
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !jsonEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}
