// Package normalize maps loosely structured federation payloads onto the
// canonical domain entities.
package normalize

// Shape is the recognised top-level layout of a raw payload.
type Shape int

const (
	// ShapeObject is a single bare object and the fallback for anything
	// unrecognised; it always yields exactly one item.
	ShapeObject Shape = iota
	ShapeArray
	ShapeLeaguesEnvelope
	ShapeDataEnvelope
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeLeaguesEnvelope:
		return "leagues_envelope"
	case ShapeDataEnvelope:
		return "data_envelope"
	default:
		return "object"
	}
}

type record = map[string]any

// Payload is a classified raw payload: its shape and the object items it holds.
type Payload struct {
	Shape Shape
	Items []record
}

// Classify never fails. Array elements that are not objects are dropped;
// scalars and nil become a single empty object.
func Classify(raw any) Payload {
	switch v := raw.(type) {
	case []any:
		return Payload{Shape: ShapeArray, Items: objects(v)}
	case record:
		if items, ok := envelope(v, "leagues"); ok {
			return Payload{Shape: ShapeLeaguesEnvelope, Items: items}
		}
		if items, ok := envelope(v, "data"); ok {
			return Payload{Shape: ShapeDataEnvelope, Items: items}
		}
		return Payload{Shape: ShapeObject, Items: []record{v}}
	default:
		return Payload{Shape: ShapeObject, Items: []record{{}}}
	}
}

// Plausible reports whether raw is a structurally usable JSON payload.
func Plausible(raw any) bool {
	switch raw.(type) {
	case []any, record:
		return true
	default:
		return false
	}
}

func envelope(obj record, key string) ([]record, bool) {
	switch inner := obj[key].(type) {
	case []any:
		return objects(inner), true
	case record:
		return []record{inner}, true
	default:
		return nil, false
	}
}

func objects(items []any) []record {
	out := make([]record, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(record); ok {
			out = append(out, obj)
		}
	}
	return out
}
