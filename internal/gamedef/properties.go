package gamedef

import "math"

// PropertyBag is an opaque configuration blob as decoded from JSON: values
// are nil, bool, float64, string, []any or map[string]any.
type PropertyBag map[string]any

// Clone performs a deep copy of the bag.
func (b PropertyBag) Clone() PropertyBag {
	if b == nil {
		return nil
	}
	cloned := make(PropertyBag, len(b))
	for k, v := range b {
		cloned[k] = cloneValue(v)
	}
	return cloned
}

func cloneValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		copied := make(map[string]any, len(value))
		for k, child := range value {
			copied[k] = cloneValue(child)
		}
		return copied
	case []any:
		copied := make([]any, len(value))
		for i, child := range value {
			copied[i] = cloneValue(child)
		}
		return copied
	default:
		return v
	}
}

// EqualPropertyBags performs deep equality over two bags: same key set,
// pairwise-equal values.
func EqualPropertyBags(a, b PropertyBag) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !EqualPropertyValues(va, vb) {
			return false
		}
	}
	return true
}

// EqualPropertyValues compares two JSON-shaped values. Ordered slices compare
// pairwise, maps compare as keyed records, and floats compare with NaN equal
// to NaN.
func EqualPropertyValues(a, b any) bool {
	switch va := a.(type) {
	case nil:
		return b == nil
	case bool:
		vb, ok := b.(bool)
		return ok && va == vb
	case float64:
		vb, ok := b.(float64)
		if !ok {
			return false
		}
		if math.IsNaN(va) && math.IsNaN(vb) {
			return true
		}
		return va == vb
	case string:
		vb, ok := b.(string)
		return ok && va == vb
	case []any:
		vb, ok := b.([]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for i := range va {
			if !EqualPropertyValues(va[i], vb[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		vb, ok := b.(map[string]any)
		if !ok || len(va) != len(vb) {
			return false
		}
		for k, child := range va {
			other, ok := vb[k]
			if !ok || !EqualPropertyValues(child, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
