package gamedef

import "math"

// VariableType tags the shape of a VariableDescriptor.
type VariableType string

const (
	// VariableNumber holds a scalar float value.
	VariableNumber VariableType = "number"
	// VariableString holds a scalar string value.
	VariableString VariableType = "string"
	// VariableBoolean holds a scalar boolean value.
	VariableBoolean VariableType = "boolean"
	// VariableStructure holds named children, ordered by declaration.
	VariableStructure VariableType = "structure"
	// VariableArray holds unnamed children addressed by index.
	VariableArray VariableType = "array"
)

// IsPrimitive reports whether the type carries a scalar value rather than children.
func (t VariableType) IsPrimitive() bool {
	switch t {
	case VariableNumber, VariableString, VariableBoolean:
		return true
	default:
		return false
	}
}

// VariableDescriptor is the recursive declared form of one variable. Children
// of an array carry no name; everywhere else the name is the identity key
// within the enclosing container.
type VariableDescriptor struct {
	Name     string               `json:"name,omitempty" jsonschema:"description=Identity key within the enclosing container; empty inside arrays"`
	Type     VariableType         `json:"type" jsonschema:"description=number string boolean structure or array"`
	Number   float64              `json:"number,omitempty"`
	String   string               `json:"string,omitempty"`
	Bool     bool                 `json:"bool,omitempty"`
	Children []VariableDescriptor `json:"children,omitempty"`
}

// Child returns the named child of a structure variable.
func (v VariableDescriptor) Child(name string) (VariableDescriptor, bool) {
	for _, child := range v.Children {
		if child.Name == name {
			return child, true
		}
	}
	return VariableDescriptor{}, false
}

// EqualVariables performs deep structural equality over the variant model.
// Numbers compare with NaN equal to NaN so an untouched NaN-valued variable
// never reads as changed. A primitive is never equal to a structure or array,
// arrays compare pairwise in order, structures compare by child name.
func EqualVariables(a, b VariableDescriptor) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case VariableNumber:
		return equalFloat(a.Number, b.Number)
	case VariableString:
		return a.String == b.String
	case VariableBoolean:
		return a.Bool == b.Bool
	case VariableStructure:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for _, childA := range a.Children {
			childB, ok := b.Child(childA.Name)
			if !ok || !EqualVariables(childA, childB) {
				return false
			}
		}
		return true
	case VariableArray:
		if len(a.Children) != len(b.Children) {
			return false
		}
		for i := range a.Children {
			if !EqualVariables(a.Children[i], b.Children[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// EqualVariableLists compares two named variable lists as keyed records:
// same name set, pairwise-equal values. Declaration order differences alone
// do not make the lists unequal; order is restored separately after
// reconciliation.
func EqualVariableLists(a, b []VariableDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]VariableDescriptor, len(b))
	for _, v := range b {
		byName[v.Name] = v
	}
	for _, v := range a {
		other, ok := byName[v.Name]
		if !ok || !EqualVariables(v, other) {
			return false
		}
	}
	return true
}

// MergeInstanceVariables resolves the effective variable list for one
// instance: the object-level defaults overridden by the instance-level
// overrides, matched by name. Overrides win; defaults without an override are
// kept as-is. Neither input list is mutated.
func MergeInstanceVariables(objectDefaults, instanceOverrides []VariableDescriptor) []VariableDescriptor {
	if len(instanceOverrides) == 0 {
		return append([]VariableDescriptor(nil), objectDefaults...)
	}
	overrides := make(map[string]VariableDescriptor, len(instanceOverrides))
	for _, v := range instanceOverrides {
		overrides[v.Name] = v
	}
	merged := make([]VariableDescriptor, 0, len(objectDefaults))
	seen := make(map[string]struct{}, len(objectDefaults))
	for _, def := range objectDefaults {
		seen[def.Name] = struct{}{}
		if override, ok := overrides[def.Name]; ok {
			merged = append(merged, override)
			continue
		}
		merged = append(merged, def)
	}
	for _, v := range instanceOverrides {
		if _, ok := seen[v.Name]; !ok {
			merged = append(merged, v)
		}
	}
	return merged
}

func equalFloat(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
