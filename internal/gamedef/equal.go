package gamedef

// Deep structural equality over descriptor types. These comparisons gate the
// reconcilers: a sub-tree that compares equal performs no live-graph calls at
// all, so every field that can change must participate.

// EqualObjects compares two object declarations including behaviors, effects,
// variables and (for composite types) the resolved child object lists.
func EqualObjects(a, b ObjectDescriptor) bool {
	if a.Name != b.Name || a.Type != b.Type {
		return false
	}
	if !EqualVariableLists(a.Variables, b.Variables) {
		return false
	}
	if !EqualBehaviorLists(a.Behaviors, b.Behaviors) {
		return false
	}
	if !EqualEffectLists(a.Effects, b.Effects) {
		return false
	}
	return EqualObjectLists(a.ChildObjects, b.ChildObjects)
}

// EqualObjectLists compares two object lists as keyed records by name.
func EqualObjectLists(a, b []ObjectDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]ObjectDescriptor, len(b))
	for _, object := range b {
		byName[object.Name] = object
	}
	for _, object := range a {
		other, ok := byName[object.Name]
		if !ok || !EqualObjects(object, other) {
			return false
		}
	}
	return true
}

// EqualBehaviors compares two behavior declarations.
func EqualBehaviors(a, b BehaviorDescriptor) bool {
	return a.Name == b.Name && a.Type == b.Type && EqualPropertyBags(a.Properties, b.Properties)
}

// EqualBehaviorLists compares two behavior lists as keyed records by name.
func EqualBehaviorLists(a, b []BehaviorDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]BehaviorDescriptor, len(b))
	for _, behavior := range b {
		byName[behavior.Name] = behavior
	}
	for _, behavior := range a {
		other, ok := byName[behavior.Name]
		if !ok || !EqualBehaviors(behavior, other) {
			return false
		}
	}
	return true
}

// EqualEffects compares two effect declarations including all three typed
// parameter maps.
func EqualEffects(a, b EffectDescriptor) bool {
	if a.Name != b.Name || a.Type != b.Type {
		return false
	}
	if len(a.BooleanParameters) != len(b.BooleanParameters) {
		return false
	}
	for k, v := range a.BooleanParameters {
		other, ok := b.BooleanParameters[k]
		if !ok || v != other {
			return false
		}
	}
	if len(a.DoubleParameters) != len(b.DoubleParameters) {
		return false
	}
	for k, v := range a.DoubleParameters {
		other, ok := b.DoubleParameters[k]
		if !ok || !equalFloat(v, other) {
			return false
		}
	}
	if len(a.StringParameters) != len(b.StringParameters) {
		return false
	}
	for k, v := range a.StringParameters {
		other, ok := b.StringParameters[k]
		if !ok || v != other {
			return false
		}
	}
	return true
}

// EqualEffectLists compares two effect lists as keyed records by name.
func EqualEffectLists(a, b []EffectDescriptor) bool {
	if len(a) != len(b) {
		return false
	}
	byName := make(map[string]EffectDescriptor, len(b))
	for _, effect := range b {
		byName[effect.Name] = effect
	}
	for _, effect := range a {
		other, ok := byName[effect.Name]
		if !ok || !EqualEffects(effect, other) {
			return false
		}
	}
	return true
}

// EqualInstances compares two instance declarations field by field.
func EqualInstances(a, b InstanceDescriptor) bool {
	if a.PersistentUUID != b.PersistentUUID || a.ObjectName != b.ObjectName {
		return false
	}
	if !equalFloat(a.X, b.X) || !equalFloat(a.Y, b.Y) || !equalFloat(a.Z, b.Z) {
		return false
	}
	if !equalFloat(a.Angle, b.Angle) || !equalFloat(a.RotationX, b.RotationX) || !equalFloat(a.RotationY, b.RotationY) {
		return false
	}
	if a.ZOrder != b.ZOrder || a.Layer != b.Layer {
		return false
	}
	if a.CustomSize != b.CustomSize || a.CustomDepth != b.CustomDepth || a.KeepRatio != b.KeepRatio {
		return false
	}
	if a.CustomSize && (!equalFloat(a.Width, b.Width) || !equalFloat(a.Height, b.Height)) {
		return false
	}
	if a.CustomDepth && !equalFloat(a.Depth, b.Depth) {
		return false
	}
	if !equalNumberMap(a.NumberProperties, b.NumberProperties) {
		return false
	}
	if !equalStringMap(a.StringProperties, b.StringProperties) {
		return false
	}
	return EqualVariableLists(a.Variables, b.Variables)
}

// EqualLayers compares two layer declarations including their effects.
func EqualLayers(a, b LayerDescriptor) bool {
	if a.Name != b.Name || a.Visible != b.Visible || a.RenderingType != b.RenderingType {
		return false
	}
	if a.IsLightingLayer != b.IsLightingLayer || a.AmbientLightColor != b.AmbientLightColor || a.FollowBaseLayerCamera != b.FollowBaseLayerCamera {
		return false
	}
	return EqualEffectLists(a.Effects, b.Effects)
}

// EqualSharedData compares two behavior-shared-data declarations.
func EqualSharedData(a, b BehaviorSharedDataDescriptor) bool {
	return a.Name == b.Name && a.Type == b.Type && EqualPropertyBags(a.Properties, b.Properties)
}

func equalNumberMap(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || !equalFloat(v, other) {
			return false
		}
	}
	return true
}

func equalStringMap(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || v != other {
			return false
		}
	}
	return true
}
