package runtime

import (
	"lantern/server/internal/gamedef"
)

// Instance is one live object in a container. The persistent UUID is empty
// for instances spawned by game logic before the editor knew about them;
// declared instances carry the UUID from their declaration so later reloads
// can re-correlate them.
type Instance struct {
	uuid       string
	objectName string
	owner      *Container

	x, y, z              float64
	angle                float64
	rotationX, rotationY float64
	zOrder               int
	layer                string

	customSize    bool
	width, height float64
	customDepth   bool
	depth         float64

	numberProperties map[string]float64
	stringProperties map[string]string

	variables *VariableContainer
	behaviors map[string]*BehaviorInstance
	effects   map[string]*EffectInstance

	// nested is non-nil for composite objects: the interior instance
	// container holding the child object graph.
	nested *Container

	reinitCount uint64
	syncNotices uint64
}

// PersistentUUID returns the cross-snapshot identity key, or "" for dynamic spawns.
func (i *Instance) PersistentUUID() string { return i.uuid }

// ObjectName returns the declared object this instance was spawned from.
func (i *Instance) ObjectName() string { return i.objectName }

// X returns the horizontal position.
func (i *Instance) X() float64 { return i.x }

// Y returns the vertical position.
func (i *Instance) Y() float64 { return i.y }

// Z returns the depth position of 3D-capable instances.
func (i *Instance) Z() float64 { return i.z }

// Angle returns the rotation around the Z axis.
func (i *Instance) Angle() float64 { return i.angle }

// RotationX returns the rotation around the X axis.
func (i *Instance) RotationX() float64 { return i.rotationX }

// RotationY returns the rotation around the Y axis.
func (i *Instance) RotationY() float64 { return i.rotationY }

// ZOrder returns the draw order within the layer.
func (i *Instance) ZOrder() int { return i.zOrder }

// Layer returns the name of the layer the instance renders on.
func (i *Instance) Layer() string { return i.layer }

// HasCustomSize reports whether a declared size override is active.
func (i *Instance) HasCustomSize() bool { return i.customSize }

// Width returns the active width override.
func (i *Instance) Width() float64 { return i.width }

// Height returns the active height override.
func (i *Instance) Height() float64 { return i.height }

// HasCustomDepth reports whether a declared depth override is active.
func (i *Instance) HasCustomDepth() bool { return i.customDepth }

// Depth returns the active depth override.
func (i *Instance) Depth() float64 { return i.depth }

// Variables returns the live variable container.
func (i *Instance) Variables() *VariableContainer { return i.variables }

// Nested returns the interior container of a composite instance, or nil.
func (i *Instance) Nested() *Container { return i.nested }

// SetPosition moves the instance.
func (i *Instance) SetPosition(x, y float64) {
	i.x, i.y = x, y
	i.mutated()
}

// SetZ updates the depth position.
func (i *Instance) SetZ(z float64) {
	i.z = z
	i.mutated()
}

// SetAngle updates the rotation around the Z axis.
func (i *Instance) SetAngle(angle float64) {
	i.angle = angle
	i.mutated()
}

// SetRotationX updates the rotation around the X axis.
func (i *Instance) SetRotationX(rotation float64) {
	i.rotationX = rotation
	i.mutated()
}

// SetRotationY updates the rotation around the Y axis.
func (i *Instance) SetRotationY(rotation float64) {
	i.rotationY = rotation
	i.mutated()
}

// SetZOrder updates the draw order.
func (i *Instance) SetZOrder(zOrder int) {
	i.zOrder = zOrder
	i.mutated()
}

// SetLayer moves the instance to another layer.
func (i *Instance) SetLayer(layer string) {
	i.layer = layer
	i.mutated()
}

// SetCustomSize applies a size override.
func (i *Instance) SetCustomSize(width, height float64) {
	i.customSize = true
	i.width, i.height = width, height
	i.mutated()
}

// ClearCustomSize drops the size override. The replacement value is decided
// by ReinitializeFromInstance, since only the object implementation knows its
// natural size.
func (i *Instance) ClearCustomSize() {
	i.customSize = false
	i.mutated()
}

// SetCustomDepth applies a depth override.
func (i *Instance) SetCustomDepth(depth float64) {
	i.customDepth = true
	i.depth = depth
	i.mutated()
}

// ClearCustomDepth drops the depth override.
func (i *Instance) ClearCustomDepth() {
	i.customDepth = false
	i.mutated()
}

// NumberProperty returns one typed custom property.
func (i *Instance) NumberProperty(name string) (float64, bool) {
	v, ok := i.numberProperties[name]
	return v, ok
}

// StringProperty returns one typed custom property.
func (i *Instance) StringProperty(name string) (string, bool) {
	v, ok := i.stringProperties[name]
	return v, ok
}

// Behavior returns the named live behavior.
func (i *Instance) Behavior(name string) (*BehaviorInstance, bool) {
	behavior, ok := i.behaviors[name]
	return behavior, ok
}

// BehaviorNames returns the names of the live behaviors.
func (i *Instance) BehaviorNames() []string {
	names := make([]string, 0, len(i.behaviors))
	for name := range i.behaviors {
		names = append(names, name)
	}
	return names
}

// AddBehavior installs a live behavior, replacing any previous one of the
// same name.
func (i *Instance) AddBehavior(behavior *BehaviorInstance) {
	i.behaviors[behavior.Name] = behavior
	i.mutated()
}

// RemoveBehavior destroys the named behavior. It reports whether the behavior
// existed.
func (i *Instance) RemoveBehavior(name string) bool {
	if _, ok := i.behaviors[name]; !ok {
		return false
	}
	delete(i.behaviors, name)
	i.mutated()
	return true
}

// Effect returns the named live effect.
func (i *Instance) Effect(name string) (*EffectInstance, bool) {
	effect, ok := i.effects[name]
	return effect, ok
}

// AddEffect creates a live effect from its declaration.
func (i *Instance) AddEffect(decl gamedef.EffectDescriptor) *EffectInstance {
	effect := NewEffectInstance(decl, i.mutated)
	i.effects[decl.Name] = effect
	i.mutated()
	return effect
}

// RemoveEffect destroys the named effect. It reports whether the effect existed.
func (i *Instance) RemoveEffect(name string) bool {
	if _, ok := i.effects[name]; !ok {
		return false
	}
	delete(i.effects, name)
	i.mutated()
	return true
}

// ReinitializeFromInstance is the extra-initialization hook invoked after a
// size, depth or custom-property change. It re-reads the typed custom
// properties and, when an override was removed, falls back to the object's
// natural dimensions (zero means renderer default).
func (i *Instance) ReinitializeFromInstance(decl gamedef.InstanceDescriptor) {
	i.numberProperties = make(map[string]float64, len(decl.NumberProperties))
	for k, v := range decl.NumberProperties {
		i.numberProperties[k] = v
	}
	i.stringProperties = make(map[string]string, len(decl.StringProperties))
	for k, v := range decl.StringProperties {
		i.stringProperties[k] = v
	}
	if !decl.CustomSize {
		i.width, i.height = 0, 0
	}
	if !decl.CustomDepth {
		i.depth = 0
	}
	i.reinitCount++
	i.mutated()
}

// ReinitCount returns how many times the extra-initialization hook ran.
func (i *Instance) ReinitCount() uint64 { return i.reinitCount }

// NotifyBehaviorsChanged tells every attached behavior that the object was
// moved or resized from outside the simulation, so state-caching behaviors
// (physics mirrors and the like) resynchronize on the next step.
func (i *Instance) NotifyBehaviorsChanged() {
	for _, behavior := range i.behaviors {
		behavior.NeedsSync = true
	}
	i.syncNotices++
}

// SyncNotices returns how many external-mutation notices were delivered.
func (i *Instance) SyncNotices() uint64 { return i.syncNotices }

func (i *Instance) mutated() {
	if i.owner != nil {
		i.owner.noteMutation()
	}
}
