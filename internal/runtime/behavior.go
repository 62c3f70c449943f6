package runtime

import (
	"sync"

	"lantern/server/internal/gamedef"
)

// BehaviorClass is the registered implementation for one behavior type name.
// A script reload re-registers a fresh value, so pointer identity doubles as
// the class-identity signal: two reloads of the same type name compare
// unequal even when their configuration is identical.
type BehaviorClass struct {
	TypeName string
	Revision string
	Defaults gamedef.PropertyBag
}

// ClassRegistry maps behavior type names to their current implementation.
type ClassRegistry struct {
	mu      sync.RWMutex
	classes map[string]*BehaviorClass
}

// NewClassRegistry builds an empty registry.
func NewClassRegistry() *ClassRegistry {
	return &ClassRegistry{classes: make(map[string]*BehaviorClass)}
}

// Register installs a class, replacing any previous registration of the same
// type name.
func (r *ClassRegistry) Register(class *BehaviorClass) {
	if class == nil || class.TypeName == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.classes[class.TypeName] = class
}

// Class returns the current implementation for a type name.
func (r *ClassRegistry) Class(typeName string) (*BehaviorClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.classes[typeName]
	return class, ok
}

// Snapshot returns the current name-to-implementation view. The orchestrator
// captures one before a script reload and diffs it against the registry
// afterwards to find class-identity changes.
func (r *ClassRegistry) Snapshot() map[string]*BehaviorClass {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]*BehaviorClass, len(r.classes))
	for name, class := range r.classes {
		snapshot[name] = class
	}
	return snapshot
}

// BehaviorInstance is one live behavior attached to one live instance.
// Properties is the conventional configuration bag seeded from the class
// defaults and the declaration; State holds script-owned runtime fields that
// have no declared counterpart.
type BehaviorInstance struct {
	Name       string
	Class      *BehaviorClass
	Properties gamedef.PropertyBag
	State      map[string]any
	Activated  bool

	// NeedsSync is raised when the owning object was moved or resized from
	// outside the simulation, so state-caching behaviors resynchronize on the
	// next step.
	NeedsSync bool
}

// NewBehaviorInstance constructs a live behavior from its class and
// declaration. Declared properties override the class defaults.
func NewBehaviorInstance(class *BehaviorClass, decl gamedef.BehaviorDescriptor) *BehaviorInstance {
	properties := class.Defaults.Clone()
	if properties == nil {
		properties = make(gamedef.PropertyBag)
	}
	for key, value := range decl.Properties {
		properties[key] = value
	}
	return &BehaviorInstance{
		Name:       decl.Name,
		Class:      class,
		Properties: properties,
		State:      make(map[string]any),
		Activated:  true,
	}
}

// UpdateFromDeclaration applies a declaration-level property patch in place:
// only properties whose value differs between the old and new declarations
// are copied. It reports whether the patch could be applied; a behavior whose
// class was dropped from the registry cannot be updated.
func (b *BehaviorInstance) UpdateFromDeclaration(old, updated gamedef.BehaviorDescriptor) bool {
	if b.Class == nil {
		return false
	}
	if b.Properties == nil {
		b.Properties = make(gamedef.PropertyBag)
	}
	for key, value := range updated.Properties {
		previous, had := old.Properties[key]
		if had && gamedef.EqualPropertyValues(previous, value) {
			continue
		}
		b.Properties[key] = value
	}
	for key := range old.Properties {
		if _, kept := updated.Properties[key]; !kept {
			delete(b.Properties, key)
		}
	}
	return true
}

// AdoptState performs the best-effort field migration after a class-identity
// change: every State field of the previous incarnation is copied one by one,
// and the previous configuration bag is merged one level deep into the fresh
// bag so configuration keys introduced by the new class survive. The copy is
// heuristic; fields that are meaningless under the new implementation come
// along anyway.
func (b *BehaviorInstance) AdoptState(previous *BehaviorInstance) {
	if previous == nil {
		return
	}
	for key, value := range previous.State {
		b.State[key] = value
	}
	if len(previous.Properties) > 0 {
		if b.Properties == nil {
			b.Properties = make(gamedef.PropertyBag, len(previous.Properties))
		}
		for key, value := range previous.Properties {
			b.Properties[key] = value
		}
	}
	b.Activated = previous.Activated
}
