package reload

import (
	"fmt"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// ClassChanges maps a behavior type name to its freshly registered class when
// the implementation was replaced by a script reload. The orchestrator builds
// it by diffing the registry snapshot captured before the reload against the
// registry afterwards; pointer inequality is the signal.
type ClassChanges map[string]*runtime.BehaviorClass

// DiffClassRegistries returns the classes whose identity changed between two
// registry snapshots. Types that only appear in the new snapshot are not
// changes: no live behavior can reference them yet.
func DiffClassRegistries(before, after map[string]*runtime.BehaviorClass) ClassChanges {
	changed := make(ClassChanges)
	for name, class := range after {
		previous, existed := before[name]
		if existed && previous != class {
			changed[name] = class
		}
	}
	return changed
}

// reconcileBehaviors aligns the live behaviors of one instance with the new
// object-level declarations. A kept behavior of unchanged type delegates to
// its own declaration-level update; a type change is destroy+recreate.
func reconcileBehaviors(log *Log, scope string, registry *runtime.ClassRegistry, instance *runtime.Instance, old, updated []gamedef.BehaviorDescriptor) {
	hooks := entityHooks[gamedef.BehaviorDescriptor]{
		kind:  "behavior",
		key:   func(decl gamedef.BehaviorDescriptor) string { return decl.Name },
		equal: gamedef.EqualBehaviors,
		create: func(decl gamedef.BehaviorDescriptor) error {
			return attachBehavior(log, scope, registry, instance, decl)
		},
		destroy: func(name string) error {
			instance.RemoveBehavior(name)
			return nil
		},
		patch: func(previous, decl gamedef.BehaviorDescriptor) error {
			if previous.Type != decl.Type {
				instance.RemoveBehavior(decl.Name)
				return attachBehavior(log, scope, registry, instance, decl)
			}
			live, ok := instance.Behavior(decl.Name)
			if !ok {
				return attachBehavior(log, scope, registry, instance, decl)
			}
			if !live.UpdateFromDeclaration(previous, decl) {
				return fmt.Errorf("behavior rejected the property patch")
			}
			return nil
		},
	}
	reconcileEntityList(log, scope, hooks, old, updated)
}

func attachBehavior(log *Log, scope string, registry *runtime.ClassRegistry, instance *runtime.Instance, decl gamedef.BehaviorDescriptor) error {
	class, ok := registry.Class(decl.Type)
	if !ok {
		log.Warningf("%s: behavior type %q is not registered, skipping %q", scope, decl.Type, decl.Name)
		return nil
	}
	instance.AddBehavior(runtime.NewBehaviorInstance(class, decl))
	return nil
}

// reinstantiateChangedBehaviors rebuilds, on every live instance of the
// container, each behavior whose class identity changed: the live behavior is
// destroyed, a fresh one is constructed from the new class and the new
// declaration, and the previous runtime fields are carried over best-effort.
// This must run before the object and instance passes, or stale behavior
// instances would be patched instead of replaced.
func reinstantiateChangedBehaviors(log *Log, scope string, container *runtime.Container, changed ClassChanges, objects []gamedef.ObjectDescriptor) {
	if len(changed) == 0 {
		return
	}
	for _, instance := range container.AllInstances() {
		objectDecl, hasDecl := gamedef.FindObject(objects, instance.ObjectName())
		for _, name := range instance.BehaviorNames() {
			live, ok := instance.Behavior(name)
			if !ok || live.Class == nil {
				continue
			}
			newClass, replaced := changed[live.Class.TypeName]
			if !replaced || newClass == live.Class {
				continue
			}
			decl := gamedef.BehaviorDescriptor{Name: name, Type: live.Class.TypeName}
			if hasDecl {
				for _, behaviorDecl := range objectDecl.Behaviors {
					if behaviorDecl.Name == name {
						decl = behaviorDecl
						break
					}
				}
			}
			fresh := runtime.NewBehaviorInstance(newClass, decl)
			fresh.AdoptState(live)
			instance.RemoveBehavior(name)
			instance.AddBehavior(fresh)
			log.Infof("%s: rebuilt behavior %q of %q from reloaded class %q", scope, name, instance.ObjectName(), newClass.TypeName)
		}
		if nested := instance.Nested(); nested != nil {
			childObjects := objectDecl.ChildObjects
			reinstantiateChangedBehaviors(log, scope, nested, changed, childObjects)
		}
	}
}
