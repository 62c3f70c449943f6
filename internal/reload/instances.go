package reload

import (
	"math"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// ReconcileInstances correlates the three UUID-keyed views of one container
// (old declared instances, new declared instances, live runtime instances)
// and applies the minimal per-field patches:
//
//   - UUID only in old, or in both with a different object name: the live
//     instance (if any) is destroyed; the rename case also spawns the fresh
//     declaration below.
//   - UUID in both with an unchanged name: the live instance is patched in
//     place, field by field, and keeps its identity.
//   - UUID only in new: a fresh live instance is spawned carrying that UUID.
//   - Live instances with no declared counterpart at all were created by game
//     logic during play; they are left alive, and only their nested
//     containers (for composite kinds) are recursed into. Their object-level
//     configuration is reconciled by the object pass.
//
// A UUID declared in both snapshots whose live instance is gone was destroyed
// by game logic during play; that destruction is transient runtime state and
// is preserved, not undone.
func ReconcileInstances(log *Log, scope string, container *runtime.Container, oldObjects, newObjects []gamedef.ObjectDescriptor, old, updated []gamedef.InstanceDescriptor, changed ClassChanges, registry *runtime.ClassRegistry) {
	oldByUUID := make(map[string]gamedef.InstanceDescriptor, len(old))
	for _, decl := range old {
		oldByUUID[decl.PersistentUUID] = decl
	}
	newByUUID := make(map[string]gamedef.InstanceDescriptor, len(updated))
	for _, decl := range updated {
		newByUUID[decl.PersistentUUID] = decl
	}

	for _, previous := range old {
		replacement, kept := newByUUID[previous.PersistentUUID]
		if kept && replacement.ObjectName == previous.ObjectName {
			continue
		}
		live, alive := container.InstanceByUUID(previous.PersistentUUID)
		if !alive {
			continue
		}
		container.DestroyInstance(live)
		log.Infof("%s: removed instance %s of %q", scope, previous.PersistentUUID, previous.ObjectName)
	}

	for _, decl := range updated {
		previous, existed := oldByUUID[decl.PersistentUUID]
		if existed && previous.ObjectName == decl.ObjectName {
			live, alive := container.InstanceByUUID(decl.PersistentUUID)
			if alive {
				patchInstance(log, scope, live, previous, decl, oldObjects, newObjects, changed, registry)
				continue
			}
			oldObject, _ := gamedef.FindObject(oldObjects, decl.ObjectName)
			newObject, _ := gamedef.FindObject(newObjects, decl.ObjectName)
			if oldObject.Type == newObject.Type {
				// Destroyed during play; the deletion is runtime state to keep.
				continue
			}
			// The object pass rebuilt this object under a new type and took
			// its old-type instances with it; respawn from the new template.
		}
		if _, err := container.SpawnInstance(decl); err != nil {
			log.Errorf("%s: failed to spawn instance %s of %q: %v", scope, decl.PersistentUUID, decl.ObjectName, err)
			continue
		}
		log.Infof("%s: spawned instance %s of %q", scope, decl.PersistentUUID, decl.ObjectName)
	}

	for _, live := range container.AllInstances() {
		uuid := live.PersistentUUID()
		if _, declaredOld := oldByUUID[uuid]; declaredOld {
			continue
		}
		if _, declaredNew := newByUUID[uuid]; declaredNew {
			continue
		}
		recurseNested(log, scope, live, oldObjects, newObjects, changed, registry)
	}
}

// patchInstance copies over only the declared fields that differ, so a
// change to one field never touches the setters of the others.
func patchInstance(log *Log, scope string, live *runtime.Instance, old, updated gamedef.InstanceDescriptor, oldObjects, newObjects []gamedef.ObjectDescriptor, changed ClassChanges, registry *runtime.ClassRegistry) {
	fieldsChanged := false

	if !equalCoord(old.X, updated.X) || !equalCoord(old.Y, updated.Y) {
		live.SetPosition(updated.X, updated.Y)
		fieldsChanged = true
	}
	if !equalCoord(old.Z, updated.Z) {
		live.SetZ(updated.Z)
		fieldsChanged = true
	}
	if !equalCoord(old.Angle, updated.Angle) {
		live.SetAngle(updated.Angle)
		fieldsChanged = true
	}
	if !equalCoord(old.RotationX, updated.RotationX) {
		live.SetRotationX(updated.RotationX)
		fieldsChanged = true
	}
	if !equalCoord(old.RotationY, updated.RotationY) {
		live.SetRotationY(updated.RotationY)
		fieldsChanged = true
	}
	if old.ZOrder != updated.ZOrder {
		live.SetZOrder(updated.ZOrder)
		fieldsChanged = true
	}
	if old.Layer != updated.Layer {
		live.SetLayer(updated.Layer)
		fieldsChanged = true
	}

	sizeChanged := false
	if updated.CustomSize {
		if !old.CustomSize || !equalCoord(old.Width, updated.Width) || !equalCoord(old.Height, updated.Height) {
			live.SetCustomSize(updated.Width, updated.Height)
			sizeChanged = true
		}
	} else if old.CustomSize {
		// The natural fallback size is the object implementation's call, made
		// in the extra-initialization hook below.
		live.ClearCustomSize()
		sizeChanged = true
	}
	if updated.CustomDepth {
		if !old.CustomDepth || !equalCoord(old.Depth, updated.Depth) {
			live.SetCustomDepth(updated.Depth)
			sizeChanged = true
		}
	} else if old.CustomDepth {
		live.ClearCustomDepth()
		sizeChanged = true
	}

	propertiesChanged := !equalNumberProperties(old.NumberProperties, updated.NumberProperties) ||
		!equalStringProperties(old.StringProperties, updated.StringProperties)
	if sizeChanged || propertiesChanged {
		live.ReinitializeFromInstance(updated)
		fieldsChanged = true
	}

	oldObject, _ := gamedef.FindObject(oldObjects, old.ObjectName)
	newObject, _ := gamedef.FindObject(newObjects, updated.ObjectName)
	oldMerged := gamedef.MergeInstanceVariables(oldObject.Variables, old.Variables)
	newMerged := gamedef.MergeInstanceVariables(newObject.Variables, updated.Variables)
	ReconcileVariables(log, scope+": instance "+updated.PersistentUUID, oldMerged, newMerged, live.Variables())

	recurseNested(log, scope, live, oldObjects, newObjects, changed, registry)

	if fieldsChanged {
		live.NotifyBehaviorsChanged()
	}
}

// recurseNested applies the container reconciliation to the interior of one
// composite instance, using the child object lists of its old and new object
// declarations.
func recurseNested(log *Log, scope string, live *runtime.Instance, oldObjects, newObjects []gamedef.ObjectDescriptor, changed ClassChanges, registry *runtime.ClassRegistry) {
	nested := live.Nested()
	if nested == nil {
		return
	}
	oldObject, hadOld := gamedef.FindObject(oldObjects, live.ObjectName())
	newObject, hasNew := gamedef.FindObject(newObjects, live.ObjectName())
	if !hadOld && !hasNew {
		return
	}
	nestedScope := scope + ": inside " + live.ObjectName()
	reconcileNestedContainer(log, nestedScope, nested, oldObject.ChildObjects, newObject.ChildObjects, changed, registry)
}

func equalCoord(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}

func equalNumberProperties(a, b map[string]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok || !equalCoord(v, other) {
			return false
		}
	}
	return true
}

func equalStringProperties(a, b map[string]string) bool {
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
