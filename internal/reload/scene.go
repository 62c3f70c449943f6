package reload

import (
	"fmt"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// ReconcileScene applies one scene's declaration delta to its live container,
// in a fixed order so later passes see the outcome of earlier ones:
// presentation fields, variables (own plus per-extension scene sets),
// behavior shared data, class-identity re-instantiation, object templates,
// placed instances, then layers. extraOld and extraNew carry the declared
// instances of every external layout this scene instantiated; they join the
// scene's own instance lists for the UUID correlation.
func ReconcileScene(log *Log, scene *runtime.Scene, old, updated gamedef.SceneDescriptor, oldExtensions, newExtensions []gamedef.ExtensionDescriptor, extraOld, extraNew []gamedef.InstanceDescriptor, changed ClassChanges) {
	scope := "scene " + updated.Name

	if old.BackgroundColor != updated.BackgroundColor {
		scene.SetBackgroundColor(updated.BackgroundColor)
	}
	if old.WindowTitle != updated.WindowTitle {
		scene.SetWindowTitle(updated.WindowTitle)
	}

	ReconcileVariables(log, scope, old.Variables, updated.Variables, scene.Variables())
	reconcileExtensionSceneVariables(log, scope, scene.Container, oldExtensions, newExtensions)

	reconcileSharedData(log, scope, scene.Container, old.BehaviorsSharedData, updated.BehaviorsSharedData)

	reinstantiateChangedBehaviors(log, scope, scene.Container, changed, updated.Objects)

	oldDecls := append(append([]gamedef.InstanceDescriptor(nil), old.Instances...), extraOld...)
	newDecls := append(append([]gamedef.InstanceDescriptor(nil), updated.Instances...), extraNew...)
	declared := make(map[string]struct{}, len(oldDecls)+len(newDecls))
	for _, decl := range oldDecls {
		declared[decl.PersistentUUID] = struct{}{}
	}
	for _, decl := range newDecls {
		declared[decl.PersistentUUID] = struct{}{}
	}

	reconcileObjects(log, scope, scene.Container, old.Objects, updated.Objects, declared)
	ReconcileInstances(log, scope, scene.Container, old.Objects, updated.Objects, oldDecls, newDecls, changed, scene.Registry())
	reconcileLayers(log, scope, scene.Container, old.Layers, updated.Layers)
}

// reconcileNestedContainer applies the container delta to the interior of one
// composite instance. Nested containers carry no declared placements, layers
// or shared data, so only the object pass and the dynamic-instance recursion
// apply; class re-instantiation already reached this container through the
// scene-level recursion.
func reconcileNestedContainer(log *Log, scope string, container *runtime.Container, oldObjects, newObjects []gamedef.ObjectDescriptor, changed ClassChanges, registry *runtime.ClassRegistry) {
	reconcileObjects(log, scope, container, oldObjects, newObjects, nil)
	ReconcileInstances(log, scope, container, oldObjects, newObjects, nil, nil, changed, registry)
}

// reconcileObjects aligns the container's object templates with the new
// declarations. A kept object of unchanged type has its template replaced and
// its live instances receive the behavior and effect deltas; object-level
// variable changes are applied directly only to instances with no declared
// counterpart, as declared instances reconcile variables against their merged
// view in the instance pass. A type change rebuilds the object wholesale,
// destroying its live instances.
func reconcileObjects(log *Log, scope string, container *runtime.Container, old, updated []gamedef.ObjectDescriptor, declared map[string]struct{}) {
	hooks := entityHooks[gamedef.ObjectDescriptor]{
		kind:  "object",
		key:   func(decl gamedef.ObjectDescriptor) string { return decl.Name },
		equal: gamedef.EqualObjects,
		create: func(decl gamedef.ObjectDescriptor) error {
			container.RegisterObject(decl)
			return nil
		},
		destroy: func(name string) error {
			for _, live := range container.InstancesByObjectName(name) {
				container.DestroyInstance(live)
			}
			if !container.UnregisterObject(name) {
				return fmt.Errorf("no registered template")
			}
			return nil
		},
		patch: func(previous, decl gamedef.ObjectDescriptor) error {
			if previous.Type != decl.Type {
				for _, live := range container.InstancesByObjectName(decl.Name) {
					container.DestroyInstance(live)
				}
				container.RegisterObject(decl)
				log.Infof("%s: object %q changed type from %q to %q, its instances are rebuilt", scope, decl.Name, previous.Type, decl.Type)
				return nil
			}
			container.RegisterObject(decl)
			for _, live := range container.InstancesByObjectName(decl.Name) {
				liveScope := fmt.Sprintf("%s: object %q", scope, decl.Name)
				reconcileBehaviors(log, liveScope, container.Registry(), live, previous.Behaviors, decl.Behaviors)
				reconcileEffects(log, liveScope, live, previous.Effects, decl.Effects)
				if _, isDeclared := declared[live.PersistentUUID()]; !isDeclared {
					ReconcileVariables(log, liveScope, previous.Variables, decl.Variables, live.Variables())
				}
			}
			return nil
		},
	}
	reconcileEntityList(log, scope, hooks, old, updated)
}

// reconcileSharedData aligns the scene-scoped behavior shared data with the
// new declarations. A type change is destroy+recreate, as the owning behavior
// implementation changed.
func reconcileSharedData(log *Log, scope string, container *runtime.Container, old, updated []gamedef.BehaviorSharedDataDescriptor) {
	hooks := entityHooks[gamedef.BehaviorSharedDataDescriptor]{
		kind:  "shared data",
		key:   func(decl gamedef.BehaviorSharedDataDescriptor) string { return decl.Name },
		equal: gamedef.EqualSharedData,
		create: func(decl gamedef.BehaviorSharedDataDescriptor) error {
			container.CreateSharedData(decl)
			return nil
		},
		destroy: func(name string) error {
			if !container.RemoveSharedData(name) {
				return fmt.Errorf("no live shared data")
			}
			return nil
		},
		patch: func(previous, decl gamedef.BehaviorSharedDataDescriptor) error {
			if previous.Type != decl.Type {
				container.RemoveSharedData(decl.Name)
				container.CreateSharedData(decl)
				return nil
			}
			if !container.UpdateSharedData(decl.Name, decl.Properties) {
				container.CreateSharedData(decl)
			}
			return nil
		},
	}
	reconcileEntityList(log, scope, hooks, old, updated)
}

// reconcileLayers aligns the live layers with the new declarations, patching
// kept layers field by field. The rendering type is fixed for the lifetime of
// a layer: the renderer derives its pipeline from it, so a change is reported
// as an error and nothing on the layer is touched.
func reconcileLayers(log *Log, scope string, container *runtime.Container, old, updated []gamedef.LayerDescriptor) {
	hooks := entityHooks[gamedef.LayerDescriptor]{
		kind:  "layer",
		key:   func(decl gamedef.LayerDescriptor) string { return decl.Name },
		equal: gamedef.EqualLayers,
		create: func(decl gamedef.LayerDescriptor) error {
			container.AddLayer(decl)
			return nil
		},
		destroy: func(name string) error {
			if !container.RemoveLayer(name) {
				return fmt.Errorf("no live layer")
			}
			return nil
		},
		patch: func(previous, decl gamedef.LayerDescriptor) error {
			live, ok := container.Layer(decl.Name)
			if !ok {
				container.AddLayer(decl)
				return nil
			}
			if previous.RenderingType != decl.RenderingType {
				return fmt.Errorf("rendering type changed from %q to %q, restart the preview to apply it", previous.RenderingType, decl.RenderingType)
			}
			if previous.Visible != decl.Visible {
				live.SetVisible(decl.Visible)
			}
			if previous.IsLightingLayer != decl.IsLightingLayer {
				live.SetLightingLayer(decl.IsLightingLayer)
			}
			if previous.AmbientLightColor != decl.AmbientLightColor {
				live.SetAmbientLightColor(decl.AmbientLightColor)
			}
			if previous.FollowBaseLayerCamera != decl.FollowBaseLayerCamera {
				live.SetFollowBaseLayerCamera(decl.FollowBaseLayerCamera)
			}
			reconcileEffects(log, scope+": layer "+decl.Name, live, previous.Effects, decl.Effects)
			return nil
		},
	}
	reconcileEntityList(log, scope, hooks, old, updated)
}

// reconcileExtensionSceneVariables walks the union of extension names across
// both snapshots and reconciles each extension's scene-variable contribution.
func reconcileExtensionSceneVariables(log *Log, scope string, container *runtime.Container, old, updated []gamedef.ExtensionDescriptor) {
	oldByName := make(map[string][]gamedef.VariableDescriptor, len(old))
	for _, extension := range old {
		oldByName[extension.Name] = extension.SceneVariables
	}
	seen := make(map[string]struct{}, len(updated))
	for _, extension := range updated {
		seen[extension.Name] = struct{}{}
		previous := oldByName[extension.Name]
		if len(previous) == 0 && len(extension.SceneVariables) == 0 {
			continue
		}
		ReconcileVariables(log, scope+": extension "+extension.Name, previous, extension.SceneVariables, container.ExtensionVariables(extension.Name))
	}
	for _, extension := range old {
		if _, kept := seen[extension.Name]; kept || len(extension.SceneVariables) == 0 {
			continue
		}
		ReconcileVariables(log, scope+": extension "+extension.Name, extension.SceneVariables, nil, container.ExtensionVariables(extension.Name))
	}
}
