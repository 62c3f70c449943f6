package runtime

import (
	"fmt"

	"github.com/google/uuid"

	"lantern/server/internal/gamedef"
)

// SharedData is the live scene-scoped shared state for every behavior of one
// type, keyed by the behavior name.
type SharedData struct {
	Name       string
	Type       string
	Properties gamedef.PropertyBag
}

// Container is one live instance container: a scene, or the interior of one
// composite object instance. It owns the object template registry used to
// spawn instances, the live instance pool indexed by object name and by
// persistent UUID, the ordered layer registry, and the variable containers.
//
// Containers are mutated either by game logic between reloads or by the
// reload engine while the simulation is paused, never by both at once, so no
// locking happens here.
type Container struct {
	registry *ClassRegistry

	objects     map[string]gamedef.ObjectDescriptor
	instances   []*Instance
	byUUID      map[string]*Instance
	layers      []*Layer
	variables   *VariableContainer
	extensions  map[string]*VariableContainer
	sharedData  map[string]*SharedData
	layoutsUsed map[string]struct{}

	mutations uint64
}

// NewContainer builds an empty container bound to a behavior class registry.
func NewContainer(registry *ClassRegistry) *Container {
	c := &Container{
		registry:    registry,
		objects:     make(map[string]gamedef.ObjectDescriptor),
		byUUID:      make(map[string]*Instance),
		extensions:  make(map[string]*VariableContainer),
		sharedData:  make(map[string]*SharedData),
		layoutsUsed: make(map[string]struct{}),
	}
	c.variables = NewVariableContainer(nil)
	c.variables.SetMutationHook(c.noteMutation)
	return c
}

func (c *Container) noteMutation() {
	c.mutations++
}

// Mutations returns the number of mutating calls performed against this
// container and everything it owns. The counter backs the no-op idempotence
// guarantee: reconciling identical snapshots must leave it untouched.
func (c *Container) Mutations() uint64 {
	total := c.mutations
	for _, instance := range c.instances {
		if instance.nested != nil {
			total += instance.nested.Mutations()
		}
	}
	return total
}

// Registry returns the behavior class registry the container spawns from.
func (c *Container) Registry() *ClassRegistry {
	return c.registry
}

// Variables returns the container's own live variable container.
func (c *Container) Variables() *VariableContainer {
	return c.variables
}

// ExtensionVariables returns the live variable container contributed by the
// named extension, creating it on first use.
func (c *Container) ExtensionVariables(extension string) *VariableContainer {
	vars, ok := c.extensions[extension]
	if !ok {
		vars = NewVariableContainer(nil)
		vars.SetMutationHook(c.noteMutation)
		c.extensions[extension] = vars
	}
	return vars
}

// RegisterObject installs an object template, replacing any previous template
// of the same name. Future spawns of that object name use the new template;
// live instances are left alone.
func (c *Container) RegisterObject(decl gamedef.ObjectDescriptor) {
	c.objects[decl.Name] = decl
	c.noteMutation()
}

// UnregisterObject removes an object template. It reports whether the
// template existed.
func (c *Container) UnregisterObject(name string) bool {
	if _, ok := c.objects[name]; !ok {
		return false
	}
	delete(c.objects, name)
	c.noteMutation()
	return true
}

// ObjectTemplate returns the registered template for an object name.
func (c *Container) ObjectTemplate(name string) (gamedef.ObjectDescriptor, bool) {
	decl, ok := c.objects[name]
	return decl, ok
}

// ObjectNames returns the registered template names.
func (c *Container) ObjectNames() []string {
	names := make([]string, 0, len(c.objects))
	for name := range c.objects {
		names = append(names, name)
	}
	return names
}

// SpawnInstance creates a live instance from a declared placement. The
// persistent UUID from the declaration is kept so later reloads re-correlate
// the instance.
func (c *Container) SpawnInstance(decl gamedef.InstanceDescriptor) (*Instance, error) {
	template, ok := c.objects[decl.ObjectName]
	if !ok {
		return nil, fmt.Errorf("spawn %s: no object template %q", decl.PersistentUUID, decl.ObjectName)
	}
	instance := c.buildInstance(template, decl)
	c.instances = append(c.instances, instance)
	if instance.uuid != "" {
		c.byUUID[instance.uuid] = instance
	}
	c.noteMutation()
	return instance, nil
}

// SpawnDynamic creates a live instance at runtime, outside any declared
// instance list. It receives a fresh UUID so an editor attaching later can
// address it, but no declaration will ever correlate to it.
func (c *Container) SpawnDynamic(objectName string, x, y float64) (*Instance, error) {
	template, ok := c.objects[objectName]
	if !ok {
		return nil, fmt.Errorf("spawn dynamic: no object template %q", objectName)
	}
	decl := gamedef.InstanceDescriptor{ObjectName: objectName, X: x, Y: y}
	instance := c.buildInstance(template, decl)
	instance.uuid = uuid.NewString()
	c.instances = append(c.instances, instance)
	c.byUUID[instance.uuid] = instance
	c.noteMutation()
	return instance, nil
}

func (c *Container) buildInstance(template gamedef.ObjectDescriptor, decl gamedef.InstanceDescriptor) *Instance {
	instance := &Instance{
		uuid:       decl.PersistentUUID,
		objectName: decl.ObjectName,
		owner:      c,
		x:          decl.X,
		y:          decl.Y,
		z:          decl.Z,
		angle:      decl.Angle,
		rotationX:  decl.RotationX,
		rotationY:  decl.RotationY,
		zOrder:     decl.ZOrder,
		layer:      decl.Layer,
		behaviors:  make(map[string]*BehaviorInstance, len(template.Behaviors)),
		effects:    make(map[string]*EffectInstance, len(template.Effects)),
	}
	if decl.CustomSize {
		instance.customSize = true
		instance.width, instance.height = decl.Width, decl.Height
	}
	if decl.CustomDepth {
		instance.customDepth = true
		instance.depth = decl.Depth
	}
	instance.numberProperties = make(map[string]float64, len(decl.NumberProperties))
	for k, v := range decl.NumberProperties {
		instance.numberProperties[k] = v
	}
	instance.stringProperties = make(map[string]string, len(decl.StringProperties))
	for k, v := range decl.StringProperties {
		instance.stringProperties[k] = v
	}

	instance.variables = NewVariableContainer(gamedef.MergeInstanceVariables(template.Variables, decl.Variables))
	instance.variables.SetMutationHook(c.noteMutation)

	for _, behaviorDecl := range template.Behaviors {
		class, ok := c.registry.Class(behaviorDecl.Type)
		if !ok {
			continue
		}
		instance.behaviors[behaviorDecl.Name] = NewBehaviorInstance(class, behaviorDecl)
	}
	for _, effectDecl := range template.Effects {
		instance.effects[effectDecl.Name] = NewEffectInstance(effectDecl, instance.mutated)
	}

	if len(template.ChildObjects) > 0 {
		nested := NewContainer(c.registry)
		for _, child := range template.ChildObjects {
			nested.objects[child.Name] = child
		}
		instance.nested = nested
	}
	return instance
}

// DestroyInstance removes a live instance from the pool. It reports whether
// the instance was present.
func (c *Container) DestroyInstance(instance *Instance) bool {
	for idx, candidate := range c.instances {
		if candidate == instance {
			c.instances = append(c.instances[:idx], c.instances[idx+1:]...)
			if instance.uuid != "" {
				delete(c.byUUID, instance.uuid)
			}
			c.noteMutation()
			return true
		}
	}
	return false
}

// InstanceByUUID returns the live instance carrying a persistent UUID.
func (c *Container) InstanceByUUID(uuid string) (*Instance, bool) {
	instance, ok := c.byUUID[uuid]
	return instance, ok
}

// InstancesByObjectName returns every live instance of one object, in spawn order.
func (c *Container) InstancesByObjectName(name string) []*Instance {
	var matched []*Instance
	for _, instance := range c.instances {
		if instance.objectName == name {
			matched = append(matched, instance)
		}
	}
	return matched
}

// AllInstances returns every live instance in spawn order.
func (c *Container) AllInstances() []*Instance {
	return append([]*Instance(nil), c.instances...)
}

// AddLayer creates a live layer from its declaration at the end of the order.
func (c *Container) AddLayer(decl gamedef.LayerDescriptor) *Layer {
	layer := NewLayer(decl, c.noteMutation)
	c.layers = append(c.layers, layer)
	c.noteMutation()
	return layer
}

// RemoveLayer destroys the named layer. It reports whether the layer existed.
func (c *Container) RemoveLayer(name string) bool {
	for idx, layer := range c.layers {
		if layer.Name == name {
			c.layers = append(c.layers[:idx], c.layers[idx+1:]...)
			c.noteMutation()
			return true
		}
	}
	return false
}

// Layer returns the named live layer.
func (c *Container) Layer(name string) (*Layer, bool) {
	for _, layer := range c.layers {
		if layer.Name == name {
			return layer, true
		}
	}
	return nil, false
}

// Layers returns the live layers in z order.
func (c *Container) Layers() []*Layer {
	return append([]*Layer(nil), c.layers...)
}

// SharedData returns the live shared data for one behavior name.
func (c *Container) SharedData(name string) (*SharedData, bool) {
	data, ok := c.sharedData[name]
	return data, ok
}

// SharedDataNames returns the behavior names carrying shared data.
func (c *Container) SharedDataNames() []string {
	names := make([]string, 0, len(c.sharedData))
	for name := range c.sharedData {
		names = append(names, name)
	}
	return names
}

// CreateSharedData installs shared data from its declaration.
func (c *Container) CreateSharedData(decl gamedef.BehaviorSharedDataDescriptor) *SharedData {
	data := &SharedData{Name: decl.Name, Type: decl.Type, Properties: decl.Properties.Clone()}
	c.sharedData[decl.Name] = data
	c.noteMutation()
	return data
}

// RemoveSharedData destroys the named shared data. It reports whether it existed.
func (c *Container) RemoveSharedData(name string) bool {
	if _, ok := c.sharedData[name]; !ok {
		return false
	}
	delete(c.sharedData, name)
	c.noteMutation()
	return true
}

// UpdateSharedData replaces the property bag of existing shared data.
func (c *Container) UpdateSharedData(name string, properties gamedef.PropertyBag) bool {
	data, ok := c.sharedData[name]
	if !ok {
		return false
	}
	data.Properties = properties.Clone()
	c.noteMutation()
	return true
}

// MarkLayoutInstantiated records that an external layout's instances were
// created inside this container.
func (c *Container) MarkLayoutInstantiated(name string) {
	c.layoutsUsed[name] = struct{}{}
}

// HasLayout reports whether an external layout was instantiated here.
func (c *Container) HasLayout(name string) bool {
	_, ok := c.layoutsUsed[name]
	return ok
}
