package gamedef

// ProjectSnapshot is the immutable declarative description of a project at
// one point in time. The hot-reload engine receives two of these per reload
// attempt, diffing "old" against "new"; nothing in this package mutates a
// snapshot after it has been parsed.
type ProjectSnapshot struct {
	Name            string                     `json:"name"`
	Variables       []VariableDescriptor       `json:"variables,omitempty"`
	Extensions      []ExtensionDescriptor      `json:"extensions,omitempty"`
	Scenes          []SceneDescriptor          `json:"scenes"`
	ExternalLayouts []ExternalLayoutDescriptor `json:"externalLayouts,omitempty"`
}

// ExtensionDescriptor declares one events-function extension: its variable
// contributions and the events-based objects it defines.
type ExtensionDescriptor struct {
	Name               string                        `json:"name"`
	GlobalVariables    []VariableDescriptor          `json:"globalVariables,omitempty"`
	SceneVariables     []VariableDescriptor          `json:"sceneVariables,omitempty"`
	EventsBasedObjects []EventsBasedObjectDescriptor `json:"eventsBasedObjects,omitempty"`
}

// EventsBasedObjectDescriptor is the template for a composite object type
// registered as "ExtensionName::ObjectName".
type EventsBasedObjectDescriptor struct {
	Name    string             `json:"name"`
	Objects []ObjectDescriptor `json:"objects,omitempty"`
}

// SceneDescriptor declares one scene.
type SceneDescriptor struct {
	Name                string                         `json:"name"`
	BackgroundColor     string                         `json:"backgroundColor,omitempty"`
	WindowTitle         string                         `json:"windowTitle,omitempty"`
	Variables           []VariableDescriptor           `json:"variables,omitempty"`
	BehaviorsSharedData []BehaviorSharedDataDescriptor `json:"behaviorsSharedData,omitempty"`
	Objects             []ObjectDescriptor             `json:"objects,omitempty"`
	Instances           []InstanceDescriptor           `json:"instances,omitempty"`
	Layers              []LayerDescriptor              `json:"layers,omitempty"`
}

// BehaviorSharedDataDescriptor carries scene-scoped shared state for every
// behavior of one type, keyed by the behavior name.
type BehaviorSharedDataDescriptor struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Properties PropertyBag `json:"properties,omitempty"`
}

// ObjectDescriptor declares one object. Name is unique within its direct
// container. Type is either a builtin tag ("Sprite", "TextObject", ...) or a
// composite reference "Extension::EventsBasedObject"; composite objects carry
// the resolved child object list (template merged with per-object overrides).
type ObjectDescriptor struct {
	Name         string               `json:"name" jsonschema:"minLength=1"`
	Type         string               `json:"type" jsonschema:"minLength=1"`
	Variables    []VariableDescriptor `json:"variables,omitempty"`
	Behaviors    []BehaviorDescriptor `json:"behaviors,omitempty"`
	Effects      []EffectDescriptor   `json:"effects,omitempty"`
	ChildObjects []ObjectDescriptor   `json:"childObjects,omitempty"`
}

// BehaviorDescriptor declares one behavior attached to an object, keyed by
// its instance name. Properties is the opaque configuration bag handed to the
// behavior implementation.
type BehaviorDescriptor struct {
	Name       string      `json:"name"`
	Type       string      `json:"type"`
	Properties PropertyBag `json:"properties,omitempty"`
}

// EffectDescriptor declares one visual effect on an object or a layer.
type EffectDescriptor struct {
	Name              string             `json:"name"`
	Type              string             `json:"type"`
	BooleanParameters map[string]bool    `json:"booleanParameters,omitempty"`
	DoubleParameters  map[string]float64 `json:"doubleParameters,omitempty"`
	StringParameters  map[string]string  `json:"stringParameters,omitempty"`
}

// InstanceDescriptor declares one placed instance. PersistentUUID is stable
// for the whole editing session and is the only key correlating the declared
// instance to its live runtime counterpart across snapshots.
type InstanceDescriptor struct {
	PersistentUUID string  `json:"persistentUuid" jsonschema:"description=Stable identity across snapshots"`
	ObjectName     string  `json:"objectName"`
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	Z              float64 `json:"z,omitempty"`
	Angle          float64 `json:"angle,omitempty"`
	RotationX      float64 `json:"rotationX,omitempty"`
	RotationY      float64 `json:"rotationY,omitempty"`
	ZOrder         int     `json:"zOrder,omitempty"`
	Layer          string  `json:"layer,omitempty"`
	CustomSize     bool    `json:"customSize,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	CustomDepth    bool    `json:"customDepth,omitempty"`
	Depth          float64 `json:"depth,omitempty"`
	KeepRatio      bool    `json:"keepRatio,omitempty"`

	Variables        []VariableDescriptor `json:"variables,omitempty"`
	NumberProperties map[string]float64   `json:"numberProperties,omitempty"`
	StringProperties map[string]string    `json:"stringProperties,omitempty"`
}

// LayerDescriptor declares one rendering layer.
type LayerDescriptor struct {
	Name                  string             `json:"name"`
	Visible               bool               `json:"visible"`
	RenderingType         string             `json:"renderingType,omitempty" jsonschema:"description=Empty 2d 3d or 2d+3d; not hot-reloadable"`
	IsLightingLayer       bool               `json:"isLightingLayer,omitempty"`
	AmbientLightColor     string             `json:"ambientLightColor,omitempty"`
	FollowBaseLayerCamera bool               `json:"followBaseLayerCamera,omitempty"`
	Effects               []EffectDescriptor `json:"effects,omitempty"`
}

// ExternalLayoutDescriptor declares instances maintained outside any scene
// and instantiated into scenes on demand.
type ExternalLayoutDescriptor struct {
	Name            string               `json:"name"`
	AssociatedScene string               `json:"associatedScene,omitempty"`
	Instances       []InstanceDescriptor `json:"instances,omitempty"`
}

// FindScene returns the named scene descriptor.
func (p *ProjectSnapshot) FindScene(name string) (SceneDescriptor, bool) {
	for _, scene := range p.Scenes {
		if scene.Name == name {
			return scene, true
		}
	}
	return SceneDescriptor{}, false
}

// FindExternalLayout returns the named external layout descriptor.
func (p *ProjectSnapshot) FindExternalLayout(name string) (ExternalLayoutDescriptor, bool) {
	for _, layout := range p.ExternalLayouts {
		if layout.Name == name {
			return layout, true
		}
	}
	return ExternalLayoutDescriptor{}, false
}

// FindObject returns the named object from a descriptor list.
func FindObject(objects []ObjectDescriptor, name string) (ObjectDescriptor, bool) {
	for _, object := range objects {
		if object.Name == name {
			return object, true
		}
	}
	return ObjectDescriptor{}, false
}

// FindInstanceByUUID returns the instance declared with the given persistent UUID.
func FindInstanceByUUID(instances []InstanceDescriptor, uuid string) (InstanceDescriptor, bool) {
	for _, instance := range instances {
		if instance.PersistentUUID == uuid {
			return instance, true
		}
	}
	return InstanceDescriptor{}, false
}

// MergedChildObjects resolves the effective child object list of one
// composite object: the events-based-object template list with same-named
// overrides from the object declaration applied. The template list is never
// mutated; the result is a fresh slice in template order.
func MergedChildObjects(template []ObjectDescriptor, overrides []ObjectDescriptor) []ObjectDescriptor {
	if len(overrides) == 0 {
		return append([]ObjectDescriptor(nil), template...)
	}
	byName := make(map[string]ObjectDescriptor, len(overrides))
	for _, override := range overrides {
		byName[override.Name] = override
	}
	merged := make([]ObjectDescriptor, 0, len(template))
	for _, child := range template {
		if override, ok := byName[child.Name]; ok {
			merged = append(merged, override)
			continue
		}
		merged = append(merged, child)
	}
	return merged
}
