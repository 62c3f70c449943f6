package runtime

import (
	"fmt"
	"sync"

	"lantern/server/internal/gamedef"
)

// Scene is one live scene: its instance container plus the scene-level
// presentation fields.
type Scene struct {
	*Container
	Name string

	backgroundColor string
	windowTitle     string
}

// BackgroundColor returns the live background color.
func (s *Scene) BackgroundColor() string { return s.backgroundColor }

// SetBackgroundColor updates the live background color.
func (s *Scene) SetBackgroundColor(color string) {
	s.backgroundColor = color
	s.noteMutation()
}

// WindowTitle returns the live window title.
func (s *Scene) WindowTitle() string { return s.windowTitle }

// SetWindowTitle updates the live window title.
func (s *Scene) SetWindowTitle(title string) {
	s.windowTitle = title
	s.noteMutation()
}

// Runtime is the running simulation: a scene stack, the behavior class
// registry, the global variable containers and the frame stepper. The frame
// stepper is the only actor touching the live graph between reloads; the
// reload engine pauses it for the full duration of a reload.
type Runtime struct {
	mu       sync.Mutex
	registry *ClassRegistry
	scenes   []*Scene
	paused   bool
	frame    uint64

	globals          *VariableContainer
	extensionGlobals map[string]*VariableContainer
}

// New builds an empty runtime around a behavior class registry.
func New(registry *ClassRegistry) *Runtime {
	if registry == nil {
		registry = NewClassRegistry()
	}
	return &Runtime{
		registry:         registry,
		globals:          NewVariableContainer(nil),
		extensionGlobals: make(map[string]*VariableContainer),
	}
}

// Registry returns the behavior class registry.
func (r *Runtime) Registry() *ClassRegistry {
	return r.registry
}

// SeedGlobals instantiates the project-level and per-extension global
// variable containers from the boot snapshot. It runs once before the first
// scene is pushed; without it the reload engine would diff declared globals
// against an empty live container and re-declare every one of them.
func (r *Runtime) SeedGlobals(project *gamedef.ProjectSnapshot) {
	r.globals = NewVariableContainer(project.Variables)
	for _, extension := range project.Extensions {
		if len(extension.GlobalVariables) == 0 {
			continue
		}
		r.extensionGlobals[extension.Name] = NewVariableContainer(extension.GlobalVariables)
	}
}

// GlobalVariables returns the project-level live variable container.
func (r *Runtime) GlobalVariables() *VariableContainer {
	return r.globals
}

// ExtensionGlobalVariables returns the global container contributed by one
// extension, creating it on first use.
func (r *Runtime) ExtensionGlobalVariables(extension string) *VariableContainer {
	vars, ok := r.extensionGlobals[extension]
	if !ok {
		vars = NewVariableContainer(nil)
		r.extensionGlobals[extension] = vars
	}
	return vars
}

// PushScene instantiates a declared scene on top of the stack: object
// templates, layers, variables (own plus per-extension scene sets), shared
// data and declared instances.
func (r *Runtime) PushScene(project *gamedef.ProjectSnapshot, name string) (*Scene, error) {
	decl, ok := project.FindScene(name)
	if !ok {
		return nil, fmt.Errorf("push scene: unknown scene %q", name)
	}
	scene := &Scene{
		Container:       NewContainer(r.registry),
		Name:            decl.Name,
		backgroundColor: decl.BackgroundColor,
		windowTitle:     decl.WindowTitle,
	}
	for _, object := range decl.Objects {
		scene.objects[object.Name] = object
	}
	for _, layerDecl := range decl.Layers {
		scene.layers = append(scene.layers, NewLayer(layerDecl, scene.noteMutation))
	}
	scene.variables = NewVariableContainer(decl.Variables)
	scene.variables.SetMutationHook(scene.noteMutation)
	for _, extension := range project.Extensions {
		if len(extension.SceneVariables) == 0 {
			continue
		}
		vars := NewVariableContainer(extension.SceneVariables)
		vars.SetMutationHook(scene.noteMutation)
		scene.extensions[extension.Name] = vars
	}
	for _, shared := range decl.BehaviorsSharedData {
		scene.sharedData[shared.Name] = &SharedData{Name: shared.Name, Type: shared.Type, Properties: shared.Properties.Clone()}
	}
	for _, instanceDecl := range decl.Instances {
		if _, err := scene.SpawnInstance(instanceDecl); err != nil {
			return nil, fmt.Errorf("push scene %s: %w", name, err)
		}
	}

	r.mu.Lock()
	r.scenes = append(r.scenes, scene)
	r.mu.Unlock()
	return scene, nil
}

// InstantiateLayout spawns an external layout's declared instances into a
// scene and records the association for later reloads.
func (r *Runtime) InstantiateLayout(scene *Scene, layout gamedef.ExternalLayoutDescriptor) error {
	for _, instanceDecl := range layout.Instances {
		if _, err := scene.SpawnInstance(instanceDecl); err != nil {
			return fmt.Errorf("instantiate layout %s: %w", layout.Name, err)
		}
	}
	scene.MarkLayoutInstantiated(layout.Name)
	return nil
}

// PopScene removes the top scene. It reports whether a scene was popped.
func (r *Runtime) PopScene() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.scenes) == 0 {
		return false
	}
	r.scenes = r.scenes[:len(r.scenes)-1]
	return true
}

// SceneStack returns the live scenes, bottom first; the last entry is active.
func (r *Runtime) SceneStack() []*Scene {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Scene(nil), r.scenes...)
}

// Pause suspends the per-frame stepper.
func (r *Runtime) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = true
}

// Resume restarts the per-frame stepper.
func (r *Runtime) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
}

// Paused reports whether the stepper is suspended.
func (r *Runtime) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Frame returns the current frame counter.
func (r *Runtime) Frame() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

// SceneSummary is a read-only operational view of one live scene.
type SceneSummary struct {
	Name      string
	Instances int
	Layers    int
	Mutations uint64
}

// SceneSummaries snapshots every live scene for reporting. It refuses while
// the stepper is paused: the reload engine owns the graph between Pause and
// Resume, and both of those take the runtime mutex, so a snapshot taken here
// while unpaused cannot overlap a reload's mutations.
func (r *Runtime) SceneSummaries() ([]SceneSummary, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		return nil, false
	}
	summaries := make([]SceneSummary, 0, len(r.scenes))
	for _, scene := range r.scenes {
		summaries = append(summaries, SceneSummary{
			Name:      scene.Name,
			Instances: len(scene.AllInstances()),
			Layers:    len(scene.Layers()),
			Mutations: scene.Mutations(),
		})
	}
	return summaries, true
}

// Step advances the simulation one frame. While paused it is a no-op, which
// is what guarantees the reload engine exclusive access to the live graph.
func (r *Runtime) Step() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.paused {
		return false
	}
	r.frame++
	for _, scene := range r.scenes {
		stepContainer(scene.Container)
	}
	return true
}

func stepContainer(c *Container) {
	for _, instance := range c.instances {
		for _, behavior := range instance.behaviors {
			if behavior.NeedsSync {
				// State-caching behaviors re-read the transform they mirror.
				behavior.NeedsSync = false
			}
		}
		if instance.nested != nil {
			stepContainer(instance.nested)
		}
	}
}
