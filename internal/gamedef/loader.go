package gamedef

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ProjectFile is the on-disk document. The struct is exported so tooling
// (e.g. schema generators) can reflect over the format shared with the
// editor.
type ProjectFile struct {
	Project ProjectSnapshot `json:"project" jsonschema:"description=Declarative project description consumed by the preview runtime"`
}

type source interface {
	Load() ([]byte, error)
	Path() string
}

type fileSource struct {
	path string
}

func (f fileSource) Load() ([]byte, error) {
	return os.ReadFile(f.path)
}

func (f fileSource) Path() string {
	return f.path
}

// LoadProjectFile reads, parses and validates a project document from disk.
func LoadProjectFile(path string) (*ProjectSnapshot, error) {
	return loadProject(fileSource{path: path})
}

// ParseProject parses and validates a project document from memory.
func ParseProject(data []byte) (*ProjectSnapshot, error) {
	return parseProject(data, "<memory>")
}

func loadProject(src source) (*ProjectSnapshot, error) {
	data, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", src.Path(), err)
	}
	return parseProject(data, src.Path())
}

func parseProject(data []byte, path string) (*ProjectSnapshot, error) {
	var file ProjectFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	snapshot := file.Project
	resolveComposites(&snapshot)
	if err := validateProject(&snapshot); err != nil {
		return nil, fmt.Errorf("validate project %s: %w", path, err)
	}
	return &snapshot, nil
}

// resolveComposites fills the ChildObjects of every composite object with the
// events-based-object template list merged with the declared overrides. The
// extension templates themselves are left untouched.
func resolveComposites(snapshot *ProjectSnapshot) {
	templates := make(map[string][]ObjectDescriptor)
	for _, extension := range snapshot.Extensions {
		for _, based := range extension.EventsBasedObjects {
			templates[extension.Name+"::"+based.Name] = based.Objects
		}
	}
	for i := range snapshot.Scenes {
		resolveObjectList(snapshot.Scenes[i].Objects, templates)
	}
}

func resolveObjectList(objects []ObjectDescriptor, templates map[string][]ObjectDescriptor) {
	for i := range objects {
		object := &objects[i]
		template, ok := templates[object.Type]
		if !ok {
			continue
		}
		object.ChildObjects = MergedChildObjects(template, object.ChildObjects)
		resolveObjectList(object.ChildObjects, templates)
	}
}

func validateProject(snapshot *ProjectSnapshot) error {
	for _, scene := range snapshot.Scenes {
		if err := validateScene(scene); err != nil {
			return err
		}
	}
	for _, layout := range snapshot.ExternalLayouts {
		if err := validateInstances(layout.Instances, "external layout "+layout.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateScene(scene SceneDescriptor) error {
	if err := validateObjectNames(scene.Objects, "scene "+scene.Name); err != nil {
		return err
	}
	if err := validateInstances(scene.Instances, "scene "+scene.Name); err != nil {
		return err
	}
	seenLayers := make(map[string]struct{}, len(scene.Layers))
	for _, layer := range scene.Layers {
		if _, dup := seenLayers[layer.Name]; dup {
			return fmt.Errorf("scene %s: duplicate layer %q", scene.Name, layer.Name)
		}
		seenLayers[layer.Name] = struct{}{}
	}
	return nil
}

func validateObjectNames(objects []ObjectDescriptor, scope string) error {
	seen := make(map[string]struct{}, len(objects))
	for _, object := range objects {
		if object.Name == "" {
			return fmt.Errorf("%s: object with empty name", scope)
		}
		if _, dup := seen[object.Name]; dup {
			return fmt.Errorf("%s: duplicate object %q", scope, object.Name)
		}
		seen[object.Name] = struct{}{}
		if len(object.ChildObjects) > 0 {
			if err := validateObjectNames(object.ChildObjects, scope+" object "+object.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateInstances(instances []InstanceDescriptor, scope string) error {
	seen := make(map[string]struct{}, len(instances))
	for _, instance := range instances {
		id := instance.PersistentUUID
		if id == "" {
			return fmt.Errorf("%s: instance of %q missing persistent uuid", scope, instance.ObjectName)
		}
		if _, err := uuid.Parse(id); err != nil {
			return fmt.Errorf("%s: instance of %q has malformed uuid %q: %w", scope, instance.ObjectName, id, err)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%s: duplicate persistent uuid %q", scope, id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(instance.ObjectName) == "" {
			return fmt.Errorf("%s: instance %s has empty object name", scope, id)
		}
	}
	return nil
}
