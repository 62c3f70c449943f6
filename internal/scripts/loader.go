// Package scripts loads the project document and its behavior definition
// modules from disk, and keeps the behavior class registry aligned with what
// the modules declare. It is the IO half of a reload; everything after it
// operates on parsed snapshots only.
package scripts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

// BehaviorDefinition declares one behavior implementation as a script module
// exports it. Revision changes whenever the implementation changes; it is
// what makes a reloaded class compare unequal to the running one.
type BehaviorDefinition struct {
	TypeName string              `json:"typeName"`
	Revision string              `json:"revision"`
	Defaults gamedef.PropertyBag `json:"defaults,omitempty"`
}

// DefinitionFile is the on-disk module document.
type DefinitionFile struct {
	Behaviors []BehaviorDefinition `json:"behaviors"`
}

// Loader re-reads the project and the definition modules and re-registers
// changed behavior classes. It satisfies the reload orchestrator's Loader
// contract.
type Loader struct {
	projectPath string
	modulePaths []string
	registry    *runtime.ClassRegistry
}

// NewLoader builds a loader over a project document and its definition
// modules.
func NewLoader(projectPath string, modulePaths []string, registry *runtime.ClassRegistry) *Loader {
	return &Loader{
		projectPath: projectPath,
		modulePaths: append([]string(nil), modulePaths...),
		registry:    registry,
	}
}

// ModuleCount returns the number of definition modules the loader covers.
func (l *Loader) ModuleCount() int {
	return len(l.modulePaths)
}

// ReloadAll reads the project document and every definition module, one
// goroutine each. Registration happens only after every read and parse
// succeeded, so a broken module leaves both the registry and the caller's
// snapshot untouched. Changed definitions are registered under fresh class
// values; unchanged ones keep their current class, preserving class identity
// across no-op reloads.
func (l *Loader) ReloadAll(ctx context.Context) (*gamedef.ProjectSnapshot, error) {
	var wg sync.WaitGroup

	var snapshot *gamedef.ProjectSnapshot
	var projectErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		snapshot, projectErr = gamedef.LoadProjectFile(l.projectPath)
	}()

	modules := make([]DefinitionFile, len(l.modulePaths))
	moduleErrs := make([]error, len(l.modulePaths))
	for i, path := range l.modulePaths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			modules[i], moduleErrs[i] = loadDefinitionFile(path)
		}(i, path)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if projectErr != nil {
		return nil, projectErr
	}
	for _, err := range moduleErrs {
		if err != nil {
			return nil, err
		}
	}

	for _, module := range modules {
		for _, def := range module.Behaviors {
			l.register(def)
		}
	}
	return snapshot, nil
}

// register installs a definition, keeping the running class when nothing
// about the definition changed.
func (l *Loader) register(def BehaviorDefinition) bool {
	current, ok := l.registry.Class(def.TypeName)
	if ok && current.Revision == def.Revision && gamedef.EqualPropertyBags(current.Defaults, def.Defaults) {
		return false
	}
	l.registry.Register(&runtime.BehaviorClass{
		TypeName: def.TypeName,
		Revision: def.Revision,
		Defaults: def.Defaults.Clone(),
	})
	return true
}

func loadDefinitionFile(path string) (DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefinitionFile{}, fmt.Errorf("read module %s: %w", path, err)
	}
	var file DefinitionFile
	if err := json.Unmarshal(data, &file); err != nil {
		return DefinitionFile{}, fmt.Errorf("parse module %s: %w", path, err)
	}
	for _, def := range file.Behaviors {
		if def.TypeName == "" {
			return DefinitionFile{}, fmt.Errorf("parse module %s: behavior definition with empty type name", path)
		}
	}
	return file, nil
}
