package reload

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
	"lantern/server/logging"
	"lantern/server/logging/hotreload"
)

// ErrReloadInProgress is returned when Reload is called while a previous
// reload has not finished.
var ErrReloadInProgress = errors.New("reload: already in progress")

// Loader re-reads the project and its script modules and returns the fresh
// snapshot. Loading is the only phase of a reload doing IO; implementations
// must re-register reloaded behavior classes under fresh class values before
// returning, so the class-identity diff can see them.
type Loader interface {
	ReloadAll(ctx context.Context) (*gamedef.ProjectSnapshot, error)
}

// State names the phase a reloader is in. Every reload walks Paused,
// ScriptsReloading, Reconciling (or Failed when the loader errors), Resuming
// and back to Idle; the runtime stays paused for everything between Paused
// and Resuming.
type State string

const (
	StateIdle             State = "idle"
	StatePaused           State = "paused"
	StateScriptsReloading State = "scripts-reloading"
	StateReconciling      State = "reconciling"
	StateResuming         State = "resuming"
	StateFailed           State = "failed"
)

// HotReloader drives one runtime through reload cycles. It owns the current
// project snapshot: each successful reconciliation replaces it, and the next
// reload diffs against it.
type HotReloader struct {
	runtime   *runtime.Runtime
	loader    Loader
	publisher logging.Publisher

	busy atomic.Bool

	mu      sync.Mutex
	state   State
	project *gamedef.ProjectSnapshot
}

// NewHotReloader builds a reloader over a running runtime. project is the
// snapshot the runtime was booted from; publisher may be nil.
func NewHotReloader(rt *runtime.Runtime, loader Loader, project *gamedef.ProjectSnapshot, publisher logging.Publisher) *HotReloader {
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	return &HotReloader{
		runtime:   rt,
		loader:    loader,
		publisher: publisher,
		state:     StateIdle,
		project:   project,
	}
}

// State returns the current reload phase.
func (h *HotReloader) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Project returns the snapshot the live graph currently reflects.
func (h *HotReloader) Project() *gamedef.ProjectSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.project
}

func (h *HotReloader) setState(state State) {
	h.mu.Lock()
	h.state = state
	h.mu.Unlock()
}

// Reload runs one full reload cycle: pause the simulation, reload the
// scripts, reconcile every live scene against the fresh snapshot, resume. The
// simulation resumes no matter what happened in between; a loader failure or
// a reconciliation panic surfaces as a fatal log entry, never as a dead
// runtime. The returned entries are ordered as they were produced.
func (h *HotReloader) Reload(ctx context.Context) ([]Entry, error) {
	if !h.busy.CompareAndSwap(false, true) {
		return nil, ErrReloadInProgress
	}
	defer h.busy.Store(false)

	started := time.Now()
	frame := h.runtime.Frame()
	log := NewLog(h.publisher, frame)

	h.setState(StatePaused)
	h.runtime.Pause()
	stack := h.runtime.SceneStack()
	hotreload.Started(ctx, h.publisher, frame, hotreload.StartedPayload{
		Scenes:  len(stack),
		Modules: h.moduleCount(),
	})

	h.setState(StateScriptsReloading)
	classesBefore := h.runtime.Registry().Snapshot()
	next, err := h.loader.ReloadAll(ctx)
	if err != nil {
		log.Fatalf("script reload failed, live state left untouched: %v", err)
		h.setState(StateFailed)
	} else {
		h.setState(StateReconciling)
		h.reconcile(log, stack, classesBefore, next)
	}

	h.setState(StateResuming)
	h.runtime.Resume()
	h.setState(StateIdle)

	fatals, errCount, warnings := log.Counts()
	hotreload.Finished(ctx, h.publisher, frame, hotreload.FinishedPayload{
		Fatals:     fatals,
		Errors:     errCount,
		Warnings:   warnings,
		DurationMS: time.Since(started).Milliseconds(),
	})
	return log.Entries(), nil
}

// reconcile diffs the owned snapshot against the fresh one and applies the
// delta to every live scene. The snapshot handover happens only after the
// full walk, so a panic mid-walk leaves the next reload diffing against the
// snapshot the graph mostly still reflects.
func (h *HotReloader) reconcile(log *Log, stack []*runtime.Scene, classesBefore map[string]*runtime.BehaviorClass, next *gamedef.ProjectSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			log.Fatalf("reconciliation panicked: %v", r)
			h.setState(StateFailed)
		}
	}()

	old := h.Project()
	changed := DiffClassRegistries(classesBefore, h.runtime.Registry().Snapshot())

	ReconcileVariables(log, "globals", old.Variables, next.Variables, h.runtime.GlobalVariables())
	h.reconcileExtensionGlobals(log, old.Extensions, next.Extensions)

	for _, scene := range stack {
		oldScene, _ := old.FindScene(scene.Name)
		newScene, found := next.FindScene(scene.Name)
		if !found {
			log.Errorf("scene %q is gone from the project, leaving it untouched", scene.Name)
			continue
		}
		extraOld := layoutInstancesFor(old, scene)
		extraNew := layoutInstancesFor(next, scene)
		ReconcileScene(log, scene, oldScene, newScene, old.Extensions, next.Extensions, extraOld, extraNew, changed)
	}

	h.mu.Lock()
	h.project = next
	h.mu.Unlock()
}

// reconcileExtensionGlobals walks the union of extension names across both
// snapshots and reconciles each extension's global-variable contribution.
func (h *HotReloader) reconcileExtensionGlobals(log *Log, old, updated []gamedef.ExtensionDescriptor) {
	oldByName := make(map[string][]gamedef.VariableDescriptor, len(old))
	for _, extension := range old {
		oldByName[extension.Name] = extension.GlobalVariables
	}
	seen := make(map[string]struct{}, len(updated))
	for _, extension := range updated {
		seen[extension.Name] = struct{}{}
		previous := oldByName[extension.Name]
		if len(previous) == 0 && len(extension.GlobalVariables) == 0 {
			continue
		}
		ReconcileVariables(log, "globals: extension "+extension.Name, previous, extension.GlobalVariables, h.runtime.ExtensionGlobalVariables(extension.Name))
	}
	for _, extension := range old {
		if _, kept := seen[extension.Name]; kept || len(extension.GlobalVariables) == 0 {
			continue
		}
		ReconcileVariables(log, "globals: extension "+extension.Name, extension.GlobalVariables, nil, h.runtime.ExtensionGlobalVariables(extension.Name))
	}
}

// layoutInstancesFor collects the declared instances of every external layout
// the scene instantiated, as they appear in one snapshot. A layout removed
// from the project contributes nothing, which destroys its live instances in
// the correlation pass.
func layoutInstancesFor(project *gamedef.ProjectSnapshot, scene *runtime.Scene) []gamedef.InstanceDescriptor {
	var collected []gamedef.InstanceDescriptor
	for _, layout := range project.ExternalLayouts {
		if scene.HasLayout(layout.Name) {
			collected = append(collected, layout.Instances...)
		}
	}
	return collected
}

func (h *HotReloader) moduleCount() int {
	if counter, ok := h.loader.(interface{ ModuleCount() int }); ok {
		return counter.ModuleCount()
	}
	return 0
}
