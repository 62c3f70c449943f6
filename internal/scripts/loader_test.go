package scripts

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lantern/server/internal/runtime"
)

const projectDoc = `{
  "project": {
    "name": "Demo",
    "scenes": [{"name": "Level"}]
  }
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReloadAllRegistersDefinitions(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "game.json", projectDoc)
	module := writeFile(t, dir, "platformer.json", `{
	  "behaviors": [{
	    "typeName": "Platformer::Platformer",
	    "revision": "1",
	    "defaults": {"jumpSpeed": 400}
	  }]
	}`)

	registry := runtime.NewClassRegistry()
	loader := NewLoader(project, []string{module}, registry)

	snapshot, err := loader.ReloadAll(context.Background())
	if err != nil {
		t.Fatalf("reload all: %v", err)
	}
	if snapshot.Name != "Demo" {
		t.Fatalf("snapshot name = %q", snapshot.Name)
	}
	class, ok := registry.Class("Platformer::Platformer")
	if !ok {
		t.Fatalf("class not registered")
	}
	if class.Revision != "1" || class.Defaults["jumpSpeed"] != float64(400) {
		t.Fatalf("class = %+v", class)
	}
}

func TestReloadAllKeepsUnchangedClassIdentity(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "game.json", projectDoc)
	module := writeFile(t, dir, "platformer.json", `{
	  "behaviors": [{"typeName": "Platformer::Platformer", "revision": "1"}]
	}`)

	registry := runtime.NewClassRegistry()
	loader := NewLoader(project, []string{module}, registry)

	if _, err := loader.ReloadAll(context.Background()); err != nil {
		t.Fatalf("first reload: %v", err)
	}
	first, _ := registry.Class("Platformer::Platformer")

	if _, err := loader.ReloadAll(context.Background()); err != nil {
		t.Fatalf("second reload: %v", err)
	}
	second, _ := registry.Class("Platformer::Platformer")
	if first != second {
		t.Fatalf("unchanged definition re-registered, class identity lost")
	}

	writeFile(t, dir, "platformer.json", `{
	  "behaviors": [{"typeName": "Platformer::Platformer", "revision": "2"}]
	}`)
	if _, err := loader.ReloadAll(context.Background()); err != nil {
		t.Fatalf("third reload: %v", err)
	}
	third, _ := registry.Class("Platformer::Platformer")
	if third == second {
		t.Fatalf("changed revision kept the old class identity")
	}
	if third.Revision != "2" {
		t.Fatalf("revision = %q, want 2", third.Revision)
	}
}

func TestReloadAllBrokenModuleLeavesRegistryUntouched(t *testing.T) {
	dir := t.TempDir()
	project := writeFile(t, dir, "game.json", projectDoc)
	good := writeFile(t, dir, "good.json", `{
	  "behaviors": [{"typeName": "Physics::Body", "revision": "5"}]
	}`)
	broken := writeFile(t, dir, "broken.json", `{"behaviors": [`)

	registry := runtime.NewClassRegistry()
	loader := NewLoader(project, []string{good, broken}, registry)

	if _, err := loader.ReloadAll(context.Background()); err == nil {
		t.Fatalf("expected an error for the broken module")
	}
	if _, registered := registry.Class("Physics::Body"); registered {
		t.Fatalf("a failed reload must not register anything, not even from healthy modules")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	target := writeFile(t, dir, "game.json", projectDoc)

	triggered := make(chan []string, 1)
	watcher, err := NewWatcher([]string{target}, 50*time.Millisecond, func(paths []string) {
		select {
		case triggered <- paths:
		default:
		}
	}, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	for i := 0; i < 3; i++ {
		writeFile(t, dir, "game.json", projectDoc)
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case paths := <-triggered:
		if len(paths) != 1 || paths[0] != target {
			t.Fatalf("paths = %v, want [%s]", paths, target)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher never fired")
	}
}
