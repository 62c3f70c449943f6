package reload

import (
	"context"
	"errors"
	"strings"
	"testing"

	"lantern/server/internal/gamedef"
	"lantern/server/internal/runtime"
)

const (
	playerUUID = "11111111-1111-4111-8111-111111111111"
	enemyUUID  = "22222222-2222-4222-8222-222222222222"
	bossUUID   = "33333333-3333-4333-8333-333333333333"
	layoutUUID = "99999999-9999-4999-8999-999999999999"
)

func testProject() *gamedef.ProjectSnapshot {
	return &gamedef.ProjectSnapshot{
		Name: "Demo",
		Variables: []gamedef.VariableDescriptor{
			{Name: "score", Type: gamedef.VariableNumber, Number: 0},
		},
		Extensions: []gamedef.ExtensionDescriptor{{
			Name: "Inventory",
			GlobalVariables: []gamedef.VariableDescriptor{
				{Name: "coins", Type: gamedef.VariableNumber, Number: 10},
			},
		}},
		Scenes: []gamedef.SceneDescriptor{{
			Name:            "Level",
			BackgroundColor: "32;32;48",
			Variables: []gamedef.VariableDescriptor{
				{Name: "timeLeft", Type: gamedef.VariableNumber, Number: 90},
				{Name: "stats", Type: gamedef.VariableStructure, Children: []gamedef.VariableDescriptor{
					{Name: "hp", Type: gamedef.VariableNumber, Number: 100},
					{Name: "mp", Type: gamedef.VariableNumber, Number: 50},
				}},
				{Name: "path", Type: gamedef.VariableArray, Children: []gamedef.VariableDescriptor{
					{Type: gamedef.VariableNumber, Number: 1},
					{Type: gamedef.VariableNumber, Number: 2},
					{Type: gamedef.VariableNumber, Number: 3},
				}},
			},
			Objects: []gamedef.ObjectDescriptor{
				{
					Name: "Player", Type: "Sprite",
					Variables: []gamedef.VariableDescriptor{{Name: "health", Type: gamedef.VariableNumber, Number: 100}},
					Behaviors: []gamedef.BehaviorDescriptor{{
						Name: "Jump", Type: "Platformer::Platformer",
						Properties: gamedef.PropertyBag{"jumpSpeed": float64(600)},
					}},
				},
				{Name: "Enemy", Type: "Sprite"},
			},
			Instances: []gamedef.InstanceDescriptor{
				{PersistentUUID: playerUUID, ObjectName: "Player", X: 100, Y: 200},
				{PersistentUUID: enemyUUID, ObjectName: "Enemy", X: 400, Y: 200},
			},
			Layers: []gamedef.LayerDescriptor{
				{Name: "", Visible: true},
				{Name: "Effects", Visible: true, RenderingType: "2d"},
			},
		}},
		ExternalLayouts: []gamedef.ExternalLayoutDescriptor{{
			Name:            "Houses",
			AssociatedScene: "Level",
			Instances: []gamedef.InstanceDescriptor{
				{PersistentUUID: layoutUUID, ObjectName: "Enemy", X: 50, Y: 60},
			},
		}},
	}
}

func newTestRegistry() *runtime.ClassRegistry {
	registry := runtime.NewClassRegistry()
	registry.Register(&runtime.BehaviorClass{
		TypeName: "Platformer::Platformer",
		Revision: "1",
		Defaults: gamedef.PropertyBag{"jumpSpeed": float64(400), "gravity": float64(1000)},
	})
	return registry
}

func bootRuntime(t *testing.T, registry *runtime.ClassRegistry, project *gamedef.ProjectSnapshot) (*runtime.Runtime, *runtime.Scene) {
	t.Helper()
	rt := runtime.New(registry)
	rt.SeedGlobals(project)
	scene, err := rt.PushScene(project, "Level")
	if err != nil {
		t.Fatalf("push scene: %v", err)
	}
	return rt, scene
}

type stubLoader struct {
	snapshot *gamedef.ProjectSnapshot
	err      error
	hook     func()
	calls    int
}

func (l *stubLoader) ReloadAll(ctx context.Context) (*gamedef.ProjectSnapshot, error) {
	l.calls++
	if l.hook != nil {
		l.hook()
	}
	if l.err != nil {
		return nil, l.err
	}
	return l.snapshot, nil
}

func mustEntryContaining(t *testing.T, entries []Entry, kind EntryKind, fragment string) {
	t.Helper()
	for _, entry := range entries {
		if entry.Kind == kind && strings.Contains(entry.Message, fragment) {
			return
		}
	}
	t.Fatalf("no %s entry containing %q in %v", kind, fragment, entries)
}

func TestReloadIdenticalSnapshotIsNoOp(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	playerBefore, _ := scene.InstanceByUUID(playerUUID)
	mutationsBefore := scene.Mutations()
	globalMutationsBefore := rt.GlobalVariables().Mutations()
	coinMutationsBefore := rt.ExtensionGlobalVariables("Inventory").Mutations()

	h := NewHotReloader(rt, &stubLoader{snapshot: testProject()}, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty log for an identical snapshot, got %v", entries)
	}
	if got := scene.Mutations(); got != mutationsBefore {
		t.Fatalf("live graph mutated %d times during a no-op reload", got-mutationsBefore)
	}
	if got := rt.GlobalVariables().Mutations(); got != globalMutationsBefore {
		t.Fatalf("global variable container mutated %d times during a no-op reload", got-globalMutationsBefore)
	}
	if got := rt.ExtensionGlobalVariables("Inventory").Mutations(); got != coinMutationsBefore {
		t.Fatalf("extension global container mutated %d times during a no-op reload", got-coinMutationsBefore)
	}
	playerAfter, ok := scene.InstanceByUUID(playerUUID)
	if !ok || playerAfter != playerBefore {
		t.Fatalf("player instance identity lost across a no-op reload")
	}
	if rt.Paused() {
		t.Fatalf("runtime still paused after reload")
	}
	if got := h.State(); got != StateIdle {
		t.Fatalf("state = %q, want %q", got, StateIdle)
	}
}

func TestReloadMovesInstanceWithoutTouchingOtherFields(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	player, _ := scene.InstanceByUUID(playerUUID)
	player.SetAngle(45) // game logic ran between reloads

	next := testProject()
	next.Scenes[0].Instances[0].X = 150

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	after, ok := scene.InstanceByUUID(playerUUID)
	if !ok || after != player {
		t.Fatalf("moved instance was recreated instead of patched")
	}
	if after.X() != 150 || after.Y() != 200 {
		t.Fatalf("position = (%v, %v), want (150, 200)", after.X(), after.Y())
	}
	if after.Angle() != 45 {
		t.Fatalf("angle = %v, the runtime-set value should survive an unrelated change", after.Angle())
	}
	if after.SyncNotices() == 0 {
		t.Fatalf("behaviors were not notified of the transform change")
	}
}

func TestArrayVariablesReplacedWholesale(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	path, _ := scene.Variables().Get("path")
	path.Items()[0].Number = 42 // runtime edit, lost below

	next := testProject()
	next.Scenes[0].Variables[2].Children[1].Number = 99

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	path, _ = scene.Variables().Get("path")
	items := path.Items()
	if len(items) != 3 || items[0].Number != 1 || items[1].Number != 99 || items[2].Number != 3 {
		t.Fatalf("array after reload = %v, want [1 99 3]", items)
	}
}

func TestStructureVariableChildPatch(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	stats, _ := scene.Variables().Get("stats")
	hp, _ := stats.Child("hp")
	hp.Number = 73 // runtime edit to an untouched child

	next := testProject()
	next.Scenes[0].Variables[1].Children[1].Number = 80

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	stats, _ = scene.Variables().Get("stats")
	hpAfter, _ := stats.Child("hp")
	if hpAfter != hp || hpAfter.Number != 73 {
		t.Fatalf("untouched child was recreated or reset: %+v", hpAfter)
	}
	mp, _ := stats.Child("mp")
	if mp.Number != 80 {
		t.Fatalf("mp = %v, want 80", mp.Number)
	}
}

func TestRemovedObjectDestroysInstancesAddedObjectSpawns(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)

	next := testProject()
	next.Scenes[0].Objects[1] = gamedef.ObjectDescriptor{Name: "Boss", Type: "Sprite"}
	next.Scenes[0].Instances[1] = gamedef.InstanceDescriptor{PersistentUUID: bossUUID, ObjectName: "Boss", X: 640, Y: 128}
	next.ExternalLayouts = nil // the layout references Enemy, drop it with the object

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	if _, stillLive := scene.InstanceByUUID(enemyUUID); stillLive {
		t.Fatalf("removed object still has a live instance")
	}
	if _, registered := scene.ObjectTemplate("Enemy"); registered {
		t.Fatalf("removed object template still registered")
	}
	boss, ok := scene.InstanceByUUID(bossUUID)
	if !ok {
		t.Fatalf("declared instance of the added object was not spawned")
	}
	if boss.ObjectName() != "Boss" || boss.X() != 640 {
		t.Fatalf("spawned boss = %q at %v", boss.ObjectName(), boss.X())
	}
	mustEntryContaining(t, entries, KindInfo, `added object "Boss"`)
	mustEntryContaining(t, entries, KindInfo, `removed object "Enemy"`)
}

func TestBehaviorClassReloadRebuildsLiveBehaviors(t *testing.T) {
	project := testProject()
	registry := newTestRegistry()
	rt, scene := bootRuntime(t, registry, project)

	player, _ := scene.InstanceByUUID(playerUUID)
	jump, ok := player.Behavior("Jump")
	if !ok {
		t.Fatalf("fixture lost its Jump behavior")
	}
	jump.State["onFloor"] = true

	newClass := &runtime.BehaviorClass{
		TypeName: "Platformer::Platformer",
		Revision: "2",
		Defaults: gamedef.PropertyBag{"jumpSpeed": float64(400), "gravity": float64(1000), "maxSpeed": float64(800)},
	}
	loader := &stubLoader{snapshot: testProject(), hook: func() { registry.Register(newClass) }}

	h := NewHotReloader(rt, loader, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	rebuilt, ok := player.Behavior("Jump")
	if !ok {
		t.Fatalf("behavior gone after class reload")
	}
	if rebuilt == jump {
		t.Fatalf("behavior instance was not rebuilt after its class changed")
	}
	if rebuilt.Class != newClass {
		t.Fatalf("rebuilt behavior still references the old class")
	}
	if got := rebuilt.State["onFloor"]; got != true {
		t.Fatalf("runtime state not carried over, onFloor = %v", got)
	}
	if got := rebuilt.Properties["jumpSpeed"]; got != float64(600) {
		t.Fatalf("declared property override lost, jumpSpeed = %v", got)
	}
	if got := rebuilt.Properties["maxSpeed"]; got != float64(800) {
		t.Fatalf("new-class default missing, maxSpeed = %v", got)
	}

	rebuildInfos := 0
	for _, entry := range entries {
		if entry.Kind == KindInfo && strings.Contains(entry.Message, "rebuilt behavior") {
			rebuildInfos++
			if !strings.Contains(entry.Message, `"Jump"`) || !strings.Contains(entry.Message, `"Player"`) {
				t.Fatalf("rebuild entry does not name the behavior and object: %q", entry.Message)
			}
		}
	}
	if rebuildInfos != 1 {
		t.Fatalf("expected exactly one rebuild entry, got %d", rebuildInfos)
	}
}

func TestLayerRenderingTypeChangeLogsErrorAndMutatesNothing(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)

	next := testProject()
	next.Scenes[0].Layers[0].AmbientLightColor = "16;16;16"
	next.Scenes[0].Layers[1].RenderingType = "3d"
	next.Scenes[0].Layers[1].Visible = false

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	mustEntryContaining(t, entries, KindError, `layer "Effects"`)

	effects, ok := scene.Layer("Effects")
	if !ok {
		t.Fatalf("layer disappeared")
	}
	if effects.RenderingType != "2d" || !effects.Visible() {
		t.Fatalf("non-reloadable layer was mutated: renderingType=%q visible=%v", effects.RenderingType, effects.Visible())
	}

	// The failure is contained: the sibling layer still gets its patch.
	base, _ := scene.Layer("")
	if base.AmbientLightColor() != "16;16;16" {
		t.Fatalf("sibling layer patch skipped after an unrelated failure")
	}
}

func TestLoaderFailureResumesWithoutReconciling(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	mutationsBefore := scene.Mutations()

	h := NewHotReloader(rt, &stubLoader{err: errors.New("syntax error in Player.js")}, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	mustEntryContaining(t, entries, KindFatal, "syntax error in Player.js")
	if got := scene.Mutations(); got != mutationsBefore {
		t.Fatalf("live graph mutated despite the failed script reload")
	}
	if rt.Paused() {
		t.Fatalf("runtime must resume even when the script reload fails")
	}
	if h.Project() != project {
		t.Fatalf("snapshot handover happened despite the failure")
	}
}

func TestConcurrentReloadRejected(t *testing.T) {
	project := testProject()
	rt, _ := bootRuntime(t, newTestRegistry(), project)

	entered := make(chan struct{})
	release := make(chan struct{})
	loader := &stubLoader{snapshot: testProject(), hook: func() {
		close(entered)
		<-release
	}}
	h := NewHotReloader(rt, loader, project, nil)

	done := make(chan error, 1)
	go func() {
		_, err := h.Reload(context.Background())
		done <- err
	}()
	<-entered

	if _, err := h.Reload(context.Background()); !errors.Is(err, ErrReloadInProgress) {
		t.Fatalf("second reload returned %v, want ErrReloadInProgress", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first reload: %v", err)
	}
}

func TestDestroyedInstanceStaysDestroyed(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	enemy, _ := scene.InstanceByUUID(enemyUUID)
	scene.DestroyInstance(enemy) // game logic killed it

	next := testProject()
	next.Scenes[0].Instances[1].X = 500

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if _, resurrected := scene.InstanceByUUID(enemyUUID); resurrected {
		t.Fatalf("reload resurrected an instance the game destroyed")
	}
}

func TestDynamicInstanceReceivesObjectLevelUpdates(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	dynamic, err := scene.SpawnDynamic("Player", 10, 20)
	if err != nil {
		t.Fatalf("spawn dynamic: %v", err)
	}

	next := testProject()
	next.Scenes[0].Objects[0].Variables[0].Number = 250
	next.Scenes[0].Objects[0].Behaviors[0].Properties["jumpSpeed"] = float64(700)

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	survivors := scene.InstancesByObjectName("Player")
	if len(survivors) != 2 {
		t.Fatalf("expected the declared and the dynamic instance, got %d", len(survivors))
	}
	for _, live := range survivors {
		health, ok := live.Variables().Get("health")
		if !ok || health.Number != 250 {
			t.Fatalf("object-level variable change missed instance %q", live.PersistentUUID())
		}
		jump, ok := live.Behavior("Jump")
		if !ok || jump.Properties["jumpSpeed"] != float64(700) {
			t.Fatalf("behavior property change missed instance %q", live.PersistentUUID())
		}
	}
	if refreshed, ok := scene.InstanceByUUID(dynamic.PersistentUUID()); !ok || refreshed != dynamic {
		t.Fatalf("dynamic instance identity lost across reload")
	}
}

func TestExternalLayoutInstancesReconciled(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	layout, _ := project.FindExternalLayout("Houses")
	if err := rt.InstantiateLayout(scene, layout); err != nil {
		t.Fatalf("instantiate layout: %v", err)
	}

	next := testProject()
	next.ExternalLayouts[0].Instances[0].X = 75

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	if _, err := h.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	house, ok := scene.InstanceByUUID(layoutUUID)
	if !ok {
		t.Fatalf("layout instance gone after reload")
	}
	if house.X() != 75 {
		t.Fatalf("layout instance x = %v, want 75", house.X())
	}
}

func TestObjectTypeChangeRebuildsInstances(t *testing.T) {
	project := testProject()
	rt, scene := bootRuntime(t, newTestRegistry(), project)
	before, _ := scene.InstanceByUUID(enemyUUID)

	next := testProject()
	next.Scenes[0].Objects[1].Type = "TiledSprite"

	h := NewHotReloader(rt, &stubLoader{snapshot: next}, project, nil)
	entries, err := h.Reload(context.Background())
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	after, ok := scene.InstanceByUUID(enemyUUID)
	if !ok {
		t.Fatalf("declared instance missing after its object changed type")
	}
	if after == before {
		t.Fatalf("instance survived a type change, it must be rebuilt")
	}
	template, _ := scene.ObjectTemplate("Enemy")
	if template.Type != "TiledSprite" {
		t.Fatalf("template type = %q", template.Type)
	}
	mustEntryContaining(t, entries, KindInfo, "changed type")
}
