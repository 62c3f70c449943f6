package runtime

import (
	"testing"

	"lantern/server/internal/gamedef"
)

func testRegistry() *ClassRegistry {
	registry := NewClassRegistry()
	registry.Register(&BehaviorClass{
		TypeName: "Platformer",
		Revision: "r1",
		Defaults: gamedef.PropertyBag{"gravity": 9.8, "jumpSpeed": 600.0},
	})
	return registry
}

func testProject() *gamedef.ProjectSnapshot {
	return &gamedef.ProjectSnapshot{
		Name: "demo",
		Scenes: []gamedef.SceneDescriptor{
			{
				Name:            "Level1",
				BackgroundColor: "101010",
				Objects: []gamedef.ObjectDescriptor{
					{
						Name: "Player",
						Type: "Sprite",
						Variables: []gamedef.VariableDescriptor{
							{Name: "hp", Type: gamedef.VariableNumber, Number: 100},
						},
						Behaviors: []gamedef.BehaviorDescriptor{
							{Name: "jump", Type: "Platformer", Properties: gamedef.PropertyBag{"gravity": 12.0}},
						},
					},
				},
				Instances: []gamedef.InstanceDescriptor{
					{PersistentUUID: "7e57ed00-0000-4000-8000-000000000001", ObjectName: "Player", X: 10, Y: 20, Layer: ""},
				},
				Layers: []gamedef.LayerDescriptor{
					{Name: "", Visible: true},
				},
			},
		},
	}
}

func TestPushSceneSpawnsDeclaredInstances(t *testing.T) {
	rt := New(testRegistry())
	scene, err := rt.PushScene(testProject(), "Level1")
	if err != nil {
		t.Fatalf("PushScene failed: %v", err)
	}

	instance, ok := scene.InstanceByUUID("7e57ed00-0000-4000-8000-000000000001")
	if !ok {
		t.Fatalf("expected declared instance to be spawned and indexed by uuid")
	}
	if instance.X() != 10 || instance.Y() != 20 {
		t.Fatalf("expected transform from declaration, got (%v, %v)", instance.X(), instance.Y())
	}

	jump, ok := instance.Behavior("jump")
	if !ok {
		t.Fatalf("expected jump behavior from the object template")
	}
	if got := jump.Properties["gravity"]; got != 12.0 {
		t.Fatalf("expected declared property to override class default, got %v", got)
	}
	if got := jump.Properties["jumpSpeed"]; got != 600.0 {
		t.Fatalf("expected class default to survive, got %v", got)
	}

	hp, ok := instance.Variables().Get("hp")
	if !ok || hp.Number != 100 {
		t.Fatalf("expected hp variable from object defaults")
	}
}

func TestSpawnDynamicAssignsFreshUUID(t *testing.T) {
	rt := New(testRegistry())
	scene, err := rt.PushScene(testProject(), "Level1")
	if err != nil {
		t.Fatalf("PushScene failed: %v", err)
	}

	dynamic, err := scene.SpawnDynamic("Player", 1, 2)
	if err != nil {
		t.Fatalf("SpawnDynamic failed: %v", err)
	}
	if dynamic.PersistentUUID() == "" {
		t.Fatalf("expected dynamic spawn to receive a uuid")
	}
	if dynamic.PersistentUUID() == "7e57ed00-0000-4000-8000-000000000001" {
		t.Fatalf("expected a fresh uuid, got the declared one")
	}
	if got := len(scene.InstancesByObjectName("Player")); got != 2 {
		t.Fatalf("expected 2 Player instances, got %d", got)
	}
}

func TestRegistrySnapshotKeepsPointerIdentity(t *testing.T) {
	registry := testRegistry()
	before := registry.Snapshot()

	replacement := &BehaviorClass{TypeName: "Platformer", Revision: "r2"}
	registry.Register(replacement)

	current, ok := registry.Class("Platformer")
	if !ok {
		t.Fatalf("expected Platformer to stay registered")
	}
	if current != replacement {
		t.Fatalf("expected registration to replace the class")
	}
	if before["Platformer"] == current {
		t.Fatalf("expected the snapshot to keep the previous class identity")
	}
}

func TestStepIsNoOpWhilePaused(t *testing.T) {
	rt := New(testRegistry())
	if _, err := rt.PushScene(testProject(), "Level1"); err != nil {
		t.Fatalf("PushScene failed: %v", err)
	}

	if !rt.Step() {
		t.Fatalf("expected step to run while unpaused")
	}
	rt.Pause()
	if rt.Step() {
		t.Fatalf("expected step to be suppressed while paused")
	}
	if got := rt.Frame(); got != 1 {
		t.Fatalf("expected frame counter 1, got %d", got)
	}
	rt.Resume()
	if !rt.Step() {
		t.Fatalf("expected step to run after resume")
	}
}

func TestSeedGlobalsPopulatesLiveContainers(t *testing.T) {
	rt := New(testRegistry())
	rt.SeedGlobals(&gamedef.ProjectSnapshot{
		Name: "demo",
		Variables: []gamedef.VariableDescriptor{
			{Name: "score", Type: gamedef.VariableNumber, Number: 42},
		},
		Extensions: []gamedef.ExtensionDescriptor{{
			Name: "Inventory",
			GlobalVariables: []gamedef.VariableDescriptor{
				{Name: "coins", Type: gamedef.VariableNumber, Number: 10},
			},
		}},
	})

	score, ok := rt.GlobalVariables().Get("score")
	if !ok || score.Number != 42 {
		t.Fatalf("expected seeded global score=42, got %v %v", score, ok)
	}
	coins, ok := rt.ExtensionGlobalVariables("Inventory").Get("coins")
	if !ok || coins.Number != 10 {
		t.Fatalf("expected seeded extension global coins=10, got %v %v", coins, ok)
	}
	if got := rt.GlobalVariables().Mutations(); got != 0 {
		t.Fatalf("seeding must not count as mutation, got %d", got)
	}
}

func TestSceneSummariesRefusedWhilePaused(t *testing.T) {
	rt := New(testRegistry())
	if _, err := rt.PushScene(testProject(), "Level1"); err != nil {
		t.Fatalf("PushScene failed: %v", err)
	}

	summaries, ok := rt.SceneSummaries()
	if !ok {
		t.Fatalf("expected summaries while unpaused")
	}
	if len(summaries) != 1 || summaries[0].Name != "Level1" || summaries[0].Instances != 1 {
		t.Fatalf("unexpected summaries %+v", summaries)
	}

	rt.Pause()
	if _, ok := rt.SceneSummaries(); ok {
		t.Fatalf("expected summaries to be refused while paused")
	}
	rt.Resume()
	if _, ok := rt.SceneSummaries(); !ok {
		t.Fatalf("expected summaries again after resume")
	}
}

func TestVariableContainerDeclareRemoveOrder(t *testing.T) {
	container := NewVariableContainer([]gamedef.VariableDescriptor{
		{Name: "a", Type: gamedef.VariableNumber, Number: 1},
		{Name: "b", Type: gamedef.VariableNumber, Number: 2},
	})
	if container.Mutations() != 0 {
		t.Fatalf("construction must not count as mutation, got %d", container.Mutations())
	}

	container.Declare(gamedef.VariableDescriptor{Name: "c", Type: gamedef.VariableString, String: "x"})
	container.Remove("a")
	if container.Has("a") {
		t.Fatalf("expected a to be removed")
	}
	if got := container.Names(); len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("unexpected order after mutation: %v", got)
	}

	container.RebuildOrder([]gamedef.VariableDescriptor{
		{Name: "c", Type: gamedef.VariableString},
		{Name: "b", Type: gamedef.VariableNumber},
	})
	if got := container.Names(); got[0] != "c" || got[1] != "b" {
		t.Fatalf("expected declaration order to win, got %v", got)
	}
	if container.Mutations() != 2 {
		t.Fatalf("expected 2 mutations, got %d", container.Mutations())
	}
}

func TestBehaviorAdoptStateMergesBags(t *testing.T) {
	oldClass := &BehaviorClass{TypeName: "Platformer", Revision: "r1", Defaults: gamedef.PropertyBag{"gravity": 9.8}}
	newClass := &BehaviorClass{TypeName: "Platformer", Revision: "r2", Defaults: gamedef.PropertyBag{"gravity": 9.8, "airControl": 0.5}}

	decl := gamedef.BehaviorDescriptor{Name: "jump", Type: "Platformer"}
	previous := NewBehaviorInstance(oldClass, decl)
	previous.State["velocityY"] = -3.5
	previous.Properties["gravity"] = 15.0

	fresh := NewBehaviorInstance(newClass, decl)
	fresh.AdoptState(previous)

	if got := fresh.State["velocityY"]; got != -3.5 {
		t.Fatalf("expected runtime field to be carried over, got %v", got)
	}
	if got := fresh.Properties["gravity"]; got != 15.0 {
		t.Fatalf("expected old configuration value to win, got %v", got)
	}
	if got := fresh.Properties["airControl"]; got != 0.5 {
		t.Fatalf("expected newly-introduced configuration key to survive, got %v", got)
	}
}
