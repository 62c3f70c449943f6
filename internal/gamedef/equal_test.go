package gamedef

import (
	"math"
	"testing"
)

func baseObject() ObjectDescriptor {
	return ObjectDescriptor{
		Name: "Player",
		Type: "Sprite",
		Variables: []VariableDescriptor{
			numberVar("hp", 100),
		},
		Behaviors: []BehaviorDescriptor{
			{Name: "jump", Type: "Platformer", Properties: PropertyBag{"gravity": 9.8}},
		},
		Effects: []EffectDescriptor{
			{Name: "glow", Type: "Bloom", DoubleParameters: map[string]float64{"intensity": 0.5}},
		},
	}
}

func TestEqualObjects(t *testing.T) {
	a := baseObject()
	b := baseObject()
	if !EqualObjects(a, b) {
		t.Fatalf("expected identical objects to compare equal")
	}

	b.Behaviors[0].Properties = PropertyBag{"gravity": 9.9}
	if EqualObjects(a, b) {
		t.Fatalf("expected behavior property change to break equality")
	}

	b = baseObject()
	b.Type = "TiledSprite"
	if EqualObjects(a, b) {
		t.Fatalf("expected type change to break equality")
	}
}

func TestEqualEffectsComparesTypedMaps(t *testing.T) {
	a := EffectDescriptor{
		Name:              "glow",
		Type:              "Bloom",
		BooleanParameters: map[string]bool{"enabled": true},
		DoubleParameters:  map[string]float64{"intensity": math.NaN()},
		StringParameters:  map[string]string{"blend": "add"},
	}
	b := EffectDescriptor{
		Name:              "glow",
		Type:              "Bloom",
		BooleanParameters: map[string]bool{"enabled": true},
		DoubleParameters:  map[string]float64{"intensity": math.NaN()},
		StringParameters:  map[string]string{"blend": "add"},
	}
	if !EqualEffects(a, b) {
		t.Fatalf("expected NaN-valued parameters to compare equal")
	}
	b.StringParameters["blend"] = "screen"
	if EqualEffects(a, b) {
		t.Fatalf("expected string parameter change to break equality")
	}
}

func TestEqualInstancesCustomSizeTriState(t *testing.T) {
	a := InstanceDescriptor{PersistentUUID: "u", ObjectName: "Player", X: 1, Y: 2, CustomSize: false, Width: 32}
	b := InstanceDescriptor{PersistentUUID: "u", ObjectName: "Player", X: 1, Y: 2, CustomSize: false, Width: 64}
	if !EqualInstances(a, b) {
		t.Fatalf("width must not participate in equality while the custom-size flag is off")
	}
	b.CustomSize = true
	if EqualInstances(a, b) {
		t.Fatalf("expected custom-size flag flip to break equality")
	}
}

func TestEqualLayers(t *testing.T) {
	a := LayerDescriptor{Name: "Background", Visible: true, RenderingType: "2d"}
	b := a
	if !EqualLayers(a, b) {
		t.Fatalf("expected identical layers to compare equal")
	}
	b.RenderingType = "3d"
	if EqualLayers(a, b) {
		t.Fatalf("expected rendering type change to break equality")
	}
}

func TestEqualPropertyBagsNested(t *testing.T) {
	a := PropertyBag{"speed": 1.5, "keys": []any{"up", "down"}, "extra": map[string]any{"x": 1.0}}
	b := PropertyBag{"speed": 1.5, "keys": []any{"up", "down"}, "extra": map[string]any{"x": 1.0}}
	if !EqualPropertyBags(a, b) {
		t.Fatalf("expected deep-equal bags to compare equal")
	}
	b["keys"] = []any{"down", "up"}
	if EqualPropertyBags(a, b) {
		t.Fatalf("expected list order change to break equality")
	}
}
