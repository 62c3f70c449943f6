package gamedef

import (
	"math"
	"testing"
)

func numberVar(name string, value float64) VariableDescriptor {
	return VariableDescriptor{Name: name, Type: VariableNumber, Number: value}
}

func stringVar(name, value string) VariableDescriptor {
	return VariableDescriptor{Name: name, Type: VariableString, String: value}
}

func TestEqualVariablesScalars(t *testing.T) {
	cases := []struct {
		name string
		a, b VariableDescriptor
		want bool
	}{
		{"equal numbers", numberVar("hp", 100), numberVar("hp", 100), true},
		{"different numbers", numberVar("hp", 100), numberVar("hp", 99), false},
		{"nan equals nan", numberVar("hp", math.NaN()), numberVar("hp", math.NaN()), true},
		{"nan vs number", numberVar("hp", math.NaN()), numberVar("hp", 0), false},
		{"equal strings", stringVar("title", "cave"), stringVar("title", "cave"), true},
		{"different strings", stringVar("title", "cave"), stringVar("title", "lake"), false},
		{
			"boolean flip",
			VariableDescriptor{Name: "alive", Type: VariableBoolean, Bool: true},
			VariableDescriptor{Name: "alive", Type: VariableBoolean, Bool: false},
			false,
		},
		{
			"primitive never equals structure",
			numberVar("slot", 1),
			VariableDescriptor{Name: "slot", Type: VariableStructure, Children: []VariableDescriptor{numberVar("a", 1)}},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EqualVariables(tc.a, tc.b); got != tc.want {
				t.Fatalf("EqualVariables = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestEqualVariablesStructureIgnoresChildOrder(t *testing.T) {
	a := VariableDescriptor{
		Name: "stats",
		Type: VariableStructure,
		Children: []VariableDescriptor{
			numberVar("hp", 10),
			numberVar("mp", 4),
		},
	}
	b := VariableDescriptor{
		Name: "stats",
		Type: VariableStructure,
		Children: []VariableDescriptor{
			numberVar("mp", 4),
			numberVar("hp", 10),
		},
	}
	if !EqualVariables(a, b) {
		t.Fatalf("expected structures with reordered children to compare equal")
	}
}

func TestEqualVariablesArrayIsOrderSensitive(t *testing.T) {
	a := VariableDescriptor{
		Type:     VariableArray,
		Children: []VariableDescriptor{numberVar("", 1), numberVar("", 2)},
	}
	b := VariableDescriptor{
		Type:     VariableArray,
		Children: []VariableDescriptor{numberVar("", 2), numberVar("", 1)},
	}
	if EqualVariables(a, b) {
		t.Fatalf("expected reordered arrays to compare unequal")
	}
}

func TestMergeInstanceVariablesOverridesWin(t *testing.T) {
	defaults := []VariableDescriptor{
		numberVar("hp", 100),
		stringVar("title", "grunt"),
	}
	overrides := []VariableDescriptor{
		numberVar("hp", 50),
		numberVar("rage", 3),
	}

	merged := MergeInstanceVariables(defaults, overrides)
	if len(merged) != 3 {
		t.Fatalf("expected 3 merged variables, got %d", len(merged))
	}
	if merged[0].Name != "hp" || merged[0].Number != 50 {
		t.Fatalf("expected override to win for hp, got %+v", merged[0])
	}
	if merged[1].Name != "title" || merged[1].String != "grunt" {
		t.Fatalf("expected untouched default title, got %+v", merged[1])
	}
	if merged[2].Name != "rage" {
		t.Fatalf("expected instance-only variable appended, got %+v", merged[2])
	}
	if defaults[0].Number != 100 {
		t.Fatalf("merge mutated the object-level defaults")
	}
}

func TestEqualVariableListsKeyedByName(t *testing.T) {
	a := []VariableDescriptor{numberVar("hp", 1), numberVar("mp", 2)}
	b := []VariableDescriptor{numberVar("mp", 2), numberVar("hp", 1)}
	if !EqualVariableLists(a, b) {
		t.Fatalf("expected reordered named lists to compare equal")
	}
	c := []VariableDescriptor{numberVar("hp", 1), numberVar("xp", 2)}
	if EqualVariableLists(a, c) {
		t.Fatalf("expected lists with different key sets to compare unequal")
	}
}
