package gamedef

import (
	"strings"
	"testing"
)

const sampleProject = `{
  "project": {
    "name": "demo",
    "extensions": [
      {
        "name": "Inventory",
        "eventsBasedObjects": [
          {
            "name": "Chest",
            "objects": [
              {"name": "Lid", "type": "Sprite"},
              {"name": "Box", "type": "Sprite"}
            ]
          }
        ]
      }
    ],
    "scenes": [
      {
        "name": "Level1",
        "objects": [
          {"name": "Player", "type": "Sprite"},
          {
            "name": "TreasureChest",
            "type": "Inventory::Chest",
            "childObjects": [
              {"name": "Lid", "type": "TiledSprite"}
            ]
          }
        ],
        "instances": [
          {"persistentUuid": "7e57ed00-0000-4000-8000-000000000001", "objectName": "Player", "x": 10, "y": 20}
        ],
        "layers": [
          {"name": "", "visible": true},
          {"name": "UI", "visible": true}
        ]
      }
    ]
  }
}`

func TestParseProjectResolvesComposites(t *testing.T) {
	snapshot, err := ParseProject([]byte(sampleProject))
	if err != nil {
		t.Fatalf("ParseProject failed: %v", err)
	}

	scene, ok := snapshot.FindScene("Level1")
	if !ok {
		t.Fatalf("expected scene Level1")
	}
	chest, ok := FindObject(scene.Objects, "TreasureChest")
	if !ok {
		t.Fatalf("expected object TreasureChest")
	}
	if len(chest.ChildObjects) != 2 {
		t.Fatalf("expected 2 resolved child objects, got %d", len(chest.ChildObjects))
	}
	if chest.ChildObjects[0].Name != "Lid" || chest.ChildObjects[0].Type != "TiledSprite" {
		t.Fatalf("expected Lid override to win, got %+v", chest.ChildObjects[0])
	}
	if chest.ChildObjects[1].Name != "Box" || chest.ChildObjects[1].Type != "Sprite" {
		t.Fatalf("expected Box from template, got %+v", chest.ChildObjects[1])
	}
}

func TestParseProjectRejectsDuplicateObjectNames(t *testing.T) {
	doc := `{"project":{"name":"x","scenes":[{"name":"S","objects":[{"name":"A","type":"Sprite"},{"name":"A","type":"Sprite"}]}]}}`
	if _, err := ParseProject([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate object name to fail validation")
	} else if !strings.Contains(err.Error(), `duplicate object "A"`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseProjectRejectsMalformedUUID(t *testing.T) {
	doc := `{"project":{"name":"x","scenes":[{"name":"S","instances":[{"persistentUuid":"not-a-uuid","objectName":"A","x":0,"y":0}]}]}}`
	if _, err := ParseProject([]byte(doc)); err == nil {
		t.Fatalf("expected malformed uuid to fail validation")
	}
}

func TestParseProjectRejectsDuplicateUUID(t *testing.T) {
	doc := `{"project":{"name":"x","scenes":[{"name":"S","instances":[
	   {"persistentUuid":"7e57ed00-0000-4000-8000-000000000001","objectName":"A","x":0,"y":0},
	   {"persistentUuid":"7e57ed00-0000-4000-8000-000000000001","objectName":"B","x":0,"y":0}
	]}]}}`
	if _, err := ParseProject([]byte(doc)); err == nil {
		t.Fatalf("expected duplicate uuid to fail validation")
	} else if !strings.Contains(err.Error(), "duplicate persistent uuid") {
		t.Fatalf("unexpected error: %v", err)
	}
}
