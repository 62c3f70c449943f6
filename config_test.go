package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.TickRate != 60 {
		t.Fatalf("expected default tick rate 60, got %d", cfg.TickRate)
	}
	if cfg.TickInterval() != time.Second/60 {
		t.Fatalf("unexpected tick interval %v", cfg.TickInterval())
	}
	if cfg.DebounceWindow() != 150*time.Millisecond {
		t.Fatalf("unexpected debounce window %v", cfg.DebounceWindow())
	}
}

func TestLoadConfigFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lantern.yaml")
	doc := "addr: \":9000\"\nprojectPath: demo/game.json\ntickRate: 30\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LANTERN_ADDR", ":9100")
	t.Setenv("LANTERN_SCENE", "Menu")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9100" {
		t.Fatalf("environment should override file, got addr %q", cfg.Addr)
	}
	if cfg.ProjectPath != "demo/game.json" {
		t.Fatalf("file value lost, got project path %q", cfg.ProjectPath)
	}
	if cfg.InitialScene != "Menu" {
		t.Fatalf("environment value lost, got scene %q", cfg.InitialScene)
	}
	if cfg.TickRate != 30 {
		t.Fatalf("file value lost, got tick rate %d", cfg.TickRate)
	}
}

func TestLoadConfigRejectsBadTickRate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lantern.yaml")
	if err := os.WriteFile(path, []byte("tickRate: 0\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for zero tick rate")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
