package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the preview server settings. Values come from the optional
// YAML file, then LANTERN_* environment variables override field by field.
type Config struct {
	Addr          string `yaml:"addr"`
	ProjectPath   string `yaml:"projectPath"`
	ModulesDir    string `yaml:"modulesDir"`
	InitialScene  string `yaml:"initialScene"`
	ClientDir     string `yaml:"clientDir"`
	LogFile       string `yaml:"logFile"`
	TickRate      int    `yaml:"tickRate"`
	WatchDebounce int    `yaml:"watchDebounceMs"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:          ":8080",
		ProjectPath:   "game.json",
		ModulesDir:    "modules",
		ClientDir:     filepath.Clean(filepath.Join("..", "editor")),
		TickRate:      60,
		WatchDebounce: 150,
	}
}

// LoadConfig reads a YAML config file and applies environment overrides. An
// empty path skips the file and uses defaults plus environment.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	if cfg.TickRate <= 0 {
		return Config{}, fmt.Errorf("config: tickRate must be positive, got %d", cfg.TickRate)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LANTERN_ADDR"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("LANTERN_PROJECT"); v != "" {
		c.ProjectPath = v
	}
	if v := os.Getenv("LANTERN_MODULES_DIR"); v != "" {
		c.ModulesDir = v
	}
	if v := os.Getenv("LANTERN_SCENE"); v != "" {
		c.InitialScene = v
	}
	if v := os.Getenv("LANTERN_CLIENT_DIR"); v != "" {
		c.ClientDir = v
	}
	if v := os.Getenv("LANTERN_LOG_FILE"); v != "" {
		c.LogFile = v
	}
	if v := os.Getenv("LANTERN_TICK_RATE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.TickRate = parsed
		}
	}
	if v := os.Getenv("LANTERN_WATCH_DEBOUNCE_MS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.WatchDebounce = parsed
		}
	}
}

// TickInterval returns the simulation step period.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// DebounceWindow returns the watcher debounce period.
func (c Config) DebounceWindow() time.Duration {
	return time.Duration(c.WatchDebounce) * time.Millisecond
}
