package observability

import (
	"os"
	"strconv"
)

// Config captures opt-in observability toggles for the preview server.
type Config struct {
	// EnablePprofTrace mounts the pprof endpoints on the HTTP handler.
	EnablePprofTrace bool
}

// FromEnv reads the toggles from the environment.
func FromEnv() Config {
	var cfg Config
	if raw := os.Getenv("LANTERN_ENABLE_PPROF"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.EnablePprofTrace = value
		}
	}
	return cfg
}
