package logging

import "time"

// Config tunes the event router. A preview serves a handful of editors and
// its traffic is bursty: near-silent between edits, then a few hundred
// entries in one reload. The buffer only needs to absorb one such burst.
type Config struct {
	BufferSize       int
	MinimumSeverity  Severity
	Fields           map[string]any
	JSON             JSONConfig
	Console          ConsoleConfig
	DropWarnInterval time.Duration
}

// JSONConfig configures the newline-delimited JSON file sink.
type JSONConfig struct {
	FilePath      string
	FlushInterval time.Duration
}

// ConsoleConfig configures the console sink.
type ConsoleConfig struct {
	UseColor bool
}

func DefaultConfig() Config {
	return Config{
		BufferSize:       256,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 10 * time.Second,
		JSON: JSONConfig{
			// Editors tail the log file to show reload results, so flush
			// quickly rather than batching for throughput.
			FlushInterval: time.Second,
		},
	}
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
