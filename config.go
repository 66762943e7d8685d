// config.go - EngineConfig (A2): defaults, then an optional YAML file,
// then environment variables, then CLI flags, each layer overriding the
// last. Grounded on doismellburning-samoyed's pflag-heavy cmd/direwolf
// main.go for the "flags win last" layering idea, and on
// valerio-go-jeebie/doismellburning-samoyed's use of gopkg.in/yaml.v3 for
// the file layer.
package phonon

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EngineConfig holds every tunable the engine, its IPC server, and its
// CLI entry point need at startup.
type EngineConfig struct {
	SampleRate      int    `yaml:"sample_rate"`
	BufferSize      int    `yaml:"buffer_size"`
	RingCapacity    int    `yaml:"ring_capacity"`
	Backend         string `yaml:"backend"` // "oto" or "headless"
	SocketPath      string `yaml:"socket_path"`
	RecordPath      string `yaml:"record_path"`
	DebugBufferTime bool   `yaml:"debug_buffer_timing"`
}

// DefaultConfig returns the built-in baseline every other layer overrides.
func DefaultConfig() EngineConfig {
	return EngineConfig{
		SampleRate:   48000,
		BufferSize:   512,
		RingCapacity: 1 << 15,
		Backend:      "oto",
		SocketPath:   "",
		RecordPath:   "",
	}
}

// LoadConfigFile reads a YAML file and merges any fields it sets onto cfg.
// Zero-value fields in the file are left untouched so a partial file only
// overrides what it mentions.
func LoadConfigFile(cfg EngineConfig, path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	var file EngineConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("config: invalid yaml in %s: %w", path, err)
	}
	if file.SampleRate != 0 {
		cfg.SampleRate = file.SampleRate
	}
	if file.BufferSize != 0 {
		cfg.BufferSize = file.BufferSize
	}
	if file.RingCapacity != 0 {
		cfg.RingCapacity = file.RingCapacity
	}
	if file.Backend != "" {
		cfg.Backend = file.Backend
	}
	if file.SocketPath != "" {
		cfg.SocketPath = file.SocketPath
	}
	if file.RecordPath != "" {
		cfg.RecordPath = file.RecordPath
	}
	if file.DebugBufferTime {
		cfg.DebugBufferTime = true
	}
	return cfg, nil
}

// ApplyEnv overrides cfg with PHONON_BUFFER_SIZE and DEBUG_BUFFER_TIMING,
// the two environment variables spec.md §6 calls out explicitly.
func ApplyEnv(cfg EngineConfig) EngineConfig {
	if v := os.Getenv("PHONON_BUFFER_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BufferSize = n
		}
	}
	if v := os.Getenv("DEBUG_BUFFER_TIMING"); v != "" {
		cfg.DebugBufferTime = true
	}
	return cfg
}

// Validate rejects combinations the engine cannot run with.
func (c EngineConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("config: sample_rate must be positive, got %d", c.SampleRate)
	}
	if c.BufferSize <= 0 || c.BufferSize&(c.BufferSize-1) != 0 {
		return fmt.Errorf("config: buffer_size must be a positive power of two, got %d", c.BufferSize)
	}
	if c.Backend != "oto" && c.Backend != "headless" {
		return fmt.Errorf("config: backend must be \"oto\" or \"headless\", got %q", c.Backend)
	}
	return nil
}
