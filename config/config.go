// Package config loads tablestore's ambient configuration, mirroring the
// teacher's pkg/config: a JSON-decodable struct with a DefaultConfig,
// a file loader, and an environment-aware LoadOrDefault.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config is tablestore's process-wide ambient configuration. It has no
// bearing on any single universe's table schema; it only tunes storage
// defaults, logging, and the generator's dev-mode output.
type Config struct {
	Log       LogConfig       `json:"log"`
	Storage   StorageConfig   `json:"storage"`
	Event     EventConfig     `json:"event"`
	Generator GeneratorConfig `json:"generator"`
}

// LogConfig controls the ambient logger (tlog).
type LogConfig struct {
	Level string `json:"level"` // debug|info|warn|error|silent
}

// StorageConfig tunes default column layout choices (spec §4.1).
type StorageConfig struct {
	// SegmentBlockBytes is the configured target size of one
	// segmented-column block. column.NewSegmented does not read it; it
	// uses column.DefaultSegmentBytes.
	SegmentBlockBytes int `json:"segment_block_bytes"`
	// DefaultCapacity is a configured initial capacity for freshly
	// produced columns. Universe instantiation does not read it and
	// issues no Reserve() of its own.
	DefaultCapacity int `json:"default_capacity"`
}

// EventConfig tunes the user-event id space (spec §6).
type EventConfig struct {
	// UserEventMax is the highest assignable user event id (inclusive).
	// Reserved ids occupy 0..=31; this must be a small power of two
	// minus one, per spec §6.
	UserEventMax int `json:"user_event_max"`
}

// GeneratorConfig controls the external code-generation front-end's
// development-mode behavior (spec §6, "CLI / env"). The core only reads
// this value and exposes it; it never emits anything itself.
type GeneratorConfig struct {
	// EmitDir, when non-empty, asks the (external) generator to also
	// write human-readable table modules here. Populated from
	// TABLESTORE_GEN_DIR when loaded via FromEnv/LoadOrDefault.
	EmitDir string `json:"emit_dir"`
}

const (
	reservedEventCount = 32
	defaultUserEventMax = 511 // 512 total ids, 0..=31 reserved, per spec §6
)

// DefaultConfig returns tablestore's baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Storage: StorageConfig{
			SegmentBlockBytes: 16 * 1024,
			DefaultCapacity:   0,
		},
		Event: EventConfig{
			UserEventMax: defaultUserEventMax,
		},
		Generator: GeneratorConfig{
			EmitDir: "",
		},
	}
}

// Load reads and decodes a JSON config file, falling back to
// DefaultConfig for any field left absent in the file.
func Load(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv layers TABLESTORE_GEN_DIR onto cfg and returns it.
func FromEnv(cfg *Config) *Config {
	if dir := os.Getenv("TABLESTORE_GEN_DIR"); dir != "" {
		cfg.Generator.EmitDir = dir
	}
	return cfg
}

// LoadOrDefault tries TABLESTORE_CONFIG, then ./config.json, then falls
// back to DefaultConfig, always layering environment overrides on top.
func LoadOrDefault() *Config {
	if envPath := os.Getenv("TABLESTORE_CONFIG"); envPath != "" {
		if cfg, err := Load(envPath); err == nil {
			return FromEnv(cfg)
		}
	}
	if abs, err := filepath.Abs("config.json"); err == nil {
		if cfg, err := Load(abs); err == nil {
			return FromEnv(cfg)
		}
	}
	return FromEnv(DefaultConfig())
}

func validate(cfg *Config) error {
	if cfg.Storage.SegmentBlockBytes < 1 {
		return fmt.Errorf("storage.segment_block_bytes must be positive")
	}
	if cfg.Event.UserEventMax < 0 {
		return fmt.Errorf("event.user_event_max must not be negative")
	}
	return nil
}
