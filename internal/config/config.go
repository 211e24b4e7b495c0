// Package config loads driver configuration from a YAML document into
// the enumerated options spec.md §6 lists, applying defaults in code for
// any field the document omits.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config mirrors the caller-facing configuration surface: the connection
// path plus the init/timeout/packet-size toggles. cmd/plcctl passes on
// Path, the timeout, InitProgramTags and LogLevel; InitInfo, InitTags and
// LargePackets are loaded but nothing in the driver reads them.
type Config struct {
	Path                     string  `yaml:"path"`
	InitInfo                 bool    `yaml:"init_info"`
	InitTags                 bool    `yaml:"init_tags"`
	InitProgramTags          bool    `yaml:"init_program_tags"`
	ConnectionTimeoutSeconds float64 `yaml:"connection_timeout_seconds"`
	LargePackets             bool    `yaml:"large_packets"`
	LogLevel                 string  `yaml:"log_level"`
}

// Default returns the zero-value defaults spec.md §6 enumerates.
func Default() Config {
	return Config{
		InitInfo:                 true,
		InitTags:                 true,
		InitProgramTags:          true,
		ConnectionTimeoutSeconds: 10,
		LargePackets:             true,
		LogLevel:                 "info",
	}
}

// Load reads and parses a YAML config file at path, starting from
// Default() so an omitted field keeps its documented default instead of
// zeroing out.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Path == "" {
		return Config{}, fmt.Errorf("config: %s: path is required", path)
	}
	return cfg, nil
}

// Timeout returns ConnectionTimeoutSeconds as a time.Duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.ConnectionTimeoutSeconds * float64(time.Second))
}
