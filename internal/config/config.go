package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"glslls/internal/compiler"
)

// Config holds the runtime configuration for the server.
// Precedence: defaults < YAML file < client initializationOptions.
type Config struct {
	Addr      string           `yaml:"addr"      json:"addr"`
	LogFile   string           `yaml:"log_file"  json:"log_file"`
	Verbosity int              `yaml:"verbosity" json:"verbosity"`
	Compiler  compiler.Options `yaml:"compiler"  json:"compiler"`
}

var defaultConfig = Config{
	Addr:     "127.0.0.1:8080",
	Compiler: compiler.Options{Path: "glslangValidator", Timeout: 15 * time.Second},
}

// Default returns the built-in configuration.
func Default() Config {
	return defaultConfig
}

// LoadFile layers a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := defaultConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// Load merges an untyped options value, typically the client's
// initializationOptions, over base.
func Load(v any, base Config) (Config, error) {
	cfg := base

	data, err := json.Marshal(v)
	if err != nil {
		return Config{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	// only fields present in src will overwrite.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal into Config: %w", err)
	}

	return cfg, nil
}
