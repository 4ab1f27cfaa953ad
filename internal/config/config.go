package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the optional minicc.yaml configuration.
type Config struct {
	// DumpIR prints the emitted module before execution.
	DumpIR bool `yaml:"dump_ir,omitempty"`

	// Engine selects the execution engine ("interp").
	Engine string `yaml:"engine,omitempty"`

	Cache CacheConfig `yaml:"cache,omitempty"`
}

// CacheConfig controls the compiled-IR cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// ConfigFileName is looked up next to the compiled source file.
const ConfigFileName = "minicc.yaml"

// Default returns the configuration used when no minicc.yaml is present.
func Default() *Config {
	return &Config{Engine: DefaultEngine}
}

// Load reads a yaml config file. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Engine == "" {
		cfg.Engine = DefaultEngine
	}
	return cfg, nil
}

// Discover looks for minicc.yaml in the directory holding path.
func Discover(path string) (*Config, error) {
	dir := filepath.Dir(path)
	return Load(filepath.Join(dir, ConfigFileName))
}
