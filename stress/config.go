package stress

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/tailcall-stress/errors"
)

// Config holds the run configuration. Zero values are invalid; start from
// DefaultConfig.
type Config struct {
	Corpus        string       `yaml:"corpus"`
	Engine        EngineConfig `yaml:"engine"`
	Iterations    int          `yaml:"iterations"`
	PoolSize      int          `yaml:"pool_size"`
	ProgressEvery int          `yaml:"progress_every"`
	Seed          uint64       `yaml:"seed"`
}

// EngineConfig selects how wazero runs the generated code.
type EngineConfig struct {
	Interpreter      bool `yaml:"interpreter"`
	DisableTailCalls bool `yaml:"disable_tail_calls"`
}

// DefaultConfig returns the default run configuration.
func DefaultConfig() *Config {
	return &Config{
		Iterations:    1000000,
		PoolSize:      10000,
		ProgressEvery: 1000,
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindNotFound).
			Path(path).
			Cause(err).
			Detail("read config").
			Build()
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Path(path).
			Cause(err).
			Detail("parse config").
			Build()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every size is positive.
func (c *Config) Validate() error {
	switch {
	case c.Iterations <= 0:
		return errors.InvalidInput(errors.PhaseConfig, "iterations must be positive")
	case c.PoolSize <= 0:
		return errors.InvalidInput(errors.PhaseConfig, "pool_size must be positive")
	case c.ProgressEvery <= 0:
		return errors.InvalidInput(errors.PhaseConfig, "progress_every must be positive")
	}
	return nil
}
