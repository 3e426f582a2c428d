package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrNoProcesses is returned when fewer than one search trial is requested.
var ErrNoProcesses = errors.New("no processes requested: minimum one process is required")

// RunConfig holds the optimizer budgets. It can be loaded from a YAML file;
// command-line flags override file values only when explicitly set.
type RunConfig struct {
	Cycles       int64  `yaml:"cycles"`       // max simulated cycle
	Trials       int    `yaml:"trials"`       // max independent search trials
	Instructions int    `yaml:"instructions"` // candidate builder budget per trial
	Workers      int    `yaml:"workers"`      // parallel trial workers (0 = GOMAXPROCS)
	Seed         int64  `yaml:"seed"`         // master RNG seed
	Suffix       string `yaml:"suffix"`       // appended to the rule file path for the trace
}

// DefaultRunConfig returns the budgets used when neither a file nor a flag sets them.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Cycles:       10000,
		Trials:       1000,
		Instructions: 10000,
		Workers:      0,
		Seed:         42,
		Suffix:       ".csv",
	}
}

// LoadRunConfig reads a YAML run configuration on top of the defaults.
// Unknown keys are rejected so that typos cause errors.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing run config: %w", err)
	}
	return cfg, nil
}

// Validate checks that every budget is usable.
func (c RunConfig) Validate() error {
	if c.Trials < 1 {
		return ErrNoProcesses
	}
	if c.Cycles < 1 {
		return fmt.Errorf("cycles must be positive, got %d", c.Cycles)
	}
	if c.Instructions < 1 {
		return fmt.Errorf("instructions must be positive, got %d", c.Instructions)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.Suffix == "" {
		return errors.New("suffix must not be empty")
	}
	return nil
}
