// Package config loads estimator tuning parameters from JSON. Fields are
// pointer-typed so partial files are safe: anything omitted falls back to
// the defaults supplied by the Get accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/trackest/internal/orbital"
)

// DefaultConfigPath is the path to the canonical tuning defaults file,
// relative to the repository root.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig is the root tuning schema for the estimation core.
type TuningConfig struct {
	// Iterative solver bounds (Kepler and universal-variable solves)
	KeplerTolerance     *float64 `json:"kepler_tolerance,omitempty"`
	KeplerMaxIterations *int     `json:"kepler_max_iterations,omitempty"`

	// Transition-model sampling
	SampleRetryBudget *int `json:"sample_retry_budget,omitempty"`

	// Forward-filter noise tunings (per second of elapsed interval)
	ProcessNoisePos  *float64 `json:"process_noise_pos,omitempty"`
	ProcessNoiseVel  *float64 `json:"process_noise_vel,omitempty"`
	MeasurementNoise *float64 `json:"measurement_noise,omitempty"`

	// Orbital environment
	GravitationalParameter *float64 `json:"gravitational_parameter,omitempty"`
}

// EmptyTuningConfig returns a TuningConfig with all fields unset so every
// accessor reports its default.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must
// carry a .json extension; oversized files are rejected before parsing.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that any set values are usable.
func (c *TuningConfig) Validate() error {
	if c.KeplerTolerance != nil && *c.KeplerTolerance <= 0 {
		return fmt.Errorf("kepler_tolerance must be positive, got %g", *c.KeplerTolerance)
	}
	if c.KeplerMaxIterations != nil && *c.KeplerMaxIterations < 1 {
		return fmt.Errorf("kepler_max_iterations must be at least 1, got %d", *c.KeplerMaxIterations)
	}
	if c.SampleRetryBudget != nil && *c.SampleRetryBudget < 1 {
		return fmt.Errorf("sample_retry_budget must be at least 1, got %d", *c.SampleRetryBudget)
	}
	if c.ProcessNoisePos != nil && *c.ProcessNoisePos < 0 {
		return fmt.Errorf("process_noise_pos must be non-negative, got %g", *c.ProcessNoisePos)
	}
	if c.ProcessNoiseVel != nil && *c.ProcessNoiseVel < 0 {
		return fmt.Errorf("process_noise_vel must be non-negative, got %g", *c.ProcessNoiseVel)
	}
	if c.MeasurementNoise != nil && *c.MeasurementNoise < 0 {
		return fmt.Errorf("measurement_noise must be non-negative, got %g", *c.MeasurementNoise)
	}
	if c.GravitationalParameter != nil && *c.GravitationalParameter <= 0 {
		return fmt.Errorf("gravitational_parameter must be positive, got %g", *c.GravitationalParameter)
	}
	return nil
}

// GetSolverConfig assembles the iterative-solver bounds.
func (c *TuningConfig) GetSolverConfig() orbital.SolverConfig {
	cfg := orbital.DefaultSolverConfig()
	if c.KeplerTolerance != nil {
		cfg.Tolerance = *c.KeplerTolerance
	}
	if c.KeplerMaxIterations != nil {
		cfg.MaxIterations = *c.KeplerMaxIterations
	}
	return cfg
}

// GetSampleRetryBudget returns the sample_retry_budget value or the default.
func (c *TuningConfig) GetSampleRetryBudget() int {
	if c.SampleRetryBudget == nil {
		return 100
	}
	return *c.SampleRetryBudget
}

// GetProcessNoisePos returns the process_noise_pos value or the default.
func (c *TuningConfig) GetProcessNoisePos() float64 {
	if c.ProcessNoisePos == nil {
		return 0.5
	}
	return *c.ProcessNoisePos
}

// GetProcessNoiseVel returns the process_noise_vel value or the default.
func (c *TuningConfig) GetProcessNoiseVel() float64 {
	if c.ProcessNoiseVel == nil {
		return 0.1
	}
	return *c.ProcessNoiseVel
}

// GetMeasurementNoise returns the measurement_noise value or the default.
func (c *TuningConfig) GetMeasurementNoise() float64 {
	if c.MeasurementNoise == nil {
		return 0.25
	}
	return *c.MeasurementNoise
}

// GetGravitationalParameter returns the gravitational_parameter value or
// the geocentric default.
func (c *TuningConfig) GetGravitationalParameter() float64 {
	if c.GravitationalParameter == nil {
		return orbital.EarthGM
	}
	return *c.GravitationalParameter
}
