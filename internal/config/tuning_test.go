package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/trackest/internal/orbital"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestEmptyConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := EmptyTuningConfig()

	solver := cfg.GetSolverConfig()
	assert.Equal(t, orbital.DefaultSolverConfig(), solver)
	assert.Equal(t, 100, cfg.GetSampleRetryBudget())
	assert.Equal(t, 0.5, cfg.GetProcessNoisePos())
	assert.Equal(t, 0.1, cfg.GetProcessNoiseVel())
	assert.Equal(t, 0.25, cfg.GetMeasurementNoise())
	assert.Equal(t, orbital.EarthGM, cfg.GetGravitationalParameter())
}

func TestLoadTuningConfig(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "tuning.json", `{
		"kepler_tolerance": 1e-10,
		"kepler_max_iterations": 30,
		"sample_retry_budget": 25,
		"process_noise_pos": 2.0,
		"gravitational_parameter": 42828.37
	}`)

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	solver := cfg.GetSolverConfig()
	assert.Equal(t, 1e-10, solver.Tolerance)
	assert.Equal(t, 30, solver.MaxIterations)
	assert.Equal(t, 25, cfg.GetSampleRetryBudget())
	assert.Equal(t, 2.0, cfg.GetProcessNoisePos())
	assert.Equal(t, 42828.37, cfg.GetGravitationalParameter())

	// Unset fields still report defaults.
	assert.Equal(t, 0.1, cfg.GetProcessNoiseVel())
	assert.Equal(t, 0.25, cfg.GetMeasurementNoise())
}

func TestLoadTuningConfigRejectsBadInput(t *testing.T) {
	t.Parallel()

	t.Run("wrong extension", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "tuning.yaml", `{}`)
		_, err := LoadTuningConfig(path)
		assert.ErrorContains(t, err, ".json extension")
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadTuningConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.ErrorContains(t, err, "stat")
	})

	t.Run("malformed JSON", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "tuning.json", `{"kepler_tolerance": `)
		_, err := LoadTuningConfig(path)
		assert.ErrorContains(t, err, "parse")
	})

	t.Run("invalid values", func(t *testing.T) {
		t.Parallel()
		path := writeConfig(t, "tuning.json", `{"kepler_tolerance": -1}`)
		_, err := LoadTuningConfig(path)
		assert.ErrorContains(t, err, "kepler_tolerance")
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	fl := func(v float64) *float64 { return &v }
	in := func(v int) *int { return &v }

	assert.NoError(t, EmptyTuningConfig().Validate())
	assert.NoError(t, (&TuningConfig{KeplerTolerance: fl(1e-9), SampleRetryBudget: in(1)}).Validate())

	cases := map[string]*TuningConfig{
		"zero tolerance":      {KeplerTolerance: fl(0)},
		"zero iterations":     {KeplerMaxIterations: in(0)},
		"zero retry budget":   {SampleRetryBudget: in(0)},
		"negative pos noise":  {ProcessNoisePos: fl(-0.1)},
		"negative vel noise":  {ProcessNoiseVel: fl(-0.1)},
		"negative meas noise": {MeasurementNoise: fl(-0.1)},
		"non-positive mu":     {GravitationalParameter: fl(0)},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestDefaultsFileMatchesAccessors(t *testing.T) {
	t.Parallel()

	// The checked-in defaults file must agree with the in-code fallbacks
	// so a deployment with or without the file behaves identically.
	path := filepath.Join("..", "..", DefaultConfigPath)
	if _, err := os.Stat(path); err != nil {
		t.Skipf("defaults file not present at %s", path)
	}

	cfg, err := LoadTuningConfig(path)
	require.NoError(t, err)

	empty := EmptyTuningConfig()
	assert.Equal(t, empty.GetSolverConfig(), cfg.GetSolverConfig())
	assert.Equal(t, empty.GetSampleRetryBudget(), cfg.GetSampleRetryBudget())
	assert.Equal(t, empty.GetProcessNoisePos(), cfg.GetProcessNoisePos())
	assert.Equal(t, empty.GetProcessNoiseVel(), cfg.GetProcessNoiseVel())
	assert.Equal(t, empty.GetMeasurementNoise(), cfg.GetMeasurementNoise())
	assert.Equal(t, empty.GetGravitationalParameter(), cfg.GetGravitationalParameter())
}
