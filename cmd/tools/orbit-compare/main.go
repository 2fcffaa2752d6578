// Package main compares the two orbital transition models by propagating
// the same initial state through both and reporting their divergence.
// The element-space mean-motion model and the Cartesian universal-variable
// model describe identical unperturbed two-body motion, so any divergence
// beyond floating-point tolerance points at a propagation or conversion
// regression.
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/banshee-data/trackest/internal/config"
	"github.com/banshee-data/trackest/internal/monitoring"
	"github.com/banshee-data/trackest/internal/orbital"
	"gonum.org/v1/gonum/mat"
)

func main() {
	var (
		configPath = flag.String("config", config.DefaultConfigPath, "tuning config JSON")
		hours      = flag.Float64("hours", 10, "total propagation horizon in hours")
		stepMins   = flag.Float64("step", 3, "propagation step in minutes")
	)
	flag.Parse()

	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		monitoring.Logf("falling back to built-in defaults: %v", err)
		cfg = config.EmptyTuningConfig()
	}

	if err := run(cfg, *hours, *stepMins); err != nil {
		fmt.Fprintf(os.Stderr, "orbit-compare: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.TuningConfig, hours, stepMins float64) error {
	gm := cfg.GetGravitationalParameter()
	solver := cfg.GetSolverConfig()

	// Reference low-Earth elliptical orbit.
	initial := mat.NewVecDense(6, []float64{
		7000, -12124, 0,
		2.6679, 4.621, 0,
	})

	cartesian := orbital.NewCartesian(gm, nil, solver, nil)
	meanMotion := orbital.NewMeanMotion(gm, nil, nil)
	meanMotion.SetSampleRetryBudget(cfg.GetSampleRetryBudget())

	elements, err := orbital.ElementsFromCartesian(initial, gm)
	if err != nil {
		return fmt.Errorf("deriving initial elements: %w", err)
	}

	step := time.Duration(stepMins * float64(time.Minute))
	steps := int(hours * 60 / stepMins)

	cartState := mat.VecDenseCopyOf(initial)
	elemState := elements.Vector()

	var worst float64
	var worstStep int
	for i := 1; i <= steps; i++ {
		if cartState, err = cartesian.Propagate(cartState, step); err != nil {
			return fmt.Errorf("step %d: cartesian propagation: %w", i, err)
		}
		if elemState, err = meanMotion.Propagate(elemState, step); err != nil {
			return fmt.Errorf("step %d: mean-motion propagation: %w", i, err)
		}

		el, err := orbital.ElementsFromVector(elemState)
		if err != nil {
			return err
		}
		asCartesian, err := el.Cartesian(gm, solver)
		if err != nil {
			return fmt.Errorf("step %d: element conversion: %w", i, err)
		}

		if d := relativeDivergence(cartState, asCartesian); d > worst {
			worst, worstStep = d, i
		}
	}

	monitoring.Logf("propagated %d steps of %v (%.1f h total)", steps, step, hours)
	monitoring.Logf("peak relative divergence %.3e at step %d", worst, worstStep)
	fmt.Printf("max_relative_divergence=%.6e steps=%d step_duration=%v\n", worst, steps, step)
	return nil
}

// relativeDivergence returns max_i |a_i − b_i| / (1 + |b_i|).
func relativeDivergence(a, b *mat.VecDense) float64 {
	var worst float64
	for i := 0; i < a.Len(); i++ {
		d := math.Abs(a.AtVec(i)-b.AtVec(i)) / (1 + math.Abs(b.AtVec(i)))
		if d > worst {
			worst = d
		}
	}
	return worst
}
