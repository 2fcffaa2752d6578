// Package model defines the pluggable dynamics contract used by filtering
// and smoothing, plus linear-Gaussian and numerically linearised
// implementations of it. Concrete models operate on bare gonum vectors so
// any state representation with a fixed dimension can ride on them.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

var (
	// ErrDimension is returned when an input vector does not match the
	// model dimension.
	ErrDimension = errors.New("state dimension mismatch")

	// ErrNoNoise is returned by Sample and Density when the model carries
	// no process-noise configuration to draw from or evaluate against.
	ErrNoNoise = errors.New("model has no process noise configured")

	// ErrSingularNoise is returned when the process-noise covariance is
	// not positive definite and therefore cannot back a density.
	ErrSingularNoise = errors.New("process noise covariance is not positive definite")

	// ErrNoLinearisationPoint is returned by nonlinear models when Matrix
	// is called without a state to linearise about.
	ErrNoLinearisationPoint = errors.New("nonlinear model needs a state to linearise about")
)

// Transition is the dynamics capability any model must satisfy to be usable
// by a filter or by the smoother. All operations are pure functions of
// their inputs, so a single model value may serve many tracks concurrently.
//
// dt is signed: the smoother and backward-running consumers pass the same
// forward interval they would use for prediction, and implementations must
// remain valid for negative dt. dt == 0 yields the identity matrix and an
// unchanged state.
type Transition interface {
	// Dim returns the state dimension n.
	Dim() int

	// Matrix returns the n-by-n state-transition matrix for the interval
	// dt. Nonlinear models linearise about at; linear models ignore it.
	Matrix(at *mat.VecDense, dt time.Duration) (*mat.Dense, error)

	// Propagate deterministically advances x by dt, with no noise.
	Propagate(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error)

	// Sample draws n propagated states with process noise applied. The
	// noise covariance is model-owned configuration.
	Sample(n int, x *mat.VecDense, dt time.Duration) ([]*mat.VecDense, error)

	// Density evaluates the transition density of candidate given origin
	// over dt. Non-negative for all inputs by construction.
	Density(candidate, origin *mat.VecDense, dt time.Duration) (float64, error)
}

// Identity returns the n-by-n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// SampleNormal draws n vectors from N(mean, cov). A nil or all-zero cov
// yields exact copies of the mean (the noiseless limit).
func SampleNormal(mean *mat.VecDense, cov *mat.SymDense, n int, src rand.Source) ([]*mat.VecDense, error) {
	out := make([]*mat.VecDense, n)
	if cov == nil || isZeroSym(cov) {
		for i := range out {
			out[i] = mat.VecDenseCopyOf(mean)
		}
		return out, nil
	}
	normal, ok := distmv.NewNormal(mat.Col(nil, 0, mean), cov, src)
	if !ok {
		return nil, ErrSingularNoise
	}
	for i := range out {
		out[i] = mat.NewVecDense(mean.Len(), normal.Rand(nil))
	}
	return out, nil
}

// NormalDensity evaluates the N(mean, cov) density at x.
func NormalDensity(x, mean *mat.VecDense, cov *mat.SymDense) (float64, error) {
	if cov == nil {
		return 0, ErrNoNoise
	}
	if x.Len() != mean.Len() {
		return 0, fmt.Errorf("%w: candidate %d, origin %d", ErrDimension, x.Len(), mean.Len())
	}
	normal, ok := distmv.NewNormal(mat.Col(nil, 0, mean), cov, nil)
	if !ok {
		return 0, ErrSingularNoise
	}
	return math.Exp(normal.LogProb(mat.Col(nil, 0, x))), nil
}

func isZeroSym(s *mat.SymDense) bool {
	n := s.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if s.At(i, j) != 0 {
				return false
			}
		}
	}
	return true
}

func checkDim(x *mat.VecDense, dim int) error {
	if x == nil || x.Len() != dim {
		got := 0
		if x != nil {
			got = x.Len()
		}
		return fmt.Errorf("%w: want %d, got %d", ErrDimension, dim, got)
	}
	return nil
}
