package model

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
)

// LinearGaussian is a transition model whose transition matrix is a
// function of the elapsed interval only, with additive Gaussian process
// noise. It covers the classic random-walk and constant-velocity cases and
// anything else expressible as x' = T(dt)·x + w.
type LinearGaussian struct {
	dim      int
	matrixFn func(dtSec float64) *mat.Dense
	noiseFn  func(dtSec float64) *mat.SymDense
	src      rand.Source
}

// NewLinearGaussian builds a linear model from a transition-matrix function
// and a process-noise function, both over the interval in seconds. Either
// may be called with negative or zero intervals. noiseFn may be nil for a
// noiseless model.
func NewLinearGaussian(dim int, matrixFn func(dtSec float64) *mat.Dense, noiseFn func(dtSec float64) *mat.SymDense, src rand.Source) *LinearGaussian {
	return &LinearGaussian{dim: dim, matrixFn: matrixFn, noiseFn: noiseFn, src: src}
}

// NewRandomWalk returns a model that keeps the state fixed (T = I) and adds
// noiseDiag-per-second of variance on each coordinate.
func NewRandomWalk(dim int, noiseDiag []float64, src rand.Source) *LinearGaussian {
	diag := append([]float64(nil), noiseDiag...)
	return NewLinearGaussian(dim,
		func(float64) *mat.Dense { return Identity(dim) },
		func(dtSec float64) *mat.SymDense {
			q := mat.NewSymDense(dim, nil)
			for i := 0; i < dim; i++ {
				q.SetSym(i, i, diag[i]*math.Abs(dtSec))
			}
			return q
		}, src)
}

// NewConstantVelocity returns a nearly-constant-velocity model over the
// given number of spatial axes. State layout is positions first, then
// velocities: [p1 .. pa, v1 .. va]. Noise variances are per second of
// elapsed interval, matching dt-normalised tuning values.
func NewConstantVelocity(axes int, posNoise, velNoise float64, src rand.Source) *LinearGaussian {
	dim := 2 * axes
	return NewLinearGaussian(dim,
		func(dtSec float64) *mat.Dense {
			t := Identity(dim)
			for i := 0; i < axes; i++ {
				t.Set(i, axes+i, dtSec)
			}
			return t
		},
		func(dtSec float64) *mat.SymDense {
			q := mat.NewSymDense(dim, nil)
			s := math.Abs(dtSec)
			for i := 0; i < axes; i++ {
				q.SetSym(i, i, posNoise*s)
				q.SetSym(axes+i, axes+i, velNoise*s)
			}
			return q
		}, src)
}

// Dim returns the state dimension.
func (m *LinearGaussian) Dim() int { return m.dim }

// Matrix returns T(dt). The linearisation point is ignored: for a linear
// model the matrix is exact and state-independent.
func (m *LinearGaussian) Matrix(_ *mat.VecDense, dt time.Duration) (*mat.Dense, error) {
	return m.matrixFn(dt.Seconds()), nil
}

// Propagate returns T(dt)·x.
func (m *LinearGaussian) Propagate(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error) {
	if err := checkDim(x, m.dim); err != nil {
		return nil, err
	}
	out := mat.NewVecDense(m.dim, nil)
	out.MulVec(m.matrixFn(dt.Seconds()), x)
	return out, nil
}

// Sample draws n propagated states with process noise applied.
func (m *LinearGaussian) Sample(n int, x *mat.VecDense, dt time.Duration) ([]*mat.VecDense, error) {
	mean, err := m.Propagate(x, dt)
	if err != nil {
		return nil, err
	}
	return SampleNormal(mean, m.noise(dt), n, m.src)
}

// Density evaluates the transition density of candidate given origin.
func (m *LinearGaussian) Density(candidate, origin *mat.VecDense, dt time.Duration) (float64, error) {
	mean, err := m.Propagate(origin, dt)
	if err != nil {
		return 0, err
	}
	if err := checkDim(candidate, m.dim); err != nil {
		return 0, err
	}
	return NormalDensity(candidate, mean, m.noise(dt))
}

func (m *LinearGaussian) noise(dt time.Duration) *mat.SymDense {
	if m.noiseFn == nil {
		return nil
	}
	return m.noiseFn(dt.Seconds())
}
