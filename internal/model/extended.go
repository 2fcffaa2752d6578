package model

import (
	"fmt"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// PropagateFunc is a deterministic, noiseless state propagation over a
// signed interval.
type PropagateFunc func(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error)

// Extended wraps an arbitrary nonlinear propagation function as a
// Transition. Matrix is a central-difference Jacobian evaluated at the
// supplied state, so the same smoother code path serves linear and
// nonlinear dynamics alike.
type Extended struct {
	dim   int
	f     PropagateFunc
	noise *mat.SymDense
	src   rand.Source
}

// NewExtended builds a nonlinear model of the given dimension. noise is the
// model-owned process noise per transition; it may be nil for a noiseless
// model.
func NewExtended(dim int, f PropagateFunc, noise *mat.SymDense, src rand.Source) *Extended {
	var q *mat.SymDense
	if noise != nil {
		q = mat.NewSymDense(noise.SymmetricDim(), nil)
		q.CopySym(noise)
	}
	return &Extended{dim: dim, f: f, noise: q, src: src}
}

// Dim returns the state dimension.
func (m *Extended) Dim() int { return m.dim }

// Matrix returns the Jacobian of the propagation at the given state. dt may
// be negative; dt == 0 short-circuits to the identity.
func (m *Extended) Matrix(at *mat.VecDense, dt time.Duration) (*mat.Dense, error) {
	if dt == 0 {
		return Identity(m.dim), nil
	}
	if at == nil {
		return nil, ErrNoLinearisationPoint
	}
	if err := checkDim(at, m.dim); err != nil {
		return nil, err
	}

	var ferr error
	evaluate := func(y, x []float64) {
		out, err := m.f(mat.NewVecDense(len(x), x), dt)
		if err != nil {
			if ferr == nil {
				ferr = err
			}
			for i := range y {
				y[i] = 0
			}
			return
		}
		for i := range y {
			y[i] = out.AtVec(i)
		}
	}

	jac := mat.NewDense(m.dim, m.dim, nil)
	fd.Jacobian(jac, evaluate, mat.Col(nil, 0, at), &fd.JacobianSettings{Formula: fd.Central})
	if ferr != nil {
		return nil, fmt.Errorf("linearising at dt=%v: %w", dt, ferr)
	}
	return jac, nil
}

// Propagate deterministically advances x by dt.
func (m *Extended) Propagate(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error) {
	if err := checkDim(x, m.dim); err != nil {
		return nil, err
	}
	return m.f(x, dt)
}

// Sample draws n propagated states with process noise applied.
func (m *Extended) Sample(n int, x *mat.VecDense, dt time.Duration) ([]*mat.VecDense, error) {
	mean, err := m.Propagate(x, dt)
	if err != nil {
		return nil, err
	}
	return SampleNormal(mean, m.noise, n, m.src)
}

// Density evaluates the transition density of candidate given origin.
func (m *Extended) Density(candidate, origin *mat.VecDense, dt time.Duration) (float64, error) {
	mean, err := m.Propagate(origin, dt)
	if err != nil {
		return 0, err
	}
	if err := checkDim(candidate, m.dim); err != nil {
		return 0, err
	}
	return NormalDensity(candidate, mean, m.noise)
}
