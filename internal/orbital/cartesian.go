package orbital

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/trackest/internal/model"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Cartesian is the position/velocity two-body transition model. It
// advances [x y z vx vy vz] through the universal-variable (f and g)
// Keplerian propagation, which needs the generalised Kepler root solve
// each step, and linearises numerically for covariance propagation.
// Elliptical orbits only; hyperbolic and parabolic states are rejected by
// the solver.
type Cartesian struct {
	gm     float64
	noise  *mat.SymDense
	solver SolverConfig
	src    rand.Source
}

// NewCartesian builds the model for a body with gravitational parameter gm
// (km³/s²). noise is Cartesian-frame process noise and may be nil.
func NewCartesian(gm float64, noise *mat.SymDense, solver SolverConfig, src rand.Source) *Cartesian {
	var q *mat.SymDense
	if noise != nil {
		q = mat.NewSymDense(noise.SymmetricDim(), nil)
		q.CopySym(noise)
	}
	return &Cartesian{gm: gm, noise: q, solver: solver, src: src}
}

// Dim returns the Cartesian state dimension.
func (c *Cartesian) Dim() int { return 6 }

// Propagate advances the state by dt using Lagrange f and g coefficients.
// dt may be negative (backward propagation) or zero (copy).
func (c *Cartesian) Propagate(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error) {
	if x == nil || x.Len() != 6 {
		return nil, fmt.Errorf("%w: cartesian state must have dimension 6", model.ErrDimension)
	}
	dtSec := dt.Seconds()
	if dtSec == 0 {
		return mat.VecDenseCopyOf(x), nil
	}

	rx, ry, rz := x.AtVec(0), x.AtVec(1), x.AtVec(2)
	vx, vy, vz := x.AtVec(3), x.AtVec(4), x.AtVec(5)

	r0 := math.Sqrt(rx*rx + ry*ry + rz*rz)
	v0sq := vx*vx + vy*vy + vz*vz
	vr0 := (rx*vx + ry*vy + rz*vz) / r0
	alpha := 2/r0 - v0sq/c.gm
	sqrtGM := math.Sqrt(c.gm)

	chi, err := solveUniversalAnomaly(r0, vr0, alpha, sqrtGM, dtSec, c.solver)
	if err != nil {
		return nil, err
	}

	z := alpha * chi * chi
	cz, sz := stumpffC(z), stumpffS(z)

	f := 1 - chi*chi/r0*cz
	g := dtSec - chi*chi*chi/sqrtGM*sz

	nrx := f*rx + g*vx
	nry := f*ry + g*vy
	nrz := f*rz + g*vz
	r := math.Sqrt(nrx*nrx + nry*nry + nrz*nrz)

	fdot := sqrtGM / (r * r0) * (alpha*chi*chi*chi*sz - chi)
	gdot := 1 - chi*chi/r*cz

	return mat.NewVecDense(6, []float64{
		nrx, nry, nrz,
		fdot*rx + gdot*vx,
		fdot*ry + gdot*vy,
		fdot*rz + gdot*vz,
	}), nil
}

// Matrix returns the local linearisation of the propagation at the given
// state, by central finite differences. dt == 0 short-circuits to the
// identity.
func (c *Cartesian) Matrix(at *mat.VecDense, dt time.Duration) (*mat.Dense, error) {
	if dt == 0 {
		return model.Identity(6), nil
	}
	if at == nil {
		return nil, model.ErrNoLinearisationPoint
	}

	var ferr error
	evaluate := func(y, x []float64) {
		out, err := c.Propagate(mat.NewVecDense(len(x), x), dt)
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

	jac := mat.NewDense(6, 6, nil)
	fd.Jacobian(jac, evaluate, mat.Col(nil, 0, at), &fd.JacobianSettings{Formula: fd.Central})
	if ferr != nil {
		return nil, fmt.Errorf("linearising propagation at dt=%v: %w", dt, ferr)
	}
	return jac, nil
}

// Sample draws n propagated states with Cartesian-frame process noise. The
// universal-variable propagation keeps any finite draw physically
// meaningful as a position/velocity pair, so no rejection step is needed
// here.
func (c *Cartesian) Sample(n int, x *mat.VecDense, dt time.Duration) ([]*mat.VecDense, error) {
	mean, err := c.Propagate(x, dt)
	if err != nil {
		return nil, err
	}
	return model.SampleNormal(mean, c.noise, n, c.src)
}

// Density evaluates the Cartesian-frame transition density.
func (c *Cartesian) Density(candidate, origin *mat.VecDense, dt time.Duration) (float64, error) {
	mean, err := c.Propagate(origin, dt)
	if err != nil {
		return 0, err
	}
	if candidate == nil || candidate.Len() != 6 {
		return 0, fmt.Errorf("%w: cartesian state must have dimension 6", model.ErrDimension)
	}
	return model.NormalDensity(candidate, mean, c.noise)
}
