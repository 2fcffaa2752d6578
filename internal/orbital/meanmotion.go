package orbital

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/banshee-data/trackest/internal/model"
	"gonum.org/v1/gonum/mat"
)

// defaultSampleRetryBudget bounds per-sample redraws when process noise
// lands outside the physically valid element region.
const defaultSampleRetryBudget = 100

// MeanMotion is the element-space two-body transition model: the mean
// anomaly advances linearly at the mean motion n = √(μ/a³), reduced modulo
// one revolution, while every other element stays fixed. The deterministic
// transition is closed form; only Cartesian conversions of the result need
// the Kepler solver.
type MeanMotion struct {
	gm          float64
	noise       *mat.SymDense
	src         rand.Source
	retryBudget int
}

// NewMeanMotion builds the model for a body with gravitational parameter
// gm (km³/s²). noise is element-space process noise and may be nil for a
// noiseless model.
func NewMeanMotion(gm float64, noise *mat.SymDense, src rand.Source) *MeanMotion {
	var q *mat.SymDense
	if noise != nil {
		q = mat.NewSymDense(noise.SymmetricDim(), nil)
		q.CopySym(noise)
	}
	return &MeanMotion{gm: gm, noise: q, src: src, retryBudget: defaultSampleRetryBudget}
}

// SetSampleRetryBudget overrides the redraw budget used by Sample.
func (m *MeanMotion) SetSampleRetryBudget(n int) {
	if n > 0 {
		m.retryBudget = n
	}
}

// Dim returns the element-vector dimension.
func (m *MeanMotion) Dim() int { return ElementsDim }

// Propagate advances the mean anomaly by n·dt. dt may be negative or zero.
func (m *MeanMotion) Propagate(x *mat.VecDense, dt time.Duration) (*mat.VecDense, error) {
	el, err := ElementsFromVector(x)
	if err != nil {
		return nil, err
	}
	if err := el.Validate(); err != nil {
		return nil, err
	}
	el.MeanAnomaly = mod2Pi(el.MeanAnomaly + el.MeanMotionRate(m.gm)*dt.Seconds())
	return el.Vector(), nil
}

// Matrix returns the transition Jacobian for the interval. It is the
// identity apart from the mean-anomaly row, where ∂M'/∂a = −(3/2)·(n/a)·dt
// captures the dependence of mean motion on semi-major axis. Valid for
// signed dt; dt == 0 yields the identity exactly.
func (m *MeanMotion) Matrix(at *mat.VecDense, dt time.Duration) (*mat.Dense, error) {
	t := model.Identity(ElementsDim)
	if dt == 0 {
		return t, nil
	}
	if at == nil {
		return nil, model.ErrNoLinearisationPoint
	}
	el, err := ElementsFromVector(at)
	if err != nil {
		return nil, err
	}
	if err := el.Validate(); err != nil {
		return nil, err
	}
	n := el.MeanMotionRate(m.gm)
	t.Set(idxMeanAnomaly, idxSemiMajorAxis, -1.5*(n/el.SemiMajorAxis)*dt.Seconds())
	return t, nil
}

// Sample draws n propagated element vectors with process noise applied.
// Draws that leave the physically valid region (non-positive semi-major
// axis, eccentricity outside [0, 1)) are redrawn; exhausting the retry
// budget is an error, never a silently invalid state.
func (m *MeanMotion) Sample(n int, x *mat.VecDense, dt time.Duration) ([]*mat.VecDense, error) {
	mean, err := m.Propagate(x, dt)
	if err != nil {
		return nil, err
	}
	out := make([]*mat.VecDense, 0, n)
	for len(out) < n {
		ok := false
		for attempt := 0; attempt < m.retryBudget; attempt++ {
			draws, err := model.SampleNormal(mean, m.noise, 1, m.src)
			if err != nil {
				return nil, err
			}
			el, err := ElementsFromVector(draws[0])
			if err != nil {
				return nil, err
			}
			if el.Validate() == nil {
				out = append(out, draws[0])
				ok = true
				break
			}
		}
		if !ok {
			return nil, fmt.Errorf("element sampling: no valid draw in %d attempts (noise too wide for orbit)", m.retryBudget)
		}
	}
	return out, nil
}

// Density evaluates the element-space transition density.
func (m *MeanMotion) Density(candidate, origin *mat.VecDense, dt time.Duration) (float64, error) {
	mean, err := m.Propagate(origin, dt)
	if err != nil {
		return 0, err
	}
	if candidate == nil || candidate.Len() != ElementsDim {
		return 0, fmt.Errorf("%w: want %d", model.ErrDimension, ElementsDim)
	}
	return model.NormalDensity(candidate, mean, m.noise)
}
