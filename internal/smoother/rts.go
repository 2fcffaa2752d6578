// Package smoother implements the backward Rauch-Tung-Striebel recursion
// over a forward-filtered track. The recursion reads only the Smoothable
// capability of track elements, so it serves linear and extended
// (Jacobian-linearised) transition models through the same code path.
package smoother

import (
	"errors"
	"fmt"

	"github.com/banshee-data/trackest/internal/model"
	"github.com/banshee-data/trackest/internal/state"
	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoModel reports a configuration gap: a step has neither a
	// per-prediction transition model nor a smoother default.
	ErrNoModel = errors.New("no transition model resolvable")

	// ErrMissingCovariance reports a track element without the covariance
	// the recursion needs.
	ErrMissingCovariance = errors.New("state carries no covariance")

	// ErrBadElement reports a track element that is not smoothable (for
	// example an Update whose hypothesis lost its prediction).
	ErrBadElement = errors.New("track element violates the smoothing contract")
)

// Smoother runs the backward pass. It is stateless between calls: one value
// may smooth many tracks concurrently.
type Smoother struct {
	// Default is the transition model applied to steps whose prediction
	// carries none. May be nil if every prediction is self-describing.
	Default model.Transition
}

// New returns a smoother with the given default transition model.
func New(def model.Transition) *Smoother { return &Smoother{Default: def} }

// ResolveModel returns the transition model governing the step into pred:
// the model attached to the prediction wins, otherwise the fallback. The
// fallback rule is deliberately a named operation rather than an attribute
// probe so it can be tested on its own.
func ResolveModel(pred *state.Prediction, fallback model.Transition) (model.Transition, error) {
	if pred != nil && pred.Model() != nil {
		return pred.Model(), nil
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, ErrNoModel
}

// Smooth runs the backward recursion over a completed forward track and
// returns a new track of the same length and timestamps in which every
// estimate also reflects later observations. The input is not modified;
// element kinds (prediction vs update) and hypothesis references are
// preserved. The latest element passes through unchanged — it has no
// future to smooth with.
//
// Failure modes, all surfaced before a partial result can leak: a
// non-smoothable element or missing covariance (contract violation), an
// unresolvable transition model (configuration gap, detected before any
// arithmetic), and a predicted covariance that is singular beyond gonum's
// conditioning tolerance (numerical failure, tagged with the step index).
func (s *Smoother) Smooth(trk *state.Track) (*state.Track, error) {
	if trk == nil {
		return nil, fmt.Errorf("smooth: %w: nil track", ErrBadElement)
	}
	states := trk.States()
	n := len(states)
	if n <= 1 {
		return state.NewTrack(states...), nil
	}

	if err := s.validate(states); err != nil {
		return nil, err
	}

	// Walk latest to earliest, threading the previously smoothed state
	// and its one-step-ahead prediction as an explicit accumulator.
	out := make([]state.Smoothable, 0, n)
	out = append(out, states[n-1])
	prevSmoothed := states[n-1]
	prevPrediction := states[n-1].AssociatedPrediction()

	for k := n - 2; k >= 0; k-- {
		cur := states[k]

		// Forward interval into the later step. The smoother never
		// flips the sign itself; models accept signed intervals by
		// contract.
		dt := prevSmoothed.Timestamp().Sub(cur.Timestamp())

		m, err := ResolveModel(prevPrediction, s.Default)
		if err != nil {
			return nil, fmt.Errorf("smooth: step %d: %w", k, err)
		}
		transition, err := m.Matrix(cur.StateVector(), dt)
		if err != nil {
			return nil, fmt.Errorf("smooth: step %d: transition matrix: %w", k, err)
		}

		// Smoothing gain G = P_k · Tᵀ · (P_{k+1|k})⁻¹.
		var pinv mat.Dense
		if err := pinv.Inverse(prevPrediction.Covariance()); err != nil {
			return nil, fmt.Errorf("smooth: step %d: predicted covariance is singular: %w", k, err)
		}
		var gain mat.Dense
		gain.Mul(cur.Covariance(), transition.T())
		gain.Mul(&gain, &pinv)

		// Mean: x_k + G·(x'_{k+1} − x_{k+1|k}).
		var dx, gdx mat.VecDense
		dx.SubVec(prevSmoothed.StateVector(), prevPrediction.StateVector())
		gdx.MulVec(&gain, &dx)
		mean := mat.NewVecDense(cur.StateVector().Len(), nil)
		mean.AddVec(cur.StateVector(), &gdx)

		// Covariance: P_k + G·(P'_{k+1} − P_{k+1|k})·Gᵀ.
		var dp, gp mat.Dense
		dp.Sub(prevSmoothed.Covariance(), prevPrediction.Covariance())
		gp.Mul(&gain, &dp)
		gp.Mul(&gp, gain.T())
		var cov mat.Dense
		cov.Add(cur.Covariance(), &gp)

		smoothed := cur.WithGaussian(state.NewGaussian(mean, symmetrise(&cov), cur.Timestamp()))
		out = append(out, smoothed)

		prevSmoothed = smoothed
		prevPrediction = cur.AssociatedPrediction()
	}

	// Accumulated latest-first; flip back to the input ordering.
	result := state.NewTrack(out...)
	result.Reverse()
	return result, nil
}

// validate fails fast on contract violations and configuration gaps so the
// recursion never returns a partially smoothed track.
func (s *Smoother) validate(states []state.Smoothable) error {
	for i, st := range states {
		if st == nil {
			return fmt.Errorf("smooth: element %d: %w: nil state", i, ErrBadElement)
		}
		if st.Covariance() == nil {
			return fmt.Errorf("smooth: element %d: %w", i, ErrMissingCovariance)
		}
		pred := st.AssociatedPrediction()
		if pred == nil {
			return fmt.Errorf("smooth: element %d: %w: no associated prediction", i, ErrBadElement)
		}
		// Elements after the first supply the one-step prediction and
		// transition model for the step below them.
		if i == 0 {
			continue
		}
		if pred.Covariance() == nil || pred.StateVector() == nil {
			return fmt.Errorf("smooth: element %d: associated prediction: %w", i, ErrMissingCovariance)
		}
		if _, err := ResolveModel(pred, s.Default); err != nil {
			return fmt.Errorf("smooth: element %d: %w", i, err)
		}
	}
	return nil
}

// symmetrise copies the upper triangle of a numerically near-symmetric
// product into a SymDense.
func symmetrise(a *mat.Dense) *mat.SymDense {
	r, _ := a.Dims()
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, a.At(i, j))
		}
	}
	return s
}
