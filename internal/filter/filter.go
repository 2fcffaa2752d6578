// Package filter provides the minimal forward Kalman machinery needed to
// produce tracks with genuine prediction/hypothesis links in-process: a
// Predictor that pushes a belief through a transition model and an Updater
// that corrects a prediction with a linear measurement. Association of
// measurements to tracks stays outside this module.
package filter

import (
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/trackest/internal/model"
	"github.com/banshee-data/trackest/internal/state"
	"gonum.org/v1/gonum/mat"
)

// ErrMissingCovariance is returned when a prior or prediction carries no
// covariance to propagate or correct.
var ErrMissingCovariance = errors.New("state carries no covariance")

// Predictor propagates beliefs through a transition model. Process noise
// is held by the predictor rather than the model, so the same dynamics can
// run with different noise tunings side by side.
type Predictor struct {
	Model model.Transition

	// Noise is the per-step process noise added to the propagated
	// covariance. May be nil for a noiseless prediction.
	Noise *mat.SymDense
}

// Predict propagates the prior belief to the target time and returns the
// resulting prediction, tagged with the transition model that produced it.
func (p *Predictor) Predict(prior state.Smoothable, to time.Time) (*state.Prediction, error) {
	if prior.Covariance() == nil {
		return nil, ErrMissingCovariance
	}
	dt := to.Sub(prior.Timestamp())

	mean, err := p.Model.Propagate(prior.StateVector(), dt)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}
	transition, err := p.Model.Matrix(prior.StateVector(), dt)
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	// P' = T·P·Tᵀ + Q
	var cov mat.Dense
	cov.Mul(transition, prior.Covariance())
	cov.Mul(&cov, transition.T())
	if p.Noise != nil {
		cov.Add(&cov, p.Noise)
	}

	g := state.NewGaussian(mean, symmetrise(&cov), to)
	return state.NewPrediction(g, p.Model), nil
}

// Updater corrects predictions with linear measurements z = H·x + v,
// v ~ N(0, R).
type Updater struct {
	H *mat.Dense    // measurement matrix, m-by-n
	R *mat.SymDense // measurement noise, m-by-m
}

// Update corrects the prediction with the measurement and returns an
// update whose hypothesis references the prediction.
func (u *Updater) Update(pred *state.Prediction, z *mat.VecDense) (*state.Update, error) {
	if pred.Covariance() == nil {
		return nil, ErrMissingCovariance
	}

	// Innovation y = z − H·x.
	var hx, innov mat.VecDense
	hx.MulVec(u.H, pred.StateVector())
	innov.SubVec(z, &hx)

	// S = H·P·Hᵀ + R.
	var s mat.Dense
	s.Mul(u.H, pred.Covariance())
	s.Mul(&s, u.H.T())
	s.Add(&s, u.R)

	var sinv mat.Dense
	if err := sinv.Inverse(&s); err != nil {
		return nil, fmt.Errorf("update: innovation covariance is singular: %w", err)
	}

	// K = P·Hᵀ·S⁻¹.
	var gain mat.Dense
	gain.Mul(pred.Covariance(), u.H.T())
	gain.Mul(&gain, &sinv)

	// x' = x + K·y.
	var ky mat.VecDense
	ky.MulVec(&gain, &innov)
	mean := mat.NewVecDense(pred.StateVector().Len(), nil)
	mean.AddVec(pred.StateVector(), &ky)

	// P' = (I − K·H)·P.
	var kh mat.Dense
	kh.Mul(&gain, u.H)
	n := pred.StateVector().Len()
	var ikh mat.Dense
	ikh.Sub(model.Identity(n), &kh)
	var cov mat.Dense
	cov.Mul(&ikh, pred.Covariance())

	h := &state.Hypothesis{Prediction: pred, Measurement: mat.VecDenseCopyOf(z)}
	g := state.NewGaussian(mean, symmetrise(&cov), pred.Timestamp())
	return state.NewUpdate(g, h)
}

func symmetrise(a *mat.Dense) *mat.SymDense {
	r, _ := a.Dims()
	s := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := i; j < r; j++ {
			s.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
	return s
}
