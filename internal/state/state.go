package state

import (
	"errors"
	"time"

	"github.com/banshee-data/trackest/internal/model"
	"gonum.org/v1/gonum/mat"
)

// Kind identifies the concrete flavour of a track element. The set is
// closed: the smoother dispatches on Kind rather than on concrete types.
type Kind string

const (
	KindPrediction Kind = "prediction" // belief before incorporating an observation
	KindUpdate     Kind = "update"     // belief after incorporating an observation
)

// ErrNoHypothesis is returned when an Update is built without the mandatory
// hypothesis back-reference.
var ErrNoHypothesis = errors.New("update requires a hypothesis referencing its prediction")

// Gaussian is a point-in-time belief: a mean vector, an optional covariance
// and a timestamp. The covariance may be nil for weight-free states; when
// present it is symmetric PSD by construction (SymDense) but is not assumed
// strictly positive-definite anywhere in the core.
type Gaussian struct {
	vector *mat.VecDense
	covar  *mat.SymDense
	ts     time.Time
}

// NewGaussian builds a Gaussian belief. Both the vector and the covariance
// are copied, so callers may keep mutating their own buffers.
func NewGaussian(vector *mat.VecDense, covar *mat.SymDense, ts time.Time) Gaussian {
	g := Gaussian{ts: ts}
	if vector != nil {
		g.vector = mat.VecDenseCopyOf(vector)
	}
	if covar != nil {
		c := mat.NewSymDense(covar.SymmetricDim(), nil)
		c.CopySym(covar)
		g.covar = c
	}
	return g
}

// StateVector returns the mean vector. The returned value is shared with
// the state and must be treated as read-only.
func (g Gaussian) StateVector() *mat.VecDense { return g.vector }

// Covariance returns the covariance, or nil if the state carries none.
// The returned value is shared with the state and must be treated as
// read-only.
func (g Gaussian) Covariance() *mat.SymDense { return g.covar }

// Timestamp returns the point in time the belief refers to.
func (g Gaussian) Timestamp() time.Time { return g.ts }

// Dim returns the state dimension, or 0 for a zero-value state.
func (g Gaussian) Dim() int {
	if g.vector == nil {
		return 0
	}
	return g.vector.Len()
}

// Smoothable is the capability contract a track element must satisfy for
// the backward recursion. Predictions and Updates both implement it; the
// smoother never needs the concrete types.
type Smoothable interface {
	StateVector() *mat.VecDense
	Covariance() *mat.SymDense
	Timestamp() time.Time
	Kind() Kind

	// AssociatedPrediction returns the one-step-ahead prediction the
	// element was derived from: a Prediction returns itself, an Update
	// returns the prediction referenced by its hypothesis. May be nil
	// for malformed elements; the smoother checks before recursing.
	AssociatedPrediction() *Prediction

	// WithGaussian returns a new element of the same kind carrying the
	// replacement belief while preserving the element's hypothesis or
	// transition-model reference. The receiver is left untouched.
	WithGaussian(g Gaussian) Smoothable
}

// Prediction is a belief produced by propagating a prior state through a
// transition model, before any observation is incorporated. The model
// reference is optional; a nil model means "use the estimator's default".
type Prediction struct {
	Gaussian
	model model.Transition
}

// NewPrediction wraps a Gaussian belief as a prediction. m may be nil.
func NewPrediction(g Gaussian, m model.Transition) *Prediction {
	return &Prediction{Gaussian: g, model: m}
}

// Model returns the transition model that produced the prediction, or nil.
func (p *Prediction) Model() model.Transition { return p.model }

// Kind reports KindPrediction.
func (p *Prediction) Kind() Kind { return KindPrediction }

// AssociatedPrediction returns the prediction itself.
func (p *Prediction) AssociatedPrediction() *Prediction { return p }

// WithGaussian returns a new prediction with the replacement belief and the
// same transition-model reference.
func (p *Prediction) WithGaussian(g Gaussian) Smoothable {
	return NewPrediction(g, p.model)
}

// Update is a belief produced by correcting a prediction with an
// observation. It exclusively owns its hypothesis reference; the hypothesis
// in turn back-references (without owning) the corrected prediction.
type Update struct {
	Gaussian
	hypothesis *Hypothesis
}

// NewUpdate wraps a Gaussian belief as an update. The hypothesis is
// mandatory and must reference the prediction it corrected.
func NewUpdate(g Gaussian, h *Hypothesis) (*Update, error) {
	if h == nil || h.Prediction == nil {
		return nil, ErrNoHypothesis
	}
	return &Update{Gaussian: g, hypothesis: h}, nil
}

// Hypothesis returns the association that produced the update.
func (u *Update) Hypothesis() *Hypothesis { return u.hypothesis }

// Kind reports KindUpdate.
func (u *Update) Kind() Kind { return KindUpdate }

// AssociatedPrediction returns the prediction referenced by the update's
// hypothesis.
func (u *Update) AssociatedPrediction() *Prediction { return u.hypothesis.Prediction }

// WithGaussian returns a new update with the replacement belief and the
// same hypothesis reference.
func (u *Update) WithGaussian(g Gaussian) Smoothable {
	return &Update{Gaussian: g, hypothesis: u.hypothesis}
}
