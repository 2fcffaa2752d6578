package state

import "gonum.org/v1/gonum/mat"

// Hypothesis associates a prediction with the measurement used to correct
// it. The estimation core consumes hypotheses (reading the Prediction
// back-reference during smoothing) but does not validate or generate them;
// that belongs to association logic outside this module.
type Hypothesis struct {
	// Prediction is the belief the measurement was scored against.
	// Back-reference only: the hypothesis does not own the prediction.
	Prediction *Prediction

	// Measurement is the observation vector, if known.
	Measurement *mat.VecDense
}
