// Package state owns the belief entities of the estimation core.
//
// Responsibilities: Gaussian states (mean, covariance, timestamp), the
// Prediction/Update specialisations and the Hypothesis link between them,
// and the Track container holding one object's estimated history.
// Key types: Gaussian, Prediction, Update, Hypothesis, Track.
//
// States are immutable once constructed: a corrected or smoothed state is
// always a newly built entity, never an in-place edit. This keeps shared
// history safe when several tracks reference overlapping states.
package state
