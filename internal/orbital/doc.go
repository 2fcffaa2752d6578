// Package orbital supplies transition models for unperturbed two-body
// orbital motion, in two interchangeable forms: MeanMotion advances
// Keplerian elements, Cartesian advances an inertial position/velocity
// vector via the universal-variable formulation. Both satisfy the
// model.Transition contract and agree with each other to floating-point
// tolerance, which the tests treat as a first-class property.
//
// The iterative solves (Kepler's equation and its universal-variable
// generalisation) live in kepler.go behind explicit tolerance and
// iteration-cap parameters.
package orbital
