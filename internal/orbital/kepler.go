package orbital

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoConvergence is returned when an iterative solve exhausts its
// iteration budget. It is never swallowed: a best-effort anomaly is worse
// than a reported failure.
var ErrNoConvergence = errors.New("iteration budget exhausted")

// SolverConfig bounds the iterative root-finders. Both solvers refuse to
// loop unboundedly; non-convergence surfaces as an error carrying the
// iteration count and final residual.
type SolverConfig struct {
	// Tolerance is the convergence threshold on the solver residual
	// (radians for the eccentric-anomaly solve, relative step size for
	// the universal-variable solve).
	Tolerance float64

	// MaxIterations caps the Newton iteration count.
	MaxIterations int
}

// DefaultSolverConfig returns the tolerances used when no tuning config is
// supplied.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{Tolerance: 1e-12, MaxIterations: 60}
}

// SolveEccentricAnomaly solves Kepler's equation M = E − e·sin(E) for the
// eccentric anomaly E by Newton iteration. Valid for elliptical orbits
// (0 ≤ e < 1); the convergence criterion is the equation residual.
func SolveEccentricAnomaly(meanAnomaly, eccentricity float64, cfg SolverConfig) (float64, error) {
	if eccentricity < 0 || eccentricity >= 1 {
		return 0, fmt.Errorf("kepler: eccentricity %g outside elliptical range [0, 1)", eccentricity)
	}

	m := mod2Pi(meanAnomaly)
	// Standard starter: M itself is close enough for low eccentricity;
	// high-eccentricity orbits start at π to keep Newton in basin.
	e0 := m
	if eccentricity > 0.8 {
		e0 = math.Pi
	}

	ea := e0
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		f := ea - eccentricity*math.Sin(ea) - m
		if math.Abs(f) < cfg.Tolerance {
			return ea, nil
		}
		ea -= f / (1 - eccentricity*math.Cos(ea))
	}
	residual := ea - eccentricity*math.Sin(ea) - m
	return 0, fmt.Errorf("kepler: eccentric anomaly solve (e=%.6g, M=%.6g): %w after %d iterations, residual %.3e",
		eccentricity, m, ErrNoConvergence, cfg.MaxIterations, residual)
}

// solveUniversalAnomaly solves the generalised (universal-variable) Kepler
// equation for χ given the initial radius r0, radial velocity vr0, inverse
// semi-major axis alpha and the signed interval dt in seconds. Elliptical
// orbits only (alpha > 0); that is the region of validity of the Cartesian
// transition model.
func solveUniversalAnomaly(r0, vr0, alpha, sqrtGM, dt float64, cfg SolverConfig) (float64, error) {
	if alpha <= 0 {
		return 0, fmt.Errorf("universal kepler: non-elliptical orbit (alpha=%.6g) unsupported", alpha)
	}

	chi := sqrtGM * alpha * dt
	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		z := alpha * chi * chi
		c, s := stumpffC(z), stumpffS(z)
		f := r0*vr0/sqrtGM*chi*chi*c + (1-alpha*r0)*chi*chi*chi*s + r0*chi - sqrtGM*dt
		fp := r0*vr0/sqrtGM*chi*(1-z*s) + (1-alpha*r0)*chi*chi*c + r0
		step := f / fp
		chi -= step
		if math.Abs(step) <= cfg.Tolerance*math.Max(1, math.Abs(chi)) {
			return chi, nil
		}
	}
	return 0, fmt.Errorf("universal kepler: χ solve (dt=%.3gs): %w after %d iterations",
		dt, ErrNoConvergence, cfg.MaxIterations)
}

// stumpffC is the Stumpff function C(z) = (1 − cos√z)/z continued through
// z ≤ 0.
func stumpffC(z float64) float64 {
	switch {
	case z > 1e-8:
		sq := math.Sqrt(z)
		return (1 - math.Cos(sq)) / z
	case z < -1e-8:
		sq := math.Sqrt(-z)
		return (math.Cosh(sq) - 1) / -z
	default:
		// Series about zero avoids cancellation near z = 0.
		return 1.0/2 - z/24 + z*z/720
	}
}

// stumpffS is the Stumpff function S(z) = (√z − sin√z)/√z³ continued
// through z ≤ 0.
func stumpffS(z float64) float64 {
	switch {
	case z > 1e-8:
		sq := math.Sqrt(z)
		return (sq - math.Sin(sq)) / (sq * sq * sq)
	case z < -1e-8:
		sq := math.Sqrt(-z)
		return (math.Sinh(sq) - sq) / (sq * sq * sq)
	default:
		return 1.0/6 - z/120 + z*z/5040
	}
}

// mod2Pi reduces an angle to [0, 2π).
func mod2Pi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
