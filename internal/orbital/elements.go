package orbital

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// EarthGM is the geocentric gravitational parameter in km³/s².
const EarthGM = 398600.4418

// degeneracyTol is the threshold below which an orbit is treated as
// circular or equatorial when recovering angles from a Cartesian state.
const degeneracyTol = 1e-11

// Elements are classical Keplerian orbital elements. Angles are radians,
// lengths kilometres, so the matching gravitational parameter is km³/s².
type Elements struct {
	SemiMajorAxis float64 // a
	Eccentricity  float64 // e
	Inclination   float64 // i
	RAAN          float64 // Ω, right ascension of the ascending node
	ArgPerigee    float64 // ω
	MeanAnomaly   float64 // M
}

// Element-vector layout used by the element-space transition models:
// [a e i Ω ω M].
const (
	idxSemiMajorAxis = 0
	idxEccentricity  = 1
	idxInclination   = 2
	idxRAAN          = 3
	idxArgPerigee    = 4
	idxMeanAnomaly   = 5
)

// ElementsDim is the dimension of the element state vector.
const ElementsDim = 6

// Vector packs the elements into the canonical 6-vector layout.
func (el Elements) Vector() *mat.VecDense {
	return mat.NewVecDense(ElementsDim, []float64{
		el.SemiMajorAxis, el.Eccentricity, el.Inclination,
		el.RAAN, el.ArgPerigee, el.MeanAnomaly,
	})
}

// ElementsFromVector unpacks a 6-vector in the canonical layout.
func ElementsFromVector(v *mat.VecDense) (Elements, error) {
	if v == nil || v.Len() != ElementsDim {
		return Elements{}, fmt.Errorf("element vector must have dimension %d", ElementsDim)
	}
	return Elements{
		SemiMajorAxis: v.AtVec(idxSemiMajorAxis),
		Eccentricity:  v.AtVec(idxEccentricity),
		Inclination:   v.AtVec(idxInclination),
		RAAN:          v.AtVec(idxRAAN),
		ArgPerigee:    v.AtVec(idxArgPerigee),
		MeanAnomaly:   v.AtVec(idxMeanAnomaly),
	}, nil
}

// Validate checks the elements describe a physically meaningful bound
// orbit: positive semi-major axis and elliptical eccentricity.
func (el Elements) Validate() error {
	if el.SemiMajorAxis <= 0 {
		return fmt.Errorf("semi-major axis must be positive, got %g", el.SemiMajorAxis)
	}
	if el.Eccentricity < 0 || el.Eccentricity >= 1 {
		return fmt.Errorf("eccentricity must lie in [0, 1), got %g", el.Eccentricity)
	}
	return nil
}

// MeanMotionRate returns the mean motion n = √(μ/a³) in rad/s.
func (el Elements) MeanMotionRate(gm float64) float64 {
	a := el.SemiMajorAxis
	return math.Sqrt(gm / (a * a * a))
}

// Cartesian converts the elements to an inertial [x y z vx vy vz] vector.
// The mean-to-eccentric anomaly step requires the Kepler solver, so the
// conversion can fail on non-convergence. Nothing is cached: the result is
// re-derived from the elements on every call.
func (el Elements) Cartesian(gm float64, cfg SolverConfig) (*mat.VecDense, error) {
	if err := el.Validate(); err != nil {
		return nil, err
	}
	ea, err := SolveEccentricAnomaly(el.MeanAnomaly, el.Eccentricity, cfg)
	if err != nil {
		return nil, err
	}

	e := el.Eccentricity
	// True anomaly from eccentric anomaly, quadrant-safe.
	nu := 2 * math.Atan2(math.Sqrt(1+e)*math.Sin(ea/2), math.Sqrt(1-e)*math.Cos(ea/2))

	p := el.SemiMajorAxis * (1 - e*e)
	r := p / (1 + e*math.Cos(nu))

	// Perifocal position and velocity.
	rPF := [3]float64{r * math.Cos(nu), r * math.Sin(nu), 0}
	vScale := math.Sqrt(gm / p)
	vPF := [3]float64{-vScale * math.Sin(nu), vScale * (e + math.Cos(nu)), 0}

	cO, sO := math.Cos(el.RAAN), math.Sin(el.RAAN)
	ci, si := math.Cos(el.Inclination), math.Sin(el.Inclination)
	cw, sw := math.Cos(el.ArgPerigee), math.Sin(el.ArgPerigee)

	// Perifocal-to-inertial rotation R3(−Ω)·R1(−i)·R3(−ω).
	rot := [3][3]float64{
		{cO*cw - sO*sw*ci, -cO*sw - sO*cw*ci, sO * si},
		{sO*cw + cO*sw*ci, -sO*sw + cO*cw*ci, -cO * si},
		{sw * si, cw * si, ci},
	}

	out := mat.NewVecDense(6, nil)
	for i := 0; i < 3; i++ {
		out.SetVec(i, rot[i][0]*rPF[0]+rot[i][1]*rPF[1]+rot[i][2]*rPF[2])
		out.SetVec(3+i, rot[i][0]*vPF[0]+rot[i][1]*vPF[1]+rot[i][2]*vPF[2])
	}
	return out, nil
}

// ElementsFromCartesian recovers Keplerian elements from an inertial
// [x y z vx vy vz] vector. Closed-form (no iteration). Degenerate
// geometries are handled so a round trip through Cartesian reproduces the
// elements: circular orbits take ω = 0 and equatorial prograde orbits take
// Ω = 0 with ω measured from the inertial x-axis. Near-equatorial
// retrograde orbits are outside the supported region.
func ElementsFromCartesian(rv *mat.VecDense, gm float64) (Elements, error) {
	if rv == nil || rv.Len() != 6 {
		return Elements{}, fmt.Errorf("cartesian state must have dimension 6")
	}
	rx, ry, rz := rv.AtVec(0), rv.AtVec(1), rv.AtVec(2)
	vx, vy, vz := rv.AtVec(3), rv.AtVec(4), rv.AtVec(5)

	r := math.Sqrt(rx*rx + ry*ry + rz*rz)
	v2 := vx*vx + vy*vy + vz*vz
	rdotv := rx*vx + ry*vy + rz*vz

	// Specific angular momentum h = r × v.
	hx := ry*vz - rz*vy
	hy := rz*vx - rx*vz
	hz := rx*vy - ry*vx
	h := math.Sqrt(hx*hx + hy*hy + hz*hz)
	if h < degeneracyTol {
		return Elements{}, fmt.Errorf("degenerate rectilinear state: |r x v| ~ 0")
	}

	// Eccentricity vector e = ((v² − μ/r)·r − (r·v)·v)/μ.
	k1 := (v2 - gm/r) / gm
	k2 := rdotv / gm
	ex := k1*rx - k2*vx
	ey := k1*ry - k2*vy
	ez := k1*rz - k2*vz
	ecc := math.Sqrt(ex*ex + ey*ey + ez*ez)
	if ecc >= 1 {
		return Elements{}, fmt.Errorf("non-elliptical orbit (e=%.6g) unsupported", ecc)
	}

	energy := v2/2 - gm/r
	a := -gm / (2 * energy)

	inc := math.Acos(clamp(hz / h))

	// Node vector n = ẑ × h.
	nx, ny := -hy, hx
	nmag := math.Sqrt(nx*nx + ny*ny)

	var raan, argp, nu float64
	switch {
	case nmag > degeneracyTol && ecc > degeneracyTol:
		raan = mod2Pi(math.Atan2(ny, nx))
		argp = math.Acos(clamp((nx*ex + ny*ey) / (nmag * ecc)))
		if ez < 0 {
			argp = 2*math.Pi - argp
		}
		nu = math.Acos(clamp((ex*rx + ey*ry + ez*rz) / (ecc * r)))
		if rdotv < 0 {
			nu = 2*math.Pi - nu
		}
	case nmag <= degeneracyTol && ecc > degeneracyTol:
		// Equatorial, elliptical: Ω undefined, measure ω from x-axis.
		raan = 0
		argp = mod2Pi(math.Atan2(ey, ex))
		nu = math.Acos(clamp((ex*rx + ey*ry + ez*rz) / (ecc * r)))
		if rdotv < 0 {
			nu = 2*math.Pi - nu
		}
	case nmag > degeneracyTol:
		// Circular inclined: ω undefined, measure ν from the node.
		raan = mod2Pi(math.Atan2(ny, nx))
		argp = 0
		nu = math.Acos(clamp((nx*rx + ny*ry) / (nmag * r)))
		if rz < 0 {
			nu = 2*math.Pi - nu
		}
	default:
		// Circular equatorial: true longitude from the x-axis.
		raan = 0
		argp = 0
		nu = mod2Pi(math.Atan2(ry, rx))
	}

	// Eccentric then mean anomaly, quadrant-safe.
	ea := 2 * math.Atan2(math.Sqrt(1-ecc)*math.Sin(nu/2), math.Sqrt(1+ecc)*math.Cos(nu/2))
	m := mod2Pi(ea - ecc*math.Sin(ea))

	return Elements{
		SemiMajorAxis: a,
		Eccentricity:  ecc,
		Inclination:   inc,
		RAAN:          raan,
		ArgPerigee:    argp,
		MeanAnomaly:   m,
	}, nil
}

func clamp(x float64) float64 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
