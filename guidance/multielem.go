package guidance

import (
	"math"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// Per-element optimal low-thrust steering from Ruggiero, Marcuccio and
// Andrenucci, "Low-Thrust Maneuvers for the Efficient Correction of
// Orbital Elements" (IEPC 2011). Directions are built in the QSW
// (radial, along-track, cross-track) triad and rotated into the state's
// frame on the way out.

// Default convergence tolerances on the element gaps: a semi-major axis
// within 20 km, an eccentricity within 5e-5 and an angle within 0.005
// degrees count as reached.
const (
	DefaultDistanceTol     = 2e4
	DefaultEccentricityTol = 5e-5
	DefaultAngleTol        = (5e-3 / 360) * (2 * math.Pi)
)

type element int

const (
	elSMA element = iota
	elEcc
	elInc
	elRAAN
	elArgP
)

// unitFromAngles builds the QSW unit thrust from the in-plane angle
// alpha (measured from along-track) and the out-of-plane angle beta.
func unitFromAngles(alpha, beta float64) []float64 {
	sinA, cosA := math.Sincos(alpha)
	sinB, cosB := math.Sincos(beta)
	return []float64{sinA * cosB, cosA * cosB, sinB}
}

// optimalQSW returns the per-element optimal unit thrust direction in
// the QSW triad at the osculating (elements, true anomaly) point.
func optimalQSW(el element, o ClassicalElements, nu, rNorm float64) []float64 {
	sinNu, cosNu := math.Sincos(nu)
	switch el {
	case elSMA:
		return unitFromAngles(math.Atan2(o.Ecc*sinNu, 1+o.Ecc*cosNu), 0)
	case elEcc:
		cosE := (o.Ecc + cosNu) / (1 + o.Ecc*cosNu)
		return unitFromAngles(math.Atan2(sinNu, cosNu+cosE), 0)
	case elInc:
		return unitFromAngles(0, linalg.Sign(math.Cos(o.ArgP+nu))*math.Pi/2)
	case elRAAN:
		return unitFromAngles(0, linalg.Sign(math.Sin(o.ArgP+nu))*math.Pi/2)
	default: // elArgP
		// In-plane and out-of-plane corrections compete; pick whichever
		// the current true anomaly is closer to being optimal for.
		e := o.Ecc
		oe2 := 1 - e*e
		e3 := e * e * e
		disc := math.Sqrt(0.25*math.Pow(oe2/e3, 2) + 1/27.)
		nuOptA := math.Acos(math.Pow(oe2/(2*e3)+disc, 1/3.) - math.Pow(-oe2/(2*e3)+disc, 1/3.) - 1/e)
		nuOptB := math.Acos(-e*math.Cos(o.ArgP)) - o.ArgP
		if math.Abs(nu-nuOptA) < math.Abs(nu-nuOptB) {
			p := o.SMA * oe2
			return unitFromAngles(math.Atan2(-p*cosNu, (p+rNorm)*sinNu), 0)
		}
		return unitFromAngles(0, linalg.Sign(-math.Sin(o.ArgP+nu))*math.Cos(o.Inc)*math.Pi/2)
	}
}

// trueAnomalyOf recovers the osculating true anomaly for (r, v) under
// mu, falling back to the argument of latitude for near-circular orbits.
func trueAnomalyOf(r, v []float64, mu float64) float64 {
	h := linalg.Cross(r, v)
	eVec := linalg.Sub(linalg.Scale(1/mu, linalg.Cross(v, h)), linalg.Unit(r))
	ecc := linalg.Norm(eVec)
	rNorm := linalg.Norm(r)
	if ecc > 1e-12 {
		nu := math.Acos(clamp(linalg.Dot(eVec, r)/(ecc*rNorm), -1, 1))
		if linalg.Dot(r, v) < 0 {
			nu = 2*math.Pi - nu
		}
		return nu
	}
	n := linalg.Cross([]float64{0, 0, 1}, h)
	if linalg.Norm(n) > 1e-12 {
		nu := math.Acos(clamp(linalg.Dot(n, r)/(linalg.Norm(n)*rNorm), -1, 1))
		if r[2] < 0 {
			nu = 2*math.Pi - nu
		}
		return nu
	}
	return math.Atan2(r[1], r[0])
}

// multiElement carries the shared bookkeeping of the two summation
// methods: the target elements, the convergence tolerances, and the
// initial elements captured on the first evaluation (the per-element
// weights are normalized against the initial gap).
type multiElement struct {
	Mu     float64
	Target ClassicalElements

	DistanceTol     float64
	EccentricityTol float64
	AngleTol        float64

	initd   bool
	initial ClassicalElements
	cleared bool
}

// Cleared reports whether every targeted element was inside its
// tolerance at the law's most recent evaluation.
func (m *multiElement) Cleared() bool { return m.cleared }

func (m *multiElement) begin(o ClassicalElements) bool {
	if !m.initd {
		m.initd = true
		m.initial = o
		return false
	}
	m.cleared = true
	return true
}

type elementGap struct {
	el                   element
	oscul, init, target  float64
	tol                  float64
}

func (m *multiElement) gaps(o ClassicalElements) []elementGap {
	return []elementGap{
		{elSMA, o.SMA, m.initial.SMA, m.Target.SMA, m.DistanceTol},
		{elEcc, o.Ecc, m.initial.Ecc, m.Target.Ecc, m.EccentricityTol},
		{elInc, o.Inc, m.initial.Inc, m.Target.Inc, m.AngleTol},
		{elRAAN, o.RAAN, m.initial.RAAN, m.Target.RAAN, m.AngleTol},
		{elArgP, o.ArgP, m.initial.ArgP, m.Target.ArgP, m.AngleTol},
	}
}

// RuggieroMultiElement sums the per-element optimal directions weighted
// by the remaining fraction of each element's initial gap.
type RuggieroMultiElement struct {
	multiElement
}

// NewRuggieroMultiElement targets the given classical elements with the
// default tolerances.
func NewRuggieroMultiElement(mu float64, target ClassicalElements) *RuggieroMultiElement {
	return &RuggieroMultiElement{multiElement{
		Mu:              mu,
		Target:          target,
		DistanceTol:     DefaultDistanceTol,
		EccentricityTol: DefaultEccentricityTol,
		AngleTol:        DefaultAngleTol,
	}}
}

func (c *RuggieroMultiElement) Name() string { return "ruggiero-multi-element" }

func (c *RuggieroMultiElement) Direction(s *coordinate.State) ([]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	o := Elements(r, v, c.Mu)
	if !c.begin(o) {
		return []float64{0, 0, 0}, nil
	}
	nu := trueAnomalyOf(r, v, c.Mu)
	rNorm := linalg.Norm(r)

	thrust := []float64{0, 0, 0}
	for _, g := range c.gaps(o) {
		if math.Abs(g.oscul-g.target) <= g.tol {
			continue
		}
		init := g.init
		if math.Abs(init-g.target) <= g.tol {
			// Avoid a vanishing denominator when the element drifted out
			// of an initially-converged band.
			init += g.tol
		}
		fact := (g.target - g.oscul) / math.Abs(g.target-init)
		c.cleared = false
		dir := optimalQSW(g.el, o, nu, rNorm)
		for i := 0; i < 3; i++ {
			thrust[i] += fact * dir[i]
		}
	}
	return frame.ToInertial(frame.QSW, r, v, linalg.Unit(thrust)), nil
}

// NaaszMultiElement sums the per-element optimal directions with the
// quadratic gain schedule from Naasz's proportional feedback law (signed
// per element, since the quadratic gap loses the correction direction).
type NaaszMultiElement struct {
	multiElement
}

// NewNaaszMultiElement targets the given classical elements with the
// default tolerances.
func NewNaaszMultiElement(mu float64, target ClassicalElements) *NaaszMultiElement {
	return &NaaszMultiElement{multiElement{
		Mu:              mu,
		Target:          target,
		DistanceTol:     DefaultDistanceTol,
		EccentricityTol: DefaultEccentricityTol,
		AngleTol:        DefaultAngleTol,
	}}
}

func (c *NaaszMultiElement) Name() string { return "naasz-multi-element" }

func (c *NaaszMultiElement) Direction(s *coordinate.State) ([]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	o := Elements(r, v, c.Mu)
	if !c.begin(o) {
		return []float64{0, 0, 0}, nil
	}
	nu := trueAnomalyOf(r, v, c.Mu)
	rNorm := linalg.Norm(r)

	e := o.Ecc
	p := o.SMA * (1 - e*e)
	h := linalg.Norm(linalg.Cross(r, v))
	sinW, cosW := math.Sincos(o.ArgP)

	thrust := []float64{0, 0, 0}
	for _, g := range c.gaps(o) {
		dO := g.target - g.oscul
		if g.el == elRAAN || g.el == elArgP {
			if dO > math.Pi {
				// Take the short way around to the target angle.
				dO *= -1
			}
		}
		if math.Abs(dO) <= g.tol {
			continue
		}
		var weight float64
		switch g.el {
		case elSMA:
			weight = linalg.Sign(dO) * h * h / (4 * math.Pow(o.SMA, 4) * math.Pow(1+e, 2))
		case elEcc:
			weight = linalg.Sign(dO) * h * h / (4 * p * p)
		case elInc:
			weight = linalg.Sign(dO) * math.Pow((h+e*h*math.Cos(o.ArgP+math.Asin(e*sinW)))/(p*(math.Pow(e*sinW, 2)-1)), 2)
		case elRAAN:
			weight = linalg.Sign(dO) * math.Pow((h*math.Sin(o.Inc)*(e*math.Sin(o.ArgP+math.Asin(e*cosW))-1))/(p*(1-math.Pow(e*cosW, 2))), 2)
		case elArgP:
			weight = linalg.Sign(dO) * (math.Pow(e*h, 2) / (4 * p * p)) * (1 - e*e/4)
		}
		c.cleared = false
		fact := 0.5 * weight * dO * dO
		dir := optimalQSW(g.el, o, nu, rNorm)
		for i := 0; i < 3; i++ {
			thrust[i] += fact * dir[i]
		}
	}
	return frame.ToInertial(frame.QSW, r, v, linalg.Unit(thrust)), nil
}
