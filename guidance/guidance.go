// Package guidance maps spacecraft state to thrust direction:
// pluggable Law values a dynamics.Thruster consumes, from fixed
// local-orbital-frame directions to element-targeting laws.
package guidance

import (
	"math"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/linalg"
	"github.com/loftorbital/ostk-astro-go/stm"
)

// Law computes a unit thrust direction from spacecraft state. The
// direction is returned already expressed in the same frame as the
// state passed in (local-orbital triads are rebuilt from that state's
// own position/velocity every evaluation); dynamics.Thruster is
// responsible for any further rotation into the integration frame.
type Law interface {
	Name() string
	Direction(s *coordinate.State) ([]float64, error)
}

// Coast is the null guidance law: zero-magnitude direction, used by
// coast segments that carry a thruster with no active guidance.
type Coast struct{}

func (Coast) Name() string { return "coast" }
func (Coast) Direction(_ *coordinate.State) ([]float64, error) {
	return []float64{0, 0, 0}, nil
}

// ConstantLocalFrameDirection fires a fixed direction expressed in a
// local-orbital frame (LVLH/VNC/QSW/TNW), rebuilt from the state's
// current position/velocity at every evaluation.
type ConstantLocalFrameDirection struct {
	Orbital frame.LocalOrbital
	Local   []float64 // unit vector in the local-orbital triad
}

// Tangential and AntiTangential thrust along and against the velocity.
func Tangential() *ConstantLocalFrameDirection {
	return &ConstantLocalFrameDirection{Orbital: frame.VNC, Local: []float64{1, 0, 0}}
}

func AntiTangential() *ConstantLocalFrameDirection {
	return &ConstantLocalFrameDirection{Orbital: frame.VNC, Local: []float64{-1, 0, 0}}
}

func (c *ConstantLocalFrameDirection) Name() string { return "constant-local-frame-direction" }

func (c *ConstantLocalFrameDirection) Direction(s *coordinate.State) ([]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	return linalg.Unit(frame.ToInertial(c.Orbital, r, v, c.Local)), nil
}

// ClassicalElements is the minimal set of classical orbital elements
// QLaw's Lyapunov penalty is built from; callers (stm/od or a dedicated
// elements package outside this core) are responsible for producing
// these from a Cartesian state and a central-body mu.
type ClassicalElements struct {
	SMA, Ecc, Inc, RAAN, ArgP float64
}

// Elements converts a Cartesian (position, velocity) pair under mu into
// classical elements, used both to seed QLaw targets and to evaluate its
// current state.
func Elements(r, v []float64, mu float64) ClassicalElements {
	h := linalg.Cross(r, v)
	rNorm, vNorm := linalg.Norm(r), linalg.Norm(v)
	energy := vNorm*vNorm/2 - mu/rNorm
	sma := -mu / (2 * energy)
	eVec := linalg.Sub(linalg.Scale(1/mu, linalg.Cross(v, h)), linalg.Unit(r))
	ecc := linalg.Norm(eVec)
	hNorm := linalg.Norm(h)
	inc := math.Acos(clamp(h[2]/hNorm, -1, 1))
	n := linalg.Cross([]float64{0, 0, 1}, h)
	nNorm := linalg.Norm(n)
	raan := 0.0
	if nNorm > 1e-12 {
		raan = math.Acos(clamp(n[0]/nNorm, -1, 1))
		if n[1] < 0 {
			raan = 2*math.Pi - raan
		}
	}
	argp := 0.0
	if nNorm > 1e-12 && ecc > 1e-12 {
		argp = math.Acos(clamp(linalg.Dot(n, eVec)/(nNorm*ecc), -1, 1))
		if eVec[2] < 0 {
			argp = 2*math.Pi - argp
		}
	}
	return ClassicalElements{SMA: sma, Ecc: ecc, Inc: inc, RAAN: raan, ArgP: argp}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// QLaw computes the thrust direction that locally reduces a Lyapunov
// penalty built from the gap between current and target classical
// elements (Petropoulos Q-law). Singularities at e=0 and i=0 are
// guarded by clamping both away from zero before evaluating Q.
type QLaw struct {
	Mu       float64
	Target   ClassicalElements
	Weights  [5]float64 // per-element scaling, order: sma, ecc, inc, raan, argp
	EccFloor float64
	IncFloor float64
	Eps      float64 // finite-difference step for dQ/dstate
}

// NewQLaw returns a QLaw with uniform element weights and a 1e-6
// singularity floor/fd step.
func NewQLaw(mu float64, target ClassicalElements) *QLaw {
	return &QLaw{
		Mu:       mu,
		Target:   target,
		Weights:  [5]float64{1, 1, 1, 1, 1},
		EccFloor: 1e-3,
		IncFloor: 1e-3,
		Eps:      1e-6,
	}
}

func (q *QLaw) Name() string { return "q-law" }

// q evaluates the Lyapunov penalty at a Cartesian (r, v) pair.
func (q *QLaw) q(rv []float64) []float64 {
	r, v := rv[0:3], rv[3:6]
	el := Elements(r, v, q.Mu)
	ecc := math.Max(el.Ecc, q.EccFloor)
	inc := math.Max(el.Inc, q.IncFloor)
	tEcc := math.Max(q.Target.Ecc, q.EccFloor)
	tInc := math.Max(q.Target.Inc, q.IncFloor)

	d := func(w, cur, target float64) float64 {
		delta := cur - target
		return w * delta * delta
	}
	sum := d(q.Weights[0], el.SMA, q.Target.SMA) +
		d(q.Weights[1], ecc, tEcc) +
		d(q.Weights[2], inc, tInc) +
		d(q.Weights[3], el.RAAN, q.Target.RAAN) +
		d(q.Weights[4], el.ArgP, q.Target.ArgP)
	return []float64{sum}
}

// Direction evaluates dQ/dstate by central differences over (r, v) and
// returns the unit vector opposite the gradient's velocity-block
// component (steepest Lyapunov descent with respect to an impulsive
// velocity change).
func (q *QLaw) Direction(s *coordinate.State) ([]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	rv := append(append([]float64{}, r...), v...)
	eps := stm.UniformEps(6, q.Eps)
	jac := stm.Jacobian(rv, eps, q.q)
	grad := jac[0] // 1x6 row: dQ/d(r,v)
	gradV := grad[3:6]
	dir := linalg.Scale(-1, gradV)
	return linalg.Unit(dir), nil
}
