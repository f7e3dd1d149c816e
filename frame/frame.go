// Package frame provides the rigid rotation transforms consumed by
// coordinate.State.InFrame: elementary axis rotations, 3-1-3 Euler
// sequences, and the local-orbital frame triads (LVLH, VNC, QSW, TNW)
// built from the current position and velocity.
//
// The time/Earth-orientation service itself is out of scope here;
// Inertial is the only frame with no rotating-frame correction, and it
// is what every example fixture in this module assumes as "GCRF".
package frame

import (
	"math"
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// R1, R2, R3 perform a right-handed rotation of x radians about the
// named axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation (Schaub & Junkins
// convention), used to build body-fixed-to-inertial transforms for
// harmonic gravity.
func R3R1R3(t1, t2, t3 float64) *mat64.Dense {
	s1, c1 := math.Sincos(t1)
	s2, c2 := math.Sincos(t2)
	s3, c3 := math.Sincos(t3)
	return mat64.NewDense(3, 3, []float64{
		c3*c1 - s3*c2*s1, c3*s1 + s3*c2*c1, s3 * s2,
		-s3*c1 - c3*c2*s1, -s3*s1 + c3*c2*c1, c3 * s2,
		s2 * s1, -s2 * c1, c2,
	})
}

// Frame is a named reference frame. It satisfies coordinate.Frame and,
// when it carries a rotating-frame correction, coordinate.Rotator.
type Frame interface {
	Name() string
}

// Inertial is a non-rotating frame (GCRF/EME2000-equivalent in this
// module's scope); transforms between two Inertial frames are the
// identity, treating Earth-orientation and ITRF/GCRF/TEME conversions
// as an external collaborator.
type Inertial struct{ name string }

// NewInertial returns an Inertial frame identified by name (e.g. "GCRF",
// "J2000").
func NewInertial(name string) *Inertial { return &Inertial{name} }

func (f *Inertial) Name() string { return f.name }

func (f *Inertial) RotatePositionAt(p []float64, at time.Time) []float64 {
	out := make([]float64, len(p))
	copy(out, p)
	return out
}

func (f *Inertial) RotateVelocityAt(p, v []float64, at time.Time) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// BodyFixed is a uniformly-rotating frame about the z-axis at angular
// rate omega, used by the third-body and drag contributors to resolve
// the body-fixed gravity/atmosphere evaluation without depending on a
// concrete Earth-orientation service.
type BodyFixed struct {
	name  string
	omega float64 // rad/s about +z
	epoch time.Time
	theta0 float64 // rotation angle at epoch
}

// NewBodyFixed returns a body-fixed frame rotating at omega rad/s about
// +z, with rotation angle theta0 at epoch.
func NewBodyFixed(name string, omega float64, epoch time.Time, theta0 float64) *BodyFixed {
	return &BodyFixed{name, omega, epoch, theta0}
}

func (f *BodyFixed) Name() string { return f.name }

// ThetaAt returns the body-fixed rotation angle at t.
func (f *BodyFixed) ThetaAt(t time.Time) float64 {
	return f.theta0 + f.omega*t.Sub(f.epoch).Seconds()
}

// RotatePositionAt rotates an inertial position into the body-fixed frame
// at instant t.
func (f *BodyFixed) RotatePositionAt(p []float64, t time.Time) []float64 {
	return linalg.MxV(R3(f.ThetaAt(t)), p)
}

// RotateVelocityAt rotates an inertial velocity into the body-fixed frame
// at instant t, subtracting the transport term omega x r.
func (f *BodyFixed) RotateVelocityAt(p, v []float64, t time.Time) []float64 {
	omega := []float64{0, 0, f.omega}
	vRel := linalg.Sub(v, linalg.Cross(omega, p))
	return linalg.MxV(R3(f.ThetaAt(t)), vRel)
}

// LocalOrbital identifies one of the standard local-orbital frame
// conventions built from a state's position and velocity.
type LocalOrbital int

const (
	// LVLH here uses the common radial/along-track/cross-track (RIC)
	// triad: x=radial, z=orbit-normal, y completes.
	LVLH LocalOrbital = iota
	// VNC: x=velocity, y=orbit-normal (r x v), z completes.
	VNC
	// QSW (RSW): x=radial, y=along-track, z=cross-track (same triad as LVLH here).
	QSW
	// TNW: x=tangential(velocity), y=in-plane normal, z=orbit-normal.
	TNW
)

// Triad returns the (x, y, z) unit vectors of the named local-orbital
// frame built from position r and velocity v.
func Triad(kind LocalOrbital, r, v []float64) (x, y, z []float64) {
	h := linalg.Cross(r, v)
	switch kind {
	case VNC:
		x = linalg.Unit(v)
		z = linalg.Unit(h)
		y = linalg.Cross(z, x)
	case TNW:
		x = linalg.Unit(v)
		z = linalg.Unit(h)
		y = linalg.Cross(z, x)
	default: // LVLH, QSW/RSW
		x = linalg.Unit(r)
		z = linalg.Unit(h)
		y = linalg.Cross(z, x)
	}
	return
}

// ToInertial rotates a vector expressed in the local-orbital triad (kind)
// at (r, v) into the frame r/v are themselves expressed in.
func ToInertial(kind LocalOrbital, r, v, localVec []float64) []float64 {
	x, y, z := Triad(kind, r, v)
	out := make([]float64, 3)
	for i := 0; i < 3; i++ {
		out[i] = localVec[0]*x[i] + localVec[1]*y[i] + localVec[2]*z[i]
	}
	return out
}
