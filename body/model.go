// Package body provides the celestial-model contract dynamics
// contributors read from: gravitational parameter, shape, and optional
// gravitational/atmospheric sub-models. Planetary ephemerides are an
// external collaborator, injected where needed.
package body

import (
	"math"
	"time"

	"github.com/loftorbital/ostk-astro-go/frame"
)

// Harmonics is an optional zonal gravity-harmonic expansion. Only the
// low-order zonals (J2/J3/J4) are modeled; a full spherical-harmonic
// coefficient table is treated as an external collaborator.
type Harmonics struct {
	Degree int
	J2, J3, J4 float64
}

// Atmosphere is an optional exponential atmospheric density model.
type Atmosphere struct {
	Rho0   float64 // kg/m^3 at RefAltitude
	RefAlt float64 // m
	ScaleH float64 // m
}

// DensityAt returns the atmospheric density at the given geocentric
// altitude above the body's equatorial radius.
func (a *Atmosphere) DensityAt(altitude float64) float64 {
	return a.Rho0 * math.Exp(-(altitude-a.RefAlt)/a.ScaleH)
}

// Model is the celestial-body contract dynamics contributors depend on.
// Gravity and Atmosphere may be nil; contributors that need them return
// astroerr.ModelUndefined (via their own package) when absent.
type Model struct {
	Name             string
	Mu               float64 // gravitational parameter, m^3/s^2
	EquatorialRadius float64 // m
	Flattening       float64
	RotationRate     float64 // rad/s about +z
	Gravity          *Harmonics
	Atmosphere       *Atmosphere
	bodyFixed        *frame.BodyFixed
}

// BodyFixedFrame returns the body-fixed rotating frame used by drag and
// harmonic-gravity evaluation, anchored so the body-fixed x-axis aligns
// with the inertial x-axis at epoch (a simplification of the Earth
// orientation service this module keeps external).
func (m *Model) BodyFixedFrame(epoch time.Time) *frame.BodyFixed {
	if m.bodyFixed == nil {
		m.bodyFixed = frame.NewBodyFixed(m.Name+"-fixed", m.RotationRate, epoch, 0)
	}
	return m.bodyFixed
}

// PositionIn returns this body's position in the given frame at instant
// t. The core treats third-body ephemerides as caller-supplied; Fixed
// wraps a constant (e.g. a mean Moon/Sun position for a test fixture) and
// satisfies this for the scope this module owns directly.
type Ephemeris interface {
	PositionIn(f frame.Frame, at time.Time) []float64
}

// Fixed is a constant-position Ephemeris, used for test fixtures and for
// any third body whose motion the caller precomputes externally.
type Fixed struct {
	Pos []float64
}

func (f Fixed) PositionIn(_ frame.Frame, _ time.Time) []float64 {
	return f.Pos
}

// Earth carries the EGM96 low-order zonals and a 500 km-referenced
// exponential atmosphere.
var Earth = &Model{
	Name:             "Earth",
	Mu:               3.98600433e14,
	EquatorialRadius: 6378136.3,
	Flattening:       1 / 298.257223563,
	RotationRate:     7.292115e-5,
	Gravity: &Harmonics{
		Degree: 4,
		J2:     1082.6269e-6,
		J3:     -2.5324e-6,
		J4:     -1.6204e-6,
	},
	Atmosphere: &Atmosphere{
		Rho0:   6.967e-13,
		RefAlt: 500000,
		ScaleH: 63822,
	},
}

// Sun has no harmonic/atmospheric sub-models; third bodies are treated
// as point masses.
var Sun = &Model{
	Name: "Sun",
	Mu:   1.32712440018e20,
}

// Moon is a fixture with no harmonic/atmospheric sub-models.
var Moon = &Model{
	Name: "Moon",
	Mu:   4.9028000661e12,
}
