package dynamics

import (
	"fmt"
	"math"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// CentralBodyGravity writes d(velocity)/dt = -mu*r/|r|^3 plus, when the
// body carries a harmonic expansion, the zonal (J2/J3/J4) perturbation.
//
// Because J2/J3/J4 are axisymmetric (zonal) about the body's rotation
// axis, and the body-fixed frame here only differs from the integration
// frame by a rotation about that same axis, the closed-form zonal
// acceleration evaluates identically whether applied to body-fixed or
// inertial coordinates: no explicit body-fixed rotate/un-rotate is
// needed. Higher (tesseral/sectoral) terms would need it; this module's
// scope is zonal-only.
type CentralBodyGravity struct {
	Body *body.Model
}

func (g *CentralBodyGravity) Name() string { return "central-body-gravity:" + g.Body.Name }
func (g *CentralBodyGravity) Kind() Kind   { return KindCentralGravity }
func (g *CentralBodyGravity) ReadSubsets() []string {
	return []string{coordinate.CartesianPosition}
}
func (g *CentralBodyGravity) WriteSubsets() []string {
	return []string{coordinate.CartesianVelocity}
}

func (g *CentralBodyGravity) Contribute(_ time.Time, s *coordinate.State) (map[string][]float64, error) {
	if g.Body.Mu == 0 {
		return nil, astroerr.New("dynamics.CentralBodyGravity.Contribute", astroerr.SetupInvalid,
			fmt.Errorf("%s has no gravitational model", g.Body.Name))
	}
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	rNorm := linalg.Norm(r)
	accel := linalg.Scale(-g.Body.Mu/(rNorm*rNorm*rNorm), r)

	if g.Body.Gravity != nil {
		accel = linalg.Add(accel, g.zonalPerturbation(r, rNorm))
	}
	return map[string][]float64{coordinate.CartesianVelocity: accel}, nil
}

// zonalPerturbation evaluates the closed-form J2/J3/J4 acceleration
// (Vallado's formulation), each term gated on the harmonic's declared
// degree.
func (g *CentralBodyGravity) zonalPerturbation(r []float64, rNorm float64) []float64 {
	h := g.Body.Gravity
	mu, re := g.Body.Mu, g.Body.EquatorialRadius
	x, y, z := r[0], r[1], r[2]
	r2 := rNorm * rNorm
	z2 := z * z
	out := []float64{0, 0, 0}

	if h.J2 != 0 && h.Degree >= 2 {
		k := 1.5 * h.J2 * mu * re * re / math.Pow(rNorm, 5)
		f := 1 - 5*z2/r2
		out[0] += k * x * f
		out[1] += k * y * f
		out[2] += k * z * (3 - 5*z2/r2)
	}
	if h.J3 != 0 && h.Degree >= 3 {
		k := -2.5 * h.J3 * mu * math.Pow(re, 3) / math.Pow(rNorm, 7)
		out[0] += k * x * (3*z - 7*z2*z/r2)
		out[1] += k * y * (3*z - 7*z2*z/r2)
		out[2] += k * (6*z2 - 7*z2*z2/r2 - 0.6*r2)
	}
	if h.J4 != 0 && h.Degree >= 4 {
		k := 0.625 * h.J4 * mu * math.Pow(re, 4) / math.Pow(rNorm, 7)
		f := 1 - 14*z2/r2 + 21*z2*z2/(r2*r2)
		out[0] += k * x * f
		out[1] += k * y * f
		fz := 5 - 70*z2/(3*r2) + 21*z2*z2/(r2*r2)
		out[2] += k * z * fz
	}
	return out
}
