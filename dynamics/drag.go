package dynamics

import (
	"fmt"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// AtmosphericDrag writes d(velocity)/dt =
// -1/2 * Cd * A * rho(r,t) * |v_rel| * v_rel / m, with v_rel = v - omega
// x r for a body rotating about +z.
type AtmosphericDrag struct {
	Body *body.Model
}

// NewAtmosphericDrag fails setup when the body carries no atmospheric
// model.
func NewAtmosphericDrag(b *body.Model) (*AtmosphericDrag, error) {
	if b.Atmosphere == nil {
		return nil, astroerr.New("dynamics.NewAtmosphericDrag", astroerr.SetupInvalid,
			fmt.Errorf("%s has no atmospheric model", b.Name))
	}
	return &AtmosphericDrag{Body: b}, nil
}

func (d *AtmosphericDrag) Name() string { return "atmospheric-drag:" + d.Body.Name }
func (d *AtmosphericDrag) Kind() Kind   { return KindDrag }
func (d *AtmosphericDrag) ReadSubsets() []string {
	return []string{
		coordinate.CartesianPosition, coordinate.CartesianVelocity,
		coordinate.Mass, coordinate.SurfaceArea, coordinate.DragCoefficient,
	}
}
func (d *AtmosphericDrag) WriteSubsets() []string {
	return []string{coordinate.CartesianVelocity}
}

func (d *AtmosphericDrag) Contribute(at time.Time, s *coordinate.State) (map[string][]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	mass, err := s.Extract(coordinate.Mass)
	if err != nil {
		return nil, err
	}
	area, err := s.Extract(coordinate.SurfaceArea)
	if err != nil {
		return nil, err
	}
	cd, err := s.Extract(coordinate.DragCoefficient)
	if err != nil {
		return nil, err
	}

	altitude := linalg.Norm(r) - d.Body.EquatorialRadius
	rho := d.Body.Atmosphere.DensityAt(altitude)

	omega := []float64{0, 0, d.Body.RotationRate}
	vRel := linalg.Sub(v, linalg.Cross(omega, r))
	vRelN := linalg.Norm(vRel)

	coeff := -0.5 * cd[0] * area[0] * rho * vRelN / mass[0]
	accel := linalg.Scale(coeff, vRel)
	return map[string][]float64{coordinate.CartesianVelocity: accel}, nil
}
