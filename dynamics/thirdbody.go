package dynamics

import (
	"fmt"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// ThirdBodyGravity writes d(velocity)/dt = mu_tb*(rho/|rho|^3 - d/|d|^3),
// rho = (third body - satellite), d = third body (from the central
// body's origin), both expressed in the integration frame. The third
// body's ephemeris is supplied externally; this package never computes
// planetary positions itself.
type ThirdBodyGravity struct {
	Body        *body.Model
	Ephemeris   body.Ephemeris
	Integration frame.Frame
	central     string
}

// NewThirdBodyGravity rejects construction when the third body is the
// propagator's own central body (the central term is already carried by
// CentralBodyGravity).
func NewThirdBodyGravity(b *body.Model, eph body.Ephemeris, integrationFrame frame.Frame, centralBodyName string) (*ThirdBodyGravity, error) {
	if b.Name == centralBodyName {
		return nil, astroerr.New("dynamics.NewThirdBodyGravity", astroerr.SetupInvalid,
			fmt.Errorf("third body %q cannot equal the central body", b.Name))
	}
	return &ThirdBodyGravity{Body: b, Ephemeris: eph, Integration: integrationFrame, central: centralBodyName}, nil
}

func (t *ThirdBodyGravity) Name() string { return "third-body-gravity:" + t.Body.Name }
func (t *ThirdBodyGravity) Kind() Kind   { return KindThirdBodyGravity }
func (t *ThirdBodyGravity) ReadSubsets() []string {
	return []string{coordinate.CartesianPosition}
}
func (t *ThirdBodyGravity) WriteSubsets() []string {
	return []string{coordinate.CartesianVelocity}
}

func (t *ThirdBodyGravity) Contribute(at time.Time, s *coordinate.State) (map[string][]float64, error) {
	r, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return nil, err
	}
	d := t.Ephemeris.PositionIn(t.Integration, at)
	rho := linalg.Sub(d, r)
	rhoN, dN := linalg.Norm(rho), linalg.Norm(d)
	accel := linalg.Sub(
		linalg.Scale(t.Body.Mu/(rhoN*rhoN*rhoN), rho),
		linalg.Scale(t.Body.Mu/(dN*dN*dN), d),
	)
	return map[string][]float64{coordinate.CartesianVelocity: accel}, nil
}
