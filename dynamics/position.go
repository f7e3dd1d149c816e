package dynamics

import (
	"time"

	"github.com/loftorbital/ostk-astro-go/coordinate"
)

// PositionDerivative writes d(position)/dt = velocity, the kinematic
// contributor every propagator requires exactly one of.
type PositionDerivative struct{}

func (PositionDerivative) Name() string          { return "position-derivative" }
func (PositionDerivative) Kind() Kind            { return KindPositionDerivative }
func (PositionDerivative) ReadSubsets() []string { return []string{coordinate.CartesianVelocity} }
func (PositionDerivative) WriteSubsets() []string {
	return []string{coordinate.CartesianPosition}
}

func (PositionDerivative) Contribute(_ time.Time, s *coordinate.State) (map[string][]float64, error) {
	v, err := s.Extract(coordinate.CartesianVelocity)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 3)
	copy(out, v)
	return map[string][]float64{coordinate.CartesianPosition: out}, nil
}
