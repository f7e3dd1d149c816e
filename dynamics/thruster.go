package dynamics

import (
	"time"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/guidance"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// Propulsion describes a constant thrust/specific-impulse engine as a
// plain (thrust, Isp) pair.
type Propulsion struct {
	ThrustN float64
	IspS    float64
}

// G0 is standard gravity, used to convert Isp (seconds) into mass flow.
const G0 = 9.80665

// Thruster owns a guidance law and a Propulsion description. It writes
// d(velocity)/dt = (T/m)*direction and d(mass)/dt = -T/(Isp*g0).
type Thruster struct {
	Law        guidance.Law
	Propulsion Propulsion
}

func (t *Thruster) Name() string { return "thruster:" + t.Law.Name() }
func (t *Thruster) Kind() Kind   { return KindThruster }
func (t *Thruster) ReadSubsets() []string {
	return []string{coordinate.CartesianPosition, coordinate.CartesianVelocity, coordinate.Mass}
}
func (t *Thruster) WriteSubsets() []string {
	return []string{coordinate.CartesianVelocity, coordinate.Mass}
}

func (t *Thruster) Contribute(_ time.Time, s *coordinate.State) (map[string][]float64, error) {
	mass, err := s.Extract(coordinate.Mass)
	if err != nil {
		return nil, err
	}
	dir, err := t.Law.Direction(s)
	if err != nil {
		return nil, err
	}
	accel := linalg.Scale(t.Propulsion.ThrustN/mass[0], dir)
	mdot := -t.Propulsion.ThrustN / (t.Propulsion.IspS * G0)
	return map[string][]float64{
		coordinate.CartesianVelocity: accel,
		coordinate.Mass:              {mdot},
	}, nil
}
