package coordinate

import "time"

// Rotator is implemented by concrete Frames (see package frame) that know
// how to rotate a position and a velocity into themselves. Subsets depend
// only on this interface, not on package frame, to avoid an import cycle.
// The instant is passed through so rotating (body-fixed) frames can
// evaluate their orientation at the state's epoch.
type Rotator interface {
	Frame
	RotatePositionAt(p []float64, at time.Time) []float64
	// RotateVelocityAt needs the source position alongside the velocity
	// to account for a rotating frame's transport term (ω × r).
	RotateVelocityAt(p, v []float64, at time.Time) []float64
}

type cartesianPosition struct{ baseSubset }
type cartesianVelocity struct{ baseSubset }

// NewCartesianPosition and NewCartesianVelocity are the default subsets
// every Broker built by propagator.New registers: 3-vectors that rotate
// jointly under State.InFrame (velocity needs position to account for a
// rotating frame's transport term).
func NewCartesianPosition() Subset {
	return &cartesianPosition{baseSubset{name: CartesianPosition, size: 3}}
}

func NewCartesianVelocity() Subset {
	return &cartesianVelocity{baseSubset{name: CartesianVelocity, size: 3}}
}

func (c *cartesianPosition) InFrame(value []float64, full *State, target Frame) []float64 {
	rot, ok := target.(Rotator)
	if !ok {
		out := make([]float64, len(value))
		copy(out, value)
		return out
	}
	return rot.RotatePositionAt(value, full.Instant)
}

func (c *cartesianVelocity) InFrame(value []float64, full *State, target Frame) []float64 {
	rot, ok := target.(Rotator)
	if !ok {
		out := make([]float64, len(value))
		copy(out, value)
		return out
	}
	p := full.Position()
	return rot.RotateVelocityAt(p, value, full.Instant)
}
