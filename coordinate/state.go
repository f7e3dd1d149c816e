package coordinate

import "time"

// State is the triple (instant, frame, coordinates), labeled by a
// reference to the Broker that gives the flat Vector its subset layout.
type State struct {
	Instant   time.Time
	InFrameOf Frame
	Broker    *Broker
	Vector    []float64
}

// NewState allocates a zeroed State sized to broker, tagged at instant
// at and expressed in frame f.
func NewState(broker *Broker, at time.Time, f Frame) *State {
	return &State{Instant: at, InFrameOf: f, Broker: broker, Vector: make([]float64, broker.Size())}
}

// Extract returns the named subset's slice of this State's vector.
func (s *State) Extract(name string) ([]float64, error) {
	return s.Broker.Extract(s.Vector, name)
}

// Set writes value into the named subset of this State's vector.
func (s *State) Set(name string, value []float64) error {
	return s.Broker.Set(s.Vector, name, value)
}

// Add returns a new State whose vector is the subset-wise sum of s and
// other, per subset's own Add (so Cartesian position/velocity add
// element-wise while any custom subset can define its own combination
// rule, e.g. wrapped angles). Both operands must share a frame.
func (s *State) Add(other *State) *State {
	out := NewState(s.Broker, s.Instant, s.InFrameOf)
	for _, sub := range s.Broker.Subsets() {
		off, _ := s.Broker.OffsetOf(sub.Name())
		a := s.Vector[off : off+sub.Size()]
		b := other.Vector[off : off+sub.Size()]
		copy(out.Vector[off:off+sub.Size()], sub.Add(a, b))
	}
	return out
}

// Subtract is the subset-wise complement of Add.
func (s *State) Subtract(other *State) *State {
	out := NewState(s.Broker, s.Instant, s.InFrameOf)
	for _, sub := range s.Broker.Subsets() {
		off, _ := s.Broker.OffsetOf(sub.Name())
		a := s.Vector[off : off+sub.Size()]
		b := other.Vector[off : off+sub.Size()]
		copy(out.Vector[off:off+sub.Size()], sub.Subtract(a, b))
	}
	return out
}

// InFrame converts s into target, rotating FrameAware subsets (position
// and velocity jointly, per the invariant that velocity needs position
// to account for a rotating frame's transport term) and leaving every
// other subset untouched. A state already in target is returned as a
// value copy without invoking any rotation (frame round-trip identity).
func (s *State) InFrame(target Frame) *State {
	out := NewState(s.Broker, s.Instant, target)
	copy(out.Vector, s.Vector)
	if s.InFrameOf != nil && target != nil && s.InFrameOf.Name() == target.Name() {
		return out
	}
	for _, sub := range s.Broker.Subsets() {
		fa, ok := sub.(FrameAware)
		if !ok {
			continue
		}
		off, _ := s.Broker.OffsetOf(sub.Name())
		value := s.Vector[off : off+sub.Size()]
		copy(out.Vector[off:off+sub.Size()], fa.InFrame(value, s, target))
	}
	return out
}

// Position returns the Cartesian position subset, a convenience accessor
// used throughout dynamics/event/guidance.
func (s *State) Position() []float64 {
	v, err := s.Extract(CartesianPosition)
	if err != nil {
		panic(err)
	}
	return v
}

// Velocity returns the Cartesian velocity subset.
func (s *State) Velocity() []float64 {
	v, err := s.Extract(CartesianVelocity)
	if err != nil {
		panic(err)
	}
	return v
}
