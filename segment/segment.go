// Package segment implements event-bounded propagation phases and
// their chaining into mission timelines: coast/maneuver factories and
// a sequence-solve loop with repetition, timeout and mass-floor
// termination.
package segment

import (
	"fmt"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/event"
	"github.com/loftorbital/ostk-astro-go/guidance"
	"github.com/loftorbital/ostk-astro-go/integrator"
	"github.com/loftorbital/ostk-astro-go/propagator"
)

// Type distinguishes a coast segment (no active thrust) from a maneuver
// segment (exactly one thruster).
type Type int

const (
	Coast Type = iota
	Maneuver
)

func (t Type) String() string {
	if t == Maneuver {
		return "maneuver"
	}
	return "coast"
}

// Solution is a segment-solution record: the dense-output states plus
// the terminal state, the condition-satisfied flag, and the dynamics
// that were active.
type Solution struct {
	Name               string
	Type               Type
	States             []*coordinate.State
	ConditionSatisfied bool
	Dynamics           []dynamics.Dynamics
}

// LastState returns the terminal state of the solution.
func (s *Solution) LastState() *coordinate.State {
	return s.States[len(s.States)-1]
}

// Duration returns the elapsed wall-clock span the solution covers.
func (s *Solution) Duration() time.Duration {
	return s.LastState().Instant.Sub(s.States[0].Instant)
}

// Segment is (name, type, event condition, dynamics list, propagator).
type Segment struct {
	SegName   string
	SegType   Type
	Condition event.Condition
	Dynamics  []dynamics.Dynamics
	Prop      *propagator.Propagator
}

// NewCoast builds a coast segment: dyns must not include an actively
// guided thruster (a thruster with guidance.Coast is permitted).
func NewCoast(name string, cond event.Condition, dyns []dynamics.Dynamics, solver integrator.Solver, f coordinate.Frame) (*Segment, error) {
	for _, d := range dyns {
		if th, ok := d.(*dynamics.Thruster); ok {
			if _, isCoast := th.Law.(guidance.Coast); !isCoast {
				return nil, astroerr.New("segment.NewCoast", astroerr.SetupInvalid,
					fmt.Errorf("coast segment %q includes an actively guided thruster", name))
			}
		}
	}
	prop, err := propagator.New(dyns, solver, f)
	if err != nil {
		return nil, err
	}
	return &Segment{SegName: name, SegType: Coast, Condition: cond, Dynamics: dyns, Prop: prop}, nil
}

// NewManeuver builds a maneuver segment: dyns must include exactly one
// thruster.
func NewManeuver(name string, cond event.Condition, dyns []dynamics.Dynamics, solver integrator.Solver, f coordinate.Frame) (*Segment, error) {
	count := 0
	for _, d := range dyns {
		if d.Kind() == dynamics.KindThruster {
			count++
		}
	}
	if count != 1 {
		return nil, astroerr.New("segment.NewManeuver", astroerr.SetupInvalid,
			fmt.Errorf("maneuver segment %q requires exactly one thruster, found %d", name, count))
	}
	prop, err := propagator.New(dyns, solver, f)
	if err != nil {
		return nil, err
	}
	return &Segment{SegName: name, SegType: Maneuver, Condition: cond, Dynamics: dyns, Prop: prop}, nil
}

// resolveCondition resolves a relative-target condition against ref,
// leaving any other condition untouched.
func resolveCondition(cond event.Condition, ref time.Time) event.Condition {
	if rel, ok := cond.(*event.RelativeInstantCondition); ok {
		return rel.Resolve(ref)
	}
	return cond
}

// Solve drives the segment from initial for up to maxDuration: it
// resolves the condition's relative target, invokes
// CalculateStateToCondition, populates the dense-output states, and
// marks condition-satisfied per the solver's report.
func (s *Segment) Solve(initial *coordinate.State, maxDuration time.Duration) (*Solution, error) {
	resolved := resolveCondition(s.Condition, initial.Instant)
	s.Prop.Observe = true

	sol, terminal, err := s.Prop.CalculateStateToCondition(initial, maxDuration, resolved)
	if err != nil {
		return nil, err
	}

	states := make([]*coordinate.State, 0, len(sol.Steps)+1)
	for _, step := range sol.Steps {
		// The step that triggered the event ends past the isolated root;
		// keep the grid strictly before the terminal instant so states
		// stay monotonic in time.
		if step.T1 >= sol.T {
			break
		}
		states = append(states, &coordinate.State{
			Instant:   initial.Instant.Add(time.Duration(step.T1 * float64(time.Second))),
			InFrameOf: s.Prop.Frame,
			Broker:    s.Prop.Broker,
			Vector:    step.Y1,
		})
	}
	states = append(states, terminal)

	if err := checkMassFloor(states); err != nil {
		return nil, err
	}

	return &Solution{
		Name:               s.SegName,
		Type:               s.SegType,
		States:             states,
		ConditionSatisfied: sol.Satisfied,
		Dynamics:           s.Dynamics,
	}, nil
}

// checkMassFloor reports mass-depleted if the mass subset (when present)
// crossed zero anywhere in the recorded states.
func checkMassFloor(states []*coordinate.State) error {
	if len(states) == 0 || !states[0].Broker.HasSubset(coordinate.Mass) {
		return nil
	}
	for _, st := range states {
		m, err := st.Extract(coordinate.Mass)
		if err != nil {
			return err
		}
		if m[0] <= 0 {
			return astroerr.New("segment.Solve", astroerr.MassDepleted,
				fmt.Errorf("mass reached %.6g kg at %s", m[0], st.Instant))
		}
	}
	return nil
}
