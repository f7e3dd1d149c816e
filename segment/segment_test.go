package segment

import (
	"testing"
	"time"

	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/event"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/integrator"
)

func coastDynamics() []dynamics.Dynamics {
	return []dynamics.Dynamics{
		dynamics.PositionDerivative{},
		&dynamics.CentralBodyGravity{Body: &body.Model{Name: "point-mass", Mu: 3.986004418e14}},
	}
}

// A coast segment bounded by an instant condition 15 minutes after the
// initial instant must stop exactly there with ConditionSatisfied =
// true.
func TestSegmentInstantCondition(t *testing.T) {
	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-12, 1e-12)
	gcrf := frame.NewInertial("GCRF")
	dyns := coastDynamics()

	seg, err := NewCoast("coast-to-15min", nil, dyns, solver, gcrf)
	if err != nil {
		t.Fatalf("NewCoast: %s", err)
	}

	initial := coordinate.NewState(seg.Prop.Broker, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), gcrf)
	if err := initial.Set(coordinate.CartesianPosition, []float64{7000000, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := initial.Set(coordinate.CartesianVelocity, []float64{0, 7546.05329, 0}); err != nil {
		t.Fatal(err)
	}

	target := initial.Instant.Add(15 * time.Minute)
	seg.Condition = &event.InstantCondition{CondName: "t+15min", Target: target, Crit: event.AnyCrossing}

	sol, err := seg.Solve(initial, time.Hour)
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if !sol.ConditionSatisfied {
		t.Fatal("expected ConditionSatisfied = true")
	}
	last := sol.LastState()
	if d := last.Instant.Sub(target); d > time.Microsecond || d < -time.Microsecond {
		t.Fatalf("last state instant = %s, want within 1us of %s (diff %s)", last.Instant, target, d)
	}
}

// TestSegmentConditionNotSatisfiedWithinMaxDuration exercises the
// condition-not-satisfied path: a target far beyond maxDuration leaves
// ConditionSatisfied = false with the terminal state at maxDuration.
func TestSegmentConditionNotSatisfiedWithinMaxDuration(t *testing.T) {
	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-12, 1e-12)
	gcrf := frame.NewInertial("GCRF")
	dyns := coastDynamics()

	seg, err := NewCoast("coast-short", nil, dyns, solver, gcrf)
	if err != nil {
		t.Fatalf("NewCoast: %s", err)
	}
	initial := coordinate.NewState(seg.Prop.Broker, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), gcrf)
	if err := initial.Set(coordinate.CartesianPosition, []float64{7000000, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := initial.Set(coordinate.CartesianVelocity, []float64{0, 7546.05329, 0}); err != nil {
		t.Fatal(err)
	}

	farTarget := initial.Instant.Add(10 * time.Hour)
	seg.Condition = &event.InstantCondition{CondName: "far", Target: farTarget, Crit: event.AnyCrossing}

	maxDuration := 5 * time.Minute
	sol, err := seg.Solve(initial, maxDuration)
	if err != nil {
		t.Fatalf("Solve: %s", err)
	}
	if sol.ConditionSatisfied {
		t.Fatal("expected ConditionSatisfied = false when the target is beyond maxDuration")
	}
	last := sol.LastState()
	wantEnd := initial.Instant.Add(maxDuration)
	if d := last.Instant.Sub(wantEnd); d > time.Microsecond || d < -time.Microsecond {
		t.Fatalf("last state instant = %s, want maxDuration terminus %s", last.Instant, wantEnd)
	}
}

// TestNewManeuverRequiresExactlyOneThruster checks the maneuver
// factory's validity rule.
func TestNewManeuverRequiresExactlyOneThruster(t *testing.T) {
	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-9, 1e-9)
	gcrf := frame.NewInertial("GCRF")
	_, err := NewManeuver("no-thruster", nil, coastDynamics(), solver, gcrf)
	if err == nil {
		t.Fatal("expected setup-invalid error: maneuver segment with no thruster")
	}
}
