package od

import (
	"testing"
	"time"

	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/integrator"
	"github.com/loftorbital/ostk-astro-go/linalg"
	"github.com/loftorbital/ostk-astro-go/lsq"
	"github.com/loftorbital/ostk-astro-go/propagator"
)

func twoBodyPropagator(t *testing.T) *propagator.Propagator {
	t.Helper()
	dyns := []dynamics.Dynamics{
		dynamics.PositionDerivative{},
		&dynamics.CentralBodyGravity{Body: &body.Model{Name: "point-mass", Mu: 3.986004418e14}},
	}
	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-13, 1e-13)
	p, err := propagator.New(dyns, solver, frame.NewInertial("GCRF"))
	if err != nil {
		t.Fatalf("propagator.New: %s", err)
	}
	return p
}

func truthState(t *testing.T, p *propagator.Propagator) *coordinate.State {
	t.Helper()
	s := coordinate.NewState(p.Broker, time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC), frame.NewInertial("GCRF"))
	if err := s.Set(coordinate.CartesianPosition, []float64{7000000, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(coordinate.CartesianVelocity, []float64{0, 7546.05329, 0}); err != nil {
		t.Fatal(err)
	}
	return s
}

// Observations generated every 60s for 20 minutes from a
// known state must let Estimate converge with small RMS and an estimated
// state close to truth.
func TestEstimateConvergesOnSyntheticObservations(t *testing.T) {
	p := twoBodyPropagator(t)
	truth := truthState(t, p)

	var instants []time.Time
	for i := 0; i <= 20; i++ {
		instants = append(instants, truth.Instant.Add(time.Duration(i)*time.Minute))
	}
	observations, err := NewSyntheticObservations(p, truth, instants)
	if err != nil {
		t.Fatalf("NewSyntheticObservations: %s", err)
	}

	guess := coordinate.NewState(p.Broker, truth.Instant, truth.InFrameOf)
	if err := guess.Set(coordinate.CartesianPosition, []float64{7000500, 200, -100}); err != nil {
		t.Fatal(err)
	}
	if err := guess.Set(coordinate.CartesianVelocity, []float64{1, 7546, 0.5}); err != nil {
		t.Fatal(err)
	}

	estimate, analysis, err := Estimate(p, guess, observations, instants, Options{
		RMSTol: 1e-10,
		StepTol: 1e-10,
		MaxIterations: 30,
	})
	if err != nil {
		t.Fatalf("Estimate: %s", err)
	}
	if analysis.Termination != lsq.RMSConverged && analysis.Termination != lsq.StepConverged {
		t.Fatalf("expected convergence, got %v (rms=%g)", analysis.Termination, analysis.RMS)
	}
	if analysis.RMS > 2 {
		t.Fatalf("RMS residual = %g, want < 2 m", analysis.RMS)
	}

	wantPos, _ := truth.Extract(coordinate.CartesianPosition)
	gotPos, err := estimate.Extract(coordinate.CartesianPosition)
	if err != nil {
		t.Fatalf("Extract(position): %s", err)
	}
	if d := linalg.Norm(linalg.Sub(gotPos, wantPos)); d > 10 {
		t.Fatalf("estimated position differs from truth by %g m", d)
	}
}

func TestEstimateReturnsStateInCallerFrame(t *testing.T) {
	p := twoBodyPropagator(t)
	truth := truthState(t, p)
	instants := []time.Time{truth.Instant, truth.Instant.Add(10 * time.Minute)}
	observations, err := NewSyntheticObservations(p, truth, instants)
	if err != nil {
		t.Fatalf("NewSyntheticObservations: %s", err)
	}
	guess := coordinate.NewState(p.Broker, truth.Instant, truth.InFrameOf)
	if err := guess.Set(coordinate.CartesianPosition, []float64{7000100, 0, 0}); err != nil {
		t.Fatal(err)
	}
	if err := guess.Set(coordinate.CartesianVelocity, []float64{0, 7546.05329, 0}); err != nil {
		t.Fatal(err)
	}
	estimate, _, err := Estimate(p, guess, observations, instants, Options{MaxIterations: 10})
	if err != nil {
		t.Fatalf("Estimate: %s", err)
	}
	if estimate.InFrameOf.Name() != guess.InFrameOf.Name() {
		t.Fatalf("estimate frame = %s, want %s", estimate.InFrameOf.Name(), guess.InFrameOf.Name())
	}
}

func TestNewSyntheticObservationsMatchesInstantCount(t *testing.T) {
	p := twoBodyPropagator(t)
	truth := truthState(t, p)
	instants := []time.Time{truth.Instant, truth.Instant.Add(5 * time.Minute), truth.Instant.Add(15 * time.Minute)}
	observations, err := NewSyntheticObservations(p, truth, instants)
	if err != nil {
		t.Fatalf("NewSyntheticObservations: %s", err)
	}
	if len(observations) != len(instants) {
		t.Fatalf("got %d observations, want %d", len(observations), len(instants))
	}
	for i, inst := range instants {
		if !observations[i].Instant.Equal(inst) {
			t.Fatalf("observation[%d] instant = %s, want %s", i, observations[i].Instant, inst)
		}
	}
}
