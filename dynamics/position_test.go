package dynamics

import (
	"testing"
	"time"

	"github.com/gonum/floats"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/frame"
)

func TestPositionDerivativeCopiesVelocity(t *testing.T) {
	b := coordinate.NewBroker()
	_ = b.AddSubset(coordinate.NewCartesianPosition())
	_ = b.AddSubset(coordinate.NewCartesianVelocity())
	s := coordinate.NewState(b, time.Now(), frame.NewInertial("GCRF"))
	vel := []float64{1, 2, 3}
	_ = s.Set(coordinate.CartesianVelocity, vel)

	pd := PositionDerivative{}
	if pd.Kind() != KindPositionDerivative {
		t.Fatalf("Kind() = %v, want %v", pd.Kind(), KindPositionDerivative)
	}

	out, err := pd.Contribute(time.Now(), s)
	if err != nil {
		t.Fatalf("Contribute: %s", err)
	}
	got := out[coordinate.CartesianPosition]
	if !floats.EqualApprox(got, vel, 1e-12) {
		t.Fatalf("d(position)/dt = %v, want %v", got, vel)
	}
}
