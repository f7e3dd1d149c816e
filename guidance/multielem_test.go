package guidance

import (
	"math"
	"testing"

	"github.com/loftorbital/ostk-astro-go/linalg"
)

// A semi-major-axis raise from a circular orbit must thrust along-track:
// the summation reduces to the lone sma law, whose optimal direction at
// e~0 is the velocity direction.
func TestRuggieroRaisesSMAAlongTrack(t *testing.T) {
	s := circularState(t, 7e6, math.Sqrt(mu/7e6))
	current := Elements(s.Position(), s.Velocity(), mu)
	target := current
	target.SMA = 7.5e6

	law := NewRuggieroMultiElement(mu, target)

	// First evaluation captures the initial elements and coasts.
	dir, err := law.Direction(s)
	if err != nil {
		t.Fatalf("Direction (init): %s", err)
	}
	if linalg.Norm(dir) != 0 {
		t.Fatalf("expected zero thrust on the initializing evaluation, got %v", dir)
	}

	dir, err = law.Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	if math.Abs(linalg.Norm(dir)-1) > 1e-12 {
		t.Fatalf("direction is not a unit vector: |d| = %g", linalg.Norm(dir))
	}
	vHat := linalg.Unit(s.Velocity())
	if cos := linalg.Dot(dir, vHat); cos < 0.99 {
		t.Fatalf("sma raise should thrust along-track, got cos(dir, v) = %g", cos)
	}
	if law.Cleared() {
		t.Fatal("law should not report cleared with a 500 km sma gap open")
	}
}

func TestRuggieroClearsAtTarget(t *testing.T) {
	s := circularState(t, 7e6, math.Sqrt(mu/7e6))
	target := Elements(s.Position(), s.Velocity(), mu)

	law := NewRuggieroMultiElement(mu, target)
	if _, err := law.Direction(s); err != nil {
		t.Fatalf("Direction (init): %s", err)
	}
	dir, err := law.Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	if linalg.Norm(dir) != 0 {
		t.Fatalf("expected zero thrust at the target, got %v", dir)
	}
	if !law.Cleared() {
		t.Fatal("law should report cleared once every element is inside tolerance")
	}
}

func TestNaaszDirectionIsUnitDuringRaise(t *testing.T) {
	s := circularState(t, 7e6, math.Sqrt(mu/7e6))
	current := Elements(s.Position(), s.Velocity(), mu)
	target := current
	target.SMA = 7.5e6

	law := NewNaaszMultiElement(mu, target)
	if _, err := law.Direction(s); err != nil {
		t.Fatalf("Direction (init): %s", err)
	}
	dir, err := law.Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	if math.Abs(linalg.Norm(dir)-1) > 1e-12 {
		t.Fatalf("direction is not a unit vector: |d| = %g", linalg.Norm(dir))
	}
	vHat := linalg.Unit(s.Velocity())
	if cos := linalg.Dot(dir, vHat); cos < 0.99 {
		t.Fatalf("sma raise should thrust along-track, got cos(dir, v) = %g", cos)
	}
	if law.Cleared() {
		t.Fatal("law should not report cleared with a 500 km sma gap open")
	}
}
