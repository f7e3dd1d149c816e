package guidance

import (
	"math"
	"testing"
	"time"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

const mu = 3.986004418e14

func circularState(t *testing.T, r, speed float64) *coordinate.State {
	t.Helper()
	b := coordinate.NewBroker()
	if err := b.AddSubset(coordinate.NewCartesianPosition()); err != nil {
		t.Fatalf("AddSubset(position): %s", err)
	}
	if err := b.AddSubset(coordinate.NewCartesianVelocity()); err != nil {
		t.Fatalf("AddSubset(velocity): %s", err)
	}
	s := coordinate.NewState(b, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	if err := s.Set(coordinate.CartesianPosition, []float64{r, 0, 0}); err != nil {
		t.Fatalf("Set(position): %s", err)
	}
	if err := s.Set(coordinate.CartesianVelocity, []float64{0, speed, 0}); err != nil {
		t.Fatalf("Set(velocity): %s", err)
	}
	return s
}

func TestCoastDirectionIsZero(t *testing.T) {
	s := circularState(t, 7e6, 7546.05329)
	dir, err := Coast{}.Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	for i, v := range dir {
		if v != 0 {
			t.Fatalf("dir[%d] = %g, want 0", i, v)
		}
	}
}

func TestTangentialDirectionMatchesVelocityUnitVector(t *testing.T) {
	s := circularState(t, 7e6, 7546.05329)
	dir, err := Tangential().Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	want := []float64{0, 1, 0} // velocity is along +y, VNC x-axis is along velocity
	for i := range want {
		if math.Abs(dir[i]-want[i]) > 1e-9 {
			t.Fatalf("dir = %v, want %v", dir, want)
		}
	}
	if n := linalg.Norm(dir); math.Abs(n-1) > 1e-9 {
		t.Fatalf("direction not unit length: %g", n)
	}
}

func TestAntiTangentialIsOppositeOfTangential(t *testing.T) {
	s := circularState(t, 7e6, 7546.05329)
	fwd, err := Tangential().Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	back, err := AntiTangential().Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	for i := range fwd {
		if math.Abs(fwd[i]+back[i]) > 1e-9 {
			t.Fatalf("AntiTangential should be -Tangential: fwd=%v back=%v", fwd, back)
		}
	}
}

func TestElementsOfCircularEquatorialOrbit(t *testing.T) {
	r := 7e6
	v := math.Sqrt(mu / r)
	el := Elements([]float64{r, 0, 0}, []float64{0, v, 0}, mu)
	if math.Abs(el.SMA-r) > 1 {
		t.Fatalf("SMA = %g, want ~%g", el.SMA, r)
	}
	if el.Ecc > 1e-6 {
		t.Fatalf("Ecc = %g, want ~0 for circular orbit", el.Ecc)
	}
	if el.Inc > 1e-6 {
		t.Fatalf("Inc = %g, want ~0 for equatorial orbit", el.Inc)
	}
}

func TestQLawDirectionIsUnitVector(t *testing.T) {
	r := 7e6
	v := math.Sqrt(mu / r)
	s := circularState(t, r, v)
	target := Elements([]float64{r * 1.1, 0, 0}, []float64{0, math.Sqrt(mu / (r * 1.1)), 0}, mu)
	law := NewQLaw(mu, target)
	dir, err := law.Direction(s)
	if err != nil {
		t.Fatalf("Direction: %s", err)
	}
	if n := linalg.Norm(dir); math.Abs(n-1) > 1e-6 {
		t.Fatalf("QLaw direction not unit length: %g", n)
	}
}

func TestQLawNameAndConstructorDefaults(t *testing.T) {
	target := ClassicalElements{SMA: 7e6}
	q := NewQLaw(mu, target)
	if q.Name() != "q-law" {
		t.Fatalf("Name() = %q, want q-law", q.Name())
	}
	if q.EccFloor <= 0 || q.IncFloor <= 0 {
		t.Fatal("expected positive singularity floors by default")
	}
	for _, w := range q.Weights {
		if w != 1 {
			t.Fatalf("expected default weights of 1, got %v", q.Weights)
		}
	}
}
