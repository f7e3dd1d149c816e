package dynamics

import (
	"math"
	"testing"
	"time"

	"github.com/gonum/floats"

	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

func newGravityTestState(t *testing.T, pos []float64) *coordinate.State {
	t.Helper()
	b := coordinate.NewBroker()
	_ = b.AddSubset(coordinate.NewCartesianPosition())
	_ = b.AddSubset(coordinate.NewCartesianVelocity())
	s := coordinate.NewState(b, time.Now(), frame.NewInertial("GCRF"))
	_ = s.Set(coordinate.CartesianPosition, pos)
	return s
}

func TestCentralBodyGravityPointMass(t *testing.T) {
	noHarmonics := &body.Model{Name: "point-mass", Mu: 3.98600433e14}
	g := &CentralBodyGravity{Body: noHarmonics}
	r := []float64{7000e3, 0, 0}
	s := newGravityTestState(t, r)

	out, err := g.Contribute(time.Now(), s)
	if err != nil {
		t.Fatalf("Contribute: %s", err)
	}
	accel := out[coordinate.CartesianVelocity]
	rNorm := linalg.Norm(r)
	want := -noHarmonics.Mu / (rNorm * rNorm)
	if !floats.EqualWithinAbs(accel[0], want, 1e-6) {
		t.Fatalf("radial acceleration = %g, want %g", accel[0], want)
	}
	if accel[1] != 0 || accel[2] != 0 {
		t.Fatalf("point-mass acceleration off the radial axis should vanish along x: got %v", accel)
	}
}

func TestCentralBodyGravityRequiresMu(t *testing.T) {
	g := &CentralBodyGravity{Body: &body.Model{Name: "no-mu"}}
	s := newGravityTestState(t, []float64{7000e3, 0, 0})
	if _, err := g.Contribute(time.Now(), s); err == nil {
		t.Fatal("expected an error with Mu == 0")
	}
}

func TestZonalPerturbationVanishesOnEquator(t *testing.T) {
	g := &CentralBodyGravity{Body: body.Earth}
	r := []float64{body.Earth.EquatorialRadius + 500e3, 0, 0}
	s := newGravityTestState(t, r)
	out, err := g.Contribute(time.Now(), s)
	if err != nil {
		t.Fatalf("Contribute: %s", err)
	}
	accel := out[coordinate.CartesianVelocity]
	// On the equatorial plane (z=0) the J2/J3/J4 cross-track (z) term must vanish.
	if !floats.EqualWithinAbs(accel[2], 0, 1e-12) {
		t.Fatalf("z-acceleration on the equator = %g, want 0", accel[2])
	}
}

func TestZonalPerturbationMagnitudeIsSmallCorrection(t *testing.T) {
	g := &CentralBodyGravity{Body: body.Earth}
	r := []float64{body.Earth.EquatorialRadius + 500e3, 0, 1000e3}
	s := newGravityTestState(t, r)
	out, err := g.Contribute(time.Now(), s)
	if err != nil {
		t.Fatalf("Contribute: %s", err)
	}
	accel := out[coordinate.CartesianVelocity]
	rNorm := linalg.Norm(r)
	twoBody := body.Earth.Mu / (rNorm * rNorm)
	total := linalg.Norm(accel)
	// J2-J4 perturbations are a small fraction of the two-body term, never
	// comparable in magnitude to it for a LEO-altitude radius.
	if total > 0.1*twoBody {
		t.Fatalf("total accel %g should stay well under the two-body magnitude %g", total, twoBody)
	}
	if !floats.EqualWithinAbs(total, twoBody, 0.05*twoBody) {
		t.Fatalf("total accel %g should be close to the two-body magnitude %g", total, twoBody)
	}
	_ = math.Abs
}
