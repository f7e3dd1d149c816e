package od

import (
	"math/rand"
	"testing"
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
	"github.com/loftorbital/ostk-astro-go/lsq"
)

// Observations with additive Gaussian position noise: the fit must still
// land near truth, with an RMS on the order of the injected sigma.
func TestEstimateConvergesOnNoisyObservations(t *testing.T) {
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

	const sigma = 0.5 // m, per position axis
	noise, ok := distmv.NewNormal(make([]float64, 3),
		mat64.NewSymDense(3, []float64{
			sigma * sigma, 0, 0,
			0, sigma * sigma, 0,
			0, 0, sigma * sigma,
		}),
		rand.New(rand.NewSource(42)))
	if !ok {
		t.Fatal("distmv.NewNormal rejected the covariance")
	}
	for _, obs := range observations {
		pos, err := obs.Extract(coordinate.CartesianPosition)
		if err != nil {
			t.Fatal(err)
		}
		if err := obs.Set(coordinate.CartesianPosition, linalg.Add(pos, noise.Rand(nil))); err != nil {
			t.Fatal(err)
		}
	}

	guess := coordinate.NewState(p.Broker, truth.Instant, truth.InFrameOf)
	if err := guess.Set(coordinate.CartesianPosition, []float64{7000500, 200, -100}); err != nil {
		t.Fatal(err)
	}
	if err := guess.Set(coordinate.CartesianVelocity, []float64{1, 7546, 0.5}); err != nil {
		t.Fatal(err)
	}

	estimate, analysis, err := Estimate(p, guess, observations, instants, Options{
		ObservationSigma: lsq.SigmaMap{
			coordinate.CartesianPosition: {sigma, sigma, sigma},
		},
		RMSTol:        1e-8,
		StepTol:       1e-8,
		MaxIterations: 30,
	})
	if err != nil {
		t.Fatalf("Estimate: %s", err)
	}

	wantPos, _ := truth.Extract(coordinate.CartesianPosition)
	gotPos, err := estimate.Extract(coordinate.CartesianPosition)
	if err != nil {
		t.Fatalf("Extract(position): %s", err)
	}
	if d := linalg.Norm(linalg.Sub(gotPos, wantPos)); d > 10 {
		t.Fatalf("estimated position differs from truth by %g m", d)
	}
	// Residuals are sigma-normalized, so a fit at the noise floor has a
	// weighted RMS near 1.
	if analysis.RMS > 2 {
		t.Fatalf("weighted RMS = %g, want near 1 at the noise floor", analysis.RMS)
	}
}
