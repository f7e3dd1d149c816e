// Package od wraps lsq with propagator as the state generator: batch
// orbit determination of a Cartesian state from observed states, with
// an optional restriction of the fit to a subset of coordinates.
package od

import (
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/lsq"
	"github.com/loftorbital/ostk-astro-go/propagator"
)

// Options configures Estimate.
type Options struct {
	EstimationFrame  coordinate.Frame // frame the fit runs in; defaults to the propagator's own frame
	FitSubsets       []string         // optional: restrict the fit to these subsets only
	ObservationSigma lsq.SigmaMap
	AprioriSigma     lsq.SigmaMap
	MaxIterations    int
	RMSTol           float64
	StepTol          float64
	InitialLambda    float64
	FiniteDiffEps    float64
	Logger           kitlog.Logger
}

// Estimate performs batch orbit determination: it fits an initial-guess
// state against a set of observations (possibly given in another frame)
// by repeatedly driving prop forward/backward to the observation
// instants, returning the estimated Cartesian state and the full
// least-squares analysis.
func Estimate(prop *propagator.Propagator, guess *coordinate.State, observations []*coordinate.State, instants []time.Time, opts Options) (*coordinate.State, *lsq.Analysis, error) {
	frame := opts.EstimationFrame
	if frame == nil {
		frame = prop.Frame
	}

	x0 := guess.InFrame(frame)
	obs := make([]*coordinate.State, len(observations))
	for i, o := range observations {
		obs[i] = o.InFrame(frame)
	}

	gen := func(x *coordinate.State, ts []time.Time) ([]*coordinate.State, error) {
		states, err := prop.CalculateStatesAt(x, ts)
		if err != nil {
			return nil, err
		}
		out := make([]*coordinate.State, len(states))
		for i, s := range states {
			out[i] = s.InFrame(frame)
		}
		return out, nil
	}

	obsSigma := opts.ObservationSigma
	if len(opts.FitSubsets) > 0 {
		obsSigma = projectSubsets(x0.Broker, obsSigma, opts.FitSubsets)
	}

	analysis, err := lsq.Solve(x0, obs, instants, gen, lsq.Options{
		ObservationSigma: obsSigma,
		AprioriSigma:     opts.AprioriSigma,
		MaxIterations:    opts.MaxIterations,
		RMSTol:           opts.RMSTol,
		StepTol:          opts.StepTol,
		InitialLambda:    opts.InitialLambda,
		FiniteDiffEps:    opts.FiniteDiffEps,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return analysis.Estimate.InFrame(guess.InFrameOf), analysis, nil
}

// projectSubsets restricts the fit to keep by giving every other subset
// an infinite observation sigma, which lsq.Solve treats as zero weight:
// those subsets' residuals stop contributing to the weighted normal
// equations: a Jacobian-projection technique for restricting a fit to a
// subset of parameters.
func projectSubsets(b *coordinate.Broker, base lsq.SigmaMap, keep []string) lsq.SigmaMap {
	keepSet := make(map[string]bool, len(keep))
	for _, k := range keep {
		keepSet[k] = true
	}
	out := make(lsq.SigmaMap, len(b.Subsets()))
	for k, v := range base {
		out[k] = v
	}
	inf := []float64{math.Inf(1)}
	for _, sub := range b.Subsets() {
		if !keepSet[sub.Name()] {
			out[sub.Name()] = inf
		}
	}
	return out
}

// Orbit wraps a fitted state and the propagator that produced it, a thin
// propagate-from-here handle so callers don't have to keep both pieces
// around separately.
type Orbit struct {
	Prop  *propagator.Propagator
	State *coordinate.State
}

// StateAt propagates this orbit's fitted state to t using the same
// propagator the fit ran with.
func (o *Orbit) StateAt(t time.Time) (*coordinate.State, error) {
	return o.Prop.CalculateStateAt(o.State, t)
}

// EstimateOrbit wraps Estimate, additionally returning an Orbit built
// around the estimated state so callers can propagate past the
// observation span without re-running the fit.
func EstimateOrbit(prop *propagator.Propagator, guess *coordinate.State, observations []*coordinate.State, instants []time.Time, opts Options) (*Orbit, *lsq.Analysis, error) {
	estimate, analysis, err := Estimate(prop, guess, observations, instants, opts)
	if err != nil {
		return nil, nil, err
	}
	return &Orbit{Prop: prop, State: estimate}, analysis, nil
}

// NewSyntheticObservations propagates truth forward to instants and
// returns the resulting states, a convenience for OD tests that need
// ground-truth observations rather than the PerformMeasurement-sourced
// ones a real ground station would produce.
func NewSyntheticObservations(prop *propagator.Propagator, truth *coordinate.State, instants []time.Time) ([]*coordinate.State, error) {
	states, err := prop.CalculateStatesAt(truth, instants)
	if err != nil {
		return nil, astroerr.New("od.NewSyntheticObservations", astroerr.InvalidState, err)
	}
	return states, nil
}
