package tle

import (
	"fmt"
	"math"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/lsq"
)

// meoe subset names, a private parameter-space broker used only inside
// this package's fit.
const (
	subP = "meoe_p"
	subF = "meoe_f"
	subG = "meoe_g"
	subH = "meoe_h"
	subK = "meoe_k"
	subL = "meoe_l"
	subB = "meoe_bstar"
)

func meoeBroker(fitBStar bool) *coordinate.Broker {
	b := coordinate.NewBroker()
	for _, name := range []string{subP, subF, subG, subH, subK, subL} {
		_ = b.AddSubset(coordinate.NewScalarSubset(name))
	}
	if fitBStar {
		_ = b.AddSubset(coordinate.NewScalarSubset(subB))
	}
	return b
}

func toParamState(m MEOEParams, at time.Time, b *coordinate.Broker) *coordinate.State {
	return &coordinate.State{Instant: at, Broker: b, Vector: m.Vector()}
}

func fromParamVector(v []float64, fitBStar bool, fixedBStar float64) MEOEParams {
	m := MEOEParams{FitBStar: fitBStar, BStar: fixedBStar}
	return m.FromVector(v)
}

// Guess is the initial-guess tagged union accepted by Estimate: a TLE, a
// bare Cartesian state, or a (state, B*) pair.
type Guess struct {
	TLE   *TLE
	R, V  []float64 // Cartesian state, meters/meters-per-second
	BStar float64
	HasRV bool
}

// Options configures Estimate.
type Options struct {
	Mu               float64 // central body gravitational parameter
	ObservationFrame coordinate.Frame
	FitBStar         bool
	ObservationSigma lsq.SigmaMap
	AprioriSigma     lsq.SigmaMap
	MaxIterations    int
	RMSTol           float64
	StepTol          float64
	FiniteDiffEps    float64
	Logger           kitlog.Logger
}

// Result is the Estimate output: the estimated TLE, its MEOE
// parameters, and the underlying least-squares analysis.
type Result struct {
	Estimated TLE
	Params    MEOEParams
	Analysis  *lsq.Analysis
}

// cartesianBroker builds the position/velocity broker that observations
// and state_generator predictions are expressed in.
func cartesianBroker() *coordinate.Broker {
	b := coordinate.NewBroker()
	_ = b.AddSubset(coordinate.NewCartesianPosition())
	_ = b.AddSubset(coordinate.NewCartesianVelocity())
	return b
}

func cartesianState(r, v []float64, at time.Time, f coordinate.Frame, b *coordinate.Broker) *coordinate.State {
	s := coordinate.NewState(b, at, f)
	_ = s.Set(coordinate.CartesianPosition, r)
	_ = s.Set(coordinate.CartesianVelocity, v)
	return s
}

// Estimate fits guess against observed Cartesian states taken at
// instants, using eval to evaluate SGP4 at each candidate TLE.
func Estimate(eval SGP4Evaluator, guess Guess, epoch time.Time, observations [][2][]float64, instants []time.Time, opts Options) (*Result, error) {
	if opts.Mu == 0 {
		return nil, astroerr.New("tle.Estimate", astroerr.SetupInvalid, fmt.Errorf("mu must be set"))
	}
	cartBroker := cartesianBroker()
	obsFrame := opts.ObservationFrame

	var initial MEOEParams
	switch {
	case guess.TLE != nil:
		m, ep, err := guess.TLE.ToMEOE(opts.Mu)
		if err != nil {
			return nil, err
		}
		initial = m
		epoch = ep
	case guess.HasRV:
		initial = FromCartesian(guess.R, guess.V, opts.Mu)
		initial.BStar = guess.BStar
	default:
		return nil, astroerr.New("tle.Estimate", astroerr.SetupInvalid, fmt.Errorf("guess must supply a TLE or a Cartesian state"))
	}
	initial.FitBStar = opts.FitBStar

	paramBroker := meoeBroker(opts.FitBStar)
	x0 := toParamState(initial, epoch, paramBroker)

	obsStates := make([]*coordinate.State, len(observations))
	for i, rv := range observations {
		obsStates[i] = cartesianState(rv[0], rv[1], instants[i], obsFrame, cartBroker)
	}

	gen := func(x *coordinate.State, ts []time.Time) ([]*coordinate.State, error) {
		params := fromParamVector(x.Vector, opts.FitBStar, initial.BStar)
		candidateTLE := Format("fit", 0, epoch, params, meanMotionFromMEOE(params, opts.Mu), 0, 0)
		out := make([]*coordinate.State, len(ts))
		for i, t := range ts {
			r, v, err := eval.Propagate(candidateTLE, t)
			if err != nil {
				return nil, err
			}
			out[i] = cartesianState(r, v, t, obsFrame, cartBroker)
		}
		return out, nil
	}

	analysis, err := lsq.Solve(x0, obsStates, instants, gen, lsq.Options{
		ObservationSigma: opts.ObservationSigma,
		AprioriSigma:     opts.AprioriSigma,
		MaxIterations:    opts.MaxIterations,
		RMSTol:           opts.RMSTol,
		StepTol:          opts.StepTol,
		FiniteDiffEps:    opts.FiniteDiffEps,
		Logger:           opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	finalParams := fromParamVector(analysis.Estimate.Vector, opts.FitBStar, initial.BStar)
	finalTLE := Format(guessName(guess), guessNorad(guess), epoch, finalParams, meanMotionFromMEOE(finalParams, opts.Mu), 0, 0)

	return &Result{Estimated: finalTLE, Params: finalParams, Analysis: analysis}, nil
}

// Orbit wraps an estimated TLE with the SGP4 evaluator that fit it, a
// thin propagate-from-here handle alongside the raw TLE result.
type Orbit struct {
	Eval      SGP4Evaluator
	Estimated TLE
}

// StateAt evaluates SGP4 for this orbit's estimated TLE at t, returning
// Cartesian position/velocity in the evaluator's native (TEME) frame.
func (o *Orbit) StateAt(t time.Time) (r, v []float64, err error) {
	return o.Eval.Propagate(o.Estimated, t)
}

// EstimateOrbit wraps Estimate, additionally returning an Orbit built
// around the estimated TLE and the evaluator it was fit with.
func EstimateOrbit(eval SGP4Evaluator, guess Guess, epoch time.Time, observations [][2][]float64, instants []time.Time, opts Options) (*Orbit, *Result, error) {
	result, err := Estimate(eval, guess, epoch, observations, instants, opts)
	if err != nil {
		return nil, nil, err
	}
	return &Orbit{Eval: eval, Estimated: result.Estimated}, result, nil
}

func meanMotionFromMEOE(m MEOEParams, mu float64) float64 {
	sma, _, _, _, _, _ := m.ToClassical()
	return math.Sqrt(mu / (sma * sma * sma))
}

func guessName(g Guess) string {
	if g.TLE != nil {
		return g.TLE.Name
	}
	return "fit"
}

func guessNorad(g Guess) int {
	if g.TLE != nil {
		return g.TLE.NoradID
	}
	return 0
}
