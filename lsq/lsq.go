// Package lsq implements a Levenberg-Marquardt batch least-squares
// solver with per-subset observation and a-priori sigmas, the
// estimation core shared by the od and tle solvers.
package lsq

import (
	"fmt"
	"math"
	"time"

	"github.com/ChristopherRabotin/gokalman"
	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/matrix/mat64"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/stm"
)

// StateGenerator predicts states at instants given a candidate initial
// state, the caller-supplied predictor Solve drives. The returned states may
// live on a different Broker than x0 (e.g. a TLE solver fits MEOE
// parameters but predicts Cartesian states); they must share the
// observations' Broker.
type StateGenerator func(x0 *coordinate.State, instants []time.Time) ([]*coordinate.State, error)

// SigmaMap gives the per-subset 1-sigma uncertainty, broadcast across that
// subset's components (or one value per component when the slice is as
// long as the subset).
type SigmaMap map[string][]float64

// TerminationReason names why Solve stopped.
type TerminationReason int

const (
	MaxIterationsReached TerminationReason = iota
	RMSConverged
	StepConverged
)

func (t TerminationReason) String() string {
	switch t {
	case RMSConverged:
		return "rms-converged"
	case StepConverged:
		return "step-converged"
	default:
		return "max-iterations"
	}
}

// StepRecord logs one LM iteration's trial.
type StepRecord struct {
	Iteration int
	Lambda    float64
	RMS       float64
	Accepted  bool
}

// Analysis is the Solve output record.
type Analysis struct {
	Termination       TerminationReason
	RMS               float64
	Iterations        int
	Estimate          *coordinate.State
	Covariance        *mat64.Dense // (J^T W J)^-1, sized to the parameter dimension
	FrisbeeCovariance *mat64.Dense
	Predicted         []*coordinate.State
	Steps             []StepRecord
}

// Options configures a Solve call.
type Options struct {
	ObservationSigma SigmaMap
	AprioriSigma     SigmaMap // optional; nil means a weak, non-informative prior
	MaxIterations    int
	RMSTol           float64
	StepTol          float64
	InitialLambda    float64
	FiniteDiffEps    float64
	Logger           kitlog.Logger
}

func (o *Options) fillDefaults() {
	if o.MaxIterations == 0 {
		o.MaxIterations = 50
	}
	if o.RMSTol == 0 {
		o.RMSTol = 1e-8
	}
	if o.StepTol == 0 {
		o.StepTol = 1e-10
	}
	if o.InitialLambda == 0 {
		o.InitialLambda = 1e-3
	}
	if o.FiniteDiffEps == 0 {
		o.FiniteDiffEps = 1e-6
	}
	if o.Logger == nil {
		o.Logger = kitlog.NewNopLogger()
	}
}

func sigmaVector(b *coordinate.Broker, m SigmaMap, defaultVal float64) []float64 {
	out := make([]float64, b.Size())
	for i := range out {
		out[i] = defaultVal
	}
	for _, sub := range b.Subsets() {
		vals, ok := m[sub.Name()]
		if !ok {
			continue
		}
		off, _ := b.OffsetOf(sub.Name())
		for i := 0; i < sub.Size(); i++ {
			if len(vals) == sub.Size() {
				out[off+i] = vals[i]
			} else {
				out[off+i] = vals[0]
			}
		}
	}
	return out
}

func residualVector(observed, predicted *coordinate.State) []float64 {
	return observed.Subtract(predicted).Vector
}

// diagMat builds an r x r diagonal matrix from diag.
func diagMat(diag []float64) *mat64.Dense {
	n := len(diag)
	vals := make([]float64, n*n)
	for i, v := range diag {
		vals[i*n+i] = v
	}
	return mat64.NewDense(n, n, vals)
}

// Solve runs a Levenberg-Marquardt iteration from x0 against
// observations taken at instants, using gen as the state predictor. x0's
// Broker gives the parameter dimension n; observations[0]'s Broker gives
// the per-instant observation dimension m — the two may differ (e.g. a
// 7-parameter MEOE+B* fit against 6-component Cartesian observations).
func Solve(x0 *coordinate.State, observations []*coordinate.State, instants []time.Time, gen StateGenerator, opts Options) (*Analysis, error) {
	opts.fillDefaults()
	n := x0.Broker.Size()
	nObs := len(observations)
	if nObs != len(instants) || nObs == 0 {
		return nil, astroerr.New("lsq.Solve", astroerr.SetupInvalid,
			fmt.Errorf("observations (%d) and instants (%d) must be equal and non-empty", nObs, len(instants)))
	}
	m := observations[0].Broker.Size()

	obsSigma := sigmaVector(observations[0].Broker, opts.ObservationSigma, 1.0)
	wDiag := make([]float64, m*nObs)
	for j := 0; j < nObs; j++ {
		for i := 0; i < m; i++ {
			s := obsSigma[i]
			if math.IsInf(s, 1) {
				wDiag[j*m+i] = 0
				continue
			}
			if s <= 0 {
				s = 1.0
			}
			wDiag[j*m+i] = 1.0 / (s * s)
		}
	}
	wMat := diagMat(wDiag)

	var aprioriPrecision *mat64.Dense
	if opts.AprioriSigma != nil {
		sig := sigmaVector(x0.Broker, opts.AprioriSigma, math.Inf(1))
		vals := make([]float64, n*n)
		for i := 0; i < n; i++ {
			if math.IsInf(sig[i], 1) {
				continue
			}
			vals[i*n+i] = 1.0 / (sig[i] * sig[i])
		}
		aprioriPrecision = mat64.NewDense(n, n, vals)
	} else {
		// Weak, non-informative prior: identity precision scaled down to
		// near-zero, so the update is driven entirely by the observations.
		weak := gokalman.DenseIdentity(n)
		weak.Scale(1e-18, weak)
		aprioriPrecision = weak
	}

	eps := stm.UniformEps(n, opts.FiniteDiffEps)
	current := x0
	lambda := opts.InitialLambda

	predict := func(x *coordinate.State) ([]*coordinate.State, error) {
		return gen(x, instants)
	}

	computeRMS := func(x *coordinate.State) (float64, []*coordinate.State, error) {
		states, err := predict(x)
		if err != nil {
			return 0, nil, err
		}
		var sumSq float64
		for j, st := range states {
			r := residualVector(observations[j], st)
			for i, ri := range r {
				sumSq += wDiag[j*m+i] * ri * ri
			}
		}
		return math.Sqrt(sumSq / float64(m*nObs)), states, nil
	}

	rms, predicted, err := computeRMS(current)
	if err != nil {
		return nil, err
	}

	jacobianOf := func(x *coordinate.State) ([][][]float64, error) {
		propagate := func(xVec []float64) [][]float64 {
			candidate := &coordinate.State{Instant: x.Instant, InFrameOf: x.InFrameOf, Broker: x.Broker, Vector: xVec}
			states, perr := predict(candidate)
			if perr != nil {
				panic(perr)
			}
			out := make([][]float64, len(states))
			for i, s := range states {
				out[i] = append([]float64{}, s.Vector...)
			}
			return out
		}
		return safeSTM(x.Vector, eps, propagate)
	}

	assemble := func(phi [][][]float64, predicted []*coordinate.State) (*mat64.Dense, *mat64.Dense) {
		jMat := mat64.NewDense(m*nObs, n, nil)
		rVec := mat64.NewDense(m*nObs, 1, nil)
		for j := 0; j < nObs; j++ {
			r := residualVector(observations[j], predicted[j])
			for k := 0; k < m; k++ {
				rVec.Set(j*m+k, 0, r[k])
				for i := 0; i < n; i++ {
					jMat.Set(j*m+k, i, phi[j][i][k])
				}
			}
		}
		return jMat, rVec
	}

	var steps []StepRecord
	reason := MaxIterationsReached
	iter := 0

	for ; iter < opts.MaxIterations; iter++ {
		phi, perr := jacobianOf(current)
		if perr != nil {
			return nil, perr
		}
		jMat, rVec := assemble(phi, predicted)

		var jtW, jtWj, jtWr mat64.Dense
		jtW.Mul(jMat.T(), wMat)
		jtWj.Mul(&jtW, jMat)
		jtWr.Mul(&jtW, rVec)

		normal := mat64.NewDense(n, n, nil)
		normal.Add(&jtWj, aprioriPrecision)
		for i := 0; i < n; i++ {
			normal.Set(i, i, normal.At(i, i)+lambda*jtWj.At(i, i))
		}

		var normalInv mat64.Dense
		if err := normalInv.Inverse(normal); err != nil {
			lambda *= 10
			steps = append(steps, StepRecord{Iteration: iter, Lambda: lambda, RMS: rms, Accepted: false})
			continue
		}

		var dx mat64.Dense
		dx.Mul(&normalInv, &jtWr)

		stepNorm := 0.0
		trialVec := make([]float64, n)
		for i := 0; i < n; i++ {
			d := dx.At(i, 0)
			stepNorm += d * d
			trialVec[i] = current.Vector[i] + d
		}
		stepNorm = math.Sqrt(stepNorm)

		trial := &coordinate.State{Instant: current.Instant, InFrameOf: current.InFrameOf, Broker: current.Broker, Vector: trialVec}
		trialRMS, trialPredicted, terr := computeRMS(trial)
		if terr != nil {
			return nil, terr
		}

		accepted := trialRMS < rms
		steps = append(steps, StepRecord{Iteration: iter, Lambda: lambda, RMS: trialRMS, Accepted: accepted})

		if !accepted {
			lambda *= 10
			continue
		}

		relImprovement := math.Abs(rms-trialRMS) / math.Max(rms, 1e-300)
		current, rms, predicted = trial, trialRMS, trialPredicted
		lambda = math.Max(lambda/10, 1e-12)

		opts.Logger.Log("level", "info", "subsys", "lsq", "iter", iter, "rms", rms, "lambda", lambda)

		if relImprovement < opts.RMSTol {
			reason = RMSConverged
			iter++
			break
		}
		if stepNorm < opts.StepTol {
			reason = StepConverged
			iter++
			break
		}
	}

	finalPhi, cerr := jacobianOf(current)
	if cerr != nil {
		return nil, cerr
	}
	finalJ, _ := assemble(finalPhi, predicted)

	var jtWjFinal, jtWFinal mat64.Dense
	jtWFinal.Mul(finalJ.T(), wMat)
	jtWjFinal.Mul(&jtWFinal, finalJ)

	cov := mat64.NewDense(n, n, nil)
	if err := cov.Inverse(&jtWjFinal); err != nil {
		cov = mat64.NewDense(n, n, nil)
	}
	frisbee := frisbeeApprox(&jtWjFinal, aprioriPrecision)

	return &Analysis{
		Termination:       reason,
		RMS:               rms,
		Iterations:        iter,
		Estimate:          current,
		Covariance:        cov,
		FrisbeeCovariance: frisbee,
		Predicted:         predicted,
		Steps:             steps,
	}, nil
}

// safeSTM recovers a panic raised by the propagate closure (when gen
// itself fails) and surfaces it as a plain error instead.
func safeSTM(x0 []float64, eps []float64, propagate func([]float64) [][]float64) (phi [][][]float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("lsq: %v", r)
			}
		}
	}()
	phi = stm.STM(x0, eps, propagate)
	return phi, nil
}

// frisbeeApprox computes the Frisbee covariance approximation: the
// formal covariance further penalized by how much the a-priori precision
// contributed to the solution, a cheap consistency diagnostic for the fit.
func frisbeeApprox(jtWj, aprioriPrecision *mat64.Dense) *mat64.Dense {
	n, _ := jtWj.Dims()
	sum := mat64.NewDense(n, n, nil)
	sum.Add(jtWj, aprioriPrecision)
	var inv mat64.Dense
	if err := inv.Inverse(sum); err != nil {
		return mat64.NewDense(n, n, nil)
	}
	var tmp mat64.Dense
	tmp.Mul(&inv, jtWj)
	var out mat64.Dense
	out.Mul(&tmp, &inv)
	return &out
}
