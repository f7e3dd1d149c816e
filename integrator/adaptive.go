// Package integrator is the adaptive explicit Runge-Kutta engine: dense
// output, PI step control, and event-condition root isolation. The
// solver owns its own stepping so dense output and event isolation can
// share one interpolant.
package integrator

import (
	"fmt"
	"math"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/rootfind"
)

// Func is the system-of-equations closure the propagator builds from its
// registered dynamics: derivative of y with respect to t (seconds
// elapsed on whatever monotonic scale the caller anchors t0 to).
type Func func(t float64, y []float64) ([]float64, error)

// EventCondition is the integrator-facing view of an event.Condition,
// expressed over the integrator's (t float64, y []float64)
// representation rather than coordinate.State, to keep this package
// independent of the coordinate/frame stack.
type EventCondition struct {
	IsSatisfied func(prevT float64, prevY []float64, currT float64, currY []float64) bool
	// Residual, if non-nil, makes the condition root-bracketable; nil
	// for logical composites.
	Residual func(t float64, y []float64) float64
}

// Step records one accepted integration step, retained for dense output
// and, when requested, returned to the caller as the observed grid.
type Step struct {
	T0, T1 float64
	Y0, Y1 []float64
	F0, F1 []float64 // derivative at each endpoint, for Hermite dense output
}

// Interpolate evaluates the cubic Hermite interpolant over this step at
// t, the dense-output path for querying inside an accepted step without
// re-integrating.
func (s Step) Interpolate(t float64) []float64 {
	h := s.T1 - s.T0
	theta := (t - s.T0) / h
	h00 := 2*theta*theta*theta - 3*theta*theta + 1
	h10 := theta*theta*theta - 2*theta*theta + theta
	h01 := -2*theta*theta*theta + 3*theta*theta
	h11 := theta*theta*theta - theta*theta
	out := make([]float64, len(s.Y0))
	for i := range out {
		out[i] = h00*s.Y0[i] + h10*h*s.F0[i] + h01*s.Y1[i] + h11*h*s.F1[i]
	}
	return out
}

// AdaptiveSolver is a PI-controlled adaptive Runge-Kutta integrator with
// dense output, implementing the integrate-to-instant,
// integrate-to-array, and integrate-to-condition entry points.
type AdaptiveSolver struct {
	Stepper     Tableau
	RelTol      float64
	AbsTol      float64
	MaxRejects  int // per-step retry budget before integration-failed
	MaxSteps    int // total accepted+rejected step budget
	InitialStep float64
}

// NewAdaptiveSolver returns a solver with sane defaults for MaxRejects/
// MaxSteps/InitialStep, matching the bounded-retry contract of the
// integration-failed error kind.
func NewAdaptiveSolver(stepper Tableau, relTol, absTol float64) *AdaptiveSolver {
	return &AdaptiveSolver{
		Stepper:     stepper,
		RelTol:      relTol,
		AbsTol:      absTol,
		MaxRejects:  50,
		MaxSteps:    100000,
		InitialStep: 1,
	}
}

// errorNorm computes the weighted RMS error norm between the high- and
// low-order solutions, per-component scaled by AbsTol + RelTol*|y|.
func (s *AdaptiveSolver) errorNorm(y, yLow, yHigh []float64) float64 {
	sum := 0.0
	for i := range y {
		scale := s.AbsTol + s.RelTol*math.Max(math.Abs(y[i]), math.Abs(yHigh[i]))
		if scale == 0 {
			scale = s.AbsTol
		}
		e := (yHigh[i] - yLow[i]) / scale
		sum += e * e
	}
	return math.Sqrt(sum / float64(len(y)))
}

// stage runs one RK stage set at (t, y, h) and returns the high-order
// and low-order (embedded) solutions plus the stage-0 and final-stage
// derivatives needed for Hermite dense output.
func (s *AdaptiveSolver) stage(f Func, t float64, y []float64, h float64) (yHigh, yLow, f0, fEnd []float64, err error) {
	tab := s.Stepper
	n := len(y)
	nStages := len(tab.C)
	k := make([][]float64, nStages)

	k[0], err = f(t, y)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	for i := 1; i < nStages; i++ {
		yi := make([]float64, n)
		copy(yi, y)
		for j := 0; j < i; j++ {
			if tab.A[i][j] == 0 {
				continue
			}
			for d := 0; d < n; d++ {
				yi[d] += h * tab.A[i][j] * k[j][d]
			}
		}
		ki, err := f(t+tab.C[i]*h, yi)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		k[i] = ki
	}

	yHigh = make([]float64, n)
	yLow = make([]float64, n)
	copy(yHigh, y)
	copy(yLow, y)
	for i := 0; i < nStages; i++ {
		for d := 0; d < n; d++ {
			yHigh[d] += h * tab.B[i] * k[i][d]
			yLow[d] += h * tab.BHat[i] * k[i][d]
		}
	}
	return yHigh, yLow, k[0], k[nStages-1], nil
}

// integrateSpan advances from (t0, y0) to t1, invoking onAccept for each
// accepted step (used for observation and dense-output-backed
// interpolation by the callers below). Handles both forward (t1 > t0)
// and backward (t1 < t0) integration.
func (s *AdaptiveSolver) integrateSpan(f Func, t0 float64, y0 []float64, t1 float64, onAccept func(Step) (stop bool)) error {
	dir := 1.0
	if t1 < t0 {
		dir = -1.0
	}
	if t1 == t0 {
		return nil
	}

	t := t0
	y := y0
	h := dir * math.Abs(s.InitialStep)
	totalSteps := 0

	for (dir > 0 && t < t1) || (dir < 0 && t > t1) {
		if totalSteps >= s.MaxSteps {
			return astroerr.New("integrator.AdaptiveSolver", astroerr.NonConvergent,
				fmt.Errorf("exceeded %d steps without reaching target instant", s.MaxSteps))
		}
		// Do not overshoot the target.
		if (dir > 0 && t+h > t1) || (dir < 0 && t+h < t1) {
			h = t1 - t
		}

		rejects := 0
		for {
			yHigh, yLow, f0, fEnd, err := s.stage(f, t, y, h)
			if err != nil {
				return err
			}
			errNorm := s.errorNorm(y, yLow, yHigh)
			if errNorm <= 1.0 || math.Abs(h) <= 1e-12 {
				step := Step{T0: t, T1: t + h, Y0: y, Y1: yHigh, F0: f0, F1: fEnd}
				t = t + h
				y = yHigh
				totalSteps++
				stop := onAccept(step)
				// PI-ish controller: grow toward the error-optimal step,
				// bounded to avoid wild oscillation.
				factor := 0.9 * math.Pow(1.0/math.Max(errNorm, 1e-12), 1.0/float64(s.Stepper.EmbedOrd+1))
				factor = math.Max(0.2, math.Min(5.0, factor))
				h = h * factor
				if stop {
					return nil
				}
				break
			}
			rejects++
			if rejects > s.MaxRejects {
				return astroerr.New("integrator.AdaptiveSolver", astroerr.NonConvergent,
					fmt.Errorf("tolerance not achievable after %d retries at t=%g", s.MaxRejects, t))
			}
			factor := 0.9 * math.Pow(1.0/math.Max(errNorm, 1e-12), 1.0/float64(s.Stepper.EmbedOrd+1))
			factor = math.Max(0.1, math.Min(1.0, factor))
			h = h * factor
		}
	}
	return nil
}

// IntegrateTo advances from (t0, y0) to exactly t1. observe, if true,
// returns the accepted steps in the caller's time order.
func (s *AdaptiveSolver) IntegrateTo(f Func, t0 float64, y0 []float64, t1 float64, observe bool) ([]float64, []Step, error) {
	var steps []Step
	var last []float64 = y0
	err := s.integrateSpan(f, t0, y0, t1, func(step Step) bool {
		last = step.Y1
		if observe {
			steps = append(steps, step)
		}
		return false
	})
	if err != nil {
		return nil, nil, err
	}
	return last, steps, nil
}

// IntegrateArray advances from (t0, y0), returning one state per instant
// in instants, via dense-output interpolation over whichever accepted
// step contains each requested instant. instants must be sorted
// in the direction of travel (all >= t0 or all <= t0, ascending/
// descending accordingly); the caller (propagator) is responsible for
// splitting a mixed-direction request around t0.
func (s *AdaptiveSolver) IntegrateArray(f Func, t0 float64, y0 []float64, instants []float64) ([][]float64, error) {
	if len(instants) == 0 {
		return nil, nil
	}
	out := make([][]float64, len(instants))
	idx := 0
	t1 := instants[len(instants)-1]

	err := s.integrateSpan(f, t0, y0, t1, func(step Step) bool {
		for idx < len(instants) && within(instants[idx], step.T0, step.T1) {
			out[idx] = step.Interpolate(instants[idx])
			idx++
		}
		return idx >= len(instants)
	})
	if err != nil {
		return nil, err
	}
	for idx < len(instants) {
		// Instants exactly equal to t1 that the loop's half-open bracket missed.
		out[idx] = out[idx-1]
		idx++
	}
	return out, nil
}

func within(t, a, b float64) bool {
	if a > b {
		a, b = b, a
	}
	return t >= a-1e-9 && t <= b+1e-9
}

// ConditionSolution is the outcome of IntegrateToCondition.
type ConditionSolution struct {
	T             float64
	Y             []float64
	Satisfied     bool
	RootConverged bool
	RootIters     int
	Steps         []Step
}

// IntegrateToCondition advances from (t0, y0) toward t1, evaluating cond
// at every accepted step's endpoints. When satisfied, the crossing
// instant is isolated with rootfind.Brent against the step's dense
// output and the returned state is interpolated there; otherwise
// integration runs to t1 with Satisfied=false.
func (s *AdaptiveSolver) IntegrateToCondition(f Func, t0 float64, y0 []float64, t1 float64, cond EventCondition, observe bool) (ConditionSolution, error) {
	var steps []Step
	var sol ConditionSolution
	found := false

	err := s.integrateSpan(f, t0, y0, t1, func(step Step) bool {
		if observe {
			steps = append(steps, step)
		}
		if !cond.IsSatisfied(step.T0, step.Y0, step.T1, step.Y1) {
			return false
		}
		found = true
		if cond.Residual == nil {
			sol = ConditionSolution{T: step.T1, Y: step.Y1, Satisfied: true, RootConverged: true}
			return true
		}
		g := func(t float64) float64 { return cond.Residual(t, step.Interpolate(t)) }
		xtol := math.Abs(step.T1-step.T0) * 1e-12
		if xtol == 0 {
			xtol = 1e-12
		}
		res, rerr := rootfind.Brent(g, step.T0, step.T1, xtol, 1e-10)
		if rerr != nil {
			// Endpoints didn't bracket cleanly (can happen for tangential
			// crossings); fall back to the step's terminal state.
			sol = ConditionSolution{T: step.T1, Y: step.Y1, Satisfied: true, RootConverged: false}
			return true
		}
		sol = ConditionSolution{
			T:             res.Root,
			Y:             step.Interpolate(res.Root),
			Satisfied:     true,
			RootConverged: res.Converged,
			RootIters:     res.Iters,
		}
		return true
	})
	if err != nil {
		return ConditionSolution{}, err
	}
	if !found {
		last := y0
		if len(steps) > 0 {
			last = steps[len(steps)-1].Y1
		}
		sol = ConditionSolution{T: t1, Y: last, Satisfied: false}
	}
	sol.Steps = steps
	return sol, nil
}
