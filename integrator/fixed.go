package integrator

import (
	"fmt"
	"math"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/rootfind"
)

// FixedRK4 is the classical fixed-step 4th-order Runge-Kutta stepper,
// useful for deterministic tests. It implements the same Solver
// contract as AdaptiveSolver so segment/propagator code can drive
// either interchangeably.
type FixedRK4 struct {
	Step float64 // seconds, signed magnitude only; direction follows t1-t0
}

func rk4Substep(f Func, t0 float64, y0 []float64, t1 float64, stepMag float64, onStep func(t0, t1 float64, y0, y1 []float64) (stop bool)) ([]float64, error) {
	if t1 == t0 {
		out := make([]float64, len(y0))
		copy(out, y0)
		return out, nil
	}
	dir := 1.0
	if t1 < t0 {
		dir = -1.0
	}
	h := dir * math.Abs(stepMag)
	t := t0
	y := y0
	for (dir > 0 && t < t1) || (dir < 0 && t > t1) {
		if (dir > 0 && t+h > t1) || (dir < 0 && t+h < t1) {
			h = t1 - t
		}
		next, err := rk4Step(f, t, y, h)
		if err != nil {
			return nil, err
		}
		stop := false
		if onStep != nil {
			stop = onStep(t, t+h, y, next)
		}
		t, y = t+h, next
		if stop {
			break
		}
	}
	return y, nil
}

// IntegrateTo advances from (t0, y0) to exactly t1.
func (r FixedRK4) IntegrateTo(f Func, t0 float64, y0 []float64, t1 float64, observe bool) ([]float64, []Step, error) {
	var steps []Step
	y, err := rk4Substep(f, t0, y0, t1, r.Step, func(ta, tb float64, ya, yb []float64) bool {
		if observe {
			steps = append(steps, Step{T0: ta, T1: tb, Y0: ya, Y1: yb})
		}
		return false
	})
	return y, steps, err
}

// IntegrateArray advances through the whole span, recording the state at
// each substep boundary that matches a requested instant (within a
// half-step tolerance) via linear interpolation between the bracketing
// substeps; instants must be sorted in the direction of travel.
func (r FixedRK4) IntegrateArray(f Func, t0 float64, y0 []float64, instants []float64) ([][]float64, error) {
	if len(instants) == 0 {
		return nil, nil
	}
	out := make([][]float64, len(instants))
	idx := 0
	t1 := instants[len(instants)-1]
	_, err := rk4Substep(f, t0, y0, t1, r.Step, func(ta, tb float64, ya, yb []float64) bool {
		for idx < len(instants) {
			want := instants[idx]
			lo, hi := ta, tb
			if lo > hi {
				lo, hi = hi, lo
			}
			if want < lo-1e-9 || want > hi+1e-9 {
				break
			}
			theta := 0.0
			if tb != ta {
				theta = (want - ta) / (tb - ta)
			}
			row := make([]float64, len(ya))
			for i := range row {
				row[i] = ya[i] + theta*(yb[i]-ya[i])
			}
			out[idx] = row
			idx++
		}
		return idx >= len(instants)
	})
	if err != nil {
		return nil, err
	}
	for idx < len(instants) {
		out[idx] = out[idx-1]
		idx++
	}
	return out, nil
}

// IntegrateToCondition steps through the span, checking cond at every
// substep boundary; on satisfaction it isolates the crossing with
// rootfind.Brent against a linear interpolant between the bracketing
// substeps (the fixed-step analogue of AdaptiveSolver's Hermite dense
// output).
func (r FixedRK4) IntegrateToCondition(f Func, t0 float64, y0 []float64, t1 float64, cond EventCondition, observe bool) (ConditionSolution, error) {
	var steps []Step
	var sol ConditionSolution
	found := false
	last, err := rk4Substep(f, t0, y0, t1, r.Step, func(ta, tb float64, ya, yb []float64) bool {
		if observe {
			steps = append(steps, Step{T0: ta, T1: tb, Y0: ya, Y1: yb})
		}
		if !cond.IsSatisfied(ta, ya, tb, yb) {
			return false
		}
		found = true
		interp := func(t float64) []float64 {
			theta := 0.0
			if tb != ta {
				theta = (t - ta) / (tb - ta)
			}
			row := make([]float64, len(ya))
			for i := range row {
				row[i] = ya[i] + theta*(yb[i]-ya[i])
			}
			return row
		}
		if cond.Residual == nil {
			sol = ConditionSolution{T: tb, Y: yb, Satisfied: true, RootConverged: true}
			return true
		}
		g := func(t float64) float64 { return cond.Residual(t, interp(t)) }
		xtol := math.Abs(tb-ta) * 1e-12
		if xtol == 0 {
			xtol = 1e-12
		}
		res, rerr := rootfind.Brent(g, ta, tb, xtol, 1e-10)
		if rerr != nil {
			sol = ConditionSolution{T: tb, Y: yb, Satisfied: true, RootConverged: false}
			return true
		}
		sol = ConditionSolution{T: res.Root, Y: interp(res.Root), Satisfied: true, RootConverged: res.Converged, RootIters: res.Iters}
		return true
	})
	if err != nil {
		return ConditionSolution{}, err
	}
	if !found {
		sol = ConditionSolution{T: t1, Y: last, Satisfied: false}
	}
	sol.Steps = steps
	return sol, nil
}

func rk4Step(f Func, t float64, y []float64, h float64) ([]float64, error) {
	n := len(y)
	k1, err := f(t, y)
	if err != nil {
		return nil, astroerr.New("integrator.FixedRK4", astroerr.NonConvergent, fmt.Errorf("derivative evaluation failed at t=%g: %w", t, err))
	}
	y2 := addScaled(y, k1, h/2)
	k2, err := f(t+h/2, y2)
	if err != nil {
		return nil, err
	}
	y3 := addScaled(y, k2, h/2)
	k3, err := f(t+h/2, y3)
	if err != nil {
		return nil, err
	}
	y4 := addScaled(y, k3, h)
	k4, err := f(t+h, y4)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] + h/6*(k1[i]+2*k2[i]+2*k3[i]+k4[i])
	}
	return out, nil
}

func addScaled(y, k []float64, h float64) []float64 {
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] + h*k[i]
	}
	return out
}
