package integrator

// Solver is the common contract propagator.Propagator and segment.Segment
// drive: AdaptiveSolver (any of its three steppers) and FixedRK4 both
// satisfy it, so a fixed-step variant can stand in for the adaptive ones.
type Solver interface {
	IntegrateTo(f Func, t0 float64, y0 []float64, t1 float64, observe bool) ([]float64, []Step, error)
	IntegrateArray(f Func, t0 float64, y0 []float64, instants []float64) ([][]float64, error)
	IntegrateToCondition(f Func, t0 float64, y0 []float64, t1 float64, cond EventCondition, observe bool) (ConditionSolution, error)
}

var (
	_ Solver = (*AdaptiveSolver)(nil)
	_ Solver = FixedRK4{}
)
