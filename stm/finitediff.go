// Package stm computes Jacobians by finite differences: a standalone
// stencil usable both for orbit-state transition matrices and for
// guidance.QLaw's ∂Q/∂state.
package stm

// Jacobian computes the Jacobian of f: R^n -> R^m at x0 by central
// differences, using per-component step sizes eps (uniform if all equal).
// f is called twice per component (x0+eps*e_i, x0-eps*e_i); a single
// evaluator instance should be reused by the caller for determinism
// across the stencil.
func Jacobian(x0 []float64, eps []float64, f func([]float64) []float64) [][]float64 {
	n := len(x0)
	base := f(x0)
	m := len(base)
	jac := make([][]float64, m)
	for r := range jac {
		jac[r] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		e := eps[i]
		plus := make([]float64, n)
		minus := make([]float64, n)
		copy(plus, x0)
		copy(minus, x0)
		plus[i] += e
		minus[i] -= e
		fp := f(plus)
		fm := f(minus)
		for r := 0; r < m; r++ {
			jac[r][i] = (fp[r] - fm[r]) / (2 * e)
		}
	}
	return jac
}

// ForwardJacobian computes the Jacobian by forward differences: one
// fewer evaluation per component than Jacobian, at the cost of O(eps)
// bias instead of O(eps^2). Opt-in only.
func ForwardJacobian(x0 []float64, eps []float64, f func([]float64) []float64) [][]float64 {
	n := len(x0)
	base := f(x0)
	m := len(base)
	jac := make([][]float64, m)
	for r := range jac {
		jac[r] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		e := eps[i]
		plus := make([]float64, n)
		copy(plus, x0)
		plus[i] += e
		fp := f(plus)
		for r := 0; r < m; r++ {
			jac[r][i] = (fp[r] - base[r]) / e
		}
	}
	return jac
}

// UniformEps returns a step-size slice of length n with every component
// set to eps.
func UniformEps(n int, eps float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = eps
	}
	return out
}

// STM computes the 3-D Phi[j][i][k] = d x_k(t_j) / d x0_i array,
// given an initial state vector x0, a list of
// evaluation "instants" abstracted as an index j (the caller's propagate
// closure already knows which instants those are), and propagate, which
// maps a perturbed x0 to states at every requested instant
// (propagate(x0) -> [][]float64, one row per instant).
func STM(x0 []float64, eps []float64, propagate func([]float64) [][]float64) [][][]float64 {
	base := propagate(x0)
	nInstants := len(base)
	n := len(x0)
	m := len(base[0])

	phi := make([][][]float64, nInstants)
	for j := range phi {
		phi[j] = make([][]float64, n)
		for i := range phi[j] {
			phi[j][i] = make([]float64, m)
		}
	}

	for i := 0; i < n; i++ {
		e := eps[i]
		plus := make([]float64, n)
		minus := make([]float64, n)
		copy(plus, x0)
		copy(minus, x0)
		plus[i] += e
		minus[i] -= e
		statesPlus := propagate(plus)
		statesMinus := propagate(minus)
		for j := 0; j < nInstants; j++ {
			for k := 0; k < m; k++ {
				phi[j][i][k] = (statesPlus[j][k] - statesMinus[j][k]) / (2 * e)
			}
		}
	}
	return phi
}
