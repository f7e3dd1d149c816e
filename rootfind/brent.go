// Package rootfind implements the bracketed scalar root finder consumed
// by the numerical solver for event isolation: a safeguarded inverse
// quadratic/secant with bisection fallback (Brent's method).
package rootfind

import (
	"fmt"
	"math"

	"github.com/loftorbital/ostk-astro-go/astroerr"
)

// Result reports the outcome of a Brent solve: the root estimate,
// whether it converged within the iteration cap, and how many
// iterations it took. Non-convergence is reported, not raised.
type Result struct {
	Root      float64
	Converged bool
	Iters     int
}

const maxIters = 100

// Brent finds a root of g on [lo, hi], requiring g(lo) and g(hi) to have
// opposite signs (or one of them already within ftol of zero). Returns
// once |hi-lo| <= xtol or |g(root)| <= ftol, whichever first, or after
// maxIters without convergence (Converged=false in that case).
func Brent(g func(float64) float64, lo, hi, xtol, ftol float64) (Result, error) {
	fa, fb := g(lo), g(hi)
	if fa == 0 {
		return Result{Root: lo, Converged: true, Iters: 0}, nil
	}
	if fb == 0 {
		return Result{Root: hi, Converged: true, Iters: 0}, nil
	}
	if sameSign(fa, fb) {
		return Result{}, astroerr.New("rootfind.Brent", astroerr.OutOfDomain,
			fmt.Errorf("endpoints g(%g)=%g and g(%g)=%g do not bracket a root", lo, fa, hi, fb))
	}

	a, b := lo, hi
	c, fc := a, fa
	mflag := true
	var d float64

	for i := 1; i <= maxIters; i++ {
		if math.Abs(fb) <= ftol || math.Abs(b-a) <= xtol {
			return Result{Root: b, Converged: true, Iters: i - 1}, nil
		}
		var s float64
		if fa != fc && fb != fc {
			// Inverse quadratic interpolation.
			s = a*fb*fc/((fa-fb)*(fa-fc)) +
				b*fa*fc/((fb-fa)*(fb-fc)) +
				c*fa*fb/((fc-fa)*(fc-fb))
		} else {
			// Secant.
			s = b - fb*(b-a)/(fb-fa)
		}

		bound1 := (3*a+b)/4
		needsBisect := !between(s, bound1, b) ||
			(mflag && math.Abs(s-b) >= math.Abs(b-c)/2) ||
			(!mflag && math.Abs(s-b) >= math.Abs(c-d)/2) ||
			(mflag && math.Abs(b-c) < xtol) ||
			(!mflag && math.Abs(c-d) < xtol)
		if needsBisect {
			s = (a + b) / 2
			mflag = true
		} else {
			mflag = false
		}

		fs := g(s)
		d, c, fc = c, b, fb
		if sameSign(fa, fs) {
			a, fa = s, fs
		} else {
			b, fb = s, fs
		}
		if math.Abs(fa) < math.Abs(fb) {
			a, b = b, a
			fa, fb = fb, fa
		}
	}
	return Result{Root: b, Converged: false, Iters: maxIters}, nil
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func between(v, lo, hi float64) bool {
	if lo > hi {
		lo, hi = hi, lo
	}
	return v >= lo && v <= hi
}
