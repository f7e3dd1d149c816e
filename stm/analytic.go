package stm

import (
	"math"

	"github.com/gonum/matrix/mat64"
)

// AnalyticTwoBodyJ2J3 returns the 6x6 dynamics partials
// A = d(rdot, vdot)/d(r, v) for Cartesian two-body gravity with optional
// J2/J3 zonal terms, evaluated at position r (meters). Integrating
// PhiDot = A*Phi from an identity seed propagates the STM without the
// perturbed re-propagations the finite-difference stencil needs; it is
// an opt-in fast path valid only for this specific force model. degree
// gates the zonal terms: below 2 is point-mass only, 2 adds J2, 3 and
// above add J3.
func AnalyticTwoBodyJ2J3(mu, radius, j2, j3 float64, degree int, r []float64) *mat64.Dense {
	A := mat64.NewDense(6, 6, nil)
	A.Set(0, 3, 1)
	A.Set(1, 4, 1)
	A.Set(2, 5, 1)

	x, y, z := r[0], r[1], r[2]
	x2, y2, z2 := x*x, y*y, z*z
	r2 := x2 + y2 + z2
	r232 := math.Pow(r2, 3/2.)
	r252 := math.Pow(r2, 5/2.)

	dAxDx := 3*mu*x2/r252 - mu/r232
	dAxDy := 3 * mu * x * y / r252
	dAxDz := 3 * mu * x * z / r252
	dAyDy := 3*mu*y2/r252 - mu/r232
	dAyDz := 3 * mu * y * z / r252
	dAzDz := 3*mu*z2/r252 - mu/r232

	a30, a31, a32 := dAxDx, dAxDy, dAxDz
	a40, a41, a42 := dAxDy, dAyDy, dAyDz
	a50, a51, a52 := dAxDz, dAyDz, dAzDz

	if degree >= 2 {
		z3 := z2 * z
		z4 := z2 * z2
		f32 := 3 / 2.
		f152 := 15 / 2.
		r272 := math.Pow(r2, 7/2.)
		r292 := math.Pow(r2, 9/2.)
		j2fact := j2 * radius * radius * mu
		a30 += -f32 * j2fact * (35*x2*z2/r292 - 5*x2/r272 - 5*z2/r272 + 1/r252)
		a40 += -f152 * j2fact * (7*x*y*z2/r292 - x*y/r272)
		a50 += -f152 * j2fact * (7*x*z3/r292 - 3*x*z/r272)

		a31 += -f152 * j2fact * (7*x*y*z2/r292 - x*y/r272)
		a41 += -f32 * j2fact * (35*y2*z2/r292 - 5*y2/r272 - 5*z2/r272 + 1/r252)
		a51 += -f152 * j2fact * (7*y*z3/r292 - 3*y*z/r272)

		a32 += -f152 * j2fact * (7*x*z3/r292 - 3*x*z/r272)
		a42 += -f152 * j2fact * (7*y*z3/r292 - 3*y*z/r272)
		a52 += -f32 * j2fact * (35*z4/r292 - 30*z2/r272 + 3/r252)

		if degree >= 3 {
			z5 := z4 * z
			r2112 := math.Pow(r2, 11/2.)
			f52 := 5 / 2.
			f1052 := 105 / 2.
			j3fact := j3 * radius * radius * radius * mu
			a30 += -f52 * j3fact * (63*x2*z3/r2112 - 21*x2*z/r292 - 7*z3/r292 + 3*z/r272)
			a40 += -f1052 * j3fact * (3*x*y*z3/r2112 - x*y*z/r292)
			a50 += -f152 * j3fact * (21*x*z4/r2112 - 14*x*z2/r292 + x/r272)

			a31 += -f1052 * j3fact * (3*x*y*z3/r2112 - x*y*z/r292)
			a41 += -f52 * j3fact * (63*y2*z3/r2112 - 21*y2*z/r292 - 7*z3/r292 + 3*z/r272)
			a51 += -f152 * j3fact * (21*y*z4/r2112 - 14*y*z2/r292 + y/r272)

			a32 += -f152 * j3fact * (21*x*z4/r2112 - 14*x*z2/r292 + x/r272)
			a42 += -f152 * j3fact * (21*y*z4/r2112 - 14*y*z2/r292 + y/r272)
			a52 += -f52 * j3fact * (63*z5/r2112 - 70*z3/r292 + 15*z/r272)
		}
	}

	A.Set(3, 0, a30)
	A.Set(4, 0, a40)
	A.Set(5, 0, a50)
	A.Set(3, 1, a31)
	A.Set(4, 1, a41)
	A.Set(5, 1, a51)
	A.Set(3, 2, a32)
	A.Set(4, 2, a42)
	A.Set(5, 2, a52)
	return A
}
