// Package tools collects standalone orbital-mechanics helpers that sit
// alongside the propagation core rather than inside it: Lambert's
// boundary-value problem and the Hohmann-transfer closed form. Unlike
// the dynamics/propagator stack, these are one-shot algebraic solvers
// with no integrator involved.
package tools

import (
	"errors"
	"math"
	"time"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"

	"github.com/loftorbital/ostk-astro-go/body"
)

const (
	ε  = 1e-6                   // General epsilon
	tε = 1e-6                   // Time epsilon (1e-6 seconds)
	νε = (5e-5 / 180) * math.Pi // 0.00005 degrees
)

func norm(v *mat64.Vector) float64 {
	return math.Sqrt(mat64.Dot(v, v))
}

// Hohmann computes the departure/arrival Δv and time of flight for a
// coplanar, tangential transfer between two circular orbits of radii rI
// and rF about the given body.
func Hohmann(rI, vI, rF, vF float64, central *body.Model) (vDeparture, vArrival float64, tof time.Duration) {
	aTransfer := (rI + rF) / 2
	vTransferI := math.Sqrt(central.Mu * (2/rI - 1/aTransfer))
	vTransferF := math.Sqrt(central.Mu * (2/rF - 1/aTransfer))
	vDeparture = vTransferI - vI
	vArrival = vF - vTransferF
	tof = time.Duration(math.Pi*math.Sqrt(math.Pow(aTransfer, 3)/central.Mu)) * time.Second
	return
}

// Lambert solves the Lambert boundary problem: given the initial and
// final position vectors, a transfer duration, and a sense of motion dm
// (+1 prograde short way, -1 long way, 0 to infer from the swept angle),
// it returns the initial and final velocities along with ψ, the square
// of the difference in eccentric anomaly, via the universal-variable
// iteration (Vallado's algorithm).
func Lambert(Ri, Rf *mat64.Vector, Δt0 time.Duration, dm float64, central *body.Model) (Vi, Vf *mat64.Vector, ψ float64, err error) {
	Vi = mat64.NewVector(3, nil)
	Vf = mat64.NewVector(3, nil)
	Rir, _ := Ri.Dims()
	Rfr, _ := Rf.Dims()
	if Rir != Rfr || Rir != 3 {
		err = errors.New("initial and final radii must be 3x1 vectors")
		return
	}
	rI := norm(Ri)
	rF := norm(Rf)
	cosΔν := mat64.Dot(Ri, Rf) / (rI * rF)
	νI := math.Atan2(Ri.At(1, 0), Ri.At(0, 0))
	νF := math.Atan2(Rf.At(1, 0), Rf.At(0, 0))
	if dm == 0 {
		if νF-νI < math.Pi {
			dm = 1
		} else {
			dm = -1
		}
	} else if dm != 1 && dm != -1 {
		err = errors.New("direction of motion must be either 0, -1 or 1 (multi rev not supported)")
		return
	}
	A := dm * math.Sqrt(rI*rF*(1+cosΔν))
	if νF-νI < νε && floats.EqualWithinAbs(A, 0, ε) {
		err = errors.New("Δν ~=0 and A ~=0, cannot compute trajectory")
		return
	}
	Δt0s := Δt0.Seconds()
	ψ = 0
	ψup := 4 * math.Pow(math.Pi, 2)
	ψlow := -4 * math.Pi
	c2 := 1 / 2.
	c3 := 1 / 6.
	var Δt, y float64
	maxIter := 200
	for iter := 0; math.Abs(Δt-Δt0s) > tε; iter++ {
		if iter > maxIter {
			err = errors.New("lambert universal-variable iteration did not converge")
			return
		}
		y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
		if A > 0 && y < 0 {
			for y < 0 {
				ψlow = (0.8 / c3) * (1 - (math.Sqrt(c2)/A)*(rI+rF))
				ψ = (ψup + ψlow) / 2
				sψ := math.Sqrt(math.Abs(ψ))
				if ψ > ε {
					ssψ, csψ := math.Sincos(sψ)
					c2 = (1 - csψ) / ψ
					c3 = (sψ - ssψ) / math.Sqrt(math.Pow(ψ, 3))
				} else {
					c2 = (1 - math.Cosh(sψ)) / ψ
					c3 = (math.Sinh(sψ) - sψ) / math.Sqrt(math.Pow(sψ, 3))
				}
				y = rI + rF + A*(ψ*c3-1)/math.Sqrt(c2)
			}
		}
		χ := math.Sqrt(y / c2)
		Δt = (math.Pow(χ, 3)*c3 + A*math.Sqrt(y)) / math.Sqrt(central.Mu)
		if Δt < Δt0s {
			ψlow = ψ
		} else {
			ψup = ψ
		}
		ψ = (ψup + ψlow) / 2
		if ψ > ε {
			sψ := math.Sqrt(ψ)
			ssψ, csψ := math.Sincos(sψ)
			c2 = (1 - csψ) / ψ
			c3 = (sψ - ssψ) / math.Sqrt(math.Pow(ψ, 3))
		} else if ψ < -ε {
			sψ := math.Sqrt(-ψ)
			c2 = (1 - math.Cosh(sψ)) / ψ
			c3 = (math.Sinh(sψ) - sψ) / math.Sqrt(math.Pow(sψ, 3))
		} else {
			c2 = 1 / 2.
			c3 = 1 / 6.
		}
	}
	f := 1 - y/rI
	gDot := 1 - y/rF
	g := A * math.Sqrt(y/central.Mu)
	Rf2 := mat64.NewVector(3, nil)
	Vi.AddScaledVec(Rf, -f, Ri)
	Vi.ScaleVec(1/g, Vi)
	Rf2.ScaleVec(gDot, Rf)
	Vf.AddScaledVec(Rf2, -1, Ri)
	Vf.ScaleVec(1/g, Vf)
	return
}
