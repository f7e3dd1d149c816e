// Package tle implements a TLE solver: a least-squares fit whose
// parameter vector is a modified-equinoctial (MEOE) reparameterization
// of a TLE, with round-trip TLE<->MEOE conversions and an injected
// SGP4 evaluator. The fit itself reuses package lsq.
package tle

import (
	"math"

	"github.com/loftorbital/ostk-astro-go/guidance"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// MEOEParams is the modified-equinoctial element set (p, f, g, h, k, L)
// plus an optional drag term B*, normalized into one flat parameter
// vector before entering the least-squares fit.
type MEOEParams struct {
	P, F, G, H, K, L float64
	BStar            float64
	FitBStar         bool // whether B* is a free parameter in the fit
}

// Vector packs the MEOE parameters into the flat slice lsq.Solve fits
// over: the 6 equinoctial elements, plus B* when FitBStar is set.
func (m MEOEParams) Vector() []float64 {
	if m.FitBStar {
		return []float64{m.P, m.F, m.G, m.H, m.K, m.L, m.BStar}
	}
	return []float64{m.P, m.F, m.G, m.H, m.K, m.L}
}

// FromVector rebuilds a MEOEParams from a flat slice produced by Vector,
// preserving the receiver's FitBStar flag (and its fixed B* value when
// FitBStar is false).
func (m MEOEParams) FromVector(v []float64) MEOEParams {
	out := MEOEParams{P: v[0], F: v[1], G: v[2], H: v[3], K: v[4], L: v[5], FitBStar: m.FitBStar, BStar: m.BStar}
	if m.FitBStar {
		out.BStar = v[6]
	}
	return out
}

// FromClassical builds MEOEParams from classical orbital elements (all
// angles in radians), per the standard equinoctial transformation.
func FromClassical(sma, ecc, inc, raan, argp, nu float64) MEOEParams {
	return MEOEParams{
		P: sma * (1 - ecc*ecc),
		F: ecc * math.Cos(argp+raan),
		G: ecc * math.Sin(argp+raan),
		H: math.Tan(inc/2) * math.Cos(raan),
		K: math.Tan(inc/2) * math.Sin(raan),
		L: wrapTwoPi(raan + argp + nu),
	}
}

// ToClassical recovers classical orbital elements from the equinoctial
// set (argp/raan split via atan2 to avoid the subtraction's quadrant
// ambiguity).
func (m MEOEParams) ToClassical() (sma, ecc, inc, raan, argp, nu float64) {
	ecc = math.Sqrt(m.F*m.F + m.G*m.G)
	sma = m.P / (1 - ecc*ecc)
	inc = 2 * math.Atan(math.Sqrt(m.H*m.H+m.K*m.K))
	raan = math.Atan2(m.K, m.H)
	argp = math.Atan2(m.G*m.H-m.F*m.K, m.F*m.H+m.G*m.K)
	nu = wrapTwoPi(m.L - raan - argp)
	return
}

// ToCartesian evaluates the direct equinoctial-to-Cartesian formulas
// (Walker/Owen), avoiding any further trigonometric element recovery.
func (m MEOEParams) ToCartesian(mu float64) (r, v []float64) {
	p, f, g, h, k, l := m.P, m.F, m.G, m.H, m.K, m.L
	cosL, sinL := math.Cos(l), math.Sin(l)
	alpha2 := h*h - k*k
	s2 := 1 + h*h + k*k
	w := 1 + f*cosL + g*sinL
	rNorm := p / w
	sqrtMuP := math.Sqrt(mu / p)

	r = []float64{
		rNorm / s2 * (cosL + alpha2*cosL + 2*h*k*sinL),
		rNorm / s2 * (sinL - alpha2*sinL + 2*h*k*cosL),
		2 * rNorm / s2 * (h*sinL - k*cosL),
	}
	v = []float64{
		-1 / s2 * sqrtMuP * (sinL + alpha2*sinL - 2*h*k*cosL + g - 2*f*h*k + alpha2*g),
		-1 / s2 * sqrtMuP * (-cosL + alpha2*cosL + 2*h*k*sinL - f + 2*g*h*k + alpha2*f),
		2 / s2 * sqrtMuP * (h*cosL + k*sinL + f*h + g*k),
	}
	return r, v
}

// FromCartesian builds MEOEParams from a Cartesian (r, v) pair under mu,
// going through classical elements (the extra trig round trip costs
// little at TLE-fit scale and reuses guidance.Elements' existing
// RAAN/ArgP quadrant handling).
func FromCartesian(r, v []float64, mu float64) MEOEParams {
	el := guidance.Elements(r, v, mu)
	nu := trueAnomaly(r, v, mu)
	return FromClassical(el.SMA, el.Ecc, el.Inc, el.RAAN, el.ArgP, nu)
}

// trueAnomaly recovers nu from the eccentricity vector, the one element
// guidance.Elements does not already compute.
func trueAnomaly(r, v []float64, mu float64) float64 {
	h := linalg.Cross(r, v)
	eVec := linalg.Sub(linalg.Scale(1/mu, linalg.Cross(v, h)), linalg.Unit(r))
	ecc := linalg.Norm(eVec)
	rNorm := linalg.Norm(r)
	if ecc < 1e-12 {
		return 0
	}
	cosNu := linalg.Dot(eVec, r) / (ecc * rNorm)
	if cosNu > 1 {
		cosNu = 1
	} else if cosNu < -1 {
		cosNu = -1
	}
	nu := math.Acos(cosNu)
	if linalg.Dot(r, v) < 0 {
		nu = 2*math.Pi - nu
	}
	return nu
}

func wrapTwoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}
