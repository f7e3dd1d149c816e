// Package linalg collects the small 3-vector/matrix helpers shared by
// frame, dynamics, guidance and stm.
package linalg

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// Norm returns the Euclidean norm of a 3-vector.
func Norm(v []float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Unit returns the unit vector of a, or the zero vector if a is
// (numerically) zero.
func Unit(a []float64) []float64 {
	n := Norm(a)
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return make([]float64, len(a))
	}
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = v / n
	}
	return b
}

// Dot performs the inner product via mat64/BLAS.
func Dot(a, b []float64) float64 {
	return mat64.Dot(mat64.NewVector(len(a), a), mat64.NewVector(len(b), b))
}

// Cross performs the 3-vector cross product a x b.
func Cross(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Scale returns s*a.
func Scale(s float64, a []float64) []float64 {
	b := make([]float64, len(a))
	for i, v := range a {
		b[i] = s * v
	}
	return b
}

// Add returns a+b element-wise.
func Add(a, b []float64) []float64 {
	c := make([]float64, len(a))
	for i := range a {
		c[i] = a[i] + b[i]
	}
	return c
}

// Sub returns a-b element-wise.
func Sub(a, b []float64) []float64 {
	c := make([]float64, len(a))
	for i := range a {
		c[i] = a[i] - b[i]
	}
	return c
}

// Sign returns the sign of v, treating values within 1e-12 of zero as
// positive.
func Sign(v float64) float64 {
	if floats.EqualWithinAbs(v, 0, 1e-12) {
		return 1
	}
	return v / math.Abs(v)
}

// MxV multiplies a 3x3 dense matrix by a 3-vector.
func MxV(m *mat64.Dense, v []float64) []float64 {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// DenseIdentity returns an n x n identity matrix.
func DenseIdentity(n int) *mat64.Dense {
	vals := make([]float64, n*n)
	for j := 0; j < n*n; j++ {
		if j%(n+1) == 0 {
			vals[j] = 1
		}
	}
	return mat64.NewDense(n, n, vals)
}

// WrapPi wraps an angle into (-pi, pi].
func WrapPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}
