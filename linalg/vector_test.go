package linalg

import (
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func TestNormAndUnit(t *testing.T) {
	v := []float64{3, 4, 0}
	if got := Norm(v); !floats.EqualWithinAbs(got, 5, 1e-12) {
		t.Fatalf("Norm(%v) = %f, want 5", v, got)
	}
	u := Unit(v)
	if !floats.EqualWithinAbs(Norm(u), 1, 1e-12) {
		t.Fatalf("Unit(%v) has norm %f, want 1", v, Norm(u))
	}
	zero := Unit([]float64{0, 0, 0})
	for i, c := range zero {
		if c != 0 {
			t.Fatalf("Unit(zero)[%d] = %f, want 0", i, c)
		}
	}
}

func TestDotAndCross(t *testing.T) {
	a := []float64{1, 0, 0}
	b := []float64{0, 1, 0}
	if got := Dot(a, b); got != 0 {
		t.Fatalf("Dot(x,y) = %f, want 0", got)
	}
	c := Cross(a, b)
	want := []float64{0, 0, 1}
	if !floats.EqualApprox(c, want, 1e-12) {
		t.Fatalf("Cross(x,y) = %v, want %v", c, want)
	}
}

func TestScaleAddSub(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 1, 1}
	if got := Scale(2, a); !floats.EqualApprox(got, []float64{2, 4, 6}, 1e-12) {
		t.Fatalf("Scale = %v", got)
	}
	if got := Add(a, b); !floats.EqualApprox(got, []float64{2, 3, 4}, 1e-12) {
		t.Fatalf("Add = %v", got)
	}
	if got := Sub(a, b); !floats.EqualApprox(got, []float64{0, 1, 2}, 1e-12) {
		t.Fatalf("Sub = %v", got)
	}
}

func TestSign(t *testing.T) {
	if Sign(5) != 1 {
		t.Fatal("Sign(5) should be 1")
	}
	if Sign(-5) != -1 {
		t.Fatal("Sign(-5) should be -1")
	}
	if Sign(0) != 1 {
		t.Fatal("Sign(0) should default to 1 (switching convention)")
	}
}

func TestMxV(t *testing.T) {
	identity := mat64.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	v := []float64{1, 2, 3}
	if got := MxV(identity, v); !floats.EqualApprox(got, v, 1e-12) {
		t.Fatalf("MxV(I, v) = %v, want %v", got, v)
	}
}

func TestDenseIdentity(t *testing.T) {
	id := DenseIdentity(3)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			want := 0.0
			if i == j {
				want = 1.0
			}
			if got := id.At(i, j); got != want {
				t.Fatalf("DenseIdentity(3)[%d][%d] = %f, want %f", i, j, got, want)
			}
		}
	}
}

func TestWrapPi(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0},
		{math.Pi, math.Pi},
		{-math.Pi, math.Pi},
		{3 * math.Pi, math.Pi},
		{-3 * math.Pi, math.Pi},
		{2*math.Pi + 0.1, 0.1},
	}
	for _, c := range cases {
		if got := WrapPi(c.in); !floats.EqualWithinAbs(got, c.want, 1e-9) {
			t.Fatalf("WrapPi(%f) = %f, want %f", c.in, got, c.want)
		}
		if got := WrapPi(c.in); got <= -math.Pi || got > math.Pi {
			t.Fatalf("WrapPi(%f) = %f out of (-pi, pi]", c.in, got)
		}
	}
}
