package integrator

import (
	"math"
	"testing"

	"github.com/ChristopherRabotin/ode"
)

// odeOscillator adapts the harmonic oscillator onto ode.Integrable so
// FixedRK4 can be cross-checked against an independent RK4 driver.
type odeOscillator struct {
	state []float64
	end   float64
}

func (o *odeOscillator) GetState() []float64 { return o.state }
func (o *odeOscillator) SetState(t float64, s []float64) {
	o.state = append(o.state[:0], s...)
}
func (o *odeOscillator) Stop(t float64) bool { return t >= o.end }
func (o *odeOscillator) Func(t float64, s []float64) []float64 {
	return []float64{s[1], -s[0]}
}

func TestFixedRK4MatchesIndependentDriver(t *testing.T) {
	const h = 0.005
	const end = 2.0

	mine, _, err := FixedRK4{Step: h}.IntegrateTo(harmonicOscillator, 0, []float64{1, 0}, end, false)
	if err != nil {
		t.Fatalf("IntegrateTo: %s", err)
	}

	ref := &odeOscillator{state: []float64{1, 0}, end: end}
	ode.NewRK4(0, h, ref).Solve()

	for i := range mine {
		if math.Abs(mine[i]-ref.state[i]) > 1e-9 {
			t.Fatalf("component %d: FixedRK4 %.12f vs reference driver %.12f", i, mine[i], ref.state[i])
		}
	}
}
