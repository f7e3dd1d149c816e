package event

import (
	"math"
	"testing"
	"time"

	"github.com/loftorbital/ostk-astro-go/coordinate"
)

const angleSubset = "angle_deg"

func newAngleState(t *testing.T, deg float64, at time.Time) *coordinate.State {
	t.Helper()
	b := coordinate.NewBroker()
	if err := b.AddSubset(coordinate.NewScalarSubset(angleSubset)); err != nil {
		t.Fatalf("AddSubset: %s", err)
	}
	s := coordinate.NewState(b, at, nil)
	if err := s.Set(angleSubset, []float64{deg}); err != nil {
		t.Fatalf("Set: %s", err)
	}
	return s
}

func angleResidual(s *coordinate.State) float64 {
	v, err := s.Extract(angleSubset)
	if err != nil {
		panic(err)
	}
	return v[0]
}

// Angular crossing semantics: target 45 degrees, positive-crossing.
func TestAngularConditionCrossingSemantics(t *testing.T) {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	cond := &AngularCondition{
		CondName: "raan-45",
		F:        func(s *coordinate.State) float64 { return angleResidual(s) * math.Pi / 180 },
		Target:   45 * math.Pi / 180,
		Crit:     PositiveCrossing,
	}

	cases := []struct {
		name          string
		prevDeg, currDeg float64
		want          bool
	}{
		{"crosses target upward", 44, 46, true},
		{"antipodal region is not a crossing", 224, 226, false},
		{"decreasing through target is not positive-crossing", 46, 44, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			prev := newAngleState(t, tc.prevDeg, base)
			curr := newAngleState(t, tc.currDeg, base.Add(time.Minute))
			got := cond.IsSatisfied(prev, curr)
			if got != tc.want {
				t.Fatalf("IsSatisfied(prev=%g, curr=%g) = %v, want %v", tc.prevDeg, tc.currDeg, got, tc.want)
			}
		})
	}
}

func TestRealConditionCriteria(t *testing.T) {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(v float64) *coordinate.State { return newAngleState(t, v, base) }

	tests := []struct {
		name       string
		crit       Criterion
		prev, curr float64
		want       bool
	}{
		{"positive-crossing satisfied", PositiveCrossing, -1, 1, true},
		{"positive-crossing not satisfied on negative", PositiveCrossing, 1, -1, false},
		{"negative-crossing satisfied", NegativeCrossing, 1, -1, true},
		{"any-crossing satisfied either direction", AnyCrossing, 1, -1, true},
		{"strictly-positive", StrictlyPositive, -5, 0.1, true},
		{"strictly-negative", StrictlyNegative, 5, -0.1, true},
		{"strictly-positive false at zero", StrictlyPositive, -5, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cond := &RealCondition{CondName: tc.name, F: angleResidual, Target: 0, Crit: tc.crit}
			got := cond.IsSatisfied(mk(tc.prev), mk(tc.curr))
			if got != tc.want {
				t.Fatalf("IsSatisfied = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInstantConditionResidualAndSatisfied(t *testing.T) {
	target := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	cond := &InstantCondition{CondName: "t-target", Target: target, Crit: AnyCrossing}
	prev := newAngleState(t, 0, target.Add(-time.Minute))
	curr := newAngleState(t, 0, target.Add(time.Minute))
	if !cond.IsSatisfied(prev, curr) {
		t.Fatal("expected instant condition to be satisfied straddling target")
	}
	if r := cond.Residual(curr); math.Abs(r-60) > 1e-9 {
		t.Fatalf("Residual(curr) = %g, want 60", r)
	}
}

func TestRelativeInstantConditionResolvesOffsetFromReference(t *testing.T) {
	ref := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	rel := &RelativeInstantCondition{CondName: "t+15m", Offset: 15 * time.Minute, Crit: AnyCrossing}
	resolved := rel.Resolve(ref)
	want := ref.Add(15 * time.Minute)
	if !resolved.Target.Equal(want) {
		t.Fatalf("Resolve target = %v, want %v", resolved.Target, want)
	}
}

// Event idempotence: re-evaluating at the solution instant returns the
// same satisfied flag deterministically.
func TestEventIdempotence(t *testing.T) {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	cond := &RealCondition{CondName: "idem", F: angleResidual, Target: 0, Crit: AnyCrossing}
	prev := newAngleState(t, -1, base)
	curr := newAngleState(t, 1, base.Add(time.Second))
	first := cond.IsSatisfied(prev, curr)
	second := cond.IsSatisfied(prev, curr)
	if first != second || !first {
		t.Fatalf("expected stable satisfied=true across re-evaluation, got %v then %v", first, second)
	}
}

func TestLogicalComposites(t *testing.T) {
	base := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := newAngleState(t, -1, base)
	curr := newAngleState(t, 1, base.Add(time.Second))

	posCross := &RealCondition{CondName: "pos", F: angleResidual, Target: 0, Crit: PositiveCrossing}
	negCross := &RealCondition{CondName: "neg", F: angleResidual, Target: 0, Crit: NegativeCrossing}

	and := &And{CondName: "and", Of: []Condition{posCross, negCross}}
	if and.IsSatisfied(prev, curr) {
		t.Fatal("And of a true and a false condition must be false")
	}

	or := &Or{CondName: "or", Of: []Condition{posCross, negCross}}
	if !or.IsSatisfied(prev, curr) {
		t.Fatal("Or of a true and a false condition must be true")
	}

	not := &Not{CondName: "not", Of: posCross}
	if not.IsSatisfied(prev, curr) {
		t.Fatal("Not of a true condition must be false")
	}

	// Composites do not implement RootBracketable.
	if _, ok := Condition(and).(RootBracketable); ok {
		t.Fatal("And composite must not be RootBracketable")
	}
}
