// Package event implements the scalar/angular/instant predicates the
// numerical solver roots on: a satisfied/not-satisfied answer over a
// (previous, current) state pair, plus a signed residual on the scalar
// conditions for root bracketing.
package event

import (
	"math"
	"time"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
)

// Criterion names when a scalar residual counts as "satisfied".
type Criterion int

const (
	PositiveCrossing Criterion = iota
	NegativeCrossing
	AnyCrossing
	StrictlyPositive
	StrictlyNegative
)

// Condition is evaluable at a (previous, current) state pair.
type Condition interface {
	Name() string
	IsSatisfied(prev, curr *coordinate.State) bool
}

// RootBracketable is implemented by leaf scalar conditions whose residual
// can be fed to the root solver for crossing isolation; logical
// composites (And/Or/Not) do not implement it.
type RootBracketable interface {
	Condition
	Residual(s *coordinate.State) float64
}

func evalCriterion(c Criterion, prev, curr float64) bool {
	switch c {
	case PositiveCrossing:
		return prev <= 0 && curr > 0
	case NegativeCrossing:
		return prev >= 0 && curr < 0
	case AnyCrossing:
		return signOf(prev) != signOf(curr)
	case StrictlyPositive:
		return curr > 0
	case StrictlyNegative:
		return curr < 0
	default:
		return false
	}
}

func signOf(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func isCrossingCriterion(c Criterion) bool {
	return c == PositiveCrossing || c == NegativeCrossing || c == AnyCrossing
}

// RealCondition wraps an arbitrary scalar state function; residual =
// F(state) - Target.
type RealCondition struct {
	CondName string
	F        func(s *coordinate.State) float64
	Target   float64
	Crit     Criterion
}

func (r *RealCondition) Name() string { return r.CondName }

func (r *RealCondition) Residual(s *coordinate.State) float64 {
	return r.F(s) - r.Target
}

func (r *RealCondition) IsSatisfied(prev, curr *coordinate.State) bool {
	return evalCriterion(r.Crit, r.Residual(prev), r.Residual(curr))
}

// AngularCondition is a RealCondition whose residual is wrapped into
// (-pi, pi] and which explicitly disregards the antipodal crossing of
// the target: Target + 180 degrees is not itself a crossing, even though
// the wrapped residual's sign flips there (the branch cut of the wrap,
// not a genuine pass through zero).
type AngularCondition struct {
	CondName string
	F        func(s *coordinate.State) float64 // returns an angle in radians
	Target   float64                           // radians
	Crit     Criterion
}

func (a *AngularCondition) Name() string { return a.CondName }

func (a *AngularCondition) Residual(s *coordinate.State) float64 {
	return linalg.WrapPi(a.F(s) - a.Target)
}

func (a *AngularCondition) IsSatisfied(prev, curr *coordinate.State) bool {
	rp, rc := a.Residual(prev), a.Residual(curr)
	if isCrossingCriterion(a.Crit) && math.Abs(rc-rp) > math.Pi {
		// Wrapped residual jumped across the +/-pi branch cut: this is
		// the target+180 antipodal point, not a crossing of Target.
		return false
	}
	return evalCriterion(a.Crit, rp, rc)
}

// InstantCondition is satisfied when the state's instant crosses (or
// reaches) t_target; residual = t(state) - t_target in seconds.
type InstantCondition struct {
	CondName string
	Target   time.Time
	Crit     Criterion
}

func (i *InstantCondition) Name() string { return i.CondName }

func (i *InstantCondition) Residual(s *coordinate.State) float64 {
	return s.Instant.Sub(i.Target).Seconds()
}

func (i *InstantCondition) IsSatisfied(prev, curr *coordinate.State) bool {
	return evalCriterion(i.Crit, i.Residual(prev), i.Residual(curr))
}

// RelativeInstantCondition targets an instant computed as an offset from
// a reference (segment-start or sequence-start) instant, resolved by the
// enclosing segment/sequence just before solving.
type RelativeInstantCondition struct {
	CondName string
	Offset   time.Duration
	Crit     Criterion
}

// Resolve produces a concrete InstantCondition anchored at ref + Offset.
func (r *RelativeInstantCondition) Resolve(ref time.Time) *InstantCondition {
	return &InstantCondition{CondName: r.CondName, Target: ref.Add(r.Offset), Crit: r.Crit}
}

// And, Or, Not are logical composites; they evaluate pairwise on
// (prev, curr) like any leaf condition but are not RootBracketable
// (composites do not have a single scalar residual to isolate a crossing
// on).
type And struct {
	CondName string
	Of       []Condition
}

func (a *And) Name() string { return a.CondName }
func (a *And) IsSatisfied(prev, curr *coordinate.State) bool {
	for _, c := range a.Of {
		if !c.IsSatisfied(prev, curr) {
			return false
		}
	}
	return true
}

type Or struct {
	CondName string
	Of       []Condition
}

func (o *Or) Name() string { return o.CondName }
func (o *Or) IsSatisfied(prev, curr *coordinate.State) bool {
	for _, c := range o.Of {
		if c.IsSatisfied(prev, curr) {
			return true
		}
	}
	return false
}

type Not struct {
	CondName string
	Of       Condition
}

func (n *Not) Name() string { return n.CondName }
func (n *Not) IsSatisfied(prev, curr *coordinate.State) bool {
	return !n.Of.IsSatisfied(prev, curr)
}
