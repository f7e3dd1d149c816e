// Package propagator composes registered dynamics into a single system
// of equations and drives the numerical solver forward or backward,
// splitting multi-instant requests around the initial instant and
// re-expanding condition solutions into the caller's frame and layout.
package propagator

import (
	"fmt"
	"sort"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/event"
	"github.com/loftorbital/ostk-astro-go/integrator"
)

// Context pairs a dynamics contributor with the broker offsets it reads
// and writes, built once during New and consulted only for diagnostics;
// Contribute itself still extracts subsets by name.
type Context struct {
	Dynamics     dynamics.Dynamics
	ReadOffsets  [][2]int
	WriteOffsets [][2]int
}

// Propagator builds the coordinate broker from its dynamics' declared
// subsets and exposes the propagate-to-instant, propagate-to-many, and
// propagate-to-condition entry points.
type Propagator struct {
	Broker   *coordinate.Broker
	Dynamics []dynamics.Dynamics
	Contexts []Context
	Solver   integrator.Solver
	Frame    coordinate.Frame
	Observe  bool
}

// New validates dyns (dynamics.Validate), builds a broker from their
// declared read/write subsets in first-registration order, and returns a
// ready-to-use Propagator.
func New(dyns []dynamics.Dynamics, solver integrator.Solver, integrationFrame coordinate.Frame) (*Propagator, error) {
	if err := dynamics.Validate(dyns); err != nil {
		return nil, err
	}
	broker := coordinate.NewBroker()
	contexts := make([]Context, 0, len(dyns))

	for _, d := range dyns {
		for _, name := range append(append([]string{}, d.ReadSubsets()...), d.WriteSubsets()...) {
			if broker.HasSubset(name) {
				continue
			}
			sub, ok := coordinate.BuiltinSubset(name)
			if !ok {
				return nil, astroerr.New("propagator.New", astroerr.SetupInvalid,
					fmt.Errorf("dynamics %q declares unknown subset %q", d.Name(), name))
			}
			if err := broker.AddSubset(sub); err != nil {
				return nil, err
			}
		}
	}
	for _, d := range dyns {
		ctx := Context{Dynamics: d}
		for _, name := range d.ReadSubsets() {
			off, _ := broker.OffsetOf(name)
			sub, _ := findSubset(broker, name)
			ctx.ReadOffsets = append(ctx.ReadOffsets, [2]int{off, sub.Size()})
		}
		for _, name := range d.WriteSubsets() {
			off, _ := broker.OffsetOf(name)
			sub, _ := findSubset(broker, name)
			ctx.WriteOffsets = append(ctx.WriteOffsets, [2]int{off, sub.Size()})
		}
		contexts = append(contexts, ctx)
	}

	return &Propagator{Broker: broker, Dynamics: dyns, Contexts: contexts, Solver: solver, Frame: integrationFrame}, nil
}

func findSubset(b *coordinate.Broker, name string) (coordinate.Subset, bool) {
	for _, s := range b.Subsets() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// system builds the integrator.Func that zero-initializes the derivative
// vector at every call and accumulates each dynamics' contribution
// additively.
func (p *Propagator) system(epoch time.Time) integrator.Func {
	return func(tSec float64, y []float64) ([]float64, error) {
		at := epoch.Add(time.Duration(tSec * float64(time.Second)))
		s := &coordinate.State{Instant: at, InFrameOf: p.Frame, Broker: p.Broker, Vector: y}
		deriv := make([]float64, p.Broker.Size())
		for _, d := range p.Dynamics {
			writes, err := d.Contribute(at, s)
			if err != nil {
				return nil, err
			}
			for name, vals := range writes {
				off, ok := p.Broker.OffsetOf(name)
				if !ok {
					return nil, astroerr.New("propagator.system", astroerr.InvalidState,
						fmt.Errorf("dynamics %q wrote unregistered subset %q", d.Name(), name))
				}
				for i, v := range vals {
					deriv[off+i] += v
				}
			}
		}
		return deriv, nil
	}
}

// prepare checks the broker and converts initial into the propagator's
// integration frame, remembering the caller's original frame so the
// result can be re-expanded into it.
func (p *Propagator) prepare(initial *coordinate.State) (*coordinate.State, coordinate.Frame, error) {
	if initial.Broker != p.Broker {
		return nil, nil, astroerr.New("propagator.prepare", astroerr.InvalidState,
			fmt.Errorf("initial state's broker does not match this propagator's broker"))
	}
	origFrame := initial.InFrameOf
	return initial.InFrame(p.Frame), origFrame, nil
}

// wrap tags y (expressed in the propagator's integration frame) with its
// instant, then re-expands it into outFrame.
func (p *Propagator) wrap(epoch time.Time, tSec float64, y []float64, outFrame coordinate.Frame) *coordinate.State {
	s := &coordinate.State{Instant: epoch.Add(time.Duration(tSec * float64(time.Second))), InFrameOf: p.Frame, Broker: p.Broker, Vector: y}
	if outFrame == nil {
		return s
	}
	return s.InFrame(outFrame)
}

// CalculateStateAt propagates initial to exactly tTarget, returning the
// state re-expressed in initial's original frame.
func (p *Propagator) CalculateStateAt(initial *coordinate.State, tTarget time.Time) (*coordinate.State, error) {
	s, origFrame, err := p.prepare(initial)
	if err != nil {
		return nil, err
	}
	t1 := tTarget.Sub(s.Instant).Seconds()
	y, _, err := p.Solver.IntegrateTo(p.system(s.Instant), 0, s.Vector, t1, p.Observe)
	if err != nil {
		return nil, err
	}
	return p.wrap(s.Instant, t1, y, origFrame), nil
}

// CalculateStatesAt propagates initial to each instant in instants:
// instants before initial.Instant are integrated backward from it,
// instants after are integrated forward from it, and the two halves are
// merged back into the caller's original order.
func (p *Propagator) CalculateStatesAt(initial *coordinate.State, instants []time.Time) ([]*coordinate.State, error) {
	s, origFrame, err := p.prepare(initial)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		idx int
		t   float64
	}
	var before, after []indexed
	atT0 := make(map[int]bool)
	for i, inst := range instants {
		tSec := inst.Sub(s.Instant).Seconds()
		switch {
		case tSec < 0:
			before = append(before, indexed{i, tSec})
		case tSec > 0:
			after = append(after, indexed{i, tSec})
		default:
			atT0[i] = true
		}
	}
	sort.Slice(before, func(a, b int) bool { return before[a].t > before[b].t }) // descending toward t0
	sort.Slice(after, func(a, b int) bool { return after[a].t < after[b].t })    // ascending away from t0

	out := make([]*coordinate.State, len(instants))
	f := p.system(s.Instant)

	if len(before) > 0 {
		rev := make([]float64, len(before))
		for i, b := range before {
			rev[len(before)-1-i] = b.t
		}
		ys, err := p.Solver.IntegrateArray(f, 0, s.Vector, rev)
		if err != nil {
			return nil, err
		}
		for i, b := range before {
			y := ys[len(ys)-1-i]
			out[b.idx] = p.wrap(s.Instant, b.t, y, origFrame)
		}
	}
	if len(after) > 0 {
		ts := make([]float64, len(after))
		for i, a := range after {
			ts[i] = a.t
		}
		ys, err := p.Solver.IntegrateArray(f, 0, s.Vector, ts)
		if err != nil {
			return nil, err
		}
		for i, a := range after {
			out[a.idx] = p.wrap(s.Instant, a.t, ys[i], origFrame)
		}
	}
	for i := range atT0 {
		out[i] = p.wrap(s.Instant, 0, s.Vector, origFrame)
	}
	return out, nil
}

// CalculateStateToCondition propagates initial forward up to maxDuration,
// stopping early at the isolated crossing instant of cond. The returned
// state is re-expanded into initial's frame so it matches the caller's
// subset layout.
func (p *Propagator) CalculateStateToCondition(initial *coordinate.State, maxDuration time.Duration, cond event.Condition) (integrator.ConditionSolution, *coordinate.State, error) {
	if cond == nil {
		return integrator.ConditionSolution{}, nil, astroerr.New("propagator.CalculateStateToCondition", astroerr.InvalidState,
			fmt.Errorf("nil event condition"))
	}
	s, origFrame, err := p.prepare(initial)
	if err != nil {
		return integrator.ConditionSolution{}, nil, err
	}
	t1 := maxDuration.Seconds()
	epoch := s.Instant

	ic := integrator.EventCondition{
		IsSatisfied: func(prevT float64, prevY []float64, currT float64, currY []float64) bool {
			prevState := &coordinate.State{Instant: epoch.Add(time.Duration(prevT * float64(time.Second))), InFrameOf: p.Frame, Broker: p.Broker, Vector: prevY}
			currState := &coordinate.State{Instant: epoch.Add(time.Duration(currT * float64(time.Second))), InFrameOf: p.Frame, Broker: p.Broker, Vector: currY}
			return cond.IsSatisfied(prevState, currState)
		},
	}
	if rb, ok := cond.(event.RootBracketable); ok {
		ic.Residual = func(t float64, y []float64) float64 {
			st := &coordinate.State{Instant: epoch.Add(time.Duration(t * float64(time.Second))), InFrameOf: p.Frame, Broker: p.Broker, Vector: y}
			return rb.Residual(st)
		}
	}

	sol, err := p.Solver.IntegrateToCondition(p.system(epoch), 0, s.Vector, t1, ic, p.Observe)
	if err != nil {
		return integrator.ConditionSolution{}, nil, err
	}
	return sol, p.wrap(epoch, sol.T, sol.Y, origFrame), nil
}
