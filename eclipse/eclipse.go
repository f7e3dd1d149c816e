// Package eclipse generates umbra/penumbra shadow-phase intervals along a
// trajectory, built as an event.Condition over a conical shadow function
// driving a sampled-grid-plus-root-isolation search rather than as a
// bespoke standalone generator, keeping it inside the propagator/event
// architecture instead of adding a parallel code path.
package eclipse

import (
	"fmt"
	"math"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/linalg"
	"github.com/loftorbital/ostk-astro-go/propagator"
	"github.com/loftorbital/ostk-astro-go/rootfind"
)

// arccosSafe and arcsinSafe clamp their argument into the valid domain
// before calling math.Acos/math.Asin, guarding against the occasional
// 1+epsilon that floating-point range ratios produce at the boundary.
func arccosSafe(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Acos(x)
}

func arcsinSafe(x float64) float64 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}
	return math.Asin(x)
}

// Phase names the shadow region a state occupies.
type Phase int

const (
	// Sunlit is full sun visibility: no occultation of the illuminating
	// body.
	Sunlit Phase = iota
	// Penumbra is partial occultation: the illuminating body's disk is
	// only partly hidden, as seen from the satellite.
	Penumbra
	// Umbra is full occultation.
	Umbra
)

func (p Phase) String() string {
	switch p {
	case Penumbra:
		return "penumbra"
	case Umbra:
		return "umbra"
	default:
		return "sunlit"
	}
}

// Interval is one contiguous [Start, End) span spent in Phase.
type Interval struct {
	Phase Phase
	Start time.Time
	End   time.Time
}

// Event is one full eclipse event: the encompassing penumbra span plus,
// when the geometry drives all the way to total occultation, the umbra
// span nested inside it.
type Event struct {
	PenumbraStart time.Time
	UmbraStart    time.Time // zero if the event never reaches full umbra
	UmbraEnd      time.Time
	PenumbraEnd   time.Time
}

// Generator searches a trajectory for shadow-phase transitions.
type Generator struct {
	// Prop propagates the trajectory; its integration frame must be
	// inertial (body-centered) and match Sun/Occulting's frame.
	Prop *propagator.Propagator
	// Sun is the illuminating body's ephemeris (position in Prop.Frame).
	Sun body.Ephemeris
	// SunRadius is the illuminating body's physical radius, meters.
	SunRadius float64
	// Occulting is the shadow-casting body; Occulting.EquatorialRadius
	// is its occulting disk radius.
	Occulting *body.Model
	// Step is the coarse sampling grid used to bracket transitions
	// before root isolation; must be small relative to the shortest
	// shadow phase expected (a fraction of an orbital period is typical).
	Step time.Duration
}

// xtol bounds the root-isolation precision on the crossing instant,
// expressed in seconds.
const xtol = 1e-3

// shadowAngles returns, for state s, the apparent angular separation
// between the Sun and the occulting body as seen from the satellite
// (sSep), the Sun's apparent angular radius (rhoSun) and the occulting
// body's apparent angular radius (rhoBody) — all in radians. This is the
// standard conical shadow geometry (e.g. Vallado's shadow function):
// full sun when sSep >= rhoBody+rhoSun, full umbra when
// sSep <= rhoBody-rhoSun (assuming rhoBody > rhoSun, true for a
// satellite's LEO/GEO distance from Earth versus the Sun), penumbra
// between.
func (g *Generator) shadowAngles(s *coordinate.State) (sSep, rhoSun, rhoBody float64, err error) {
	pos, err := s.Extract(coordinate.CartesianPosition)
	if err != nil {
		return 0, 0, 0, err
	}
	sunPos := g.Sun.PositionIn(s.InFrameOf, s.Instant)

	// Vector from satellite to Sun and from satellite to occulting-body
	// center (the occulting body is the propagation's origin, so its
	// position relative to the satellite is just -pos).
	satToSun := linalg.Sub(sunPos, pos)
	satToBody := linalg.Scale(-1, pos)

	rSun := linalg.Norm(satToSun)
	rBody := linalg.Norm(satToBody)
	if rSun <= 0 || rBody <= 0 {
		return 0, 0, 0, astroerr.New("eclipse.shadowAngles", astroerr.OutOfDomain,
			fmt.Errorf("degenerate satellite-body or satellite-Sun range"))
	}

	cosSep := linalg.Dot(satToSun, satToBody) / (rSun * rBody)
	if cosSep > 1 {
		cosSep = 1
	} else if cosSep < -1 {
		cosSep = -1
	}
	sSep = arccosSafe(cosSep)
	rhoSun = arcsinSafe(g.SunRadius / rSun)
	rhoBody = arcsinSafe(g.Occulting.EquatorialRadius / rBody)
	return sSep, rhoSun, rhoBody, nil
}

// visibility returns the fraction of the Sun's disk unobstructed by the
// occulting body as seen from state s's satellite position: 1 for full
// sun, 0 for full umbra, linearly interpolated across the penumbra
// region (the exact conical overlap fraction belongs to a dedicated
// photometric model; this linear blend is sufficient to drive the
// boundary-crossing conditions below).
func (g *Generator) visibility(s *coordinate.State) (float64, error) {
	sep, rhoSun, rhoBody, err := g.shadowAngles(s)
	if err != nil {
		return 0, err
	}
	switch {
	case sep >= rhoBody+rhoSun:
		return 1, nil
	case sep <= rhoBody-rhoSun:
		return 0, nil
	default:
		return (sep - (rhoBody - rhoSun)) / (2 * rhoSun), nil
	}
}

// phaseAt classifies state s into Sunlit/Penumbra/Umbra.
func (g *Generator) phaseAt(s *coordinate.State) (Phase, error) {
	v, err := g.visibility(s)
	if err != nil {
		return Sunlit, err
	}
	switch {
	case v >= 1:
		return Sunlit, nil
	case v <= 0:
		return Umbra, nil
	default:
		return Penumbra, nil
	}
}

// boundaryResidual returns a signed scalar that is negative strictly
// inside the named boundary level and positive strictly outside it, so
// rootfind.Brent can isolate the crossing instant: level 1 isolates the
// sunlit/penumbra boundary, level 0 isolates the penumbra/umbra boundary.
func (g *Generator) boundaryResidual(initial *coordinate.State, level float64) func(tSec float64) float64 {
	return func(tSec float64) float64 {
		at := initial.Instant.Add(time.Duration(tSec * float64(time.Second)))
		s, err := g.Prop.CalculateStateAt(initial, at)
		if err != nil {
			return 0
		}
		v, err := g.visibility(s)
		if err != nil {
			return 0
		}
		return v - level
	}
}

// Generate returns the eclipse events whose penumbra spans overlap
// [start, end), walking initial's trajectory on the coarse Step grid and
// isolating each phase transition with rootfind.Brent.
func (g *Generator) Generate(initial *coordinate.State, start, end time.Time) ([]Event, error) {
	if !end.After(start) {
		return nil, astroerr.New("eclipse.Generate", astroerr.OutOfDomain,
			fmt.Errorf("end %s is not after start %s", end, start))
	}

	type sample struct {
		t     time.Time
		phase Phase
	}
	var samples []sample
	for t := start; !t.After(end); t = t.Add(g.Step) {
		s, err := g.Prop.CalculateStateAt(initial, t)
		if err != nil {
			return nil, err
		}
		ph, err := g.phaseAt(s)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample{t, ph})
	}
	if last := samples[len(samples)-1].t; last.Before(end) {
		s, err := g.Prop.CalculateStateAt(initial, end)
		if err != nil {
			return nil, err
		}
		ph, err := g.phaseAt(s)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample{end, ph})
	}

	crossInstant := func(lo, hi time.Time, level float64) (time.Time, error) {
		loSec := lo.Sub(initial.Instant).Seconds()
		hiSec := hi.Sub(initial.Instant).Seconds()
		res, err := rootfind.Brent(g.boundaryResidual(initial, level), loSec, hiSec, xtol, xtol)
		if err != nil {
			return time.Time{}, err
		}
		return initial.Instant.Add(time.Duration(res.Root * float64(time.Second))), nil
	}

	var events []Event
	var cur *Event // in-progress event, flushed into events on PenumbraEnd
	for i := 1; i < len(samples); i++ {
		prev, curr := samples[i-1], samples[i]
		if prev.phase == curr.phase {
			continue
		}
		switch {
		case prev.phase == Sunlit && curr.phase != Sunlit:
			ts, err := crossInstant(prev.t, curr.t, 1)
			if err != nil {
				return nil, err
			}
			cur = &Event{PenumbraStart: ts}
		case curr.phase == Umbra && prev.phase == Penumbra:
			if cur == nil {
				continue
			}
			ts, err := crossInstant(prev.t, curr.t, 0)
			if err != nil {
				return nil, err
			}
			cur.UmbraStart = ts
		case prev.phase == Umbra && curr.phase == Penumbra:
			if cur == nil {
				continue
			}
			ts, err := crossInstant(prev.t, curr.t, 0)
			if err != nil {
				return nil, err
			}
			cur.UmbraEnd = ts
		case prev.phase != Sunlit && curr.phase == Sunlit:
			if cur == nil {
				continue
			}
			ts, err := crossInstant(prev.t, curr.t, 1)
			if err != nil {
				return nil, err
			}
			cur.PenumbraEnd = ts
			events = append(events, *cur)
			cur = nil
		}
	}
	return events, nil
}

// Intervals flattens events into contiguous phase Intervals, inserting
// Sunlit gaps between them; useful for callers that want a simple
// timeline rather than the nested Event shape.
func Intervals(events []Event, start, end time.Time) []Interval {
	var out []Interval
	cursor := start
	for _, e := range events {
		if e.PenumbraStart.After(cursor) {
			out = append(out, Interval{Sunlit, cursor, e.PenumbraStart})
		}
		if !e.UmbraStart.IsZero() {
			out = append(out, Interval{Penumbra, e.PenumbraStart, e.UmbraStart})
			out = append(out, Interval{Umbra, e.UmbraStart, e.UmbraEnd})
			out = append(out, Interval{Penumbra, e.UmbraEnd, e.PenumbraEnd})
		} else {
			out = append(out, Interval{Penumbra, e.PenumbraStart, e.PenumbraEnd})
		}
		cursor = e.PenumbraEnd
	}
	if end.After(cursor) {
		out = append(out, Interval{Sunlit, cursor, end})
	}
	return out
}
