package segment

import (
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/event"
)

// Sequence chains Segments into a repeatable mission timeline: it
// repeats the ordered segment list Repetitions times (or until the
// overall Condition or PerSegmentLimit/total duration budget stops it),
// propagating the state forward segment to segment.
type Sequence struct {
	SeqName         string
	Segments        []*Segment
	Repetitions     int
	PerSegmentLimit time.Duration
	Condition       event.Condition // optional sequence-level stop condition
	Logger          kitlog.Logger   // optional; defaults to a nop logger
}

// SequenceSolution is the chained outcome: the per-segment solutions in
// execution order and whether the sequence ran to completion (every
// repetition finished and every segment's own condition was satisfied,
// or the sequence-level condition fired) rather than being cut short by
// the duration budget or a segment failing to satisfy its condition.
type SequenceSolution struct {
	Name              string
	Solutions         []*Solution
	ExecutionComplete bool
}

// Solve runs the sequence from initial, stopping at whichever of the
// following comes first: Repetitions full passes through Segments, the
// overall maxDuration budget being exhausted, a segment's own condition
// failing to be satisfied within its share of that budget, or (if set)
// Condition becoming satisfied across consecutive states.
func (sq *Sequence) Solve(initial *coordinate.State, maxDuration time.Duration) (*SequenceSolution, error) {
	logger := sq.Logger
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	state := initial
	var elapsed time.Duration
	var solutions []*Solution

	reps := sq.Repetitions
	if reps <= 0 {
		reps = 1
	}

	for rep := 0; rep < reps; rep++ {
		for _, seg := range sq.Segments {
			remaining := maxDuration - elapsed
			if remaining <= 0 {
				return &SequenceSolution{Name: sq.SeqName, Solutions: solutions, ExecutionComplete: false}, nil
			}
			budget := remaining
			if sq.PerSegmentLimit > 0 && sq.PerSegmentLimit < budget {
				budget = sq.PerSegmentLimit
			}

			sol, err := seg.Solve(state, budget)
			if err != nil {
				return &SequenceSolution{Name: sq.SeqName, Solutions: solutions, ExecutionComplete: false}, err
			}
			solutions = append(solutions, sol)
			elapsed += sol.Duration()
			logger.Log("level", "info", "subsys", "sequence", "sequence", sq.SeqName,
				"segment", seg.SegName, "rep", rep, "satisfied", sol.ConditionSatisfied,
				"elapsed", elapsed.String())

			prevState := state
			state = sol.LastState()

			if !sol.ConditionSatisfied {
				return &SequenceSolution{Name: sq.SeqName, Solutions: solutions, ExecutionComplete: false}, nil
			}
			if sq.Condition != nil && sq.Condition.IsSatisfied(prevState, state) {
				return &SequenceSolution{Name: sq.SeqName, Solutions: solutions, ExecutionComplete: true}, nil
			}
		}
	}
	return &SequenceSolution{Name: sq.SeqName, Solutions: solutions, ExecutionComplete: sq.Condition == nil}, nil
}
