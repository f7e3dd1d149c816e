// Package dynamics implements the force/kinematic contributors:
// pluggable, composable Dynamics values a propagator.Propagator
// assembles into one system of equations at setup time. Each declares
// the coordinate subsets it reads and writes; contributions to the
// same subset are additive.
package dynamics

import (
	"fmt"
	"time"

	"github.com/loftorbital/ostk-astro-go/astroerr"
	"github.com/loftorbital/ostk-astro-go/coordinate"
)

// Kind tags a Dynamics' role for the propagator's setup-time validity
// count (at most one drag, at most one thruster, exactly one
// central-body gravity, exactly one position-derivative).
type Kind string

const (
	KindPositionDerivative Kind = "position-derivative"
	KindCentralGravity     Kind = "central-gravity"
	KindThirdBodyGravity   Kind = "third-body-gravity"
	KindDrag               Kind = "drag"
	KindThruster           Kind = "thruster"
	KindOther              Kind = "other"
)

// Dynamics is a pure function of (instant, state) that writes partial
// derivatives into a subset of the state's subsets. Read/WriteSubsets let
// the propagator build the coordinate broker and the per-dynamics
// index arrays before any integration starts.
type Dynamics interface {
	Name() string
	Kind() Kind
	ReadSubsets() []string
	WriteSubsets() []string
	// Contribute evaluates the contributor at (at, s) and returns the
	// subset-name-keyed partial derivatives it writes. s is expressed in
	// the propagator's integration frame.
	Contribute(at time.Time, s *coordinate.State) (map[string][]float64, error)
}

// Validate enforces the propagator's composition rule: exactly one
// position derivative, exactly one central-body gravity, at most one
// drag contributor, at most one thruster. Violation is a setup-time
// error.
func Validate(dyns []Dynamics) error {
	counts := map[Kind]int{}
	for _, d := range dyns {
		counts[d.Kind()]++
	}
	if counts[KindPositionDerivative] != 1 {
		return astroerr.New("dynamics.Validate", astroerr.SetupInvalid,
			fmt.Errorf("exactly one position-derivative contributor required, found %d", counts[KindPositionDerivative]))
	}
	if counts[KindCentralGravity] != 1 {
		return astroerr.New("dynamics.Validate", astroerr.SetupInvalid,
			fmt.Errorf("exactly one central-body gravity contributor required, found %d", counts[KindCentralGravity]))
	}
	if counts[KindDrag] > 1 {
		return astroerr.New("dynamics.Validate", astroerr.SetupInvalid,
			fmt.Errorf("at most one atmospheric-drag contributor allowed, found %d", counts[KindDrag]))
	}
	if counts[KindThruster] > 1 {
		return astroerr.New("dynamics.Validate", astroerr.SetupInvalid,
			fmt.Errorf("at most one thruster allowed, found %d", counts[KindThruster]))
	}
	return nil
}
