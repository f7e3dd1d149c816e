package tle

import (
	"time"

	gosatellite "github.com/joshuaferrara/go-satellite"
)

// SGP4Evaluator propagates a TLE to an instant and returns Cartesian
// position/velocity in meters and meters/second, TEME frame. It is the
// injected SGP4 collaborator that Estimate fits against.
type SGP4Evaluator interface {
	Propagate(t TLE, at time.Time) (r, v []float64, err error)
}

// GoSatelliteEvaluator wraps github.com/joshuaferrara/go-satellite's
// TLEToSat/Propagate.
type GoSatelliteEvaluator struct{}

func (GoSatelliteEvaluator) Propagate(t TLE, at time.Time) ([]float64, []float64, error) {
	sat := gosatellite.TLEToSat(t.Line1, t.Line2, gosatellite.GravityWGS84)
	at = at.UTC()
	pos, vel := gosatellite.Propagate(sat, at.Year(), int(at.Month()), at.Day(), at.Hour(), at.Minute(), at.Second())
	r := []float64{pos.X * 1000, pos.Y * 1000, pos.Z * 1000}
	v := []float64{vel.X * 1000, vel.Y * 1000, vel.Z * 1000}
	return r, v, nil
}
