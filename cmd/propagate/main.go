// Command propagate reads a scenario TOML file and propagates a single
// spacecraft state, printing the resulting trajectory to stdout.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/guidance"
	"github.com/loftorbital/ostk-astro-go/integrator"
	"github.com/loftorbital/ostk-astro-go/propagator"
)

const defaultScenario = "~~unset~~"

var scenario string

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "propagation scenario TOML file")
}

func main() {
	flag.Parse()
	if scenario == defaultScenario {
		log.Fatal("no scenario provided")
	}
	scenario = strings.Replace(scenario, ".toml", "", 1)
	viper.AddConfigPath(".")
	viper.SetConfigName(scenario)
	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("./%s.toml: %s", scenario, err)
	}

	startDT := viper.GetTime("mission.start")
	endDT := viper.GetTime("mission.end")
	timeStep := viper.GetDuration("mission.step")

	centralBody := bodyFromName(viper.GetString("orbit.body"))
	integrationFrame := frame.NewInertial(centralBody.Name + "-inertial")

	dyns := []dynamics.Dynamics{
		dynamics.PositionDerivative{},
		&dynamics.CentralBodyGravity{Body: centralBody},
	}
	thrustOn := viper.GetBool("spacecraft.thrust.enabled")
	if thrustOn {
		dyns = append(dyns, &dynamics.Thruster{
			Law: guidance.Tangential(),
			Propulsion: dynamics.Propulsion{
				ThrustN: viper.GetFloat64("spacecraft.thrust.newtons"),
				IspS:    viper.GetFloat64("spacecraft.thrust.isp"),
			},
		})
	}

	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-9, 1e-12)
	prop, err := propagator.New(dyns, solver, integrationFrame)
	if err != nil {
		log.Fatalf("could not build propagator: %s", err)
	}

	state := coordinate.NewState(prop.Broker, startDT, integrationFrame)
	R := []float64{viper.GetFloat64("orbit.R1"), viper.GetFloat64("orbit.R2"), viper.GetFloat64("orbit.R3")}
	V := []float64{viper.GetFloat64("orbit.V1"), viper.GetFloat64("orbit.V2"), viper.GetFloat64("orbit.V3")}
	_ = state.Set(coordinate.CartesianPosition, R)
	_ = state.Set(coordinate.CartesianVelocity, V)
	if thrustOn {
		_ = state.Set(coordinate.Mass, []float64{viper.GetFloat64("spacecraft.mass")})
	}

	var instants []time.Time
	for t := startDT; !t.After(endDT); t = t.Add(timeStep) {
		instants = append(instants, t)
	}

	states, err := prop.CalculateStatesAt(state, instants)
	if err != nil {
		log.Fatalf("propagation failed: %s", err)
	}

	fmt.Println("t,rx,ry,rz,vx,vy,vz")
	for _, s := range states {
		r := s.Position()
		v := s.Velocity()
		fmt.Printf("%s,%f,%f,%f,%f,%f,%f\n", s.Instant.Format(time.RFC3339), r[0], r[1], r[2], v[0], v[1], v[2])
	}
}

func bodyFromName(name string) *body.Model {
	switch strings.ToLower(name) {
	case "earth", "":
		return body.Earth
	default:
		log.Fatalf("unknown central body %q", name)
		return nil
	}
}
