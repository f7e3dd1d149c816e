// Command od performs batch orbit determination: it reads a scenario
// TOML file for the initial guess and dynamics, a CSV of Cartesian
// observations, and writes the fitted state plus per-iteration RMS to
// stdout.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/spf13/viper"

	"github.com/loftorbital/ostk-astro-go/body"
	"github.com/loftorbital/ostk-astro-go/coordinate"
	"github.com/loftorbital/ostk-astro-go/dynamics"
	"github.com/loftorbital/ostk-astro-go/frame"
	"github.com/loftorbital/ostk-astro-go/integrator"
	"github.com/loftorbital/ostk-astro-go/od"
	"github.com/loftorbital/ostk-astro-go/propagator"
)

const defaultScenario = "~~unset~~"

var (
	scenario string
	debug    = flag.Bool("debug", false, "verbose per-iteration logging")
)

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "OD scenario TOML file")
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

	integrationFrame := frame.NewInertial(body.Earth.Name + "-inertial")
	dyns := []dynamics.Dynamics{
		dynamics.PositionDerivative{},
		&dynamics.CentralBodyGravity{Body: body.Earth},
	}
	solver := integrator.NewAdaptiveSolver(integrator.DormandPrince54, 1e-9, 1e-12)
	prop, err := propagator.New(dyns, solver, integrationFrame)
	if err != nil {
		log.Fatalf("could not build propagator: %s", err)
	}

	guess := coordinate.NewState(prop.Broker, viper.GetTime("mission.start"), integrationFrame)
	_ = guess.Set(coordinate.CartesianPosition, []float64{
		viper.GetFloat64("orbit.R1"), viper.GetFloat64("orbit.R2"), viper.GetFloat64("orbit.R3"),
	})
	_ = guess.Set(coordinate.CartesianVelocity, []float64{
		viper.GetFloat64("orbit.V1"), viper.GetFloat64("orbit.V2"), viper.GetFloat64("orbit.V3"),
	})

	instants, observations, err := loadObservations(viper.GetString("observations.file"), prop.Broker, integrationFrame)
	if err != nil {
		log.Fatalf("could not load observations: %s", err)
	}
	log.Printf("[info] loaded %d observations", len(instants))

	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	if !*debug {
		logger = kitlog.NewNopLogger()
	}

	estimate, analysis, err := od.Estimate(prop, guess, observations, instants, od.Options{
		ObservationSigma: map[string][]float64{
			coordinate.CartesianPosition: {viper.GetFloat64("noise.position")},
			coordinate.CartesianVelocity: {viper.GetFloat64("noise.velocity")},
		},
		MaxIterations: viper.GetInt("filter.maxIterations"),
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("estimation failed: %s", err)
	}

	r, v := estimate.Position(), estimate.Velocity()
	fmt.Printf("=== estimate (%s) ===\n", analysis.Termination)
	fmt.Printf("r = [%f %f %f] m\nv = [%f %f %f] m/s\n", r[0], r[1], r[2], v[0], v[1], v[2])
	fmt.Printf("RMS = %f over %d iterations\n", analysis.RMS, analysis.Iterations)
}

// loadObservations reads a CSV of t,rx,ry,rz,vx,vy,vz rows (the format
// cmd/propagate emits), the simplest round-trippable observation source
// for this solver.
func loadObservations(filename string, broker *coordinate.Broker, f coordinate.Frame) ([]time.Time, []*coordinate.State, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var instants []time.Time
	var states []*coordinate.State
	scanner := bufio.NewScanner(file)
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if header {
			header = false
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 7 {
			continue
		}
		at, err := time.Parse(time.RFC3339, fields[0])
		if err != nil {
			log.Printf("[WARNING] skipping malformed timestamp %q: %s", fields[0], err)
			continue
		}
		vals := make([]float64, 6)
		ok := true
		for i := 0; i < 6; i++ {
			vals[i], err = strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				log.Printf("[WARNING] skipping malformed row at %s: %s", fields[0], err)
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		s := coordinate.NewState(broker, at, f)
		_ = s.Set(coordinate.CartesianPosition, vals[0:3])
		_ = s.Set(coordinate.CartesianVelocity, vals[3:6])
		instants = append(instants, at)
		states = append(states, s)
	}
	return instants, states, scanner.Err()
}
