// Command tle fits a TLE against a set of Cartesian observations using
// the MEOE-parameterized batch solver in package tle, and prints the
// fitted two-line element set.
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

	"github.com/spf13/viper"

	tlepkg "github.com/loftorbital/ostk-astro-go/tle"
)

const defaultScenario = "~~unset~~"

var scenario string

func init() {
	flag.StringVar(&scenario, "scenario", defaultScenario, "TLE-fit scenario TOML file")
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

	mu := viper.GetFloat64("orbit.mu")
	if mu == 0 {
		mu = 3.98600433e14
	}

	var guess tlepkg.Guess
	if line1, line2 := viper.GetString("tle.line1"), viper.GetString("tle.line2"); line1 != "" && line2 != "" {
		guess.TLE = &tlepkg.TLE{Name: viper.GetString("tle.name"), NoradID: viper.GetInt("tle.norad"), Line1: line1, Line2: line2}
	} else {
		guess.HasRV = true
		guess.R = []float64{viper.GetFloat64("orbit.R1"), viper.GetFloat64("orbit.R2"), viper.GetFloat64("orbit.R3")}
		guess.V = []float64{viper.GetFloat64("orbit.V1"), viper.GetFloat64("orbit.V2"), viper.GetFloat64("orbit.V3")}
		guess.BStar = viper.GetFloat64("orbit.bstar")
	}

	epoch := viper.GetTime("mission.epoch")
	instants, observations, err := loadObservations(viper.GetString("observations.file"))
	if err != nil {
		log.Fatalf("could not load observations: %s", err)
	}
	log.Printf("[info] loaded %d observations", len(instants))

	result, err := tlepkg.Estimate(tlepkg.GoSatelliteEvaluator{}, guess, epoch, observations, instants, tlepkg.Options{
		Mu:            mu,
		FitBStar:      viper.GetBool("filter.fitBStar"),
		MaxIterations: viper.GetInt("filter.maxIterations"),
	})
	if err != nil {
		log.Fatalf("TLE fit failed: %s", err)
	}

	fmt.Printf("=== fitted TLE (%s) ===\n", result.Analysis.Termination)
	fmt.Println(result.Estimated.Line1)
	fmt.Println(result.Estimated.Line2)
	fmt.Printf("RMS = %f over %d iterations\n", result.Analysis.RMS, result.Analysis.Iterations)
}

func loadObservations(filename string) ([]time.Time, [][2][]float64, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	var instants []time.Time
	var observations [][2][]float64
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
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		instants = append(instants, at)
		observations = append(observations, [2][]float64{vals[0:3], vals[3:6]})
	}
	return instants, observations, scanner.Err()
}
