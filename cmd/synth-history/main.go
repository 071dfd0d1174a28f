// Command synth-history emits a synthetic forecast request for a given
// athlete ID: a progressive training history and performance markers
// sampled from a known model. Useful for demos and fixtures; the same ID
// always produces the same data.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	app "github.com/mattsre/peakform/internal/app"
	"github.com/mattsre/peakform/internal/domain/calibration"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/internal/synth"
)

// Default generation constants.
const (
	defaultWeeks     = 16
	defaultMarkers   = 8
	defaultRaceWeeks = 12
	defaultCeiling   = 100.0
	defaultBaseLoad  = 50.0
	defaultPeakLoad  = 90.0
)

func main() {
	var (
		athleteID = flag.String("athlete", "demo-athlete", "athlete ID seeding the generator")
		weeks     = flag.Int("weeks", defaultWeeks, "weeks of training history to generate")
		markers   = flag.Int("markers", defaultMarkers, "number of performance markers to sample")
		raceWeeks = flag.Int("race-weeks", defaultRaceWeeks, "weeks from now to the race")
		distance  = flag.Float64("distance", types.MetersMarathon, "race distance in meters")
		ceiling   = flag.Float64("ceiling", defaultCeiling, "weekly load ceiling for planning")
		baseLoad  = flag.Float64("base", defaultBaseLoad, "weekly load at the start of the history")
		peakLoad  = flag.Float64("peak", defaultPeakLoad, "weekly load at the end of the history")
		output    = flag.String("output", "", "output file (default: stdout)")
	)
	flag.Parse()

	gen := synth.New(*athleteID, synth.WithWeeklyLoads(*baseLoad, *peakLoad))

	now := time.Now().UTC().Truncate(24 * time.Hour)
	history := gen.History(now, *weeks)
	markerSet := gen.Markers(calibration.DefaultPrior(), history, *markers)

	currentWeekly := 0.0
	daysPerWeek := 7
	for _, d := range history {
		if d.Date.After(now.AddDate(0, 0, -daysPerWeek)) {
			currentWeekly += d.Load
		}
	}

	req := app.ForecastRequest{
		AthleteID:         *athleteID,
		History:           history,
		Markers:           markerSet,
		RaceDate:          now.AddDate(0, 0, daysPerWeek*(*raceWeeks)),
		WeeksAvailable:    *raceWeeks,
		CurrentWeeklyLoad: currentWeekly,
		LoadCeiling:       *ceiling,
		DistanceMeters:    *distance,
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create output file: %v\n", err)
			os.Exit(1)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(req); err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode request: %v\n", err)
		os.Exit(1)
	}
}
