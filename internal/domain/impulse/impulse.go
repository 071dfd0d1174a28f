// Package impulse implements the two-component fitness/fatigue
// impulse-response simulator.
//
// Performance on day t is a superposition of exponentially decaying
// contributions from past daily loads: a slow-decaying fitness term (tau1)
// minus a fast-decaying fatigue term (tau2). The simulator computes the
// equivalent recursive form incrementally, which is O(n) over the load
// series instead of O(n^2) for the direct convolution.
package impulse

import (
	"math"
	"time"

	"github.com/mattsre/peakform/internal/domain/model"
)

// hoursPerDay is used when expanding calendar dates onto a daily grid.
const hoursPerDay = 24

// State is one simulated time step.
type State struct {
	Fitness float64 `json:"fitness"`
	Fatigue float64 `json:"fatigue"`
	Form    float64 `json:"form"`
}

// Decay returns the one-day decay multiplier for a time constant in days.
func Decay(tauDays float64) float64 {
	if tauDays <= 0 {
		return 0
	}
	return math.Exp(-1 / tauDays)
}

// Simulate runs the recursive model over a daily load series, starting from
// the given physiological state. It returns one State per input day.
// Pure and deterministic; the inputs are never modified.
func Simulate(p model.ModelParameters, loads []float64, seed model.State) []State {
	d1 := Decay(p.Tau1)
	d2 := Decay(p.Tau2)

	states := make([]State, len(loads))
	fitness := seed.Fitness
	fatigue := seed.Fatigue
	for i, load := range loads {
		fitness = fitness*d1 + load
		fatigue = fatigue*d2 + load
		states[i] = State{
			Fitness: fitness,
			Fatigue: fatigue,
			Form:    Form(p, fitness, fatigue),
		}
	}
	return states
}

// Form computes the model's race-readiness proxy for a fitness/fatigue pair.
func Form(p model.ModelParameters, fitness, fatigue float64) float64 {
	return p.Baseline + p.K1*fitness - p.K2*fatigue
}

// FormOf computes form for a physiological state value.
func FormOf(p model.ModelParameters, s model.State) float64 {
	return Form(p, s.Fitness, s.Fatigue)
}

// SeedState warms the fitness/fatigue accumulators by replaying a recent
// load window from zero. Seeding from history avoids the cold-start
// underestimate a zero initial state would produce.
func SeedState(p model.ModelParameters, recentLoads []float64) model.State {
	d1 := Decay(p.Tau1)
	d2 := Decay(p.Tau2)

	var fitness, fatigue float64
	for _, load := range recentLoads {
		fitness = fitness*d1 + load
		fatigue = fatigue*d2 + load
	}
	return model.State{Fitness: fitness, Fatigue: fatigue}
}

// DailyLoads expands a sparse, date-ordered load history onto a contiguous
// daily grid from the first recorded day through the given end date.
// Missing days carry zero load; multiple records on one day are summed.
// The returned start is the date of index zero. An empty history yields an
// empty grid.
func DailyLoads(history []model.TrainingDay, through time.Time) ([]float64, time.Time) {
	if len(history) == 0 {
		return nil, time.Time{}
	}

	start := history[0].Date.Truncate(hoursPerDay * time.Hour)
	end := history[len(history)-1].Date.Truncate(hoursPerDay * time.Hour)
	if t := through.Truncate(hoursPerDay * time.Hour); t.After(end) {
		end = t
	}

	days := DayIndex(start, end) + 1
	loads := make([]float64, days)
	for _, day := range history {
		idx := DayIndex(start, day.Date)
		if idx >= 0 && idx < days {
			loads[idx] += day.Load
		}
	}
	return loads, start
}

// DayIndex returns the number of whole days from start to t.
func DayIndex(start, t time.Time) int {
	return int(t.Truncate(hoursPerDay * time.Hour).Sub(start.Truncate(hoursPerDay*time.Hour)).Hours() / hoursPerDay)
}
