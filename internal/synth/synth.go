// Package synth generates synthetic training histories and performance
// markers for exercising the engine without real athlete data. Output is
// deterministic per athlete ID so fixtures and benchmarks are repeatable.
package synth

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/mattsre/peakform/internal/domain/impulse"
	"github.com/mattsre/peakform/internal/domain/model"
)

// Default generation constants.
const (
	defaultBaseWeeklyLoad = 50.0
	defaultPeakWeeklyLoad = 90.0
	defaultRecoveryEvery  = 4
	defaultRecoveryFactor = 0.8
	defaultMarkerNoise    = 1.5
	defaultRaceFraction   = 0.25

	trainingDaysPerWeek = 6
	daysPerWeek         = 7
	loadJitterFraction  = 0.15
)

// Generator produces synthetic athlete data from a seeded source.
type Generator struct {
	rng *rand.Rand

	baseWeekly     float64
	peakWeekly     float64
	recoveryEvery  int
	recoveryFactor float64
	markerNoise    float64
	raceFraction   float64
}

// New creates a generator deterministically seeded from the athlete ID.
func New(athleteID string, opts ...Option) *Generator {
	h := fnv.New64a()
	_, _ = h.Write([]byte(athleteID))

	g := &Generator{
		rng:            rand.New(rand.NewSource(int64(h.Sum64()))), //nolint:gosec // deterministic fixtures, not crypto
		baseWeekly:     defaultBaseWeeklyLoad,
		peakWeekly:     defaultPeakWeeklyLoad,
		recoveryEvery:  defaultRecoveryEvery,
		recoveryFactor: defaultRecoveryFactor,
		markerNoise:    defaultMarkerNoise,
		raceFraction:   defaultRaceFraction,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// History builds a training log of the given length ending the week
// before start. Weekly volume ramps from the base toward the peak with a
// reduced week on the usual cadence, and each week's volume is spread
// over six training days with one rest day.
func (g *Generator) History(start time.Time, weeks int) []model.TrainingDay {
	if weeks <= 0 {
		return nil
	}

	start = start.UTC().Truncate(24 * time.Hour)
	first := start.AddDate(0, 0, -daysPerWeek*weeks)

	days := make([]model.TrainingDay, 0, weeks*trainingDaysPerWeek)
	for w := 0; w < weeks; w++ {
		progress := float64(w) / float64(maxInt(weeks-1, 1))
		weekly := g.baseWeekly + (g.peakWeekly-g.baseWeekly)*progress
		if g.recoveryEvery > 1 && (w+1)%g.recoveryEvery == 0 {
			weekly *= g.recoveryFactor
		}

		restDay := g.rng.Intn(daysPerWeek)
		perDay := weekly / trainingDaysPerWeek
		for d := 0; d < daysPerWeek; d++ {
			if d == restDay {
				continue
			}
			jitter := 1 + loadJitterFraction*(2*g.rng.Float64()-1)
			days = append(days, model.TrainingDay{
				Date: first.AddDate(0, 0, w*daysPerWeek+d),
				Load: perDay * jitter,
			})
		}
	}
	return days
}

// Markers samples performance markers from the form an athlete with the
// given parameters would show over the history, plus bounded noise. A
// fraction of markers are flagged as races.
func (g *Generator) Markers(params model.ModelParameters, history []model.TrainingDay, count int) []model.PerformanceMarker {
	if count <= 0 || len(history) == 0 {
		return nil
	}

	loads, start := impulse.DailyLoads(history, history[len(history)-1].Date)
	states := impulse.Simulate(params, loads, model.State{})
	if len(states) == 0 {
		return nil
	}

	markers := make([]model.PerformanceMarker, 0, count)
	stride := maxInt(len(states)/count, 1)
	for i := stride - 1; i < len(states) && len(markers) < count; i += stride {
		noise := g.markerNoise * (2*g.rng.Float64() - 1)
		markers = append(markers, model.PerformanceMarker{
			Date:   start.AddDate(0, 0, i),
			Value:  states[i].Form + noise,
			IsRace: g.rng.Float64() < g.raceFraction,
		})
	}
	return markers
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
