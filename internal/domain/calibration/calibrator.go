// Package calibration fits the impulse-response model to an athlete's load
// history and performance markers.
//
// The fit minimizes the sum of squared residuals between simulated form and
// observed marker values over (tau1, tau2, k1, k2, baseline), subject to
// tau1 > tau2 > 0 and k1, k2 > 0. The solver is a pluggable strategy; data
// quality problems never surface as errors, they degrade the result to a
// LOW-confidence default parameter set instead.
package calibration

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/mattsre/peakform/internal/domain/impulse"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default calibration configuration constants.
const (
	defaultMinMarkers       = 3
	defaultHighMarkers      = 8
	defaultModerateResidual = 6.0
	defaultTightResidual    = 2.5
	defaultIterationBudget  = 2000
)

// Calibrator fits model parameters for one athlete at a time. It holds only
// configuration, so a single instance is safe for concurrent use.
type Calibrator struct {
	prior            model.ModelParameters
	solver           Solver
	iterationBudget  int
	minMarkers       int
	highMarkers      int
	moderateResidual float64
	tightResidual    float64
}

// New constructs a Calibrator with configuration options.
func New(opts ...Option) *Calibrator {
	c := &Calibrator{
		prior:            DefaultPrior(),
		solver:           NewNelderMead(),
		iterationBudget:  defaultIterationBudget,
		minMarkers:       defaultMinMarkers,
		highMarkers:      defaultHighMarkers,
		moderateResidual: defaultModerateResidual,
		tightResidual:    defaultTightResidual,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// DefaultPrior returns the population-level parameter prior used whenever an
// individual fit is not possible: the classical 42-day fitness and 7-day
// fatigue time constants with fixed gain coefficients.
func DefaultPrior() model.ModelParameters {
	return model.ModelParameters{
		Tau1:     42,
		Tau2:     7,
		K1:       0.02,
		K2:       0.04,
		Baseline: 20,
	}
}

// Calibrate fits model parameters to the athlete's history and markers.
//
// It returns an error only for malformed input records; sparse data and
// solver non-convergence are absorbed into a LOW-confidence default result.
// For a fixed input the output is bit-for-bit identical across calls.
func (c *Calibrator) Calibrate(ctx context.Context, history []model.TrainingDay, markers []model.PerformanceMarker) (model.ModelParameters, error) {
	if err := ctx.Err(); err != nil {
		return model.ModelParameters{}, err
	}
	if err := model.ValidateHistory(history); err != nil {
		return model.ModelParameters{}, err
	}
	if err := model.ValidateMarkers(markers); err != nil {
		return model.ModelParameters{}, err
	}

	start := time.Now()
	defer func() {
		metrics.RecordCalibrationDuration(time.Since(start).Seconds())
	}()

	loads, gridStart := impulse.DailyLoads(history, latestMarkerDate(markers))
	targets := markerTargets(markers, gridStart, len(loads))

	if len(targets) < c.minMarkers {
		metrics.RecordCalibrationFallback("insufficient_data")
		return c.fallback(len(targets)), nil
	}

	obj := c.objective(loads, targets)
	x, sse, err := c.solver.Minimize(obj, startVector(c.prior), c.iterationBudget)
	if err != nil || !finite(sse) {
		metrics.RecordCalibrationFallback("nonconvergence")
		return c.fallback(len(targets)), nil
	}

	params := paramsFromVector(x)
	params.DataPoints = len(targets)
	params.FitResidual = math.Sqrt(sse / float64(len(targets)))
	params.Confidence = c.classify(len(targets), params.FitResidual)
	metrics.RecordCalibration(params.Confidence.String())
	return params, nil
}

// fallback builds a LOW-confidence result from the prior. count records how
// many usable markers were seen, so callers can distinguish "no data" from
// "data the solver could not fit".
func (c *Calibrator) fallback(count int) model.ModelParameters {
	params := c.prior
	params.Confidence = types.ConfidenceLow
	params.FitResidual = 0
	params.DataPoints = count
	return params
}

// classify maps marker count and fit residual (RMSE on the marker scale) to
// a confidence level. HIGH is never returned below the high marker minimum.
func (c *Calibrator) classify(count int, residual float64) types.Confidence {
	switch {
	case count >= c.highMarkers && residual <= c.tightResidual:
		return types.ConfidenceHigh
	case count >= c.minMarkers && residual <= c.moderateResidual:
		return types.ConfidenceMedium
	default:
		return types.ConfidenceLow
	}
}

// target is a marker projected onto the daily load grid.
type target struct {
	dayIndex int
	value    float64
}

// markerTargets maps markers onto grid indices, dropping any that fall
// before the recorded history begins.
func markerTargets(markers []model.PerformanceMarker, gridStart time.Time, gridLen int) []target {
	if gridLen == 0 {
		return nil
	}
	targets := make([]target, 0, len(markers))
	for _, m := range markers {
		idx := impulse.DayIndex(gridStart, m.Date)
		if idx < 0 || idx >= gridLen {
			continue
		}
		targets = append(targets, target{dayIndex: idx, value: m.Value})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].dayIndex < targets[j].dayIndex })
	return targets
}

func latestMarkerDate(markers []model.PerformanceMarker) time.Time {
	var latest time.Time
	for _, m := range markers {
		if m.Date.After(latest) {
			latest = m.Date
		}
	}
	return latest
}

// objective builds the sum-of-squared-residuals function over the
// unconstrained solver space. One forward simulation of the whole grid per
// evaluation.
func (c *Calibrator) objective(loads []float64, targets []target) func(x []float64) float64 {
	return func(x []float64) float64 {
		p := paramsFromVector(x)
		if !finite(p.Tau1) || !finite(p.Tau2) || !finite(p.K1) || !finite(p.K2) || !finite(p.Baseline) {
			return math.Inf(1)
		}

		d1 := impulse.Decay(p.Tau1)
		d2 := impulse.Decay(p.Tau2)

		var sse float64
		var fitness, fatigue float64
		ti := 0
		for i, load := range loads {
			fitness = fitness*d1 + load
			fatigue = fatigue*d2 + load
			for ti < len(targets) && targets[ti].dayIndex == i {
				r := impulse.Form(p, fitness, fatigue) - targets[ti].value
				sse += r * r
				ti++
			}
		}
		if !finite(sse) {
			return math.Inf(1)
		}
		return sse
	}
}

// The solver space reparameterizes the constrained parameters so the box
// and ordering constraints hold by construction:
//
//	tau2     = exp(x1)
//	tau1     = tau2 + exp(x0)   (tau1 > tau2 > 0)
//	k1       = exp(x2)
//	k2       = exp(x3)
//	baseline = x4
func paramsFromVector(x []float64) model.ModelParameters {
	tau2 := math.Exp(x[1])
	return model.ModelParameters{
		Tau1:     tau2 + math.Exp(x[0]),
		Tau2:     tau2,
		K1:       math.Exp(x[2]),
		K2:       math.Exp(x[3]),
		Baseline: x[4],
	}
}

// startVector inverts the reparameterization at the prior, giving the fixed
// deterministic starting point for the search.
func startVector(prior model.ModelParameters) []float64 {
	return []float64{
		math.Log(prior.Tau1 - prior.Tau2),
		math.Log(prior.Tau2),
		math.Log(prior.K1),
		math.Log(prior.K2),
		prior.Baseline,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
