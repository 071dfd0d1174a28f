// Package racepred maps a projected race-day physiological state to a
// predicted finishing time with a confidence interval.
package racepred

import (
	"context"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/mattsre/peakform/internal/domain/impulse"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default prediction configuration constants.
const (
	defaultTrendClamp       = 0.05
	defaultWidthLow         = 0.08
	defaultWidthMedium      = 0.045
	defaultWidthHigh        = 0.02
	defaultDispersionWeight = 0.5
	defaultResidualScale    = 5.0
	markerSpreadWeight      = 0.25
)

// Predictor converts terminal form into race-time predictions. It holds
// only configuration and is safe for concurrent use.
type Predictor struct {
	curve            *Curve
	trendClamp       float64
	widthLow         float64
	widthMedium      float64
	widthHigh        float64
	dispersionWeight float64
	residualScale    float64
}

// Option applies a configuration option to the Predictor.
type Option func(*Predictor)

// WithCurve replaces the default score-to-time curve.
func WithCurve(c *Curve) Option {
	return func(p *Predictor) {
		if c != nil {
			p.curve = c
		}
	}
}

// WithTrendClamp bounds the multiplicative efficiency-trend correction so
// noisy recent data cannot overcorrect the score.
func WithTrendClamp(clamp float64) Option {
	return func(p *Predictor) {
		if clamp >= 0 {
			p.trendClamp = clamp
		}
	}
}

// WithIntervalWidths sets the half-interval width as a fraction of the
// predicted time per confidence level. Widths must narrow as confidence
// rises.
func WithIntervalWidths(low, medium, high float64) Option {
	return func(p *Predictor) {
		if low >= medium && medium >= high && high > 0 {
			p.widthLow = low
			p.widthMedium = medium
			p.widthHigh = high
		}
	}
}

// WithDispersion sets how strongly historical marker dispersion widens the
// interval, and the residual scale it is normalized by.
func WithDispersion(weight, residualScale float64) Option {
	return func(p *Predictor) {
		if weight >= 0 {
			p.dispersionWeight = weight
		}
		if residualScale > 0 {
			p.residualScale = residualScale
		}
	}
}

// New constructs a Predictor with default configuration.
func New(opts ...Option) *Predictor {
	p := &Predictor{
		curve:            DefaultCurve(),
		trendClamp:       defaultTrendClamp,
		widthLow:         defaultWidthLow,
		widthMedium:      defaultWidthMedium,
		widthHigh:        defaultWidthHigh,
		dispersionWeight: defaultDispersionWeight,
		residualScale:    defaultResidualScale,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Predict maps terminal form to a finishing time at the target distance.
//
// The form value is already on the marker scale by construction: the
// calibrator fits form directly against marker values, so no separate
// rescaling step exists between the model and the curve.
func (p *Predictor) Predict(ctx context.Context, params model.ModelParameters, terminal model.State, efficiencyTrend, distanceMeters float64, markers []model.PerformanceMarker) (model.RacePrediction, error) {
	if err := ctx.Err(); err != nil {
		return model.RacePrediction{}, err
	}
	if distanceMeters <= 0 || math.IsNaN(distanceMeters) || math.IsInf(distanceMeters, 0) {
		return model.RacePrediction{}, ErrInvalidDistance
	}
	if err := model.ValidateMarkers(markers); err != nil {
		return model.RacePrediction{}, err
	}

	score := impulse.FormOf(params, terminal)
	score *= 1 + clamp(efficiencyTrend, -p.trendClamp, p.trendClamp)

	seconds := p.curve.TimeFor(score, distanceMeters)

	confidence := params.Confidence
	if len(markers) == 0 {
		// Without any observed markers the marker scale itself is
		// unanchored for this athlete.
		confidence = types.ConfidenceLow
	}

	width := seconds * p.widthFraction(confidence, params.FitResidual, markers)
	prediction := model.RacePrediction{
		PredictedSeconds: seconds,
		IntervalLow:      seconds - width,
		IntervalHigh:     seconds + width,
		Confidence:       confidence,
		BasisDistance:    distanceMeters,
	}

	metrics.RecordPrediction(confidence.String())
	return prediction, nil
}

// ScoreFromRace converts an observed race result to a performance score on
// the marker scale, so callers can derive calibration targets consistent
// with the predictions this package produces.
func (p *Predictor) ScoreFromRace(distanceMeters, seconds float64) (float64, error) {
	if distanceMeters <= 0 || math.IsNaN(distanceMeters) || math.IsInf(distanceMeters, 0) {
		return 0, ErrInvalidDistance
	}
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, ErrInvalidTime
	}
	return p.curve.ScoreFor(distanceMeters, seconds), nil
}

// widthFraction derives the half-interval width fraction: the confidence
// base widened by the fit residual and the spread of historical markers.
func (p *Predictor) widthFraction(confidence types.Confidence, fitResidual float64, markers []model.PerformanceMarker) float64 {
	var base float64
	switch confidence {
	case types.ConfidenceHigh:
		base = p.widthHigh
	case types.ConfidenceMedium:
		base = p.widthMedium
	case types.ConfidenceLow:
		base = p.widthLow
	default:
		base = p.widthLow
	}

	spread := fitResidual
	if len(markers) >= 2 {
		values := make([]float64, len(markers))
		for i, m := range markers {
			values[i] = m.Value
		}
		spread += markerSpreadWeight * stat.StdDev(values, nil)
	}

	return base * (1 + p.dispersionWeight*spread/p.residualScale)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
