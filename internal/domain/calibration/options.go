package calibration

import "github.com/mattsre/peakform/internal/domain/model"

// Option applies a configuration option to the Calibrator.
type Option func(*Calibrator)

// WithSolver replaces the default Nelder-Mead solver strategy.
func WithSolver(s Solver) Option {
	return func(c *Calibrator) {
		if s != nil {
			c.solver = s
		}
	}
}

// WithPrior sets the population prior used as the search start and as the
// fallback parameter set. Only the five model parameters are read.
func WithPrior(prior model.ModelParameters) Option {
	return func(c *Calibrator) {
		if prior.Tau1 > prior.Tau2 && prior.Tau2 > 0 && prior.K1 > 0 && prior.K2 > 0 {
			c.prior = prior
		}
	}
}

// WithIterationBudget bounds the solver so a pathological input cannot hang
// a calibration indefinitely.
func WithIterationBudget(iterations int) Option {
	return func(c *Calibrator) {
		if iterations > 0 {
			c.iterationBudget = iterations
		}
	}
}

// WithMarkerMinima sets the marker counts below which a fit is not
// attempted at all (min) and below which HIGH confidence is never
// reported (high).
func WithMarkerMinima(min, high int) Option {
	return func(c *Calibrator) {
		if min > 0 {
			c.minMarkers = min
		}
		if high >= min && high > 0 {
			c.highMarkers = high
		}
	}
}

// WithResidualThresholds sets the RMSE thresholds for MEDIUM (moderate)
// and HIGH (tight) confidence classification.
func WithResidualThresholds(moderate, tight float64) Option {
	return func(c *Calibrator) {
		if moderate > 0 {
			c.moderateResidual = moderate
		}
		if tight > 0 && tight <= moderate {
			c.tightResidual = tight
		}
	}
}
