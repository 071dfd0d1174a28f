package synth

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithWeeklyLoads sets the base and peak weekly load of the history ramp.
func WithWeeklyLoads(base, peak float64) Option {
	return func(g *Generator) {
		if base > 0 && peak >= base {
			g.baseWeekly = base
			g.peakWeekly = peak
		}
	}
}

// WithRecovery sets the reduced-week cadence and scale.
func WithRecovery(every int, factor float64) Option {
	return func(g *Generator) {
		if every > 1 && factor > 0 && factor < 1 {
			g.recoveryEvery = every
			g.recoveryFactor = factor
		}
	}
}

// WithMarkerNoise sets the half-width of marker value noise.
func WithMarkerNoise(noise float64) Option {
	return func(g *Generator) {
		if noise >= 0 {
			g.markerNoise = noise
		}
	}
}

// WithRaceFraction sets the fraction of markers flagged as races.
func WithRaceFraction(fraction float64) Option {
	return func(g *Generator) {
		if fraction >= 0 && fraction <= 1 {
			g.raceFraction = fraction
		}
	}
}
