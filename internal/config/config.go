// Package config defines engine configuration structures and loading.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains engine configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// PriorTau1 and PriorTau2 are the fitness and fatigue decay time
	// constants, in days, used before any athlete-specific fit.
	PriorTau1 float64 `koanf:"prior_tau1"`
	PriorTau2 float64 `koanf:"prior_tau2"`

	// PriorK1 and PriorK2 weight fitness and fatigue in the form sum.
	PriorK1 float64 `koanf:"prior_k1"`
	PriorK2 float64 `koanf:"prior_k2"`

	// PriorBaseline is the form value of a fully rested, untrained athlete.
	PriorBaseline float64 `koanf:"prior_baseline"`

	// MinMarkers and HighMarkers set the marker counts gating MEDIUM
	// and HIGH calibration confidence.
	MinMarkers  int `koanf:"min_markers"`
	HighMarkers int `koanf:"high_markers"`

	// ModerateResidual and TightResidual are the RMSE ceilings for
	// MEDIUM and HIGH confidence.
	ModerateResidual float64 `koanf:"moderate_residual"`
	TightResidual    float64 `koanf:"tight_residual"`

	// IterationBudget caps solver iterations per calibration.
	IterationBudget int `koanf:"iteration_budget"`

	// RampCap bounds week-over-week load growth, e.g. 0.10 for 10%.
	RampCap float64 `koanf:"ramp_cap"`

	// RecoveryEvery inserts a reduced week after this many build weeks.
	RecoveryEvery int `koanf:"recovery_every"`

	// RecoveryFactor scales the reduced week relative to progression.
	RecoveryFactor float64 `koanf:"recovery_factor"`

	// TaperFloor is the fraction of peak load the final taper week
	// must not drop below.
	TaperFloor float64 `koanf:"taper_floor"`

	// ColdStartFraction seeds planning when no current load is known,
	// as a fraction of the load ceiling.
	ColdStartFraction float64 `koanf:"cold_start_fraction"`

	// Tau2Factor converts a calibrated fatigue time constant into a
	// taper length in days.
	Tau2Factor float64 `koanf:"tau2_factor"`

	// TrendClamp bounds the efficiency-trend adjustment applied to the
	// projected score before race prediction.
	TrendClamp float64 `koanf:"trend_clamp"`

	// Interval widths as a fraction of predicted time per confidence.
	IntervalWidthLow    float64 `koanf:"interval_width_low"`
	IntervalWidthMedium float64 `koanf:"interval_width_medium"`
	IntervalWidthHigh   float64 `koanf:"interval_width_high"`

	// CacheSize bounds the parameter cache entry count.
	CacheSize int `koanf:"cache_size"`

	// CacheTTLHours sets parameter cache entry lifetime, in hours.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// JobQueueSize bounds the async calibration queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of calibration workers.
	WorkerCount int `koanf:"worker_count"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		PriorTau1:           42,
		PriorTau2:           7,
		PriorK1:             0.02,
		PriorK2:             0.04,
		PriorBaseline:       20,
		MinMarkers:          3,
		HighMarkers:         8,
		ModerateResidual:    6.0,
		TightResidual:       2.5,
		IterationBudget:     2000,
		RampCap:             0.10,
		RecoveryEvery:       4,
		RecoveryFactor:      0.85,
		TaperFloor:          0.5,
		ColdStartFraction:   0.25,
		Tau2Factor:          1.4,
		TrendClamp:          0.05,
		IntervalWidthLow:    0.08,
		IntervalWidthMedium: 0.045,
		IntervalWidthHigh:   0.02,
		CacheSize:           4096,
		CacheTTLHours:       6,
		JobQueueSize:        1024,
		WorkerCount:         runtime.NumCPU(),
	}
}
