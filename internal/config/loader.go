package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if PEAKFORM_CONFIG is set
//  3. env (prefix PEAKFORM_)
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PEAKFORM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PEAKFORM_RAMP_CAP, PEAKFORM_WORKER_COUNT, ...
	// Map env keys like PEAKFORM_RAMP_CAP -> ramp_cap (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("PEAKFORM_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "peakform_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate rejects values the engine cannot run with.
func (c *Config) validate() error {
	checks := []struct {
		ok     bool
		reason string
	}{
		{c.PriorTau1 > c.PriorTau2, "prior_tau1 must exceed prior_tau2"},
		{c.PriorTau2 > 0, "prior_tau2 must be positive"},
		{c.PriorK1 > 0 && c.PriorK2 > 0, "prior gain factors must be positive"},
		{c.MinMarkers > 0 && c.HighMarkers >= c.MinMarkers, "marker minima must be positive and ordered"},
		{c.ModerateResidual >= c.TightResidual && c.TightResidual > 0, "residual thresholds must be positive and ordered"},
		{c.IterationBudget > 0, "iteration_budget must be positive"},
		{c.RampCap > 0 && c.RampCap < 1, "ramp_cap must be in (0, 1)"},
		{c.RecoveryEvery > 1, "recovery_every must exceed 1"},
		{c.RecoveryFactor > 0 && c.RecoveryFactor < 1, "recovery_factor must be in (0, 1)"},
		{c.TaperFloor > 0 && c.TaperFloor < 1, "taper_floor must be in (0, 1)"},
		{c.ColdStartFraction > 0 && c.ColdStartFraction <= 1, "cold_start_fraction must be in (0, 1]"},
		{c.Tau2Factor > 0, "tau2_factor must be positive"},
		{c.TrendClamp >= 0, "trend_clamp must not be negative"},
		{c.IntervalWidthLow >= c.IntervalWidthMedium && c.IntervalWidthMedium >= c.IntervalWidthHigh && c.IntervalWidthHigh > 0, "interval widths must be positive and ordered"},
		{c.CacheSize > 0, "cache_size must be positive"},
		{c.CacheTTLHours > 0, "cache_ttl_hours must be positive"},
		{c.JobQueueSize > 0, "job_queue_size must be positive"},
		{c.WorkerCount > 0, "worker_count must be positive"},
	}
	for _, check := range checks {
		if !check.ok {
			return fmt.Errorf("%w: %s", ErrInvalidConfig, check.reason)
		}
	}
	return nil
}
