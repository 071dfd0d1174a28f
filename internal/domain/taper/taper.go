// Package taper derives a personalized pre-race taper length and shape.
//
// Resolution order: observed historical rebound behaviour wins over a
// calibrated fatigue-decay mapping, which wins over the distance-class
// default. Whatever the source, the result is clamped to the sane range
// for the race distance.
package taper

import (
	"math"

	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/types"
)

// Default taper configuration constants.
const (
	defaultMinConsistent = 2
	defaultTau2Factor    = 1.4
)

// ClassRule bounds taper length for one distance class and fixes its load
// reduction shape.
type ClassRule struct {
	MinDays     int
	MaxDays     int
	DefaultDays int
	Shape       types.TaperShape
}

// Calculator computes taper plans. It holds only configuration and is safe
// for concurrent use.
type Calculator struct {
	reboundDays   map[types.ReboundSpeed]int
	classRules    map[types.DistanceClass]ClassRule
	minConsistent int
	tau2Factor    float64
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithReboundDays overrides the rebound-speed to taper-days lookup.
func WithReboundDays(days map[types.ReboundSpeed]int) Option {
	return func(c *Calculator) {
		for speed, d := range days {
			if d > 0 {
				c.reboundDays[speed] = d
			}
		}
	}
}

// WithClassRule overrides the bounds and shape for one distance class.
func WithClassRule(class types.DistanceClass, rule ClassRule) Option {
	return func(c *Calculator) {
		if rule.MinDays > 0 && rule.MaxDays >= rule.MinDays &&
			rule.DefaultDays >= rule.MinDays && rule.DefaultDays <= rule.MaxDays {
			c.classRules[class] = rule
		}
	}
}

// WithTau2Factor sets the multiplier mapping the calibrated fatigue time
// constant to taper days. The mapping stays monotone: faster fatigue
// clearance always means a shorter taper.
func WithTau2Factor(factor float64) Option {
	return func(c *Calculator) {
		if factor > 0 {
			c.tau2Factor = factor
		}
	}
}

// New constructs a Calculator with the default tables.
func New(opts ...Option) *Calculator {
	c := &Calculator{
		reboundDays: map[types.ReboundSpeed]int{
			types.ReboundFast:     7,
			types.ReboundModerate: 10,
			types.ReboundSlow:     14,
		},
		classRules: map[types.DistanceClass]ClassRule{
			types.DistanceShort:    {MinDays: 3, MaxDays: 7, DefaultDays: 4, Shape: types.TaperStep},
			types.DistanceMiddle:   {MinDays: 4, MaxDays: 10, DefaultDays: 7, Shape: types.TaperLinear},
			types.DistanceHalf:     {MinDays: 6, MaxDays: 14, DefaultDays: 10, Shape: types.TaperExponential},
			types.DistanceMarathon: {MinDays: 10, MaxDays: 21, DefaultDays: 14, Shape: types.TaperExponential},
		},
		minConsistent: defaultMinConsistent,
		tau2Factor:    defaultTau2Factor,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compute produces the taper plan for a race of the given distance class.
func (c *Calculator) Compute(params model.ModelParameters, observations []Observation, class types.DistanceClass) model.TaperPlan {
	rule := c.rule(class)

	if speed, ok := c.consistentRebound(observations); ok {
		return model.TaperPlan{
			TaperDays: clampDays(c.reboundDays[speed], rule),
			Shape:     rule.Shape,
			Basis:     types.BasisObservedHistory,
		}
	}

	if params.Confidence == types.ConfidenceMedium || params.Confidence == types.ConfidenceHigh {
		days := int(math.Round(params.Tau2 * c.tau2Factor))
		return model.TaperPlan{
			TaperDays: clampDays(days, rule),
			Shape:     rule.Shape,
			Basis:     types.BasisCalibrated,
		}
	}

	return model.TaperPlan{
		TaperDays: rule.DefaultDays,
		Shape:     rule.Shape,
		Basis:     types.BasisDefault,
	}
}

// consistentRebound reports the dominant observed rebound speed when enough
// consistent observations exist.
func (c *Calculator) consistentRebound(observations []Observation) (types.ReboundSpeed, bool) {
	counts := make(map[types.ReboundSpeed]int)
	for _, o := range observations {
		if o.Speed != types.ReboundUnknown {
			counts[o.Speed]++
		}
	}

	best := types.ReboundUnknown
	bestCount := 0
	total := 0
	for speed, n := range counts {
		total += n
		if n > bestCount || (n == bestCount && speed < best) {
			best = speed
			bestCount = n
		}
	}

	// Consistency means the dominant classification accounts for a strict
	// majority of known observations, with at least minConsistent of them.
	if bestCount >= c.minConsistent && bestCount*2 > total {
		return best, true
	}
	return types.ReboundUnknown, false
}

func (c *Calculator) rule(class types.DistanceClass) ClassRule {
	if rule, ok := c.classRules[class]; ok {
		return rule
	}
	return c.classRules[types.DistanceMiddle]
}

func clampDays(days int, rule ClassRule) int {
	if days < rule.MinDays {
		return rule.MinDays
	}
	if days > rule.MaxDays {
		return rule.MaxDays
	}
	return days
}
