// Package loadplan searches for the week-by-week load trajectory that
// maximizes projected race-day form.
//
// Because form is linear in past loads for a fixed parameter set, the build
// phase reduces to front-loading as much allowable load as early as
// possible under the ramp cap, and the taper phase to scaling the
// calculator-supplied taper down from peak. No general nonlinear search is
// needed; the planner builds greedily, appends the taper, then re-simulates
// to report the projected form.
package loadplan

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mattsre/peakform/internal/domain/impulse"
	"github.com/mattsre/peakform/internal/domain/model"
	"github.com/mattsre/peakform/internal/domain/taper"
	"github.com/mattsre/peakform/internal/domain/types"
	"github.com/mattsre/peakform/pkg/metrics"
)

// Default planning configuration constants.
const (
	defaultRampCap           = 0.10
	defaultRecoveryEvery     = 4
	defaultRecoveryFactor    = 0.85
	defaultTaperFloor        = 0.5
	defaultColdStartFraction = 0.25

	daysPerWeek = 7
)

// Request carries the externally supplied planning constraints. The load
// ceiling is derived by the caller from the athlete's historical maximum
// sustained load; the engine only enforces it.
type Request struct {
	RaceDate          time.Time
	WeeksAvailable    int
	CurrentWeeklyLoad float64
	LoadCeiling       float64
	Distance          types.DistanceClass
	Rebounds          []taper.Observation
}

// Planner builds load trajectories. It holds only configuration and is safe
// for concurrent use.
type Planner struct {
	taper             *taper.Calculator
	rampCap           float64
	recoveryEvery     int
	recoveryFactor    float64
	taperFloor        float64
	coldStartFraction float64
}

// Option applies a configuration option to the Planner.
type Option func(*Planner)

// WithTaperCalculator replaces the default taper calculator.
func WithTaperCalculator(c *taper.Calculator) Option {
	return func(p *Planner) {
		if c != nil {
			p.taper = c
		}
	}
}

// WithRampCap sets the maximum week-over-week load increase ratio.
func WithRampCap(cap float64) Option {
	return func(p *Planner) {
		if cap > 0 {
			p.rampCap = cap
		}
	}
}

// WithRecovery schedules a reduced-load week every n build weeks at the
// given fraction of the progression load. n = 0 disables recovery dips.
func WithRecovery(everyWeeks int, factor float64) Option {
	return func(p *Planner) {
		if everyWeeks >= 0 {
			p.recoveryEvery = everyWeeks
		}
		if factor > 0 && factor < 1 {
			p.recoveryFactor = factor
		}
	}
}

// WithTaperFloor sets the fraction of peak load the taper decreases to.
func WithTaperFloor(floor float64) Option {
	return func(p *Planner) {
		if floor > 0 && floor < 1 {
			p.taperFloor = floor
		}
	}
}

// WithColdStartFraction sets the fraction of the ceiling a build starts
// from when the athlete's current weekly load is zero.
func WithColdStartFraction(fraction float64) Option {
	return func(p *Planner) {
		if fraction > 0 && fraction <= 1 {
			p.coldStartFraction = fraction
		}
	}
}

// New constructs a Planner with default configuration.
func New(opts ...Option) *Planner {
	p := &Planner{
		taper:             taper.New(),
		rampCap:           defaultRampCap,
		recoveryEvery:     defaultRecoveryEvery,
		recoveryFactor:    defaultRecoveryFactor,
		taperFloor:        defaultTaperFloor,
		coldStartFraction: defaultColdStartFraction,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// planNamespace is the fixed namespace for version-5 plan identifiers.
var planNamespace = uuid.MustParse("7d2fbb6e-9b7a-4f25-8f0e-3c1d2a4b5c6d")

// planID derives a stable identifier from the planning inputs. Identical
// inputs always produce the identical trajectory, plan ID included.
func planID(params model.ModelParameters, current model.State, req Request) string {
	data := fmt.Sprintf("%v|%v|%s|%d|%g|%g|%d|%v",
		params, current,
		req.RaceDate.UTC().Format(time.RFC3339),
		req.WeeksAvailable,
		req.CurrentWeeklyLoad,
		req.LoadCeiling,
		req.Distance,
		req.Rebounds,
	)
	return uuid.NewSHA1(planNamespace, []byte(data)).String()
}

// Optimize builds the trajectory for the given constraints.
//
// Structurally impossible constraints return an InvalidConstraintError;
// a buildup too short to reach the ceiling is not an error, it returns the
// best achievable trajectory with CeilingReached false.
func (p *Planner) Optimize(ctx context.Context, params model.ModelParameters, current model.State, req Request) (model.LoadTrajectory, error) {
	if err := ctx.Err(); err != nil {
		return model.LoadTrajectory{}, err
	}
	if err := validateRequest(req); err != nil {
		return model.LoadTrajectory{}, err
	}

	plan := p.taper.Compute(params, req.Rebounds, req.Distance)
	taperWeeks := (plan.TaperDays + daysPerWeek - 1) / daysPerWeek

	trajectory := model.LoadTrajectory{
		PlanID:   planID(params, current, req),
		RaceDate: req.RaceDate.Truncate(24 * time.Hour),
		Taper:    plan,
	}

	weeks := req.WeeksAvailable
	if weeks == 0 {
		trajectory.Note = "no planning weeks remain before the race"
		trajectory.ProjectedForm = impulse.FormOf(params, current)
		return trajectory, nil
	}

	var targets []float64
	var phases []types.Phase

	buildWeeks := weeks - taperWeeks
	if buildWeeks <= 0 {
		// Taper-only: too close to the race for load to add fitness.
		start := math.Min(req.CurrentWeeklyLoad, req.LoadCeiling)
		if start <= 0 {
			start = req.LoadCeiling * p.coldStartFraction
		}
		targets = taperTargets(start, p.taperFloor, weeks, plan.Shape)
		phases = taperPhases(weeks)
		trajectory.Note = "insufficient build time before race; taper-only plan cannot meaningfully add fitness"
	} else {
		targets = make([]float64, 0, weeks)
		phases = make([]types.Phase, 0, weeks)

		progression := req.CurrentWeeklyLoad
		if progression <= 0 {
			progression = req.LoadCeiling * p.coldStartFraction
		}
		for i := 0; i < buildWeeks; i++ {
			progression = math.Min(progression*(1+p.rampCap), req.LoadCeiling)
			target := progression
			lastBuildWeek := i == buildWeeks-1
			if p.recoveryEvery > 0 && (i+1)%p.recoveryEvery == 0 && !lastBuildWeek {
				target = progression * p.recoveryFactor
			}
			targets = append(targets, target)
			if lastBuildWeek {
				phases = append(phases, types.PhasePeak)
			} else {
				phases = append(phases, types.PhaseBuild)
			}
		}

		peak := progression
		targets = append(targets, taperTargets(peak, p.taperFloor, taperWeeks, plan.Shape)...)
		phases = append(phases, taperPhases(taperWeeks)...)

		if peak >= req.LoadCeiling*(1-1e-9) {
			trajectory.CeilingReached = true
		} else {
			trajectory.Note = "ramp cap prevented reaching the load ceiling in the available weeks"
		}
	}

	trajectory.Weeks = make([]model.TrajectoryWeek, len(targets))
	for i := range targets {
		trajectory.Weeks[i] = model.TrajectoryWeek{
			WeekStart:  trajectory.RaceDate.AddDate(0, 0, -daysPerWeek*(weeks-i)),
			TargetLoad: targets[i],
			Phase:      phases[i],
		}
	}

	trajectory.ProjectedForm = p.projectForm(params, current, targets)
	metrics.RecordPlanBuild(trajectory.CeilingReached)
	return trajectory, nil
}

// projectForm re-simulates the planned weeks at uniform daily load and
// returns the form on race day.
func (p *Planner) projectForm(params model.ModelParameters, current model.State, weeklyTargets []float64) float64 {
	if len(weeklyTargets) == 0 {
		return impulse.FormOf(params, current)
	}
	daily := make([]float64, 0, len(weeklyTargets)*daysPerWeek)
	for _, target := range weeklyTargets {
		perDay := target / daysPerWeek
		for d := 0; d < daysPerWeek; d++ {
			daily = append(daily, perDay)
		}
	}
	states := impulse.Simulate(params, daily, current)
	return states[len(states)-1].Form
}

// taperTargets produces a strictly decreasing weekly load sequence from the
// peak down to floor*peak over the given number of weeks.
func taperTargets(peak, floor float64, weeks int, shape types.TaperShape) []float64 {
	if weeks <= 0 {
		return nil
	}
	targets := make([]float64, weeks)
	span := peak - peak*floor
	switch shape {
	case types.TaperExponential:
		// Geometric decay reaching the floor exactly on race week.
		ratio := math.Pow(floor, 1/float64(weeks))
		level := peak
		for i := range targets {
			level *= ratio
			targets[i] = level
		}
	case types.TaperLinear:
		for i := range targets {
			targets[i] = peak - span*float64(i+1)/float64(weeks)
		}
	case types.TaperStep:
		// Abrupt cut to the floor, with a slight further trim on longer
		// tapers so the sequence keeps decreasing.
		level := peak * floor
		for i := range targets {
			targets[i] = level
			level *= 0.9
		}
	}
	return targets
}

// taperPhases labels taper weeks, with the final (race) week marked RACE.
func taperPhases(weeks int) []types.Phase {
	phases := make([]types.Phase, weeks)
	for i := range phases {
		if i == weeks-1 {
			phases[i] = types.PhaseRace
		} else {
			phases[i] = types.PhaseTaper
		}
	}
	return phases
}
