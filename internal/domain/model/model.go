// Package model contains the value records passed between engine stages.
//
// Every type here is treated as immutable once constructed: stages consume
// inputs and return fresh values, never mutating what the caller handed in.
package model

import (
	"time"

	"github.com/mattsre/peakform/internal/domain/types"
)

// TrainingDay is one calendar day of recorded training load. Load is a
// unitless daily training-stress quantity; days absent from a history are
// treated as zero load.
type TrainingDay struct {
	Date time.Time `json:"date"`
	Load float64   `json:"load"`
}

// PerformanceMarker is a sparse calibration target: a fitness score derived
// from a race result or time-trial effort on a given date.
type PerformanceMarker struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"metric_value"`
	IsRace bool      `json:"is_race"`
}

// ModelParameters holds a calibrated impulse-response parameter set.
// Tau1 is the slow fitness decay constant in days, Tau2 the fast fatigue
// decay constant; Tau1 > Tau2 is expected for any physiologically sane fit.
type ModelParameters struct {
	Tau1        float64          `json:"tau1_days"`
	Tau2        float64          `json:"tau2_days"`
	K1          float64          `json:"k1"`
	K2          float64          `json:"k2"`
	Baseline    float64          `json:"baseline"`
	Confidence  types.Confidence `json:"confidence"`
	FitResidual float64          `json:"fit_residual"`
	DataPoints  int              `json:"data_point_count"`
}

// State is an athlete's physiological state at a point in time: the two
// accumulator values of the impulse-response model.
type State struct {
	Fitness float64 `json:"fitness"`
	Fatigue float64 `json:"fatigue"`
}

// TrajectoryWeek is one week of a planned load trajectory.
type TrajectoryWeek struct {
	WeekStart  time.Time   `json:"week_start_date"`
	TargetLoad float64     `json:"target_load"`
	Phase      types.Phase `json:"phase"`
}

// LoadTrajectory is the planned week-by-week load sequence leading into a
// race, produced once per optimization call and consumed by downstream
// plan generation.
type LoadTrajectory struct {
	PlanID         string           `json:"plan_id"`
	RaceDate       time.Time        `json:"race_date"`
	Weeks          []TrajectoryWeek `json:"weeks"`
	Taper          TaperPlan        `json:"taper"`
	ProjectedForm  float64          `json:"projected_form"`
	CeilingReached bool             `json:"ceiling_reached"`
	Note           string           `json:"note,omitempty"`
}

// TaperPlan describes the pre-race load reduction.
type TaperPlan struct {
	TaperDays int                  `json:"taper_days"`
	Shape     types.TaperShape     `json:"shape"`
	Basis     types.RationaleBasis `json:"rationale_basis"`
}

// RacePrediction is a predicted finishing time with its confidence interval.
// IntervalLow <= PredictedSeconds <= IntervalHigh always holds.
type RacePrediction struct {
	PredictedSeconds float64          `json:"predicted_time_seconds"`
	IntervalLow      float64          `json:"confidence_interval_low_seconds"`
	IntervalHigh     float64          `json:"confidence_interval_high_seconds"`
	Confidence       types.Confidence `json:"confidence"`
	BasisDistance    float64          `json:"basis_distance_meters"`
}
