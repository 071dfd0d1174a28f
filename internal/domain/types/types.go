// Package types contains the enumerations shared across the forecasting engine.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Confidence classifies how much trust downstream consumers should place in
// a calibration result or race prediction.
type Confidence int

// Confidence levels, ordered from least to most trustworthy.
const (
	ConfidenceLow Confidence = iota
	ConfidenceMedium
	ConfidenceHigh
)

// String returns the lowercase name of the confidence level.
func (c Confidence) String() string {
	switch c {
	case ConfidenceLow:
		return "low"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceHigh:
		return "high"
	}
	return fmt.Sprintf("confidence(%d)", int(c))
}

// ParseConfidence maps a case-insensitive name to a Confidence level.
func ParseConfidence(s string) (Confidence, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow, nil
	case "medium":
		return ConfidenceMedium, nil
	case "high":
		return ConfidenceHigh, nil
	}
	return ConfidenceLow, fmt.Errorf("unknown confidence level: %q", s)
}

// MarshalJSON encodes the level as its string name.
func (c Confidence) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a string name into a Confidence level.
func (c *Confidence) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseConfidence(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Phase labels a week within a load trajectory.
type Phase int

// Trajectory phases in chronological order.
const (
	PhaseBuild Phase = iota
	PhasePeak
	PhaseTaper
	PhaseRace
)

// String returns the lowercase name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBuild:
		return "build"
	case PhasePeak:
		return "peak"
	case PhaseTaper:
		return "taper"
	case PhaseRace:
		return "race"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalJSON encodes the phase as its string name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes a string name into a Phase.
func (p *Phase) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "build":
		*p = PhaseBuild
	case "peak":
		*p = PhasePeak
	case "taper":
		*p = PhaseTaper
	case "race":
		*p = PhaseRace
	default:
		return fmt.Errorf("unknown phase: %q", s)
	}
	return nil
}

// TaperShape describes how load decreases across the taper segment.
type TaperShape int

// Supported taper shapes.
const (
	TaperExponential TaperShape = iota
	TaperLinear
	TaperStep
)

// String returns the lowercase name of the shape.
func (t TaperShape) String() string {
	switch t {
	case TaperExponential:
		return "exponential"
	case TaperLinear:
		return "linear"
	case TaperStep:
		return "step"
	}
	return fmt.Sprintf("taper_shape(%d)", int(t))
}

// ParseTaperShape maps a case-insensitive name to a TaperShape.
func ParseTaperShape(s string) (TaperShape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exponential":
		return TaperExponential, nil
	case "linear":
		return TaperLinear, nil
	case "step":
		return TaperStep, nil
	}
	return TaperExponential, fmt.Errorf("unknown taper shape: %q", s)
}

// MarshalJSON encodes the shape as its string name.
func (t TaperShape) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a string name into a TaperShape.
func (t *TaperShape) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTaperShape(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// RationaleBasis records which rule produced a taper plan.
type RationaleBasis int

// Taper rationale sources, lowest priority first.
const (
	BasisDefault RationaleBasis = iota
	BasisCalibrated
	BasisObservedHistory
)

// String returns the lowercase name of the basis.
func (b RationaleBasis) String() string {
	switch b {
	case BasisDefault:
		return "default"
	case BasisCalibrated:
		return "calibrated"
	case BasisObservedHistory:
		return "observed_history"
	}
	return fmt.Sprintf("rationale_basis(%d)", int(b))
}

// MarshalJSON encodes the basis as its string name.
func (b RationaleBasis) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

// ReboundSpeed classifies how quickly an athlete's performance recovers
// after a hard effort or load reduction.
type ReboundSpeed int

// Rebound speed classifications.
const (
	ReboundUnknown ReboundSpeed = iota
	ReboundFast
	ReboundModerate
	ReboundSlow
)

// String returns the lowercase name of the rebound speed.
func (r ReboundSpeed) String() string {
	switch r {
	case ReboundUnknown:
		return "unknown"
	case ReboundFast:
		return "fast"
	case ReboundModerate:
		return "moderate"
	case ReboundSlow:
		return "slow"
	}
	return fmt.Sprintf("rebound_speed(%d)", int(r))
}

// ParseReboundSpeed maps a case-insensitive name to a ReboundSpeed.
func ParseReboundSpeed(s string) (ReboundSpeed, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "unknown":
		return ReboundUnknown, nil
	case "fast":
		return ReboundFast, nil
	case "moderate":
		return ReboundModerate, nil
	case "slow":
		return ReboundSlow, nil
	}
	return ReboundUnknown, fmt.Errorf("unknown rebound speed: %q", s)
}

// MarshalJSON encodes the rebound speed as its string name.
func (r ReboundSpeed) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// DistanceClass buckets race distances into the categories the taper tables
// and score-to-time curves are keyed by.
type DistanceClass int

// Distance classes from shortest to longest.
const (
	DistanceShort    DistanceClass = iota // up to ~5K
	DistanceMiddle                        // ~10K
	DistanceHalf                          // half marathon
	DistanceMarathon                      // marathon and up
)

// Standard race distances in meters.
const (
	Meters5K       = 5000.0
	Meters10K      = 10000.0
	MetersHalfMara = 21097.5
	MetersMarathon = 42195.0
)

// String returns the lowercase name of the distance class.
func (d DistanceClass) String() string {
	switch d {
	case DistanceShort:
		return "short"
	case DistanceMiddle:
		return "middle"
	case DistanceHalf:
		return "half_marathon"
	case DistanceMarathon:
		return "marathon"
	}
	return fmt.Sprintf("distance_class(%d)", int(d))
}

// ParseDistanceClass maps a case-insensitive name to a DistanceClass.
func ParseDistanceClass(s string) (DistanceClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short":
		return DistanceShort, nil
	case "middle":
		return DistanceMiddle, nil
	case "half_marathon", "half":
		return DistanceHalf, nil
	case "marathon", "full":
		return DistanceMarathon, nil
	}
	return DistanceShort, fmt.Errorf("unknown distance class: %q", s)
}

// MarshalJSON encodes the distance class as its string name.
func (d DistanceClass) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// ClassifyDistance buckets a race distance in meters into a DistanceClass.
func ClassifyDistance(meters float64) DistanceClass {
	switch {
	case meters <= 7500:
		return DistanceShort
	case meters <= 15000:
		return DistanceMiddle
	case meters <= 30000:
		return DistanceHalf
	default:
		return DistanceMarathon
	}
}
