package loadplan

import (
	"fmt"
	"math"
)

// InvalidConstraintError reports a structurally impossible planning input.
// These are caller bugs, never data-quality issues, so they are returned
// rather than silently defaulted.
type InvalidConstraintError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InvalidConstraintError) Error() string {
	return fmt.Sprintf("invalid planning constraint %s: %s", e.Field, e.Reason)
}

func validateRequest(req Request) error {
	if req.RaceDate.IsZero() {
		return &InvalidConstraintError{Field: "race_date", Reason: "must be set"}
	}
	if req.WeeksAvailable < 0 {
		return &InvalidConstraintError{Field: "weeks_available", Reason: "must not be negative"}
	}
	if math.IsNaN(req.LoadCeiling) || math.IsInf(req.LoadCeiling, 0) || req.LoadCeiling <= 0 {
		return &InvalidConstraintError{Field: "sustainable_load_ceiling", Reason: "must be a positive finite value"}
	}
	if math.IsNaN(req.CurrentWeeklyLoad) || math.IsInf(req.CurrentWeeklyLoad, 0) || req.CurrentWeeklyLoad < 0 {
		return &InvalidConstraintError{Field: "current_weekly_load", Reason: "must be a non-negative finite value"}
	}
	return nil
}
