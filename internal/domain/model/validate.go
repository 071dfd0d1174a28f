package model

import (
	"fmt"
	"math"
)

// ValidationError reports a malformed input record rejected at the engine
// boundary before it reaches the numerical model.
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s at index %d: %s", e.Field, e.Index, e.Reason)
}

// ValidateHistory checks a load history for records the model must never
// see: negative or non-finite loads, zero dates, and out-of-order days.
func ValidateHistory(history []TrainingDay) error {
	for i, day := range history {
		if day.Date.IsZero() {
			return &ValidationError{Field: "training_day", Index: i, Reason: "date is zero"}
		}
		if math.IsNaN(day.Load) || math.IsInf(day.Load, 0) {
			return &ValidationError{Field: "training_day", Index: i, Reason: "load is not finite"}
		}
		if day.Load < 0 {
			return &ValidationError{Field: "training_day", Index: i, Reason: "load is negative"}
		}
		if i > 0 && day.Date.Before(history[i-1].Date) {
			return &ValidationError{Field: "training_day", Index: i, Reason: "dates are not ascending"}
		}
	}
	return nil
}

// ValidateMarkers checks performance markers for zero dates and non-finite
// metric values.
func ValidateMarkers(markers []PerformanceMarker) error {
	for i, m := range markers {
		if m.Date.IsZero() {
			return &ValidationError{Field: "performance_marker", Index: i, Reason: "date is zero"}
		}
		if math.IsNaN(m.Value) || math.IsInf(m.Value, 0) {
			return &ValidationError{Field: "performance_marker", Index: i, Reason: "metric value is not finite"}
		}
	}
	return nil
}
