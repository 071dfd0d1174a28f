package racepred

import "errors"

// Sentinel kinds for prediction input errors.
var (
	ErrInvalidDistance = errors.New("target distance must be a positive finite value")
	ErrInvalidTime     = errors.New("race time must be a positive finite value")
)
