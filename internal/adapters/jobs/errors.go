package jobs

import "errors"

// Sentinel errors for queue operations.
var (
	ErrQueueFull   = errors.New("calibration queue full")
	ErrQueueClosed = errors.New("calibration queue closed")
)
