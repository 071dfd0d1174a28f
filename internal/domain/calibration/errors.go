package calibration

import "errors"

// Sentinel kinds for solver outcomes.
var (
	ErrNotConverged = errors.New("solver did not converge within iteration budget")
)
