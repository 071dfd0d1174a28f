package calibration

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Default solver configuration constants.
const (
	defaultConvergeAbsolute   = 1e-10
	defaultConvergeIterations = 100
)

// Solver minimizes an unconstrained objective from a fixed starting point
// within a bounded iteration budget. Any implementation satisfying this
// contract is conformant; the engine does not mandate a specific algorithm.
type Solver interface {
	// Minimize returns the best point found, its objective value, and an
	// error when the search failed or exhausted its budget without
	// converging.
	Minimize(obj func(x []float64) float64, start []float64, maxIterations int) ([]float64, float64, error)
}

// NelderMead adapts gonum's derivative-free Nelder-Mead method to the
// Solver contract. The method uses no randomness, so a fixed start yields
// a deterministic result.
type NelderMead struct {
	convergeAbsolute   float64
	convergeIterations int
}

// NelderMeadOption configures a NelderMead solver.
type NelderMeadOption func(*NelderMead)

// WithConvergence sets the absolute function-value convergence tolerance
// and the number of iterations it must hold for.
func WithConvergence(absolute float64, iterations int) NelderMeadOption {
	return func(s *NelderMead) {
		if absolute > 0 {
			s.convergeAbsolute = absolute
		}
		if iterations > 0 {
			s.convergeIterations = iterations
		}
	}
}

// NewNelderMead constructs the default solver.
func NewNelderMead(opts ...NelderMeadOption) *NelderMead {
	s := &NelderMead{
		convergeAbsolute:   defaultConvergeAbsolute,
		convergeIterations: defaultConvergeIterations,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Minimize runs the simplex search.
func (s *NelderMead) Minimize(obj func(x []float64) float64, start []float64, maxIterations int) ([]float64, float64, error) {
	problem := optimize.Problem{Func: obj}
	settings := &optimize.Settings{
		MajorIterations: maxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   s.convergeAbsolute,
			Iterations: s.convergeIterations,
		},
	}

	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, fmt.Errorf("nelder-mead: %w", err)
	}
	if result == nil || result.Status == optimize.IterationLimit {
		return nil, 0, ErrNotConverged
	}
	if math.IsNaN(result.F) || math.IsInf(result.F, 0) {
		return nil, 0, ErrNotConverged
	}
	return result.X, result.F, nil
}
