package solver

import "context"

// QpStatus reports how a solve attempt terminated.
type QpStatus int

const (
	StatusUnsolved QpStatus = iota
	StatusOptimal
	StatusPrimalInfeasible
	StatusDualInfeasible
	StatusMaxIterations
)

func (s QpStatus) String() string {
	switch s {
	case StatusOptimal:
		return "Optimal"
	case StatusPrimalInfeasible:
		return "PrimalInfeasible"
	case StatusDualInfeasible:
		return "DualInfeasible"
	case StatusMaxIterations:
		return "MaxIterations"
	default:
		return "Unsolved"
	}
}

// QpSolution is the result of one solve attempt.
type QpSolution struct {
	X          []float64
	Status     QpStatus
	Objective  float64
	Iterations int
}

// SolverBackend solves a single QP instance. The SCP loop calls this once
// per outer iteration with a freshly linearized model.
type SolverBackend interface {
	SolveQP(ctx context.Context, model QpModel) (QpSolution, error)
}
