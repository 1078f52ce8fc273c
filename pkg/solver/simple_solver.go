package solver

import (
	"context"
	"math"
)

// SimpleQpSolver is a dependency-free projected-gradient-descent QP solver,
// intended as a development fallback when a production backend is
// unavailable. It is not competitive with a real interior-point or
// active-set method but is adequate for small problem sizes and tests.
type SimpleQpSolver struct {
	MaxIters  int
	Tolerance float64
}

func NewSimpleQpSolver() *SimpleQpSolver {
	return &SimpleQpSolver{MaxIters: 500, Tolerance: 1e-3}
}

func (s *SimpleQpSolver) SolveQP(ctx context.Context, model QpModel) (QpSolution, error) {
	if err := model.Validate(); err != nil {
		return QpSolution{}, err
	}
	n := model.NumVars()
	x := s.initialPoint(model)
	s.projectConstraints(model, x)

	alpha := 0.1
	for iter := 0; iter < s.MaxIters; iter++ {
		select {
		case <-ctx.Done():
			return QpSolution{X: x, Status: StatusUnsolved, Iterations: iter}, ctx.Err()
		default:
		}

		grad := gradient(model, x)

		step := alpha
		var next []float64
		for tries := 0; tries < 20; tries++ {
			next = make([]float64, n)
			for i := range x {
				next[i] = x[i] - step*grad[i]
			}
			s.projectConstraints(model, next)
			if objective(model, next) <= objective(model, x) || step < 1e-8 {
				break
			}
			step *= 0.5
		}

		stepNorm := 0.0
		for i := range x {
			d := math.Abs(next[i] - x[i])
			if d > stepNorm {
				stepNorm = d
			}
		}

		anyBad := false
		for _, v := range next {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				anyBad = true
				break
			}
		}
		if anyBad {
			continue
		}
		x = next

		if stepNorm < s.Tolerance {
			status := StatusOptimal
			if !s.checkFeasibility(model, x) {
				status = StatusPrimalInfeasible
			}
			return QpSolution{X: x, Status: status, Objective: objective(model, x), Iterations: iter + 1}, nil
		}
	}
	return QpSolution{X: x, Status: StatusMaxIterations, Objective: objective(model, x), Iterations: s.MaxIters}, nil
}

func (s *SimpleQpSolver) initialPoint(model QpModel) []float64 {
	n := model.NumVars()
	x := make([]float64, n)
	lo, hi := variableBounds(model)
	for i := 0; i < n; i++ {
		switch {
		case !math.IsInf(lo[i], -1) && !math.IsInf(hi[i], 1):
			x[i] = (lo[i] + hi[i]) / 2
		case !math.IsInf(lo[i], -1):
			x[i] = lo[i]
		case !math.IsInf(hi[i], 1):
			x[i] = hi[i]
		default:
			x[i] = 0
		}
	}
	return x
}

// variableBounds extracts, for each variable, the tightest single-variable
// box implied by any constraint row that touches only that variable with
// unit coefficient. Used only to seed a feasible-ish starting point.
func variableBounds(model QpModel) (lo, hi []float64) {
	n := model.NumVars()
	lo = make([]float64, n)
	hi = make([]float64, n)
	for i := range lo {
		lo[i] = math.Inf(-1)
		hi[i] = math.Inf(1)
	}
	for r, row := range model.A {
		nz, idx := 0, -1
		for j, c := range row {
			if c != 0 {
				nz++
				idx = j
			}
		}
		if nz == 1 && row[idx] == 1 {
			if model.L[r] > lo[idx] {
				lo[idx] = model.L[r]
			}
			if model.U[r] < hi[idx] {
				hi[idx] = model.U[r]
			}
		}
	}
	return lo, hi
}

func (s *SimpleQpSolver) projectConstraints(model QpModel, x []float64) {
	for outer := 0; outer < 50; outer++ {
		maxViolation := 0.0
		for r, row := range model.A {
			val := dot(row, x)
			var violation float64
			var direction float64
			switch {
			case val < model.L[r]:
				violation = model.L[r] - val
				direction = 1
			case val > model.U[r]:
				violation = val - model.U[r]
				direction = -1
			default:
				continue
			}
			if violation > maxViolation {
				maxViolation = violation
			}
			normSq := dot(row, row)
			if normSq == 0 {
				continue
			}
			correction := direction * violation / normSq * 0.5
			for j, c := range row {
				x[j] += correction * c
			}
		}
		if maxViolation < 1e-6 {
			break
		}
	}
}

func (s *SimpleQpSolver) checkFeasibility(model QpModel, x []float64) bool {
	for r, row := range model.A {
		val := dot(row, x)
		tol := 1e-4 * (1 + math.Abs(model.U[r]-model.L[r]))
		if val < model.L[r]-tol || val > model.U[r]+tol {
			return false
		}
	}
	return true
}

func gradient(model QpModel, x []float64) []float64 {
	n := len(x)
	grad := make([]float64, n)
	for i := 0; i < n; i++ {
		g := model.Q[i]
		for j := 0; j < n; j++ {
			g += model.P[i][j] * x[j]
		}
		grad[i] = g
	}
	return grad
}

func objective(model QpModel, x []float64) float64 {
	n := len(x)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += 0.5 * x[i] * model.P[i][j] * x[j]
		}
		total += model.Q[i] * x[i]
	}
	return total
}

func dot(a, b []float64) float64 {
	total := 0.0
	for i := range a {
		total += a[i] * b[i]
	}
	return total
}

var _ SolverBackend = (*SimpleQpSolver)(nil)
