package solver

import (
	"context"
	"math"
)

// AdmmQpSolver solves l <= Ax <= u, minimize 0.5 x^T P x + q^T x via the
// operator-splitting ADMM scheme used by production QP solvers (OSQP):
// split the linear constraint into an auxiliary variable z, alternate a
// regularized unconstrained x-update (solved by conjugate gradient, since
// forming and inverting the KKT system densely is unnecessary at this
// problem size) with a clip of z onto [l,u], and update the scaled dual y.
//
// This is the production backend that clearing.WithAdmmSolver and
// cmd/clearer plug into the SCP loop; no third-party QP library exists in the available
// stack, so it is implemented directly against math/big-free stdlib math.
type AdmmQpSolver struct {
	Rho       float64
	Sigma     float64
	MaxIters  int
	EpsAbs    float64
	CgMaxIter int
}

func NewAdmmQpSolver() *AdmmQpSolver {
	return &AdmmQpSolver{Rho: 1.0, Sigma: 1e-6, MaxIters: 4000, EpsAbs: 1e-6, CgMaxIter: 200}
}

func (s *AdmmQpSolver) SolveQP(ctx context.Context, model QpModel) (QpSolution, error) {
	if err := model.Validate(); err != nil {
		return QpSolution{}, err
	}
	n := model.NumVars()
	m := model.NumConstraints()

	x := make([]float64, n)
	z := make([]float64, m)
	y := make([]float64, m)

	for iter := 0; iter < s.MaxIters; iter++ {
		select {
		case <-ctx.Done():
			return QpSolution{X: x, Status: StatusUnsolved, Iterations: iter}, ctx.Err()
		default:
		}

		rhs := make([]float64, n)
		for i := 0; i < n; i++ {
			rhs[i] = s.Sigma*x[i] - model.Q[i]
		}
		for r := 0; r < m; r++ {
			coeff := s.Rho*z[r] - y[r]
			if coeff == 0 {
				continue
			}
			for j, c := range model.A[r] {
				rhs[j] += c * coeff
			}
		}

		xNew := s.solveKkt(model, rhs, x)

		zTilde := make([]float64, m)
		for r, row := range model.A {
			zTilde[r] = dot(row, xNew)
		}
		zNew := make([]float64, m)
		for r := range zNew {
			v := zTilde[r] + y[r]/s.Rho
			zNew[r] = clip(v, model.L[r], model.U[r])
		}
		yNew := make([]float64, m)
		for r := range yNew {
			yNew[r] = y[r] + s.Rho*(zTilde[r]-zNew[r])
		}

		primalRes := 0.0
		for r := range zTilde {
			d := math.Abs(zTilde[r] - zNew[r])
			if d > primalRes {
				primalRes = d
			}
		}
		dualRes := 0.0
		for i := range xNew {
			d := math.Abs(xNew[i] - x[i])
			if d > dualRes {
				dualRes = d
			}
		}

		x, z, y = xNew, zNew, yNew

		if primalRes < s.EpsAbs && dualRes < s.EpsAbs {
			status := StatusOptimal
			if !s.checkFeasible(model, x) {
				status = StatusPrimalInfeasible
			}
			return QpSolution{X: x, Status: status, Objective: objective(model, x), Iterations: iter + 1}, nil
		}
	}
	status := StatusMaxIterations
	if !s.checkFeasible(model, x) {
		status = StatusPrimalInfeasible
	}
	return QpSolution{X: x, Status: status, Objective: objective(model, x), Iterations: s.MaxIters}, nil
}

func (s *AdmmQpSolver) checkFeasible(model QpModel, x []float64) bool {
	for r, row := range model.A {
		val := dot(row, x)
		tol := 1e-4 * (1 + math.Abs(model.U[r]-model.L[r]))
		if val < model.L[r]-tol || val > model.U[r]+tol {
			return false
		}
	}
	return true
}

// solveKkt solves (P + sigma*I + rho*A^T A) x = rhs via conjugate gradient,
// starting from x0. The matrix is symmetric positive definite whenever P is
// PSD (true for the diagonal w_diag Hessian the QP builder produces) plus
// the sigma and rho regularization terms.
func (s *AdmmQpSolver) solveKkt(model QpModel, rhs, x0 []float64) []float64 {
	n := len(rhs)
	apply := func(v []float64) []float64 {
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			acc := s.Sigma * v[i]
			for j := 0; j < n; j++ {
				acc += model.P[i][j] * v[j]
			}
			out[i] = acc
		}
		if s.Rho != 0 {
			av := make([]float64, model.NumConstraints())
			for r, row := range model.A {
				av[r] = dot(row, v)
			}
			for r, row := range model.A {
				c := s.Rho * av[r]
				if c == 0 {
					continue
				}
				for j, coeff := range row {
					out[j] += coeff * c
				}
			}
		}
		return out
	}

	x := make([]float64, n)
	copy(x, x0)
	r := make([]float64, n)
	ax := apply(x)
	for i := range r {
		r[i] = rhs[i] - ax[i]
	}
	p := make([]float64, n)
	copy(p, r)
	rsOld := dot(r, r)
	if rsOld < 1e-20 {
		return x
	}
	for iter := 0; iter < s.CgMaxIter; iter++ {
		ap := apply(p)
		denom := dot(p, ap)
		if math.Abs(denom) < 1e-20 {
			break
		}
		alpha := rsOld / denom
		for i := range x {
			x[i] += alpha * p[i]
			r[i] -= alpha * ap[i]
		}
		rsNew := dot(r, r)
		if rsNew < 1e-16 {
			break
		}
		beta := rsNew / rsOld
		for i := range p {
			p[i] = r[i] + beta*p[i]
		}
		rsOld = rsNew
	}
	return x
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ SolverBackend = (*AdmmQpSolver)(nil)
