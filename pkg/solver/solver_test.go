package solver

import (
	"context"
	"math"
	"testing"

	"github.com/convexfx/engine/pkg/types"
)

// trivialModel builds minimize x^2 - 4x subject to -10 <= x <= 10, whose
// unconstrained minimum sits at x=2, well inside the box.
func trivialModel() QpModel {
	return NewQpModel(
		[][]float64{{2.0}},
		[]float64{-4.0},
		[][]float64{{1.0}},
		[]float64{-10.0},
		[]float64{10.0},
		[]VarMeta{FillVar(types.OrderId("x"))},
	)
}

func TestSimpleQpSolverFindsUnconstrainedMinimum(t *testing.T) {
	solver := NewSimpleQpSolver()
	sol, err := solver.SolveQP(context.Background(), trivialModel())
	if err != nil {
		t.Fatalf("SolveQP: %v", err)
	}
	if got := sol.X[0]; math.Abs(got-2.0) > 0.05 {
		t.Fatalf("expected x near 2.0, got %v", got)
	}
}

func TestAdmmQpSolverFindsUnconstrainedMinimum(t *testing.T) {
	solver := NewAdmmQpSolver()
	sol, err := solver.SolveQP(context.Background(), trivialModel())
	if err != nil {
		t.Fatalf("SolveQP: %v", err)
	}
	if sol.Status != StatusOptimal && sol.Status != StatusMaxIterations {
		t.Fatalf("expected optimal or max-iterations status, got %v", sol.Status)
	}
	if got := sol.X[0]; math.Abs(got-2.0) > 0.05 {
		t.Fatalf("expected x near 2.0, got %v", got)
	}
}

func TestAdmmQpSolverRespectsBoxConstraint(t *testing.T) {
	model := NewQpModel(
		[][]float64{{2.0}},
		[]float64{-4.0},
		[][]float64{{1.0}},
		[]float64{-1.0},
		[]float64{1.0},
		[]VarMeta{FillVar(types.OrderId("x"))},
	)
	solver := NewAdmmQpSolver()
	sol, err := solver.SolveQP(context.Background(), model)
	if err != nil {
		t.Fatalf("SolveQP: %v", err)
	}
	if got := sol.X[0]; got > 1.0+1e-3 {
		t.Fatalf("expected x clipped to <= 1.0, got %v", got)
	}
}

func TestQpModelValidateRejectsDimensionMismatch(t *testing.T) {
	model := QpModel{
		P:       [][]float64{{1.0, 0.0}, {0.0, 1.0}},
		Q:       []float64{0.0, 0.0},
		A:       [][]float64{{1.0}},
		L:       []float64{0.0},
		U:       []float64{1.0},
		VarMeta: []VarMeta{FillVar(types.OrderId("x")), FillVar(types.OrderId("y"))},
	}
	if err := model.Validate(); err == nil {
		t.Fatalf("expected validation error for mismatched constraint row width")
	}
}

func TestQpModelValidateRejectsInvertedBounds(t *testing.T) {
	model := NewQpModel(
		[][]float64{{1.0}},
		[]float64{0.0},
		[][]float64{{1.0}},
		[]float64{5.0},
		[]float64{-5.0},
		[]VarMeta{FillVar(types.OrderId("x"))},
	)
	if err := model.Validate(); err == nil {
		t.Fatalf("expected validation error for l > u")
	}
}
