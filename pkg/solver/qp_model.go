package solver

import (
	"fmt"

	"github.com/convexfx/engine/pkg/types"
)

// VarMeta labels a QP variable with its domain meaning, for diagnostics and
// solution extraction.
type VarMeta struct {
	LogPriceAsset *types.AssetId
	FillOrderID   *types.OrderId
}

func LogPriceVar(a types.AssetId) VarMeta { return VarMeta{LogPriceAsset: &a} }
func FillVar(id types.OrderId) VarMeta    { return VarMeta{FillOrderID: &id} }

// QpModel is the standard-form QP the SCP loop hands to a SolverBackend:
//
//	minimize   0.5 x^T P x + q^T x
//	subject to l <= A x <= u
type QpModel struct {
	P       [][]float64
	Q       []float64
	A       [][]float64
	L       []float64
	U       []float64
	VarMeta []VarMeta
}

func NewQpModel(p [][]float64, q []float64, a [][]float64, l, u []float64, meta []VarMeta) QpModel {
	return QpModel{P: p, Q: q, A: a, L: l, U: u, VarMeta: meta}
}

func (m QpModel) NumVars() int        { return len(m.Q) }
func (m QpModel) NumConstraints() int { return len(m.L) }

// Validate checks that every matrix/vector dimension in the model is
// mutually consistent.
func (m QpModel) Validate() error {
	n := m.NumVars()
	if len(m.P) != n {
		return types.NewError(types.KindSolverConfigError, fmt.Sprintf("P has %d rows, want %d", len(m.P), n))
	}
	for i, row := range m.P {
		if len(row) != n {
			return types.NewError(types.KindSolverConfigError, fmt.Sprintf("P row %d has %d cols, want %d", i, len(row), n))
		}
	}
	if len(m.VarMeta) != n {
		return types.NewError(types.KindSolverConfigError, fmt.Sprintf("var meta has %d entries, want %d", len(m.VarMeta), n))
	}
	nc := m.NumConstraints()
	if len(m.U) != nc {
		return types.NewError(types.KindSolverConfigError, fmt.Sprintf("U has %d entries, want %d (len(L))", len(m.U), nc))
	}
	if len(m.A) != nc {
		return types.NewError(types.KindSolverConfigError, fmt.Sprintf("A has %d rows, want %d", len(m.A), nc))
	}
	for i, row := range m.A {
		if len(row) != n {
			return types.NewError(types.KindSolverConfigError, fmt.Sprintf("A row %d has %d cols, want %d", i, len(row), n))
		}
	}
	for i := range m.L {
		if m.L[i] > m.U[i] {
			return types.NewError(types.KindSolverConfigError, fmt.Sprintf("constraint %d has l > u", i))
		}
	}
	return nil
}
