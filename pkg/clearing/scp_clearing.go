package clearing

import (
	"context"
	"math"

	"github.com/convexfx/engine/pkg/solver"
	"github.com/convexfx/engine/pkg/types"
)

// ScpParams controls the SCP loop's own convergence tolerances. These are
// intentionally distinct from validity.Tolerances, which the post-hoc
// predicate uses instead — see DESIGN.md Open Question resolution #2.
type ScpParams struct {
	MaxIterations     int
	ToleranceY        float64
	ToleranceAlpha    float64
	LineSearchMaxSteps int
}

func DefaultScpParams() ScpParams {
	return ScpParams{
		MaxIterations:      5,
		ToleranceY:         1e-5,
		ToleranceAlpha:     1e-6,
		LineSearchMaxSteps: 10,
	}
}

// fillZeroEpsilon is the SCP loop's own "treat as no fill" cutoff, distinct
// from validity.minFillAmount — see DESIGN.md Open Question resolution #3.
const fillZeroEpsilon = 1e-10

// ScpClearing runs the Sequential Convex Programming clearing loop: it
// hot-starts from the oracle's reference prices, repeatedly linearizes and
// solves a trust-region QP with adaptive bands, line-searches for exact
// nonlinear feasibility, and stops on convergence or iteration budget.
type ScpClearing struct {
	backend solver.SolverBackend
	params  ScpParams
}

func NewScpClearing(backend solver.SolverBackend, params ScpParams) *ScpClearing {
	return &ScpClearing{backend: backend, params: params}
}

// WithAdmmSolver builds an ScpClearing using the production ADMM backend.
func WithAdmmSolver() *ScpClearing {
	return NewScpClearing(solver.NewAdmmQpSolver(), DefaultScpParams())
}

// WithSimpleSolver builds an ScpClearing using the development
// projected-gradient backend.
func WithSimpleSolver() *ScpClearing {
	return NewScpClearing(solver.NewSimpleQpSolver(), DefaultScpParams())
}

// ClearEpoch runs the SCP loop to completion and returns the epoch's
// solution.
func (c *ScpClearing) ClearEpoch(ctx context.Context, inst EpochInstance) (EpochSolution, error) {
	nOrders := inst.NumOrders()

	yCurrent := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		yCurrent[a] = inst.RefPrices.Get(a)
	}
	alphaCurrent := make([]float64, nOrders)

	iterations := 0
	converged := false
	finalStepNormY := 0.0
	finalStepNormAlpha := 0.0
	qpStatus := ""

	for iter := 0; iter < c.params.MaxIterations; iter++ {
		iterations = iter + 1

		var bands float64
		switch {
		case iter == 0:
			bands = 10.0
		case finalStepNormY > c.params.ToleranceY*10.0:
			bands = 30.0
		default:
			bands = 20.0
		}

		model := buildQpWithBands(inst, yCurrent, bands)
		sol, err := c.backend.SolveQP(ctx, model)
		if err != nil {
			return EpochSolution{}, types.WrapError(types.KindSolverFailure, err)
		}
		qpStatus = sol.Status.String()

		yNew, alphaNew := extractSolution(sol)

		lambda := c.backtrackingLineSearch(inst, yCurrent, alphaCurrent, yNew, alphaNew, bands)

		yNext := make(map[types.AssetId]float64, len(yCurrent))
		for asset, yOld := range yCurrent {
			step := yNew[asset] - yOld
			yNext[asset] = yOld + lambda*step
		}
		alphaNext := make([]float64, nOrders)
		for k := range alphaCurrent {
			step := alphaNew[k] - alphaCurrent[k]
			alphaNext[k] = alphaCurrent[k] + lambda*step
		}

		stepNormY := 0.0
		for asset, yOld := range yCurrent {
			d := math.Abs(yNext[asset] - yOld)
			if d > stepNormY {
				stepNormY = d
			}
		}
		stepNormAlpha := 0.0
		for k := range alphaCurrent {
			d := math.Abs(alphaNext[k] - alphaCurrent[k])
			if d > stepNormAlpha {
				stepNormAlpha = d
			}
		}
		finalStepNormY = stepNormY
		finalStepNormAlpha = stepNormAlpha

		yCurrent = yNext
		alphaCurrent = alphaNext

		if stepNormY < c.params.ToleranceY && stepNormAlpha < c.params.ToleranceAlpha {
			converged = true
			break
		}
	}

	qPost, fills := computeFillsAndInventory(inst, yCurrent, alphaCurrent)

	logPrices := types.NewLogPrices()
	for _, a := range types.AllAssets() {
		logPrices.Set(a, yCurrent[a])
	}

	objectiveTerms := computeObjectiveTerms(inst, qPost, yCurrent, alphaCurrent)

	diagnostics := Diagnostics{
		Iterations:          iterations,
		ConvergenceAchieved: converged,
		FinalStepNormY:      finalStepNormY,
		FinalStepNormAlpha:  finalStepNormAlpha,
		QPStatus:            qpStatus,
	}

	return EpochSolution{
		EpochID:        inst.EpochID,
		YStar:          logPrices,
		Prices:         logPrices.ToPrices(),
		QPost:          qPost,
		Fills:          fills,
		ObjectiveTerms: objectiveTerms,
		Diagnostics:    diagnostics,
	}, nil
}

// computeFillsAndInventory applies the exact (nonlinear) fill formula at
// the converged iterate: pay = alpha*budget, recv = pay*exp(y_pay-y_recv).
// The pool gains pay units and loses recv units — this sign convention is
// applied identically in checkNonlinearFeasibility and in
// validity's validateInventoryConservation (DESIGN.md Open Question resolution #4).
func computeFillsAndInventory(inst EpochInstance, y map[types.AssetId]float64, alpha []float64) (map[types.AssetId]float64, []types.Fill) {
	qPost := make(map[types.AssetId]float64, len(inst.InventoryQ))
	for a, v := range inst.InventoryQ {
		qPost[a] = v
	}

	fills := make([]types.Fill, len(inst.Orders))
	for k, order := range inst.Orders {
		alphaK := alpha[k]
		var payUnits, recvUnits float64
		if alphaK >= fillZeroEpsilon {
			yPay := y[order.Pay]
			yRecv := y[order.Receive]
			budget := order.Budget.ToFloat64()
			pay := alphaK * budget
			recv := pay * math.Exp(yPay-yRecv)

			qPost[order.Pay] += pay
			qPost[order.Receive] -= recv

			payUnits, recvUnits = pay, recv
		}

		payAmt, _ := types.FromFloat64(payUnits)
		recvAmt, _ := types.FromFloat64(recvUnits)
		fills[k] = types.Fill{
			OrderID:   order.ID,
			FillFrac:  alphaK,
			PayAsset:  order.Pay,
			RecvAsset: order.Receive,
			PayUnits:  payAmt,
			RecvUnits: recvAmt,
			FeesPaid:  types.ZeroAmount(),
		}
	}
	return qPost, fills
}

// computeObjectiveTerms breaks down the converged objective. fillIncentive
// is the corrected formula from spec.md, not the original's placeholder
// bug (DESIGN.md Open Question resolution #5): the same linearized term
// the QP builder put into q for each fill-fraction variable, evaluated at
// the converged iterate.
func computeObjectiveTerms(inst EpochInstance, qPost map[types.AssetId]float64, y map[types.AssetId]float64, alpha []float64) ObjectiveTerms {
	inventoryRisk := inst.Risk.InventoryPenalty(qPost)

	yRef := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		yRef[a] = inst.RefPrices.Get(a)
	}
	priceTracking := inst.Risk.TrackingPenalty(y, yRef)

	fillIncentive := 0.0
	for k, order := range inst.Orders {
		yPay := y[order.Pay]
		yRecv := y[order.Receive]
		budget := order.Budget.ToFloat64()
		fillIncentive += budget * alpha[k] * math.Exp(yPay-yRecv)
	}
	fillIncentive = -inst.Risk.Eta * fillIncentive

	total := inventoryRisk + priceTracking + fillIncentive
	return ObjectiveTerms{
		InventoryRisk: inventoryRisk,
		PriceTracking: priceTracking,
		FillIncentive: fillIncentive,
		Total:         total,
	}
}

func (c *ScpClearing) backtrackingLineSearch(inst EpochInstance, yCurrent map[types.AssetId]float64, alphaCurrent []float64, yNew map[types.AssetId]float64, alphaNew []float64, bands float64) float64 {
	lambda := 1.0
	const backtrack = 0.5

	for step := 0; step < c.params.LineSearchMaxSteps; step++ {
		yNext := make(map[types.AssetId]float64, len(yCurrent))
		for asset, yOld := range yCurrent {
			yStep := yNew[asset] - yOld
			yNext[asset] = yOld + lambda*yStep
		}
		alphaNext := make([]float64, len(alphaCurrent))
		for k := range alphaCurrent {
			aStep := alphaNew[k] - alphaCurrent[k]
			alphaNext[k] = alphaCurrent[k] + lambda*aStep
		}

		if checkNonlinearFeasibility(inst, yNext, alphaNext, bands) {
			return lambda
		}
		lambda *= backtrack
	}
	return lambda
}

// checkNonlinearFeasibility probes whether a candidate iterate satisfies
// the true (nonlinear) price-band, inventory-bound, and fill-fraction
// constraints. Its inventory projection starts from the instance's actual
// pre-trade inventory and uses the same "pool gains pay, loses recv" sign
// convention as computeFillsAndInventory — normalized from the original's
// inconsistent probe, which started from the target inventory and applied
// the opposite sign (DESIGN.md Open Question resolution #4).
func checkNonlinearFeasibility(inst EpochInstance, yNext map[types.AssetId]float64, alphaNext []float64, bands float64) bool {
	bandHalf := bands / 10000.0
	for _, asset := range types.AllAssets() {
		yRef := inst.RefPrices.Get(asset)
		y := yNext[asset]
		if math.Abs(y-yRef) > bandHalf {
			return false
		}
	}

	qNext := computeInventoryNext(inst, yNext, alphaNext)
	for _, asset := range types.AllAssets() {
		q := qNext[asset]
		if q < inst.Risk.MinBound(asset) || q > inst.Risk.MaxBound(asset) {
			return false
		}
	}

	for _, a := range alphaNext {
		if a < 0.0 || a > 1.0 {
			return false
		}
	}
	return true
}

func computeInventoryNext(inst EpochInstance, yNext map[types.AssetId]float64, alphaNext []float64) map[types.AssetId]float64 {
	qNext := make(map[types.AssetId]float64, len(inst.InventoryQ))
	for a, v := range inst.InventoryQ {
		qNext[a] = v
	}

	for k, order := range inst.Orders {
		alpha := 0.0
		if k < len(alphaNext) {
			alpha = alphaNext[k]
		}
		if alpha <= 0.0 {
			continue
		}
		budget := order.Budget.ToFloat64()
		yPay := yNext[order.Pay]
		yRecv := yNext[order.Receive]

		pay := alpha * budget
		recv := pay * math.Exp(yPay-yRecv)

		qNext[order.Pay] += pay
		qNext[order.Receive] -= recv
	}
	return qNext
}
