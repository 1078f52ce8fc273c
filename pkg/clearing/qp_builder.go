package clearing

import (
	"math"

	"github.com/convexfx/engine/pkg/solver"
	"github.com/convexfx/engine/pkg/types"
)

// buildQpWithBands linearizes the epoch instance at y_current into a
// trust-region QP with adaptive price bands (width `bands` in bps).
//
// Variable layout: [log-price per asset (n_assets)] ++ [fill fraction per
// order (n_orders)]. Constraint row layout: row 0 pins USD to zero; the
// next n_assets rows bound each asset's log-price to [y_ref-band,
// y_ref+band]; the next n_orders rows box each fill fraction to [0,1];
// the remaining rows, one per order carrying a limit ratio, bound
// y_receive - y_pay <= ln(limit_ratio).
//
// The Hessian diagonal uses w_diag (the price-tracking weight), matching
// the linear term built below for the same penalty — see DESIGN.md Open
// Question resolution #1 for why this, not gamma_diag, is correct here.
func buildQpWithBands(inst EpochInstance, yCurrent map[types.AssetId]float64, bands float64) solver.QpModel {
	assets := types.AllAssets()
	nAssets := len(assets)
	nOrders := inst.NumOrders()
	nVars := nAssets + nOrders

	p := make([][]float64, nVars)
	for i := range p {
		p[i] = make([]float64, nVars)
	}
	for i, a := range assets {
		p[i][i] = inst.Risk.WDiag[a]
	}

	q := make([]float64, nVars)
	for i, a := range assets {
		yRef := inst.RefPrices.Get(a)
		yCur := yCurrent[a]
		q[i] = inst.Risk.WDiag[a] * (yCur - yRef)
	}
	for k, order := range inst.Orders {
		yPay := yCurrent[order.Pay]
		yRecv := yCurrent[order.Receive]
		beta := math.Exp(yPay - yRecv)
		budget := order.Budget.ToFloat64()
		q[nAssets+k] = -inst.Risk.Eta * budget * beta
	}

	nLimits := 0
	for _, o := range inst.Orders {
		if o.HasLimit() {
			nLimits++
		}
	}
	nConstraints := 1 + nAssets + nOrders + nLimits
	a := make([][]float64, nConstraints)
	for i := range a {
		a[i] = make([]float64, nVars)
	}
	l := make([]float64, nConstraints)
	u := make([]float64, nConstraints)

	row := 0
	usdIdx := types.USD.Index()
	a[row][usdIdx] = 1.0
	l[row], u[row] = 0.0, 0.0
	row++

	bandHalf := bands / 10000.0
	for i, asset := range assets {
		yRef := inst.RefPrices.Get(asset)
		a[row][i] = 1.0
		l[row] = yRef - bandHalf
		u[row] = yRef + bandHalf
		row++
	}

	for k := 0; k < nOrders; k++ {
		a[row][nAssets+k] = 1.0
		l[row], u[row] = 0.0, 1.0
		row++
	}

	for _, order := range inst.Orders {
		if !order.HasLimit() {
			continue
		}
		recvIdx := order.Receive.Index()
		payIdx := order.Pay.Index()
		a[row][recvIdx] = 1.0
		a[row][payIdx] = -1.0
		l[row] = math.Inf(-1)
		u[row] = order.LogLimit()
		row++
	}

	meta := make([]solver.VarMeta, nVars)
	for i, asset := range assets {
		meta[i] = solver.LogPriceVar(asset)
	}
	for k, order := range inst.Orders {
		meta[nAssets+k] = solver.FillVar(order.ID)
	}

	return solver.NewQpModel(p, q, a, l, u, meta)
}

// extractSolution splits a QP solution vector back into the log-price map
// and the fill-fraction slice, using the same positional layout
// buildQpWithBands produced.
func extractSolution(sol solver.QpSolution) (map[types.AssetId]float64, []float64) {
	assets := types.AllAssets()
	nAssets := len(assets)
	y := make(map[types.AssetId]float64, nAssets)
	for i, a := range assets {
		y[a] = sol.X[i]
	}
	alpha := make([]float64, len(sol.X)-nAssets)
	copy(alpha, sol.X[nAssets:])
	return y, alpha
}
