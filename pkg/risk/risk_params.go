package risk

import (
	"math"

	"github.com/convexfx/engine/pkg/types"
)

// RiskParams parameterizes the inventory-risk and price-tracking penalties
// the SCP loop optimizes against, plus the per-asset inventory bounds and
// the price trust-region band width used by the QP builder.
type RiskParams struct {
	QTarget    map[types.AssetId]float64
	GammaDiag  map[types.AssetId]float64
	WDiag      map[types.AssetId]float64
	Eta        float64
	QMin       map[types.AssetId]float64
	QMax       map[types.AssetId]float64
	PriceBandBps float64
}

// New builds a RiskParams from explicit per-asset maps. Assets absent from
// QMin/QMax are treated as unbounded below/above respectively.
func New(qTarget, gammaDiag, wDiag, qMin, qMax map[types.AssetId]float64, eta, priceBandBps float64) RiskParams {
	return RiskParams{
		QTarget:      qTarget,
		GammaDiag:    gammaDiag,
		WDiag:        wDiag,
		Eta:          eta,
		QMin:         qMin,
		QMax:         qMax,
		PriceBandBps: priceBandBps,
	}
}

func uniform(v float64) map[types.AssetId]float64 {
	m := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		m[a] = v
	}
	return m
}

func preset(gammaDiag, wDiag, eta, bandBps float64) RiskParams {
	return RiskParams{
		QTarget:      uniform(10.0),
		GammaDiag:    uniform(gammaDiag),
		WDiag:        uniform(wDiag),
		Eta:          eta,
		QMin:         uniform(5.0),
		QMax:         uniform(15.0),
		PriceBandBps: bandBps,
	}
}

// UltraLowSlippage uses the narrowest trust-region band of the presets
// (25 bps), with gamma 0.5, a price-tracking weight of 200 and eta 1.0.
func UltraLowSlippage() RiskParams { return preset(0.5, 200.0, 1.0, 25.0) }

// LowSlippage pairs a heavy price-tracking weight (1000, as in DefaultDemo)
// with the smallest fill incentive of the presets (eta 0.5) and a 30 bps
// band.
func LowSlippage() RiskParams { return preset(0.1, 1000.0, 0.5, 30.0) }

// FillFriendly relaxes price tracking substantially and rewards fills
// aggressively.
func FillFriendly() RiskParams { return preset(2.0, 200.0, 2.0, 50.0) }

// DefaultDemo is the preset used by the demo oracle and end-to-end
// scenarios. Its price_band_bps is 50.0, the literal the original
// constructor actually uses (see Open Question resolution #7 in
// DESIGN.md — the original's own unit test asserts 20.0, an inconsistency
// in the reference test suite that is not reproduced here).
func DefaultDemo() RiskParams { return preset(0.1, 1000.0, 1.0, 50.0) }

func (r RiskParams) Target(a types.AssetId) float64 {
	if v, ok := r.QTarget[a]; ok {
		return v
	}
	return 0.0
}

func (r RiskParams) MinBound(a types.AssetId) float64 {
	if v, ok := r.QMin[a]; ok {
		return v
	}
	return math.Inf(-1)
}

func (r RiskParams) MaxBound(a types.AssetId) float64 {
	if v, ok := r.QMax[a]; ok {
		return v
	}
	return math.Inf(1)
}

func (r RiskParams) IsWithinBounds(a types.AssetId, q float64) bool {
	return q >= r.MinBound(a) && q <= r.MaxBound(a)
}

// InventoryPenalty computes 0.5 * (q-q*)^T Gamma (q-q*), Gamma diagonal.
func (r RiskParams) InventoryPenalty(q map[types.AssetId]float64) float64 {
	total := 0.0
	for _, a := range types.AllAssets() {
		d := q[a] - r.Target(a)
		total += 0.5 * r.gamma(a) * d * d
	}
	return total
}

// TrackingPenalty computes 0.5 * (y-y_ref)^T W (y-y_ref), W diagonal.
func (r RiskParams) TrackingPenalty(y, yRef map[types.AssetId]float64) float64 {
	total := 0.0
	for _, a := range types.AllAssets() {
		d := y[a] - yRef[a]
		total += 0.5 * r.wDiagOf(a) * d * d
	}
	return total
}

func (r RiskParams) gamma(a types.AssetId) float64 {
	if v, ok := r.GammaDiag[a]; ok {
		return v
	}
	return 0.0
}

func (r RiskParams) wDiagOf(a types.AssetId) float64 {
	if v, ok := r.WDiag[a]; ok {
		return v
	}
	return 0.0
}
