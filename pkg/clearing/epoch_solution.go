package clearing

import (
	"github.com/convexfx/engine/pkg/types"
)

// ObjectiveTerms breaks the converged objective down by penalty component,
// for diagnostics and the validity predicate's optimality check.
type ObjectiveTerms struct {
	InventoryRisk  float64
	PriceTracking  float64
	FillIncentive  float64
	Total          float64
}

// Diagnostics records how the SCP loop terminated.
type Diagnostics struct {
	Iterations           int
	ConvergenceAchieved  bool
	FinalStepNormY       float64
	FinalStepNormAlpha   float64
	QPStatus             string
}

// EpochSolution is the CORE's output for one epoch: the converged
// log-price vector, the resulting linear prices, the post-trade
// inventory, the per-order fills, the objective breakdown, and solver
// diagnostics.
type EpochSolution struct {
	EpochID         types.EpochId
	YStar           types.LogPrices
	Prices          types.Prices
	QPost           map[types.AssetId]float64
	Fills           []types.Fill
	ObjectiveTerms  ObjectiveTerms
	Diagnostics     Diagnostics
}
