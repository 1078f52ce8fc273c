package validity

import (
	"math"

	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/oracle"
	"github.com/convexfx/engine/pkg/types"
)

// minFillAmount is the predicate's own fill-feasibility floor, distinct
// from clearing.fillZeroEpsilon and types.FillCompleteThreshold/
// FillEmptyThreshold — see DESIGN.md Open Question resolution #3.
const minFillAmount = 1e-8

// Tolerances parameterizes the validity predicate's own post-hoc checks.
// Deliberately distinct from clearing.ScpParams, which governs the SCP
// loop's convergence criteria instead — see DESIGN.md Open Question
// resolution #2.
type Tolerances struct {
	ToleranceY         float64
	ToleranceAlpha     float64
	MaxPriceDeviation  float64
	InventoryTolerance float64
}

func DefaultTolerances() Tolerances {
	return Tolerances{
		ToleranceY:         1e-4,
		ToleranceAlpha:     1e-5,
		MaxPriceDeviation:  0.01,
		InventoryTolerance: 1e-4,
	}
}

// Context supplies the external facts the predicate checks a solution
// against: the oracle snapshot it was cleared with, and the pool's
// pre-trade inventory.
type Context struct {
	OraclePrices      oracle.ReferencePrices
	InitialInventory  map[types.AssetId]float64
}

// Predicate checks an EpochSolution's structural post-conditions:
// convergence, price consistency (including the numeraire pin and
// triangle/no-arbitrage consistency implied by a single log-price
// vector), fill feasibility, inventory conservation, and objective
// well-formedness. It validates in this fixed order, returning the first
// failure.
type Predicate struct {
	Tolerances Tolerances
}

func NewPredicate(tol Tolerances) Predicate { return Predicate{Tolerances: tol} }

func (p Predicate) Validate(ctx Context, sol clearing.EpochSolution) error {
	if err := p.validateConvergence(sol); err != nil {
		return err
	}
	if err := p.validatePriceConsistency(ctx, sol); err != nil {
		return err
	}
	if err := p.validateFillFeasibility(sol); err != nil {
		return err
	}
	if err := p.validateInventoryConservation(ctx, sol); err != nil {
		return err
	}
	if err := p.validateObjectiveOptimality(sol); err != nil {
		return err
	}
	return nil
}

func (p Predicate) validateConvergence(sol clearing.EpochSolution) error {
	if !sol.Diagnostics.ConvergenceAchieved {
		return types.ClearingFailed("SCP loop did not converge")
	}
	if sol.Diagnostics.FinalStepNormY >= p.Tolerances.ToleranceY {
		return types.ClearingFailed("final price step norm exceeds predicate tolerance")
	}
	if sol.Diagnostics.FinalStepNormAlpha >= p.Tolerances.ToleranceAlpha {
		return types.ClearingFailed("final fill step norm exceeds predicate tolerance")
	}
	return nil
}

// validatePriceConsistency checks the numeraire pin, that every price is
// positive and finite, and that the solution's own linear Prices field is
// self-consistent with its YStar log-prices (expected = exp(y) compared
// against the solution's own recorded price, not the oracle reference --
// the oracle snapshot the SCP loop was seeded with is irrelevant to this
// check). Because every cross-rate derives from the same log-price vector,
// triangle consistency (no-arbitrage) holds by construction once every
// individual price passes this check -- there is no separate three-asset
// check to perform.
func (p Predicate) validatePriceConsistency(ctx Context, sol clearing.EpochSolution) error {
	usdY := sol.YStar.Get(types.USD)
	if math.Abs(usdY) > p.Tolerances.ToleranceY {
		return types.ClearingFailed("numeraire log-price drifted from zero")
	}

	for _, a := range types.AllAssets() {
		y := sol.YStar.Get(a)
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return types.ClearingFailed("non-finite price in solution")
		}
		expected := math.Exp(y)
		if expected <= 0 || math.IsNaN(expected) || math.IsInf(expected, 0) {
			return types.ClearingFailed("non-positive or non-finite price in solution")
		}
		actual := sol.Prices.Get(a)
		relErr := math.Abs(expected-actual) / actual
		if relErr > p.Tolerances.MaxPriceDeviation {
			return types.ClearingFailed("solution prices inconsistent with its own log-price vector")
		}
	}
	return nil
}

func (p Predicate) validateFillFeasibility(sol clearing.EpochSolution) error {
	for _, f := range sol.Fills {
		if f.FillFrac < 0.0 || f.FillFrac > 1.0 {
			return types.ClearingFailed("fill fraction out of [0,1]")
		}
		if f.FillFrac > minFillAmount {
			payF := f.PayUnits.ToFloat64()
			recvF := f.RecvUnits.ToFloat64()
			if payF <= minFillAmount || recvF <= minFillAmount {
				return types.ClearingFailed("nonzero fill fraction with near-zero pay/recv units")
			}
			if math.IsNaN(payF) || math.IsInf(payF, 0) || math.IsNaN(recvF) || math.IsInf(recvF, 0) {
				return types.ClearingFailed("non-finite fill units")
			}
		}
	}
	return nil
}

// validateInventoryConservation recomputes the net flow each asset should
// have experienced from the fills and checks it against the solution's
// q_post, using the same "pool gains pay, loses recv" convention as the
// SCP loop's own post-loop fill computation (DESIGN.md Open Question
// resolution #4).
func (p Predicate) validateInventoryConservation(ctx Context, sol clearing.EpochSolution) error {
	netFlow := make(map[types.AssetId]float64, types.NumAssets())
	for _, f := range sol.Fills {
		netFlow[f.PayAsset] += f.PayUnits.ToFloat64()
		netFlow[f.RecvAsset] -= f.RecvUnits.ToFloat64()
	}

	for _, a := range types.AllAssets() {
		expected := ctx.InitialInventory[a] + netFlow[a]
		actual := sol.QPost[a]
		if math.Abs(actual-expected) > p.Tolerances.InventoryTolerance {
			return types.ClearingFailed("inventory conservation violated")
		}
	}
	return nil
}

func (p Predicate) validateObjectiveOptimality(sol clearing.EpochSolution) error {
	t := sol.ObjectiveTerms
	if t.InventoryRisk < -p.Tolerances.InventoryTolerance {
		return types.ClearingFailed("negative inventory risk term")
	}
	if t.PriceTracking < -p.Tolerances.ToleranceY {
		return types.ClearingFailed("negative price tracking term")
	}
	if math.IsNaN(t.Total) || math.IsInf(t.Total, 0) {
		return types.ClearingFailed("non-finite objective total")
	}
	sum := t.InventoryRisk + t.PriceTracking + t.FillIncentive
	if math.Abs(t.Total-sum) > p.Tolerances.ToleranceY {
		return types.ClearingFailed("objective total inconsistent with its components")
	}
	return nil
}
