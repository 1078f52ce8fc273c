package validity

import (
	"testing"

	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/oracle"
	"github.com/convexfx/engine/pkg/types"
)

func zeroLogPrices() types.LogPrices {
	lp := types.NewLogPrices()
	for _, a := range types.AllAssets() {
		if a == types.USD {
			continue
		}
		lp.Set(a, 0.0)
	}
	return lp
}

func zeroRefPrices() oracle.ReferencePrices {
	yRef := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		yRef[a] = 0.0
	}
	return oracle.New(yRef, 20.0, 0, []string{"test"})
}

func uniformInventory(v float64) map[types.AssetId]float64 {
	inv := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		inv[a] = v
	}
	return inv
}

func validSolution() clearing.EpochSolution {
	lp := zeroLogPrices()
	return clearing.EpochSolution{
		EpochID: 1,
		YStar:   lp,
		Prices:  lp.ToPrices(),
		QPost:   uniformInventory(10.0),
		Fills:   nil,
		ObjectiveTerms: clearing.ObjectiveTerms{
			InventoryRisk: 0.0,
			PriceTracking: 0.0,
			FillIncentive: 0.0,
			Total:         0.0,
		},
		Diagnostics: clearing.Diagnostics{
			Iterations:          1,
			ConvergenceAchieved: true,
			FinalStepNormY:      0.0,
			FinalStepNormAlpha:  0.0,
			QPStatus:            "Optimal",
		},
	}
}

func validContext() Context {
	return Context{
		OraclePrices:     zeroRefPrices(),
		InitialInventory: uniformInventory(10.0),
	}
}

func TestPredicateAcceptsWellFormedSolution(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	if err := p.Validate(validContext(), validSolution()); err != nil {
		t.Fatalf("expected valid solution to pass, got %v", err)
	}
}

func TestPredicateRejectsNonConvergedSolution(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	sol := validSolution()
	sol.Diagnostics.ConvergenceAchieved = false
	if err := p.Validate(validContext(), sol); err == nil {
		t.Fatalf("expected non-convergence to be rejected")
	}
}

func TestPredicateRejectsPricesInconsistentWithYStar(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	sol := validSolution()
	// YStar says every asset's log-price is 0 (linear price 1.0), but
	// Prices is stamped from an unrelated log-price vector where EUR is
	// far from exp(0). ctx.OraclePrices stays at the matching reference
	// throughout, showing this check is independent of the oracle.
	stale := zeroLogPrices()
	stale.Set(types.EUR, 5.0)
	sol.Prices = stale.ToPrices()
	if err := p.Validate(validContext(), sol); err == nil {
		t.Fatalf("expected Prices inconsistent with exp(YStar) to be rejected")
	}
}

func TestPredicateRejectsFillFractionOutOfRange(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	sol := validSolution()
	payAmt, _ := types.FromFloat64(1.0)
	recvAmt, _ := types.FromFloat64(1.0)
	sol.Fills = []types.Fill{{
		OrderID: "o1", FillFrac: 1.5, PayAsset: types.EUR, RecvAsset: types.USD,
		PayUnits: payAmt, RecvUnits: recvAmt, FeesPaid: types.ZeroAmount(),
	}}
	if err := p.Validate(validContext(), sol); err == nil {
		t.Fatalf("expected out-of-range fill fraction to be rejected")
	}
}

func TestPredicateRejectsInventoryConservationViolation(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	sol := validSolution()
	payAmt, _ := types.FromFloat64(1.0)
	recvAmt, _ := types.FromFloat64(1.0)
	sol.Fills = []types.Fill{{
		OrderID: "o1", FillFrac: 1.0, PayAsset: types.EUR, RecvAsset: types.USD,
		PayUnits: payAmt, RecvUnits: recvAmt, FeesPaid: types.ZeroAmount(),
	}}
	// QPost left unchanged from the no-fill baseline, so it no longer
	// matches initial inventory plus the fill's net flow.
	if err := p.Validate(validContext(), sol); err == nil {
		t.Fatalf("expected inventory conservation violation to be rejected")
	}
}

func TestPredicateRejectsObjectiveTotalMismatch(t *testing.T) {
	p := NewPredicate(DefaultTolerances())
	sol := validSolution()
	sol.ObjectiveTerms.Total = 99.0
	if err := p.Validate(validContext(), sol); err == nil {
		t.Fatalf("expected objective total mismatch to be rejected")
	}
}
