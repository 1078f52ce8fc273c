package risk

import (
	"math"
	"testing"

	"github.com/convexfx/engine/pkg/types"
)

func TestPresetsShareUniformTargetAndBounds(t *testing.T) {
	presets := []RiskParams{UltraLowSlippage(), LowSlippage(), FillFriendly(), DefaultDemo()}
	for i, r := range presets {
		for _, a := range types.AllAssets() {
			if got := r.Target(a); got != 10.0 {
				t.Fatalf("preset %d: expected QTarget 10.0 for %s, got %v", i, a, got)
			}
			if got := r.MinBound(a); got != 5.0 {
				t.Fatalf("preset %d: expected QMin 5.0 for %s, got %v", i, a, got)
			}
			if got := r.MaxBound(a); got != 15.0 {
				t.Fatalf("preset %d: expected QMax 15.0 for %s, got %v", i, a, got)
			}
		}
	}
}

func TestDefaultDemoPriceBandIsFiftyBps(t *testing.T) {
	if got := DefaultDemo().PriceBandBps; got != 50.0 {
		t.Fatalf("expected DefaultDemo price band 50.0 bps, got %v", got)
	}
}

func TestIsWithinBoundsRespectsMinMax(t *testing.T) {
	r := DefaultDemo()
	if !r.IsWithinBounds(types.EUR, 10.0) {
		t.Fatalf("expected 10.0 within [5,15]")
	}
	if r.IsWithinBounds(types.EUR, 4.9) {
		t.Fatalf("expected 4.9 to be below QMin")
	}
	if r.IsWithinBounds(types.EUR, 15.1) {
		t.Fatalf("expected 15.1 to be above QMax")
	}
}

func TestInventoryPenaltyZeroAtTarget(t *testing.T) {
	r := DefaultDemo()
	q := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		q[a] = r.Target(a)
	}
	if got := r.InventoryPenalty(q); got != 0.0 {
		t.Fatalf("expected zero penalty at target, got %v", got)
	}
}

func TestInventoryPenaltyPositiveAwayFromTarget(t *testing.T) {
	r := DefaultDemo()
	q := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		q[a] = r.Target(a) + 1.0
	}
	if got := r.InventoryPenalty(q); got <= 0.0 {
		t.Fatalf("expected positive penalty away from target, got %v", got)
	}
}

func TestTrackingPenaltyZeroWhenPricesMatchReference(t *testing.T) {
	r := DefaultDemo()
	y := make(map[types.AssetId]float64, types.NumAssets())
	yRef := make(map[types.AssetId]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		y[a] = 0.2
		yRef[a] = 0.2
	}
	if got := r.TrackingPenalty(y, yRef); got != 0.0 {
		t.Fatalf("expected zero tracking penalty when prices match reference, got %v", got)
	}
}

func TestBoundsUnboundedForAssetOutsideMap(t *testing.T) {
	r := RiskParams{QMin: map[types.AssetId]float64{}, QMax: map[types.AssetId]float64{}}
	if got := r.MinBound(types.EUR); !math.IsInf(got, -1) {
		t.Fatalf("expected -Inf for asset absent from QMin, got %v", got)
	}
	if got := r.MaxBound(types.EUR); !math.IsInf(got, 1) {
		t.Fatalf("expected +Inf for asset absent from QMax, got %v", got)
	}
}
