package clearing

import (
	"context"
	"math"
	"testing"

	"github.com/convexfx/engine/pkg/oracle"
	"github.com/convexfx/engine/pkg/risk"
	"github.com/convexfx/engine/pkg/solver"
	"github.com/convexfx/engine/pkg/types"
)

func referenceSnapshot() oracle.ReferencePrices {
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

// TestClearEpochEmptyOrdersNoFills mirrors the reference implementation's
// empty-order-set scenario: with nothing to clear, the loop should converge
// immediately with zero fills and prices within the tolerance band of the
// oracle's reference snapshot.
func TestClearEpochEmptyOrdersNoFills(t *testing.T) {
	inst := NewEpochInstance(1, uniformInventory(10.0), nil, referenceSnapshot(), risk.DefaultDemo())
	scp := NewScpClearing(solver.NewSimpleQpSolver(), DefaultScpParams())

	sol, err := scp.ClearEpoch(context.Background(), inst)
	if err != nil {
		t.Fatalf("ClearEpoch: %v", err)
	}
	if len(sol.Fills) != 0 {
		t.Fatalf("expected zero fills, got %d", len(sol.Fills))
	}
	for _, a := range types.AllAssets() {
		y := sol.YStar.Get(a)
		if math.Abs(y-0.0) > 0.01 {
			t.Fatalf("expected %s price within 0.01 of reference, got y=%v", a, y)
		}
	}
}

func TestClearEpochPreservesInventoryWhenNoFills(t *testing.T) {
	inv := uniformInventory(10.0)
	inst := NewEpochInstance(1, inv, nil, referenceSnapshot(), risk.DefaultDemo())
	scp := NewScpClearing(solver.NewSimpleQpSolver(), DefaultScpParams())

	sol, err := scp.ClearEpoch(context.Background(), inst)
	if err != nil {
		t.Fatalf("ClearEpoch: %v", err)
	}
	for _, a := range types.AllAssets() {
		if sol.QPost[a] != inv[a] {
			t.Fatalf("expected untouched inventory for %s: want %v got %v", a, inv[a], sol.QPost[a])
		}
	}
}

func TestClearEpochWithOrderProducesFill(t *testing.T) {
	budget, err := types.FromFloat64(1.0)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	order := types.PairOrder{ID: "o1", Pay: types.EUR, Receive: types.USD, Budget: budget}

	inst := NewEpochInstance(1, uniformInventory(10.0), []types.PairOrder{order}, referenceSnapshot(), risk.FillFriendly())
	scp := NewScpClearing(solver.NewSimpleQpSolver(), DefaultScpParams())

	sol, err := scp.ClearEpoch(context.Background(), inst)
	if err != nil {
		t.Fatalf("ClearEpoch: %v", err)
	}
	if len(sol.Fills) != 1 {
		t.Fatalf("expected one fill entry, got %d", len(sol.Fills))
	}
	if sol.Fills[0].OrderID != "o1" {
		t.Fatalf("unexpected fill order id: %s", sol.Fills[0].OrderID)
	}
}

func TestEpochLifecycleAdvancesThroughCompleted(t *testing.T) {
	l := NewEpochLifecycle()
	states := []LifecycleState{
		LifecycleReveal, LifecycleSolving, LifecyclePublished, LifecycleSettling, LifecycleCompleted,
	}
	for _, want := range states {
		l.Advance()
		if l.State() != want {
			t.Fatalf("expected state %v, got %v", want, l.State())
		}
	}
	l.Advance()
	if l.State() != LifecycleCompleted {
		t.Fatalf("expected Advance past Completed to be a no-op, got %v", l.State())
	}
}
