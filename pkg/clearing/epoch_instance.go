package clearing

import (
	"github.com/convexfx/engine/pkg/oracle"
	"github.com/convexfx/engine/pkg/risk"
	"github.com/convexfx/engine/pkg/types"
)

// EpochInstance is the frozen input to one clearing run: the pool's
// pre-trade inventory, the accepted order set (already deterministically
// ordered by the order book's Freeze), the oracle's reference snapshot,
// and the risk parameters governing this epoch.
type EpochInstance struct {
	EpochID     types.EpochId
	InventoryQ  map[types.AssetId]float64
	Orders      []types.PairOrder
	RefPrices   oracle.ReferencePrices
	Risk        risk.RiskParams
}

func NewEpochInstance(epochID types.EpochId, inventoryQ map[types.AssetId]float64, orders []types.PairOrder, refPrices oracle.ReferencePrices, riskParams risk.RiskParams) EpochInstance {
	return EpochInstance{
		EpochID:    epochID,
		InventoryQ: inventoryQ,
		Orders:     orders,
		RefPrices:  refPrices,
		Risk:       riskParams,
	}
}

func (e EpochInstance) NumOrders() int { return len(e.Orders) }
func (e EpochInstance) NumAssets() int { return types.NumAssets() }
