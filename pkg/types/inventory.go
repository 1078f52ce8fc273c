package types

// Inventory tracks the pool's holdings of each asset. Assets absent from
// the map are treated as zero; Set removes an asset's entry entirely when
// the new value is zero, keeping the map's key set minimal.
type Inventory struct {
	units map[AssetId]Amount
}

func NewInventory() Inventory {
	return Inventory{units: make(map[AssetId]Amount)}
}

func InventoryFromMap(m map[AssetId]Amount) Inventory {
	out := NewInventory()
	for a, v := range m {
		out.Set(a, v)
	}
	return out
}

func (inv Inventory) Get(a AssetId) Amount {
	if v, ok := inv.units[a]; ok {
		return v
	}
	return ZeroAmount()
}

func (inv Inventory) Set(a AssetId, v Amount) {
	if v.IsZero() {
		delete(inv.units, a)
		return
	}
	inv.units[a] = v
}

func (inv Inventory) Add(a AssetId, delta Amount) error {
	next, err := inv.Get(a).CheckedAdd(delta)
	if err != nil {
		return err
	}
	inv.Set(a, next)
	return nil
}

func (inv Inventory) Sub(a AssetId, delta Amount) error {
	next, err := inv.Get(a).CheckedSub(delta)
	if err != nil {
		return err
	}
	inv.Set(a, next)
	return nil
}

func (inv Inventory) Assets() []AssetId {
	out := make([]AssetId, 0, len(inv.units))
	for a := range inv.units {
		out = append(out, a)
	}
	return out
}

// HasSufficient reports whether the pool holds at least amt of asset a.
func (inv Inventory) HasSufficient(a AssetId, amt Amount) bool {
	return inv.Get(a).Cmp(amt) >= 0
}

// ToFloatMap renders the inventory as a dense float64 vector indexed by
// asset index, for consumption by the QP builder.
func (inv Inventory) ToFloatMap() map[AssetId]float64 {
	out := make(map[AssetId]float64, len(inv.units))
	for _, a := range AllAssets() {
		out[a] = inv.Get(a).ToFloat64()
	}
	return out
}

// InventoryFromFloatMap builds an Inventory from a dense float64 vector,
// e.g. the q_post produced by the SCP loop.
func InventoryFromFloatMap(m map[AssetId]float64) (Inventory, error) {
	out := NewInventory()
	for a, f := range m {
		amt, err := FromFloat64(f)
		if err != nil {
			return Inventory{}, err
		}
		out.Set(a, amt)
	}
	return out, nil
}

func (inv Inventory) Clone() Inventory {
	out := NewInventory()
	for a, v := range inv.units {
		out.units[a] = v
	}
	return out
}
