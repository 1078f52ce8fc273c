package accounting

import (
	"context"
	"sync"

	"github.com/convexfx/engine/pkg/types"
)

// MemoryLedger is an in-process reference Accounting implementation:
// per-trader balances keyed by (AccountId, AssetId), with no persistence.
// Intended for tests and local demo runs, mirroring the original's
// convexfx-ledger crate simplified down to balance snapshotting.
//
// Fill (spec.md §4.4) carries no trader reference, only an order id — the
// abstract ApplyFills callback (spec.md §6) is deliberately fills-only, so
// a ledger implementation needs the order->trader mapping from elsewhere.
// RegisterOrder supplies that mapping once an order is accepted into an
// epoch, before its fill (if any) arrives.
type MemoryLedger struct {
	mu       sync.Mutex
	balances map[types.AccountId]map[types.AssetId]types.Amount
	traders  map[types.OrderId]types.AccountId
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		balances: make(map[types.AccountId]map[types.AssetId]types.Amount),
		traders:  make(map[types.OrderId]types.AccountId),
	}
}

// RegisterOrder records which trader an order id belongs to, so a later
// Fill against that order can be credited/debited correctly.
func (l *MemoryLedger) RegisterOrder(order types.PairOrder) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.traders[order.ID] = order.Trader
}

func (l *MemoryLedger) Balance(acc types.AccountId, asset types.AssetId) types.Amount {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.balances[acc]; ok {
		if v, ok := m[asset]; ok {
			return v
		}
	}
	return types.ZeroAmount()
}

func (l *MemoryLedger) Credit(acc types.AccountId, asset types.AssetId, amt types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.balances[acc]
	if !ok {
		m = make(map[types.AssetId]types.Amount)
		l.balances[acc] = m
	}
	cur, ok := m[asset]
	if !ok {
		cur = types.ZeroAmount()
	}
	next, err := cur.CheckedAdd(amt)
	if err != nil {
		return err
	}
	m[asset] = next
	return nil
}

func (l *MemoryLedger) ApplyFills(_ context.Context, _ types.EpochId, fills []types.Fill) error {
	for _, f := range fills {
		if f.IsEmpty() {
			continue
		}
		l.mu.Lock()
		trader, ok := l.traders[f.OrderID]
		l.mu.Unlock()
		if !ok {
			return types.NewError(types.KindInvalidOrder, "fill references an unregistered order")
		}
		if err := l.debit(trader, f.PayAsset, f.PayUnits); err != nil {
			return err
		}
		if err := l.Credit(trader, f.RecvAsset, f.RecvUnits); err != nil {
			return err
		}
	}
	return nil
}

func (l *MemoryLedger) debit(acc types.AccountId, asset types.AssetId, amt types.Amount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.balances[acc]
	if !ok {
		m = make(map[types.AssetId]types.Amount)
		l.balances[acc] = m
	}
	cur, ok := m[asset]
	if !ok {
		cur = types.ZeroAmount()
	}
	next, err := cur.CheckedSub(amt)
	if err != nil {
		return err
	}
	m[asset] = next
	return nil
}

var _ Accounting = (*MemoryLedger)(nil)
