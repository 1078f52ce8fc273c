package accounting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/convexfx/engine/pkg/types"
)

// Pebble key schema, following pkg/storage's prefixed-key idiom:
//
//	bal:<address>:<asset>   -> Amount (JSON)
//	trader:<order-id>       -> AccountId (hex)
const (
	prefixBalance = "bal:"
	prefixTrader  = "trader:"
)

func balanceKey(acc types.AccountId, asset types.AssetId) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixBalance, acc.Hex(), asset))
}

func traderKey(orderID types.OrderId) []byte {
	return []byte(fmt.Sprintf("%s%s", prefixTrader, orderID))
}

// PebbleLedger is a pebble-backed Accounting implementation: balances and
// the order->trader mapping both persist across restarts, unlike
// MemoryLedger. Grounded on pkg/storage's persistence idiom
// (JSON-marshaled values, hand-rolled key schema, pebble.Sync writes).
type PebbleLedger struct {
	db *pebble.DB
}

func NewPebbleLedger(path string) (*PebbleLedger, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open accounting store: %w", err)
	}
	return &PebbleLedger{db: db}, nil
}

func (l *PebbleLedger) Close() error { return l.db.Close() }

func (l *PebbleLedger) Balance(acc types.AccountId, asset types.AssetId) (types.Amount, error) {
	data, closer, err := l.db.Get(balanceKey(acc, asset))
	if err == pebble.ErrNotFound {
		return types.ZeroAmount(), nil
	}
	if err != nil {
		return types.Amount{}, fmt.Errorf("get balance: %w", err)
	}
	defer closer.Close()
	var amt types.Amount
	if err := json.Unmarshal(data, &amt); err != nil {
		return types.Amount{}, fmt.Errorf("decode balance: %w", err)
	}
	return amt, nil
}

func (l *PebbleLedger) setBalance(acc types.AccountId, asset types.AssetId, amt types.Amount) error {
	data, err := json.Marshal(amt)
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}
	if err := l.db.Set(balanceKey(acc, asset), data, pebble.Sync); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}

func (l *PebbleLedger) Credit(acc types.AccountId, asset types.AssetId, amt types.Amount) error {
	cur, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	next, err := cur.CheckedAdd(amt)
	if err != nil {
		return err
	}
	return l.setBalance(acc, asset, next)
}

func (l *PebbleLedger) debit(acc types.AccountId, asset types.AssetId, amt types.Amount) error {
	cur, err := l.Balance(acc, asset)
	if err != nil {
		return err
	}
	next, err := cur.CheckedSub(amt)
	if err != nil {
		return err
	}
	return l.setBalance(acc, asset, next)
}

// RegisterOrder persists an order's trader so a later Fill against it can
// be settled.
func (l *PebbleLedger) RegisterOrder(order types.PairOrder) error {
	if err := l.db.Set(traderKey(order.ID), []byte(order.Trader.Hex()), pebble.Sync); err != nil {
		return fmt.Errorf("register order trader: %w", err)
	}
	return nil
}

func (l *PebbleLedger) traderOf(orderID types.OrderId) (types.AccountId, bool, error) {
	data, closer, err := l.db.Get(traderKey(orderID))
	if err == pebble.ErrNotFound {
		return types.AccountId{}, false, nil
	}
	if err != nil {
		return types.AccountId{}, false, fmt.Errorf("get order trader: %w", err)
	}
	defer closer.Close()
	return types.AccountIdFromHex(string(data)), true, nil
}

func (l *PebbleLedger) ApplyFills(_ context.Context, _ types.EpochId, fills []types.Fill) error {
	for _, f := range fills {
		if f.IsEmpty() {
			continue
		}
		trader, ok, err := l.traderOf(f.OrderID)
		if err != nil {
			return err
		}
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

var _ Accounting = (*PebbleLedger)(nil)
