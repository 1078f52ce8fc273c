package orderbook

import (
	"sort"
	"sync"

	"github.com/convexfx/engine/pkg/types"
)

// Phase is the OrderBook's own state machine, exactly as specified: a
// batch collects commitments, then reveals against them, then freezes into
// a deterministic order for clearing. This is distinct from (and narrower
// than) pkg/clearing's EpochLifecycle, which tracks broader host-level
// orchestration state around the same epoch.
type Phase int

const (
	PhaseCollecting Phase = iota
	PhaseRevealing
	PhaseFrozen
)

func (p Phase) String() string {
	switch p {
	case PhaseCollecting:
		return "Collecting"
	case PhaseRevealing:
		return "Revealing"
	case PhaseFrozen:
		return "Frozen"
	default:
		return "Unknown"
	}
}

type commitRecord struct {
	commitment CommitmentHash
	revealed   bool
}

type revealedOrder struct {
	order      types.PairOrder
	commitment CommitmentHash
}

// OrderBook runs the commit-reveal protocol for a single epoch. Accepted
// commitments are keyed by their hash; once revealed, an order is keyed by
// its id. Freeze consumes the book and returns orders sorted by
// (commitment hash, order id) — a deterministic tie-break so independent
// hosts clearing the same revealed set produce the same order.
type OrderBook struct {
	mu       sync.Mutex
	epoch    types.EpochId
	phase    Phase
	commits  map[CommitmentHash]*commitRecord
	revealed map[types.OrderId]revealedOrder
}

func NewOrderBook(epoch types.EpochId) *OrderBook {
	return &OrderBook{
		epoch:    epoch,
		phase:    PhaseCollecting,
		commits:  make(map[CommitmentHash]*commitRecord),
		revealed: make(map[types.OrderId]revealedOrder),
	}
}

func (ob *OrderBook) Epoch() types.EpochId { return ob.epoch }

func (ob *OrderBook) Phase() Phase {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	return ob.phase
}

// Commit records a commitment hash during the collecting phase. Duplicate
// hashes are rejected.
func (ob *OrderBook) Commit(epoch types.EpochId, commitment CommitmentHash) error {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.phase == PhaseFrozen {
		return types.NewError(types.KindInvalidCommitment, "order book is frozen")
	}
	if epoch != ob.epoch {
		return types.NewError(types.KindInvalidCommitment, "commitment targets a different epoch")
	}
	if _, exists := ob.commits[commitment]; exists {
		return types.NewError(types.KindInvalidCommitment, "duplicate commitment")
	}
	ob.commits[commitment] = &commitRecord{commitment: commitment}
	return nil
}

// Reveal validates and records an order against a previously accepted
// commitment. It transitions the book into the revealing phase on first
// call (commit and reveal phases are not mutually exclusive in wall time
// per §4.2, but once any reveal lands, new commitments would be pointless
// since the book freezes at the same rollover — the phase field here is
// informational for hosts, not enforced as exclusive against Commit).
func (ob *OrderBook) Reveal(order types.PairOrder, salt []byte) error {
	if err := order.Validate(); err != nil {
		return err
	}
	ob.mu.Lock()
	defer ob.mu.Unlock()
	if ob.phase == PhaseFrozen {
		return types.NewError(types.KindInvalidCommitment, "order book is frozen")
	}
	hash, err := ComputeCommitment(order, salt)
	if err != nil {
		return err
	}
	rec, ok := ob.commits[hash]
	if !ok {
		return types.NewError(types.KindInvalidCommitment, "no matching commitment")
	}
	if rec.revealed {
		return types.NewError(types.KindInvalidCommitment, "commitment already revealed")
	}
	rec.revealed = true
	ob.revealed[order.ID] = revealedOrder{order: order, commitment: hash}
	ob.phase = PhaseRevealing
	return nil
}

// Freeze consumes the order book and returns the accepted orders in
// deterministic (commitment hash, order id) order. Orders whose
// commitment was never revealed are dropped. The book is unusable after
// Freeze returns.
func (ob *OrderBook) Freeze() []types.PairOrder {
	ob.mu.Lock()
	defer ob.mu.Unlock()
	entries := make([]revealedOrder, 0, len(ob.revealed))
	for _, r := range ob.revealed {
		entries = append(entries, r)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].commitment != entries[j].commitment {
			return entries[i].commitment < entries[j].commitment
		}
		return entries[i].order.ID < entries[j].order.ID
	})
	out := make([]types.PairOrder, len(entries))
	for i, e := range entries {
		out[i] = e.order
	}
	ob.phase = PhaseFrozen
	return out
}
