package orderbook

import (
	"testing"

	"github.com/convexfx/engine/pkg/types"
)

func orderWithID(t *testing.T, id types.OrderId) types.PairOrder {
	t.Helper()
	budget, err := types.FromFloat64(10.0)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	return types.PairOrder{ID: id, Pay: types.EUR, Receive: types.USD, Budget: budget}
}

func commitAndReveal(t *testing.T, ob *OrderBook, epoch types.EpochId, id types.OrderId, salt []byte) types.PairOrder {
	t.Helper()
	o := orderWithID(t, id)
	h, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(epoch, h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := ob.Reveal(o, salt); err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	return o
}

func TestOrderBookCommitRevealFreezeHappyPath(t *testing.T) {
	ob := NewOrderBook(1)
	commitAndReveal(t, ob, 1, "o1", []byte("salt1"))
	frozen := ob.Freeze()
	if len(frozen) != 1 || frozen[0].ID != "o1" {
		t.Fatalf("expected one frozen order o1, got %v", frozen)
	}
	if ob.Phase() != PhaseFrozen {
		t.Fatalf("expected frozen phase, got %v", ob.Phase())
	}
}

func TestOrderBookRejectsDuplicateCommitment(t *testing.T) {
	ob := NewOrderBook(1)
	o := orderWithID(t, "o1")
	salt := []byte("salt1")
	h, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(1, h); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := ob.Commit(1, h); err == nil {
		t.Fatalf("expected duplicate commitment to be rejected")
	}
}

func TestOrderBookRejectsCommitmentForWrongEpoch(t *testing.T) {
	ob := NewOrderBook(1)
	o := orderWithID(t, "o1")
	h, err := ComputeCommitment(o, []byte("s"))
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(2, h); err == nil {
		t.Fatalf("expected epoch mismatch to be rejected")
	}
}

func TestOrderBookRejectsRevealWithoutCommitment(t *testing.T) {
	ob := NewOrderBook(1)
	o := orderWithID(t, "o1")
	if err := ob.Reveal(o, []byte("never-committed")); err == nil {
		t.Fatalf("expected reveal without matching commitment to be rejected")
	}
}

func TestOrderBookRejectsDoubleReveal(t *testing.T) {
	ob := NewOrderBook(1)
	o := orderWithID(t, "o1")
	salt := []byte("salt1")
	h, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(1, h); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := ob.Reveal(o, salt); err != nil {
		t.Fatalf("first reveal: %v", err)
	}
	if err := ob.Reveal(o, salt); err == nil {
		t.Fatalf("expected double reveal to be rejected")
	}
}

func TestOrderBookFrozenRejectsFurtherCommitsAndReveals(t *testing.T) {
	ob := NewOrderBook(1)
	commitAndReveal(t, ob, 1, "o1", []byte("salt1"))
	ob.Freeze()

	late := orderWithID(t, "o2")
	h, err := ComputeCommitment(late, []byte("salt2"))
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(1, h); err == nil {
		t.Fatalf("expected commit after freeze to be rejected")
	}
	if err := ob.Reveal(late, []byte("salt2")); err == nil {
		t.Fatalf("expected reveal after freeze to be rejected")
	}
}

func TestOrderBookFreezeDropsUnrevealedCommitments(t *testing.T) {
	ob := NewOrderBook(1)
	commitAndReveal(t, ob, 1, "o1", []byte("salt1"))

	unrevealed := orderWithID(t, "o2")
	h, err := ComputeCommitment(unrevealed, []byte("salt2"))
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if err := ob.Commit(1, h); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	frozen := ob.Freeze()
	if len(frozen) != 1 || frozen[0].ID != "o1" {
		t.Fatalf("expected only revealed order to survive freeze, got %v", frozen)
	}
}

func TestOrderBookFreezeOrdersDeterministicallyByCommitmentThenID(t *testing.T) {
	ob := NewOrderBook(1)
	commitAndReveal(t, ob, 1, "zeta", []byte("s-zeta"))
	commitAndReveal(t, ob, 1, "alpha", []byte("s-alpha"))
	commitAndReveal(t, ob, 1, "mid", []byte("s-mid"))

	frozen := ob.Freeze()
	if len(frozen) != 3 {
		t.Fatalf("expected 3 frozen orders, got %d", len(frozen))
	}

	hashOf := func(id types.OrderId, salt []byte) CommitmentHash {
		o := orderWithID(t, id)
		h, err := ComputeCommitment(o, salt)
		if err != nil {
			t.Fatalf("ComputeCommitment: %v", err)
		}
		return h
	}
	hashes := map[types.OrderId]CommitmentHash{
		"zeta":  hashOf("zeta", []byte("s-zeta")),
		"alpha": hashOf("alpha", []byte("s-alpha")),
		"mid":   hashOf("mid", []byte("s-mid")),
	}
	for i := 1; i < len(frozen); i++ {
		prev := hashes[frozen[i-1].ID]
		cur := hashes[frozen[i].ID]
		if prev > cur {
			t.Fatalf("frozen order not sorted by commitment hash: %s (%s) before %s (%s)",
				frozen[i-1].ID, prev, frozen[i].ID, cur)
		}
	}
}
