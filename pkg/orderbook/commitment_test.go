package orderbook

import (
	"testing"

	"github.com/convexfx/engine/pkg/types"
)

func sampleOrder(t *testing.T, id types.OrderId) types.PairOrder {
	t.Helper()
	budget, err := types.FromFloat64(50.0)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	return types.PairOrder{ID: id, Pay: types.EUR, Receive: types.USD, Budget: budget}
}

func TestComputeCommitmentDeterministic(t *testing.T) {
	o := sampleOrder(t, "o1")
	salt := []byte("fixed-salt")
	h1, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	h2, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected deterministic hash, got %s vs %s", h1, h2)
	}
}

func TestVerifyCommitmentRejectsWrongSalt(t *testing.T) {
	o := sampleOrder(t, "o1")
	h, err := ComputeCommitment(o, []byte("salt-a"))
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	ok, err := VerifyCommitment(o, []byte("salt-b"), h)
	if err != nil {
		t.Fatalf("VerifyCommitment: %v", err)
	}
	if ok {
		t.Fatalf("expected verification to fail with wrong salt")
	}
}

func TestVerifyCommitmentRejectsMutatedOrder(t *testing.T) {
	o := sampleOrder(t, "o1")
	salt := []byte("fixed-salt")
	h, err := ComputeCommitment(o, salt)
	if err != nil {
		t.Fatalf("ComputeCommitment: %v", err)
	}
	mutated := o
	budget, _ := types.FromFloat64(51.0)
	mutated.Budget = budget
	ok, err := VerifyCommitment(mutated, salt, h)
	if err != nil {
		t.Fatalf("VerifyCommitment: %v", err)
	}
	if ok {
		t.Fatalf("expected verification to fail for mutated order")
	}
}

func TestCommitmentHashFromHexValidatesLength(t *testing.T) {
	if _, err := CommitmentHashFromHex("not-hex"); err == nil {
		t.Fatalf("expected error for malformed hex")
	}
}
