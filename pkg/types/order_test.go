package types

import "testing"

func validOrder(t *testing.T) PairOrder {
	t.Helper()
	budget, err := FromFloat64(100.0)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	return PairOrder{
		ID:      "o1",
		Trader:  AccountId{},
		Pay:     EUR,
		Receive: USD,
		Budget:  budget,
	}
}

func TestPairOrderValidateAcceptsMinimal(t *testing.T) {
	o := validOrder(t)
	if err := o.Validate(); err != nil {
		t.Fatalf("expected valid order, got %v", err)
	}
}

func TestPairOrderValidateRejectsSamePayReceive(t *testing.T) {
	o := validOrder(t)
	o.Receive = o.Pay
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for pay == receive")
	}
}

func TestPairOrderValidateRejectsNonPositiveBudget(t *testing.T) {
	o := validOrder(t)
	o.Budget = ZeroAmount()
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for zero budget")
	}
}

func TestPairOrderValidateRejectsBadLimitRatio(t *testing.T) {
	o := validOrder(t)
	bad := -1.0
	o.LimitRatio = &bad
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for negative limit ratio")
	}
}

func TestPairOrderValidateRejectsOutOfRangeMinFill(t *testing.T) {
	o := validOrder(t)
	bad := 1.5
	o.MinFillFraction = &bad
	if err := o.Validate(); err == nil {
		t.Fatalf("expected error for min fill fraction > 1")
	}
}

func TestPairOrderMinFillDefaultsToZero(t *testing.T) {
	o := validOrder(t)
	if got := o.MinFill(); got != 0.0 {
		t.Fatalf("expected default min fill 0, got %v", got)
	}
}
