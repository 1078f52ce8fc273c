package types

import (
	"math"
	"testing"
)

func TestAmountFromFloat64RoundTrip(t *testing.T) {
	a, err := FromFloat64(123.456789)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	if got := a.ToFloat64(); got < 123.456788 || got > 123.456790 {
		t.Fatalf("round trip drifted: got %v", got)
	}
}

func TestAmountFromFloat64RejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if _, err := FromFloat64(f); err == nil {
			t.Fatalf("expected error for %v", f)
		}
	}
}

func TestAmountCheckedAddOverflow(t *testing.T) {
	max := FromRaw(amountMax)
	one := FromUnits(1)
	if _, err := max.CheckedAdd(one); err == nil {
		t.Fatalf("expected overflow error")
	}
}

func TestAmountCheckedSubUnderflow(t *testing.T) {
	min := FromRaw(amountMin)
	one := FromUnits(1)
	if _, err := min.CheckedSub(one); err == nil {
		t.Fatalf("expected underflow error")
	}
}

func TestAmountStringDisplaysNineDecimals(t *testing.T) {
	a := FromUnits(5)
	if got := a.String(); got != "5.000000000" {
		t.Fatalf("got %q", got)
	}
}

func TestAmountFromStringRejectsExcessPrecision(t *testing.T) {
	if _, err := FromString("1.0000000001"); err == nil {
		t.Fatalf("expected error for 10 decimal places")
	}
}

func TestAmountIsPositiveNegativeZero(t *testing.T) {
	if !FromUnits(1).IsPositive() {
		t.Fatalf("expected positive")
	}
	if !FromUnits(-1).IsNegative() {
		t.Fatalf("expected negative")
	}
	if !ZeroAmount().IsZero() {
		t.Fatalf("expected zero")
	}
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a, err := FromFloat64(42.5)
	if err != nil {
		t.Fatalf("FromFloat64: %v", err)
	}
	data, err := a.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	var b Amount
	if err := b.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if a.Cmp(b) != 0 {
		t.Fatalf("round trip mismatch: %s vs %s", a.String(), b.String())
	}
}
