package types

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// AmountScale is the fixed-point scale: one unit of Amount.raw equals
// 1/AmountScale of a whole asset unit.
const AmountScale = 1_000_000_000

// Amount is a signed fixed-point quantity scaled by AmountScale, backed by
// an arbitrary-precision integer but bounds-checked against the 128-bit
// signed range the reference implementation uses, so overflow behaves the
// same way here as it does there (a checked error, not silent wraparound
// and not unbounded growth).
type Amount struct {
	raw *big.Int
}

var (
	amountMax = func() *big.Int {
		max := new(big.Int).Lsh(big.NewInt(1), 127)
		return max.Sub(max, big.NewInt(1))
	}()
	amountMin = func() *big.Int {
		min := new(big.Int).Lsh(big.NewInt(1), 127)
		return min.Neg(min)
	}()
)

// ZeroAmount is the additive identity.
func ZeroAmount() Amount { return Amount{raw: big.NewInt(0)} }

// FromRaw builds an Amount directly from its scaled integer representation.
func FromRaw(raw *big.Int) Amount { return Amount{raw: new(big.Int).Set(raw)} }

// Raw returns the scaled integer representation.
func (a Amount) Raw() *big.Int { return new(big.Int).Set(a.raw) }

// FromUnits builds an Amount representing a whole number of units.
func FromUnits(units int64) Amount {
	return Amount{raw: new(big.Int).Mul(big.NewInt(units), big.NewInt(AmountScale))}
}

// FromFloat64 converts a float64 to a fixed-point Amount, rejecting
// non-finite inputs and values that would overflow the 128-bit range.
func FromFloat64(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, NewError(KindInvalidAmount, "non-finite amount")
	}
	scaled := f * AmountScale
	if math.Abs(scaled) > math.MaxInt64 {
		bigScaled, _ := big.NewFloat(scaled).Int(nil)
		if bigScaled.CmpAbs(amountMax) > 0 {
			return Amount{}, NewError(KindInvalidAmount, "amount overflow")
		}
		return Amount{raw: bigScaled}, nil
	}
	return Amount{raw: big.NewInt(int64(math.Round(scaled)))}, nil
}

// ToFloat64 converts back to a float64, which may lose precision for very
// large magnitudes.
func (a Amount) ToFloat64() float64 {
	f := new(big.Float).SetInt(a.raw)
	scale := new(big.Float).SetInt64(AmountScale)
	f.Quo(f, scale)
	out, _ := f.Float64()
	return out
}

// FromString parses a decimal string (e.g. "1.5", "-0.000000001").
func FromString(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	} else if strings.HasPrefix(s, "+") {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]
	if intPart == "" {
		intPart = "0"
	}
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if len(fracPart) > 9 {
		return Amount{}, NewError(KindInvalidAmount, "too many decimal places")
	}
	for len(fracPart) < 9 {
		fracPart += "0"
	}
	digits := intPart + fracPart
	raw, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Amount{}, NewError(KindInvalidAmount, fmt.Sprintf("invalid amount string %q", s))
	}
	if neg {
		raw.Neg(raw)
	}
	if raw.CmpAbs(amountMax) > 0 {
		return Amount{}, NewError(KindInvalidAmount, "amount overflow")
	}
	return Amount{raw: raw}, nil
}

func (a Amount) IsPositive() bool { return a.raw.Sign() > 0 }
func (a Amount) IsNegative() bool { return a.raw.Sign() < 0 }
func (a Amount) IsZero() bool     { return a.raw.Sign() == 0 }

func (a Amount) Abs() Amount {
	return Amount{raw: new(big.Int).Abs(a.raw)}
}

func (a Amount) Neg() Amount {
	return Amount{raw: new(big.Int).Neg(a.raw)}
}

func (a Amount) checkBounds() error {
	if a.raw.Cmp(amountMax) > 0 || a.raw.Cmp(amountMin) < 0 {
		return NewError(KindInvalidAmount, "amount overflow")
	}
	return nil
}

// CheckedAdd returns a+b, or an error if the result overflows the 128-bit
// bound.
func (a Amount) CheckedAdd(b Amount) (Amount, error) {
	out := Amount{raw: new(big.Int).Add(a.raw, b.raw)}
	if err := out.checkBounds(); err != nil {
		return Amount{}, err
	}
	return out, nil
}

// CheckedSub returns a-b, or an error if the result overflows.
func (a Amount) CheckedSub(b Amount) (Amount, error) {
	out := Amount{raw: new(big.Int).Sub(a.raw, b.raw)}
	if err := out.checkBounds(); err != nil {
		return Amount{}, err
	}
	return out, nil
}

// CheckedMulInt multiplies by an integer scalar, checking for overflow.
func (a Amount) CheckedMulInt(n int64) (Amount, error) {
	out := Amount{raw: new(big.Int).Mul(a.raw, big.NewInt(n))}
	if err := out.checkBounds(); err != nil {
		return Amount{}, err
	}
	return out, nil
}

// MulFloat64 multiplies by a float scalar, rejecting non-finite results
// and overflow.
func (a Amount) MulFloat64(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, NewError(KindInvalidAmount, "non-finite multiplier")
	}
	af := new(big.Float).SetInt(a.raw)
	bf := big.NewFloat(f)
	prod := new(big.Float).Mul(af, bf)
	raw, _ := prod.Int(nil)
	out := Amount{raw: raw}
	if err := out.checkBounds(); err != nil {
		return Amount{}, err
	}
	return out, nil
}

func (a Amount) Cmp(b Amount) int { return a.raw.Cmp(b.raw) }

// String renders with nine decimal places, matching the reference format.
func (a Amount) String() string {
	neg := a.raw.Sign() < 0
	abs := new(big.Int).Abs(a.raw)
	scale := big.NewInt(AmountScale)
	intPart := new(big.Int)
	fracPart := new(big.Int)
	intPart.DivMod(abs, scale, fracPart)
	s := fmt.Sprintf("%s.%09d", intPart.String(), fracPart.Int64())
	if neg {
		s = "-" + s
	}
	return s
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
