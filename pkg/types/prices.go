package types

import "math"

// LogPrices holds one natural-log price per asset, indexed by AssetId.
// USD (index 0) is the numeraire: its log-price is pinned to zero and
// writes to it are silently discarded, matching the CORE invariant that
// the numeraire never carries an independent degree of freedom.
type LogPrices struct {
	y [6]float64
}

func NewLogPrices() LogPrices {
	return LogPrices{}
}

func LogPricesFromSlice(y []float64) LogPrices {
	var out LogPrices
	for i := 0; i < len(y) && i < len(out.y); i++ {
		out.y[i] = y[i]
	}
	out.y[USD.Index()] = 0
	return out
}

func (p LogPrices) Get(a AssetId) float64 { return p.y[a.Index()] }

// Set assigns the log-price for a, except for USD which stays pinned to 0.
func (p *LogPrices) Set(a AssetId, v float64) {
	if a == USD {
		return
	}
	p.y[a.Index()] = v
}

func (p LogPrices) Slice() []float64 {
	out := make([]float64, len(p.y))
	copy(out, p.y[:])
	return out
}

// ToPrices exponentiates every log-price into a linear price.
func (p LogPrices) ToPrices() Prices {
	var out Prices
	for i, y := range p.y {
		out.p[i] = math.Exp(y)
	}
	return out
}

// CrossRate returns the price of 'from' denominated in 'to': how many
// units of 'to' one unit of 'from' buys. Because every price shares the
// same log-price vector, cross rates are arbitrage-free (triangle-
// consistent) by construction: rate(a,b) * rate(b,c) == rate(a,c).
func (p LogPrices) CrossRate(from, to AssetId) float64 {
	return math.Exp(p.Get(from) - p.Get(to))
}

// Prices holds one linear price per asset (exp of the corresponding
// log-price), USD pinned to 1.0.
type Prices struct {
	p [6]float64
}

func (p Prices) Get(a AssetId) float64 { return p.p[a.Index()] }
