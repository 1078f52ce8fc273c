package oracle

import (
	"context"
	"math"
	"sync"

	"github.com/convexfx/engine/pkg/types"
)

// demoRates is the original's six-asset demo FX book, USD-denominated.
var demoRates = map[types.AssetId]float64{
	types.USD: 1.00,
	types.EUR: 1.10,
	types.JPY: 0.01,
	types.GBP: 1.25,
	types.CHF: 1.08,
	types.AUD: 0.75,
}

// MockOracle serves a fixed demo rate table as a constant reference
// snapshot, for local development and the end-to-end scenarios.
type MockOracle struct {
	mu          sync.RWMutex
	rates       map[types.AssetId]float64
	bandBps     float64
	timestampMs int64
}

func NewMockOracle() *MockOracle {
	rates := make(map[types.AssetId]float64, len(demoRates))
	for a, v := range demoRates {
		rates[a] = v
	}
	return &MockOracle{rates: rates, bandBps: 20.0}
}

// SetRate overrides the demo rate for one asset, for tests that need to
// move the market.
func (m *MockOracle) SetRate(a types.AssetId, usdRate float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[a] = usdRate
}

func (m *MockOracle) SetTimestampMs(ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.timestampMs = ts
}

func (m *MockOracle) ReferencePrices(_ context.Context, _ types.EpochId) (ReferencePrices, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	yRef := make(map[types.AssetId]float64, len(m.rates))
	for a, rate := range m.rates {
		yRef[a] = math.Log(rate)
	}
	yRef[types.USD] = 0
	return New(yRef, m.bandBps, m.timestampMs, []string{"mock"}), nil
}

var _ Oracle = (*MockOracle)(nil)
