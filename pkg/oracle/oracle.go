package oracle

import (
	"context"

	"github.com/convexfx/engine/pkg/types"
)

// ReferencePrices is a snapshot of external reference log-prices for one
// epoch, plus the trust-region band derived from it and basic provenance.
type ReferencePrices struct {
	YRef        map[types.AssetId]float64
	BandLowBps  float64
	BandHighBps float64
	TimestampMs int64
	Providers   []string
}

// New builds a ReferencePrices snapshot, deriving per-asset low/high bands
// from a single symmetric bps width.
func New(yRef map[types.AssetId]float64, bandBps float64, timestampMs int64, providers []string) ReferencePrices {
	return ReferencePrices{
		YRef:        yRef,
		BandLowBps:  bandBps,
		BandHighBps: bandBps,
		TimestampMs: timestampMs,
		Providers:   providers,
	}
}

func (r ReferencePrices) Get(a types.AssetId) float64 {
	if v, ok := r.YRef[a]; ok {
		return v
	}
	return 0.0
}

func (r ReferencePrices) Low(a types.AssetId) float64 {
	return r.Get(a) - r.BandLowBps/10000.0
}

func (r ReferencePrices) High(a types.AssetId) float64 {
	return r.Get(a) + r.BandHighBps/10000.0
}

// IsStale reports whether the snapshot is older than maxAgeMs as of
// currentTimeMs.
func (r ReferencePrices) IsStale(currentTimeMs, maxAgeMs int64) bool {
	age := currentTimeMs - r.TimestampMs
	if age < 0 {
		age = 0
	}
	return age > maxAgeMs
}

// Oracle supplies a reference price snapshot for a given epoch. Acquisition
// (REST polling, a price feed subscription, an on-chain read) is a host
// concern; the CORE only consumes the resulting snapshot.
type Oracle interface {
	ReferencePrices(ctx context.Context, epoch types.EpochId) (ReferencePrices, error)
}
