package types

// Fill thresholds classify a fill fraction as effectively complete, partial,
// or empty. Kept distinct from the SCP loop's and validity predicate's own
// epsilon families, which serve different purposes at different tolerances.
const (
	FillCompleteThreshold = 0.9999
	FillEmptyThreshold    = 0.0001
)

// Fill records the outcome of clearing a single order: the fraction of its
// budget that was converted, and the exact pay/receive amounts that result.
type Fill struct {
	OrderID   OrderId
	FillFrac  float64
	PayAsset  AssetId
	RecvAsset AssetId
	PayUnits  Amount
	RecvUnits Amount
	FeesPaid  Amount
}

func (f Fill) IsComplete() bool { return f.FillFrac >= FillCompleteThreshold }

func (f Fill) IsPartial() bool {
	return f.FillFrac > FillEmptyThreshold && f.FillFrac < FillCompleteThreshold
}

func (f Fill) IsEmpty() bool { return f.FillFrac <= FillEmptyThreshold }
