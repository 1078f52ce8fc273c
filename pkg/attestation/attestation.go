package attestation

import (
	"encoding/json"
	"sort"

	"github.com/convexfx/engine/pkg/clearing"
	"github.com/convexfx/engine/pkg/crypto"
	"github.com/convexfx/engine/pkg/types"
)

// canonicalSolutionBytes renders an EpochSolution deterministically for
// signing: fixed field order via a wire struct, fills sorted by order id
// (the solution's own Fills slice is already ordered by the order book's
// freeze order, but re-sorting here makes the attested bytes independent
// of that incidental ordering too).
type fillWire struct {
	OrderID   types.OrderId `json:"order_id"`
	FillFrac  string        `json:"fill_frac"`
	PayAsset  string        `json:"pay_asset"`
	RecvAsset string        `json:"recv_asset"`
	PayUnits  string        `json:"pay_units"`
	RecvUnits string        `json:"recv_units"`
}

type solutionWire struct {
	EpochID types.EpochId      `json:"epoch_id"`
	YStar   map[string]float64 `json:"y_star"`
	Fills   []fillWire         `json:"fills"`
}

func canonicalSolutionBytes(sol clearing.EpochSolution) ([]byte, error) {
	yStar := make(map[string]float64, types.NumAssets())
	for _, a := range types.AllAssets() {
		yStar[a.String()] = sol.YStar.Get(a)
	}
	fills := make([]fillWire, len(sol.Fills))
	for i, f := range sol.Fills {
		fills[i] = fillWire{
			OrderID:   f.OrderID,
			FillFrac:  formatFrac(f.FillFrac),
			PayAsset:  f.PayAsset.String(),
			RecvAsset: f.RecvAsset.String(),
			PayUnits:  f.PayUnits.String(),
			RecvUnits: f.RecvUnits.String(),
		}
	}
	sort.Slice(fills, func(i, j int) bool { return fills[i].OrderID < fills[j].OrderID })
	return json.Marshal(solutionWire{EpochID: sol.EpochID, YStar: yStar, Fills: fills})
}

func formatFrac(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

// Attestor produces and verifies BLS signatures over the canonical
// encoding of a published EpochSolution, implementing the CORE's optional
// attestation hook (spec.md §6): a committee of hosts can each attest a
// published solution, and their signatures aggregate into one compact
// proof of agreement without the CORE itself knowing anything about BLS.
type Attestor struct {
	signer *crypto.BLSSigner
}

func NewAttestor(signer *crypto.BLSSigner) *Attestor {
	return &Attestor{signer: signer}
}

// Attest signs the canonical encoding of (solution, initialInventory).
func (a *Attestor) Attest(sol clearing.EpochSolution, initialInventory map[types.AssetId]float64) (crypto.BLSSignature, error) {
	msg, err := attestedMessage(sol, initialInventory)
	if err != nil {
		return nil, err
	}
	return a.signer.Sign(msg), nil
}

func attestedMessage(sol clearing.EpochSolution, initialInventory map[types.AssetId]float64) ([]byte, error) {
	solBytes, err := canonicalSolutionBytes(sol)
	if err != nil {
		return nil, err
	}
	inv := make(map[string]float64, len(initialInventory))
	for a, v := range initialInventory {
		inv[a.String()] = v
	}
	invBytes, err := json.Marshal(inv)
	if err != nil {
		return nil, err
	}
	return append(solBytes, invBytes...), nil
}

// AggregateAttestations combines a committee's signatures over the same
// solution into a single compact aggregate signature.
func AggregateAttestations(sigs []crypto.BLSSignature) crypto.BLSSignature {
	return crypto.Aggregate(sigs)
}

// VerifyAggregate checks an aggregate signature against the committee's
// public keys, all of whom must have signed the same attested message.
func VerifyAggregate(pubKeys []*crypto.BLSPubKey, sol clearing.EpochSolution, initialInventory map[types.AssetId]float64, aggSig crypto.BLSSignature) (bool, error) {
	msg, err := attestedMessage(sol, initialInventory)
	if err != nil {
		return false, err
	}
	return crypto.VerifyAggregateSameMsg(pubKeys, msg, aggSig), nil
}
