package orderbook

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/convexfx/engine/pkg/types"
)

// CommitmentHash is the lowercase-hex sha256 digest of an order's canonical
// bytes concatenated with its salt.
type CommitmentHash string

// CommitmentHashFromHex validates and normalizes a hex string into a
// CommitmentHash.
func CommitmentHashFromHex(s string) (CommitmentHash, error) {
	if len(s) != 64 {
		return "", types.NewError(types.KindInvalidCommitment, "commitment hash must be 64 hex characters")
	}
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != 32 {
		return "", types.NewError(types.KindInvalidCommitment, "commitment hash must be valid hex")
	}
	return CommitmentHash(hex.EncodeToString(decoded)), nil
}

// orderWire is the canonical on-the-wire representation of a PairOrder
// used to compute its commitment hash. Field order here is the canonical
// byte order: encoding/json always emits struct fields in declaration
// order, so fixing this struct (rather than hashing the order's native Go
// type, whose field order would be just as stable but less obviously
// intentional) documents the canonical form explicitly. See DESIGN.md
// Open Question resolution #6.
type orderWire struct {
	ID              types.OrderId   `json:"id"`
	Trader          string          `json:"trader"`
	Pay             string          `json:"pay"`
	Receive         string          `json:"receive"`
	Budget          string          `json:"budget"`
	LimitRatio      *float64        `json:"limit_ratio,omitempty"`
	MinFillFraction *float64        `json:"min_fill_fraction,omitempty"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
}

// canonicalOrderBytes renders an order into a deterministic byte sequence:
// fixed struct field order for the order's own fields, and the metadata
// object's keys re-sorted by round-tripping through a Go map (encoding/json
// always emits map keys in sorted order).
func canonicalOrderBytes(o types.PairOrder) ([]byte, error) {
	meta, err := canonicalizeMetadata(o.Metadata)
	if err != nil {
		return nil, types.WrapError(types.KindInvalidOrder, err)
	}
	wire := orderWire{
		ID:              o.ID,
		Trader:          o.Trader.Hex(),
		Pay:             o.Pay.String(),
		Receive:         o.Receive.String(),
		Budget:          o.Budget.String(),
		LimitRatio:      o.LimitRatio,
		MinFillFraction: o.MinFillFraction,
		Metadata:        meta,
	}
	return json.Marshal(wire)
}

func canonicalizeMetadata(raw json.RawMessage) (json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ComputeCommitment hashes the order's canonical bytes together with salt.
func ComputeCommitment(o types.PairOrder, salt []byte) (CommitmentHash, error) {
	canon, err := canonicalOrderBytes(o)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write(canon)
	h.Write(salt)
	return CommitmentHash(hex.EncodeToString(h.Sum(nil))), nil
}

// VerifyCommitment recomputes the commitment and compares it to want.
func VerifyCommitment(o types.PairOrder, salt []byte, want CommitmentHash) (bool, error) {
	got, err := ComputeCommitment(o, salt)
	if err != nil {
		return false, err
	}
	return got == want, nil
}
