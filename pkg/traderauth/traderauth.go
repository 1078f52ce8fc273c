package traderauth

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/convexfx/engine/pkg/crypto"
	"github.com/convexfx/engine/pkg/orderbook"
	"github.com/convexfx/engine/pkg/types"
)

// SignedEnvelope wraps a commit or reveal payload with the trader's
// secp256k1 signature over the commitment hash, authenticating who is
// submitting it. The CORE's own commit-reveal hash (pkg/orderbook) stays
// signature-agnostic per spec.md §6; this is a host-layer addition above
// it, reusing go-ethereum signing the way the teacher's cmd/sign-order
// does for other signed payloads.
type SignedEnvelope struct {
	Commitment orderbook.CommitmentHash `json:"commitment"`
	Trader     types.AccountId          `json:"trader"`
	Signature  string                   `json:"signature"`
}

// SignCommitment signs the commitment hash on behalf of the trader whose
// key the signer holds.
func SignCommitment(signer *crypto.Signer, commitment orderbook.CommitmentHash) (SignedEnvelope, error) {
	sig, err := signer.SignMessage([]byte(commitment))
	if err != nil {
		return SignedEnvelope{}, err
	}
	return SignedEnvelope{
		Commitment: commitment,
		Trader:     types.AccountId(signer.Address()),
		Signature:  hex.EncodeToString(sig),
	}, nil
}

// VerifyEnvelope checks that Signature was produced by Trader over
// Commitment.
func VerifyEnvelope(env SignedEnvelope) (bool, error) {
	sig, err := hex.DecodeString(env.Signature)
	if err != nil {
		return false, types.NewError(types.KindInvalidCommitment, "malformed signature hex")
	}
	hash := ethcrypto.Keccak256Hash([]byte(env.Commitment))
	return crypto.VerifySignature(common.Address(env.Trader), hash.Bytes(), sig), nil
}
