package types

import "github.com/ethereum/go-ethereum/common"

// AccountId identifies a trader. It is a defined type over go-ethereum's
// common.Address so it marshals, hex-prints, and compares identically to
// the addresses used elsewhere in this codebase for order authentication.
type AccountId common.Address

func AccountIdFromHex(s string) AccountId {
	return AccountId(common.HexToAddress(s))
}

func (a AccountId) Hex() string { return common.Address(a).Hex() }

func (a AccountId) String() string { return a.Hex() }

func (a AccountId) MarshalJSON() ([]byte, error) {
	return common.Address(a).MarshalJSON()
}

func (a *AccountId) UnmarshalJSON(data []byte) error {
	return (*common.Address)(a).UnmarshalJSON(data)
}
