package starknetdb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenTransfer is one row of the append-only transfer log.
type TokenTransfer struct {
	BlockNumber      uint64
	TransactionIndex uint64
	EventIndex       uint64
	Sender           common.Hash
	Recipient        common.Hash
	TokenID          *uint256.Int
}

// TokenOwner is the current owner of a token id.
type TokenOwner struct {
	TokenID *uint256.Int
	Owner   common.Hash
}

func tokenIDBytes(id *uint256.Int) []byte {
	b := id.Bytes32()
	return b[:]
}

func tokenIDFromBytes(b []byte) *uint256.Int {
	return new(uint256.Int).SetBytes(b)
}
