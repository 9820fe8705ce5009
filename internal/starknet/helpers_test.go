package starknet

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	testContract = MustParseFelt("0x030f5a9fbcf76e2171e49435f4d6524411231f257a1b28f517cf52f82279c06b")
	otherAddress = MustParseFelt("0x0123")
	transferKey  = SelectorFromName("Transfer")

	alice = MustParseFelt("0xa11ce")
	bob   = MustParseFelt("0xb0b")
	carol = MustParseFelt("0xca201")
)

func hexWord(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}

func transferEvent(from, to Felt, low, high uint64) jsonEvent {
	return jsonEvent{
		FromAddress: testContract.Hex(),
		Keys:        []string{transferKey.Hex()},
		Data:        []string{from.Hex(), to.Hex(), hexWord(low), hexWord(high)},
	}
}

// blockJSON encodes a block with one receipt per event group.
func blockJSON(t *testing.T, height uint64, receipts ...[]jsonEvent) []byte {
	t.Helper()
	h := height
	raw := jsonBlock{
		BlockNumber: &h,
		BlockHash:   hexWord(0xb10c0000 + height),
		Timestamp:   1_700_000_000 + int64(height),
	}
	for i, events := range receipts {
		txHash := hexWord(0x7800 + uint64(i))
		raw.Transactions = append(raw.Transactions, jsonTransaction{TransactionHash: txHash})
		raw.TransactionReceipts = append(raw.TransactionReceipts, jsonReceipt{
			TransactionIndex: uint64(i),
			TransactionHash:  txHash,
			Events:           events,
		})
	}
	data, err := json.Marshal(raw)
	require.NoError(t, err)
	return data
}

func decodeTestBlock(t *testing.T, data []byte) *Block {
	t.Helper()
	block, err := NewJSONBlockDecoder().Decode(data)
	require.NoError(t, err)
	return block
}
