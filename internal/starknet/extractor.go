package starknet

import (
	"fmt"

	"github.com/holiman/uint256"
	"go.uber.org/zap"
)

// transfer event data layout: sender, recipient, token id low word, token id high word
const transferDataWords = 4

// TransferEvent is a normalized transfer, alive only while its block is being processed.
type TransferEvent struct {
	Sender           Felt
	Recipient        Felt
	TokenID          *uint256.Int
	TransactionIndex uint64
	EventIndex       uint64
}

type TransferExtractor struct {
	contracts map[Felt]struct{}
	selector  Felt
}

func NewTransferExtractor(contracts []Felt, selector Felt) *TransferExtractor {
	allowed := make(map[Felt]struct{}, len(contracts))
	for _, c := range contracts {
		allowed[c] = struct{}{}
	}
	return &TransferExtractor{
		contracts: allowed,
		selector:  selector,
	}
}

func (e *TransferExtractor) Matches(ev Event) bool {
	if _, ok := e.contracts[ev.FromAddress]; !ok {
		return false
	}
	return len(ev.Keys) > 0 && ev.Keys[0] == e.selector
}

// Extract returns the block's matching transfers in receipt order, then event order.
// One bad matching event fails the whole block.
func (e *TransferExtractor) Extract(block *Block) ([]TransferEvent, error) {
	var transfers []TransferEvent
	for _, receipt := range block.Receipts {
		for i, ev := range receipt.Events {
			if !e.Matches(ev) {
				continue
			}
			transfer, err := decodeTransfer(ev)
			if err != nil {
				return nil, &MalformedBlockError{
					Height: block.Height,
					Err:    fmt.Errorf("transaction %d event %d: %w", receipt.TransactionIndex, i, err),
				}
			}
			transfer.TransactionIndex = receipt.TransactionIndex
			transfer.EventIndex = uint64(i)

			if ce := zap.L().Check(zap.DebugLevel, "Transfer"); ce != nil {
				ce.Write(
					zap.Uint64("block", block.Height),
					zap.String("tx", block.TransactionHash(receipt).Hex()),
					zap.String("from", transfer.Sender.Hex()),
					zap.String("to", transfer.Recipient.Hex()),
					zap.String("tokenId", transfer.TokenID.Dec()),
				)
			}
			transfers = append(transfers, transfer)
		}
	}
	return transfers, nil
}

func decodeTransfer(ev Event) (TransferEvent, error) {
	if len(ev.Data) < transferDataWords {
		return TransferEvent{}, fmt.Errorf("transfer event has %d data words, want %d", len(ev.Data), transferDataWords)
	}
	tokenID, err := uint256FromWords(ev.Data[2], ev.Data[3])
	if err != nil {
		return TransferEvent{}, err
	}
	return TransferEvent{
		Sender:    ev.Data[0],
		Recipient: ev.Data[1],
		TokenID:   tokenID,
	}, nil
}

// uint256FromWords joins a Cairo u256 (two 128-bit felts) as high<<128 | low.
func uint256FromWords(low, high Felt) (*uint256.Int, error) {
	lo := new(uint256.Int).SetBytes32(low[:])
	if lo.BitLen() > 128 {
		return nil, fmt.Errorf("token id low word %s exceeds 128 bits", low.Hex())
	}
	hi := new(uint256.Int).SetBytes32(high[:])
	if hi.BitLen() > 128 {
		return nil, fmt.Errorf("token id high word %s exceeds 128 bits", high.Hex())
	}
	tokenID := new(uint256.Int).Lsh(hi, 128)
	return tokenID.Or(tokenID, lo), nil
}
