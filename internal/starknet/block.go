package starknet

import (
	"encoding/json"
	"fmt"
	"time"
)

type Block struct {
	Height       uint64
	Hash         Felt
	Timestamp    time.Time
	Transactions []Transaction
	Receipts     []TransactionReceipt
}

type Transaction struct {
	Hash Felt
}

type TransactionReceipt struct {
	TransactionIndex uint64
	TransactionHash  Felt
	Events           []Event
}

type Event struct {
	FromAddress Felt
	Keys        []Felt
	Data        []Felt
}

// BlockDecoder turns the opaque payload of a stream message into a typed block.
type BlockDecoder interface {
	Decode(data []byte) (*Block, error)
}

type jsonBlock struct {
	BlockNumber         *uint64           `json:"block_number"`
	BlockHash           string            `json:"block_hash"`
	Timestamp           int64             `json:"timestamp"`
	Transactions        []jsonTransaction `json:"transactions"`
	TransactionReceipts []jsonReceipt     `json:"transaction_receipts"`
}

type jsonTransaction struct {
	TransactionHash string `json:"transaction_hash"`
}

type jsonReceipt struct {
	TransactionIndex uint64      `json:"transaction_index"`
	TransactionHash  string      `json:"transaction_hash"`
	Events           []jsonEvent `json:"events"`
}

type jsonEvent struct {
	FromAddress string   `json:"from_address"`
	Keys        []string `json:"keys"`
	Data        []string `json:"data"`
}

// JSONBlockDecoder decodes the Starknet JSON block encoding published on the stream.
type JSONBlockDecoder struct{}

func NewJSONBlockDecoder() *JSONBlockDecoder {
	return &JSONBlockDecoder{}
}

func (d *JSONBlockDecoder) Decode(data []byte) (*Block, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty block payload")
	}
	var raw jsonBlock
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal block: %w", err)
	}
	if raw.BlockNumber == nil {
		return nil, fmt.Errorf("block_number is missing")
	}

	block := &Block{
		Height:    *raw.BlockNumber,
		Timestamp: time.Unix(raw.Timestamp, 0).UTC(),
	}
	var err error
	if block.Hash, err = ParseFelt(raw.BlockHash); err != nil {
		return nil, fmt.Errorf("block_hash: %w", err)
	}

	block.Transactions = make([]Transaction, len(raw.Transactions))
	for i, tx := range raw.Transactions {
		if block.Transactions[i].Hash, err = ParseFelt(tx.TransactionHash); err != nil {
			return nil, fmt.Errorf("transactions[%d].transaction_hash: %w", i, err)
		}
	}

	block.Receipts = make([]TransactionReceipt, len(raw.TransactionReceipts))
	for i, rc := range raw.TransactionReceipts {
		receipt := TransactionReceipt{TransactionIndex: rc.TransactionIndex}
		if receipt.TransactionHash, err = ParseFelt(rc.TransactionHash); err != nil {
			return nil, fmt.Errorf("transaction_receipts[%d].transaction_hash: %w", i, err)
		}
		receipt.Events = make([]Event, len(rc.Events))
		for j, ev := range rc.Events {
			if receipt.Events[j], err = decodeEvent(ev); err != nil {
				return nil, fmt.Errorf("transaction_receipts[%d].events[%d]: %w", i, j, err)
			}
		}
		block.Receipts[i] = receipt
	}
	return block, nil
}

func decodeEvent(ev jsonEvent) (Event, error) {
	var out Event
	var err error
	if out.FromAddress, err = ParseFelt(ev.FromAddress); err != nil {
		return out, fmt.Errorf("from_address: %w", err)
	}
	if out.Keys, err = ParseFelts(ev.Keys); err != nil {
		return out, fmt.Errorf("keys: %w", err)
	}
	if out.Data, err = ParseFelts(ev.Data); err != nil {
		return out, fmt.Errorf("data: %w", err)
	}
	return out, nil
}

// TransactionHash resolves a receipt's transaction, falling back to the receipt's own hash.
func (b *Block) TransactionHash(receipt TransactionReceipt) Felt {
	if receipt.TransactionIndex < uint64(len(b.Transactions)) {
		return b.Transactions[receipt.TransactionIndex].Hash
	}
	return receipt.TransactionHash
}
