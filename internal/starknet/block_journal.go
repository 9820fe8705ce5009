package starknet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BlockJournal keeps diagnostic history next to the projection: the hash of each committed
// block and every invalidation notice. Nothing in it affects committed state.
type BlockJournal interface {
	RecordBlock(height uint64, hash Felt) error
	// GetHash reports false without an error when no hash is journaled for height.
	GetHash(height uint64) (Felt, bool, error)
	Blocks() ([]JournaledBlock, error)
	RevertFromBlock(fromBlock uint64) error
	PruneBefore(height uint64) error
	RecordInvalidation(sequence uint64, at time.Time) error
	Invalidations() ([]Invalidation, error)
}

type JournaledBlock struct {
	Height uint64
	Hash   Felt
}

type Invalidation struct {
	Sequence   uint64
	ReceivedAt time.Time
}

func NewBlockJournal(db *badger.DB) BlockJournal {
	return &BlockJournalImpl{db: db}
}

type BlockJournalImpl struct {
	mu sync.RWMutex
	db *badger.DB
}

const (
	blockHashPrefix    = "journal:blockHash:"
	invalidationPrefix = "journal:invalidation:"
)

func (b *BlockJournalImpl) RecordBlock(height uint64, hash Felt) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(blockHashPrefix, height), hash.Bytes())
	})
}

func (b *BlockJournalImpl) GetHash(height uint64) (Felt, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var hash Felt
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(encodeKey(blockHashPrefix, height))
		if err != nil {
			return err
		}
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		copy(hash[:], val)
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Felt{}, false, nil
	}
	if err != nil {
		return Felt{}, false, fmt.Errorf("failed to read journaled hash for block %d: %w", height, err)
	}
	return hash, true, nil
}

// Blocks lists journaled hashes in height order.
func (b *BlockJournalImpl) Blocks() ([]JournaledBlock, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []JournaledBlock
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(blockHashPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			block := JournaledBlock{Height: decodeKey(blockHashPrefix, item.Key())}
			copy(block.Hash[:], val)
			out = append(out, block)
		}
		return nil
	})
	return out, err
}

// RevertFromBlock drops recorded hashes at and above fromBlock.
func (b *BlockJournalImpl) RevertFromBlock(fromBlock uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.deleteHashes(func(height uint64) bool { return height >= fromBlock }, encodeKey(blockHashPrefix, fromBlock))
}

// PruneBefore drops recorded hashes below height.
func (b *BlockJournalImpl) PruneBefore(height uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.deleteHashes(func(h uint64) bool { return h < height }, []byte(blockHashPrefix))
}

func (b *BlockJournalImpl) deleteHashes(match func(uint64) bool, seek []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		var keysToDelete [][]byte

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(blockHashPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(seek); it.Valid(); it.Next() {
			k := it.Item().Key()
			height := decodeKey(blockHashPrefix, k)
			if !match(height) {
				break
			}
			keysToDelete = append(keysToDelete, append([]byte(nil), k...))
		}

		for _, k := range keysToDelete {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *BlockJournalImpl) RecordInvalidation(sequence uint64, at time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(at.UnixNano()))
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(encodeKey(invalidationPrefix, sequence), buf[:])
	})
}

func (b *BlockJournalImpl) Invalidations() ([]Invalidation, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []Invalidation
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(invalidationPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out = append(out, Invalidation{
				Sequence:   decodeKey(invalidationPrefix, item.Key()),
				ReceivedAt: time.Unix(0, int64(binary.BigEndian.Uint64(val))),
			})
		}
		return nil
	})
	return out, err
}

func encodeKey(prefix string, n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)
	return append([]byte(prefix), buf[:]...)
}

func decodeKey(prefix string, key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(prefix):])
}
