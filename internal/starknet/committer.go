package starknet

import (
	"context"
	"database/sql"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/6529-Collections/seastark-indexer/internal/metrics"
	"github.com/6529-Collections/seastark-indexer/internal/starknet/starknetdb"
)

// BlockWrites is everything one block contributes to the store, in event order.
type BlockWrites struct {
	Height    uint64
	Transfers []starknetdb.TokenTransfer
	Owners    []starknetdb.TokenOwner
}

// ProjectTransfers maps a block's transfers to log rows and owner upserts.
// Owners are not collapsed: applying them in order leaves the last recipient per token.
func ProjectTransfers(height uint64, events []TransferEvent) BlockWrites {
	writes := BlockWrites{
		Height:    height,
		Transfers: make([]starknetdb.TokenTransfer, 0, len(events)),
		Owners:    make([]starknetdb.TokenOwner, 0, len(events)),
	}
	for _, ev := range events {
		writes.Transfers = append(writes.Transfers, starknetdb.TokenTransfer{
			BlockNumber:      height,
			TransactionIndex: ev.TransactionIndex,
			EventIndex:       ev.EventIndex,
			Sender:           ev.Sender,
			Recipient:        ev.Recipient,
			TokenID:          ev.TokenID,
		})
		writes.Owners = append(writes.Owners, starknetdb.TokenOwner{
			TokenID: ev.TokenID,
			Owner:   ev.Recipient,
		})
	}
	return writes
}

// BlockCommitter applies one block and advances the checkpoint as a single unit.
//
//go:generate mockgen -source=committer.go -destination=mock_committer_test.go -package=starknet -self_package=github.com/6529-Collections/seastark-indexer/internal/starknet
type BlockCommitter interface {
	CommitBlock(ctx context.Context, height uint64, events []TransferEvent) error
}

type SqlBlockCommitter struct {
	db           *sql.DB
	indexerID    string
	transferDb   starknetdb.TransferDb
	ownerDb      starknetdb.TokenOwnerDb
	checkpointDb starknetdb.CheckpointDb
}

func NewSqlBlockCommitter(sqlite *sql.DB, indexerID string) *SqlBlockCommitter {
	return &SqlBlockCommitter{
		db:           sqlite,
		indexerID:    indexerID,
		transferDb:   starknetdb.NewTransferDb(),
		ownerDb:      starknetdb.NewTokenOwnerDb(),
		checkpointDb: starknetdb.NewCheckpointDb(),
	}
}

func (c *SqlBlockCommitter) CommitBlock(ctx context.Context, height uint64, events []TransferEvent) error {
	start := time.Now()
	writes := ProjectTransfers(height, events)

	_, err := db.TxRunner(ctx, c.db, func(tx *sql.Tx) (struct{}, error) {
		for i := range writes.Transfers {
			if err := c.transferDb.StoreTransfer(tx, writes.Transfers[i]); err != nil {
				return struct{}{}, err
			}
			owner := writes.Owners[i]
			if err := c.ownerDb.UpsertOwner(tx, owner.TokenID, owner.Owner); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, c.checkpointDb.UpsertCheckpoint(tx, c.indexerID, height)
	})
	if err != nil {
		return &PersistenceError{Height: height, Err: err}
	}

	metrics.CommitDuration.WithLabelValues(c.indexerID).Observe(time.Since(start).Seconds())
	metrics.BlocksCommitted.WithLabelValues(c.indexerID).Inc()
	metrics.TransfersIndexed.WithLabelValues(c.indexerID).Add(float64(len(writes.Transfers)))
	metrics.LastCommittedBlock.WithLabelValues(c.indexerID).Set(float64(height))
	return nil
}

// CheckpointReader is the read side of the checkpoint store.
type CheckpointReader interface {
	ReadCheckpoint(ctx context.Context, indexerID string) (uint64, bool, error)
}

type SqlCheckpointReader struct {
	db           *sql.DB
	checkpointDb starknetdb.CheckpointDb
}

func NewSqlCheckpointReader(sqlite *sql.DB) *SqlCheckpointReader {
	return &SqlCheckpointReader{db: sqlite, checkpointDb: starknetdb.NewCheckpointDb()}
}

func (r *SqlCheckpointReader) ReadCheckpoint(ctx context.Context, indexerID string) (uint64, bool, error) {
	return r.checkpointDb.GetCheckpoint(ctx, r.db, indexerID)
}
