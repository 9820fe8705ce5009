package starknetdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/6529-Collections/seastark-indexer/internal/db"
)

var ErrCheckpointRegression = errors.New("checkpoint would move backwards")

// CheckpointDb keeps the last committed block height per indexer identity.
// The write path takes a *sql.Tx so it can only run inside a block unit.
type CheckpointDb interface {
	GetCheckpoint(ctx context.Context, rq db.QueryRunner, indexerID string) (uint64, bool, error)
	UpsertCheckpoint(tx *sql.Tx, indexerID string, sequence uint64) error
}

func NewCheckpointDb() CheckpointDb {
	return &CheckpointDbImpl{}
}

type CheckpointDbImpl struct{}

func (c *CheckpointDbImpl) GetCheckpoint(ctx context.Context, rq db.QueryRunner, indexerID string) (uint64, bool, error) {
	var sequence uint64
	err := rq.QueryRowContext(ctx, "SELECT sequence FROM indexer_state WHERE indexer_id = ?", indexerID).Scan(&sequence)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read checkpoint for %s: %w", indexerID, err)
	}
	return sequence, true, nil
}

// UpsertCheckpoint overwrites the sequence. Equal values are accepted so a replayed block
// commits; lower values fail with ErrCheckpointRegression.
func (c *CheckpointDbImpl) UpsertCheckpoint(tx *sql.Tx, indexerID string, sequence uint64) error {
	res, err := tx.Exec(`
		INSERT INTO indexer_state (indexer_id, sequence) VALUES (?, ?)
		ON CONFLICT(indexer_id) DO UPDATE SET sequence = excluded.sequence
		WHERE excluded.sequence >= indexer_state.sequence`,
		indexerID, sequence)
	if err != nil {
		return fmt.Errorf("failed to upsert checkpoint for %s: %w", indexerID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s to %d", ErrCheckpointRegression, indexerID, sequence)
	}
	return nil
}
