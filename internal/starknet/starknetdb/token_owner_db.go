package starknetdb

import (
	"context"
	"database/sql"
	"errors"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// TokenOwnerDb manages the current-owner projection, one row per token id.
type TokenOwnerDb interface {
	UpsertOwner(tx *sql.Tx, tokenID *uint256.Int, owner common.Hash) error
	GetOwner(ctx context.Context, rq db.QueryRunner, tokenID *uint256.Int) (common.Hash, bool, error)
	GetTokensByOwner(ctx context.Context, rq db.QueryRunner, owner common.Hash) ([]TokenOwner, error)
	CountTokens(ctx context.Context, rq db.QueryRunner) (int, error)
}

func NewTokenOwnerDb() TokenOwnerDb {
	return &TokenOwnerDbImpl{}
}

type TokenOwnerDbImpl struct{}

func (o *TokenOwnerDbImpl) UpsertOwner(tx *sql.Tx, tokenID *uint256.Int, owner common.Hash) error {
	_, err := tx.Exec(`
		INSERT INTO token_owners (token_id, owner) VALUES (?, ?)
		ON CONFLICT(token_id) DO UPDATE SET owner = excluded.owner`,
		tokenIDBytes(tokenID), owner.Bytes())
	return err
}

func (o *TokenOwnerDbImpl) GetOwner(ctx context.Context, rq db.QueryRunner, tokenID *uint256.Int) (common.Hash, bool, error) {
	var owner []byte
	err := rq.QueryRowContext(ctx, "SELECT owner FROM token_owners WHERE token_id = ?", tokenIDBytes(tokenID)).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return common.Hash{}, false, nil
	}
	if err != nil {
		return common.Hash{}, false, err
	}
	return common.BytesToHash(owner), true, nil
}

// GetTokensByOwner orders by token id; the fixed-width big-endian blobs sort numerically.
func (o *TokenOwnerDbImpl) GetTokensByOwner(ctx context.Context, rq db.QueryRunner, owner common.Hash) ([]TokenOwner, error) {
	rows, err := rq.QueryContext(ctx, "SELECT token_id, owner FROM token_owners WHERE owner = ? ORDER BY token_id", owner.Bytes())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.ScanAll(rows, func(s db.RowScanner) (TokenOwner, error) {
		var tokenID, holder []byte
		if err := s.Scan(&tokenID, &holder); err != nil {
			return TokenOwner{}, err
		}
		return TokenOwner{TokenID: tokenIDFromBytes(tokenID), Owner: common.BytesToHash(holder)}, nil
	})
}

func (o *TokenOwnerDbImpl) CountTokens(ctx context.Context, rq db.QueryRunner) (int, error) {
	var count int
	err := rq.QueryRowContext(ctx, "SELECT COUNT(*) FROM token_owners").Scan(&count)
	return count, err
}
