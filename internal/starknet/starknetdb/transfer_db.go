package starknetdb

import (
	"context"
	"database/sql"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/ethereum/go-ethereum/common"
)

// TransferDb manages the append-only transfer log.
type TransferDb interface {
	StoreTransfer(tx *sql.Tx, transfer TokenTransfer) error
	GetTransfers(ctx context.Context, rq db.QueryRunner) ([]TokenTransfer, error)
	// GetRecipientsFrom returns distinct recipients of transfers sent by sender, first seen first.
	GetRecipientsFrom(ctx context.Context, rq db.QueryRunner, sender common.Hash) ([]common.Hash, error)
	CountTransfers(ctx context.Context, rq db.QueryRunner) (int, error)
}

func NewTransferDb() TransferDb {
	return &TransferDbImpl{}
}

type TransferDbImpl struct{}

func (t *TransferDbImpl) StoreTransfer(tx *sql.Tx, transfer TokenTransfer) error {
	_, err := tx.Exec(`
		INSERT INTO token_transfers (
			block_number, transaction_index, event_index, sender, recipient, token_id
		) VALUES (?, ?, ?, ?, ?, ?)`,
		transfer.BlockNumber, transfer.TransactionIndex, transfer.EventIndex,
		transfer.Sender.Bytes(), transfer.Recipient.Bytes(), tokenIDBytes(transfer.TokenID))
	return err
}

// GetTransfers returns the whole log in insertion order.
func (t *TransferDbImpl) GetTransfers(ctx context.Context, rq db.QueryRunner) ([]TokenTransfer, error) {
	rows, err := rq.QueryContext(ctx, `
		SELECT block_number, transaction_index, event_index, sender, recipient, token_id
		FROM token_transfers ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.ScanAll(rows, scanTransfer)
}

func (t *TransferDbImpl) GetRecipientsFrom(ctx context.Context, rq db.QueryRunner, sender common.Hash) ([]common.Hash, error) {
	rows, err := rq.QueryContext(ctx, `
		SELECT recipient FROM token_transfers
		WHERE sender = ?
		GROUP BY recipient
		ORDER BY MIN(id)`, sender.Bytes())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return db.ScanAll(rows, func(s db.RowScanner) (common.Hash, error) {
		var recipient []byte
		err := s.Scan(&recipient)
		return common.BytesToHash(recipient), err
	})
}

func (t *TransferDbImpl) CountTransfers(ctx context.Context, rq db.QueryRunner) (int, error) {
	var count int
	err := rq.QueryRowContext(ctx, "SELECT COUNT(*) FROM token_transfers").Scan(&count)
	return count, err
}

func scanTransfer(s db.RowScanner) (TokenTransfer, error) {
	var transfer TokenTransfer
	var sender, recipient, tokenID []byte
	err := s.Scan(
		&transfer.BlockNumber, &transfer.TransactionIndex, &transfer.EventIndex,
		&sender, &recipient, &tokenID,
	)
	if err != nil {
		return transfer, err
	}
	transfer.Sender = common.BytesToHash(sender)
	transfer.Recipient = common.BytesToHash(recipient)
	transfer.TokenID = tokenIDFromBytes(tokenID)
	return transfer, nil
}
