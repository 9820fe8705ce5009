package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTxFunc(tx *sql.Tx) (int, error) {
	return 42, nil
}

func sampleTxFuncErr(tx *sql.Tx) (int, error) {
	return 0, errors.New("simulated error")
}

func TestTxRunner_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	result, err := TxRunner(context.Background(), db, sampleTxFunc)
	require.NoError(t, err)
	assert.Equal(t, 42, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_FuncError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = TxRunner(context.Background(), db, sampleTxFuncErr)
	require.Error(t, err)
	assert.Equal(t, "failed to execute transaction: simulated error", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(fmt.Errorf("commit failed"))

	_, err = TxRunner(context.Background(), db, sampleTxFunc)
	require.Error(t, err)
	assert.Equal(t, "failed to commit transaction: commit failed", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_BeginTxError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(fmt.Errorf("begin error"))

	_, err = TxRunner(context.Background(), db, sampleTxFunc)
	require.Error(t, err)
	assert.Equal(t, "failed to begin transaction: begin error", err.Error())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_ContextCanceledBeforeCommit(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err = TxRunner(ctx, db, func(tx *sql.Tx) (int, error) {
		cancel()
		return 1, nil
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpenSqlite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "sqlite")

	db, err := OpenSqlite(path)
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(filepath.Dir(path))
	require.NoError(t, err)

	for _, table := range []string{"indexer_state", "token_transfers", "token_owners"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
	}

	// Reopening applies no further migrations.
	require.NoError(t, db.Close())
	db2, err := OpenSqlite(path)
	require.NoError(t, err)
	require.NoError(t, db2.Close())
}

func TestScanAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT n FROM numbers").
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1).AddRow(2).AddRow(3))

	rows, err := db.Query("SELECT n FROM numbers")
	require.NoError(t, err)
	defer rows.Close()

	nums, err := ScanAll(rows, func(s RowScanner) (int, error) {
		var n int
		err := s.Scan(&n)
		return n, err
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, nums)
}
