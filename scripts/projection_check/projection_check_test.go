package main

import (
	"context"
	"database/sql"
	"testing"

	"github.com/6529-Collections/seastark-indexer/internal/db/testdb"
	"github.com/6529-Collections/seastark-indexer/internal/starknet"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	alice = starknet.MustParseFelt("0xa11ce")
	bob   = starknet.MustParseFelt("0xb0b")
)

func commit(t *testing.T, sqlite *sql.DB, height uint64, events ...starknet.TransferEvent) {
	t.Helper()
	require.NoError(t, starknet.NewSqlBlockCommitter(sqlite, "check").CommitBlock(context.Background(), height, events))
}

func TestCheckProjection_Consistent(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	commit(t, sqlite, 1,
		starknet.TransferEvent{Sender: starknet.ZeroAddress, Recipient: alice, TokenID: uint256.NewInt(1)},
		starknet.TransferEvent{Sender: starknet.ZeroAddress, Recipient: alice, TokenID: uint256.NewInt(2)},
	)
	commit(t, sqlite, 2, starknet.TransferEvent{Sender: alice, Recipient: bob, TokenID: uint256.NewInt(1)})

	mismatches, checked, err := checkProjection(context.Background(), sqlite)
	require.NoError(t, err)
	assert.Equal(t, 2, checked)
	assert.Empty(t, mismatches)
}

func TestCheckProjection_DetectsDrift(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	commit(t, sqlite, 1, starknet.TransferEvent{Sender: starknet.ZeroAddress, Recipient: alice, TokenID: uint256.NewInt(1)})
	_, err := sqlite.Exec(`UPDATE token_owners SET owner = ?`, bob.Bytes())
	require.NoError(t, err)

	mismatches, _, err := checkProjection(context.Background(), sqlite)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, Mismatch{TokenID: "1", Stored: bob.Hex(), Replayed: alice.Hex()}, mismatches[0])
}
