package db

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenBadger(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "journal")

	t.Run("successfully opens database", func(t *testing.T) {
		db, err := OpenBadger(dbPath)
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		_, err = os.Stat(dbPath)
		assert.NoError(t, err)
	})

	t.Run("opens in memory with empty path", func(t *testing.T) {
		db, err := OpenBadger("")
		require.NoError(t, err)
		defer db.Close()

		err = db.Update(func(txn *badger.Txn) error {
			return txn.Set([]byte("k"), []byte("v"))
		})
		assert.NoError(t, err)
	})

	t.Run("fails with invalid path", func(t *testing.T) {
		blocker := filepath.Join(tmpDir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

		db, err := OpenBadger(filepath.Join(blocker, "journal"))
		assert.Error(t, err)
		assert.Nil(t, db)
		assert.Contains(t, err.Error(), "failed to create directory")
	})
}

func TestZapAdapter(t *testing.T) {
	logger, err := zap.NewDevelopment()
	require.NoError(t, err)
	adapter := zapAdapter{logger}

	adapter.Errorf("test error: %s", "message")
	adapter.Warningf("test warning: %s", "message")
	adapter.Infof("test info: %s", "message")
	adapter.Debugf("test debug: %s", "message")
}
