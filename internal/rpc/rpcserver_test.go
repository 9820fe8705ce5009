package rpc

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/6529-Collections/seastark-indexer/internal/db/testdb"
	"github.com/6529-Collections/seastark-indexer/internal/rpc/handlers"
	"github.com/6529-Collections/seastark-indexer/internal/starknet"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const testIndexer = "test-indexer"

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestStartRPCServer_StartAndClose(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	port := freePort(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closeFunc := StartRPCServer(port, sqlite, testIndexer, ctx)

	// Give server some time to start
	time.Sleep(100 * time.Millisecond)

	url := fmt.Sprintf("http://127.0.0.1:%d/status", port)
	var status handlers.StatusResponse
	require.Equal(t, http.StatusOK, getJSON(t, url, &status))
	assert.Equal(t, testIndexer, status.IndexerID)
	assert.False(t, status.HasCheckpoint)

	start := time.Now()
	closeFunc()
	require.Less(t, time.Since(start), 5*time.Second, "server shutdown took too long")

	time.Sleep(100 * time.Millisecond)
	_, err := http.Get(url)
	require.Error(t, err, "expected error after server shutdown, got none")
}

func TestStartRPCServer_CloseAfterContextCancelled(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	closeFunc := StartRPCServer(freePort(t), sqlite, testIndexer, ctx)
	time.Sleep(100 * time.Millisecond)

	cancel()
	assert.NotPanics(t, closeFunc)
}

func TestRouter_MintExample(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	r := starknet.MustParseFelt("0x0777")
	require.NoError(t, starknet.NewSqlBlockCommitter(sqlite, testIndexer).CommitBlock(context.Background(), 514130, []starknet.TransferEvent{
		{Sender: starknet.ZeroAddress, Recipient: r, TokenID: uint256.NewInt(1)},
	}))

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	var accounts handlers.AccountsResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/accounts", &accounts))
	assert.Equal(t, handlers.AccountsResponse{NumOwners: 1, Owners: []string{r.Hex()}}, accounts)

	var account handlers.AccountResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/account/"+r.Hex(), &account))
	assert.Equal(t, handlers.AccountResponse{
		Address: r.Hex(),
		Tokens:  []handlers.TokenResponse{{ID: "1", Owner: r.Hex()}},
	}, account)

	var status handlers.StatusResponse
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/status", &status))
	assert.Equal(t, uint64(514130), status.Sequence)
	assert.True(t, status.HasCheckpoint)
}

func TestRouter_InvalidAddress(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	var body handlers.ErrorResponse
	require.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/account/0xnothex", &body))
	assert.Contains(t, body.Error, "invalid felt")
}

func TestRouter_StoreFailureIs500(t *testing.T) {
	sqlite, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlite.Close()
	mock.ExpectQuery("SELECT").WillReturnError(sql.ErrConnDone)

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	var body handlers.ErrorResponse
	require.Equal(t, http.StatusInternalServerError, getJSON(t, server.URL+"/accounts", &body))
	assert.Contains(t, body.Error, "failed to query mint recipients")
}

func TestRouter_UnknownRoute(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	resp, err := http.Get(server.URL + "/invalid-route")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// make sure at least one routed request was recorded
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/accounts", nil))

	resp, err = http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `http_requests_total{method="GET",path="/accounts",status="2xx"}`))
}

func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	sqlite, cleanup := testdb.SetupTestDB(t)
	defer cleanup()

	core, logs := observer.New(zap.InfoLevel)
	originalLogger := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(originalLogger)

	server := httptest.NewServer(NewRouter(sqlite, testIndexer))
	defer server.Close()

	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/status", nil))

	entries := logs.FilterMessage("Request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, http.MethodGet, fields["method"])
	assert.Equal(t, "/status", fields["path"])
	assert.NotEmpty(t, fields["ip"])
	assert.NotEmpty(t, fields["requestId"])
}
