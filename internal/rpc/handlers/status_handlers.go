package handlers

import (
	"fmt"
	"net/http"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/6529-Collections/seastark-indexer/internal/starknet/starknetdb"
)

var checkpointDb starknetdb.CheckpointDb = starknetdb.NewCheckpointDb()

type StatusResponse struct {
	IndexerID     string `json:"indexer_id"`
	Sequence      uint64 `json:"sequence"`
	HasCheckpoint bool   `json:"has_checkpoint"`
	Transfers     int    `json:"transfers"`
	Tokens        int    `json:"tokens"`
}

func StatusGetHandler(r *http.Request, rq db.QueryRunner, indexerID string) (StatusResponse, error) {
	seq, ok, err := checkpointDb.GetCheckpoint(r.Context(), rq, indexerID)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to read checkpoint: %w", err)
	}
	transfers, err := transferDb.CountTransfers(r.Context(), rq)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to count transfers: %w", err)
	}
	tokens, err := ownerDb.CountTokens(r.Context(), rq)
	if err != nil {
		return StatusResponse{}, fmt.Errorf("failed to count tokens: %w", err)
	}
	return StatusResponse{
		IndexerID:     indexerID,
		Sequence:      seq,
		HasCheckpoint: ok,
		Transfers:     transfers,
		Tokens:        tokens,
	}, nil
}
