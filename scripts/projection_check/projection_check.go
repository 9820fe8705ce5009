package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/6529-Collections/seastark-indexer/internal/starknet/starknetdb"
	"github.com/ethereum/go-ethereum/common"
)

// Mismatch is a token whose stored owner differs from the replayed transfer log.
type Mismatch struct {
	TokenID  string
	Stored   string
	Replayed string
}

func main() {
	sqlitePath := flag.String("sqlite", "./db/sqlite/sqlite", "Path to the SQLite DB")
	flag.Parse()

	sqlite, err := db.OpenSqlite(*sqlitePath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer sqlite.Close()

	mismatches, checked, err := checkProjection(context.Background(), sqlite)
	if err != nil {
		log.Fatalf("Projection check failed: %v", err)
	}
	fmt.Printf("Checked %d tokens\n", checked)
	for _, m := range mismatches {
		fmt.Printf("MISMATCH token %s: stored %s, log says %s\n", m.TokenID, m.Stored, m.Replayed)
	}
	if len(mismatches) > 0 {
		log.Fatalf("%d mismatches", len(mismatches))
	}
	fmt.Println("Projection matches the transfer log")
}

// checkProjection replays the transfer log in commit order and compares the last recipient
// of every token with token_owners.
func checkProjection(ctx context.Context, rq db.QueryRunner) ([]Mismatch, int, error) {
	transfers, err := starknetdb.NewTransferDb().GetTransfers(ctx, rq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load transfers: %w", err)
	}

	replayed := make(map[string]common.Hash)
	var order []string
	for _, t := range transfers {
		id := t.TokenID.Dec()
		if _, seen := replayed[id]; !seen {
			order = append(order, id)
		}
		replayed[id] = t.Recipient
	}

	ownerDb := starknetdb.NewTokenOwnerDb()
	stored, err := ownerDb.CountTokens(ctx, rq)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tokens: %w", err)
	}

	var mismatches []Mismatch
	for _, t := range transfers {
		id := t.TokenID.Dec()
		want, pending := replayed[id]
		if !pending {
			continue
		}
		delete(replayed, id)

		owner, ok, err := ownerDb.GetOwner(ctx, rq, t.TokenID)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read owner of %s: %w", id, err)
		}
		if !ok || owner != want {
			m := Mismatch{TokenID: id, Replayed: want.Hex(), Stored: "<none>"}
			if ok {
				m.Stored = owner.Hex()
			}
			mismatches = append(mismatches, m)
		}
	}
	if stored != len(order) {
		mismatches = append(mismatches, Mismatch{
			TokenID:  "*",
			Stored:   fmt.Sprintf("%d tokens", stored),
			Replayed: fmt.Sprintf("%d tokens", len(order)),
		})
	}
	return mismatches, len(order), nil
}
