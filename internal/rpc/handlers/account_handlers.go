package handlers

import (
	"fmt"
	"net/http"

	"github.com/6529-Collections/seastark-indexer/internal/db"
	"github.com/6529-Collections/seastark-indexer/internal/starknet"
	"github.com/6529-Collections/seastark-indexer/internal/starknet/starknetdb"
	"github.com/go-chi/chi/v5"
)

var ownerDb starknetdb.TokenOwnerDb = starknetdb.NewTokenOwnerDb()
var transferDb starknetdb.TransferDb = starknetdb.NewTransferDb()

type TokenResponse struct {
	ID    string `json:"id"`
	Owner string `json:"owner"`
}

type AccountResponse struct {
	Address string          `json:"address"`
	Tokens  []TokenResponse `json:"tokens"`
}

type AccountsResponse struct {
	NumOwners int      `json:"num_owners"`
	Owners    []string `json:"owners"`
}

// AccountGetHandler serves /account/{address}: every token currently owned by the address.
func AccountGetHandler(r *http.Request, rq db.QueryRunner) (AccountResponse, error) {
	raw := chi.URLParam(r, "address")
	address, err := starknet.ParseFelt(raw)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	owned, err := ownerDb.GetTokensByOwner(r.Context(), rq, address)
	if err != nil {
		return AccountResponse{}, fmt.Errorf("failed to query tokens of %s: %w", address.Hex(), err)
	}

	resp := AccountResponse{
		Address: address.Hex(),
		Tokens:  make([]TokenResponse, 0, len(owned)),
	}
	for _, t := range owned {
		resp.Tokens = append(resp.Tokens, TokenResponse{
			ID:    t.TokenID.Dec(),
			Owner: t.Owner.Hex(),
		})
	}
	return resp, nil
}

// AccountsGetHandler serves /accounts: distinct mint recipients in first-seen order.
func AccountsGetHandler(r *http.Request, rq db.QueryRunner) (AccountsResponse, error) {
	recipients, err := transferDb.GetRecipientsFrom(r.Context(), rq, starknet.ZeroAddress)
	if err != nil {
		return AccountsResponse{}, fmt.Errorf("failed to query mint recipients: %w", err)
	}

	resp := AccountsResponse{
		NumOwners: len(recipients),
		Owners:    make([]string, 0, len(recipients)),
	}
	for _, addr := range recipients {
		resp.Owners = append(resp.Owners, addr.Hex())
	}
	return resp, nil
}
