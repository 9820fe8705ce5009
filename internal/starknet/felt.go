package starknet

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Felt is a Starknet field element kept as a 32-byte big-endian word.
type Felt = common.Hash

// ZeroAddress is the sender of mint transfers.
var ZeroAddress = Felt{}

// ParseFelt accepts 1 to 64 hex digits with an optional 0x prefix and left-pads to 32 bytes.
func ParseFelt(s string) (Felt, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(digits) == 0 || len(digits) > 2*common.HashLength {
		return Felt{}, fmt.Errorf("invalid felt %q: expected 1 to %d hex digits", s, 2*common.HashLength)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	raw, err := hex.DecodeString(digits)
	if err != nil {
		return Felt{}, fmt.Errorf("invalid felt %q: %w", s, err)
	}
	return common.BytesToHash(raw), nil
}

// MustParseFelt is ParseFelt for compile-time constants.
func MustParseFelt(s string) Felt {
	f, err := ParseFelt(s)
	if err != nil {
		panic(err)
	}
	return f
}

// ParseFelts parses every entry, failing on the first bad one.
func ParseFelts(values []string) ([]Felt, error) {
	felts := make([]Felt, 0, len(values))
	for _, v := range values {
		f, err := ParseFelt(v)
		if err != nil {
			return nil, err
		}
		felts = append(felts, f)
	}
	return felts, nil
}

// SelectorFromName returns the Starknet event selector: keccak256(name) masked to 250 bits.
func SelectorFromName(name string) Felt {
	h := crypto.Keccak256([]byte(name))
	h[0] &= 0x03
	return common.BytesToHash(h)
}
