package tx

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/holiman/uint256"
)

// Payloads by kind. The signer is never part of a payload: it is the
// address of the transaction's public key. Zero addresses select the
// derived or associated default.

// MakePayload is the payload of escrow.make. Amounts are decimal strings
// so values beyond 64 bits reach the program and fail there.
type MakePayload struct {
	Seed            uint64        `json:"seed"`
	MintOffered     types.Address `json:"mint_offered"`
	MintRequested   types.Address `json:"mint_requested"`
	AmountOffered   string        `json:"amount_offered"`
	AmountRequested string        `json:"amount_requested"`
	MakerSource     types.Address `json:"maker_source"`
	Escrow          types.Address `json:"escrow"`
	Vault           types.Address `json:"vault"`
}

// TakePayload is the payload of escrow.take.
type TakePayload struct {
	Escrow           types.Address `json:"escrow"`
	Vault            types.Address `json:"vault"`
	TakerSource      types.Address `json:"taker_source"`
	TakerDestination types.Address `json:"taker_destination"`
	MakerDestination types.Address `json:"maker_destination"`
}

// RefundPayload is the payload of escrow.refund.
type RefundPayload struct {
	Escrow           types.Address `json:"escrow"`
	Vault            types.Address `json:"vault"`
	MakerDestination types.Address `json:"maker_destination"`
}

// CreateMintPayload is the payload of token.createMint. The mint address
// is derived from the signer and Label under Program.
type CreateMintPayload struct {
	Program  string `json:"program"`
	Label    string `json:"label"`
	Decimals uint8  `json:"decimals"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
}

// MintToPayload is the payload of token.mintTo. Tokens go to the
// associated account of Owner, created at the signer's expense.
type MintToPayload struct {
	Mint   types.Address `json:"mint"`
	Owner  types.Address `json:"owner"`
	Amount uint64        `json:"amount"`
}

// CreateAccountPayload is the payload of token.createAccount: the
// associated account of Owner for Mint, paid by the signer.
type CreateAccountPayload struct {
	Mint  types.Address `json:"mint"`
	Owner types.Address `json:"owner"`
}

// TransferPayload is the payload of token.transfer, moving Amount from
// the signer's associated account to that of To.
type TransferPayload struct {
	Mint   types.Address `json:"mint"`
	To     types.Address `json:"to"`
	Amount uint64        `json:"amount"`
}

// maxAmount is substituted for decimals beyond 256 bits.
var maxAmount = new(uint256.Int).SetAllOne()

// ParseAmount parses a non-negative decimal amount. Decimals too large
// for 256 bits parse as 2^256-1, which is above every token range, so the
// program still rejects them as an arithmetic error.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return new(uint256.Int), nil
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return nil, fmt.Errorf("%w: amount %q: not a decimal", ErrInvalidPayload, s)
		}
	}
	v, err := uint256.FromDecimal(s)
	if errors.Is(err, uint256.ErrBig256Range) {
		return new(uint256.Int).Set(maxAmount), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %v", ErrInvalidPayload, s, err)
	}
	return v, nil
}
