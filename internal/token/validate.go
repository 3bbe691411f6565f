package token

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Token errors.
var (
	ErrUnknownProgram    = errors.New("unknown token program")
	ErrNotMint           = errors.New("account is not a mint")
	ErrNotTokenAccount   = errors.New("account is not a token account")
	ErrMintMismatch      = errors.New("mint mismatch")
	ErrProgramMismatch   = errors.New("token program mismatch")
	ErrDecimalsMismatch  = errors.New("decimals mismatch")
	ErrUnauthorized      = errors.New("authority did not sign")
	ErrInsufficientFunds = errors.New("insufficient token balance")
	ErrOverflow          = errors.New("token amount overflow")
	ErrNonZeroBalance    = errors.New("account balance is not zero")
	ErrNotAssociated     = errors.New("address is not the associated token account")
	ErrInvalidMetadata   = errors.New("invalid token metadata")
)

// Metadata limits.
const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxDecimals     = 18
)

// ValidateMetadata checks mint name, symbol and decimals.
func ValidateMetadata(name, symbol string, decimals uint8) error {
	if name == "" || len(name) > MaxNameLength || !utf8.ValidString(name) {
		return fmt.Errorf("%w: name must be 1-%d bytes of UTF-8", ErrInvalidMetadata, MaxNameLength)
	}
	if symbol == "" || len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: symbol must be 1-%d characters", ErrInvalidMetadata, MaxSymbolLength)
	}
	for _, c := range symbol {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return fmt.Errorf("%w: symbol must be uppercase alphanumeric", ErrInvalidMetadata)
		}
	}
	if decimals > MaxDecimals {
		return fmt.Errorf("%w: decimals must be at most %d", ErrInvalidMetadata, MaxDecimals)
	}
	return nil
}
