package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// parseTokenAmount converts a decimal token amount such as "1.5" into base
// units of a mint with the given decimals.
func parseTokenAmount(s string, decimals uint8) (*uint256.Int, error) {
	whole, frac, hasPoint := strings.Cut(s, ".")
	if whole == "" || (hasPoint && frac == "") {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > int(decimals) {
		return nil, fmt.Errorf("amount %q has more than %d decimals", s, decimals)
	}
	for _, part := range []string{whole, frac} {
		for i := 0; i < len(part); i++ {
			if part[i] < '0' || part[i] > '9' {
				return nil, fmt.Errorf("invalid amount %q", s)
			}
		}
	}

	digits := whole + frac + strings.Repeat("0", int(decimals)-len(frac))
	v, err := uint256.FromDecimal(digits)
	if errors.Is(err, uint256.ErrBig256Range) {
		return nil, fmt.Errorf("amount %q is too large", s)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

// parseTokenAmount64 is parseTokenAmount for instructions that carry a
// uint64 amount.
func parseTokenAmount64(s string, decimals uint8) (uint64, error) {
	v, err := parseTokenAmount(s, decimals)
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount %q exceeds the token range", s)
	}
	return v.Uint64(), nil
}

// formatTokenAmount renders base units with the mint's decimals.
func formatTokenAmount(amount uint64, decimals uint8) string {
	s := fmt.Sprintf("%0*d", int(decimals)+1, amount)
	if decimals == 0 {
		return s
	}
	cut := len(s) - int(decimals)
	return s[:cut] + "." + s[cut:]
}
