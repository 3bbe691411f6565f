package crypto

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Limits on program-address seeds.
const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

// derivationMarker separates program-derived candidates from any other
// BLAKE3 preimage used in the system.
var derivationMarker = []byte("ProgramDerivedAddress")

// Derivation errors.
var (
	ErrTooManySeeds = errors.New("too many seeds")
	ErrSeedTooLong  = errors.New("seed too long")
	ErrOnCurve      = errors.New("derived address lies on the curve")
	ErrNoValidBump  = errors.New("no valid bump seed")
)

// CreateProgramAddress derives the address of (seeds, program). The last
// seed is normally the bump. Fails with ErrOnCurve when the candidate could
// be a public key, since somebody could then hold its private key.
func CreateProgramAddress(seeds [][]byte, program types.Address) (types.Address, error) {
	if len(seeds) > MaxSeeds {
		return types.Address{}, ErrTooManySeeds
	}
	parts := make([][]byte, 0, len(seeds)+2)
	for i, s := range seeds {
		if len(s) > MaxSeedLength {
			return types.Address{}, fmt.Errorf("seed %d: %w", i, ErrSeedTooLong)
		}
		parts = append(parts, s)
	}
	parts = append(parts, program[:], derivationMarker)

	candidate := HashParts(parts...)
	if isOnCurve(candidate[:]) {
		return types.Address{}, ErrOnCurve
	}
	var addr types.Address
	copy(addr[:], candidate[:types.AddressSize])
	return addr, nil
}

// FindProgramAddress searches bump seeds from 255 down to 0 and returns the
// first off-curve address together with its bump.
func FindProgramAddress(seeds [][]byte, program types.Address) (types.Address, uint8, error) {
	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	for bump := 255; bump >= 0; bump-- {
		withBump[len(seeds)] = []byte{uint8(bump)}
		addr, err := CreateProgramAddress(withBump, program)
		switch {
		case err == nil:
			return addr, uint8(bump), nil
		case errors.Is(err, ErrOnCurve):
			continue
		default:
			return types.Address{}, 0, err
		}
	}
	return types.Address{}, 0, ErrNoValidBump
}

// IsOnCurve reports whether a 32-byte value is the x coordinate of a
// secp256k1 point.
func IsOnCurve(x []byte) bool {
	if len(x) != 32 {
		return false
	}
	return isOnCurve(x)
}

func isOnCurve(x []byte) bool {
	compressed := make([]byte, 0, PublicKeySize)
	compressed = append(compressed, 0x02)
	compressed = append(compressed, x...)
	_, err := secp256k1.ParsePubKey(compressed)
	return err == nil
}
