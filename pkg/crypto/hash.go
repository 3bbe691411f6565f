// Package crypto provides the hashing, signing and address-derivation
// primitives used by klingswap.
package crypto

import (
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/zeebo/blake3"
)

// Hash computes a BLAKE3-256 hash of the input data.
func Hash(data []byte) types.Hash {
	return blake3.Sum256(data)
}

// HashParts hashes the concatenation of parts without allocating the
// joined buffer.
func HashParts(parts ...[]byte) types.Hash {
	h := blake3.New()
	for _, p := range parts {
		h.Write(p)
	}
	var out types.Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AddressFromPubKey derives an address from a compressed public key.
// Address = BLAKE3(compressed_pubkey)[:20].
func AddressFromPubKey(pubKey []byte) types.Address {
	h := Hash(pubKey)
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}

// ProgramID returns the well-known address of a built-in program.
// Address = BLAKE3("klingswap/program/" || name)[:20].
func ProgramID(name string) types.Address {
	h := HashParts([]byte("klingswap/program/"), []byte(name))
	var addr types.Address
	copy(addr[:], h[:types.AddressSize])
	return addr
}
