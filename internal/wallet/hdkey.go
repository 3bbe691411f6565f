package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
	"github.com/tyler-smith/go-bip32"
)

// Derivation path: m/44'/8888'/account'/0/index.
const (
	PurposeBIP44      = bip32.FirstHardenedChild + 44
	CoinTypeKlingswap = bip32.FirstHardenedChild + 8888
	ChainExternal     = 0
	MaxAccountIndex   = bip32.FirstHardenedChild - 1
)

// ErrPublicOnly is returned when a signer is requested from a neutered key.
var ErrPublicOnly = errors.New("key has no private part")

// HDKey is a BIP-32 extended key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates the master key of a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DerivePath derives a key along a sequence of child indices. Hardened
// indices carry bip32.FirstHardenedChild.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k.key
	for _, idx := range indices {
		child, err := current.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
		current = child
	}
	return &HDKey{key: current}, nil
}

// DeriveSigning derives the key at m/44'/8888'/account'/0/index.
func (k *HDKey) DeriveSigning(account, index uint32) (*HDKey, error) {
	if account > MaxAccountIndex {
		return nil, fmt.Errorf("account index %d out of range", account)
	}
	return k.DerivePath(PurposeBIP44, CoinTypeKlingswap, bip32.FirstHardenedChild+account, ChainExternal, index)
}

// PrivateKeyBytes returns the 32-byte private scalar, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 pads private keys to 33 bytes with a leading zero.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Signer returns the Schnorr signer of this key.
func (k *HDKey) Signer() (*crypto.PrivateKey, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, ErrPublicOnly
	}
	return crypto.PrivateKeyFromBytes(priv)
}

// Address returns the ledger address of this key.
func (k *HDKey) Address() types.Address {
	return crypto.AddressFromPubKey(k.PublicKeyBytes())
}

// IsPrivate reports whether the key holds a private part.
func (k *HDKey) IsPrivate() bool {
	return k.key.IsPrivate
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Neuter returns a public-only copy.
func (k *HDKey) Neuter() *HDKey {
	return &HDKey{key: k.key.PublicKey()}
}
