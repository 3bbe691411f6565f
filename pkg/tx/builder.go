package tx

import (
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
)

// Builder constructs transactions incrementally.
type Builder struct {
	tx  *Transaction
	err error
}

// NewBuilder creates a builder for an instruction of the given kind.
func NewBuilder(kind Kind) *Builder {
	return &Builder{
		tx: &Transaction{Version: Version, Kind: kind},
	}
}

// SetNonce sets the nonce that distinguishes otherwise identical
// instructions.
func (b *Builder) SetNonce(nonce uint64) *Builder {
	b.tx.Nonce = nonce
	return b
}

// SetPayload encodes v as the instruction payload.
func (b *Builder) SetPayload(v any) *Builder {
	data, err := json.Marshal(v)
	if err != nil {
		b.err = fmt.Errorf("encode payload: %w", err)
		return b
	}
	b.tx.Payload = data
	return b
}

// Sign sets the signer's public key and signs the transaction.
func (b *Builder) Sign(key crypto.Signer) error {
	if b.err != nil {
		return b.err
	}
	b.tx.PubKey = key.PublicKey()
	hash := b.tx.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		return fmt.Errorf("sign tx: %w", err)
	}
	b.tx.Signature = sig
	return nil
}

// Build returns the constructed transaction.
// Does NOT validate, call tx.Validate() separately.
func (b *Builder) Build() (*Transaction, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}
