package tx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// MaxPayloadSize bounds the encoded payload of one instruction.
const MaxPayloadSize = 4096

// Validation errors.
var (
	ErrUnsupportedVersion = errors.New("unsupported transaction version")
	ErrUnknownKind        = errors.New("unknown instruction kind")
	ErrEmptyPayload       = errors.New("transaction has no payload")
	ErrPayloadTooLarge    = errors.New("payload too large")
	ErrMissingPubKey      = errors.New("transaction missing public key")
	ErrMissingSig         = errors.New("transaction missing signature")
	ErrInvalidSig         = errors.New("invalid signature")
	ErrInvalidPayload     = errors.New("invalid payload")
)

// Validate checks transaction structure. It does not verify the signature.
func (tx *Transaction) Validate() error {
	if tx.Version != Version {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, tx.Version)
	}
	if !tx.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, tx.Kind)
	}
	if len(tx.Payload) == 0 {
		return ErrEmptyPayload
	}
	if len(tx.Payload) > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(tx.Payload), MaxPayloadSize)
	}
	if len(tx.PubKey) != crypto.PublicKeySize {
		return fmt.Errorf("%w: %d bytes", ErrMissingPubKey, len(tx.PubKey))
	}
	if len(tx.Signature) == 0 {
		return ErrMissingSig
	}
	return nil
}

// Signer validates the transaction, verifies its signature and returns
// the signing address.
func (tx *Transaction) Signer() (types.Address, error) {
	if err := tx.Validate(); err != nil {
		return types.Address{}, err
	}
	hash := tx.Hash()
	addr, err := crypto.RecoverSigner(hash[:], tx.Signature, tx.PubKey)
	if err != nil {
		return types.Address{}, ErrInvalidSig
	}
	return addr, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data", ErrInvalidPayload)
	}
	return nil
}
