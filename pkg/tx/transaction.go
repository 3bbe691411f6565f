// Package tx defines signed instructions and their canonical encoding.
package tx

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

// Version is the current instruction envelope version.
const Version = 1

// Kind names the operation an instruction invokes.
type Kind string

// Instruction kinds.
const (
	KindEscrowMake         Kind = "escrow.make"
	KindEscrowTake         Kind = "escrow.take"
	KindEscrowRefund       Kind = "escrow.refund"
	KindTokenCreateMint    Kind = "token.createMint"
	KindTokenMintTo        Kind = "token.mintTo"
	KindTokenCreateAccount Kind = "token.createAccount"
	KindTokenTransfer      Kind = "token.transfer"
)

var knownKinds = map[Kind]bool{
	KindEscrowMake:         true,
	KindEscrowTake:         true,
	KindEscrowRefund:       true,
	KindTokenCreateMint:    true,
	KindTokenMintTo:        true,
	KindTokenCreateAccount: true,
	KindTokenTransfer:      true,
}

// Valid reports whether k is a known instruction kind.
func (k Kind) Valid() bool {
	return knownKinds[k]
}

// Transaction is one signed instruction. The signer is the address of
// PubKey; the payload is the kind-specific argument object as compact JSON.
type Transaction struct {
	Version   uint32          `json:"version"`
	Kind      Kind            `json:"kind"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	PubKey    []byte          `json:"pubkey"`
	Signature []byte          `json:"signature"`
}

// txJSON is the JSON form of Transaction with hex-encoded key material.
type txJSON struct {
	Version   uint32          `json:"version"`
	Kind      Kind            `json:"kind"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	PubKey    *string         `json:"pubkey"`
	Signature *string         `json:"signature"`
}

// MarshalJSON encodes the transaction with hex-encoded pubkey and signature.
func (tx Transaction) MarshalJSON() ([]byte, error) {
	j := txJSON{Version: tx.Version, Kind: tx.Kind, Nonce: tx.Nonce, Payload: tx.Payload}
	if tx.PubKey != nil {
		s := hex.EncodeToString(tx.PubKey)
		j.PubKey = &s
	}
	if tx.Signature != nil {
		s := hex.EncodeToString(tx.Signature)
		j.Signature = &s
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a transaction with hex-encoded pubkey and signature.
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	tx.Version, tx.Kind, tx.Nonce, tx.Payload = j.Version, j.Kind, j.Nonce, j.Payload
	if j.PubKey != nil {
		b, err := hex.DecodeString(*j.PubKey)
		if err != nil {
			return err
		}
		tx.PubKey = b
	}
	if j.Signature != nil {
		b, err := hex.DecodeString(*j.Signature)
		if err != nil {
			return err
		}
		tx.Signature = b
	}
	return nil
}

// Hash computes the transaction ID: the BLAKE3 hash of the signing bytes.
// The signature is excluded.
func (tx *Transaction) Hash() types.Hash {
	return crypto.Hash(tx.SigningBytes())
}

// SigningBytes returns the canonical byte representation used for signing.
// Format: version(4) | kind_len(1) | kind | nonce(8) | pubkey_len(1) | pubkey | payload_len(4) | payload
func (tx *Transaction) SigningBytes() []byte {
	buf := make([]byte, 0, 4+1+len(tx.Kind)+8+1+len(tx.PubKey)+4+len(tx.Payload))
	buf = binary.LittleEndian.AppendUint32(buf, tx.Version)
	buf = append(buf, byte(len(tx.Kind)))
	buf = append(buf, tx.Kind...)
	buf = binary.LittleEndian.AppendUint64(buf, tx.Nonce)
	buf = append(buf, byte(len(tx.PubKey)))
	buf = append(buf, tx.PubKey...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(tx.Payload)))
	buf = append(buf, tx.Payload...)
	return buf
}

// DecodePayload unmarshals the payload into v. Unknown fields are rejected.
func (tx *Transaction) DecodePayload(v any) error {
	return decodeStrict(tx.Payload, v)
}
