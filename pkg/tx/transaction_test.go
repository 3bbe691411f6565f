package tx

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Klingon-tech/klingswap/pkg/crypto"
	"github.com/Klingon-tech/klingswap/pkg/types"
)

func signedTake(t *testing.T, key *crypto.PrivateKey, nonce uint64) *Transaction {
	t.Helper()
	b := NewBuilder(KindEscrowTake).
		SetNonce(nonce).
		SetPayload(TakePayload{Escrow: types.Address{0x01}})
	if err := b.Sign(key); err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	transaction, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return transaction
}

func TestTransaction_Hash_Deterministic(t *testing.T) {
	tx := &Transaction{Version: Version, Kind: KindEscrowRefund, Payload: []byte(`{}`)}
	h1 := tx.Hash()
	h2 := tx.Hash()
	if h1 != h2 {
		t.Error("Hash() should be deterministic")
	}
	if h1.IsZero() {
		t.Error("Hash() should not be zero")
	}
}

func TestTransaction_Hash_ChangesWithContent(t *testing.T) {
	base := Transaction{Version: Version, Kind: KindEscrowRefund, Nonce: 1, Payload: []byte(`{}`), PubKey: []byte{0x02}}
	variants := map[string]Transaction{
		"kind":    {Version: Version, Kind: KindEscrowTake, Nonce: 1, Payload: []byte(`{}`), PubKey: []byte{0x02}},
		"nonce":   {Version: Version, Kind: KindEscrowRefund, Nonce: 2, Payload: []byte(`{}`), PubKey: []byte{0x02}},
		"payload": {Version: Version, Kind: KindEscrowRefund, Nonce: 1, Payload: []byte(`{"a":1}`), PubKey: []byte{0x02}},
		"pubkey":  {Version: Version, Kind: KindEscrowRefund, Nonce: 1, Payload: []byte(`{}`), PubKey: []byte{0x03}},
	}
	for name, v := range variants {
		if v.Hash() == base.Hash() {
			t.Errorf("changing %s should change the hash", name)
		}
	}
}

func TestTransaction_Hash_IgnoresSignature(t *testing.T) {
	tx := &Transaction{Version: Version, Kind: KindEscrowRefund, Payload: []byte(`{}`)}
	h1 := tx.Hash()
	tx.Signature = []byte("some signature")
	if tx.Hash() != h1 {
		t.Error("Hash() should not change when a signature is added")
	}
}

func TestBuilder_SignAndRecover(t *testing.T) {
	key, _ := crypto.GenerateKey()
	transaction := signedTake(t, key, 7)

	signer, err := transaction.Signer()
	if err != nil {
		t.Fatalf("Signer() error: %v", err)
	}
	if signer != key.Address() {
		t.Errorf("signer = %s, want %s", signer, key.Address())
	}

	var p TakePayload
	if err := transaction.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if p.Escrow != (types.Address{0x01}) {
		t.Errorf("payload escrow = %s", p.Escrow)
	}
}

func TestTransaction_JSONKeepsSignatureValid(t *testing.T) {
	key, _ := crypto.GenerateKey()
	transaction := signedTake(t, key, 1)

	data, err := json.Marshal(transaction)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Transaction
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Hash() != transaction.Hash() {
		t.Error("hash changed over JSON")
	}
	if _, err := decoded.Signer(); err != nil {
		t.Errorf("Signer() after JSON: %v", err)
	}
}

func TestTransaction_Signer_Tampered(t *testing.T) {
	key, _ := crypto.GenerateKey()
	other, _ := crypto.GenerateKey()

	tests := []struct {
		name   string
		tamper func(*Transaction)
	}{
		{"payload", func(tx *Transaction) { tx.Payload = []byte(`{"escrow":"` + types.Address{0x02}.Hex() + `"}`) }},
		{"nonce", func(tx *Transaction) { tx.Nonce++ }},
		{"kind", func(tx *Transaction) { tx.Kind = KindEscrowRefund }},
		{"pubkey", func(tx *Transaction) { tx.PubKey = other.PublicKey() }},
		{"signature", func(tx *Transaction) { tx.Signature[0] ^= 0x01 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transaction := signedTake(t, key, 1)
			tt.tamper(transaction)
			if _, err := transaction.Signer(); !errors.Is(err, ErrInvalidSig) {
				t.Errorf("Signer() = %v, want ErrInvalidSig", err)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	key, _ := crypto.GenerateKey()
	tests := []struct {
		name   string
		modify func(*Transaction)
		want   error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"version", func(tx *Transaction) { tx.Version = 2 }, ErrUnsupportedVersion},
		{"unknown kind", func(tx *Transaction) { tx.Kind = "escrow.steal" }, ErrUnknownKind},
		{"no payload", func(tx *Transaction) { tx.Payload = nil }, ErrEmptyPayload},
		{"large payload", func(tx *Transaction) { tx.Payload = make([]byte, MaxPayloadSize+1) }, ErrPayloadTooLarge},
		{"no pubkey", func(tx *Transaction) { tx.PubKey = nil }, ErrMissingPubKey},
		{"no signature", func(tx *Transaction) { tx.Signature = nil }, ErrMissingSig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transaction := signedTake(t, key, 1)
			tt.modify(transaction)
			err := transaction.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodePayload_Strict(t *testing.T) {
	tx := &Transaction{Payload: []byte(`{"escrow":"` + types.Address{0x01}.Hex() + `","bogus":1}`)}
	var p RefundPayload
	if err := tx.DecodePayload(&p); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("unknown field: err = %v, want ErrInvalidPayload", err)
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", "0", false},
		{"1", "1", false},
		{"18446744073709551616", "18446744073709551616", false},
		{"007", "7", false},
		{"1" + strings.Repeat("0", 83), maxAmount.Dec(), false},
		{"-1", "", true},
		{"+1", "", true},
		{"abc", "", true},
		{"1" + strings.Repeat("0", 82) + "x", "", true},
	}
	for _, tt := range tests {
		got, err := ParseAmount(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("ParseAmount(%q): err = %v, want ErrInvalidPayload", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", tt.in, err)
			continue
		}
		if got.Dec() != tt.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.in, got.Dec(), tt.want)
		}
	}
}
