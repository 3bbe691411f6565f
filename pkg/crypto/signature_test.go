package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func mustKey(t *testing.T) *PrivateKey {
	t.Helper()
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return key
}

func TestPrivateKey_Sizes(t *testing.T) {
	key := mustKey(t)
	if n := len(key.PublicKey()); n != PublicKeySize {
		t.Errorf("PublicKey() length = %d, want %d", n, PublicKeySize)
	}
	if n := len(key.Serialize()); n != PrivateKeySize {
		t.Errorf("Serialize() length = %d, want %d", n, PrivateKeySize)
	}
}

func TestPrivateKeyFromBytes(t *testing.T) {
	key := mustKey(t)
	restored, err := PrivateKeyFromBytes(key.Serialize())
	if err != nil {
		t.Fatalf("PrivateKeyFromBytes: %v", err)
	}
	if !bytes.Equal(restored.PublicKey(), key.PublicKey()) {
		t.Error("restored key has a different public key")
	}

	for _, n := range []int{0, 31, 33} {
		if _, err := PrivateKeyFromBytes(make([]byte, n)); err == nil {
			t.Errorf("PrivateKeyFromBytes(%d bytes) should fail", n)
		}
	}
}

func TestSignVerify(t *testing.T) {
	key := mustKey(t)
	other := mustKey(t)
	hash := Hash([]byte("make escrow"))

	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != SignatureSize {
		t.Fatalf("signature length = %d, want %d", len(sig), SignatureSize)
	}

	wrongHash := Hash([]byte("take escrow"))
	corrupted := append([]byte(nil), sig...)
	corrupted[10] ^= 0xff

	tests := []struct {
		name string
		hash []byte
		sig  []byte
		pub  []byte
		want bool
	}{
		{"valid", hash[:], sig, key.PublicKey(), true},
		{"wrong hash", wrongHash[:], sig, key.PublicKey(), false},
		{"wrong key", hash[:], sig, other.PublicKey(), false},
		{"corrupted", hash[:], corrupted, key.PublicKey(), false},
		{"garbage pubkey", hash[:], sig, []byte{1, 2, 3}, false},
		{"short sig", hash[:], sig[:10], key.PublicKey(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(tt.hash, tt.sig, tt.pub); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := key.Sign([]byte("short")); err == nil {
		t.Error("signing a non-32-byte hash should fail")
	}
}

func TestRecoverSigner(t *testing.T) {
	key := mustKey(t)
	hash := Hash([]byte("refund"))
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	addr, err := RecoverSigner(hash[:], sig, key.PublicKey())
	if err != nil {
		t.Fatalf("RecoverSigner: %v", err)
	}
	if addr != key.Address() {
		t.Errorf("signer = %s, want %s", addr, key.Address())
	}

	other := mustKey(t)
	if _, err := RecoverSigner(hash[:], sig, other.PublicKey()); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("expected ErrInvalidSignature, got %v", err)
	}
}
