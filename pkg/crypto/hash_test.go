package crypto

import (
	"bytes"
	"testing"

	"github.com/Klingon-tech/klingswap/pkg/types"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  string
	}{
		{"empty input", []byte{}, "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"},
		{"hello", []byte("hello"), "ea8f163db38682925e4491c5e58d4bb3506ef8c14eb78a86e908c5624a67200f"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want, err := types.HexToHash(tt.want)
			if err != nil {
				t.Fatalf("bad vector: %v", err)
			}
			if got := Hash(tt.input); got != want {
				t.Errorf("Hash(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestHashParts_EqualsConcat(t *testing.T) {
	a, b, c := []byte("escrow"), []byte{1, 2, 3}, []byte{}
	joined := bytes.Join([][]byte{a, b, c}, nil)
	if HashParts(a, b, c) != Hash(joined) {
		t.Error("HashParts should equal Hash of the concatenation")
	}
}

func TestAddressFromPubKey(t *testing.T) {
	key, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	pub := key.PublicKey()
	h := Hash(pub)
	addr := AddressFromPubKey(pub)
	if !bytes.Equal(addr[:], h[:types.AddressSize]) {
		t.Error("address should be the 20-byte hash prefix")
	}
	if key.Address() != addr {
		t.Error("PrivateKey.Address should match AddressFromPubKey")
	}
}

func TestProgramID(t *testing.T) {
	a := ProgramID("escrow")
	if a != ProgramID("escrow") {
		t.Error("ProgramID must be deterministic")
	}
	if a == ProgramID("token") {
		t.Error("distinct names must give distinct program IDs")
	}
	if a.IsZero() {
		t.Error("program ID should not be zero")
	}
}
