package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func withHRP(t *testing.T, hrp string) {
	t.Helper()
	old := activeHRP
	SetAddressHRP(hrp)
	t.Cleanup(func() { activeHRP = old })
}

func TestAddress_StringPrefix(t *testing.T) {
	tests := []struct {
		hrp    string
		prefix string
	}{
		{MainnetHRP, "ksw1"},
		{TestnetHRP, "tksw1"},
	}
	for _, tt := range tests {
		t.Run(tt.hrp, func(t *testing.T) {
			withHRP(t, tt.hrp)
			a := Address{0xab, 19: 0xcd}
			if s := a.String(); !strings.HasPrefix(s, tt.prefix) {
				t.Errorf("String() = %s, want prefix %s", s, tt.prefix)
			}
		})
	}
}

func TestAddress_Compare(t *testing.T) {
	a := Address{0x01}
	b := Address{0x02}
	if a.Compare(b) >= 0 || b.Compare(a) <= 0 || a.Compare(a) != 0 {
		t.Error("Compare ordering is wrong")
	}
}

func TestAddress_BytesIsCopy(t *testing.T) {
	a := Address{0x01, 0x02}
	b := a.Bytes()
	b[0] = 0xff
	if a[0] != 0x01 {
		t.Error("Bytes() should return a copy")
	}
}

func TestParseAddress(t *testing.T) {
	withHRP(t, MainnetHRP)

	rawHex := "0123456789abcdef0123456789abcdef01234567"
	a, err := HexToAddress(rawHex)
	if err != nil {
		t.Fatalf("HexToAddress: %v", err)
	}
	mainnet := a.String()
	SetAddressHRP(TestnetHRP)
	testnet := a.String()
	SetAddressHRP(MainnetHRP)

	corrupt := []byte(mainnet)
	if corrupt[len(corrupt)-1] == 'q' {
		corrupt[len(corrupt)-1] = 'p'
	} else {
		corrupt[len(corrupt)-1] = 'q'
	}

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"raw hex", rawHex, false},
		{"bech32 mainnet", mainnet, false},
		{"bech32 testnet", testnet, false},
		{"bad checksum", string(corrupt), true},
		{"unknown prefix", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"short hex", "abcd", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q): %v", tt.input, err)
			}
			if got != a {
				t.Errorf("ParseAddress(%q) = %s, want %s", tt.input, got.Hex(), rawHex)
			}
		})
	}
}

func TestAddress_JSON(t *testing.T) {
	withHRP(t, MainnetHRP)

	original := Address{0xab, 0xcd, 0xef}
	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "ksw1") {
		t.Errorf("JSON should hold bech32, got %s", data)
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("decoded %x, want %x", decoded, original)
	}

	var empty Address
	if err := json.Unmarshal([]byte(`""`), &empty); err != nil || !empty.IsZero() {
		t.Errorf("empty string should decode to zero address, err=%v", err)
	}
}
