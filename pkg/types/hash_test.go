package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestHexToHash(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262", false},
		{"zeros", strings.Repeat("0", 64), false},
		{"short", "abcd", true},
		{"long", strings.Repeat("a", 66), true},
		{"not hex", strings.Repeat("g", 64), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := HexToHash(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("HexToHash(%q) should fail", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToHash(%q): %v", tt.input, err)
			}
			if h.String() != tt.input {
				t.Errorf("String() = %s, want %s", h, tt.input)
			}
		})
	}
}

func TestHash_JSON(t *testing.T) {
	h := Hash{0xde, 0xad, 31: 0x01}
	data, err := json.Marshal(h)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var got Hash
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got != h {
		t.Errorf("got %s, want %s", got, h)
	}
	if err := json.Unmarshal([]byte(`"zz"`), &got); err == nil {
		t.Error("invalid hex should fail")
	}
}
