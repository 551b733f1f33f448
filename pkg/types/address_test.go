package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestAddress_IsZero(t *testing.T) {
	var zero Address
	if !zero.IsZero() {
		t.Error("zero-value Address should be zero")
	}

	nonZero := Address{0x01}
	if nonZero.IsZero() {
		t.Error("non-zero Address should not be zero")
	}
}

func TestAddress_String(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	var a Address
	if s := a.String(); !strings.HasPrefix(s, "kgx1") {
		t.Errorf("String() should start with 'kgx1', got %s", s)
	}

	SetAddressHRP(DevnetHRP)
	if s := a.String(); !strings.HasPrefix(s, "dkgx1") {
		t.Errorf("String() should start with 'dkgx1', got %s", s)
	}
}

func TestAddress_Bech32_Roundtrip(t *testing.T) {
	a := Address{0x8f, 0x3a, 0x44, 0xb8, 0x05, 0x6c, 0xaf, 0xec, 0x36, 0x8d,
		0xea, 0x0c, 0xbe, 0x0a, 0xd1, 0xd9, 0xbc, 0x3f, 0x43, 0x05}

	for _, hrp := range []string{MainnetHRP, TestnetHRP, DevnetHRP} {
		s := a.Bech32(hrp)
		gotHRP, parsed, err := ParseBech32(s)
		if err != nil {
			t.Fatalf("ParseBech32(%q): %v", s, err)
		}
		if gotHRP != hrp {
			t.Errorf("hrp = %q, want %q", gotHRP, hrp)
		}
		if parsed != a {
			t.Errorf("roundtrip mismatch: got %x, want %x", parsed, a)
		}
	}
}

func TestAddress_RawAndHumanForms(t *testing.T) {
	a := Address{0xab, 0xcd}

	viaHex, err := ParseAddress(a.Hex())
	if err != nil {
		t.Fatalf("ParseAddress(hex): %v", err)
	}
	viaBech, err := ParseAddress(a.Bech32(TestnetHRP))
	if err != nil {
		t.Fatalf("ParseAddress(bech32): %v", err)
	}
	if viaHex != a || viaBech != a {
		t.Errorf("conversion not lossless: hex=%x bech=%x want=%x", viaHex, viaBech, a)
	}
	if a.Bech32(TestnetHRP) != a.Bech32(TestnetHRP) {
		t.Error("Bech32 should be deterministic")
	}
}

func TestAddress_Hex(t *testing.T) {
	a := Address{0xab, 0xcd}
	h := a.Hex()
	if len(h) != 40 {
		t.Errorf("Hex() length = %d, want 40", len(h))
	}
	if !strings.HasPrefix(h, "abcd") {
		t.Errorf("Hex() should start with 'abcd', got %s", h[:4])
	}
}

func TestAddress_Bytes(t *testing.T) {
	a := Address{0x01, 0x02, 0x03}
	b := a.Bytes()

	if len(b) != AddressSize {
		t.Errorf("Bytes() length = %d, want %d", len(b), AddressSize)
	}

	b[0] = 0xFF
	if a[0] == 0xFF {
		t.Error("Bytes() should return a copy, not a reference")
	}
}

func TestHexToAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid 40 hex chars", input: "0123456789abcdef0123456789abcdef01234567"},
		{name: "all zeros", input: strings.Repeat("0", 40)},
		{name: "too short", input: "abcd", wantErr: true},
		{name: "too long", input: strings.Repeat("a", 42), wantErr: true},
		{name: "invalid hex", input: strings.Repeat("z", 40), wantErr: true},
		{name: "empty string", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := HexToAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("HexToAddress(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("HexToAddress(%q) unexpected error: %v", tt.input, err)
			}
			if a.Hex() != tt.input {
				t.Errorf("roundtrip: got %s, want %s", a.Hex(), tt.input)
			}
		})
	}
}

func TestParseAddress(t *testing.T) {
	rawHex := "0123456789abcdef0123456789abcdef01234567"
	a, _ := HexToAddress(rawHex)

	good := a.Bech32(MainnetHRP)
	last := byte('q')
	if good[len(good)-1] == 'q' {
		last = 'p'
	}
	badChecksum := good[:len(good)-1] + string(last)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"raw hex", rawHex, false},
		{"bech32 mainnet", a.Bech32(MainnetHRP), false},
		{"bech32 devnet", a.Bech32(DevnetHRP), false},
		{"invalid bech32", "kgx1invalid!!!", true},
		{"bad checksum", badChecksum, true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAddress(%q) should have returned error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) unexpected error: %v", tt.input, err)
			}
			if got.Hex() != rawHex {
				t.Errorf("ParseAddress(%q) hex = %s, want %s", tt.input, got.Hex(), rawHex)
			}
		})
	}
}

func TestAddress_JSON_RoundTrip(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(MainnetHRP)

	original := Address{0xab, 0xcd, 0xef}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), "kgx1") {
		t.Errorf("JSON should contain bech32 format, got %s", string(data))
	}

	var decoded Address
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if original != decoded {
		t.Errorf("roundtrip mismatch: original=%x, decoded=%x", original, decoded)
	}
}

func TestSetAddressHRP(t *testing.T) {
	oldHRP := activeHRP
	defer func() { activeHRP = oldHRP }()

	SetAddressHRP(TestnetHRP)
	if GetAddressHRP() != TestnetHRP {
		t.Errorf("GetAddressHRP() = %s, want %s", GetAddressHRP(), TestnetHRP)
	}
}
