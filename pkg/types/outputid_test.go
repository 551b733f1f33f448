package types

import (
	"encoding/json"
	"testing"
)

func TestOutputID_Bytes(t *testing.T) {
	id := NewOutputID(Hash{0xaa}, 0x0102)
	b := id.Bytes()
	if len(b) != OutputIDSize {
		t.Fatalf("Bytes() length = %d, want %d", len(b), OutputIDSize)
	}
	if b[0] != 0xaa {
		t.Errorf("first byte = %x, want aa", b[0])
	}
	// Index is little-endian.
	if b[32] != 0x02 || b[33] != 0x01 {
		t.Errorf("index bytes = %x %x, want 02 01", b[32], b[33])
	}
}

func TestParseOutputID(t *testing.T) {
	id := NewOutputID(Hash{0x01, 0x02}, 7)

	parsed, err := ParseOutputID(id.String())
	if err != nil {
		t.Fatalf("ParseOutputID: %v", err)
	}
	if parsed != id {
		t.Errorf("parsed = %s, want %s", parsed, id)
	}

	if _, err := ParseOutputID("0x1234"); err == nil {
		t.Error("expected error for short output id")
	}
	if _, err := ParseOutputID("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
}

func TestOutputID_JSON(t *testing.T) {
	id := NewOutputID(Hash{0x09}, 1)
	data, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded OutputID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded != id {
		t.Errorf("decoded = %s, want %s", decoded, id)
	}
}
