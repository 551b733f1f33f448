package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

// AddressSize is the length of an address hash in bytes.
const AddressSize = 20

// AddressTypeSecp256k1 tags a BLAKE3 public-key-hash address in its
// serialized and bech32 forms.
const AddressTypeSecp256k1 byte = 0x01

// Address HRP (human-readable part) constants for bech32 encoding.
const (
	MainnetHRP = "kgx"
	TestnetHRP = "tkgx"
	DevnetHRP  = "dkgx"
)

// activeHRP is the address HRP used by String() and MarshalJSON().
// Set once at startup via SetAddressHRP(). Default is mainnet.
var activeHRP = MainnetHRP

// SetAddressHRP sets the active address HRP (call once at startup).
func SetAddressHRP(hrp string) {
	activeHRP = hrp
}

// GetAddressHRP returns the currently active address HRP.
func GetAddressHRP() string {
	return activeHRP
}

// Address represents a 160-bit public key hash.
type Address [AddressSize]byte

// IsZero returns true if the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// Bech32 returns the human-encoded address for the given HRP.
// Payload = type(1) | hash(20).
func (a Address) Bech32(hrp string) string {
	payload := make([]byte, 0, AddressSize+1)
	payload = append(payload, AddressTypeSecp256k1)
	payload = append(payload, a[:]...)
	conv, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return hrp + ":" + hex.EncodeToString(a[:])
	}
	s, err := bech32.Encode(hrp, conv)
	if err != nil {
		// Fallback to hex if encoding fails (invalid HRP).
		return hrp + ":" + hex.EncodeToString(a[:])
	}
	return s
}

// String returns the bech32-encoded address using the active HRP.
func (a Address) String() string {
	return a.Bech32(activeHRP)
}

// Hex returns the raw hex-encoded address without prefix.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// Bytes returns a copy of the address as a byte slice.
func (a Address) Bytes() []byte {
	b := make([]byte, AddressSize)
	copy(b, a[:])
	return b
}

// MarshalJSON encodes the address as a bech32 string.
func (a Address) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes a bech32 or raw hex string into an address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*a = Address{}
		return nil
	}
	parsed, err := ParseAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress parses a bech32 address of any HRP or a raw 40-char hex address.
func ParseAddress(s string) (Address, error) {
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}
	if isHex40(s) {
		return HexToAddress(s)
	}
	_, a, err := ParseBech32(s)
	return a, err
}

// ParseBech32 decodes a bech32 address and returns its HRP.
func ParseBech32(s string) (string, Address, error) {
	hrp, data, err := bech32.Decode(s)
	if err != nil {
		return "", Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", Address{}, fmt.Errorf("invalid bech32 address: %w", err)
	}
	if len(payload) != AddressSize+1 {
		return "", Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize+1, len(payload))
	}
	if payload[0] != AddressTypeSecp256k1 {
		return "", Address{}, fmt.Errorf("unsupported address type 0x%02x", payload[0])
	}
	var a Address
	copy(a[:], payload[1:])
	return strings.ToLower(hrp), a, nil
}

// HexToAddress converts a raw hex string to an Address.
// Returns an error if the string is not exactly 40 hex characters.
func HexToAddress(s string) (Address, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid hex: %w", err)
	}
	if len(b) != AddressSize {
		return Address{}, fmt.Errorf("address must be %d bytes, got %d", AddressSize, len(b))
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// isHex40 returns true if s is exactly 40 hex characters.
func isHex40(s string) bool {
	if len(s) != 40 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
