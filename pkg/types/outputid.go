package types

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// OutputIDSize is the serialized length of an output ID: txid(32) | index(2).
const OutputIDSize = HashSize + 2

// OutputID references a specific output of a transaction.
type OutputID struct {
	TxID  TransactionID
	Index uint16
}

// NewOutputID returns the deterministic ID of output index of txID.
func NewOutputID(txID TransactionID, index uint16) OutputID {
	return OutputID{TxID: txID, Index: index}
}

// IsZero returns true if the output ID has a zero TxID and zero index.
func (o OutputID) IsZero() bool {
	return o.TxID.IsZero() && o.Index == 0
}

// Bytes returns the 34-byte serialized form (index little-endian).
func (o OutputID) Bytes() []byte {
	buf := make([]byte, 0, OutputIDSize)
	buf = append(buf, o.TxID[:]...)
	return binary.LittleEndian.AppendUint16(buf, o.Index)
}

// String returns the 0x-prefixed hex of Bytes().
func (o OutputID) String() string {
	return "0x" + hex.EncodeToString(o.Bytes())
}

// ParseOutputID parses the hex form produced by String.
func ParseOutputID(s string) (OutputID, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return OutputID{}, fmt.Errorf("invalid output id hex: %w", err)
	}
	return OutputIDFromBytes(b)
}

// OutputIDFromBytes decodes the form produced by Bytes.
func OutputIDFromBytes(b []byte) (OutputID, error) {
	if len(b) != OutputIDSize {
		return OutputID{}, fmt.Errorf("output id must be %d bytes, got %d", OutputIDSize, len(b))
	}
	var o OutputID
	copy(o.TxID[:], b[:HashSize])
	o.Index = binary.LittleEndian.Uint16(b[HashSize:])
	return o, nil
}

// MarshalJSON encodes the output ID as a hex string.
func (o OutputID) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes a hex string into an output ID.
func (o *OutputID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOutputID(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
