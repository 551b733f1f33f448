// Package metadata encodes application payloads carried by outputs and
// tagged data: compact UTF-8 JSON, written as 0x-prefixed hex on the wire.
package metadata

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Decoding errors.
var (
	ErrInvalidHex  = errors.New("metadata is not valid hex")
	ErrInvalidJSON = errors.New("metadata is not valid JSON")
	ErrEmpty       = errors.New("metadata is empty")
)

// Marshal returns the compact JSON form of v.
func Marshal(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return b, nil
}

// Unmarshal parses JSON metadata into v.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmpty
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// EncodeHex returns the 0x-prefixed hex form of raw bytes.
func EncodeHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// DecodeHex parses hex with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidHex, err)
	}
	return b, nil
}

// Encode serializes v to JSON and hex-encodes it.
func Encode(v any) (string, error) {
	b, err := Marshal(v)
	if err != nil {
		return "", err
	}
	return EncodeHex(b), nil
}

// Decode reverses Encode.
func Decode(s string, v any) error {
	b, err := DecodeHex(s)
	if err != nil {
		return err
	}
	return Unmarshal(b, v)
}
