package tx

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// UnlockType tags the unlock variants.
type UnlockType byte

// Unlock variants.
const (
	UnlockTypeSignature UnlockType = 0
	UnlockTypeReference UnlockType = 1
)

func (t UnlockType) String() string {
	switch t {
	case UnlockTypeSignature:
		return "signature"
	case UnlockTypeReference:
		return "reference"
	default:
		return fmt.Sprintf("unknown(%d)", byte(t))
	}
}

// Unlock proves authority to spend one input. It is either a
// *SignatureUnlock or a *ReferenceUnlock.
type Unlock interface {
	Type() UnlockType
	Bytes() []byte
}

// SignatureUnlock carries a public key and its Schnorr signature over the
// essence hash.
type SignatureUnlock struct {
	PublicKey types.HexBytes `json:"publicKey"`
	Signature types.HexBytes `json:"signature"`
}

// Type implements Unlock.
func (u *SignatureUnlock) Type() UnlockType { return UnlockTypeSignature }

// Bytes returns type(1) | pubkey(33) | signature(64).
func (u *SignatureUnlock) Bytes() []byte {
	buf := make([]byte, 0, 1+len(u.PublicKey)+len(u.Signature))
	buf = append(buf, byte(UnlockTypeSignature))
	buf = append(buf, u.PublicKey...)
	return append(buf, u.Signature...)
}

// ReferenceUnlock reuses the signature unlock at index Reference, for
// inputs owned by the same address.
type ReferenceUnlock struct {
	Reference uint16 `json:"reference"`
}

// Type implements Unlock.
func (u *ReferenceUnlock) Type() UnlockType { return UnlockTypeReference }

// Bytes returns type(1) | reference(2).
func (u *ReferenceUnlock) Bytes() []byte {
	return binary.LittleEndian.AppendUint16([]byte{byte(UnlockTypeReference)}, u.Reference)
}

// Unlocks is an ordered unlock list, one entry per input.
type Unlocks []Unlock

type unlockJSON struct {
	Type      UnlockType     `json:"type"`
	PublicKey types.HexBytes `json:"publicKey,omitempty"`
	Signature types.HexBytes `json:"signature,omitempty"`
	Reference *uint16        `json:"reference,omitempty"`
}

// MarshalJSON encodes each unlock with an explicit type tag.
func (us Unlocks) MarshalJSON() ([]byte, error) {
	out := make([]unlockJSON, len(us))
	for i, u := range us {
		switch v := u.(type) {
		case *SignatureUnlock:
			out[i] = unlockJSON{Type: UnlockTypeSignature, PublicKey: v.PublicKey, Signature: v.Signature}
		case *ReferenceUnlock:
			ref := v.Reference
			out[i] = unlockJSON{Type: UnlockTypeReference, Reference: &ref}
		default:
			return nil, fmt.Errorf("unlock %d: unsupported type %T", i, u)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a tagged unlock list.
func (us *Unlocks) UnmarshalJSON(data []byte) error {
	var raw []unlockJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*us = nil
		return nil
	}
	list := make(Unlocks, len(raw))
	for i, j := range raw {
		switch j.Type {
		case UnlockTypeSignature:
			list[i] = &SignatureUnlock{PublicKey: j.PublicKey, Signature: j.Signature}
		case UnlockTypeReference:
			if j.Reference == nil {
				return fmt.Errorf("unlock %d: reference unlock without index", i)
			}
			list[i] = &ReferenceUnlock{Reference: *j.Reference}
		default:
			return fmt.Errorf("unlock %d: %w: %s", i, ErrInvalidUnlock, j.Type)
		}
	}
	*us = list
	return nil
}
