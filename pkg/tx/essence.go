package tx

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Payload and essence type tags.
const (
	EssenceTypeTransaction byte   = 1
	InputTypeUTXO          byte   = 0
	PayloadTypeTaggedData  uint32 = 5
	PayloadTypeTransaction uint32 = 6
)

// TaggedData is an opaque payload attached to a transaction essence.
type TaggedData struct {
	Tag  types.HexBytes `json:"tag,omitempty"`
	Data types.HexBytes `json:"data"`
}

// Bytes returns type(4) | tag_len(1) | tag | data_len(4) | data.
func (t *TaggedData) Bytes() []byte {
	buf := make([]byte, 0, 9+len(t.Tag)+len(t.Data))
	buf = binary.LittleEndian.AppendUint32(buf, PayloadTypeTaggedData)
	buf = append(buf, byte(len(t.Tag)))
	buf = append(buf, t.Tag...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(t.Data)))
	return append(buf, t.Data...)
}

// Essence is the signed part of a transaction.
type Essence struct {
	NetworkID        uint64           `json:"networkId"`
	Inputs           []types.OutputID `json:"inputs"`
	InputsCommitment types.Hash       `json:"inputsCommitment"`
	Outputs          []*Output        `json:"outputs"`
	Payload          *TaggedData      `json:"payload,omitempty"`
}

// Bytes returns the canonical serialization used for hashing and signing.
// Format: type(1) | network_id(8) | input_count(2) | [input_type(1) | output_id(34)]... |
// inputs_commitment(32) | output_count(2) | [output]... | payload_len(4) | payload
func (e *Essence) Bytes() []byte {
	var buf []byte
	buf = append(buf, EssenceTypeTransaction)
	buf = binary.LittleEndian.AppendUint64(buf, e.NetworkID)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Inputs)))
	for _, in := range e.Inputs {
		buf = append(buf, InputTypeUTXO)
		buf = append(buf, in.Bytes()...)
	}
	buf = append(buf, e.InputsCommitment[:]...)

	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(e.Outputs)))
	for _, out := range e.Outputs {
		if out == nil {
			continue
		}
		buf = append(buf, out.Bytes()...)
	}

	if e.Payload == nil {
		return binary.LittleEndian.AppendUint32(buf, 0)
	}
	p := e.Payload.Bytes()
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p)))
	return append(buf, p...)
}

// Hash returns the essence hash that every signature unlock signs.
func (e *Essence) Hash() types.Hash {
	return crypto.Hash(e.Bytes())
}

// NetworkIDFromName derives the numeric network id from a network name:
// the first 8 bytes of BLAKE3(name), little-endian.
func NetworkIDFromName(name string) uint64 {
	h := crypto.Hash([]byte(name))
	return binary.LittleEndian.Uint64(h[:8])
}
