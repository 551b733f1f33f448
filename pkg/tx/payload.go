package tx

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Payload is a signed transaction: an essence plus one unlock per input.
type Payload struct {
	Essence *Essence `json:"essence"`
	Unlocks Unlocks  `json:"unlocks"`
}

// Bytes returns type(4) | essence | unlock_count(2) | [unlock]...
func (p *Payload) Bytes() []byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, PayloadTypeTransaction)
	if p.Essence != nil {
		buf = append(buf, p.Essence.Bytes()...)
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(p.Unlocks)))
	for _, u := range p.Unlocks {
		if u == nil {
			continue
		}
		buf = append(buf, u.Bytes()...)
	}
	return buf
}

// ID returns the transaction id, BLAKE3 of the serialized payload.
func (p *Payload) ID() types.TransactionID {
	return crypto.Hash(p.Bytes())
}

// OutputID returns the id of the output at index created by this transaction.
func (p *Payload) OutputID(index uint16) types.OutputID {
	return types.NewOutputID(p.ID(), index)
}
