// Package block defines the block envelope that carries a transaction
// payload onto the ledger.
package block

import (
	"encoding/binary"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Block wraps a transaction payload with the parents it was attached to.
type Block struct {
	ProtocolVersion byte            `json:"protocolVersion"`
	Parents         []types.BlockID `json:"parents"`
	Nonce           uint64          `json:"nonce"`
	Payload         *tx.Payload     `json:"payload"`
}

// NewBlock creates a block for the payload.
func NewBlock(parents []types.BlockID, payload *tx.Payload) *Block {
	return &Block{
		ProtocolVersion: CurrentVersion,
		Parents:         parents,
		Payload:         payload,
	}
}

// Bytes returns the canonical serialization.
// Format: version(1) | parent_count(1) | [parent(32)]... | payload_len(4) | payload | nonce(8)
func (b *Block) Bytes() []byte {
	var buf []byte
	buf = append(buf, b.ProtocolVersion)
	buf = append(buf, byte(len(b.Parents)))
	for _, p := range b.Parents {
		buf = append(buf, p[:]...)
	}
	if b.Payload == nil {
		buf = binary.LittleEndian.AppendUint32(buf, 0)
	} else {
		p := b.Payload.Bytes()
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(p)))
		buf = append(buf, p...)
	}
	return binary.LittleEndian.AppendUint64(buf, b.Nonce)
}

// ID returns the block id, BLAKE3 of the serialized block.
func (b *Block) ID() types.BlockID {
	return crypto.Hash(b.Bytes())
}
