package tx

import "github.com/Klingon-tech/klingnet-stamp/pkg/types"

// Default rent parameters.
const (
	DefaultVByteCost       = 100
	DefaultVByteFactorData = 1
	DefaultVByteFactorKey  = 10
)

// outputOffsetData is the per-output bookkeeping a node stores beside the
// output itself: block id(32) | confirmation index(4) | timestamp(4).
const outputOffsetData = types.HashSize + 4 + 4

// RentStructure prices ledger storage. Every output must lock at least
// MinDeposit base units.
type RentStructure struct {
	VByteCost       uint32 `json:"vByteCost"`
	VByteFactorData uint8  `json:"vByteFactorData"`
	VByteFactorKey  uint8  `json:"vByteFactorKey"`
}

// DefaultRentStructure returns the devnet rent parameters.
func DefaultRentStructure() RentStructure {
	return RentStructure{
		VByteCost:       DefaultVByteCost,
		VByteFactorData: DefaultVByteFactorData,
		VByteFactorKey:  DefaultVByteFactorKey,
	}
}

// MinDeposit returns the storage deposit required for out. The output's
// own amount does not affect its serialized size, so a zero-amount
// provisional output gives the same answer.
func (r RentStructure) MinDeposit(out *Output) uint64 {
	key := uint64(r.VByteFactorKey) * types.OutputIDSize
	data := uint64(r.VByteFactorData) * (outputOffsetData + uint64(len(out.Bytes())))
	return uint64(r.VByteCost) * (key + data)
}
