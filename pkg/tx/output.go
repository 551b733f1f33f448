// Package tx defines the ledger transaction types: outputs, essences,
// unlocks and signed transaction payloads.
package tx

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Serialization tags.
const (
	OutputTypeBasic        byte = 3
	UnlockConditionAddress byte = 0
	FeatureMetadata        byte = 2
)

// MaxMetadataLength is the largest metadata feature an output may carry.
const MaxMetadataLength = 8192

// Output is a basic output: an amount locked to an address, optionally
// carrying a metadata feature.
type Output struct {
	Amount   uint64         `json:"amount"`
	Address  types.Address  `json:"address"`
	Metadata types.HexBytes `json:"metadata,omitempty"`
}

// NewOutput returns a basic output with the given fields.
func NewOutput(amount uint64, addr types.Address, metadata []byte) *Output {
	return &Output{Amount: amount, Address: addr, Metadata: metadata}
}

// Bytes returns the canonical serialization of the output.
// Format: type(1) | amount(8) | native_tokens(1)=0 | conditions(1)=1 |
// [cond_type(1) | addr_type(1) | addr(20)] | features(1) |
// [feature_type(1) | len(2) | data]
func (o *Output) Bytes() []byte {
	buf := make([]byte, 0, 34+3+len(o.Metadata))
	buf = append(buf, OutputTypeBasic)
	buf = binary.LittleEndian.AppendUint64(buf, o.Amount)
	buf = append(buf, 0)
	buf = append(buf, 1, UnlockConditionAddress, types.AddressTypeSecp256k1)
	buf = append(buf, o.Address[:]...)
	if len(o.Metadata) == 0 {
		return append(buf, 0)
	}
	buf = append(buf, 1, FeatureMetadata)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(o.Metadata)))
	return append(buf, o.Metadata...)
}

// Clone returns a deep copy of the output.
func (o *Output) Clone() *Output {
	c := *o
	if o.Metadata != nil {
		c.Metadata = append(types.HexBytes(nil), o.Metadata...)
	}
	return &c
}

// SumAmounts totals the amounts of outputs, failing on uint64 overflow.
func SumAmounts(outs []*Output) (uint64, error) {
	var total uint64
	for i, out := range outs {
		if total > math.MaxUint64-out.Amount {
			return 0, fmt.Errorf("output %d: %w", i, ErrAmountOverflow)
		}
		total += out.Amount
	}
	return total, nil
}
