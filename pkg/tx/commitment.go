package tx

import (
	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// InputsCommitment binds an essence to the exact outputs it consumes:
// BLAKE3 over the concatenated BLAKE3 hashes of each consumed output,
// in input order.
func InputsCommitment(consumed []*Output) types.Hash {
	parts := make([][]byte, 0, len(consumed))
	for _, out := range consumed {
		h := crypto.Hash(out.Bytes())
		parts = append(parts, h[:])
	}
	return crypto.HashAll(parts...)
}
