package block

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Validation errors.
var (
	ErrBadVersion      = errors.New("unsupported protocol version")
	ErrNoParents       = errors.New("block has no parents")
	ErrTooManyParents  = errors.New("too many parents")
	ErrDuplicateParent = errors.New("duplicate parent")
	ErrNilPayload      = errors.New("block has no payload")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Protocol constants.
const (
	CurrentVersion = 2
	MinParents     = 1
	MaxParents     = 8
	MaxPayloadSize = 32 * 1024
)

// Validate checks block structure and the payload's own structure.
// Ledger-state checks are done by the node that accepts the block.
func (b *Block) Validate() error {
	if b.ProtocolVersion != CurrentVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrBadVersion, b.ProtocolVersion, CurrentVersion)
	}
	if len(b.Parents) < MinParents {
		return ErrNoParents
	}
	if len(b.Parents) > MaxParents {
		return fmt.Errorf("%w: %d parents, max %d", ErrTooManyParents, len(b.Parents), MaxParents)
	}
	seen := make(map[types.BlockID]bool, len(b.Parents))
	for i, p := range b.Parents {
		if seen[p] {
			return fmt.Errorf("parent %d: %w", i, ErrDuplicateParent)
		}
		seen[p] = true
	}
	if b.Payload == nil {
		return ErrNilPayload
	}
	if size := len(b.Payload.Bytes()); size > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, size, MaxPayloadSize)
	}
	if err := b.Payload.Validate(); err != nil {
		return fmt.Errorf("payload: %w", err)
	}
	return nil
}
