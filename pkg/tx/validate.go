package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Transaction limits.
const (
	MaxInputs  = 128
	MaxOutputs = 128
)

// Validation errors.
var (
	ErrNilEssence       = errors.New("transaction has no essence")
	ErrNoInputs         = errors.New("transaction has no inputs")
	ErrNoOutputs        = errors.New("transaction has no outputs")
	ErrTooManyInputs    = errors.New("too many inputs")
	ErrTooManyOutputs   = errors.New("too many outputs")
	ErrDuplicateInput   = errors.New("duplicate input")
	ErrZeroAmount       = errors.New("output amount is zero")
	ErrAmountOverflow   = errors.New("output amounts overflow")
	ErrMetadataTooLarge = errors.New("metadata too large")
	ErrUnlockCount      = errors.New("unlock count does not match input count")
	ErrInvalidUnlock    = errors.New("invalid unlock")
	ErrMissingPubKey    = errors.New("signature unlock missing public key")
	ErrMissingSig       = errors.New("signature unlock missing signature")
)

// Validate checks payload structure. It does not look at the consumed
// outputs (see VerifyAgainst).
func (p *Payload) Validate() error {
	e := p.Essence
	if e == nil {
		return ErrNilEssence
	}
	if len(e.Inputs) == 0 {
		return ErrNoInputs
	}
	if len(e.Outputs) == 0 {
		return ErrNoOutputs
	}
	if len(e.Inputs) > MaxInputs {
		return fmt.Errorf("%w: %d inputs, max %d", ErrTooManyInputs, len(e.Inputs), MaxInputs)
	}
	if len(e.Outputs) > MaxOutputs {
		return fmt.Errorf("%w: %d outputs, max %d", ErrTooManyOutputs, len(e.Outputs), MaxOutputs)
	}

	seen := make(map[types.OutputID]bool, len(e.Inputs))
	for i, in := range e.Inputs {
		if seen[in] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[in] = true
	}

	var total uint64
	for i, out := range e.Outputs {
		if out == nil || out.Amount == 0 {
			return fmt.Errorf("output %d: %w", i, ErrZeroAmount)
		}
		if len(out.Metadata) > MaxMetadataLength {
			return fmt.Errorf("output %d: %w: %d bytes, max %d", i, ErrMetadataTooLarge, len(out.Metadata), MaxMetadataLength)
		}
		if total > math.MaxUint64-out.Amount {
			return fmt.Errorf("output %d: %w", i, ErrAmountOverflow)
		}
		total += out.Amount
	}

	return p.validateUnlocks()
}

// validateUnlocks checks the unlock shape: one per input, the first is a
// signature, and every reference points back to an earlier signature.
func (p *Payload) validateUnlocks() error {
	if len(p.Unlocks) != len(p.Essence.Inputs) {
		return fmt.Errorf("%w: %d unlocks, %d inputs", ErrUnlockCount, len(p.Unlocks), len(p.Essence.Inputs))
	}
	for i, u := range p.Unlocks {
		switch v := u.(type) {
		case *SignatureUnlock:
			if len(v.PublicKey) == 0 {
				return fmt.Errorf("unlock %d: %w", i, ErrMissingPubKey)
			}
			if len(v.Signature) == 0 {
				return fmt.Errorf("unlock %d: %w", i, ErrMissingSig)
			}
		case *ReferenceUnlock:
			if int(v.Reference) >= i {
				return fmt.Errorf("unlock %d: %w: reference %d is not an earlier unlock", i, ErrInvalidUnlock, v.Reference)
			}
			if _, ok := p.Unlocks[v.Reference].(*SignatureUnlock); !ok {
				return fmt.Errorf("unlock %d: %w: reference %d is not a signature unlock", i, ErrInvalidUnlock, v.Reference)
			}
		default:
			return fmt.Errorf("unlock %d: %w: %T", i, ErrInvalidUnlock, u)
		}
	}
	return nil
}
