package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
)

// Ledger-aware validation errors.
var (
	ErrNetworkMismatch    = errors.New("network id mismatch")
	ErrConsumedCount      = errors.New("consumed output count does not match inputs")
	ErrCommitmentMismatch = errors.New("inputs commitment mismatch")
	ErrBelowDeposit       = errors.New("output amount below storage deposit")
	ErrAmountMismatch     = errors.New("input and output amounts differ")
	ErrInputOverflow      = errors.New("input amounts overflow")
	ErrAddressMismatch    = errors.New("unlock does not match output address")
	ErrInvalidSig         = errors.New("invalid signature")
)

// Params are the protocol parameters a payload is checked against.
type Params struct {
	NetworkID uint64
	Rent      RentStructure
}

// VerifyAgainst performs full validation of the payload given the outputs
// it consumes, in input order. It checks structure, network id, inputs
// commitment, storage deposits, conservation of amounts and every unlock.
func (p *Payload) VerifyAgainst(consumed []*Output, params Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	e := p.Essence

	if e.NetworkID != params.NetworkID {
		return fmt.Errorf("%w: got %d, want %d", ErrNetworkMismatch, e.NetworkID, params.NetworkID)
	}
	if len(consumed) != len(e.Inputs) {
		return fmt.Errorf("%w: %d consumed, %d inputs", ErrConsumedCount, len(consumed), len(e.Inputs))
	}
	if InputsCommitment(consumed) != e.InputsCommitment {
		return ErrCommitmentMismatch
	}

	for i, out := range e.Outputs {
		if need := params.Rent.MinDeposit(out); out.Amount < need {
			return fmt.Errorf("output %d: %w: %d < %d", i, ErrBelowDeposit, out.Amount, need)
		}
	}

	var totalIn uint64
	for i, out := range consumed {
		if totalIn > math.MaxUint64-out.Amount {
			return fmt.Errorf("input %d: %w", i, ErrInputOverflow)
		}
		totalIn += out.Amount
	}
	totalOut, err := SumAmounts(e.Outputs)
	if err != nil {
		return err
	}
	if totalIn != totalOut {
		return fmt.Errorf("%w: inputs=%d outputs=%d", ErrAmountMismatch, totalIn, totalOut)
	}

	return p.verifyUnlocks(consumed)
}

// verifyUnlocks resolves each input's unlock to a signature unlock and checks
// that its key owns the consumed output and signed the essence hash. Every
// owner is checked before any signature.
func (p *Payload) verifyUnlocks(consumed []*Output) error {
	sigs := make([]*SignatureUnlock, len(consumed))
	for i, out := range consumed {
		idx := i
		if ref, ok := p.Unlocks[i].(*ReferenceUnlock); ok {
			idx = int(ref.Reference)
		}
		sigs[i] = p.Unlocks[idx].(*SignatureUnlock)
		if crypto.AddressFromPubKey(sigs[i].PublicKey) != out.Address {
			return fmt.Errorf("input %d: %w: %s", i, ErrAddressMismatch, out.Address)
		}
	}

	hash := p.Essence.Hash()
	for i, u := range p.Unlocks {
		sig, ok := u.(*SignatureUnlock)
		if !ok {
			continue
		}
		if !crypto.VerifySignature(hash[:], sig.Signature, sig.PublicKey) {
			return fmt.Errorf("unlock %d: %w", i, ErrInvalidSig)
		}
	}
	return nil
}
