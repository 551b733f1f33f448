package wallet

import (
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// ErrMixedOwners is returned when the consumed outputs do not share one
// address, which the single-signature unlock scheme cannot spend.
var ErrMixedOwners = errors.New("consumed outputs have different owners")

// AssembleParams are the pieces of an unsigned transaction.
type AssembleParams struct {
	NetworkID uint64
	Inputs    []types.OutputID
	Consumed  []*tx.Output // outputs behind Inputs, same order
	Outputs   []*tx.Output
	Payload   *tx.TaggedData
}

// Assemble builds the essence, signs it once for input 0 and unlocks
// every further input by reference to that signature.
func Assemble(p AssembleParams, signer Signer) (*tx.Payload, error) {
	if len(p.Inputs) == 0 {
		return nil, tx.ErrNoInputs
	}
	if len(p.Inputs) != len(p.Consumed) {
		return nil, fmt.Errorf("%w: %d consumed, %d inputs", tx.ErrConsumedCount, len(p.Consumed), len(p.Inputs))
	}
	owner := p.Consumed[0].Address
	for i, out := range p.Consumed[1:] {
		if out.Address != owner {
			return nil, fmt.Errorf("input %d: %w", i+1, ErrMixedOwners)
		}
	}

	essence := &tx.Essence{
		NetworkID:        p.NetworkID,
		Inputs:           p.Inputs,
		InputsCommitment: tx.InputsCommitment(p.Consumed),
		Outputs:          p.Outputs,
		Payload:          p.Payload,
	}

	sig, err := signer.SignatureUnlock(essence.Hash())
	if err != nil {
		return nil, fmt.Errorf("sign essence: %w", err)
	}

	unlocks := make(tx.Unlocks, len(p.Inputs))
	unlocks[0] = sig
	for i := 1; i < len(unlocks); i++ {
		unlocks[i] = &tx.ReferenceUnlock{Reference: 0}
	}
	return &tx.Payload{Essence: essence, Unlocks: unlocks}, nil
}
