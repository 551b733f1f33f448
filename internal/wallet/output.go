package wallet

import (
	"context"
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/pkg/metadata"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// OutputBuilder builds basic outputs that satisfy the node's storage
// deposit rule.
type OutputBuilder struct {
	client ledger.Client
}

// NewOutputBuilder creates a builder that reads rent parameters from client.
func NewOutputBuilder(client ledger.Client) *OutputBuilder {
	return &OutputBuilder{client: client}
}

// Build returns an output to addr carrying meta (nil for none) with
// Amount = max(amount, storage deposit).
func (b *OutputBuilder) Build(ctx context.Context, to types.Address, amount uint64, meta any) (*tx.Output, error) {
	data, err := encodeMetadata(meta)
	if err != nil {
		return nil, err
	}
	info, err := b.client.Info(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rent structure: %w", err)
	}
	return buildOutput(info.Rent, to, amount, data), nil
}

// Remainder builds the change output returning left to from. The amount is
// never inflated: a leftover below the storage deposit, zero included,
// yields ErrInsufficientFunds.
func (b *OutputBuilder) Remainder(rent tx.RentStructure, from types.Address, left uint64) (*tx.Output, error) {
	out := buildOutput(rent, from, left, nil)
	if out.Amount != left {
		return nil, fmt.Errorf("%w: remainder %d below storage deposit %d", ErrInsufficientFunds, left, out.Amount)
	}
	return out, nil
}

// buildOutput measures a zero-amount provisional output and floors the
// amount at its storage deposit.
func buildOutput(rent tx.RentStructure, to types.Address, amount uint64, data []byte) *tx.Output {
	out := tx.NewOutput(0, to, data)
	out.Amount = max(amount, rent.MinDeposit(out))
	return out
}

func encodeMetadata(meta any) ([]byte, error) {
	switch v := meta.(type) {
	case nil:
		return nil, nil
	case []byte:
		return checkMetadata(v)
	default:
		data, err := metadata.Marshal(meta)
		if err != nil {
			return nil, err
		}
		return checkMetadata(data)
	}
}

func checkMetadata(data []byte) ([]byte, error) {
	if len(data) > tx.MaxMetadataLength {
		return nil, fmt.Errorf("%w: %d bytes", tx.ErrMetadataTooLarge, len(data))
	}
	return data, nil
}
