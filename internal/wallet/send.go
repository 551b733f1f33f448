package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/internal/ledger"
	"github.com/Klingon-tech/klingnet-stamp/internal/log"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Funding errors.
var (
	ErrNoFunds           = errors.New("sender has no unspent outputs")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// Account is a sender: an address plus the authority to sign for it.
type Account interface {
	Signer
	Address() (types.Address, error)
}

// SendParams describes one payment.
type SendParams struct {
	To       types.Address
	Amount   uint64
	Metadata any // JSON-encoded into the primary output; nil for none
}

// Sender assembles, signs and submits payments from one account.
type Sender struct {
	client  ledger.Client
	account Account
	builder *OutputBuilder
}

// NewSender creates a sender for account over client.
func NewSender(client ledger.Client, account Account) *Sender {
	return &Sender{client: client, account: account, builder: NewOutputBuilder(client)}
}

// Send spends every unspent output of the account into a primary output
// to p.To and a remainder back to the account.
// It returns the id of the block carrying the transaction.
func (s *Sender) Send(ctx context.Context, p SendParams) (types.BlockID, error) {
	from, err := s.account.Address()
	if err != nil {
		return types.BlockID{}, err
	}
	info, err := s.client.Info(ctx)
	if err != nil {
		return types.BlockID{}, fmt.Errorf("node info: %w", err)
	}

	ids, err := s.client.BasicOutputIDs(ctx, from)
	if err != nil {
		return types.BlockID{}, fmt.Errorf("list outputs: %w", err)
	}
	if len(ids) == 0 {
		return types.BlockID{}, fmt.Errorf("%w: %s", ErrNoFunds, from.Bech32(info.Bech32HRP))
	}
	if len(ids) > tx.MaxInputs {
		return types.BlockID{}, fmt.Errorf("%w: %d unspent outputs, max %d", tx.ErrTooManyInputs, len(ids), tx.MaxInputs)
	}
	consumed, err := s.client.Outputs(ctx, ids)
	if err != nil {
		return types.BlockID{}, fmt.Errorf("fetch outputs: %w", err)
	}

	primary, err := s.builder.Build(ctx, p.To, p.Amount, p.Metadata)
	if err != nil {
		return types.BlockID{}, err
	}
	outputs, err := s.builder.withRemainder(info.Rent, consumed, primary, from)
	if err != nil {
		return types.BlockID{}, err
	}

	payload, err := Assemble(AssembleParams{
		NetworkID: info.NetworkID,
		Inputs:    ids,
		Consumed:  consumed,
		Outputs:   outputs,
	}, s.account)
	if err != nil {
		return types.BlockID{}, err
	}
	if err := payload.VerifyAgainst(consumed, info.Params()); err != nil {
		return types.BlockID{}, fmt.Errorf("assembled invalid transaction: %w", err)
	}

	blockID, err := s.client.SubmitPayload(ctx, payload)
	if err != nil {
		return types.BlockID{}, fmt.Errorf("submit payload: %w", err)
	}

	log.Wallet.Info().
		Str("block", blockID.String()).
		Str("tx", payload.ID().String()).
		Str("to", p.To.Bech32(info.Bech32HRP)).
		Uint64("amount", primary.Amount).
		Int("inputs", len(ids)).
		Int("outputs", len(outputs)).
		Msg("Payment submitted")
	return blockID, nil
}

// withRemainder returns [primary, remainder], the remainder carrying
// whatever the consumed outputs hold beyond the primary amount.
func (b *OutputBuilder) withRemainder(rent tx.RentStructure, consumed []*tx.Output, primary *tx.Output, from types.Address) ([]*tx.Output, error) {
	total, err := tx.SumAmounts(consumed)
	if err != nil {
		return nil, err
	}
	if primary.Amount > total {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, total, primary.Amount)
	}
	remainder, err := b.Remainder(rent, from, total-primary.Amount)
	if err != nil {
		return nil, err
	}
	return []*tx.Output{primary, remainder}, nil
}
