package wallet

import (
	"context"
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stamp/internal/node"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

type sendFixture struct {
	ledger *node.Ledger
	sender *Sender
	from   types.Address
	to     types.Address
}

func newSendFixture(t *testing.T, balances ...uint64) *sendFixture {
	t.Helper()
	l := node.New(storage.NewMemory(), node.DefaultConfig())
	sm, err := NewSecretManager(testMnemonic24)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	from, err := sm.Address()
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	for _, amount := range balances {
		if _, err := l.Faucet(from, amount); err != nil {
			t.Fatalf("Faucet() error: %v", err)
		}
	}
	return &sendFixture{
		ledger: l,
		sender: NewSender(l, sm),
		from:   from,
		to:     types.Address{0xc0, 0xff, 0xee},
	}
}

func (f *sendFixture) balance(t *testing.T, addr types.Address) (uint64, int) {
	t.Helper()
	ctx := context.Background()
	ids, err := f.ledger.BasicOutputIDs(ctx, addr)
	if err != nil {
		t.Fatalf("BasicOutputIDs() error: %v", err)
	}
	outs, err := f.ledger.Outputs(ctx, ids)
	if err != nil {
		t.Fatalf("Outputs() error: %v", err)
	}
	total, err := tx.SumAmounts(outs)
	if err != nil {
		t.Fatalf("SumAmounts() error: %v", err)
	}
	return total, len(ids)
}

func TestSend_WithRemainder(t *testing.T) {
	f := newSendFixture(t, 3_000_000, 2_000_000)
	ctx := context.Background()

	blockID, err := f.sender.Send(ctx, SendParams{
		To:       f.to,
		Amount:   1_000_000,
		Metadata: map[string]string{"requestType": "STAMP"},
	})
	if err != nil {
		t.Fatalf("Send() error: %v", err)
	}

	blk, err := f.ledger.Block(ctx, blockID)
	if err != nil {
		t.Fatalf("Block() error: %v", err)
	}
	essence := blk.Payload.Essence
	if len(essence.Inputs) != 2 {
		t.Errorf("inputs = %d, want 2", len(essence.Inputs))
	}
	if len(essence.Outputs) != 2 {
		t.Fatalf("outputs = %d, want 2", len(essence.Outputs))
	}
	if essence.Outputs[0].Amount != 1_000_000 || essence.Outputs[0].Address != f.to {
		t.Errorf("primary = %d to %s", essence.Outputs[0].Amount, essence.Outputs[0].Address.Hex())
	}
	if len(essence.Outputs[0].Metadata) == 0 {
		t.Error("primary output should carry metadata")
	}
	if essence.Outputs[1].Amount != 4_000_000 || essence.Outputs[1].Address != f.from {
		t.Errorf("remainder = %d to %s", essence.Outputs[1].Amount, essence.Outputs[1].Address.Hex())
	}
	if _, ok := blk.Payload.Unlocks[1].(*tx.ReferenceUnlock); !ok {
		t.Errorf("unlock 1 = %T, want *tx.ReferenceUnlock", blk.Payload.Unlocks[1])
	}

	if got, n := f.balance(t, f.from); got != 4_000_000 || n != 1 {
		t.Errorf("sender balance = %d in %d outputs, want 4000000 in 1", got, n)
	}
	if got, _ := f.balance(t, f.to); got != 1_000_000 {
		t.Errorf("recipient balance = %d, want 1000000", got)
	}
}

func TestSend_ExactAmount(t *testing.T) {
	f := newSendFixture(t, 1_000_000)
	_, err := f.sender.Send(context.Background(), SendParams{To: f.to, Amount: 1_000_000})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Send() error = %v, want ErrInsufficientFunds", err)
	}
	if got, n := f.balance(t, f.from); got != 1_000_000 || n != 1 {
		t.Errorf("sender balance = %d in %d outputs, want untouched 1000000 in 1", got, n)
	}
	if got, n := f.balance(t, f.to); got != 0 || n != 0 {
		t.Errorf("recipient balance = %d in %d outputs, want empty", got, n)
	}
}

func TestSend_AmountRaisedToDeposit(t *testing.T) {
	f := newSendFixture(t, 1_000_000)
	if _, err := f.sender.Send(context.Background(), SendParams{To: f.to, Amount: 1}); err != nil {
		t.Fatalf("Send() error: %v", err)
	}
	want := tx.DefaultRentStructure().MinDeposit(tx.NewOutput(0, f.to, nil))
	if got, _ := f.balance(t, f.to); got != want {
		t.Errorf("recipient balance = %d, want deposit %d", got, want)
	}
	if got, _ := f.balance(t, f.from); got != 1_000_000-want {
		t.Errorf("sender balance = %d, want %d", got, 1_000_000-want)
	}
}

func TestSend_Errors(t *testing.T) {
	tests := []struct {
		name     string
		balances []uint64
		amount   uint64
		want     error
	}{
		{"no outputs", nil, 1_000_000, ErrNoFunds},
		{"amount exceeds balance", []uint64{1_000_000}, 2_000_000, ErrInsufficientFunds},
		{"remainder below deposit", []uint64{1_000_000}, 990_000, ErrInsufficientFunds},
		{"zero remainder", []uint64{600_000, 400_000}, 1_000_000, ErrInsufficientFunds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSendFixture(t, tt.balances...)
			_, err := f.sender.Send(context.Background(), SendParams{To: f.to, Amount: tt.amount})
			if !errors.Is(err, tt.want) {
				t.Fatalf("Send() error = %v, want %v", err, tt.want)
			}
			var total uint64
			for _, b := range tt.balances {
				total += b
			}
			if got, _ := f.balance(t, f.from); got != total {
				t.Errorf("sender balance = %d, want untouched %d", got, total)
			}
		})
	}
}

func TestSend_RawMetadataTooLarge(t *testing.T) {
	f := newSendFixture(t, 5_000_000)
	_, err := f.sender.Send(context.Background(), SendParams{
		To:       f.to,
		Amount:   1_000_000,
		Metadata: make([]byte, tx.MaxMetadataLength+1),
	})
	if !errors.Is(err, tx.ErrMetadataTooLarge) {
		t.Fatalf("Send() error = %v, want ErrMetadataTooLarge", err)
	}
	if got, _ := f.balance(t, f.from); got != 5_000_000 {
		t.Errorf("sender balance = %d, want untouched 5000000", got)
	}
}

func TestSend_TooManyInputs(t *testing.T) {
	balances := make([]uint64, tx.MaxInputs+1)
	for i := range balances {
		balances[i] = 100_000
	}
	f := newSendFixture(t, balances...)
	_, err := f.sender.Send(context.Background(), SendParams{To: f.to, Amount: 100_000})
	if !errors.Is(err, tx.ErrTooManyInputs) {
		t.Fatalf("Send() error = %v, want ErrTooManyInputs", err)
	}
}

func TestAssemble(t *testing.T) {
	sm, err := NewSecretManager(testMnemonic12)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	owner, _ := sm.Address()
	consumed := []*tx.Output{
		tx.NewOutput(100_000, owner, nil),
		tx.NewOutput(200_000, owner, nil),
		tx.NewOutput(300_000, owner, nil),
	}
	inputs := []types.OutputID{
		types.NewOutputID(types.Hash{1}, 0),
		types.NewOutputID(types.Hash{2}, 1),
		types.NewOutputID(types.Hash{3}, 2),
	}
	params := tx.Params{NetworkID: tx.NetworkIDFromName("test"), Rent: tx.DefaultRentStructure()}

	payload, err := Assemble(AssembleParams{
		NetworkID: params.NetworkID,
		Inputs:    inputs,
		Consumed:  consumed,
		Outputs:   []*tx.Output{tx.NewOutput(600_000, types.Address{0x09}, nil)},
		Payload:   &tx.TaggedData{Tag: []byte("stamp"), Data: []byte(`{}`)},
	}, sm)
	if err != nil {
		t.Fatalf("Assemble() error: %v", err)
	}

	if _, ok := payload.Unlocks[0].(*tx.SignatureUnlock); !ok {
		t.Fatalf("unlock 0 = %T, want *tx.SignatureUnlock", payload.Unlocks[0])
	}
	for i := 1; i < len(payload.Unlocks); i++ {
		ref, ok := payload.Unlocks[i].(*tx.ReferenceUnlock)
		if !ok || ref.Reference != 0 {
			t.Errorf("unlock %d = %#v, want reference to 0", i, payload.Unlocks[i])
		}
	}
	if err := payload.VerifyAgainst(consumed, params); err != nil {
		t.Errorf("VerifyAgainst() error: %v", err)
	}
}

func TestAssemble_Errors(t *testing.T) {
	sm, err := NewSecretManager(testMnemonic12)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	owner, _ := sm.Address()
	in := []types.OutputID{types.NewOutputID(types.Hash{1}, 0), types.NewOutputID(types.Hash{2}, 0)}

	tests := []struct {
		name string
		p    AssembleParams
		want error
	}{
		{"no inputs", AssembleParams{}, tx.ErrNoInputs},
		{"count mismatch", AssembleParams{Inputs: in, Consumed: []*tx.Output{tx.NewOutput(1, owner, nil)}}, tx.ErrConsumedCount},
		{"mixed owners", AssembleParams{Inputs: in, Consumed: []*tx.Output{
			tx.NewOutput(1, owner, nil),
			tx.NewOutput(1, types.Address{0x01}, nil),
		}}, ErrMixedOwners},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Assemble(tt.p, sm); !errors.Is(err, tt.want) {
				t.Errorf("Assemble() error = %v, want %v", err, tt.want)
			}
		})
	}
}
