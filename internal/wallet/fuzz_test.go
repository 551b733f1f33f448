package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stamp/internal/node"
	"github.com/Klingon-tech/klingnet-stamp/internal/storage"
	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// FuzzSend_Conservation builds payments over arbitrary consumed-output sets
// and targets and checks that value is neither created nor destroyed.
func FuzzSend_Conservation(f *testing.F) {
	f.Add(uint64(5_000_000), uint64(0), uint64(0), uint8(1), uint64(1_000_000))
	f.Add(uint64(3_000_000), uint64(2_000_000), uint64(0), uint8(2), uint64(1_000_000))
	f.Add(uint64(1_000_000), uint64(0), uint64(0), uint8(1), uint64(1_000_000))
	f.Add(uint64(1_000_000), uint64(0), uint64(0), uint8(1), uint64(1))
	f.Add(uint64(41_400), uint64(41_400), uint64(41_400), uint8(3), uint64(82_800))
	f.Add(uint64(1<<40), uint64(1<<40), uint64(1<<40), uint8(3), uint64(1<<41))

	sm, err := NewSecretManager(testMnemonic12)
	if err != nil {
		f.Fatalf("NewSecretManager() error: %v", err)
	}
	from, err := sm.Address()
	if err != nil {
		f.Fatalf("Address() error: %v", err)
	}
	b := NewOutputBuilder(node.New(storage.NewMemory(), node.DefaultConfig()))
	params := tx.Params{NetworkID: tx.NetworkIDFromName("fuzz"), Rent: tx.DefaultRentStructure()}
	to := types.Address{0x0b}

	f.Fuzz(func(t *testing.T, a, c, d uint64, n uint8, amount uint64) {
		// Keep sums far from overflow; overflow has its own error path.
		const limit = 1 << 50
		amounts := []uint64{a % limit, c % limit, d % limit}[:1+int(n%3)]
		amount %= limit

		consumed := make([]*tx.Output, len(amounts))
		inputs := make([]types.OutputID, len(amounts))
		var total uint64
		for i, v := range amounts {
			consumed[i] = tx.NewOutput(v, from, nil)
			inputs[i] = types.NewOutputID(types.Hash{byte(i + 1)}, uint16(i))
			total += v
		}

		primary := buildOutput(params.Rent, to, amount, nil)
		if want := max(amount, params.Rent.MinDeposit(primary)); primary.Amount != want {
			t.Fatalf("primary = %d, want max(%d, deposit) = %d", primary.Amount, amount, want)
		}

		outputs, err := b.withRemainder(params.Rent, consumed, primary, from)
		if err != nil {
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Fatalf("withRemainder() error = %v, want ErrInsufficientFunds", err)
			}
			floor := params.Rent.MinDeposit(tx.NewOutput(0, from, nil))
			if total >= primary.Amount && total-primary.Amount >= floor {
				t.Fatalf("withRemainder() failed with %d in, %d out, floor %d", total, primary.Amount, floor)
			}
			return
		}

		if len(outputs) != 2 || outputs[0] != primary {
			t.Fatalf("outputs = %d, want [primary, remainder]", len(outputs))
		}
		out, err := tx.SumAmounts(outputs)
		if err != nil {
			t.Fatalf("SumAmounts() error: %v", err)
		}
		if out != total {
			t.Fatalf("sum(out) = %d, sum(in) = %d", out, total)
		}
		if rem := outputs[1]; rem.Address != from || rem.Amount < params.Rent.MinDeposit(rem) {
			t.Fatalf("remainder = %d to %s", rem.Amount, rem.Address.Hex())
		}

		payload, err := Assemble(AssembleParams{
			NetworkID: params.NetworkID,
			Inputs:    inputs,
			Consumed:  consumed,
			Outputs:   outputs,
		}, sm)
		if err != nil {
			t.Fatalf("Assemble() error: %v", err)
		}
		if err := payload.VerifyAgainst(consumed, params); err != nil {
			t.Fatalf("VerifyAgainst() error: %v", err)
		}
	})
}
