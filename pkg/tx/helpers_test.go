package tx

import (
	"testing"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

var testParams = Params{
	NetworkID: NetworkIDFromName("devnet"),
	Rent:      DefaultRentStructure(),
}

// signedPayload spends consumed (all owned by key) into outs, signing
// input 0 and referencing it from every other input.
func signedPayload(t *testing.T, key *crypto.PrivateKey, consumed []*Output, outs []*Output) *Payload {
	t.Helper()
	inputs := make([]types.OutputID, len(consumed))
	for i := range consumed {
		inputs[i] = types.NewOutputID(types.Hash{byte(i + 1)}, uint16(i))
	}
	essence := &Essence{
		NetworkID:        testParams.NetworkID,
		Inputs:           inputs,
		InputsCommitment: InputsCommitment(consumed),
		Outputs:          outs,
	}
	hash := essence.Hash()
	sig, err := key.Sign(hash[:])
	if err != nil {
		t.Fatalf("Sign() error: %v", err)
	}
	unlocks := make(Unlocks, len(consumed))
	unlocks[0] = &SignatureUnlock{PublicKey: key.PublicKey(), Signature: sig}
	for i := 1; i < len(consumed); i++ {
		unlocks[i] = &ReferenceUnlock{Reference: 0}
	}
	return &Payload{Essence: essence, Unlocks: unlocks}
}

func mustKey(t *testing.T) (*crypto.PrivateKey, types.Address) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey() error: %v", err)
	}
	return key, crypto.AddressFromPubKey(key.PublicKey())
}
