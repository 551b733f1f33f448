package wallet

import (
	"errors"
	"testing"

	"github.com/Klingon-tech/klingnet-stamp/pkg/crypto"
)

func TestNewSecretManager_Invalid(t *testing.T) {
	if _, err := NewSecretManager("not a mnemonic"); !errors.Is(err, ErrInvalidMnemonic) {
		t.Fatalf("NewSecretManager() error = %v, want ErrInvalidMnemonic", err)
	}
}

func TestSecretManager_Address(t *testing.T) {
	sm, err := NewSecretManager(testMnemonic24)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	a1, err := sm.Address()
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	a2, err := sm.Address()
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	if a1 != a2 {
		t.Errorf("Address() not stable: %s vs %s", a1.Hex(), a2.Hex())
	}

	// A differently formatted copy of the phrase derives the same address.
	other, err := NewSecretManager("  " + testMnemonic24 + "\n")
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	a3, err := other.Address()
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}
	if a1 != a3 {
		t.Errorf("normalized mnemonic gave %s, want %s", a3.Hex(), a1.Hex())
	}

	seed, _ := SeedFromMnemonic(testMnemonic24, "")
	master, _ := NewMasterKey(seed)
	k, _ := master.DeriveAddress(0, ChangeExternal, 0)
	if a1 != k.Address() {
		t.Errorf("Address() = %s, want m/44'/4219'/0'/0/0 address %s", a1.Hex(), k.Address().Hex())
	}
}

func TestSecretManager_SignatureUnlock(t *testing.T) {
	sm, err := NewSecretManager(testMnemonic12)
	if err != nil {
		t.Fatalf("NewSecretManager() error: %v", err)
	}
	addr, err := sm.Address()
	if err != nil {
		t.Fatalf("Address() error: %v", err)
	}

	hash := crypto.Hash([]byte("essence"))
	unlock, err := sm.SignatureUnlock(hash)
	if err != nil {
		t.Fatalf("SignatureUnlock() error: %v", err)
	}
	if len(unlock.Signature) != crypto.SignatureSize {
		t.Errorf("signature length = %d, want %d", len(unlock.Signature), crypto.SignatureSize)
	}
	if crypto.AddressFromPubKey(unlock.PublicKey) != addr {
		t.Error("unlock public key does not hash to the sender address")
	}
	if !crypto.VerifySignature(hash[:], unlock.Signature, unlock.PublicKey) {
		t.Error("signature should verify")
	}
}

func TestNewSecretManagerAt(t *testing.T) {
	first, err := NewSecretManagerAt(testMnemonic24, 0, 0)
	if err != nil {
		t.Fatalf("NewSecretManagerAt() error: %v", err)
	}
	second, err := NewSecretManagerAt(testMnemonic24, 0, 1)
	if err != nil {
		t.Fatalf("NewSecretManagerAt() error: %v", err)
	}
	a1, _ := first.Address()
	a2, _ := second.Address()
	if a1 == a2 {
		t.Error("different address indices should derive different addresses")
	}

	seed, _ := SeedFromMnemonic(testMnemonic24, "")
	master, _ := NewMasterKey(seed)
	k, _ := master.DeriveAddress(0, ChangeExternal, 1)
	if a2 != k.Address() {
		t.Errorf("index 1 address = %s, want %s", a2.Hex(), k.Address().Hex())
	}
}
