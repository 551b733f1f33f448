package wallet

import (
	"fmt"

	"github.com/Klingon-tech/klingnet-stamp/pkg/tx"
	"github.com/Klingon-tech/klingnet-stamp/pkg/types"
)

// Signer produces the signature unlock for an essence hash.
type Signer interface {
	SignatureUnlock(essenceHash types.Hash) (*tx.SignatureUnlock, error)
}

// SecretManager derives the account key from a mnemonic on demand. It keeps
// only the phrase; seeds and private keys live for one call and are wiped.
type SecretManager struct {
	mnemonic string
	account  uint32
	index    uint32
}

// NewSecretManager validates the mnemonic and returns a manager for
// account 0, address index 0.
func NewSecretManager(mnemonic string) (*SecretManager, error) {
	return NewSecretManagerAt(mnemonic, 0, 0)
}

// NewSecretManagerAt is NewSecretManager for another account and address
// index.
func NewSecretManagerAt(mnemonic string, account, index uint32) (*SecretManager, error) {
	mnemonic = NormalizeMnemonic(mnemonic)
	if !ValidateMnemonic(mnemonic) {
		return nil, ErrInvalidMnemonic
	}
	return &SecretManager{mnemonic: mnemonic, account: account, index: index}, nil
}

// withKey derives m/44'/4219'/account'/0/index, hands it to fn and wipes
// the seed and every key on the way out.
func (s *SecretManager) withKey(fn func(k *HDKey) error) error {
	seed, err := SeedFromMnemonic(s.mnemonic, "")
	if err != nil {
		return err
	}
	defer zero(seed)

	master, err := NewMasterKey(seed)
	if err != nil {
		return err
	}
	defer master.Wipe()

	key, err := master.DeriveAddress(s.account, ChangeExternal, s.index)
	if err != nil {
		return err
	}
	defer key.Wipe()

	return fn(key)
}

// Address returns the sender address. The same mnemonic always yields the
// same address.
func (s *SecretManager) Address() (types.Address, error) {
	var addr types.Address
	err := s.withKey(func(k *HDKey) error {
		addr = k.Address()
		return nil
	})
	return addr, err
}

// SignatureUnlock signs essenceHash with the derived key.
func (s *SecretManager) SignatureUnlock(essenceHash types.Hash) (*tx.SignatureUnlock, error) {
	var unlock *tx.SignatureUnlock
	err := s.withKey(func(k *HDKey) error {
		priv, err := k.PrivateKey()
		if err != nil {
			return err
		}
		defer priv.Zero()

		sig, err := priv.Sign(essenceHash[:])
		if err != nil {
			return fmt.Errorf("sign essence: %w", err)
		}
		unlock = &tx.SignatureUnlock{PublicKey: priv.PublicKey(), Signature: sig}
		return nil
	})
	return unlock, err
}
