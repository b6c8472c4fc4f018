package keypair

import (
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// NewMnemonic generates a fresh BIP-39 recovery phrase. bits selects the
// entropy size (128 for 12 words, 256 for 24).
func NewMnemonic(bits int) (string, error) {
	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", fmt.Errorf("generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("creating mnemonic: %w", err)
	}
	return mnemonic, nil
}

// FromMnemonic derives a keypair from a BIP-39 recovery phrase and optional
// passphrase. The first 32 bytes of the BIP-39 seed are used as the Ed25519
// seed, so the same phrase always recovers the same keypair.
func FromMnemonic(mnemonic, passphrase string) (Keypair, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return Keypair{}, fmt.Errorf("invalid mnemonic phrase")
	}
	seed := bip39.NewSeed(mnemonic, passphrase)
	return FromSeed(seed[:32])
}
