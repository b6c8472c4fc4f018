// Package keypair wraps Ed25519 keypair generation, base58 address
// encoding, and the JSON keypair-file format: a plain JSON array of the 64
// private-key bytes (32-byte seed followed by the 32-byte public key), the
// format the standard Solana tooling reads and writes.
package keypair

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mr-tron/base58"
)

// Keypair is an Ed25519 keypair. Private is the 64-byte expanded form whose
// trailing 32 bytes are the public key.
type Keypair struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// Generate draws a fresh keypair from crypto/rand. Each call is independent
// and safe to make from any number of goroutines concurrently.
func Generate() (Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("generating keypair: %w", err)
	}
	return Keypair{Public: pub, Private: priv}, nil
}

// FromSeed derives the keypair for a 32-byte seed.
func FromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return Keypair{Public: priv.Public().(ed25519.PublicKey), Private: priv}, nil
}

// Address returns the base58 encoding of the public key.
func (k Keypair) Address() string {
	return base58.Encode(k.Public)
}

// Save writes the keypair to path as a JSON byte array, mode 0600.
func Save(path string, k Keypair) error {
	values := make([]int, len(k.Private))
	for i, b := range k.Private {
		values[i] = int(b)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing keypair file: %w", err)
	}
	return nil
}

// Load reads a JSON keypair file written by Save (or by compatible tools)
// and verifies that the embedded public key matches the seed.
func Load(path string) (Keypair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("reading keypair file: %w", err)
	}

	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return Keypair{}, fmt.Errorf("parsing keypair file %s: %w", path, err)
	}
	if len(values) != ed25519.PrivateKeySize {
		return Keypair{}, fmt.Errorf("keypair file %s: expected %d bytes, got %d",
			path, ed25519.PrivateKeySize, len(values))
	}

	raw := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return Keypair{}, fmt.Errorf("keypair file %s: byte %d out of range: %d", path, i, v)
		}
		raw[i] = byte(v)
	}

	k, err := FromSeed(raw[:ed25519.SeedSize])
	if err != nil {
		return Keypair{}, err
	}
	if !k.Public.Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return Keypair{}, fmt.Errorf("keypair file %s: public key does not match seed", path)
	}
	return k, nil
}
