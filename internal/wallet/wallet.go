// Package wallet manages the operator keypair: the single custodial wallet
// that pays fees, signs mints, and receives every minted token.
package wallet

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blocto/solana-go-sdk/types"
)

// DefaultPath is the keypair file location when none is configured.
const DefaultPath = "wallet.json"

// Wallet is the operator keypair loaded from (or persisted to) disk.
// The signing capability stays in process memory; only the keypair file
// holds it at rest.
type Wallet struct {
	Account types.Account
	path    string
}

// Load reads the keypair at path, or generates and persists a new one if the
// file does not exist.
func Load(path string) (*Wallet, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return generate(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet file: %w", err)
	}

	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return nil, fmt.Errorf("decode wallet file %s: %w", path, err)
	}

	account, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("restore keypair: %w", err)
	}

	return &Wallet{Account: account, path: path}, nil
}

// generate creates a fresh keypair and persists it as a JSON array of
// secret-key bytes, the same format solana-keygen writes.
func generate(path string) (*Wallet, error) {
	account := types.NewAccount()

	ints := make([]int, len(account.PrivateKey))
	for i, b := range account.PrivateKey {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	if err != nil {
		return nil, fmt.Errorf("encode keypair: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create wallet directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("persist wallet file: %w", err)
	}

	return &Wallet{Account: account, path: path}, nil
}

// Address returns the wallet public key in base58.
func (w *Wallet) Address() string {
	return w.Account.PublicKey.ToBase58()
}

// Path returns the keypair file location.
func (w *Wallet) Path() string {
	return w.path
}

// decodeKeypairJSON restores the 64-byte secret key from a keypair file.
// The canonical form is a JSON array of integers; a base64 string is
// accepted for compatibility with secret-store exports.
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err == nil {
		if len(keyBytes) == ed25519.PrivateKeySize {
			return keyBytes, nil
		}
	}

	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}

	if len(ints) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
	}

	keyBytes = make([]byte, len(ints))
	for i, v := range ints {
		keyBytes[i] = byte(v)
	}

	return keyBytes, nil
}
