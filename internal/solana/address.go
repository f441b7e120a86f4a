package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// DecodeAddress decodes a base58 address and validates its length.
func DecodeAddress(address string) ([]byte, error) {
	raw, err := base58.Decode(address)
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("invalid address length: got %d bytes, want 32", len(raw))
	}
	return raw, nil
}

// ValidAddress reports whether the string is a well-formed base58 public key.
func ValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// IsOnCurve reports whether a 32-byte public key is a valid ed25519 curve
// point. Program-derived addresses are intentionally off-curve; token account
// owners must be on-curve for associated address derivation.
func IsOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
