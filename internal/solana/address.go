package solana

import (
	"fmt"

	"filippo.io/edwards25519"
	"github.com/mr-tron/base58"
)

// Solana transaction signatures are 64 bytes, base58-encoded.
const signatureBytes = 64

// ValidateWalletAddress checks that s is a base58-encoded 32-byte ed25519
// public key on the curve. Program-derived addresses are off-curve and
// rejected; buyers are expected to pay from ordinary keypair wallets.
func ValidateWalletAddress(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != 32 {
		return fmt.Errorf("address must decode to 32 bytes, got %d", len(raw))
	}
	if !isOnCurve(raw) {
		return fmt.Errorf("address is not an ed25519 public key")
	}
	return nil
}

// ValidateSignature checks that s is a base58-encoded 64-byte transaction
// signature. It says nothing about whether the transaction exists.
func ValidateSignature(s string) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	if len(raw) != signatureBytes {
		return fmt.Errorf("signature must decode to %d bytes, got %d", signatureBytes, len(raw))
	}
	return nil
}

func isOnCurve(point []byte) bool {
	if len(point) != 32 {
		return false
	}
	_, err := new(edwards25519.Point).SetBytes(point)
	return err == nil
}
