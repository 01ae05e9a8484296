package escrow

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureVerifier abstracts the "standalone non-GMP escrow" variant's
// sibling-instruction check of spec §4.2 ("the processor verifies that the
// sibling instruction signs exactly intent_id, padded to 32 B, with the
// approver's pubkey"). One implementation covers Ed25519 approvers (SVM,
// MVM), one covers ECDSA-secp256k1 approvers (EVM).
type SignatureVerifier interface {
	// Verify reports whether sig is a valid signature by approver over the
	// 32-byte padded intent_id.
	Verify(approver []byte, intentID [32]byte, sig []byte) (bool, error)
}

// Ed25519Verifier verifies raw Ed25519 signatures over the bare 32-byte
// intent_id, matching the SVM escrow release scheme of spec §4.5.
type Ed25519Verifier struct{}

func (Ed25519Verifier) Verify(approver []byte, intentID [32]byte, sig []byte) (bool, error) {
	if len(approver) != ed25519.PublicKeySize {
		return false, fmt.Errorf("escrow: ed25519 public key must be %d bytes, got %d", ed25519.PublicKeySize, len(approver))
	}
	return ed25519.Verify(ed25519.PublicKey(approver), intentID[:], sig), nil
}

// ECDSAVerifier verifies Ethereum-prefixed ECDSA-secp256k1 signatures:
// keccak256("\x19Ethereum Signed Message:\n32" || keccak256(intent_id_32)),
// recoverable with v in {27,28}, matching spec §4.5's EVM scheme. approver
// is the expected 20-byte Ethereum address.
type ECDSAVerifier struct{}

func (ECDSAVerifier) Verify(approver []byte, intentID [32]byte, sig []byte) (bool, error) {
	if len(approver) != 20 {
		return false, fmt.Errorf("escrow: ethereum address must be 20 bytes, got %d", len(approver))
	}
	if len(sig) != 65 {
		return false, fmt.Errorf("escrow: ecdsa signature must be 65 bytes (r||s||v), got %d", len(sig))
	}

	inner := crypto.Keccak256(intentID[:])
	prefixed := crypto.Keccak256(append([]byte("\x19Ethereum Signed Message:\n32"), inner...))

	sigCopy := append([]byte(nil), sig...)
	if sigCopy[64] >= 27 {
		sigCopy[64] -= 27
	}

	pubKey, err := crypto.SigToPub(prefixed, sigCopy)
	if err != nil {
		return false, fmt.Errorf("recover public key: %w", err)
	}
	recovered := crypto.PubkeyToAddress(*pubKey)
	return bytes.Equal(recovered.Bytes(), approver), nil
}
