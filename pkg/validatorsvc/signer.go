// Package validatorsvc implements the validator/signer of spec §4.5: the
// authoritative decision of whether an escrow release is allowed, and the
// chain-specific signature that permits it, produced only once every
// cross-chain invariant holds.
package validatorsvc

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer is the chain-family-specific signing surface, one method per
// scheme, grounded on pkg/attestation/strategy.Ed25519Strategy's
// domain-separation-then-sign shape but narrowed to sign exactly the
// intent_id (padded to 32 bytes), per spec §4.5, rather than an arbitrary
// attestation message.
type Signer interface {
	// SignHubApproval produces an MVM (hub) approval:
	// Ed25519 sign(bcs(intent_id_padded_32)). This reference implementation
	// has no BCS encoder; the padded 32-byte intent_id IS the bcs encoding
	// of a fixed-size byte array, so signing it directly is equivalent.
	SignHubApproval(intentID [32]byte) (signature, publicKey []byte, err error)

	// SignSVMRelease produces an SVM escrow-release signature: Ed25519 sign
	// over the raw padded intent_id, verified on-chain via instruction
	// introspection of a sibling Ed25519 program call.
	SignSVMRelease(intentID [32]byte) (signature, publicKey []byte, err error)

	// SignEVMRelease produces an EVM escrow-release signature: ECDSA-
	// secp256k1 over keccak256("\x19Ethereum Signed Message:\n32" ||
	// keccak256(intent_id_32)), serialized as r||s||v with v in {27,28}.
	SignEVMRelease(intentID [32]byte) (signature []byte, err error)
}

// Ed25519Signer implements the MVM and SVM signature schemes with a single
// Ed25519 keypair, grounded on
// pkg/attestation/strategy.Ed25519Strategy.Sign.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Signer wraps an existing Ed25519 private key.
func NewEd25519Signer(priv ed25519.PrivateKey) *Ed25519Signer {
	return &Ed25519Signer{priv: priv, pub: priv.Public().(ed25519.PublicKey)}
}

func (s *Ed25519Signer) SignHubApproval(intentID [32]byte) ([]byte, []byte, error) {
	return ed25519.Sign(s.priv, intentID[:]), append([]byte(nil), s.pub...), nil
}

func (s *Ed25519Signer) SignSVMRelease(intentID [32]byte) ([]byte, []byte, error) {
	return ed25519.Sign(s.priv, intentID[:]), append([]byte(nil), s.pub...), nil
}

func (s *Ed25519Signer) SignEVMRelease([32]byte) ([]byte, error) {
	return nil, fmt.Errorf("validatorsvc: Ed25519Signer cannot produce an EVM release signature")
}

// ECDSASigner implements the EVM escrow-release scheme, grounded on the
// teacher's pervasive use of go-ethereum/crypto.Sign for ECDSA signing
// (pkg/ethereum/client.go, pkg/chain/strategy/evm_strategy.go).
type ECDSASigner struct {
	priv *ecdsa.PrivateKey
}

// NewECDSASigner wraps an existing secp256k1 private key.
func NewECDSASigner(priv *ecdsa.PrivateKey) *ECDSASigner {
	return &ECDSASigner{priv: priv}
}

func (s *ECDSASigner) SignHubApproval([32]byte) ([]byte, []byte, error) {
	return nil, nil, fmt.Errorf("validatorsvc: ECDSASigner cannot produce a hub approval")
}

func (s *ECDSASigner) SignSVMRelease([32]byte) ([]byte, []byte, error) {
	return nil, nil, fmt.Errorf("validatorsvc: ECDSASigner cannot produce an SVM release signature")
}

func (s *ECDSASigner) SignEVMRelease(intentID [32]byte) ([]byte, error) {
	inner := crypto.Keccak256(intentID[:])
	prefixed := crypto.Keccak256(append([]byte("\x19Ethereum Signed Message:\n32"), inner...))
	sig, err := crypto.Sign(prefixed, s.priv)
	if err != nil {
		return nil, fmt.Errorf("sign: %w", err)
	}
	sig[64] += 27
	return sig, nil
}

// MultiSigner dispatches each Signer method to whichever underlying scheme
// actually implements it, so a validator holding both an Ed25519 key (hub,
// SVM) and a secp256k1 key (EVM) exposes a single Signer a Service can be
// built from instead of picking one scheme at startup.
type MultiSigner struct {
	ed25519 *Ed25519Signer
	ecdsa   *ECDSASigner
}

// NewMultiSigner combines an Ed25519Signer and an ECDSASigner.
func NewMultiSigner(ed25519Signer *Ed25519Signer, ecdsaSigner *ECDSASigner) *MultiSigner {
	return &MultiSigner{ed25519: ed25519Signer, ecdsa: ecdsaSigner}
}

func (s *MultiSigner) SignHubApproval(intentID [32]byte) ([]byte, []byte, error) {
	return s.ed25519.SignHubApproval(intentID)
}

func (s *MultiSigner) SignSVMRelease(intentID [32]byte) ([]byte, []byte, error) {
	return s.ed25519.SignSVMRelease(intentID)
}

func (s *MultiSigner) SignEVMRelease(intentID [32]byte) ([]byte, error) {
	return s.ecdsa.SignEVMRelease(intentID)
}
