package escrow

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
)

func TestEd25519VerifierAcceptsValidSignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	intentID := intentIDFor(0x40)
	sig := ed25519.Sign(priv, intentID[:])

	ok, err := Ed25519Verifier{}.Verify(pub, intentID, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid signature to verify")
	}
}

func TestEd25519VerifierRejectsWrongIntent(t *testing.T) {
	pub, priv, _ := ed25519.GenerateKey(rand.Reader)
	signedID := intentIDFor(0x41)
	otherID := intentIDFor(0x42)
	sig := ed25519.Sign(priv, signedID[:])

	ok, err := Ed25519Verifier{}.Verify(pub, otherID, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if ok {
		t.Fatalf("expected signature over a different intent_id to be rejected")
	}
}

func TestECDSAVerifierAcceptsValidSignature(t *testing.T) {
	key, err := ecdsa.GenerateKey(crypto.S256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey)

	intentID := intentIDFor(0x50)
	inner := crypto.Keccak256(intentID[:])
	prefixed := crypto.Keccak256(append([]byte("\x19Ethereum Signed Message:\n32"), inner...))

	sig, err := crypto.Sign(prefixed, key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	sig[64] += 27

	ok, err := ECDSAVerifier{}.Verify(addr.Bytes(), intentID, sig)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected valid ecdsa signature to verify")
	}
}
