package gmp

import (
	"bytes"
	"math/rand"
	"testing"
)

func TestPayloadEncodeDecodeRoundTrip(t *testing.T) {
	var intentID [32]byte
	intentID[0] = 0xAB
	p := Payload{MsgType: MsgFulfillmentProof, IntentID: intentID, Body: []byte("body-bytes")}

	decoded, err := DecodePayload(p.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.MsgType != p.MsgType || decoded.IntentID != p.IntentID || !bytes.Equal(decoded.Body, p.Body) {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, p)
	}
}

func TestDecodePayloadRejectsShortInput(t *testing.T) {
	for _, n := range []int{0, 1, 15, 32} {
		if _, err := DecodePayload(make([]byte, n)); err == nil {
			t.Fatalf("expected error for payload of length %d", n)
		}
	}
}

// TestDecodePayloadNeverPanicsOnRandomBytes covers spec §8's "For any random
// byte string of length >= 33, DecodePayload either returns a valid Payload
// or a non-nil error — it never panics" property.
func TestDecodePayloadNeverPanicsOnRandomBytes(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 500; i++ {
		n := r.Intn(300)
		buf := make([]byte, n)
		r.Read(buf)
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					t.Fatalf("DecodePayload panicked on input of length %d: %v", n, rec)
				}
			}()
			_, _ = DecodePayload(buf)
		}()
	}
}

func TestIntentRequirementsBodyRoundTrip(t *testing.T) {
	var requester, token, solver [32]byte
	requester[0] = 0x01
	token[1] = 0x02
	solver[5] = 0x42
	b := IntentRequirementsBody{
		RequesterAddr: requester,
		TokenAddr:     token,
		SolverAddr:    solver,
		Amount:        1000,
		Expiry:        1893456000,
	}
	decoded, err := DecodeIntentRequirementsBody(b.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != b {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, b)
	}
}

func TestEscrowConfirmationBodyRoundTrip(t *testing.T) {
	var escrowID, token, creator [32]byte
	escrowID[1] = 0x11
	token[2] = 0x22
	creator[3] = 0x33
	b := EscrowConfirmationBody{EscrowID: escrowID, AmountEscrowed: 555, TokenAddr: token, CreatorAddr: creator}
	decoded, err := DecodeEscrowConfirmationBody(b.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != b {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, b)
	}
}

func TestFulfillmentProofBodyRoundTrip(t *testing.T) {
	var solver [32]byte
	solver[2] = 0x77
	b := FulfillmentProofBody{SolverAddr: solver, AmountFulfilled: 42, Timestamp: 1893456000}
	decoded, err := DecodeFulfillmentProofBody(b.Encode())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != b {
		t.Fatalf("round trip mismatch: got %+v want %+v", decoded, b)
	}
}
