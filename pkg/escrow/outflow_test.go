package escrow

import (
	"errors"
	"testing"
	"time"
)

func TestOutflowValidatorFulfillIntent(t *testing.T) {
	hubChainID := uint64(1)
	hubAddr := intentIDFor(0x10)
	v := NewOutflowValidator(hubChainID, hubAddr)

	intentID := intentIDFor(0x11)
	recipient := intentIDFor(0x12)
	solver := intentIDFor(0x13)

	err := v.GMPReceive(hubChainID, hubAddr, OutflowRequirements{
		IntentID:  intentID,
		Recipient: recipient,
		Amount:    500,
		Token:     "0xusdc",
		Expiry:    time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("gmp_receive: %v", err)
	}

	// Idempotent re-delivery is a no-op success.
	if err := v.GMPReceive(hubChainID, hubAddr, OutflowRequirements{IntentID: intentID, Amount: 999}); err != nil {
		t.Fatalf("expected idempotent no-op, got %v", err)
	}
	req, _ := v.Get(intentID)
	if req.Amount != 500 {
		t.Fatalf("expected original amount 500 to survive re-delivery, got %d", req.Amount)
	}

	var transferred uint64
	event, err := v.FulfillIntent(intentID, solver, "0xusdc", recipient, time.Now(), func(amount uint64) error {
		transferred = amount
		return nil
	})
	if err != nil {
		t.Fatalf("fulfill_intent: %v", err)
	}
	if transferred != 500 {
		t.Fatalf("expected transfer of 500, got %d", transferred)
	}
	if event.Fulfiller != solver {
		t.Fatalf("expected fulfiller to be solver")
	}

	if _, err := v.FulfillIntent(intentID, solver, "0xusdc", recipient, time.Now(), func(uint64) error { return nil }); !errors.Is(err, ErrAlreadyFulfilled) {
		t.Fatalf("expected ErrAlreadyFulfilled, got %v", err)
	}
}

func TestOutflowValidatorRejectsUntrustedSource(t *testing.T) {
	v := NewOutflowValidator(1, intentIDFor(0x20))
	err := v.GMPReceive(2, intentIDFor(0x21), OutflowRequirements{IntentID: intentIDFor(0x22)})
	if !errors.Is(err, ErrUntrustedSource) {
		t.Fatalf("expected ErrUntrustedSource, got %v", err)
	}
}

func TestOutflowValidatorRejectsWrongSolver(t *testing.T) {
	hubAddr := intentIDFor(0x30)
	v := NewOutflowValidator(1, hubAddr)
	intentID := intentIDFor(0x31)
	recipient := intentIDFor(0x32)
	authorized := intentIDFor(0x33)
	impostor := intentIDFor(0x34)

	if err := v.GMPReceive(1, hubAddr, OutflowRequirements{
		IntentID:         intentID,
		Recipient:        recipient,
		Amount:           10,
		Token:            "0xusdc",
		AuthorizedSolver: authorized,
		Expiry:           time.Now().Add(time.Hour),
	}); err != nil {
		t.Fatalf("gmp_receive: %v", err)
	}

	_, err := v.FulfillIntent(intentID, impostor, "0xusdc", recipient, time.Now(), func(uint64) error { return nil })
	if !errors.Is(err, ErrUnauthorizedSolver) {
		t.Fatalf("expected ErrUnauthorizedSolver, got %v", err)
	}
}
