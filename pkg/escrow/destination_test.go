package escrow

import (
	"context"
	"testing"
	"time"

	"github.com/intentmesh/fabric/pkg/gmp"
)

func TestOutflowValidatorDestinationStoresRequirements(t *testing.T) {
	hubChainID := uint64(7)
	hubAddr := intentIDFor(0x01)
	v := NewOutflowValidator(hubChainID, hubAddr)
	dest := NewOutflowValidatorDestination(v)

	intentID := intentIDFor(0x02)
	requester := intentIDFor(0x03)
	token := intentIDFor(0x04)
	solver := intentIDFor(0x05)
	body := gmp.IntentRequirementsBody{
		RequesterAddr: requester,
		TokenAddr:     token,
		SolverAddr:    solver,
		Amount:        1000,
		Expiry:        uint64(time.Now().Add(time.Hour).Unix()),
	}
	payload := gmp.Payload{MsgType: gmp.MsgIntentRequirements, IntentID: intentID, Body: body.Encode()}

	if err := dest.HandleMessage(context.Background(), hubChainID, payload, nil); err != nil {
		t.Fatalf("handle message: %v", err)
	}

	req, ok := v.Get(intentID)
	if !ok {
		t.Fatalf("expected requirements stored")
	}
	if req.Recipient != requester || req.AuthorizedSolver != solver || req.Amount != 1000 {
		t.Fatalf("unexpected requirements: %+v", req)
	}
}

func TestOutflowValidatorDestinationRejectsWrongMsgType(t *testing.T) {
	dest := NewOutflowValidatorDestination(NewOutflowValidator(1, intentIDFor(0x01)))
	payload := gmp.Payload{MsgType: gmp.MsgFulfillmentProof, IntentID: intentIDFor(0x02)}
	if err := dest.HandleMessage(context.Background(), 1, payload, nil); err == nil {
		t.Fatalf("expected error for unsupported msg type")
	}
}

func TestInflowEscrowDestinationStoresAndMarksFulfilled(t *testing.T) {
	book := NewInflowBook()
	dest := NewInflowEscrowDestination(book)

	intentID := intentIDFor(0x10)
	token := intentIDFor(0x11)
	reqBody := gmp.IntentRequirementsBody{
		TokenAddr: token,
		Amount:    250,
		Expiry:    uint64(time.Now().Add(time.Hour).Unix()),
	}
	reqPayload := gmp.Payload{MsgType: gmp.MsgIntentRequirements, IntentID: intentID, Body: reqBody.Encode()}
	if err := dest.HandleMessage(context.Background(), 1, reqPayload, nil); err != nil {
		t.Fatalf("store requirements: %v", err)
	}

	solver := intentIDFor(0x12)
	event, err := book.Create(intentID, 250, solver, addrToToken(token), time.Now())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if event.Amount != 250 {
		t.Fatalf("unexpected created amount: %d", event.Amount)
	}

	proofBody := gmp.FulfillmentProofBody{SolverAddr: solver, AmountFulfilled: 250}
	proofPayload := gmp.Payload{MsgType: gmp.MsgFulfillmentProof, IntentID: intentID, Body: proofBody.Encode()}
	if err := dest.HandleMessage(context.Background(), 1, proofPayload, nil); err != nil {
		t.Fatalf("mark fulfilled: %v", err)
	}

	if _, err := book.Claim(intentID, time.Now()); err != nil {
		t.Fatalf("claim: %v", err)
	}
}

func TestHubEscrowDestinationHandlesFulfillmentProofAndConfirmation(t *testing.T) {
	book := NewHubBook()
	dest := NewHubEscrowDestination(book, nil)

	intentID := intentIDFor(0x20)
	solver := intentIDFor(0x21)
	token := intentIDFor(0x22)
	book.StoreRequirements(StoredIntentRequirements{
		IntentID:       intentID,
		Token:          addrToToken(token),
		RequiredAmount: 100,
		Expiry:         time.Now().Add(time.Hour),
	})
	if _, err := book.Create(intentID, 100, solver, addrToToken(token), time.Now()); err != nil {
		t.Fatalf("create: %v", err)
	}

	confirmBody := gmp.EscrowConfirmationBody{EscrowID: intentID, AmountEscrowed: 100, TokenAddr: token}
	confirmPayload := gmp.Payload{MsgType: gmp.MsgEscrowConfirmation, IntentID: intentID, Body: confirmBody.Encode()}
	if err := dest.HandleMessage(context.Background(), 2, confirmPayload, nil); err != nil {
		t.Fatalf("handle escrow_confirmation: %v", err)
	}

	proofBody := gmp.FulfillmentProofBody{SolverAddr: solver, AmountFulfilled: 100}
	proofPayload := gmp.Payload{MsgType: gmp.MsgFulfillmentProof, IntentID: intentID, Body: proofBody.Encode()}
	if err := dest.HandleMessage(context.Background(), 2, proofPayload, nil); err != nil {
		t.Fatalf("handle fulfillment_proof: %v", err)
	}

	if _, err := book.Claim(intentID, time.Now()); err != nil {
		t.Fatalf("claim: %v", err)
	}
}
