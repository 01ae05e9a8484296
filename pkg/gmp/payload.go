package gmp

import (
	"encoding/binary"
	"fmt"
)

// ByteOrder is the integer encoding used throughout the wire payload. The
// spec leaves this as an open question (§9); the fabric fixes it to
// big-endian, matching the big-endian encodings go-ethereum's abi package
// and most connected-EVM calldata use elsewhere in this module.
var ByteOrder = binary.BigEndian

// MsgType identifies one of the three payload bodies defined in spec §6.
type MsgType byte

const (
	MsgIntentRequirements MsgType = 0x01
	MsgEscrowConfirmation MsgType = 0x02
	MsgFulfillmentProof   MsgType = 0x03
)

func (t MsgType) String() string {
	switch t {
	case MsgIntentRequirements:
		return "IntentRequirements"
	case MsgEscrowConfirmation:
		return "EscrowConfirmation"
	case MsgFulfillmentProof:
		return "FulfillmentProof"
	default:
		return fmt.Sprintf("MsgType(0x%02x)", byte(t))
	}
}

// headerLen is 1 byte msg_type + 32 bytes intent_id.
const headerLen = 33

// Payload is a decoded wire payload: msg_type(1) || intent_id(32) || body.
type Payload struct {
	MsgType  MsgType
	IntentID [32]byte
	Body     []byte
}

// Encode serializes p back into the wire format.
func (p Payload) Encode() []byte {
	out := make([]byte, headerLen+len(p.Body))
	out[0] = byte(p.MsgType)
	copy(out[1:33], p.IntentID[:])
	copy(out[33:], p.Body)
	return out
}

// DecodePayload parses the msg_type/intent_id header off raw, per the
// deliver_message operation in spec §4.1 step 2. Returns ErrInvalidPayload
// if raw is shorter than the fixed 33-byte header.
func DecodePayload(raw []byte) (Payload, error) {
	if len(raw) < headerLen {
		return Payload{}, fmt.Errorf("%w: got %d bytes, need at least %d", ErrInvalidPayload, len(raw), headerLen)
	}
	var p Payload
	p.MsgType = MsgType(raw[0])
	copy(p.IntentID[:], raw[1:33])
	if len(raw) > headerLen {
		p.Body = append([]byte(nil), raw[headerLen:]...)
	}
	return p, nil
}

// IntentRequirementsBody is the decoded body of an IntentRequirements
// message: requester_addr:[32] token_addr:[32] solver_addr:[32] amount:u64
// expiry:u64, fixed-width per the wire format. It is what the solver must
// deliver on the connected chain (or the hub) before an escrow can be
// created and, later, claimed.
type IntentRequirementsBody struct {
	RequesterAddr [32]byte
	TokenAddr     [32]byte
	SolverAddr    [32]byte
	Amount        uint64
	Expiry        uint64
}

// intentRequirementsBodyLen is 32+32+32+8+8.
const intentRequirementsBodyLen = 112

// Encode serializes the body with fixed-width integers per ByteOrder.
func (b IntentRequirementsBody) Encode() []byte {
	out := make([]byte, 0, intentRequirementsBodyLen)
	out = append(out, b.RequesterAddr[:]...)
	out = append(out, b.TokenAddr[:]...)
	out = append(out, b.SolverAddr[:]...)
	out = appendUint64(out, b.Amount)
	out = appendUint64(out, b.Expiry)
	return out
}

// DecodeIntentRequirementsBody reverses Encode.
func DecodeIntentRequirementsBody(body []byte) (IntentRequirementsBody, error) {
	var b IntentRequirementsBody
	if len(body) < intentRequirementsBodyLen {
		return b, fmt.Errorf("intent_requirements body: %w", ErrInvalidPayload)
	}
	copy(b.RequesterAddr[:], body[0:32])
	copy(b.TokenAddr[:], body[32:64])
	copy(b.SolverAddr[:], body[64:96])
	b.Amount = ByteOrder.Uint64(body[96:104])
	b.Expiry = ByteOrder.Uint64(body[104:112])
	return b, nil
}

// EscrowConfirmationBody is the decoded body of an EscrowConfirmation
// message: escrow_id:[32] amount_escrowed:u64 token_addr:[32]
// creator_addr:[32] — the inflow escrow telling the hub it has locked
// funds.
type EscrowConfirmationBody struct {
	EscrowID       [32]byte
	AmountEscrowed uint64
	TokenAddr      [32]byte
	CreatorAddr    [32]byte
}

// escrowConfirmationBodyLen is 32+8+32+32.
const escrowConfirmationBodyLen = 104

func (b EscrowConfirmationBody) Encode() []byte {
	out := make([]byte, 0, escrowConfirmationBodyLen)
	out = append(out, b.EscrowID[:]...)
	out = appendUint64(out, b.AmountEscrowed)
	out = append(out, b.TokenAddr[:]...)
	out = append(out, b.CreatorAddr[:]...)
	return out
}

func DecodeEscrowConfirmationBody(body []byte) (EscrowConfirmationBody, error) {
	var b EscrowConfirmationBody
	if len(body) < escrowConfirmationBodyLen {
		return b, fmt.Errorf("escrow_confirmation body: %w", ErrInvalidPayload)
	}
	copy(b.EscrowID[:], body[0:32])
	b.AmountEscrowed = ByteOrder.Uint64(body[32:40])
	copy(b.TokenAddr[:], body[40:72])
	copy(b.CreatorAddr[:], body[72:104])
	return b, nil
}

// FulfillmentProofBody is the decoded body of a FulfillmentProof message:
// solver_addr:[32] amount_fulfilled:u64 timestamp:u64 — the outflow
// validator telling the hub (or the hub telling an inflow escrow) that
// fulfillment happened, so claim/claim-adjacent state can transition.
type FulfillmentProofBody struct {
	SolverAddr      [32]byte
	AmountFulfilled uint64
	Timestamp       uint64
}

// fulfillmentProofBodyLen is 32+8+8.
const fulfillmentProofBodyLen = 48

func (b FulfillmentProofBody) Encode() []byte {
	out := make([]byte, 0, fulfillmentProofBodyLen)
	out = append(out, b.SolverAddr[:]...)
	out = appendUint64(out, b.AmountFulfilled)
	out = appendUint64(out, b.Timestamp)
	return out
}

func DecodeFulfillmentProofBody(body []byte) (FulfillmentProofBody, error) {
	var b FulfillmentProofBody
	if len(body) < fulfillmentProofBodyLen {
		return b, fmt.Errorf("fulfillment_proof body: %w", ErrInvalidPayload)
	}
	copy(b.SolverAddr[:], body[0:32])
	b.AmountFulfilled = ByteOrder.Uint64(body[32:40])
	b.Timestamp = ByteOrder.Uint64(body[40:48])
	return b, nil
}

func appendUint64(dst []byte, v uint64) []byte {
	var buf [8]byte
	ByteOrder.PutUint64(buf[:], v)
	return append(dst, buf[:]...)
}

func readUint64(src []byte) (uint64, []byte, error) {
	if len(src) < 8 {
		return 0, nil, ErrInvalidPayload
	}
	return ByteOrder.Uint64(src[:8]), src[8:], nil
}
