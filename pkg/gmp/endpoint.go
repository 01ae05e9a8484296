// Package gmp implements the Generic Message Pass endpoint of spec §4.1: a
// deterministic cross-chain message send/receive program with admin-
// controlled routing, reference-implemented in Go per SPEC_FULL.md §1 rather
// than compiled to each chain's native contract language.
package gmp

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"sync"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

// Config is the GMP ConfigAccount singleton (spec §3): admin and chain_id.
// Whether the endpoint has been initialized is tracked on Endpoint itself.
type Config struct {
	Admin   [32]byte
	ChainID uint64
}

// TrustedRemote binds one source chain to the one address on that chain
// this endpoint will accept deliveries from.
type TrustedRemote struct {
	TrustedAddr [32]byte
}

// Routing holds the GMP RoutingConfig: the two local destinations
// deliver_message may dispatch to. A zero address means "unconfigured".
type Routing struct {
	OutflowValidator [32]byte
	IntentEscrow     [32]byte
}

var zero32 [32]byte

// Destination receives a dispatched payload. Escrow and validator
// components implement this to plug into an Endpoint's routing table.
type Destination interface {
	HandleMessage(ctx context.Context, srcChainID uint64, payload Payload, accounts AccountSlice) error
}

// AccountSlice is the disjoint account list a destination receives per
// spec §6; the reference implementation doesn't model PDAs so this is a
// label-keyed bag rather than a real account list, but it preserves the
// "each destination gets its own slice" shape so adapters that DO target a
// real SVM/MVM deployment have a place to plug derived accounts in.
type AccountSlice map[string]string

// MessageRecord is a GMP MessageAccount: immutable once written, keyed by
// (dst_chain_id, nonce).
type MessageRecord struct {
	SrcChainID uint64
	DstChainID uint64
	Nonce      uint64
	SrcAddr    [32]byte
	DstAddr    [32]byte
	Payload    []byte
}

// deliveredKey is the DeliveredMessage dedup key: (intent_id, msg_type).
type deliveredKey struct {
	intentID [32]byte
	msgType  MsgType
}

// Endpoint is the GMP endpoint program, guarded by a single RWMutex per the
// teacher's single-lock-per-aggregate precedent (intent.IntentDiscovery,
// database.Client).
type Endpoint struct {
	mu sync.RWMutex

	initialized bool
	cfg         Config

	relays  map[[32]byte]bool
	remotes map[uint64]TrustedRemote
	routing Routing

	outboundNonce map[uint64]uint64
	messages      map[uint64]map[uint64]MessageRecord // dst_chain_id -> nonce -> record
	delivered     map[deliveredKey]bool

	outflowValidator Destination
	intentEscrow     Destination

	// emitter, if set via SetEmitter, receives a "message_sent" event for
	// every successful Send through its Emit method (as SimulatedAdapter
	// provides), so pkg/relay's adapter-based poller (which has no other
	// way to observe this endpoint's outbound nonces) can discover it. Nil
	// is a valid value, as is an adapter with no Emit method: either way
	// nothing is emitted and the endpoint simply can't be polled, which
	// matches how an un-deployed program would behave.
	emitter chainadapter.Adapter

	log *log.Logger
}

// NewEndpoint constructs an uninitialized endpoint. Call Initialize before
// any other operation.
func NewEndpoint(logger *log.Logger) *Endpoint {
	if logger == nil {
		logger = log.New(log.Writer(), "[GMP] ", log.LstdFlags)
	}
	return &Endpoint{
		relays:        make(map[[32]byte]bool),
		remotes:       make(map[uint64]TrustedRemote),
		outboundNonce: make(map[uint64]uint64),
		messages:      make(map[uint64]map[uint64]MessageRecord),
		delivered:     make(map[deliveredKey]bool),
		log:           logger,
	}
}

// SetEmitter wires adapter as the chain this endpoint's Send calls emit
// "message_sent" events onto, for a relay to discover. Not part of spec
// §4.1's operation set; purely a local wiring seam between the endpoint
// and whichever SimulatedAdapter represents this endpoint's own chain.
func (e *Endpoint) SetEmitter(adapter chainadapter.Adapter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.emitter = adapter
}

// Initialize creates the singleton ConfigAccount. Fails ErrAlreadyInitialized
// if called twice.
func (e *Endpoint) Initialize(admin [32]byte, chainID uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return ErrAlreadyInitialized
	}
	e.cfg = Config{Admin: admin, ChainID: chainID}
	e.initialized = true
	e.log.Printf("initialized chain_id=%d admin=%x", chainID, admin)
	return nil
}

func (e *Endpoint) requireInitializedAndAdmin(caller [32]byte) error {
	if !e.initialized {
		return ErrNotInitialized
	}
	if caller != e.cfg.Admin {
		return ErrNotAdmin
	}
	return nil
}

// AddRelay authorizes relay_pubkey to call DeliverMessage. Admin-only.
func (e *Endpoint) AddRelay(caller, relayPubkey [32]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireInitializedAndAdmin(caller); err != nil {
		return err
	}
	e.relays[relayPubkey] = true
	return nil
}

// RemoveRelay revokes relay_pubkey's authorization. Admin-only.
func (e *Endpoint) RemoveRelay(caller, relayPubkey [32]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireInitializedAndAdmin(caller); err != nil {
		return err
	}
	delete(e.relays, relayPubkey)
	return nil
}

// SetTrustedRemote creates or overwrites the trust binding for srcChainID.
// Admin-only.
func (e *Endpoint) SetTrustedRemote(caller [32]byte, srcChainID uint64, trustedAddr [32]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireInitializedAndAdmin(caller); err != nil {
		return err
	}
	e.remotes[srcChainID] = TrustedRemote{TrustedAddr: trustedAddr}
	return nil
}

// SetRouting updates which local destinations deliver_message may dispatch
// to. Zero values mean "unconfigured" for that side. Admin-only.
func (e *Endpoint) SetRouting(caller [32]byte, outflowValidator, intentEscrow [32]byte, outflowDest, escrowDest Destination) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.requireInitializedAndAdmin(caller); err != nil {
		return err
	}
	e.routing = Routing{OutflowValidator: outflowValidator, IntentEscrow: intentEscrow}
	e.outflowValidator = outflowDest
	e.intentEscrow = escrowDest
	return nil
}

// Send increments OutboundNonce[dstChainID], records the MessageAccount,
// and returns the nonce it was assigned. signed must be true or
// ErrMissingSignature is returned, mirroring the on-chain "sender must
// sign" requirement with no real signature verification surface in this
// reference implementation.
func (e *Endpoint) Send(dstChainID uint64, dstAddr, srcAddr [32]byte, payload []byte, signed bool) (nonce uint64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.initialized {
		return 0, ErrNotInitialized
	}
	if !signed {
		return 0, ErrMissingSignature
	}
	nonce = e.outboundNonce[dstChainID]
	e.outboundNonce[dstChainID] = nonce + 1

	rec := MessageRecord{
		SrcChainID: e.cfg.ChainID,
		DstChainID: dstChainID,
		Nonce:      nonce,
		SrcAddr:    srcAddr,
		DstAddr:    dstAddr,
		Payload:    append([]byte(nil), payload...),
	}
	if e.messages[dstChainID] == nil {
		e.messages[dstChainID] = make(map[uint64]MessageRecord)
	}
	e.messages[dstChainID][nonce] = rec
	e.log.Printf("MessageSent dst_chain_id=%d nonce=%d len=%d", dstChainID, nonce, len(payload))
	if em, ok := e.emitter.(interface{ Emit(chainadapter.Event) }); ok {
		em.Emit(chainadapter.Event{
			EventType: "message_sent",
			Raw: map[string]interface{}{
				"dst_chain_id": dstChainID,
				"nonce":        nonce,
				"src_addr":     hex.EncodeToString(srcAddr[:]),
				"payload":      hex.EncodeToString(payload),
			},
		})
	}
	return nonce, nil
}

// MessageAt returns the MessageRecord stored at (dstChainID, nonce), for
// relay polling.
func (e *Endpoint) MessageAt(dstChainID, nonce uint64) (MessageRecord, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rec, ok := e.messages[dstChainID][nonce]
	return rec, ok
}

// NextNonce returns the next nonce that will be assigned for dstChainID,
// i.e. one past the highest MessageAccount currently recorded.
func (e *Endpoint) NextNonce(dstChainID uint64) uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.outboundNonce[dstChainID]
}

// DeliverMessage implements spec §4.1's deliver_message: validate length,
// authorize the relay, check the trusted remote, enforce at-most-once
// delivery, then dispatch to the configured destination(s).
func (e *Endpoint) DeliverMessage(ctx context.Context, caller [32]byte, srcChainID uint64, srcAddr [32]byte, payload []byte) error {
	e.mu.Lock()
	if !e.initialized {
		e.mu.Unlock()
		return ErrNotInitialized
	}
	if len(payload) < headerLen {
		e.mu.Unlock()
		return ErrInvalidPayload
	}
	if !e.relays[caller] {
		e.mu.Unlock()
		return ErrUnauthorizedRelay
	}
	remote, ok := e.remotes[srcChainID]
	if !ok || !bytes.Equal(remote.TrustedAddr[:], srcAddr[:]) {
		e.mu.Unlock()
		return ErrUntrustedRemote
	}

	decoded, err := DecodePayload(payload)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	key := deliveredKey{intentID: decoded.IntentID, msgType: decoded.MsgType}
	if e.delivered[key] {
		e.mu.Unlock()
		return ErrAlreadyDelivered
	}
	// Create the dedup marker before dispatching so a failed or re-entrant
	// dispatch can never re-fire side effects (spec §4.1 "Failure").
	e.delivered[key] = true

	routing := e.routing
	outflowDest := e.outflowValidator
	escrowDest := e.intentEscrow
	e.mu.Unlock()

	switch decoded.MsgType {
	case MsgIntentRequirements:
		if routing.OutflowValidator == zero32 || routing.IntentEscrow == zero32 {
			return fmt.Errorf("%w: msg_type=%s requires both sides routed", ErrNoRoute, decoded.MsgType)
		}
		if outflowDest == nil || escrowDest == nil {
			return fmt.Errorf("%w: routing configured but destination not wired", ErrNoRoute)
		}
		if err := outflowDest.HandleMessage(ctx, srcChainID, decoded, AccountSlice{"side": "outflow_validator"}); err != nil {
			return fmt.Errorf("dispatch to outflow_validator: %w", err)
		}
		if err := escrowDest.HandleMessage(ctx, srcChainID, decoded, AccountSlice{"side": "intent_escrow"}); err != nil {
			return fmt.Errorf("dispatch to intent_escrow: %w", err)
		}
		return nil
	case MsgFulfillmentProof:
		if routing.IntentEscrow == zero32 || escrowDest == nil {
			return fmt.Errorf("%w: msg_type=%s requires intent_escrow routed", ErrNoRoute, decoded.MsgType)
		}
		if err := escrowDest.HandleMessage(ctx, srcChainID, decoded, AccountSlice{"side": "intent_escrow"}); err != nil {
			return fmt.Errorf("dispatch to intent_escrow: %w", err)
		}
		return nil
	default:
		// EscrowConfirmation and any other message types dispatch to a
		// single explicit destination; the hub escrow registers itself as
		// intentEscrow for this purpose.
		if escrowDest == nil {
			return fmt.Errorf("%w: msg_type=%s has no destination wired", ErrNoRoute, decoded.MsgType)
		}
		if err := escrowDest.HandleMessage(ctx, srcChainID, decoded, AccountSlice{"side": "intent_escrow"}); err != nil {
			return fmt.Errorf("dispatch to intent_escrow: %w", err)
		}
		return nil
	}
}

// IsDelivered reports whether (intentID, msgType) has already been
// delivered, for tests and observability.
func (e *Endpoint) IsDelivered(intentID [32]byte, msgType MsgType) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.delivered[deliveredKey{intentID: intentID, msgType: msgType}]
}
