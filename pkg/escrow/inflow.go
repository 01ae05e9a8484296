package escrow

import (
	"fmt"
	"sync"
	"time"
)

// InflowBook holds every InflowEscrow and the StoredIntentRequirements each
// one validates against, one per intent_id, guarded by a single RWMutex
// matching the teacher's per-aggregate locking precedent.
type InflowBook struct {
	mu           sync.RWMutex
	requirements map[[32]byte]*StoredIntentRequirements
	escrows      map[[32]byte]*InflowEscrow
}

// NewInflowBook returns an empty book.
func NewInflowBook() *InflowBook {
	return &InflowBook{
		requirements: make(map[[32]byte]*StoredIntentRequirements),
		escrows:      make(map[[32]byte]*InflowEscrow),
	}
}

// StoreRequirements records the requirements delivered from the hub via GMP
// (the IntentRequirements payload, decoded by pkg/gmp). Idempotent: a
// repeated delivery for the same intent_id overwrites only if no escrow has
// been created yet, matching gmp's at-most-once dedup making re-delivery
// unreachable in practice — this guards the logic against being called
// directly in tests.
func (b *InflowBook) StoreRequirements(req StoredIntentRequirements) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.requirements[req.IntentID]; ok && existing.EscrowCreated {
		return
	}
	b.requirements[req.IntentID] = &req
}

// MarkFulfilled flips the stored requirements' Fulfilled bit on arrival of a
// FulfillmentProof via GMP.
func (b *InflowBook) MarkFulfilled(intentID [32]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requirements[intentID]
	if !ok {
		return ErrRequirementsMissing
	}
	req.Fulfilled = true
	return nil
}

// Create implements spec §4.2.1's create(intent_id, amount, reserved_solver).
func (b *InflowBook) Create(intentID [32]byte, amount uint64, reservedSolver [32]byte, token string, now time.Time) (*EscrowCreatedEvent, error) {
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if reservedSolver == zero32 {
		return nil, ErrZeroSolver
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requirements[intentID]
	if !ok {
		return nil, ErrRequirementsMissing
	}
	if req.EscrowCreated {
		return nil, ErrAlreadyCreated
	}
	if amount < req.RequiredAmount {
		return nil, ErrAmountBelowRequired
	}
	if token != req.Token {
		return nil, ErrTokenMismatch
	}
	if now.After(req.Expiry) {
		return nil, ErrExpired
	}

	req.EscrowCreated = true
	b.escrows[intentID] = &InflowEscrow{
		IntentID:       intentID,
		Amount:         amount,
		ReservedSolver: reservedSolver,
		Expiry:         req.Expiry,
		State:          StateCreated,
	}
	return &EscrowCreatedEvent{IntentID: intentID, Amount: amount}, nil
}

// Claim implements spec §4.2.1's claim(intent_id).
func (b *InflowBook) Claim(intentID [32]byte, now time.Time) (*EscrowClaimedEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requirements[intentID]
	if !ok {
		return nil, ErrRequirementsMissing
	}
	esc, ok := b.escrows[intentID]
	if !ok {
		return nil, fmt.Errorf("escrow: no escrow created for intent_id %x", intentID)
	}
	if !req.Fulfilled {
		return nil, ErrNotFulfilled
	}
	if esc.State == StateClaimed {
		return nil, ErrAlreadyClaimed
	}
	if esc.Amount == 0 {
		return nil, ErrZeroAmount
	}
	if now.After(esc.Expiry) {
		return nil, ErrExpired
	}

	claimedAmount := esc.Amount
	esc.State = StateClaimed
	esc.Amount = 0
	return &EscrowClaimedEvent{IntentID: intentID, Amount: claimedAmount}, nil
}

// Cancel implements spec §4.2.1's admin-only cancel(intent_id).
func (b *InflowBook) Cancel(caller [32]byte, admin [32]byte, intentID [32]byte, now time.Time) (*EscrowCancelledEvent, error) {
	if caller != admin {
		return nil, ErrNotAdmin
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	esc, ok := b.escrows[intentID]
	if !ok {
		return nil, fmt.Errorf("escrow: no escrow created for intent_id %x", intentID)
	}
	if !now.After(esc.Expiry) {
		return nil, ErrNotExpiredYet
	}
	if esc.State == StateClaimed {
		return nil, ErrAlreadyClaimed
	}

	refund := esc.Amount
	esc.State = StateCancelled
	esc.Amount = 0
	return &EscrowCancelledEvent{IntentID: intentID, Amount: refund}, nil
}

// Get returns a copy of the escrow for intentID, for read-only callers
// (e.g. the validator's invariant checks).
func (b *InflowBook) Get(intentID [32]byte) (InflowEscrow, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	esc, ok := b.escrows[intentID]
	if !ok {
		return InflowEscrow{}, false
	}
	return *esc, true
}
