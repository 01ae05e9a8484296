package escrow

import (
	"fmt"
	"sync"
	"time"
)

// HubBook mirrors InflowBook on the hub side for outflow intents (spec
// §4.2.3: "symmetric to 4.2.1"). The hub locks the requester's offered
// tokens; the outflow validator's FulfillmentProof (relayed back via GMP)
// authorizes the claim.
type HubBook struct {
	mu           sync.RWMutex
	requirements map[[32]byte]*StoredIntentRequirements
	escrows      map[[32]byte]*InflowEscrow
}

// NewHubBook returns an empty book.
func NewHubBook() *HubBook {
	return &HubBook{
		requirements: make(map[[32]byte]*StoredIntentRequirements),
		escrows:      make(map[[32]byte]*InflowEscrow),
	}
}

// StoreRequirements records the hub-local requirements an outflow intent's
// creator registered before funds were locked.
func (b *HubBook) StoreRequirements(req StoredIntentRequirements) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requirements[req.IntentID] = &req
}

// MarkFulfilled flips Fulfilled once the outflow validator's
// FulfillmentProof arrives via GMP.
func (b *HubBook) MarkFulfilled(intentID [32]byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.requirements[intentID]
	if !ok {
		return ErrRequirementsMissing
	}
	req.Fulfilled = true
	return nil
}

// Create locks amount on the hub for intentID, symmetric to
// InflowBook.Create.
func (b *HubBook) Create(intentID [32]byte, amount uint64, reservedSolver [32]byte, token string, now time.Time) (*EscrowCreatedEvent, error) {
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

// Claim releases the hub-locked amount to the solver once fulfillment is
// confirmed, symmetric to InflowBook.Claim.
func (b *HubBook) Claim(intentID [32]byte, now time.Time) (*EscrowClaimedEvent, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	req, ok := b.requirements[intentID]
	if !ok {
		return nil, ErrRequirementsMissing
	}
	esc, ok := b.escrows[intentID]
	if !ok {
		return nil, fmt.Errorf("escrow: no hub escrow created for intent_id %x", intentID)
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

// Cancel refunds the hub-locked amount to the requester after expiry,
// admin-only, symmetric to InflowBook.Cancel.
func (b *HubBook) Cancel(caller, admin [32]byte, intentID [32]byte, now time.Time) (*EscrowCancelledEvent, error) {
	if caller != admin {
		return nil, ErrNotAdmin
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	esc, ok := b.escrows[intentID]
	if !ok {
		return nil, fmt.Errorf("escrow: no hub escrow created for intent_id %x", intentID)
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

// Get returns a copy of the hub escrow for intentID.
func (b *HubBook) Get(intentID [32]byte) (InflowEscrow, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	esc, ok := b.escrows[intentID]
	if !ok {
		return InflowEscrow{}, false
	}
	return *esc, true
}
