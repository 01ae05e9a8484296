package escrow

import (
	"sync"
	"time"
)

// OutflowValidator is the connected-chain outflow validator of spec
// §4.2.2: stores requirements delivered from the hub, and lets the solver
// fulfill them with a local transfer.
type OutflowValidator struct {
	mu sync.RWMutex

	hubChainID uint64
	hubAddr    [32]byte

	requirements map[[32]byte]*OutflowRequirements
}

// NewOutflowValidator returns a validator trusting messages only from
// (hubChainID, hubAddr).
func NewOutflowValidator(hubChainID uint64, hubAddr [32]byte) *OutflowValidator {
	return &OutflowValidator{
		hubChainID:   hubChainID,
		hubAddr:      hubAddr,
		requirements: make(map[[32]byte]*OutflowRequirements),
	}
}

// GMPReceive implements spec §4.2.2's idempotent gmp_receive. A second
// delivery for an intent_id that already has a RequirementsAccount is a
// no-op success.
func (v *OutflowValidator) GMPReceive(srcChainID uint64, srcAddr [32]byte, req OutflowRequirements) error {
	if srcChainID != v.hubChainID || srcAddr != v.hubAddr {
		return ErrUntrustedSource
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if _, exists := v.requirements[req.IntentID]; exists {
		return nil
	}
	v.requirements[req.IntentID] = &req
	return nil
}

// FulfillIntent implements spec §4.2.2's fulfill_intent(intent_id, token).
// transfer is called to move requirements.amount from solver to recipient
// only after every check passes; it abstracts the SPL-style transfer so
// this package has no chain-specific token-account logic.
func (v *OutflowValidator) FulfillIntent(
	intentID [32]byte,
	solver [32]byte,
	token string,
	recipientAccountOwner [32]byte,
	now time.Time,
	transfer func(amount uint64) error,
) (*FulfillmentProofEvent, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	req, ok := v.requirements[intentID]
	if !ok {
		return nil, ErrRequirementsMissing
	}
	if req.Fulfilled {
		return nil, ErrAlreadyFulfilled
	}
	if now.After(req.Expiry) {
		return nil, ErrExpired
	}
	if req.AuthorizedSolver != zero32 && req.AuthorizedSolver != solver {
		return nil, ErrUnauthorizedSolver
	}
	if token != req.Token {
		return nil, ErrTokenMismatch
	}
	if recipientAccountOwner != req.Recipient {
		return nil, ErrRecipientMismatch
	}

	if err := transfer(req.Amount); err != nil {
		return nil, err
	}

	req.Fulfilled = true
	return &FulfillmentProofEvent{IntentID: intentID, Token: token, Fulfiller: solver}, nil
}

// Get returns a copy of the requirements for intentID.
func (v *OutflowValidator) Get(intentID [32]byte) (OutflowRequirements, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	req, ok := v.requirements[intentID]
	if !ok {
		return OutflowRequirements{}, false
	}
	return *req, true
}
