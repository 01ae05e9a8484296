package escrow

import "errors"

// Sentinel errors mirroring spec §4.2 / §7's failure taxonomy for the three
// escrow variants, checked with errors.Is.
var (
	ErrZeroAmount          = errors.New("escrow: amount must be greater than zero")
	ErrZeroSolver          = errors.New("escrow: reserved_solver must not be the zero address")
	ErrRequirementsMissing = errors.New("escrow: no stored intent requirements for this intent_id")
	ErrAlreadyCreated      = errors.New("escrow: escrow already created for this intent_id")
	ErrAmountBelowRequired = errors.New("escrow: amount is below the required amount")
	ErrTokenMismatch       = errors.New("escrow: token does not match requirements")
	ErrExpired             = errors.New("escrow: past expiry")
	ErrNotFulfilled        = errors.New("escrow: requirements not yet fulfilled")
	ErrAlreadyClaimed      = errors.New("escrow: escrow already claimed")
	ErrNotExpiredYet       = errors.New("escrow: cannot cancel before expiry")
	ErrNotAdmin            = errors.New("escrow: caller is not the admin")
	ErrUntrustedSource     = errors.New("escrow: message not from the trusted hub chain/address")
	ErrAlreadyFulfilled    = errors.New("escrow: intent already fulfilled")
	ErrUnauthorizedSolver  = errors.New("escrow: caller is not the authorized solver")
	ErrRecipientMismatch   = errors.New("escrow: recipient token account owner mismatch")
	ErrInvalidSignature    = errors.New("escrow: sibling-instruction signature invalid for this intent_id")
)
