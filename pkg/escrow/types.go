// Package escrow implements the three escrow state machines of spec §4.2:
// connected-chain inflow escrow, connected-chain outflow validator, and hub
// escrow. All three share the Created -> (Claimed|Cancelled) shape; each
// keeps its own fields but returns events through the same Apply-then-event
// pattern the teacher's ledger.LedgerStore and batch.Collector use.
package escrow

import "time"

// State is the shared terminal-transition machine of spec §4.2.
type State int

const (
	StateCreated State = iota
	StateClaimed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateClaimed:
		return "claimed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// StoredIntentRequirements is what the inflow escrow's create() checks
// against: the IntentRequirements delivered from the hub via GMP.
type StoredIntentRequirements struct {
	IntentID      [32]byte
	Token         string
	RequiredAmount uint64
	Expiry        time.Time
	EscrowCreated bool
	Fulfilled     bool
}

// InflowEscrow is the connected-chain inflow escrow of spec §4.2.1: the
// requester locks offered tokens; the solver claims once the hub signals
// fulfillment.
type InflowEscrow struct {
	IntentID       [32]byte
	Amount         uint64
	ReservedSolver [32]byte
	Expiry         time.Time
	State          State
}

// EscrowCreatedEvent is emitted by InflowBook.Create and HubBook.Create.
type EscrowCreatedEvent struct {
	IntentID [32]byte
	Amount   uint64
}

// EscrowClaimedEvent is emitted on a successful claim.
type EscrowClaimedEvent struct {
	IntentID [32]byte
	Amount   uint64
}

// EscrowCancelledEvent is emitted on a successful cancel.
type EscrowCancelledEvent struct {
	IntentID [32]byte
	Amount   uint64
}

// OutflowRequirements is the OutflowValidator's RequirementsAccount, stored
// after gmp_receive, per spec §4.2.2.
type OutflowRequirements struct {
	IntentID         [32]byte
	Recipient        [32]byte
	Amount           uint64
	Token            string
	AuthorizedSolver [32]byte
	Expiry           time.Time
	Fulfilled        bool
}

// FulfillmentProofEvent is emitted by OutflowValidator.FulfillIntent once a
// transfer completes, to be sent onward via GMP.
type FulfillmentProofEvent struct {
	IntentID  [32]byte
	Token     string
	Fulfiller [32]byte
}

var zero32 [32]byte
