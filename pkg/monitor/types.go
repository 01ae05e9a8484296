package monitor

import "time"

// IntentEvent is the normalized projection of a hub intent-creation event.
type IntentEvent struct {
	IntentID          string
	ConnectedChainID  uint64
	OfferedMetadata   string
	OfferedAmount     uint64
	DesiredMetadata   string
	DesiredAmount     uint64
	ReservedSolver    string
	RequesterAddrConn string
	ObservedAt        time.Time
}

// EscrowEvent is the normalized projection of a connected-chain escrow
// initialization event.
type EscrowEvent struct {
	IntentID        string
	ChainID         uint64
	OfferedMetadata string
	OfferedAmount   uint64
	DesiredAmount   uint64
	ReservedSolver  string
	ObservedAt      time.Time
}

// FulfillmentEvent is the normalized projection of an outflow fulfillment
// transaction on a connected chain.
type FulfillmentEvent struct {
	IntentID   string
	TxHash     string
	Confirmed  bool
	Successful bool
	Recipient  string
	Amount     uint64
	Solver     string
	ChainID    uint64
	ObservedAt time.Time
}

// SolverRegistry resolves a solver's address on one chain family to its
// address on another, mirroring the hub's solver_registry view functions
// (spec §4.5 invariant 6 / outflow check 5): MVM<->MVM direct, MVM<->EVM
// cross-lookup, MVM<->SVM cross-lookup.
type SolverRegistry interface {
	ResolveConnectedChainAddress(mvmSolverAddr string, chainFamily string) (string, error)
}
