package validatorsvc

import (
	"fmt"

	"github.com/intentmesh/fabric/pkg/monitor"
)

// Checker implements the inflow and outflow invariant checks of spec §4.5
// as pure functions over the monitor's cached events plus a SolverRegistry
// collaborator, grounded on the teacher's pattern of consuming external hub
// view functions (consensus/execution packages) rather than reimplementing
// them locally.
type Checker struct {
	registry monitor.SolverRegistry
}

// NewChecker returns a Checker backed by registry.
func NewChecker(registry monitor.SolverRegistry) *Checker {
	return &Checker{registry: registry}
}

// CheckInflow implements spec §4.5's six inflow-direction invariants.
// Returns a nil error only if every invariant holds.
func (c *Checker) CheckInflow(intentEv monitor.IntentEvent, escrowEv monitor.EscrowEvent, connectedChainFamily string) error {
	if intentEv.ConnectedChainID == 0 {
		return fmt.Errorf("validatorsvc: intent has no connected_chain_id")
	}
	if escrowEv.OfferedAmount != intentEv.OfferedAmount {
		return fmt.Errorf("validatorsvc: escrow.offered_amount (%d) != intent.offered_amount (%d)", escrowEv.OfferedAmount, intentEv.OfferedAmount)
	}
	// Both fields were already run through monitor.NormalizeMetadata when
	// the monitor ingested their source events, so a direct comparison here
	// is exactly spec §4.5 invariant 3's
	// normalize(escrow.offered_metadata) == normalize(intent.offered_metadata).
	if escrowEv.OfferedMetadata != intentEv.OfferedMetadata {
		return fmt.Errorf("validatorsvc: normalize(escrow.offered_metadata) != normalize(intent.offered_metadata)")
	}
	if escrowEv.ChainID != intentEv.ConnectedChainID {
		return fmt.Errorf("validatorsvc: escrow.chain_id (%d) != intent.connected_chain_id (%d)", escrowEv.ChainID, intentEv.ConnectedChainID)
	}
	if escrowEv.DesiredAmount != 0 {
		return fmt.Errorf("validatorsvc: escrow.desired_amount (%d) != 0", escrowEv.DesiredAmount)
	}

	resolved, err := c.registry.ResolveConnectedChainAddress(intentEv.ReservedSolver, connectedChainFamily)
	if err != nil {
		return fmt.Errorf("validatorsvc: resolve solver address via registry: %w", err)
	}
	if resolved != escrowEv.ReservedSolver {
		return fmt.Errorf("validatorsvc: escrow.reserved_solver does not resolve to intent.reserved_solver via solver registry")
	}
	return nil
}

// OutflowCheckInput bundles the transaction-observed facts spec §4.5's
// outflow validation checks against an intent.
type OutflowCheckInput struct {
	TxConfirmed        bool
	TxSuccessful       bool
	TxIntentID         string
	TxRecipient        string
	TxRecipientATA     string
	TxAmount           uint64
	TxSolver           string
	ExpectedIntentID   string
	RequesterAddrConn  string
	RequesterATA       string
	DesiredAmount      uint64
	ReservedSolverMVM  string
	ConnectedChainFam  string
}

// CheckOutflow implements spec §4.5's five outflow-validation checks from a
// transaction hash on the connected chain.
func (c *Checker) CheckOutflow(in OutflowCheckInput) error {
	if !in.TxConfirmed || !in.TxSuccessful {
		return fmt.Errorf("validatorsvc: transaction is not confirmed and successful")
	}
	if in.TxIntentID != in.ExpectedIntentID {
		return fmt.Errorf("validatorsvc: tx.intent_id != intent.intent_id")
	}
	if in.TxRecipient != in.RequesterAddrConn && in.TxRecipientATA != in.RequesterATA {
		return fmt.Errorf("validatorsvc: recipient does not match requester wallet or associated token account")
	}
	if in.DesiredAmount == 0 {
		return fmt.Errorf("validatorsvc: intent.desired_amount must be greater than zero")
	}
	if in.TxAmount != in.DesiredAmount {
		return fmt.Errorf("validatorsvc: tx.amount (%d) != intent.desired_amount (%d)", in.TxAmount, in.DesiredAmount)
	}

	resolved, err := c.registry.ResolveConnectedChainAddress(in.ReservedSolverMVM, in.ConnectedChainFam)
	if err != nil {
		return fmt.Errorf("validatorsvc: resolve solver address via registry: %w", err)
	}
	if resolved != in.TxSolver {
		return fmt.Errorf("validatorsvc: tx.solver does not map to intent.reserved_solver via solver registry")
	}
	return nil
}
