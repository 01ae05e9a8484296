package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/intentmesh/fabric/pkg/liquidity"
)

// ConnectedChainTransfer executes the connected-chain transfer for an
// outflow intent, embedding intent_id in calldata/memo/utils function per
// spec §4.6, and returns the resulting transaction hash plus the chain
// family (chainadapter.Family.String()) the transfer landed on, so the
// caller can tell the validator which connected chain it is reporting a
// fulfillment for.
type ConnectedChainTransfer interface {
	Transfer(ctx context.Context, intentID string) (txHash string, chainFamily string, err error)
}

// ApprovalRequester requests a validator approval for a transaction hash,
// mirroring POST /validate-outflow-fulfillment. chainFamily is the
// connected chain the transaction landed on (chain_type on the wire),
// threaded through for the validator's solver-registry resolution.
type ApprovalRequester interface {
	RequestApproval(ctx context.Context, txHash, chainFamily, intentID string) (signature []byte, ok bool, err error)
}

// OutflowService implements spec §4.6's "Outflow service": for each Created
// outflow intent, execute the connected-chain transfer, obtain a validator
// approval for that tx hash, and invoke the hub outflow-fulfill with the
// signature.
type OutflowService struct {
	tracker  *Tracker
	transfer ConnectedChainTransfer
	approval ApprovalRequester
	hub      HubClient
	liq      *liquidity.Monitor
	log      *log.Logger
}

// NewOutflowService constructs an OutflowService.
func NewOutflowService(tracker *Tracker, transfer ConnectedChainTransfer, approval ApprovalRequester, hub HubClient, liq *liquidity.Monitor, logger *log.Logger) *OutflowService {
	if logger == nil {
		logger = log.New(log.Writer(), "[OutflowService] ", log.LstdFlags)
	}
	return &OutflowService{tracker: tracker, transfer: transfer, approval: approval, hub: hub, liq: liq, log: logger}
}

// RunOnce advances every Created outflow intent one step, returning the
// number successfully marked Fulfilled.
func (s *OutflowService) RunOnce(ctx context.Context) (fulfilled int, err error) {
	for _, ti := range s.tracker.ByState(StateCreated) {
		if ti.Draft.IntentID == "" {
			continue
		}

		txHash, chainFamily, err := s.transfer.Transfer(ctx, ti.Draft.IntentID)
		if err != nil {
			s.log.Printf("transfer intent_id=%s: %v", ti.Draft.IntentID, err)
			continue
		}

		sig, ok, err := s.approval.RequestApproval(ctx, txHash, chainFamily, ti.Draft.IntentID)
		if err != nil {
			s.log.Printf("request approval intent_id=%s: %v", ti.Draft.IntentID, err)
			continue
		}
		if !ok {
			continue
		}

		if err := s.hub.OutflowFulfill(ctx, ti.Draft.IntentID, sig); err != nil {
			s.log.Printf("outflow_fulfill intent_id=%s: %v", ti.Draft.IntentID, err)
			continue
		}

		ct := liquidity.ChainToken{ChainID: ti.Draft.DesiredChainID, Token: ti.Draft.DesiredToken}
		s.liq.Release(ct, ti.Draft.DraftID)
		if err := s.tracker.MarkFulfilled(ti.Draft.DraftID); err != nil {
			return fulfilled, fmt.Errorf("mark fulfilled: %w", err)
		}
		fulfilled++
	}
	return fulfilled, nil
}
