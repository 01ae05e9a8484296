package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/intentmesh/fabric/pkg/liquidity"
	"github.com/intentmesh/fabric/pkg/monitor"
)

// HubClient is the subset of hub-chain calls the inflow/outflow services
// need, kept as a narrow interface so tests can stub it without a real
// chain adapter.
type HubClient interface {
	FulfillInflowIntent(ctx context.Context, intentID string) error
	OutflowFulfill(ctx context.Context, intentID string, signature []byte) error
}

// EscrowClaimer claims an inflow escrow on the connected chain once a
// validator approval is available.
type EscrowClaimer interface {
	Claim(ctx context.Context, intentID string) error
}

// ApprovalPoller fetches a cached validator approval for intentID, or
// false if none is available yet.
type ApprovalPoller interface {
	Approval(intentID string) (signature []byte, ok bool)
}

// InflowService implements spec §4.6's "Inflow service": for each Created
// inflow intent, poll the connected chain for a matching escrow, invoke
// the hub's fulfill_inflow_intent, poll the validator for an approval, and
// claim on the connected-chain escrow.
type InflowService struct {
	tracker  *Tracker
	monitor  *monitor.Service
	hub      HubClient
	claimer  EscrowClaimer
	approval ApprovalPoller
	liq      *liquidity.Monitor
	log      *log.Logger
}

// NewInflowService constructs an InflowService.
func NewInflowService(tracker *Tracker, mon *monitor.Service, hub HubClient, claimer EscrowClaimer, approval ApprovalPoller, liq *liquidity.Monitor, logger *log.Logger) *InflowService {
	if logger == nil {
		logger = log.New(log.Writer(), "[InflowService] ", log.LstdFlags)
	}
	return &InflowService{tracker: tracker, monitor: mon, hub: hub, claimer: claimer, approval: approval, liq: liq, log: logger}
}

// RunOnce advances every Created inflow intent one step, returning the
// number successfully marked Fulfilled.
func (s *InflowService) RunOnce(ctx context.Context) (fulfilled int, err error) {
	for _, ti := range s.tracker.ByState(StateCreated) {
		if ti.Draft.IntentID == "" {
			continue
		}
		if _, ok := s.monitor.Escrows().Get(ti.Draft.IntentID); !ok {
			continue // no matching escrow observed yet
		}
		if err := s.hub.FulfillInflowIntent(ctx, ti.Draft.IntentID); err != nil {
			s.log.Printf("fulfill_inflow_intent intent_id=%s: %v", ti.Draft.IntentID, err)
			continue
		}
		if _, ok := s.approval.Approval(ti.Draft.IntentID); !ok {
			continue // approval not ready yet; retry next poll
		}
		if err := s.claimer.Claim(ctx, ti.Draft.IntentID); err != nil {
			s.log.Printf("claim intent_id=%s: %v", ti.Draft.IntentID, err)
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
