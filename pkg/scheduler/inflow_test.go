package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/liquidity"
	"github.com/intentmesh/fabric/pkg/monitor"
)

type fakeHubClient struct {
	fulfillInflowErr error
	outflowFulfillErr error
}

func (f *fakeHubClient) FulfillInflowIntent(context.Context, string) error { return f.fulfillInflowErr }
func (f *fakeHubClient) OutflowFulfill(context.Context, string, []byte) error {
	return f.outflowFulfillErr
}

type fakeClaimer struct{ claimed []string }

func (f *fakeClaimer) Claim(_ context.Context, intentID string) error {
	f.claimed = append(f.claimed, intentID)
	return nil
}

type fakeApprovalPoller struct{ approvals map[string][]byte }

func (f *fakeApprovalPoller) Approval(intentID string) ([]byte, bool) {
	sig, ok := f.approvals[intentID]
	return sig, ok
}

func TestInflowServiceFulfillsWhenEscrowAndApprovalReady(t *testing.T) {
	tracker := NewTracker()
	tracker.put(&TrackedIntent{Draft: Draft{DraftID: "d1", IntentID: "0xintent", DesiredChainID: 2, DesiredToken: "0xusdt"}, State: StateCreated})

	registry := chainadapter.NewRegistry()
	mon := monitor.NewService(registry, time.Hour, time.Hour, nil, nil)
	mon.Escrows().Put("0xintent", monitor.EscrowEvent{IntentID: "0xintent"})

	liq := liquidity.NewMonitor(nil, nil, 0, time.Hour, nil)
	ct := liquidity.ChainToken{ChainID: 2, Token: "0xusdt"}
	liq.SetConfirmedBalance(ct, 1000)
	if err := liq.Reserve(ct, "d1", 500, time.Now()); err != nil {
		t.Fatalf("reserve: %v", err)
	}

	claimer := &fakeClaimer{}
	approvals := &fakeApprovalPoller{approvals: map[string][]byte{"0xintent": []byte("sig")}}
	svc := NewInflowService(tracker, mon, &fakeHubClient{}, claimer, approvals, liq, nil)

	fulfilled, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if fulfilled != 1 {
		t.Fatalf("expected 1 fulfilled, got %d", fulfilled)
	}
	if len(claimer.claimed) != 1 {
		t.Fatalf("expected claim to be called once")
	}
	ti, _ := tracker.Get("d1")
	if ti.State != StateFulfilled {
		t.Fatalf("expected tracked intent to be Fulfilled, got %s", ti.State)
	}
	// Release also deducts the released amount from confirmed_balance until
	// the next poll; simulate that poll (the fakes moved no funds) so
	// available shows whether the in-flight commitment is gone.
	liq.SetConfirmedBalance(ct, 1000)
	if avail := liq.Available(ct); avail != 1000 {
		t.Fatalf("expected reservation released, available=%d", avail)
	}
}

func TestInflowServiceSkipsWithoutMatchingEscrow(t *testing.T) {
	tracker := NewTracker()
	tracker.put(&TrackedIntent{Draft: Draft{DraftID: "d1", IntentID: "0xintent"}, State: StateCreated})

	registry := chainadapter.NewRegistry()
	mon := monitor.NewService(registry, time.Hour, time.Hour, nil, nil)

	liq := liquidity.NewMonitor(nil, nil, 0, time.Hour, nil)
	claimer := &fakeClaimer{}
	approvals := &fakeApprovalPoller{approvals: map[string][]byte{}}
	svc := NewInflowService(tracker, mon, &fakeHubClient{}, claimer, approvals, liq, nil)

	fulfilled, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("run once: %v", err)
	}
	if fulfilled != 0 {
		t.Fatalf("expected 0 fulfilled without a matching escrow, got %d", fulfilled)
	}
}
