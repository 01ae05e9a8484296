package monitor

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

type fakeAdapter struct {
	family  chainadapter.Family
	chainID uint64
	current uint64
	events  []chainadapter.Event
}

func (f *fakeAdapter) Family() chainadapter.Family      { return f.family }
func (f *fakeAdapter) ChainID() uint64                  { return f.chainID }
func (f *fakeAdapter) Config() chainadapter.ChainConfig { return chainadapter.ChainConfig{Family: f.family, ChainID: f.chainID} }
func (f *fakeAdapter) CurrentBlock(context.Context) (uint64, error) { return f.current, nil }
func (f *fakeAdapter) QueryEvents(_ context.Context, from, to uint64) ([]chainadapter.Event, error) {
	var out []chainadapter.Event
	for _, ev := range f.events {
		if ev.BlockHeight >= from && ev.BlockHeight <= to {
			out = append(out, ev)
		}
	}
	return out, nil
}
func (f *fakeAdapter) SubmitTransaction(context.Context, []byte) (string, error) { return "", nil }
func (f *fakeAdapter) HealthCheck(context.Context) error                        { return nil }

func sampleIntentID() string {
	return "0x11" + strings.Repeat("00", 31)
}

func TestServiceCrossCacheValidationTriggersOnBothSidesPresent(t *testing.T) {
	intentID := sampleIntentID()
	hub := &fakeAdapter{
		family:  chainadapter.FamilyHubMVM,
		chainID: 1,
		current: 10,
		events: []chainadapter.Event{{
			BlockHeight: 5,
			ChainID:     1,
			EventType:   "intent_created",
			Raw: map[string]interface{}{
				"intent_id":                intentID,
				"connected_chain_id":       uint64(2),
				"offered_metadata":         "0xaa",
				"offered_amount":           "1000",
				"desired_metadata":         "0xbb",
				"desired_amount":           "0",
				"reserved_solver":          "0xcc",
				"requester_addr_connected": "0xdd",
			},
		}},
	}
	connected := &fakeAdapter{
		family:  chainadapter.FamilyConnectedEVM,
		chainID: 2,
		current: 10,
		events: []chainadapter.Event{{
			BlockHeight: 6,
			ChainID:     2,
			EventType:   "escrow_created",
			Raw: map[string]interface{}{
				"intent_id":        intentID,
				"offered_metadata": "0xaa",
				"offered_amount":   "1000",
				"desired_amount":   "0",
				"reserved_solver":  "0xcc",
			},
		}},
	}
	registry := chainadapter.NewRegistry(hub, connected)

	var results []ValidationResult
	svc := NewService(registry, 7*24*time.Hour, time.Second, func(r ValidationResult) {
		results = append(results, r)
	}, nil)

	if err := svc.Run(withTimeout(t), 1.0); err != nil && err != context.DeadlineExceeded {
		t.Fatalf("run: %v", err)
	}

	if len(results) == 0 {
		t.Fatalf("expected at least one validation result once both sides are cached")
	}
	last := results[len(results)-1]
	if !last.OK {
		t.Fatalf("expected validation to pass for matching intent/escrow, got reason %q", last.Reason)
	}
}

func withTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}
