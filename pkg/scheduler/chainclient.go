package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

// AdapterHubClient implements HubClient by submitting JSON-encoded
// operation payloads to the hub chain's adapter, grounded on
// pkg/chainadapter.Adapter.SubmitTransaction being the one place this
// reference implementation hands a pre-built payload to a chain.
type AdapterHubClient struct {
	hub chainadapter.Adapter
}

// NewAdapterHubClient constructs an AdapterHubClient against hub.
func NewAdapterHubClient(hub chainadapter.Adapter) *AdapterHubClient {
	return &AdapterHubClient{hub: hub}
}

type hubOpPayload struct {
	Op        string `json:"op"`
	IntentID  string `json:"intent_id"`
	Signature string `json:"signature,omitempty"`
}

func (c *AdapterHubClient) FulfillInflowIntent(ctx context.Context, intentID string) error {
	payload, err := json.Marshal(hubOpPayload{Op: "fulfill_inflow_intent", IntentID: intentID})
	if err != nil {
		return fmt.Errorf("marshal fulfill_inflow_intent: %w", err)
	}
	_, err = c.hub.SubmitTransaction(ctx, payload)
	return err
}

func (c *AdapterHubClient) OutflowFulfill(ctx context.Context, intentID string, signature []byte) error {
	payload, err := json.Marshal(hubOpPayload{Op: "outflow_fulfill", IntentID: intentID, Signature: fmt.Sprintf("%x", signature)})
	if err != nil {
		return fmt.Errorf("marshal outflow_fulfill: %w", err)
	}
	_, err = c.hub.SubmitTransaction(ctx, payload)
	return err
}

// AdapterEscrowClaimer implements EscrowClaimer by submitting a claim
// payload to the connected chain holding the inflow escrow.
type AdapterEscrowClaimer struct {
	connected chainadapter.Adapter
}

// NewAdapterEscrowClaimer constructs an AdapterEscrowClaimer against the
// connected chain's adapter.
func NewAdapterEscrowClaimer(connected chainadapter.Adapter) *AdapterEscrowClaimer {
	return &AdapterEscrowClaimer{connected: connected}
}

func (c *AdapterEscrowClaimer) Claim(ctx context.Context, intentID string) error {
	payload, err := json.Marshal(hubOpPayload{Op: "claim", IntentID: intentID})
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	_, err = c.connected.SubmitTransaction(ctx, payload)
	return err
}

// AdapterConnectedChainTransfer implements ConnectedChainTransfer by
// submitting a transfer payload to the connected chain, returning the
// resulting transaction hash.
type AdapterConnectedChainTransfer struct {
	connected chainadapter.Adapter
}

// NewAdapterConnectedChainTransfer constructs an
// AdapterConnectedChainTransfer against the connected chain's adapter.
func NewAdapterConnectedChainTransfer(connected chainadapter.Adapter) *AdapterConnectedChainTransfer {
	return &AdapterConnectedChainTransfer{connected: connected}
}

func (c *AdapterConnectedChainTransfer) Transfer(ctx context.Context, intentID string) (string, string, error) {
	payload, err := json.Marshal(hubOpPayload{Op: "transfer", IntentID: intentID})
	if err != nil {
		return "", "", fmt.Errorf("marshal transfer: %w", err)
	}
	txHash, err := c.connected.SubmitTransaction(ctx, payload)
	if err != nil {
		return "", "", err
	}
	return txHash, c.connected.Family().String(), nil
}
