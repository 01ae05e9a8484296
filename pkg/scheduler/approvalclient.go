package scheduler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPApprovalClient implements both ApprovalRequester and ApprovalPoller
// against the validator's own HTTP surface (pkg/validatorsvc/server), the
// same POST /validate-outflow-fulfillment and GET /approvals endpoints a
// human operator would curl.
type HTTPApprovalClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPApprovalClient constructs an HTTPApprovalClient against baseURL.
func NewHTTPApprovalClient(baseURL string) *HTTPApprovalClient {
	return &HTTPApprovalClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type validateOutflowWireRequest struct {
	TransactionHash string `json:"transaction_hash"`
	ChainType       string `json:"chain_type"`
	IntentID        string `json:"intent_id"`
}

type validateOutflowWireResponse struct {
	Validation struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	} `json:"validation"`
	ApprovalSignature string `json:"approval_signature,omitempty"`
}

// RequestApproval posts POST /validate-outflow-fulfillment for txHash and
// intentID, returning the approval signature if the validator accepted it.
// chainFamily is threaded through as chain_type so the validator can
// resolve the solver's connected-chain address for invariant checking.
func (c *HTTPApprovalClient) RequestApproval(ctx context.Context, txHash, chainFamily, intentID string) ([]byte, bool, error) {
	body, err := json.Marshal(validateOutflowWireRequest{TransactionHash: txHash, ChainType: chainFamily, IntentID: intentID})
	if err != nil {
		return nil, false, fmt.Errorf("marshal validate-outflow-fulfillment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/validate-outflow-fulfillment", bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request approval: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("request approval: unexpected status %d", resp.StatusCode)
	}

	var wire validateOutflowWireResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, false, fmt.Errorf("decode validate-outflow-fulfillment response: %w", err)
	}
	if !wire.Validation.Valid || wire.ApprovalSignature == "" {
		return nil, false, nil
	}

	sig, err := base64.StdEncoding.DecodeString(wire.ApprovalSignature)
	if err != nil {
		return nil, false, fmt.Errorf("decode approval signature: %w", err)
	}
	return sig, true, nil
}

type approvalWire struct {
	IntentID  string `json:"intent_id"`
	Signature string `json:"signature"`
}

// Approval implements ApprovalPoller by fetching GET /approvals and
// scanning for intentID. This is a linear scan over whatever the validator
// currently holds in memory, acceptable at the approval volumes this
// reference implementation targets.
func (c *HTTPApprovalClient) Approval(intentID string) ([]byte, bool) {
	resp, err := c.client.Get(c.baseURL + "/approvals")
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var wire []approvalWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, false
	}
	for _, a := range wire {
		if a.IntentID == intentID {
			sig, err := base64.StdEncoding.DecodeString(a.Signature)
			if err != nil {
				return nil, false
			}
			return sig, true
		}
	}
	return nil, false
}
