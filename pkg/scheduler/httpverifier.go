package scheduler

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPVerifierClient implements VerifierClient against the verifier
// service's REST surface (GET /drafts/pending, POST
// /drafts/{draft_id}/signature), grounded on the teacher's plain
// net/http.Client-plus-json.Marshal pattern for calling its own attestation
// endpoints (pkg/attestation/strategy callers) rather than a generated
// client.
type HTTPVerifierClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPVerifierClient constructs an HTTPVerifierClient against baseURL
// (e.g. "https://verifier.internal"), with a default 10s request timeout.
func NewHTTPVerifierClient(baseURL string) *HTTPVerifierClient {
	return &HTTPVerifierClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type pendingDraftWire struct {
	DraftID        string `json:"draft_id"`
	OfferedChainID uint64 `json:"offered_chain_id"`
	OfferedToken   string `json:"offered_token"`
	OfferedAmount  uint64 `json:"offered_amount"`
	DesiredChainID uint64 `json:"desired_chain_id"`
	DesiredToken   string `json:"desired_token"`
	DesiredAmount  uint64 `json:"desired_amount"`
	ExpiryUnix     int64  `json:"expiry_unix"`
}

// PollPendingDrafts fetches GET /drafts/pending.
func (c *HTTPVerifierClient) PollPendingDrafts() ([]PendingDraft, error) {
	resp, err := c.client.Get(c.baseURL + "/drafts/pending")
	if err != nil {
		return nil, fmt.Errorf("poll pending drafts: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("poll pending drafts: unexpected status %d", resp.StatusCode)
	}

	var wire []pendingDraftWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode pending drafts: %w", err)
	}

	out := make([]PendingDraft, 0, len(wire))
	for _, w := range wire {
		out = append(out, PendingDraft{Draft: Draft{
			DraftID:        w.DraftID,
			OfferedChainID: w.OfferedChainID,
			OfferedToken:   w.OfferedToken,
			OfferedAmount:  w.OfferedAmount,
			DesiredChainID: w.DesiredChainID,
			DesiredToken:   w.DesiredToken,
			DesiredAmount:  w.DesiredAmount,
			Expiry:         time.Unix(w.ExpiryUnix, 0),
		}})
	}
	return out, nil
}

type submitSignatureRequest struct {
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// SubmitSignature posts POST /drafts/{draftID}/signature. A 409 response is
// translated to ErrFCFSConflict so callers can release their reservation
// without inspecting the HTTP layer.
func (c *HTTPVerifierClient) SubmitSignature(draftID string, signature, publicKey []byte) error {
	body, err := json.Marshal(submitSignatureRequest{
		Signature: hex.EncodeToString(signature),
		PublicKey: hex.EncodeToString(publicKey),
	})
	if err != nil {
		return fmt.Errorf("marshal signature request: %w", err)
	}

	resp, err := c.client.Post(c.baseURL+"/drafts/"+draftID+"/signature", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("submit signature: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	case http.StatusConflict:
		return ErrFCFSConflict
	default:
		return fmt.Errorf("submit signature: unexpected status %d", resp.StatusCode)
	}
}
