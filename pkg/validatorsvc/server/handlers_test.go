package server

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/intentmesh/fabric/pkg/monitor"
	"github.com/intentmesh/fabric/pkg/validatorsvc"
)

type allowAllRegistry struct{}

func (allowAllRegistry) ResolveConnectedChainAddress(mvmSolverAddr, chainFamily string) (string, error) {
	return mvmSolverAddr, nil
}

// newTestService wires a MultiSigner, matching cmd/validator/main.go's own
// construction, so tests exercise the same hub-mvm/connected-svm vs.
// connected-evm dispatch a real deployment does instead of only ever
// hitting the Ed25519 path.
func newTestService(t *testing.T) *validatorsvc.Service {
	t.Helper()
	_, ed25519Priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	ecdsaPriv, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("generate ecdsa key: %v", err)
	}
	checker := validatorsvc.NewChecker(allowAllRegistry{})
	signer := validatorsvc.NewMultiSigner(
		validatorsvc.NewEd25519Signer(ed25519Priv),
		validatorsvc.NewECDSASigner(ecdsaPriv),
	)
	return validatorsvc.NewService(checker, signer, nil)
}

func TestHandleListApprovalsReturnsEmptyListInitially(t *testing.T) {
	svc := newTestService(t)
	h := NewHandlers(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	rec := httptest.NewRecorder()
	h.HandleListApprovals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected empty approvals list, got %d", len(out))
	}
}

func TestHandleListApprovalsRejectsNonGet(t *testing.T) {
	svc := newTestService(t)
	h := NewHandlers(svc, nil)

	req := httptest.NewRequest(http.MethodPost, "/approvals", nil)
	rec := httptest.NewRecorder()
	h.HandleListApprovals(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHandleListApprovalsIncludesApprovalAfterApproveInflow(t *testing.T) {
	svc := newTestService(t)
	intentEv := monitor.IntentEvent{
		IntentID:         "0xintent",
		ConnectedChainID: 2,
		OfferedMetadata:  `{"inner":"0xaa"}`,
		OfferedAmount:    1000,
		ReservedSolver:   "0xsolver",
	}
	escrowEv := monitor.EscrowEvent{
		IntentID:        "0xintent",
		ChainID:         2,
		OfferedMetadata: `{"inner":"0xaa"}`,
		OfferedAmount:   1000,
		ReservedSolver:  "0xsolver",
	}
	var intentID [32]byte
	intentID[0] = 0x01
	if _, err := svc.ApproveInflow(intentEv, escrowEv, "connected-evm", intentID); err != nil {
		t.Fatalf("approve inflow: %v", err)
	}

	h := NewHandlers(svc, nil)
	req := httptest.NewRequest(http.MethodGet, "/approvals", nil)
	rec := httptest.NewRecorder()
	h.HandleListApprovals(rec, req)

	var out []map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 cached approval, got %d", len(out))
	}
}

func TestHandleValidateOutflowFulfillmentRequiresResolver(t *testing.T) {
	svc := newTestService(t)
	h := NewHandlers(svc, nil)

	body, _ := json.Marshal(map[string]string{
		"transaction_hash": "0xabc",
		"chain_type":       "connected-evm",
		"intent_id":        "0000000000000000000000000000000000000000000000000000000000000001",
	})
	req := httptest.NewRequest(http.MethodPost, "/validate-outflow-fulfillment", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleValidateOutflowFulfillment(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when no resolver is configured, got %d", rec.Code)
	}
}
