package scheduler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPApprovalClientRequestApprovalValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(validateOutflowWireResponse{
			Validation:        struct {
				Valid   bool   `json:"valid"`
				Message string `json:"message"`
			}{Valid: true},
			ApprovalSignature: "qxI=",
		})
	}))
	defer srv.Close()

	c := NewHTTPApprovalClient(srv.URL)
	sig, ok, err := c.RequestApproval(context.Background(), "0xtx", "connected-evm", "0xintent")
	if err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if len(sig) != 2 || sig[0] != 0xab || sig[1] != 0x12 {
		t.Fatalf("unexpected signature bytes: %x", sig)
	}
}

func TestHTTPApprovalClientRequestApprovalInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(validateOutflowWireResponse{})
	}))
	defer srv.Close()

	c := NewHTTPApprovalClient(srv.URL)
	_, ok, err := c.RequestApproval(context.Background(), "0xtx", "connected-evm", "0xintent")
	if err != nil {
		t.Fatalf("request approval: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for invalid validation")
	}
}

func TestHTTPApprovalClientApprovalFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]approvalWire{
			{IntentID: "0xintent", Signature: "qxI="},
		})
	}))
	defer srv.Close()

	c := NewHTTPApprovalClient(srv.URL)
	sig, ok := c.Approval("0xintent")
	if !ok {
		t.Fatalf("expected approval found")
	}
	if len(sig) != 2 {
		t.Fatalf("unexpected signature length: %d", len(sig))
	}
}

func TestHTTPApprovalClientApprovalNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]approvalWire{})
	}))
	defer srv.Close()

	c := NewHTTPApprovalClient(srv.URL)
	_, ok := c.Approval("0xmissing")
	if ok {
		t.Fatalf("expected approval not found")
	}
}
