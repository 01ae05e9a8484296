package scheduler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPVerifierClientPollPendingDrafts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/drafts/pending" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]pendingDraftWire{
			{DraftID: "d1", OfferedChainID: 1, OfferedToken: "USDC", OfferedAmount: 100, DesiredChainID: 2, DesiredToken: "USDT", DesiredAmount: 99, ExpiryUnix: 1800000000},
		})
	}))
	defer srv.Close()

	c := NewHTTPVerifierClient(srv.URL)
	drafts, err := c.PollPendingDrafts()
	if err != nil {
		t.Fatalf("poll pending drafts: %v", err)
	}
	if len(drafts) != 1 || drafts[0].Draft.DraftID != "d1" {
		t.Fatalf("unexpected drafts: %+v", drafts)
	}
}

func TestHTTPVerifierClientSubmitSignatureConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewHTTPVerifierClient(srv.URL)
	err := c.SubmitSignature("d1", []byte("sig"), []byte("pub"))
	if err != ErrFCFSConflict {
		t.Fatalf("expected ErrFCFSConflict, got %v", err)
	}
}

func TestHTTPVerifierClientSubmitSignatureSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Fatalf("expected POST, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewHTTPVerifierClient(srv.URL)
	if err := c.SubmitSignature("d1", []byte("sig"), []byte("pub")); err != nil {
		t.Fatalf("submit signature: %v", err)
	}
}
