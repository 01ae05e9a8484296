// Package server exposes the validator HTTP surface of spec §6: GET
// /approvals and POST /validate-outflow-fulfillment, using net/http +
// ServeMux and hand-written JSON handlers, grounded on
// pkg/server/attestation_handlers.go's method-check -> decode -> validate ->
// encode shape. The teacher never imports a web framework, so neither does
// this package.
package server

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/intentmesh/fabric/pkg/validatorsvc"
)

var errIntentIDLength = errors.New("intent_id must decode to 32 bytes")

// Handlers wires a *validatorsvc.Service into net/http handler funcs.
type Handlers struct {
	svc      *validatorsvc.Service
	log      *log.Logger
	resolver TransactionResolver
}

// NewHandlers constructs Handlers. logger may be nil, in which case a
// default is created.
func NewHandlers(svc *validatorsvc.Service, logger *log.Logger) *Handlers {
	if logger == nil {
		logger = log.New(log.Writer(), "[ValidatorAPI] ", log.LstdFlags)
	}
	return &Handlers{svc: svc, log: logger}
}

// RegisterRoutes attaches this Handlers' endpoints to mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/approvals", h.HandleListApprovals)
	mux.HandleFunc("/validate-outflow-fulfillment", h.HandleValidateOutflowFulfillment)
}

type approvalResponse struct {
	IntentID    string `json:"intent_id"`
	Signature   string `json:"signature"`
	PublicKey   string `json:"public_key"`
	Timestamp   int64  `json:"timestamp"`
}

// HandleListApprovals implements GET /approvals.
func (h *Handlers) HandleListApprovals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.svc == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "validator service not available")
		return
	}

	approvals := h.svc.ListApprovals()
	out := make([]approvalResponse, 0, len(approvals))
	for _, a := range approvals {
		out = append(out, approvalResponse{
			IntentID:  a.IntentID,
			Signature: a.Signature,
			PublicKey: a.PublicKey,
			Timestamp: a.Timestamp.Unix(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		h.log.Printf("encode approvals response: %v", err)
	}
}

type validateOutflowRequest struct {
	TransactionHash string `json:"transaction_hash"`
	ChainType       string `json:"chain_type"`
	IntentID        string `json:"intent_id"`
}

type validateOutflowResponse struct {
	Validation struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	} `json:"validation"`
	ApprovalSignature string `json:"approval_signature,omitempty"`
}

// HandleValidateOutflowFulfillment implements POST
// /validate-outflow-fulfillment. The actual transaction lookup (resolving
// transaction_hash to an observed OutflowCheckInput) is performed by a
// collaborator the caller supplies via SetResolver, matching the teacher's
// habit of keeping handlers thin and delegating domain logic to a service.
func (h *Handlers) HandleValidateOutflowFulfillment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.svc == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "validator service not available")
		return
	}

	var req validateOutflowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.TransactionHash == "" || req.IntentID == "" {
		writeJSONError(w, http.StatusBadRequest, "transaction_hash and intent_id are required")
		return
	}

	intentIDBytes, err := decodeIntentID(req.IntentID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid intent_id: "+err.Error())
		return
	}

	resolver, ok := h.resolverFromContext(r)
	if !ok {
		writeJSONError(w, http.StatusServiceUnavailable, "no transaction resolver configured")
		return
	}
	input, err := resolver(req.TransactionHash, req.ChainType, req.IntentID)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "resolve transaction: "+err.Error())
		return
	}

	resp := validateOutflowResponse{}
	valid, message, approval := h.svc.ValidateOutflowFulfillment(input, intentIDBytes)
	resp.Validation.Valid = valid
	resp.Validation.Message = message
	if approval != nil {
		resp.ApprovalSignature = approval.Signature
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Printf("encode validate-outflow-fulfillment response: %v", err)
	}
}

// TransactionResolver is the connected-chain tx lookup a consumer registers
// so handlers stay chain-agnostic; see cmd/validator's wiring for a real
// implementation backed by pkg/chainadapter.
type TransactionResolver func(txHash, chainType, intentID string) (validatorsvc.OutflowCheckInput, error)

// SetResolver wires the transaction-lookup collaborator used by
// HandleValidateOutflowFulfillment.
func (h *Handlers) SetResolver(resolver TransactionResolver) {
	h.resolver = resolver
}

func (h *Handlers) resolverFromContext(_ *http.Request) (TransactionResolver, bool) {
	return h.resolver, h.resolver != nil
}

func decodeIntentID(s string) ([32]byte, error) {
	var out [32]byte
	trimmed := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	raw, err := hex.DecodeString(trimmed)
	if err != nil {
		return out, err
	}
	if len(raw) != 32 {
		return out, errIntentIDLength
	}
	copy(out[:], raw)
	return out, nil
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
