package validatorsvc

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/monitor"
)

// familyFromString recovers the chainadapter.Family a chain-family string
// (produced by Family.String(), the form every caller of this package
// already has in hand) names, so signature-scheme dispatch can go through
// Family.UsesEd25519() instead of duplicating its family list here.
func familyFromString(s string) chainadapter.Family {
	for _, f := range []chainadapter.Family{
		chainadapter.FamilyHubMVM,
		chainadapter.FamilyConnectedMVM,
		chainadapter.FamilyConnectedEVM,
		chainadapter.FamilyConnectedSVM,
	} {
		if f.String() == s {
			return f
		}
	}
	return chainadapter.FamilyUnspecified
}

// Approval is the ApprovalSignature of spec §3:
// {intent_id, signature, public_key, chain_family, timestamp}.
type Approval struct {
	IntentID    string
	Signature   string // base64
	PublicKey   string // base64
	ChainFamily string
	Timestamp   time.Time
}

// ValidationFailedError carries the human-readable Detail of the inflow
// invariant that failed (spec §8 scenario 3: validator rejects an amount
// mismatch with an explanatory message). ApproveInflow returns it;
// cmd/validator logs it, and no HTTP handler returns it.
type ValidationFailedError struct {
	Detail string
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Detail)
}

// ApprovalStore persists approvals so a restarted validator doesn't need
// every solver to re-request fulfillment approval. Matches
// pkg/store.ApprovalRepository's shape without importing pkg/store,
// keeping pkg/validatorsvc free of a database dependency; a nil
// ApprovalStore (the default) means approvals live only in the in-memory
// cache, per spec §3's "persistence is optional" ownership rule.
type ApprovalStore interface {
	Save(ctx context.Context, intentID string, approval Approval) error
	List(ctx context.Context) ([]Approval, error)
}

// Service ties the Checker, a Signer, and an approval cache together: the
// validator never signs until every invariant holds, and every approval it
// produces is cached by intent_id for later lookup via GET /approvals,
// matching spec §4.5's closing paragraph.
type Service struct {
	checker   *Checker
	signer    Signer
	approvals *monitor.Cache[Approval]
	store     ApprovalStore
	log       *log.Logger
}

// NewService constructs a validator Service.
func NewService(checker *Checker, signer Signer, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[ValidatorSvc] ", log.LstdFlags)
	}
	return &Service{
		checker:   checker,
		signer:    signer,
		approvals: monitor.NewCache[Approval](),
		log:       logger,
	}
}

// SetApprovalStore wires an optional persistence layer for approvals and
// loads whatever it already holds into the in-memory cache, so a restarted
// validator can answer GET /approvals for intents it approved before the
// restart without re-running any invariant check.
func (s *Service) SetApprovalStore(store ApprovalStore) error {
	s.store = store
	saved, err := store.List(context.Background())
	if err != nil {
		return fmt.Errorf("validatorsvc: load persisted approvals: %w", err)
	}
	for _, a := range saved {
		s.approvals.Put(a.IntentID, a)
	}
	return nil
}

func (s *Service) persist(a Approval) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(context.Background(), a.IntentID, a); err != nil {
		s.log.Printf("persist approval intent_id=%s: %v", a.IntentID, err)
	}
}

// ApproveInflow checks the inflow invariants and, if they hold, signs and
// caches an approval for release on the given chain family.
func (s *Service) ApproveInflow(intentEv monitor.IntentEvent, escrowEv monitor.EscrowEvent, connectedChainFamily string, intentID [32]byte) (Approval, error) {
	if err := s.checker.CheckInflow(intentEv, escrowEv, connectedChainFamily); err != nil {
		return Approval{}, &ValidationFailedError{Detail: err.Error()}
	}

	family := familyFromString(connectedChainFamily)
	var sig, pub []byte
	var err error
	switch {
	case !family.UsesEd25519():
		sig, err = s.signer.SignEVMRelease(intentID)
	case family == chainadapter.FamilyConnectedSVM:
		sig, pub, err = s.signer.SignSVMRelease(intentID)
	default:
		sig, pub, err = s.signer.SignHubApproval(intentID)
	}
	if err != nil {
		return Approval{}, fmt.Errorf("validatorsvc: sign approval: %w", err)
	}

	approval := Approval{
		IntentID:    intentEv.IntentID,
		Signature:   base64.StdEncoding.EncodeToString(sig),
		PublicKey:   base64.StdEncoding.EncodeToString(pub),
		ChainFamily: connectedChainFamily,
		Timestamp:   time.Now(),
	}
	s.approvals.Put(approval.IntentID, approval)
	s.persist(approval)
	s.log.Printf("approved inflow release intent_id=%s chain_family=%s", approval.IntentID, connectedChainFamily)
	return approval, nil
}

// ValidateOutflowFulfillment checks the outflow invariants for a reported
// transaction and, if they hold, signs and caches the approval that
// authorizes the hub's outflow_fulfill call. The connected-chain transfer
// this validates has already landed by the time this is called (spec §4.6
// "execute the connected-chain transfer, obtain a validator approval for
// that tx hash, and invoke the hub outflow-fulfill with the signature") --
// the signature itself is verified by the MVM hub, not by
// in.ConnectedChainFam's chain, so it always uses the hub's Ed25519
// scheme regardless of which connected chain family the fulfillment
// transaction was observed on. Matches the POST
// /validate-outflow-fulfillment contract of spec §6.
func (s *Service) ValidateOutflowFulfillment(in OutflowCheckInput, intentID [32]byte) (valid bool, message string, approval *Approval) {
	if err := s.checker.CheckOutflow(in); err != nil {
		return false, err.Error(), nil
	}

	sig, pub, err := s.signer.SignHubApproval(intentID)
	if err != nil {
		return false, fmt.Sprintf("signing failed: %v", err), nil
	}
	a := Approval{
		IntentID:    in.ExpectedIntentID,
		Signature:   base64.StdEncoding.EncodeToString(sig),
		PublicKey:   base64.StdEncoding.EncodeToString(pub),
		ChainFamily: chainadapter.FamilyHubMVM.String(),
		Timestamp:   time.Now(),
	}
	s.approvals.Put(a.IntentID, a)
	s.persist(a)
	return true, "fulfillment validated", &a
}

// ListApprovals returns every cached approval, for GET /approvals.
func (s *Service) ListApprovals() []Approval {
	out := make([]Approval, 0, s.approvals.Len())
	for _, k := range s.approvals.Keys() {
		if v, ok := s.approvals.Get(k); ok {
			out = append(out, v)
		}
	}
	return out
}
