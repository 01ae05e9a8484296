package scheduler

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/intentmesh/fabric/pkg/liquidity"
)

// Tracker holds every TrackedIntent the scheduler is following, keyed by
// draft_id, plus a secondary index by intent_id once the intent tracker
// observes on-chain creation. Guarded by a single RWMutex matching the
// teacher's per-aggregate locking precedent.
type Tracker struct {
	mu          sync.RWMutex
	byDraftID   map[string]*TrackedIntent
	byIntentID  map[string]string // intent_id -> draft_id
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{
		byDraftID:  make(map[string]*TrackedIntent),
		byIntentID: make(map[string]string),
	}
}

func (t *Tracker) put(ti *TrackedIntent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byDraftID[ti.Draft.DraftID] = ti
	if ti.Draft.IntentID != "" {
		t.byIntentID[ti.Draft.IntentID] = ti.Draft.DraftID
	}
}

// Get returns a copy of the tracked intent for draftID.
func (t *Tracker) Get(draftID string) (TrackedIntent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ti, ok := t.byDraftID[draftID]
	if !ok {
		return TrackedIntent{}, false
	}
	return *ti, true
}

// ByIntentID returns a copy of the tracked intent whose Draft.IntentID is
// intentID, for callers that need to route a fulfillment action to the
// right chain once an intent is tracked only by intent_id.
func (t *Tracker) ByIntentID(intentID string) (TrackedIntent, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	draftID, ok := t.byIntentID[intentID]
	if !ok {
		return TrackedIntent{}, false
	}
	ti, ok := t.byDraftID[draftID]
	if !ok {
		return TrackedIntent{}, false
	}
	return *ti, true
}

// ObserveCreated transitions the tracked intent for draftID from Signed to
// Created once the intent tracker matches an on-chain intent-creation event
// by intent_id (spec §4.6 "Intent tracker").
func (t *Tracker) ObserveCreated(draftID, intentID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.byDraftID[draftID]
	if !ok {
		return fmt.Errorf("scheduler: no tracked draft %s", draftID)
	}
	ti.Draft.IntentID = intentID
	ti.State = StateCreated
	t.byIntentID[intentID] = draftID
	return nil
}

// MarkFulfilled transitions a Created intent to Fulfilled.
func (t *Tracker) MarkFulfilled(draftID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	ti, ok := t.byDraftID[draftID]
	if !ok {
		return fmt.Errorf("scheduler: no tracked draft %s", draftID)
	}
	ti.State = StateFulfilled
	return nil
}

// ByState returns copies of every tracked intent currently in state s.
func (t *Tracker) ByState(s TrackedState) []TrackedIntent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []TrackedIntent
	for _, ti := range t.byDraftID {
		if ti.State == s {
			out = append(out, *ti)
		}
	}
	return out
}

// SigningLoop implements spec §4.6's signing loop: poll the verifier for
// pending drafts, evaluate acceptance against a RateTable, reserve
// liquidity, sign the intent hash, and submit. Expired drafts and drafts
// the rate table rejects are dropped before anything is reserved; the
// reservation is released if hashing or submission fails, including on an
// FCFS conflict.
type SigningLoop struct {
	verifier VerifierClient
	hubView  HubViewClient
	rates    *RateTable
	liq      *liquidity.Monitor
	tracker  *Tracker
	solver   ed25519.PrivateKey
	log      *log.Logger
}

// NewSigningLoop constructs a SigningLoop.
func NewSigningLoop(verifier VerifierClient, hubView HubViewClient, rates *RateTable, liq *liquidity.Monitor, tracker *Tracker, solver ed25519.PrivateKey, logger *log.Logger) *SigningLoop {
	if logger == nil {
		logger = log.New(log.Writer(), "[Scheduler] ", log.LstdFlags)
	}
	return &SigningLoop{verifier: verifier, hubView: hubView, rates: rates, liq: liq, tracker: tracker, solver: solver, log: logger}
}

// RunOnce processes one poll of the verifier's pending draft set, returning
// the number of drafts accepted and signed.
func (l *SigningLoop) RunOnce(now time.Time) (accepted int, err error) {
	pending, err := l.verifier.PollPendingDrafts()
	if err != nil {
		return 0, fmt.Errorf("poll pending drafts: %w", err)
	}

	for _, p := range pending {
		if err := l.processDraft(p.Draft, now); err != nil {
			l.log.Printf("draft %s: %v", p.Draft.DraftID, err)
			continue
		}
		accepted++
	}
	return accepted, nil
}

func (l *SigningLoop) processDraft(d Draft, now time.Time) error {
	if d.IsExpired(now) {
		return fmt.Errorf("draft expired, dropping")
	}
	if !l.rates.Accepts(d) {
		return fmt.Errorf("rate table rejected draft")
	}

	ct := liquidity.ChainToken{ChainID: d.DesiredChainID, Token: d.DesiredToken}
	if err := l.liq.Reserve(ct, d.DraftID, d.DesiredAmount, now); err != nil {
		return fmt.Errorf("reserve liquidity: %w", err)
	}

	hash, err := l.hubView.IntentHash(d)
	if err != nil {
		l.liq.Release(ct, d.DraftID)
		return fmt.Errorf("compute intent hash: %w", err)
	}

	sig := ed25519.Sign(l.solver, hash[:])
	pub := l.solver.Public().(ed25519.PublicKey)

	if err := l.verifier.SubmitSignature(d.DraftID, sig, pub); err != nil {
		l.liq.Release(ct, d.DraftID)
		if errors.Is(err, ErrFCFSConflict) {
			return fmt.Errorf("lost FCFS acceptance: %w", err)
		}
		return fmt.Errorf("submit signature: %w", err)
	}

	l.tracker.put(&TrackedIntent{Draft: d, State: StateSigned, Signature: sig, PublicKey: pub})
	return nil
}
