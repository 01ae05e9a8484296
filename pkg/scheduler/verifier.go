package scheduler

import "errors"

// ErrFCFSConflict is returned by VerifierClient.SubmitSignature when
// another solver already won first-come-first-served acceptance for the
// same draft (spec §4.6 "On 409/conflict... release the reservation").
var ErrFCFSConflict = errors.New("scheduler: verifier reported FCFS conflict")

// PendingDraft is one draft the verifier is offering for acceptance.
type PendingDraft struct {
	Draft Draft
}

// VerifierClient abstracts the signing loop's two HTTP calls to the
// verifier service, so tests can stub FCFS conflict behavior without a real
// server.
type VerifierClient interface {
	// PollPendingDrafts returns drafts currently open for acceptance.
	PollPendingDrafts() ([]PendingDraft, error)

	// SubmitSignature submits {signature, public_key} for draftID. Returns
	// ErrFCFSConflict if another solver already won.
	SubmitSignature(draftID string, signature, publicKey []byte) error
}

// HubViewClient computes the canonical intent_hash for a draft, the value
// the hub chain's view function produces (spec §4.6 step 2). The one
// implementation, CommitmentHubViewClient, recomputes it locally instead of
// calling the hub.
type HubViewClient interface {
	IntentHash(d Draft) ([32]byte, error)
}
