// Package scheduler implements the solver scheduler of spec §4.6: the
// signing loop, intent tracker, inflow/outflow services, and cancellation
// handling that turn an accepted draft intent into a fulfilled one.
package scheduler

import (
	"time"

	"github.com/google/uuid"
)

// TrackedState mirrors DraftIntent's Signed -> Created -> Fulfilled states
// as a small enum with a String() method, grounded on the teacher's
// intent.IntentStatus enum-with-String() idiom.
type TrackedState int

const (
	StateSigned TrackedState = iota
	StateCreated
	StateFulfilled
	StateCancelled
)

func (s TrackedState) String() string {
	switch s {
	case StateSigned:
		return "signed"
	case StateCreated:
		return "created"
	case StateFulfilled:
		return "fulfilled"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Draft is the DraftIntent of spec §3: draft_id, intent_id (assigned once
// created on-chain), token/amount/chain on each side, and the deadline
// after which an unaccepted draft is dropped.
type Draft struct {
	DraftID string
	IntentID string // empty until the intent tracker observes on-chain creation

	OfferedChainID uint64
	OfferedToken   string
	OfferedAmount  uint64

	DesiredChainID uint64
	DesiredToken   string
	DesiredAmount  uint64

	Expiry time.Time
}

// TrackedIntent is a Draft plus the scheduler's bookkeeping: its current
// state and the intent-hash signature once produced.
type TrackedIntent struct {
	Draft     Draft
	State     TrackedState
	Signature []byte
	PublicKey []byte
}

// NewDraft builds a Draft with a freshly generated draft_id, mirroring the
// teacher's uuid.New() request/batch-ID convention (pkg/anchor/scheduler.go,
// pkg/anchor_proof/builder.go) rather than a caller-supplied or sequential
// ID.
func NewDraft(offeredChainID uint64, offeredToken string, offeredAmount uint64, desiredChainID uint64, desiredToken string, desiredAmount uint64, expiry time.Time) Draft {
	return Draft{
		DraftID:        uuid.New().String(),
		OfferedChainID: offeredChainID,
		OfferedToken:   offeredToken,
		OfferedAmount:  offeredAmount,
		DesiredChainID: desiredChainID,
		DesiredToken:   desiredToken,
		DesiredAmount:  desiredAmount,
		Expiry:         expiry,
	}
}

// IsExpired reports whether the draft's expiry has passed as of now,
// meaning it should be dropped rather than accepted (spec §4.6
// "Cancellation").
func (d Draft) IsExpired(now time.Time) bool {
	return now.After(d.Expiry)
}
