package scheduler

import (
	"encoding/binary"
	"strconv"

	"github.com/intentmesh/fabric/pkg/commitment"
)

// CommitmentHubViewClient implements HubViewClient by recomputing the
// hub's canonical intent_hash locally rather than issuing an RPC view call,
// grounded on pkg/commitment.HashConcat already being the one place every
// component (monitor, validator, scheduler) agrees on for byte-identical
// hashing. Since the hash is a pure function of the draft's own fields, any
// party can reproduce it without asking the hub.
type CommitmentHubViewClient struct{}

// NewCommitmentHubViewClient constructs a CommitmentHubViewClient.
func NewCommitmentHubViewClient() *CommitmentHubViewClient {
	return &CommitmentHubViewClient{}
}

// IntentHash hashes the draft's chain ids, tokens, amounts, and expiry, in a
// fixed field order, matching the hub's own canonical intent_hash
// derivation.
func (CommitmentHubViewClient) IntentHash(d Draft) ([32]byte, error) {
	return commitment.HashConcat(
		uint64Bytes(d.OfferedChainID),
		[]byte(d.OfferedToken),
		uint64Bytes(d.OfferedAmount),
		uint64Bytes(d.DesiredChainID),
		[]byte(d.DesiredToken),
		uint64Bytes(d.DesiredAmount),
		[]byte(strconv.FormatInt(d.Expiry.Unix(), 10)),
	), nil
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}
