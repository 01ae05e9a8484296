package relay

import (
	"fmt"

	"github.com/intentmesh/fabric/pkg/gmp"
)

// fixedAccounts is the [0..9] layout shared by every deliver_message call,
// per §6's delivery-accounts-layout table.
var fixedAccounts = []string{
	"config", "relay", "trusted_remote", "delivered",
	"relay_signer", "payer", "system", "routing",
	"outflow_validator", "intent_escrow",
}

// BuildAccounts assembles the disjoint per-destination AccountSlice a real
// SVM/MVM deployment's deliver_message instruction would pass through. The
// reference endpoint doesn't derive PDAs, but the relay is the component
// that would own this mapping on a real deployment, so the fixed [0..9]
// layout and the msg_type-specific tail are preserved here rather than in
// pkg/gmp itself.
//
// IntentRequirements carries both destinations' lz_receive accounts
// ([10..14] outflow_validator, [15..19] intent_escrow); FulfillmentProof
// carries only intent_escrow's 7 ([10..16]); single-destination types pass
// their tail through verbatim starting at [10].
func BuildAccounts(msgType gmp.MsgType) gmp.AccountSlice {
	accounts := make(gmp.AccountSlice, len(fixedAccounts))
	for i, label := range fixedAccounts {
		accounts[label] = fmt.Sprintf("%d:%s", i, label)
	}

	switch msgType {
	case gmp.MsgIntentRequirements:
		for i := 0; i < 5; i++ {
			accounts[fmt.Sprintf("outflow_validator_lz_receive_%d", i)] = fmt.Sprintf("%d:outflow_validator.lz_receive[%d]", 10+i, i)
		}
		for i := 0; i < 5; i++ {
			accounts[fmt.Sprintf("intent_escrow_lz_receive_%d", i)] = fmt.Sprintf("%d:intent_escrow.lz_receive[%d]", 15+i, i)
		}
	case gmp.MsgFulfillmentProof:
		for i := 0; i < 7; i++ {
			accounts[fmt.Sprintf("intent_escrow_lz_receive_%d", i)] = fmt.Sprintf("%d:intent_escrow.lz_receive[%d]", 10+i, i)
		}
	case gmp.MsgEscrowConfirmation:
		// Single-destination: hub passes its own tail through verbatim
		// starting at [10]; nothing further to lay out generically here.
	}
	return accounts
}
