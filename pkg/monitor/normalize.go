package monitor

import (
	"fmt"
	"math/big"

	"github.com/intentmesh/fabric/pkg/commitment"
)

// NormalizeAddress, NormalizeIntentID, and NormalizeMetadata delegate to
// pkg/commitment so the monitor, validator, and scheduler all agree on one
// canonical form — re-exported here under the names spec §4.4 uses so the
// monitor's event-ingestion code reads like the spec's rule list.
var (
	NormalizeAddress  = commitment.NormalizeAddress
	NormalizeIntentID = commitment.NormalizeIntentID
	NormalizeMetadata = commitment.NormalizeMetadata
)

// maxU64 is u64::MAX, the hub contract's amount ceiling per spec §4.4.
var maxU64 = new(big.Int).SetUint64(^uint64(0))

// NormalizeAmount parses raw as a u128 decimal string and checks it fits in
// u64, per spec §4.4's "amounts parsed as u128 then checked <= u64::MAX".
func NormalizeAmount(raw string) (uint64, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return 0, fmt.Errorf("monitor: %q is not a valid u128 decimal amount", raw)
	}
	if v.Sign() < 0 {
		return 0, fmt.Errorf("monitor: amount %q must not be negative", raw)
	}
	if v.Cmp(maxU64) > 0 {
		return 0, fmt.Errorf("monitor: amount %q exceeds u64::MAX", raw)
	}
	return v.Uint64(), nil
}
