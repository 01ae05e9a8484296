// Package chainadapter defines the per-chain-family abstraction every other
// fabric component programs against, generalizing the teacher repo's
// pkg/chain/strategy.ChainExecutionStrategy / ChainPlatform pair to the four
// chain families the fabric spans instead of a general VM-platform list.
package chainadapter

import (
	"context"
	"fmt"
	"time"
)

// Family identifies which of the four chain families a chain belongs to.
// The hub runs Move VM; connected chains can be any of the three families
// below.
type Family int

const (
	FamilyUnspecified Family = iota
	FamilyHubMVM
	FamilyConnectedMVM
	FamilyConnectedEVM
	FamilyConnectedSVM
)

func (f Family) String() string {
	switch f {
	case FamilyHubMVM:
		return "hub-mvm"
	case FamilyConnectedMVM:
		return "connected-mvm"
	case FamilyConnectedEVM:
		return "connected-evm"
	case FamilyConnectedSVM:
		return "connected-svm"
	default:
		return "unspecified"
	}
}

// IsValid reports whether f is one of the four known families.
func (f Family) IsValid() bool {
	switch f {
	case FamilyHubMVM, FamilyConnectedMVM, FamilyConnectedEVM, FamilyConnectedSVM:
		return true
	default:
		return false
	}
}

// UsesEd25519 reports whether validator approvals destined for this family
// use Ed25519 (MVM, SVM) rather than ECDSA-secp256k1 (EVM).
func (f Family) UsesEd25519() bool {
	return f == FamilyHubMVM || f == FamilyConnectedMVM || f == FamilyConnectedSVM
}

// ChainConfig describes one chain instance within a family, mirroring the
// teacher's pkg/chain/strategy.ChainConfig shape (RPC endpoint, chain id,
// confirmation depth) trimmed to what the fabric's adapters actually need.
type ChainConfig struct {
	Family               Family
	ChainID              uint64
	Name                 string
	RPCEndpoint          string
	RequiredConfirmations uint64
	RPCTimeout           time.Duration
}

// Event is a normalized on-chain event as returned by an adapter's
// QueryEvents. Field meaning follows the IntentEvent/EscrowEvent/
// FulfillmentEvent shapes of the data model; adapters populate Raw with the
// chain-native payload so callers needing more detail can type-assert it.
type Event struct {
	TxHash      string
	BlockHeight uint64
	ChainID     uint64
	EventType   string
	Raw         map[string]interface{}
}

// Adapter is the query/transact surface every chain family must implement.
// It generalizes ChainExecutionStrategy's CreateAnchor/SubmitProof/
// ObserveTransaction trio down to the subset the fabric's relay, monitor,
// and validator actually call: read recent/historical events, fetch the
// current block height, and submit a signed payload produced elsewhere.
type Adapter interface {
	Family() Family
	ChainID() uint64
	Config() ChainConfig

	// CurrentBlock returns the chain's current confirmed block height.
	CurrentBlock(ctx context.Context) (uint64, error)

	// QueryEvents returns events between fromBlock and toBlock inclusive,
	// for the contract/program address this adapter was configured with.
	QueryEvents(ctx context.Context, fromBlock, toBlock uint64) ([]Event, error)

	// SubmitTransaction broadcasts a pre-built, pre-signed payload and
	// returns its transaction hash once accepted by the network's mempool
	// (not necessarily confirmed).
	SubmitTransaction(ctx context.Context, payload []byte) (txHash string, err error)

	// HealthCheck reports whether the underlying RPC endpoint is reachable.
	HealthCheck(ctx context.Context) error
}

// Registry resolves a chain's numeric ID to the adapter that serves it.
// The relay, monitor, and liquidity packages all take a *Registry rather
// than a map directly so they can be handed a nil-safe zero value in tests.
type Registry struct {
	byChainID map[uint64]Adapter
}

// NewRegistry builds a Registry from the given adapters, indexed by
// ChainID(). Later adapters with a duplicate chain id overwrite earlier
// ones — callers are expected to pass a de-duplicated list.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{byChainID: make(map[uint64]Adapter, len(adapters))}
	for _, a := range adapters {
		r.byChainID[a.ChainID()] = a
	}
	return r
}

// Get returns the adapter for chainID, or an error if none is registered.
func (r *Registry) Get(chainID uint64) (Adapter, error) {
	if r == nil {
		return nil, fmt.Errorf("chain %d: registry not initialized", chainID)
	}
	a, ok := r.byChainID[chainID]
	if !ok {
		return nil, fmt.Errorf("chain %d: no adapter registered", chainID)
	}
	return a, nil
}

// All returns every registered adapter, in no particular order.
func (r *Registry) All() []Adapter {
	if r == nil {
		return nil
	}
	out := make([]Adapter, 0, len(r.byChainID))
	for _, a := range r.byChainID {
		out = append(out, a)
	}
	return out
}
