package chainadapter

import (
	"context"
	"fmt"
	"sync"
)

// SimulatedAdapter is the reference Adapter implementation used by the
// fabric's binaries: rather than dialing a real per-family RPC endpoint, it
// records events appended by this process's own program simulations
// (pkg/escrow's books, pkg/gmp's Endpoint), mirroring those packages'
// existing stance of being reference-implemented in Go instead of compiled
// to each chain's native contract language. A deployment that needs a real
// chain behind an Adapter implements this same interface against that
// chain's actual RPC client; SimulatedAdapter is the one this repo ships.
type SimulatedAdapter struct {
	cfg ChainConfig

	mu     sync.Mutex
	block  uint64
	events []Event
}

// NewSimulatedAdapter constructs a SimulatedAdapter for cfg, starting at
// block 0 with no recorded events.
func NewSimulatedAdapter(cfg ChainConfig) *SimulatedAdapter {
	return &SimulatedAdapter{cfg: cfg}
}

func (a *SimulatedAdapter) Family() Family      { return a.cfg.Family }
func (a *SimulatedAdapter) ChainID() uint64     { return a.cfg.ChainID }
func (a *SimulatedAdapter) Config() ChainConfig { return a.cfg }

// Emit appends ev to this chain's event log at the next block height. A
// program simulation calls Emit immediately after a state-changing
// operation (escrow create/claim/cancel, GMP send) succeeds, the same
// moment a real chain would include the equivalent transaction in a block.
func (a *SimulatedAdapter) Emit(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.block++
	ev.BlockHeight = a.block
	ev.ChainID = a.cfg.ChainID
	a.events = append(a.events, ev)
}

// CurrentBlock returns the highest block height reached by Emit or
// SubmitTransaction so far.
func (a *SimulatedAdapter) CurrentBlock(ctx context.Context) (uint64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.block, nil
}

// QueryEvents returns every recorded event in [fromBlock, toBlock].
func (a *SimulatedAdapter) QueryEvents(ctx context.Context, fromBlock, toBlock uint64) ([]Event, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Event, 0)
	for _, ev := range a.events {
		if ev.BlockHeight >= fromBlock && ev.BlockHeight <= toBlock {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SubmitTransaction advances the simulated chain by one block and returns a
// synthetic transaction hash; it does not itself Emit an event, since the
// caller's program simulation is responsible for deciding what event (if
// any) that transaction produces.
func (a *SimulatedAdapter) SubmitTransaction(ctx context.Context, payload []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.block++
	return fmt.Sprintf("0xsim%d-%d", a.cfg.ChainID, a.block), nil
}

// HealthCheck always succeeds: a SimulatedAdapter has no external endpoint
// to be unreachable.
func (a *SimulatedAdapter) HealthCheck(ctx context.Context) error {
	return nil
}
