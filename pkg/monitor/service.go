package monitor

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
)

// ValidationResult is reported by the monitor's cross-cache validation
// trigger (spec §4.4: "on each new cache entry, trigger validation against
// the other caches") so the validator service can subscribe without the
// monitor depending on pkg/validatorsvc.
type ValidationResult struct {
	IntentID string
	OK       bool
	Reason   string
}

// CheckpointStore persists each chain's last-processed block so a restarted
// Service resumes incremental polling from there instead of replaying the
// full replayWindow. Matches pkg/store.CheckpointRepository's shape without
// importing pkg/store, keeping pkg/monitor free of a database dependency;
// a nil CheckpointStore (the default) means every restart replays the full
// window, per spec §3's "persistence is optional" ownership rule.
type CheckpointStore interface {
	Load(ctx context.Context, chainID uint64) (uint64, bool, error)
	Save(ctx context.Context, chainID, lastProcessedBlock uint64) error
}

// Service implements spec §4.4's poll model: replay a historical window on
// startup, then poll incrementally, normalizing every chain's native events
// into the shared IntentEvent/EscrowEvent/FulfillmentEvent shapes and
// triggering validation on each new cache entry. Restart behavior mirrors
// the teacher's intent.IntentDiscovery, which tracks lastProcessedBlock per
// chain and replays from there rather than trusting in-memory state to
// survive a restart.
type Service struct {
	mu                 sync.Mutex
	registry           *chainadapter.Registry
	intents            *Cache[IntentEvent]
	escrows            *Cache[EscrowEvent]
	fulfillments       *Cache[FulfillmentEvent]
	lastProcessedBlock map[uint64]uint64
	checkpoints        CheckpointStore

	replayWindow time.Duration
	pollInterval time.Duration

	onValidation func(ValidationResult)
	log          *log.Logger
}

// NewService constructs a Service. onValidation may be nil; if set, it is
// called synchronously after a new intent/escrow cache entry whose
// counterpart is already cached, with the result of cross-validating the
// two.
func NewService(registry *chainadapter.Registry, replayWindow, pollInterval time.Duration, onValidation func(ValidationResult), logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[Monitor] ", log.LstdFlags)
	}
	return &Service{
		registry:           registry,
		intents:            NewCache[IntentEvent](),
		escrows:            NewCache[EscrowEvent](),
		fulfillments:       NewCache[FulfillmentEvent](),
		lastProcessedBlock: make(map[uint64]uint64),
		replayWindow:       replayWindow,
		pollInterval:       pollInterval,
		onValidation:       onValidation,
		log:                logger,
	}
}

// Intents, Escrows, and Fulfillments expose the underlying caches for
// read-only consumers (pkg/validatorsvc, pkg/scheduler).
func (s *Service) Intents() *Cache[IntentEvent]           { return s.intents }
func (s *Service) Escrows() *Cache[EscrowEvent]           { return s.escrows }
func (s *Service) Fulfillments() *Cache[FulfillmentEvent] { return s.fulfillments }

// SetCheckpointStore wires an optional persistence layer for replay
// checkpoints. Must be called before Run.
func (s *Service) SetCheckpointStore(store CheckpointStore) {
	s.checkpoints = store
}

// Run replays each registered adapter's history back to replayWindow, then
// polls every pollInterval until ctx is cancelled. blocksPerSecond is an
// estimate used only to translate replayWindow into a starting block
// height; each adapter's QueryEvents call still re-derives block ranges
// from CurrentBlock on every poll.
func (s *Service) Run(ctx context.Context, blocksPerSecond float64) error {
	for _, adapter := range s.registry.All() {
		if err := s.replay(ctx, adapter, blocksPerSecond); err != nil {
			return fmt.Errorf("replay chain %d: %w", adapter.ChainID(), err)
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, adapter := range s.registry.All() {
				if err := s.pollOnce(ctx, adapter); err != nil {
					s.log.Printf("poll chain %d: %v", adapter.ChainID(), err)
				}
			}
		}
	}
}

func (s *Service) replay(ctx context.Context, adapter chainadapter.Adapter, blocksPerSecond float64) error {
	current, err := adapter.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("current block: %w", err)
	}

	if s.checkpoints != nil {
		last, ok, err := s.checkpoints.Load(ctx, adapter.ChainID())
		if err != nil {
			s.log.Printf("load checkpoint chain %d: %v", adapter.ChainID(), err)
		} else if ok {
			return s.ingest(ctx, adapter, last, current)
		}
	}

	var from uint64
	if windowBlocks := uint64(s.replayWindow.Seconds() * blocksPerSecond); windowBlocks < current {
		from = current - windowBlocks
	}
	return s.ingest(ctx, adapter, from, current)
}

func (s *Service) pollOnce(ctx context.Context, adapter chainadapter.Adapter) error {
	current, err := adapter.CurrentBlock(ctx)
	if err != nil {
		return fmt.Errorf("current block: %w", err)
	}

	s.mu.Lock()
	from := s.lastProcessedBlock[adapter.ChainID()]
	s.mu.Unlock()
	if from > current {
		return nil
	}
	return s.ingest(ctx, adapter, from, current)
}

func (s *Service) ingest(ctx context.Context, adapter chainadapter.Adapter, from, to uint64) error {
	events, err := adapter.QueryEvents(ctx, from, to)
	if err != nil {
		return fmt.Errorf("query events: %w", err)
	}
	for _, ev := range events {
		s.ingestOne(adapter.Family(), ev)
	}

	s.mu.Lock()
	s.lastProcessedBlock[adapter.ChainID()] = to + 1
	s.mu.Unlock()

	if s.checkpoints != nil {
		if err := s.checkpoints.Save(ctx, adapter.ChainID(), to+1); err != nil {
			s.log.Printf("save checkpoint chain %d: %v", adapter.ChainID(), err)
		}
	}
	return nil
}

func (s *Service) ingestOne(family chainadapter.Family, ev chainadapter.Event) {
	switch ev.EventType {
	case "intent_created":
		intentEv, err := decodeIntentEvent(ev)
		if err != nil {
			s.log.Printf("decode intent event: %v", err)
			return
		}
		if s.intents.Put(intentEv.IntentID, intentEv) {
			s.validate(intentEv.IntentID)
		}
	case "escrow_created":
		escrowEv, err := decodeEscrowEvent(ev)
		if err != nil {
			s.log.Printf("decode escrow event: %v", err)
			return
		}
		if s.escrows.Put(escrowEv.IntentID, escrowEv) {
			s.validate(escrowEv.IntentID)
		}
	case "fulfillment":
		fulfillEv, err := decodeFulfillmentEvent(ev)
		if err != nil {
			s.log.Printf("decode fulfillment event: %v", err)
			return
		}
		s.fulfillments.Put(fulfillEv.IntentID, fulfillEv)
	default:
		s.log.Printf("unknown event type %q on chain family %s", ev.EventType, family)
	}
}

// validate implements spec §4.4's "on each new cache entry, trigger
// validation against the other caches": once both the intent and escrow
// side of the same intent_id are cached, check the cross-chain amount/
// metadata/chain invariants of spec §4.5 invariants 2-5 (invariant 6, the
// solver-registry resolution, needs a SolverRegistry collaborator and is
// checked by pkg/validatorsvc instead, which has one).
func (s *Service) validate(intentID string) {
	if s.onValidation == nil {
		return
	}
	intentEv, haveIntent := s.intents.Get(intentID)
	escrowEv, haveEscrow := s.escrows.Get(intentID)
	if !haveIntent || !haveEscrow {
		return
	}

	result := ValidationResult{IntentID: intentID, OK: true}
	switch {
	case escrowEv.OfferedAmount != intentEv.OfferedAmount:
		result.OK = false
		result.Reason = "escrow.offered_amount != intent.offered_amount"
	case escrowEv.OfferedMetadata != intentEv.OfferedMetadata:
		result.OK = false
		result.Reason = "escrow.offered_metadata != intent.offered_metadata"
	case escrowEv.ChainID != intentEv.ConnectedChainID:
		result.OK = false
		result.Reason = "escrow.chain_id != intent.connected_chain_id"
	case escrowEv.DesiredAmount != 0:
		result.OK = false
		result.Reason = "escrow.desired_amount != 0"
	}
	s.onValidation(result)
}

func decodeIntentEvent(ev chainadapter.Event) (IntentEvent, error) {
	intentID, err := NormalizeIntentID(stringField(ev.Raw, "intent_id"))
	if err != nil {
		return IntentEvent{}, err
	}
	offeredMeta, err := NormalizeMetadata(stringField(ev.Raw, "offered_metadata"))
	if err != nil {
		return IntentEvent{}, err
	}
	desiredMeta, err := NormalizeMetadata(stringField(ev.Raw, "desired_metadata"))
	if err != nil {
		return IntentEvent{}, err
	}
	reservedSolver, err := NormalizeAddress(stringField(ev.Raw, "reserved_solver"))
	if err != nil {
		return IntentEvent{}, err
	}
	offeredAmount, err := NormalizeAmount(stringField(ev.Raw, "offered_amount"))
	if err != nil {
		return IntentEvent{}, err
	}
	desiredAmount, err := NormalizeAmount(stringField(ev.Raw, "desired_amount"))
	if err != nil {
		return IntentEvent{}, err
	}
	return IntentEvent{
		IntentID:          intentID,
		ConnectedChainID:  uint64Field(ev.Raw, "connected_chain_id"),
		OfferedMetadata:   offeredMeta,
		OfferedAmount:     offeredAmount,
		DesiredMetadata:   desiredMeta,
		DesiredAmount:     desiredAmount,
		ReservedSolver:    reservedSolver,
		RequesterAddrConn: stringField(ev.Raw, "requester_addr_connected"),
		ObservedAt:        time.Unix(int64(ev.BlockHeight), 0),
	}, nil
}

func decodeEscrowEvent(ev chainadapter.Event) (EscrowEvent, error) {
	intentID, err := NormalizeIntentID(stringField(ev.Raw, "intent_id"))
	if err != nil {
		return EscrowEvent{}, err
	}
	offeredMeta, err := NormalizeMetadata(stringField(ev.Raw, "offered_metadata"))
	if err != nil {
		return EscrowEvent{}, err
	}
	reservedSolver, err := NormalizeAddress(stringField(ev.Raw, "reserved_solver"))
	if err != nil {
		return EscrowEvent{}, err
	}
	offeredAmount, err := NormalizeAmount(stringField(ev.Raw, "offered_amount"))
	if err != nil {
		return EscrowEvent{}, err
	}
	desiredAmount, err := NormalizeAmount(stringField(ev.Raw, "desired_amount"))
	if err != nil {
		return EscrowEvent{}, err
	}
	return EscrowEvent{
		IntentID:        intentID,
		ChainID:         ev.ChainID,
		OfferedMetadata: offeredMeta,
		OfferedAmount:   offeredAmount,
		DesiredAmount:   desiredAmount,
		ReservedSolver:  reservedSolver,
	}, nil
}

func decodeFulfillmentEvent(ev chainadapter.Event) (FulfillmentEvent, error) {
	intentID, err := NormalizeIntentID(stringField(ev.Raw, "intent_id"))
	if err != nil {
		return FulfillmentEvent{}, err
	}
	recipient, err := NormalizeAddress(stringField(ev.Raw, "recipient"))
	if err != nil {
		return FulfillmentEvent{}, err
	}
	solver, err := NormalizeAddress(stringField(ev.Raw, "solver"))
	if err != nil {
		return FulfillmentEvent{}, err
	}
	amount, err := NormalizeAmount(stringField(ev.Raw, "amount"))
	if err != nil {
		return FulfillmentEvent{}, err
	}
	return FulfillmentEvent{
		IntentID:   intentID,
		TxHash:     ev.TxHash,
		Confirmed:  true,
		Successful: boolField(ev.Raw, "successful"),
		Recipient:  recipient,
		Amount:     amount,
		Solver:     solver,
		ChainID:    ev.ChainID,
		ObservedAt: time.Unix(int64(ev.BlockHeight), 0),
	}, nil
}

func stringField(raw map[string]interface{}, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func uint64Field(raw map[string]interface{}, key string) uint64 {
	switch v := raw[key].(type) {
	case uint64:
		return v
	case int:
		return uint64(v)
	case float64:
		return uint64(v)
	default:
		return 0
	}
}

func boolField(raw map[string]interface{}, key string) bool {
	if v, ok := raw[key].(bool); ok {
		return v
	}
	return false
}
