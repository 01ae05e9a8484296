// Package relay implements spec §4.3's off-chain relay: poll every source
// chain for outbound GMP messages and drive deliver_message on each
// destination exactly once, suppressing in-flight duplicates locally while
// leaning on the endpoint's own delivered-marker for final idempotency.
package relay

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/gmp"
)

// maxDeliveryAttempts bounds the retry loop before a delivery is logged and
// dropped from the in-flight set per spec §4.3's "Failure" clause.
const maxDeliveryAttempts = 5

// Source pairs a chain adapter with the relay's polling position on it.
type Source struct {
	ChainID uint64
	Adapter chainadapter.Adapter

	mu        sync.Mutex
	nextBlock uint64
}

// NewSource constructs a Source starting its poll window at fromBlock.
func NewSource(adapter chainadapter.Adapter, fromBlock uint64) *Source {
	return &Source{ChainID: adapter.ChainID(), Adapter: adapter, nextBlock: fromBlock}
}

// Service is the relay: one or more Sources polled concurrently, delivering
// to a fixed set of local destination endpoints keyed by chain_id.
type Service struct {
	sources      []*Source
	destinations map[uint64]*gmp.Endpoint
	relayKey     [32]byte
	inFlight     *inFlight
	metrics      *Metrics
	log          *log.Logger
}

// NewService constructs a relay Service. relayKey must be authorized (via
// AddRelay) on every destination endpoint, or deliveries will fail with
// gmp.ErrUnauthorizedRelay.
func NewService(sources []*Source, destinations map[uint64]*gmp.Endpoint, relayKey [32]byte, metrics *Metrics, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[Relay] ", log.LstdFlags)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		sources:      sources,
		destinations: destinations,
		relayKey:     relayKey,
		inFlight:     newInFlight(),
		metrics:      metrics,
		log:          logger,
	}
}

// Run polls every source on its own goroutine, per the teacher's
// one-goroutine-per-subsystem pattern (main.go's `go validatorNode.Start`/
// `go validatorNode.StartConsensus`), until ctx is cancelled.
func (s *Service) Run(ctx context.Context, pollInterval time.Duration) error {
	var wg sync.WaitGroup
	for _, src := range s.sources {
		wg.Add(1)
		go func(src *Source) {
			defer wg.Done()
			s.runSource(ctx, src, pollInterval)
		}(src)
	}
	wg.Wait()
	return nil
}

func (s *Service) runSource(ctx context.Context, src *Source, pollInterval time.Duration) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	s.pollSource(ctx, src)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollSource(ctx, src)
		}
	}
}

func (s *Service) pollSource(ctx context.Context, src *Source) {
	src.mu.Lock()
	from := src.nextBlock
	src.mu.Unlock()

	messages, next, err := pollSourceEvents(ctx, src.Adapter, from, s.log)
	if err != nil {
		s.log.Printf("poll source chain %d: %v", src.ChainID, err)
		return
	}

	for _, msg := range messages {
		s.deliver(ctx, msg)
	}

	src.mu.Lock()
	src.nextBlock = next
	src.mu.Unlock()
}

func (s *Service) deliver(ctx context.Context, msg OutboundMessage) {
	key := deliveryKey{srcChainID: msg.SrcChainID, dstChainID: msg.DstChainID, nonce: msg.Nonce}
	if !s.inFlight.tryAcquire(key) {
		s.metrics.Deduped.Inc()
		return
	}
	s.metrics.InFlight.Set(float64(s.inFlight.len()))
	defer func() {
		s.inFlight.release(key)
		s.metrics.InFlight.Set(float64(s.inFlight.len()))
	}()

	dst, ok := s.destinations[msg.DstChainID]
	if !ok {
		s.log.Printf("no destination endpoint configured for chain %d, dropping message nonce=%d", msg.DstChainID, msg.Nonce)
		return
	}

	for attempt := 0; attempt < maxDeliveryAttempts; attempt++ {
		err := dst.DeliverMessage(ctx, s.relayKey, msg.SrcChainID, msg.SrcAddr, msg.Payload)
		if err == nil {
			s.metrics.Submitted.Inc()
			return
		}
		if errors.Is(err, gmp.ErrAlreadyDelivered) {
			// Already landed from a previous attempt or another relay
			// instance; treat as success per spec §4.3.
			s.metrics.Deduped.Inc()
			return
		}
		if isTerminalDeliveryError(err) {
			s.log.Printf("terminal delivery error src=%d dst=%d nonce=%d: %v", msg.SrcChainID, msg.DstChainID, msg.Nonce, err)
			s.metrics.Failed.Inc()
			return
		}

		s.log.Printf("delivery attempt %d/%d failed src=%d dst=%d nonce=%d: %v", attempt+1, maxDeliveryAttempts, msg.SrcChainID, msg.DstChainID, msg.Nonce, err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoffDelay(attempt)):
		}
	}
	s.log.Printf("delivery exhausted retries src=%d dst=%d nonce=%d", msg.SrcChainID, msg.DstChainID, msg.Nonce)
	s.metrics.Failed.Inc()
}

// isTerminalDeliveryError reports whether err represents a non-retryable
// failure (malformed payload, unauthorized relay, untrusted remote) rather
// than a transient RPC error.
func isTerminalDeliveryError(err error) bool {
	return errors.Is(err, gmp.ErrInvalidPayload) ||
		errors.Is(err, gmp.ErrUnauthorizedRelay) ||
		errors.Is(err, gmp.ErrUntrustedRemote) ||
		errors.Is(err, gmp.ErrNoRoute)
}
