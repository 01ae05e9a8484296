// Package liquidity implements the liquidity monitor of spec §4.7: tracked
// confirmed balances per (chain, token), in-flight reservations against
// them, and the saturating-subtraction budget math that keeps reservation a
// pure defense rather than a policy decision.
package liquidity

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/prometheus/client_golang/prometheus"
)

// ErrInsufficientBudget is returned by Reserve when granting it would drive
// available negative.
var ErrInsufficientBudget = errors.New("liquidity: insufficient available budget")

// ChainToken identifies one (chain, token) pair the monitor tracks.
type ChainToken struct {
	ChainID uint64
	Token   string
}

// InFlightCommitment is one outstanding reservation against a ChainToken's
// confirmed balance.
type InFlightCommitment struct {
	DraftID     string
	Amount      uint64
	CommittedAt time.Time
}

type ledger struct {
	confirmedBalance uint64
	inFlight         []InFlightCommitment
}

// available computes confirmed_balance - sum(in_flight.amount), saturating
// at zero per spec §3's TokenLiquidity invariant.
func (l *ledger) available() uint64 {
	var sum uint64
	for _, c := range l.inFlight {
		sum += c.Amount
	}
	if sum >= l.confirmedBalance {
		return 0
	}
	return l.confirmedBalance - sum
}

// BalanceQuerier fetches the on-chain confirmed balance of token on
// adapter's chain, abstracting the chain-specific balance RPC so Monitor
// itself stays chain-agnostic.
type BalanceQuerier func(ctx context.Context, adapter chainadapter.Adapter, token string) (uint64, error)

// Monitor holds one ledger per ChainToken behind a single RWMutex per spec
// §5 ("writers take exclusive, readers take shared").
type Monitor struct {
	mu             sync.RWMutex
	ledgers        map[ChainToken]*ledger
	minThreshold   uint64
	inFlightExpiry time.Duration
	registry       *chainadapter.Registry
	queryBalance   BalanceQuerier

	confirmedGauge *prometheus.GaugeVec
	availableGauge *prometheus.GaugeVec

	log *log.Logger
}

// NewMonitor constructs a Monitor. registry and queryBalance may be nil if
// the caller only needs Reserve/Release/HasBudgetAfterSpend without the
// background polling loop (e.g. in tests).
func NewMonitor(registry *chainadapter.Registry, queryBalance BalanceQuerier, minThreshold uint64, inFlightExpiry time.Duration, logger *log.Logger) *Monitor {
	if logger == nil {
		logger = log.New(log.Writer(), "[Liquidity] ", log.LstdFlags)
	}
	return &Monitor{
		ledgers:        make(map[ChainToken]*ledger),
		minThreshold:   minThreshold,
		inFlightExpiry: inFlightExpiry,
		registry:       registry,
		queryBalance:   queryBalance,
		confirmedGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fabric",
			Subsystem: "liquidity",
			Name:      "confirmed_balance",
			Help:      "Confirmed on-chain balance per chain/token.",
		}, []string{"chain_id", "token"}),
		availableGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fabric",
			Subsystem: "liquidity",
			Name:      "available_budget",
			Help:      "Confirmed balance minus in-flight reservations, per chain/token.",
		}, []string{"chain_id", "token"}),
		log: logger,
	}
}

// Collectors returns the prometheus collectors this Monitor registers, for
// cmd/* binaries to register against their registry.
func (m *Monitor) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.confirmedGauge, m.availableGauge}
}

func (m *Monitor) getOrCreateLedger(ct ChainToken) *ledger {
	l, ok := m.ledgers[ct]
	if !ok {
		l = &ledger{}
		m.ledgers[ct] = l
	}
	return l
}

// Reserve implements spec §4.7's reserve(chain_token, draft_id, amount): an
// atomic check that available >= amount, then append an InFlightCommitment.
// Fails ErrInsufficientBudget otherwise.
func (m *Monitor) Reserve(ct ChainToken, draftID string, amount uint64, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.getOrCreateLedger(ct)
	if amount > l.available() {
		return fmt.Errorf("%w: chain=%d token=%s requested=%d available=%d", ErrInsufficientBudget, ct.ChainID, ct.Token, amount, l.available())
	}
	l.inFlight = append(l.inFlight, InFlightCommitment{DraftID: draftID, Amount: amount, CommittedAt: now})
	m.updateGauges(ct, l)
	return nil
}

// Release implements spec §4.7's release(draft_id): remove matching
// commitments and deduct their sum from confirmed_balance, avoiding a
// stale-balance window before the next poll.
func (m *Monitor) Release(ct ChainToken, draftID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.ledgers[ct]
	if !ok {
		return
	}
	var released uint64
	kept := l.inFlight[:0]
	for _, c := range l.inFlight {
		if c.DraftID == draftID {
			released += c.Amount
			continue
		}
		kept = append(kept, c)
	}
	l.inFlight = kept
	if released > l.confirmedBalance {
		l.confirmedBalance = 0
	} else {
		l.confirmedBalance -= released
	}
	m.updateGauges(ct, l)
}

// HasBudgetAfterSpend implements spec §4.7's
// has_budget_after_spend(chain_token, amount): available >= amount +
// min_threshold.
func (m *Monitor) HasBudgetAfterSpend(ct ChainToken, amount uint64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.ledgers[ct]
	if !ok {
		return amount == 0 && m.minThreshold == 0
	}
	return l.available() >= amount+m.minThreshold
}

// Available returns the current available budget for ct, for
// observability and tests.
func (m *Monitor) Available(ct ChainToken) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.ledgers[ct]
	if !ok {
		return 0
	}
	return l.available()
}

// SetConfirmedBalance overwrites ct's confirmed_balance, for the background
// poll loop and tests.
func (m *Monitor) SetConfirmedBalance(ct ChainToken, balance uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.getOrCreateLedger(ct)
	l.confirmedBalance = balance
	m.updateGauges(ct, l)
}

func (m *Monitor) updateGauges(ct ChainToken, l *ledger) {
	labels := prometheus.Labels{"chain_id": fmt.Sprintf("%d", ct.ChainID), "token": ct.Token}
	m.confirmedGauge.With(labels).Set(float64(l.confirmedBalance))
	m.availableGauge.With(labels).Set(float64(l.available()))
}

// cleanupExpired removes commitments older than inFlightExpiry, with
// warning logs, per spec §4.7's background-loop step 3.
func (m *Monitor) cleanupExpired(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ct, l := range m.ledgers {
		kept := l.inFlight[:0]
		for _, c := range l.inFlight {
			if now.Sub(c.CommittedAt) > m.inFlightExpiry {
				m.log.Printf("WARN expiring in-flight commitment draft_id=%s chain=%d token=%s amount=%d age=%s", c.DraftID, ct.ChainID, ct.Token, c.Amount, now.Sub(c.CommittedAt))
				continue
			}
			kept = append(kept, c)
		}
		l.inFlight = kept
		m.updateGauges(ct, l)
	}
}

// Run executes the background balance-poll loop of spec §4.7: every
// pollInterval, refresh each tracked (chain, token)'s confirmed balance,
// clean up expired commitments, and warn on low available budget.
func (m *Monitor) Run(ctx context.Context, tracked []ChainToken, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.pollOnce(ctx, tracked)
			m.cleanupExpired(time.Now())
		}
	}
}

func (m *Monitor) pollOnce(ctx context.Context, tracked []ChainToken) {
	if m.registry == nil || m.queryBalance == nil {
		return
	}
	for _, ct := range tracked {
		adapter, err := m.registry.Get(ct.ChainID)
		if err != nil {
			m.log.Printf("poll balance: %v", err)
			continue
		}
		balance, err := m.queryBalance(ctx, adapter, ct.Token)
		if err != nil {
			m.log.Printf("query balance chain=%d token=%s: %v", ct.ChainID, ct.Token, err)
			continue
		}
		m.SetConfirmedBalance(ct, balance)
		if m.Available(ct) < m.minThreshold {
			m.log.Printf("WARN available budget below threshold chain=%d token=%s available=%d threshold=%d", ct.ChainID, ct.Token, m.Available(ct), m.minThreshold)
		}
	}
}
