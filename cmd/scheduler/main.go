// Command scheduler runs a solver's scheduler of spec §4.6: the signing
// loop that accepts and signs draft intents, the intent tracker that
// observes their on-chain creation, and the inflow/outflow services that
// drive each created intent through to fulfillment, gated throughout by
// the liquidity monitor of spec §4.7.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/config"
	"github.com/intentmesh/fabric/pkg/keys"
	"github.com/intentmesh/fabric/pkg/liquidity"
	"github.com/intentmesh/fabric/pkg/metrics"
	"github.com/intentmesh/fabric/pkg/monitor"
	"github.com/intentmesh/fabric/pkg/scheduler"
)

// multiChainEscrowClaimer and multiChainTransfer pick the right connected
// chain's adapter per intent instead of a service being wired to one fixed
// chain, since a single solver's scheduler runs drafts across all three
// connected chain families. The draft's offered side holds the inflow
// escrow being claimed; the desired side is where an outflow transfer is
// sent, matching how NewDraft's two (chain, token, amount) sides are
// populated by the signing loop.
type multiChainEscrowClaimer struct {
	tracker  *scheduler.Tracker
	registry *chainadapter.Registry
}

func (c *multiChainEscrowClaimer) Claim(ctx context.Context, intentID string) error {
	ti, ok := c.tracker.ByIntentID(intentID)
	if !ok {
		return fmt.Errorf("scheduler: no tracked draft for intent_id %s", intentID)
	}
	adapter, err := c.registry.Get(ti.Draft.OfferedChainID)
	if err != nil {
		return err
	}
	return scheduler.NewAdapterEscrowClaimer(adapter).Claim(ctx, intentID)
}

type multiChainTransfer struct {
	tracker  *scheduler.Tracker
	registry *chainadapter.Registry
}

func (c *multiChainTransfer) Transfer(ctx context.Context, intentID string) (string, string, error) {
	ti, ok := c.tracker.ByIntentID(intentID)
	if !ok {
		return "", "", fmt.Errorf("scheduler: no tracked draft for intent_id %s", intentID)
	}
	adapter, err := c.registry.Get(ti.Draft.DesiredChainID)
	if err != nil {
		return "", "", err
	}
	return scheduler.NewAdapterConnectedChainTransfer(adapter).Transfer(ctx, intentID)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(log.Writer(), "[Scheduler] ", log.LstdFlags)

	solverPriv, err := keys.LoadOrGenerateEd25519(cfg.Ed25519KeyPath)
	if err != nil {
		logger.Fatalf("load solver key: %v", err)
	}

	rates, err := scheduler.LoadRateTable(cfg.SchedulerRateTablePath)
	if err != nil {
		logger.Fatalf("load rate table: %v", err)
	}

	// Self-contained per-process simulated chain set, identical in shape to
	// cmd/monitor's and cmd/validator's registries; this solver's scheduler
	// submits transactions to these adapters rather than to a shared
	// cross-process chain.
	chainRegistry := chainadapter.NewRegistry(
		chainadapter.NewSimulatedAdapter(chainadapter.ChainConfig{
			Family: chainadapter.FamilyHubMVM, ChainID: cfg.HubChainID, Name: "hub", RPCEndpoint: cfg.HubRPCURL,
		}),
		chainadapter.NewSimulatedAdapter(chainadapter.ChainConfig{
			Family: chainadapter.FamilyConnectedMVM, ChainID: cfg.ConnectedMVMChainID, Name: "connected-mvm", RPCEndpoint: cfg.ConnectedMVMURL,
		}),
		chainadapter.NewSimulatedAdapter(chainadapter.ChainConfig{
			Family: chainadapter.FamilyConnectedEVM, ChainID: cfg.ConnectedEVMChainID, Name: "connected-evm", RPCEndpoint: cfg.ConnectedEVMURL,
		}),
		chainadapter.NewSimulatedAdapter(chainadapter.ChainConfig{
			Family: chainadapter.FamilyConnectedSVM, ChainID: cfg.ConnectedSVMChainID, Name: "connected-svm", RPCEndpoint: cfg.ConnectedSVMURL,
		}),
	)

	// This reference implementation has no real balance source to query;
	// an operator seeds tracked balances through Monitor.SetConfirmedBalance
	// directly (e.g. from an ops console). This querier always reports zero;
	// because liq.Run below is given no tracked pairs, the poll loop never
	// calls it, so an operator-seeded balance is not overwritten.
	noopBalanceQuerier := liquidity.BalanceQuerier(func(context.Context, chainadapter.Adapter, string) (uint64, error) {
		return 0, nil
	})
	liq := liquidity.NewMonitor(chainRegistry, noopBalanceQuerier, cfg.LiquidityMinThreshold, cfg.LiquidityInFlightExpiry, logger)

	tracker := scheduler.NewTracker()
	verifier := scheduler.NewHTTPVerifierClient(cfg.VerifierURL)
	hubView := scheduler.NewCommitmentHubViewClient()
	signingLoop := scheduler.NewSigningLoop(verifier, hubView, rates, liq, tracker, solverPriv, logger)

	hubAdapter, err := chainRegistry.Get(cfg.HubChainID)
	if err != nil {
		logger.Fatalf("get hub adapter: %v", err)
	}
	hubClient := scheduler.NewAdapterHubClient(hubAdapter)
	approvalClient := scheduler.NewHTTPApprovalClient(cfg.ValidatorBaseURL)

	// monSvc feeds InflowService's escrow-observed check (spec §4.6 "poll
	// the connected chain for a matching escrow"); a dedicated instance
	// per the same self-contained-process pattern as cmd/validator.
	monSvc := monitor.NewService(chainRegistry, cfg.MonitorReplayWindow, cfg.MonitorPollInterval, nil, logger)

	claimer := &multiChainEscrowClaimer{tracker: tracker, registry: chainRegistry}
	transfer := &multiChainTransfer{tracker: tracker, registry: chainRegistry}

	inflowSvc := scheduler.NewInflowService(tracker, monSvc, hubClient, claimer, approvalClient, liq, logger)
	outflowSvc := scheduler.NewOutflowService(tracker, transfer, approvalClient, hubClient, liq, logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := monSvc.Run(ctx, cfg.MonitorBlocksPerSecond); err != nil && ctx.Err() == nil {
			logger.Printf("monitor service stopped: %v", err)
		}
	}()

	// No (chain, token) pairs are pre-declared to track: this reference
	// implementation has no balance source to poll, so Run's balance
	// refresh is a no-op and only its expired-commitment cleanup matters
	// until an operator seeds a ledger via SetConfirmedBalance.
	go func() {
		if err := liq.Run(ctx, nil, cfg.LiquidityPollInterval); err != nil && ctx.Err() == nil {
			logger.Printf("liquidity monitor stopped: %v", err)
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.SchedulerPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := signingLoop.RunOnce(time.Now()); err != nil {
					logger.Printf("signing loop: %v", err)
				}
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(cfg.SchedulerPollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := inflowSvc.RunOnce(ctx); err != nil {
					logger.Printf("inflow service: %v", err)
				}
				if _, err := outflowSvc.RunOnce(ctx); err != nil {
					logger.Printf("outflow service: %v", err)
				}
			}
		}
	}()

	metricsReg := metrics.NewRegistry()
	metricsReg.Register(liq.Collectors()...)
	metricsServer := &http.Server{Addr: cfg.MetricsListenAddr, Handler: metricsReg.Handler()}
	go func() {
		logger.Printf("metrics listening on %s", cfg.MetricsListenAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("metrics server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Printf("shutting down scheduler...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	logger.Printf("scheduler stopped")
}
