// Command monitor runs the fabric's event monitor: it replays and polls
// the hub and connected chains, normalizes their native events into the
// shared intent/escrow/fulfillment caches, and triggers cross-cache
// validation, per spec §4.4.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/config"
	"github.com/intentmesh/fabric/pkg/metrics"
	"github.com/intentmesh/fabric/pkg/monitor"
	"github.com/intentmesh/fabric/pkg/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(log.Writer(), "[Monitor] ", log.LstdFlags)

	// This reference implementation has no live per-chain RPC client for
	// any of the three connected-chain families (spec §2 component A is a
	// 5% share: a uniform query/transact trait, not a concrete SDK
	// integration). Each chain is represented by a SimulatedAdapter that
	// the hub's and connected chains' program simulations (pkg/escrow,
	// pkg/gmp) emit events into as transactions are submitted through
	// them. Intent-creation events live on the hub; escrow and
	// fulfillment events live on whichever connected chain an intent
	// touches, so the monitor has to watch all four.
	registry := chainadapter.NewRegistry(
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

	metricsReg := metrics.NewRegistry()

	svc := monitor.NewService(registry, cfg.MonitorReplayWindow, cfg.MonitorPollInterval, func(r monitor.ValidationResult) {
		if !r.OK {
			logger.Printf("cross-cache validation failed intent_id=%s reason=%s", r.IntentID, r.Reason)
		}
	}, logger)

	// Persistence is optional (spec §3): an empty DatabaseURL means replay
	// checkpoints live only in process memory and a restart replays the
	// full monitor window.
	var dbClient *store.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = store.NewClient(cfg)
		if err != nil {
			logger.Fatalf("connect database: %v", err)
		}
		if err := dbClient.MigrateUp(context.Background()); err != nil {
			logger.Fatalf("migrate database: %v", err)
		}
		svc.SetCheckpointStore(store.NewCheckpointRepository(dbClient))
		defer dbClient.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := svc.Run(ctx, cfg.MonitorBlocksPerSecond); err != nil && ctx.Err() == nil {
			logger.Printf("monitor service stopped: %v", err)
		}
	}()

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

	logger.Printf("shutting down monitor...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	logger.Printf("monitor stopped")
}
