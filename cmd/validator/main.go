// Command validator runs the fabric's validator/signer service of spec
// §4.5: it watches the monitor's caches for cross-chain invariant matches
// and approves inflow releases automatically, and it exposes the HTTP
// surface connected-chain solvers call to get an outflow release approved
// once their fulfillment transaction lands.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/intentmesh/fabric/pkg/chainadapter"
	"github.com/intentmesh/fabric/pkg/config"
	"github.com/intentmesh/fabric/pkg/keys"
	"github.com/intentmesh/fabric/pkg/metrics"
	"github.com/intentmesh/fabric/pkg/monitor"
	"github.com/intentmesh/fabric/pkg/store"
	"github.com/intentmesh/fabric/pkg/validatorsvc"
	"github.com/intentmesh/fabric/pkg/validatorsvc/server"
)

func decodeIntentID32(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x"))
	if err != nil {
		return out, fmt.Errorf("decode intent id: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("intent id must decode to 32 bytes, got %d", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(log.Writer(), "[Validator] ", log.LstdFlags)

	ed25519Priv, err := keys.LoadOrGenerateEd25519(cfg.Ed25519KeyPath)
	if err != nil {
		logger.Fatalf("load ed25519 key: %v", err)
	}
	ecdsaPriv, err := keys.LoadOrGenerateECDSA(cfg.ECDSAKeyPath)
	if err != nil {
		logger.Fatalf("load ecdsa key: %v", err)
	}
	signer := validatorsvc.NewMultiSigner(
		validatorsvc.NewEd25519Signer(ed25519Priv),
		validatorsvc.NewECDSASigner(ecdsaPriv),
	)

	registry, err := monitor.LoadSolverRegistry(cfg.SchedulerSolverRegistryPath)
	if err != nil {
		logger.Fatalf("load solver registry: %v", err)
	}
	checker := validatorsvc.NewChecker(registry)
	svc := validatorsvc.NewService(checker, signer, logger)

	// Persistence is optional (spec §3): an empty DatabaseURL means
	// approvals and replay checkpoints live only in process memory and a
	// restart replays the full monitor window.
	var dbClient *store.Client
	if cfg.DatabaseURL != "" {
		dbClient, err = store.NewClient(cfg)
		if err != nil {
			logger.Fatalf("connect database: %v", err)
		}
		if err := dbClient.MigrateUp(context.Background()); err != nil {
			logger.Fatalf("migrate database: %v", err)
		}
		if err := svc.SetApprovalStore(store.NewApprovalRepository(dbClient)); err != nil {
			logger.Fatalf("load persisted approvals: %v", err)
		}
		defer dbClient.Close()
	}

	// This reference implementation's validator watches the same four
	// simulated chains cmd/monitor watches (see its identical scope
	// note): each binary is its own self-contained process, so the
	// validator keeps its own monitor.Service rather than sharing
	// cmd/monitor's in-memory caches across a process boundary.
	chainFamilies := map[uint64]chainadapter.Family{
		cfg.HubChainID:          chainadapter.FamilyHubMVM,
		cfg.ConnectedMVMChainID: chainadapter.FamilyConnectedMVM,
		cfg.ConnectedEVMChainID: chainadapter.FamilyConnectedEVM,
		cfg.ConnectedSVMChainID: chainadapter.FamilyConnectedSVM,
	}
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

	var monSvc *monitor.Service
	monSvc = monitor.NewService(chainRegistry, cfg.MonitorReplayWindow, cfg.MonitorPollInterval, func(r monitor.ValidationResult) {
		if !r.OK {
			logger.Printf("cross-cache validation failed intent_id=%s reason=%s", r.IntentID, r.Reason)
			return
		}
		intentEv, ok := monSvc.Intents().Get(r.IntentID)
		if !ok {
			return
		}
		escrowEv, ok := monSvc.Escrows().Get(r.IntentID)
		if !ok {
			return
		}
		family, ok := chainFamilies[escrowEv.ChainID]
		if !ok {
			logger.Printf("approve inflow intent_id=%s: unknown chain_id %d", r.IntentID, escrowEv.ChainID)
			return
		}
		intentID, err := decodeIntentID32(intentEv.IntentID)
		if err != nil {
			logger.Printf("approve inflow intent_id=%s: %v", r.IntentID, err)
			return
		}
		if _, err := svc.ApproveInflow(intentEv, escrowEv, family.String(), intentID); err != nil {
			logger.Printf("approve inflow intent_id=%s: %v", r.IntentID, err)
		}
	}, logger)
	if dbClient != nil {
		monSvc.SetCheckpointStore(store.NewCheckpointRepository(dbClient))
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := monSvc.Run(ctx, cfg.MonitorBlocksPerSecond); err != nil && ctx.Err() == nil {
			logger.Printf("monitor service stopped: %v", err)
		}
	}()

	handlers := server.NewHandlers(svc, logger)
	handlers.SetResolver(func(txHash, chainType, intentID string) (validatorsvc.OutflowCheckInput, error) {
		normIntentID, err := monitor.NormalizeIntentID(intentID)
		if err != nil {
			return validatorsvc.OutflowCheckInput{}, fmt.Errorf("normalize intent_id: %w", err)
		}
		fulfillEv, ok := monSvc.Fulfillments().Get(normIntentID)
		if !ok {
			return validatorsvc.OutflowCheckInput{}, fmt.Errorf("no observed fulfillment for intent_id %s", intentID)
		}
		if fulfillEv.TxHash != txHash {
			return validatorsvc.OutflowCheckInput{}, fmt.Errorf("tx_hash %s does not match observed fulfillment %s", txHash, fulfillEv.TxHash)
		}
		intentEv, ok := monSvc.Intents().Get(normIntentID)
		if !ok {
			return validatorsvc.OutflowCheckInput{}, fmt.Errorf("no observed intent for intent_id %s", intentID)
		}
		// This reference implementation's normalized events carry no
		// associated-token-account field, so TxRecipientATA/RequesterATA
		// are always empty; CheckOutflow's wallet-address comparison is
		// the only recipient check that can ever pass.
		return validatorsvc.OutflowCheckInput{
			TxConfirmed:       fulfillEv.Confirmed,
			TxSuccessful:      fulfillEv.Successful,
			TxIntentID:        fulfillEv.IntentID,
			TxRecipient:       fulfillEv.Recipient,
			TxAmount:          fulfillEv.Amount,
			TxSolver:          fulfillEv.Solver,
			ExpectedIntentID:  intentEv.IntentID,
			RequesterAddrConn: intentEv.RequesterAddrConn,
			DesiredAmount:     intentEv.DesiredAmount,
			ReservedSolverMVM: intentEv.ReservedSolver,
			ConnectedChainFam: chainType,
		}, nil
	})

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)

	validatorServer := &http.Server{Addr: cfg.ValidatorListenAddr, Handler: mux}
	go func() {
		logger.Printf("validator API listening on %s", cfg.ValidatorListenAddr)
		if err := validatorServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("validator server: %v", err)
		}
	}()

	metricsReg := metrics.NewRegistry()
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

	logger.Printf("shutting down validator...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := validatorServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("validator server shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	logger.Printf("validator stopped")
}
