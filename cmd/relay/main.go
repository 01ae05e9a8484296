// Command relay runs the fabric's off-chain relay: it polls every chain's
// GMP endpoint for outbound messages and drives delivery to the
// appropriate destination endpoint exactly once, per spec §4.3.
package main

import (
	"context"
	"crypto/ed25519"
	"encoding/binary"
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
	"github.com/intentmesh/fabric/pkg/escrow"
	"github.com/intentmesh/fabric/pkg/gmp"
	"github.com/intentmesh/fabric/pkg/keys"
	"github.com/intentmesh/fabric/pkg/metrics"
	"github.com/intentmesh/fabric/pkg/relay"
)

// programAddr derives a deterministic, distinguishable 32-byte address for
// the program suite living on chainID, tagged by kind. This reference
// implementation has no real on-chain deployment to read an address from,
// so the address space is synthesized instead of configured.
func programAddr(chainID uint64, tag byte) [32]byte {
	var a [32]byte
	a[0] = tag
	binary.BigEndian.PutUint64(a[24:], chainID)
	return a
}

const (
	tagGMPEndpoint      = 0x01
	tagIntentEscrow     = 0x02
	tagOutflowValidator = 0x03
)

// chainEndpoint bundles one chain's GMP endpoint together with the
// SimulatedAdapter it emits message_sent events onto.
type chainEndpoint struct {
	chainID uint64
	adapter *chainadapter.SimulatedAdapter
	ep      *gmp.Endpoint
}

func newChainEndpoint(family chainadapter.Family, chainID uint64, name, rpcURL string, admin, relayKey [32]byte, logger *log.Logger) *chainEndpoint {
	adapter := chainadapter.NewSimulatedAdapter(chainadapter.ChainConfig{
		Family: family, ChainID: chainID, Name: name, RPCEndpoint: rpcURL,
	})
	ep := gmp.NewEndpoint(log.New(log.Writer(), "[GMP:"+name+"] ", log.LstdFlags))
	if err := ep.Initialize(admin, chainID); err != nil {
		logger.Fatalf("initialize %s endpoint: %v", name, err)
	}
	if err := ep.AddRelay(admin, relayKey); err != nil {
		logger.Fatalf("authorize relay on %s endpoint: %v", name, err)
	}
	ep.SetEmitter(adapter)
	return &chainEndpoint{chainID: chainID, adapter: adapter, ep: ep}
}

func decodeHexAddr(s string) ([32]byte, error) {
	var out [32]byte
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(s), "0x"))
	if err != nil {
		return out, fmt.Errorf("decode hex address: %w", err)
	}
	if len(raw) != 32 {
		return out, fmt.Errorf("expected 32-byte address, got %d bytes", len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := log.New(log.Writer(), "[Relay] ", log.LstdFlags)

	relayPriv, err := keys.LoadOrGenerateEd25519(cfg.Ed25519KeyPath)
	if err != nil {
		logger.Fatalf("load relay key: %v", err)
	}
	var relayKey [32]byte
	copy(relayKey[:], relayPriv.Public().(ed25519.PublicKey))

	// A reference deployment runs with a single operator key acting as
	// admin for every chain's endpoint; RELAY_ADMIN_ADDR lets that be
	// overridden, defaulting to the relay's own identity.
	admin := relayKey
	if cfg.RelayAdminAddr != "" {
		if decoded, err := decodeHexAddr(cfg.RelayAdminAddr); err != nil {
			logger.Fatalf("decode RELAY_ADMIN_ADDR: %v", err)
		} else {
			admin = decoded
		}
	}

	// This reference implementation has no live per-chain RPC client (see
	// cmd/monitor's identical scope note); every chain is a
	// SimulatedAdapter, and its GMP endpoint emits onto that adapter so
	// this relay can discover outbound messages the same way it would
	// discover them on a real chain.
	hub := newChainEndpoint(chainadapter.FamilyHubMVM, cfg.HubChainID, "hub", cfg.HubRPCURL, admin, relayKey, logger)
	connMVM := newChainEndpoint(chainadapter.FamilyConnectedMVM, cfg.ConnectedMVMChainID, "connected-mvm", cfg.ConnectedMVMURL, admin, relayKey, logger)
	connEVM := newChainEndpoint(chainadapter.FamilyConnectedEVM, cfg.ConnectedEVMChainID, "connected-evm", cfg.ConnectedEVMURL, admin, relayKey, logger)
	connSVM := newChainEndpoint(chainadapter.FamilyConnectedSVM, cfg.ConnectedSVMChainID, "connected-svm", cfg.ConnectedSVMURL, admin, relayKey, logger)

	hubBook := escrow.NewHubBook()
	hubDest := escrow.NewHubEscrowDestination(hubBook, log.New(log.Writer(), "[HubEscrow] ", log.LstdFlags))
	// The hub only ever receives FulfillmentProof/EscrowConfirmation
	// (dispatched to its intent_escrow slot); it runs no outflow
	// validator, so that routing side is left unconfigured.
	if err := hub.ep.SetRouting(admin, [32]byte{}, programAddr(hub.chainID, tagIntentEscrow), nil, hubDest); err != nil {
		logger.Fatalf("set hub routing: %v", err)
	}

	connected := []*chainEndpoint{connMVM, connEVM, connSVM}
	for _, c := range connected {
		inflowBook := escrow.NewInflowBook()
		outflowValidator := escrow.NewOutflowValidator(hub.chainID, programAddr(hub.chainID, tagGMPEndpoint))
		inflowDest := escrow.NewInflowEscrowDestination(inflowBook)
		outflowDest := escrow.NewOutflowValidatorDestination(outflowValidator)

		// Both sides of a connected chain's routing are configured: any
		// connected chain can host an inflow escrow (this chain is the
		// solver's chain for an inflow intent) and an outflow validator
		// (this chain is the recipient's chain for an outflow intent)
		// simultaneously, per spec §4.2.
		if err := c.ep.SetRouting(admin, programAddr(c.chainID, tagOutflowValidator), programAddr(c.chainID, tagIntentEscrow), outflowDest, inflowDest); err != nil {
			logger.Fatalf("set routing for chain %d: %v", c.chainID, err)
		}
		if err := c.ep.SetTrustedRemote(admin, hub.chainID, programAddr(hub.chainID, tagGMPEndpoint)); err != nil {
			logger.Fatalf("set trusted remote for chain %d: %v", c.chainID, err)
		}
		if err := hub.ep.SetTrustedRemote(admin, c.chainID, programAddr(c.chainID, tagGMPEndpoint)); err != nil {
			logger.Fatalf("set hub trusted remote for chain %d: %v", c.chainID, err)
		}
	}

	sources := []*relay.Source{
		relay.NewSource(hub.adapter, 0),
		relay.NewSource(connMVM.adapter, 0),
		relay.NewSource(connEVM.adapter, 0),
		relay.NewSource(connSVM.adapter, 0),
	}
	destinations := map[uint64]*gmp.Endpoint{
		hub.chainID:     hub.ep,
		connMVM.chainID: connMVM.ep,
		connEVM.chainID: connEVM.ep,
		connSVM.chainID: connSVM.ep,
	}

	metricsReg := metrics.NewRegistry()
	relayMetrics := relay.NewMetrics(metricsReg.Registerer())
	svc := relay.NewService(sources, destinations, relayKey, relayMetrics, logger)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := svc.Run(ctx, cfg.RelayPollInterval); err != nil && ctx.Err() == nil {
			logger.Printf("relay service stopped: %v", err)
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

	logger.Printf("shutting down relay...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("metrics server shutdown error: %v", err)
	}
	logger.Printf("relay stopped")
}
