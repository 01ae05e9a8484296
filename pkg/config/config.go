// Package config loads fabric configuration from environment variables,
// following the env-var-with-explicit-defaults pattern used throughout the
// teacher repo's pkg/config package: every field has a getEnv* accessor, and
// Validate() collects every missing required field into one joined error
// instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds configuration shared by the relay, validator, scheduler, and
// monitor binaries. Each binary only reads the fields it needs.
type Config struct {
	// Identity
	ValidatorID string
	SolverID    string
	LogLevel    string

	// HTTP surfaces
	ValidatorListenAddr string
	MetricsListenAddr   string

	// Chain RPC endpoints, keyed by chain_id in the real deployment; here
	// flattened to the four chain families the fabric ships adapters for.
	HubRPCURL           string
	HubChainID          uint64
	ConnectedMVMURL     string
	ConnectedMVMChainID uint64
	ConnectedEVMURL     string
	ConnectedEVMChainID uint64
	ConnectedSVMURL     string
	ConnectedSVMChainID uint64

	// RelayAdminAddr is the [32]byte admin identity (hex-encoded) every
	// endpoint's Initialize/AddRelay/SetTrustedRemote/SetRouting calls are
	// authorized against. A reference deployment has one operator key
	// acting as admin for every chain's endpoint.
	RelayAdminAddr string

	// Keys
	Ed25519KeyPath string
	ECDSAKeyPath   string

	// Relay
	RelayPollInterval time.Duration
	RelayRPCTimeout   time.Duration

	// Monitor
	MonitorPollInterval    time.Duration
	MonitorReplayWindow    time.Duration
	MonitorBlocksPerSecond float64

	// Scheduler
	SchedulerRateTablePath      string
	SchedulerSolverRegistryPath string
	SchedulerReservationAging   time.Duration
	SchedulerPollInterval       time.Duration
	VerifierURL                 string

	// ValidatorBaseURL is the validator HTTP surface (pkg/validatorsvc/server)
	// the scheduler's outflow service calls for POST
	// /validate-outflow-fulfillment and GET /approvals.
	ValidatorBaseURL string

	// Liquidity
	LiquidityPollInterval   time.Duration
	LiquidityInFlightExpiry time.Duration
	LiquidityMinThreshold   uint64

	// Optional persistence (pkg/store); empty DatabaseURL means
	// everything is reconstructed from chain history on startup, per
	// spec §3's "persistence is optional" ownership rule.
	DatabaseURL          string
	DatabaseMaxOpenConns int
	DatabaseMaxIdleConns int
	DatabaseConnMaxIdle  time.Duration
}

// Load reads configuration from environment variables with production-safe
// defaults for poll intervals and timeouts, local default paths for the key
// files, and empty defaults for anything that must be explicitly supplied
// (RPC URLs, verifier/validator URLs, database URL).
func Load() (*Config, error) {
	cfg := &Config{
		ValidatorID: getEnv("VALIDATOR_ID", "validator-default"),
		SolverID:    getEnv("SOLVER_ID", "solver-default"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		ValidatorListenAddr: getEnv("VALIDATOR_LISTEN_ADDR", "0.0.0.0:8080"),
		MetricsListenAddr:   getEnv("METRICS_LISTEN_ADDR", "0.0.0.0:9090"),

		HubRPCURL:           getEnv("HUB_RPC_URL", ""),
		HubChainID:          getEnvUint64("HUB_CHAIN_ID", 1),
		ConnectedMVMURL:     getEnv("CONNECTED_MVM_RPC_URL", ""),
		ConnectedMVMChainID: getEnvUint64("CONNECTED_MVM_CHAIN_ID", 2),
		ConnectedEVMURL:     getEnv("CONNECTED_EVM_RPC_URL", ""),
		ConnectedEVMChainID: getEnvUint64("CONNECTED_EVM_CHAIN_ID", 3),
		ConnectedSVMURL:     getEnv("CONNECTED_SVM_RPC_URL", ""),
		ConnectedSVMChainID: getEnvUint64("CONNECTED_SVM_CHAIN_ID", 4),

		RelayAdminAddr: getEnv("RELAY_ADMIN_ADDR", ""),

		Ed25519KeyPath: getEnv("ED25519_KEY_PATH", "./data/ed25519_key.hex"),
		ECDSAKeyPath:   getEnv("ECDSA_KEY_PATH", "./data/ecdsa_key.hex"),

		RelayPollInterval: getEnvDuration("RELAY_POLL_INTERVAL", 5*time.Second),
		RelayRPCTimeout:   getEnvDuration("RELAY_RPC_TIMEOUT", 30*time.Second),

		MonitorPollInterval:    getEnvDuration("MONITOR_POLL_INTERVAL", 5*time.Second),
		MonitorReplayWindow:    getEnvDuration("MONITOR_REPLAY_WINDOW", 7*24*time.Hour),
		MonitorBlocksPerSecond: getEnvFloat64("MONITOR_BLOCKS_PER_SECOND", 0.5),

		SchedulerRateTablePath:      getEnv("SCHEDULER_RATE_TABLE_PATH", "./config/rates.yaml"),
		SchedulerSolverRegistryPath: getEnv("SCHEDULER_SOLVER_REGISTRY_PATH", "./config/solvers.yaml"),
		SchedulerReservationAging:   getEnvDuration("SCHEDULER_RESERVATION_AGING", 10*time.Minute),
		SchedulerPollInterval:       getEnvDuration("SCHEDULER_POLL_INTERVAL", 5*time.Second),
		VerifierURL:                 getEnv("VERIFIER_URL", ""),
		ValidatorBaseURL:            getEnv("VALIDATOR_BASE_URL", ""),

		LiquidityPollInterval:   getEnvDuration("LIQUIDITY_POLL_INTERVAL", 30*time.Second),
		LiquidityInFlightExpiry: getEnvDuration("LIQUIDITY_IN_FLIGHT_EXPIRY", 15*time.Minute),
		LiquidityMinThreshold:   getEnvUint64("LIQUIDITY_MIN_THRESHOLD", 0),

		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DatabaseMaxOpenConns: int(getEnvUint64("DATABASE_MAX_OPEN_CONNS", 10)),
		DatabaseMaxIdleConns: int(getEnvUint64("DATABASE_MAX_IDLE_CONNS", 5)),
		DatabaseConnMaxIdle:  getEnvDuration("DATABASE_CONN_MAX_IDLE", 5*time.Minute),
	}
	return cfg, nil
}

// Validate checks that the fields required for a production deployment are
// present, collecting every failure into a single error.
func (c *Config) Validate() error {
	var errs []string
	if c.HubRPCURL == "" {
		errs = append(errs, "HUB_RPC_URL is required but not set")
	}
	if c.ValidatorID == "" {
		errs = append(errs, "VALIDATOR_ID is required but not set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
