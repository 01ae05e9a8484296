// Package store provides the fabric's optional persistence layer: a pooled
// Postgres client that lets a restarted process skip the full monitor
// replay window by reloading its last-known caches, adapted from the
// teacher's pkg/database.Client connection-pooling pattern.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/intentmesh/fabric/pkg/config"
)

// Client wraps a pooled *sql.DB. Every fabric service treats persistence as
// optional: a nil *Client (or one never constructed because DatabaseURL is
// empty) means the service rebuilds its state from chain history instead.
type Client struct {
	db     *sql.DB
	logger *log.Logger
}

// ClientOption configures a Client, matching the teacher's functional-
// options constructor shape.
type ClientOption func(*Client)

// WithLogger overrides the client's default logger.
func WithLogger(logger *log.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// NewClient opens a pooled connection to cfg.DatabaseURL and verifies it
// with a ping. Returns an error if DatabaseURL is empty; callers that want
// to run without persistence should simply not call NewClient.
func NewClient(cfg *config.Config, opts ...ClientOption) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	c := &Client{logger: log.New(log.Writer(), "[Store] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(c)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DatabaseMaxOpenConns)
	db.SetMaxIdleConns(cfg.DatabaseMaxIdleConns)
	db.SetConnMaxIdleTime(cfg.DatabaseConnMaxIdle)
	c.db = db

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	c.logger.Printf("connected to database (max_open=%d, max_idle=%d)", cfg.DatabaseMaxOpenConns, cfg.DatabaseMaxIdleConns)
	return c, nil
}

// DB returns the underlying *sql.DB for repositories built on top of Client.
func (c *Client) DB() *sql.DB { return c.db }

// Close closes the pooled connection.
func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	c.logger.Println("closing database connection")
	return c.db.Close()
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// MigrateUp creates the fabric's persisted tables if they don't already
// exist. Unlike the teacher's embedded migrations directory, the fabric's
// schema is small enough to inline as one idempotent statement set.
func (c *Client) MigrateUp(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS approvals (
	intent_id    TEXT PRIMARY KEY,
	chain_family TEXT NOT NULL,
	signature    TEXT NOT NULL,
	public_key   TEXT NOT NULL,
	signed_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS monitor_checkpoints (
	chain_id           BIGINT PRIMARY KEY,
	last_processed_block BIGINT NOT NULL,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracked_intents (
	draft_id   TEXT PRIMARY KEY,
	intent_id  TEXT NOT NULL DEFAULT '',
	state      TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`
