package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/intentmesh/fabric/pkg/validatorsvc"
)

// ApprovalRepository persists validator approvals so a restarted validator
// doesn't need every solver to re-request fulfillment approval, mirroring
// the teacher's one-repository-per-aggregate layout
// (database.AnchorRepository, database.ProofRepository).
type ApprovalRepository struct {
	client *Client
}

// NewApprovalRepository constructs an ApprovalRepository.
func NewApprovalRepository(client *Client) *ApprovalRepository {
	return &ApprovalRepository{client: client}
}

// Save upserts an approval keyed by intent_id.
func (r *ApprovalRepository) Save(ctx context.Context, intentID string, approval validatorsvc.Approval) error {
	const query = `
		INSERT INTO approvals (intent_id, chain_family, signature, public_key, signed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (intent_id) DO UPDATE SET
			chain_family = EXCLUDED.chain_family,
			signature    = EXCLUDED.signature,
			public_key   = EXCLUDED.public_key,
			signed_at    = EXCLUDED.signed_at
	`
	_, err := r.client.DB().ExecContext(ctx, query,
		intentID, approval.ChainFamily, approval.Signature, approval.PublicKey, approval.Timestamp)
	if err != nil {
		return fmt.Errorf("save approval: %w", err)
	}
	return nil
}

// Get loads a persisted approval by intent_id, returning (zero, false, nil)
// if none exists.
func (r *ApprovalRepository) Get(ctx context.Context, intentID string) (validatorsvc.Approval, bool, error) {
	const query = `
		SELECT intent_id, chain_family, signature, public_key, signed_at
		FROM approvals WHERE intent_id = $1
	`
	var approval validatorsvc.Approval
	err := r.client.DB().QueryRowContext(ctx, query, intentID).Scan(
		&approval.IntentID, &approval.ChainFamily, &approval.Signature, &approval.PublicKey, &approval.Timestamp)
	if err == sql.ErrNoRows {
		return validatorsvc.Approval{}, false, nil
	}
	if err != nil {
		return validatorsvc.Approval{}, false, fmt.Errorf("get approval: %w", err)
	}
	return approval, true, nil
}

// List returns every persisted approval, ordered by signed_at.
func (r *ApprovalRepository) List(ctx context.Context) ([]validatorsvc.Approval, error) {
	const query = `
		SELECT intent_id, chain_family, signature, public_key, signed_at
		FROM approvals ORDER BY signed_at ASC
	`
	rows, err := r.client.DB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []validatorsvc.Approval
	for rows.Next() {
		var approval validatorsvc.Approval
		if err := rows.Scan(&approval.IntentID, &approval.ChainFamily, &approval.Signature, &approval.PublicKey, &approval.Timestamp); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// CheckpointRepository persists pkg/monitor's per-chain replay cursor, so a
// restart resumes incremental polling instead of replaying the full window.
type CheckpointRepository struct {
	client *Client
}

// NewCheckpointRepository constructs a CheckpointRepository.
func NewCheckpointRepository(client *Client) *CheckpointRepository {
	return &CheckpointRepository{client: client}
}

// Save upserts the last-processed block for chainID.
func (r *CheckpointRepository) Save(ctx context.Context, chainID, lastProcessedBlock uint64) error {
	const query = `
		INSERT INTO monitor_checkpoints (chain_id, last_processed_block, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (chain_id) DO UPDATE SET
			last_processed_block = EXCLUDED.last_processed_block,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.client.DB().ExecContext(ctx, query, int64(chainID), int64(lastProcessedBlock), time.Now())
	if err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

// Load returns the last-processed block for chainID, or (0, false, nil) if
// none has been persisted yet.
func (r *CheckpointRepository) Load(ctx context.Context, chainID uint64) (uint64, bool, error) {
	const query = `SELECT last_processed_block FROM monitor_checkpoints WHERE chain_id = $1`
	var block int64
	err := r.client.DB().QueryRowContext(ctx, query, int64(chainID)).Scan(&block)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("load checkpoint: %w", err)
	}
	return uint64(block), true, nil
}
