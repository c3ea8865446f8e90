package postgres

import (
	"context"
	"fmt"
	"time"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/storage"
)

// ClaimStore is a PostgreSQL implementation of storage.ClaimStore.
type ClaimStore struct {
	pool *Pool
}

// NewClaimStore creates a new PostgreSQL claim store.
func NewClaimStore(pool *Pool) *ClaimStore {
	return &ClaimStore{pool: pool}
}

// PutJob stores a queued claim job with the given TTL.
func (s *ClaimStore) PutJob(ctx context.Context, job *domain.ClaimJob, ttl time.Duration) error {
	if job == nil || job.JobID == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO claim_jobs (
			job_id, buyer_address, fee_signature, status,
			queued_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := s.pool.Exec(ctx, query,
		job.JobID,
		job.BuyerAddress,
		job.FeeSignature,
		string(job.Status),
		job.QueuedAt,
		job.QueuedAt.Add(ttl),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: job id already exists", storage.ErrInvalidInput)
		}
		return fmt.Errorf("insert claim job: %w", err)
	}

	return nil
}

// GetJob retrieves a claim job by ID.
func (s *ClaimStore) GetJob(ctx context.Context, jobID string) (*domain.ClaimJob, error) {
	if jobID == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT job_id, buyer_address, fee_signature, status, queued_at
		FROM claim_jobs
		WHERE job_id = $1 AND expires_at > now()
	`

	var (
		job    domain.ClaimJob
		status string
	)

	err := s.pool.QueryRow(ctx, query, jobID).Scan(
		&job.JobID,
		&job.BuyerAddress,
		&job.FeeSignature,
		&status,
		&job.QueuedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select claim job: %w", err)
	}

	job.Status = domain.ClaimJobStatus(status)
	return &job, nil
}

// Claimable returns the claimable amount recorded for a wallet.
func (s *ClaimStore) Claimable(ctx context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", storage.ErrInvalidInput
	}

	var amount string
	err := s.pool.QueryRow(ctx,
		`SELECT amount FROM claimable_balances WHERE wallet = $1`,
		wallet,
	).Scan(&amount)
	if err != nil {
		if isNotFoundError(err) {
			return "", storage.ErrNotFound
		}
		return "", fmt.Errorf("select claimable: %w", err)
	}

	return amount, nil
}

// SetClaimable records the claimable amount for a wallet.
func (s *ClaimStore) SetClaimable(ctx context.Context, wallet, amount string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO claimable_balances (wallet, amount, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (wallet) DO UPDATE
		SET amount = EXCLUDED.amount, updated_at = now()
	`

	if _, err := s.pool.Exec(ctx, query, wallet, amount); err != nil {
		return fmt.Errorf("upsert claimable: %w", err)
	}

	return nil
}

// Close releases resources. The pool is shared and closed by its owner.
func (s *ClaimStore) Close() error {
	return nil
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)
