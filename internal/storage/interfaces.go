// Package storage defines interfaces for intent and claim persistence.
package storage

import (
	"context"
	"time"

	"presale-gateway/internal/domain"
)

// IntentStore persists payment intents keyed by reference. Records carry a
// TTL; an expired record behaves exactly like a missing one.
type IntentStore interface {
	// Put stores a new intent with the given TTL.
	// Returns ErrInvalidInput if the intent has no reference.
	Put(ctx context.Context, intent *domain.Intent, ttl time.Duration) error

	// Get retrieves an intent by reference.
	// Returns ErrNotFound if absent or expired.
	Get(ctx context.Context, ref string) (*domain.Intent, error)

	// MarkSettled transitions an intent to settled, recording the matched
	// transaction signature and extending its lifetime to ttl. Marking an
	// already settled intent is a no-op that keeps the first signature.
	// Returns ErrNotFound if absent or expired.
	MarkSettled(ctx context.Context, ref, signature string, settledAt time.Time, ttl time.Duration) error

	// Close releases resources.
	Close() error
}

// ClaimStore persists early-claim jobs and per-wallet claimable amounts.
type ClaimStore interface {
	// PutJob stores a queued claim job with the given TTL.
	// Returns ErrInvalidInput if the job has no ID.
	PutJob(ctx context.Context, job *domain.ClaimJob, ttl time.Duration) error

	// GetJob retrieves a claim job by ID.
	// Returns ErrNotFound if absent or expired.
	GetJob(ctx context.Context, jobID string) (*domain.ClaimJob, error)

	// Claimable returns the claimable token amount recorded for a wallet,
	// as a decimal string. Returns ErrNotFound when nothing is recorded.
	Claimable(ctx context.Context, wallet string) (string, error)

	// SetClaimable records the claimable token amount for a wallet.
	SetClaimable(ctx context.Context, wallet, amount string) error

	// Close releases resources.
	Close() error
}
