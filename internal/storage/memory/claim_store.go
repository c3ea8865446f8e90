package memory

import (
	"context"
	"sync"
	"time"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/storage"
)

type jobRecord struct {
	job       domain.ClaimJob
	expiresAt time.Time
}

// ClaimStore is an in-memory implementation of storage.ClaimStore.
type ClaimStore struct {
	mu        sync.RWMutex
	jobs      map[string]jobRecord
	claimable map[string]string
	now       func() time.Time
}

// NewClaimStore creates a new in-memory claim store.
func NewClaimStore() *ClaimStore {
	return &ClaimStore{
		jobs:      make(map[string]jobRecord),
		claimable: make(map[string]string),
		now:       time.Now,
	}
}

// PutJob stores a queued claim job with the given TTL.
func (s *ClaimStore) PutJob(ctx context.Context, job *domain.ClaimJob, ttl time.Duration) error {
	if job == nil || job.JobID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jobs[job.JobID] = jobRecord{
		job:       *job,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// GetJob retrieves a claim job by ID.
func (s *ClaimStore) GetJob(ctx context.Context, jobID string) (*domain.ClaimJob, error) {
	if jobID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	rec, ok := s.jobs[jobID]
	s.mu.RUnlock()

	if !ok || s.now().After(rec.expiresAt) {
		return nil, storage.ErrNotFound
	}

	job := rec.job
	return &job, nil
}

// Claimable returns the claimable amount recorded for a wallet.
func (s *ClaimStore) Claimable(ctx context.Context, wallet string) (string, error) {
	if wallet == "" {
		return "", storage.ErrInvalidInput
	}

	s.mu.RLock()
	amount, ok := s.claimable[wallet]
	s.mu.RUnlock()

	if !ok {
		return "", storage.ErrNotFound
	}
	return amount, nil
}

// SetClaimable records the claimable amount for a wallet.
func (s *ClaimStore) SetClaimable(ctx context.Context, wallet, amount string) error {
	if wallet == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.claimable[wallet] = amount
	return nil
}

// Close releases resources.
func (s *ClaimStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]jobRecord)
	s.claimable = make(map[string]string)
	return nil
}

// Compile-time interface check.
var _ storage.ClaimStore = (*ClaimStore)(nil)
