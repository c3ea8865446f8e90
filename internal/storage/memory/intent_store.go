// Package memory provides in-memory implementations of storage interfaces,
// useful for development and testing.
package memory

import (
	"context"
	"sync"
	"time"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/storage"
)

type intentRecord struct {
	intent    domain.Intent
	expiresAt time.Time
}

// IntentStore is an in-memory implementation of storage.IntentStore.
// Expired records are dropped lazily on read.
type IntentStore struct {
	mu      sync.RWMutex
	records map[string]intentRecord
	now     func() time.Time
}

// NewIntentStore creates a new in-memory intent store.
func NewIntentStore() *IntentStore {
	return &IntentStore{
		records: make(map[string]intentRecord),
		now:     time.Now,
	}
}

// Put stores a new intent with the given TTL.
func (s *IntentStore) Put(ctx context.Context, intent *domain.Intent, ttl time.Duration) error {
	if intent == nil || intent.Reference == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[intent.Reference] = intentRecord{
		intent:    *intent,
		expiresAt: s.now().Add(ttl),
	}
	return nil
}

// Get retrieves an intent by reference.
func (s *IntentStore) Get(ctx context.Context, ref string) (*domain.Intent, error) {
	if ref == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	rec, ok := s.records[ref]
	s.mu.RUnlock()

	if !ok || s.now().After(rec.expiresAt) {
		return nil, storage.ErrNotFound
	}

	intent := rec.intent
	return &intent, nil
}

// MarkSettled transitions an intent to settled.
func (s *IntentStore) MarkSettled(ctx context.Context, ref, signature string, settledAt time.Time, ttl time.Duration) error {
	if ref == "" || signature == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[ref]
	if !ok || s.now().After(rec.expiresAt) {
		return storage.ErrNotFound
	}

	if rec.intent.Status == domain.StatusSettled {
		return nil
	}

	rec.intent.Status = domain.StatusSettled
	rec.intent.SettledAt = &settledAt
	rec.intent.SettlementSignature = signature
	rec.expiresAt = s.now().Add(ttl)
	s.records[ref] = rec
	return nil
}

// Close releases resources.
func (s *IntentStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]intentRecord)
	return nil
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)
