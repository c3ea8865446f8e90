package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"presale-gateway/internal/domain"
	"presale-gateway/internal/storage"
)

// IntentStore is a PostgreSQL implementation of storage.IntentStore.
// Rows past expires_at are treated as missing; a background sweep or a
// cron-driven DELETE keeps the table small.
type IntentStore struct {
	pool *Pool
}

// NewIntentStore creates a new PostgreSQL intent store.
func NewIntentStore(pool *Pool) *IntentStore {
	return &IntentStore{pool: pool}
}

// Put stores a new intent with the given TTL.
func (s *IntentStore) Put(ctx context.Context, intent *domain.Intent, ttl time.Duration) error {
	if intent == nil || intent.Reference == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO intents (
			reference, kind, memo_tag, buyer_address,
			amount_due, price_used, gated, status,
			created_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		intent.Reference,
		string(intent.Kind),
		intent.MemoTag,
		intent.BuyerAddress,
		intent.AmountDue,
		intent.PriceUsed,
		intent.Gated,
		string(intent.Status),
		intent.CreatedAt,
		intent.CreatedAt.Add(ttl),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("%w: reference already exists", storage.ErrInvalidInput)
		}
		return fmt.Errorf("insert intent: %w", err)
	}

	return nil
}

// Get retrieves an intent by reference.
func (s *IntentStore) Get(ctx context.Context, ref string) (*domain.Intent, error) {
	if ref == "" {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT reference, kind, memo_tag, buyer_address,
		       amount_due, price_used, gated, status,
		       settlement_signature, settled_at, created_at
		FROM intents
		WHERE reference = $1 AND expires_at > now()
	`

	var (
		intent    domain.Intent
		kind      string
		status    string
		signature *string
		amountDue decimal.Decimal
		priceUsed decimal.Decimal
	)

	err := s.pool.QueryRow(ctx, query, ref).Scan(
		&intent.Reference,
		&kind,
		&intent.MemoTag,
		&intent.BuyerAddress,
		&amountDue,
		&priceUsed,
		&intent.Gated,
		&status,
		&signature,
		&intent.SettledAt,
		&intent.CreatedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("select intent: %w", err)
	}

	intent.Kind = domain.IntentKind(kind)
	intent.Status = domain.IntentStatus(status)
	intent.AmountDue = amountDue
	intent.PriceUsed = priceUsed
	if signature != nil {
		intent.SettlementSignature = *signature
	}

	return &intent, nil
}

// MarkSettled transitions an intent to settled. Already settled rows are
// left untouched so the first matched signature wins.
func (s *IntentStore) MarkSettled(ctx context.Context, ref, signature string, settledAt time.Time, ttl time.Duration) error {
	if ref == "" || signature == "" {
		return storage.ErrInvalidInput
	}

	query := `
		UPDATE intents
		SET status = $2,
		    settlement_signature = $3,
		    settled_at = $4,
		    expires_at = $5
		WHERE reference = $1
		  AND expires_at > now()
		  AND status <> $2
	`

	tag, err := s.pool.Exec(ctx, query,
		ref,
		string(domain.StatusSettled),
		signature,
		settledAt,
		settledAt.Add(ttl),
	)
	if err != nil {
		return fmt.Errorf("update intent: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Either missing or already settled; distinguish with a read.
		if _, err := s.Get(ctx, ref); err != nil {
			return err
		}
		return nil
	}

	return nil
}

// Close releases resources. The pool is shared and closed by its owner.
func (s *IntentStore) Close() error {
	return nil
}

// Compile-time interface check.
var _ storage.IntentStore = (*IntentStore)(nil)
